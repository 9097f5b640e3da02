package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/orgpay/payroll/internal/factory"
	"github.com/orgpay/payroll/internal/middleware"
	"github.com/orgpay/payroll/internal/services"
)

type ReceiptHandler struct {
	service   *services.ReceiptService
	factory   *factory.Factory
	validator *services.ValidationHelper
}

func NewReceiptHandler(service *services.ReceiptService, f *factory.Factory) *ReceiptHandler {
	return &ReceiptHandler{
		service:   service,
		factory:   f,
		validator: services.NewValidationHelper(),
	}
}

// GenerateReceipt issues a QR receipt for a recorded payment
// @Summary Generate payment receipt
// @Description Generate a scannable QR receipt for one of the caller's recorded payments
// @Tags receipts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{paymentId=string} true "Receipt generation request"
// @Success 200 {object} object{receipt=string,qrImage=string}
// @Failure 400 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /receipts/generate [post]
func (h *ReceiptHandler) GenerateReceipt(w http.ResponseWriter, r *http.Request) {
	wallet := middleware.CallerWallet(r.Context())
	if wallet == "" {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req struct {
		PaymentID string `json:"paymentId" validate:"required"`
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	l, err := h.factory.Organization(wallet)
	if err != nil {
		services.SendLedgerError(w, err)
		return
	}

	for _, p := range l.Payments() {
		if p.ID != req.PaymentID {
			continue
		}
		receipt, qrImage, err := h.service.GenerateReceipt(r.Context(), l.Organization().ID, p)
		if err != nil {
			services.SendErrorResponse(w, err.Error(), http.StatusInternalServerError, nil)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"receipt": receipt,
			"qrImage": qrImage,
		})
		return
	}

	services.SendErrorResponse(w, "Payment not found", http.StatusNotFound, nil)
}

// VerifyReceipt resolves a scanned receipt
// @Summary Verify payment receipt
// @Description Resolve a scanned QR receipt back to its payment details
// @Tags receipts
// @Accept json
// @Produce json
// @Param request body object{receipt=string} true "Receipt verification request"
// @Success 200 {object} object{data=map[string]any}
// @Failure 400 {object} services.ErrorResponse
// @Router /receipts/verify [post]
func (h *ReceiptHandler) VerifyReceipt(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Receipt string `json:"receipt" validate:"required"`
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	result, err := h.service.VerifyReceipt(r.Context(), req.Receipt)
	if err != nil {
		services.SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"data":    result,
	})
}
