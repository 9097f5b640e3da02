package services

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/orgpay/payroll/internal/audit"
	"github.com/orgpay/payroll/internal/factory"
	"github.com/orgpay/payroll/internal/middleware"
	"go.uber.org/zap"
)

// PayrollService exposes the organization ledger over HTTP. The caller's
// wallet from the auth token is the identity handed to every core operation;
// the core performs its own capability checks on top.
type PayrollService struct {
	factory   *factory.Factory
	archive   *audit.Archive // optional event archive for the audit endpoint
	validator *ValidationHelper
	log       *zap.Logger
}

func NewPayrollService(f *factory.Factory, archive *audit.Archive, log *zap.Logger) *PayrollService {
	return &PayrollService{
		factory:   f,
		archive:   archive,
		validator: NewValidationHelper(),
		log:       log.Named("payroll"),
	}
}

// CreateOrganizationRequest creates a new payroll ledger
// @Description Organization creation payload
type CreateOrganizationRequest struct {
	Name         string `json:"name" validate:"required" example:"Acme Corp"`
	Description  string `json:"description" validate:"required" example:"Acme engineering payroll"`
	FeeCollector string `json:"feeCollector,omitempty" example:"0xfee"`
}

// UpdateOrganizationRequest updates the mutable info fields
type UpdateOrganizationRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description" validate:"required"`
}

// CreateRecipientRequest registers a payee
type CreateRecipientRequest struct {
	WalletAddress string `json:"walletAddress" validate:"required" example:"0xr1"`
	Name          string `json:"name" validate:"required" example:"Jordan Smith"`
	SalaryAmount  int64  `json:"salaryAmount" validate:"required,gt=0" example:"250000"`
}

// BatchCreateRecipientsRequest registers several payees atomically
type BatchCreateRecipientsRequest struct {
	Recipients []CreateRecipientRequest `json:"recipients" validate:"required,min=1,max=100,dive"`
}

// UpdateRecipientRequest renames a payee
type UpdateRecipientRequest struct {
	Name string `json:"name" validate:"required"`
}

// UpdateSalaryRequest changes a payee's salary baseline
type UpdateSalaryRequest struct {
	SalaryAmount int64 `json:"salaryAmount" validate:"required,gt=0"`
}

// DisburseRequest pays a single recipient a net amount
type DisburseRequest struct {
	TokenAddress  string `json:"tokenAddress" validate:"required"`
	WalletAddress string `json:"walletAddress" validate:"required"`
	NetAmount     int64  `json:"netAmount" validate:"required,gt=0"`
}

// BatchDisburseItem is one element of a batch disbursement
type BatchDisburseItem struct {
	WalletAddress string `json:"walletAddress" validate:"required"`
	NetAmount     int64  `json:"netAmount" validate:"required,gt=0"`
}

// BatchDisburseRequest pays many recipients in one gated batch
type BatchDisburseRequest struct {
	TokenAddress string              `json:"tokenAddress" validate:"required"`
	Items        []BatchDisburseItem `json:"items" validate:"required,min=1,max=100,dive"`
}

// AdvanceRequestPayload opens a cash-advance request for the caller
type AdvanceRequestPayload struct {
	Amount       int64  `json:"amount" validate:"required,gt=0"`
	TokenAddress string `json:"tokenAddress" validate:"required"`
}

// AdvanceLimitRequest sets an advance limit
type AdvanceLimitRequest struct {
	Limit int64 `json:"limit" validate:"gte=0"`
}

// FeeRequest sets the transaction fee in basis points
type FeeRequest struct {
	BPS int64 `json:"bps" validate:"gte=0,lte=80"`
}

// CollectorRequest sets the fee collector address
type CollectorRequest struct {
	Address string `json:"address" validate:"required"`
}

// TokenRequest adds a token to the allow-list
type TokenRequest struct {
	Name    string `json:"name" validate:"required" example:"USD Stable"`
	Address string `json:"address" validate:"required" example:"0xusd"`
}

func (ps *PayrollService) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	maxBytes := 1_048_576 // 1 MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return false
	}
	if err := ps.validator.ValidateStruct(dst); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// caller resolves the authenticated wallet and that wallet's ledger.
func (ps *PayrollService) callerLedger(w http.ResponseWriter, r *http.Request) (string, bool) {
	wallet := middleware.CallerWallet(r.Context())
	if wallet == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return "", false
	}
	return wallet, true
}

// CreateOrganization deploys a ledger for the caller
// @Summary Create organization
// @Description Create the caller's payroll organization ledger
// @Tags organizations
// @Accept json
// @Produce json
// @Param request body CreateOrganizationRequest true "Organization data"
// @Success 201 {object} models.Organization
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /organizations [post]
func (ps *PayrollService) CreateOrganization(w http.ResponseWriter, r *http.Request) {
	wallet, ok := ps.callerLedger(w, r)
	if !ok {
		return
	}
	var req CreateOrganizationRequest
	if !ps.decode(w, r, &req) {
		return
	}

	l, err := ps.factory.CreateOrganization(r.Context(), wallet, req.Name, req.Description, req.FeeCollector)
	if err != nil {
		SendLedgerError(w, err)
		return
	}
	ps.log.Info("organization created", zap.String("owner", wallet), zap.String("name", req.Name))
	writeJSON(w, http.StatusCreated, l.Organization())
}

// GetOrganization returns the caller's organization
// @Summary Get organization
// @Tags organizations
// @Produce json
// @Success 200 {object} models.Organization
// @Failure 404 {object} ErrorResponse
// @Router /organizations [get]
func (ps *PayrollService) GetOrganization(w http.ResponseWriter, r *http.Request) {
	wallet, ok := ps.callerLedger(w, r)
	if !ok {
		return
	}
	l, err := ps.factory.Organization(wallet)
	if err != nil {
		SendLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l.Organization())
}

// UpdateOrganization updates name and description
// @Summary Update organization info
// @Tags organizations
// @Accept json
// @Produce json
// @Param request body UpdateOrganizationRequest true "Updated info"
// @Success 200 {object} models.Organization
// @Failure 400 {object} ErrorResponse
// @Router /organizations [put]
func (ps *PayrollService) UpdateOrganization(w http.ResponseWriter, r *http.Request) {
	wallet, ok := ps.callerLedger(w, r)
	if !ok {
		return
	}
	var req UpdateOrganizationRequest
	if !ps.decode(w, r, &req) {
		return
	}
	l, err := ps.factory.Organization(wallet)
	if err != nil {
		SendLedgerError(w, err)
		return
	}
	if err := l.UpdateOrganization(r.Context(), wallet, req.Name, req.Description); err != nil {
		SendLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l.Organization())
}

// CreateRecipient registers a payee wallet
// @Summary Create recipient
// @Tags recipients
// @Accept json
// @Produce json
// @Param request body CreateRecipientRequest true "Recipient data"
// @Success 201 {object} models.Recipient
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /organizations/recipients [post]
func (ps *PayrollService) CreateRecipient(w http.ResponseWriter, r *http.Request) {
	wallet, ok := ps.callerLedger(w, r)
	if !ok {
		return
	}
	var req CreateRecipientRequest
	if !ps.decode(w, r, &req) {
		return
	}
	l, err := ps.factory.Organization(wallet)
	if err != nil {
		SendLedgerError(w, err)
		return
	}
	if _, err := l.CreateRecipient(r.Context(), wallet, req.WalletAddress, req.Name, req.SalaryAmount); err != nil {
		SendLedgerError(w, err)
		return
	}
	rec, err := l.Recipient(req.WalletAddress)
	if err != nil {
		SendLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// BatchCreateRecipients registers several payees atomically
// @Summary Batch create recipients
// @Description All-or-nothing registration of multiple recipients
// @Tags recipients
// @Accept json
// @Produce json
// @Param request body BatchCreateRecipientsRequest true "Recipients"
// @Success 201 {object} object{created=int}
// @Failure 400 {object} ErrorResponse
// @Router /organizations/recipients/batch [post]
func (ps *PayrollService) BatchCreateRecipients(w http.ResponseWriter, r *http.Request) {
	wallet, ok := ps.callerLedger(w, r)
	if !ok {
		return
	}
	var req BatchCreateRecipientsRequest
	if !ps.decode(w, r, &req) {
		return
	}
	l, err := ps.factory.Organization(wallet)
	if err != nil {
		SendLedgerError(w, err)
		return
	}

	wallets := make([]string, len(req.Recipients))
	names := make([]string, len(req.Recipients))
	salaries := make([]int64, len(req.Recipients))
	for i, rec := range req.Recipients {
		wallets[i] = rec.WalletAddress
		names[i] = rec.Name
		salaries[i] = rec.SalaryAmount
	}
	if err := l.BatchCreateRecipients(r.Context(), wallet, wallets, names, salaries); err != nil {
		SendLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"created": len(wallets)})
}

// UpdateRecipient renames a payee
// @Summary Update recipient name
// @Tags recipients
// @Accept json
// @Produce json
// @Param wallet path string true "Recipient wallet address"
// @Param request body UpdateRecipientRequest true "New name"
// @Success 200 {object} models.Recipient
// @Failure 404 {object} ErrorResponse
// @Router /organizations/recipients/{wallet} [put]
func (ps *PayrollService) UpdateRecipient(w http.ResponseWriter, r *http.Request) {
	wallet, ok := ps.callerLedger(w, r)
	if !ok {
		return
	}
	target := chi.URLParam(r, "wallet")
	var req UpdateRecipientRequest
	if !ps.decode(w, r, &req) {
		return
	}
	l, err := ps.factory.Organization(wallet)
	if err != nil {
		SendLedgerError(w, err)
		return
	}
	if err := l.UpdateRecipient(r.Context(), wallet, target, req.Name); err != nil {
		SendLedgerError(w, err)
		return
	}
	rec, _ := l.Recipient(target)
	writeJSON(w, http.StatusOK, rec)
}

// UpdateRecipientSalary changes the salary baseline
// @Summary Update recipient salary
// @Tags recipients
// @Accept json
// @Produce json
// @Param wallet path string true "Recipient wallet address"
// @Param request body UpdateSalaryRequest true "New salary"
// @Success 200 {object} models.Recipient
// @Failure 404 {object} ErrorResponse
// @Router /organizations/recipients/{wallet}/salary [put]
func (ps *PayrollService) UpdateRecipientSalary(w http.ResponseWriter, r *http.Request) {
	wallet, ok := ps.callerLedger(w, r)
	if !ok {
		return
	}
	target := chi.URLParam(r, "wallet")
	var req UpdateSalaryRequest
	if !ps.decode(w, r, &req) {
		return
	}
	l, err := ps.factory.Organization(wallet)
	if err != nil {
		SendLedgerError(w, err)
		return
	}
	if err := l.UpdateRecipientSalary(r.Context(), wallet, target, req.SalaryAmount); err != nil {
		SendLedgerError(w, err)
		return
	}
	rec, _ := l.Recipient(target)
	writeJSON(w, http.StatusOK, rec)
}

// GetRecipient fetches one payee record
// @Summary Get recipient
// @Tags recipients
// @Produce json
// @Param wallet path string true "Recipient wallet address"
// @Success 200 {object} models.Recipient
// @Failure 404 {object} ErrorResponse
// @Router /organizations/recipients/{wallet} [get]
func (ps *PayrollService) GetRecipient(w http.ResponseWriter, r *http.Request) {
	wallet, ok := ps.callerLedger(w, r)
	if !ok {
		return
	}
	l, err := ps.factory.Organization(wallet)
	if err != nil {
		SendLedgerError(w, err)
		return
	}
	rec, err := l.Recipient(chi.URLParam(r, "wallet"))
	if err != nil {
		SendLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// ListRecipients lists payees in creation order
// @Summary List recipients
// @Tags recipients
// @Produce json
// @Success 200 {object} object{recipients=[]models.Recipient,count=int}
// @Router /organizations/recipients [get]
func (ps *PayrollService) ListRecipients(w http.ResponseWriter, r *http.Request) {
	wallet, ok := ps.callerLedger(w, r)
	if !ok {
		return
	}
	l, err := ps.factory.Organization(wallet)
	if err != nil {
		SendLedgerError(w, err)
		return
	}
	recipients := l.Recipients()
	writeJSON(w, http.StatusOK, map[string]any{
		"recipients": recipients,
		"count":      len(recipients),
	})
}

// Disburse pays one recipient
// @Summary Disburse tokens
// @Description Pay a recipient a net amount; the owner is charged gross and any outstanding advance is netted out
// @Tags disbursements
// @Accept json
// @Produce json
// @Param request body DisburseRequest true "Disbursement"
// @Success 200 {object} map[string]any
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /disbursements [post]
func (ps *PayrollService) Disburse(w http.ResponseWriter, r *http.Request) {
	wallet, ok := ps.callerLedger(w, r)
	if !ok {
		return
	}
	var req DisburseRequest
	if !ps.decode(w, r, &req) {
		return
	}
	l, err := ps.factory.Organization(wallet)
	if err != nil {
		SendLedgerError(w, err)
		return
	}
	if err := l.DisburseToken(r.Context(), wallet, req.TokenAddress, req.WalletAddress, req.NetAmount); err != nil {
		SendLedgerError(w, err)
		return
	}
	ps.log.Info("disbursed",
		zap.String("owner", wallet),
		zap.String("recipient", req.WalletAddress),
		zap.Int64("net_amount", req.NetAmount))
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"recipient": req.WalletAddress,
		"netAmount": req.NetAmount,
	})
}

// BatchDisburse pays many recipients in one batch
// @Summary Batch disburse tokens
// @Description All-or-nothing validated batch; a single allowance check gates every transfer
// @Tags disbursements
// @Accept json
// @Produce json
// @Param request body BatchDisburseRequest true "Batch disbursement"
// @Success 200 {object} map[string]any
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /disbursements/batch [post]
func (ps *PayrollService) BatchDisburse(w http.ResponseWriter, r *http.Request) {
	wallet, ok := ps.callerLedger(w, r)
	if !ok {
		return
	}
	var req BatchDisburseRequest
	if !ps.decode(w, r, &req) {
		return
	}
	l, err := ps.factory.Organization(wallet)
	if err != nil {
		SendLedgerError(w, err)
		return
	}

	wallets := make([]string, len(req.Items))
	amounts := make([]int64, len(req.Items))
	for i, item := range req.Items {
		wallets[i] = item.WalletAddress
		amounts[i] = item.NetAmount
	}
	if err := l.BatchDisburseToken(r.Context(), wallet, req.TokenAddress, wallets, amounts); err != nil {
		SendLedgerError(w, err)
		return
	}
	ps.log.Info("batch disbursed", zap.String("owner", wallet), zap.Int("recipients", len(wallets)))
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"recipients": len(wallets),
	})
}

// ListPayments returns the payment history
// @Summary List payments
// @Description Full history, or filtered by recipient, preserving insertion order
// @Tags payments
// @Produce json
// @Param recipient query string false "Filter by recipient wallet"
// @Success 200 {object} object{payments=[]models.Payment,count=int}
// @Router /payments [get]
func (ps *PayrollService) ListPayments(w http.ResponseWriter, r *http.Request) {
	wallet, ok := ps.callerLedger(w, r)
	if !ok {
		return
	}
	l, err := ps.factory.Organization(wallet)
	if err != nil {
		SendLedgerError(w, err)
		return
	}

	var payments = l.Payments()
	if recipient := r.URL.Query().Get("recipient"); recipient != "" {
		payments = l.PaymentsFor(recipient)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"payments": payments,
		"count":    len(payments),
	})
}

// RequestAdvance opens an advance request for the calling recipient
// @Summary Request advance
// @Description Recipient requests a cash advance against future salary; no funds move yet
// @Tags advances
// @Accept json
// @Produce json
// @Param owner query string true "Organization owner wallet"
// @Param request body AdvanceRequestPayload true "Advance request"
// @Success 201 {object} models.AdvanceRequest
// @Failure 400 {object} ErrorResponse
// @Router /advances [post]
func (ps *PayrollService) RequestAdvance(w http.ResponseWriter, r *http.Request) {
	wallet, ok := ps.callerLedger(w, r)
	if !ok {
		return
	}
	owner := r.URL.Query().Get("owner")
	if owner == "" {
		SendErrorResponse(w, "owner query parameter required", http.StatusBadRequest, nil)
		return
	}
	var req AdvanceRequestPayload
	if !ps.decode(w, r, &req) {
		return
	}
	l, err := ps.factory.Organization(owner)
	if err != nil {
		SendLedgerError(w, err)
		return
	}
	if err := l.RequestAdvance(r.Context(), wallet, req.Amount, req.TokenAddress); err != nil {
		SendLedgerError(w, err)
		return
	}
	adv, _ := l.AdvanceRequestFor(wallet)
	writeJSON(w, http.StatusCreated, adv)
}

// ApproveAdvance approves a pending request and moves the funds
// @Summary Approve advance
// @Tags advances
// @Produce json
// @Param wallet path string true "Recipient wallet address"
// @Success 200 {object} models.AdvanceRequest
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /advances/{wallet}/approve [post]
func (ps *PayrollService) ApproveAdvance(w http.ResponseWriter, r *http.Request) {
	wallet, ok := ps.callerLedger(w, r)
	if !ok {
		return
	}
	target := chi.URLParam(r, "wallet")
	l, err := ps.factory.Organization(wallet)
	if err != nil {
		SendLedgerError(w, err)
		return
	}
	if err := l.ApproveAdvance(r.Context(), wallet, target); err != nil {
		SendLedgerError(w, err)
		return
	}
	adv, _ := l.AdvanceRequestFor(target)
	writeJSON(w, http.StatusOK, adv)
}

// ListPendingAdvances lists requests awaiting approval
// @Summary List pending advances
// @Tags advances
// @Produce json
// @Success 200 {object} object{requests=[]models.AdvanceRequest,count=int}
// @Router /advances/pending [get]
func (ps *PayrollService) ListPendingAdvances(w http.ResponseWriter, r *http.Request) {
	wallet, ok := ps.callerLedger(w, r)
	if !ok {
		return
	}
	l, err := ps.factory.Organization(wallet)
	if err != nil {
		SendLedgerError(w, err)
		return
	}
	pending := l.PendingAdvances()
	writeJSON(w, http.StatusOK, map[string]any{
		"requests": pending,
		"count":    len(pending),
	})
}

// SetDefaultAdvanceLimit sets the limit for future recipients
// @Summary Set default advance limit
// @Tags advances
// @Accept json
// @Produce json
// @Param request body AdvanceLimitRequest true "Limit"
// @Success 200 {object} map[string]any
// @Router /advances/limit [put]
func (ps *PayrollService) SetDefaultAdvanceLimit(w http.ResponseWriter, r *http.Request) {
	wallet, ok := ps.callerLedger(w, r)
	if !ok {
		return
	}
	var req AdvanceLimitRequest
	if !ps.decode(w, r, &req) {
		return
	}
	l, err := ps.factory.Organization(wallet)
	if err != nil {
		SendLedgerError(w, err)
		return
	}
	if err := l.SetDefaultAdvanceLimit(r.Context(), wallet, req.Limit); err != nil {
		SendLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"limit": req.Limit})
}

// SetRecipientAdvanceLimit overrides the limit for one recipient
// @Summary Set recipient advance limit
// @Tags advances
// @Accept json
// @Produce json
// @Param wallet path string true "Recipient wallet address"
// @Param request body AdvanceLimitRequest true "Limit"
// @Success 200 {object} models.Recipient
// @Failure 404 {object} ErrorResponse
// @Router /organizations/recipients/{wallet}/advance-limit [put]
func (ps *PayrollService) SetRecipientAdvanceLimit(w http.ResponseWriter, r *http.Request) {
	wallet, ok := ps.callerLedger(w, r)
	if !ok {
		return
	}
	target := chi.URLParam(r, "wallet")
	var req AdvanceLimitRequest
	if !ps.decode(w, r, &req) {
		return
	}
	l, err := ps.factory.Organization(wallet)
	if err != nil {
		SendLedgerError(w, err)
		return
	}
	if err := l.SetRecipientAdvanceLimit(r.Context(), wallet, target, req.Limit); err != nil {
		SendLedgerError(w, err)
		return
	}
	rec, _ := l.Recipient(target)
	writeJSON(w, http.StatusOK, rec)
}

// SetTransactionFee relays a fee change through the factory
// @Summary Set transaction fee
// @Description Factory-owner operation; fee is basis points of gross, at most 80
// @Tags admin
// @Accept json
// @Produce json
// @Param owner path string true "Organization owner wallet"
// @Param request body FeeRequest true "Fee in bps"
// @Success 200 {object} map[string]any
// @Failure 403 {object} ErrorResponse
// @Router /admin/organizations/{owner}/fee [put]
func (ps *PayrollService) SetTransactionFee(w http.ResponseWriter, r *http.Request) {
	wallet, ok := ps.callerLedger(w, r)
	if !ok {
		return
	}
	owner := chi.URLParam(r, "owner")
	var req FeeRequest
	if !ps.decode(w, r, &req) {
		return
	}
	if err := ps.factory.SetTransactionFee(r.Context(), wallet, owner, req.BPS); err != nil {
		SendLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bps": req.BPS})
}

// SetFeeCollector relays a collector change through the factory
// @Summary Set fee collector
// @Tags admin
// @Accept json
// @Produce json
// @Param owner path string true "Organization owner wallet"
// @Param request body CollectorRequest true "Collector address"
// @Success 200 {object} map[string]any
// @Failure 403 {object} ErrorResponse
// @Router /admin/organizations/{owner}/collector [put]
func (ps *PayrollService) SetFeeCollector(w http.ResponseWriter, r *http.Request) {
	wallet, ok := ps.callerLedger(w, r)
	if !ok {
		return
	}
	owner := chi.URLParam(r, "owner")
	var req CollectorRequest
	if !ps.decode(w, r, &req) {
		return
	}
	if err := ps.factory.SetFeeCollector(r.Context(), wallet, owner, req.Address); err != nil {
		SendLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"collector": req.Address})
}

// AddToken adds a token to the shared allow-list
// @Summary Add supported token
// @Tags admin
// @Accept json
// @Produce json
// @Param request body TokenRequest true "Token"
// @Success 201 {object} map[string]any
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /admin/tokens [post]
func (ps *PayrollService) AddToken(w http.ResponseWriter, r *http.Request) {
	wallet, ok := ps.callerLedger(w, r)
	if !ok {
		return
	}
	var req TokenRequest
	if !ps.decode(w, r, &req) {
		return
	}
	if err := ps.factory.AddToken(r.Context(), wallet, req.Name, req.Address); err != nil {
		SendLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"address": req.Address, "name": req.Name})
}

// RemoveToken removes a token from the allow-list
// @Summary Remove supported token
// @Tags admin
// @Produce json
// @Param address path string true "Token address"
// @Success 200 {object} map[string]any
// @Failure 403 {object} ErrorResponse
// @Router /admin/tokens/{address} [delete]
func (ps *PayrollService) RemoveToken(w http.ResponseWriter, r *http.Request) {
	wallet, ok := ps.callerLedger(w, r)
	if !ok {
		return
	}
	address := chi.URLParam(r, "address")
	if err := ps.factory.RemoveToken(r.Context(), wallet, address); err != nil {
		SendLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"removed": address})
}

// ListTokens lists the allow-list in insertion order
// @Summary List supported tokens
// @Tags tokens
// @Produce json
// @Success 200 {object} object{tokens=[]string,count=int}
// @Router /tokens [get]
func (ps *PayrollService) ListTokens(w http.ResponseWriter, r *http.Request) {
	tokens := ps.factory.Registry().SupportedTokens()
	writeJSON(w, http.StatusOK, map[string]any{
		"tokens": tokens,
		"count":  ps.factory.Registry().Count(),
	})
}

// ListEvents returns archived ledger events for the caller's organization
// @Summary List audit events
// @Tags audit
// @Produce json
// @Param limit query int false "Max events (default 50)"
// @Success 200 {object} object{events=[]audit.ArchivedEvent}
// @Failure 503 {object} ErrorResponse
// @Router /organizations/events [get]
func (ps *PayrollService) ListEvents(w http.ResponseWriter, r *http.Request) {
	wallet, ok := ps.callerLedger(w, r)
	if !ok {
		return
	}
	if ps.archive == nil {
		SendErrorResponse(w, "Event archive not configured", http.StatusServiceUnavailable, nil)
		return
	}
	l, err := ps.factory.Organization(wallet)
	if err != nil {
		SendLedgerError(w, err)
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	events, err := ps.archive.Events(r.Context(), l.Organization().ID, limit)
	if err != nil {
		SendErrorResponse(w, "Failed to fetch events", http.StatusInternalServerError, nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}
