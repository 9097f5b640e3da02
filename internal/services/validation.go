package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/orgpay/payroll/internal/factory"
	"github.com/orgpay/payroll/internal/ledger"
	"github.com/orgpay/payroll/internal/registry"
)

// ErrorResponse represents error response structure
type ErrorResponse struct {
	Error   string            `json:"error"`             // Error message
	Details map[string]string `json:"details,omitempty"` // Validation details
}

// ValidationHelper provides shared validation functionality
type ValidationHelper struct {
	validator *validator.Validate
}

// NewValidationHelper creates a new validation helper
func NewValidationHelper() *ValidationHelper {
	return &ValidationHelper{
		validator: validator.New(),
	}
}

// ValidateStruct validates a struct and returns validation errors
func (vh *ValidationHelper) ValidateStruct(s any) error {
	return vh.validator.Struct(s)
}

// SendErrorResponse sends a JSON error response
func SendErrorResponse(w http.ResponseWriter, message string, statusCode int, validationErr error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errorResp := ErrorResponse{Error: message}
	if validationErr != nil {
		errorResp.Details = make(map[string]string)
		var verrs validator.ValidationErrors
		if errors.As(validationErr, &verrs) {
			for _, err := range verrs {
				errorResp.Details[err.Field()] = fmt.Sprintf("Field Validation Failed on '%s' tag", err.Tag())
			}
		}
	}

	json.NewEncoder(w).Encode(errorResp)
}

// SendLedgerError maps a core ledger error to the HTTP status identifying
// exactly which precondition was violated.
func SendLedgerError(w http.ResponseWriter, err error) {
	SendErrorResponse(w, err.Error(), statusForError(err), nil)
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, ledger.ErrUnauthorizedAccess),
		errors.Is(err, registry.ErrUnauthorizedAccess):
		return http.StatusForbidden
	case errors.Is(err, ledger.ErrRecipientNotFound),
		errors.Is(err, ledger.ErrAdvanceNotFound),
		errors.Is(err, factory.ErrOrganizationNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrRecipientExists),
		errors.Is(err, ledger.ErrAlreadyApproved),
		errors.Is(err, factory.ErrOrganizationExists),
		errors.Is(err, registry.ErrTokenAlreadySupported):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrReentrantCall):
		return http.StatusLocked
	case errors.Is(err, ledger.ErrTransferFailed):
		return http.StatusBadGateway
	case errors.Is(err, ledger.ErrInvalidAddress),
		errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInvalidInput),
		errors.Is(err, ledger.ErrInvalidAllowance),
		errors.Is(err, ledger.ErrNameRequired),
		errors.Is(err, ledger.ErrDescriptionRequired),
		errors.Is(err, ledger.ErrInvalidFee),
		errors.Is(err, ledger.ErrInvalidRequest),
		errors.Is(err, ledger.ErrInvalidToken),
		errors.Is(err, ledger.ErrTokenNotSupported),
		errors.Is(err, registry.ErrInvalidTokenName),
		errors.Is(err, registry.ErrInvalidTokenAddress),
		errors.Is(err, registry.ErrInvalidToken):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
