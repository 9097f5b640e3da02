package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/orgpay/payroll/internal/factory"
	"github.com/orgpay/payroll/internal/ledger"
	"github.com/orgpay/payroll/internal/registry"
	"github.com/stretchr/testify/assert"
)

func TestValidationHelper(t *testing.T) {
	vh := NewValidationHelper()

	type payload struct {
		Email  string `validate:"required,email"`
		Amount int64  `validate:"gt=0"`
	}

	assert.NoError(t, vh.ValidateStruct(&payload{Email: "a@b.example", Amount: 1}))
	assert.Error(t, vh.ValidateStruct(&payload{Email: "not-an-email", Amount: 1}))
	assert.Error(t, vh.ValidateStruct(&payload{Email: "a@b.example", Amount: 0}))
}

func TestSendErrorResponse(t *testing.T) {
	vh := NewValidationHelper()

	type payload struct {
		Email string `validate:"required,email"`
	}
	err := vh.ValidateStruct(&payload{})

	w := httptest.NewRecorder()
	SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp ErrorResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	assert.Equal(t, "Validation failed", resp.Error)
	assert.Contains(t, resp.Details, "Email")
}

func TestStatusForError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"unauthorized", ledger.ErrUnauthorizedAccess, http.StatusForbidden},
		{"registry unauthorized", registry.ErrUnauthorizedAccess, http.StatusForbidden},
		{"recipient missing", ledger.ErrRecipientNotFound, http.StatusNotFound},
		{"organization missing", factory.ErrOrganizationNotFound, http.StatusNotFound},
		{"recipient exists", ledger.ErrRecipientExists, http.StatusConflict},
		{"organization exists", factory.ErrOrganizationExists, http.StatusConflict},
		{"already approved", ledger.ErrAlreadyApproved, http.StatusConflict},
		{"reentrant", ledger.ErrReentrantCall, http.StatusLocked},
		{"transfer failed", ledger.ErrTransferFailed, http.StatusBadGateway},
		{"bad amount", ledger.ErrInvalidAmount, http.StatusBadRequest},
		{"bad allowance", ledger.ErrInvalidAllowance, http.StatusBadRequest},
		{"token unsupported", ledger.ErrTokenNotSupported, http.StatusBadRequest},
		{"unknown", assert.AnError, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, statusForError(tc.err))
		})
	}
}
