package models

import (
	"context"
	"time"
)

// Event types emitted by the ledger, factory and token registry. Every
// successful state-mutating operation emits exactly one event.
const (
	EventOrganizationCreated    = "ORGANIZATION_CREATED"
	EventOrganizationUpdated    = "ORGANIZATION_UPDATED"
	EventRecipientCreated       = "RECIPIENT_CREATED"
	EventRecipientUpdated       = "RECIPIENT_UPDATED"
	EventTokenDisbursed         = "TOKEN_DISBURSED"
	EventBatchDisbursement      = "BATCH_DISBURSEMENT"
	EventAdvanceRequested       = "ADVANCE_REQUESTED"
	EventAdvanceApproved        = "ADVANCE_APPROVED"
	EventAdvanceRepaid          = "ADVANCE_REPAID"
	EventTransactionFeeUpdated  = "TRANSACTION_FEE_UPDATED"
	EventFeeCollectorUpdated    = "FEE_COLLECTOR_UPDATED"
	EventAdvanceLimitUpdated    = "ADVANCE_LIMIT_UPDATED"
	EventTokenAdded             = "TOKEN_ADDED"
	EventTokenRemoved           = "TOKEN_REMOVED"
)

// Event is an append-only audit record. Events are observable output only,
// never replayed as commands.
type Event struct {
	Type         string            `json:"type"`
	Organization string            `json:"organization,omitempty"`
	Recipient    string            `json:"recipient,omitempty"`
	TokenAddress string            `json:"token_address,omitempty"`
	Amount       int64             `json:"amount,omitempty"`
	Count        int               `json:"count,omitempty"`
	Timestamp    time.Time         `json:"timestamp"`
	Details      map[string]string `json:"details,omitempty"`
}

// EventSink receives events in emission order. Implementations must not call
// back into the emitting ledger.
type EventSink interface {
	Emit(ctx context.Context, event Event)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) Emit(context.Context, Event) {}
