package models

import (
	"time"
)

// Organization is a payroll ledger instance bound to a single owner.
type Organization struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Owner       string    `json:"owner"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Recipient is a registered payee. AdvanceCollected tracks the outstanding
// principal of an approved, unrepaid advance and is zero at all other times.
type Recipient struct {
	ID               string    `json:"id"`
	OrganizationID   string    `json:"organization_id"`
	Name             string    `json:"name"`
	SalaryAmount     int64     `json:"salary_amount"` // in token base units
	AdvanceCollected int64     `json:"advance_collected"`
	AdvanceLimit     int64     `json:"advance_limit"`
	WalletAddress    string    `json:"wallet_address"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Payment is an append-only history entry. Amount is the net amount intended
// for the recipient, not the gross amount charged to the payer.
type Payment struct {
	ID           string    `json:"id"`
	Recipient    string    `json:"recipient"`
	TokenAddress string    `json:"token_address"`
	Amount       int64     `json:"amount"`
	Timestamp    time.Time `json:"timestamp"`
}

// AdvanceRequest is the single live advance record for a recipient.
// Lifecycle: requested -> approved -> repaid.
type AdvanceRequest struct {
	Recipient    string     `json:"recipient"`
	Amount       int64      `json:"amount"`
	TokenAddress string     `json:"token_address"`
	RequestDate  time.Time  `json:"request_date"`
	ApprovalDate *time.Time `json:"approval_date,omitempty"`
	Approved     bool       `json:"approved"`
	Repaid       bool       `json:"repaid"`
}

// Live reports whether the request still blocks a new advance cycle.
func (r AdvanceRequest) Live() bool {
	return !r.Repaid
}
