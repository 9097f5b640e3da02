package ledger

import "errors"

var (
	ErrInvalidAddress      = errors.New("invalid address")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidInput        = errors.New("input arrays must have equal length")
	ErrInvalidAllowance    = errors.New("insufficient allowance")
	ErrTransferFailed      = errors.New("token transfer failed")
	ErrNameRequired        = errors.New("name required")
	ErrDescriptionRequired = errors.New("description required")
	ErrRecipientNotFound   = errors.New("recipient not found")
	ErrRecipientExists     = errors.New("recipient already exists")
	ErrAlreadyApproved     = errors.New("advance already approved")
	ErrUnauthorizedAccess  = errors.New("unauthorized access")
	ErrReentrantCall       = errors.New("reentrant call")
	ErrInvalidFee          = errors.New("transaction fee out of range")
	ErrInvalidRequest      = errors.New("invalid advance request")
	ErrInvalidToken        = errors.New("token not supported for advances")
	ErrTokenNotSupported   = errors.New("token not supported")
	ErrAdvanceNotFound     = errors.New("advance request not found")
)
