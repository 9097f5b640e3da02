package ledger

import (
	"context"

	"github.com/orgpay/payroll/internal/models"
)

// RequestAdvance opens a cash-advance request for the calling recipient.
// Request itself moves no funds; at most one live request may exist per
// recipient at any time.
func (l *Ledger) RequestAdvance(ctx context.Context, caller string, amount int64, tokenAddress string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	r, ok := l.recipients[caller]
	if !ok {
		return ErrRecipientNotFound
	}
	if !l.registry.IsTokenSupported(tokenAddress) {
		return ErrInvalidToken
	}
	if amount <= 0 || amount > r.AdvanceLimit {
		return ErrInvalidAmount
	}
	if req, exists := l.advances[caller]; exists && req.Live() {
		return ErrInvalidRequest
	}

	ts := l.now()
	l.advances[caller] = &models.AdvanceRequest{
		Recipient:    caller,
		Amount:       amount,
		TokenAddress: tokenAddress,
		RequestDate:  ts,
	}
	l.pendingOrder = append(l.pendingOrder, caller)
	l.advanceCounter++
	l.sink.Emit(ctx, models.Event{
		Type:         models.EventAdvanceRequested,
		Organization: l.org.ID,
		Recipient:    caller,
		TokenAddress: tokenAddress,
		Amount:       amount,
		Timestamp:    ts,
	})
	return nil
}

// ApproveAdvance approves the recipient's pending request and moves the
// requested amount from the owner to the recipient. This is the point at
// which funds actually move for an advance.
func (l *Ledger) ApproveAdvance(ctx context.Context, caller, wallet string) error {
	if err := l.enter(); err != nil {
		return err
	}
	defer l.exit()

	l.mu.Lock()
	if err := l.requireOwner(caller); err != nil {
		l.mu.Unlock()
		return err
	}
	if wallet == "" {
		l.mu.Unlock()
		return ErrInvalidAddress
	}
	if _, ok := l.recipients[wallet]; !ok {
		l.mu.Unlock()
		return ErrRecipientNotFound
	}
	req, ok := l.advances[wallet]
	if !ok || req.Repaid {
		l.mu.Unlock()
		return ErrInvalidRequest
	}
	if req.Approved {
		l.mu.Unlock()
		return ErrAlreadyApproved
	}
	amount, tokenAddress := req.Amount, req.TokenAddress
	payer, spender := l.org.Owner, l.org.ID
	l.mu.Unlock()

	contract, err := l.tokens.Token(tokenAddress)
	if err != nil {
		return ErrInvalidToken
	}
	if err := checkFunds(ctx, contract, payer, spender, amount); err != nil {
		return err
	}
	if ok, err := contract.TransferFrom(ctx, spender, payer, wallet, amount); err != nil || !ok {
		return ErrTransferFailed
	}

	l.mu.Lock()
	ts := l.now()
	req.Approved = true
	req.ApprovalDate = &ts
	r := l.recipients[wallet]
	r.AdvanceCollected += amount
	r.UpdatedAt = ts
	l.removePendingLocked(wallet)
	l.sink.Emit(ctx, models.Event{
		Type:         models.EventAdvanceApproved,
		Organization: l.org.ID,
		Recipient:    wallet,
		TokenAddress: tokenAddress,
		Amount:       amount,
		Timestamp:    ts,
	})
	l.mu.Unlock()
	return nil
}

func (l *Ledger) removePendingLocked(wallet string) {
	for i, w := range l.pendingOrder {
		if w == wallet {
			l.pendingOrder = append(l.pendingOrder[:i], l.pendingOrder[i+1:]...)
			return
		}
	}
}

// AdvanceRequestFor returns the current request record for wallet.
func (l *Ledger) AdvanceRequestFor(wallet string) (models.AdvanceRequest, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if wallet == "" {
		return models.AdvanceRequest{}, ErrInvalidAddress
	}
	req, ok := l.advances[wallet]
	if !ok {
		return models.AdvanceRequest{}, ErrAdvanceNotFound
	}
	return *req, nil
}

// PendingAdvances lists requests awaiting approval in request order. The
// explicit order index avoids enumerating a sparse map.
func (l *Ledger) PendingAdvances() []models.AdvanceRequest {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]models.AdvanceRequest, 0, len(l.pendingOrder))
	for _, w := range l.pendingOrder {
		if req, ok := l.advances[w]; ok && !req.Approved && !req.Repaid {
			out = append(out, *req)
		}
	}
	return out
}

// AdvanceRequestCount reports how many requests have ever been opened.
func (l *Ledger) AdvanceRequestCount() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.advanceCounter
}

// SetDefaultAdvanceLimit changes the limit assigned to recipients created
// from now on. Owner only.
func (l *Ledger) SetDefaultAdvanceLimit(ctx context.Context, caller string, limit int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.requireOwner(caller); err != nil {
		return err
	}
	if limit < 0 {
		return ErrInvalidAmount
	}
	l.defaultAdvanceLimit = limit
	l.sink.Emit(ctx, models.Event{
		Type:         models.EventAdvanceLimitUpdated,
		Organization: l.org.ID,
		Amount:       limit,
		Timestamp:    l.now(),
	})
	return nil
}

// SetRecipientAdvanceLimit overrides the limit for one recipient. Owner only.
func (l *Ledger) SetRecipientAdvanceLimit(ctx context.Context, caller, wallet string, limit int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.requireOwner(caller); err != nil {
		return err
	}
	r, ok := l.recipients[wallet]
	if !ok {
		return ErrRecipientNotFound
	}
	if limit < 0 {
		return ErrInvalidAmount
	}
	r.AdvanceLimit = limit
	r.UpdatedAt = l.now()
	l.sink.Emit(ctx, models.Event{
		Type:         models.EventAdvanceLimitUpdated,
		Organization: l.org.ID,
		Recipient:    wallet,
		Amount:       limit,
		Timestamp:    r.UpdatedAt,
	})
	return nil
}
