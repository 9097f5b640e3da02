package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/orgpay/payroll/internal/models"
	"github.com/orgpay/payroll/internal/token"
)

// The fee model is net-first: callers name the exact take-home amount and the
// payer is charged a gross amount inflated to cover the fee.
//
//	fee(gross)   = floor(gross * bps / 10000)
//	grossOf(net) = ceil(net * 10000 / (10000 - bps))
func feeOf(gross, bps int64) int64 {
	return gross * bps / 10000
}

func grossOf(net, bps int64) int64 {
	if bps == 0 {
		return net
	}
	d := 10000 - bps
	return (net*10000 + d - 1) / d
}

// disbursePlan is the staged outcome of one disbursement element, computed
// under the mutex before any token contract is touched.
type disbursePlan struct {
	wallet  string
	net     int64
	gross   int64
	fee     int64
	payout  int64 // net minus any advance being cleared
	cleared int64 // outstanding advance netted out by this payment
}

// DisburseToken pays a single recipient netAmount, charging the owner the
// gross amount and skimming the fee to the collector. If the recipient holds
// an outstanding advance the payment must fully clear it or it is rejected.
func (l *Ledger) DisburseToken(ctx context.Context, caller, tokenAddress, wallet string, netAmount int64) error {
	if err := l.enter(); err != nil {
		return err
	}
	defer l.exit()

	l.mu.Lock()
	if err := l.requireOwner(caller); err != nil {
		l.mu.Unlock()
		return err
	}
	outstanding := l.outstandingLocked()
	plan, err := l.planDisbursementLocked(tokenAddress, wallet, netAmount, outstanding)
	if err != nil {
		l.mu.Unlock()
		return err
	}
	payer, spender, collector := l.org.Owner, l.org.ID, l.feeCollector
	l.mu.Unlock()

	contract, err := l.tokens.Token(tokenAddress)
	if err != nil {
		return ErrTokenNotSupported
	}
	if err := checkFunds(ctx, contract, payer, spender, plan.gross); err != nil {
		return err
	}

	if ok, err := contract.TransferFrom(ctx, spender, payer, wallet, plan.payout); err != nil || !ok {
		return ErrTransferFailed
	}
	if plan.fee > 0 {
		if ok, err := contract.TransferFrom(ctx, spender, payer, collector, plan.fee); err != nil || !ok {
			return ErrTransferFailed
		}
	}

	l.mu.Lock()
	l.commitDisbursementLocked(ctx, tokenAddress, plan)
	l.mu.Unlock()
	return nil
}

// BatchDisburseToken disburses to many recipients in input order. Validation
// is a first pass over the whole batch, a single allowance and balance check
// against the aggregate gross gates all transfers, and the aggregate fee
// moves to the collector once at the end.
func (l *Ledger) BatchDisburseToken(ctx context.Context, caller, tokenAddress string, wallets []string, netAmounts []int64) error {
	if err := l.enter(); err != nil {
		return err
	}
	defer l.exit()

	l.mu.Lock()
	if err := l.requireOwner(caller); err != nil {
		l.mu.Unlock()
		return err
	}
	if len(wallets) == 0 || len(wallets) != len(netAmounts) {
		l.mu.Unlock()
		return ErrInvalidInput
	}

	outstanding := l.outstandingLocked()
	plans := make([]disbursePlan, 0, len(wallets))
	var totalGross, totalFees int64
	for i := range wallets {
		plan, err := l.planDisbursementLocked(tokenAddress, wallets[i], netAmounts[i], outstanding)
		if err != nil {
			l.mu.Unlock()
			return err
		}
		plans = append(plans, plan)
		totalGross += plan.gross
		totalFees += plan.fee
	}
	payer, spender, collector := l.org.Owner, l.org.ID, l.feeCollector
	l.mu.Unlock()

	contract, err := l.tokens.Token(tokenAddress)
	if err != nil {
		return ErrTokenNotSupported
	}
	if err := checkFunds(ctx, contract, payer, spender, totalGross); err != nil {
		return err
	}

	for _, plan := range plans {
		if ok, err := contract.TransferFrom(ctx, spender, payer, plan.wallet, plan.payout); err != nil || !ok {
			return ErrTransferFailed
		}
	}
	if totalFees > 0 {
		if ok, err := contract.TransferFrom(ctx, spender, payer, collector, totalFees); err != nil || !ok {
			return ErrTransferFailed
		}
	}

	l.mu.Lock()
	for _, plan := range plans {
		l.commitDisbursementLocked(ctx, tokenAddress, plan)
	}
	l.sink.Emit(ctx, models.Event{
		Type:         models.EventBatchDisbursement,
		Organization: l.org.ID,
		TokenAddress: tokenAddress,
		Amount:       totalGross,
		Count:        len(plans),
		Timestamp:    l.now(),
	})
	l.mu.Unlock()
	return nil
}

// outstandingLocked snapshots advance principal per wallet so batch planning
// nets an advance at most once even when a wallet appears twice.
func (l *Ledger) outstandingLocked() map[string]int64 {
	out := make(map[string]int64)
	for w, r := range l.recipients {
		if r.AdvanceCollected > 0 {
			out[w] = r.AdvanceCollected
		}
	}
	return out
}

func (l *Ledger) planDisbursementLocked(tokenAddress, wallet string, net int64, outstanding map[string]int64) (disbursePlan, error) {
	if tokenAddress == "" || wallet == "" {
		return disbursePlan{}, ErrInvalidAddress
	}
	if net <= 0 {
		return disbursePlan{}, ErrInvalidAmount
	}
	if !l.registry.IsTokenSupported(tokenAddress) {
		return disbursePlan{}, ErrTokenNotSupported
	}
	if _, ok := l.recipients[wallet]; !ok {
		return disbursePlan{}, ErrRecipientNotFound
	}

	gross := grossOf(net, l.feeBPS)
	plan := disbursePlan{
		wallet: wallet,
		net:    net,
		gross:  gross,
		fee:    feeOf(gross, l.feeBPS),
		payout: net,
	}
	if adv := outstanding[wallet]; adv > 0 {
		// A payment that cannot fully clear the advance is rejected rather
		// than partially applied.
		if net <= adv {
			return disbursePlan{}, ErrInvalidAmount
		}
		plan.payout = net - adv
		plan.cleared = adv
		delete(outstanding, wallet)
	}
	return plan, nil
}

func (l *Ledger) commitDisbursementLocked(ctx context.Context, tokenAddress string, plan disbursePlan) {
	ts := l.now()
	if plan.cleared > 0 {
		r := l.recipients[plan.wallet]
		r.AdvanceCollected = 0
		r.UpdatedAt = ts
		if req, ok := l.advances[plan.wallet]; ok && req.Approved && !req.Repaid {
			req.Repaid = true
			l.sink.Emit(ctx, models.Event{
				Type:         models.EventAdvanceRepaid,
				Organization: l.org.ID,
				Recipient:    plan.wallet,
				TokenAddress: tokenAddress,
				Amount:       plan.cleared,
				Timestamp:    ts,
			})
		}
	}

	// History records the intended net amount regardless of netting.
	l.payments = append(l.payments, models.Payment{
		ID:           uuid.NewString(),
		Recipient:    plan.wallet,
		TokenAddress: tokenAddress,
		Amount:       plan.net,
		Timestamp:    ts,
	})
	l.sink.Emit(ctx, models.Event{
		Type:         models.EventTokenDisbursed,
		Organization: l.org.ID,
		Recipient:    plan.wallet,
		TokenAddress: tokenAddress,
		Amount:       plan.net,
		Timestamp:    ts,
	})
}

// checkFunds verifies the payer can cover gross via the ledger's spending
// allowance before any transfer is attempted.
func checkFunds(ctx context.Context, contract token.Contract, payer, spender string, gross int64) error {
	balance, err := contract.BalanceOf(ctx, payer)
	if err != nil {
		return ErrTransferFailed
	}
	if balance < gross {
		return ErrInvalidAmount
	}
	allowance, err := contract.Allowance(ctx, payer, spender)
	if err != nil {
		return ErrTransferFailed
	}
	if allowance < gross {
		return ErrInvalidAllowance
	}
	return nil
}
