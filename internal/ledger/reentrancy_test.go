package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// reentrantToken is a token contract that calls back into the ledger from
// inside TransferFrom, the way a malicious token would.
type reentrantToken struct {
	ledger   *Ledger
	attack   func(ctx context.Context, l *Ledger) error
	observed []error
}

func (m *reentrantToken) BalanceOf(context.Context, string) (int64, error) {
	return 1 << 40, nil
}

func (m *reentrantToken) Allowance(context.Context, string, string) (int64, error) {
	return 1 << 40, nil
}

func (m *reentrantToken) TransferFrom(ctx context.Context, spender, from, to string, amount int64) (bool, error) {
	m.observed = append(m.observed, m.attack(ctx, m.ledger))
	return true, nil
}

func (m *reentrantToken) Transfer(context.Context, string, string, int64) (bool, error) {
	return true, nil
}

func TestReentrancyGuard(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T, attack func(ctx context.Context, l *Ledger) error) (*fixture, *reentrantToken) {
		f := newFixture(t)
		evil := &reentrantToken{attack: attack}
		evil.ledger = f.ledger
		f.bank.Register(testToken, evil) // replace the honest contract
		_, err := f.ledger.CreateRecipient(ctx, testOwner, "0xr1", "Jordan", 1000)
		require.NoError(t, err)
		return f, evil
	}

	t.Run("disburse cannot reenter disburse", func(t *testing.T) {
		_, evil := setup(t, func(ctx context.Context, l *Ledger) error {
			return l.DisburseToken(ctx, testOwner, testToken, "0xr1", 100)
		})
		require.NoError(t, evil.ledger.DisburseToken(ctx, testOwner, testToken, "0xr1", 100))

		require.NotEmpty(t, evil.observed)
		for _, err := range evil.observed {
			assert.ErrorIs(t, err, ErrReentrantCall)
		}
	})

	t.Run("disburse cannot reenter batch disburse", func(t *testing.T) {
		_, evil := setup(t, func(ctx context.Context, l *Ledger) error {
			return l.BatchDisburseToken(ctx, testOwner, testToken, []string{"0xr1"}, []int64{100})
		})
		require.NoError(t, evil.ledger.DisburseToken(ctx, testOwner, testToken, "0xr1", 100))

		require.NotEmpty(t, evil.observed)
		for _, err := range evil.observed {
			assert.ErrorIs(t, err, ErrReentrantCall)
		}
	})

	t.Run("advance approval cannot reenter disburse", func(t *testing.T) {
		f, evil := setup(t, func(ctx context.Context, l *Ledger) error {
			return l.DisburseToken(ctx, testOwner, testToken, "0xr1", 500)
		})
		require.NoError(t, f.ledger.RequestAdvance(ctx, "0xr1", 300, testToken))
		require.NoError(t, f.ledger.ApproveAdvance(ctx, testOwner, "0xr1"))

		require.NotEmpty(t, evil.observed)
		for _, err := range evil.observed {
			assert.ErrorIs(t, err, ErrReentrantCall)
		}
	})

	t.Run("read paths stay available during an external call", func(t *testing.T) {
		f, evil := setup(t, func(ctx context.Context, l *Ledger) error {
			// Views take only the mutex, never the guard.
			if l.RecipientCount() != 1 {
				t.Error("recipient count unavailable mid-call")
			}
			_ = l.Payments()
			return nil
		})
		_ = f
		require.NoError(t, evil.ledger.DisburseToken(ctx, testOwner, testToken, "0xr1", 100))
		assert.NotEmpty(t, evil.observed)
	})
}
