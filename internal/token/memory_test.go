package token

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryToken(t *testing.T) {
	ctx := context.Background()

	t.Run("transfer from honors allowance", func(t *testing.T) {
		m := NewMemory("USD Stable")
		m.Mint("alice", 1000)
		m.Approve("alice", "spender", 600)

		ok, err := m.TransferFrom(ctx, "spender", "alice", "bob", 400)
		require.NoError(t, err)
		assert.True(t, ok)

		b, _ := m.BalanceOf(ctx, "bob")
		assert.Equal(t, int64(400), b)
		a, _ := m.Allowance(ctx, "alice", "spender")
		assert.Equal(t, int64(200), a)

		// Remaining allowance no longer covers this.
		ok, err = m.TransferFrom(ctx, "spender", "alice", "bob", 300)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("transfer from fails without balance", func(t *testing.T) {
		m := NewMemory("USD Stable")
		m.Approve("alice", "spender", 1000)
		ok, err := m.TransferFrom(ctx, "spender", "alice", "bob", 100)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("direct transfer", func(t *testing.T) {
		m := NewMemory("USD Stable")
		m.Mint("alice", 100)
		ok, err := m.Transfer(ctx, "alice", "bob", 60)
		require.NoError(t, err)
		assert.True(t, ok)

		a, _ := m.BalanceOf(ctx, "alice")
		b, _ := m.BalanceOf(ctx, "bob")
		assert.Equal(t, int64(40), a)
		assert.Equal(t, int64(60), b)
	})

	t.Run("non-positive amounts rejected", func(t *testing.T) {
		m := NewMemory("USD Stable")
		m.Mint("alice", 100)
		ok, _ := m.Transfer(ctx, "alice", "bob", 0)
		assert.False(t, ok)
		ok, _ = m.TransferFrom(ctx, "s", "alice", "bob", -1)
		assert.False(t, ok)
	})
}

func TestBank(t *testing.T) {
	b := NewBank()
	usd := NewMemory("USD Stable")
	b.Register("0xusd", usd)

	c, err := b.Token("0xusd")
	require.NoError(t, err)
	assert.Equal(t, usd, c)

	_, err = b.Token("0xmissing")
	assert.ErrorIs(t, err, ErrUnknownToken)
}
