package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRegistry(t *testing.T) {
	ctx := context.Background()
	const admin = "registry-admin"

	t.Run("add and query", func(t *testing.T) {
		r := New(admin, nil)
		require.NoError(t, r.AddToken(ctx, admin, "USD Stable", "0xusd"))

		assert.True(t, r.IsTokenSupported("0xusd"))
		assert.False(t, r.IsTokenSupported("0xother"))
		assert.Equal(t, 1, r.Count())

		name, err := r.TokenName("0xusd")
		require.NoError(t, err)
		assert.Equal(t, "USD Stable", name)
	})

	t.Run("duplicate address rejected", func(t *testing.T) {
		r := New(admin, nil)
		require.NoError(t, r.AddToken(ctx, admin, "USD Stable", "0xusd"))
		err := r.AddToken(ctx, admin, "Another Name", "0xusd")
		assert.ErrorIs(t, err, ErrTokenAlreadySupported)
	})

	t.Run("validation", func(t *testing.T) {
		r := New(admin, nil)
		assert.ErrorIs(t, r.AddToken(ctx, admin, "", "0xusd"), ErrInvalidTokenName)
		assert.ErrorIs(t, r.AddToken(ctx, admin, "USD", ""), ErrInvalidTokenAddress)
	})

	t.Run("non-owner cannot mutate", func(t *testing.T) {
		r := New(admin, nil)
		assert.ErrorIs(t, r.AddToken(ctx, "0xintruder", "USD", "0xusd"), ErrUnauthorizedAccess)
		assert.ErrorIs(t, r.RemoveToken(ctx, "0xintruder", "0xusd"), ErrUnauthorizedAccess)
	})

	t.Run("remove", func(t *testing.T) {
		r := New(admin, nil)
		require.NoError(t, r.AddToken(ctx, admin, "USD Stable", "0xusd"))
		require.NoError(t, r.RemoveToken(ctx, admin, "0xusd"))

		assert.False(t, r.IsTokenSupported("0xusd"))
		assert.Equal(t, 0, r.Count())

		_, err := r.TokenName("0xusd")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("remove unknown token", func(t *testing.T) {
		r := New(admin, nil)
		assert.ErrorIs(t, r.RemoveToken(ctx, admin, "0xmissing"), ErrInvalidToken)
	})

	t.Run("insertion order preserved", func(t *testing.T) {
		r := New(admin, nil)
		require.NoError(t, r.AddToken(ctx, admin, "A", "0xa"))
		require.NoError(t, r.AddToken(ctx, admin, "B", "0xb"))
		require.NoError(t, r.AddToken(ctx, admin, "C", "0xc"))
		require.NoError(t, r.RemoveToken(ctx, admin, "0xb"))

		assert.Equal(t, []string{"0xa", "0xc"}, r.SupportedTokens())
	})
}
