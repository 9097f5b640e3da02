package registry

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/orgpay/payroll/internal/models"
)

var (
	ErrInvalidTokenName      = errors.New("token name required")
	ErrInvalidTokenAddress   = errors.New("invalid token address")
	ErrTokenAlreadySupported = errors.New("token already supported")
	ErrInvalidToken          = errors.New("token not supported")
	ErrUnauthorizedAccess    = errors.New("unauthorized access")
)

// TokenRegistry is the shared allow-list of tokens organizations may pay in.
// It is read by every ledger instance and mutated only by its owner.
type TokenRegistry struct {
	mu     sync.RWMutex
	owner  string
	tokens map[string]string // address -> name
	order  []string          // addresses in insertion order
	sink   models.EventSink
	now    func() time.Time
}

func New(owner string, sink models.EventSink) *TokenRegistry {
	if sink == nil {
		sink = models.NopSink{}
	}
	return &TokenRegistry{
		owner:  owner,
		tokens: make(map[string]string),
		sink:   sink,
		now:    time.Now,
	}
}

func (r *TokenRegistry) AddToken(ctx context.Context, caller, name, address string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if caller != r.owner {
		return ErrUnauthorizedAccess
	}
	if name == "" {
		return ErrInvalidTokenName
	}
	if address == "" {
		return ErrInvalidTokenAddress
	}
	if _, ok := r.tokens[address]; ok {
		return ErrTokenAlreadySupported
	}

	r.tokens[address] = name
	r.order = append(r.order, address)
	r.sink.Emit(ctx, models.Event{
		Type:         models.EventTokenAdded,
		TokenAddress: address,
		Timestamp:    r.now(),
		Details:      map[string]string{"name": name},
	})
	return nil
}

func (r *TokenRegistry) RemoveToken(ctx context.Context, caller, address string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if caller != r.owner {
		return ErrUnauthorizedAccess
	}
	if address == "" {
		return ErrInvalidTokenAddress
	}
	name, ok := r.tokens[address]
	if !ok {
		return ErrInvalidToken
	}

	delete(r.tokens, address)
	for i, a := range r.order {
		if a == address {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.sink.Emit(ctx, models.Event{
		Type:         models.EventTokenRemoved,
		TokenAddress: address,
		Timestamp:    r.now(),
		Details:      map[string]string{"name": name},
	})
	return nil
}

func (r *TokenRegistry) IsTokenSupported(address string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tokens[address]
	return ok
}

func (r *TokenRegistry) TokenName(address string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.tokens[address]
	if !ok {
		return "", ErrInvalidToken
	}
	return name, nil
}

func (r *TokenRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tokens)
}

// SupportedTokens returns addresses in insertion order.
func (r *TokenRegistry) SupportedTokens() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
