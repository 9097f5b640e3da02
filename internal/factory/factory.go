package factory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/orgpay/payroll/internal/ledger"
	"github.com/orgpay/payroll/internal/models"
	"github.com/orgpay/payroll/internal/registry"
	"github.com/orgpay/payroll/internal/token"
)

var (
	ErrOrganizationExists   = errors.New("organization already exists for owner")
	ErrOrganizationNotFound = errors.New("organization not found")
)

// Config wires the factory and the defaults it hands to new ledgers.
type Config struct {
	Owner               string // identity allowed to mutate fee policy and the registry
	DefaultFeeBPS       int64
	DefaultAdvanceLimit int64
	Tokens              token.Resolver
	Sink                models.EventSink
	Now                 func() time.Time
}

// Factory creates organization ledgers, one per owner, and acts as the
// privileged delegate for fee policy and token allow-list changes.
type Factory struct {
	mu       sync.RWMutex
	id       string
	owner    string
	registry *registry.TokenRegistry
	tokens   token.Resolver
	sink     models.EventSink
	now      func() time.Time

	defaultFeeBPS       int64
	defaultAdvanceLimit int64

	orgs map[string]*ledger.Ledger // by organization owner
}

func New(cfg Config) *Factory {
	sink := cfg.Sink
	if sink == nil {
		sink = models.NopSink{}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	id := uuid.New().String()
	return &Factory{
		id:                  id,
		owner:               cfg.Owner,
		registry:            registry.New(id, sink),
		tokens:              cfg.Tokens,
		sink:                sink,
		now:                 now,
		defaultFeeBPS:       cfg.DefaultFeeBPS,
		defaultAdvanceLimit: cfg.DefaultAdvanceLimit,
		orgs:                make(map[string]*ledger.Ledger),
	}
}

// CreateOrganization deploys a new ledger bound to owner. A second
// organization for the same owner is rejected.
func (f *Factory) CreateOrganization(ctx context.Context, owner, name, description, feeCollector string) (*ledger.Ledger, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if owner == "" {
		return nil, ledger.ErrInvalidAddress
	}
	if _, exists := f.orgs[owner]; exists {
		return nil, ErrOrganizationExists
	}

	l, err := ledger.New(ledger.Config{
		Name:                name,
		Description:         description,
		Owner:               owner,
		FactoryID:           f.id,
		FeeCollector:        feeCollector,
		FeeBPS:              f.defaultFeeBPS,
		DefaultAdvanceLimit: f.defaultAdvanceLimit,
		Registry:            f.registry,
		Tokens:              f.tokens,
		Sink:                f.sink,
		Now:                 f.now,
	})
	if err != nil {
		return nil, err
	}

	f.orgs[owner] = l
	org := l.Organization()
	f.sink.Emit(ctx, models.Event{
		Type:         models.EventOrganizationCreated,
		Organization: org.ID,
		Timestamp:    f.now(),
		Details:      map[string]string{"owner": owner, "name": name},
	})
	return l, nil
}

// Organization returns the ledger owned by owner.
func (f *Factory) Organization(owner string) (*ledger.Ledger, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	l, ok := f.orgs[owner]
	if !ok {
		return nil, ErrOrganizationNotFound
	}
	return l, nil
}

// OrganizationCount reports how many ledgers this factory has created.
func (f *Factory) OrganizationCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.orgs)
}

// SetTransactionFee relays a fee change to owner's ledger with the factory's
// identity. Caller must be the factory owner.
func (f *Factory) SetTransactionFee(ctx context.Context, caller, owner string, bps int64) error {
	l, err := f.authorized(caller, owner)
	if err != nil {
		return err
	}
	return l.SetTransactionFee(ctx, f.id, bps)
}

// SetFeeCollector relays a collector change to owner's ledger.
func (f *Factory) SetFeeCollector(ctx context.Context, caller, owner, collector string) error {
	l, err := f.authorized(caller, owner)
	if err != nil {
		return err
	}
	return l.SetFeeCollector(ctx, f.id, collector)
}

func (f *Factory) authorized(caller, owner string) (*ledger.Ledger, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if caller != f.owner {
		return nil, ledger.ErrUnauthorizedAccess
	}
	l, ok := f.orgs[owner]
	if !ok {
		return nil, ErrOrganizationNotFound
	}
	return l, nil
}

// AddToken relays an allow-list insertion to the registry the factory owns.
func (f *Factory) AddToken(ctx context.Context, caller, name, address string) error {
	if caller != f.owner {
		return registry.ErrUnauthorizedAccess
	}
	return f.registry.AddToken(ctx, f.id, name, address)
}

// RemoveToken relays an allow-list removal.
func (f *Factory) RemoveToken(ctx context.Context, caller, address string) error {
	if caller != f.owner {
		return registry.ErrUnauthorizedAccess
	}
	return f.registry.RemoveToken(ctx, f.id, address)
}

// Registry exposes the shared read-only token allow-list.
func (f *Factory) Registry() *registry.TokenRegistry {
	return f.registry
}
