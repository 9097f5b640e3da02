package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/orgpay/payroll/internal/models"
	"github.com/orgpay/payroll/internal/token"
)

const (
	// Transaction fee bounds, in basis points of the gross amount.
	DefaultFeeBPS = 50
	MaxFeeBPS     = 80
)

// SupportChecker is the registry view the ledger consults before any
// disbursement or advance request.
type SupportChecker interface {
	IsTokenSupported(address string) bool
}

// Config wires a new organization ledger.
type Config struct {
	Name         string
	Description  string
	Owner        string
	FactoryID    string // sole identity allowed to mutate fee policy
	FeeCollector string // defaults to Owner
	FeeBPS       int64  // defaults to DefaultFeeBPS

	DefaultAdvanceLimit int64

	Registry SupportChecker
	Tokens   token.Resolver
	Sink     models.EventSink
	Now      func() time.Time
}

// Ledger owns all recipient, payment and advance state for one organization.
// Every operation runs under a single mutex; the three operations that call
// out to a token contract additionally hold the reentrancy guard and release
// the mutex around external calls.
type Ledger struct {
	mu      sync.Mutex
	entered bool

	org          models.Organization
	factoryID    string
	feeCollector string
	feeBPS       int64

	recipients map[string]*models.Recipient // by wallet address
	order      []string                     // wallet addresses in creation order
	seq        uint64                       // recipient id sequence

	payments []models.Payment

	advances       map[string]*models.AdvanceRequest // by wallet address
	pendingOrder   []string                          // wallets awaiting approval, request order
	advanceCounter uint64

	defaultAdvanceLimit int64

	registry SupportChecker
	tokens   token.Resolver
	sink     models.EventSink
	now      func() time.Time
}

func New(cfg Config) (*Ledger, error) {
	if cfg.Name == "" {
		return nil, ErrNameRequired
	}
	if cfg.Description == "" {
		return nil, ErrDescriptionRequired
	}
	if cfg.Owner == "" {
		return nil, ErrInvalidAddress
	}
	if cfg.Registry == nil || cfg.Tokens == nil {
		return nil, fmt.Errorf("ledger: registry and token resolver are required")
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	sink := cfg.Sink
	if sink == nil {
		sink = models.NopSink{}
	}
	feeBPS := cfg.FeeBPS
	if feeBPS == 0 {
		feeBPS = DefaultFeeBPS
	}
	if feeBPS < 0 || feeBPS > MaxFeeBPS {
		return nil, ErrInvalidFee
	}
	collector := cfg.FeeCollector
	if collector == "" {
		collector = cfg.Owner
	}

	ts := now()
	return &Ledger{
		org: models.Organization{
			ID:          uuid.New().String(),
			Name:        cfg.Name,
			Description: cfg.Description,
			Owner:       cfg.Owner,
			CreatedAt:   ts,
			UpdatedAt:   ts,
		},
		factoryID:           cfg.FactoryID,
		feeCollector:        collector,
		feeBPS:              feeBPS,
		recipients:          make(map[string]*models.Recipient),
		advances:            make(map[string]*models.AdvanceRequest),
		defaultAdvanceLimit: cfg.DefaultAdvanceLimit,
		registry:            cfg.Registry,
		tokens:              cfg.Tokens,
		sink:                sink,
		now:                 now,
	}, nil
}

// enter takes the reentrancy guard. It must be paired with exit on every
// path; a nested entry from a token callback fails here instead of deadlocking.
func (l *Ledger) enter() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.entered {
		return ErrReentrantCall
	}
	l.entered = true
	return nil
}

func (l *Ledger) exit() {
	l.mu.Lock()
	l.entered = false
	l.mu.Unlock()
}

func (l *Ledger) requireOwner(caller string) error {
	if caller != l.org.Owner {
		return ErrUnauthorizedAccess
	}
	return nil
}

// Organization returns a snapshot of the organization record.
func (l *Ledger) Organization() models.Organization {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.org
}

// UpdateOrganization changes the mutable info fields. Owner only.
func (l *Ledger) UpdateOrganization(ctx context.Context, caller, name, description string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.requireOwner(caller); err != nil {
		return err
	}
	if name == "" {
		return ErrNameRequired
	}
	if description == "" {
		return ErrDescriptionRequired
	}

	l.org.Name = name
	l.org.Description = description
	l.org.UpdatedAt = l.now()
	l.sink.Emit(ctx, models.Event{
		Type:         models.EventOrganizationUpdated,
		Organization: l.org.ID,
		Timestamp:    l.org.UpdatedAt,
		Details:      map[string]string{"name": name},
	})
	return nil
}

// CreateRecipient registers a payee wallet. The recipient id is derived from
// the wallet address plus a creation sequence so that two registrations in
// the same instant can never collide.
func (l *Ledger) CreateRecipient(ctx context.Context, caller, wallet, name string, salary int64) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.requireOwner(caller); err != nil {
		return "", err
	}
	if err := l.validateNewRecipient(wallet, name); err != nil {
		return "", err
	}
	id := l.createRecipientLocked(ctx, wallet, name, salary)
	return id, nil
}

// BatchCreateRecipients applies CreateRecipient per index, atomically: a
// single invalid element rejects the whole batch before anything is stored.
func (l *Ledger) BatchCreateRecipients(ctx context.Context, caller string, wallets, names []string, salaries []int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.requireOwner(caller); err != nil {
		return err
	}
	if len(wallets) != len(names) || len(wallets) != len(salaries) {
		return ErrInvalidInput
	}

	seen := make(map[string]struct{}, len(wallets))
	for i := range wallets {
		if err := l.validateNewRecipient(wallets[i], names[i]); err != nil {
			return err
		}
		if _, dup := seen[wallets[i]]; dup {
			return ErrRecipientExists
		}
		seen[wallets[i]] = struct{}{}
	}
	for i := range wallets {
		l.createRecipientLocked(ctx, wallets[i], names[i], salaries[i])
	}
	return nil
}

func (l *Ledger) validateNewRecipient(wallet, name string) error {
	if wallet == "" {
		return ErrInvalidAddress
	}
	if name == "" {
		return ErrNameRequired
	}
	if _, ok := l.recipients[wallet]; ok {
		return ErrRecipientExists
	}
	return nil
}

func (l *Ledger) createRecipientLocked(ctx context.Context, wallet, name string, salary int64) string {
	l.seq++
	id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s:%s:%d", l.org.ID, wallet, l.seq))).String()
	ts := l.now()
	l.recipients[wallet] = &models.Recipient{
		ID:             id,
		OrganizationID: l.org.ID,
		Name:           name,
		SalaryAmount:   salary,
		AdvanceLimit:   l.defaultAdvanceLimit,
		WalletAddress:  wallet,
		CreatedAt:      ts,
		UpdatedAt:      ts,
	}
	l.order = append(l.order, wallet)
	l.sink.Emit(ctx, models.Event{
		Type:         models.EventRecipientCreated,
		Organization: l.org.ID,
		Recipient:    wallet,
		Amount:       salary,
		Timestamp:    ts,
		Details:      map[string]string{"recipient_id": id, "name": name},
	})
	return id
}

// UpdateRecipient renames a registered recipient. Owner only.
func (l *Ledger) UpdateRecipient(ctx context.Context, caller, wallet, name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.requireOwner(caller); err != nil {
		return err
	}
	r, ok := l.recipients[wallet]
	if !ok {
		return ErrRecipientNotFound
	}
	if name == "" {
		return ErrNameRequired
	}
	r.Name = name
	r.UpdatedAt = l.now()
	l.emitRecipientUpdated(ctx, r)
	return nil
}

// UpdateRecipientSalary changes the salary baseline. Owner only.
func (l *Ledger) UpdateRecipientSalary(ctx context.Context, caller, wallet string, amount int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.requireOwner(caller); err != nil {
		return err
	}
	r, ok := l.recipients[wallet]
	if !ok {
		return ErrRecipientNotFound
	}
	if amount <= 0 {
		return ErrInvalidAmount
	}
	r.SalaryAmount = amount
	r.UpdatedAt = l.now()
	l.emitRecipientUpdated(ctx, r)
	return nil
}

func (l *Ledger) emitRecipientUpdated(ctx context.Context, r *models.Recipient) {
	l.sink.Emit(ctx, models.Event{
		Type:         models.EventRecipientUpdated,
		Organization: l.org.ID,
		Recipient:    r.WalletAddress,
		Amount:       r.SalaryAmount,
		Timestamp:    r.UpdatedAt,
		Details:      map[string]string{"name": r.Name},
	})
}

// Recipient returns a snapshot of the record for wallet.
func (l *Ledger) Recipient(wallet string) (models.Recipient, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if wallet == "" {
		return models.Recipient{}, ErrInvalidAddress
	}
	r, ok := l.recipients[wallet]
	if !ok {
		return models.Recipient{}, ErrRecipientNotFound
	}
	return *r, nil
}

// Recipients lists all recipients in creation order.
func (l *Ledger) Recipients() []models.Recipient {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]models.Recipient, 0, len(l.order))
	for _, w := range l.order {
		out = append(out, *l.recipients[w])
	}
	return out
}

func (l *Ledger) RecipientCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.recipients)
}

// Payments returns the full payment history in insertion order.
func (l *Ledger) Payments() []models.Payment {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]models.Payment, len(l.payments))
	copy(out, l.payments)
	return out
}

// PaymentsFor filters the history by recipient, preserving insertion order.
func (l *Ledger) PaymentsFor(wallet string) []models.Payment {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []models.Payment
	for _, p := range l.payments {
		if p.Recipient == wallet {
			out = append(out, p)
		}
	}
	return out
}

// SetTransactionFee updates the fee in basis points. Factory only.
func (l *Ledger) SetTransactionFee(ctx context.Context, caller string, bps int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if caller != l.factoryID {
		return ErrUnauthorizedAccess
	}
	if bps < 0 || bps > MaxFeeBPS {
		return ErrInvalidFee
	}
	l.feeBPS = bps
	l.sink.Emit(ctx, models.Event{
		Type:         models.EventTransactionFeeUpdated,
		Organization: l.org.ID,
		Amount:       bps,
		Timestamp:    l.now(),
	})
	return nil
}

// SetFeeCollector updates the fee destination. Factory only.
func (l *Ledger) SetFeeCollector(ctx context.Context, caller, collector string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if caller != l.factoryID {
		return ErrUnauthorizedAccess
	}
	if collector == "" {
		return ErrInvalidAddress
	}
	l.feeCollector = collector
	l.sink.Emit(ctx, models.Event{
		Type:         models.EventFeeCollectorUpdated,
		Organization: l.org.ID,
		Timestamp:    l.now(),
		Details:      map[string]string{"collector": collector},
	})
	return nil
}

func (l *Ledger) TransactionFee() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.feeBPS
}

func (l *Ledger) FeeCollector() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.feeCollector
}
