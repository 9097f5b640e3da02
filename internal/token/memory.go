package token

import (
	"context"
	"sync"
)

// Memory is an in-process fungible token with ERC-20 style balances and
// allowances. It backs local development and tests; production deployments
// plug a real token binding into the Resolver instead.
type Memory struct {
	mu         sync.Mutex
	name       string
	balances   map[string]int64
	allowances map[string]map[string]int64
}

func NewMemory(name string) *Memory {
	return &Memory{
		name:       name,
		balances:   make(map[string]int64),
		allowances: make(map[string]map[string]int64),
	}
}

func (m *Memory) Name() string { return m.name }

// Mint credits addr with amount out of thin air.
func (m *Memory) Mint(addr string, amount int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[addr] += amount
}

// Approve sets the standing allowance owner grants to spender.
func (m *Memory) Approve(owner, spender string, amount int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.allowances[owner] == nil {
		m.allowances[owner] = make(map[string]int64)
	}
	m.allowances[owner][spender] = amount
}

func (m *Memory) BalanceOf(_ context.Context, addr string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[addr], nil
}

func (m *Memory) Allowance(_ context.Context, owner, spender string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.allowances[owner][spender], nil
}

func (m *Memory) TransferFrom(_ context.Context, spender, from, to string, amount int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if amount <= 0 || m.balances[from] < amount {
		return false, nil
	}
	if m.allowances[from][spender] < amount {
		return false, nil
	}
	m.allowances[from][spender] -= amount
	m.balances[from] -= amount
	m.balances[to] += amount
	return true, nil
}

func (m *Memory) Transfer(_ context.Context, from, to string, amount int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if amount <= 0 || m.balances[from] < amount {
		return false, nil
	}
	m.balances[from] -= amount
	m.balances[to] += amount
	return true, nil
}

// Bank is a Resolver over a fixed set of registered token contracts.
type Bank struct {
	mu     sync.RWMutex
	tokens map[string]Contract
}

func NewBank() *Bank {
	return &Bank{tokens: make(map[string]Contract)}
}

func (b *Bank) Register(address string, c Contract) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens[address] = c
}

func (b *Bank) Token(address string) (Contract, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	c, ok := b.tokens[address]
	if !ok {
		return nil, ErrUnknownToken
	}
	return c, nil
}
