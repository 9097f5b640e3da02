package token

import (
	"context"
	"errors"
)

var ErrUnknownToken = errors.New("unknown token contract")

// Contract is the external fungible-token collaborator. It is trusted for
// balance correctness but not for reentrancy safety: implementations may call
// back into the ledger, which is why disbursement paths are guarded.
//
// A false return without an error means the token itself refused the transfer.
// Callers treat both cases as a failed transfer.
type Contract interface {
	BalanceOf(ctx context.Context, addr string) (int64, error)
	Allowance(ctx context.Context, owner, spender string) (int64, error)
	TransferFrom(ctx context.Context, spender, from, to string, amount int64) (bool, error)
	Transfer(ctx context.Context, from, to string, amount int64) (bool, error)
}

// Resolver maps a token address to its contract binding.
type Resolver interface {
	Token(address string) (Contract, error)
}
