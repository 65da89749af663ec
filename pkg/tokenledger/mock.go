package tokenledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrInsufficientBalance is returned by the mock when a payer cannot cover a debit.
var ErrInsufficientBalance = errors.New("insufficient balance")

// Mock is an in-memory token ledger for tests and local development. It keeps
// real per-account balances so callers can assert that no value is created or
// destroyed by raffle operations.
type Mock struct {
	mu             sync.Mutex
	custodyAccount string
	balances       map[string]map[string]uint64 // asset -> account -> balance
	failNext       error
}

// NewMock creates a mock token ledger with the given custody account.
func NewMock(custodyAccount string) *Mock {
	return &Mock{
		custodyAccount: custodyAccount,
		balances:       make(map[string]map[string]uint64),
	}
}

// Credit mints balance for an account (test setup only).
func (m *Mock) Credit(asset, account string, amount uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts(asset)[account] += amount
}

// Balance reports an account's balance in the given asset.
func (m *Mock) Balance(asset, account string) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accounts(asset)[account]
}

// FailNext makes the next transfer fail with err, then clears itself.
func (m *Mock) FailNext(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = err
}

// TransferFrom debits payer in favour of the custody account.
func (m *Mock) TransferFrom(ctx context.Context, asset, payer string, amount uint64) error {
	return m.move(asset, payer, m.custodyAccount, amount)
}

// Transfer pays out from the custody account to recipient.
func (m *Mock) Transfer(ctx context.Context, asset, recipient string, amount uint64) error {
	return m.move(asset, m.custodyAccount, recipient, amount)
}

func (m *Mock) move(asset, from, to string, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return err
	}

	accounts := m.accounts(asset)
	if accounts[from] < amount {
		return fmt.Errorf("%w: account %s holds %d, needs %d", ErrInsufficientBalance, from, accounts[from], amount)
	}
	accounts[from] -= amount
	accounts[to] += amount
	return nil
}

func (m *Mock) accounts(asset string) map[string]uint64 {
	if m.balances[asset] == nil {
		m.balances[asset] = make(map[string]uint64)
	}
	return m.balances[asset]
}
