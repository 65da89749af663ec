package randoracle

import (
	"context"
	"crypto/sha256"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// MockProviderID identifies the mock oracle in delivered callbacks.
const MockProviderID = "mock-oracle"

// Mock is an in-memory oracle for tests and local development. Requests are
// recorded and delivered only when Fulfill is called, which mirrors the
// asynchronous gap between request and callback in the real service.
type Mock struct {
	mu       sync.Mutex
	fee      uint64
	pending  map[string][32]byte // requestID -> salt
	order    []string
	failNext error
}

// NewMock creates a mock oracle with the given per-request fee.
func NewMock(fee uint64) *Mock {
	return &Mock{
		fee:     fee,
		pending: make(map[string][32]byte),
	}
}

// RequestSeed records a pending request and returns a fresh correlation id.
func (m *Mock) RequestSeed(ctx context.Context, salt [32]byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return "", err
	}

	requestID := uuid.NewString()
	m.pending[requestID] = salt
	m.order = append(m.order, requestID)
	return requestID, nil
}

// RequestFee reports the configured per-request fee.
func (m *Mock) RequestFee(ctx context.Context) (uint64, error) {
	return m.fee, nil
}

// FailNext makes the next RequestSeed fail with err, then clears itself.
func (m *Mock) FailNext(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = err
}

// PendingRequests returns the correlation ids of undelivered requests in
// submission order.
func (m *Mock) PendingRequests() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, len(m.order))
	copy(ids, m.order)
	return ids
}

// Fulfill delivers seed for requestID through the given callback and removes
// the request. Delivering an unknown or already-delivered request is an error.
func (m *Mock) Fulfill(requestID string, seed Seed, deliver func(requestID, providerID string, seed Seed) error) error {
	m.mu.Lock()
	if _, ok := m.pending[requestID]; !ok {
		m.mu.Unlock()
		return errors.New("unknown or already delivered request")
	}
	delete(m.pending, requestID)
	for i, id := range m.order {
		if id == requestID {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	m.mu.Unlock()

	return deliver(requestID, MockProviderID, seed)
}

// SeedFromString derives a deterministic seed from s (test convenience).
func SeedFromString(s string) Seed {
	return Seed(sha256.Sum256([]byte(s)))
}
