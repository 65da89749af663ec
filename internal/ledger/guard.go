package ledger

import "sync"

// opGuard serializes operations on one raffle aggregate. Each ledger-mutating
// call must fully commit or abort before the next begins. A call arriving
// while another is in flight for the same raffle is rejected rather than
// interleaved, and that covers a reentrant call made from inside a token
// transfer.
type opGuard struct {
	mu   sync.Mutex
	busy bool
}

func (g *opGuard) begin() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.busy {
		return ErrOperationInProgress
	}
	g.busy = true
	return nil
}

func (g *opGuard) end() {
	g.mu.Lock()
	g.busy = false
	g.mu.Unlock()
}
