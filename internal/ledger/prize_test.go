package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPoolShare(t *testing.T) {
	tests := []struct {
		name        string
		postFeePool uint64
		pool        PrizePool
		want        uint64
	}{
		{"even split", 1000, PrizePool{FundPercentage: 50, TicketQuantity: 10}, 50},
		{"integer truncation", 585, PrizePool{FundPercentage: 60, TicketQuantity: 80}, 4},
		{"single winner takes the pool", 49, PrizePool{FundPercentage: 100, TicketQuantity: 1}, 49},
		{"zero percentage", 1000, PrizePool{FundPercentage: 0, TicketQuantity: 10}, 0},
		{"zero quantity", 1000, PrizePool{FundPercentage: 50, TicketQuantity: 0}, 0},
		{"pool smaller than divisor", 3, PrizePool{FundPercentage: 100, TicketQuantity: 10}, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, poolShare(tc.postFeePool, tc.pool))
		})
	}
}

func TestPrizeFor_SumsOwnedWinningTickets(t *testing.T) {
	r := &raffleState{
		ticketPrice:  10,
		totalSold:    60,
		feeCollected: 15,
		distribution: []PrizePool{
			{FundPercentage: 60, TicketQuantity: 80},
			{FundPercentage: 40, TicketQuantity: 20},
		},
		userTickets: map[string][]uint32{
			"alice": {0, 1, 2},
			"bob":   {3},
		},
		ticketOwner: map[uint32]string{0: "alice", 1: "alice", 2: "alice", 3: "bob"},
		isRefunded:  map[uint32]bool{1: true},
		winningTickets: map[int][]uint32{
			0: {0, 1},
			1: {2},
		},
	}

	// Post-fee pool 585. Ticket 0 wins pool 0 (share 4), ticket 1 is refunded
	// and pays nothing despite the stale winner entry, ticket 2 wins pool 1
	// (585*40/100/20 = 11).
	prize, err := r.prizeFor("alice")
	assert.NoError(t, err)
	assert.Equal(t, uint64(15), prize)

	prize, err = r.prizeFor("bob")
	assert.NoError(t, err)
	assert.Zero(t, prize)

	prize, err = r.prizeFor("nobody")
	assert.NoError(t, err)
	assert.Zero(t, prize)
}

func TestCheckedMath(t *testing.T) {
	got, err := mulU64(1<<32, 1<<31)
	assert.NoError(t, err)
	assert.Equal(t, uint64(1)<<63, got)

	_, err = mulU64(1<<32, 1<<32)
	assert.ErrorIs(t, err, ErrArithmeticOverflow)

	got, err = addU64(1<<63, (1<<63)-1)
	assert.NoError(t, err)
	assert.Equal(t, uint64(1<<64-1), got)

	_, err = addU64(1<<63, 1<<63)
	assert.ErrorIs(t, err, ErrArithmeticOverflow)

	got32, err := addU32(1<<31, (1<<31)-1)
	assert.NoError(t, err)
	assert.Equal(t, uint32(1<<32-1), got32)

	_, err = addU32(1<<31, 1<<31)
	assert.ErrorIs(t, err, ErrArithmeticOverflow)
}
