// Package ledger implements the raffle ledger core: ticket purchase and refund
// bookkeeping over a fixed-supply pool, finalization through an asynchronous
// randomness oracle, seeded multi-pool winner selection, and proportional
// prize payout. It is a pure domain package; transport and persistence live
// above it.
package ledger

import (
	"sync"
	"time"

	"github.com/tickethaus/raffle-backend/pkg/randoracle"
)

// Seed is the opaque 256-bit random value consumed by winner selection.
type Seed = randoracle.Seed

// FeeDenominator is the basis-point denominator for fee math (10000 = 100%).
const FeeDenominator = 10_000

// MaxFeeBps caps the configurable fee at 10%.
const MaxFeeBps = 1_000

// PrizePool is one configured prize bucket: a percentage of the post-fee pool
// split evenly across a configured number of winning tickets. Pool order is
// significant; the index is used for winner storage and prize math.
type PrizePool struct {
	FundPercentage uint32 `json:"fundPercentage"`
	TicketQuantity uint32 `json:"ticketQuantity"`
}

// RaffleStatus is the lifecycle state of a raffle.
type RaffleStatus string

const (
	// StatusActive accepts purchases and refunds until the end time.
	StatusActive RaffleStatus = "ACTIVE"
	// StatusPendingSeed is the wait state between the randomness request and
	// the oracle callback. Purchases, refunds and claims are all rejected.
	StatusPendingSeed RaffleStatus = "PENDING_SEED"
	// StatusFinalized has winners drawn; prizes are claimable.
	StatusFinalized RaffleStatus = "FINALIZED"
	// StatusNull was undersubscribed at finalization; per-ticket refunds are
	// claimable instead of prizes.
	StatusNull RaffleStatus = "NULL"
)

// CreateParams carries the immutable parameters of a new raffle.
type CreateParams struct {
	TotalTickets       uint32
	TicketToken        string
	TicketPrice        uint64
	Distribution       []PrizePool
	Duration           time.Duration
	MinTicketsRequired uint32
}

// Raffle is a read-only snapshot of a raffle's summary fields.
type Raffle struct {
	ID                 uint64       `json:"id"`
	Creator            string       `json:"creator"`
	TicketToken        string       `json:"ticketToken"`
	TicketPrice        uint64       `json:"ticketPrice"`
	TotalTickets       uint32       `json:"totalTickets"`
	TotalSold          uint32       `json:"totalSold"`
	AvailableTickets   uint32       `json:"availableTickets"`
	MinTicketsRequired uint32       `json:"minTicketsRequired"`
	Distribution       []PrizePool  `json:"distribution"`
	EndsAt             time.Time    `json:"endsAt"`
	Status             RaffleStatus `json:"status"`
	SequenceNumber     string       `json:"sequenceNumber,omitempty"`
	FeeCollected       uint64       `json:"feeCollected"`
	CreatedAt          time.Time    `json:"createdAt"`
}

// Ticket describes one ticket id in a user's ownership list.
type Ticket struct {
	ID       uint32 `json:"id"`
	Refunded bool   `json:"refunded"`
}

// raffleState is the owned aggregate behind a raffle id. All maps are local to
// the aggregate; nothing outside the ledger mutates them.
type raffleState struct {
	// guard rejects a second in-flight operation on this raffle; mu protects
	// the fields below so read-only queries never observe a half-applied op.
	guard opGuard
	mu    sync.RWMutex

	id                 uint64
	creator            string
	ticketToken        string
	ticketPrice        uint64
	totalTickets       uint32
	minTicketsRequired uint32
	distribution       []PrizePool
	endsAt             time.Time
	createdAt          time.Time

	totalSold        uint32
	availableTickets uint32
	slots            *slotAllocator

	userTickets    map[string][]uint32
	ticketOwner    map[uint32]string
	isRefunded     map[uint32]bool
	hasClaimed     map[string]bool
	winningTickets map[int][]uint32

	sequenceNumber string
	feeCollected   uint64

	isActive    bool
	isFinalized bool
	isNull      bool
}

func (r *raffleState) status() RaffleStatus {
	switch {
	case r.isNull:
		return StatusNull
	case r.isFinalized:
		return StatusFinalized
	case r.isActive:
		return StatusActive
	default:
		return StatusPendingSeed
	}
}

func (r *raffleState) snapshot() Raffle {
	dist := make([]PrizePool, len(r.distribution))
	copy(dist, r.distribution)
	return Raffle{
		ID:                 r.id,
		Creator:            r.creator,
		TicketToken:        r.ticketToken,
		TicketPrice:        r.ticketPrice,
		TotalTickets:       r.totalTickets,
		TotalSold:          r.totalSold,
		AvailableTickets:   r.availableTickets,
		MinTicketsRequired: r.minTicketsRequired,
		Distribution:       dist,
		EndsAt:             r.endsAt,
		Status:             r.status(),
		SequenceNumber:     r.sequenceNumber,
		FeeCollected:       r.feeCollected,
		CreatedAt:          r.createdAt,
	}
}

// soldTickets returns the owned, non-refunded ticket ids in ascending order.
func (r *raffleState) soldTickets() []uint32 {
	tickets := make([]uint32, 0, r.totalSold)
	for id := uint32(0); id < r.totalTickets; id++ {
		owner, owned := r.ticketOwner[id]
		if owned && owner != "" && !r.isRefunded[id] {
			tickets = append(tickets, id)
		}
	}
	return tickets
}
