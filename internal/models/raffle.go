package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tickethaus/raffle-backend/internal/ledger"
)

// RaffleRecord is the persisted snapshot of a raffle's summary fields. The
// in-memory ledger is the source of truth while the process runs; the record
// is upserted after every state change so the raffle history survives
// restarts and is queryable without touching the ledger.
type RaffleRecord struct {
	ID                 primitive.ObjectID  `bson:"_id,omitempty" json:"id,omitempty"`
	RaffleID           uint64              `bson:"raffleId" json:"raffleId"`
	Creator            string              `bson:"creator" json:"creator"`
	TicketToken        string              `bson:"ticketToken" json:"ticketToken"`
	TicketPrice        uint64              `bson:"ticketPrice" json:"ticketPrice"`
	TotalTickets       uint32              `bson:"totalTickets" json:"totalTickets"`
	TotalSold          uint32              `bson:"totalSold" json:"totalSold"`
	AvailableTickets   uint32              `bson:"availableTickets" json:"availableTickets"`
	MinTicketsRequired uint32              `bson:"minTicketsRequired" json:"minTicketsRequired"`
	Distribution       []ledger.PrizePool  `bson:"distribution" json:"distribution"`
	EndsAt             time.Time           `bson:"endsAt" json:"endsAt"`
	Status             ledger.RaffleStatus `bson:"status" json:"status"`
	SequenceNumber     string              `bson:"sequenceNumber,omitempty" json:"sequenceNumber,omitempty"`
	FeeCollected       uint64              `bson:"feeCollected" json:"feeCollected"`
	CreatedAt          time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// RecordFromSnapshot converts a ledger snapshot into its persisted form.
func RecordFromSnapshot(r ledger.Raffle) *RaffleRecord {
	return &RaffleRecord{
		RaffleID:           r.ID,
		Creator:            r.Creator,
		TicketToken:        r.TicketToken,
		TicketPrice:        r.TicketPrice,
		TotalTickets:       r.TotalTickets,
		TotalSold:          r.TotalSold,
		AvailableTickets:   r.AvailableTickets,
		MinTicketsRequired: r.MinTicketsRequired,
		Distribution:       r.Distribution,
		EndsAt:             r.EndsAt,
		Status:             r.Status,
		SequenceNumber:     r.SequenceNumber,
		FeeCollected:       r.FeeCollected,
		CreatedAt:          r.CreatedAt,
	}
}
