package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tickethaus/raffle-backend/internal/ledger"
)

// RaffleEvent is one append-only audit log entry, persisted for every
// notification the ledger emits.
type RaffleEvent struct {
	ID         primitive.ObjectID      `bson:"_id,omitempty" json:"id,omitempty"`
	RaffleID   uint64                  `bson:"raffleId" json:"raffleId"`
	Type       ledger.NotificationType `bson:"type" json:"type"`
	Account    string                  `bson:"account,omitempty" json:"account,omitempty"`
	TicketID   uint32                  `bson:"ticketId,omitempty" json:"ticketId,omitempty"`
	Quantity   uint32                  `bson:"quantity,omitempty" json:"quantity,omitempty"`
	Amount     uint64                  `bson:"amount,omitempty" json:"amount,omitempty"`
	RequestID  string                  `bson:"requestId,omitempty" json:"requestId,omitempty"`
	Seed       string                  `bson:"seed,omitempty" json:"seed,omitempty"`
	OccurredAt time.Time               `bson:"occurredAt" json:"occurredAt"`
	CreatedAt  time.Time               `bson:"createdAt" json:"createdAt"`
}

// EventFromNotification converts a ledger notification into its persisted form.
func EventFromNotification(n ledger.Notification) *RaffleEvent {
	return &RaffleEvent{
		RaffleID:   n.RaffleID,
		Type:       n.Type,
		Account:    n.Account,
		TicketID:   n.TicketID,
		Quantity:   n.Quantity,
		Amount:     n.Amount,
		RequestID:  n.RequestID,
		Seed:       n.Seed,
		OccurredAt: n.At,
	}
}
