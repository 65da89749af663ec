package ledger

import "time"

// NotificationType identifies one kind of append-only log entry.
type NotificationType string

const (
	NotifRaffleCreated    NotificationType = "RAFFLE_CREATED"
	NotifTicketsPurchased NotificationType = "TICKETS_PURCHASED"
	NotifTicketRefunded   NotificationType = "TICKET_REFUNDED"
	NotifSeedRequested    NotificationType = "SEED_REQUESTED"
	NotifRaffleFinalized  NotificationType = "RAFFLE_FINALIZED"
	NotifRaffleNull       NotificationType = "RAFFLE_NULL"
	NotifPrizeClaimed     NotificationType = "PRIZE_CLAIMED"
	NotifRefundClaimed    NotificationType = "REFUND_CLAIMED"
	NotifFeeCollected     NotificationType = "FEE_COLLECTED"
)

// Notification is one append-only log entry observers may subscribe to.
// Fields not relevant to the type are zero.
type Notification struct {
	Type      NotificationType `json:"type"`
	RaffleID  uint64           `json:"raffleId"`
	Account   string           `json:"account,omitempty"`
	Quantity  uint32           `json:"quantity,omitempty"`
	TicketID  uint32           `json:"ticketId,omitempty"`
	Amount    uint64           `json:"amount,omitempty"`
	RequestID string           `json:"requestId,omitempty"`
	Seed      string           `json:"seed,omitempty"`
	At        time.Time        `json:"at"`
}

// Notifier receives every notification the ledger emits, in emission order.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(n Notification)

// Notify calls f(n).
func (f NotifierFunc) Notify(n Notification) { f(n) }

func (l *Ledger) emit(n Notification) {
	n.At = l.clock.Now().UTC()
	if l.notifier != nil {
		l.notifier.Notify(n)
	}
}
