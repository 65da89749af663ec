package services

import (
	"context"
	"log/slog"

	"github.com/tickethaus/raffle-backend/internal/ledger"
	"github.com/tickethaus/raffle-backend/internal/models"
	"github.com/tickethaus/raffle-backend/internal/repositories"
)

// RaffleService sits between the HTTP layer and the in-memory ledger. It
// persists an audit event for every ledger notification and keeps the stored
// raffle snapshot current after each state change, so the ledger stays the
// source of truth while the database carries the queryable history.
type RaffleService struct {
	ledger     *ledger.Ledger
	raffleRepo repositories.RaffleRecordRepository
	eventRepo  repositories.EventRepository
	log        *slog.Logger
}

// NewRaffleService creates a new RaffleService.
func NewRaffleService(raffleRepo repositories.RaffleRecordRepository, eventRepo repositories.EventRepository, log *slog.Logger) *RaffleService {
	if log == nil {
		log = slog.Default()
	}
	return &RaffleService{
		raffleRepo: raffleRepo,
		eventRepo:  eventRepo,
		log:        log,
	}
}

// Bind attaches the ledger after construction. The service is the ledger's
// notifier, so both sides need the other; Bind breaks the cycle.
func (s *RaffleService) Bind(l *ledger.Ledger) {
	s.ledger = l
}

// Notify implements ledger.Notifier. A persistence failure is logged and
// swallowed: the ledger already committed, and the audit log must never
// veto a token movement that has happened.
func (s *RaffleService) Notify(n ledger.Notification) {
	if err := s.eventRepo.Create(context.Background(), models.EventFromNotification(n)); err != nil {
		s.log.Error("failed to persist raffle event",
			"raffleId", n.RaffleID, "type", n.Type, "error", err)
	}
}

// CreateRaffle creates a raffle and persists its initial snapshot.
func (s *RaffleService) CreateRaffle(ctx context.Context, creator string, p ledger.CreateParams) (ledger.Raffle, error) {
	id, err := s.ledger.CreateRaffle(ctx, creator, p)
	if err != nil {
		return ledger.Raffle{}, err
	}
	return s.syncSnapshot(ctx, id)
}

// BuyTickets purchases tickets and returns the assigned ticket ids.
func (s *RaffleService) BuyTickets(ctx context.Context, raffleID uint64, buyer string, quantity uint32) ([]uint32, error) {
	ids, err := s.ledger.BuyTickets(ctx, raffleID, buyer, quantity)
	if err != nil {
		return nil, err
	}
	if _, err := s.syncSnapshot(ctx, raffleID); err != nil {
		return nil, err
	}
	return ids, nil
}

// RefundTicket refunds one owned ticket at face value.
func (s *RaffleService) RefundTicket(ctx context.Context, raffleID uint64, caller string, ticketID uint32) error {
	if err := s.ledger.RefundTicket(ctx, raffleID, caller, ticketID); err != nil {
		return err
	}
	_, err := s.syncSnapshot(ctx, raffleID)
	return err
}

// FinalizeRaffle closes a raffle past its end time.
func (s *RaffleService) FinalizeRaffle(ctx context.Context, raffleID uint64) (ledger.Raffle, error) {
	if err := s.ledger.FinalizeRaffle(ctx, raffleID); err != nil {
		return ledger.Raffle{}, err
	}
	return s.syncSnapshot(ctx, raffleID)
}

// HandleSeedDelivery feeds the oracle callback into the ledger.
func (s *RaffleService) HandleSeedDelivery(ctx context.Context, requestID, providerID string, seed ledger.Seed) error {
	raffleID, err := s.ledger.OnRandomnessDelivered(ctx, requestID, providerID, seed)
	if err != nil {
		return err
	}
	_, err = s.syncSnapshot(ctx, raffleID)
	return err
}

// ClaimPrize pays out the caller's winnings, if any.
func (s *RaffleService) ClaimPrize(ctx context.Context, raffleID uint64, caller string) (uint64, error) {
	amount, err := s.ledger.ClaimPrize(ctx, raffleID, caller)
	if err != nil {
		return 0, err
	}
	return amount, nil
}

// ClaimRefund recovers the caller's ticket value from a null raffle.
func (s *RaffleService) ClaimRefund(ctx context.Context, raffleID uint64, caller string) (uint64, error) {
	amount, err := s.ledger.ClaimRefund(ctx, raffleID, caller)
	if err != nil {
		return 0, err
	}
	if amount > 0 {
		if _, err := s.syncSnapshot(ctx, raffleID); err != nil {
			return 0, err
		}
	}
	return amount, nil
}

// GetRaffle returns the live snapshot of a raffle.
func (s *RaffleService) GetRaffle(ctx context.Context, raffleID uint64) (ledger.Raffle, error) {
	return s.ledger.GetRaffle(raffleID)
}

// ListRaffles returns stored raffle snapshots, newest first.
func (s *RaffleService) ListRaffles(ctx context.Context, status string, page, limit int) ([]*models.RaffleRecord, error) {
	if status != "" {
		return s.raffleRepo.FindByStatus(ctx, status, page, limit)
	}
	return s.raffleRepo.FindAll(ctx, page, limit)
}

// GetEvents returns the audit log for one raffle, newest first.
func (s *RaffleService) GetEvents(ctx context.Context, raffleID uint64, page, limit int) ([]*models.RaffleEvent, error) {
	return s.eventRepo.FindByRaffleID(ctx, raffleID, page, limit)
}

// GetAccountEvents returns the audit log entries touching one account.
func (s *RaffleService) GetAccountEvents(ctx context.Context, account string, page, limit int) ([]*models.RaffleEvent, error) {
	return s.eventRepo.FindByAccount(ctx, account, page, limit)
}

// GetEventsByType returns the audit log entries of one notification type.
func (s *RaffleService) GetEventsByType(ctx context.Context, eventType string, page, limit int) ([]*models.RaffleEvent, error) {
	return s.eventRepo.FindByType(ctx, eventType, page, limit)
}

// UserTickets returns an account's ticket list for one raffle.
func (s *RaffleService) UserTickets(ctx context.Context, raffleID uint64, account string) ([]ledger.Ticket, error) {
	return s.ledger.UserTickets(raffleID, account)
}

// WinningTickets returns the winners of one prize pool.
func (s *RaffleService) WinningTickets(ctx context.Context, raffleID uint64, poolIndex int) ([]uint32, error) {
	return s.ledger.WinningTickets(raffleID, poolIndex)
}

// HasClaimed reports whether an account has consumed its claim.
func (s *RaffleService) HasClaimed(ctx context.Context, raffleID uint64, account string) (bool, error) {
	return s.ledger.HasClaimed(raffleID, account)
}

// OracleFee reports the oracle's current per-request fee.
func (s *RaffleService) OracleFee(ctx context.Context) (uint64, error) {
	return s.ledger.OracleFee(ctx)
}

// SetFeeCollector changes the fee collection account (owner only).
func (s *RaffleService) SetFeeCollector(caller, collector string) error {
	return s.ledger.SetFeeCollector(caller, collector)
}

// SetFeeBps changes the fee percentage (owner only).
func (s *RaffleService) SetFeeBps(caller string, bps uint64) error {
	return s.ledger.SetFeeBps(caller, bps)
}

// FeeConfig reports the current fee settings.
func (s *RaffleService) FeeConfig() (uint64, string) {
	return s.ledger.FeeConfig()
}

func (s *RaffleService) syncSnapshot(ctx context.Context, raffleID uint64) (ledger.Raffle, error) {
	snapshot, err := s.ledger.GetRaffle(raffleID)
	if err != nil {
		return ledger.Raffle{}, err
	}
	if err := s.raffleRepo.Upsert(ctx, models.RecordFromSnapshot(snapshot)); err != nil {
		// Same stance as Notify: the ledger is authoritative, a stale stored
		// snapshot is repaired by the next successful sync.
		s.log.Error("failed to persist raffle snapshot", "raffleId", raffleID, "error", err)
	}
	return snapshot, nil
}
