package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/tickethaus/raffle-backend/pkg/randoracle"
	"github.com/tickethaus/raffle-backend/pkg/tokenledger"
)

// Config holds the ledger-wide settings fixed at construction. Fee settings
// can later be changed by the owner through the admin setters.
type Config struct {
	Owner        string
	FeeBps       uint64
	FeeCollector string
}

// Ledger owns every raffle record and its sub-maps. All mutating operations
// for one raffle are serialized; operations on different raffles are
// independent.
type Ledger struct {
	clock    clockwork.Clock
	tokens   tokenledger.Ledger
	oracle   randoracle.Oracle
	log      *slog.Logger
	notifier Notifier

	mu           sync.RWMutex
	owner        string
	feeBps       uint64
	feeCollector string
	nextID       uint64
	raffles      map[uint64]*raffleState
	requests     map[string]uint64 // oracle requestID -> raffleID
}

// New creates a raffle ledger.
func New(cfg Config, tokens tokenledger.Ledger, oracle randoracle.Oracle, clock clockwork.Clock, log *slog.Logger, notifier Notifier) (*Ledger, error) {
	if cfg.Owner == "" {
		return nil, ErrZeroAddress
	}
	if cfg.FeeBps > MaxFeeBps {
		return nil, ErrInvalidFee
	}
	if cfg.FeeBps > 0 && cfg.FeeCollector == "" {
		return nil, ErrZeroAddress
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Ledger{
		clock:        clock,
		tokens:       tokens,
		oracle:       oracle,
		log:          log,
		notifier:     notifier,
		owner:        cfg.Owner,
		feeBps:       cfg.FeeBps,
		feeCollector: cfg.FeeCollector,
		nextID:       1,
		raffles:      make(map[uint64]*raffleState),
		requests:     make(map[string]uint64),
	}, nil
}

// CreateRaffle allocates a new raffle record and returns its id. The
// distribution is stored verbatim; pool order is significant for winner
// storage and prize math.
func (l *Ledger) CreateRaffle(ctx context.Context, creator string, p CreateParams) (uint64, error) {
	if creator == "" || p.TicketToken == "" {
		return 0, ErrZeroAddress
	}
	if p.TotalTickets == 0 || len(p.Distribution) == 0 {
		return 0, ErrInvalidDistribution
	}

	var quantitySum, percentSum uint64
	for _, pool := range p.Distribution {
		quantitySum += uint64(pool.TicketQuantity)
		percentSum += uint64(pool.FundPercentage)
	}
	if quantitySum != uint64(p.TotalTickets) || percentSum != 100 {
		return 0, ErrInvalidDistribution
	}

	now := l.clock.Now().UTC()
	dist := make([]PrizePool, len(p.Distribution))
	copy(dist, p.Distribution)

	state := &raffleState{
		creator:            creator,
		ticketToken:        p.TicketToken,
		ticketPrice:        p.TicketPrice,
		totalTickets:       p.TotalTickets,
		minTicketsRequired: p.MinTicketsRequired,
		distribution:       dist,
		endsAt:             now.Add(p.Duration),
		createdAt:          now,
		availableTickets:   p.TotalTickets,
		slots:              newSlotAllocator(p.TotalTickets),
		userTickets:        make(map[string][]uint32),
		ticketOwner:        make(map[uint32]string),
		isRefunded:         make(map[uint32]bool),
		hasClaimed:         make(map[string]bool),
		winningTickets:     make(map[int][]uint32),
		isActive:           true,
	}

	l.mu.Lock()
	state.id = l.nextID
	l.nextID++
	l.raffles[state.id] = state
	l.mu.Unlock()

	l.log.Info("raffle created",
		"raffleId", state.id, "creator", creator,
		"totalTickets", p.TotalTickets, "ticketPrice", p.TicketPrice)
	l.emit(Notification{Type: NotifRaffleCreated, RaffleID: state.id, Account: creator, Quantity: p.TotalTickets})
	return state.id, nil
}

// BuyTickets debits the buyer for quantity tickets and assigns them the
// lowest available ticket ids. The debit happens before any ticket state is
// touched; if assignment cannot complete the debit is returned and no partial
// state survives.
func (l *Ledger) BuyTickets(ctx context.Context, raffleID uint64, buyer string, quantity uint32) ([]uint32, error) {
	if buyer == "" {
		return nil, ErrZeroAddress
	}
	if quantity == 0 {
		return nil, ErrZeroQuantity
	}

	r, err := l.raffle(raffleID)
	if err != nil {
		return nil, err
	}
	if err := r.guard.begin(); err != nil {
		return nil, err
	}
	defer r.guard.end()

	r.mu.RLock()
	active := r.isActive && l.clock.Now().Before(r.endsAt)
	available := r.availableTickets
	price := r.ticketPrice
	asset := r.ticketToken
	r.mu.RUnlock()

	if !active {
		return nil, ErrRaffleNotActive
	}
	if available < quantity {
		return nil, ErrInsufficientTickets
	}

	totalCost, err := mulU64(uint64(quantity), price)
	if err != nil {
		return nil, err
	}

	// Payment first: the buyer is debited in full before any ticket state
	// changes, and the op guard keeps reentrant calls out for the duration.
	if err := l.tokens.TransferFrom(ctx, asset, buyer, totalCost); err != nil {
		return nil, fmt.Errorf("ticket payment failed: %w", err)
	}

	r.mu.Lock()
	assigned, err := r.assignTickets(buyer, quantity)
	r.mu.Unlock()
	if err != nil {
		// Assignment is all-or-nothing; return the debit before reporting.
		if refundErr := l.tokens.Transfer(ctx, asset, buyer, totalCost); refundErr != nil {
			l.log.Error("failed to return debit after aborted purchase",
				"raffleId", raffleID, "buyer", buyer, "amount", totalCost, "error", refundErr)
		}
		return nil, err
	}

	l.log.Info("tickets purchased",
		"raffleId", raffleID, "buyer", buyer, "quantity", quantity, "totalCost", totalCost)
	l.emit(Notification{Type: NotifTicketsPurchased, RaffleID: raffleID, Account: buyer, Quantity: quantity, Amount: totalCost})
	return assigned, nil
}

// assignTickets claims quantity ticket ids for buyer. Caller holds r.mu.
func (r *raffleState) assignTickets(buyer string, quantity uint32) ([]uint32, error) {
	// Availability was checked before the debit; re-validate against the
	// allocator itself before touching ownership.
	if r.availableTickets < quantity || r.slots.free() < quantity {
		return nil, ErrInsufficientTickets
	}

	newSold, err := addU32(r.totalSold, quantity)
	if err != nil {
		return nil, err
	}

	assigned := make([]uint32, 0, quantity)
	for i := uint32(0); i < quantity; i++ {
		id, ok := r.slots.take()
		if !ok {
			for _, claimed := range assigned {
				delete(r.ticketOwner, claimed)
				r.slots.release(claimed)
			}
			return nil, ErrInsufficientTickets
		}
		r.ticketOwner[id] = buyer
		r.isRefunded[id] = false
		assigned = append(assigned, id)
	}

	// A recycled id the buyer refunded earlier is still in their list;
	// clearing its refund flag above reactivates it. Appending it again
	// would make every ownership scan count the ticket twice.
	for _, id := range assigned {
		if !slices.Contains(r.userTickets[buyer], id) {
			r.userTickets[buyer] = append(r.userTickets[buyer], id)
		}
	}
	r.totalSold = newSold
	r.availableTickets -= quantity
	return assigned, nil
}

// RefundTicket refunds a single owned ticket at face value and recycles its
// slot for future buyers.
func (l *Ledger) RefundTicket(ctx context.Context, raffleID uint64, caller string, ticketID uint32) error {
	if caller == "" {
		return ErrZeroAddress
	}
	r, err := l.raffle(raffleID)
	if err != nil {
		return err
	}
	if err := r.guard.begin(); err != nil {
		return err
	}
	defer r.guard.end()

	r.mu.RLock()
	allowed := r.isActive || r.isNull
	owner := r.ticketOwner[ticketID]
	refunded := r.isRefunded[ticketID]
	price := r.ticketPrice
	asset := r.ticketToken
	r.mu.RUnlock()

	if !allowed {
		return ErrRaffleNotActive
	}
	if owner != caller {
		return ErrTicketNotOwned
	}
	if refunded {
		return ErrTicketAlreadyRefunded
	}

	if err := l.tokens.Transfer(ctx, asset, caller, price); err != nil {
		return fmt.Errorf("refund transfer failed: %w", err)
	}

	r.mu.Lock()
	r.isRefunded[ticketID] = true
	r.slots.release(ticketID)
	r.availableTickets++
	r.totalSold--
	r.mu.Unlock()

	l.log.Info("ticket refunded", "raffleId", raffleID, "owner", caller, "ticketId", ticketID)
	l.emit(Notification{Type: NotifTicketRefunded, RaffleID: raffleID, Account: caller, TicketID: ticketID, Amount: price})
	return nil
}

// FinalizeRaffle closes a raffle after its end time. An undersubscribed
// raffle is declared null immediately; otherwise the fee is withheld and a
// seed is requested from the oracle, leaving the raffle in the pending-seed
// wait state until the callback arrives.
func (l *Ledger) FinalizeRaffle(ctx context.Context, raffleID uint64) error {
	r, err := l.raffle(raffleID)
	if err != nil {
		return err
	}
	if err := r.guard.begin(); err != nil {
		return err
	}
	defer r.guard.end()

	r.mu.RLock()
	ended := !l.clock.Now().Before(r.endsAt)
	finalized := r.isFinalized || !r.isActive
	totalSold := r.totalSold
	minRequired := r.minTicketsRequired
	price := r.ticketPrice
	asset := r.ticketToken
	r.mu.RUnlock()

	if !ended {
		return ErrRaffleNotEnded
	}
	if finalized {
		return ErrRaffleAlreadyFinalized
	}

	if totalSold < minRequired {
		r.mu.Lock()
		r.isNull = true
		r.isFinalized = true
		r.isActive = false
		r.mu.Unlock()

		l.log.Info("raffle declared null", "raffleId", raffleID, "totalSold", totalSold, "minRequired", minRequired)
		l.emit(Notification{Type: NotifRaffleNull, RaffleID: raffleID, Quantity: totalSold})
		return nil
	}

	totalPool, err := mulU64(uint64(totalSold), price)
	if err != nil {
		return err
	}

	l.mu.RLock()
	feeBps := l.feeBps
	feeCollector := l.feeCollector
	l.mu.RUnlock()
	feeProduct, err := mulU64(totalPool, feeBps)
	if err != nil {
		return err
	}
	fee := feeProduct / FeeDenominator

	// The salt only decorrelates simultaneous requests; the oracle's returned
	// value is the actual randomness source.
	salt := l.requestSalt(raffleID, totalSold)
	requestID, err := l.oracle.RequestSeed(ctx, salt)
	if err != nil {
		return fmt.Errorf("seed request failed: %w", err)
	}

	if fee > 0 {
		if err := l.tokens.Transfer(ctx, asset, feeCollector, fee); err != nil {
			// The outstanding request is orphaned; its delivery will be
			// rejected as unknown and a retried finalize issues a fresh one.
			return fmt.Errorf("fee transfer failed: %w", err)
		}
	}

	r.mu.Lock()
	r.sequenceNumber = requestID
	r.feeCollected = fee
	r.isActive = false
	r.mu.Unlock()

	l.mu.Lock()
	l.requests[requestID] = raffleID
	l.mu.Unlock()

	if fee > 0 {
		l.emit(Notification{Type: NotifFeeCollected, RaffleID: raffleID, Account: feeCollector, Amount: fee})
	}
	l.log.Info("seed requested", "raffleId", raffleID, "requestId", requestID, "totalSold", totalSold, "fee", fee)
	l.emit(Notification{Type: NotifSeedRequested, RaffleID: raffleID, RequestID: requestID})
	return nil
}

func (l *Ledger) requestSalt(raffleID uint64, totalSold uint32) [32]byte {
	var buf [20]byte
	binary.BigEndian.PutUint64(buf[0:], raffleID)
	binary.BigEndian.PutUint32(buf[8:], totalSold)
	binary.BigEndian.PutUint64(buf[12:], uint64(l.clock.Now().UnixNano()))
	return sha256.Sum256(buf[:])
}

// OnRandomnessDelivered is the oracle's entry point. It resolves the raffle
// behind requestID, draws the winners from the delivered seed and moves the
// raffle into its terminal finalized state. This is the sole transition into
// finalized-with-winners. The resolved raffle id is returned so callers can
// follow up without knowing the request mapping.
func (l *Ledger) OnRandomnessDelivered(ctx context.Context, requestID, providerID string, seed Seed) (uint64, error) {
	l.mu.RLock()
	raffleID, ok := l.requests[requestID]
	l.mu.RUnlock()
	if !ok {
		return 0, ErrUnknownRequest
	}

	r, err := l.raffle(raffleID)
	if err != nil {
		return 0, err
	}
	if err := r.guard.begin(); err != nil {
		return 0, err
	}
	defer r.guard.end()

	r.mu.Lock()
	if r.isFinalized {
		r.mu.Unlock()
		return 0, ErrRaffleAlreadyFinalized
	}
	winners := SelectWinners(r.soldTickets(), r.distribution, seed)
	r.winningTickets = winners
	r.isFinalized = true
	r.mu.Unlock()

	l.mu.Lock()
	delete(l.requests, requestID)
	l.mu.Unlock()

	seedHex := hex.EncodeToString(seed[:])
	l.log.Info("raffle finalized",
		"raffleId", raffleID, "requestId", requestID, "provider", providerID, "seed", seedHex, "pools", len(winners))
	l.emit(Notification{Type: NotifRaffleFinalized, RaffleID: raffleID, RequestID: requestID, Seed: seedHex})
	return raffleID, nil
}

// ClaimPrize pays out the caller's total prize across all owned, non-refunded
// winning tickets. A caller with no tickets, or whose tickets won nothing,
// gets a zero no-op and keeps their claim flag unset; only a positive payout
// consumes the one-shot flag.
func (l *Ledger) ClaimPrize(ctx context.Context, raffleID uint64, caller string) (uint64, error) {
	if caller == "" {
		return 0, ErrZeroAddress
	}
	r, err := l.raffle(raffleID)
	if err != nil {
		return 0, err
	}
	if err := r.guard.begin(); err != nil {
		return 0, err
	}
	defer r.guard.end()

	r.mu.RLock()
	finalized := r.isFinalized
	null := r.isNull
	claimed := r.hasClaimed[caller]
	asset := r.ticketToken
	var prize uint64
	if finalized && !null && !claimed {
		prize, err = r.prizeFor(caller)
	}
	r.mu.RUnlock()

	if !finalized {
		return 0, ErrRaffleNotFinalized
	}
	if null {
		return 0, ErrRaffleIsNull
	}
	if claimed {
		return 0, ErrAlreadyClaimed
	}
	if err != nil {
		return 0, err
	}
	if prize == 0 {
		return 0, nil
	}

	if err := l.tokens.Transfer(ctx, asset, caller, prize); err != nil {
		return 0, fmt.Errorf("prize transfer failed: %w", err)
	}

	r.mu.Lock()
	r.hasClaimed[caller] = true
	r.mu.Unlock()

	l.log.Info("prize claimed", "raffleId", raffleID, "winner", caller, "amount", prize)
	l.emit(Notification{Type: NotifPrizeClaimed, RaffleID: raffleID, Account: caller, Amount: prize})
	return prize, nil
}

// ClaimRefund recovers the face value of every not-yet-refunded ticket the
// caller owns in a null raffle, in one claim. Zero refundable tickets is a
// no-op that leaves the claim flag unset.
func (l *Ledger) ClaimRefund(ctx context.Context, raffleID uint64, caller string) (uint64, error) {
	if caller == "" {
		return 0, ErrZeroAddress
	}
	r, err := l.raffle(raffleID)
	if err != nil {
		return 0, err
	}
	if err := r.guard.begin(); err != nil {
		return 0, err
	}
	defer r.guard.end()

	r.mu.RLock()
	null := r.isNull
	claimed := r.hasClaimed[caller]
	asset := r.ticketToken
	price := r.ticketPrice
	var refundable []uint32
	if null && !claimed {
		for _, id := range r.userTickets[caller] {
			if r.ticketOwner[id] == caller && !r.isRefunded[id] {
				refundable = append(refundable, id)
			}
		}
	}
	r.mu.RUnlock()

	if !null {
		return 0, ErrRaffleNotNull
	}
	if claimed {
		return 0, ErrAlreadyClaimed
	}
	if len(refundable) == 0 {
		return 0, nil
	}

	total, err := mulU64(uint64(len(refundable)), price)
	if err != nil {
		return 0, err
	}
	if err := l.tokens.Transfer(ctx, asset, caller, total); err != nil {
		return 0, fmt.Errorf("refund transfer failed: %w", err)
	}

	r.mu.Lock()
	for _, id := range refundable {
		r.isRefunded[id] = true
	}
	r.hasClaimed[caller] = true
	r.mu.Unlock()

	l.log.Info("refund claimed", "raffleId", raffleID, "owner", caller, "tickets", len(refundable), "amount", total)
	l.emit(Notification{Type: NotifRefundClaimed, RaffleID: raffleID, Account: caller, Quantity: uint32(len(refundable)), Amount: total})
	return total, nil
}

// --- Query surface (read-only) ---

// GetRaffle returns a snapshot of a raffle's summary fields.
func (l *Ledger) GetRaffle(raffleID uint64) (Raffle, error) {
	r, err := l.raffle(raffleID)
	if err != nil {
		return Raffle{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot(), nil
}

// ListRaffles returns snapshots of every raffle, ordered by id.
func (l *Ledger) ListRaffles() []Raffle {
	l.mu.RLock()
	states := make([]*raffleState, 0, len(l.raffles))
	for _, r := range l.raffles {
		states = append(states, r)
	}
	l.mu.RUnlock()

	sort.Slice(states, func(i, j int) bool { return states[i].id < states[j].id })
	raffles := make([]Raffle, 0, len(states))
	for _, r := range states {
		r.mu.RLock()
		raffles = append(raffles, r.snapshot())
		r.mu.RUnlock()
	}
	return raffles
}

// UserTickets returns the caller's ticket id list with per-ticket refund
// flags. Refunded entries stay in the list for bookkeeping but are excluded
// from draws and claims; a recycled id reappears under its new owner instead.
func (l *Ledger) UserTickets(raffleID uint64, account string) ([]Ticket, error) {
	r, err := l.raffle(raffleID)
	if err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	tickets := make([]Ticket, 0, len(r.userTickets[account]))
	for _, id := range r.userTickets[account] {
		tickets = append(tickets, Ticket{
			ID:       id,
			Refunded: r.ticketOwner[id] != account || r.isRefunded[id],
		})
	}
	return tickets, nil
}

// WinningTickets returns the winner list for one pool of a finalized raffle.
func (l *Ledger) WinningTickets(raffleID uint64, poolIndex int) ([]uint32, error) {
	r, err := l.raffle(raffleID)
	if err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	if poolIndex < 0 || poolIndex >= len(r.distribution) {
		return nil, ErrPoolIndexOutOfRange
	}
	winners := make([]uint32, len(r.winningTickets[poolIndex]))
	copy(winners, r.winningTickets[poolIndex])
	return winners, nil
}

// HasClaimed reports whether account has consumed its one-shot claim flag.
func (l *Ledger) HasClaimed(raffleID uint64, account string) (bool, error) {
	r, err := l.raffle(raffleID)
	if err != nil {
		return false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.hasClaimed[account], nil
}

// OracleFee reports the oracle's current per-request fee.
func (l *Ledger) OracleFee(ctx context.Context) (uint64, error) {
	return l.oracle.RequestFee(ctx)
}

// --- Administrative surface (owner only) ---

// SetFeeCollector changes the fee collection account.
func (l *Ledger) SetFeeCollector(caller, collector string) error {
	if collector == "" {
		return ErrZeroAddress
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if caller != l.owner {
		return ErrNotOwner
	}
	l.feeCollector = collector
	l.log.Info("fee collector updated", "collector", collector)
	return nil
}

// SetFeeBps changes the fee percentage, capped at 10%.
func (l *Ledger) SetFeeBps(caller string, bps uint64) error {
	if bps > MaxFeeBps {
		return ErrInvalidFee
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if caller != l.owner {
		return ErrNotOwner
	}
	l.feeBps = bps
	l.log.Info("fee percentage updated", "feeBps", bps)
	return nil
}

// FeeConfig reports the current fee settings.
func (l *Ledger) FeeConfig() (bps uint64, collector string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.feeBps, l.feeCollector
}

func (l *Ledger) raffle(raffleID uint64) (*raffleState, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	r, ok := l.raffles[raffleID]
	if !ok {
		return nil, ErrRaffleNotFound
	}
	return r, nil
}
