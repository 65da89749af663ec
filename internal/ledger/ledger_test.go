package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tickethaus/raffle-backend/pkg/randoracle"
	"github.com/tickethaus/raffle-backend/pkg/tokenledger"
)

const (
	testAsset     = "RAFT"
	custody       = "custody"
	owner         = "admin"
	feeCollector  = "treasury"
	defaultFeeBps = 250
)

type testEnv struct {
	ledger *Ledger
	tokens *tokenledger.Mock
	oracle *randoracle.Mock
	clock  *clockwork.FakeClock
	events []Notification
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		tokens: tokenledger.NewMock(custody),
		oracle: randoracle.NewMock(100),
		clock:  clockwork.NewFakeClock(),
	}
	l, err := New(
		Config{Owner: owner, FeeBps: defaultFeeBps, FeeCollector: feeCollector},
		env.tokens, env.oracle, env.clock, nil,
		NotifierFunc(func(n Notification) { env.events = append(env.events, n) }),
	)
	require.NoError(t, err)
	env.ledger = l
	return env
}

func (e *testEnv) createRaffle(t *testing.T, p CreateParams) uint64 {
	t.Helper()
	id, err := e.ledger.CreateRaffle(context.Background(), "creator", p)
	require.NoError(t, err)
	return id
}

func (e *testEnv) fund(account string, amount uint64) {
	e.tokens.Credit(testAsset, account, amount)
}

func (e *testEnv) deliverSeed(t *testing.T, seed Seed) {
	t.Helper()
	pending := e.oracle.PendingRequests()
	require.Len(t, pending, 1)
	err := e.oracle.Fulfill(pending[0], seed, func(requestID, providerID string, s randoracle.Seed) error {
		_, err := e.ledger.OnRandomnessDelivered(context.Background(), requestID, providerID, s)
		return err
	})
	require.NoError(t, err)
}

func singlePool(total uint32) []PrizePool {
	return []PrizePool{{FundPercentage: 100, TicketQuantity: total}}
}

func TestCreateRaffle_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		creator string
		params  CreateParams
		wantErr error
	}{
		{
			name:    "empty token asset",
			creator: "alice",
			params:  CreateParams{TotalTickets: 10, TicketPrice: 5, Distribution: singlePool(10), Duration: time.Hour},
			wantErr: ErrZeroAddress,
		},
		{
			name:    "quantity sum mismatch",
			creator: "alice",
			params: CreateParams{
				TotalTickets: 10, TicketToken: testAsset, TicketPrice: 5, Duration: time.Hour,
				Distribution: []PrizePool{{FundPercentage: 100, TicketQuantity: 9}},
			},
			wantErr: ErrInvalidDistribution,
		},
		{
			name:    "percentage sum mismatch",
			creator: "alice",
			params: CreateParams{
				TotalTickets: 10, TicketToken: testAsset, TicketPrice: 5, Duration: time.Hour,
				Distribution: []PrizePool{{FundPercentage: 90, TicketQuantity: 10}},
			},
			wantErr: ErrInvalidDistribution,
		},
		{
			name:    "empty distribution",
			creator: "alice",
			params:  CreateParams{TotalTickets: 10, TicketToken: testAsset, TicketPrice: 5, Duration: time.Hour},
			wantErr: ErrInvalidDistribution,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.ledger.CreateRaffle(ctx, tc.creator, tc.params)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}

	// No raffle may survive a failed creation.
	assert.Empty(t, env.ledger.ListRaffles())
}

func TestCreateRaffle_AssignsSequentialIDs(t *testing.T) {
	env := newTestEnv(t)
	p := CreateParams{
		TotalTickets: 10, TicketToken: testAsset, TicketPrice: 5,
		Distribution: singlePool(10), Duration: time.Hour,
	}
	first := env.createRaffle(t, p)
	second := env.createRaffle(t, p)
	assert.Equal(t, uint64(1), first)
	assert.Equal(t, uint64(2), second)

	r, err := env.ledger.GetRaffle(first)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, r.Status)
	assert.Equal(t, uint32(10), r.AvailableTickets)
	assert.Equal(t, uint32(0), r.TotalSold)
	assert.Equal(t, env.clock.Now().UTC().Add(time.Hour), r.EndsAt)
}

func TestBuyTickets(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.createRaffle(t, CreateParams{
		TotalTickets: 10, TicketToken: testAsset, TicketPrice: 5,
		Distribution: singlePool(10), Duration: time.Hour,
	})
	env.fund("alice", 100)

	t.Run("assigns ascending ids and debits payment", func(t *testing.T) {
		ids, err := env.ledger.BuyTickets(ctx, id, "alice", 3)
		require.NoError(t, err)
		assert.Equal(t, []uint32{0, 1, 2}, ids)
		assert.Equal(t, uint64(85), env.tokens.Balance(testAsset, "alice"))
		assert.Equal(t, uint64(15), env.tokens.Balance(testAsset, custody))

		r, err := env.ledger.GetRaffle(id)
		require.NoError(t, err)
		assert.Equal(t, uint32(3), r.TotalSold)
		assert.Equal(t, uint32(7), r.AvailableTickets)
	})

	t.Run("zero quantity", func(t *testing.T) {
		_, err := env.ledger.BuyTickets(ctx, id, "alice", 0)
		assert.ErrorIs(t, err, ErrZeroQuantity)
	})

	t.Run("more than available", func(t *testing.T) {
		_, err := env.ledger.BuyTickets(ctx, id, "alice", 8)
		assert.ErrorIs(t, err, ErrInsufficientTickets)
	})

	t.Run("failed payment leaves state untouched", func(t *testing.T) {
		before, err := env.ledger.GetRaffle(id)
		require.NoError(t, err)
		_, err = env.ledger.BuyTickets(ctx, id, "broke", 2)
		require.Error(t, err)
		after, err := env.ledger.GetRaffle(id)
		require.NoError(t, err)
		assert.Equal(t, before.TotalSold, after.TotalSold)
		assert.Equal(t, before.AvailableTickets, after.AvailableTickets)
	})

	t.Run("rejected after end time", func(t *testing.T) {
		env.clock.Advance(2 * time.Hour)
		_, err := env.ledger.BuyTickets(ctx, id, "alice", 1)
		assert.ErrorIs(t, err, ErrRaffleNotActive)
	})
}

func TestBuyTickets_CostOverflow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.createRaffle(t, CreateParams{
		TotalTickets: 100, TicketToken: testAsset, TicketPrice: 1 << 62,
		Distribution: singlePool(100), Duration: time.Hour,
	})
	_, err := env.ledger.BuyTickets(ctx, id, "alice", 5)
	assert.ErrorIs(t, err, ErrArithmeticOverflow)
}

func TestRefundTicket_And_SlotRecycling(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.createRaffle(t, CreateParams{
		TotalTickets: 10, TicketToken: testAsset, TicketPrice: 5,
		Distribution: singlePool(10), Duration: time.Hour,
	})
	env.fund("alice", 50)
	env.fund("bob", 50)

	ids, err := env.ledger.BuyTickets(ctx, id, "alice", 5)
	require.NoError(t, err)
	require.Equal(t, []uint32{0, 1, 2, 3, 4}, ids)

	t.Run("refund returns face value", func(t *testing.T) {
		require.NoError(t, env.ledger.RefundTicket(ctx, id, "alice", 1))
		require.NoError(t, env.ledger.RefundTicket(ctx, id, "alice", 3))
		assert.Equal(t, uint64(35), env.tokens.Balance(testAsset, "alice"))

		r, err := env.ledger.GetRaffle(id)
		require.NoError(t, err)
		assert.Equal(t, uint32(3), r.TotalSold)
		assert.Equal(t, uint32(7), r.AvailableTickets)
	})

	t.Run("double refund rejected", func(t *testing.T) {
		assert.ErrorIs(t, env.ledger.RefundTicket(ctx, id, "alice", 1), ErrTicketAlreadyRefunded)
	})

	t.Run("refund of unowned ticket rejected", func(t *testing.T) {
		assert.ErrorIs(t, env.ledger.RefundTicket(ctx, id, "bob", 0), ErrTicketNotOwned)
		assert.ErrorIs(t, env.ledger.RefundTicket(ctx, id, "alice", 9), ErrTicketNotOwned)
	})

	t.Run("refunded slots are reassigned lowest-first", func(t *testing.T) {
		ids, err := env.ledger.BuyTickets(ctx, id, "bob", 3)
		require.NoError(t, err)
		// Recycled ids 1 and 3 come back before the fresh cursor at 5.
		assert.Equal(t, []uint32{1, 3, 5}, ids)

		bobTickets, err := env.ledger.UserTickets(id, "bob")
		require.NoError(t, err)
		assert.Equal(t, []Ticket{{ID: 1}, {ID: 3}, {ID: 5}}, bobTickets)

		// Alice's list still records the refunded ids, flagged.
		aliceTickets, err := env.ledger.UserTickets(id, "alice")
		require.NoError(t, err)
		assert.Equal(t, []Ticket{{ID: 0}, {ID: 1, Refunded: true}, {ID: 2}, {ID: 3, Refunded: true}, {ID: 4}}, aliceTickets)
	})

	t.Run("available plus sold equals capacity throughout", func(t *testing.T) {
		r, err := env.ledger.GetRaffle(id)
		require.NoError(t, err)
		assert.Equal(t, r.TotalTickets, r.TotalSold+r.AvailableTickets)
	})
}

// A buyer who refunds a ticket and later gets the same recycled id back must
// hold it once in their ownership list; both claim paths walk that list and a
// duplicate entry would pay the ticket out twice.
func TestRebuyRecycledTicket_CountedOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	t.Run("refund claim on a null raffle", func(t *testing.T) {
		id := env.createRaffle(t, CreateParams{
			TotalTickets: 10, TicketToken: testAsset, TicketPrice: 10,
			Distribution: singlePool(10), Duration: time.Hour, MinTicketsRequired: 5,
		})
		env.fund("alice", 40)

		ids, err := env.ledger.BuyTickets(ctx, id, "alice", 2)
		require.NoError(t, err)
		require.Equal(t, []uint32{0, 1}, ids)
		require.NoError(t, env.ledger.RefundTicket(ctx, id, "alice", 0))

		// The recycled id 0 comes back to the same buyer alongside a fresh id.
		ids, err = env.ledger.BuyTickets(ctx, id, "alice", 2)
		require.NoError(t, err)
		require.Equal(t, []uint32{0, 2}, ids)

		tickets, err := env.ledger.UserTickets(id, "alice")
		require.NoError(t, err)
		assert.Equal(t, []Ticket{{ID: 0}, {ID: 1}, {ID: 2}}, tickets)

		env.clock.Advance(2 * time.Hour)
		require.NoError(t, env.ledger.FinalizeRaffle(ctx, id))

		// Three owned tickets, three refunds. The custody balance holds exactly
		// their face value, so any double count would overdraw it.
		amount, err := env.ledger.ClaimRefund(ctx, id, "alice")
		require.NoError(t, err)
		assert.Equal(t, uint64(30), amount)
		assert.Equal(t, uint64(40), env.tokens.Balance(testAsset, "alice"))
		assert.Zero(t, env.tokens.Balance(testAsset, custody))
	})

	t.Run("prize claim on a finalized raffle", func(t *testing.T) {
		id := env.createRaffle(t, CreateParams{
			TotalTickets: 3, TicketToken: testAsset, TicketPrice: 100,
			Distribution: singlePool(3), Duration: time.Hour,
		})
		env.fund("bob", 300)

		_, err := env.ledger.BuyTickets(ctx, id, "bob", 3)
		require.NoError(t, err)
		require.NoError(t, env.ledger.RefundTicket(ctx, id, "bob", 1))
		ids, err := env.ledger.BuyTickets(ctx, id, "bob", 1)
		require.NoError(t, err)
		require.Equal(t, []uint32{1}, ids)

		env.clock.Advance(2 * time.Hour)
		require.NoError(t, env.ledger.FinalizeRaffle(ctx, id))
		env.deliverSeed(t, randoracle.SeedFromString("recycled"))

		// Pool 300, fee 7, per-ticket share (293*100/100)/3 = 97. Bob owns all
		// three winning tickets exactly once: 291, within the 293 in custody.
		amount, err := env.ledger.ClaimPrize(ctx, id, "bob")
		require.NoError(t, err)
		assert.Equal(t, uint64(291), amount)
	})
}

func TestFinalizeRaffle_Null(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.createRaffle(t, CreateParams{
		TotalTickets: 10, TicketToken: testAsset, TicketPrice: 5,
		Distribution: singlePool(10), Duration: time.Hour, MinTicketsRequired: 5,
	})
	env.fund("alice", 50)
	_, err := env.ledger.BuyTickets(ctx, id, "alice", 3)
	require.NoError(t, err)

	t.Run("rejected before end time", func(t *testing.T) {
		assert.ErrorIs(t, env.ledger.FinalizeRaffle(ctx, id), ErrRaffleNotEnded)
	})

	env.clock.Advance(time.Hour)

	t.Run("undersubscribed raffle goes null without fee or seed", func(t *testing.T) {
		require.NoError(t, env.ledger.FinalizeRaffle(ctx, id))
		r, err := env.ledger.GetRaffle(id)
		require.NoError(t, err)
		assert.Equal(t, StatusNull, r.Status)
		assert.Zero(t, r.FeeCollected)
		assert.Empty(t, env.oracle.PendingRequests())
		assert.Zero(t, env.tokens.Balance(testAsset, feeCollector))
	})

	t.Run("second finalize rejected", func(t *testing.T) {
		assert.ErrorIs(t, env.ledger.FinalizeRaffle(ctx, id), ErrRaffleAlreadyFinalized)
	})

	t.Run("claim refund recovers every unrefunded ticket once", func(t *testing.T) {
		amount, err := env.ledger.ClaimRefund(ctx, id, "alice")
		require.NoError(t, err)
		assert.Equal(t, uint64(15), amount)
		assert.Equal(t, uint64(50), env.tokens.Balance(testAsset, "alice"))

		_, err = env.ledger.ClaimRefund(ctx, id, "alice")
		assert.ErrorIs(t, err, ErrAlreadyClaimed)
	})

	t.Run("claim refund with no tickets is a no-op", func(t *testing.T) {
		amount, err := env.ledger.ClaimRefund(ctx, id, "stranger")
		require.NoError(t, err)
		assert.Zero(t, amount)
		claimed, err := env.ledger.HasClaimed(id, "stranger")
		require.NoError(t, err)
		assert.False(t, claimed)
	})

	t.Run("prize claim rejected on null raffle", func(t *testing.T) {
		_, err := env.ledger.ClaimPrize(ctx, id, "alice")
		assert.ErrorIs(t, err, ErrRaffleIsNull)
	})
}

func TestFinalizeRaffle_FeeOverflowRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.createRaffle(t, CreateParams{
		TotalTickets: 4, TicketToken: testAsset, TicketPrice: 1 << 61,
		Distribution: singlePool(4), Duration: time.Hour,
	})
	env.fund("alice", 3<<61)
	_, err := env.ledger.BuyTickets(ctx, id, "alice", 3)
	require.NoError(t, err)

	// totalPool = 3<<61 fits in uint64, but totalPool*feeBps does not. The
	// fee must be rejected, not silently computed on the wrapped product.
	env.clock.Advance(time.Hour)
	assert.ErrorIs(t, env.ledger.FinalizeRaffle(ctx, id), ErrArithmeticOverflow)

	r, err := env.ledger.GetRaffle(id)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, r.Status)
	assert.Zero(t, r.FeeCollected)
	assert.Empty(t, env.oracle.PendingRequests())
	assert.Zero(t, env.tokens.Balance(testAsset, feeCollector))
}

func TestFinalizeRaffle_PendingSeedWindow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.createRaffle(t, CreateParams{
		TotalTickets: 10, TicketToken: testAsset, TicketPrice: 5,
		Distribution: singlePool(10), Duration: time.Hour,
	})
	env.fund("alice", 50)
	_, err := env.ledger.BuyTickets(ctx, id, "alice", 10)
	require.NoError(t, err)

	env.clock.Advance(time.Hour)
	require.NoError(t, env.ledger.FinalizeRaffle(ctx, id))

	r, err := env.ledger.GetRaffle(id)
	require.NoError(t, err)
	assert.Equal(t, StatusPendingSeed, r.Status)
	assert.NotEmpty(t, r.SequenceNumber)

	// The wait state rejects every user-facing mutation.
	_, err = env.ledger.BuyTickets(ctx, id, "alice", 1)
	assert.ErrorIs(t, err, ErrRaffleNotActive)
	assert.ErrorIs(t, env.ledger.RefundTicket(ctx, id, "alice", 0), ErrRaffleNotActive)
	_, err = env.ledger.ClaimPrize(ctx, id, "alice")
	assert.ErrorIs(t, err, ErrRaffleNotFinalized)
	assert.ErrorIs(t, env.ledger.FinalizeRaffle(ctx, id), ErrRaffleAlreadyFinalized)

	// Fee withheld at finalization: 50 * 250 / 10000 = 1.
	assert.Equal(t, uint64(1), env.tokens.Balance(testAsset, feeCollector))

	env.deliverSeed(t, randoracle.SeedFromString("seed"))
	r, err = env.ledger.GetRaffle(id)
	require.NoError(t, err)
	assert.Equal(t, StatusFinalized, r.Status)

	// A second delivery for the same request is unknown by then.
	_, err = env.ledger.OnRandomnessDelivered(ctx, r.SequenceNumber, "mock-oracle", randoracle.SeedFromString("other"))
	assert.ErrorIs(t, err, ErrUnknownRequest)
}

// The concrete scenario from the payout design: 100 tickets across a 60%/80
// and a 40%/20 pool, 60 sold at price 10, fee 250 bps. Pool 0 clamps to 60
// winners, pool 1 draws none, and each winning ticket pays
// ((600-15)*60/100)/80.
func TestFullLifecycle_ClampedPoolPayout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.createRaffle(t, CreateParams{
		TotalTickets: 100,
		TicketToken:  testAsset,
		TicketPrice:  10,
		Distribution: []PrizePool{
			{FundPercentage: 60, TicketQuantity: 80},
			{FundPercentage: 40, TicketQuantity: 20},
		},
		Duration:           time.Hour,
		MinTicketsRequired: 50,
	})

	buyers := []string{"alice", "bob", "carol"}
	for _, b := range buyers {
		env.fund(b, 200)
		_, err := env.ledger.BuyTickets(ctx, id, b, 20)
		require.NoError(t, err)
	}

	env.clock.Advance(time.Hour)
	require.NoError(t, env.ledger.FinalizeRaffle(ctx, id))

	// totalPool = 600, fee = 600*250/10000 = 15.
	assert.Equal(t, uint64(15), env.tokens.Balance(testAsset, feeCollector))

	env.deliverSeed(t, randoracle.SeedFromString("lifecycle"))

	pool0, err := env.ledger.WinningTickets(id, 0)
	require.NoError(t, err)
	pool1, err := env.ledger.WinningTickets(id, 1)
	require.NoError(t, err)
	assert.Len(t, pool0, 60, "pool 0 clamps to the 60 sold tickets")
	assert.Empty(t, pool1, "nothing remains for pool 1")

	// Every sold ticket won pool 0.
	seen := make(map[uint32]bool)
	for _, ticket := range pool0 {
		assert.False(t, seen[ticket], "ticket drawn twice")
		seen[ticket] = true
	}
	assert.Len(t, seen, 60)

	// Per-ticket share: ((600-15)*60/100)/80 = 4; 20 tickets -> 80 each.
	var paid uint64
	for _, b := range buyers {
		amount, err := env.ledger.ClaimPrize(ctx, id, b)
		require.NoError(t, err)
		assert.Equal(t, uint64(80), amount)
		paid += amount

		_, err = env.ledger.ClaimPrize(ctx, id, b)
		assert.ErrorIs(t, err, ErrAlreadyClaimed)
	}

	// Total payout never exceeds the post-fee pool.
	assert.LessOrEqual(t, paid, uint64(585))
	// The clamped pool leaves its residual value unclaimed.
	assert.Equal(t, uint64(240), paid)
}

func TestClaimPrize_ZeroPrizeDoesNotConsumeFlag(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.createRaffle(t, CreateParams{
		TotalTickets: 10, TicketToken: testAsset, TicketPrice: 5,
		Distribution: []PrizePool{
			{FundPercentage: 100, TicketQuantity: 1},
			{FundPercentage: 0, TicketQuantity: 9},
		},
		Duration: time.Hour,
	})
	env.fund("alice", 50)
	env.fund("bob", 50)
	_, err := env.ledger.BuyTickets(ctx, id, "alice", 5)
	require.NoError(t, err)
	_, err = env.ledger.BuyTickets(ctx, id, "bob", 5)
	require.NoError(t, err)

	env.clock.Advance(time.Hour)
	require.NoError(t, env.ledger.FinalizeRaffle(ctx, id))
	env.deliverSeed(t, randoracle.SeedFromString("one-winner"))

	pool0, err := env.ledger.WinningTickets(id, 0)
	require.NoError(t, err)
	require.Len(t, pool0, 1)

	winner := "alice"
	loser := "bob"
	if pool0[0] >= 5 {
		winner, loser = "bob", "alice"
	}

	amount, err := env.ledger.ClaimPrize(ctx, id, winner)
	require.NoError(t, err)
	assert.Positive(t, amount)

	// A losing participant can call repeatedly at no cost; the one-shot flag
	// is only consumed by a positive payout.
	for i := 0; i < 3; i++ {
		amount, err := env.ledger.ClaimPrize(ctx, id, loser)
		require.NoError(t, err)
		assert.Zero(t, amount)
	}
	claimed, err := env.ledger.HasClaimed(id, loser)
	require.NoError(t, err)
	assert.False(t, claimed)
}

func TestRefundedTicketsExcludedFromDraw(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.createRaffle(t, CreateParams{
		TotalTickets: 10, TicketToken: testAsset, TicketPrice: 5,
		Distribution: singlePool(10), Duration: time.Hour,
	})
	env.fund("alice", 50)
	ids, err := env.ledger.BuyTickets(ctx, id, "alice", 6)
	require.NoError(t, err)
	require.NoError(t, env.ledger.RefundTicket(ctx, id, "alice", ids[2]))

	env.clock.Advance(time.Hour)
	require.NoError(t, env.ledger.FinalizeRaffle(ctx, id))
	env.deliverSeed(t, randoracle.SeedFromString("exclusion"))

	pool0, err := env.ledger.WinningTickets(id, 0)
	require.NoError(t, err)
	assert.Len(t, pool0, 5)
	assert.NotContains(t, pool0, ids[2])
}

func TestAdminSurface(t *testing.T) {
	env := newTestEnv(t)

	t.Run("owner updates fee settings", func(t *testing.T) {
		require.NoError(t, env.ledger.SetFeeCollector(owner, "vault"))
		require.NoError(t, env.ledger.SetFeeBps(owner, 500))
		bps, collector := env.ledger.FeeConfig()
		assert.Equal(t, uint64(500), bps)
		assert.Equal(t, "vault", collector)
	})

	t.Run("non-owner rejected", func(t *testing.T) {
		assert.ErrorIs(t, env.ledger.SetFeeCollector("mallory", "vault"), ErrNotOwner)
		assert.ErrorIs(t, env.ledger.SetFeeBps("mallory", 100), ErrNotOwner)
	})

	t.Run("caps enforced", func(t *testing.T) {
		assert.ErrorIs(t, env.ledger.SetFeeBps(owner, 1001), ErrInvalidFee)
		assert.ErrorIs(t, env.ledger.SetFeeCollector(owner, ""), ErrZeroAddress)
	})
}

func TestOperationGuard_RejectsReentrantCall(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.createRaffle(t, CreateParams{
		TotalTickets: 10, TicketToken: testAsset, TicketPrice: 5,
		Distribution: singlePool(10), Duration: time.Hour,
	})

	r, err := env.ledger.raffle(id)
	require.NoError(t, err)
	require.NoError(t, r.guard.begin())
	defer r.guard.end()

	env.fund("alice", 50)
	_, err = env.ledger.BuyTickets(ctx, id, "alice", 1)
	assert.ErrorIs(t, err, ErrOperationInProgress)
}

func TestNotifications_EmittedInOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.createRaffle(t, CreateParams{
		TotalTickets: 4, TicketToken: testAsset, TicketPrice: 100,
		Distribution: singlePool(4), Duration: time.Hour,
	})
	env.fund("alice", 400)
	_, err := env.ledger.BuyTickets(ctx, id, "alice", 4)
	require.NoError(t, err)
	env.clock.Advance(time.Hour)
	require.NoError(t, env.ledger.FinalizeRaffle(ctx, id))
	env.deliverSeed(t, randoracle.SeedFromString("events"))
	_, err = env.ledger.ClaimPrize(ctx, id, "alice")
	require.NoError(t, err)

	var types []NotificationType
	for _, n := range env.events {
		types = append(types, n.Type)
	}
	assert.Equal(t, []NotificationType{
		NotifRaffleCreated,
		NotifTicketsPurchased,
		NotifFeeCollected,
		NotifSeedRequested,
		NotifRaffleFinalized,
		NotifPrizeClaimed,
	}, types)
}
