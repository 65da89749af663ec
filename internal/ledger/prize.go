package ledger

// poolShare is the payout for one winning ticket of the pool at poolIndex.
// The divisor is the pool's configured ticket quantity, not the possibly
// clamped number actually drawn: a pool that under-drew because tickets ran
// out leaves residual value unclaimed. That leakage is part of the payout
// model and must not be "fixed" here, since doing so changes every amount.
func poolShare(postFeePool uint64, pool PrizePool) uint64 {
	if pool.TicketQuantity == 0 {
		return 0
	}
	return postFeePool * uint64(pool.FundPercentage) / 100 / uint64(pool.TicketQuantity)
}

// prizeFor sums the payout across a claimant's owned, non-refunded tickets.
// Each ticket is matched against the pools in distribution order; the
// selector never places a ticket in two pools, so the first match is the only
// one.
func (r *raffleState) prizeFor(account string) (uint64, error) {
	postFeePool, err := mulU64(uint64(r.totalSold), r.ticketPrice)
	if err != nil {
		return 0, err
	}
	postFeePool -= r.feeCollected

	total := uint64(0)
	for _, ticketID := range r.userTickets[account] {
		if r.isRefunded[ticketID] || r.ticketOwner[ticketID] != account {
			continue
		}
		poolIndex, won := r.winningPool(ticketID)
		if !won {
			continue
		}
		share := poolShare(postFeePool, r.distribution[poolIndex])
		total, err = addU64(total, share)
		if err != nil {
			return 0, err
		}
	}
	return total, nil
}

// winningPool finds the pool whose winner set contains ticketID, scanning in
// distribution order.
func (r *raffleState) winningPool(ticketID uint32) (int, bool) {
	for poolIndex := range r.distribution {
		for _, winner := range r.winningTickets[poolIndex] {
			if winner == ticketID {
				return poolIndex, true
			}
		}
	}
	return 0, false
}
