package ledger

import (
	"crypto/sha256"
	"encoding/binary"
	"math/big"
)

// SelectWinners partitions the sold tickets across the prize pools using a
// partial Fisher-Yates shuffle driven by the oracle seed. It is deterministic:
// the same ticket set, distribution and seed always produce the same
// partition. Pools are consumed in distribution order; a pool whose configured
// winner count exceeds the remaining supply draws only what is left, and
// tickets beyond the last drawn position are simply non-winning.
//
// tickets must be the owned, non-refunded ticket ids in ascending order.
func SelectWinners(tickets []uint32, distribution []PrizePool, seed Seed) map[int][]uint32 {
	working := make([]uint32, len(tickets))
	copy(working, tickets)

	winners := make(map[int][]uint32)
	processed := 0
	drawIndex := uint64(0)

	for poolIndex, pool := range distribution {
		if pool.TicketQuantity == 0 || pool.FundPercentage == 0 {
			continue
		}

		remaining := len(working) - processed
		count := int(pool.TicketQuantity)
		if count > remaining {
			count = remaining
		}
		if count == 0 {
			continue
		}

		poolWinners := make([]uint32, 0, count)
		for i := 0; i < count; i++ {
			seed = rotateSeed(seed, drawIndex)
			drawIndex++

			span := len(working) - processed
			winnerIndex := processed + seedMod(seed, span)
			working[processed], working[winnerIndex] = working[winnerIndex], working[processed]
			poolWinners = append(poolWinners, working[processed])
			processed++
		}
		winners[poolIndex] = poolWinners
	}

	return winners
}

// rotateSeed derives the next per-draw seed from the previous one. The seed is
// only as unpredictable as the oracle's value; the rotation just spreads it
// evenly across draws.
func rotateSeed(seed Seed, drawIndex uint64) Seed {
	var buf [len(seed) + 8]byte
	copy(buf[:], seed[:])
	binary.BigEndian.PutUint64(buf[len(seed):], drawIndex)
	return Seed(sha256.Sum256(buf[:]))
}

// seedMod reduces the full 256-bit seed modulo span. Reducing the whole value
// rather than a truncated word keeps the residue bias negligible.
func seedMod(seed Seed, span int) int {
	n := new(big.Int).SetBytes(seed[:])
	return int(n.Mod(n, big.NewInt(int64(span))).Int64())
}
