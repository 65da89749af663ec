// Package randoracle wraps the external randomness oracle. The core submits a
// seed request with a decorrelation salt and the oracle later invokes the
// service's callback endpoint exactly once per request with the actual seed.
package randoracle

import "context"

// SeedSize is the size of an oracle seed in bytes.
const SeedSize = 32

// Seed is the opaque 256-bit random value delivered once per request.
type Seed [SeedSize]byte

// Oracle is the randomness capability consumed by the raffle core.
type Oracle interface {
	// RequestSeed submits a seed request and returns the correlation id the
	// oracle will echo back on delivery. The salt only decorrelates
	// simultaneous requests; it is not a randomness source.
	RequestSeed(ctx context.Context, salt [32]byte) (string, error)
	// RequestFee reports the current per-request fee in the oracle's unit.
	RequestFee(ctx context.Context) (uint64, error)
}
