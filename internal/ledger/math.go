package ledger

import "math/bits"

// Checked arithmetic over monetary amounts and ticket counts. Overflow should
// be unreachable given the bounds enforced at creation, but every path that
// multiplies or accumulates value verifies it anyway.

func mulU64(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, ErrArithmeticOverflow
	}
	return lo, nil
}

func addU64(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrArithmeticOverflow
	}
	return sum, nil
}

func addU32(a, b uint32) (uint32, error) {
	sum := a + b
	if sum < a {
		return 0, ErrArithmeticOverflow
	}
	return sum, nil
}
