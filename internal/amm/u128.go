package amm

import (
	"math/bits"

	"lukechampine.com/uint128"
)

// mulChecked multiplies two u128 values and reports overflow instead of
// wrapping, matching checked_mul on-chain.
func mulChecked(a, b uint128.Uint128) (uint128.Uint128, bool) {
	if a.Hi != 0 && b.Hi != 0 {
		return uint128.Zero, false
	}
	if a.Hi != 0 {
		a, b = b, a
	}
	// a.Hi == 0 from here on
	hi, lo := bits.Mul64(a.Lo, b.Lo)
	crossHi, cross := bits.Mul64(a.Lo, b.Hi)
	if crossHi != 0 {
		return uint128.Zero, false
	}
	hi, carry := bits.Add64(hi, cross, 0)
	if carry != 0 {
		return uint128.Zero, false
	}
	return uint128.New(lo, hi), true
}

func addChecked(a, b uint128.Uint128) (uint128.Uint128, bool) {
	lo, carry := bits.Add64(a.Lo, b.Lo, 0)
	hi, carry := bits.Add64(a.Hi, b.Hi, carry)
	if carry != 0 {
		return uint128.Zero, false
	}
	return uint128.New(lo, hi), true
}

// subSaturating clamps at zero.
func subSaturating(a, b uint128.Uint128) uint128.Uint128 {
	if a.Cmp(b) <= 0 {
		return uint128.Zero
	}
	return a.Sub(b)
}

// narrow converts to u64, failing if the high word is set.
func narrow(v uint128.Uint128) (uint64, bool) {
	if v.Hi != 0 {
		return 0, false
	}
	return v.Lo, true
}

func mul64(a, b uint64) uint128.Uint128 {
	hi, lo := bits.Mul64(a, b)
	return uint128.New(lo, hi)
}
