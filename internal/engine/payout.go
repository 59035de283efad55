package engine

import "math/bits"

// feeDenominator is the basis-point scale: 10000 bps = 100%.
const feeDenominator = 10000

// MaxFeeBasisPoints caps the platform fee at 10%.
const MaxFeeBasisPoints = 1000

// proportionalShare computes floor(amount * totalPool / totalWinningStake)
// with a 128-bit intermediate so the multiply never truncates. The quotient
// fits in 64 bits because amount <= totalWinningStake, so the share is at
// most totalPool. A zero stake wins a zero share; totalWinningStake can be
// zero when the only winning-side bet is a zero-amount bet.
func proportionalShare(amount, totalPool, totalWinningStake uint64) uint64 {
	if amount == 0 {
		return 0
	}
	hi, lo := bits.Mul64(amount, totalPool)
	share, _ := bits.Div64(hi, lo, totalWinningStake)
	return share
}

// feeCut computes floor(share * bps / 10000). bps is capped at
// MaxFeeBasisPoints, so the quotient fits in 64 bits.
func feeCut(share, bps uint64) uint64 {
	hi, lo := bits.Mul64(share, bps)
	fee, _ := bits.Div64(hi, lo, feeDenominator)
	return fee
}
