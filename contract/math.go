package contract

import (
	"math"

	"github.com/holiman/uint256"
)

// BpsDenominator is 100% in basis points.
const BpsDenominator = 10_000

// MulDiv computes a*b/d with a 256-bit intermediate and floors the result.
// Amounts are non-negative; results above int64 are an Overflow.
func MulDiv(a, b, d int64) (int64, error) {
	if a < 0 || b < 0 {
		return 0, Invalid("negative amount")
	}
	if d <= 0 {
		return 0, Invalid("zero divisor")
	}
	z, overflow := new(uint256.Int).MulDivOverflow(uint256.NewInt(uint64(a)), uint256.NewInt(uint64(b)), uint256.NewInt(uint64(d)))
	if overflow || !z.IsUint64() || z.Uint64() > math.MaxInt64 {
		return 0, Fail(KindOverflow, "amount overflow")
	}
	return int64(z.Uint64()), nil
}

// MulDivCeil is MulDiv rounding up.
func MulDivCeil(a, b, d int64) (int64, error) {
	q, err := MulDiv(a, b, d)
	if err != nil {
		return 0, err
	}
	// the remainder check cannot overflow: a*b mod d < d
	rem := new(uint256.Int).MulMod(uint256.NewInt(uint64(a)), uint256.NewInt(uint64(b)), uint256.NewInt(uint64(d)))
	if !rem.IsZero() {
		return AddAmount(q, 1)
	}
	return q, nil
}

// Bps takes the basis point share of amount, floored.
// Example payload: contract.Bps(1000, 250) == 25
func Bps(amount int64, bps uint32) (int64, error) {
	return MulDiv(amount, int64(bps), BpsDenominator)
}

// CheckBps rejects anything above 100%.
func CheckBps(bps uint32, field string) error {
	if bps > BpsDenominator {
		return Invalid(field + " above 10000 bps")
	}
	return nil
}

// AddAmount adds with an overflow check.
func AddAmount(a, b int64) (int64, error) {
	if b > 0 && a > math.MaxInt64-b {
		return 0, Fail(KindOverflow, "amount overflow")
	}
	if b < 0 && a < math.MinInt64-b {
		return 0, Fail(KindOverflow, "amount overflow")
	}
	return a + b, nil
}

// SubAmount subtracts and refuses to go below zero.
func SubAmount(a, b int64, what string) (int64, error) {
	if b < 0 {
		return 0, Invalid("negative amount")
	}
	if b > a {
		return 0, Illegal("insufficient " + what)
	}
	return a - b, nil
}

// RequirePositive is the common amount admission check.
func RequirePositive(amount int64, field string) error {
	if amount <= 0 {
		return Invalid(field + " must be positive")
	}
	return nil
}
