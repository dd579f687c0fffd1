package domain

import "math/bits"

// CheckedAdd returns a+b or ErrAmountOverflow. Counters and balances never
// wrap; an increment that would overflow aborts the whole operation.
func CheckedAdd(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrAmountOverflow
	}
	return sum, nil
}

// CheckedSub returns a-b or ErrInsufficientFunds if b > a.
func CheckedSub(a, b uint64) (uint64, error) {
	diff, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		return 0, ErrInsufficientFunds
	}
	return diff, nil
}

// CheckedMul returns a*b or ErrAmountOverflow.
func CheckedMul(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, ErrAmountOverflow
	}
	return lo, nil
}
