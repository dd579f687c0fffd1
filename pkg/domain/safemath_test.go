package domain

import (
	"errors"
	"math"
	"testing"
)

func TestCheckedAdd(t *testing.T) {
	if got, err := CheckedAdd(2, 3); err != nil || got != 5 {
		t.Fatalf("expected 5, got %d err %v", got, err)
	}
	if _, err := CheckedAdd(math.MaxUint64, 1); !errors.Is(err, ErrAmountOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
	if got, err := CheckedAdd(math.MaxUint64, 0); err != nil || got != math.MaxUint64 {
		t.Fatalf("expected max, got %d err %v", got, err)
	}
}

func TestCheckedSub(t *testing.T) {
	if got, err := CheckedSub(5, 3); err != nil || got != 2 {
		t.Fatalf("expected 2, got %d err %v", got, err)
	}
	if _, err := CheckedSub(3, 5); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected underflow, got %v", err)
	}
}

func TestCheckedMul(t *testing.T) {
	if got, err := CheckedMul(6, 7); err != nil || got != 42 {
		t.Fatalf("expected 42, got %d err %v", got, err)
	}
	if _, err := CheckedMul(math.MaxUint64, 2); !errors.Is(err, ErrAmountOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
	if got, err := CheckedMul(math.MaxUint64, 1); err != nil || got != math.MaxUint64 {
		t.Fatalf("expected max, got %d err %v", got, err)
	}
	if got, err := CheckedMul(math.MaxUint64, 0); err != nil || got != 0 {
		t.Fatalf("expected 0, got %d err %v", got, err)
	}
}
