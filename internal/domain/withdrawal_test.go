package domain

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestCanTransitionWithdrawal(t *testing.T) {
	cases := []struct {
		from    WithdrawalStatus
		to      WithdrawalStatus
		allowed bool
	}{
		{WithdrawalStatusRequested, WithdrawalStatusOTPVerified, true},
		{WithdrawalStatusRequested, WithdrawalStatusExpired, true},
		{WithdrawalStatusOTPVerified, WithdrawalStatusPendingReview, true},
		{WithdrawalStatusPendingReview, WithdrawalStatusApproved, true},
		{WithdrawalStatusPendingReview, WithdrawalStatusRejected, true},
		{WithdrawalStatusApproved, WithdrawalStatusPaid, true},

		{WithdrawalStatusRequested, WithdrawalStatusApproved, false},
		{WithdrawalStatusRequested, WithdrawalStatusPaid, false},
		{WithdrawalStatusOTPVerified, WithdrawalStatusExpired, false},
		{WithdrawalStatusPendingReview, WithdrawalStatusPaid, false},
		{WithdrawalStatusApproved, WithdrawalStatusRejected, false},
		{WithdrawalStatusPaid, WithdrawalStatusApproved, false},
		{WithdrawalStatusRejected, WithdrawalStatusPendingReview, false},
		{WithdrawalStatusExpired, WithdrawalStatusOTPVerified, false},
	}
	for _, tc := range cases {
		if got := CanTransitionWithdrawal(tc.from, tc.to); got != tc.allowed {
			t.Errorf("%s -> %s: got %v, expected %v", tc.from, tc.to, got, tc.allowed)
		}
	}
}

func TestOpenWithdrawalStatuses(t *testing.T) {
	open := map[WithdrawalStatus]bool{}
	for _, status := range OpenWithdrawalStatuses() {
		open[status] = true
	}
	for _, status := range []WithdrawalStatus{
		WithdrawalStatusRequested,
		WithdrawalStatusOTPVerified,
		WithdrawalStatusPendingReview,
		WithdrawalStatusApproved,
	} {
		if !open[status] {
			t.Errorf("%s still reserves balance and must be open", status)
		}
	}
	for _, status := range []WithdrawalStatus{
		WithdrawalStatusPaid,
		WithdrawalStatusRejected,
		WithdrawalStatusExpired,
	} {
		if open[status] {
			t.Errorf("%s is terminal and must not block a new request", status)
		}
	}
}

func TestValidateWithdrawalRequestInput(t *testing.T) {
	user := uuid.New()
	dest := BankDestination{BankName: "Kasikorn", AccountName: "Somchai J.", AccountNumber: "1234567890"}

	if err := ValidateWithdrawalRequestInput(user, 500, dest); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if err := ValidateWithdrawalRequestInput(uuid.Nil, 500, dest); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("nil user: expected ErrInvalidInput, got %v", err)
	}
	if err := ValidateWithdrawalRequestInput(user, 0, dest); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("zero amount: expected ErrInvalidInput, got %v", err)
	}
	blank := dest
	blank.AccountNumber = "   "
	if err := ValidateWithdrawalRequestInput(user, 500, blank); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("blank account number: expected ErrInvalidInput, got %v", err)
	}
}
