package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type WithdrawalStatus string

const (
	WithdrawalStatusRequested     WithdrawalStatus = "requested"
	WithdrawalStatusOTPVerified   WithdrawalStatus = "otp_verified"
	WithdrawalStatusPendingReview WithdrawalStatus = "pending_review"
	WithdrawalStatusApproved      WithdrawalStatus = "approved"
	WithdrawalStatusPaid          WithdrawalStatus = "paid"
	WithdrawalStatusRejected      WithdrawalStatus = "rejected"
	WithdrawalStatusExpired       WithdrawalStatus = "expired"
)

// BankDestination is where an approved withdrawal is paid out.
type BankDestination struct {
	BankName      string `json:"bank_name"`
	AccountName   string `json:"account_name"`
	AccountNumber string `json:"account_number"`
}

type Withdrawal struct {
	WithdrawalID  uuid.UUID        `json:"withdrawal_id"`
	UserID        uuid.UUID        `json:"user_id"`
	Amount        int64            `json:"amount"`
	Currency      string           `json:"currency"`
	Destination   BankDestination  `json:"destination"`
	Status        WithdrawalStatus `json:"status"`
	RejectReason  string           `json:"reject_reason,omitempty"`
	RequestedAt   time.Time        `json:"requested_at"`
	OTPVerifiedAt *time.Time       `json:"otp_verified_at,omitempty"`
	ApprovedAt    *time.Time       `json:"approved_at,omitempty"`
	RejectedAt    *time.Time       `json:"rejected_at,omitempty"`
	PaidAt        *time.Time       `json:"paid_at,omitempty"`
	ExpiredAt     *time.Time       `json:"expired_at,omitempty"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// withdrawalTransitions pins the workflow to specific from->to pairs.
// rejected, paid and expired are terminal; rejection never touches the
// commission ledger.
var withdrawalTransitions = map[WithdrawalStatus][]WithdrawalStatus{
	WithdrawalStatusRequested:     {WithdrawalStatusOTPVerified, WithdrawalStatusExpired},
	WithdrawalStatusOTPVerified:   {WithdrawalStatusPendingReview},
	WithdrawalStatusPendingReview: {WithdrawalStatusApproved, WithdrawalStatusRejected},
	WithdrawalStatusApproved:      {WithdrawalStatusPaid},
}

func CanTransitionWithdrawal(from, to WithdrawalStatus) bool {
	for _, next := range withdrawalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// OpenWithdrawalStatuses are the states in which a request still reserves
// part of the user's balance.
func OpenWithdrawalStatuses() []WithdrawalStatus {
	return []WithdrawalStatus{
		WithdrawalStatusRequested,
		WithdrawalStatusOTPVerified,
		WithdrawalStatusPendingReview,
		WithdrawalStatusApproved,
	}
}

func ValidateWithdrawalRequestInput(userID uuid.UUID, amount int64, destination BankDestination) error {
	if userID == uuid.Nil {
		return ErrInvalidInput
	}
	if amount <= 0 {
		return ErrInvalidInput
	}
	if strings.TrimSpace(destination.BankName) == "" ||
		strings.TrimSpace(destination.AccountName) == "" ||
		strings.TrimSpace(destination.AccountNumber) == "" {
		return ErrInvalidInput
	}
	return nil
}
