package domain

import "errors"

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrNotFound            = errors.New("not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrConflict            = errors.New("conflict")
	ErrIdempotencyRequired = errors.New("idempotency key required")
	ErrIdempotencyConflict = errors.New("idempotency key reused with different payload")

	ErrIllegalTransition   = errors.New("illegal status transition")
	ErrOrderNotPending     = errors.New("order is not pending")
	ErrBelowMinimum        = errors.New("amount below withdrawal minimum")
	ErrInsufficientFunds   = errors.New("insufficient pending balance")
	ErrIneligible          = errors.New("user lacks required active entitlements")
	ErrWithdrawalOpen      = errors.New("another withdrawal is already in flight")
	ErrRateLimited         = errors.New("too many code requests")
	ErrReferralCodeUnknown = errors.New("referral code not found")
)
