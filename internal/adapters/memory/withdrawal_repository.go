package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/tradepulse/settlement-service/internal/domain"
	"github.com/tradepulse/settlement-service/internal/ports"
)

type WithdrawalRepository struct {
	store *Store
}

func (r *WithdrawalRepository) CreateWithBalanceCheck(_ context.Context, params ports.WithdrawalCreateParams) (domain.Withdrawal, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	w := params.Withdrawal
	if _, ok := r.store.users[w.UserID]; !ok {
		return domain.Withdrawal{}, domain.ErrNotFound
	}
	if r.store.hasOpenWithdrawalLocked(w.UserID) {
		return domain.Withdrawal{}, domain.ErrWithdrawalOpen
	}
	if r.store.pendingSumLocked(w.UserID) < w.Amount {
		return domain.Withdrawal{}, domain.ErrInsufficientFunds
	}

	r.store.withdrawals[w.WithdrawalID] = w
	r.store.withdrawalOrder = append(r.store.withdrawalOrder, w.WithdrawalID)
	r.store.enqueueOutboxLocked(params.OutboxEvent)
	return w, nil
}

func (r *WithdrawalRepository) GetByID(_ context.Context, withdrawalID uuid.UUID) (domain.Withdrawal, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	w, ok := r.store.withdrawals[withdrawalID]
	if !ok {
		return domain.Withdrawal{}, domain.ErrNotFound
	}
	return w, nil
}

func (r *WithdrawalRepository) HasOpen(_ context.Context, userID uuid.UUID) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.hasOpenWithdrawalLocked(userID), nil
}

func (r *WithdrawalRepository) Transition(_ context.Context, withdrawalID uuid.UUID, to domain.WithdrawalStatus, at time.Time, reason string, outboxEvent *ports.OutboxEvent) (domain.Withdrawal, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	w, ok := r.store.withdrawals[withdrawalID]
	if !ok {
		return domain.Withdrawal{}, domain.ErrNotFound
	}
	if !domain.CanTransitionWithdrawal(w.Status, to) {
		return domain.Withdrawal{}, domain.ErrIllegalTransition
	}
	w.Status = to
	w.UpdatedAt = at
	stamp := at
	switch to {
	case domain.WithdrawalStatusOTPVerified:
		w.OTPVerifiedAt = &stamp
	case domain.WithdrawalStatusApproved:
		w.ApprovedAt = &stamp
	case domain.WithdrawalStatusRejected:
		w.RejectedAt = &stamp
		w.RejectReason = reason
	case domain.WithdrawalStatusPaid:
		w.PaidAt = &stamp
	case domain.WithdrawalStatusExpired:
		w.ExpiredAt = &stamp
	}
	r.store.withdrawals[withdrawalID] = w
	if outboxEvent != nil {
		r.store.enqueueOutboxLocked(*outboxEvent)
	}
	return w, nil
}

// Confirm lands requested->pending_review in one write; the otp_verified
// state is stamped but never observable on its own.
func (r *WithdrawalRepository) Confirm(_ context.Context, withdrawalID uuid.UUID, at time.Time) (domain.Withdrawal, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	w, ok := r.store.withdrawals[withdrawalID]
	if !ok {
		return domain.Withdrawal{}, domain.ErrNotFound
	}
	if !domain.CanTransitionWithdrawal(w.Status, domain.WithdrawalStatusOTPVerified) ||
		!domain.CanTransitionWithdrawal(domain.WithdrawalStatusOTPVerified, domain.WithdrawalStatusPendingReview) {
		return domain.Withdrawal{}, domain.ErrIllegalTransition
	}
	stamp := at
	w.Status = domain.WithdrawalStatusPendingReview
	w.OTPVerifiedAt = &stamp
	w.UpdatedAt = at
	r.store.withdrawals[withdrawalID] = w
	return w, nil
}

func (r *WithdrawalRepository) MarkPaid(_ context.Context, withdrawalID uuid.UUID, at time.Time, outboxEvent ports.OutboxEvent) (domain.Withdrawal, int, int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	w, ok := r.store.withdrawals[withdrawalID]
	if !ok {
		return domain.Withdrawal{}, 0, 0, domain.ErrNotFound
	}
	if !domain.CanTransitionWithdrawal(w.Status, domain.WithdrawalStatusPaid) {
		return domain.Withdrawal{}, 0, 0, domain.ErrIllegalTransition
	}

	flipped := 0
	var total int64
	for id, c := range r.store.commissions {
		if c.UserID != w.UserID || c.Status != domain.CommissionStatusPending {
			continue
		}
		stamp := at
		c.Status = domain.CommissionStatusPaid
		c.PaidAt = &stamp
		r.store.commissions[id] = c
		flipped++
		total += c.Amount
	}

	stamp := at
	w.Status = domain.WithdrawalStatusPaid
	w.PaidAt = &stamp
	w.UpdatedAt = at
	r.store.withdrawals[withdrawalID] = w
	r.store.enqueueOutboxLocked(outboxEvent)
	return w, flipped, total, nil
}

func (r *WithdrawalRepository) List(_ context.Context, query ports.WithdrawalQuery) ([]domain.Withdrawal, int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var all []domain.Withdrawal
	for _, id := range r.store.withdrawalOrder {
		w := r.store.withdrawals[id]
		if query.UserID != uuid.Nil && w.UserID != query.UserID {
			continue
		}
		if query.Status != "" && w.Status != query.Status {
			continue
		}
		all = append(all, w)
	}
	sort.SliceStable(all, func(a, b int) bool { return all[a].RequestedAt.After(all[b].RequestedAt) })
	total := len(all)
	if query.Offset >= total {
		return nil, total, nil
	}
	end := query.Offset + query.Limit
	if end > total {
		end = total
	}
	return all[query.Offset:end], total, nil
}

func (r *WithdrawalRepository) ExpireStale(_ context.Context, cutoff, at time.Time) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	swept := 0
	for id, w := range r.store.withdrawals {
		if w.Status != domain.WithdrawalStatusRequested || !w.RequestedAt.Before(cutoff) {
			continue
		}
		stamp := at
		w.Status = domain.WithdrawalStatusExpired
		w.ExpiredAt = &stamp
		w.UpdatedAt = at
		r.store.withdrawals[id] = w
		swept++
	}
	return swept, nil
}
