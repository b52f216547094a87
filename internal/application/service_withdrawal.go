package application

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tradepulse/settlement-service/internal/contracts"
	"github.com/tradepulse/settlement-service/internal/domain"
	"github.com/tradepulse/settlement-service/internal/ports"
)

// GetBalance returns the user's available balance: the sum of pending
// commission amounts. It is always derived, never cached.
func (s *Service) GetBalance(ctx context.Context, actor Actor, userID uuid.UUID) (int64, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return 0, domain.ErrUnauthorized
	}
	if !actor.privileged() && actor.SubjectID != userID.String() {
		return 0, domain.ErrForbidden
	}
	return s.commissions.SumPendingByUser(ctx, userID)
}

type RequestWithdrawalInput struct {
	UserID      uuid.UUID
	Amount      int64
	Destination domain.BankDestination
}

// RequestWithdrawal opens the withdrawal workflow. All preconditions are
// checked before any state lands: minimum amount, both entitlements active,
// no other open request, sufficient pending balance, dispatch rate limit.
// The create transaction re-verifies balance and openness under the user
// row lock.
func (s *Service) RequestWithdrawal(ctx context.Context, actor Actor, input RequestWithdrawalInput) (domain.Withdrawal, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return domain.Withdrawal{}, domain.ErrUnauthorized
	}
	if !actor.privileged() && actor.SubjectID != input.UserID.String() {
		return domain.Withdrawal{}, domain.ErrForbidden
	}
	if strings.TrimSpace(actor.IdempotencyKey) == "" {
		return domain.Withdrawal{}, domain.ErrIdempotencyRequired
	}
	if err := domain.ValidateWithdrawalRequestInput(input.UserID, input.Amount, input.Destination); err != nil {
		return domain.Withdrawal{}, err
	}
	if input.Amount < s.cfg.MinWithdrawal {
		return domain.Withdrawal{}, domain.ErrBelowMinimum
	}

	user, err := s.users.GetByID(ctx, input.UserID)
	if err != nil {
		return domain.Withdrawal{}, fmt.Errorf("load user: %w", err)
	}

	now := s.nowFn()
	// Dual-eligibility gate: withdrawing requires both an active signal
	// entitlement and an active partner entitlement. One alone is not enough.
	for _, kind := range []domain.ProductKind{domain.ProductKindSignal, domain.ProductKindPartner} {
		active, err := s.entitlements.HasActive(ctx, input.UserID, kind, now)
		if err != nil {
			return domain.Withdrawal{}, fmt.Errorf("entitlement check: %w", err)
		}
		if !active {
			return domain.Withdrawal{}, domain.ErrIneligible
		}
	}

	requestHash := hashPayload(input)
	existing, err := s.idempotency.Get(ctx, actor.IdempotencyKey, now)
	if err != nil {
		return domain.Withdrawal{}, err
	}
	if existing != nil {
		if existing.RequestHash != requestHash {
			return domain.Withdrawal{}, domain.ErrIdempotencyConflict
		}
		var cached domain.Withdrawal
		if err := json.Unmarshal(existing.ResponseBody, &cached); err != nil {
			return domain.Withdrawal{}, err
		}
		return cached, nil
	}

	// Cheap rejections come before the limiter so a doomed request does not
	// consume a dispatch slot. The create transaction re-verifies both under
	// the user row lock.
	open, err := s.withdrawals.HasOpen(ctx, input.UserID)
	if err != nil {
		return domain.Withdrawal{}, fmt.Errorf("open withdrawal check: %w", err)
	}
	if open {
		return domain.Withdrawal{}, domain.ErrWithdrawalOpen
	}
	balance, err := s.commissions.SumPendingByUser(ctx, input.UserID)
	if err != nil {
		return domain.Withdrawal{}, fmt.Errorf("balance check: %w", err)
	}
	if balance < input.Amount {
		return domain.Withdrawal{}, domain.ErrInsufficientFunds
	}

	allowed, err := s.limiter.Allow(ctx, user.Phone, s.cfg.CodeDispatchLimit, s.cfg.CodeDispatchWindow)
	if err != nil {
		return domain.Withdrawal{}, fmt.Errorf("dispatch limiter: %w", err)
	}
	if !allowed {
		return domain.Withdrawal{}, domain.ErrRateLimited
	}

	if err := s.idempotency.Reserve(ctx, actor.IdempotencyKey, requestHash, now.Add(s.cfg.IdempotencyTTL)); err != nil {
		return domain.Withdrawal{}, err
	}

	withdrawal := domain.Withdrawal{
		WithdrawalID: uuid.New(),
		UserID:       input.UserID,
		Amount:       input.Amount,
		Currency:     s.cfg.Currency,
		Destination:  input.Destination,
		Status:       domain.WithdrawalStatusRequested,
		RequestedAt:  now,
		UpdatedAt:    now,
	}
	event := s.newOutboxEvent(domain.EventWithdrawalRequested, input.UserID.String(), contracts.WithdrawalRequestedPayload{
		WithdrawalID: withdrawal.WithdrawalID.String(),
		UserID:       input.UserID.String(),
		Amount:       input.Amount,
		RequestedAt:  now.Format(time.RFC3339),
	}, now)

	created, err := s.withdrawals.CreateWithBalanceCheck(ctx, ports.WithdrawalCreateParams{
		Withdrawal:  withdrawal,
		OutboxEvent: event,
	})
	if err != nil {
		// The key must not stay reserved with no response behind it, or every
		// retry within the TTL would fail.
		s.releaseReservation(ctx, actor.IdempotencyKey)
		return domain.Withdrawal{}, err
	}

	if err := s.dispatchCode(ctx, created, user.Phone); err != nil {
		// Dispatch is fire-and-forget: the request stands, the user can
		// retry via a fresh request once it expires.
		s.logger.WarnContext(ctx, "confirmation code dispatch failed",
			"operation", "request_withdrawal",
			"outcome", "degraded",
			"withdrawal_id", created.WithdrawalID.String(),
			"error", err,
		)
	}

	payload, err := json.Marshal(created)
	if err != nil {
		s.releaseReservation(ctx, actor.IdempotencyKey)
		return domain.Withdrawal{}, err
	}
	if err := s.idempotency.Complete(ctx, actor.IdempotencyKey, 201, payload, s.nowFn()); err != nil {
		s.releaseReservation(ctx, actor.IdempotencyKey)
		return domain.Withdrawal{}, err
	}

	s.logger.InfoContext(ctx, "withdrawal requested",
		"operation", "request_withdrawal",
		"outcome", "success",
		"withdrawal_id", created.WithdrawalID.String(),
		"user_id", input.UserID.String(),
		"amount", input.Amount,
	)
	return created, nil
}

// releaseReservation frees an idempotency key after the guarded request
// failed. A release failure is logged, not returned: the original error is
// what the caller needs, and the reservation falls out at TTL anyway.
func (s *Service) releaseReservation(ctx context.Context, key string) {
	if err := s.idempotency.Release(ctx, key); err != nil {
		s.logger.WarnContext(ctx, "idempotency reservation release failed",
			"operation", "request_withdrawal",
			"outcome", "degraded",
			"error", err,
		)
	}
}

func (s *Service) dispatchCode(ctx context.Context, withdrawal domain.Withdrawal, destination string) error {
	code, err := newConfirmationCode()
	if err != nil {
		return err
	}
	if err := s.codes.Put(ctx, withdrawal.WithdrawalID, ports.WithdrawalCode{
		CodeHash:    hashCode(code),
		Destination: destination,
		IssuedAt:    s.nowFn(),
	}, s.cfg.OTPTTL); err != nil {
		return fmt.Errorf("store confirmation code: %w", err)
	}
	if err := s.notifier.SendWithdrawalCode(ctx, destination, code); err != nil {
		return fmt.Errorf("send confirmation code: %w", err)
	}
	return nil
}

// ConfirmWithdrawalCode resolves the out-of-band challenge. ok advances
// the request into admin review; expired retires it; mismatch leaves it
// untouched so the user may retry within the window.
func (s *Service) ConfirmWithdrawalCode(ctx context.Context, actor Actor, withdrawalID uuid.UUID, code string) (ConfirmResult, domain.Withdrawal, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return "", domain.Withdrawal{}, domain.ErrUnauthorized
	}
	withdrawal, err := s.withdrawals.GetByID(ctx, withdrawalID)
	if err != nil {
		return "", domain.Withdrawal{}, err
	}
	if !actor.privileged() && withdrawal.UserID.String() != actor.SubjectID {
		return "", domain.Withdrawal{}, domain.ErrForbidden
	}
	if withdrawal.Status == domain.WithdrawalStatusExpired {
		return ConfirmResultExpired, withdrawal, nil
	}
	if withdrawal.Status != domain.WithdrawalStatusRequested {
		return "", domain.Withdrawal{}, domain.ErrConflict
	}

	now := s.nowFn()
	stored, err := s.codes.Get(ctx, withdrawalID)
	if err != nil {
		return "", domain.Withdrawal{}, fmt.Errorf("load confirmation code: %w", err)
	}
	if stored == nil || now.Sub(stored.IssuedAt) > s.cfg.OTPTTL {
		expired, err := s.withdrawals.Transition(ctx, withdrawalID, domain.WithdrawalStatusExpired, now, "", nil)
		if err != nil {
			return "", domain.Withdrawal{}, err
		}
		return ConfirmResultExpired, expired, nil
	}
	if stored.CodeHash != hashCode(strings.TrimSpace(code)) {
		return ConfirmResultMismatch, withdrawal, nil
	}

	// One repository write carries the request all the way into review. If
	// it fails, the withdrawal is still requested and the code still stored,
	// so the user can simply retry.
	verified, err := s.withdrawals.Confirm(ctx, withdrawalID, now)
	if err != nil {
		return "", domain.Withdrawal{}, err
	}
	if err := s.codes.Delete(ctx, withdrawalID); err != nil {
		s.logger.WarnContext(ctx, "confirmation code cleanup failed",
			"operation", "confirm_withdrawal_code",
			"outcome", "degraded",
			"withdrawal_id", withdrawalID.String(),
			"error", err,
		)
	}
	return ConfirmResultOK, verified, nil
}

// ApproveWithdrawal moves a reviewed request to approved. Admin action.
func (s *Service) ApproveWithdrawal(ctx context.Context, actor Actor, withdrawalID uuid.UUID) (domain.Withdrawal, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return domain.Withdrawal{}, domain.ErrUnauthorized
	}
	if !actor.privileged() {
		return domain.Withdrawal{}, domain.ErrForbidden
	}
	withdrawal, err := s.withdrawals.GetByID(ctx, withdrawalID)
	if err != nil {
		return domain.Withdrawal{}, err
	}
	now := s.nowFn()
	event := s.newOutboxEvent(domain.EventWithdrawalApproved, withdrawal.UserID.String(), contracts.WithdrawalApprovedPayload{
		WithdrawalID: withdrawal.WithdrawalID.String(),
		UserID:       withdrawal.UserID.String(),
		Amount:       withdrawal.Amount,
		ApprovedAt:   now.Format(time.RFC3339),
	}, now)
	return s.withdrawals.Transition(ctx, withdrawalID, domain.WithdrawalStatusApproved, now, "", &event)
}

// RejectWithdrawal retires a reviewed request. The commission ledger is
// untouched: rejection never flips anything.
func (s *Service) RejectWithdrawal(ctx context.Context, actor Actor, withdrawalID uuid.UUID, reason string) (domain.Withdrawal, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return domain.Withdrawal{}, domain.ErrUnauthorized
	}
	if !actor.privileged() {
		return domain.Withdrawal{}, domain.ErrForbidden
	}
	withdrawal, err := s.withdrawals.GetByID(ctx, withdrawalID)
	if err != nil {
		return domain.Withdrawal{}, err
	}
	now := s.nowFn()
	event := s.newOutboxEvent(domain.EventWithdrawalRejected, withdrawal.UserID.String(), contracts.WithdrawalRejectedPayload{
		WithdrawalID: withdrawal.WithdrawalID.String(),
		UserID:       withdrawal.UserID.String(),
		Amount:       withdrawal.Amount,
		Reason:       reason,
		RejectedAt:   now.Format(time.RFC3339),
	}, now)
	return s.withdrawals.Transition(ctx, withdrawalID, domain.WithdrawalStatusRejected, now, strings.TrimSpace(reason), &event)
}

// MarkWithdrawalPaid finalizes the workflow: the withdrawal goes to paid
// and every pending commission of that user flips to paid in the same
// transaction. The flip deliberately covers the full pending ledger, not
// just the withdrawn amount, matching the platform's settlement contract.
func (s *Service) MarkWithdrawalPaid(ctx context.Context, actor Actor, withdrawalID uuid.UUID) (domain.Withdrawal, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return domain.Withdrawal{}, domain.ErrUnauthorized
	}
	if !actor.privileged() {
		return domain.Withdrawal{}, domain.ErrForbidden
	}
	withdrawal, err := s.withdrawals.GetByID(ctx, withdrawalID)
	if err != nil {
		return domain.Withdrawal{}, err
	}
	now := s.nowFn()
	event := s.newOutboxEvent(domain.EventWithdrawalPaid, withdrawal.UserID.String(), contracts.WithdrawalPaidPayload{
		WithdrawalID: withdrawal.WithdrawalID.String(),
		UserID:       withdrawal.UserID.String(),
		Amount:       withdrawal.Amount,
		PaidAt:       now.Format(time.RFC3339),
	}, now)
	paid, flipped, flippedTotal, err := s.withdrawals.MarkPaid(ctx, withdrawalID, now, event)
	if err != nil {
		return domain.Withdrawal{}, err
	}
	s.logger.InfoContext(ctx, "withdrawal paid",
		"operation", "mark_withdrawal_paid",
		"outcome", "success",
		"withdrawal_id", withdrawalID.String(),
		"user_id", withdrawal.UserID.String(),
		"amount", withdrawal.Amount,
		"commissions_flipped", flipped,
		"flipped_total", flippedTotal,
	)
	return paid, nil
}

func (s *Service) GetWithdrawal(ctx context.Context, actor Actor, withdrawalID uuid.UUID) (domain.Withdrawal, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return domain.Withdrawal{}, domain.ErrUnauthorized
	}
	withdrawal, err := s.withdrawals.GetByID(ctx, withdrawalID)
	if err != nil {
		return domain.Withdrawal{}, err
	}
	if !actor.privileged() && withdrawal.UserID.String() != actor.SubjectID {
		return domain.Withdrawal{}, domain.ErrForbidden
	}
	return withdrawal, nil
}

func (s *Service) ListWithdrawals(ctx context.Context, actor Actor, query ports.WithdrawalQuery) (WithdrawalListOutput, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return WithdrawalListOutput{}, domain.ErrUnauthorized
	}
	if !actor.privileged() {
		parsed, err := uuid.Parse(actor.SubjectID)
		if err != nil {
			return WithdrawalListOutput{}, domain.ErrForbidden
		}
		query.UserID = parsed
	}
	if query.Limit <= 0 {
		query.Limit = 20
	}
	if query.Offset < 0 {
		query.Offset = 0
	}
	items, total, err := s.withdrawals.List(ctx, query)
	if err != nil {
		return WithdrawalListOutput{}, err
	}
	return WithdrawalListOutput{Items: items, Total: total}, nil
}

// ExpireStaleWithdrawals sweeps requests whose confirmation window lapsed
// without the code ever being entered. Run periodically by the worker.
func (s *Service) ExpireStaleWithdrawals(ctx context.Context) (int, error) {
	now := s.nowFn()
	swept, err := s.withdrawals.ExpireStale(ctx, now.Add(-s.cfg.OTPTTL), now)
	if err != nil {
		return 0, err
	}
	if swept > 0 {
		s.logger.InfoContext(ctx, "stale withdrawals expired",
			"operation", "expire_stale_withdrawals",
			"outcome", "success",
			"swept_count", swept,
		)
	}
	return swept, nil
}
