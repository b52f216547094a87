package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/tradepulse/settlement-service/internal/domain"
	"github.com/tradepulse/settlement-service/internal/ports"
)

type UserRepository struct {
	store *Store
}

func (r *UserRepository) Create(_ context.Context, user domain.User) (domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, existing := range r.store.users {
		if existing.Email == user.Email || existing.ReferralCode == user.ReferralCode {
			return domain.User{}, domain.ErrConflict
		}
	}
	r.store.users[user.UserID] = user
	return user, nil
}

func (r *UserRepository) GetByID(_ context.Context, userID uuid.UUID) (domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	user, ok := r.store.users[userID]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return user, nil
}

func (r *UserRepository) GetByReferralCode(_ context.Context, code string) (domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, user := range r.store.users {
		if user.ReferralCode == code {
			return user, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

type OrderRepository struct {
	store *Store
}

func (r *OrderRepository) Create(_ context.Context, order domain.Order) (domain.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.orders[order.OrderID] = order
	return order, nil
}

func (r *OrderRepository) GetByID(_ context.Context, orderID uuid.UUID) (domain.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	order, ok := r.store.orders[orderID]
	if !ok {
		return domain.Order{}, domain.ErrNotFound
	}
	return order, nil
}

func (r *OrderRepository) Settle(_ context.Context, params ports.SettlementTxParams) (ports.SettlementResult, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	order, ok := r.store.orders[params.OrderID]
	if !ok {
		return ports.SettlementResult{}, domain.ErrNotFound
	}
	switch order.Status {
	case domain.OrderStatusPending:
	case domain.OrderStatusPaid:
		return ports.SettlementResult{Order: order, AlreadySettled: true}, nil
	default:
		return ports.SettlementResult{}, domain.ErrOrderNotPending
	}

	paidAt := params.PaidAt
	order.Status = domain.OrderStatusPaid
	order.PaidAt = &paidAt
	order.UpdatedAt = params.PaidAt
	r.store.orders[order.OrderID] = order

	var total int64
	for _, c := range params.Commissions {
		duplicate := false
		for _, existing := range r.store.commissions {
			if existing.OrderID == c.OrderID && existing.UserID == c.UserID {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}
		r.store.commissions[c.CommissionID] = c
		r.store.commissionOrder = append(r.store.commissionOrder, c.CommissionID)
		total += c.Amount
	}

	var current *domain.Entitlement
	for _, e := range r.store.entitlements {
		if e.UserID == order.BuyerID && e.Kind == params.EntitlementKind {
			found := e
			current = &found
			break
		}
	}
	start, end := domain.ActivationWindow(current, params.PaidAt, params.Months)
	if current != nil {
		updated := *current
		updated.Status = domain.EntitlementStatusActive
		updated.StartsAt = start
		updated.EndsAt = end
		updated.PricePaid = params.PricePaid
		updated.UpdatedAt = params.PaidAt
		r.store.entitlements[updated.EntitlementID] = updated
	} else {
		created := domain.Entitlement{
			EntitlementID: uuid.New(),
			UserID:        order.BuyerID,
			Kind:          params.EntitlementKind,
			Status:        domain.EntitlementStatusActive,
			StartsAt:      start,
			EndsAt:        end,
			PricePaid:     params.PricePaid,
			CreatedAt:     params.PaidAt,
			UpdatedAt:     params.PaidAt,
		}
		r.store.entitlements[created.EntitlementID] = created
	}

	if params.PromoteBuyerTo != "" {
		buyer, ok := r.store.users[order.BuyerID]
		if ok && buyer.Role == domain.RoleMember {
			buyer.Role = params.PromoteBuyerTo
			buyer.UpdatedAt = params.PaidAt
			r.store.users[buyer.UserID] = buyer
		}
	}

	r.store.enqueueOutboxLocked(params.OutboxEvent)

	return ports.SettlementResult{
		Order:            order,
		DistributedCount: len(params.Commissions),
		DistributedTotal: total,
	}, nil
}

func (r *OrderRepository) MarkFailed(_ context.Context, orderID uuid.UUID, at time.Time) (domain.Order, error) {
	return r.transition(orderID, domain.OrderStatusFailed, at, nil)
}

func (r *OrderRepository) MarkRefunded(_ context.Context, orderID uuid.UUID, at time.Time, outboxEvent ports.OutboxEvent) (domain.Order, error) {
	return r.transition(orderID, domain.OrderStatusRefunded, at, &outboxEvent)
}

func (r *OrderRepository) transition(orderID uuid.UUID, to domain.OrderStatus, at time.Time, outboxEvent *ports.OutboxEvent) (domain.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	order, ok := r.store.orders[orderID]
	if !ok {
		return domain.Order{}, domain.ErrNotFound
	}
	if !domain.CanTransitionOrder(order.Status, to) {
		return domain.Order{}, domain.ErrIllegalTransition
	}
	order.Status = to
	order.UpdatedAt = at
	stamp := at
	switch to {
	case domain.OrderStatusFailed:
		order.FailedAt = &stamp
	case domain.OrderStatusRefunded:
		order.RefundedAt = &stamp
	}
	r.store.orders[orderID] = order
	if outboxEvent != nil {
		r.store.enqueueOutboxLocked(*outboxEvent)
	}
	return order, nil
}

type CommissionRepository struct {
	store *Store
}

func (r *CommissionRepository) ListByOrder(_ context.Context, orderID uuid.UUID) ([]domain.Commission, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var items []domain.Commission
	for _, id := range r.store.commissionOrder {
		if c := r.store.commissions[id]; c.OrderID == orderID {
			items = append(items, c)
		}
	}
	sort.Slice(items, func(a, b int) bool { return items[a].Level < items[b].Level })
	return items, nil
}

func (r *CommissionRepository) ListByUser(_ context.Context, userID uuid.UUID, limit, offset int) ([]domain.Commission, int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var all []domain.Commission
	for _, id := range r.store.commissionOrder {
		if c := r.store.commissions[id]; c.UserID == userID {
			all = append(all, c)
		}
	}
	sort.SliceStable(all, func(a, b int) bool { return all[a].CreatedAt.After(all[b].CreatedAt) })
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (r *CommissionRepository) SumPendingByUser(_ context.Context, userID uuid.UUID) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.pendingSumLocked(userID), nil
}

type EntitlementRepository struct {
	store *Store
}

func (r *EntitlementRepository) GetByUserAndKind(_ context.Context, userID uuid.UUID, kind domain.ProductKind) (*domain.Entitlement, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, e := range r.store.entitlements {
		if e.UserID == userID && e.Kind == kind {
			found := e
			return &found, nil
		}
	}
	return nil, nil
}

func (r *EntitlementRepository) ListByUser(_ context.Context, userID uuid.UUID) ([]domain.Entitlement, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var items []domain.Entitlement
	for _, e := range r.store.entitlements {
		if e.UserID == userID {
			items = append(items, e)
		}
	}
	sort.Slice(items, func(a, b int) bool { return items[a].Kind < items[b].Kind })
	return items, nil
}

func (r *EntitlementRepository) HasActive(_ context.Context, userID uuid.UUID, kind domain.ProductKind, at time.Time) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, e := range r.store.entitlements {
		if e.UserID == userID && e.Kind == kind && e.ActiveAt(at) {
			return true, nil
		}
	}
	return false, nil
}

type IdempotencyRepository struct {
	store *Store
}

func (r *IdempotencyRepository) Get(_ context.Context, key string, now time.Time) (*ports.IdempotencyRecord, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	rec, ok := r.store.idempotency[key]
	if !ok || !rec.ExpiresAt.After(now) {
		return nil, nil
	}
	// A reservation without a recorded response never completed; replays
	// must not see it.
	if rec.ResponseCode == 0 {
		return nil, nil
	}
	out := rec
	return &out, nil
}

func (r *IdempotencyRepository) Reserve(_ context.Context, key, requestHash string, expiresAt time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, exists := r.store.idempotency[key]; exists {
		return domain.ErrIdempotencyConflict
	}
	r.store.idempotency[key] = ports.IdempotencyRecord{
		Key:         key,
		RequestHash: requestHash,
		ExpiresAt:   expiresAt,
	}
	return nil
}

func (r *IdempotencyRepository) Complete(_ context.Context, key string, responseCode int, responseBody []byte, _ time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	rec, ok := r.store.idempotency[key]
	if !ok {
		return domain.ErrNotFound
	}
	rec.ResponseCode = responseCode
	rec.ResponseBody = responseBody
	r.store.idempotency[key] = rec
	return nil
}

func (r *IdempotencyRepository) Release(_ context.Context, key string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	rec, ok := r.store.idempotency[key]
	if !ok || rec.ResponseCode != 0 {
		return nil
	}
	delete(r.store.idempotency, key)
	return nil
}

type OutboxRepository struct {
	store *Store
}

func (r *OutboxRepository) Enqueue(_ context.Context, event ports.OutboxEvent) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.enqueueOutboxLocked(event)
	return nil
}

func (r *OutboxRepository) ClaimUnpublished(_ context.Context, limit int, claimToken string, claimUntil time.Time) ([]ports.OutboxRecord, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	now := r.store.nowFn()
	var claimed []ports.OutboxRecord
	for _, id := range r.store.outboxOrder {
		if len(claimed) >= limit {
			break
		}
		rec := r.store.outbox[id]
		if rec.PublishedAt != nil || rec.DeadLetteredAt != nil {
			continue
		}
		if rec.ClaimUntil != nil && rec.ClaimUntil.After(now) {
			continue
		}
		token := claimToken
		until := claimUntil
		rec.ClaimToken = &token
		rec.ClaimUntil = &until
		r.store.outbox[id] = rec
		claimed = append(claimed, rec)
	}
	return claimed, nil
}

func (r *OutboxRepository) MarkPublished(_ context.Context, outboxID uuid.UUID, claimToken string, at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	rec, ok := r.store.outbox[outboxID]
	if !ok || rec.ClaimToken == nil || *rec.ClaimToken != claimToken {
		return nil
	}
	stamp := at
	rec.PublishedAt = &stamp
	rec.ClaimToken = nil
	rec.ClaimUntil = nil
	r.store.outbox[outboxID] = rec
	return nil
}

func (r *OutboxRepository) MarkFailed(_ context.Context, outboxID uuid.UUID, claimToken, reason string, at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	rec, ok := r.store.outbox[outboxID]
	if !ok || rec.ClaimToken == nil || *rec.ClaimToken != claimToken {
		return nil
	}
	rec.RetryCount++
	msg := reason
	stamp := at
	rec.LastError = &msg
	rec.LastErrorAt = &stamp
	rec.ClaimToken = nil
	rec.ClaimUntil = nil
	r.store.outbox[outboxID] = rec
	return nil
}

func (r *OutboxRepository) MarkDeadLettered(_ context.Context, outboxID uuid.UUID, claimToken, reason string, at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	rec, ok := r.store.outbox[outboxID]
	if !ok || rec.ClaimToken == nil || *rec.ClaimToken != claimToken {
		return nil
	}
	rec.RetryCount++
	msg := reason
	stamp := at
	rec.LastError = &msg
	rec.LastErrorAt = &stamp
	rec.DeadLetteredAt = &stamp
	rec.ClaimToken = nil
	rec.ClaimUntil = nil
	r.store.outbox[outboxID] = rec
	return nil
}

// Records returns a snapshot of all outbox rows in insertion order.
func (r *OutboxRepository) Records() []ports.OutboxRecord {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]ports.OutboxRecord, 0, len(r.store.outboxOrder))
	for _, id := range r.store.outboxOrder {
		out = append(out, r.store.outbox[id])
	}
	return out
}
