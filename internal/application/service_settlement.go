package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tradepulse/settlement-service/internal/contracts"
	"github.com/tradepulse/settlement-service/internal/domain"
	"github.com/tradepulse/settlement-service/internal/ports"
)

type CreateOrderInput struct {
	BuyerID         uuid.UUID
	Kind            domain.ProductKind
	Amount          int64
	PurchasedMonths int
	BonusMonths     int
}

// CreateOrder opens a pending order at checkout. Nothing financial happens
// until the settlement transition.
func (s *Service) CreateOrder(ctx context.Context, actor Actor, input CreateOrderInput) (domain.Order, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return domain.Order{}, domain.ErrUnauthorized
	}
	if !actor.privileged() && actor.SubjectID != input.BuyerID.String() {
		return domain.Order{}, domain.ErrForbidden
	}
	if err := domain.ValidateCreateOrderInput(input.BuyerID, input.Kind, input.Amount, input.PurchasedMonths, input.BonusMonths); err != nil {
		return domain.Order{}, err
	}
	if _, err := s.users.GetByID(ctx, input.BuyerID); err != nil {
		return domain.Order{}, fmt.Errorf("load buyer: %w", err)
	}

	now := s.nowFn()
	order := domain.Order{
		OrderID:         uuid.New(),
		BuyerID:         input.BuyerID,
		Kind:            input.Kind,
		Amount:          input.Amount,
		Currency:        s.cfg.Currency,
		PurchasedMonths: input.PurchasedMonths,
		BonusMonths:     input.BonusMonths,
		Status:          domain.OrderStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	return s.orders.Create(ctx, order)
}

func (s *Service) GetOrder(ctx context.Context, actor Actor, orderID uuid.UUID) (domain.Order, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return domain.Order{}, domain.ErrUnauthorized
	}
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if !actor.privileged() && order.BuyerID.String() != actor.SubjectID {
		return domain.Order{}, domain.ErrForbidden
	}
	return order, nil
}

// SettleOrder runs the paid transition: verify pending, stamp paid,
// activate the purchased entitlement and distribute the commission pool
// across the buyer's referral chain, all as one transaction. Calling it
// again for a settled order is a no-op that reports the original
// distribution.
func (s *Service) SettleOrder(ctx context.Context, actor Actor, orderID uuid.UUID) (SettleOrderOutput, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return SettleOrderOutput{}, domain.ErrUnauthorized
	}
	if !actor.privileged() {
		return SettleOrderOutput{}, domain.ErrForbidden
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return SettleOrderOutput{}, err
	}
	switch order.Status {
	case domain.OrderStatusPending:
	case domain.OrderStatusPaid:
		return s.settledOutput(ctx, order)
	default:
		return SettleOrderOutput{}, domain.ErrOrderNotPending
	}

	chain, err := s.ancestorChain(ctx, order.BuyerID)
	if err != nil {
		return SettleOrderOutput{}, err
	}

	now := s.nowFn()
	pool := s.cfg.CommissionPools[order.Kind]
	amounts := domain.SplitPool(pool, s.cfg.DecayRatio, len(chain))
	weights := domain.DecayWeights(s.cfg.DecayRatio, len(chain))
	commissions := make([]domain.Commission, 0, len(chain))
	var total int64
	for i, ancestor := range chain {
		commissions = append(commissions, domain.Commission{
			CommissionID: uuid.New(),
			UserID:       ancestor.UserID,
			OrderID:      order.OrderID,
			Level:        i + 1,
			Weight:       weights[i],
			Amount:       amounts[i],
			Status:       domain.CommissionStatusPending,
			CreatedAt:    now,
		})
		total += amounts[i]
	}

	promoteTo := ""
	if order.Kind == domain.ProductKindPartner {
		promoteTo = domain.RolePartner
	}
	event := s.newOutboxEvent(domain.EventOrderSettled, order.BuyerID.String(), contracts.OrderSettledPayload{
		OrderID:          order.OrderID.String(),
		BuyerID:          order.BuyerID.String(),
		Kind:             string(order.Kind),
		Amount:           order.Amount,
		DistributedCount: len(commissions),
		DistributedTotal: total,
		PaidAt:           now.Format(time.RFC3339),
	}, now)

	result, err := s.orders.Settle(ctx, ports.SettlementTxParams{
		OrderID:         order.OrderID,
		PaidAt:          now,
		Commissions:     commissions,
		EntitlementKind: order.Kind,
		Months:          order.EntitlementMonths(),
		PricePaid:       order.Amount,
		PromoteBuyerTo:  promoteTo,
		OutboxEvent:     event,
	})
	if err != nil {
		return SettleOrderOutput{}, err
	}
	if result.AlreadySettled {
		// Lost the race to a concurrent approval; report what that one did.
		return s.settledOutput(ctx, result.Order)
	}

	s.logger.InfoContext(ctx, "order settled",
		"operation", "settle_order",
		"outcome", "success",
		"order_id", order.OrderID.String(),
		"buyer_id", order.BuyerID.String(),
		"chain_length", len(chain),
		"distributed_count", result.DistributedCount,
		"distributed_total", result.DistributedTotal,
	)
	return SettleOrderOutput{
		Order:            result.Order,
		DistributedCount: result.DistributedCount,
		DistributedTotal: result.DistributedTotal,
	}, nil
}

// settledOutput reconstructs the distribution summary for an order that
// was already settled, keeping SettleOrder replay-safe.
func (s *Service) settledOutput(ctx context.Context, order domain.Order) (SettleOrderOutput, error) {
	commissions, err := s.commissions.ListByOrder(ctx, order.OrderID)
	if err != nil {
		return SettleOrderOutput{}, err
	}
	var total int64
	for _, c := range commissions {
		total += c.Amount
	}
	return SettleOrderOutput{
		Order:            order,
		DistributedCount: len(commissions),
		DistributedTotal: total,
	}, nil
}

// FailOrder closes a pending order that will never be paid.
func (s *Service) FailOrder(ctx context.Context, actor Actor, orderID uuid.UUID) (domain.Order, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return domain.Order{}, domain.ErrUnauthorized
	}
	if !actor.privileged() {
		return domain.Order{}, domain.ErrForbidden
	}
	return s.orders.MarkFailed(ctx, orderID, s.nowFn())
}

// RefundOrder marks a paid order refunded. Commissions already distributed
// are not clawed back; the refund is an order-level terminal state.
func (s *Service) RefundOrder(ctx context.Context, actor Actor, orderID uuid.UUID) (domain.Order, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return domain.Order{}, domain.ErrUnauthorized
	}
	if !actor.privileged() {
		return domain.Order{}, domain.ErrForbidden
	}
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	now := s.nowFn()
	event := s.newOutboxEvent(domain.EventOrderRefunded, order.BuyerID.String(), contracts.OrderRefundedPayload{
		OrderID:    order.OrderID.String(),
		BuyerID:    order.BuyerID.String(),
		Amount:     order.Amount,
		RefundedAt: now.Format(time.RFC3339),
	}, now)
	return s.orders.MarkRefunded(ctx, orderID, now, event)
}

func (s *Service) ListCommissionsByUser(ctx context.Context, actor Actor, userID uuid.UUID, limit, offset int) (CommissionHistoryOutput, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return CommissionHistoryOutput{}, domain.ErrUnauthorized
	}
	if !actor.privileged() && actor.SubjectID != userID.String() {
		return CommissionHistoryOutput{}, domain.ErrForbidden
	}
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	items, total, err := s.commissions.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return CommissionHistoryOutput{}, err
	}
	return CommissionHistoryOutput{Items: items, Total: total}, nil
}

func (s *Service) ListEntitlementsByUser(ctx context.Context, actor Actor, userID uuid.UUID) ([]domain.Entitlement, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return nil, domain.ErrUnauthorized
	}
	if !actor.privileged() && actor.SubjectID != userID.String() {
		return nil, domain.ErrForbidden
	}
	return s.entitlements.ListByUser(ctx, userID)
}
