package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/tradepulse/settlement-service/internal/domain"
	"github.com/tradepulse/settlement-service/internal/ports"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type orderRepository struct {
	db *gorm.DB
}

func (r *orderRepository) Create(ctx context.Context, order domain.Order) (domain.Order, error) {
	rec := orderModel{
		OrderID:         order.OrderID,
		BuyerID:         order.BuyerID,
		Kind:            string(order.Kind),
		Amount:          order.Amount,
		Currency:        order.Currency,
		PurchasedMonths: order.PurchasedMonths,
		BonusMonths:     order.BonusMonths,
		Status:          string(order.Status),
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return domain.Order{}, err
	}
	return toDomainOrder(rec), nil
}

func (r *orderRepository) GetByID(ctx context.Context, orderID uuid.UUID) (domain.Order, error) {
	var rec orderModel
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Order{}, domain.ErrNotFound
		}
		return domain.Order{}, err
	}
	return toDomainOrder(rec), nil
}

// Settle is the single write path for the pending->paid transition. The
// order row lock serializes concurrent attempts: the first caller performs
// the fan-out, later callers observe paid and return AlreadySettled.
func (r *orderRepository) Settle(ctx context.Context, params ports.SettlementTxParams) (ports.SettlementResult, error) {
	var result ports.SettlementResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec orderModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("order_id = ?", params.OrderID).
			Take(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}

		switch domain.OrderStatus(rec.Status) {
		case domain.OrderStatusPending:
		case domain.OrderStatusPaid:
			result = ports.SettlementResult{Order: toDomainOrder(rec), AlreadySettled: true}
			return nil
		default:
			return domain.ErrOrderNotPending
		}

		if err := tx.Model(&orderModel{}).
			Where("order_id = ?", rec.OrderID).
			Updates(map[string]any{
				"status":     string(domain.OrderStatusPaid),
				"paid_at":    params.PaidAt,
				"updated_at": params.PaidAt,
			}).Error; err != nil {
			return err
		}

		if len(params.Commissions) > 0 {
			rows := make([]commissionModel, 0, len(params.Commissions))
			for _, c := range params.Commissions {
				rows = append(rows, commissionModel{
					CommissionID: c.CommissionID,
					UserID:       c.UserID,
					OrderID:      c.OrderID,
					Level:        c.Level,
					Weight:       c.Weight,
					Amount:       c.Amount,
					Status:       string(c.Status),
					CreatedAt:    c.CreatedAt,
				})
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{
					{Name: "order_id"},
					{Name: "user_id"},
				},
				DoNothing: true,
			}).Create(&rows).Error; err != nil {
				return err
			}
		}

		if err := upsertEntitlement(tx, rec.BuyerID, params); err != nil {
			return err
		}

		if params.PromoteBuyerTo != "" {
			if err := tx.Model(&userModel{}).
				Where("user_id = ?", rec.BuyerID).
				Where("role = ?", domain.RoleMember).
				Updates(map[string]any{
					"role":       params.PromoteBuyerTo,
					"updated_at": params.PaidAt,
				}).Error; err != nil {
				return err
			}
		}

		if err := enqueueOutbox(tx, params.OutboxEvent); err != nil {
			return err
		}

		var total int64
		for _, c := range params.Commissions {
			total += c.Amount
		}
		rec.Status = string(domain.OrderStatusPaid)
		paidAt := params.PaidAt
		rec.PaidAt = &paidAt
		rec.UpdatedAt = params.PaidAt
		result = ports.SettlementResult{
			Order:            toDomainOrder(rec),
			DistributedCount: len(params.Commissions),
			DistributedTotal: total,
		}
		return nil
	})
	if err != nil {
		return ports.SettlementResult{}, err
	}
	return result, nil
}

// upsertEntitlement extends a running window from its own end date and
// restarts an expired or absent one from the settlement instant. The
// entitlement row is locked so two settlements for the same buyer and kind
// stack their months instead of overwriting each other.
func upsertEntitlement(tx *gorm.DB, buyerID uuid.UUID, params ports.SettlementTxParams) error {
	var current *domain.Entitlement
	var rec entitlementModel
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", buyerID).
		Where("kind = ?", string(params.EntitlementKind)).
		Take(&rec).Error
	switch {
	case err == nil:
		found := toDomainEntitlement(rec)
		current = &found
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return err
	}

	start, end := domain.ActivationWindow(current, params.PaidAt, params.Months)
	if current != nil {
		return tx.Model(&entitlementModel{}).
			Where("entitlement_id = ?", current.EntitlementID).
			Updates(map[string]any{
				"status":     string(domain.EntitlementStatusActive),
				"starts_at":  start,
				"ends_at":    end,
				"price_paid": params.PricePaid,
				"updated_at": params.PaidAt,
			}).Error
	}
	return tx.Create(&entitlementModel{
		EntitlementID: uuid.New(),
		UserID:        buyerID,
		Kind:          string(params.EntitlementKind),
		Status:        string(domain.EntitlementStatusActive),
		StartsAt:      start,
		EndsAt:        end,
		PricePaid:     params.PricePaid,
		CreatedAt:     params.PaidAt,
		UpdatedAt:     params.PaidAt,
	}).Error
}

func (r *orderRepository) MarkFailed(ctx context.Context, orderID uuid.UUID, at time.Time) (domain.Order, error) {
	return r.transition(ctx, orderID, domain.OrderStatusFailed, at, nil)
}

func (r *orderRepository) MarkRefunded(ctx context.Context, orderID uuid.UUID, at time.Time, outboxEvent ports.OutboxEvent) (domain.Order, error) {
	return r.transition(ctx, orderID, domain.OrderStatusRefunded, at, &outboxEvent)
}

func (r *orderRepository) transition(ctx context.Context, orderID uuid.UUID, to domain.OrderStatus, at time.Time, outboxEvent *ports.OutboxEvent) (domain.Order, error) {
	var result domain.Order
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec orderModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("order_id = ?", orderID).
			Take(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		if !domain.CanTransitionOrder(domain.OrderStatus(rec.Status), to) {
			return domain.ErrIllegalTransition
		}

		updates := map[string]any{
			"status":     string(to),
			"updated_at": at,
		}
		switch to {
		case domain.OrderStatusFailed:
			updates["failed_at"] = at
			rec.FailedAt = &at
		case domain.OrderStatusRefunded:
			updates["refunded_at"] = at
			rec.RefundedAt = &at
		}
		if err := tx.Model(&orderModel{}).
			Where("order_id = ?", orderID).
			Updates(updates).Error; err != nil {
			return err
		}
		if outboxEvent != nil {
			if err := enqueueOutbox(tx, *outboxEvent); err != nil {
				return err
			}
		}
		rec.Status = string(to)
		rec.UpdatedAt = at
		result = toDomainOrder(rec)
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	return result, nil
}
