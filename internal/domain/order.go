package domain

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string
type ProductKind string

const (
	OrderStatusPending  OrderStatus = "pending"
	OrderStatusPaid     OrderStatus = "paid"
	OrderStatusFailed   OrderStatus = "failed"
	OrderStatusRefunded OrderStatus = "refunded"
)

const (
	ProductKindSignal  ProductKind = "signal"
	ProductKindPartner ProductKind = "partner"
)

// Order is a purchase awaiting settlement. Amount is in minor currency units;
// no monetary field in this service ever holds a float.
type Order struct {
	OrderID         uuid.UUID   `json:"order_id"`
	BuyerID         uuid.UUID   `json:"buyer_id"`
	Kind            ProductKind `json:"kind"`
	Amount          int64       `json:"amount"`
	Currency        string      `json:"currency"`
	PurchasedMonths int         `json:"purchased_months"`
	BonusMonths     int         `json:"bonus_months"`
	Status          OrderStatus `json:"status"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
	PaidAt          *time.Time  `json:"paid_at,omitempty"`
	FailedAt        *time.Time  `json:"failed_at,omitempty"`
	RefundedAt      *time.Time  `json:"refunded_at,omitempty"`
}

// orderTransitions is the only source of truth for order lifecycle legality.
// Status checks scattered across handlers are exactly the bug class this
// table exists to remove.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending: {OrderStatusPaid, OrderStatusFailed},
	OrderStatusPaid:    {OrderStatusRefunded},
}

func CanTransitionOrder(from, to OrderStatus) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func ValidProductKind(kind ProductKind) bool {
	return kind == ProductKindSignal || kind == ProductKindPartner
}

func ValidateCreateOrderInput(buyerID uuid.UUID, kind ProductKind, amount int64, purchasedMonths, bonusMonths int) error {
	if buyerID == uuid.Nil {
		return ErrInvalidInput
	}
	if !ValidProductKind(kind) {
		return ErrInvalidInput
	}
	if amount <= 0 {
		return ErrInvalidInput
	}
	if purchasedMonths <= 0 || bonusMonths < 0 {
		return ErrInvalidInput
	}
	return nil
}

// EntitlementMonths is the full window an order grants on settlement.
func (o Order) EntitlementMonths() int {
	return o.PurchasedMonths + o.BonusMonths
}
