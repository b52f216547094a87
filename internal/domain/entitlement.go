package domain

import (
	"time"

	"github.com/google/uuid"
)

type EntitlementStatus string

const (
	EntitlementStatusActive  EntitlementStatus = "active"
	EntitlementStatusExpired EntitlementStatus = "expired"
)

// Entitlement is a time-bounded access grant. One row per user per product
// kind; repeat purchases extend the window instead of duplicating it.
type Entitlement struct {
	EntitlementID uuid.UUID         `json:"entitlement_id"`
	UserID        uuid.UUID         `json:"user_id"`
	Kind          ProductKind       `json:"kind"`
	Status        EntitlementStatus `json:"status"`
	StartsAt      time.Time         `json:"starts_at"`
	EndsAt        time.Time         `json:"ends_at"`
	PricePaid     int64             `json:"price_paid"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

func (e Entitlement) ActiveAt(now time.Time) bool {
	return e.Status == EntitlementStatusActive && e.EndsAt.After(now)
}

// ActivationWindow resolves the window an order's months grant on top of
// the buyer's current entitlement. A still-running window is extended from
// its own end date, so renewing early never wastes remaining time. An
// expired or absent entitlement restarts from now.
func ActivationWindow(current *Entitlement, now time.Time, months int) (start, end time.Time) {
	if current != nil && current.ActiveAt(now) {
		return current.StartsAt, current.EndsAt.AddDate(0, months, 0)
	}
	return now, now.AddDate(0, months, 0)
}
