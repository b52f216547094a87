package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// WithdrawalCode is the stored half of an out-of-band confirmation
// challenge. Only the hash is kept; the clear code exists in transit once.
type WithdrawalCode struct {
	CodeHash    string    `json:"code_hash"`
	Destination string    `json:"destination"`
	IssuedAt    time.Time `json:"issued_at"`
}

type CodeStore interface {
	Put(ctx context.Context, withdrawalID uuid.UUID, code WithdrawalCode, ttl time.Duration) error
	// Get returns nil when the code never existed or its TTL lapsed.
	Get(ctx context.Context, withdrawalID uuid.UUID) (*WithdrawalCode, error)
	Delete(ctx context.Context, withdrawalID uuid.UUID) error
}

// DispatchLimiter caps code sends per destination over a rolling window.
type DispatchLimiter interface {
	Allow(ctx context.Context, destination string, limit int, window time.Duration) (bool, error)
}
