package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tradepulse/settlement-service/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user domain.User) (domain.User, error)
	GetByID(ctx context.Context, userID uuid.UUID) (domain.User, error)
	GetByReferralCode(ctx context.Context, code string) (domain.User, error)
}

// SettlementTxParams carries everything the paid transition writes in one
// transaction: the status flip, the entitlement window, the buyer promotion
// for partner purchases, the precomputed commission rows and the outbox
// record announcing the settlement.
type SettlementTxParams struct {
	OrderID         uuid.UUID
	PaidAt          time.Time
	Commissions     []domain.Commission
	EntitlementKind domain.ProductKind
	Months          int
	PricePaid       int64
	PromoteBuyerTo  string
	OutboxEvent     OutboxEvent
}

type SettlementResult struct {
	Order            domain.Order
	AlreadySettled   bool
	DistributedCount int
	DistributedTotal int64
}

type OrderRepository interface {
	Create(ctx context.Context, order domain.Order) (domain.Order, error)
	GetByID(ctx context.Context, orderID uuid.UUID) (domain.Order, error)
	// Settle performs the pending->paid fan-out atomically. Concurrent calls
	// for the same order yield exactly one execution; losers observe
	// AlreadySettled.
	Settle(ctx context.Context, params SettlementTxParams) (SettlementResult, error)
	MarkFailed(ctx context.Context, orderID uuid.UUID, at time.Time) (domain.Order, error)
	MarkRefunded(ctx context.Context, orderID uuid.UUID, at time.Time, outboxEvent OutboxEvent) (domain.Order, error)
}

type CommissionRepository interface {
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]domain.Commission, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Commission, int, error)
	// SumPendingByUser is the balance ledger: a derived read, never stored.
	SumPendingByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

type EntitlementRepository interface {
	GetByUserAndKind(ctx context.Context, userID uuid.UUID, kind domain.ProductKind) (*domain.Entitlement, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Entitlement, error)
	HasActive(ctx context.Context, userID uuid.UUID, kind domain.ProductKind, at time.Time) (bool, error)
}

type WithdrawalCreateParams struct {
	Withdrawal  domain.Withdrawal
	OutboxEvent OutboxEvent
}

type WithdrawalQuery struct {
	UserID uuid.UUID
	Status domain.WithdrawalStatus
	Limit  int
	Offset int
}

type WithdrawalRepository interface {
	// CreateWithBalanceCheck serializes on the user row, re-verifies the
	// pending-commission balance and the absence of another open request,
	// then inserts the withdrawal and its outbox record together.
	CreateWithBalanceCheck(ctx context.Context, params WithdrawalCreateParams) (domain.Withdrawal, error)
	GetByID(ctx context.Context, withdrawalID uuid.UUID) (domain.Withdrawal, error)
	// HasOpen reports whether the user already has a request in one of the
	// open statuses.
	HasOpen(ctx context.Context, userID uuid.UUID) (bool, error)
	// Transition applies one legal status hop and stamps the matching
	// timestamp column. A nil outbox event skips outbox enqueueing.
	Transition(ctx context.Context, withdrawalID uuid.UUID, to domain.WithdrawalStatus, at time.Time, reason string, outboxEvent *OutboxEvent) (domain.Withdrawal, error)
	// Confirm lands requested->pending_review as a single write, stamping
	// the otp_verified timestamp on the way through. The request is never
	// observable in the intermediate state.
	Confirm(ctx context.Context, withdrawalID uuid.UUID, at time.Time) (domain.Withdrawal, error)
	// MarkPaid flips the withdrawal approved->paid and, in the same
	// transaction, flips every pending commission of that user to paid.
	// Returns the flipped row count and total.
	MarkPaid(ctx context.Context, withdrawalID uuid.UUID, at time.Time, outboxEvent OutboxEvent) (domain.Withdrawal, int, int64, error)
	List(ctx context.Context, query WithdrawalQuery) ([]domain.Withdrawal, int, error)
	// ExpireStale moves requests still unconfirmed past the cutoff to
	// expired and reports how many were swept.
	ExpireStale(ctx context.Context, cutoff, at time.Time) (int, error)
}

type IdempotencyRecord struct {
	Key          string
	RequestHash  string
	ResponseCode int
	ResponseBody []byte
	ExpiresAt    time.Time
}

type IdempotencyRepository interface {
	// Get returns only completed records; a reservation whose request never
	// finished is invisible to replays.
	Get(ctx context.Context, key string, now time.Time) (*IdempotencyRecord, error)
	Reserve(ctx context.Context, key, requestHash string, expiresAt time.Time) error
	Complete(ctx context.Context, key string, responseCode int, responseBody []byte, at time.Time) error
	// Release drops a reservation whose request failed, freeing the key for
	// a retry.
	Release(ctx context.Context, key string) error
}

type OutboxEvent struct {
	EventID      uuid.UUID
	EventType    string
	PartitionKey string
	Payload      []byte
	OccurredAt   time.Time
}

type OutboxRecord struct {
	OutboxID       uuid.UUID
	EventType      string
	PartitionKey   string
	Payload        []byte
	RetryCount     int
	LastError      *string
	CreatedAt      time.Time
	PublishedAt    *time.Time
	LastErrorAt    *time.Time
	ClaimToken     *string
	ClaimUntil     *time.Time
	DeadLetteredAt *time.Time
}

type OutboxRepository interface {
	Enqueue(ctx context.Context, event OutboxEvent) error
	ClaimUnpublished(ctx context.Context, limit int, claimToken string, claimUntil time.Time) ([]OutboxRecord, error)
	MarkPublished(ctx context.Context, outboxID uuid.UUID, claimToken string, at time.Time) error
	MarkFailed(ctx context.Context, outboxID uuid.UUID, claimToken string, reason string, at time.Time) error
	MarkDeadLettered(ctx context.Context, outboxID uuid.UUID, claimToken string, reason string, at time.Time) error
}
