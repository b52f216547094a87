package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tradepulse/settlement-service/internal/domain"
	"github.com/tradepulse/settlement-service/internal/ports"
)

// Store is a single-lock in-memory database. All repositories share it so
// multi-table operations stay atomic the way the SQL adapter's transactions
// are.
type Store struct {
	mu           sync.Mutex
	nowFn        func() time.Time
	users        map[uuid.UUID]domain.User
	orders       map[uuid.UUID]domain.Order
	commissions  map[uuid.UUID]domain.Commission
	entitlements map[uuid.UUID]domain.Entitlement
	withdrawals  map[uuid.UUID]domain.Withdrawal
	idempotency  map[string]ports.IdempotencyRecord
	outbox       map[uuid.UUID]ports.OutboxRecord

	commissionOrder []uuid.UUID
	withdrawalOrder []uuid.UUID
	outboxOrder     []uuid.UUID
}

// NewStore builds an empty store. nowFn feeds time-sensitive reads such as
// outbox claim expiry; nil means the wall clock.
func NewStore(nowFn func() time.Time) *Store {
	if nowFn == nil {
		nowFn = func() time.Time { return time.Now().UTC() }
	}
	return &Store{
		nowFn:        nowFn,
		users:        make(map[uuid.UUID]domain.User),
		orders:       make(map[uuid.UUID]domain.Order),
		commissions:  make(map[uuid.UUID]domain.Commission),
		entitlements: make(map[uuid.UUID]domain.Entitlement),
		withdrawals:  make(map[uuid.UUID]domain.Withdrawal),
		idempotency:  make(map[string]ports.IdempotencyRecord),
		outbox:       make(map[uuid.UUID]ports.OutboxRecord),
	}
}

type Repositories struct {
	Users        *UserRepository
	Orders       *OrderRepository
	Commissions  *CommissionRepository
	Entitlements *EntitlementRepository
	Withdrawals  *WithdrawalRepository
	Idempotency  *IdempotencyRepository
	Outbox       *OutboxRepository
}

func NewRepositories(store *Store) *Repositories {
	if store == nil {
		store = NewStore(nil)
	}
	return &Repositories{
		Users:        &UserRepository{store: store},
		Orders:       &OrderRepository{store: store},
		Commissions:  &CommissionRepository{store: store},
		Entitlements: &EntitlementRepository{store: store},
		Withdrawals:  &WithdrawalRepository{store: store},
		Idempotency:  &IdempotencyRepository{store: store},
		Outbox:       &OutboxRepository{store: store},
	}
}

func (s *Store) enqueueOutboxLocked(event ports.OutboxEvent) {
	rec := ports.OutboxRecord{
		OutboxID:     event.EventID,
		EventType:    event.EventType,
		PartitionKey: event.PartitionKey,
		Payload:      event.Payload,
		CreatedAt:    event.OccurredAt,
	}
	s.outbox[rec.OutboxID] = rec
	s.outboxOrder = append(s.outboxOrder, rec.OutboxID)
}

func (s *Store) hasOpenWithdrawalLocked(userID uuid.UUID) bool {
	for _, w := range s.withdrawals {
		if w.UserID != userID {
			continue
		}
		for _, open := range domain.OpenWithdrawalStatuses() {
			if w.Status == open {
				return true
			}
		}
	}
	return false
}

func (s *Store) pendingSumLocked(userID uuid.UUID) int64 {
	var sum int64
	for _, c := range s.commissions {
		if c.UserID == userID && c.Status == domain.CommissionStatusPending {
			sum += c.Amount
		}
	}
	return sum
}
