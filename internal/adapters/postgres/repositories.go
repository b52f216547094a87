package postgres

import (
	"github.com/tradepulse/settlement-service/internal/ports"
	"gorm.io/gorm"
)

type Repositories struct {
	Users        ports.UserRepository
	Orders       ports.OrderRepository
	Commissions  ports.CommissionRepository
	Entitlements ports.EntitlementRepository
	Withdrawals  ports.WithdrawalRepository
	Idempotency  ports.IdempotencyRepository
	Outbox       ports.OutboxRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Users:        &userRepository{db: db},
		Orders:       &orderRepository{db: db},
		Commissions:  &commissionRepository{db: db},
		Entitlements: &entitlementRepository{db: db},
		Withdrawals:  &withdrawalRepository{db: db},
		Idempotency:  &idempotencyRepository{db: db},
		Outbox:       &outboxRepository{db: db},
	}
}
