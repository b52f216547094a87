package application

import (
	"log/slog"
	"time"

	"github.com/tradepulse/settlement-service/internal/domain"
	"github.com/tradepulse/settlement-service/internal/ports"
)

type Config struct {
	ServiceName        string
	Currency           string
	DecayRatio         float64
	CommissionPools    map[domain.ProductKind]int64
	MinWithdrawal      int64
	OTPTTL             time.Duration
	CodeDispatchLimit  int
	CodeDispatchWindow time.Duration
	IdempotencyTTL     time.Duration
	MaxReferralDepth   int
}

type Actor struct {
	SubjectID      string
	Role           string
	RequestID      string
	IdempotencyKey string
}

func (a Actor) privileged() bool {
	return a.Role == domain.RoleAdmin || a.Role == domain.RoleFinance
}

type Service struct {
	cfg          Config
	logger       *slog.Logger
	users        ports.UserRepository
	orders       ports.OrderRepository
	commissions  ports.CommissionRepository
	entitlements ports.EntitlementRepository
	withdrawals  ports.WithdrawalRepository
	idempotency  ports.IdempotencyRepository
	outbox       ports.OutboxRepository
	codes        ports.CodeStore
	limiter      ports.DispatchLimiter
	notifier     ports.CodeDeliverer
	nowFn        func() time.Time
}

type Dependencies struct {
	Config       Config
	Logger       *slog.Logger
	Users        ports.UserRepository
	Orders       ports.OrderRepository
	Commissions  ports.CommissionRepository
	Entitlements ports.EntitlementRepository
	Withdrawals  ports.WithdrawalRepository
	Idempotency  ports.IdempotencyRepository
	Outbox       ports.OutboxRepository
	Codes        ports.CodeStore
	Limiter      ports.DispatchLimiter
	Notifier     ports.CodeDeliverer
}

func NewService(deps Dependencies) *Service {
	cfg := deps.Config
	if cfg.ServiceName == "" {
		cfg.ServiceName = "Settlement-Service"
	}
	if cfg.Currency == "" {
		cfg.Currency = "THB"
	}
	if cfg.DecayRatio <= 0 || cfg.DecayRatio >= 1 {
		cfg.DecayRatio = 0.8
	}
	if len(cfg.CommissionPools) == 0 {
		cfg.CommissionPools = map[domain.ProductKind]int64{
			domain.ProductKindSignal:  300,
			domain.ProductKindPartner: 500,
		}
	}
	if cfg.MinWithdrawal <= 0 {
		cfg.MinWithdrawal = 350
	}
	if cfg.OTPTTL <= 0 {
		cfg.OTPTTL = 5 * time.Minute
	}
	if cfg.CodeDispatchLimit <= 0 {
		cfg.CodeDispatchLimit = 5
	}
	if cfg.CodeDispatchWindow <= 0 {
		cfg.CodeDispatchWindow = time.Hour
	}
	if cfg.IdempotencyTTL <= 0 {
		cfg.IdempotencyTTL = 24 * time.Hour
	}
	if cfg.MaxReferralDepth <= 0 || cfg.MaxReferralDepth > domain.MaxReferralDepth {
		cfg.MaxReferralDepth = domain.MaxReferralDepth
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cfg:          cfg,
		logger:       logger.With("service", cfg.ServiceName, "layer", "application"),
		users:        deps.Users,
		orders:       deps.Orders,
		commissions:  deps.Commissions,
		entitlements: deps.Entitlements,
		withdrawals:  deps.Withdrawals,
		idempotency:  deps.Idempotency,
		outbox:       deps.Outbox,
		codes:        deps.Codes,
		limiter:      deps.Limiter,
		notifier:     deps.Notifier,
		nowFn:        func() time.Time { return time.Now().UTC() },
	}
}

type SettleOrderOutput struct {
	Order            domain.Order
	DistributedCount int
	DistributedTotal int64
}

type CommissionHistoryOutput struct {
	Items []domain.Commission
	Total int
}

type WithdrawalListOutput struct {
	Items []domain.Withdrawal
	Total int
}

// ConfirmResult is the tri-state outcome of an OTP confirmation attempt.
type ConfirmResult string

const (
	ConfirmResultOK       ConfirmResult = "ok"
	ConfirmResultExpired  ConfirmResult = "expired"
	ConfirmResultMismatch ConfirmResult = "mismatch"
)
