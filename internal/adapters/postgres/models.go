package postgres

import (
	"time"

	"github.com/google/uuid"
)

type userModel struct {
	UserID       uuid.UUID  `gorm:"column:user_id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string     `gorm:"column:email"`
	Phone        string     `gorm:"column:phone"`
	Role         string     `gorm:"column:role"`
	ReferralCode string     `gorm:"column:referral_code"`
	ReferredBy   *uuid.UUID `gorm:"column:referred_by"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at"`
}

func (userModel) TableName() string { return "users" }

type orderModel struct {
	OrderID         uuid.UUID  `gorm:"column:order_id;type:uuid;primaryKey"`
	BuyerID         uuid.UUID  `gorm:"column:buyer_id"`
	Kind            string     `gorm:"column:kind"`
	Amount          int64      `gorm:"column:amount"`
	Currency        string     `gorm:"column:currency"`
	PurchasedMonths int        `gorm:"column:purchased_months"`
	BonusMonths     int        `gorm:"column:bonus_months"`
	Status          string     `gorm:"column:status"`
	CreatedAt       time.Time  `gorm:"column:created_at"`
	UpdatedAt       time.Time  `gorm:"column:updated_at"`
	PaidAt          *time.Time `gorm:"column:paid_at"`
	FailedAt        *time.Time `gorm:"column:failed_at"`
	RefundedAt      *time.Time `gorm:"column:refunded_at"`
}

func (orderModel) TableName() string { return "orders" }

type commissionModel struct {
	CommissionID uuid.UUID  `gorm:"column:commission_id;type:uuid;primaryKey"`
	UserID       uuid.UUID  `gorm:"column:user_id"`
	OrderID      uuid.UUID  `gorm:"column:order_id"`
	Level        int        `gorm:"column:level"`
	Weight       float64    `gorm:"column:weight"`
	Amount       int64      `gorm:"column:amount"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PaidAt       *time.Time `gorm:"column:paid_at"`
}

func (commissionModel) TableName() string { return "commissions" }

type entitlementModel struct {
	EntitlementID uuid.UUID `gorm:"column:entitlement_id;type:uuid;primaryKey"`
	UserID        uuid.UUID `gorm:"column:user_id"`
	Kind          string    `gorm:"column:kind"`
	Status        string    `gorm:"column:status"`
	StartsAt      time.Time `gorm:"column:starts_at"`
	EndsAt        time.Time `gorm:"column:ends_at"`
	PricePaid     int64     `gorm:"column:price_paid"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (entitlementModel) TableName() string { return "entitlements" }

type withdrawalModel struct {
	WithdrawalID  uuid.UUID  `gorm:"column:withdrawal_id;type:uuid;primaryKey"`
	UserID        uuid.UUID  `gorm:"column:user_id"`
	Amount        int64      `gorm:"column:amount"`
	Currency      string     `gorm:"column:currency"`
	BankName      string     `gorm:"column:bank_name"`
	AccountName   string     `gorm:"column:account_name"`
	AccountNumber string     `gorm:"column:account_number"`
	Status        string     `gorm:"column:status"`
	RejectReason  string     `gorm:"column:reject_reason"`
	RequestedAt   time.Time  `gorm:"column:requested_at"`
	OTPVerifiedAt *time.Time `gorm:"column:otp_verified_at"`
	ApprovedAt    *time.Time `gorm:"column:approved_at"`
	RejectedAt    *time.Time `gorm:"column:rejected_at"`
	PaidAt        *time.Time `gorm:"column:paid_at"`
	ExpiredAt     *time.Time `gorm:"column:expired_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at"`
}

func (withdrawalModel) TableName() string { return "withdrawals" }

type settlementIdempotencyModel struct {
	IdempotencyKey string    `gorm:"column:idempotency_key;primaryKey"`
	RequestHash    string    `gorm:"column:request_hash"`
	Status         string    `gorm:"column:status"`
	ResponseCode   int       `gorm:"column:response_code"`
	ResponseBody   *string   `gorm:"column:response_body;type:jsonb"`
	ExpiresAt      time.Time `gorm:"column:expires_at"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

func (settlementIdempotencyModel) TableName() string { return "settlement_idempotency" }

type settlementOutboxModel struct {
	OutboxID       uuid.UUID  `gorm:"column:outbox_id;type:uuid;primaryKey"`
	EventType      string     `gorm:"column:event_type"`
	PartitionKey   string     `gorm:"column:partition_key"`
	Payload        string     `gorm:"column:payload;type:jsonb"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
	PublishedAt    *time.Time `gorm:"column:published_at"`
	RetryCount     int        `gorm:"column:retry_count"`
	LastError      *string    `gorm:"column:last_error"`
	LastErrorAt    *time.Time `gorm:"column:last_error_at"`
	ClaimToken     *string    `gorm:"column:claim_token"`
	ClaimUntil     *time.Time `gorm:"column:claim_until"`
	DeadLetteredAt *time.Time `gorm:"column:dead_lettered_at"`
}

func (settlementOutboxModel) TableName() string { return "settlement_outbox" }
