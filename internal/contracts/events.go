package contracts

import (
	"encoding/json"
	"time"
)

type EventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	OccurredAt    time.Time       `json:"occurred_at"`
	PartitionKey  string          `json:"partition_key"`
	SourceService string          `json:"source_service"`
	SchemaVersion string          `json:"schema_version"`
	Data          json.RawMessage `json:"data"`
}

type OrderSettledPayload struct {
	OrderID          string `json:"order_id"`
	BuyerID          string `json:"buyer_id"`
	Kind             string `json:"kind"`
	Amount           int64  `json:"amount"`
	DistributedCount int    `json:"distributed_count"`
	DistributedTotal int64  `json:"distributed_total"`
	PaidAt           string `json:"paid_at"`
}

type OrderRefundedPayload struct {
	OrderID    string `json:"order_id"`
	BuyerID    string `json:"buyer_id"`
	Amount     int64  `json:"amount"`
	RefundedAt string `json:"refunded_at"`
}

type WithdrawalRequestedPayload struct {
	WithdrawalID string `json:"withdrawal_id"`
	UserID       string `json:"user_id"`
	Amount       int64  `json:"amount"`
	RequestedAt  string `json:"requested_at"`
}

type WithdrawalApprovedPayload struct {
	WithdrawalID string `json:"withdrawal_id"`
	UserID       string `json:"user_id"`
	Amount       int64  `json:"amount"`
	ApprovedAt   string `json:"approved_at"`
}

type WithdrawalRejectedPayload struct {
	WithdrawalID string `json:"withdrawal_id"`
	UserID       string `json:"user_id"`
	Amount       int64  `json:"amount"`
	Reason       string `json:"reason"`
	RejectedAt   string `json:"rejected_at"`
}

type WithdrawalPaidPayload struct {
	WithdrawalID string `json:"withdrawal_id"`
	UserID       string `json:"user_id"`
	Amount       int64  `json:"amount"`
	PaidAt       string `json:"paid_at"`
}
