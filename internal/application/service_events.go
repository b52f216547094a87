package application

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/tradepulse/settlement-service/internal/contracts"
	"github.com/tradepulse/settlement-service/internal/ports"
)

// newOutboxEvent wraps a payload in the canonical envelope. The envelope,
// not the raw payload, is what outbox rows carry to the broker.
func (s *Service) newOutboxEvent(eventType, partitionKey string, payload any, at time.Time) ports.OutboxEvent {
	data, err := json.Marshal(payload)
	if err != nil {
		data = []byte(`{}`)
	}
	envelope := contracts.EventEnvelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		OccurredAt:    at,
		PartitionKey:  partitionKey,
		SourceService: s.cfg.ServiceName,
		SchemaVersion: "v1",
		Data:          data,
	}
	raw, err := json.Marshal(envelope)
	if err != nil {
		raw = data
	}
	return ports.OutboxEvent{
		EventID:      uuid.MustParse(envelope.EventID),
		EventType:    eventType,
		PartitionKey: partitionKey,
		Payload:      raw,
		OccurredAt:   at,
	}
}
