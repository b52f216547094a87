package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/tradepulse/settlement-service/internal/adapters/memory"
	"github.com/tradepulse/settlement-service/internal/ports"
)

type brokenPublisher struct {
	calls int
}

func (p *brokenPublisher) Publish(context.Context, string, []byte, string) error {
	p.calls++
	return errors.New("broker unavailable")
}

func testWorker(outbox ports.OutboxRepository, publisher ports.EventPublisher, maxRetries int) *OutboxWorker {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewOutboxWorker(logger, outbox, publisher, time.Second, 100, 30*time.Second, maxRetries)
}

func enqueue(t *testing.T, outbox ports.OutboxRepository, eventType string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	err := outbox.Enqueue(context.Background(), ports.OutboxEvent{
		EventID:      id,
		EventType:    eventType,
		PartitionKey: uuid.NewString(),
		Payload:      []byte(`{"ok":true}`),
		OccurredAt:   time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	return id
}

func TestOutboxWorkerPublishesClaimedBatch(t *testing.T) {
	repos := memory.NewRepositories(nil)
	publisher := memory.NewPublisher()
	worker := testWorker(repos.Outbox, publisher, 5)

	enqueue(t, repos.Outbox, "settlement.order.settled")
	enqueue(t, repos.Outbox, "settlement.withdrawal.requested")

	if err := worker.processOnce(context.Background()); err != nil {
		t.Fatalf("process: %v", err)
	}
	if events := publisher.Events(); len(events) != 2 {
		t.Fatalf("expected 2 published events, got %d", len(events))
	}
	for _, rec := range repos.Outbox.Records() {
		if rec.PublishedAt == nil {
			t.Errorf("record %s not marked published", rec.OutboxID)
		}
		if rec.ClaimToken != nil {
			t.Errorf("record %s still holds its claim", rec.OutboxID)
		}
	}

	// Re-running finds nothing left to deliver.
	if err := worker.processOnce(context.Background()); err != nil {
		t.Fatalf("second process: %v", err)
	}
	if events := publisher.Events(); len(events) != 2 {
		t.Fatalf("published records must not be redelivered, got %d events", len(events))
	}
}

func TestOutboxWorkerRetriesThenDeadLetters(t *testing.T) {
	repos := memory.NewRepositories(nil)
	publisher := &brokenPublisher{}
	worker := testWorker(repos.Outbox, publisher, 2)

	enqueue(t, repos.Outbox, "settlement.withdrawal.approved")

	// First pass: failure number one, retry scheduled.
	if err := worker.processOnce(context.Background()); err != nil {
		t.Fatalf("first pass: %v", err)
	}
	rec := repos.Outbox.Records()[0]
	if rec.RetryCount != 1 || rec.DeadLetteredAt != nil {
		t.Fatalf("expected one recorded failure, got retries=%d dlq=%v", rec.RetryCount, rec.DeadLetteredAt)
	}
	if rec.LastError == nil {
		t.Fatal("failure reason not recorded")
	}

	// Second pass: the retry threshold is reached and the record parks in the DLQ.
	if err := worker.processOnce(context.Background()); err != nil {
		t.Fatalf("second pass: %v", err)
	}
	rec = repos.Outbox.Records()[0]
	if rec.DeadLetteredAt == nil {
		t.Fatal("expected dead-lettered record after exhausting retries")
	}
	if rec.PublishedAt != nil {
		t.Error("dead-lettered record must not be marked published")
	}

	// Third pass: dead-lettered records are never claimed again.
	before := publisher.calls
	if err := worker.processOnce(context.Background()); err != nil {
		t.Fatalf("third pass: %v", err)
	}
	if publisher.calls != before {
		t.Errorf("dead-lettered record was redelivered, %d extra calls", publisher.calls-before)
	}
}
