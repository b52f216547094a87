package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/tradepulse/settlement-service/internal/ports"
)

func TestOutboxClaimExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	repos := NewRepositories(NewStore(func() time.Time { return now }))

	event := ports.OutboxEvent{
		EventID:      uuid.New(),
		EventType:    "settlement.order.settled",
		PartitionKey: uuid.NewString(),
		Payload:      []byte(`{}`),
		OccurredAt:   now,
	}
	if err := repos.Outbox.Enqueue(ctx, event); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	first, err := repos.Outbox.ClaimUnpublished(ctx, 10, "worker-a", now.Add(30*time.Second))
	if err != nil {
		t.Fatalf("first claim: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("expected 1 claimed record, got %d", len(first))
	}

	// While worker-a's claim is live the record is invisible to others.
	second, err := repos.Outbox.ClaimUnpublished(ctx, 10, "worker-b", now.Add(30*time.Second))
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if len(second) != 0 {
		t.Fatalf("held claim must not be reassigned, got %d records", len(second))
	}

	// Once the claim lapses another worker may pick the record up.
	now = now.Add(time.Minute)
	third, err := repos.Outbox.ClaimUnpublished(ctx, 10, "worker-b", now.Add(30*time.Second))
	if err != nil {
		t.Fatalf("claim after expiry: %v", err)
	}
	if len(third) != 1 {
		t.Fatalf("expected the lapsed record to be reclaimable, got %d", len(third))
	}

	// The stale token lost its claim and cannot finish the record.
	if err := repos.Outbox.MarkPublished(ctx, event.EventID, "worker-a", now); err != nil {
		t.Fatalf("stale mark published: %v", err)
	}
	if rec := repos.Outbox.Records()[0]; rec.PublishedAt != nil {
		t.Fatal("stale token must not mark the record published")
	}

	if err := repos.Outbox.MarkPublished(ctx, event.EventID, "worker-b", now); err != nil {
		t.Fatalf("mark published: %v", err)
	}
	if rec := repos.Outbox.Records()[0]; rec.PublishedAt == nil {
		t.Fatal("holder's token must mark the record published")
	}
}
