package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/tradepulse/settlement-service/internal/domain"
)

func TestSettleOrderDistributesAlongChain(t *testing.T) {
	env := newTestEnv(t, Config{})
	ctx := context.Background()

	// u1 <- u2 <- u3, buyer referred by u1.
	u3 := env.createUser(t, "u3@example.com", "")
	u2 := env.createUser(t, "u2@example.com", u3.ReferralCode)
	u1 := env.createUser(t, "u1@example.com", u2.ReferralCode)
	buyer := env.createUser(t, "buyer@example.com", u1.ReferralCode)

	out := env.settleOrder(t, buyer, domain.ProductKindSignal, 1000, 3)
	if out.Order.Status != domain.OrderStatusPaid {
		t.Fatalf("expected paid order, got %s", out.Order.Status)
	}
	if out.Order.PaidAt == nil {
		t.Fatal("paid order must carry its paid timestamp")
	}
	if out.DistributedCount != 3 || out.DistributedTotal != 300 {
		t.Fatalf("expected 3 commissions totalling 300, got %d totalling %d", out.DistributedCount, out.DistributedTotal)
	}

	commissions, err := env.repos.Commissions.ListByOrder(ctx, out.Order.OrderID)
	if err != nil {
		t.Fatalf("list commissions: %v", err)
	}
	expected := []struct {
		user   uuid.UUID
		level  int
		amount int64
	}{
		{u1.UserID, 1, 123},
		{u2.UserID, 2, 98},
		{u3.UserID, 3, 79},
	}
	if len(commissions) != len(expected) {
		t.Fatalf("expected %d commission rows, got %d", len(expected), len(commissions))
	}
	for i, want := range expected {
		got := commissions[i]
		if got.UserID != want.user || got.Level != want.level || got.Amount != want.amount {
			t.Errorf("row %d: got user=%s level=%d amount=%d, expected user=%s level=%d amount=%d",
				i, got.UserID, got.Level, got.Amount, want.user, want.level, want.amount)
		}
		if got.Status != domain.CommissionStatusPending {
			t.Errorf("row %d: fresh commissions start pending, got %s", i, got.Status)
		}
	}

	balance, err := env.svc.GetBalance(ctx, memberActor(u1), u1.UserID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 123 {
		t.Errorf("u1 balance = %d, expected 123", balance)
	}
}

func TestSettleOrderReplayIsHarmless(t *testing.T) {
	env := newTestEnv(t, Config{})
	ctx := context.Background()
	admin := adminActor()

	referrer := env.createUser(t, "ref@example.com", "")
	buyer := env.createUser(t, "buyer@example.com", referrer.ReferralCode)
	out := env.settleOrder(t, buyer, domain.ProductKindSignal, 1000, 1)

	replay, err := env.svc.SettleOrder(ctx, admin, out.Order.OrderID)
	if err != nil {
		t.Fatalf("replay settle: %v", err)
	}
	if replay.DistributedCount != out.DistributedCount || replay.DistributedTotal != out.DistributedTotal {
		t.Errorf("replay reported %d/%d, first run reported %d/%d",
			replay.DistributedCount, replay.DistributedTotal, out.DistributedCount, out.DistributedTotal)
	}
	commissions, err := env.repos.Commissions.ListByOrder(ctx, out.Order.OrderID)
	if err != nil {
		t.Fatalf("list commissions: %v", err)
	}
	if len(commissions) != 1 {
		t.Fatalf("replay must not duplicate commissions, got %d rows", len(commissions))
	}
}

func TestSettleOrderWithoutReferrerDistributesNothing(t *testing.T) {
	env := newTestEnv(t, Config{})
	buyer := env.createUser(t, "solo@example.com", "")
	out := env.settleOrder(t, buyer, domain.ProductKindSignal, 1000, 1)
	if out.DistributedCount != 0 || out.DistributedTotal != 0 {
		t.Fatalf("unreferred buyer must yield no commissions, got %d totalling %d", out.DistributedCount, out.DistributedTotal)
	}
}

func TestSettlePartnerOrderPromotesBuyer(t *testing.T) {
	env := newTestEnv(t, Config{})
	ctx := context.Background()

	referrer := env.createUser(t, "ref@example.com", "")
	buyer := env.createUser(t, "buyer@example.com", referrer.ReferralCode)
	out := env.settleOrder(t, buyer, domain.ProductKindPartner, 5000, 12)

	if out.DistributedTotal != 500 {
		t.Errorf("partner pool is 500, distributed %d", out.DistributedTotal)
	}
	promoted, err := env.repos.Users.GetByID(ctx, buyer.UserID)
	if err != nil {
		t.Fatalf("reload buyer: %v", err)
	}
	if promoted.Role != domain.RolePartner {
		t.Errorf("partner purchase promotes the buyer, role is %q", promoted.Role)
	}
}

func TestSettleOrderActivatesAndExtendsEntitlement(t *testing.T) {
	env := newTestEnv(t, Config{})
	ctx := context.Background()
	buyer := env.createUser(t, "buyer@example.com", "")

	env.settleOrder(t, buyer, domain.ProductKindSignal, 1000, 3)
	first, err := env.svc.ListEntitlementsByUser(ctx, memberActor(buyer), buyer.UserID)
	if err != nil {
		t.Fatalf("list entitlements: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("expected one entitlement, got %d", len(first))
	}
	firstEnd := first[0].EndsAt
	if !firstEnd.Equal(first[0].StartsAt.AddDate(0, 3, 0)) {
		t.Errorf("3-month purchase, window %v -> %v", first[0].StartsAt, firstEnd)
	}

	// Renew while still active: the window extends rather than restarting.
	env.clock.Advance(30 * 24 * time.Hour) // well inside the active window
	env.settleOrder(t, buyer, domain.ProductKindSignal, 1000, 2)
	renewed, err := env.svc.ListEntitlementsByUser(ctx, memberActor(buyer), buyer.UserID)
	if err != nil {
		t.Fatalf("list entitlements after renewal: %v", err)
	}
	if len(renewed) != 1 {
		t.Fatalf("renewal must not duplicate the entitlement, got %d rows", len(renewed))
	}
	if !renewed[0].EndsAt.Equal(firstEnd.AddDate(0, 2, 0)) {
		t.Errorf("renewal extends from the prior end %v, got %v", firstEnd, renewed[0].EndsAt)
	}
	if !renewed[0].StartsAt.Equal(first[0].StartsAt) {
		t.Errorf("renewal keeps the original start %v, got %v", first[0].StartsAt, renewed[0].StartsAt)
	}
}

func TestSettleOrderSurvivesReferralCycle(t *testing.T) {
	env := newTestEnv(t, Config{})
	ctx := context.Background()

	// Corrupt graph built behind the service's back: a <-> b.
	now := env.clock.Now()
	a := domain.User{UserID: uuid.New(), Email: "a@example.com", Phone: "+66801", Role: domain.RoleMember, ReferralCode: "CYCLEAAA", CreatedAt: now, UpdatedAt: now}
	b := domain.User{UserID: uuid.New(), Email: "b@example.com", Phone: "+66802", Role: domain.RoleMember, ReferralCode: "CYCLEBBB", ReferredBy: &a.UserID, CreatedAt: now, UpdatedAt: now}
	a.ReferredBy = &b.UserID
	if _, err := env.repos.Users.Create(ctx, a); err != nil {
		t.Fatalf("seed a: %v", err)
	}
	if _, err := env.repos.Users.Create(ctx, b); err != nil {
		t.Fatalf("seed b: %v", err)
	}
	buyer := env.createUser(t, "buyer@example.com", a.ReferralCode)

	out := env.settleOrder(t, buyer, domain.ProductKindSignal, 1000, 1)
	if out.DistributedCount != 2 {
		t.Fatalf("cycle must truncate the chain at 2 ancestors, got %d", out.DistributedCount)
	}
	if out.DistributedTotal != 300 {
		t.Errorf("truncated chain still receives the full pool, got %d", out.DistributedTotal)
	}
}

func TestFailAndRefundTransitions(t *testing.T) {
	env := newTestEnv(t, Config{})
	ctx := context.Background()
	admin := adminActor()
	buyer := env.createUser(t, "buyer@example.com", "")

	pending, err := env.svc.CreateOrder(ctx, admin, CreateOrderInput{
		BuyerID:         buyer.UserID,
		Kind:            domain.ProductKindSignal,
		Amount:          1000,
		PurchasedMonths: 1,
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	failed, err := env.svc.FailOrder(ctx, admin, pending.OrderID)
	if err != nil {
		t.Fatalf("fail order: %v", err)
	}
	if failed.Status != domain.OrderStatusFailed || failed.FailedAt == nil {
		t.Fatalf("expected stamped failed order, got %+v", failed)
	}
	if _, err := env.svc.SettleOrder(ctx, admin, pending.OrderID); !errors.Is(err, domain.ErrOrderNotPending) {
		t.Errorf("settling a failed order: expected ErrOrderNotPending, got %v", err)
	}
	if _, err := env.svc.RefundOrder(ctx, admin, pending.OrderID); !errors.Is(err, domain.ErrIllegalTransition) {
		t.Errorf("refunding a failed order: expected ErrIllegalTransition, got %v", err)
	}

	paid := env.settleOrder(t, buyer, domain.ProductKindSignal, 1000, 1)
	refunded, err := env.svc.RefundOrder(ctx, admin, paid.Order.OrderID)
	if err != nil {
		t.Fatalf("refund paid order: %v", err)
	}
	if refunded.Status != domain.OrderStatusRefunded || refunded.RefundedAt == nil {
		t.Fatalf("expected stamped refunded order, got %+v", refunded)
	}
}

func TestSettleOrderRequiresPrivilegedActor(t *testing.T) {
	env := newTestEnv(t, Config{})
	ctx := context.Background()
	buyer := env.createUser(t, "buyer@example.com", "")

	order, err := env.svc.CreateOrder(ctx, memberActor(buyer), CreateOrderInput{
		BuyerID:         buyer.UserID,
		Kind:            domain.ProductKindSignal,
		Amount:          1000,
		PurchasedMonths: 1,
	})
	if err != nil {
		t.Fatalf("buyer creates own order: %v", err)
	}
	if _, err := env.svc.SettleOrder(ctx, memberActor(buyer), order.OrderID); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("member settle: expected ErrForbidden, got %v", err)
	}
	if _, err := env.svc.SettleOrder(ctx, Actor{}, order.OrderID); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("anonymous settle: expected ErrUnauthorized, got %v", err)
	}
}

func TestCreateOrderForAnotherUserForbidden(t *testing.T) {
	env := newTestEnv(t, Config{})
	ctx := context.Background()
	buyer := env.createUser(t, "buyer@example.com", "")
	other := env.createUser(t, "other@example.com", "")

	_, err := env.svc.CreateOrder(ctx, memberActor(other), CreateOrderInput{
		BuyerID:         buyer.UserID,
		Kind:            domain.ProductKindSignal,
		Amount:          1000,
		PurchasedMonths: 1,
	})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestSettlementEnqueuesOutboxEvent(t *testing.T) {
	env := newTestEnv(t, Config{})
	referrer := env.createUser(t, "ref@example.com", "")
	buyer := env.createUser(t, "buyer@example.com", referrer.ReferralCode)
	env.settleOrder(t, buyer, domain.ProductKindSignal, 1000, 1)

	records := env.repos.Outbox.Records()
	found := false
	for _, rec := range records {
		if rec.EventType == domain.EventOrderSettled && rec.PartitionKey == buyer.UserID.String() {
			found = true
			if len(rec.Payload) == 0 {
				t.Error("settlement event must carry a payload envelope")
			}
		}
	}
	if !found {
		t.Fatalf("no %s outbox record found in %d records", domain.EventOrderSettled, len(records))
	}
}
