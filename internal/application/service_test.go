package application

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/tradepulse/settlement-service/internal/adapters/memory"
	"github.com/tradepulse/settlement-service/internal/domain"
)

// fakeClock lets tests drive the service's notion of now deterministically.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type testEnv struct {
	svc      *Service
	repos    *memory.Repositories
	codes    *memory.CodeStore
	limiter  *memory.DispatchLimiter
	notifier *memory.Notifier
	clock    *fakeClock
}

func newTestEnv(t *testing.T, cfg Config) *testEnv {
	t.Helper()
	clock := newFakeClock()
	repos := memory.NewRepositories(nil)
	codes := memory.NewCodeStore(clock.Now)
	limiter := memory.NewDispatchLimiter(clock.Now)
	notifier := memory.NewNotifier()

	svc := NewService(Dependencies{
		Config:       cfg,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		Users:        repos.Users,
		Orders:       repos.Orders,
		Commissions:  repos.Commissions,
		Entitlements: repos.Entitlements,
		Withdrawals:  repos.Withdrawals,
		Idempotency:  repos.Idempotency,
		Outbox:       repos.Outbox,
		Codes:        codes,
		Limiter:      limiter,
		Notifier:     notifier,
	})
	svc.nowFn = clock.Now

	return &testEnv{
		svc:      svc,
		repos:    repos,
		codes:    codes,
		limiter:  limiter,
		notifier: notifier,
		clock:    clock,
	}
}

func adminActor() Actor {
	return Actor{SubjectID: uuid.NewString(), Role: domain.RoleAdmin, RequestID: uuid.NewString()}
}

func memberActor(user domain.User) Actor {
	return Actor{SubjectID: user.UserID.String(), Role: domain.RoleMember, RequestID: uuid.NewString()}
}

// createUser registers a user through the service so referral codes and
// back-references are produced the same way production requests produce them.
func (e *testEnv) createUser(t *testing.T, email, referrerCode string) domain.User {
	t.Helper()
	user, err := e.svc.CreateUser(context.Background(), adminActor(), CreateUserInput{
		Email:        email,
		Phone:        "+6680" + uuid.NewString()[:7],
		ReferrerCode: referrerCode,
	})
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return user
}

// settleOrder creates and settles an order for the buyer, returning the
// distribution summary.
func (e *testEnv) settleOrder(t *testing.T, buyer domain.User, kind domain.ProductKind, amount int64, months int) SettleOrderOutput {
	t.Helper()
	ctx := context.Background()
	admin := adminActor()
	order, err := e.svc.CreateOrder(ctx, admin, CreateOrderInput{
		BuyerID:         buyer.UserID,
		Kind:            kind,
		Amount:          amount,
		PurchasedMonths: months,
	})
	if err != nil {
		t.Fatalf("create %s order: %v", kind, err)
	}
	out, err := e.svc.SettleOrder(ctx, admin, order.OrderID)
	if err != nil {
		t.Fatalf("settle %s order: %v", kind, err)
	}
	return out
}

// makeEligible settles one signal and one partner purchase for the user so
// the withdrawal dual-entitlement gate passes.
func (e *testEnv) makeEligible(t *testing.T, user domain.User) {
	t.Helper()
	e.settleOrder(t, user, domain.ProductKindSignal, 1000, 1)
	e.settleOrder(t, user, domain.ProductKindPartner, 5000, 1)
}

// fundBalance settles signal orders bought by fresh referees of the user,
// crediting the user one full level-1 pool per order.
func (e *testEnv) fundBalance(t *testing.T, user domain.User, orders int) {
	t.Helper()
	for i := 0; i < orders; i++ {
		buyer := e.createUser(t, uuid.NewString()+"@referee.test", user.ReferralCode)
		e.settleOrder(t, buyer, domain.ProductKindSignal, 1000, 1)
	}
}

func testDestination() domain.BankDestination {
	return domain.BankDestination{
		BankName:      "Kasikorn",
		AccountName:   "Somchai J.",
		AccountNumber: "1234567890",
	}
}
