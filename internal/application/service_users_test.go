package application

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tradepulse/settlement-service/internal/domain"
)

func TestCreateUserAssignsReferralCode(t *testing.T) {
	env := newTestEnv(t, Config{})

	user := env.createUser(t, "Somchai@Example.COM", "")
	if user.Email != "somchai@example.com" {
		t.Errorf("email must be normalized, got %q", user.Email)
	}
	if user.Role != domain.RoleMember {
		t.Errorf("new users start as member, got %q", user.Role)
	}
	if len(user.ReferralCode) != 8 {
		t.Errorf("expected an 8-char referral code, got %q", user.ReferralCode)
	}
	if user.ReferredBy != nil {
		t.Error("user without a referrer code must have no back-reference")
	}
}

func TestCreateUserResolvesReferrerCaseInsensitively(t *testing.T) {
	env := newTestEnv(t, Config{})
	referrer := env.createUser(t, "referrer@example.com", "")

	user, err := env.svc.CreateUser(context.Background(), adminActor(), CreateUserInput{
		Email:        "referee@example.com",
		Phone:        "+66801112222",
		ReferrerCode: "  " + strings.ToLower(referrer.ReferralCode) + "  ",
	})
	if err != nil {
		t.Fatalf("create referee: %v", err)
	}
	if user.ReferredBy == nil || *user.ReferredBy != referrer.UserID {
		t.Fatalf("expected back-reference to %s, got %v", referrer.UserID, user.ReferredBy)
	}
}

func TestCreateUserUnknownReferralCode(t *testing.T) {
	env := newTestEnv(t, Config{})
	_, err := env.svc.CreateUser(context.Background(), adminActor(), CreateUserInput{
		Email:        "orphan@example.com",
		Phone:        "+66801112222",
		ReferrerCode: "NOSUCHCD",
	})
	if !errors.Is(err, domain.ErrReferralCodeUnknown) {
		t.Fatalf("expected ErrReferralCodeUnknown, got %v", err)
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.createUser(t, "dup@example.com", "")
	_, err := env.svc.CreateUser(context.Background(), adminActor(), CreateUserInput{
		Email: "dup@example.com",
		Phone: "+66801112222",
	})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestCreateUserValidation(t *testing.T) {
	env := newTestEnv(t, Config{})
	ctx := context.Background()

	if _, err := env.svc.CreateUser(ctx, adminActor(), CreateUserInput{Email: "not-an-email", Phone: "+66801112222"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("bad email: expected ErrInvalidInput, got %v", err)
	}
	if _, err := env.svc.CreateUser(ctx, adminActor(), CreateUserInput{Email: "a@b.c", Phone: "  "}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("blank phone: expected ErrInvalidInput, got %v", err)
	}
	if _, err := env.svc.CreateUser(ctx, Actor{}, CreateUserInput{Email: "a@b.c", Phone: "+66801112222"}); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("no subject: expected ErrUnauthorized, got %v", err)
	}
}

func TestGetUserAccessControl(t *testing.T) {
	env := newTestEnv(t, Config{})
	ctx := context.Background()
	owner := env.createUser(t, "owner@example.com", "")
	other := env.createUser(t, "other@example.com", "")

	if _, err := env.svc.GetUser(ctx, memberActor(owner), owner.UserID); err != nil {
		t.Errorf("owner read: unexpected error %v", err)
	}
	if _, err := env.svc.GetUser(ctx, memberActor(other), owner.UserID); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("cross-user read: expected ErrForbidden, got %v", err)
	}
	if _, err := env.svc.GetUser(ctx, adminActor(), owner.UserID); err != nil {
		t.Errorf("admin read: unexpected error %v", err)
	}
}
