package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestActivationWindowFreshGrant(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	start, end := ActivationWindow(nil, now, 3)
	if !start.Equal(now) {
		t.Errorf("fresh grant starts now, got %v", start)
	}
	if !end.Equal(now.AddDate(0, 3, 0)) {
		t.Errorf("fresh grant ends 3 months out, got %v", end)
	}
}

func TestActivationWindowExtendsActiveFromItsEnd(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	current := &Entitlement{
		EntitlementID: uuid.New(),
		Status:        EntitlementStatusActive,
		StartsAt:      now.AddDate(0, -1, 0),
		EndsAt:        now.AddDate(0, 2, 0),
	}
	start, end := ActivationWindow(current, now, 3)
	if !start.Equal(current.StartsAt) {
		t.Errorf("renewal keeps the original start, got %v", start)
	}
	if !end.Equal(current.EndsAt.AddDate(0, 3, 0)) {
		t.Errorf("renewal extends from the current end, got %v", end)
	}
}

func TestActivationWindowRestartsExpired(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	lapsed := &Entitlement{
		EntitlementID: uuid.New(),
		Status:        EntitlementStatusActive,
		StartsAt:      now.AddDate(0, -6, 0),
		EndsAt:        now.AddDate(0, -2, 0),
	}
	start, end := ActivationWindow(lapsed, now, 2)
	if !start.Equal(now) {
		t.Errorf("lapsed entitlement restarts now, got %v", start)
	}
	if !end.Equal(now.AddDate(0, 2, 0)) {
		t.Errorf("lapsed entitlement ends 2 months out, got %v", end)
	}
}

func TestActiveAtBoundary(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	e := Entitlement{Status: EntitlementStatusActive, EndsAt: now}
	if e.ActiveAt(now) {
		t.Error("an entitlement ending exactly now is no longer active")
	}
	e.EndsAt = now.Add(time.Second)
	if !e.ActiveAt(now) {
		t.Error("an entitlement ending after now is active")
	}
	e.Status = EntitlementStatusExpired
	if e.ActiveAt(now) {
		t.Error("an expired entitlement is never active")
	}
}
