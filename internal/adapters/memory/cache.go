package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tradepulse/settlement-service/internal/ports"
)

// CodeStore is the in-memory stand-in for the Redis code store. Expiry is
// evaluated at read time against the stored deadline.
type CodeStore struct {
	mu    sync.Mutex
	codes map[uuid.UUID]storedCode
	nowFn func() time.Time
}

type storedCode struct {
	code      ports.WithdrawalCode
	expiresAt time.Time
}

func NewCodeStore(nowFn func() time.Time) *CodeStore {
	if nowFn == nil {
		nowFn = func() time.Time { return time.Now().UTC() }
	}
	return &CodeStore{codes: make(map[uuid.UUID]storedCode), nowFn: nowFn}
}

func (s *CodeStore) Put(_ context.Context, withdrawalID uuid.UUID, code ports.WithdrawalCode, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[withdrawalID] = storedCode{code: code, expiresAt: s.nowFn().Add(ttl)}
	return nil
}

func (s *CodeStore) Get(_ context.Context, withdrawalID uuid.UUID) (*ports.WithdrawalCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.codes[withdrawalID]
	if !ok || !stored.expiresAt.After(s.nowFn()) {
		return nil, nil
	}
	out := stored.code
	return &out, nil
}

func (s *CodeStore) Delete(_ context.Context, withdrawalID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.codes, withdrawalID)
	return nil
}

// DispatchLimiter counts sends per destination per window start.
type DispatchLimiter struct {
	mu     sync.Mutex
	counts map[string]*windowCount
	nowFn  func() time.Time
}

type windowCount struct {
	windowStart time.Time
	count       int
}

func NewDispatchLimiter(nowFn func() time.Time) *DispatchLimiter {
	if nowFn == nil {
		nowFn = func() time.Time { return time.Now().UTC() }
	}
	return &DispatchLimiter{counts: make(map[string]*windowCount), nowFn: nowFn}
}

func (l *DispatchLimiter) Allow(_ context.Context, destination string, limit int, window time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.nowFn()
	wc, ok := l.counts[destination]
	if !ok || now.Sub(wc.windowStart) >= window {
		wc = &windowCount{windowStart: now}
		l.counts[destination] = wc
	}
	wc.count++
	return wc.count <= limit, nil
}

// Notifier records dispatched codes for assertions.
type Notifier struct {
	mu    sync.Mutex
	sends []SentCode
	fail  error
}

type SentCode struct {
	Destination string
	Code        string
}

func NewNotifier() *Notifier {
	return &Notifier{}
}

func (n *Notifier) FailWith(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.fail = err
}

func (n *Notifier) SendWithdrawalCode(_ context.Context, destination, code string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail != nil {
		return n.fail
	}
	n.sends = append(n.sends, SentCode{Destination: destination, Code: code})
	return nil
}

func (n *Notifier) Sent() []SentCode {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]SentCode, len(n.sends))
	copy(out, n.sends)
	return out
}

// Publisher collects published events for assertions.
type Publisher struct {
	mu     sync.Mutex
	events []PublishedEvent
}

type PublishedEvent struct {
	EventType    string
	Payload      []byte
	PartitionKey string
}

func NewPublisher() *Publisher {
	return &Publisher{}
}

func (p *Publisher) Publish(_ context.Context, eventType string, payload []byte, partitionKey string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, PublishedEvent{EventType: eventType, Payload: payload, PartitionKey: partitionKey})
	return nil
}

func (p *Publisher) Events() []PublishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]PublishedEvent, len(p.events))
	copy(out, p.events)
	return out
}
