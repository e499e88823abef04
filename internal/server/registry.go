package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yuya1213/dental-clinic-app/internal/submission"
)

// FlowFactory builds a fresh flow with the given document id. onChange must
// be passed through to the flow's options.
type FlowFactory func(id string, onChange func(*submission.Flow)) *submission.Flow

// Sessions maps bearer tokens to submission flows and publishes every flow
// change to the broker. Idle flows are dropped after ttl.
type Sessions struct {
	newFlow FlowFactory
	ttl     time.Duration
	logger  *slog.Logger
	broker  *Broker

	mu    sync.RWMutex
	flows map[string]*submission.Flow

	closeOnce sync.Once
	closed    chan struct{}
}

func NewSessions(newFlow FlowFactory, ttl time.Duration, logger *slog.Logger) *Sessions {
	return &Sessions{
		newFlow: newFlow,
		ttl:     ttl,
		logger:  logger,
		broker:  NewBroker(),
		flows:   make(map[string]*submission.Flow),
		closed:  make(chan struct{}),
	}
}

// Close ends every open event stream. Sessions stay usable otherwise.
func (s *Sessions) Close() {
	s.closeOnce.Do(func() { close(s.closed) })
}

// Create starts a flow and returns its token. The token is secret; the
// flow's id is not.
func (s *Sessions) Create() (string, *submission.Flow) {
	token := uuid.NewString()
	f := s.newFlow(uuid.NewString(), s.publish)

	s.mu.Lock()
	s.flows[token] = f
	s.mu.Unlock()

	s.logger.Info("session started", "session", f.ID())
	return token, f
}

func (s *Sessions) Get(token string) (*submission.Flow, error) {
	s.mu.RLock()
	f, ok := s.flows[token]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return f, nil
}

func (s *Sessions) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.flows)
}

func (s *Sessions) publish(f *submission.Flow) {
	s.broker.Publish(f.ID(), SessionEvent{Type: "state", Session: f.Snapshot()})
}

// Sweep drops flows idle since before now-ttl. Flows that are submitting
// or exporting are kept until they settle.
func (s *Sessions) Sweep(now time.Time) int {
	cutoff := now.Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for token, f := range s.flows {
		switch f.State() {
		case submission.Submitting, submission.Exporting:
			continue
		}
		if f.LastActive().Before(cutoff) {
			delete(s.flows, token)
			n++
		}
	}
	return n
}

// Run sweeps periodically until ctx is done.
func (s *Sessions) Run(ctx context.Context) error {
	interval := s.ttl / 4
	if interval < time.Second {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-t.C:
			if n := s.Sweep(now); n > 0 {
				s.logger.Info("expired idle sessions", "count", n, "remaining", s.Len())
			}
		}
	}
}
