package checkout

import (
	"checkout-builder/internal/apperr"
	"checkout-builder/internal/config"
	"checkout-builder/internal/model"
	"context"
	"sync"
	"time"
)

// Manager owns the live checkout sessions of the process. Sessions idle for
// longer than the configured TTL are closed by Sweep.
type Manager struct {
	cfg  config.Checkout
	deps Deps
	now  func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool
}

func NewManager(cfg config.Checkout, deps Deps) *Manager {
	return &Manager{
		cfg:      cfg,
		deps:     deps,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Start opens a session on a snapshot of merchant.
func (m *Manager) Start(merchant *model.Merchant) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, apperr.ConflictErr("Checkout is shutting down.")
	}

	s := newSession(merchant, m.cfg, m.deps, m.now)
	m.sessions[s.id] = s
	m.deps.Logger.Debug("checkout session started", "session_id", s.id, "merchant_id", merchant.ID)
	return s, nil
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()

	if !ok {
		return nil, apperr.NotFoundErr("Checkout session not found.")
	}
	return s, nil
}

// Remove closes and forgets a session.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		s.Close()
	}
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep closes sessions idle for longer than the TTL and returns how many
// were removed.
func (m *Manager) Sweep() int {
	if m.cfg.SessionTTL <= 0 {
		return 0
	}
	deadline := m.now().Add(-m.cfg.SessionTTL)

	var expired []*Session
	m.mu.Lock()
	for id, s := range m.sessions {
		if s.idleBefore(deadline) {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		s.Close()
	}
	if len(expired) > 0 {
		m.deps.Logger.Info("expired checkout sessions", "count", len(expired))
	}
	return len(expired)
}

// Run sweeps periodically until ctx is done.
func (m *Manager) Run(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// Close closes every session and rejects new ones.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
