package service

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"busbooking/internal/domain"
)

type sessionEntry struct {
	mu       sync.Mutex
	session  *domain.BookingSession
	lastUsed atomic.Int64 // unix nanoseconds
	closed   bool
}

// SessionManager keeps the booking sessions of this process. Calls for one
// session run one at a time; different sessions never share state.
type SessionManager struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	sessions map[string]*sessionEntry
}

// NewSessionManager creates a SessionManager. Sessions idle for longer than
// ttl expire; zero disables expiry.
func NewSessionManager(ttl time.Duration) *SessionManager {
	return &SessionManager{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*sessionEntry),
	}
}

// Create starts a new session at Home.
func (m *SessionManager) Create() domain.BookingSession {
	now := m.now()
	sess := domain.NewBookingSession(uuid.New().String(), now)

	entry := &sessionEntry{session: sess}
	entry.lastUsed.Store(now.UnixNano())

	m.mu.Lock()
	m.sessions[sess.ID] = entry
	m.mu.Unlock()

	return sess.Snapshot()
}

// With runs fn on session id while holding that session's lock and returns
// the session as fn left it, even when fn fails.
func (m *SessionManager) With(id string, fn func(*domain.BookingSession) error) (domain.BookingSession, error) {
	entry, err := m.lookup(id)
	if err != nil {
		return domain.BookingSession{}, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.closed {
		return domain.BookingSession{}, ErrSessionNotFound
	}

	fnErr := fn(entry.session)
	now := m.now()
	entry.session.UpdatedAt = now
	entry.lastUsed.Store(now.UnixNano())
	return entry.session.Snapshot(), fnErr
}

// Get returns a snapshot of session id.
func (m *SessionManager) Get(id string) (domain.BookingSession, error) {
	return m.With(id, func(*domain.BookingSession) error { return nil })
}

// Delete discards session id.
func (m *SessionManager) Delete(id string) error {
	m.mu.Lock()
	entry, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	entry.mu.Lock()
	entry.closed = true
	entry.mu.Unlock()
	return nil
}

// Len returns the number of live sessions.
func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep drops expired sessions and returns how many were removed.
func (m *SessionManager) Sweep() int {
	if m.ttl <= 0 {
		return 0
	}
	now := m.now()

	m.mu.Lock()
	var expired []*sessionEntry
	for id, entry := range m.sessions {
		if m.expired(entry, now) {
			expired = append(expired, entry)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, entry := range expired {
		entry.mu.Lock()
		entry.closed = true
		entry.mu.Unlock()
	}
	return len(expired)
}

// SweepEvery runs Sweep on every tick until ctx is done.
func (m *SessionManager) SweepEvery(ctx context.Context, interval time.Duration) {
	if interval <= 0 || m.ttl <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				log.Printf("[SESSION] Expired %d idle sessions", n)
			}
		}
	}
}

func (m *SessionManager) lookup(id string) (*sessionEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if m.expired(entry, m.now()) {
		delete(m.sessions, id)
		return nil, ErrSessionNotFound
	}
	return entry, nil
}

func (m *SessionManager) expired(entry *sessionEntry, now time.Time) bool {
	return m.ttl > 0 && now.Sub(time.Unix(0, entry.lastUsed.Load())) > m.ttl
}
