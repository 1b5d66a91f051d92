package session

import (
	"sync"

	"go.uber.org/zap"
)

// DefaultSessionCap bounds the number of concurrently tracked sessions.
const DefaultSessionCap = 200

// Store is a bounded mapping of session key to session state. Sessions are
// created lazily and evicted oldest-first at capacity; explicit clearing is
// driven by the host (the store never infers session end on its own).
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	cap      int
	chainCap int
	logger   *zap.Logger
}

// NewStore creates a store holding at most cap sessions, each with a tool
// chain bounded at chainCap entries. Zero values select the defaults.
func NewStore(cap, chainCap int, logger *zap.Logger) *Store {
	if cap <= 0 {
		cap = DefaultSessionCap
	}
	if chainCap <= 0 {
		chainCap = DefaultChainCap
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		sessions: make(map[string]*Session),
		cap:      cap,
		chainCap: chainCap,
		logger:   logger,
	}
}

// Get returns the session for the key, or nil if none is tracked.
func (st *Store) Get(key string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.sessions[key]
}

// GetOrCreate returns the tracked session for the key, creating one when
// absent. At capacity the session with the smallest StartedAt is evicted
// before inserting.
func (st *Store) GetOrCreate(key, runID string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	if s, ok := st.sessions[key]; ok {
		return s
	}

	if len(st.sessions) >= st.cap {
		st.evictOldestLocked()
	}

	s := newSession(key, runID, st.chainCap)
	st.sessions[key] = s
	return s
}

// Clear drops a session's state entirely.
func (st *Store) Clear(key string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, key)
}

// Len returns the number of tracked sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

func (st *Store) evictOldestLocked() {
	var oldestKey string
	var oldest *Session
	for key, s := range st.sessions {
		if oldest == nil || s.StartedAt.Before(oldest.StartedAt) {
			oldestKey, oldest = key, s
		}
	}
	if oldest == nil {
		return
	}
	delete(st.sessions, oldestKey)
	st.logger.Debug("evicted oldest session at capacity",
		zap.String("session_key", oldestKey),
		zap.Time("started_at", oldest.StartedAt),
	)
}
