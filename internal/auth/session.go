package auth

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("session not found or expired")

type session struct {
	userID    int64
	expiresAt time.Time
}

// SessionManager issues opaque session tokens and maps them back to user
// IDs until they expire.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]session
	ttl      time.Duration

	stopCleanup chan struct{}
	cleanupDone chan struct{}
}

func NewSessionManager(ttl time.Duration) *SessionManager {
	sm := &SessionManager{
		sessions:    make(map[string]session),
		ttl:         ttl,
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}

	go sm.cleanupLoop()

	return sm
}

// Create issues a fresh token for the given user.
func (sm *SessionManager) Create(userID int64) string {
	token := uuid.New().String()

	sm.mu.Lock()
	sm.sessions[token] = session{
		userID:    userID,
		expiresAt: time.Now().Add(sm.ttl),
	}
	sm.mu.Unlock()

	return token
}

// Resolve returns the user ID behind a token, or ErrSessionNotFound.
func (sm *SessionManager) Resolve(token string) (int64, error) {
	sm.mu.RLock()
	s, ok := sm.sessions[token]
	sm.mu.RUnlock()

	if !ok || time.Now().After(s.expiresAt) {
		return 0, ErrSessionNotFound
	}
	return s.userID, nil
}

// Revoke invalidates a token. Revoking an unknown token is a no-op.
func (sm *SessionManager) Revoke(token string) {
	sm.mu.Lock()
	delete(sm.sessions, token)
	sm.mu.Unlock()
}

// Count returns the number of live sessions.
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

func (sm *SessionManager) cleanupLoop() {
	defer close(sm.cleanupDone)

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sm.cleanExpired()
		case <-sm.stopCleanup:
			return
		}
	}
}

func (sm *SessionManager) cleanExpired() {
	now := time.Now()

	sm.mu.Lock()
	for token, s := range sm.sessions {
		if now.After(s.expiresAt) {
			delete(sm.sessions, token)
		}
	}
	sm.mu.Unlock()
}

// Stop terminates the cleanup goroutine.
func (sm *SessionManager) Stop() {
	close(sm.stopCleanup)
	<-sm.cleanupDone
}
