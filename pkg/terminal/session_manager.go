package terminal

import (
	"fmt"
	"sync"
	"time"

	"github.com/antibyte/templecode/pkg/configuration"
	"github.com/antibyte/templecode/pkg/logger"
)

// getMaxSessions liefert die maximale Anzahl gleichzeitiger Sessions.
func getMaxSessions() int {
	return configuration.GetInt("Network", "max_sessions", 100)
}

// RateLimitInfo speichert Rate-Limiting-Informationen pro IP
type RateLimitInfo struct {
	requests  int
	lastReset time.Time
}

// SessionManager verwaltet aktive Interpreter-Sessions.
type SessionManager struct {
	sessions   map[string]*Session       // sessionID -> Session
	rateLimits map[string]*RateLimitInfo // ipAddress -> RateLimitInfo
	mu         sync.RWMutex
}

// NewSessionManager erstellt einen neuen SessionManager
func NewSessionManager() *SessionManager {
	return &SessionManager{
		sessions:   make(map[string]*Session),
		rateLimits: make(map[string]*RateLimitInfo),
	}
}

// Add registriert eine neue Session.
func (sm *SessionManager) Add(sessionID string, s *Session) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.sessions[sessionID] = s
	logger.SessionInfo("session added: %s (%d active)", sessionID, len(sm.sessions))
}

// Remove entfernt eine Session und schließt ihren Sende-Kanal.
func (sm *SessionManager) Remove(sessionID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if s, exists := sm.sessions[sessionID]; exists {
		// Channel sicher schließen
		select {
		case <-s.send:
			// Channel bereits geschlossen
		default:
			close(s.send)
		}
		delete(sm.sessions, sessionID)
		logger.SessionInfo("session removed: %s (%d active)", sessionID, len(sm.sessions))
	}
}

// Get liefert die Session zu einer ID.
func (sm *SessionManager) Get(sessionID string) (*Session, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	s, ok := sm.sessions[sessionID]
	return s, ok
}

// Count gibt die Anzahl aktiver Sessions zurück.
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// UpdateActivity aktualisiert die letzte Aktivität einer Session.
func (sm *SessionManager) UpdateActivity(sessionID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if s, exists := sm.sessions[sessionID]; exists {
		s.lastActivity = time.Now()
	}
}

// IdleSessions liefert die IDs aller Sessions, die länger als maxIdle
// keine Aktivität hatten.
func (sm *SessionManager) IdleSessions(maxIdle time.Duration) []string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	cutoff := time.Now().Add(-maxIdle)
	var idle []string
	for id, s := range sm.sessions {
		if s.lastActivity.Before(cutoff) {
			idle = append(idle, id)
		}
	}
	return idle
}

// CheckRateLimit prüft das Rate-Limiting für eine IP-Adresse
func (sm *SessionManager) CheckRateLimit(ipAddress string) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	now := time.Now()

	// Initialisiere Rate-Limit-Eintrag wenn nicht vorhanden
	if _, exists := sm.rateLimits[ipAddress]; !exists {
		sm.rateLimits[ipAddress] = &RateLimitInfo{
			requests:  0,
			lastReset: now,
		}
	}

	rateLimit := sm.rateLimits[ipAddress]

	// Reset Zähler wenn mehr als eine Minute vergangen ist
	if now.Sub(rateLimit.lastReset) > time.Minute {
		rateLimit.requests = 0
		rateLimit.lastReset = now
	}
	rateLimit.requests++

	limit := configuration.GetInt("Network", "max_connects_per_minute", 60)
	if rateLimit.requests > limit {
		logger.SecurityWarn("rate limit exceeded for IP %s: %d requests in last minute", ipAddress, rateLimit.requests)
		return fmt.Errorf("rate limit exceeded: too many requests from %s", ipAddress)
	}

	return nil
}
