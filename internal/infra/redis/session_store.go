package redis

import (
	"context"
	"sync"
	"time"

	"countdown-quiz/internal/app"
	"github.com/redis/go-redis/v9"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Sessions hold timers and subscribers, so they stay in a local map; Redis
// only carries a liveness marker per session for other instances and ops
// tooling. The marker lives for the session's remaining countdown plus slack.
type SessionStore struct {
	client   *redis.Client
	slack    time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore(client *redis.Client, slack time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		slack:    slack,
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Put(session *app.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID()] = session
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(session.ID()), session.QuizID(), s.markerTTL(session)).Err()
}

func (s *SessionStore) Get(sessionID string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	return session, ok
}

func (s *SessionStore) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return
	}
	delete(s.sessions, sessionID)
	_ = s.client.Del(context.Background(), s.key(sessionID)).Err()
}

func (s *SessionStore) markerTTL(session *app.Session) time.Duration {
	return time.Duration(session.Remaining())*time.Second + s.slack
}

func (s *SessionStore) key(sessionID string) string {
	return "quiz:session:" + sessionID
}
