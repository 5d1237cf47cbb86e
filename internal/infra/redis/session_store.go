package redis

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"scenario-quiz-service/internal/app"
	"scenario-quiz-service/internal/domain"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Sessions stay in process so their event fan-out keeps working; Redis only carries a liveness
// marker per user and quiz, which lets operators see who is mid-quiz across instances.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[domain.ProgressKey]*app.QuizSession
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[domain.ProgressKey]*app.QuizSession),
	}
}

func (s *SessionStore) GetOrCreate(key domain.ProgressKey, create func() *app.QuizSession) *app.QuizSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[key]; ok {
		return session
	}
	session := create()
	s.sessions[key] = session
	// best-effort liveness marker
	if err := s.client.Set(context.Background(), s.key(key), session.ID(), s.ttl).Err(); err != nil {
		log.Printf("session store: mark %s: %v", key, err)
	}
	return session
}

func (s *SessionStore) Get(key domain.ProgressKey) (*app.QuizSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[key]
	return session, ok
}

func (s *SessionStore) DeleteIfIdle(key domain.ProgressKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[key]
	if !ok {
		return
	}
	if session.Idle() {
		s.deleteLocked(key)
	}
}

func (s *SessionStore) Delete(key domain.ProgressKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteLocked(key)
}

func (s *SessionStore) deleteLocked(key domain.ProgressKey) {
	delete(s.sessions, key)
	_ = s.client.Del(context.Background(), s.key(key)).Err()
}

func (s *SessionStore) key(key domain.ProgressKey) string {
	return "quiz:session:" + key.QuizID + ":" + key.User
}
