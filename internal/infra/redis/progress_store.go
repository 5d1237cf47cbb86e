package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"scenario-quiz-service/internal/domain"
)

// ProgressStore keeps snapshot documents in Redis: SET quiz:progress:{user}:{quizID} {json}.
// A zero ttl keeps records until they are reset.
type ProgressStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewProgressStore(client *redis.Client, ttl time.Duration) *ProgressStore {
	return &ProgressStore{client: client, ttl: ttl}
}

func (s *ProgressStore) SaveProgress(ctx context.Context, key domain.ProgressKey, payload []byte) error {
	if err := s.client.Set(ctx, s.key(key), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis save progress %s: %w", key, err)
	}
	return nil
}

func (s *ProgressStore) GetProgress(ctx context.Context, key domain.ProgressKey) ([]byte, error) {
	raw, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrProgressNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get progress %s: %w", key, err)
	}
	return raw, nil
}

func (s *ProgressStore) ResetProgress(ctx context.Context, key domain.ProgressKey) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redis reset progress %s: %w", key, err)
	}
	return nil
}

func (s *ProgressStore) key(key domain.ProgressKey) string {
	return "quiz:progress:" + key.User + ":" + key.QuizID
}
