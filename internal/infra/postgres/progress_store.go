package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"scenario-quiz-service/internal/domain"
)

// ProgressStore is the authoritative progress store: one JSONB document per user and quiz.
type ProgressStore struct {
	pool *pgxpool.Pool
}

func NewProgressStore(pool *pgxpool.Pool) *ProgressStore {
	return &ProgressStore{pool: pool}
}

func (s *ProgressStore) SaveProgress(ctx context.Context, key domain.ProgressKey, payload []byte) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO quiz_progress (user_id, quiz_id, data) VALUES ($1, $2, $3::jsonb)
		 ON CONFLICT (user_id, quiz_id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		key.User, key.QuizID, string(payload))
	if err != nil {
		return fmt.Errorf("save progress %s: %w", key, err)
	}
	return nil
}

func (s *ProgressStore) GetProgress(ctx context.Context, key domain.ProgressKey) ([]byte, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM quiz_progress WHERE user_id=$1 AND quiz_id=$2`,
		key.User, key.QuizID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrProgressNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get progress %s: %w", key, err)
	}
	return raw, nil
}

func (s *ProgressStore) ResetProgress(ctx context.Context, key domain.ProgressKey) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM quiz_progress WHERE user_id=$1 AND quiz_id=$2`,
		key.User, key.QuizID)
	if err != nil {
		return fmt.Errorf("reset progress %s: %w", key, err)
	}
	return nil
}
