package memory

import (
	"context"
	"errors"
	"testing"

	"scenario-quiz-service/internal/domain"
)

func TestProgressStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewProgressStore()
	key := domain.ProgressKey{User: "alice", QuizID: "quiz-1"}

	if _, err := store.GetProgress(ctx, key); !errors.Is(err, domain.ErrProgressNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	payload := []byte(`{"experience":10}`)
	if err := store.SaveProgress(ctx, key, payload); err != nil {
		t.Fatalf("save: %v", err)
	}
	payload[2] = 'X'
	got, err := store.GetProgress(ctx, key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `{"experience":10}` {
		t.Fatalf("expected stored copy, got %s", got)
	}
	if err := store.ResetProgress(ctx, key); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if _, err := store.GetProgress(ctx, key); !errors.Is(err, domain.ErrProgressNotFound) {
		t.Fatalf("expected not found after reset, got %v", err)
	}
}

func TestLocalCacheDeleteMany(t *testing.T) {
	ctx := context.Background()
	cache := NewLocalCache()
	_ = cache.Set(ctx, "a", []byte("1"))
	_ = cache.Set(ctx, "b", []byte("2"))
	_ = cache.Set(ctx, "c", []byte("3"))

	if err := cache.Delete(ctx, "a", "b", "missing"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if cache.Has("a") || cache.Has("b") || !cache.Has("c") {
		t.Fatalf("unexpected cache contents after delete")
	}
}
