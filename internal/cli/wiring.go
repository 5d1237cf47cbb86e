package cli

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"

	"scenario-quiz-service/internal/app"
	"scenario-quiz-service/internal/config"
	"scenario-quiz-service/internal/infra/file"
	"scenario-quiz-service/internal/infra/memory"
	"scenario-quiz-service/internal/infra/postgres"
	"scenario-quiz-service/internal/infra/remote"
	infraredis "scenario-quiz-service/internal/infra/redis"
	"scenario-quiz-service/internal/infra/sqlite"
	"scenario-quiz-service/internal/progress"
)

// stack is every adapter a command needs, built from config.
type stack struct {
	quizzes  app.QuizRepository
	sessions app.SessionRepository
	remote   progress.RemoteStore
	gateway  *progress.Gateway
	closers  []func()
}

func (s *stack) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func (s *stack) service() *app.QuizService {
	return app.NewQuizService(s.sessions, s.quizzes, s.gateway, app.SessionOptions{})
}

func buildStack(ctx context.Context, cfg config.Config) (*stack, error) {
	s := &stack{}
	ok := false
	defer func() {
		if !ok {
			s.Close()
		}
	}()

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		s.closers = append(s.closers, func() { _ = redisClient.Close() })
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		var err error
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		s.closers = append(s.closers, pool.Close)
	}

	var loader memory.QuizLoader
	switch {
	case pool != nil:
		loader = postgres.NewQuizLoader(pool)
	case cfg.Quiz.CatalogDir != "":
		loader = file.NewQuizLoader(cfg.Quiz.CatalogDir)
	default:
		loader = file.NewQuizLoader("config/quizzes")
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	if redisClient != nil {
		s.quizzes = infraredis.NewQuizRepository(redisClient, loader, quizTTL)
		s.sessions = infraredis.NewSessionStore(redisClient, redisTTL)
	} else {
		s.quizzes = memory.NewQuizRepository(loader, quizTTL)
		s.sessions = memory.NewSessionStore()
	}

	timeout := config.TTLDuration(cfg.Progress.Timeout, 5*time.Second)
	switch cfg.Progress.Remote {
	case "memory":
		s.remote = memory.NewProgressStore()
	case "redis":
		if redisClient == nil {
			return nil, fmt.Errorf("progress.remote=redis needs redis.addr")
		}
		s.remote = infraredis.NewProgressStore(redisClient, 0)
	case "postgres":
		if pool == nil {
			return nil, fmt.Errorf("progress.remote=postgres needs postgres.url")
		}
		s.remote = postgres.NewProgressStore(pool)
	case "http":
		if cfg.Progress.RemoteURL == "" {
			return nil, fmt.Errorf("progress.remote=http needs progress.remote_url")
		}
		s.remote = remote.NewProgressClient(cfg.Progress.RemoteURL, cfg.Server.AdminToken, timeout)
	default:
		return nil, fmt.Errorf("unknown progress.remote %q", cfg.Progress.Remote)
	}

	var local progress.LocalCache
	switch cfg.Progress.Local {
	case "memory":
		local = memory.NewLocalCache()
	case "sqlite":
		cache, err := sqlite.Open(cfg.Progress.SQLitePath, cfg.Progress.Namespace)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, func() { _ = cache.Close() })
		local = cache
	default:
		return nil, fmt.Errorf("unknown progress.local %q", cfg.Progress.Local)
	}

	s.gateway = progress.NewGateway(s.remote, local, timeout)
	log.Printf("progress: remote=%s local=%s timeout=%s", cfg.Progress.Remote, cfg.Progress.Local, timeout)
	ok = true
	return s, nil
}
