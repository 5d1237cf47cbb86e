package app

import (
	"context"
	"errors"
	"fmt"

	"scenario-quiz-service/internal/domain"
)

// SessionRepository abstracts where live sessions are kept (in-memory, Redis-marked, etc).
type SessionRepository interface {
	GetOrCreate(key domain.ProgressKey, create func() *QuizSession) *QuizSession
	Get(key domain.ProgressKey) (*QuizSession, bool)
	DeleteIfIdle(key domain.ProgressKey)
	Delete(key domain.ProgressKey)
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// ProgressStore is the gateway plus the administrative reset.
type ProgressStore interface {
	ProgressGateway
	Reset(ctx context.Context, key domain.ProgressKey) error
}

// QuizService resolves users to live sessions.
type QuizService struct {
	sessions SessionRepository
	quizzes  QuizRepository
	progress ProgressStore
	opts     SessionOptions
}

func NewQuizService(sessions SessionRepository, quizzes QuizRepository, progress ProgressStore, opts SessionOptions) *QuizService {
	return &QuizService{sessions: sessions, quizzes: quizzes, progress: progress, opts: opts}
}

// Open returns the user's live session for a quiz, creating and starting it on first use.
func (s *QuizService) Open(ctx context.Context, identity Identity, quizID string) (*QuizSession, error) {
	user, err := identity.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if user == "" {
		return nil, domain.ErrMissingIdentity
	}
	// users cannot open unknown quizzes
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if err := quiz.Validate(); err != nil {
		return nil, err
	}

	key := domain.ProgressKey{User: user, QuizID: quizID}
	session := s.sessions.GetOrCreate(key, func() *QuizSession {
		return NewQuizSession(user, quiz, s.progress, s.opts)
	})
	if session.Started() {
		return session, nil
	}
	err = session.Start(ctx)
	if errors.Is(err, domain.ErrConcurrentSubmission) {
		// another connection is starting it; its events reach every subscriber
		return session, nil
	}
	if err != nil {
		s.sessions.Delete(key)
		return nil, fmt.Errorf("start session %s: %w", key, err)
	}
	return session, nil
}

// Session looks up a live session without creating one.
func (s *QuizService) Session(user, quizID string) (*QuizSession, error) {
	session, ok := s.sessions.Get(domain.ProgressKey{User: user, QuizID: quizID})
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// Leave drops the session once nobody is watching it. Pending saves are flushed first.
func (s *QuizService) Leave(ctx context.Context, user, quizID string) {
	key := domain.ProgressKey{User: user, QuizID: quizID}
	session, ok := s.sessions.Get(key)
	if !ok {
		return
	}
	session.Flush(ctx)
	if session.Idle() {
		s.sessions.DeleteIfIdle(key)
	}
}

// Progress returns the stored snapshot for a user, or domain.ErrProgressNotFound.
func (s *QuizService) Progress(ctx context.Context, user, quizID string) (domain.ProgressSnapshot, error) {
	if user == "" {
		return domain.ProgressSnapshot{}, domain.ErrMissingIdentity
	}
	snap, _, err := s.progress.Load(ctx, domain.ProgressKey{User: user, QuizID: quizID})
	if err != nil {
		return domain.ProgressSnapshot{}, err
	}
	if snap == nil {
		return domain.ProgressSnapshot{}, domain.ErrProgressNotFound
	}
	return *snap, nil
}

// Reset wipes one user's progress and forgets any live session for it. A session that is mid-save
// when the reset lands can still write its snapshot back afterwards.
func (s *QuizService) Reset(ctx context.Context, user, quizID string) error {
	if user == "" {
		return domain.ErrMissingIdentity
	}
	key := domain.ProgressKey{User: user, QuizID: quizID}
	s.sessions.Delete(key)
	return s.progress.Reset(ctx, key)
}
