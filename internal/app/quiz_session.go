package app

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"scenario-quiz-service/internal/domain"
	"scenario-quiz-service/internal/engine"
	"scenario-quiz-service/internal/progress"
)

// ProgressGateway is the persistence port a session saves through.
type ProgressGateway interface {
	Save(ctx context.Context, key domain.ProgressKey, snap domain.ProgressSnapshot) (progress.SaveResult, error)
	Load(ctx context.Context, key domain.ProgressKey) (*domain.ProgressSnapshot, progress.Source, error)
	Clear(ctx context.Context, key domain.ProgressKey) error
}

const catalogNotice = "This quiz is temporarily unavailable. Please try again later."

// QuizSession drives one user through one quiz. Triggers are serialized by a busy flag: a trigger that
// arrives while another is running is rejected with domain.ErrConcurrentSubmission.
type QuizSession struct {
	key       domain.ProgressKey
	quiz      domain.Quiz
	gateway   ProgressGateway
	score     engine.ScoreModel
	policy    *engine.Policy
	evaluator *engine.Evaluator
	presenter *engine.Presenter
	now       func() time.Time

	busy atomic.Bool

	mu          sync.Mutex
	id          string
	started     bool
	state       domain.Status
	player      domain.PlayerSession
	current     *domain.Scenario
	presentedAt time.Time
	evaluation  engine.Evaluation
	pending     chan struct{}
	subscribers map[chan domain.Event]struct{}
	last        *domain.Event
}

// SessionOptions carries the collaborators of a session; zero values get defaults.
type SessionOptions struct {
	Presenter *engine.Presenter
	Clock     func() time.Time
}

// NewQuizSession prepares a session; nothing is loaded until Start.
func NewQuizSession(user string, quiz domain.Quiz, gateway ProgressGateway, opts SessionOptions) *QuizSession {
	quiz = quiz.Normalized()
	score := engine.NewScoreModel(quiz.Config)
	policy := engine.NewPolicy(quiz, score)
	if opts.Presenter == nil {
		opts.Presenter = engine.NewPresenter(nil)
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &QuizSession{
		key:         domain.ProgressKey{User: user, QuizID: quiz.ID},
		quiz:        quiz,
		gateway:     gateway,
		score:       score,
		policy:      policy,
		evaluator:   engine.NewEvaluator(quiz.Config, policy, score),
		presenter:   opts.Presenter,
		now:         opts.Clock,
		id:          uuid.NewString(),
		subscribers: make(map[chan domain.Event]struct{}),
	}
}

// Start loads saved progress and presents the next scenario, or the end screen for a finished run.
func (s *QuizSession) Start(ctx context.Context) error {
	if s.key.User == "" {
		return domain.ErrMissingIdentity
	}
	if !s.busy.CompareAndSwap(false, true) {
		return domain.ErrConcurrentSubmission
	}
	defer s.busy.Store(false)

	snap, source, err := s.gateway.Load(ctx, s.key)
	if err != nil {
		return fmt.Errorf("load progress: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = true
	s.player = domain.PlayerSession{}
	if snap != nil {
		log.Printf("session %s: resuming %s from %s with %d answers", s.id, s.key, source, len(snap.QuestionHistory))
		if snap.SessionID != "" {
			s.id = snap.SessionID
		}
		s.player = snap.Session(s.quiz.Scenario)
		if s.player.Experience > s.quiz.Config.MaxXP {
			s.player.Experience = s.quiz.Config.MaxXP
		}
		if snap.Status.Terminal() {
			ev := s.evaluator.Evaluate(s.player)
			ev.Status, ev.Reason = snap.Status, snap.FailureReason
			ev.RetryAllowed = s.evaluator.RetryAllowed(snap.Status)
			s.finishLocked(ctx, ev, false)
			return nil
		}
	}
	return s.advanceLocked(ctx, engine.TriggerStart)
}

// Answer records the option at originalIndex of the current scenario. The save it triggers runs in the
// background and is awaited before the next progression decision.
func (s *QuizSession) Answer(ctx context.Context, originalIndex int) (domain.OutcomeView, error) {
	if !s.busy.CompareAndSwap(false, true) {
		return domain.OutcomeView{}, domain.ErrConcurrentSubmission
	}
	defer s.busy.Store(false)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.expectQuestionLocked(); err != nil {
		return domain.OutcomeView{}, err
	}
	opt, err := engine.Resolve(*s.current, originalIndex)
	if err != nil {
		return domain.OutcomeView{}, err
	}
	spent := s.now().Sub(s.presentedAt)
	if limit := s.timeLimit(); limit > 0 && spent > limit {
		return s.recordLocked(ctx, engine.TimedOutOption(), -1, spent, true), nil
	}
	return s.recordLocked(ctx, opt, originalIndex, spent, false), nil
}

// Timeout records that the current scenario went unanswered.
func (s *QuizSession) Timeout(ctx context.Context) (domain.OutcomeView, error) {
	if !s.busy.CompareAndSwap(false, true) {
		return domain.OutcomeView{}, domain.ErrConcurrentSubmission
	}
	defer s.busy.Store(false)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.expectQuestionLocked(); err != nil {
		return domain.OutcomeView{}, err
	}
	return s.recordLocked(ctx, engine.TimedOutOption(), -1, s.now().Sub(s.presentedAt), true), nil
}

// Continue leaves the outcome screen: next scenario, or the end screen.
func (s *QuizSession) Continue(ctx context.Context) error {
	if !s.busy.CompareAndSwap(false, true) {
		return domain.ErrConcurrentSubmission
	}
	defer s.busy.Store(false)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != domain.StatusAwaitingNext {
		return fmt.Errorf("%w: continue from %s", domain.ErrInvalidTransition, s.state)
	}
	return s.advanceLocked(ctx, engine.TriggerContinue)
}

// Restart begins a fresh run after a terminal state when the retry policy allows it.
// A refused restart writes nothing, so the finished record stays intact.
func (s *QuizSession) Restart(ctx context.Context) error {
	if !s.busy.CompareAndSwap(false, true) {
		return domain.ErrConcurrentSubmission
	}
	defer s.busy.Store(false)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := engine.Next(s.state, engine.TriggerRestart, s.evaluation); err != nil {
		return err
	}
	s.waitPendingLocked(context.WithoutCancel(ctx))

	s.id = uuid.NewString()
	s.player = domain.PlayerSession{}
	s.evaluation = engine.Evaluation{}
	log.Printf("session %s: restarting %s", s.id, s.key)

	snap := domain.NewSnapshot(s.key, s.id, s.player, domain.StatusInProgress, domain.FailureNone, "", 0, s.now())
	if _, err := s.gateway.Save(ctx, s.key, snap); err != nil {
		log.Printf("session %s: restart save degraded: %v", s.id, err)
	}
	return s.advanceLocked(ctx, engine.TriggerStart)
}

// State returns the current lifecycle status.
func (s *QuizSession) State() domain.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Started reports whether Start has completed once.
func (s *QuizSession) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// ID is the run identifier, regenerated on restart.
func (s *QuizSession) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Key identifies the persisted record.
func (s *QuizSession) Key() domain.ProgressKey {
	return s.key
}

// Player returns a copy of the in-memory session.
func (s *QuizSession) Player() domain.PlayerSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.player.Clone()
}

// Snapshot projects the current state as it would be persisted.
func (s *QuizSession) Snapshot() domain.ProgressSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Flush waits for an in-flight background save.
func (s *QuizSession) Flush(ctx context.Context) {
	s.mu.Lock()
	pending := s.pending
	s.mu.Unlock()
	if pending == nil {
		return
	}
	select {
	case <-pending:
	case <-ctx.Done():
	}
}

func (s *QuizSession) expectQuestionLocked() error {
	if !s.started {
		return fmt.Errorf("%w: session not started", domain.ErrInvalidTransition)
	}
	if s.state != domain.StatusInProgress || s.current == nil {
		return fmt.Errorf("%w: answer from %s", domain.ErrInvalidTransition, s.state)
	}
	return nil
}

func (s *QuizSession) timeLimit() time.Duration {
	return time.Duration(s.quiz.Config.TimeLimitSeconds) * time.Second
}

func (s *QuizSession) recordLocked(ctx context.Context, opt domain.Option, idx int, spent time.Duration, timedOut bool) domain.OutcomeView {
	scenario := *s.current
	before := s.player

	next := s.score.Apply(before, opt)
	next.QuestionHistory = append(next.QuestionHistory, domain.AnswerRecord{
		Scenario:       scenario,
		SelectedAnswer: opt,
		SelectedIndex:  idx,
		TimeSpent:      spent,
		TimedOut:       timedOut,
	})
	s.player = next
	s.state, _ = engine.Next(s.state, engine.TriggerAnswer, s.evaluation)
	s.current = nil

	correct := !timedOut && engine.IsCorrect(scenario, opt)
	observeAnswer(correct, timedOut)

	outcome := domain.OutcomeView{
		ScenarioID: scenario.ID,
		Selected:   opt,
		ScoreDelta: next.Experience - before.Experience,
		Correct:    correct,
		TimedOut:   timedOut,
		Experience: next.Experience,
	}
	if opt.Tool != "" && !before.HasTool(opt.Tool) {
		outcome.ToolAcquired = opt.Tool
	}

	s.saveAsyncLocked(ctx, s.snapshotLocked())
	s.broadcastLocked(domain.Event{Type: domain.EventOutcome, SessionID: s.id, Outcome: &outcome})
	return outcome
}

// advanceLocked makes the next progression decision, only after any pending save has finished.
func (s *QuizSession) advanceLocked(ctx context.Context, trigger engine.Trigger) error {
	s.waitPendingLocked(ctx)

	ev := s.evaluator.Evaluate(s.player)
	next, err := engine.Next(s.state, trigger, ev)
	if err != nil {
		return err
	}
	if next.Terminal() {
		s.finishLocked(ctx, ev, true)
		return nil
	}

	scenario, ok := ev.Active.Current()
	if !ok {
		ev.Status, ev.Reason = domain.StatusFailed, domain.FailureCatalog
		ev.RetryAllowed = s.evaluator.RetryAllowed(ev.Status)
		s.finishLocked(ctx, ev, true)
		return nil
	}
	s.evaluation = ev
	s.state = domain.StatusInProgress
	s.player.CurrentScenarioIndex = ev.Active.Index
	s.current = &scenario
	s.presentedAt = s.now()

	view := domain.ScenarioView{
		QuizID:           s.quiz.ID,
		Level:            ev.Active.Level,
		Index:            ev.Active.Index,
		Number:           s.player.Answered() + 1,
		Total:            s.quiz.Config.TotalQuestions,
		ScenarioID:       scenario.ID,
		Title:            scenario.Title,
		Description:      scenario.Description,
		Options:          s.presenter.Present(scenario),
		Experience:       s.player.Experience,
		Tools:            append([]string{}, s.player.Tools...),
		TimeLimitSeconds: s.quiz.Config.TimeLimitSeconds,
	}
	s.broadcastLocked(domain.Event{Type: domain.EventScenario, SessionID: s.id, Scenario: &view})
	return nil
}

// finishLocked enters a terminal state. A catalog failure is kept in memory only so a fixed catalog
// lets the user resume; other terminal states are saved and, once the remote has them, the local
// mirror is cleared.
func (s *QuizSession) finishLocked(ctx context.Context, ev engine.Evaluation, persist bool) {
	s.state = ev.Status
	s.evaluation = ev
	s.current = nil

	if ev.Reason == domain.FailureCatalog {
		log.Printf("session %s: catalog error for %s: %v", s.id, s.key, ev.Err)
		s.broadcastLocked(domain.Event{Type: domain.EventNotice, SessionID: s.id, Notice: catalogNotice})
	} else if persist {
		// the final record must land after every answer save, even if the caller has gone away
		bg := context.WithoutCancel(ctx)
		s.waitPendingLocked(bg)
		res, err := s.gateway.Save(bg, s.key, s.snapshotLocked())
		if err != nil {
			log.Printf("session %s: final save degraded: %v", s.id, err)
		}
		if res.Remote {
			if err := s.gateway.Clear(bg, s.key); err != nil {
				log.Printf("session %s: %v", s.id, err)
			}
		}
	}

	rating, recs := engine.Recommendations(s.quiz, s.player, ev.ScorePercentage)
	end := domain.EndView{
		Status:          ev.Status,
		FailureReason:   ev.Reason,
		ScorePercentage: ev.ScorePercentage,
		Experience:      s.player.Experience,
		Tools:           append([]string{}, s.player.Tools...),
		Answered:        s.player.Answered(),
		Total:           s.quiz.Config.TotalQuestions,
		RetryAllowed:    ev.RetryAllowed,
		Rating:          rating,
		Review:          engine.Review(s.player),
		Recommendations: recs,
	}
	s.broadcastLocked(domain.Event{Type: domain.EventEnd, SessionID: s.id, End: &end})
}

func (s *QuizSession) snapshotLocked() domain.ProgressSnapshot {
	level := s.evaluation.Active.Level
	if s.current != nil {
		level = s.current.Level
	}
	return domain.NewSnapshot(s.key, s.id, s.player, s.state, s.evaluation.Reason, level, s.score.Percentage(s.player), s.now())
}

// saveAsyncLocked starts a save and chains it after any earlier one so saves land in order.
func (s *QuizSession) saveAsyncLocked(ctx context.Context, snap domain.ProgressSnapshot) {
	done := make(chan struct{})
	prev := s.pending
	s.pending = done
	bg := context.WithoutCancel(ctx)
	go func() {
		defer close(done)
		if prev != nil {
			<-prev
		}
		if _, err := s.gateway.Save(bg, s.key, snap); err != nil {
			log.Printf("session %s: save degraded: %v", snap.SessionID, err)
		}
	}()
}

// waitPendingLocked blocks until the save chain drains. When ctx ends first the chain is left pending,
// so callers about to write synchronously pass a context without cancellation.
func (s *QuizSession) waitPendingLocked(ctx context.Context) {
	if s.pending == nil {
		return
	}
	select {
	case <-s.pending:
		s.pending = nil
	case <-ctx.Done():
	}
}

// Subscribe returns a channel of rendering events. The latest event is replayed first so a reconnecting
// client can redraw. The caller must invoke the returned cancel function to avoid leaks.
func (s *QuizSession) Subscribe() (<-chan domain.Event, func()) {
	ch := make(chan domain.Event, 16)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	if s.last != nil {
		ch <- *s.last
	}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// Idle reports whether nobody is subscribed.
func (s *QuizSession) Idle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribers) == 0
}

func (s *QuizSession) broadcastLocked(ev domain.Event) {
	s.last = &ev
	for ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
			// a stalled subscriber loses its oldest event rather than blocking the session
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
}

