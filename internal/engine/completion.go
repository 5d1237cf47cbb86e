package engine

import (
	"errors"
	"fmt"

	"scenario-quiz-service/internal/domain"
)

// Trigger is an external event that moves a session between states.
type Trigger string

const (
	TriggerStart    Trigger = "start"
	TriggerAnswer   Trigger = "answer"
	TriggerContinue Trigger = "continue"
	TriggerRestart  Trigger = "restart"
)

// Evaluation is the completion verdict for a session.
type Evaluation struct {
	Status          domain.Status
	Reason          domain.FailureReason
	ScorePercentage int
	RetryAllowed    bool
	Active          ActiveSet
	Checkpoint      CheckpointStatus
	Err             error
}

// Evaluator derives terminal status and retry eligibility.
type Evaluator struct {
	cfg    domain.QuizConfig
	policy *Policy
	score  ScoreModel
}

func NewEvaluator(cfg domain.QuizConfig, policy *Policy, score ScoreModel) *Evaluator {
	return &Evaluator{cfg: cfg, policy: policy, score: score}
}

// Evaluate returns InProgress with the active set, or a terminal status.
// A checkpoint failure ends the session even when questions remain.
func (e *Evaluator) Evaluate(session domain.PlayerSession) Evaluation {
	pct := e.score.Percentage(session)
	set, status, err := e.policy.locate(session)
	ev := Evaluation{
		Status:          domain.StatusInProgress,
		ScorePercentage: pct,
		Active:          set,
		Checkpoint:      status,
		Err:             err,
	}
	switch {
	case errors.Is(err, domain.ErrCheckpointFailed):
		ev.Status, ev.Reason = domain.StatusFailed, domain.FailureCheckpoint
	case err != nil:
		ev.Status, ev.Reason = domain.StatusFailed, domain.FailureCatalog
	case set.Exhausted && pct >= e.cfg.PassPercentage:
		ev.Status = domain.StatusPassed
	case set.Exhausted:
		ev.Status, ev.Reason = domain.StatusFailed, domain.FailureBelowPass
	}
	ev.RetryAllowed = e.RetryAllowed(ev.Status)
	return ev
}

// RetryAllowed applies the configured retry policy to a terminal status.
func (e *Evaluator) RetryAllowed(status domain.Status) bool {
	if !status.Terminal() {
		return false
	}
	switch e.cfg.Retry {
	case domain.RetryNever:
		return false
	case domain.RetryUnlessFailed:
		return status != domain.StatusFailed
	default:
		return true
	}
}

// Next validates a trigger against the current status and returns the follow-up status.
// For continue, the evaluation decides between InProgress and a terminal status.
func Next(from domain.Status, trigger Trigger, ev Evaluation) (domain.Status, error) {
	switch trigger {
	case TriggerStart:
		if ev.Status.Terminal() {
			return ev.Status, nil
		}
		return domain.StatusInProgress, nil
	case TriggerAnswer:
		if from == domain.StatusInProgress {
			return domain.StatusAwaitingNext, nil
		}
	case TriggerContinue:
		if from == domain.StatusAwaitingNext {
			return ev.Status, nil
		}
	case TriggerRestart:
		if from.Terminal() {
			if !ev.RetryAllowed {
				return from, domain.ErrRetryNotAllowed
			}
			return domain.StatusInProgress, nil
		}
	}
	return from, fmt.Errorf("%w: %s from %s", domain.ErrInvalidTransition, trigger, from)
}
