package domain

import "errors"

var (
	// ErrMissingIdentity is returned when no user can be resolved at session start.
	ErrMissingIdentity = errors.New("missing user identity")
	// ErrSessionNotFound is returned when a quiz session has not been opened.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrInvalidQuiz indicates catalog content the engine cannot run.
	ErrInvalidQuiz = errors.New("invalid quiz definition")
	// ErrOptionNotFound indicates a submitted option index is invalid.
	ErrOptionNotFound = errors.New("option not found")
	// ErrCatalogIndex means no scenario exists for the computed level and index.
	ErrCatalogIndex = errors.New("no scenario for computed level index")
	// ErrCheckpointFailed is reported by the progression policy when a gated checkpoint was missed.
	ErrCheckpointFailed = errors.New("checkpoint failed")
	// ErrConcurrentSubmission rejects a trigger while another one is in flight.
	ErrConcurrentSubmission = errors.New("submission already in flight")
	// ErrInvalidTransition rejects triggers that do not apply to the current state.
	ErrInvalidTransition = errors.New("invalid session transition")
	// ErrRetryNotAllowed is returned by restart when the retry policy forbids it.
	ErrRetryNotAllowed = errors.New("retry not allowed")
	// ErrProgressNotFound is returned by progress stores when nothing is saved for a key.
	ErrProgressNotFound = errors.New("progress not found")
	// ErrRemoteUnavailable wraps remote persistence failures, timeouts included.
	ErrRemoteUnavailable = errors.New("remote progress store unavailable")
)
