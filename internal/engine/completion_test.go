package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scenario-quiz-service/internal/domain"
)

func evaluatorFor(quiz domain.Quiz) *Evaluator {
	model := NewScoreModel(quiz.Config)
	return NewEvaluator(quiz.Config, NewPolicy(quiz, model), model)
}

func TestCheckpointFailureEndsSessionEarly(t *testing.T) {
	quiz := leveledQuiz(domain.QuizConfig{
		RequireCheckpointXP: true,
		Checkpoints:         []domain.Checkpoint{{Level: "Basic", QuestionCount: 5, MinXP: 25}},
	}, 5, 5, 5)
	require.Equal(t, 15, quiz.Config.TotalQuestions)

	session := answer(t, quiz, domain.PlayerSession{}, 2, 2, 1, 1, 1)
	ev := evaluatorFor(quiz).Evaluate(session)

	assert.Equal(t, domain.StatusFailed, ev.Status)
	assert.Equal(t, domain.FailureCheckpoint, ev.Reason)
	assert.Equal(t, 5, session.Answered())
	assert.True(t, errors.Is(ev.Err, domain.ErrCheckpointFailed))
}

func TestCorrectnessQuizPasses(t *testing.T) {
	quiz := leveledQuiz(domain.QuizConfig{
		Strategy:       domain.StrategyCorrectness,
		PassPercentage: 70,
	}, 5, 5, 5)
	picks := []int{0, 0, 2, 0, 0, 0, 1, 0, 0, 0, 2, 0, 0, 1, 0}
	session := answer(t, quiz, domain.PlayerSession{}, picks...)

	ev := evaluatorFor(quiz).Evaluate(session)
	assert.Equal(t, 73, ev.ScorePercentage)
	assert.Equal(t, domain.StatusPassed, ev.Status)
	assert.Equal(t, domain.FailureNone, ev.Reason)
}

func TestBelowPassFails(t *testing.T) {
	quiz := leveledQuiz(domain.QuizConfig{PassPercentage: 70}, 2, 2)
	session := answer(t, quiz, domain.PlayerSession{}, 1, 1, 1, 1)

	ev := evaluatorFor(quiz).Evaluate(session)
	assert.Equal(t, domain.StatusFailed, ev.Status)
	assert.Equal(t, domain.FailureBelowPass, ev.Reason)
	assert.Equal(t, 33, ev.ScorePercentage)
}

func TestInProgressCarriesActiveSet(t *testing.T) {
	quiz := leveledQuiz(domain.QuizConfig{}, 2, 2)
	session := answer(t, quiz, domain.PlayerSession{}, 0, 0, 0)

	ev := evaluatorFor(quiz).Evaluate(session)
	assert.Equal(t, domain.StatusInProgress, ev.Status)
	assert.Equal(t, "Intermediate", ev.Active.Level)
	assert.Equal(t, 1, ev.Active.Index)
	assert.False(t, ev.RetryAllowed)
}

func TestCatalogGapFailsSession(t *testing.T) {
	quiz := leveledQuiz(domain.QuizConfig{TotalQuestions: 3}, 1, 1)
	session := answer(t, quiz, domain.PlayerSession{}, 0, 0)

	ev := evaluatorFor(quiz).Evaluate(session)
	assert.Equal(t, domain.StatusFailed, ev.Status)
	assert.Equal(t, domain.FailureCatalog, ev.Reason)
}

func TestRetryPolicies(t *testing.T) {
	tests := []struct {
		policy domain.RetryPolicy
		status domain.Status
		want   bool
	}{
		{domain.RetryAlways, domain.StatusFailed, true},
		{domain.RetryAlways, domain.StatusPassed, true},
		{domain.RetryNever, domain.StatusFailed, false},
		{domain.RetryNever, domain.StatusPassed, false},
		{domain.RetryUnlessFailed, domain.StatusFailed, false},
		{domain.RetryUnlessFailed, domain.StatusPassed, true},
		{domain.RetryAlways, domain.StatusInProgress, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.policy)+"/"+string(tt.status), func(t *testing.T) {
			quiz := leveledQuiz(domain.QuizConfig{Retry: tt.policy}, 1)
			assert.Equal(t, tt.want, evaluatorFor(quiz).RetryAllowed(tt.status))
		})
	}
}

func TestNextTransitions(t *testing.T) {
	inProgress := Evaluation{Status: domain.StatusInProgress}
	failedNoRetry := Evaluation{Status: domain.StatusFailed}
	passedRetry := Evaluation{Status: domain.StatusPassed, RetryAllowed: true}

	tests := []struct {
		name    string
		from    domain.Status
		trigger Trigger
		ev      Evaluation
		want    domain.Status
		wantErr error
	}{
		{"start fresh", "", TriggerStart, inProgress, domain.StatusInProgress, nil},
		{"start resumes terminal", "", TriggerStart, failedNoRetry, domain.StatusFailed, nil},
		{"answer", domain.StatusInProgress, TriggerAnswer, inProgress, domain.StatusAwaitingNext, nil},
		{"answer twice", domain.StatusAwaitingNext, TriggerAnswer, inProgress, domain.StatusAwaitingNext, domain.ErrInvalidTransition},
		{"continue to next", domain.StatusAwaitingNext, TriggerContinue, inProgress, domain.StatusInProgress, nil},
		{"continue to failed", domain.StatusAwaitingNext, TriggerContinue, failedNoRetry, domain.StatusFailed, nil},
		{"continue while asking", domain.StatusInProgress, TriggerContinue, inProgress, domain.StatusInProgress, domain.ErrInvalidTransition},
		{"restart allowed", domain.StatusPassed, TriggerRestart, passedRetry, domain.StatusInProgress, nil},
		{"restart suppressed", domain.StatusFailed, TriggerRestart, failedNoRetry, domain.StatusFailed, domain.ErrRetryNotAllowed},
		{"restart mid quiz", domain.StatusInProgress, TriggerRestart, passedRetry, domain.StatusInProgress, domain.ErrInvalidTransition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Next(tt.from, tt.trigger, tt.ev)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRecommendations(t *testing.T) {
	quiz := leveledQuiz(domain.QuizConfig{
		PerformanceBands: []domain.PerformanceBand{
			{MinPercentage: 0, Label: "Novice", Recommendation: "Start with the fundamentals guide."},
			{MinPercentage: 80, Label: "Expert", Recommendation: "Try the advanced track."},
			{MinPercentage: 50, Label: "Practitioner", Recommendation: "Practice exploratory sessions."},
		},
	}, 2, 2)
	session := answer(t, quiz, domain.PlayerSession{}, 0, 0, 2, 1)

	rating, recs := Recommendations(quiz, session, 55)
	assert.Equal(t, "Practitioner", rating)
	require.Len(t, recs, 2)
	assert.Equal(t, "Practice exploratory sessions.", recs[0])
	assert.Contains(t, recs[1], "Intermediate")

	review := Review(session)
	require.Len(t, review, 4)
	assert.True(t, review[0].Correct)
	assert.False(t, review[2].Correct)
	assert.Equal(t, "Intermediate", review[2].Level)
}
