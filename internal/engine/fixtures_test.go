package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"scenario-quiz-service/internal/domain"
)

var levelNames = []string{"Basic", "Intermediate", "Advanced"}

// scenarioWith builds a scenario whose option i awards xps[i].
func scenarioWith(id, level string, xps ...int) domain.Scenario {
	opts := make([]domain.Option, len(xps))
	for i, xp := range xps {
		opts[i] = domain.Option{
			Text:       fmt.Sprintf("%s option %d", id, i),
			Outcome:    fmt.Sprintf("%s outcome %d", id, i),
			Experience: xp,
		}
	}
	return domain.Scenario{ID: id, Level: level, Title: "Scenario " + id, Options: opts}
}

// leveledQuiz has len(perLevel) levels; every scenario offers 15, 5 and -10 xp.
func leveledQuiz(cfg domain.QuizConfig, perLevel ...int) domain.Quiz {
	quiz := domain.Quiz{ID: "testing-basics", Title: "Testing basics", Config: cfg}
	for li, n := range perLevel {
		level := domain.Level{Name: levelNames[li]}
		for i := 0; i < n; i++ {
			id := fmt.Sprintf("%s-%d", level.Name, i)
			level.Scenarios = append(level.Scenarios, scenarioWith(id, level.Name, 15, 5, -10))
		}
		quiz.Levels = append(quiz.Levels, level)
	}
	return quiz.Normalized()
}

// answer walks the policy and applies each pick (an original option index).
func answer(t *testing.T, quiz domain.Quiz, session domain.PlayerSession, picks ...int) domain.PlayerSession {
	t.Helper()
	model := NewScoreModel(quiz.Config)
	policy := NewPolicy(quiz, model)
	for _, pick := range picks {
		set, err := policy.ActiveSet(session)
		require.NoError(t, err)
		scenario, ok := set.Current()
		require.True(t, ok, "no current scenario after %d answers", session.Answered())
		opt, err := Resolve(scenario, pick)
		require.NoError(t, err)
		session = model.Apply(session, opt)
		session.QuestionHistory = append(session.QuestionHistory, domain.AnswerRecord{
			Scenario:       scenario,
			SelectedAnswer: opt,
			SelectedIndex:  pick,
		})
	}
	return session
}

func repeat(pick, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = pick
	}
	return out
}
