package engine

import (
	"fmt"

	"scenario-quiz-service/internal/domain"
)

// Review lists every answered scenario in answer order.
func Review(session domain.PlayerSession) []domain.ReviewItem {
	items := make([]domain.ReviewItem, 0, len(session.QuestionHistory))
	for _, rec := range session.QuestionHistory {
		items = append(items, domain.ReviewItem{
			ScenarioID: rec.Scenario.ID,
			Title:      rec.Scenario.Title,
			Level:      rec.Scenario.Level,
			Selected:   rec.SelectedAnswer.Text,
			Outcome:    rec.SelectedAnswer.Outcome,
			Experience: rec.SelectedAnswer.Experience,
			Correct:    !rec.TimedOut && IsCorrect(rec.Scenario, rec.SelectedAnswer),
			TimedOut:   rec.TimedOut,
		})
	}
	return items
}

// weakLevelRatio marks a level for review when fewer than half of its answers were correct.
const weakLevelRatio = 0.5

// Recommendations returns the performance band label plus follow-up advice.
func Recommendations(quiz domain.Quiz, session domain.PlayerSession, pct int) (string, []string) {
	var rating string
	var recs []string
	for _, band := range quiz.Config.PerformanceBands {
		if pct >= band.MinPercentage {
			rating = band.Label
			if band.Recommendation != "" {
				recs = append(recs, band.Recommendation)
			}
			break
		}
	}

	type tally struct{ answered, correct int }
	perLevel := make(map[string]*tally)
	for _, rec := range session.QuestionHistory {
		t, ok := perLevel[rec.Scenario.Level]
		if !ok {
			t = &tally{}
			perLevel[rec.Scenario.Level] = t
		}
		t.answered++
		if !rec.TimedOut && IsCorrect(rec.Scenario, rec.SelectedAnswer) {
			t.correct++
		}
	}
	// walk levels in catalog order so the advice is stable
	for _, level := range quiz.Levels {
		t, ok := perLevel[level.Name]
		if !ok || t.answered == 0 {
			continue
		}
		if float64(t.correct)/float64(t.answered) < weakLevelRatio {
			recs = append(recs, fmt.Sprintf("Review the %s scenarios: %d of %d answered well.", level.Name, t.correct, t.answered))
		}
	}
	return rating, recs
}
