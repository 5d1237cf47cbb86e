package engine

import (
	"fmt"

	"scenario-quiz-service/internal/domain"
)

// ActiveSet is the scenario set the next question is drawn from.
type ActiveSet struct {
	LevelIndex int
	Level      string
	Scenarios  []domain.Scenario
	// Index is the position inside Scenarios; it restarts at 0 for every level.
	Index int
	// Exhausted is set once every question of the quiz has been answered.
	Exhausted bool
}

// Current returns the scenario at Index.
func (a ActiveSet) Current() (domain.Scenario, bool) {
	if a.Exhausted || a.Index < 0 || a.Index >= len(a.Scenarios) {
		return domain.Scenario{}, false
	}
	return a.Scenarios[a.Index], true
}

// CheckpointStatus reports the most recently reached checkpoint.
type CheckpointStatus struct {
	Level     string
	Reached   bool
	Satisfied bool
	MinXP     int
	// Experience is the player's experience at the moment the checkpoint was reached.
	Experience int
}

// Policy decides which level is active from the answer history.
type Policy struct {
	quiz  domain.Quiz
	score ScoreModel
}

func NewPolicy(quiz domain.Quiz, score ScoreModel) *Policy {
	return &Policy{quiz: quiz, score: score}
}

// ActiveSet returns the set to draw from. A missed gated checkpoint yields ErrCheckpointFailed and a
// configuration gap yields ErrCatalogIndex; in both cases no set is returned.
func (p *Policy) ActiveSet(session domain.PlayerSession) (ActiveSet, error) {
	set, _, err := p.locate(session)
	return set, err
}

// CheckpointStatus evaluates checkpoints in ascending question count order.
func (p *Policy) CheckpointStatus(session domain.PlayerSession) CheckpointStatus {
	_, status, _ := p.locate(session)
	return status
}

func (p *Policy) locate(session domain.PlayerSession) (ActiveSet, CheckpointStatus, error) {
	cfg := p.quiz.Config
	answered := len(session.QuestionHistory)
	status := CheckpointStatus{Satisfied: true}
	if len(p.quiz.Levels) > 0 {
		status.Level = p.quiz.Levels[0].Name
	}

	var trail []int
	experienceAt := func(n int) int {
		if n == answered {
			return session.Experience
		}
		if trail == nil {
			trail = ExperienceTrail(p.score, session.QuestionHistory)
		}
		return trail[n-1]
	}

	start := 0
	for li, level := range p.quiz.Levels {
		end := start + len(level.Scenarios)
		cp, gated := cfg.CheckpointFor(level.Name)
		if gated {
			end = cp.QuestionCount
		}
		if answered < end {
			if answered >= cfg.TotalQuestions {
				return ActiveSet{LevelIndex: li, Level: level.Name, Exhausted: true}, status, nil
			}
			idx := answered - start
			if idx >= len(level.Scenarios) {
				return ActiveSet{}, status, fmt.Errorf("%w: level %s index %d", domain.ErrCatalogIndex, level.Name, idx)
			}
			status.Level = level.Name
			return ActiveSet{
				LevelIndex: li,
				Level:      level.Name,
				Scenarios:  level.Scenarios,
				Index:      idx,
			}, status, nil
		}
		if gated {
			xp := experienceAt(cp.QuestionCount)
			status = CheckpointStatus{
				Level:      level.Name,
				Reached:    true,
				Satisfied:  !cfg.RequireCheckpointXP || xp >= cp.MinXP,
				MinXP:      cp.MinXP,
				Experience: xp,
			}
			if !status.Satisfied {
				return ActiveSet{}, status, fmt.Errorf("%w: level %s needs %d xp, had %d", domain.ErrCheckpointFailed, level.Name, cp.MinXP, xp)
			}
		}
		start = end
	}

	if answered < cfg.TotalQuestions {
		return ActiveSet{}, status, fmt.Errorf("%w: catalog ends after %d of %d questions", domain.ErrCatalogIndex, start, cfg.TotalQuestions)
	}
	last := len(p.quiz.Levels) - 1
	set := ActiveSet{LevelIndex: last, Exhausted: true}
	if last >= 0 {
		set.Level = p.quiz.Levels[last].Name
	}
	return set, status, nil
}
