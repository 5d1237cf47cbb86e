package engine

import (
	"scenario-quiz-service/internal/domain"
)

// ScoreModel applies answers to a session and reports a [0,100] percentage.
// Implementations are deterministic and return updated copies.
type ScoreModel interface {
	// Apply adds the option's experience and tool. The answer record itself is appended by the caller,
	// so session.QuestionHistory still holds only earlier answers.
	Apply(session domain.PlayerSession, selected domain.Option) domain.PlayerSession
	Percentage(session domain.PlayerSession) int
}

// NewScoreModel picks the strategy configured for the quiz. cfg is expected to be normalized.
func NewScoreModel(cfg domain.QuizConfig) ScoreModel {
	ledger := xpLedger{
		maxXP:       cfg.MaxXP,
		checkpoints: cfg.Checkpoints,
		floor:       cfg.CheckpointFloor,
	}
	if cfg.Strategy == domain.StrategyCorrectness {
		return CorrectnessScore{ledger: ledger}
	}
	return XPScore{ledger: ledger}
}

// IsCorrect is the single correctness rule: an explicit flag wins, otherwise the option must award
// the scenario's maximum experience and that maximum must be positive.
func IsCorrect(scenario domain.Scenario, opt domain.Option) bool {
	if opt.IsCorrect != nil {
		return *opt.IsCorrect
	}
	if len(scenario.Options) == 0 {
		return opt.Experience > 0
	}
	best := scenario.MaxExperience()
	return best > 0 && opt.Experience == best
}

type xpLedger struct {
	maxXP       int
	checkpoints []domain.Checkpoint
	floor       bool
}

func (l xpLedger) apply(session domain.PlayerSession, selected domain.Option) domain.PlayerSession {
	next := session.Clone()
	xp := session.Experience + selected.Experience
	if l.floor {
		if f := l.floorFor(session); xp < f {
			xp = f
		}
	}
	next.Experience = clamp(xp, 0, l.maxXP)
	if selected.Tool != "" && !next.HasTool(selected.Tool) {
		next.Tools = append(next.Tools, selected.Tool)
	}
	return next
}

// floorFor is the MinXP of the last checkpoint the player met when reaching it. A checkpoint reached
// below its MinXP adds no floor.
func (l xpLedger) floorFor(session domain.PlayerSession) int {
	answered := len(session.QuestionHistory)
	floor, xp := 0, 0
	for n := 0; n <= answered; n++ {
		switch {
		case n == answered:
			xp = session.Experience
		case n > 0:
			step := xp + session.QuestionHistory[n-1].SelectedAnswer.Experience
			if step < floor {
				step = floor
			}
			xp = clamp(step, 0, l.maxXP)
		}
		for _, cp := range l.checkpoints {
			if cp.QuestionCount == n && xp >= cp.MinXP && cp.MinXP > floor {
				floor = cp.MinXP
			}
		}
	}
	return floor
}

// XPScore accumulates signed experience and scores it against MaxXP.
type XPScore struct {
	ledger xpLedger
}

func (m XPScore) Apply(session domain.PlayerSession, selected domain.Option) domain.PlayerSession {
	return m.ledger.apply(session, selected)
}

func (m XPScore) Percentage(session domain.PlayerSession) int {
	if m.ledger.maxXP <= 0 {
		return 0
	}
	return roundPercent(clamp(session.Experience, 0, m.ledger.maxXP), m.ledger.maxXP)
}

// CorrectnessScore still tracks experience for display but scores by correct answers over answered.
type CorrectnessScore struct {
	ledger xpLedger
}

func (m CorrectnessScore) Apply(session domain.PlayerSession, selected domain.Option) domain.PlayerSession {
	return m.ledger.apply(session, selected)
}

func (m CorrectnessScore) Percentage(session domain.PlayerSession) int {
	total := len(session.QuestionHistory)
	if total == 0 {
		return 0
	}
	return roundPercent(CorrectCount(session), total)
}

// CorrectCount counts answers that satisfy IsCorrect.
func CorrectCount(session domain.PlayerSession) int {
	n := 0
	for _, rec := range session.QuestionHistory {
		if !rec.TimedOut && IsCorrect(rec.Scenario, rec.SelectedAnswer) {
			n++
		}
	}
	return n
}

// ExperienceTrail replays the history and returns the experience after each answer.
func ExperienceTrail(model ScoreModel, history []domain.AnswerRecord) []int {
	trail := make([]int, 0, len(history))
	replay := domain.PlayerSession{}
	for _, rec := range history {
		replay = model.Apply(replay, rec.SelectedAnswer)
		replay.QuestionHistory = append(replay.QuestionHistory, rec)
		trail = append(trail, replay.Experience)
	}
	return trail
}

// roundPercent rounds part/whole*100 half up using integers only.
func roundPercent(part, whole int) int {
	return (part*200 + whole) / (2 * whole)
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
