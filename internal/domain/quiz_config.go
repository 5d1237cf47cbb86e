package domain

import (
	"fmt"
	"sort"
)

// ScoreStrategy selects how the score percentage is computed.
type ScoreStrategy string

const (
	// StrategyXP scores by accumulated experience relative to MaxXP.
	StrategyXP ScoreStrategy = "xp"
	// StrategyCorrectness scores by the ratio of correct answers.
	StrategyCorrectness ScoreStrategy = "correctness"
)

// RetryPolicy controls whether a finished session may be restarted.
type RetryPolicy string

const (
	RetryAlways       RetryPolicy = "always"
	RetryNever        RetryPolicy = "never"
	RetryUnlessFailed RetryPolicy = "unless-failed"
)

const defaultPassPercentage = 70

// Checkpoint gates the end of a level after QuestionCount answers.
type Checkpoint struct {
	Level         string `json:"level" yaml:"level"`
	QuestionCount int    `json:"questionCount" yaml:"questionCount"`
	MinXP         int    `json:"minXP" yaml:"minXP"`
}

// PerformanceBand maps a score percentage to a rating shown on the end screen.
type PerformanceBand struct {
	MinPercentage  int    `json:"minPercentage" yaml:"minPercentage"`
	Label          string `json:"label" yaml:"label"`
	Recommendation string `json:"recommendation" yaml:"recommendation"`
}

// QuizConfig parameterizes the engine for one quiz.
type QuizConfig struct {
	TotalQuestions      int               `json:"totalQuestions" yaml:"totalQuestions"`
	PassPercentage      int               `json:"passPercentage" yaml:"passPercentage"`
	MaxXP               int               `json:"maxXP" yaml:"maxXP"`
	Strategy            ScoreStrategy     `json:"strategy" yaml:"strategy"`
	Checkpoints         []Checkpoint      `json:"checkpoints" yaml:"checkpoints"`
	RequireCheckpointXP bool              `json:"requireCheckpointXP" yaml:"requireCheckpointXP"`
	CheckpointFloor     bool              `json:"checkpointFloor" yaml:"checkpointFloor"`
	Retry               RetryPolicy       `json:"retry" yaml:"retry"`
	TimeLimitSeconds    int               `json:"timeLimitSeconds" yaml:"timeLimitSeconds"`
	PerformanceBands    []PerformanceBand `json:"performanceBands" yaml:"performanceBands"`
}

// CheckpointFor returns the checkpoint that closes the named level.
func (c QuizConfig) CheckpointFor(level string) (Checkpoint, bool) {
	for _, cp := range c.Checkpoints {
		if cp.Level == level {
			return cp, true
		}
	}
	return Checkpoint{}, false
}

// Normalized fills in defaults derived from the quiz content.
func (q Quiz) Normalized() Quiz {
	out := q
	cfg := q.Config
	if cfg.Strategy == "" {
		cfg.Strategy = StrategyXP
	}
	if cfg.Retry == "" {
		cfg.Retry = RetryAlways
	}
	if cfg.PassPercentage == 0 {
		cfg.PassPercentage = defaultPassPercentage
	}
	if cfg.TotalQuestions == 0 {
		cfg.TotalQuestions = q.ScenarioCount()
	}
	if cfg.MaxXP == 0 {
		for _, level := range q.Levels {
			for _, s := range level.Scenarios {
				if best := s.MaxExperience(); best > 0 {
					cfg.MaxXP += best
				}
			}
		}
	}
	cfg.Checkpoints = append([]Checkpoint(nil), cfg.Checkpoints...)
	sort.SliceStable(cfg.Checkpoints, func(i, j int) bool {
		return cfg.Checkpoints[i].QuestionCount < cfg.Checkpoints[j].QuestionCount
	})
	cfg.PerformanceBands = append([]PerformanceBand(nil), cfg.PerformanceBands...)
	sort.SliceStable(cfg.PerformanceBands, func(i, j int) bool {
		return cfg.PerformanceBands[i].MinPercentage > cfg.PerformanceBands[j].MinPercentage
	})
	out.Config = cfg

	out.Levels = make([]Level, len(q.Levels))
	for i, level := range q.Levels {
		scenarios := make([]Scenario, len(level.Scenarios))
		for j, s := range level.Scenarios {
			if s.Level == "" {
				s.Level = level.Name
			}
			scenarios[j] = s
		}
		out.Levels[i] = Level{Name: level.Name, Scenarios: scenarios}
	}
	return out
}

// Validate rejects catalog entries the engine cannot run.
func (q Quiz) Validate() error {
	if q.ID == "" {
		return fmt.Errorf("%w: quiz id is empty", ErrInvalidQuiz)
	}
	if len(q.Levels) == 0 {
		return fmt.Errorf("%w: quiz %s has no levels", ErrInvalidQuiz, q.ID)
	}
	names := make(map[string]bool, len(q.Levels))
	for _, level := range q.Levels {
		if level.Name == "" {
			return fmt.Errorf("%w: quiz %s has an unnamed level", ErrInvalidQuiz, q.ID)
		}
		if names[level.Name] {
			return fmt.Errorf("%w: quiz %s repeats level %s", ErrInvalidQuiz, q.ID, level.Name)
		}
		names[level.Name] = true
		for _, s := range level.Scenarios {
			if len(s.Options) == 0 {
				return fmt.Errorf("%w: scenario %s has no options", ErrInvalidQuiz, s.ID)
			}
		}
	}
	cfg := q.Config
	if cfg.PassPercentage < 0 || cfg.PassPercentage > 100 {
		return fmt.Errorf("%w: pass percentage %d out of range", ErrInvalidQuiz, cfg.PassPercentage)
	}
	switch cfg.Strategy {
	case "", StrategyXP, StrategyCorrectness:
	default:
		return fmt.Errorf("%w: unknown strategy %q", ErrInvalidQuiz, cfg.Strategy)
	}
	switch cfg.Retry {
	case "", RetryAlways, RetryNever, RetryUnlessFailed:
	default:
		return fmt.Errorf("%w: unknown retry policy %q", ErrInvalidQuiz, cfg.Retry)
	}
	prev := 0
	for _, cp := range cfg.Checkpoints {
		if !names[cp.Level] {
			return fmt.Errorf("%w: checkpoint names unknown level %s", ErrInvalidQuiz, cp.Level)
		}
		if cp.QuestionCount <= prev {
			return fmt.Errorf("%w: checkpoints must have ascending question counts", ErrInvalidQuiz)
		}
		prev = cp.QuestionCount
	}
	return nil
}
