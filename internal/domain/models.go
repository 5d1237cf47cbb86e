package domain

import (
	"time"
)

// Option is one selectable answer of a scenario.
type Option struct {
	Text       string `json:"text" yaml:"text"`
	Outcome    string `json:"outcome" yaml:"outcome"`
	Experience int    `json:"experience" yaml:"experience"` // may be negative
	Tool       string `json:"tool,omitempty" yaml:"tool,omitempty"`
	IsCorrect  *bool  `json:"isCorrect,omitempty" yaml:"isCorrect,omitempty"`
}

// Scenario models one multiple-choice question. Scenarios are owned by the catalog and never mutated.
type Scenario struct {
	ID          string   `json:"id" yaml:"id"`
	Level       string   `json:"level" yaml:"level"`
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description" yaml:"description"`
	Options     []Option `json:"options" yaml:"options"`
}

// MaxExperience is the best experience any option of the scenario awards.
func (s Scenario) MaxExperience() int {
	if len(s.Options) == 0 {
		return 0
	}
	best := s.Options[0].Experience
	for _, opt := range s.Options[1:] {
		if opt.Experience > best {
			best = opt.Experience
		}
	}
	return best
}

// Level is a named tier with its own ordered scenario set.
type Level struct {
	Name      string     `json:"name" yaml:"name"`
	Scenarios []Scenario `json:"scenarios" yaml:"scenarios"`
}

// Quiz is a catalog entry: configuration plus leveled scenario sets.
type Quiz struct {
	ID     string     `json:"id" yaml:"id"`
	Title  string     `json:"title" yaml:"title"`
	Config QuizConfig `json:"config" yaml:"config"`
	Levels []Level    `json:"levels" yaml:"levels"`
}

// Scenario looks up a scenario by ID across all levels.
func (q Quiz) Scenario(id string) (Scenario, bool) {
	for _, level := range q.Levels {
		for _, s := range level.Scenarios {
			if s.ID == id {
				return s, true
			}
		}
	}
	return Scenario{}, false
}

// ScenarioCount is the number of scenarios in the whole catalog entry.
func (q Quiz) ScenarioCount() int {
	n := 0
	for _, level := range q.Levels {
		n += len(level.Scenarios)
	}
	return n
}

// AnswerRecord is appended once per answered scenario.
type AnswerRecord struct {
	Scenario       Scenario
	SelectedAnswer Option
	SelectedIndex  int // original option index, -1 for timed out answers
	TimeSpent      time.Duration
	TimedOut       bool
}

// PlayerSession is the mutable aggregate of one user's run through a quiz.
// Engine functions treat it as a value and return updated copies.
type PlayerSession struct {
	Experience           int
	Tools                []string
	CurrentScenarioIndex int
	QuestionHistory      []AnswerRecord
}

// HasTool reports whether the tool was already awarded.
func (p PlayerSession) HasTool(tool string) bool {
	for _, t := range p.Tools {
		if t == tool {
			return true
		}
	}
	return false
}

// Clone copies the slices so the result can be mutated independently.
func (p PlayerSession) Clone() PlayerSession {
	out := p
	out.Tools = append([]string(nil), p.Tools...)
	out.QuestionHistory = append([]AnswerRecord(nil), p.QuestionHistory...)
	return out
}

// Answered is the number of accepted answers.
func (p PlayerSession) Answered() int {
	return len(p.QuestionHistory)
}
