package domain

import "time"

// Status is the lifecycle state of a quiz session.
type Status string

const (
	StatusInProgress   Status = "in-progress"
	StatusAwaitingNext Status = "awaiting-next"
	StatusPassed       Status = "passed"
	StatusFailed       Status = "failed"
)

// Terminal reports whether no further answers are accepted.
func (s Status) Terminal() bool {
	return s == StatusPassed || s == StatusFailed
}

// FailureReason explains a failed status.
type FailureReason string

const (
	FailureNone       FailureReason = ""
	FailureCheckpoint FailureReason = "checkpoint"
	FailureBelowPass  FailureReason = "below-pass"
	FailureCatalog    FailureReason = "catalog"
)

// ProgressKey identifies one user's record for one quiz.
type ProgressKey struct {
	User   string
	QuizID string
}

// String is the canonical local cache key.
func (k ProgressKey) String() string {
	return k.User + "_" + k.QuizID
}

// LegacyKeys lists key spellings older clients wrote for the same record. Spellings without the
// user are left out since the local cache is shared by every user of a namespace.
func (k ProgressKey) LegacyKeys() []string {
	return []string{
		k.QuizID + "_" + k.User,
		k.User + "-" + k.QuizID,
		"progress_" + k.User + "_" + k.QuizID,
	}
}

// HistoryEntry is the persisted form of an AnswerRecord.
type HistoryEntry struct {
	ScenarioID     string `json:"scenarioId"`
	Level          string `json:"level,omitempty"`
	Title          string `json:"title,omitempty"`
	SelectedIndex  int    `json:"selectedIndex"`
	SelectedAnswer Option `json:"selectedAnswer"`
	TimeSpentMs    int64  `json:"timeSpentMs,omitempty"`
	TimedOut       bool   `json:"timedOut,omitempty"`
}

// ProgressSnapshot is the persisted projection of a PlayerSession.
type ProgressSnapshot struct {
	SessionID            string         `json:"sessionId,omitempty"`
	User                 string         `json:"user"`
	QuizID               string         `json:"quizId"`
	Experience           int            `json:"experience"`
	Tools                []string       `json:"tools"`
	CurrentScenarioIndex int            `json:"currentScenarioIndex"`
	QuestionHistory      []HistoryEntry `json:"questionHistory"`
	Status               Status         `json:"status"`
	FailureReason        FailureReason  `json:"failureReason,omitempty"`
	Level                string         `json:"level,omitempty"`
	ScorePercentage      int            `json:"scorePercentage"`
	LastUpdated          time.Time      `json:"lastUpdated"`
}

// NewSnapshot projects a session into its persisted shape.
func NewSnapshot(key ProgressKey, sessionID string, p PlayerSession, status Status, reason FailureReason, level string, pct int, now time.Time) ProgressSnapshot {
	history := make([]HistoryEntry, 0, len(p.QuestionHistory))
	for _, rec := range p.QuestionHistory {
		history = append(history, HistoryEntry{
			ScenarioID:     rec.Scenario.ID,
			Level:          rec.Scenario.Level,
			Title:          rec.Scenario.Title,
			SelectedIndex:  rec.SelectedIndex,
			SelectedAnswer: rec.SelectedAnswer,
			TimeSpentMs:    rec.TimeSpent.Milliseconds(),
			TimedOut:       rec.TimedOut,
		})
	}
	tools := append([]string{}, p.Tools...)
	if status == StatusAwaitingNext {
		status = StatusInProgress
	}
	return ProgressSnapshot{
		SessionID:            sessionID,
		User:                 key.User,
		QuizID:               key.QuizID,
		Experience:           p.Experience,
		Tools:                tools,
		CurrentScenarioIndex: p.CurrentScenarioIndex,
		QuestionHistory:      history,
		Status:               status,
		FailureReason:        reason,
		Level:                level,
		ScorePercentage:      pct,
		LastUpdated:          now,
	}
}

// Session rebuilds a PlayerSession. resolve maps scenario IDs back to catalog content;
// unknown IDs keep the persisted title and level.
func (s ProgressSnapshot) Session(resolve func(id string) (Scenario, bool)) PlayerSession {
	history := make([]AnswerRecord, 0, len(s.QuestionHistory))
	for _, entry := range s.QuestionHistory {
		scenario, ok := Scenario{}, false
		if resolve != nil {
			scenario, ok = resolve(entry.ScenarioID)
		}
		if !ok {
			scenario = Scenario{ID: entry.ScenarioID, Level: entry.Level, Title: entry.Title}
		}
		history = append(history, AnswerRecord{
			Scenario:       scenario,
			SelectedAnswer: entry.SelectedAnswer,
			SelectedIndex:  entry.SelectedIndex,
			TimeSpent:      time.Duration(entry.TimeSpentMs) * time.Millisecond,
			TimedOut:       entry.TimedOut,
		})
	}
	return PlayerSession{
		Experience:           s.Experience,
		Tools:                append([]string{}, s.Tools...),
		CurrentScenarioIndex: s.CurrentScenarioIndex,
		QuestionHistory:      history,
	}
}
