package progress

import (
	"encoding/json"
	"fmt"
	"log"

	"scenario-quiz-service/internal/domain"
)

// Encode serializes a snapshot for both sinks.
func Encode(snap domain.ProgressSnapshot) ([]byte, error) {
	if snap.Tools == nil {
		snap.Tools = []string{}
	}
	if snap.QuestionHistory == nil {
		snap.QuestionHistory = []domain.HistoryEntry{}
	}
	return json.Marshal(snap)
}

// Decode normalizes a stored document field by field. A field with the wrong type falls back to its
// default instead of discarding the whole snapshot; only a document that is not a JSON object fails.
func Decode(raw []byte, key domain.ProgressKey) (domain.ProgressSnapshot, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return domain.ProgressSnapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if fields == nil {
		return domain.ProgressSnapshot{}, fmt.Errorf("decode snapshot: not an object")
	}

	snap := domain.ProgressSnapshot{
		User:            key.User,
		QuizID:          key.QuizID,
		Tools:           []string{},
		QuestionHistory: []domain.HistoryEntry{},
		Status:          domain.StatusInProgress,
	}
	field(fields, "sessionId", &snap.SessionID)
	field(fields, "experience", &snap.Experience)
	field(fields, "tools", &snap.Tools)
	field(fields, "currentScenarioIndex", &snap.CurrentScenarioIndex)
	field(fields, "failureReason", &snap.FailureReason)
	field(fields, "level", &snap.Level)
	field(fields, "scorePercentage", &snap.ScorePercentage)
	field(fields, "lastUpdated", &snap.LastUpdated)

	var history []json.RawMessage
	field(fields, "questionHistory", &history)
	for _, item := range history {
		var entry domain.HistoryEntry
		if err := json.Unmarshal(item, &entry); err != nil || entry.ScenarioID == "" {
			log.Printf("progress: dropping malformed history entry for %s", key)
			continue
		}
		snap.QuestionHistory = append(snap.QuestionHistory, entry)
	}

	var status string
	field(fields, "status", &status)
	switch domain.Status(status) {
	case domain.StatusPassed, domain.StatusFailed, domain.StatusInProgress:
		snap.Status = domain.Status(status)
	}
	if snap.Tools == nil {
		snap.Tools = []string{}
	}
	if snap.Experience < 0 {
		snap.Experience = 0
	}
	if snap.CurrentScenarioIndex < 0 {
		snap.CurrentScenarioIndex = 0
	}
	return snap, nil
}

// field overwrites dst only when the named value decodes cleanly.
func field[T any](fields map[string]json.RawMessage, name string, dst *T) {
	raw, ok := fields[name]
	if !ok || string(raw) == "null" {
		return
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return
	}
	*dst = v
}
