package domain

// EventType tags what a rendering adapter should draw.
type EventType string

const (
	EventScenario EventType = "scenario"
	EventOutcome  EventType = "outcome"
	EventEnd      EventType = "end"
	EventNotice   EventType = "notice"
)

// PresentedOption is one option in display order. OriginalIndex points back into Scenario.Options.
type PresentedOption struct {
	OriginalIndex int    `json:"originalIndex"`
	Text          string `json:"text"`
}

// ScenarioView is what the UI needs to ask one question.
type ScenarioView struct {
	QuizID           string            `json:"quizId"`
	Level            string            `json:"level"`
	Index            int               `json:"index"`
	Number           int               `json:"number"`
	Total            int               `json:"total"`
	ScenarioID       string            `json:"scenarioId"`
	Title            string            `json:"title"`
	Description      string            `json:"description"`
	Options          []PresentedOption `json:"options"`
	Experience       int               `json:"experience"`
	Tools            []string          `json:"tools"`
	TimeLimitSeconds int               `json:"timeLimitSeconds,omitempty"`
}

// OutcomeView describes the result of one answer.
type OutcomeView struct {
	ScenarioID   string `json:"scenarioId"`
	Selected     Option `json:"selected"`
	ScoreDelta   int    `json:"scoreDelta"`
	ToolAcquired string `json:"toolAcquired,omitempty"`
	Correct      bool   `json:"correct"`
	TimedOut     bool   `json:"timedOut,omitempty"`
	Experience   int    `json:"experience"`
}

// ReviewItem summarizes one answered scenario on the end screen.
type ReviewItem struct {
	ScenarioID string `json:"scenarioId"`
	Title      string `json:"title"`
	Level      string `json:"level"`
	Selected   string `json:"selected"`
	Outcome    string `json:"outcome"`
	Experience int    `json:"experience"`
	Correct    bool   `json:"correct"`
	TimedOut   bool   `json:"timedOut,omitempty"`
}

// EndView is the terminal screen.
type EndView struct {
	Status          Status        `json:"status"`
	FailureReason   FailureReason `json:"failureReason,omitempty"`
	ScorePercentage int           `json:"scorePercentage"`
	Experience      int           `json:"experience"`
	Tools           []string      `json:"tools"`
	Answered        int           `json:"answered"`
	Total           int           `json:"total"`
	RetryAllowed    bool          `json:"retryAllowed"`
	Rating          string        `json:"rating,omitempty"`
	Review          []ReviewItem  `json:"review"`
	Recommendations []string      `json:"recommendations"`
}

// Event is emitted by a quiz session to its subscribers.
type Event struct {
	Type      EventType     `json:"type"`
	SessionID string        `json:"sessionId"`
	Scenario  *ScenarioView `json:"scenario,omitempty"`
	Outcome   *OutcomeView  `json:"outcome,omitempty"`
	End       *EndView      `json:"end,omitempty"`
	Notice    string        `json:"notice,omitempty"`
}
