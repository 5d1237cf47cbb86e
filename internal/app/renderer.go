package app

import "scenario-quiz-service/internal/domain"

// Renderer draws session events. Implementations never decide progression.
type Renderer interface {
	RenderScenario(view domain.ScenarioView) error
	RenderOutcome(view domain.OutcomeView) error
	RenderEnd(view domain.EndView) error
	RenderNotice(message string) error
}

// Dispatch routes an event to the matching Renderer method.
func Dispatch(ev domain.Event, r Renderer) error {
	switch ev.Type {
	case domain.EventScenario:
		if ev.Scenario != nil {
			return r.RenderScenario(*ev.Scenario)
		}
	case domain.EventOutcome:
		if ev.Outcome != nil {
			return r.RenderOutcome(*ev.Outcome)
		}
	case domain.EventEnd:
		if ev.End != nil {
			return r.RenderEnd(*ev.End)
		}
	case domain.EventNotice:
		return r.RenderNotice(ev.Notice)
	}
	return nil
}
