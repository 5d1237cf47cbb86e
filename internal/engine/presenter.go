package engine

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"scenario-quiz-service/internal/domain"
)

// Presenter produces a fresh random display order for a scenario's options on every call.
type Presenter struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewPresenter uses src for shuffling; a nil src seeds from the clock.
func NewPresenter(src rand.Source) *Presenter {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &Presenter{rnd: rand.New(src)}
}

// Present returns the options in shuffled order. scenario.Options is left untouched.
func (p *Presenter) Present(scenario domain.Scenario) []domain.PresentedOption {
	order := make([]int, len(scenario.Options))
	for i := range order {
		order[i] = i
	}
	p.mu.Lock()
	p.rnd.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})
	p.mu.Unlock()

	out := make([]domain.PresentedOption, len(order))
	for pos, idx := range order {
		out[pos] = domain.PresentedOption{
			OriginalIndex: idx,
			Text:          scenario.Options[idx].Text,
		}
	}
	return out
}

// Resolve dereferences a selection by its original index, never by display position.
func Resolve(scenario domain.Scenario, originalIndex int) (domain.Option, error) {
	if originalIndex < 0 || originalIndex >= len(scenario.Options) {
		return domain.Option{}, fmt.Errorf("%w: scenario %s index %d", domain.ErrOptionNotFound, scenario.ID, originalIndex)
	}
	return scenario.Options[originalIndex], nil
}

// TimedOutOption is recorded when no answer arrived within the time limit.
func TimedOutOption() domain.Option {
	incorrect := false
	return domain.Option{
		Text:      "No answer",
		Outcome:   "Time ran out before an option was chosen.",
		IsCorrect: &incorrect,
	}
}
