package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"scenario-quiz-service/internal/app"
	"scenario-quiz-service/internal/config"
	"scenario-quiz-service/internal/domain"
)

// NewPlayCmd runs a quiz in the terminal with the same engine and persistence as the server.
func NewPlayCmd(configPath *string) *cobra.Command {
	var user, quizID string
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a quiz in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			if user == "" {
				user = os.Getenv("QUIZ_USER")
			}
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			st, err := buildStack(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			return playQuiz(cmd.Context(), st.service(), app.StaticIdentity(user), quizID, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "player name (defaults to $QUIZ_USER)")
	cmd.Flags().StringVar(&quizID, "quiz", "", "quiz id")
	_ = cmd.MarkFlagRequired("quiz")
	return cmd
}

func playQuiz(ctx context.Context, service *app.QuizService, identity app.Identity, quizID string, in io.Reader, out io.Writer) error {
	session, err := service.Open(ctx, identity, quizID)
	if err != nil {
		return err
	}
	key := session.Key()
	defer service.Leave(context.WithoutCancel(ctx), key.User, key.QuizID)

	events, cancel := session.Subscribe()
	defer cancel()

	term := &textRenderer{out: out, in: bufio.NewScanner(in)}
	for ev := range events {
		if err := app.Dispatch(ev, term); err != nil {
			return err
		}
		switch ev.Type {
		case domain.EventScenario:
			choice, ok := term.choose(len(ev.Scenario.Options))
			if !ok {
				return nil
			}
			if _, err := session.Answer(ctx, ev.Scenario.Options[choice].OriginalIndex); err != nil {
				return err
			}
		case domain.EventOutcome:
			if !term.ask("Press enter to continue") {
				return nil
			}
			if err := session.Continue(ctx); err != nil {
				return err
			}
		case domain.EventEnd:
			if !ev.End.RetryAllowed || !term.confirm("Play again? [y/N] ") {
				return nil
			}
			if err := session.Restart(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// textRenderer is the terminal Renderer.
type textRenderer struct {
	out io.Writer
	in  *bufio.Scanner
}

func (r *textRenderer) RenderScenario(v domain.ScenarioView) error {
	fmt.Fprintf(r.out, "\n[%s] Question %d of %d  (XP %d)\n", v.Level, v.Number, v.Total, v.Experience)
	fmt.Fprintf(r.out, "%s\n", v.Title)
	if v.Description != "" {
		fmt.Fprintf(r.out, "%s\n", v.Description)
	}
	for i, opt := range v.Options {
		fmt.Fprintf(r.out, "  %d) %s\n", i+1, opt.Text)
	}
	if v.TimeLimitSeconds > 0 {
		fmt.Fprintf(r.out, "You have %d seconds.\n", v.TimeLimitSeconds)
	}
	return nil
}

func (r *textRenderer) RenderOutcome(v domain.OutcomeView) error {
	switch {
	case v.TimedOut:
		fmt.Fprintln(r.out, "Time is up.")
	case v.Correct:
		fmt.Fprintln(r.out, "Good call.")
	}
	if v.Selected.Outcome != "" {
		fmt.Fprintln(r.out, v.Selected.Outcome)
	}
	fmt.Fprintf(r.out, "XP %+d, now %d\n", v.ScoreDelta, v.Experience)
	if v.ToolAcquired != "" {
		fmt.Fprintf(r.out, "New tool: %s\n", v.ToolAcquired)
	}
	return nil
}

func (r *textRenderer) RenderEnd(v domain.EndView) error {
	fmt.Fprintf(r.out, "\nQuiz %s with %d%% (%d of %d answered)\n", v.Status, v.ScorePercentage, v.Answered, v.Total)
	if v.FailureReason == domain.FailureCheckpoint {
		fmt.Fprintln(r.out, "Not enough experience to pass the level checkpoint.")
	}
	if v.Rating != "" {
		fmt.Fprintf(r.out, "Rating: %s\n", v.Rating)
	}
	for _, item := range v.Review {
		mark := "x"
		if item.Correct {
			mark = "ok"
		}
		fmt.Fprintf(r.out, "  [%s] %s: %s\n", mark, item.Title, item.Selected)
	}
	for _, rec := range v.Recommendations {
		fmt.Fprintf(r.out, "  - %s\n", rec)
	}
	return nil
}

func (r *textRenderer) RenderNotice(msg string) error {
	fmt.Fprintln(r.out, msg)
	return nil
}

// choose reads a 1-based option number until it is valid; ok is false on end of input.
func (r *textRenderer) choose(n int) (int, bool) {
	for {
		fmt.Fprintf(r.out, "Choose 1-%d: ", n)
		if !r.in.Scan() {
			return 0, false
		}
		pick, err := strconv.Atoi(strings.TrimSpace(r.in.Text()))
		if err == nil && pick >= 1 && pick <= n {
			return pick - 1, true
		}
	}
}

func (r *textRenderer) ask(prompt string) bool {
	fmt.Fprintln(r.out, prompt)
	return r.in.Scan()
}

func (r *textRenderer) confirm(prompt string) bool {
	fmt.Fprint(r.out, prompt)
	if !r.in.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(r.in.Text()))
	return answer == "y" || answer == "yes"
}
