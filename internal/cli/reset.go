package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"scenario-quiz-service/internal/config"
	"scenario-quiz-service/internal/domain"
)

// NewResetCmd wipes one user's progress for one quiz, remote record and local mirror.
func NewResetCmd(configPath *string) *cobra.Command {
	var user, quizID string
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset a user's progress for a quiz",
		RunE: func(cmd *cobra.Command, args []string) error {
			if user == "" {
				return domain.ErrMissingIdentity
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

			key := domain.ProgressKey{User: user, QuizID: quizID}
			if err := st.gateway.Reset(cmd.Context(), key); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "progress reset for %s\n", key)
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "user whose progress is reset")
	cmd.Flags().StringVar(&quizID, "quiz", "", "quiz id")
	_ = cmd.MarkFlagRequired("quiz")
	return cmd
}
