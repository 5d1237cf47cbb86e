package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scenario-quiz-service/internal/domain"
)

const catalog = `
title: Regression basics
config:
  passPercentage: 60
  retry: unless-failed
  requireCheckpointXP: true
  checkpoints:
    - level: Basic
      questionCount: 1
      minXP: 10
levels:
  - name: Basic
    scenarios:
      - id: basic-1
        title: Flaky checkout test
        options:
          - text: Quarantine and file a bug
            outcome: The team fixes the race
            experience: 15
            tool: Bug Tracker
          - text: Delete the test
            outcome: The bug ships
            experience: -10
  - name: Intermediate
    scenarios:
      - id: inter-1
        title: Release candidate regression
        options:
          - text: Bisect
            experience: 20
            isCorrect: true
          - text: Revert everything
            experience: 5
`

func TestLoadQuizFromYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "regression.yaml"), []byte(catalog), 0o644))
	loader := NewQuizLoader(dir)

	quiz, err := loader.LoadQuiz(context.Background(), "regression")
	require.NoError(t, err)
	require.NoError(t, quiz.Validate())

	assert.Equal(t, "regression", quiz.ID)
	assert.Equal(t, domain.RetryUnlessFailed, quiz.Config.Retry)
	require.Len(t, quiz.Levels, 2)
	assert.Equal(t, "Bug Tracker", quiz.Levels[0].Scenarios[0].Options[0].Tool)
	require.NotNil(t, quiz.Levels[1].Scenarios[0].Options[0].IsCorrect)

	normalized := quiz.Normalized()
	assert.Equal(t, 35, normalized.Config.MaxXP)
	assert.Equal(t, 2, normalized.Config.TotalQuestions)

	ids, err := loader.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"regression"}, ids)
}

func TestLoadQuizErrors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("levels: [unclosed"), 0o644))
	loader := NewQuizLoader(dir)

	_, err := loader.LoadQuiz(context.Background(), "missing")
	assert.True(t, errors.Is(err, domain.ErrQuizNotFound))

	_, err = loader.LoadQuiz(context.Background(), "../etc/passwd")
	assert.True(t, errors.Is(err, domain.ErrQuizNotFound))

	_, err = loader.LoadQuiz(context.Background(), "broken")
	assert.True(t, errors.Is(err, domain.ErrInvalidQuiz))
}
