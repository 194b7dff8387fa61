package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewQuizAttempt(t *testing.T) {
	userType := "student"
	attempt := NewQuizAttempt("quiz-1", "user-1", &userType, 5, 2)

	assert.NotEmpty(t, attempt.ID)
	assert.Equal(t, "quiz-1", attempt.QuizID)
	assert.Equal(t, "user-1", attempt.UserID)
	assert.Equal(t, &userType, attempt.UserType)
	assert.Equal(t, AttemptStatusInProgress, attempt.Status)
	assert.Equal(t, 2, attempt.AttemptOrdinal)
	assert.Equal(t, 5, attempt.TotalQuestions)
	assert.False(t, attempt.StartedAt.IsZero())
	assert.Nil(t, attempt.CompletedAt)
	assert.Zero(t, attempt.EarnedPoints)
}

func TestAttemptStatus_IsTerminal(t *testing.T) {
	assert.False(t, AttemptStatusInProgress.IsTerminal())
	assert.True(t, AttemptStatusCompleted.IsTerminal())
	assert.True(t, AttemptStatusAbandoned.IsTerminal())
}

func TestQuizAttempt_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from AttemptStatus
		to   AttemptStatus
		want bool
	}{
		{"in progress to completed", AttemptStatusInProgress, AttemptStatusCompleted, true},
		{"in progress to abandoned", AttemptStatusInProgress, AttemptStatusAbandoned, true},
		{"in progress to in progress", AttemptStatusInProgress, AttemptStatusInProgress, false},
		{"completed is terminal", AttemptStatusCompleted, AttemptStatusAbandoned, false},
		{"completed cannot reopen", AttemptStatusCompleted, AttemptStatusInProgress, false},
		{"abandoned is terminal", AttemptStatusAbandoned, AttemptStatusCompleted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempt := QuizAttempt{Status: tt.from}
			assert.Equal(t, tt.want, attempt.CanTransitionTo(tt.to))
		})
	}
}
