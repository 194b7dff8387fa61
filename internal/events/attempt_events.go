package events

import (
	"time"

	"github.com/eduplatform/quiz-service/internal/models"
	"github.com/google/uuid"
)

type EventType string

const (
	AttemptStarted   EventType = "quiz.attempt.started"
	AttemptCompleted EventType = "quiz.attempt.completed"
	AttemptAbandoned EventType = "quiz.attempt.abandoned"
)

// AttemptEvent is the message published when an attempt changes state.
// Downstream consumers (progress tracking, notifications) key off Type.
type AttemptEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Source    string    `json:"source"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`

	QuizID    string  `json:"quiz_id"`
	AttemptID string  `json:"attempt_id"`
	UserID    string  `json:"user_id"`
	UserType  *string `json:"user_type,omitempty"`

	// Populated for completed attempts only.
	ScorePercentage *float64 `json:"score_percentage,omitempty"`
	EarnedPoints    *int     `json:"earned_points,omitempty"`
	TotalPoints     *int     `json:"total_points,omitempty"`
	IsPassed        *bool    `json:"is_passed,omitempty"`
}

// NewAttemptEvent builds an event from an attempt's current state.
func NewAttemptEvent(eventType EventType, attempt *models.QuizAttempt) *AttemptEvent {
	event := &AttemptEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    "quiz-service",
		Version:   "1.0",
		Timestamp: time.Now(),
		QuizID:    attempt.QuizID,
		AttemptID: attempt.ID,
		UserID:    attempt.UserID,
		UserType:  attempt.UserType,
	}

	if eventType == AttemptCompleted {
		score := attempt.ScorePercentage
		earned := attempt.EarnedPoints
		total := attempt.TotalPoints
		passed := attempt.IsPassed
		event.ScorePercentage = &score
		event.EarnedPoints = &earned
		event.TotalPoints = &total
		event.IsPassed = &passed
	}

	return event
}
