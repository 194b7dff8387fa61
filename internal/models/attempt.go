package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AttemptStatus string

const (
	AttemptStatusInProgress AttemptStatus = "in_progress"
	AttemptStatusCompleted  AttemptStatus = "completed"
	AttemptStatusAbandoned  AttemptStatus = "abandoned"
)

// IsTerminal reports whether the status admits no further transitions.
func (s AttemptStatus) IsTerminal() bool {
	return s == AttemptStatusCompleted || s == AttemptStatusAbandoned
}

type QuizAttempt struct {
	ID       string  `json:"id" gorm:"primaryKey;size:36"`
	QuizID   string  `json:"quiz_id" gorm:"not null;size:36;uniqueIndex:idx_attempts_quiz_user_ordinal"`
	UserID   string  `json:"user_id" gorm:"not null;size:64;uniqueIndex:idx_attempts_quiz_user_ordinal"`
	UserType *string `json:"user_type" gorm:"size:32"`

	Status      AttemptStatus `json:"status" gorm:"not null;default:in_progress;index"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt *time.Time    `json:"completed_at"`

	// Ordinal of this attempt for the (quiz, user) pair. The unique
	// index closes the check-then-act race on max-attempt enforcement:
	// two racing submissions compute the same ordinal and the second
	// insert fails.
	AttemptOrdinal int `json:"attempt_ordinal" gorm:"not null;default:1;uniqueIndex:idx_attempts_quiz_user_ordinal"`

	TotalQuestions    int     `json:"total_questions"`
	AnsweredQuestions int     `json:"answered_questions"`
	CorrectAnswers    int     `json:"correct_answers"`
	ScorePercentage   float64 `json:"score_percentage"`
	TotalPoints       int     `json:"total_points"`
	EarnedPoints      int     `json:"earned_points"`
	IsPassed          bool    `json:"is_passed"`
	TimeSpentSeconds  *int    `json:"time_spent_seconds"`

	// Raw echo of the submitted answers, kept alongside the scored
	// records for the response contract and audit.
	AnswerSnapshot datatypes.JSON `json:"answer_snapshot" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	QuestionAttempts []QuestionAttempt `json:"question_attempts" gorm:"foreignKey:QuizAttemptID"`
}

// QuestionAttempt is the scored record of one answer within one
// attempt. Exactly one of SelectedOptionID, TextAnswer, BooleanAnswer
// is populated depending on the question type. Immutable once created.
type QuestionAttempt struct {
	ID            string `json:"id" gorm:"primaryKey;size:36"`
	QuizAttemptID string `json:"quiz_attempt_id" gorm:"not null;size:36;index"`
	QuestionID    string `json:"question_id" gorm:"not null;size:36;index"`

	SelectedOptionID *string `json:"selected_option_id" gorm:"size:36"`
	TextAnswer       *string `json:"text_answer" gorm:"type:text"`
	BooleanAnswer    *bool   `json:"boolean_answer"`

	IsCorrect        bool      `json:"is_correct"`
	PointsEarned     int       `json:"points_earned"`
	MaxPoints        int       `json:"max_points"`
	TimeSpentSeconds *int      `json:"time_spent_seconds"`
	AnsweredAt       time.Time `json:"answered_at"`

	CreatedAt time.Time `json:"created_at"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}

func (QuestionAttempt) TableName() string {
	return "question_attempts"
}

// NewQuizAttempt starts an attempt in the in_progress state with
// zeroed counters.
func NewQuizAttempt(quizID, userID string, userType *string, totalQuestions, attemptOrdinal int) *QuizAttempt {
	return &QuizAttempt{
		ID:             uuid.NewString(),
		QuizID:         quizID,
		UserID:         userID,
		UserType:       userType,
		Status:         AttemptStatusInProgress,
		StartedAt:      time.Now(),
		AttemptOrdinal: attemptOrdinal,
		TotalQuestions: totalQuestions,
	}
}

// CanTransitionTo encodes the attempt lifecycle: in_progress may move
// to completed or abandoned; terminal states accept nothing.
func (a *QuizAttempt) CanTransitionTo(next AttemptStatus) bool {
	if a.Status != AttemptStatusInProgress {
		return false
	}
	return next == AttemptStatusCompleted || next == AttemptStatusAbandoned
}
