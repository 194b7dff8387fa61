package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
	FillInBlank    QuestionType = "fill_in_blank"
	ShortAnswer    QuestionType = "short_answer"
	Essay          QuestionType = "essay"
	Matching       QuestionType = "matching"
	Ordering       QuestionType = "ordering"
)

type DifficultyLevel string

const (
	DifficultyEasy   DifficultyLevel = "easy"
	DifficultyMedium DifficultyLevel = "medium"
	DifficultyHard   DifficultyLevel = "hard"
	DifficultyExpert DifficultyLevel = "expert"
)

type Quiz struct {
	ID          string          `json:"id" gorm:"primaryKey;size:36"`
	Title       string          `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description *string         `json:"description" gorm:"type:text" validate:"omitempty,max=1000"`
	Category    *string         `json:"category" gorm:"size:100;index"`
	Difficulty  DifficultyLevel `json:"difficulty" gorm:"not null;default:medium" validate:"omitempty,difficulty_level"`

	DurationMinutes        int `json:"duration_minutes" gorm:"not null;default:0" validate:"min=0"`
	PassingScorePercentage int `json:"passing_score_percentage" gorm:"not null" validate:"min=0,max=100"`
	MaxAttempts            int `json:"max_attempts" gorm:"default:0" validate:"min=0"` // 0 = unlimited

	IsActive           bool `json:"is_active" gorm:"default:true;index"`
	IsRandomized       bool `json:"is_randomized" gorm:"default:false"`
	ShowCorrectAnswers bool `json:"show_correct_answers" gorm:"default:true"`
	ShowExplanations   bool `json:"show_explanations" gorm:"default:true"`

	// Metadata
	CreatedBy      *string        `json:"created_by" gorm:"size:36;index"`
	LastModifiedBy *string        `json:"last_modified_by" gorm:"size:36"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`

	// Version control
	Version int `json:"version" gorm:"default:1"`

	// Relations
	Questions []Question `json:"questions" gorm:"foreignKey:QuizID"`

	// Computed fields (not stored)
	TotalPoints    int `json:"total_points" gorm:"-"`
	QuestionsCount int `json:"questions_count" gorm:"-"`
}

type Question struct {
	ID           string          `json:"id" gorm:"primaryKey;size:36"`
	QuizID       string          `json:"quiz_id" gorm:"not null;size:36;index"`
	QuestionText string          `json:"question_text" gorm:"not null;type:text" validate:"required,min=1"`
	Explanation  *string         `json:"explanation" gorm:"type:text"`
	QuestionType QuestionType    `json:"question_type" gorm:"not null;index" validate:"required,question_type"`
	Difficulty   DifficultyLevel `json:"difficulty" gorm:"not null;default:medium" validate:"omitempty,difficulty_level"`

	Points           int  `json:"points" gorm:"not null;default:1" validate:"min=1"`
	OrderIndex       int  `json:"order_index" gorm:"not null;default:0"`
	IsActive         bool `json:"is_active" gorm:"default:true"`
	IsRequired       bool `json:"is_required" gorm:"default:false"`
	TimeLimitSeconds *int `json:"time_limit_seconds" validate:"omitempty,min=1"`

	// Expected answer for true_false questions. The reference platform
	// scored true/false answers without comparing to a stored value;
	// this field replaces that behavior.
	CorrectBoolean *bool `json:"correct_boolean"`

	// Analytics counters
	TotalAttempts      int     `json:"total_attempts" gorm:"default:0"`
	CorrectAttempts    int     `json:"correct_attempts" gorm:"default:0"`
	AverageTimeSeconds float64 `json:"average_time_seconds" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Options []QuestionOption `json:"options" gorm:"foreignKey:QuestionID"`
}

type QuestionOption struct {
	ID         string `json:"id" gorm:"primaryKey;size:36"`
	QuestionID string `json:"question_id" gorm:"not null;size:36;index"`
	OptionText string `json:"option_text" gorm:"not null;type:text" validate:"required"`
	IsCorrect  bool   `json:"is_correct" gorm:"default:false"`
	OrderIndex int    `json:"order_index" gorm:"not null;default:0"`
	IsActive   bool   `json:"is_active" gorm:"default:true"`

	// Analytics
	SelectionCount int `json:"selection_count" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

func (Question) TableName() string {
	return "questions"
}

func (QuestionOption) TableName() string {
	return "question_options"
}

// NewQuiz builds a quiz with a fresh id and active state. Field
// invariants are checked separately through the validator.
func NewQuiz(title string, difficulty DifficultyLevel, durationMinutes, passingScorePercentage int, questions []Question, createdBy *string) *Quiz {
	return &Quiz{
		ID:                     uuid.NewString(),
		Title:                  title,
		Difficulty:             difficulty,
		DurationMinutes:        durationMinutes,
		PassingScorePercentage: passingScorePercentage,
		IsActive:               true,
		ShowCorrectAnswers:     true,
		ShowExplanations:       true,
		CreatedBy:              createdBy,
		LastModifiedBy:         createdBy,
		Questions:              questions,
		Version:                1,
	}
}

// QuestionByID looks up a question owned by this quiz.
func (q *Quiz) QuestionByID(questionID string) *Question {
	for i := range q.Questions {
		if q.Questions[i].ID == questionID {
			return &q.Questions[i]
		}
	}
	return nil
}

// ComputeTotalPoints sums points over every question in the quiz,
// answered or not. Unanswered questions still count toward the
// denominator when an attempt is scored.
func (q *Quiz) ComputeTotalPoints() int {
	total := 0
	for i := range q.Questions {
		total += q.Questions[i].Points
	}
	return total
}

// ActiveQuestions returns the questions currently enabled for delivery.
func (q *Quiz) ActiveQuestions() []Question {
	active := make([]Question, 0, len(q.Questions))
	for i := range q.Questions {
		if q.Questions[i].IsActive {
			active = append(active, q.Questions[i])
		}
	}
	return active
}

// CanStartAttempt decides whether a user with usedAttempts prior
// attempts may begin another. Inactive quizzes never accept attempts;
// MaxAttempts of zero means unlimited. Pure predicate over the quiz
// state and the count.
func (q *Quiz) CanStartAttempt(usedAttempts int) bool {
	if !q.IsActive {
		return false
	}
	if q.MaxAttempts > 0 && usedAttempts >= q.MaxAttempts {
		return false
	}
	return true
}

// CorrectOption returns the first option flagged correct, or nil.
// Authoring validation enforces exactly one correct option for
// multiple-choice questions, so "first" is normally "only".
func (question *Question) CorrectOption() *QuestionOption {
	for i := range question.Options {
		if question.Options[i].IsCorrect {
			return &question.Options[i]
		}
	}
	return nil
}

// SuccessRate is the percentage of attempts answered correctly,
// 0 when the question has never been attempted.
func (question *Question) SuccessRate() float64 {
	if question.TotalAttempts == 0 {
		return 0
	}
	return float64(question.CorrectAttempts) / float64(question.TotalAttempts) * 100
}

// DifficultyBucket derives an observed difficulty from the success
// rate: easy at 80% and above, medium at 50%, hard below that.
func (question *Question) DifficultyBucket() DifficultyLevel {
	rate := question.SuccessRate()
	switch {
	case rate >= 80:
		return DifficultyEasy
	case rate >= 50:
		return DifficultyMedium
	default:
		return DifficultyHard
	}
}
