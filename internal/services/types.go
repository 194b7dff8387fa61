package services

import (
	"context"
	"time"

	"github.com/eduplatform/quiz-service/internal/models"
	"github.com/eduplatform/quiz-service/internal/repositories"
)

// ===== SERVICE INTERFACES =====

type QuizService interface {
	Create(ctx context.Context, req *CreateQuizRequest) (*models.Quiz, error)
	GetByID(ctx context.Context, id string) (*models.Quiz, error)
	GetByIDWithQuestions(ctx context.Context, id string) (*models.Quiz, error)
	GetQuestions(ctx context.Context, id string) ([]models.Question, error)
	List(ctx context.Context, filters repositories.QuizFilters) ([]*models.Quiz, int64, error)
	Update(ctx context.Context, id string, req *UpdateQuizRequest) (*models.Quiz, error)
	SetActive(ctx context.Context, id string, active bool, modifiedBy *string) error
	Delete(ctx context.Context, id string) error
}

type AttemptService interface {
	// Eligibility
	CanStart(ctx context.Context, quizID, userID string) (*EligibilityResult, error)

	// Lifecycle
	Start(ctx context.Context, req *StartAttemptRequest) (*models.QuizAttempt, error)
	SubmitAnswer(ctx context.Context, attemptID string, answer *SubmittedAnswer) (*QuestionResult, error)
	Finalize(ctx context.Context, attemptID string, timeSpentSeconds *int) (*SubmitQuizResponse, error)
	Abandon(ctx context.Context, attemptID string) error

	// One-shot submission: score a full answer set and persist a
	// completed attempt in a single call.
	Submit(ctx context.Context, req *SubmitQuizRequest) (*SubmitQuizResponse, error)

	// Queries
	GetByID(ctx context.Context, id string) (*models.QuizAttempt, error)
	GetHistory(ctx context.Context, quizID, userID string) ([]*models.QuizAttempt, error)
	GetQuizStats(ctx context.Context, quizID string) (*repositories.QuizAttemptStats, error)
}

type ExportService interface {
	ExportQuizResults(ctx context.Context, quizID string) ([]byte, error)
}

// ===== REQUEST STRUCTS =====

type CreateQuizRequest struct {
	Title                  string                  `json:"title" validate:"required,min=1,max=200"`
	Description            *string                 `json:"description" validate:"omitempty,max=1000"`
	Category               *string                 `json:"category" validate:"omitempty,max=100"`
	Difficulty             models.DifficultyLevel  `json:"difficulty" validate:"omitempty,difficulty_level"`
	DurationMinutes        int                     `json:"duration_minutes" validate:"min=0"`
	PassingScorePercentage int                     `json:"passing_score_percentage" validate:"min=0,max=100"`
	MaxAttempts            int                     `json:"max_attempts" validate:"min=0"`
	IsRandomized           bool                    `json:"is_randomized"`
	ShowCorrectAnswers     *bool                   `json:"show_correct_answers"`
	ShowExplanations       *bool                   `json:"show_explanations"`
	CreatedBy              *string                 `json:"created_by"`
	Questions              []CreateQuestionRequest `json:"questions" validate:"dive"`
}

type CreateQuestionRequest struct {
	QuestionText     string                 `json:"question_text" validate:"required,min=1"`
	Explanation      *string                `json:"explanation"`
	QuestionType     models.QuestionType    `json:"question_type" validate:"required,question_type"`
	Difficulty       models.DifficultyLevel `json:"difficulty" validate:"omitempty,difficulty_level"`
	Points           int                    `json:"points" validate:"min=1"`
	OrderIndex       int                    `json:"order_index"`
	IsRequired       bool                   `json:"is_required"`
	TimeLimitSeconds *int                   `json:"time_limit_seconds" validate:"omitempty,min=1"`
	CorrectBoolean   *bool                  `json:"correct_boolean"`
	Options          []CreateOptionRequest  `json:"options" validate:"dive"`
}

type CreateOptionRequest struct {
	OptionText string `json:"option_text" validate:"required"`
	IsCorrect  bool   `json:"is_correct"`
	OrderIndex int    `json:"order_index"`
}

// UpdateQuizRequest replaces the quiz wholesale: the stored entity is
// rebuilt from this payload and the version bumped, never patched in
// place.
type UpdateQuizRequest struct {
	Title                  string                  `json:"title" validate:"required,min=1,max=200"`
	Description            *string                 `json:"description" validate:"omitempty,max=1000"`
	Category               *string                 `json:"category" validate:"omitempty,max=100"`
	Difficulty             models.DifficultyLevel  `json:"difficulty" validate:"omitempty,difficulty_level"`
	DurationMinutes        int                     `json:"duration_minutes" validate:"min=0"`
	PassingScorePercentage int                     `json:"passing_score_percentage" validate:"min=0,max=100"`
	MaxAttempts            int                     `json:"max_attempts" validate:"min=0"`
	IsRandomized           bool                    `json:"is_randomized"`
	ShowCorrectAnswers     *bool                   `json:"show_correct_answers"`
	ShowExplanations       *bool                   `json:"show_explanations"`
	LastModifiedBy         *string                 `json:"last_modified_by"`
	Questions              []CreateQuestionRequest `json:"questions" validate:"dive"`
}

type StartAttemptRequest struct {
	QuizID   string  `json:"quiz_id" validate:"required"`
	UserID   string  `json:"user_id" validate:"required"`
	UserType *string `json:"user_type"`
}

type SubmitQuizRequest struct {
	QuizID           string            `json:"quiz_id" validate:"required"`
	UserID           string            `json:"user_id" validate:"required"`
	UserType         *string           `json:"user_type"`
	Answers          []SubmittedAnswer `json:"answers" validate:"dive"`
	TimeSpentSeconds *int              `json:"time_spent_seconds" validate:"omitempty,min=0"`
}

// ===== RESPONSE STRUCTS =====

type EligibilityResult struct {
	Eligible     bool `json:"eligible"`
	AttemptsUsed int  `json:"attempts_used"`
	MaxAttempts  int  `json:"max_attempts"` // 0 = unlimited
}

// AnswerEcho mirrors a submitted answer back to the caller with its
// correctness markers attached.
type AnswerEcho struct {
	SubmittedAnswer
	IsCorrect    bool `json:"is_correct"`
	PointsEarned int  `json:"points_earned"`
	MaxPoints    int  `json:"max_points"`
}

type SubmitQuizResponse struct {
	AttemptID      string       `json:"attempt_id"`
	QuizID         string       `json:"quiz_id"`
	UserID         string       `json:"user_id"`
	Score          int          `json:"score"` // earned points
	TotalQuestions int          `json:"total_questions"`
	CorrectAnswers int          `json:"correct_answers"`
	Percentage     float64      `json:"percentage"`
	IsPassed       bool         `json:"is_passed"`
	Answers        []AnswerEcho `json:"answers"`
	SubmittedAt    time.Time    `json:"submitted_at"`
}

// ===== SERVICE MANAGER =====

// ServiceManager bundles the services for handler wiring.
type ServiceManager interface {
	Quiz() QuizService
	Attempt() AttemptService
	Export() ExportService
}

type serviceManager struct {
	quiz    QuizService
	attempt AttemptService
	export  ExportService
}

func NewServiceManager(quiz QuizService, attempt AttemptService, export ExportService) ServiceManager {
	return &serviceManager{quiz: quiz, attempt: attempt, export: export}
}

func (m *serviceManager) Quiz() QuizService       { return m.quiz }
func (m *serviceManager) Attempt() AttemptService { return m.attempt }
func (m *serviceManager) Export() ExportService   { return m.export }
