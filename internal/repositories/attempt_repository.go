package repositories

import (
	"context"

	"github.com/eduplatform/quiz-service/internal/models"
)

// AttemptRepository interface for quiz attempt operations
type AttemptRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, attempt *models.QuizAttempt) error
	GetByID(ctx context.Context, id string) (*models.QuizAttempt, error)
	GetByIDWithAnswers(ctx context.Context, id string) (*models.QuizAttempt, error) // Include question attempts
	Update(ctx context.Context, attempt *models.QuizAttempt) error
	Delete(ctx context.Context, id string) error

	// Query operations
	List(ctx context.Context, filters AttemptFilters) ([]*models.QuizAttempt, int64, error)
	FindByUserAndQuiz(ctx context.Context, userID, quizID string) ([]*models.QuizAttempt, error)
	CountByUserAndQuiz(ctx context.Context, userID, quizID string) (int, error)
	GetActiveAttempt(ctx context.Context, userID, quizID string) (*models.QuizAttempt, error)

	// Status management
	UpdateStatus(ctx context.Context, id string, status models.AttemptStatus) error
	GetByStatus(ctx context.Context, status models.AttemptStatus, limit, offset int) ([]*models.QuizAttempt, error)

	// Answer records
	CreateQuestionAttempts(ctx context.Context, attempts []*models.QuestionAttempt) error
	GetQuestionAttempts(ctx context.Context, attemptID string) ([]*models.QuestionAttempt, error)

	// Statistics
	GetQuizStats(ctx context.Context, quizID string) (*QuizAttemptStats, error)
}
