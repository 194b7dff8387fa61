package repositories

import (
	"context"

	"github.com/eduplatform/quiz-service/internal/models"
)

// QuizRepository interface for quiz definition operations
type QuizRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, quiz *models.Quiz) error
	GetByID(ctx context.Context, id string) (*models.Quiz, error)
	GetByIDWithQuestions(ctx context.Context, id string) (*models.Quiz, error) // Include questions and options
	Update(ctx context.Context, quiz *models.Quiz) error
	Delete(ctx context.Context, id string) error

	// Query operations
	List(ctx context.Context, filters QuizFilters) ([]*models.Quiz, int64, error)
	GetByCreator(ctx context.Context, creatorID string, filters QuizFilters) ([]*models.Quiz, int64, error)

	// Status management
	SetActive(ctx context.Context, id string, active bool, modifiedBy *string) error

	// Question analytics
	IncrementQuestionStats(ctx context.Context, questionID string, correct bool, timeSpentSeconds *int) error
	IncrementOptionSelection(ctx context.Context, optionID string) error
}
