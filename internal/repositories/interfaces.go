package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/eduplatform/quiz-service/internal/models"
	"gorm.io/gorm"
)

// Repository aggregates the per-entity repositories behind one
// injection point, the way the service layer consumes them.
type Repository interface {
	Quiz() QuizRepository
	Attempt() AttemptRepository

	WithTransaction(ctx context.Context, fn func(Repository) error) error
	Ping(ctx context.Context) error
	Close() error
}

// ===== SHARED FILTER STRUCTS =====

type QuizFilters struct {
	IsActive   *bool                   `json:"is_active"`
	Category   *string                 `json:"category"`
	Difficulty *models.DifficultyLevel `json:"difficulty"`
	CreatedBy  *string                 `json:"created_by"`
	Limit      int                     `json:"limit"`
	Offset     int                     `json:"offset"`
	SortBy     string                  `json:"sort_by"`    // "created_at", "title"
	SortOrder  string                  `json:"sort_order"` // "asc", "desc"
}

type AttemptFilters struct {
	Status   *models.AttemptStatus `json:"status"`
	UserID   *string               `json:"user_id"`
	QuizID   *string               `json:"quiz_id"`
	DateFrom *time.Time            `json:"date_from"`
	DateTo   *time.Time            `json:"date_to"`
	Limit    int                   `json:"limit"`
	Offset   int                   `json:"offset"`
}

// ===== SHARED STATISTICS STRUCTS =====

type QuizAttemptStats struct {
	TotalAttempts     int                          `json:"total_attempts"`
	CompletedAttempts int                          `json:"completed_attempts"`
	StatusBreakdown   map[models.AttemptStatus]int `json:"status_breakdown"`
	AverageScore      float64                      `json:"average_score"`
	PassRate          float64                      `json:"pass_rate"`
}

// IsNotFoundError reports whether err is the driver's record-not-found.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicateKeyError reports whether err is a uniqueness violation,
// which the attempt path treats as a concurrent-creation conflict.
func IsDuplicateKeyError(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
