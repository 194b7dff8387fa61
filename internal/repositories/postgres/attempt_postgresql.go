package postgres

import (
	"context"

	"github.com/eduplatform/quiz-service/internal/models"
	"github.com/eduplatform/quiz-service/internal/repositories"
	"gorm.io/gorm"
)

type AttemptPostgreSQL struct {
	db *gorm.DB
}

func NewAttemptPostgreSQL(db *gorm.DB) repositories.AttemptRepository {
	return &AttemptPostgreSQL{db: db}
}

func (a AttemptPostgreSQL) Create(ctx context.Context, attempt *models.QuizAttempt) error {
	return a.db.WithContext(ctx).Create(attempt).Error
}

func (a AttemptPostgreSQL) GetByID(ctx context.Context, id string) (*models.QuizAttempt, error) {
	var attempt models.QuizAttempt
	if err := a.db.WithContext(ctx).First(&attempt, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (a AttemptPostgreSQL) GetByIDWithAnswers(ctx context.Context, id string) (*models.QuizAttempt, error) {
	var attempt models.QuizAttempt
	if err := a.db.WithContext(ctx).
		Preload("QuestionAttempts", func(db *gorm.DB) *gorm.DB {
			return db.Order("question_attempts.answered_at ASC")
		}).
		First(&attempt, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (a AttemptPostgreSQL) Update(ctx context.Context, attempt *models.QuizAttempt) error {
	return a.db.WithContext(ctx).Save(attempt).Error
}

func (a AttemptPostgreSQL) Delete(ctx context.Context, id string) error {
	return a.db.WithContext(ctx).Delete(&models.QuizAttempt{}, "id = ?", id).Error
}

func (a AttemptPostgreSQL) List(ctx context.Context, filters repositories.AttemptFilters) ([]*models.QuizAttempt, int64, error) {
	var attempts []*models.QuizAttempt
	var total int64

	query := a.db.WithContext(ctx).Model(&models.QuizAttempt{})
	query = a.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("started_at DESC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Find(&attempts).Error; err != nil {
		return nil, 0, err
	}

	return attempts, total, nil
}

func (a AttemptPostgreSQL) FindByUserAndQuiz(ctx context.Context, userID, quizID string) ([]*models.QuizAttempt, error) {
	var attempts []*models.QuizAttempt
	if err := a.db.WithContext(ctx).
		Where("user_id = ? AND quiz_id = ?", userID, quizID).
		Order("attempt_ordinal ASC").
		Find(&attempts).Error; err != nil {
		return nil, err
	}
	return attempts, nil
}

func (a AttemptPostgreSQL) CountByUserAndQuiz(ctx context.Context, userID, quizID string) (int, error) {
	var count int64
	if err := a.db.WithContext(ctx).Model(&models.QuizAttempt{}).
		Where("user_id = ? AND quiz_id = ?", userID, quizID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

func (a AttemptPostgreSQL) GetActiveAttempt(ctx context.Context, userID, quizID string) (*models.QuizAttempt, error) {
	var attempt models.QuizAttempt
	if err := a.db.WithContext(ctx).
		Where("user_id = ? AND quiz_id = ? AND status = ?", userID, quizID, models.AttemptStatusInProgress).
		Order("started_at DESC").
		First(&attempt).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (a AttemptPostgreSQL) UpdateStatus(ctx context.Context, id string, status models.AttemptStatus) error {
	result := a.db.WithContext(ctx).Model(&models.QuizAttempt{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (a AttemptPostgreSQL) GetByStatus(ctx context.Context, status models.AttemptStatus, limit, offset int) ([]*models.QuizAttempt, error) {
	var attempts []*models.QuizAttempt
	query := a.db.WithContext(ctx).Where("status = ?", status).Order("started_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	if err := query.Find(&attempts).Error; err != nil {
		return nil, err
	}
	return attempts, nil
}

func (a AttemptPostgreSQL) CreateQuestionAttempts(ctx context.Context, attempts []*models.QuestionAttempt) error {
	if len(attempts) == 0 {
		return nil
	}
	return a.db.WithContext(ctx).Create(attempts).Error
}

func (a AttemptPostgreSQL) GetQuestionAttempts(ctx context.Context, attemptID string) ([]*models.QuestionAttempt, error) {
	var records []*models.QuestionAttempt
	if err := a.db.WithContext(ctx).
		Where("quiz_attempt_id = ?", attemptID).
		Order("answered_at ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (a AttemptPostgreSQL) GetQuizStats(ctx context.Context, quizID string) (*repositories.QuizAttemptStats, error) {
	stats := &repositories.QuizAttemptStats{
		StatusBreakdown: make(map[models.AttemptStatus]int),
	}

	type statusCount struct {
		Status models.AttemptStatus
		Count  int
	}
	var byStatus []statusCount
	if err := a.db.WithContext(ctx).Model(&models.QuizAttempt{}).
		Select("status, COUNT(*) as count").
		Where("quiz_id = ?", quizID).
		Group("status").
		Scan(&byStatus).Error; err != nil {
		return nil, err
	}
	for _, sc := range byStatus {
		stats.StatusBreakdown[sc.Status] = sc.Count
		stats.TotalAttempts += sc.Count
	}
	stats.CompletedAttempts = stats.StatusBreakdown[models.AttemptStatusCompleted]

	if stats.CompletedAttempts > 0 {
		type aggregates struct {
			AvgScore float64
			Passed   int
		}
		var agg aggregates
		if err := a.db.WithContext(ctx).Model(&models.QuizAttempt{}).
			Select("AVG(score_percentage) as avg_score, COUNT(*) FILTER (WHERE is_passed) as passed").
			Where("quiz_id = ? AND status = ?", quizID, models.AttemptStatusCompleted).
			Scan(&agg).Error; err != nil {
			return nil, err
		}
		stats.AverageScore = agg.AvgScore
		stats.PassRate = float64(agg.Passed) / float64(stats.CompletedAttempts) * 100
	}

	return stats, nil
}

func (a AttemptPostgreSQL) applyFilters(query *gorm.DB, filters repositories.AttemptFilters) *gorm.DB {
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.UserID != nil {
		query = query.Where("user_id = ?", *filters.UserID)
	}
	if filters.QuizID != nil {
		query = query.Where("quiz_id = ?", *filters.QuizID)
	}
	if filters.DateFrom != nil {
		query = query.Where("started_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("started_at <= ?", *filters.DateTo)
	}
	return query
}
