package postgres

import (
	"context"

	"github.com/eduplatform/quiz-service/internal/models"
	"github.com/eduplatform/quiz-service/internal/repositories"
	"gorm.io/gorm"
)

// GormRepository wires the gorm-backed entity repositories together.
type GormRepository struct {
	db      *gorm.DB
	quiz    repositories.QuizRepository
	attempt repositories.AttemptRepository
}

func NewRepository(db *gorm.DB) repositories.Repository {
	return &GormRepository{
		db:      db,
		quiz:    NewQuizPostgreSQL(db),
		attempt: NewAttemptPostgreSQL(db),
	}
}

func (r *GormRepository) Quiz() repositories.QuizRepository {
	return r.quiz
}

func (r *GormRepository) Attempt() repositories.AttemptRepository {
	return r.attempt
}

func (r *GormRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}

func (r *GormRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *GormRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// AutoMigrate applies the schema for all quiz service tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Quiz{},
		&models.Question{},
		&models.QuestionOption{},
		&models.QuizAttempt{},
		&models.QuestionAttempt{},
	)
}
