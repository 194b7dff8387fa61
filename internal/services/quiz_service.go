package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/eduplatform/quiz-service/internal/cache"
	"github.com/eduplatform/quiz-service/internal/models"
	"github.com/eduplatform/quiz-service/internal/repositories"
	"github.com/eduplatform/quiz-service/internal/utils"
	"github.com/google/uuid"
)

const quizCacheTTL = 10 * time.Minute

type quizService struct {
	repo      repositories.Repository
	cache     cache.CacheService
	logger    *slog.Logger
	validator *utils.Validator
}

func NewQuizService(repo repositories.Repository, cacheService cache.CacheService, logger *slog.Logger, validator *utils.Validator) QuizService {
	return &quizService{
		repo:      repo,
		cache:     cacheService,
		logger:    logger,
		validator: validator,
	}
}

// ===== CRUD OPERATIONS =====

func (s *quizService) Create(ctx context.Context, req *CreateQuizRequest) (*models.Quiz, error) {
	s.logger.Info("Creating quiz", "title", req.Title, "questions", len(req.Questions))

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if errs := validateQuestionAuthoring(req.Questions); len(errs) > 0 {
		return nil, errs
	}

	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = models.DifficultyMedium
	}

	quiz := models.NewQuiz(req.Title, difficulty, req.DurationMinutes, req.PassingScorePercentage, nil, req.CreatedBy)
	quiz.Description = req.Description
	quiz.Category = req.Category
	quiz.MaxAttempts = req.MaxAttempts
	quiz.IsRandomized = req.IsRandomized
	if req.ShowCorrectAnswers != nil {
		quiz.ShowCorrectAnswers = *req.ShowCorrectAnswers
	}
	if req.ShowExplanations != nil {
		quiz.ShowExplanations = *req.ShowExplanations
	}
	quiz.Questions = buildQuestions(quiz.ID, req.Questions)

	if err := s.repo.Quiz().Create(ctx, quiz); err != nil {
		return nil, fmt.Errorf("failed to create quiz: %w", err)
	}

	s.logger.Info("Quiz created", "quiz_id", quiz.ID, "title", quiz.Title)
	return quiz, nil
}

func (s *quizService) GetByID(ctx context.Context, id string) (*models.Quiz, error) {
	quiz, err := s.repo.Quiz().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	return quiz, nil
}

func (s *quizService) GetByIDWithQuestions(ctx context.Context, id string) (*models.Quiz, error) {
	var cached models.Quiz
	if err := s.cache.Get(ctx, quizCacheKey(id), &cached); err == nil {
		return &cached, nil
	}

	quiz, err := s.repo.Quiz().GetByIDWithQuestions(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz with questions: %w", err)
	}

	quiz.TotalPoints = quiz.ComputeTotalPoints()
	quiz.QuestionsCount = len(quiz.Questions)

	if err := s.cache.Set(ctx, quizCacheKey(id), quiz, quizCacheTTL); err != nil {
		s.logger.Warn("Failed to cache quiz", "quiz_id", id, "error", err)
	}

	return quiz, nil
}

func (s *quizService) GetQuestions(ctx context.Context, id string) ([]models.Question, error) {
	quiz, err := s.GetByIDWithQuestions(ctx, id)
	if err != nil {
		return nil, err
	}
	return quiz.ActiveQuestions(), nil
}

func (s *quizService) List(ctx context.Context, filters repositories.QuizFilters) ([]*models.Quiz, int64, error) {
	quizzes, total, err := s.repo.Quiz().List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list quizzes: %w", err)
	}
	return quizzes, total, nil
}

// Update replaces the stored quiz wholesale and bumps the version.
// The entity fetched from the repository is never patched field by
// field; a fresh value is built so shared/cached instances stay
// untouched.
func (s *quizService) Update(ctx context.Context, id string, req *UpdateQuizRequest) (*models.Quiz, error) {
	s.logger.Info("Updating quiz", "quiz_id", id)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if errs := validateQuestionAuthoring(req.Questions); len(errs) > 0 {
		return nil, errs
	}

	existing, err := s.repo.Quiz().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = existing.Difficulty
	}

	updated := &models.Quiz{
		ID:                     existing.ID,
		Title:                  req.Title,
		Description:            req.Description,
		Category:               req.Category,
		Difficulty:             difficulty,
		DurationMinutes:        req.DurationMinutes,
		PassingScorePercentage: req.PassingScorePercentage,
		MaxAttempts:            req.MaxAttempts,
		IsActive:               existing.IsActive,
		IsRandomized:           req.IsRandomized,
		ShowCorrectAnswers:     existing.ShowCorrectAnswers,
		ShowExplanations:       existing.ShowExplanations,
		CreatedBy:              existing.CreatedBy,
		LastModifiedBy:         req.LastModifiedBy,
		CreatedAt:              existing.CreatedAt,
		Version:                existing.Version + 1,
	}
	if req.ShowCorrectAnswers != nil {
		updated.ShowCorrectAnswers = *req.ShowCorrectAnswers
	}
	if req.ShowExplanations != nil {
		updated.ShowExplanations = *req.ShowExplanations
	}
	updated.Questions = buildQuestions(updated.ID, req.Questions)

	if err := s.repo.Quiz().Update(ctx, updated); err != nil {
		return nil, fmt.Errorf("failed to update quiz: %w", err)
	}

	s.invalidate(ctx, id)
	s.logger.Info("Quiz updated", "quiz_id", id, "version", updated.Version)
	return updated, nil
}

func (s *quizService) SetActive(ctx context.Context, id string, active bool, modifiedBy *string) error {
	s.logger.Info("Setting quiz active state", "quiz_id", id, "active", active)

	if err := s.repo.Quiz().SetActive(ctx, id, active, modifiedBy); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuizNotFound
		}
		return fmt.Errorf("failed to set quiz active state: %w", err)
	}

	s.invalidate(ctx, id)
	return nil
}

func (s *quizService) Delete(ctx context.Context, id string) error {
	s.logger.Info("Deleting quiz", "quiz_id", id)

	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}

	if err := s.repo.Quiz().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete quiz: %w", err)
	}

	s.invalidate(ctx, id)
	return nil
}

// ===== HELPERS =====

func (s *quizService) invalidate(ctx context.Context, id string) {
	if err := s.cache.Delete(ctx, quizCacheKey(id)); err != nil {
		s.logger.Warn("Failed to invalidate quiz cache", "quiz_id", id, "error", err)
	}
}

func quizCacheKey(id string) string {
	return "quiz:def:" + id
}

func buildQuestions(quizID string, reqs []CreateQuestionRequest) []models.Question {
	questions := make([]models.Question, len(reqs))
	for i, qr := range reqs {
		difficulty := qr.Difficulty
		if difficulty == "" {
			difficulty = models.DifficultyMedium
		}
		points := qr.Points
		if points < 1 {
			points = 1
		}
		question := models.Question{
			ID:               uuid.NewString(),
			QuizID:           quizID,
			QuestionText:     qr.QuestionText,
			Explanation:      qr.Explanation,
			QuestionType:     qr.QuestionType,
			Difficulty:       difficulty,
			Points:           points,
			OrderIndex:       qr.OrderIndex,
			IsActive:         true,
			IsRequired:       qr.IsRequired,
			TimeLimitSeconds: qr.TimeLimitSeconds,
			CorrectBoolean:   qr.CorrectBoolean,
		}
		question.Options = make([]models.QuestionOption, len(qr.Options))
		for j, or := range qr.Options {
			question.Options[j] = models.QuestionOption{
				ID:         uuid.NewString(),
				QuestionID: question.ID,
				OptionText: or.OptionText,
				IsCorrect:  or.IsCorrect,
				OrderIndex: or.OrderIndex,
				IsActive:   true,
			}
		}
		questions[i] = question
	}
	return questions
}

// validateQuestionAuthoring enforces the per-type authoring rules the
// scorer relies on: multiple-choice questions carry exactly one
// correct option, true/false questions carry their expected boolean.
func validateQuestionAuthoring(reqs []CreateQuestionRequest) ValidationErrors {
	var errs ValidationErrors
	for i, qr := range reqs {
		field := fmt.Sprintf("questions[%d]", i)
		switch qr.QuestionType {
		case models.MultipleChoice:
			correct := 0
			for _, opt := range qr.Options {
				if opt.IsCorrect {
					correct++
				}
			}
			if len(qr.Options) < 2 {
				errs = append(errs, *NewValidationError(field+".options", "must have at least 2 options", len(qr.Options)))
			}
			if correct != 1 {
				errs = append(errs, *NewValidationError(field+".options", "must have exactly one correct option", correct))
			}
		case models.TrueFalse:
			if qr.CorrectBoolean == nil {
				errs = append(errs, *NewValidationError(field+".correct_boolean", "is required for true_false questions", nil))
			}
		}
	}
	return errs
}
