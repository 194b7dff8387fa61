package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/eduplatform/quiz-service/internal/events"
	"github.com/eduplatform/quiz-service/internal/models"
	"github.com/eduplatform/quiz-service/internal/repositories"
	"github.com/eduplatform/quiz-service/internal/utils"
	"github.com/google/uuid"
)

type attemptService struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *utils.Validator

	// Per-(quiz, user) locks serialize attempt creation so the
	// max-attempt check and the insert happen as one step within a
	// process. Across processes the unique ordinal index is the
	// backstop.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewAttemptService(repo repositories.Repository, publisher events.EventPublisher, logger *slog.Logger, validator *utils.Validator) AttemptService {
	return &attemptService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		validator: validator,
		locks:     make(map[string]*sync.Mutex),
	}
}

func (s *attemptService) lockFor(quizID, userID string) *sync.Mutex {
	key := quizID + ":" + userID
	s.mu.Lock()
	defer s.mu.Unlock()
	if lock, ok := s.locks[key]; ok {
		return lock
	}
	lock := &sync.Mutex{}
	s.locks[key] = lock
	return lock
}

// ===== ELIGIBILITY =====

func (s *attemptService) CanStart(ctx context.Context, quizID, userID string) (*EligibilityResult, error) {
	quiz, err := s.getQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}

	used, err := s.repo.Attempt().CountByUserAndQuiz(ctx, userID, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to count attempts: %w", err)
	}

	return &EligibilityResult{
		Eligible:     quiz.CanStartAttempt(used),
		AttemptsUsed: used,
		MaxAttempts:  quiz.MaxAttempts,
	}, nil
}

// ===== LIFECYCLE =====

func (s *attemptService) Start(ctx context.Context, req *StartAttemptRequest) (*models.QuizAttempt, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	quiz, err := s.getQuizWithQuestions(ctx, req.QuizID)
	if err != nil {
		return nil, err
	}
	if !quiz.IsActive {
		return nil, ErrQuizNotActive
	}
	questions := quiz.ActiveQuestions()
	if len(questions) == 0 {
		return nil, ErrQuizHasNoQuestions
	}

	lock := s.lockFor(req.QuizID, req.UserID)
	lock.Lock()
	defer lock.Unlock()

	if active, err := s.repo.Attempt().GetActiveAttempt(ctx, req.UserID, req.QuizID); err == nil && active != nil {
		return nil, NewBusinessRuleError(ErrAttemptCannotStart, "single_active_attempt",
			"an attempt for this quiz is already in progress",
			map[string]interface{}{"attempt_id": active.ID})
	} else if err != nil && !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to check active attempt: %w", err)
	}

	used, err := s.repo.Attempt().CountByUserAndQuiz(ctx, req.UserID, req.QuizID)
	if err != nil {
		return nil, fmt.Errorf("failed to count attempts: %w", err)
	}
	if !quiz.CanStartAttempt(used) {
		return nil, s.limitError(quiz, used)
	}

	attempt := models.NewQuizAttempt(req.QuizID, req.UserID, req.UserType, len(questions), used+1)
	attempt.TotalPoints = quiz.ComputeTotalPoints()

	if err := s.repo.Attempt().Create(ctx, attempt); err != nil {
		if repositories.IsDuplicateKeyError(err) {
			return nil, ErrConcurrencyConflict
		}
		return nil, fmt.Errorf("failed to create attempt: %w", err)
	}

	s.publish(ctx, events.NewAttemptEvent(events.AttemptStarted, attempt))
	s.logger.Info("Attempt started",
		"attempt_id", attempt.ID, "quiz_id", req.QuizID, "user_id", req.UserID, "ordinal", attempt.AttemptOrdinal)
	return attempt, nil
}

func (s *attemptService) SubmitAnswer(ctx context.Context, attemptID string, answer *SubmittedAnswer) (*QuestionResult, error) {
	if err := s.validator.Validate(answer); err != nil {
		return nil, err
	}

	attempt, err := s.getAttempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Status != models.AttemptStatusInProgress {
		return nil, ErrAttemptNotActive
	}

	quiz, err := s.getQuizWithQuestions(ctx, attempt.QuizID)
	if err != nil {
		return nil, err
	}
	question := quiz.QuestionByID(answer.QuestionID)
	if question == nil {
		return nil, ErrQuestionNotFound
	}
	if answer.SelectedOptionID != nil && !ownsOption(question, *answer.SelectedOptionID) {
		return nil, ErrOptionNotFound
	}

	result := ScoreAnswer(question, answer)

	record := &models.QuestionAttempt{
		ID:               uuid.NewString(),
		QuizAttemptID:    attempt.ID,
		QuestionID:       question.ID,
		SelectedOptionID: answer.SelectedOptionID,
		TextAnswer:       answer.TextAnswer,
		BooleanAnswer:    answer.BooleanAnswer,
		IsCorrect:        result.IsCorrect,
		PointsEarned:     result.PointsEarned,
		MaxPoints:        result.MaxPoints,
		TimeSpentSeconds: answer.TimeSpentSeconds,
		AnsweredAt:       time.Now(),
	}
	if err := s.repo.Attempt().CreateQuestionAttempts(ctx, []*models.QuestionAttempt{record}); err != nil {
		return nil, fmt.Errorf("failed to record answer: %w", err)
	}

	attempt.AnsweredQuestions++
	if result.IsCorrect {
		attempt.CorrectAnswers++
	}
	attempt.EarnedPoints += result.PointsEarned
	if err := s.repo.Attempt().Update(ctx, attempt); err != nil {
		return nil, fmt.Errorf("failed to update attempt counters: %w", err)
	}

	s.recordQuestionAnalytics(ctx, question.ID, answer.SelectedOptionID, result.IsCorrect, answer.TimeSpentSeconds)
	return &result, nil
}

func (s *attemptService) Finalize(ctx context.Context, attemptID string, timeSpentSeconds *int) (*SubmitQuizResponse, error) {
	attempt, err := s.repo.Attempt().GetByIDWithAnswers(ctx, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	if !attempt.CanTransitionTo(models.AttemptStatusCompleted) {
		if attempt.Status == models.AttemptStatusCompleted {
			return nil, ErrAttemptAlreadyCompleted
		}
		return nil, ErrAttemptNotActive
	}

	quiz, err := s.getQuizWithQuestions(ctx, attempt.QuizID)
	if err != nil {
		return nil, err
	}

	results := make([]QuestionResult, len(attempt.QuestionAttempts))
	echoes := make([]AnswerEcho, len(attempt.QuestionAttempts))
	for i := range attempt.QuestionAttempts {
		qa := &attempt.QuestionAttempts[i]
		results[i] = QuestionResult{
			QuestionID:   qa.QuestionID,
			IsCorrect:    qa.IsCorrect,
			PointsEarned: qa.PointsEarned,
			MaxPoints:    qa.MaxPoints,
		}
		echoes[i] = AnswerEcho{
			SubmittedAnswer: SubmittedAnswer{
				QuestionID:       qa.QuestionID,
				SelectedOptionID: qa.SelectedOptionID,
				TextAnswer:       qa.TextAnswer,
				BooleanAnswer:    qa.BooleanAnswer,
				TimeSpentSeconds: qa.TimeSpentSeconds,
			},
			IsCorrect:    qa.IsCorrect,
			PointsEarned: qa.PointsEarned,
			MaxPoints:    qa.MaxPoints,
		}
	}

	score := AggregateResults(quiz, results)
	now := time.Now()

	attempt.Status = models.AttemptStatusCompleted
	attempt.CompletedAt = &now
	attempt.CorrectAnswers = CountCorrect(results)
	attempt.AnsweredQuestions = len(results)
	attempt.TotalQuestions = len(quiz.ActiveQuestions())
	attempt.TotalPoints = score.TotalPoints
	attempt.EarnedPoints = score.EarnedPoints
	attempt.ScorePercentage = score.Percentage
	attempt.IsPassed = score.IsPassed
	attempt.TimeSpentSeconds = timeSpentSeconds
	if snapshot, err := json.Marshal(echoes); err == nil {
		attempt.AnswerSnapshot = snapshot
	}

	if err := s.repo.Attempt().Update(ctx, attempt); err != nil {
		return nil, fmt.Errorf("failed to finalize attempt: %w", err)
	}

	s.publish(ctx, events.NewAttemptEvent(events.AttemptCompleted, attempt))
	s.logger.Info("Attempt completed",
		"attempt_id", attempt.ID, "quiz_id", attempt.QuizID, "user_id", attempt.UserID,
		"score", score.Percentage, "passed", score.IsPassed)

	return s.buildResponse(attempt, quiz, score, echoes), nil
}

func (s *attemptService) Abandon(ctx context.Context, attemptID string) error {
	attempt, err := s.getAttempt(ctx, attemptID)
	if err != nil {
		return err
	}
	if !attempt.CanTransitionTo(models.AttemptStatusAbandoned) {
		if attempt.Status == models.AttemptStatusCompleted {
			return ErrAttemptAlreadyCompleted
		}
		return ErrAttemptNotActive
	}

	if err := s.repo.Attempt().UpdateStatus(ctx, attemptID, models.AttemptStatusAbandoned); err != nil {
		return fmt.Errorf("failed to abandon attempt: %w", err)
	}

	attempt.Status = models.AttemptStatusAbandoned
	s.publish(ctx, events.NewAttemptEvent(events.AttemptAbandoned, attempt))
	s.logger.Info("Attempt abandoned", "attempt_id", attemptID, "quiz_id", attempt.QuizID)
	return nil
}

// ===== ONE-SHOT SUBMISSION =====

// Submit scores a full answer set and persists a completed attempt in
// one call. Quiz existence and active state are checked before any
// scoring work, eligibility is decided under the pair lock, and the
// whole write is transactional: either the attempt and all its answer
// records land or none do.
func (s *attemptService) Submit(ctx context.Context, req *SubmitQuizRequest) (*SubmitQuizResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	quiz, err := s.getQuizWithQuestions(ctx, req.QuizID)
	if err != nil {
		return nil, err
	}
	if !quiz.IsActive {
		return nil, ErrQuizNotActive
	}
	questions := quiz.ActiveQuestions()
	if len(questions) == 0 {
		return nil, ErrQuizHasNoQuestions
	}

	lock := s.lockFor(req.QuizID, req.UserID)
	lock.Lock()
	defer lock.Unlock()

	used, err := s.repo.Attempt().CountByUserAndQuiz(ctx, req.UserID, req.QuizID)
	if err != nil {
		return nil, fmt.Errorf("failed to count attempts: %w", err)
	}
	if !quiz.CanStartAttempt(used) {
		return nil, s.limitError(quiz, used)
	}

	// Score before touching storage. An unknown question or option
	// fails the whole submission, nothing partial is recorded.
	results := make([]QuestionResult, 0, len(req.Answers))
	echoes := make([]AnswerEcho, 0, len(req.Answers))
	for i := range req.Answers {
		answer := &req.Answers[i]
		question := quiz.QuestionByID(answer.QuestionID)
		if question == nil {
			return nil, ErrQuestionNotFound
		}
		if answer.SelectedOptionID != nil && !ownsOption(question, *answer.SelectedOptionID) {
			return nil, ErrOptionNotFound
		}
		result := ScoreAnswer(question, answer)
		results = append(results, result)
		echoes = append(echoes, AnswerEcho{
			SubmittedAnswer: *answer,
			IsCorrect:       result.IsCorrect,
			PointsEarned:    result.PointsEarned,
			MaxPoints:       result.MaxPoints,
		})
	}

	score := AggregateResults(quiz, results)
	now := time.Now()

	attempt := models.NewQuizAttempt(req.QuizID, req.UserID, req.UserType, len(questions), used+1)
	attempt.Status = models.AttemptStatusCompleted
	attempt.CompletedAt = &now
	attempt.AnsweredQuestions = len(results)
	attempt.CorrectAnswers = CountCorrect(results)
	attempt.TotalPoints = score.TotalPoints
	attempt.EarnedPoints = score.EarnedPoints
	attempt.ScorePercentage = score.Percentage
	attempt.IsPassed = score.IsPassed
	attempt.TimeSpentSeconds = req.TimeSpentSeconds
	if snapshot, err := json.Marshal(echoes); err == nil {
		attempt.AnswerSnapshot = snapshot
	}

	records := make([]*models.QuestionAttempt, len(req.Answers))
	for i := range req.Answers {
		answer := &req.Answers[i]
		records[i] = &models.QuestionAttempt{
			ID:               uuid.NewString(),
			QuizAttemptID:    attempt.ID,
			QuestionID:       answer.QuestionID,
			SelectedOptionID: answer.SelectedOptionID,
			TextAnswer:       answer.TextAnswer,
			BooleanAnswer:    answer.BooleanAnswer,
			IsCorrect:        results[i].IsCorrect,
			PointsEarned:     results[i].PointsEarned,
			MaxPoints:        results[i].MaxPoints,
			TimeSpentSeconds: answer.TimeSpentSeconds,
			AnsweredAt:       now,
		}
	}

	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.Attempt().Create(ctx, attempt); err != nil {
			return err
		}
		if len(records) > 0 {
			return tx.Attempt().CreateQuestionAttempts(ctx, records)
		}
		return nil
	})
	if err != nil {
		if repositories.IsDuplicateKeyError(err) {
			return nil, ErrConcurrencyConflict
		}
		return nil, fmt.Errorf("failed to persist attempt: %w", err)
	}

	for i := range req.Answers {
		s.recordQuestionAnalytics(ctx, req.Answers[i].QuestionID, req.Answers[i].SelectedOptionID,
			results[i].IsCorrect, req.Answers[i].TimeSpentSeconds)
	}

	s.publish(ctx, events.NewAttemptEvent(events.AttemptCompleted, attempt))
	s.logger.Info("Quiz submitted",
		"attempt_id", attempt.ID, "quiz_id", req.QuizID, "user_id", req.UserID,
		"ordinal", attempt.AttemptOrdinal, "score", score.Percentage, "passed", score.IsPassed)

	return s.buildResponse(attempt, quiz, score, echoes), nil
}

// ===== QUERIES =====

func (s *attemptService) GetByID(ctx context.Context, id string) (*models.QuizAttempt, error) {
	return s.getAttemptWithAnswers(ctx, id)
}

func (s *attemptService) GetHistory(ctx context.Context, quizID, userID string) ([]*models.QuizAttempt, error) {
	attempts, err := s.repo.Attempt().FindByUserAndQuiz(ctx, userID, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to get attempt history: %w", err)
	}
	return attempts, nil
}

func (s *attemptService) GetQuizStats(ctx context.Context, quizID string) (*repositories.QuizAttemptStats, error) {
	if _, err := s.getQuiz(ctx, quizID); err != nil {
		return nil, err
	}
	stats, err := s.repo.Attempt().GetQuizStats(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz stats: %w", err)
	}
	return stats, nil
}

// ===== HELPERS =====

func (s *attemptService) getQuiz(ctx context.Context, quizID string) (*models.Quiz, error) {
	quiz, err := s.repo.Quiz().GetByID(ctx, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	return quiz, nil
}

func (s *attemptService) getQuizWithQuestions(ctx context.Context, quizID string) (*models.Quiz, error) {
	quiz, err := s.repo.Quiz().GetByIDWithQuestions(ctx, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	return quiz, nil
}

func (s *attemptService) getAttempt(ctx context.Context, id string) (*models.QuizAttempt, error) {
	attempt, err := s.repo.Attempt().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	return attempt, nil
}

func (s *attemptService) getAttemptWithAnswers(ctx context.Context, id string) (*models.QuizAttempt, error) {
	attempt, err := s.repo.Attempt().GetByIDWithAnswers(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	return attempt, nil
}

func (s *attemptService) limitError(quiz *models.Quiz, used int) error {
	return NewBusinessRuleError(ErrAttemptLimitExceeded, "max_attempts",
		fmt.Sprintf("maximum attempts (%d) reached for this quiz", quiz.MaxAttempts),
		map[string]interface{}{"quiz_id": quiz.ID, "attempts_used": used, "max_attempts": quiz.MaxAttempts})
}

func (s *attemptService) buildResponse(attempt *models.QuizAttempt, quiz *models.Quiz, score AttemptScore, echoes []AnswerEcho) *SubmitQuizResponse {
	submittedAt := attempt.StartedAt
	if attempt.CompletedAt != nil {
		submittedAt = *attempt.CompletedAt
	}
	return &SubmitQuizResponse{
		AttemptID:      attempt.ID,
		QuizID:         quiz.ID,
		UserID:         attempt.UserID,
		Score:          score.EarnedPoints,
		TotalQuestions: attempt.TotalQuestions,
		CorrectAnswers: attempt.CorrectAnswers,
		Percentage:     score.Percentage,
		IsPassed:       score.IsPassed,
		Answers:        echoes,
		SubmittedAt:    submittedAt,
	}
}

// recordQuestionAnalytics bumps per-question counters best effort; a
// failed counter update never fails the submission.
func (s *attemptService) recordQuestionAnalytics(ctx context.Context, questionID string, selectedOptionID *string, correct bool, timeSpentSeconds *int) {
	if err := s.repo.Quiz().IncrementQuestionStats(ctx, questionID, correct, timeSpentSeconds); err != nil {
		s.logger.Warn("Failed to update question stats", "question_id", questionID, "error", err)
	}
	if selectedOptionID != nil {
		if err := s.repo.Quiz().IncrementOptionSelection(ctx, *selectedOptionID); err != nil {
			s.logger.Warn("Failed to update option stats", "option_id", *selectedOptionID, "error", err)
		}
	}
}

func (s *attemptService) publish(ctx context.Context, event *events.AttemptEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishAttemptEvent(ctx, event); err != nil {
		s.logger.Warn("Failed to publish attempt event", "event_type", event.Type, "error", err)
	}
}

func ownsOption(question *models.Question, optionID string) bool {
	for i := range question.Options {
		if question.Options[i].ID == optionID {
			return true
		}
	}
	return false
}
