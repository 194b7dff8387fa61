package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/eduplatform/quiz-service/internal/cache"
	"github.com/eduplatform/quiz-service/internal/models"
	"github.com/eduplatform/quiz-service/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

// memoryCache is a map-backed CacheService for exercising the
// read-through path without redis.
type memoryCache struct {
	mu    sync.Mutex
	items map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: map[string][]byte{}}
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = data
	return nil
}

func (c *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.items[key]
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}

func (c *memoryCache) DeletePattern(context.Context, string) error { return nil }

func newTestQuizService(repo *MockRepository, cacheService cache.CacheService) QuizService {
	return NewQuizService(repo, cacheService, testLogger(), utils.NewValidator())
}

func validCreateRequest() *CreateQuizRequest {
	return &CreateQuizRequest{
		Title:                  "Operating Systems",
		PassingScorePercentage: 60,
		MaxAttempts:            3,
		Questions: []CreateQuestionRequest{
			{
				QuestionText: "Which scheduler picks the next runnable process?",
				QuestionType: models.MultipleChoice,
				Points:       5,
				Options: []CreateOptionRequest{
					{OptionText: "Short-term scheduler", IsCorrect: true},
					{OptionText: "Long-term scheduler"},
				},
			},
			{
				QuestionText:   "A context switch always flushes the TLB.",
				QuestionType:   models.TrueFalse,
				Points:         2,
				CorrectBoolean: boolPtr(false),
			},
		},
	}
}

func TestQuizService_Create(t *testing.T) {
	repo := newMockRepository()
	repo.quizRepo.On("Create", mock.Anything, mock.MatchedBy(func(q *models.Quiz) bool {
		return q.Title == "Operating Systems" && q.IsActive && q.Version == 1 && len(q.Questions) == 2
	})).Return(nil)

	service := newTestQuizService(repo, cache.NoopCache{})
	quiz, err := service.Create(context.Background(), validCreateRequest())

	assert.NoError(t, err)
	assert.NotEmpty(t, quiz.ID)
	assert.Equal(t, 2, len(quiz.Questions))
	for _, question := range quiz.Questions {
		assert.NotEmpty(t, question.ID)
		assert.Equal(t, quiz.ID, question.QuizID)
		for _, option := range question.Options {
			assert.Equal(t, question.ID, option.QuestionID)
		}
	}
	repo.quizRepo.AssertExpectations(t)
}

func TestQuizService_Create_AuthoringRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CreateQuizRequest)
	}{
		{
			name: "multiple choice without a correct option",
			mutate: func(req *CreateQuizRequest) {
				req.Questions[0].Options[0].IsCorrect = false
			},
		},
		{
			name: "multiple choice with two correct options",
			mutate: func(req *CreateQuizRequest) {
				req.Questions[0].Options[1].IsCorrect = true
			},
		},
		{
			name: "multiple choice with a single option",
			mutate: func(req *CreateQuizRequest) {
				req.Questions[0].Options = req.Questions[0].Options[:1]
			},
		},
		{
			name: "true false without an expected answer",
			mutate: func(req *CreateQuizRequest) {
				req.Questions[1].CorrectBoolean = nil
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockRepository()
			service := newTestQuizService(repo, cache.NoopCache{})

			req := validCreateRequest()
			tt.mutate(req)

			_, err := service.Create(context.Background(), req)

			assert.Error(t, err)
			assert.True(t, IsValidation(err))
			repo.quizRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestQuizService_GetByIDWithQuestions_ReadThrough(t *testing.T) {
	quiz := activeQuiz()

	repo := newMockRepository()
	repo.quizRepo.On("GetByIDWithQuestions", mock.Anything, "quiz-1").Return(quiz, nil).Once()

	service := newTestQuizService(repo, newMemoryCache())

	first, err := service.GetByIDWithQuestions(context.Background(), "quiz-1")
	assert.NoError(t, err)
	assert.Equal(t, 10, first.TotalPoints)

	// Second read is served from cache; the repository expectation
	// above allows a single call only.
	second, err := service.GetByIDWithQuestions(context.Background(), "quiz-1")
	assert.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, second.Questions, 2)

	repo.quizRepo.AssertExpectations(t)
}

func TestQuizService_Update_BumpsVersionAndInvalidates(t *testing.T) {
	existing := activeQuiz()
	existing.Version = 3

	repo := newMockRepository()
	repo.quizRepo.On("GetByID", mock.Anything, "quiz-1").Return(existing, nil)
	repo.quizRepo.On("Update", mock.Anything, mock.MatchedBy(func(q *models.Quiz) bool {
		return q.ID == "quiz-1" && q.Version == 4 && q.Title == "Networking Basics v2"
	})).Return(nil)

	memCache := newMemoryCache()
	assert.NoError(t, memCache.Set(context.Background(), quizCacheKey("quiz-1"), existing, time.Minute))

	service := newTestQuizService(repo, memCache)

	req := &UpdateQuizRequest{
		Title:                  "Networking Basics v2",
		PassingScorePercentage: 70,
		Questions: []CreateQuestionRequest{
			{
				QuestionText:   "UDP guarantees delivery.",
				QuestionType:   models.TrueFalse,
				Points:         1,
				CorrectBoolean: boolPtr(false),
			},
		},
	}

	updated, err := service.Update(context.Background(), "quiz-1", req)

	assert.NoError(t, err)
	assert.Equal(t, 4, updated.Version)
	assert.Len(t, updated.Questions, 1)

	var cached models.Quiz
	assert.ErrorIs(t, memCache.Get(context.Background(), quizCacheKey("quiz-1"), &cached), cache.ErrCacheMiss)
}

func TestQuizService_GetByID_NotFound(t *testing.T) {
	repo := newMockRepository()
	repo.quizRepo.On("GetByID", mock.Anything, "missing").Return(nil, gorm.ErrRecordNotFound)

	service := newTestQuizService(repo, cache.NoopCache{})
	_, err := service.GetByID(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrQuizNotFound)
}

func TestQuizService_SetActive(t *testing.T) {
	repo := newMockRepository()
	repo.quizRepo.On("SetActive", mock.Anything, "quiz-1", false, (*string)(nil)).Return(nil)

	service := newTestQuizService(repo, cache.NoopCache{})
	assert.NoError(t, service.SetActive(context.Background(), "quiz-1", false, nil))
	repo.quizRepo.AssertExpectations(t)
}
