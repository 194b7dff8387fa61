package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewQuiz(t *testing.T) {
	creator := "teacher-1"
	quiz := NewQuiz("Algebra Basics", DifficultyEasy, 30, 70, nil, &creator)

	assert.NotEmpty(t, quiz.ID)
	assert.Equal(t, "Algebra Basics", quiz.Title)
	assert.Equal(t, DifficultyEasy, quiz.Difficulty)
	assert.Equal(t, 30, quiz.DurationMinutes)
	assert.Equal(t, 70, quiz.PassingScorePercentage)
	assert.True(t, quiz.IsActive)
	assert.True(t, quiz.ShowCorrectAnswers)
	assert.True(t, quiz.ShowExplanations)
	assert.Equal(t, 1, quiz.Version)
	assert.Equal(t, &creator, quiz.CreatedBy)
}

func TestQuiz_CanStartAttempt(t *testing.T) {
	tests := []struct {
		name         string
		isActive     bool
		maxAttempts  int
		usedAttempts int
		want         bool
	}{
		{"active with attempts left", true, 3, 2, true},
		{"limit reached", true, 3, 3, false},
		{"over the limit", true, 3, 5, false},
		{"unlimited attempts", true, 0, 100, true},
		{"first attempt", true, 1, 0, true},
		{"inactive quiz", false, 3, 0, false},
		{"inactive with unlimited attempts", false, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quiz := Quiz{IsActive: tt.isActive, MaxAttempts: tt.maxAttempts}
			assert.Equal(t, tt.want, quiz.CanStartAttempt(tt.usedAttempts))
		})
	}
}

func TestQuiz_ComputeTotalPoints(t *testing.T) {
	quiz := Quiz{
		Questions: []Question{
			{Points: 5, IsActive: true},
			{Points: 3, IsActive: false},
			{Points: 2, IsActive: true},
		},
	}
	// Inactive questions still count toward the total.
	assert.Equal(t, 10, quiz.ComputeTotalPoints())

	empty := Quiz{}
	assert.Zero(t, empty.ComputeTotalPoints())
}

func TestQuiz_ActiveQuestions(t *testing.T) {
	quiz := Quiz{
		Questions: []Question{
			{ID: "a", IsActive: true},
			{ID: "b", IsActive: false},
			{ID: "c", IsActive: true},
		},
	}

	active := quiz.ActiveQuestions()
	assert.Len(t, active, 2)
	assert.Equal(t, "a", active[0].ID)
	assert.Equal(t, "c", active[1].ID)
}

func TestQuiz_QuestionByID(t *testing.T) {
	quiz := Quiz{
		Questions: []Question{
			{ID: "q1"},
			{ID: "q2"},
		},
	}

	assert.Equal(t, "q2", quiz.QuestionByID("q2").ID)
	assert.Nil(t, quiz.QuestionByID("q3"))
}

func TestQuestion_CorrectOption(t *testing.T) {
	question := Question{
		Options: []QuestionOption{
			{ID: "a"},
			{ID: "b", IsCorrect: true},
			{ID: "c"},
		},
	}
	assert.Equal(t, "b", question.CorrectOption().ID)

	noCorrect := Question{Options: []QuestionOption{{ID: "a"}}}
	assert.Nil(t, noCorrect.CorrectOption())
}

func TestQuestion_SuccessRate(t *testing.T) {
	assert.Zero(t, (&Question{}).SuccessRate())

	question := Question{TotalAttempts: 8, CorrectAttempts: 6}
	assert.InDelta(t, 75, question.SuccessRate(), 0.0001)
}

func TestQuestion_DifficultyBucket(t *testing.T) {
	tests := []struct {
		name    string
		total   int
		correct int
		want    DifficultyLevel
	}{
		{"high success rate is easy", 10, 9, DifficultyEasy},
		{"exactly 80 percent is easy", 10, 8, DifficultyEasy},
		{"middling success rate is medium", 10, 6, DifficultyMedium},
		{"exactly 50 percent is medium", 10, 5, DifficultyMedium},
		{"low success rate is hard", 10, 2, DifficultyHard},
		{"never attempted is hard", 0, 0, DifficultyHard},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			question := Question{TotalAttempts: tt.total, CorrectAttempts: tt.correct}
			assert.Equal(t, tt.want, question.DifficultyBucket())
		})
	}
}
