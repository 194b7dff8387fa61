package services

import (
	"testing"

	"github.com/eduplatform/quiz-service/internal/models"
	"github.com/stretchr/testify/assert"
)

func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func multipleChoiceQuestion(id string, points int, correctOptionID string, otherOptionIDs ...string) models.Question {
	q := models.Question{
		ID:           id,
		QuestionType: models.MultipleChoice,
		Points:       points,
		IsActive:     true,
	}
	q.Options = append(q.Options, models.QuestionOption{ID: correctOptionID, QuestionID: id, IsCorrect: true})
	for _, optID := range otherOptionIDs {
		q.Options = append(q.Options, models.QuestionOption{ID: optID, QuestionID: id})
	}
	return q
}

func TestScoreAnswer_MultipleChoice(t *testing.T) {
	question := multipleChoiceQuestion("q1", 5, "opt-correct", "opt-wrong-1", "opt-wrong-2")

	tests := []struct {
		name       string
		answer     SubmittedAnswer
		wantOK     bool
		wantPoints int
	}{
		{
			name:       "correct option earns full points",
			answer:     SubmittedAnswer{QuestionID: "q1", SelectedOptionID: strPtr("opt-correct")},
			wantOK:     true,
			wantPoints: 5,
		},
		{
			name:   "wrong option earns nothing",
			answer: SubmittedAnswer{QuestionID: "q1", SelectedOptionID: strPtr("opt-wrong-1")},
		},
		{
			name:   "no selection earns nothing",
			answer: SubmittedAnswer{QuestionID: "q1"},
		},
		{
			name:   "text answer is ignored for choice questions",
			answer: SubmittedAnswer{QuestionID: "q1", TextAnswer: strPtr("opt-correct")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ScoreAnswer(&question, &tt.answer)
			assert.Equal(t, tt.wantOK, result.IsCorrect)
			assert.Equal(t, tt.wantPoints, result.PointsEarned)
			assert.Equal(t, 5, result.MaxPoints)
			assert.Equal(t, "q1", result.QuestionID)
		})
	}
}

func TestScoreAnswer_MultipleChoice_NoCorrectOption(t *testing.T) {
	// Misauthored question with no correct option: every answer fails.
	question := models.Question{
		ID:           "q1",
		QuestionType: models.MultipleChoice,
		Points:       3,
		Options: []models.QuestionOption{
			{ID: "a", QuestionID: "q1"},
			{ID: "b", QuestionID: "q1"},
		},
	}

	result := ScoreAnswer(&question, &SubmittedAnswer{QuestionID: "q1", SelectedOptionID: strPtr("a")})
	assert.False(t, result.IsCorrect)
	assert.Zero(t, result.PointsEarned)
}

func TestScoreAnswer_TrueFalse(t *testing.T) {
	tests := []struct {
		name     string
		expected *bool
		answer   *bool
		wantOK   bool
	}{
		{"matching true", boolPtr(true), boolPtr(true), true},
		{"matching false", boolPtr(false), boolPtr(false), true},
		{"answer true against expected false", boolPtr(false), boolPtr(true), false},
		{"answer false against expected true", boolPtr(true), boolPtr(false), false},
		{"missing answer", boolPtr(true), nil, false},
		{"question without expected value fails closed", nil, boolPtr(true), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			question := models.Question{
				ID:             "q1",
				QuestionType:   models.TrueFalse,
				Points:         2,
				CorrectBoolean: tt.expected,
			}
			result := ScoreAnswer(&question, &SubmittedAnswer{QuestionID: "q1", BooleanAnswer: tt.answer})
			assert.Equal(t, tt.wantOK, result.IsCorrect)
			if tt.wantOK {
				assert.Equal(t, 2, result.PointsEarned)
			} else {
				assert.Zero(t, result.PointsEarned)
			}
		})
	}
}

func TestScoreAnswer_TextQuestions(t *testing.T) {
	for _, questionType := range []models.QuestionType{models.FillInBlank, models.ShortAnswer} {
		t.Run(string(questionType), func(t *testing.T) {
			question := models.Question{ID: "q1", QuestionType: questionType, Points: 4}

			tests := []struct {
				name   string
				text   *string
				wantOK bool
			}{
				{"non-empty text counts", strPtr("an answer"), true},
				{"whitespace only does not", strPtr("   \t"), false},
				{"empty string does not", strPtr(""), false},
				{"missing text does not", nil, false},
			}

			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					result := ScoreAnswer(&question, &SubmittedAnswer{QuestionID: "q1", TextAnswer: tt.text})
					assert.Equal(t, tt.wantOK, result.IsCorrect)
				})
			}
		})
	}
}

func TestScoreAnswer_UnscorableTypes(t *testing.T) {
	for _, questionType := range []models.QuestionType{models.Essay, models.Matching, models.Ordering} {
		t.Run(string(questionType), func(t *testing.T) {
			question := models.Question{ID: "q1", QuestionType: questionType, Points: 10}
			answer := SubmittedAnswer{
				QuestionID:       "q1",
				TextAnswer:       strPtr("a thorough essay"),
				SelectedOptionID: strPtr("opt"),
				BooleanAnswer:    boolPtr(true),
			}

			result := ScoreAnswer(&question, &answer)
			assert.False(t, result.IsCorrect)
			assert.Zero(t, result.PointsEarned)
			assert.Equal(t, 10, result.MaxPoints)
		})
	}
}

func TestScoreAnswer_Deterministic(t *testing.T) {
	question := multipleChoiceQuestion("q1", 5, "opt-a", "opt-b")
	answer := SubmittedAnswer{QuestionID: "q1", SelectedOptionID: strPtr("opt-a")}

	first := ScoreAnswer(&question, &answer)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ScoreAnswer(&question, &answer))
	}
}

func TestAggregateResults(t *testing.T) {
	quiz := &models.Quiz{
		ID:                     "quiz-1",
		PassingScorePercentage: 60,
		Questions: []models.Question{
			{ID: "q1", Points: 5},
			{ID: "q2", Points: 5},
			{ID: "q3", Points: 10},
		},
	}

	tests := []struct {
		name       string
		results    []QuestionResult
		wantEarned int
		wantPct    float64
		wantPassed bool
	}{
		{
			name: "all correct",
			results: []QuestionResult{
				{QuestionID: "q1", IsCorrect: true, PointsEarned: 5, MaxPoints: 5},
				{QuestionID: "q2", IsCorrect: true, PointsEarned: 5, MaxPoints: 5},
				{QuestionID: "q3", IsCorrect: true, PointsEarned: 10, MaxPoints: 10},
			},
			wantEarned: 20,
			wantPct:    100,
			wantPassed: true,
		},
		{
			name: "exactly at the passing threshold passes",
			results: []QuestionResult{
				{QuestionID: "q1", IsCorrect: true, PointsEarned: 5, MaxPoints: 5},
				{QuestionID: "q2", MaxPoints: 5},
				{QuestionID: "q3", IsCorrect: true, PointsEarned: 7, MaxPoints: 10},
			},
			wantEarned: 12,
			wantPct:    60,
			wantPassed: true,
		},
		{
			name: "just below the threshold fails",
			results: []QuestionResult{
				{QuestionID: "q1", IsCorrect: true, PointsEarned: 5, MaxPoints: 5},
				{QuestionID: "q3", IsCorrect: true, PointsEarned: 6, MaxPoints: 10},
			},
			wantEarned: 11,
			wantPct:    55,
			wantPassed: false,
		},
		{
			name:       "no answers scores zero",
			results:    nil,
			wantEarned: 0,
			wantPct:    0,
			wantPassed: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := AggregateResults(quiz, tt.results)
			assert.Equal(t, 20, score.TotalPoints)
			assert.Equal(t, tt.wantEarned, score.EarnedPoints)
			assert.InDelta(t, tt.wantPct, score.Percentage, 0.0001)
			assert.Equal(t, tt.wantPassed, score.IsPassed)
		})
	}
}

func TestAggregateResults_UnansweredQuestionsCountAgainst(t *testing.T) {
	// The denominator covers every question, so skipping half the quiz
	// caps the percentage at half.
	quiz := &models.Quiz{
		PassingScorePercentage: 60,
		Questions: []models.Question{
			{ID: "q1", Points: 10},
			{ID: "q2", Points: 10},
		},
	}
	results := []QuestionResult{
		{QuestionID: "q1", IsCorrect: true, PointsEarned: 10, MaxPoints: 10},
	}

	score := AggregateResults(quiz, results)
	assert.Equal(t, 20, score.TotalPoints)
	assert.Equal(t, 10, score.EarnedPoints)
	assert.InDelta(t, 50, score.Percentage, 0.0001)
	assert.False(t, score.IsPassed)
}

func TestAggregateResults_EmptyQuiz(t *testing.T) {
	quiz := &models.Quiz{PassingScorePercentage: 0}

	score := AggregateResults(quiz, nil)
	assert.Zero(t, score.TotalPoints)
	assert.Zero(t, score.EarnedPoints)
	assert.Zero(t, score.Percentage)
	// Zero percent against a zero threshold still passes.
	assert.True(t, score.IsPassed)
}

func TestCountCorrect(t *testing.T) {
	results := []QuestionResult{
		{IsCorrect: true},
		{IsCorrect: false},
		{IsCorrect: true},
	}
	assert.Equal(t, 2, CountCorrect(results))
	assert.Zero(t, CountCorrect(nil))
}
