package services

import (
	"strings"

	"github.com/eduplatform/quiz-service/internal/models"
)

// SubmittedAnswer is one answer in a submission. Which field is set
// depends on the question type; QuestionID must name a question owned
// by the quiz being attempted.
type SubmittedAnswer struct {
	QuestionID       string  `json:"question_id" validate:"required"`
	SelectedOptionID *string `json:"selected_option_id"`
	TextAnswer       *string `json:"text_answer"`
	BooleanAnswer    *bool   `json:"boolean_answer"`
	TimeSpentSeconds *int    `json:"time_spent_seconds" validate:"omitempty,min=0"`
}

// QuestionResult is the outcome of scoring one answer against one
// question.
type QuestionResult struct {
	QuestionID   string `json:"question_id"`
	IsCorrect    bool   `json:"is_correct"`
	PointsEarned int    `json:"points_earned"`
	MaxPoints    int    `json:"max_points"`
}

// AttemptScore is the aggregate of a whole attempt.
type AttemptScore struct {
	TotalPoints  int     `json:"total_points"`
	EarnedPoints int     `json:"earned_points"`
	Percentage   float64 `json:"percentage"`
	IsPassed     bool    `json:"is_passed"`
}

// ScoreAnswer decides correctness and points for a single answer.
// Pure function: same (question, answer) pair always yields the same
// result. There is no partial credit, an answer earns the question's
// full points or nothing.
func ScoreAnswer(question *models.Question, answer *SubmittedAnswer) QuestionResult {
	result := QuestionResult{
		QuestionID: question.ID,
		MaxPoints:  question.Points,
	}

	switch question.QuestionType {
	case models.MultipleChoice:
		correct := question.CorrectOption()
		result.IsCorrect = correct != nil &&
			answer.SelectedOptionID != nil &&
			*answer.SelectedOptionID == correct.ID

	case models.TrueFalse:
		// Compared against the expected boolean stored on the
		// question. A question authored without one fails closed.
		result.IsCorrect = question.CorrectBoolean != nil &&
			answer.BooleanAnswer != nil &&
			*answer.BooleanAnswer == *question.CorrectBoolean

	case models.FillInBlank, models.ShortAnswer:
		// Placeholder policy: any non-blank text counts. Real text
		// matching (normalization, fuzziness) is an extension point.
		result.IsCorrect = answer.TextAnswer != nil &&
			strings.TrimSpace(*answer.TextAnswer) != ""

	default:
		// essay, matching, ordering have no automatic scoring rule.
		result.IsCorrect = false
	}

	if result.IsCorrect {
		result.PointsEarned = question.Points
	}
	return result
}

// AggregateResults folds per-question results into the whole-attempt
// score. The denominator covers every question in the quiz, not just
// the answered ones, so incomplete submissions are penalized. A
// percentage exactly at the passing threshold passes. No rounding is
// applied here; presentation decides that.
func AggregateResults(quiz *models.Quiz, results []QuestionResult) AttemptScore {
	totalPoints := quiz.ComputeTotalPoints()

	earnedPoints := 0
	for i := range results {
		earnedPoints += results[i].PointsEarned
	}

	percentage := 0.0
	if totalPoints > 0 {
		percentage = float64(earnedPoints) / float64(totalPoints) * 100
	}

	return AttemptScore{
		TotalPoints:  totalPoints,
		EarnedPoints: earnedPoints,
		Percentage:   percentage,
		IsPassed:     percentage >= float64(quiz.PassingScorePercentage),
	}
}

// CountCorrect tallies the correct results in a scored submission.
func CountCorrect(results []QuestionResult) int {
	correct := 0
	for i := range results {
		if results[i].IsCorrect {
			correct++
		}
	}
	return correct
}
