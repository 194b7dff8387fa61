package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/eduplatform/quiz-service/internal/repositories"
	"github.com/xuri/excelize/v2"
)

type exportService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewExportService(repo repositories.Repository, logger *slog.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// ExportQuizResults renders every attempt for a quiz into an XLSX
// workbook, one row per attempt.
func (s *exportService) ExportQuizResults(ctx context.Context, quizID string) ([]byte, error) {
	quiz, err := s.repo.Quiz().GetByID(ctx, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	quizFilter := quiz.ID
	attempts, _, err := s.repo.Attempt().List(ctx, repositories.AttemptFilters{QuizID: &quizFilter})
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz attempts: %w", err)
	}

	f := excelize.NewFile()
	sheetName := "Results"

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{
		"User ID", "Attempt", "Status", "Started At", "Completed At",
		"Questions", "Correct", "Earned Points", "Total Points",
		"Percentage", "Result", "Time Spent (minutes)",
	}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIndex, attempt := range attempts {
		row := []interface{}{
			attempt.UserID,
			attempt.AttemptOrdinal,
			string(attempt.Status),
			attempt.StartedAt.Format("2006-01-02 15:04:05"),
		}

		if attempt.CompletedAt != nil {
			row = append(row, attempt.CompletedAt.Format("2006-01-02 15:04:05"))
		} else {
			row = append(row, "")
		}

		row = append(row,
			attempt.TotalQuestions,
			attempt.CorrectAnswers,
			attempt.EarnedPoints,
			attempt.TotalPoints,
			attempt.ScorePercentage,
		)

		if attempt.IsPassed {
			row = append(row, "Pass")
		} else {
			row = append(row, "Fail")
		}

		if attempt.TimeSpentSeconds != nil {
			row = append(row, *attempt.TimeSpentSeconds/60)
		} else {
			row = append(row, "")
		}

		for colIndex, value := range row {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	if err := s.writeSummarySheet(ctx, f, quiz.Title, quizID); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	s.logger.Info("Quiz results exported", "quiz_id", quizID, "attempts", len(attempts))
	return buf.Bytes(), nil
}

func (s *exportService) writeSummarySheet(ctx context.Context, f *excelize.File, quizTitle, quizID string) error {
	stats, err := s.repo.Attempt().GetQuizStats(ctx, quizID)
	if err != nil {
		return fmt.Errorf("failed to get quiz stats: %w", err)
	}

	const sheetName = "Summary"
	if _, err := f.NewSheet(sheetName); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}

	rows := [][]interface{}{
		{"Quiz", quizTitle},
		{"Total Attempts", stats.TotalAttempts},
		{"Completed Attempts", stats.CompletedAttempts},
		{"Average Score (%)", stats.AverageScore},
		{"Pass Rate (%)", stats.PassRate},
	}
	for rowIndex, row := range rows {
		for colIndex, value := range row {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+1)
			f.SetCellValue(sheetName, cell, value)
		}
	}
	return nil
}
