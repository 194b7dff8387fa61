package handlers

import (
	"errors"
	"net/http"

	"github.com/eduplatform/quiz-service/internal/services"
	"github.com/eduplatform/quiz-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type AttemptHandler struct {
	BaseHandler
	attemptService services.AttemptService
	validator      *utils.Validator
}

func NewAttemptHandler(attemptService services.AttemptService, validator *utils.Validator, logger utils.Logger) *AttemptHandler {
	return &AttemptHandler{
		BaseHandler:    NewBaseHandler(logger),
		attemptService: attemptService,
		validator:      validator,
	}
}

// CheckEligibility reports whether the caller may start an attempt
// @Summary Check attempt eligibility
// @Tags attempts
// @Produce json
// @Param quiz_id path string true "Quiz ID"
// @Success 200 {object} services.EligibilityResult
// @Failure 404 {object} ErrorResponse
// @Router /quizzes/{quiz_id}/attempts/eligibility [get]
func (h *AttemptHandler) CheckEligibility(c *gin.Context) {
	quizID := ParseStringIDParam(c, "quiz_id")
	if quizID == "" {
		return
	}
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	result, err := h.attemptService.CanStart(c.Request.Context(), quizID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// StartAttempt opens a new in-progress attempt
// @Summary Start attempt
// @Tags attempts
// @Accept json
// @Produce json
// @Param quiz_id path string true "Quiz ID"
// @Success 201 {object} models.QuizAttempt
// @Failure 422 {object} ErrorResponse
// @Router /quizzes/{quiz_id}/attempts [post]
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	quizID := ParseStringIDParam(c, "quiz_id")
	if quizID == "" {
		return
	}
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	req := services.StartAttemptRequest{QuizID: quizID, UserID: userID}
	if userType, exists := c.Get("user_role"); exists {
		if role, ok := userType.(string); ok && role != "" {
			req.UserType = &role
		}
	}

	h.LogRequest(c, "Starting attempt", "quiz_id", quizID)

	attempt, err := h.attemptService.Start(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, attempt)
}

// SubmitAnswer records and scores one answer on an open attempt
// @Summary Submit answer
// @Tags attempts
// @Accept json
// @Produce json
// @Param id path string true "Attempt ID"
// @Success 200 {object} services.QuestionResult
// @Failure 422 {object} ErrorResponse
// @Router /attempts/{id}/answers [post]
func (h *AttemptHandler) SubmitAnswer(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	var answer services.SubmittedAnswer
	if err := c.ShouldBindJSON(&answer); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	result, err := h.attemptService.SubmitAnswer(c.Request.Context(), id, &answer)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// FinalizeAttempt completes an open attempt and returns the score
// @Summary Finalize attempt
// @Tags attempts
// @Accept json
// @Produce json
// @Param id path string true "Attempt ID"
// @Success 200 {object} services.SubmitQuizResponse
// @Failure 409 {object} ErrorResponse
// @Router /attempts/{id}/finalize [post]
func (h *AttemptHandler) FinalizeAttempt(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	var body struct {
		TimeSpentSeconds *int `json:"time_spent_seconds"`
	}
	// Body is optional for finalize.
	_ = c.ShouldBindJSON(&body)

	h.LogRequest(c, "Finalizing attempt", "attempt_id", id)

	response, err := h.attemptService.Finalize(c.Request.Context(), id, body.TimeSpentSeconds)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// AbandonAttempt marks an open attempt as abandoned
// @Summary Abandon attempt
// @Tags attempts
// @Param id path string true "Attempt ID"
// @Success 200 {object} SuccessResponse
// @Failure 409 {object} ErrorResponse
// @Router /attempts/{id}/abandon [post]
func (h *AttemptHandler) AbandonAttempt(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	h.LogRequest(c, "Abandoning attempt", "attempt_id", id)

	if err := h.attemptService.Abandon(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Attempt abandoned"})
}

// SubmitQuiz scores a full answer set in one call
// @Summary Submit quiz
// @Tags attempts
// @Accept json
// @Produce json
// @Param quiz_id path string true "Quiz ID"
// @Success 200 {object} services.SubmitQuizResponse
// @Failure 422 {object} ErrorResponse
// @Router /quizzes/{quiz_id}/submit [post]
func (h *AttemptHandler) SubmitQuiz(c *gin.Context) {
	quizID := ParseStringIDParam(c, "quiz_id")
	if quizID == "" {
		return
	}
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	var body struct {
		Answers          []services.SubmittedAnswer `json:"answers"`
		TimeSpentSeconds *int                       `json:"time_spent_seconds"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	req := services.SubmitQuizRequest{
		QuizID:           quizID,
		UserID:           userID,
		Answers:          body.Answers,
		TimeSpentSeconds: body.TimeSpentSeconds,
	}
	if userType, exists := c.Get("user_role"); exists {
		if role, ok := userType.(string); ok && role != "" {
			req.UserType = &role
		}
	}

	h.LogRequest(c, "Submitting quiz", "quiz_id", quizID, "answers", len(body.Answers))

	response, err := h.attemptService.Submit(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetAttempt retrieves an attempt with its answer records
// @Summary Get attempt
// @Tags attempts
// @Produce json
// @Param id path string true "Attempt ID"
// @Success 200 {object} models.QuizAttempt
// @Failure 404 {object} ErrorResponse
// @Router /attempts/{id} [get]
func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	attempt, err := h.attemptService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, attempt)
}

// GetAttemptHistory lists the caller's attempts for a quiz
// @Summary Get attempt history
// @Tags attempts
// @Produce json
// @Param quiz_id path string true "Quiz ID"
// @Success 200 {array} models.QuizAttempt
// @Router /quizzes/{quiz_id}/attempts [get]
func (h *AttemptHandler) GetAttemptHistory(c *gin.Context) {
	quizID := ParseStringIDParam(c, "quiz_id")
	if quizID == "" {
		return
	}
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	attempts, err := h.attemptService.GetHistory(c.Request.Context(), quizID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, attempts)
}

// GetQuizStats reports aggregate attempt statistics for a quiz
// @Summary Get quiz attempt stats
// @Tags attempts
// @Produce json
// @Param quiz_id path string true "Quiz ID"
// @Success 200 {object} repositories.QuizAttemptStats
// @Failure 404 {object} ErrorResponse
// @Router /quizzes/{quiz_id}/stats [get]
func (h *AttemptHandler) GetQuizStats(c *gin.Context) {
	quizID := ParseStringIDParam(c, "quiz_id")
	if quizID == "" {
		return
	}

	stats, err := h.attemptService.GetQuizStats(c.Request.Context(), quizID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// ===== HELPERS =====

func (h *AttemptHandler) requireUserID(c *gin.Context) string {
	if userID := c.GetString("user_id"); userID != "" {
		return userID
	}
	// Fall back to an explicit query parameter for unauthenticated
	// deployments.
	if userID := c.Query("user_id"); userID != "" {
		return userID
	}
	c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
	return ""
}

func (h *AttemptHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	var businessRuleError *services.BusinessRuleError
	if errors.As(err, &businessRuleError) {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: businessRuleError.Message,
			Details: map[string]interface{}{
				"rule":    businessRuleError.Rule,
				"context": businessRuleError.Context,
			},
		})
		return
	}

	switch {
	case services.IsNotFound(err):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: err.Error()})
	case errors.Is(err, services.ErrConcurrencyConflict):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Attempt submission conflicted with a concurrent request",
			Code:    "concurrency_conflict",
		})
	case services.IsConflict(err):
		c.JSON(http.StatusConflict, ErrorResponse{Message: err.Error()})
	case services.IsBusinessRule(err):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Message: err.Error()})
	default:
		h.LogError(c, err, "Unhandled service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
	}
}
