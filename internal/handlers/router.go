package handlers

import (
	"github.com/eduplatform/quiz-service/internal/services"
	"github.com/eduplatform/quiz-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type HandlerManager struct {
	quizHandler    *QuizHandler
	attemptHandler *AttemptHandler
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *utils.Validator,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		quizHandler:    NewQuizHandler(serviceManager.Quiz(), serviceManager.Export(), validator, logger),
		attemptHandler: NewAttemptHandler(serviceManager.Attempt(), validator, logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		quizzes := v1.Group("/quizzes")
		{
			quizzes.POST("", hm.quizHandler.CreateQuiz)
			quizzes.GET("", hm.quizHandler.ListQuizzes)
			quizzes.GET("/:id", hm.quizHandler.GetQuiz)
			quizzes.GET("/:id/details", hm.quizHandler.GetQuizWithQuestions)
			quizzes.PUT("/:id", hm.quizHandler.UpdateQuiz)
			quizzes.DELETE("/:id", hm.quizHandler.DeleteQuiz)
			quizzes.POST("/:id/activate", hm.quizHandler.ActivateQuiz)
			quizzes.POST("/:id/deactivate", hm.quizHandler.DeactivateQuiz)
			quizzes.GET("/:id/results/export", hm.quizHandler.ExportQuizResults)

			// Attempt routes scoped to a quiz
			quizzes.GET("/:id/attempts/eligibility", withQuizID(hm.attemptHandler.CheckEligibility))
			quizzes.POST("/:id/attempts", withQuizID(hm.attemptHandler.StartAttempt))
			quizzes.GET("/:id/attempts", withQuizID(hm.attemptHandler.GetAttemptHistory))
			quizzes.POST("/:id/submit", withQuizID(hm.attemptHandler.SubmitQuiz))
			quizzes.GET("/:id/stats", withQuizID(hm.attemptHandler.GetQuizStats))
		}

		attempts := v1.Group("/attempts")
		{
			attempts.GET("/:id", hm.attemptHandler.GetAttempt)
			attempts.POST("/:id/answers", hm.attemptHandler.SubmitAnswer)
			attempts.POST("/:id/finalize", hm.attemptHandler.FinalizeAttempt)
			attempts.POST("/:id/abandon", hm.attemptHandler.AbandonAttempt)
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "quiz-service",
		})
	})
}

// withQuizID bridges quiz-scoped routes, which use the shared ":id"
// wildcard, to handlers that read the "quiz_id" param.
func withQuizID(handler gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Params = append(c.Params, gin.Param{Key: "quiz_id", Value: c.Param("id")})
		handler(c)
	}
}
