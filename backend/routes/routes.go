package routes

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"cognitolearn/backend/config"
	"cognitolearn/backend/controllers"
	"cognitolearn/backend/middleware"
	"cognitolearn/backend/services"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config, generator services.ContentGenerator, log *zap.Logger) {
	authMiddleware := middleware.AuthMiddleware(cfg)

	// Roadmap routes
	roadmapController := controllers.NewRoadmapController(db, cfg, generator, log)
	quizController := controllers.NewQuizController(db, cfg, generator, log)
	roadmaps := app.Group("/api/roadmaps", authMiddleware)
	roadmaps.Post("/generate", roadmapController.Generate)
	roadmaps.Get("/", roadmapController.List)
	roadmaps.Get("/:id", roadmapController.Get)
	roadmaps.Put("/:id", roadmapController.Update)
	roadmaps.Delete("/:id", roadmapController.Delete)
	roadmaps.Post("/:id/topics/:topicId/subtopics/:subtopicId/toggle", roadmapController.ToggleSubtopic)
	roadmaps.Get("/:id/topics/:topicId/quiz", quizController.FetchOrCreate)
	roadmaps.Post("/:id/topics/:topicId/quiz/submit", quizController.Submit)

	// Attempt review routes
	quizzes := app.Group("/api/quizzes", authMiddleware)
	quizzes.Get("/attempts", quizController.ListAttempts)
	quizzes.Get("/attempts/:id", quizController.GetAttempt)

	// Analytics routes
	analyticsController := controllers.NewAnalyticsController(db, cfg, log)
	analytics := app.Group("/api/analytics", authMiddleware)
	analytics.Get("/dashboard", analyticsController.Dashboard)
	analytics.Get("/progress", analyticsController.GetProgress)
	analytics.Get("/streaks", analyticsController.GetStreaks)
	analytics.Post("/activity", analyticsController.LogActivity)
}
