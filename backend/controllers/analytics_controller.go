package controllers

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"cognitolearn/backend/config"
	"cognitolearn/backend/models"
	"cognitolearn/backend/services"
	"cognitolearn/backend/utils"
)

type AnalyticsController struct {
	DB  *gorm.DB
	Cfg *config.Config
	Log *zap.Logger
}

func NewAnalyticsController(db *gorm.DB, cfg *config.Config, log *zap.Logger) *AnalyticsController {
	return &AnalyticsController{DB: db, Cfg: cfg, Log: log}
}

// userStreaks recomputes streaks from the activity log. Streaks are
// never stored as authoritative state, only derived on demand.
func (ac *AnalyticsController) userStreaks(userID uint) (services.Streaks, []models.Activity, error) {
	var activities []models.Activity
	if err := ac.DB.Where("user_id = ?", userID).Order("date DESC").Find(&activities).Error; err != nil {
		return services.Streaks{}, nil, err
	}

	timestamps := make([]time.Time, 0, len(activities))
	for _, activity := range activities {
		timestamps = append(timestamps, activity.Date)
	}
	return services.CalculateStreaks(timestamps, time.Now()), activities, nil
}

func (ac *AnalyticsController) Dashboard(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, ac.Cfg)
	if err != nil {
		return utils.Unauthorized(c)
	}

	var quizzesCompleted, quizzesPassed, roadmapsCreated, roadmapsCompleted int64
	ac.DB.Model(&models.QuizAttempt{}).Where("user_id = ?", userID).Count(&quizzesCompleted)
	ac.DB.Model(&models.QuizAttempt{}).Where("user_id = ? AND passed = ?", userID, true).Count(&quizzesPassed)
	ac.DB.Model(&models.Roadmap{}).Where("user_id = ?", userID).Count(&roadmapsCreated)
	ac.DB.Model(&models.Roadmap{}).Where("user_id = ? AND progress = 100", userID).Count(&roadmapsCompleted)

	streaks, activities, err := ac.userStreaks(userID)
	if err != nil {
		return utils.InternalServerError(c, "Failed to get dashboard")
	}

	recent := activities
	if len(recent) > 10 {
		recent = recent[:10]
	}

	weekAgo := time.Now().AddDate(0, 0, -7)
	var weeklyActivities int64
	ac.DB.Model(&models.Activity{}).Where("user_id = ? AND date >= ?", userID, weekAgo).Count(&weeklyActivities)

	return c.JSON(fiber.Map{
		"success": true,
		"dashboard": fiber.Map{
			"currentStreak":     streaks.Current,
			"longestStreak":     streaks.Longest,
			"quizzesCompleted":  quizzesCompleted,
			"quizzesPassed":     quizzesPassed,
			"roadmapsCreated":   roadmapsCreated,
			"roadmapsCompleted": roadmapsCompleted,
			"weeklyActivities":  weeklyActivities,
			"recentActivities":  recent,
		},
	})
}

func (ac *AnalyticsController) GetProgress(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, ac.Cfg)
	if err != nil {
		return utils.Unauthorized(c)
	}

	var quizzesCompleted, quizzesPassed int64
	ac.DB.Model(&models.QuizAttempt{}).Where("user_id = ?", userID).Count(&quizzesCompleted)
	ac.DB.Model(&models.QuizAttempt{}).Where("user_id = ? AND passed = ?", userID, true).Count(&quizzesPassed)

	streaks, _, err := ac.userStreaks(userID)
	if err != nil {
		return utils.InternalServerError(c, "Failed to get progress")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"progress": fiber.Map{
			"quizzesCompleted": quizzesCompleted,
			"quizzesPassed":    quizzesPassed,
			"currentStreak":    streaks.Current,
			"longestStreak":    streaks.Longest,
		},
	})
}

func (ac *AnalyticsController) GetStreaks(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, ac.Cfg)
	if err != nil {
		return utils.Unauthorized(c)
	}

	streaks, activities, err := ac.userStreaks(userID)
	if err != nil {
		return utils.InternalServerError(c, "Failed to get streaks")
	}

	var lastActivity interface{}
	if len(activities) > 0 {
		lastActivity = activities[0].Date
	}

	return c.JSON(fiber.Map{
		"success": true,
		"streaks": fiber.Map{
			"current":      streaks.Current,
			"longest":      streaks.Longest,
			"lastActivity": lastActivity,
		},
	})
}

// LogActivity appends one entry to the activity log. Entries are never
// mutated or deleted afterwards.
func (ac *AnalyticsController) LogActivity(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, ac.Cfg)
	if err != nil {
		return utils.Unauthorized(c)
	}

	var input struct {
		Type     string    `json:"type"`
		Metadata fiber.Map `json:"metadata"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if strings.TrimSpace(input.Type) == "" {
		return utils.BadRequest(c, "Activity type is required")
	}

	payload, err := json.Marshal(input.Metadata)
	if err != nil {
		return utils.BadRequest(c, "Invalid activity metadata")
	}

	activity := models.Activity{
		UserID:   userID,
		Type:     input.Type,
		Metadata: datatypes.JSON(payload),
	}
	if err := ac.DB.Create(&activity).Error; err != nil {
		return utils.InternalServerError(c, "Failed to log activity")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "activity": activity})
}
