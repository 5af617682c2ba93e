package controllers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"cognitolearn/backend/models"
)

// logActivity appends to the activity log that streaks are derived
// from. Logging is best-effort: a failure here never fails the request
// that triggered it.
func logActivity(db *gorm.DB, log *zap.Logger, userID uint, activityType string, metadata fiber.Map) {
	payload, err := json.Marshal(metadata)
	if err != nil {
		log.Warn("failed to encode activity metadata", zap.Error(err))
		return
	}
	activity := models.Activity{
		UserID:   userID,
		Type:     activityType,
		Metadata: datatypes.JSON(payload),
	}
	if err := db.Create(&activity).Error; err != nil {
		log.Warn("failed to log activity", zap.Error(err))
	}
}
