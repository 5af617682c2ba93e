package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ActivityQuizCompleted   = "quiz_completed"
	ActivityRoadmapProgress = "roadmap_progress"
	ActivityLessonCompleted = "lesson_completed"
	ActivityLogin           = "login"
	ActivityAIChat          = "ai_chat"
)

// Activity is an append-only log entry. It is never mutated or deleted;
// streaks are derived from it on demand.
type Activity struct {
	gorm.Model
	UserID   uint           `gorm:"index:idx_activity_user_date,priority:1;not null" json:"userId"`
	Type     string         `gorm:"not null" json:"type"`
	Metadata datatypes.JSON `gorm:"type:jsonb" json:"metadata"`
	Date     time.Time      `gorm:"index:idx_activity_user_date,priority:2" json:"date"`
}

func (a *Activity) BeforeCreate(tx *gorm.DB) error {
	if a.Date.IsZero() {
		a.Date = time.Now()
	}
	return nil
}
