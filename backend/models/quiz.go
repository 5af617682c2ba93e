package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

type Question struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	Type          string   `json:"type"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Explanation   string   `json:"explanation,omitempty"`
}

// QuestionList is the full question pool, stored as one JSON column so
// the pool is created and updated as a single atomic write.
type QuestionList []Question

func (l QuestionList) Value() (driver.Value, error) {
	return json.Marshal(l)
}

func (l *QuestionList) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported question list column type %T", value)
	}
}

// Quiz is the question pool for one (user, roadmap, topic). The pool is
// generated once and never regenerated; only the served subset varies.
type Quiz struct {
	gorm.Model
	UserID              uint         `gorm:"not null;uniqueIndex:idx_quiz_user_roadmap_topic,priority:1" json:"userId"`
	RoadmapID           uint         `gorm:"not null;uniqueIndex:idx_quiz_user_roadmap_topic,priority:2" json:"roadmapId"`
	TopicID             string       `gorm:"not null;uniqueIndex:idx_quiz_user_roadmap_topic,priority:3" json:"topicId"`
	Title               string       `gorm:"not null" json:"title"`
	Topic               string       `json:"topic"`
	Description         string       `json:"description"`
	Difficulty          string       `gorm:"default:medium" json:"difficulty"`
	PassingScore        int          `gorm:"default:70" json:"passingScore"`
	TimeLimit           int          `gorm:"default:10" json:"timeLimit"`
	QuestionsPerAttempt int          `gorm:"default:5" json:"questionsPerAttempt"`
	Questions           QuestionList `gorm:"type:jsonb" json:"questions"`
}

type AttemptAnswer struct {
	QuestionIndex  int    `json:"questionIndex"`
	QuestionID     string `json:"questionId"`
	SelectedAnswer int    `json:"selectedAnswer"`
	IsCorrect      bool   `json:"isCorrect"`
}

type AnswerList []AttemptAnswer

func (l AnswerList) Value() (driver.Value, error) {
	return json.Marshal(l)
}

func (l *AnswerList) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported answer list column type %T", value)
	}
}

// QuizAttempt is an immutable record of one grading event.
// TotalQuestions counts the answers actually graded, not the pool size.
type QuizAttempt struct {
	gorm.Model
	UserID         uint       `gorm:"index;not null" json:"userId"`
	QuizID         uint       `gorm:"index;not null" json:"quizId"`
	Answers        AnswerList `gorm:"type:jsonb" json:"answers"`
	Score          int        `gorm:"not null" json:"score"`
	TotalQuestions int        `gorm:"not null" json:"totalQuestions"`
	CorrectAnswers int        `gorm:"not null" json:"correctAnswers"`
	Passed         bool       `gorm:"not null" json:"passed"`
	TimeTaken      int        `gorm:"default:0" json:"timeTaken"`
	CompletedAt    time.Time  `json:"completedAt"`
}

func (a *QuizAttempt) BeforeCreate(tx *gorm.DB) error {
	if a.CompletedAt.IsZero() {
		a.CompletedAt = time.Now()
	}
	return nil
}
