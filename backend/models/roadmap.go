package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"

	"gorm.io/gorm"
)

const (
	TopicStatusLocked     = "locked"
	TopicStatusInProgress = "in-progress"
	TopicStatusCompleted  = "completed"
)

const (
	DifficultyBeginner     = "Beginner"
	DifficultyIntermediate = "Intermediate"
	DifficultyAdvanced     = "Advanced"
)

type Subtopic struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

type Topic struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Status          string     `json:"status"`
	Type            string     `json:"type"`
	QuizRecommended bool       `json:"quizRecommended"`
	QuizPassed      bool       `json:"quizPassed"`
	Subtopics       []Subtopic `json:"subtopics"`
}

// TopicList is stored as a single JSON column so the whole topic
// sequence is written atomically with its roadmap row.
type TopicList []Topic

func (l TopicList) Value() (driver.Value, error) {
	return json.Marshal(l)
}

func (l *TopicList) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported topic list column type %T", value)
	}
}

type Roadmap struct {
	gorm.Model
	UserID          uint      `gorm:"index;not null" json:"userId"`
	Title           string    `gorm:"not null" json:"title"`
	Prompt          string    `gorm:"not null" json:"prompt"`
	Description     string    `json:"description"`
	Difficulty      string    `gorm:"default:Intermediate" json:"difficulty"`
	Progress        int       `gorm:"default:0" json:"progress"`
	TotalTopics     int       `gorm:"default:0" json:"totalTopics"`
	CompletedTopics int       `gorm:"default:0" json:"completedTopics"`
	Topics          TopicList `gorm:"type:jsonb" json:"topics"`
}

// BeforeSave keeps the derived progress counters in sync with subtopic
// completion. Progress is never accepted from a client.
func (r *Roadmap) BeforeSave(tx *gorm.DB) error {
	r.RefreshProgress()
	return nil
}

func (r *Roadmap) RefreshProgress() {
	if len(r.Topics) == 0 {
		return
	}

	totalSubtopics := 0
	completedSubtopics := 0
	completedTopics := 0

	for _, topic := range r.Topics {
		if len(topic.Subtopics) == 0 {
			continue
		}
		totalSubtopics += len(topic.Subtopics)
		completed := 0
		for _, sub := range topic.Subtopics {
			if sub.Completed {
				completed++
			}
		}
		completedSubtopics += completed
		if completed == len(topic.Subtopics) {
			completedTopics++
		}
	}

	r.TotalTopics = len(r.Topics)
	r.CompletedTopics = completedTopics
	if totalSubtopics > 0 {
		r.Progress = int(math.Round(float64(completedSubtopics) / float64(totalSubtopics) * 100))
	} else {
		r.Progress = 0
	}
}

// FindTopic returns a pointer into Topics so callers can mutate the
// topic in place before saving the roadmap.
func (r *Roadmap) FindTopic(topicID string) *Topic {
	for i := range r.Topics {
		if r.Topics[i].ID == topicID {
			return &r.Topics[i]
		}
	}
	return nil
}
