package services

import (
	"math/rand"

	"github.com/google/uuid"

	"cognitolearn/backend/models"
)

// AttemptSize computes how many questions to serve for the next attempt.
// Every prior failed attempt adds one question, capped at the pool size.
// Repeated failure widens coverage instead of reusing the same subset.
func AttemptSize(base, failedAttempts, poolSize int) int {
	if base <= 0 {
		base = poolSize
	}
	size := base + failedAttempts
	if size > poolSize {
		size = poolSize
	}
	return size
}

// SampleQuestions draws a uniform random subset of count questions from
// the pool: Fisher-Yates over a copy of the whole pool, then a prefix.
// Every question is equally likely to appear, with no repeats within
// one attempt. Nothing is persisted; the grader reconstructs the served
// set from the question IDs in the submission.
func SampleQuestions(pool models.QuestionList, count int) []models.Question {
	sampled := make([]models.Question, len(pool))
	copy(sampled, pool)

	rand.Shuffle(len(sampled), func(i, j int) {
		sampled[i], sampled[j] = sampled[j], sampled[i]
	})

	if count > len(sampled) {
		count = len(sampled)
	}
	if count < 0 {
		count = 0
	}
	return sampled[:count]
}

// SanitizedQuestion is a question as served to the client before
// submission: the answer key is gone, everything else stays.
type SanitizedQuestion struct {
	ID          string   `json:"id"`
	Question    string   `json:"question"`
	Type        string   `json:"type"`
	Options     []string `json:"options"`
	Explanation string   `json:"explanation,omitempty"`
}

func SanitizeQuestions(questions []models.Question) []SanitizedQuestion {
	sanitized := make([]SanitizedQuestion, 0, len(questions))
	for _, q := range questions {
		sanitized = append(sanitized, SanitizedQuestion{
			ID:          q.ID,
			Question:    q.Question,
			Type:        q.Type,
			Options:     q.Options,
			Explanation: q.Explanation,
		})
	}
	return sanitized
}

// EnsureQuestionIDs backfills identities on legacy questions that lack
// one. IDs are assigned once and persisted by the caller; they never
// change afterwards, since cross-attempt answer matching depends on
// them. Returns true when any question was backfilled.
func EnsureQuestionIDs(questions models.QuestionList) (models.QuestionList, bool) {
	changed := false
	for i := range questions {
		if questions[i].ID == "" {
			questions[i].ID = uuid.NewString()
			changed = true
		}
	}
	return questions, changed
}
