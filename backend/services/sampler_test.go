package services

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cognitolearn/backend/models"
)

func makePool(size int) models.QuestionList {
	pool := make(models.QuestionList, size)
	for i := range pool {
		pool[i] = models.Question{
			ID:            fmt.Sprintf("q%d", i+1),
			Question:      fmt.Sprintf("Question %d?", i+1),
			Type:          "mcq",
			Options:       []string{"a", "b", "c", "d"},
			CorrectAnswer: i % 4,
		}
	}
	return pool
}

func TestAttemptSize(t *testing.T) {
	assert.Equal(t, 5, AttemptSize(5, 0, 10))
	assert.Equal(t, 7, AttemptSize(5, 2, 10))
	// Capped at the pool size no matter how many failures.
	assert.Equal(t, 6, AttemptSize(5, 3, 6))
	// Unset base falls back to the whole pool.
	assert.Equal(t, 7, AttemptSize(0, 2, 7))
}

func TestSampleQuestionsSizeAndUniqueness(t *testing.T) {
	pool := makePool(10)

	for failed := 0; failed < 8; failed++ {
		size := AttemptSize(5, failed, len(pool))
		sampled := SampleQuestions(pool, size)
		require.Len(t, sampled, size)

		seen := make(map[string]bool)
		for _, q := range sampled {
			assert.False(t, seen[q.ID], "question %s sampled twice", q.ID)
			seen[q.ID] = true
		}
	}
}

func TestSampleQuestionsCountBeyondPool(t *testing.T) {
	pool := makePool(3)
	sampled := SampleQuestions(pool, 10)
	assert.Len(t, sampled, 3)
}

func TestSampleQuestionsLeavesPoolUntouched(t *testing.T) {
	pool := makePool(6)
	original := make([]string, len(pool))
	for i, q := range pool {
		original[i] = q.ID
	}

	SampleQuestions(pool, 4)

	for i, q := range pool {
		assert.Equal(t, original[i], q.ID)
	}
}

func TestSanitizeQuestionsStripsAnswerKey(t *testing.T) {
	sanitized := SanitizeQuestions(makePool(4))
	require.Len(t, sanitized, 4)

	encoded, err := json.Marshal(sanitized)
	require.NoError(t, err)
	assert.NotContains(t, string(encoded), "correctAnswer")
	assert.Contains(t, string(encoded), "options")
}

func TestEnsureQuestionIDsBackfillsOnlyMissing(t *testing.T) {
	pool := makePool(3)
	pool[1].ID = ""

	backfilled, changed := EnsureQuestionIDs(pool)

	assert.True(t, changed)
	assert.Equal(t, "q1", backfilled[0].ID)
	assert.NotEmpty(t, backfilled[1].ID)
	assert.Equal(t, "q3", backfilled[2].ID)

	_, changedAgain := EnsureQuestionIDs(backfilled)
	assert.False(t, changedAgain)
}
