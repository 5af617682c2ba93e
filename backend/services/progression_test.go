package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"cognitolearn/backend/models"
)

func makeTopic(id string, quizRecommended, quizPassed bool, completed ...bool) models.Topic {
	subtopics := make([]models.Subtopic, len(completed))
	for i, done := range completed {
		subtopics[i] = models.Subtopic{ID: id + "-sub", Title: "Subtopic", Completed: done}
	}
	return models.Topic{
		ID:              id,
		Title:           "Topic " + id,
		QuizRecommended: quizRecommended,
		QuizPassed:      quizPassed,
		Subtopics:       subtopics,
	}
}

func statuses(topics models.TopicList) []string {
	out := make([]string, len(topics))
	for i, t := range topics {
		out[i] = t.Status
	}
	return out
}

func TestRecalculateIsIdempotent(t *testing.T) {
	topics := models.TopicList{
		makeTopic("t1", true, true, true, true),
		makeTopic("t2", true, false, true, false),
		makeTopic("t3", false, false, false, false),
	}

	first := statuses(RecalculateTopicStatuses(topics))
	second := statuses(RecalculateTopicStatuses(topics))

	assert.Equal(t, first, second)
}

func TestFirstTopicNeverLocked(t *testing.T) {
	topics := models.TopicList{
		makeTopic("t1", true, false, false, false),
		makeTopic("t2", true, false, false),
	}

	RecalculateTopicStatuses(topics)

	assert.Equal(t, models.TopicStatusInProgress, topics[0].Status)
	assert.Equal(t, models.TopicStatusLocked, topics[1].Status)
}

func TestQuizGateHoldsTopicInProgress(t *testing.T) {
	topics := models.TopicList{
		makeTopic("t1", true, false, true, true),
		makeTopic("t2", true, false, false),
	}

	RecalculateTopicStatuses(topics)

	// All subtopics done but the quiz is still pending, so the topic
	// is not complete and the next one stays locked.
	assert.Equal(t, models.TopicStatusInProgress, topics[0].Status)
	assert.Equal(t, models.TopicStatusLocked, topics[1].Status)
}

func TestQuizPassCascadesUnlock(t *testing.T) {
	topics := models.TopicList{
		makeTopic("t1", true, true, true, true),
		makeTopic("t2", true, false, false),
		makeTopic("t3", true, false, false),
	}

	RecalculateTopicStatuses(topics)

	assert.Equal(t, models.TopicStatusCompleted, topics[0].Status)
	assert.Equal(t, models.TopicStatusInProgress, topics[1].Status)
	assert.Equal(t, models.TopicStatusLocked, topics[2].Status)
}

func TestTopicWithoutQuizCompletesOnSubtopics(t *testing.T) {
	topics := models.TopicList{
		makeTopic("t1", false, false, true, true),
		makeTopic("t2", true, false, false),
	}

	RecalculateTopicStatuses(topics)

	assert.Equal(t, models.TopicStatusCompleted, topics[0].Status)
	assert.Equal(t, models.TopicStatusInProgress, topics[1].Status)
}

func TestTopicWithNoSubtopicsIsVacuouslyComplete(t *testing.T) {
	topics := models.TopicList{
		makeTopic("t1", false, false),
		makeTopic("t2", true, false, false),
	}

	RecalculateTopicStatuses(topics)

	assert.Equal(t, models.TopicStatusCompleted, topics[0].Status)
	assert.Equal(t, models.TopicStatusInProgress, topics[1].Status)
}

func TestDistantTopicsStayLockedBehindGap(t *testing.T) {
	topics := models.TopicList{
		makeTopic("t1", false, false, true),
		makeTopic("t2", true, false, false),
		makeTopic("t3", true, false, false),
		makeTopic("t4", true, false, false),
	}

	RecalculateTopicStatuses(topics)

	assert.Equal(t, []string{
		models.TopicStatusCompleted,
		models.TopicStatusInProgress,
		models.TopicStatusLocked,
		models.TopicStatusLocked,
	}, statuses(topics))
}
