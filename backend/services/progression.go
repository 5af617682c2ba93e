package services

import "cognitolearn/backend/models"

// AllSubtopicsComplete reports whether every subtopic of the topic is
// done. A topic with no subtopics counts as complete.
func AllSubtopicsComplete(t models.Topic) bool {
	for _, sub := range t.Subtopics {
		if !sub.Completed {
			return false
		}
	}
	return true
}

// TopicFullyComplete reports whether the topic gates the next one open:
// all subtopics done, and the quiz passed if one is recommended.
func TopicFullyComplete(t models.Topic) bool {
	if !AllSubtopicsComplete(t) {
		return false
	}
	if !t.QuizRecommended {
		return true
	}
	return t.QuizPassed
}

// RecalculateTopicStatuses re-derives every topic's status from subtopic
// completion and quiz state. It is a full pass over the list, not an
// incremental update, so running it twice on the same data is a no-op.
// It must be invoked after every subtopic toggle and quiz submission,
// because finishing one topic's quiz can cascade-unlock the next.
func RecalculateTopicStatuses(topics models.TopicList) models.TopicList {
	allPriorFullyComplete := true

	for i := range topics {
		t := &topics[i]
		subtopicsDone := AllSubtopicsComplete(*t)

		switch {
		case subtopicsDone && (!t.QuizRecommended || t.QuizPassed):
			t.Status = models.TopicStatusCompleted
		case subtopicsDone:
			// Quiz still pending.
			t.Status = models.TopicStatusInProgress
		case i == 0 || allPriorFullyComplete:
			t.Status = models.TopicStatusInProgress
		default:
			t.Status = models.TopicStatusLocked
		}

		if !TopicFullyComplete(*t) {
			allPriorFullyComplete = false
		}
	}

	// The entry point is always workable.
	if len(topics) > 0 && topics[0].Status == models.TopicStatusLocked {
		topics[0].Status = models.TopicStatusInProgress
	}

	return topics
}
