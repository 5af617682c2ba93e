package services

import (
	"encoding/json"
	"math"
	"strconv"

	"cognitolearn/backend/models"
)

// SubmittedAnswer is one raw entry from a submission payload.
// SelectedAnswer is kept loose on purpose: clients send both numbers
// and numeric strings, and anything non-numeric simply grades as wrong.
type SubmittedAnswer struct {
	QuestionID     string      `json:"questionId"`
	SelectedAnswer interface{} `json:"selectedAnswer"`
}

type GradeResult struct {
	Answers        models.AnswerList
	Score          int
	TotalQuestions int
	CorrectAnswers int
	Passed         bool
}

// coerceAnswerIndex converts a submitted selection into an option
// index. Fractional or non-numeric values report ok=false and always
// grade incorrect; they are never an error.
func coerceAnswerIndex(value interface{}) (int, bool) {
	switch v := value.(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int(v), true
	case int:
		return v, true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// Grade converts a raw submission into an attempt against the quiz's
// question pool. The submitted question IDs are the ground truth for
// what was served: entries with a blank or unknown ID are dropped, and
// for a duplicated ID the first occurrence wins so a double-submit
// never double-counts. The score is taken over the surviving answers,
// not the pool size.
func Grade(quiz *models.Quiz, submitted []SubmittedAnswer) GradeResult {
	type poolEntry struct {
		question models.Question
		index    int
	}
	poolByID := make(map[string]poolEntry, len(quiz.Questions))
	for i, q := range quiz.Questions {
		poolByID[q.ID] = poolEntry{question: q, index: i}
	}

	seen := make(map[string]bool, len(submitted))
	answers := make(models.AnswerList, 0, len(submitted))
	correct := 0

	for _, answer := range submitted {
		if answer.QuestionID == "" {
			continue
		}
		entry, ok := poolByID[answer.QuestionID]
		if !ok || seen[answer.QuestionID] {
			continue
		}
		seen[answer.QuestionID] = true

		selected, numeric := coerceAnswerIndex(answer.SelectedAnswer)
		if !numeric {
			selected = -1
		}
		isCorrect := numeric &&
			selected >= 0 &&
			selected < len(entry.question.Options) &&
			selected == entry.question.CorrectAnswer
		if isCorrect {
			correct++
		}

		answers = append(answers, models.AttemptAnswer{
			QuestionIndex:  entry.index,
			QuestionID:     answer.QuestionID,
			SelectedAnswer: selected,
			IsCorrect:      isCorrect,
		})
	}

	// A submission with zero valid answers still grades to a
	// deterministic 0% fail; the configured attempt size keeps the
	// denominator off zero.
	total := len(answers)
	if total == 0 {
		total = quiz.QuestionsPerAttempt
	}

	score := 0
	if total > 0 {
		score = int(math.Round(float64(correct) / float64(total) * 100))
	}

	return GradeResult{
		Answers:        answers,
		Score:          score,
		TotalQuestions: total,
		CorrectAnswers: correct,
		Passed:         score >= quiz.PassingScore,
	}
}
