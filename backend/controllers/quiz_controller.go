package controllers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"cognitolearn/backend/config"
	"cognitolearn/backend/models"
	"cognitolearn/backend/services"
	"cognitolearn/backend/utils"
)

type QuizController struct {
	DB        *gorm.DB
	Cfg       *config.Config
	Generator services.ContentGenerator
	Log       *zap.Logger
}

func NewQuizController(db *gorm.DB, cfg *config.Config, generator services.ContentGenerator, log *zap.Logger) *QuizController {
	return &QuizController{DB: db, Cfg: cfg, Generator: generator, Log: log}
}

func (qc *QuizController) loadRoadmapTopic(c *fiber.Ctx, userID uint) (*models.Roadmap, *models.Topic, error) {
	roadmapID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return nil, nil, services.ErrValidation
	}

	var roadmap models.Roadmap
	if err := qc.DB.Where("id = ? AND user_id = ?", roadmapID, userID).First(&roadmap).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, services.ErrNotFound
		}
		return nil, nil, err
	}

	topic := roadmap.FindTopic(c.Params("topicId"))
	if topic == nil {
		return nil, nil, services.ErrNotFound
	}
	return &roadmap, topic, nil
}

// backfillQuestionIDs assigns identities to legacy questions missing
// one and persists the pool before it is ever sampled.
func (qc *QuizController) backfillQuestionIDs(quiz *models.Quiz) error {
	questions, changed := services.EnsureQuestionIDs(quiz.Questions)
	if !changed {
		return nil
	}
	quiz.Questions = questions
	return qc.DB.Save(quiz).Error
}

func attemptSummary(attempt *models.QuizAttempt) fiber.Map {
	return fiber.Map{
		"id":             attempt.ID,
		"score":          attempt.Score,
		"passed":         attempt.Passed,
		"correctAnswers": attempt.CorrectAnswers,
		"totalQuestions": attempt.TotalQuestions,
		"answers":        attempt.Answers,
		"completedAt":    attempt.CompletedAt,
	}
}

// FetchOrCreate returns the quiz for a topic, creating the question
// pool lazily on first request. The pool is generated exactly once per
// (user, roadmap, topic); later fetches reuse it and only the sampled
// subset varies. Served questions never include the answer key.
func (qc *QuizController) FetchOrCreate(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, qc.Cfg)
	if err != nil {
		return utils.Unauthorized(c)
	}

	roadmap, topic, err := qc.loadRoadmapTopic(c, userID)
	if err != nil {
		return qc.lookupError(c, err)
	}

	var quiz models.Quiz
	err = qc.DB.Where("user_id = ? AND roadmap_id = ? AND topic_id = ?", userID, roadmap.ID, topic.ID).First(&quiz).Error
	switch {
	case err == nil:
		return qc.serveExisting(c, userID, topic, &quiz, true)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return qc.createAndServe(c, userID, roadmap, topic)
	default:
		return utils.InternalServerError(c, "Could not query database")
	}
}

func (qc *QuizController) serveExisting(c *fiber.Ctx, userID uint, topic *models.Topic, quiz *models.Quiz, existing bool) error {
	if err := qc.backfillQuestionIDs(quiz); err != nil {
		return utils.InternalServerError(c, "Could not update quiz")
	}

	var latest models.QuizAttempt
	var latestSummary fiber.Map
	err := qc.DB.Where("user_id = ? AND quiz_id = ?", userID, quiz.ID).
		Order("completed_at DESC").First(&latest).Error
	if err == nil {
		latestSummary = attemptSummary(&latest)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.InternalServerError(c, "Could not query database")
	}

	// Each failed attempt widens the next one by one question.
	var failedAttempts int64
	if err := qc.DB.Model(&models.QuizAttempt{}).
		Where("user_id = ? AND quiz_id = ? AND passed = ?", userID, quiz.ID, false).
		Count(&failedAttempts).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	size := services.AttemptSize(quiz.QuestionsPerAttempt, int(failedAttempts), len(quiz.Questions))
	sampled := services.SampleQuestions(quiz.Questions, size)

	return c.JSON(fiber.Map{
		"success": true,
		"quiz": fiber.Map{
			"id":                  quiz.ID,
			"title":               quiz.Title,
			"topic":               quiz.Topic,
			"description":         quiz.Description,
			"difficulty":          quiz.Difficulty,
			"passingScore":        quiz.PassingScore,
			"questionsPerAttempt": size,
			"questions":           services.SanitizeQuestions(sampled),
		},
		"quizPassed":    topic.QuizPassed,
		"latestAttempt": latestSummary,
		"isExisting":    existing,
	})
}

// createAndServe generates the pool and stores it with create-if-absent
// semantics: if a concurrent first fetch won the race, the unique
// (user, roadmap, topic) index rejects this insert and we re-read the
// winner's pool instead of surfacing an error or overwriting it.
func (qc *QuizController) createAndServe(c *fiber.Ctx, userID uint, roadmap *models.Roadmap, topic *models.Topic) error {
	raw, err := qc.Generator.GenerateQuizContent(c.UserContext(), topic.Title, "medium")
	if err != nil {
		qc.Log.Warn("quiz generation failed", zap.Error(err), zap.String("topic", topic.Title))
		return utils.UpstreamFailure(c, "Failed to get or generate quiz")
	}

	quiz := services.NormalizeQuiz(raw, topic.Title)
	quiz.UserID = userID
	quiz.RoadmapID = roadmap.ID
	quiz.TopicID = topic.ID

	if err := qc.DB.Create(&quiz).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			var winner models.Quiz
			if err := qc.DB.Where("user_id = ? AND roadmap_id = ? AND topic_id = ?", userID, roadmap.ID, topic.ID).
				First(&winner).Error; err != nil {
				return utils.InternalServerError(c, "Could not query database")
			}
			return qc.serveExisting(c, userID, topic, &winner, true)
		}
		qc.Log.Error("quiz create failed", zap.Error(err))
		return utils.InternalServerError(c, "Could not create quiz")
	}

	return qc.serveExisting(c, userID, topic, &quiz, false)
}

// Submit grades an answer payload against the topic's question pool.
// The attempt record and the recomputed topic statuses commit as one
// unit: if either write fails, neither sticks.
func (qc *QuizController) Submit(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, qc.Cfg)
	if err != nil {
		return utils.Unauthorized(c)
	}

	roadmap, topic, err := qc.loadRoadmapTopic(c, userID)
	if err != nil {
		return qc.lookupError(c, err)
	}

	var input struct {
		Answers   []services.SubmittedAnswer `json:"answers"`
		TimeTaken int                        `json:"timeTaken"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	var quiz models.Quiz
	if err := qc.DB.Where("user_id = ? AND roadmap_id = ? AND topic_id = ?", userID, roadmap.ID, topic.ID).
		First(&quiz).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Quiz not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}
	if err := qc.backfillQuestionIDs(&quiz); err != nil {
		return utils.InternalServerError(c, "Could not update quiz")
	}

	result := services.Grade(&quiz, input.Answers)

	attempt := models.QuizAttempt{
		UserID:         userID,
		QuizID:         quiz.ID,
		Answers:        result.Answers,
		Score:          result.Score,
		TotalQuestions: result.TotalQuestions,
		CorrectAnswers: result.CorrectAnswers,
		Passed:         result.Passed,
		TimeTaken:      input.TimeTaken,
	}

	topic.QuizPassed = result.Passed
	roadmap.Topics = services.RecalculateTopicStatuses(roadmap.Topics)

	err = qc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&attempt).Error; err != nil {
			return err
		}
		return tx.Save(roadmap).Error
	})
	if err != nil {
		qc.Log.Error("attempt commit failed", zap.Error(err), zap.Uint("quizId", quiz.ID))
		return utils.InternalServerError(c, "Failed to update quiz status")
	}

	logActivity(qc.DB, qc.Log, userID, models.ActivityQuizCompleted, fiber.Map{
		"quizId":    quiz.ID,
		"score":     result.Score,
		"passed":    result.Passed,
		"roadmapId": roadmap.ID,
		"topicId":   topic.ID,
	})

	message := "Quiz not passed."
	if result.Passed {
		message = "Quiz passed! Next topic unlocked."
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"roadmap":   roadmap,
		"attemptId": attempt.ID,
		"attempt":   attemptSummary(&attempt),
		"message":   message,
	})
}

func (qc *QuizController) ListAttempts(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, qc.Cfg)
	if err != nil {
		return utils.Unauthorized(c)
	}

	var attempts []models.QuizAttempt
	if err := qc.DB.Where("user_id = ?", userID).Order("completed_at DESC").Find(&attempts).Error; err != nil {
		return utils.InternalServerError(c, "Failed to get attempts")
	}

	return c.JSON(fiber.Map{"success": true, "attempts": attempts})
}

// GetAttempt returns one past attempt for review. Only the questions
// the user actually answered come back, with the correct answer now
// visible; the rest of the pool stays hidden.
func (qc *QuizController) GetAttempt(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, qc.Cfg)
	if err != nil {
		return utils.Unauthorized(c)
	}

	attemptID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid attempt ID")
	}

	var attempt models.QuizAttempt
	if err := qc.DB.Where("id = ? AND user_id = ?", attemptID, userID).First(&attempt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Attempt not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	var quiz models.Quiz
	if err := qc.DB.First(&quiz, attempt.QuizID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Quiz not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	answered := make(map[string]bool, len(attempt.Answers))
	for _, answer := range attempt.Answers {
		if answer.QuestionID != "" {
			answered[answer.QuestionID] = true
		}
	}
	questions := make([]models.Question, 0, len(answered))
	for _, q := range quiz.Questions {
		if answered[q.ID] {
			questions = append(questions, q)
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"attempt": attemptSummary(&attempt),
		"quiz": fiber.Map{
			"id":           quiz.ID,
			"title":        quiz.Title,
			"topic":        quiz.Topic,
			"difficulty":   quiz.Difficulty,
			"passingScore": quiz.PassingScore,
			"questions":    questions,
		},
	})
}

func (qc *QuizController) lookupError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrValidation):
		return utils.BadRequest(c, "Invalid roadmap ID")
	case errors.Is(err, services.ErrNotFound):
		return utils.NotFound(c, "Roadmap or topic not found")
	default:
		return utils.InternalServerError(c, "Could not query database")
	}
}
