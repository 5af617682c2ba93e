package controllers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"cognitolearn/backend/config"
	"cognitolearn/backend/models"
	"cognitolearn/backend/services"
	"cognitolearn/backend/utils"
)

type RoadmapController struct {
	DB        *gorm.DB
	Cfg       *config.Config
	Generator services.ContentGenerator
	Log       *zap.Logger
}

func NewRoadmapController(db *gorm.DB, cfg *config.Config, generator services.ContentGenerator, log *zap.Logger) *RoadmapController {
	return &RoadmapController{DB: db, Cfg: cfg, Generator: generator, Log: log}
}

func (rc *RoadmapController) findRoadmap(c *fiber.Ctx, userID uint, param string) (*models.Roadmap, error) {
	roadmapID, err := strconv.Atoi(c.Params(param))
	if err != nil {
		return nil, services.ErrValidation
	}

	var roadmap models.Roadmap
	if err := rc.DB.Where("id = ? AND user_id = ?", roadmapID, userID).First(&roadmap).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, services.ErrNotFound
		}
		return nil, err
	}
	return &roadmap, nil
}

// Generate creates a roadmap from the AI collaborator's content. A
// generation failure is surfaced as retryable; no placeholder roadmap
// is ever stored.
func (rc *RoadmapController) Generate(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, rc.Cfg)
	if err != nil {
		return utils.Unauthorized(c)
	}

	var input struct {
		Prompt string `json:"prompt"`
		Level  string `json:"level"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if strings.TrimSpace(input.Prompt) == "" {
		return utils.BadRequest(c, "Prompt is required")
	}
	if input.Level == "" {
		input.Level = "intermediate"
	}

	raw, err := rc.Generator.GenerateRoadmapContent(c.UserContext(), input.Prompt, input.Level)
	if err != nil {
		rc.Log.Warn("roadmap generation failed", zap.Error(err))
		return utils.UpstreamFailure(c, "Failed to create roadmap. Please try again.")
	}

	roadmap := services.NormalizeRoadmap(raw, input.Prompt, input.Level)
	roadmap.UserID = userID

	if err := rc.DB.Create(&roadmap).Error; err != nil {
		rc.Log.Error("roadmap create failed", zap.Error(err))
		return utils.InternalServerError(c, "Failed to create roadmap. Please try again.")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "roadmap": roadmap})
}

func (rc *RoadmapController) List(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, rc.Cfg)
	if err != nil {
		return utils.Unauthorized(c)
	}

	var roadmaps []models.Roadmap
	if err := rc.DB.Where("user_id = ?", userID).Order("created_at DESC").Find(&roadmaps).Error; err != nil {
		return utils.InternalServerError(c, "Failed to get roadmaps")
	}

	return c.JSON(fiber.Map{"success": true, "roadmaps": roadmaps})
}

func (rc *RoadmapController) Get(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, rc.Cfg)
	if err != nil {
		return utils.Unauthorized(c)
	}

	roadmap, err := rc.findRoadmap(c, userID, "id")
	if err != nil {
		return rc.roadmapError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "roadmap": roadmap})
}

// Update accepts a topic list from the client but only trusts subtopic
// completion flags from it. Statuses, quiz state and progress are
// re-derived server-side; a client can never set them directly.
func (rc *RoadmapController) Update(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, rc.Cfg)
	if err != nil {
		return utils.Unauthorized(c)
	}

	roadmap, err := rc.findRoadmap(c, userID, "id")
	if err != nil {
		return rc.roadmapError(c, err)
	}

	var input struct {
		Topics []models.Topic `json:"topics"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	if input.Topics != nil {
		applySubtopicCompletion(roadmap.Topics, input.Topics)
		roadmap.Topics = services.RecalculateTopicStatuses(roadmap.Topics)
	}

	if err := rc.DB.Save(roadmap).Error; err != nil {
		return utils.InternalServerError(c, "Failed to update roadmap")
	}

	return c.JSON(fiber.Map{"success": true, "roadmap": roadmap})
}

// applySubtopicCompletion copies completion flags from the submitted
// topics onto the stored ones, matching by topic and subtopic ID.
func applySubtopicCompletion(stored models.TopicList, submitted []models.Topic) {
	submittedByID := make(map[string]models.Topic, len(submitted))
	for _, t := range submitted {
		submittedByID[t.ID] = t
	}

	for i := range stored {
		incoming, ok := submittedByID[stored[i].ID]
		if !ok {
			continue
		}
		completedByID := make(map[string]bool, len(incoming.Subtopics))
		for _, sub := range incoming.Subtopics {
			completedByID[sub.ID] = sub.Completed
		}
		for j := range stored[i].Subtopics {
			if completed, ok := completedByID[stored[i].Subtopics[j].ID]; ok {
				stored[i].Subtopics[j].Completed = completed
			}
		}
	}
}

// ToggleSubtopic flips one subtopic and re-derives every topic status,
// since completing the last subtopic of a topic can unlock the next.
func (rc *RoadmapController) ToggleSubtopic(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, rc.Cfg)
	if err != nil {
		return utils.Unauthorized(c)
	}

	roadmap, err := rc.findRoadmap(c, userID, "id")
	if err != nil {
		return rc.roadmapError(c, err)
	}

	topic := roadmap.FindTopic(c.Params("topicId"))
	if topic == nil {
		return utils.NotFound(c, "Topic not found")
	}

	subtopicID := c.Params("subtopicId")
	toggled := false
	for i := range topic.Subtopics {
		if topic.Subtopics[i].ID == subtopicID {
			topic.Subtopics[i].Completed = !topic.Subtopics[i].Completed
			toggled = true
			break
		}
	}
	if !toggled {
		return utils.NotFound(c, "Subtopic not found")
	}

	roadmap.Topics = services.RecalculateTopicStatuses(roadmap.Topics)

	if err := rc.DB.Save(roadmap).Error; err != nil {
		return utils.InternalServerError(c, "Failed to update roadmap")
	}

	logActivity(rc.DB, rc.Log, userID, models.ActivityRoadmapProgress, fiber.Map{
		"roadmapId":  roadmap.ID,
		"topicId":    topic.ID,
		"subtopicId": subtopicID,
	})

	return c.JSON(fiber.Map{"success": true, "roadmap": roadmap})
}

// Delete removes a roadmap and cascades to every quiz pool scoped to
// it, then every attempt against those pools. Nothing referencing the
// roadmap stays queryable afterwards.
func (rc *RoadmapController) Delete(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, rc.Cfg)
	if err != nil {
		return utils.Unauthorized(c)
	}

	roadmap, err := rc.findRoadmap(c, userID, "id")
	if err != nil {
		return rc.roadmapError(c, err)
	}

	var quizzes []models.Quiz
	if err := rc.DB.Where("roadmap_id = ? AND user_id = ?", roadmap.ID, userID).Find(&quizzes).Error; err != nil {
		return utils.InternalServerError(c, "Failed to delete roadmap")
	}
	quizIDs := make([]uint, 0, len(quizzes))
	for _, quiz := range quizzes {
		quizIDs = append(quizIDs, quiz.ID)
	}

	var deletedQuizzes, deletedAttempts int64
	err = rc.DB.Transaction(func(tx *gorm.DB) error {
		if len(quizIDs) > 0 {
			res := tx.Where("quiz_id IN ?", quizIDs).Delete(&models.QuizAttempt{})
			if res.Error != nil {
				return res.Error
			}
			deletedAttempts = res.RowsAffected

			res = tx.Where("id IN ?", quizIDs).Delete(&models.Quiz{})
			if res.Error != nil {
				return res.Error
			}
			deletedQuizzes = res.RowsAffected
		}
		return tx.Delete(roadmap).Error
	})
	if err != nil {
		rc.Log.Error("roadmap delete failed", zap.Error(err), zap.Uint("roadmapId", roadmap.ID))
		return utils.InternalServerError(c, "Failed to delete roadmap")
	}

	rc.Log.Info("roadmap deleted",
		zap.Uint("roadmapId", roadmap.ID),
		zap.Int64("quizzes", deletedQuizzes),
		zap.Int64("attempts", deletedAttempts),
	)

	return c.JSON(fiber.Map{
		"success":         true,
		"message":         "Roadmap deleted successfully",
		"deletedQuizzes":  deletedQuizzes,
		"deletedAttempts": deletedAttempts,
	})
}

func (rc *RoadmapController) roadmapError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrValidation):
		return utils.BadRequest(c, "Invalid roadmap ID")
	case errors.Is(err, services.ErrNotFound):
		return utils.NotFound(c, "Roadmap not found")
	default:
		return utils.InternalServerError(c, "Could not query database")
	}
}
