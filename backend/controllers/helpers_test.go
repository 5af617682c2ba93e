package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"cognitolearn/backend/config"
	"cognitolearn/backend/models"
	"cognitolearn/backend/routes"
	"cognitolearn/backend/services"
	"cognitolearn/backend/utils"
)

// stubGenerator stands in for the AI content service so handler tests
// run without a network.
type stubGenerator struct {
	roadmap    services.RawRoadmap
	roadmapErr error
	quiz       services.RawQuiz
	quizErr    error

	// quizHook runs before the stubbed content returns, so a test can
	// interleave its own writes with an in-flight generation.
	quizHook func()

	quizCalls    int
	roadmapCalls int
}

func (s *stubGenerator) GenerateRoadmapContent(ctx context.Context, prompt, level string) (services.RawRoadmap, error) {
	s.roadmapCalls++
	if s.roadmapErr != nil {
		return services.RawRoadmap{}, s.roadmapErr
	}
	return s.roadmap, nil
}

func (s *stubGenerator) GenerateQuizContent(ctx context.Context, topicTitle, difficulty string) (services.RawQuiz, error) {
	s.quizCalls++
	if s.quizHook != nil {
		s.quizHook()
	}
	if s.quizErr != nil {
		return services.RawQuiz{}, s.quizErr
	}
	return s.quiz, nil
}

type testEnv struct {
	app       *fiber.App
	db        *gorm.DB
	cfg       *config.Config
	generator *stubGenerator
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, utils.Migrate(db))

	cfg := &config.Config{Env: "test", JWTSecret: "test-secret"}
	generator := &stubGenerator{}

	app := fiber.New()
	routes.SetupRoutes(app, db, cfg, generator, zap.NewNop())

	return &testEnv{app: app, db: db, cfg: cfg, generator: generator}
}

func (e *testEnv) token(t *testing.T, userID uint) string {
	t.Helper()
	token, err := utils.GenerateJWTToken(userID, e.cfg)
	require.NoError(t, err)
	return token
}

func (e *testEnv) request(t *testing.T, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var decoded map[string]interface{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp.StatusCode, decoded
}

// twoTopicList builds a minimal progression: the first topic open with
// two subtopics, the second locked behind it.
func twoTopicList(firstCompleted bool, quizRecommended bool) models.TopicList {
	return models.TopicList{
		{
			ID:              "t1",
			Title:           "Foundations",
			Status:          models.TopicStatusInProgress,
			Type:            "milestone",
			QuizRecommended: quizRecommended,
			Subtopics: []models.Subtopic{
				{ID: "s1", Title: "Basics", Completed: firstCompleted},
				{ID: "s2", Title: "Practice", Completed: firstCompleted},
			},
		},
		{
			ID:              "t2",
			Title:           "Advanced",
			Status:          models.TopicStatusLocked,
			Type:            "milestone",
			QuizRecommended: quizRecommended,
			Subtopics: []models.Subtopic{
				{ID: "s3", Title: "Deep Dive", Completed: false},
				{ID: "s4", Title: "Project", Completed: false},
			},
		},
	}
}

func seedRoadmap(t *testing.T, db *gorm.DB, userID uint, topics models.TopicList) *models.Roadmap {
	t.Helper()
	roadmap := &models.Roadmap{
		UserID:     userID,
		Title:      "Go Roadmap",
		Prompt:     "learn go",
		Difficulty: models.DifficultyIntermediate,
		Topics:     topics,
	}
	require.NoError(t, db.Create(roadmap).Error)
	return roadmap
}

func seedQuiz(t *testing.T, db *gorm.DB, userID, roadmapID uint, topicID string, poolSize, perAttempt int) *models.Quiz {
	t.Helper()

	questions := make(models.QuestionList, poolSize)
	for i := range questions {
		questions[i] = models.Question{
			ID:            fmt.Sprintf("q%d", i+1),
			Question:      fmt.Sprintf("Question %d", i+1),
			Type:          "mcq",
			Options:       []string{"a", "b", "c", "d"},
			CorrectAnswer: i % 4,
		}
	}

	quiz := &models.Quiz{
		UserID:              userID,
		RoadmapID:           roadmapID,
		TopicID:             topicID,
		Title:               "Foundations Quiz",
		Topic:               "Foundations",
		Difficulty:          "medium",
		PassingScore:        70,
		QuestionsPerAttempt: perAttempt,
		Questions:           questions,
	}
	require.NoError(t, db.Create(quiz).Error)
	return quiz
}

// answersFor builds a submission over the seeded pool. Correct entries
// use the seeded answer key, wrong ones are off by one.
func answersFor(quiz *models.Quiz, correct bool, ids ...string) []map[string]interface{} {
	keyByID := make(map[string]int, len(quiz.Questions))
	for _, q := range quiz.Questions {
		keyByID[q.ID] = q.CorrectAnswer
	}

	answers := make([]map[string]interface{}, 0, len(ids))
	for _, id := range ids {
		selected := keyByID[id]
		if !correct {
			selected = (selected + 1) % 4
		}
		answers = append(answers, map[string]interface{}{
			"questionId":     id,
			"selectedAnswer": selected,
		})
	}
	return answers
}

func quizPath(roadmapID uint, topicID string) string {
	return fmt.Sprintf("/api/roadmaps/%d/topics/%s/quiz", roadmapID, topicID)
}
