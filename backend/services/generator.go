package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"

	"cognitolearn/backend/models"
)

// ContentGenerator is the external AI collaborator. Both calls are
// fallible and time-bounded; a failure surfaces as ErrUpstream and the
// caller decides whether to retry.
type ContentGenerator interface {
	GenerateRoadmapContent(ctx context.Context, prompt, level string) (RawRoadmap, error)
	GenerateQuizContent(ctx context.Context, topicTitle, difficulty string) (RawQuiz, error)
}

// RawChapter is one chapter of a generated roadmap before
// normalization. Subtopics and quiz_recommended may be absent.
type RawChapter struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Subtopics       []string `json:"subtopics"`
	QuizRecommended *bool    `json:"quiz_recommended"`
}

type RawRoadmap struct {
	Title       string
	Description string
	Chapters    []RawChapter
}

type RawQuestion struct {
	Question      string   `json:"question"`
	Type          string   `json:"type"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
}

type RawQuiz struct {
	Title               string        `json:"title"`
	Description         string        `json:"description"`
	Difficulty          string        `json:"difficulty"`
	PassingScore        int           `json:"passingScore"`
	QuestionsPerAttempt int           `json:"questionsPerAttempt"`
	Questions           []RawQuestion `json:"questions"`
}

const roadmapSchema = `{
	"anyOf": [
		{
			"type": "object",
			"properties": {
				"title": {"type": "string"},
				"description": {"type": "string"}
			},
			"anyOf": [
				{"required": ["beginner"]},
				{"required": ["intermediate"]},
				{"required": ["advanced"]},
				{"required": ["modules"]},
				{"required": ["topics"]},
				{"required": ["chapters"]}
			]
		},
		{"type": "array", "minItems": 1}
	]
}`

const quizSchema = `{
	"type": "object",
	"required": ["questions"],
	"properties": {
		"title": {"type": "string"},
		"description": {"type": "string"},
		"difficulty": {"type": "string"},
		"passingScore": {"type": "number"},
		"questionsPerAttempt": {"type": "number"},
		"questions": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["question", "options", "correctAnswer"],
				"properties": {
					"question": {"type": "string", "minLength": 1},
					"options": {"type": "array", "items": {"type": "string"}, "minItems": 2},
					"correctAnswer": {"type": "integer", "minimum": 0},
					"explanation": {"type": "string"}
				}
			}
		}
	}
}`

// GeneratorClient talks to the AI content service over HTTP.
type GeneratorClient struct {
	baseURL        string
	roadmapTimeout time.Duration
	quizTimeout    time.Duration
	httpClient     *http.Client
}

func NewGeneratorClient(baseURL string, roadmapTimeout, quizTimeout time.Duration) *GeneratorClient {
	if roadmapTimeout <= 0 {
		roadmapTimeout = 60 * time.Second
	}
	if quizTimeout <= 0 {
		quizTimeout = 30 * time.Second
	}
	return &GeneratorClient{
		baseURL:        strings.TrimRight(baseURL, "/"),
		roadmapTimeout: roadmapTimeout,
		quizTimeout:    quizTimeout,
		httpClient:     &http.Client{},
	}
}

type generatorResponse struct {
	Success bool            `json:"success"`
	Roadmap json.RawMessage `json:"roadmap"`
	Quiz    json.RawMessage `json:"quiz"`
	Error   string          `json:"error"`
}

func (c *GeneratorClient) post(ctx context.Context, path string, payload interface{}, timeout time.Duration) (*generatorResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding request: %v", ErrUpstream, err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", ErrUpstream, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: service returned status %d", ErrUpstream, resp.StatusCode)
	}

	var decoded generatorResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrUpstream, err)
	}
	if !decoded.Success {
		return nil, fmt.Errorf("%w: %s", ErrUpstream, decoded.Error)
	}
	return &decoded, nil
}

func validateAgainst(schema string, document []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewBytesLoader(document),
	)
	if err != nil {
		return fmt.Errorf("%w: schema check: %v", ErrUpstream, err)
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return fmt.Errorf("%w: unusable payload: %s", ErrUpstream, strings.Join(details, "; "))
	}
	return nil
}

func (c *GeneratorClient) GenerateRoadmapContent(ctx context.Context, prompt, level string) (RawRoadmap, error) {
	resp, err := c.post(ctx, "/generate-roadmap", map[string]string{
		"prompt": prompt,
		"level":  level,
	}, c.roadmapTimeout)
	if err != nil {
		return RawRoadmap{}, err
	}
	if len(resp.Roadmap) == 0 {
		return RawRoadmap{}, fmt.Errorf("%w: empty roadmap payload", ErrUpstream)
	}
	if err := validateAgainst(roadmapSchema, resp.Roadmap); err != nil {
		return RawRoadmap{}, err
	}
	return extractRawRoadmap(resp.Roadmap, level)
}

// extractRawRoadmap pulls the chapter list out of the generator's loose
// payload. The service keys chapters by proficiency level but has also
// shipped them under "modules", "topics" and "chapters", and sometimes
// as a bare top-level array.
func extractRawRoadmap(payload []byte, level string) (RawRoadmap, error) {
	var bare []RawChapter
	if err := json.Unmarshal(payload, &bare); err == nil {
		if len(bare) == 0 {
			return RawRoadmap{}, fmt.Errorf("%w: roadmap payload has no chapters", ErrUpstream)
		}
		return RawRoadmap{Chapters: bare}, nil
	}

	var envelope struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return RawRoadmap{}, fmt.Errorf("%w: decoding roadmap: %v", ErrUpstream, err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return RawRoadmap{}, fmt.Errorf("%w: decoding roadmap: %v", ErrUpstream, err)
	}

	var chapters []RawChapter
	for _, key := range []string{strings.ToLower(level), "modules", "topics", "chapters", "beginner", "intermediate", "advanced"} {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, &chapters); err == nil && len(chapters) > 0 {
			break
		}
		chapters = nil
	}
	if len(chapters) == 0 {
		return RawRoadmap{}, fmt.Errorf("%w: roadmap payload has no chapters", ErrUpstream)
	}

	return RawRoadmap{
		Title:       envelope.Title,
		Description: envelope.Description,
		Chapters:    chapters,
	}, nil
}

func (c *GeneratorClient) GenerateQuizContent(ctx context.Context, topicTitle, difficulty string) (RawQuiz, error) {
	resp, err := c.post(ctx, "/generate-quiz", map[string]string{
		"topic":      topicTitle,
		"difficulty": difficulty,
	}, c.quizTimeout)
	if err != nil {
		return RawQuiz{}, err
	}
	if len(resp.Quiz) == 0 {
		return RawQuiz{}, fmt.Errorf("%w: empty quiz payload", ErrUpstream)
	}
	if err := validateAgainst(quizSchema, resp.Quiz); err != nil {
		return RawQuiz{}, err
	}

	var quiz RawQuiz
	if err := json.Unmarshal(resp.Quiz, &quiz); err != nil {
		return RawQuiz{}, fmt.Errorf("%w: decoding quiz: %v", ErrUpstream, err)
	}
	return quiz, nil
}

// NormalizeRoadmap turns a raw generated roadmap into the strict
// internal model. Missing titles and subtopic lists get deterministic
// placeholders; statuses start with only the first topic open.
func NormalizeRoadmap(raw RawRoadmap, prompt, level string) models.Roadmap {
	difficulty := models.DifficultyIntermediate
	switch strings.ToLower(level) {
	case "beginner":
		difficulty = models.DifficultyBeginner
	case "advanced":
		difficulty = models.DifficultyAdvanced
	}

	topics := make(models.TopicList, 0, len(raw.Chapters))
	for i, chapter := range raw.Chapters {
		title := strings.TrimSpace(chapter.Title)
		if title == "" {
			title = fmt.Sprintf("Chapter %d", i+1)
		}

		var subtopics []models.Subtopic
		for _, sub := range chapter.Subtopics {
			sub = strings.TrimSpace(sub)
			if sub == "" {
				continue
			}
			subtopics = append(subtopics, models.Subtopic{
				ID:    "sub-" + uuid.NewString(),
				Title: sub,
			})
		}
		if len(subtopics) == 0 {
			for _, fallback := range []string{"Introduction to " + title, "Core Concepts", "Practice & Review"} {
				subtopics = append(subtopics, models.Subtopic{
					ID:    "sub-" + uuid.NewString(),
					Title: fallback,
				})
			}
		}

		status := models.TopicStatusLocked
		if i == 0 {
			status = models.TopicStatusInProgress
		}

		quizRecommended := true
		if chapter.QuizRecommended != nil {
			quizRecommended = *chapter.QuizRecommended
		}

		topics = append(topics, models.Topic{
			ID:              "topic-" + uuid.NewString(),
			Title:           title,
			Description:     strings.TrimSpace(chapter.Description),
			Status:          status,
			Type:            "milestone",
			QuizRecommended: quizRecommended,
			Subtopics:       subtopics,
		})
	}

	title := strings.TrimSpace(raw.Title)
	if title == "" {
		trimmed := []rune(prompt)
		if len(trimmed) > 50 {
			trimmed = trimmed[:50]
		}
		title = "Learning Path: " + string(trimmed)
	}
	description := strings.TrimSpace(raw.Description)
	if description == "" {
		description = "A personalized learning roadmap for: " + prompt
	}

	return models.Roadmap{
		Title:       title,
		Prompt:      prompt,
		Description: description,
		Difficulty:  difficulty,
		Topics:      topics,
	}
}

// NormalizeQuiz turns a raw generated quiz into a stored question pool
// for one topic. The attempt size is clamped to 3..10 and every
// question gets its permanent identity here.
func NormalizeQuiz(raw RawQuiz, topicTitle string) models.Quiz {
	title := strings.TrimSpace(raw.Title)
	if title == "" {
		title = topicTitle + " Quiz"
	}
	description := strings.TrimSpace(raw.Description)
	if description == "" {
		description = "Test your knowledge of " + topicTitle
	}
	difficulty := strings.ToLower(strings.TrimSpace(raw.Difficulty))
	switch difficulty {
	case "easy", "medium", "hard":
	default:
		difficulty = "medium"
	}
	passingScore := raw.PassingScore
	if passingScore <= 0 {
		passingScore = 70
	}
	perAttempt := raw.QuestionsPerAttempt
	if perAttempt == 0 {
		perAttempt = 5
	}
	if perAttempt < 3 {
		perAttempt = 3
	}
	if perAttempt > 10 {
		perAttempt = 10
	}

	questions := make(models.QuestionList, 0, len(raw.Questions))
	for _, q := range raw.Questions {
		qType := q.Type
		if qType == "" {
			qType = "mcq"
		}
		questions = append(questions, models.Question{
			Question:      q.Question,
			Type:          qType,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
			Explanation:   q.Explanation,
		})
	}
	questions, _ = EnsureQuestionIDs(questions)

	return models.Quiz{
		Title:               title,
		Topic:               topicTitle,
		Description:         description,
		Difficulty:          difficulty,
		PassingScore:        passingScore,
		QuestionsPerAttempt: perAttempt,
		Questions:           questions,
	}
}
