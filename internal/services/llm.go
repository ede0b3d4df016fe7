package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/pixtape/internal/models"
	"github.com/desertthunder/pixtape/internal/shared"
)

const (
	DefaultLLMBaseURL = "https://api.openai.com/v1"
	DefaultLLMModel   = "gpt-4o-mini"

	// RecommendationCount is the number of songs requested per image.
	RecommendationCount = 10
)

const systemPrompt = `You are a music curator. You pick real, existing songs that fit the mood of a photo.
Reply with a JSON object of the form {"recommendations": [{"title": "", "artist": "", "mood": "", "reason": ""}]}.`

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat responseFormat `json:"response_format"`
	Temperature    float64        `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// ChatClient requests recommendations from an OpenAI-compatible chat completions API.
type ChatClient struct {
	apiKey  string
	baseURL string
	model   string
	t       *transport
	logger  *log.Logger
}

// NewChatClient creates a [ChatClient]. A nil logger discards output.
func NewChatClient(c shared.LLMConfig, client *http.Client, logger *log.Logger) (*ChatClient, error) {
	if c.APIKey == "" {
		return nil, fmt.Errorf("%w: llm api_key", shared.ErrMissingCredentials)
	}
	if logger == nil {
		logger = shared.DiscardLogger()
	}

	baseURL := strings.TrimSuffix(c.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultLLMBaseURL
	}
	model := c.Model
	if model == "" {
		model = DefaultLLMModel
	}

	return &ChatClient{
		apiKey:  c.APIKey,
		baseURL: baseURL,
		model:   model,
		t:       newTransport("llm", client, c.RateLimit),
		logger:  logger,
	}, nil
}

// Recommend asks the model for songs matching analysis. An unparseable reply yields an empty list.
func (c *ChatClient) Recommend(ctx context.Context, analysis *models.AnalysisResult) ([]models.Recommendation, error) {
	if analysis == nil || len(analysis.Keywords) == 0 {
		return nil, fmt.Errorf("%w: no keywords to recommend from", shared.ErrInvalidInput)
	}

	body, err := jsonBody(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: BuildPrompt(analysis)},
		},
		ResponseFormat: responseFormat{Type: "json_object"},
		Temperature:    0.8,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	var resp chatResponse
	if err := c.t.do(req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		c.logger.Warn("language model returned no choices", "image", analysis.ImageID)
		return []models.Recommendation{}, nil
	}

	recs, err := ParseRecommendations(resp.Choices[0].Message.Content)
	if err != nil {
		c.logger.Warn("discarding unparseable recommendations", "image", analysis.ImageID, "error", err)
		return []models.Recommendation{}, nil
	}
	return recs, nil
}

// BuildPrompt renders the user prompt for analysis.
func BuildPrompt(analysis *models.AnalysisResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Recommend %d songs for a photo described by these keywords: %s.\n",
		RecommendationCount, strings.Join(analysis.Keywords, ", "))

	if analysis.DominantEmotion != "" && analysis.DominantEmotion != models.EmotionNone {
		fmt.Fprintf(&b, "The people in the photo look mostly %s.\n", analysis.DominantEmotion)
	}
	if len(analysis.ColorNames) > 0 {
		fmt.Fprintf(&b, "Its dominant colors are %s.\n", strings.Join(analysis.ColorNames, ", "))
	}

	b.WriteString("Mix well-known and lesser-known artists. For each song give a one-word mood and a short reason.")
	return b.String()
}

// ParseRecommendations decodes a model reply. It accepts the requested object, a bare array and
// replies wrapped in a markdown code fence. Missing fields are filled with defaults.
func ParseRecommendations(content string) ([]models.Recommendation, error) {
	content = stripFence(strings.TrimSpace(content))
	if content == "" {
		return nil, fmt.Errorf("%w: empty reply", shared.ErrParseFailure)
	}

	var recs []models.Recommendation
	if strings.HasPrefix(content, "[") {
		if err := json.Unmarshal([]byte(content), &recs); err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrParseFailure, err)
		}
	} else {
		var wrapped struct {
			Recommendations []models.Recommendation `json:"recommendations"`
			Songs           []models.Recommendation `json:"songs"`
		}
		if err := json.Unmarshal([]byte(content), &wrapped); err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrParseFailure, err)
		}
		recs = wrapped.Recommendations
		if recs == nil {
			recs = wrapped.Songs
		}
	}

	out := make([]models.Recommendation, 0, len(recs))
	for _, r := range recs {
		out = append(out, models.Recommendation{
			Title:  strings.TrimSpace(r.Title),
			Artist: strings.TrimSpace(r.Artist),
			Mood:   strings.TrimSpace(r.Mood),
			Reason: strings.TrimSpace(r.Reason),
		}.Normalize())
	}
	return out, nil
}

func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
