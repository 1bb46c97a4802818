package recipe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com"
const defaultModel = "gemini-1.5-flash"

// ErrUpstream wraps any failure of the generative-AI provider.
var ErrUpstream = errors.New("recipe provider error")

// Generated is the recipe shape the mobile client renders.
type Generated struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Ingredients []string  `json:"ingredients"`
	CookTime    string    `json:"cookTime"`
	Difficulty  string    `json:"difficulty"`
	Nutrition   Nutrition `json:"nutrition"`
	Steps       []string  `json:"steps"`
}

// Nutrition is a coarse per-serving estimate from the model.
type Nutrition struct {
	Calories string `json:"calories"`
	Protein  string `json:"protein"`
	Carbs    string `json:"carbs"`
	Fat      string `json:"fat"`
}

// Client calls the Gemini generateContent API.
type Client struct {
	http   *resty.Client
	apiKey string
	model  string
}

// NewClient builds a client with retries suited to a slow generative API.
func NewClient(apiKey, baseURL string) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(30 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{http: client, apiKey: apiKey, model: defaultModel}
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Generate asks the model for one recipe using the given ingredients.
func (c *Client) Generate(ctx context.Context, ingredients []string) (Generated, error) {
	prompt := buildPrompt(ingredients)

	var out generateResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("key", c.apiKey).
		SetBody(generateRequest{Contents: []content{{Parts: []part{{Text: prompt}}}}}).
		SetResult(&out).
		Post(fmt.Sprintf("/v1beta/models/%s:generateContent", c.model))
	if err != nil {
		return Generated{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if resp.IsError() {
		return Generated{}, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode())
	}

	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return Generated{}, fmt.Errorf("%w: empty response", ErrUpstream)
	}

	return parseGenerated(out.Candidates[0].Content.Parts[0].Text)
}

func buildPrompt(ingredients []string) string {
	return "Buatkan satu resep masakan rumahan Indonesia dari bahan berikut: " +
		strings.Join(ingredients, ", ") +
		`. Jawab hanya dengan JSON valid berbentuk {"title","description","ingredients":[],"cookTime","difficulty","nutrition":{"calories","protein","carbs","fat"},"steps":[]}.`
}

// parseGenerated tolerates the model wrapping its JSON in a markdown fence.
func parseGenerated(text string) (Generated, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	var g Generated
	if err := json.Unmarshal([]byte(text), &g); err != nil {
		return Generated{}, fmt.Errorf("%w: unparseable model output", ErrUpstream)
	}
	if strings.TrimSpace(g.Title) == "" {
		return Generated{}, fmt.Errorf("%w: recipe without title", ErrUpstream)
	}
	return g, nil
}
