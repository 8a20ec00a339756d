// Package categorize calls an OpenAI-compatible chat completions API to
// group grocery item texts into store sections.
package categorize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/ladle/internal/model"
)

// sectionNames is the canonical set the model is asked to choose from.
const sectionNames = "Produce,Meat & Poultry,Seafood,Deli,Bakery,Dairy & Eggs," +
	"Frozen Foods,Pantry,Canned Goods,Baking,Beverages,Snacks & Candy," +
	"Health & Beauty,Household Essentials,Pet Supplies,International,Floral,Alcohol"

// Config holds categorizer configuration.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type sectionsPayload struct {
	Sections []model.Section `json:"sections"`
}

// Client talks to a chat completions endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient creates a categorizer client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Categorize asks the model to bucket the given item texts and returns
// the sections it proposes. The model is instructed to answer with raw
// JSON only; a fenced answer is tolerated anyway.
func (c *Client) Categorize(ctx context.Context, items []string) ([]model.Section, error) {
	prompt, err := buildPrompt(items)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(chatRequest{
		Model:    c.cfg.Model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("categorize request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("categorize: status %d", resp.StatusCode)
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(cr.Choices) == 0 || cr.Choices[0].Message.Content == "" {
		return nil, fmt.Errorf("categorize: empty completion")
	}

	var payload sectionsPayload
	content := stripFences(cr.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, fmt.Errorf("parse completion: %w", err)
	}
	return payload.Sections, nil
}

func buildPrompt(items []string) (string, error) {
	encoded, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("marshal items: %w", err)
	}
	return fmt.Sprintf(
		"Group items:%s into sections; "+
			"Return only raw JSON, no markdown, no code fences, of the form "+
			`{"sections":[{"name":string,"items":[string]}]}. `+
			"Use sections:%s",
		encoded, sectionNames), nil
}

// stripFences removes a surrounding markdown code fence if the model
// ignored the raw-JSON instruction.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
