package suggest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/erazemk/onboard/internal/model"
)

// Defaults for the chat-completion service.
const (
	DefaultURL   = "https://api.openai.com/v1"
	DefaultModel = openai.GPT3Dot5Turbo
)

const systemPrompt = "You are a manufacturing expert. Provide accurate, industry-specific machine suggestions."

// ErrEmptySuggestions is returned when a reply parses but holds no usable machine.
var ErrEmptySuggestions = errors.New("no usable machines in reply")

// Prompt builds the user prompt asking for machines common in industry.
func Prompt(industry string) string {
	return fmt.Sprintf(`Based on the %[1]s industry, suggest 6-8 common machines that would be found in a typical manufacturing facility.
For each machine, provide:
- Machine type (e.g., Lathe, Milling Machine, CNC Router)
- Typical quantity (1-3)
- Brief description of its use in this industry

Return as JSON array with format:
[{"type": "Machine Type", "model": "", "info": "Brief description", "quantity": 1}]

Focus on machines that are essential for %[1]s manufacturing.`, industry)
}

// Client talks to an OpenAI-compatible chat-completion service.
type Client struct {
	api   *openai.Client
	model string
}

// NewClient creates a Client for the API rooted at baseURL, authenticating
// with key. Empty baseURL and model select the defaults. A baseURL that
// names the chat-completions endpoint itself is accepted too.
func NewClient(baseURL, key, model string) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if model == "" {
		model = DefaultModel
	}

	cfg := openai.DefaultConfig(key)
	cfg.BaseURL = strings.TrimSuffix(strings.TrimSuffix(baseURL, "/"), "/chat/completions")
	return &Client{
		api:   openai.NewClientWithConfig(cfg),
		model: model,
	}
}

// Complete sends one chat request and returns the text of the first choice.
func (c *Client) Complete(ctx context.Context, system, prompt string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.7,
		MaxTokens:   500,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("response has no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// ParseTemplates parses a reply holding a JSON array of machines, optionally
// wrapped in a Markdown code fence. Entries that fail to decode or have no
// type are skipped, and quantities are normalized.
func ParseTemplates(content string) ([]model.Template, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(stripFence(content)), &raw); err != nil {
		return nil, fmt.Errorf("parse suggestions: %w", err)
	}

	templates := make([]model.Template, 0, len(raw))
	skipped := 0
	for _, entry := range raw {
		var t model.Template
		if err := json.Unmarshal(entry, &t); err != nil {
			skipped++
			continue
		}
		t = t.Trimmed()
		if t.Type == "" {
			skipped++
			continue
		}
		templates = append(templates, t)
	}
	if skipped > 0 {
		slog.Warn("skipped malformed suggestions", "skipped", skipped, "kept", len(templates))
	}
	if len(templates) == 0 {
		return nil, ErrEmptySuggestions
	}
	return templates, nil
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	// Drop the opening fence line, which may carry a language tag.
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
