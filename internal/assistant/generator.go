package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-3-flash-preview"

// Roles of a conversation turn, as the Gemini API names them.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Message is one conversation turn.
type Message struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Generator produces the next model turn for a conversation.
type Generator interface {
	Generate(ctx context.Context, system string, history []Message) (string, error)
}

// GeminiConfig configures GeminiGenerator.
type GeminiConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// GeminiGenerator calls the Gemini API through google.golang.org/genai.
type GeminiGenerator struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGeminiGenerator creates a GeminiGenerator.
func NewGeminiGenerator(ctx context.Context, cfg GeminiConfig) (*GeminiGenerator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("Gemini API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiGenerator{client: client, model: cfg.Model, timeout: cfg.Timeout}, nil
}

// Name returns the generator name.
func (g *GeminiGenerator) Name() string {
	return "genai:" + g.model
}

// Generate sends the history with an optional system instruction and returns
// the reply text. Leading model turns (the local greeting) are not sent: the
// API expects a conversation to open with a user turn.
func (g *GeminiGenerator) Generate(ctx context.Context, system string, history []Message) (string, error) {
	for len(history) > 0 && history[0].Role == RoleModel {
		history = history[1:]
	}
	if len(history) == 0 {
		return "", errors.New("empty conversation")
	}

	contents := make([]*genai.Content, 0, len(history))
	for _, m := range history {
		var role genai.Role = genai.RoleUser
		if m.Role == RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Text, role))
	}

	var cfg *genai.GenerateContentConfig
	if strings.TrimSpace(system) != "" {
		cfg = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		}
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}
	return strings.TrimSpace(resp.Text()), nil
}
