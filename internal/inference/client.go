// Package inference generates issue bodies through an OpenAI-compatible
// chat completion API.
package inference

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultMaxTokens caps the generated body when no limit is configured.
const DefaultMaxTokens = 1024

// DefaultSystemPrompt is used when no prompt file is configured.
// {sections} and {style} are substituted per request.
const DefaultSystemPrompt = `You are a GitHub user and you want to create a new issue. You will be given a title and a description.
You are required to elaborate on the issue by providing the following sections: {sections}.

In describing the issue, you should use the following style: {style}.

You should provide clear instructions, carefully craft descriptions, and use structured formatting.

Your response should be a string formatted with markdown syntax. Do not include any other information in your response.`

// ErrEmptyCompletion is returned when the API answers without any choice.
var ErrEmptyCompletion = errors.New("inference: completion returned no choices")

// Config holds the connection settings for the inference API.
type Config struct {
	BaseURL      string
	APIKey       string
	Organization string
	Model        string
	MaxTokens    int
	HTTPClient   *http.Client
}

// Client wraps a go-openai client bound to one model.
//
// WHY AN OPENAI-COMPATIBLE CLIENT?
// The chat completion wire format is served by many backends besides
// OpenAI (hosted gateways, local model servers). Pointing BaseURL at one
// of them is the only change needed to switch providers.
//
// REQUEST SHAPE:
//
//	system: the prompt template with {sections} and {style} filled in
//	user:   Title: '<title>', Description: '<description>'
//
// Only the first choice is used. Temperature is left at the server default.
type Client struct {
	api       *openai.Client
	model     string
	maxTokens int
	logger    *slog.Logger
}

// NewClient creates a Client. BaseURL and Model are required.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("inference: base URL is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("inference: model is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	clientConfig.OrgID = cfg.Organization
	if cfg.HTTPClient != nil {
		clientConfig.HTTPClient = cfg.HTTPClient
	} else {
		clientConfig.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		api:       openai.NewClientWithConfig(clientConfig),
		model:     cfg.Model,
		maxTokens: maxTokens,
		logger:    logger,
	}, nil
}

// Ping lists the available models to check that the credentials work.
func (c *Client) Ping(ctx context.Context) error {
	models, err := c.api.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("inference: listing models: %w", err)
	}
	c.logger.Debug("inference credentials verified", "models", len(models.Models))
	return nil
}

// GenerateIssueBody asks the model to expand title and description into
// an issue body with the given sections, written in style. The first
// choice is returned verbatim.
func (c *Client) GenerateIssueBody(ctx context.Context, template, title, description, style string, sections []string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: RenderSystemPrompt(template, style, sections),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: UserMessage(title, description),
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("inference: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	content := resp.Choices[0].Message.Content
	c.logger.Debug("issue body generated",
		"model", c.model,
		"chars", len(content),
		"completion_tokens", resp.Usage.CompletionTokens,
	)
	return content, nil
}

// RenderSystemPrompt substitutes {sections} (joined with ", ") and {style}
// into template. Other braces are left untouched.
func RenderSystemPrompt(template, style string, sections []string) string {
	if template == "" {
		template = DefaultSystemPrompt
	}
	return strings.NewReplacer(
		"{sections}", strings.Join(sections, ", "),
		"{style}", style,
	).Replace(template)
}

// UserMessage formats the user turn.
func UserMessage(title, description string) string {
	return fmt.Sprintf("Title: '%s', Description: '%s'", title, description)
}
