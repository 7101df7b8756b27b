package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// ClientConfig configures the OpenAI-compatible synthesizer.
type ClientConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	TableName string
}

// Client synthesizes SQL through an OpenAI-compatible chat completion
// endpoint.
type Client struct {
	client *openai.Client
	cfg    ClientConfig
	logger *slog.Logger
}

// NewClient creates a synthesizer for the given provider config.
func NewClient(cfg ClientConfig, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Client{
		client: openai.NewClient(opts...),
		cfg:    cfg,
		logger: logger,
	}, nil
}

// Synthesize sends the analyst prompt for one question and returns the raw
// completion text. Exactly one call per invocation; failures surface as
// *ModelError and the question is not resent.
func (c *Client) Synthesize(ctx context.Context, question string) (string, error) {
	prompt := BuildPrompt(c.cfg.TableName, question)
	c.logger.Debug("calling model", "model", c.cfg.Model, "table", c.cfg.TableName)

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.F(c.cfg.Model),
		Messages: openai.F([]openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		}),
		Temperature: openai.F(0.0),
	})
	if err != nil {
		return "", &ModelError{Cause: err}
	}
	if len(resp.Choices) == 0 {
		return "", &ModelError{Cause: fmt.Errorf("model returned no choices")}
	}

	return resp.Choices[0].Message.Content, nil
}

var _ Synthesizer = (*Client)(nil)
