package llm

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"net/http"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"voxchat/internal/conversation"
)

type Options struct {
	APIKey          string
	BaseURL         string
	Model           string
	Temperature     float64
	TopP            float64
	MaxOutputTokens int64
	HTTPClient      *http.Client
}

// Client is a chat-completions backend. The default base URL points at the
// Gemini OpenAI-compatible endpoint; any OpenAI-compatible server works.
type Client struct {
	api  openai.Client
	opts Options
}

func New(opts Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, errors.New("llm: empty api key")
	}
	if opts.Model == "" {
		return nil, errors.New("llm: empty model")
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}

	return &Client{
		api:  openai.NewClient(reqOpts...),
		opts: opts,
	}, nil
}

func (c *Client) Model() string { return c.opts.Model }

// Generate sends the prior turns followed by prompt as a user message.
func (c *Client) Generate(ctx context.Context, history []conversation.Turn, prompt string) (string, error) {
	resp, err := c.api.Chat.Completions.New(ctx, c.params(history, prompt))
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("chat completion: status %d: %w", apiErr.StatusCode, err)
		}
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", fmt.Errorf("empty message content (finish reason %q)", resp.Choices[0].FinishReason)
	}

	log.Debug("Generated", "model", c.opts.Model, "chars", len(content))

	return content, nil
}

func (c *Client) params(history []conversation.Turn, prompt string) openai.ChatCompletionNewParams {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+1)
	for _, t := range history {
		switch t.Role {
		case conversation.RoleAssistant:
			msgs = append(msgs, openai.AssistantMessage(t.Text))
		default:
			msgs = append(msgs, openai.UserMessage(t.Text))
		}
	}
	msgs = append(msgs, openai.UserMessage(prompt))

	p := openai.ChatCompletionNewParams{
		Messages:    msgs,
		Model:       openai.ChatModel(c.opts.Model),
		Temperature: openai.Float(c.opts.Temperature),
	}
	if c.opts.TopP > 0 {
		p.TopP = openai.Float(c.opts.TopP)
	}
	if c.opts.MaxOutputTokens > 0 {
		p.MaxTokens = openai.Int(c.opts.MaxOutputTokens)
	}
	return p
}
