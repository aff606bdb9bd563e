// Package insight generates short natural-language summaries of a processed
// dataset via the Anthropic API.
package insight

import (
	"context"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
)

// Client is the narrow LLM surface the insight generator needs.
type Client interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Options configures the SDK-backed client.
type Options struct {
	APIKey    string
	Model     string
	MaxTokens int64
}

// sdkClient implements Client using the official anthropic-sdk-go.
type sdkClient struct {
	client    sdk.Client
	model     string
	maxTokens int64
}

// NewClient creates an Anthropic-backed insight client.
func NewClient(opts Options) (Client, error) {
	if opts.APIKey == "" {
		return nil, eris.New("insight: anthropic api key not configured")
	}
	if opts.Model == "" {
		return nil, eris.New("insight: anthropic model not configured")
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = 1024
	}
	return &sdkClient{
		client:    sdk.NewClient(option.WithAPIKey(opts.APIKey)),
		model:     opts.Model,
		maxTokens: opts.MaxTokens,
	}, nil
}

func (c *sdkClient) Complete(ctx context.Context, system, prompt string) (string, error) {
	msg, err := c.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: c.maxTokens,
		System:    []sdk.TextBlockParam{{Text: system}},
		Messages:  []sdk.MessageParam{sdk.NewUserMessage(sdk.NewTextBlock(prompt))},
	})
	if err != nil {
		return "", eris.Wrap(err, "insight: create message")
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return strings.TrimSpace(sb.String()), nil
}
