package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicModel = "claude-3-5-haiku-20241022"

// AnthropicClient is the Anthropic LLM client.
type AnthropicClient struct {
	client *anthropic.Client
}

// NewAnthropicClient creates a new Anthropic client.
func NewAnthropicClient(apiKey string, opts ...option.RequestOption) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, errors.New("Anthropic API key is required")
	}

	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &AnthropicClient{
		client: anthropic.NewClient(opts...),
	}, nil
}

// Name returns the provider name.
func (c *AnthropicClient) Name() string {
	return string(ProviderAnthropic)
}

func (c *AnthropicClient) params(req *CompletionRequest) anthropic.MessageNewParams {
	model := req.Model
	if model == "" {
		model = defaultAnthropicModel
	}

	messages := make([]anthropic.MessageParam, 0, len(req.Messages))
	for _, msg := range req.Messages {
		block := anthropic.NewTextBlock(msg.Content)
		if msg.Role == "assistant" {
			messages = append(messages, anthropic.NewAssistantMessage(block))
			continue
		}
		messages = append(messages, anthropic.NewUserMessage(block))
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.F(model),
		MaxTokens: anthropic.F(int64(maxTokens(req))),
		Messages:  anthropic.F(messages),
	}
	if req.System != "" {
		params.System = anthropic.F([]anthropic.TextBlockParam{anthropic.NewTextBlock(req.System)})
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.F(req.Temperature)
	}
	return params
}

// Complete sends a completion request.
func (c *AnthropicClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()

	resp, err := c.client.Messages.New(ctx, c.params(req))
	if err != nil {
		return nil, err
	}

	return response(resp, start), nil
}

// CompleteStream sends a streaming completion request.
func (c *AnthropicClient) CompleteStream(ctx context.Context, req *CompletionRequest, callback StreamCallback) (*CompletionResponse, error) {
	start := time.Now()

	stream := c.client.Messages.NewStreaming(ctx, c.params(req))
	defer stream.Close()

	message := anthropic.Message{}
	index := 0
	for stream.Next() {
		event := stream.Current()
		message.Accumulate(event)

		switch delta := event.Delta.(type) {
		case anthropic.ContentBlockDeltaEventDelta:
			if delta.Text == "" {
				continue
			}
			if err := callback(delta.Text, index); err != nil {
				return nil, err
			}
			index++
		}
	}
	if err := stream.Err(); err != nil {
		return nil, err
	}

	return response(&message, start), nil
}

func response(msg *anthropic.Message, start time.Time) *CompletionResponse {
	var content strings.Builder
	for _, block := range msg.Content {
		if block.Type == anthropic.ContentBlockTypeText {
			content.WriteString(block.Text)
		}
	}

	return &CompletionResponse{
		Content:    content.String(),
		Model:      msg.Model,
		TokensIn:   int(msg.Usage.InputTokens),
		TokensOut:  int(msg.Usage.OutputTokens),
		StopReason: string(msg.StopReason),
		LatencyMs:  time.Since(start).Milliseconds(),
	}
}
