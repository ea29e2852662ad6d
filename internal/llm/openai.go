package llm

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// OpenAIClient is the OpenAI LLM client.
type OpenAIClient struct {
	client *openai.Client
}

// NewOpenAIClient creates a new OpenAI client.
func NewOpenAIClient(apiKey string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}

	return &OpenAIClient{
		client: openai.NewClient(apiKey),
	}, nil
}

// NewOpenAIClientWithConfig creates a client against a custom endpoint, such as a local
// OpenAI-compatible server.
func NewOpenAIClientWithConfig(cfg openai.ClientConfig) *OpenAIClient {
	return &OpenAIClient{
		client: openai.NewClientWithConfig(cfg),
	}
}

// Name returns the provider name.
func (c *OpenAIClient) Name() string {
	return string(ProviderOpenAI)
}

func chatRequest(req *CompletionRequest, stream bool) openai.ChatCompletionRequest {
	model := req.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	for _, msg := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	return openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   maxTokens(req),
		Temperature: float32(req.Temperature),
		Stream:      stream,
	}
}

// Complete sends a completion request.
func (c *OpenAIClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, chatRequest(req, false))
	if err != nil {
		return nil, err
	}

	out := &CompletionResponse{
		Model:     resp.Model,
		TokensIn:  resp.Usage.PromptTokens,
		TokensOut: resp.Usage.CompletionTokens,
		LatencyMs: time.Since(start).Milliseconds(),
	}
	if len(resp.Choices) > 0 {
		out.Content = resp.Choices[0].Message.Content
		out.StopReason = string(resp.Choices[0].FinishReason)
	}
	return out, nil
}

// CompleteStream sends a streaming completion request. Token usage is not reported by the
// streaming endpoint and is left at zero.
func (c *OpenAIClient) CompleteStream(ctx context.Context, req *CompletionRequest, callback StreamCallback) (*CompletionResponse, error) {
	start := time.Now()

	chat := chatRequest(req, true)
	stream, err := c.client.CreateChatCompletionStream(ctx, chat)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	var content strings.Builder
	var stopReason string
	index := 0

	for {
		response, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(response.Choices) == 0 {
			continue
		}

		if delta := response.Choices[0].Delta.Content; delta != "" {
			content.WriteString(delta)
			if err := callback(delta, index); err != nil {
				return nil, err
			}
			index++
		}
		if response.Choices[0].FinishReason != "" {
			stopReason = string(response.Choices[0].FinishReason)
		}
	}

	return &CompletionResponse{
		Content:    content.String(),
		Model:      chat.Model,
		StopReason: stopReason,
		LatencyMs:  time.Since(start).Milliseconds(),
	}, nil
}
