package llm

import (
	"context"
	"strings"
	"time"
)

// EchoClient answers by repeating the last user message word by word. It needs no credentials.
type EchoClient struct{}

// NewEchoClient creates an echo client.
func NewEchoClient() *EchoClient {
	return &EchoClient{}
}

// Name returns the provider name.
func (c *EchoClient) Name() string {
	return string(ProviderEcho)
}

// Complete returns the reply in one piece.
func (c *EchoClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	return c.CompleteStream(ctx, req, func(string, int) error { return nil })
}

// CompleteStream emits the reply one word at a time.
func (c *EchoClient) CompleteStream(ctx context.Context, req *CompletionRequest, callback StreamCallback) (*CompletionResponse, error) {
	start := time.Now()

	reply := "You said: " + lastUserMessage(req.Messages)
	words := strings.Fields(reply)

	var content strings.Builder
	for i, w := range words {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		token := w
		if i > 0 {
			token = " " + w
		}
		content.WriteString(token)
		if err := callback(token, i); err != nil {
			return nil, err
		}
	}

	return &CompletionResponse{
		Content:    content.String(),
		Model:      string(ProviderEcho),
		TokensOut:  len(words),
		StopReason: "end_turn",
		LatencyMs:  time.Since(start).Milliseconds(),
	}, nil
}

func lastUserMessage(msgs []ChatMessage) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == "user" {
			return msgs[i].Content
		}
	}
	return ""
}
