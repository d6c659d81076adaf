package assistant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Role of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one chat turn.
type Message struct {
	Role    Role
	Content string
}

// ChatClient sends a conversation and returns the model's reply.
type ChatClient interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// ClientOptions configures an OpenAIClient.
type ClientOptions struct {
	APIKey      string
	BaseURL     string // empty means the OpenAI API
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// OpenAIClient is a ChatClient backed by the chat completions API.
type OpenAIClient struct {
	client      openai.Client
	model       string
	temperature float64
}

// NewOpenAIClient creates an OpenAIClient.
func NewOpenAIClient(opts ClientOptions) (*OpenAIClient, error) {
	if opts.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	if opts.Model == "" {
		return nil, errors.New("model is required")
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(2),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.Timeout > 0 {
		reqOpts = append(reqOpts, option.WithRequestTimeout(opts.Timeout))
	}

	return &OpenAIClient{
		client:      openai.NewClient(reqOpts...),
		model:       opts.Model,
		temperature: opts.Temperature,
	}, nil
}

// Complete implements ChatClient.
func (c *OpenAIClient) Complete(ctx context.Context, messages []Message) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.model),
		Messages:    toOpenAIMessages(messages),
		Temperature: openai.Float(c.temperature),
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
