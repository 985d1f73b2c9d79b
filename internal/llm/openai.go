package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/sashabaranov/go-openai"
)

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// OpenAIProvider talks to any OpenAI compatible chat completions endpoint.
type OpenAIProvider struct {
	apiKey  string
	model   string
	baseURL string
	client  *openai.Client
}

func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	baseURL = strings.TrimRight(baseURL, "/")
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = baseURL
	return &OpenAIProvider{
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: baseURL,
		client:  openai.NewClientWithConfig(clientConfig),
	}
}

func (p *OpenAIProvider) Generate(ctx context.Context, req Request) (Message, error) {
	if p.apiKey == "" {
		return Message{}, errors.New("missing API key for remote provider")
	}
	if p.model == "" {
		return Message{}, errors.New("missing model for remote provider")
	}

	chatReq := openai.ChatCompletionRequest{
		Model:       p.model,
		Temperature: temperature(req.Temperature),
	}
	for _, msg := range req.Messages {
		chatReq.Messages = append(chatReq.Messages, toOpenAIMessage(msg))
	}
	for _, spec := range req.Tools {
		chatReq.Tools = append(chatReq.Tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        spec.Name,
				Description: spec.Description,
				Parameters:  spec.Parameters,
			},
		})
	}

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return Message{}, fmt.Errorf("LLM request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Message{}, errors.New("LLM response had no choices")
	}
	return fromOpenAIMessage(resp.Choices[0].Message), nil
}

// temperature maps zero to the smallest positive float so go-openai does not omit it.
func temperature(value float64) float32 {
	if value <= 0 {
		return math.SmallestNonzeroFloat32
	}
	return float32(value)
}

func toOpenAIMessage(msg Message) openai.ChatCompletionMessage {
	out := openai.ChatCompletionMessage{
		Role:       msg.Role,
		Content:    msg.Content,
		Name:       msg.Name,
		ToolCallID: msg.ToolCallID,
	}
	for _, call := range msg.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, openai.ToolCall{
			ID:   call.ID,
			Type: openai.ToolTypeFunction,
			Function: openai.FunctionCall{
				Name:      call.Name,
				Arguments: call.Arguments,
			},
		})
	}
	return out
}

func fromOpenAIMessage(msg openai.ChatCompletionMessage) Message {
	out := Message{
		Role:    msg.Role,
		Content: strings.TrimSpace(msg.Content),
	}
	if out.Role == "" {
		out.Role = RoleAssistant
	}
	for _, call := range msg.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:        call.ID,
			Name:      call.Function.Name,
			Arguments: call.Function.Arguments,
		})
	}
	return out
}
