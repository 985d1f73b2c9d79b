package llm

import (
	"context"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	Name       string     `json:"name,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolSpec describes a callable tool to the model. Parameters is a JSON schema object.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]any
}

type Request struct {
	Messages    []Message
	Tools       []ToolSpec
	Temperature float64
}

type Provider interface {
	Generate(ctx context.Context, req Request) (Message, error)
}

type Config struct {
	Provider         string
	Model            string
	BaseURL          string
	GroqAPIKey       string
	OpenAIAPIKey     string
	OpenRouterAPIKey string
}

func NewProvider(cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "groq":
		return NewOpenAIProvider(OpenAIConfig{
			APIKey:  cfg.GroqAPIKey,
			Model:   cfg.Model,
			BaseURL: defaultIfEmpty(cfg.BaseURL, "https://api.groq.com/openai/v1"),
		}), nil
	case "openai":
		return NewOpenAIProvider(OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		}), nil
	case "openrouter":
		return NewOpenAIProvider(OpenAIConfig{
			APIKey:  cfg.OpenRouterAPIKey,
			Model:   cfg.Model,
			BaseURL: defaultIfEmpty(cfg.BaseURL, "https://openrouter.ai/api/v1"),
		}), nil
	default:
		return nil, ErrUnsupportedProvider{Provider: cfg.Provider}
	}
}

func defaultIfEmpty(value string, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
