// Package tools holds the capabilities the research agent may call.
package tools

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Keyring-Network/keyring-gavryn/research-agent/internal/llm"
)

// Tool is a named capability that takes a text input and returns text.
type Tool interface {
	Name() string
	Description() string
	Run(ctx context.Context, input string) (string, error)
}

type ErrUnknownTool struct {
	Name string
}

func (e ErrUnknownTool) Error() string {
	return fmt.Sprintf("unknown tool: %s", e.Name)
}

var errEmptyInput = errors.New("tool input is empty")

type Config struct {
	SearchMaxResults  int
	WikipediaTopK     int
	WikipediaMaxChars int
	WikipediaLanguage string
	HTTPClient        *http.Client
}

// Default builds the tool set exposed to the research agent.
func Default(cfg Config) []Tool {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return []Tool{
		NewDuckDuckGo(DuckDuckGoConfig{MaxResults: cfg.SearchMaxResults, Client: client}),
		NewWikipedia(WikipediaConfig{
			TopK:     cfg.WikipediaTopK,
			MaxChars: cfg.WikipediaMaxChars,
			Language: cfg.WikipediaLanguage,
			Client:   client,
		}),
	}
}

// Spec describes a tool to the model as a function taking a single query string.
func Spec(tool Tool) llm.ToolSpec {
	return llm.ToolSpec{
		Name:        tool.Name(),
		Description: tool.Description(),
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "Input for the " + tool.Name() + " tool.",
				},
			},
			"required": []string{"query"},
		},
	}
}

type Registry struct {
	order []string
	tools map[string]Tool
}

func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, tool := range tools {
		if _, exists := r.tools[tool.Name()]; !exists {
			r.order = append(r.order, tool.Name())
		}
		r.tools[tool.Name()] = tool
	}
	return r
}

func (r *Registry) Lookup(name string) (Tool, error) {
	tool, ok := r.tools[name]
	if !ok {
		return nil, ErrUnknownTool{Name: name}
	}
	return tool, nil
}

func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

func (r *Registry) Specs() []llm.ToolSpec {
	specs := make([]llm.ToolSpec, 0, len(r.order))
	for _, name := range r.order {
		specs = append(specs, Spec(r.tools[name]))
	}
	return specs
}

func truncate(text string, limit int) string {
	if limit <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}

func checkInput(input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", errEmptyInput
	}
	return trimmed, nil
}
