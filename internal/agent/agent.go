// Package agent runs a tool-calling language model loop for research queries.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/Keyring-Network/keyring-gavryn/research-agent/internal/llm"
	"github.com/Keyring-Network/keyring-gavryn/research-agent/internal/tools"
)

var ErrIterationLimit = errors.New("agent stopped due to iteration limit")

const defaultMaxIterations = 15

const systemPromptTemplate = `You are a research assistant that will help generate a research paper.
Answer the user query and use necessary tools.
Wrap the output in this format and provide no other text
%s`

// SystemPrompt renders the research assistant instructions around the output format.
func SystemPrompt(formatInstructions string) string {
	return fmt.Sprintf(systemPromptTemplate, formatInstructions)
}

type Config struct {
	Provider      llm.Provider
	Tools         []tools.Tool
	SystemPrompt  string
	Temperature   float64
	MaxIterations int
	// Verbose logs every model step and tool observation.
	Verbose bool
}

// Executor is built once and shared by all requests; it holds no per-run state.
type Executor struct {
	provider      llm.Provider
	registry      *tools.Registry
	specs         []llm.ToolSpec
	systemPrompt  string
	temperature   float64
	maxIterations int
	verbose       bool
}

func NewExecutor(cfg Config) (*Executor, error) {
	if cfg.Provider == nil {
		return nil, errors.New("agent: provider is required")
	}
	maxIterations := cfg.MaxIterations
	if maxIterations <= 0 {
		maxIterations = defaultMaxIterations
	}
	registry := tools.NewRegistry(cfg.Tools...)
	return &Executor{
		provider:      cfg.Provider,
		registry:      registry,
		specs:         registry.Specs(),
		systemPrompt:  cfg.SystemPrompt,
		temperature:   cfg.Temperature,
		maxIterations: maxIterations,
		verbose:       cfg.Verbose,
	}, nil
}

// Invoke answers query, calling tools as the model requests them.
func (e *Executor) Invoke(ctx context.Context, query string) (Result, error) {
	runID := uuid.NewString()
	messages := make([]llm.Message, 0, 4)
	if e.systemPrompt != "" {
		messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: e.systemPrompt})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: query})

	for step := 0; step < e.maxIterations; step++ {
		reply, err := e.provider.Generate(ctx, llm.Request{
			Messages:    messages,
			Tools:       e.specs,
			Temperature: e.temperature,
		})
		if err != nil {
			return Result{}, err
		}
		if len(reply.ToolCalls) == 0 {
			e.logf(runID, "finished after %d step(s)", step+1)
			if strings.TrimSpace(reply.Content) == "" {
				return Empty(), nil
			}
			return Text(reply.Content), nil
		}

		reply.Role = llm.RoleAssistant
		messages = append(messages, reply)
		for _, call := range reply.ToolCalls {
			observation, err := e.runTool(ctx, call)
			if err != nil {
				return Result{}, fmt.Errorf("tool %s: %w", call.Name, err)
			}
			e.logf(runID, "tool %s returned %d bytes", call.Name, len(observation))
			messages = append(messages, llm.Message{
				Role:       llm.RoleTool,
				Name:       call.Name,
				ToolCallID: call.ID,
				Content:    observation,
			})
		}
	}
	return Result{}, ErrIterationLimit
}

func (e *Executor) runTool(ctx context.Context, call llm.ToolCall) (string, error) {
	tool, err := e.registry.Lookup(call.Name)
	if err != nil {
		return fmt.Sprintf("%s is not a valid tool, try one of [%s].", call.Name, strings.Join(e.registry.Names(), ", ")), nil
	}
	return tool.Run(ctx, toolInput(call.Arguments))
}

// toolInput pulls the single string argument out of a tool call. Models
// sometimes send a bare string or a differently named key.
func toolInput(arguments string) string {
	trimmed := strings.TrimSpace(arguments)
	var args map[string]any
	if err := json.Unmarshal([]byte(trimmed), &args); err != nil {
		var bare string
		if json.Unmarshal([]byte(trimmed), &bare) == nil {
			return bare
		}
		return trimmed
	}
	for _, key := range []string{"query", "__arg1", "input"} {
		if value, ok := args[key].(string); ok {
			return value
		}
	}
	if len(args) == 1 {
		for _, value := range args {
			if text, ok := value.(string); ok {
				return text
			}
		}
	}
	return trimmed
}

func (e *Executor) logf(runID string, format string, args ...any) {
	if !e.verbose {
		return
	}
	log.Printf("agent run %s: "+format, append([]any{runID}, args...)...)
}
