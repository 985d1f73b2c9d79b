package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Keyring-Network/keyring-gavryn/research-agent/internal/agent"
	"github.com/Keyring-Network/keyring-gavryn/research-agent/internal/api"
	"github.com/Keyring-Network/keyring-gavryn/research-agent/internal/config"
	"github.com/Keyring-Network/keyring-gavryn/research-agent/internal/diagnostics"
	"github.com/Keyring-Network/keyring-gavryn/research-agent/internal/llm"
	"github.com/Keyring-Network/keyring-gavryn/research-agent/internal/research"
	"github.com/Keyring-Network/keyring-gavryn/research-agent/internal/tools"
)

type server interface {
	Start(ctx context.Context, addr string) error
}

var (
	loadConfig = func() (config.Config, error) {
		return config.Load(), nil
	}
	newProvider = llm.NewProvider
	newTools    = tools.Default
	newExecutor = agent.NewExecutor
	newRecorder = diagnostics.NewRecorder
	newServer   = func(invoker api.Invoker, recorder api.DebugRecorder, cfg config.Config) server {
		return api.NewServer(invoker, recorder, cfg)
	}
	notifyContext = signal.NotifyContext
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := notifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	provider, err := newProvider(llm.Config{
		Provider:         cfg.LLMProvider,
		Model:            cfg.LLMModel,
		BaseURL:          cfg.LLMBaseURL,
		GroqAPIKey:       cfg.GroqAPIKey,
		OpenAIAPIKey:     cfg.OpenAIAPIKey,
		OpenRouterAPIKey: cfg.OpenRouterAPIKey,
	})
	if err != nil {
		return err
	}

	toolset := newTools(tools.Config{
		SearchMaxResults:  cfg.SearchMaxResults,
		WikipediaTopK:     cfg.WikipediaTopK,
		WikipediaMaxChars: cfg.WikipediaMaxChars,
		WikipediaLanguage: cfg.WikipediaLanguage,
	})
	executor, err := newExecutor(agent.Config{
		Provider:      provider,
		Tools:         toolset,
		SystemPrompt:  agent.SystemPrompt(research.FormatInstructions()),
		Temperature:   cfg.LLMTemperature,
		MaxIterations: cfg.AgentMaxIterations,
		Verbose:       true,
	})
	if err != nil {
		return err
	}

	server := newServer(executor, newRecorder(cfg.DebugDir), cfg)

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("Research Agent API listening on %s (provider %s, model %s)", addr, cfg.LLMProvider, cfg.LLMModel)
	if err := server.Start(ctx, addr); err != nil {
		return err
	}

	return nil
}
