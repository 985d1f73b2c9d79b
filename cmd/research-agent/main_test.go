package main

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/Keyring-Network/keyring-gavryn/research-agent/internal/agent"
	"github.com/Keyring-Network/keyring-gavryn/research-agent/internal/api"
	"github.com/Keyring-Network/keyring-gavryn/research-agent/internal/config"
	"github.com/Keyring-Network/keyring-gavryn/research-agent/internal/llm"
)

type stubServer struct {
	err  error
	addr *string
}

func (s stubServer) Start(ctx context.Context, addr string) error {
	if s.addr != nil {
		*s.addr = addr
	}
	return s.err
}

func captureResearchAgentDeps() func() {
	origLoadConfig := loadConfig
	origNewProvider := newProvider
	origNewTools := newTools
	origNewExecutor := newExecutor
	origNewRecorder := newRecorder
	origNewServer := newServer
	origNotifyContext := notifyContext

	return func() {
		loadConfig = origLoadConfig
		newProvider = origNewProvider
		newTools = origNewTools
		newExecutor = origNewExecutor
		newRecorder = origNewRecorder
		newServer = origNewServer
		notifyContext = origNotifyContext
	}
}

func stubNotify() {
	notifyContext = func(ctx context.Context, _ ...os.Signal) (context.Context, context.CancelFunc) {
		return context.WithCancel(ctx)
	}
}

func TestRunSuccess(t *testing.T) {
	restore := captureResearchAgentDeps()
	t.Cleanup(restore)

	loadConfig = func() (config.Config, error) {
		return config.Config{
			Port:               "0",
			LLMProvider:        "groq",
			LLMModel:           "llama-3.1-8b-instant",
			AgentMaxIterations: 2,
			DebugDir:           t.TempDir(),
		}, nil
	}
	var gotPrompt string
	origExecutor := newExecutor
	newExecutor = func(cfg agent.Config) (*agent.Executor, error) {
		gotPrompt = cfg.SystemPrompt
		if len(cfg.Tools) != 2 {
			t.Fatalf("expected two tools, got %d", len(cfg.Tools))
		}
		return origExecutor(cfg)
	}
	var addr string
	newServer = func(invoker api.Invoker, recorder api.DebugRecorder, _ config.Config) server {
		if invoker == nil || recorder == nil {
			t.Fatal("expected invoker and recorder to be wired")
		}
		return stubServer{addr: &addr}
	}
	stubNotify()

	if err := run(); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if addr != ":0" {
		t.Fatalf("expected addr :0, got %q", addr)
	}
	if !strings.Contains(gotPrompt, "tool_used") {
		t.Fatalf("expected system prompt to embed the response schema, got %q", gotPrompt)
	}
}

func TestRunConfigError(t *testing.T) {
	restore := captureResearchAgentDeps()
	t.Cleanup(restore)

	loadConfig = func() (config.Config, error) {
		return config.Config{}, errors.New("bad config")
	}

	if err := run(); err == nil || err.Error() != "bad config" {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestRunUnsupportedProvider(t *testing.T) {
	restore := captureResearchAgentDeps()
	t.Cleanup(restore)

	loadConfig = func() (config.Config, error) {
		return config.Config{LLMProvider: "carrier-pigeon"}, nil
	}
	stubNotify()

	err := run()
	var unsupported llm.ErrUnsupportedProvider
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected ErrUnsupportedProvider, got %v", err)
	}
}

func TestRunServerError(t *testing.T) {
	restore := captureResearchAgentDeps()
	t.Cleanup(restore)

	loadConfig = func() (config.Config, error) {
		return config.Config{Port: "0", LLMProvider: "groq"}, nil
	}
	newServer = func(api.Invoker, api.DebugRecorder, config.Config) server {
		return stubServer{err: errors.New("address in use")}
	}
	stubNotify()

	if err := run(); err == nil || err.Error() != "address in use" {
		t.Fatalf("expected server error, got %v", err)
	}
}
