package api

import (
	"context"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Keyring-Network/keyring-gavryn/research-agent/internal/agent"
	"github.com/Keyring-Network/keyring-gavryn/research-agent/internal/config"
)

type MockInvoker struct {
	mock.Mock
}

func (m *MockInvoker) Invoke(ctx context.Context, query string) (agent.Result, error) {
	args := m.Called(ctx, query)
	return args.Get(0).(agent.Result), args.Error(1)
}

type failingRecorder struct{}

func (failingRecorder) RecordNoOutput(string) (string, error) {
	return "", errors.New("disk full")
}

func (failingRecorder) RecordParseError(string, string) (string, error) {
	return "", errors.New("disk full")
}

func newTestServer(t *testing.T, invoker Invoker, recorder DebugRecorder, cfg config.Config) *httptest.Server {
	t.Helper()
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"http://localhost:3000"}
	}
	return httptest.NewServer(NewServer(invoker, recorder, cfg).Router())
}

func debugArtifacts(t *testing.T, dir string, prefix string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, prefix+"_*.json"))
	require.NoError(t, err)
	return matches
}
