package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Keyring-Network/keyring-gavryn/research-agent/internal/agent"
	"github.com/Keyring-Network/keyring-gavryn/research-agent/internal/config"
)

type Server struct {
	invoker  Invoker
	recorder DebugRecorder
	cfg      config.Config
}

// Invoker runs the research agent for a single query.
type Invoker interface {
	Invoke(ctx context.Context, query string) (agent.Result, error)
}

// DebugRecorder persists artifacts for failed runs and returns the written path.
type DebugRecorder interface {
	RecordNoOutput(raw string) (string, error)
	RecordParseError(query, output string) (string, error)
}

func NewServer(invoker Invoker, recorder DebugRecorder, cfg config.Config) *Server {
	return &Server{
		invoker:  invoker,
		recorder: recorder,
		cfg:      cfg,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(quietRequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware(s.cfg.CORSAllowedOrigins))

	r.Get("/", s.root)
	r.Post("/research", s.research)

	return r
}

func quietRequestLogger(next http.Handler) http.Handler {
	logged := middleware.Logger(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if shouldSuppressRequestLog(r.Method, r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		logged.ServeHTTP(w, r)
	})
}

// Liveness probes and CORS preflights are too chatty to log.
func shouldSuppressRequestLog(method string, path string) bool {
	cleanPath := strings.TrimSpace(path)
	if method == http.MethodGet && cleanPath == "/" {
		return true
	}
	return method == http.MethodOptions
}

func corsMiddleware(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})
}

type rootResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (s *Server) root(w http.ResponseWriter, r *http.Request) {
	writeJSONStatus(w, rootResponse{Status: "ok", Message: "Research Agent API running"}, http.StatusOK)
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func writeError(w http.ResponseWriter, statusCode int, detail string) {
	writeJSONStatus(w, errorResponse{Detail: detail}, statusCode)
}

func writeJSONStatus(w http.ResponseWriter, value any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(value)
}

func (s *Server) Start(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	go func() {
		<-ctx.Done()
		_ = server.Shutdown(context.Background())
	}()
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
