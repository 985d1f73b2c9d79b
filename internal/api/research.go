package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/Keyring-Network/keyring-gavryn/research-agent/internal/agent"
	"github.com/Keyring-Network/keyring-gavryn/research-agent/internal/research"
)

const noOutputDetail = "Agent returned no parseable output. Check server logs."

type invocation struct {
	result agent.Result
	err    error
}

func (s *Server) research(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	req, err := decodeRequest(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "query is required")
		return
	}

	outcome := <-s.invoke(r.Context(), req.Query)
	if outcome.err != nil {
		log.Printf("[%s] agent invocation failed: %+v", reqID, outcome.err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Agent invocation failed: %v", outcome.err))
		return
	}

	output := agent.ExtractOutput(outcome.result)
	if !agent.HasOutput(output) {
		if path, err := s.recorder.RecordNoOutput(outcome.result.String()); err != nil {
			log.Printf("[%s] failed to persist raw agent result for debugging: %+v", reqID, err)
		} else {
			log.Printf("[%s] agent returned no output; raw result written to %s", reqID, path)
		}
		writeError(w, http.StatusBadGateway, noOutputDetail)
		return
	}

	structured, err := research.Parse(output)
	if err != nil {
		if path, recordErr := s.recorder.RecordParseError(req.Query, output); recordErr != nil {
			log.Printf("[%s] failed saving parse error debug file: %+v", reqID, recordErr)
		} else {
			log.Printf("[%s] parsing failed; output written to %s", reqID, path)
		}
		log.Printf("[%s] parser failed to parse agent output: %+v", reqID, err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to parse agent output: %v. Raw output saved for debugging.", err))
		return
	}

	log.Printf("[%s] research completed for topic %q", reqID, structured.Topic)
	writeJSONStatus(w, structured, http.StatusOK)
}

// decodeRequest reads exactly one JSON object from body.
func decodeRequest(body io.Reader) (research.Request, error) {
	var req research.Request
	decoder := json.NewDecoder(body)
	if err := decoder.Decode(&req); err != nil {
		return research.Request{}, err
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return research.Request{}, errors.New("unexpected data after JSON object")
	}
	return req, nil
}

// invoke runs the agent on its own goroutine so a panic there is reported as an
// invocation failure instead of taking down the process.
func (s *Server) invoke(ctx context.Context, query string) <-chan invocation {
	done := make(chan invocation, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- invocation{err: fmt.Errorf("agent panicked: %v", p)}
			}
		}()
		result, err := s.invoker.Invoke(ctx, query)
		done <- invocation{result: result, err: err}
	}()
	return done
}
