// Package diagnostics writes debug artifacts for agent runs that could not be
// turned into a research response. Artifacts are write-only.
package diagnostics

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	NoOutputPrefix   = "agent_debug_no_output"
	ParseErrorPrefix = "agent_parse_error"
)

type Recorder struct {
	dir string
	now func() time.Time
}

func NewRecorder(dir string) *Recorder {
	if dir == "" {
		dir = "."
	}
	return &Recorder{dir: dir, now: time.Now}
}

type noOutputArtifact struct {
	RawResponse string `json:"raw_response"`
}

type parseErrorArtifact struct {
	Query      string `json:"query"`
	OutputText string `json:"output_text"`
}

// RecordNoOutput stores the textual form of a result that carried no output.
func (r *Recorder) RecordNoOutput(raw string) (string, error) {
	return r.write(NoOutputPrefix, noOutputArtifact{RawResponse: raw})
}

// RecordParseError stores the query and the output text that failed to parse.
func (r *Recorder) RecordParseError(query, output string) (string, error) {
	return r.write(ParseErrorPrefix, parseErrorArtifact{Query: query, OutputText: output})
}

func (r *Recorder) write(prefix string, artifact any) (string, error) {
	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode debug artifact: %w", err)
	}
	path := filepath.Join(r.dir, fmt.Sprintf("%s_%s.json", prefix, Timestamp(r.now())))
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("write debug artifact: %w", err)
	}
	return path, nil
}

// Timestamp formats t as a filename-safe UTC ISO 8601 timestamp with microseconds.
func Timestamp(t time.Time) string {
	return strings.ReplaceAll(t.UTC().Format("2006-01-02T15:04:05.000000"), ":", "-")
}
