// Package research defines the request and response contract of the research
// endpoint and the strict parser that turns agent text into a Response.
package research

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type Request struct {
	Query string `json:"query" validate:"required"`
}

// Validate reports a missing or empty query.
func (r Request) Validate() error {
	return validate.Struct(r)
}

type Response struct {
	Topic    string   `json:"topic" jsonschema:"title=Topic"`
	Summary  string   `json:"summary" jsonschema:"title=Summary"`
	Sources  []string `json:"sources" jsonschema:"title=Sources"`
	ToolUsed string   `json:"tool_used" jsonschema:"title=Tool Used"`
	Reply    string   `json:"reply" jsonschema:"title=Reply"`
}

// wireResponse distinguishes absent or null fields from zero values.
type wireResponse struct {
	Topic    *string   `json:"topic" validate:"required"`
	Summary  *string   `json:"summary" validate:"required"`
	Sources  *[]*string `json:"sources" validate:"required"`
	ToolUsed *string   `json:"tool_used" validate:"required"`
	Reply    *string   `json:"reply" validate:"required"`
}

type ParseError struct {
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid research response: %v", e.Cause)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Parse decodes text that must hold exactly one JSON object matching Response.
// A single surrounding Markdown code fence is tolerated; any other wrapper text is not.
func Parse(text string) (Response, error) {
	body := stripCodeFence(strings.TrimSpace(text))
	if body == "" {
		return Response{}, &ParseError{Cause: errors.New("empty output")}
	}

	decoder := json.NewDecoder(strings.NewReader(body))
	var wire wireResponse
	if err := decoder.Decode(&wire); err != nil {
		return Response{}, &ParseError{Cause: err}
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return Response{}, &ParseError{Cause: errors.New("unexpected text after JSON object")}
	}
	if err := validate.Struct(wire); err != nil {
		return Response{}, &ParseError{Cause: missingFields(err)}
	}
	sources := make([]string, 0, len(*wire.Sources))
	for i, source := range *wire.Sources {
		if source == nil {
			return Response{}, &ParseError{Cause: fmt.Errorf("sources[%d] is null", i)}
		}
		sources = append(sources, *source)
	}
	return Response{
		Topic:    *wire.Topic,
		Summary:  *wire.Summary,
		Sources:  sources,
		ToolUsed: *wire.ToolUsed,
		Reply:    *wire.Reply,
	}, nil
}

func missingFields(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}
	names := make([]string, 0, len(validationErrs))
	for _, fieldErr := range validationErrs {
		names = append(names, jsonName(fieldErr.StructField()))
	}
	return fmt.Errorf("missing required fields: %s", strings.Join(names, ", "))
}

func jsonName(field string) string {
	switch field {
	case "ToolUsed":
		return "tool_used"
	default:
		return strings.ToLower(field)
	}
}

func stripCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") || !strings.HasSuffix(text, "```") || len(text) < 6 {
		return text
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(text, "```"), "```")
	if newline := strings.IndexByte(inner, '\n'); newline >= 0 {
		lang := strings.TrimSpace(inner[:newline])
		if lang == "" || lang == "json" {
			inner = inner[newline+1:]
		}
	}
	return strings.TrimSpace(inner)
}

const formatTemplate = `The output should be formatted as a JSON instance that conforms to the JSON schema below.

As an example, for the schema {"properties": {"foo": {"title": "Foo", "description": "a list of strings", "type": "array", "items": {"type": "string"}}}, "required": ["foo"]}
the object {"foo": ["bar", "baz"]} is a well-formatted instance of the schema. The object {"properties": {"foo": ["bar", "baz"]}} is not well-formatted.

Here is the output schema:
` + "```" + `
%s
` + "```"

// FormatInstructions describes the Response schema for inclusion in a prompt.
func FormatInstructions() string {
	reflector := &jsonschema.Reflector{DoNotReference: true, AllowAdditionalProperties: true}
	schema := reflector.Reflect(&Response{})
	schema.Version = ""
	schema.ID = ""
	raw, err := json.Marshal(schema)
	if err != nil {
		panic(fmt.Sprintf("research: reflect response schema: %v", err))
	}
	return fmt.Sprintf(formatTemplate, raw)
}
