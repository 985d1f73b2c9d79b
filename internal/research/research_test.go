package research

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const validOutput = `{"topic":"Go","summary":"A language.","sources":["https://go.dev"],"tool_used":"search","reply":"Go is a language."}`

func TestRequestValidate(t *testing.T) {
	require.NoError(t, Request{Query: "what is go"}.Validate())
	require.Error(t, Request{}.Validate())
}

func TestParse_Valid(t *testing.T) {
	resp, err := Parse(validOutput)
	require.NoError(t, err)
	require.Equal(t, Response{
		Topic:    "Go",
		Summary:  "A language.",
		Sources:  []string{"https://go.dev"},
		ToolUsed: "search",
		Reply:    "Go is a language.",
	}, resp)
}

func TestParse_AllowsEmptyValuesAndExtraKeys(t *testing.T) {
	resp, err := Parse(`{"topic":"","summary":"","sources":[],"tool_used":"","reply":"","confidence":0.9}`)
	require.NoError(t, err)
	require.Equal(t, []string{}, resp.Sources)
}

func TestParse_CodeFence(t *testing.T) {
	for _, text := range []string{
		"```json\n" + validOutput + "\n```",
		"```\n" + validOutput + "\n```",
		"\n  " + validOutput + "  \n",
	} {
		resp, err := Parse(text)
		require.NoError(t, err, text)
		require.Equal(t, "Go", resp.Topic)
	}
}

func TestParse_Failures(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		message string
	}{
		{name: "not json", text: "not valid JSON", message: "invalid character"},
		{name: "empty", text: "   ", message: "empty output"},
		{name: "missing field", text: `{"topic":"Go","summary":"s","sources":[],"reply":"r"}`, message: "tool_used"},
		{name: "null field", text: `{"topic":null,"summary":"s","sources":[],"tool_used":"t","reply":"r"}`, message: "topic"},
		{name: "wrong type", text: `{"topic":"Go","summary":"s","sources":"one","tool_used":"t","reply":"r"}`, message: "cannot unmarshal"},
		{name: "leading text", text: "Here you go: " + validOutput, message: "invalid character"},
		{name: "trailing text", text: validOutput + " hope this helps", message: "unexpected text"},
		{name: "two objects", text: validOutput + validOutput, message: "unexpected text"},
		{name: "null source", text: `{"topic":"a","summary":"b","sources":["x",null],"tool_used":"c","reply":"d"}`, message: "sources[1] is null"},
		{name: "non string source", text: `{"topic":"a","summary":"b","sources":["x",3],"tool_used":"c","reply":"d"}`, message: "cannot unmarshal"},
		{name: "array", text: `[` + validOutput + `]`, message: "cannot unmarshal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.text)
			require.Error(t, err)
			var parseErr *ParseError
			require.True(t, errors.As(err, &parseErr))
			require.NotNil(t, parseErr.Cause)
			require.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestFormatInstructions(t *testing.T) {
	instructions := FormatInstructions()
	require.Contains(t, instructions, "The output should be formatted as a JSON instance")

	start := strings.Index(instructions, "Here is the output schema:\n```\n")
	require.GreaterOrEqual(t, start, 0)
	body := instructions[start+len("Here is the output schema:\n```\n"):]
	body = strings.TrimSuffix(body, "\n```")

	var schema struct {
		Properties           map[string]any `json:"properties"`
		Required             []string       `json:"required"`
		AdditionalProperties *bool          `json:"additionalProperties"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &schema))
	require.ElementsMatch(t, []string{"topic", "summary", "sources", "tool_used", "reply"}, schema.Required)
	require.Contains(t, schema.Properties, "tool_used")
	require.NotContains(t, body, "$schema")
	if schema.AdditionalProperties != nil {
		require.True(t, *schema.AdditionalProperties)
	}
}
