package llm

import (
	"fmt"
	"strings"
)

// SupportedProviders lists the provider names NewProvider accepts.
var SupportedProviders = []string{"groq", "openai", "openrouter"}

type ErrUnsupportedProvider struct {
	Provider string
}

func (e ErrUnsupportedProvider) Error() string {
	return fmt.Sprintf("unsupported LLM provider %q (supported: %s)", e.Provider, strings.Join(SupportedProviders, ", "))
}
