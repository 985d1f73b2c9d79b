package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port               string
	LLMProvider        string
	LLMModel           string
	LLMBaseURL         string
	LLMTemperature     float64
	GroqAPIKey         string
	OpenAIAPIKey       string
	OpenRouterAPIKey   string
	AgentMaxIterations int
	CORSAllowedOrigins []string
	DebugDir           string
	SearchMaxResults   int
	WikipediaTopK      int
	WikipediaMaxChars  int
	WikipediaLanguage  string
}

func Load() Config {
	return Config{
		Port:               getEnv("PORT", "8000"),
		LLMProvider:        getEnv("LLM_PROVIDER", "groq"),
		LLMModel:           getEnv("LLM_MODEL", "llama-3.1-8b-instant"),
		LLMBaseURL:         getEnv("LLM_BASE_URL", ""),
		LLMTemperature:     getEnvFloat("LLM_TEMPERATURE", 0),
		GroqAPIKey:         getEnv("GROQ_API_KEY", ""),
		OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
		OpenRouterAPIKey:   getEnv("OPENROUTER_API_KEY", ""),
		AgentMaxIterations: getEnvInt("AGENT_MAX_ITERATIONS", 15),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		DebugDir:           getEnv("DEBUG_DIR", "."),
		SearchMaxResults:   getEnvInt("SEARCH_MAX_RESULTS", 5),
		WikipediaTopK:      getEnvInt("WIKIPEDIA_TOP_K", 1),
		WikipediaMaxChars:  getEnvInt("WIKIPEDIA_MAX_CHARS", 100),
		WikipediaLanguage:  getEnv("WIKIPEDIA_LANGUAGE", "en"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

// getEnvList splits a comma separated value, dropping blank entries.
func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	if len(items) == 0 {
		return fallback
	}
	return items
}
