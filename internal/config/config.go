package config

import (
	"log"
	"os"
)

// Provider selects the answer-generation backend.
type Provider string

const (
	ProviderMock   Provider = "mock"
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
)

type Config struct {
	Port string

	// Collaborators
	Provider      Provider
	UseMockLoader bool // true = canned video + transcript, no network

	// OpenAI (answers + embeddings)
	OpenAIKey   string
	OpenAIModel string

	// Gemini / Vertex
	GCPProjectID string
	GCPLocation  string
	GeminiModel  string

	// Storage
	SessionBackend    string // "memory" or "firestore"
	TranscriptBackend string // "memory" or "postgres"
	DatabaseURL       string

	// Optional X-API-Key required on non-public routes when set.
	ServiceAPIKey string
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v == "1" || v == "true" || v == "TRUE"
}

// Load reads all env vars and builds the config.
func Load() *Config {
	cfg := &Config{
		Port: getEnv("VIDQA_PORT", "8080"),

		Provider:      Provider(getEnv("VIDQA_PROVIDER", "mock")),
		UseMockLoader: getBoolEnv("VIDQA_USE_MOCK_LOADER", true),

		OpenAIKey:   getEnv("OPENAI_API_KEY", ""),
		OpenAIModel: getEnv("VIDQA_OPENAI_MODEL", ""),

		GCPProjectID: getEnv("VIDQA_GCP_PROJECT", ""),
		GCPLocation:  getEnv("VIDQA_GCP_LOCATION", "us-central1"),
		GeminiModel:  getEnv("VIDQA_GEMINI_MODEL", "gemini-2.5-flash"),

		SessionBackend:    getEnv("VIDQA_SESSION_BACKEND", "memory"),
		TranscriptBackend: getEnv("VIDQA_TRANSCRIPT_BACKEND", "memory"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),

		ServiceAPIKey: getEnv("VIDQA_SERVICE_API_KEY", ""),
	}

	switch cfg.Provider {
	case ProviderMock, ProviderOpenAI, ProviderGemini:
	default:
		log.Fatalf("unknown VIDQA_PROVIDER %q", cfg.Provider)
	}

	if cfg.Provider == ProviderOpenAI && cfg.OpenAIKey == "" {
		log.Fatal("OPENAI_API_KEY must be set for the openai provider")
	}
	if cfg.Provider == ProviderGemini && cfg.GCPProjectID == "" {
		log.Fatal("VIDQA_GCP_PROJECT must be set for the gemini provider")
	}
	if cfg.SessionBackend == "firestore" && cfg.GCPProjectID == "" {
		log.Fatal("VIDQA_GCP_PROJECT must be set for the firestore backend")
	}
	if cfg.TranscriptBackend == "postgres" && cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL must be set for the postgres backend")
	}
	if cfg.TranscriptBackend == "postgres" && cfg.OpenAIKey == "" {
		log.Fatal("OPENAI_API_KEY must be set for the postgres backend (embeddings)")
	}

	return cfg
}
