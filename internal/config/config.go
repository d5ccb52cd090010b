package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"policy-rag/internal/llm"
)

const (
	// ProviderGemini selects the Google Gemini API for chat or embeddings.
	ProviderGemini = llm.ProviderGemini
	// ProviderOpenAI selects an OpenAI-compatible HTTP endpoint (llama.cpp, vLLM, OpenAI).
	ProviderOpenAI = llm.ProviderOpenAI
)

// ConfigurationError reports a missing or invalid setting detected at startup.
// It is fatal: callers must not start any component when Load returns it.
type ConfigurationError struct {
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error on %s: %s", e.Field, e.Message)
}

// Retrieval holds the tuning knobs of the multi-query retrieval pipeline.
// Values come from the optional YAML file named by RETRIEVAL_CONFIG.
type Retrieval struct {
	K              int     `yaml:"k"`
	FetchK         int     `yaml:"fetch_k"`
	Lambda         float64 `yaml:"lambda"`
	PerQueryCap    int     `yaml:"per_query_cap"`
	FinalCap       int     `yaml:"final_cap"`
	MaxQueries     int     `yaml:"max_queries"`
	ExpansionCount int     `yaml:"expansion_count"`
	Concurrency    int     `yaml:"concurrency"`
}

// DefaultRetrieval returns the stock retrieval settings.
func DefaultRetrieval() Retrieval {
	return Retrieval{
		K:              6,
		FetchK:         30,
		Lambda:         0.5,
		PerQueryCap:    8,
		FinalCap:       18,
		MaxQueries:     5,
		ExpansionCount: 4,
		Concurrency:    5,
	}
}

// Config holds all configuration for the application.
type Config struct {
	LLMProvider        string
	LLMBaseURL         string
	LLMModelName       string
	LLMAPIKey          string
	GeminiAPIKey       string
	EmbeddingProvider  string
	EmbeddingBaseURL   string
	EmbeddingModelName string
	DBPath             string
	CorpusPath         string
	QdrantURL          string
	QdrantCollection   string
	QdrantVectorSize   int
	APIPort            string
	LogLevel           slog.Level
	LogFormat          string
	Retrieval          Retrieval
}

// Load reads configuration from environment variables and returns a validated Config.
// If a .env file exists in the current directory or a parent directory, it is loaded first.
// Environment variables already set take precedence over .env file values.
// Every validation failure is reported as *ConfigurationError.
func Load() (*Config, error) {
	loadDotEnv()

	llmProvider := strings.ToLower(getEnv("LLM_PROVIDER", ProviderGemini))
	defaultModel := "gemini-2.5-flash"
	if llmProvider == ProviderOpenAI {
		defaultModel = "Llama-3.1-8B-Instruct"
	}
	embeddingProvider := strings.ToLower(getEnv("EMBEDDING_PROVIDER", llmProvider))
	defaultEmbeddingModel := "text-embedding-004"
	if embeddingProvider == ProviderOpenAI {
		defaultEmbeddingModel = "granite-embedding-278m-multilingual"
	}

	cfg := &Config{
		LLMProvider:        llmProvider,
		LLMBaseURL:         getEnv("LLM_BASE_URL", "http://localhost:8080"),
		LLMModelName:       getEnv("LLM_MODEL", defaultModel),
		LLMAPIKey:          getEnv("LLM_API_KEY", "dummy-key"),
		GeminiAPIKey:       getEnv("GEMINI_API_KEY", os.Getenv("gemini_key")),
		EmbeddingProvider:  embeddingProvider,
		EmbeddingBaseURL:   getEnv("EMBEDDING_BASE_URL", "http://localhost:8081"),
		EmbeddingModelName: getEnv("EMBEDDING_MODEL_NAME", defaultEmbeddingModel),
		DBPath:             getEnv("DB_PATH", "./data/policy-rag.db"),
		CorpusPath:         getEnv("CORPUS_PATH", ""),
		QdrantURL:          getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantCollection:   getEnv("QDRANT_COLLECTION", "travel_insurance_clauses"),
		APIPort:            getEnv("API_PORT", "9000"),
		LogFormat:          strings.ToLower(getEnv("LOG_FORMAT", "text")),
		Retrieval:          DefaultRetrieval(),
	}

	level, err := parseLogLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	// QDRANT_VECTOR_SIZE must match the embedding model output, which must be the same
	// model at ingestion and query time.
	vectorSizeStr := getEnv("QDRANT_VECTOR_SIZE", "")
	if vectorSizeStr == "" {
		return nil, &ConfigurationError{Field: "QDRANT_VECTOR_SIZE", Message: "is required"}
	}
	vectorSize, err := strconv.Atoi(vectorSizeStr)
	if err != nil {
		return nil, &ConfigurationError{Field: "QDRANT_VECTOR_SIZE", Message: "must be a valid integer"}
	}
	if vectorSize <= 0 {
		return nil, &ConfigurationError{Field: "QDRANT_VECTOR_SIZE", Message: "must be greater than 0"}
	}
	cfg.QdrantVectorSize = vectorSize

	if path := getEnv("RETRIEVAL_CONFIG", ""); path != "" {
		retrieval, err := LoadRetrieval(path)
		if err != nil {
			return nil, err
		}
		cfg.Retrieval = retrieval
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, &ConfigurationError{Field: "DB_PATH", Message: fmt.Sprintf("failed to create data directory: %v", err)}
	}

	return cfg, nil
}

// Validate checks provider credentials and retrieval bounds.
func (c *Config) Validate() error {
	providers := []struct{ field, value string }{
		{"LLM_PROVIDER", c.LLMProvider},
		{"EMBEDDING_PROVIDER", c.EmbeddingProvider},
	}
	for _, p := range providers {
		switch p.value {
		case ProviderGemini, ProviderOpenAI:
		default:
			return &ConfigurationError{Field: p.field, Message: fmt.Sprintf("unsupported provider %q", p.value)}
		}
	}
	if (c.LLMProvider == ProviderGemini || c.EmbeddingProvider == ProviderGemini) && c.GeminiAPIKey == "" {
		return &ConfigurationError{Field: "GEMINI_API_KEY", Message: "is required for the gemini provider"}
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return &ConfigurationError{Field: "LOG_FORMAT", Message: fmt.Sprintf("must be text or json, got %q", c.LogFormat)}
	}
	return c.Retrieval.Validate()
}

// Validate checks that the retrieval settings are usable.
func (r Retrieval) Validate() error {
	switch {
	case r.K <= 0:
		return &ConfigurationError{Field: "retrieval.k", Message: "must be greater than 0"}
	case r.FetchK < r.K:
		return &ConfigurationError{Field: "retrieval.fetch_k", Message: "must be at least k"}
	case r.Lambda < 0 || r.Lambda > 1:
		return &ConfigurationError{Field: "retrieval.lambda", Message: "must be within [0, 1]"}
	case r.PerQueryCap <= 0:
		return &ConfigurationError{Field: "retrieval.per_query_cap", Message: "must be greater than 0"}
	case r.FinalCap <= 0:
		return &ConfigurationError{Field: "retrieval.final_cap", Message: "must be greater than 0"}
	case r.MaxQueries <= 0:
		return &ConfigurationError{Field: "retrieval.max_queries", Message: "must be greater than 0"}
	case r.ExpansionCount <= 0:
		return &ConfigurationError{Field: "retrieval.expansion_count", Message: "must be greater than 0"}
	case r.Concurrency <= 0:
		return &ConfigurationError{Field: "retrieval.concurrency", Message: "must be greater than 0"}
	}
	return nil
}

// LoadRetrieval reads retrieval settings from a YAML file. Keys missing from the file
// keep their defaults.
func LoadRetrieval(path string) (Retrieval, error) {
	retrieval := DefaultRetrieval()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Retrieval{}, &ConfigurationError{Field: "RETRIEVAL_CONFIG", Message: fmt.Sprintf("file %s does not exist", path)}
		}
		return Retrieval{}, &ConfigurationError{Field: "RETRIEVAL_CONFIG", Message: err.Error()}
	}
	if err := yaml.Unmarshal(data, &retrieval); err != nil {
		return Retrieval{}, &ConfigurationError{Field: "RETRIEVAL_CONFIG", Message: fmt.Sprintf("invalid yaml: %v", err)}
	}
	return retrieval, nil
}

// RequireCorpus reports a ConfigurationError when CORPUS_PATH is unset or not a directory.
// Only ingestion needs the corpus, so Load does not enforce it.
func (c *Config) RequireCorpus() error {
	if c.CorpusPath == "" {
		return &ConfigurationError{Field: "CORPUS_PATH", Message: "is required for ingestion"}
	}
	info, err := os.Stat(c.CorpusPath)
	if err != nil {
		return &ConfigurationError{Field: "CORPUS_PATH", Message: err.Error()}
	}
	if !info.IsDir() {
		return &ConfigurationError{Field: "CORPUS_PATH", Message: "must be a directory"}
	}
	return nil
}

// Providers returns the model backend settings for llm.NewProviders.
func (c *Config) Providers() llm.Providers {
	return llm.Providers{
		ChatProvider:      c.LLMProvider,
		ChatBaseURL:       c.LLMBaseURL,
		ChatModel:         c.LLMModelName,
		APIKey:            c.LLMAPIKey,
		EmbeddingProvider: c.EmbeddingProvider,
		EmbeddingBaseURL:  c.EmbeddingBaseURL,
		EmbeddingModel:    c.EmbeddingModelName,
		VectorSize:        c.QdrantVectorSize,
		GeminiAPIKey:      c.GeminiAPIKey,
	}
}

// NewLogger builds the process logger with the configured level and format.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// loadDotEnv loads .env from the working directory, then from the nearest parent that has one.
func loadDotEnv() {
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err != nil {
		return
	}
	dir := wd
	for i := 0; i < 5; i++ { // Limit search depth
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}

func parseLogLevel(value string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return 0, &ConfigurationError{Field: "LOG_LEVEL", Message: fmt.Sprintf("invalid level %q", value)}
	}
	return level, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
