package config

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// setEnv sets an environment variable, ignoring errors (for test setup)
func setEnv(key, value string) {
	_ = os.Setenv(key, value)
}

// unsetEnv unsets an environment variable, ignoring errors (for test cleanup)
func unsetEnv(key string) {
	_ = os.Unsetenv(key)
}

var envVars = []string{
	"LLM_PROVIDER", "LLM_BASE_URL", "LLM_API_KEY", "LLM_MODEL",
	"GEMINI_API_KEY", "gemini_key",
	"EMBEDDING_PROVIDER", "EMBEDDING_BASE_URL", "EMBEDDING_MODEL_NAME",
	"DB_PATH", "CORPUS_PATH", "QDRANT_URL", "QDRANT_COLLECTION", "QDRANT_VECTOR_SIZE",
	"API_PORT", "LOG_LEVEL", "LOG_FORMAT", "RETRIEVAL_CONFIG",
}

// isolateEnv clears every variable Load reads and moves into a directory without a .env file.
func isolateEnv(t *testing.T) {
	t.Helper()
	originalEnv := make(map[string]string)
	for _, key := range envVars {
		originalEnv[key] = os.Getenv(key)
		unsetEnv(key)
	}
	originalWd, _ := os.Getwd()
	_ = os.Chdir(t.TempDir())
	t.Cleanup(func() {
		_ = os.Chdir(originalWd)
		for key, value := range originalEnv {
			if value != "" {
				setEnv(key, value)
			} else {
				unsetEnv(key)
			}
		}
	})
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		setupEnv    func(*testing.T)
		wantErr     bool
		wantField   string
		checkConfig func(*Config) bool
	}{
		{
			name: "valid gemini config",
			setupEnv: func(t *testing.T) {
				setEnv("GEMINI_API_KEY", "key")
				setEnv("QDRANT_VECTOR_SIZE", "768")
			},
			checkConfig: func(cfg *Config) bool {
				return cfg.LLMProvider == ProviderGemini &&
					cfg.EmbeddingProvider == ProviderGemini &&
					cfg.QdrantVectorSize == 768
			},
		},
		{
			name: "legacy gemini_key variable",
			setupEnv: func(t *testing.T) {
				setEnv("gemini_key", "legacy")
				setEnv("QDRANT_VECTOR_SIZE", "768")
			},
			checkConfig: func(cfg *Config) bool {
				return cfg.GeminiAPIKey == "legacy"
			},
		},
		{
			name: "missing gemini key",
			setupEnv: func(t *testing.T) {
				setEnv("QDRANT_VECTOR_SIZE", "768")
			},
			wantErr:   true,
			wantField: "GEMINI_API_KEY",
		},
		{
			name: "openai provider needs no gemini key",
			setupEnv: func(t *testing.T) {
				setEnv("LLM_PROVIDER", "openai")
				setEnv("QDRANT_VECTOR_SIZE", "1024")
			},
			checkConfig: func(cfg *Config) bool {
				return cfg.LLMModelName == "Llama-3.1-8B-Instruct" &&
					cfg.EmbeddingProvider == ProviderOpenAI &&
					cfg.EmbeddingModelName == "granite-embedding-278m-multilingual"
			},
		},
		{
			name: "unknown provider",
			setupEnv: func(t *testing.T) {
				setEnv("LLM_PROVIDER", "cohere")
				setEnv("QDRANT_VECTOR_SIZE", "768")
			},
			wantErr:   true,
			wantField: "LLM_PROVIDER",
		},
		{
			name: "missing QDRANT_VECTOR_SIZE",
			setupEnv: func(t *testing.T) {
				setEnv("GEMINI_API_KEY", "key")
			},
			wantErr:   true,
			wantField: "QDRANT_VECTOR_SIZE",
		},
		{
			name: "invalid QDRANT_VECTOR_SIZE",
			setupEnv: func(t *testing.T) {
				setEnv("GEMINI_API_KEY", "key")
				setEnv("QDRANT_VECTOR_SIZE", "invalid")
			},
			wantErr:   true,
			wantField: "QDRANT_VECTOR_SIZE",
		},
		{
			name: "negative QDRANT_VECTOR_SIZE",
			setupEnv: func(t *testing.T) {
				setEnv("GEMINI_API_KEY", "key")
				setEnv("QDRANT_VECTOR_SIZE", "-1")
			},
			wantErr:   true,
			wantField: "QDRANT_VECTOR_SIZE",
		},
		{
			name: "invalid log level",
			setupEnv: func(t *testing.T) {
				setEnv("GEMINI_API_KEY", "key")
				setEnv("QDRANT_VECTOR_SIZE", "768")
				setEnv("LOG_LEVEL", "loud")
			},
			wantErr:   true,
			wantField: "LOG_LEVEL",
		},
		{
			name: "default values for optional fields",
			setupEnv: func(t *testing.T) {
				setEnv("GEMINI_API_KEY", "key")
				setEnv("QDRANT_VECTOR_SIZE", "768")
			},
			checkConfig: func(cfg *Config) bool {
				return cfg.LLMModelName == "gemini-2.5-flash" &&
					cfg.EmbeddingModelName == "text-embedding-004" &&
					cfg.DBPath == "./data/policy-rag.db" &&
					cfg.QdrantURL == "http://localhost:6333" &&
					cfg.QdrantCollection == "travel_insurance_clauses" &&
					cfg.APIPort == "9000" &&
					cfg.LogLevel == slog.LevelInfo &&
					cfg.LogFormat == "text" &&
					cfg.Retrieval == DefaultRetrieval()
			},
		},
		{
			name: "retrieval yaml overrides defaults",
			setupEnv: func(t *testing.T) {
				path := filepath.Join(t.TempDir(), "retrieval.yaml")
				if err := os.WriteFile(path, []byte("k: 4\nfetch_k: 20\nlambda: 0.7\nfinal_cap: 10\n"), 0644); err != nil {
					t.Fatal(err)
				}
				setEnv("GEMINI_API_KEY", "key")
				setEnv("QDRANT_VECTOR_SIZE", "768")
				setEnv("RETRIEVAL_CONFIG", path)
			},
			checkConfig: func(cfg *Config) bool {
				return cfg.Retrieval.K == 4 &&
					cfg.Retrieval.FetchK == 20 &&
					cfg.Retrieval.Lambda == 0.7 &&
					cfg.Retrieval.FinalCap == 10 &&
					cfg.Retrieval.PerQueryCap == 8
			},
		},
		{
			name: "retrieval yaml with lambda out of range",
			setupEnv: func(t *testing.T) {
				path := filepath.Join(t.TempDir(), "retrieval.yaml")
				if err := os.WriteFile(path, []byte("lambda: 1.5\n"), 0644); err != nil {
					t.Fatal(err)
				}
				setEnv("GEMINI_API_KEY", "key")
				setEnv("QDRANT_VECTOR_SIZE", "768")
				setEnv("RETRIEVAL_CONFIG", path)
			},
			wantErr:   true,
			wantField: "retrieval.lambda",
		},
		{
			name: "missing retrieval yaml",
			setupEnv: func(t *testing.T) {
				setEnv("GEMINI_API_KEY", "key")
				setEnv("QDRANT_VECTOR_SIZE", "768")
				setEnv("RETRIEVAL_CONFIG", "/nonexistent/retrieval.yaml")
			},
			wantErr:   true,
			wantField: "RETRIEVAL_CONFIG",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateEnv(t)
			tt.setupEnv(t)

			cfg, err := Load()

			if tt.wantErr {
				if err == nil {
					t.Fatalf("Load() expected error, got nil")
				}
				var cfgErr *ConfigurationError
				if !errors.As(err, &cfgErr) {
					t.Fatalf("Load() error = %T, want *ConfigurationError", err)
				}
				if cfgErr.Field != tt.wantField {
					t.Errorf("Load() error field = %q, want %q", cfgErr.Field, tt.wantField)
				}
				return
			}

			if err != nil {
				t.Fatalf("Load() unexpected error: %v", err)
			}
			if tt.checkConfig != nil && !tt.checkConfig(cfg) {
				t.Errorf("Load() config validation failed: %+v", cfg)
			}
		})
	}
}

func TestLoad_CreatesDataDirectory(t *testing.T) {
	isolateEnv(t)

	dbPath := filepath.Join(t.TempDir(), "test", "db.db")
	setEnv("GEMINI_API_KEY", "key")
	setEnv("QDRANT_VECTOR_SIZE", "768")
	setEnv("DB_PATH", dbPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if _, err := os.Stat(filepath.Dir(dbPath)); os.IsNotExist(err) {
		t.Errorf("Load() should create data directory: %v", err)
	}
	if cfg.DBPath != dbPath {
		t.Errorf("Load() DBPath = %v, want %v", cfg.DBPath, dbPath)
	}
}

func TestRetrievalValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Retrieval)
		field  string
	}{
		{name: "defaults are valid", mutate: func(r *Retrieval) {}},
		{name: "k zero", mutate: func(r *Retrieval) { r.K = 0 }, field: "retrieval.k"},
		{name: "fetch_k below k", mutate: func(r *Retrieval) { r.FetchK = 3 }, field: "retrieval.fetch_k"},
		{name: "negative lambda", mutate: func(r *Retrieval) { r.Lambda = -0.1 }, field: "retrieval.lambda"},
		{name: "zero final cap", mutate: func(r *Retrieval) { r.FinalCap = 0 }, field: "retrieval.final_cap"},
		{name: "zero concurrency", mutate: func(r *Retrieval) { r.Concurrency = 0 }, field: "retrieval.concurrency"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := DefaultRetrieval()
			tt.mutate(&r)
			err := r.Validate()
			if tt.field == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) || cfgErr.Field != tt.field {
				t.Fatalf("Validate() error = %v, want field %s", err, tt.field)
			}
		})
	}
}

func TestRequireCorpus(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "policy.txt")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{name: "directory", path: dir},
		{name: "empty", path: "", wantErr: true},
		{name: "file instead of directory", path: file, wantErr: true},
		{name: "missing", path: filepath.Join(dir, "missing"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{CorpusPath: tt.path}
			err := cfg.RequireCorpus()
			if (err != nil) != tt.wantErr {
				t.Fatalf("RequireCorpus() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetEnv(t *testing.T) {
	originalValue := os.Getenv("TEST_ENV_VAR")
	defer func() {
		if originalValue != "" {
			setEnv("TEST_ENV_VAR", originalValue)
		} else {
			unsetEnv("TEST_ENV_VAR")
		}
	}()

	tests := []struct {
		name         string
		setupEnv     func()
		key          string
		defaultValue string
		want         string
	}{
		{
			name: "env var set",
			setupEnv: func() {
				setEnv("TEST_ENV_VAR", "set-value")
			},
			key:          "TEST_ENV_VAR",
			defaultValue: "default",
			want:         "set-value",
		},
		{
			name: "env var not set",
			setupEnv: func() {
				unsetEnv("TEST_ENV_VAR")
			},
			key:          "TEST_ENV_VAR",
			defaultValue: "default",
			want:         "default",
		},
		{
			name: "empty env var uses default",
			setupEnv: func() {
				setEnv("TEST_ENV_VAR", "")
			},
			key:          "TEST_ENV_VAR",
			defaultValue: "default",
			want:         "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupEnv()
			got := getEnv(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnv(%q, %q) = %q, want %q", tt.key, tt.defaultValue, got, tt.want)
			}
		})
	}
}

func TestConfig_Providers(t *testing.T) {
	cfg := &Config{
		LLMProvider:        ProviderOpenAI,
		LLMBaseURL:         "http://llm:8080",
		LLMModelName:       "chat-model",
		LLMAPIKey:          "secret",
		EmbeddingProvider:  ProviderGemini,
		EmbeddingModelName: "text-embedding-004",
		QdrantVectorSize:   768,
		GeminiAPIKey:       "gemini-key",
	}

	p := cfg.Providers()
	if p.ChatProvider != ProviderOpenAI || p.ChatBaseURL != "http://llm:8080" || p.ChatModel != "chat-model" || p.APIKey != "secret" {
		t.Errorf("Providers() chat settings = %+v", p)
	}
	if p.EmbeddingProvider != ProviderGemini || p.EmbeddingModel != "text-embedding-004" || p.VectorSize != 768 || p.GeminiAPIKey != "gemini-key" {
		t.Errorf("Providers() embedding settings = %+v", p)
	}
}

func TestConfig_NewLogger(t *testing.T) {
	tests := []struct {
		name   string
		format string
		level  slog.Level
		want   string
	}{
		{name: "text", format: "text", level: slog.LevelInfo, want: "msg=hello"},
		{name: "json", format: "json", level: slog.LevelInfo, want: `"msg":"hello"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			cfg := &Config{LogFormat: tt.format, LogLevel: tt.level}
			logger := cfg.NewLogger(&buf)

			logger.Debug("hidden")
			logger.Info("hello")

			out := buf.String()
			if !strings.Contains(out, tt.want) {
				t.Errorf("NewLogger() output = %q, want containing %q", out, tt.want)
			}
			if strings.Contains(out, "hidden") {
				t.Errorf("NewLogger() logged below level: %q", out)
			}
		})
	}
}
