// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (./config.yaml or ~/.vitaldesk/config.yaml)
//  3. Default values
//
// Absence of DATABASE_URL is a supported configuration: retrieval
// augmentation is silently disabled and chat runs un-augmented.
//
// Security: sensitive values are masked in MarshalJSON; never log the
// raw struct through fmt verbs other than %s.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrInvalidPort indicates the server port is out of range.
	ErrInvalidPort = errors.New("invalid port")

	// ErrInvalidProvider indicates the AI provider is not supported.
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrInvalidThreshold indicates the similarity threshold is out of [0,1].
	ErrInvalidThreshold = errors.New("invalid similarity threshold")

	// ErrInvalidMaxResults indicates the retrieval result cap is out of range.
	ErrInvalidMaxResults = errors.New("invalid max results")

	// ErrInvalidChunking indicates chunk size/overlap values are inconsistent.
	ErrInvalidChunking = errors.New("invalid chunking configuration")

	// ErrInvalidHistory indicates the history bounds are out of range.
	ErrInvalidHistory = errors.New("invalid history configuration")
)

// AI provider identifiers used in Config.Provider.
const (
	ProviderGemini   = "gemini"
	ProviderOpenAI   = "openai"
	ProviderOllama   = "ollama"
	ProviderGoogleAI = "googleai"
)

const (
	// DefaultEmbedderModel is the default Gemini embedder model.
	// Outputs are truncated to 768 dimensions to match the pgvector schema;
	// see knowledge.VectorDimension.
	DefaultEmbedderModel = "gemini-embedding-001"

	// DefaultMaxHistoryEntries bounds the per-session conversation window.
	DefaultMaxHistoryEntries = 50

	// DefaultMaxSessions bounds the number of concurrently tracked sessions.
	DefaultMaxSessions = 1000
)

// Config stores application configuration.
// SECURITY: sensitive fields are explicitly masked in MarshalJSON().
type Config struct {
	// HTTP server
	Port int `mapstructure:"port" json:"port"`

	// AI provider and model configuration
	Provider      string `mapstructure:"provider" json:"provider"` // "gemini" (default), "openai", "ollama"
	ModelName     string `mapstructure:"model_name" json:"model_name"`
	EmbedderModel string `mapstructure:"embedder_model" json:"embedder_model"`
	OllamaHost    string `mapstructure:"ollama_host" json:"ollama_host"`

	// Vector index connection. Empty means retrieval is disabled.
	DatabaseURL string `mapstructure:"database_url" json:"database_url"` // SENSITIVE: masked in MarshalJSON

	// Record store file path.
	DataFile string `mapstructure:"data_file" json:"data_file"`

	// Retrieval tunables
	RAGIndexName           string  `mapstructure:"rag_index_name" json:"rag_index_name"`
	RAGDocumentsPath       string  `mapstructure:"rag_documents_path" json:"rag_documents_path"`
	RAGChunkSize           int     `mapstructure:"rag_chunk_size" json:"rag_chunk_size"`
	RAGChunkOverlap        int     `mapstructure:"rag_chunk_overlap" json:"rag_chunk_overlap"`
	RAGMaxResults          int     `mapstructure:"rag_max_results" json:"rag_max_results"`
	RAGSimilarityThreshold float64 `mapstructure:"rag_similarity_threshold" json:"rag_similarity_threshold"`

	// Conversation history bounds
	MaxHistoryEntries int `mapstructure:"max_history_entries" json:"max_history_entries"`
	MaxSessions       int `mapstructure:"max_sessions" json:"max_sessions"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".vitaldesk")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath(configDir)

	setDefaults()
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is not an error; defaults apply.
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{".", configDir})
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults() {
	viper.SetDefault("port", 3400)

	viper.SetDefault("provider", ProviderGemini)
	viper.SetDefault("model_name", "gemini-2.5-flash")
	viper.SetDefault("embedder_model", DefaultEmbedderModel)
	viper.SetDefault("ollama_host", "http://localhost:11434")

	viper.SetDefault("data_file", "data/records.json")

	viper.SetDefault("rag_index_name", "fitness-docs")
	viper.SetDefault("rag_documents_path", "./documents")
	viper.SetDefault("rag_chunk_size", 1000)
	viper.SetDefault("rag_chunk_overlap", 200)
	viper.SetDefault("rag_max_results", 3)
	viper.SetDefault("rag_similarity_threshold", 0.5)

	viper.SetDefault("max_history_entries", DefaultMaxHistoryEntries)
	viper.SetDefault("max_sessions", DefaultMaxSessions)
}

// bindEnvVariables binds environment variables explicitly.
// GEMINI_API_KEY and OPENAI_API_KEY are read directly by the Genkit
// provider plugins; ModelConfigured() probes their presence.
func bindEnvVariables() {
	mustBind := func(key, envVar string) {
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("port", "PORT")
	mustBind("database_url", "DATABASE_URL")
	mustBind("data_file", "VITALDESK_DATA_FILE")
	mustBind("provider", "VITALDESK_PROVIDER")
	mustBind("model_name", "VITALDESK_MODEL_NAME")
	mustBind("embedder_model", "RAG_EMBEDDING_MODEL")
	mustBind("ollama_host", "VITALDESK_OLLAMA_HOST")
	mustBind("rag_index_name", "RAG_INDEX_NAME")
	mustBind("rag_documents_path", "RAG_DOCUMENTS_PATH")
	mustBind("rag_chunk_size", "RAG_CHUNK_SIZE")
	mustBind("rag_chunk_overlap", "RAG_CHUNK_OVERLAP")
	mustBind("rag_max_results", "RAG_MAX_RESULTS")
	mustBind("rag_similarity_threshold", "RAG_SIMILARITY_THRESHOLD")
}

// RAGEnabled reports whether the vector index is configured.
// This is the single capability check consumed by both the retriever and
// the status reporter; callers must not duplicate credential probing.
func (c *Config) RAGEnabled() bool {
	return c.DatabaseURL != ""
}

// ModelConfigured reports whether the selected provider has its credential
// available. Providers read keys from the environment directly. A missing
// credential does not stop the server; chat exchanges fail with an
// explanatory error until one is supplied.
func (c *Config) ModelConfigured() bool {
	switch c.Provider {
	case ProviderOpenAI:
		return os.Getenv("OPENAI_API_KEY") != ""
	case ProviderOllama:
		return c.OllamaHost != ""
	default:
		return os.Getenv("GEMINI_API_KEY") != ""
	}
}

// FullModelName returns the provider-qualified model name for Genkit.
// Examples: "googleai/gemini-2.5-flash", "openai/gpt-4o".
func (c *Config) FullModelName() string {
	switch c.Provider {
	case ProviderOpenAI:
		return ProviderOpenAI + "/" + c.ModelName
	case ProviderOllama:
		return ProviderOllama + "/" + c.ModelName
	default:
		return ProviderGoogleAI + "/" + c.ModelName
	}
}

const maskedValue = "████████"

// maskSecret masks a secret string for safe logging.
// Short secrets are fully masked to prevent substring matching.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with explicit sensitive field masking.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.DatabaseURL = maskSecret(a.DatabaseURL)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}
