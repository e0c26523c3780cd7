package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultDirectiveKeyword   = "効果"
	DefaultEffectNamespaceMax = 5

	CardSourceFile     = "file"
	CardSourcePostgres = "postgres"
)

// Config holds all configuration for the application
type Config struct {
	Server  ServerConfig
	OpenAI  OpenAIConfig
	Vector  VectorConfig
	RAG     RAGConfig
	Catalog CatalogConfig
	Logging LoggingConfig
	Metrics MetricsConfig

	// Warnings collects non-fatal anomalies found while loading
	Warnings []string

	fileErr error
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// OpenAIConfig holds embedding and chat completion settings
type OpenAIConfig struct {
	APIKey         string
	BaseURL        string
	EmbeddingModel string
	ChatModel      string
}

// VectorConfig holds Upstash Vector settings
type VectorConfig struct {
	URL     string
	Token   string
	Timeout time.Duration
}

// RAGConfig holds retrieval pipeline settings
type RAGConfig struct {
	ContextCharLimit  int
	TopK              int
	UseFake           bool
	DirectiveKeyword  string
	EffectNamespaces  []string
	FanoutConcurrency int
}

// CatalogConfig holds card catalog source settings
type CatalogConfig struct {
	Source      string
	Path        string
	DatabaseURL string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// MetricsConfig holds Prometheus exposition settings
type MetricsConfig struct {
	Enabled  bool
	Endpoint string
}

// LoadConfig loads configuration from environment variables. When RAG_CONFIG_FILE
// points at a YAML file its values replace the built-in defaults; environment
// variables still win.
func LoadConfig() *Config {
	l := &loader{}
	cfg := &Config{}

	if path := os.Getenv("RAG_CONFIG_FILE"); path != "" {
		file, err := LoadFile(path)
		if err != nil {
			cfg.fileErr = err
		} else {
			l.file = file.envDefaults()
		}
	}

	namespaces, warnings := resolveEffectNamespaces(
		l.getEnv("EFFECT_NAMESPACE_LIST", ""),
		l.getEnv("EFFECT_NAMESPACE_MAX", strconv.Itoa(DefaultEffectNamespaceMax)),
	)
	cfg.Warnings = append(cfg.Warnings, warnings...)

	keyword := strings.TrimSpace(l.getEnv("EFFECT_NAMESPACE_DIRECTIVE", DefaultDirectiveKeyword))
	if keyword == "" {
		keyword = DefaultDirectiveKeyword
	}

	cfg.Server = ServerConfig{
		Port:         l.getEnv("SERVER_PORT", "8000"),
		ReadTimeout:  l.getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
		WriteTimeout: l.getDurationEnv("SERVER_WRITE_TIMEOUT", 60*time.Second),
		IdleTimeout:  l.getDurationEnv("SERVER_IDLE_TIMEOUT", 120*time.Second),
	}
	cfg.OpenAI = OpenAIConfig{
		APIKey:         os.Getenv("OPENAI_API_KEY"),
		BaseURL:        l.getEnv("OPENAI_BASE_URL", ""),
		EmbeddingModel: l.getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
		ChatModel:      l.getEnv("OPENAI_CHAT_MODEL", "gpt-4o-mini"),
	}
	cfg.Vector = VectorConfig{
		URL:     l.getEnv("UPSTASH_VECTOR_URL", ""),
		Token:   os.Getenv("UPSTASH_VECTOR_TOKEN"),
		Timeout: l.getDurationEnv("UPSTASH_VECTOR_TIMEOUT", 15*time.Second),
	}
	cfg.RAG = RAGConfig{
		ContextCharLimit:  l.getIntEnv("RAG_CONTEXT_CHAR_LIMIT", 2000),
		TopK:              l.getIntEnv("RAG_TOP_K", 5),
		UseFake:           parseFlag(l.getEnv("USE_FAKE_RAG", "false")),
		DirectiveKeyword:  keyword,
		EffectNamespaces:  namespaces,
		FanoutConcurrency: l.getIntEnv("EFFECT_FANOUT_CONCURRENCY", 4),
	}
	cfg.Catalog = CatalogConfig{
		Source:      strings.ToLower(l.getEnv("CARD_SOURCE", CardSourceFile)),
		Path:        l.getEnv("CARD_DATA_PATH", "data/data.json"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
	}
	cfg.Logging = LoggingConfig{
		Level:  l.getEnv("LOG_LEVEL", "info"),
		Format: l.getEnv("LOG_FORMAT", "json"),
	}
	cfg.Metrics = MetricsConfig{
		Enabled:  l.getBoolEnv("METRICS_ENABLED", true),
		Endpoint: l.getEnv("METRICS_ENDPOINT", "/metrics"),
	}

	return cfg
}

// resolveEffectNamespaces builds the ordered fan-out namespace set. An explicit
// list wins; otherwise effect_1..effect_N is synthesized from the bound.
func resolveEffectNamespaces(list, maxRaw string) ([]string, []string) {
	if list != "" {
		var namespaces []string
		for _, token := range strings.Split(list, ",") {
			token = strings.ToLower(strings.TrimSpace(token))
			if token != "" {
				namespaces = append(namespaces, token)
			}
		}
		return namespaces, nil
	}

	var warnings []string
	maxCount, err := strconv.Atoi(strings.TrimSpace(maxRaw))
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("invalid EFFECT_NAMESPACE_MAX=%q, falling back to %d", maxRaw, DefaultEffectNamespaceMax))
		maxCount = DefaultEffectNamespaceMax
	}

	if maxCount < 1 {
		warnings = append(warnings, "EFFECT_NAMESPACE_MAX resolved to < 1, multi-namespace search disabled")
		return []string{}, warnings
	}

	namespaces := make([]string, 0, maxCount)
	for idx := 1; idx <= maxCount; idx++ {
		namespaces = append(namespaces, fmt.Sprintf("effect_%d", idx))
	}
	return namespaces, warnings
}

// parseFlag treats 1, true and yes (any case) as enabled
func parseFlag(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

type loader struct {
	file map[string]string
}

// getEnv gets environment variable with default value
func (l *loader) getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	if value, ok := l.file[key]; ok && value != "" {
		return value
	}
	return defaultValue
}

// getDurationEnv gets duration from environment variable with default value
func (l *loader) getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := l.getEnv(key, ""); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getIntEnv gets integer from environment variable with default value
func (l *loader) getIntEnv(key string, defaultValue int) int {
	if value := l.getEnv(key, ""); value != "" {
		if intValue, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getBoolEnv gets boolean from environment variable with default value
func (l *loader) getBoolEnv(key string, defaultValue bool) bool {
	if value := l.getEnv(key, ""); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// Validate validates the structural parts of the configuration. Missing API
// credentials are reported per request by the pipeline, not here.
func (c *Config) Validate() error {
	if c.fileErr != nil {
		return &ConfigError{Field: "RAG_CONFIG_FILE", Message: c.fileErr.Error()}
	}
	if c.Server.Port == "" {
		return &ConfigError{Field: "SERVER_PORT", Message: "server port is required"}
	}
	if c.RAG.TopK < 1 {
		return &ConfigError{Field: "RAG_TOP_K", Message: "top-k must be at least 1"}
	}
	if c.RAG.ContextCharLimit < 1 {
		return &ConfigError{Field: "RAG_CONTEXT_CHAR_LIMIT", Message: "context character limit must be positive"}
	}
	if c.RAG.FanoutConcurrency < 1 {
		return &ConfigError{Field: "EFFECT_FANOUT_CONCURRENCY", Message: "fan-out concurrency must be at least 1"}
	}
	switch c.Catalog.Source {
	case CardSourceFile:
	case CardSourcePostgres:
		if c.Catalog.DatabaseURL == "" {
			return &ConfigError{Field: "DATABASE_URL", Message: "database url is required when CARD_SOURCE=postgres"}
		}
	default:
		return &ConfigError{Field: "CARD_SOURCE", Message: fmt.Sprintf("unknown card source %q", c.Catalog.Source)}
	}
	return nil
}

// HasOpenAICredentials reports whether an OpenAI key is configured
func (c *Config) HasOpenAICredentials() bool {
	return c.OpenAI.APIKey != ""
}

// HasVectorCredentials reports whether the vector index is reachable with credentials
func (c *Config) HasVectorCredentials() bool {
	return c.Vector.URL != "" && c.Vector.Token != ""
}

// ConfigError represents configuration validation error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
