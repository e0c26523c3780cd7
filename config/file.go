package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"
)

// FileConfig is the optional YAML configuration file. Credentials are only
// read from the environment and have no place here.
type FileConfig struct {
	Server struct {
		Port         string `yaml:"port"`
		ReadTimeout  string `yaml:"read_timeout"`
		WriteTimeout string `yaml:"write_timeout"`
		IdleTimeout  string `yaml:"idle_timeout"`
	} `yaml:"server"`
	OpenAI struct {
		BaseURL        string `yaml:"base_url"`
		EmbeddingModel string `yaml:"embedding_model"`
		ChatModel      string `yaml:"chat_model"`
	} `yaml:"openai"`
	Upstash struct {
		URL     string `yaml:"url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"upstash"`
	RAG struct {
		ContextCharLimit   *int     `yaml:"context_char_limit"`
		TopK               *int     `yaml:"top_k"`
		FakeMode           *bool    `yaml:"fake_mode"`
		DirectiveKeyword   string   `yaml:"directive_keyword"`
		EffectNamespaces   []string `yaml:"effect_namespaces"`
		EffectNamespaceMax *int     `yaml:"effect_namespace_max"`
		FanoutConcurrency  *int     `yaml:"fanout_concurrency"`
	} `yaml:"rag"`
	Catalog struct {
		Source string `yaml:"source"`
		Path   string `yaml:"path"`
	} `yaml:"catalog"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
	Metrics struct {
		Enabled  *bool  `yaml:"enabled"`
		Endpoint string `yaml:"endpoint"`
	} `yaml:"metrics"`
}

// LoadFile reads and parses a YAML configuration file
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var file FileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &file, nil
}

// envDefaults flattens the file into the environment keys it provides defaults for
func (f *FileConfig) envDefaults() map[string]string {
	values := map[string]string{
		"SERVER_PORT":                f.Server.Port,
		"SERVER_READ_TIMEOUT":        f.Server.ReadTimeout,
		"SERVER_WRITE_TIMEOUT":       f.Server.WriteTimeout,
		"SERVER_IDLE_TIMEOUT":        f.Server.IdleTimeout,
		"OPENAI_BASE_URL":            f.OpenAI.BaseURL,
		"OPENAI_EMBEDDING_MODEL":     f.OpenAI.EmbeddingModel,
		"OPENAI_CHAT_MODEL":          f.OpenAI.ChatModel,
		"UPSTASH_VECTOR_URL":         f.Upstash.URL,
		"UPSTASH_VECTOR_TIMEOUT":     f.Upstash.Timeout,
		"EFFECT_NAMESPACE_DIRECTIVE": f.RAG.DirectiveKeyword,
		"EFFECT_NAMESPACE_LIST":      strings.Join(f.RAG.EffectNamespaces, ","),
		"CARD_SOURCE":                f.Catalog.Source,
		"CARD_DATA_PATH":             f.Catalog.Path,
		"LOG_LEVEL":                  f.Logging.Level,
		"LOG_FORMAT":                 f.Logging.Format,
		"METRICS_ENDPOINT":           f.Metrics.Endpoint,
	}

	setInt := func(key string, value *int) {
		if value != nil {
			values[key] = strconv.Itoa(*value)
		}
	}
	setBool := func(key string, value *bool) {
		if value != nil {
			values[key] = strconv.FormatBool(*value)
		}
	}

	setInt("RAG_CONTEXT_CHAR_LIMIT", f.RAG.ContextCharLimit)
	setInt("RAG_TOP_K", f.RAG.TopK)
	setInt("EFFECT_NAMESPACE_MAX", f.RAG.EffectNamespaceMax)
	setInt("EFFECT_FANOUT_CONCURRENCY", f.RAG.FanoutConcurrency)
	setBool("USE_FAKE_RAG", f.RAG.FakeMode)
	setBool("METRICS_ENABLED", f.Metrics.Enabled)

	return values
}
