package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"pagechat/internal/version"
)

// Context policies for the grounding instruction.
const (
	PolicyReplace = "replace"
	PolicyPrepend = "prepend"
)

// Config represents the pagechat configuration
type Config struct {
	Source    SourceConfig    `yaml:"source"`
	Splitter  SplitterConfig  `yaml:"splitter"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Chat      ChatConfig      `yaml:"chat"`
	Agent     AgentConfig     `yaml:"agent"`
	Log       LogConfig       `yaml:"log"`
}

// SourceConfig describes the page to ingest.
type SourceConfig struct {
	URL       string        `yaml:"url"`
	Selectors []string      `yaml:"selectors"`
	UserAgent string        `yaml:"user_agent"`
	Timeout   time.Duration `yaml:"timeout"`
}

// SplitterConfig configures the recursive chunk splitter.
type SplitterConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

// EmbeddingConfig selects and configures the embedding backend.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"` // openai, ollama, tfidf
	Model      string `yaml:"model"`
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Dimensions int    `yaml:"dimensions"`
	BatchSize  int    `yaml:"batch_size"`
	MaxRetries int    `yaml:"max_retries"`
	// CachePath enables the SQLite embedding cache when set.
	CachePath string `yaml:"cache_path"`
}

// RetrievalConfig configures the retrieval tool.
type RetrievalConfig struct {
	K int `yaml:"k"`
}

// ChatConfig selects and configures the chat model.
type ChatConfig struct {
	Provider   string        `yaml:"provider"` // openai, ollama
	Model      string        `yaml:"model"`
	APIKey     string        `yaml:"api_key"`
	BaseURL    string        `yaml:"base_url"`
	MaxTokens  int           `yaml:"max_tokens"`
	MaxRetries int           `yaml:"max_retries"`
	Timeout    time.Duration `yaml:"timeout"`
}

// AgentConfig configures the conversational agent.
type AgentConfig struct {
	SystemPrompt      string `yaml:"system_prompt"`
	ContextPolicy     string `yaml:"context_policy"`
	MaxToolIterations int    `yaml:"max_tool_iterations"`
	Greeting          string `yaml:"greeting"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			URL:       "https://iamdipanshus.in",
			Selectors: []string{".post-content", ".post-title", ".post-header"},
			UserAgent: version.UserAgent(),
			Timeout:   30 * time.Second,
		},
		Splitter: SplitterConfig{
			ChunkSize:    1000,
			ChunkOverlap: 200,
		},
		Embedding: EmbeddingConfig{
			Provider:   "openai",
			Model:      "text-embedding-3-large",
			APIKey:     "${OPENAI_API_KEY}",
			BatchSize:  64,
			MaxRetries: 3,
		},
		Retrieval: RetrievalConfig{
			K: 4,
		},
		Chat: ChatConfig{
			Provider:   "openai",
			Model:      "gpt-4o-mini",
			APIKey:     "${OPENAI_API_KEY}",
			MaxTokens:  1024,
			MaxRetries: 3,
			Timeout:    60 * time.Second,
		},
		Agent: AgentConfig{
			SystemPrompt:      "You have access to a tool that retrieves context from the URL provided. Use the tool to help answer user queries.",
			ContextPolicy:     PolicyReplace,
			MaxToolIterations: 3,
			Greeting:          "hey, how may I help you?",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; nothing is written to disk. Environment overrides are applied
// after the file, then the result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// defaults
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.expandEnvVars()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// expandEnvVars expands ${VAR} references in secret and endpoint fields.
func (c *Config) expandEnvVars() {
	c.Source.URL = os.ExpandEnv(c.Source.URL)
	c.Embedding.APIKey = os.ExpandEnv(c.Embedding.APIKey)
	c.Embedding.BaseURL = os.ExpandEnv(c.Embedding.BaseURL)
	c.Embedding.CachePath = os.ExpandEnv(c.Embedding.CachePath)
	c.Chat.APIKey = os.ExpandEnv(c.Chat.APIKey)
	c.Chat.BaseURL = os.ExpandEnv(c.Chat.BaseURL)
}

// Validate returns the first invalid setting.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Source.URL) == "" {
		return fmt.Errorf("source.url must be set")
	}
	if len(c.Source.Selectors) == 0 {
		return fmt.Errorf("source.selectors must list at least one selector")
	}
	if c.Source.Timeout <= 0 {
		return fmt.Errorf("source.timeout must be greater than 0")
	}

	if c.Splitter.ChunkSize <= 0 {
		return fmt.Errorf("splitter.chunk_size must be greater than 0")
	}
	if c.Splitter.ChunkOverlap < 0 || c.Splitter.ChunkOverlap >= c.Splitter.ChunkSize {
		return fmt.Errorf("splitter.chunk_overlap must be in [0, chunk_size), got %d", c.Splitter.ChunkOverlap)
	}

	switch c.Embedding.Provider {
	case "openai", "ollama", "tfidf":
	default:
		return fmt.Errorf("unknown embedding.provider %q", c.Embedding.Provider)
	}
	if c.Embedding.Provider != "tfidf" && c.Embedding.Model == "" {
		return fmt.Errorf("embedding.model must be set")
	}
	if c.Embedding.BatchSize <= 0 {
		return fmt.Errorf("embedding.batch_size must be greater than 0")
	}
	if c.Embedding.MaxRetries < 0 {
		return fmt.Errorf("embedding.max_retries must not be negative")
	}

	if c.Retrieval.K <= 0 {
		return fmt.Errorf("retrieval.k must be greater than 0")
	}

	switch c.Chat.Provider {
	case "openai", "ollama":
	default:
		return fmt.Errorf("unknown chat.provider %q", c.Chat.Provider)
	}
	if c.Chat.Model == "" {
		return fmt.Errorf("chat.model must be set")
	}
	if c.Chat.MaxRetries < 0 {
		return fmt.Errorf("chat.max_retries must not be negative")
	}
	if c.Chat.Timeout <= 0 {
		return fmt.Errorf("chat.timeout must be greater than 0")
	}

	switch c.Agent.ContextPolicy {
	case PolicyReplace, PolicyPrepend:
	default:
		return fmt.Errorf("agent.context_policy must be %q or %q, got %q", PolicyReplace, PolicyPrepend, c.Agent.ContextPolicy)
	}
	if c.Agent.MaxToolIterations <= 0 {
		return fmt.Errorf("agent.max_tool_iterations must be greater than 0")
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log.level %q", c.Log.Level)
	}

	return nil
}
