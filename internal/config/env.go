package config

import (
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables consulted after the config file.
const (
	EnvChatModel      = "CHAT_MODEL"
	EnvEmbeddingModel = "EMBEDDING_MODEL"
	EnvURL            = "PAGECHAT_URL"
	EnvOpenAIKey      = "OPENAI_API_KEY"
	EnvOpenAIBaseURL  = "OPENAI_BASE_URL"
	EnvOllamaHost     = "OLLAMA_HOST"
	EnvFile           = "PAGECHAT_ENV_FILE"
)

// LoadEnv loads KEY=VALUE .env files into the environment. Existing
// environment variables are never overridden. If PAGECHAT_ENV_FILE is set
// only that file is read; otherwise ./.env is read when present.
func LoadEnv() error {
	path := ".env"
	if override := os.Getenv(EnvFile); override != "" {
		path = override
	}

	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// applyEnvOverrides copies explicit environment settings over the file.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(EnvChatModel); v != "" {
		provider, model := SplitModel(v)
		if provider != "" {
			c.Chat.Provider = provider
		}
		c.Chat.Model = model
	}
	if v := os.Getenv(EnvEmbeddingModel); v != "" {
		provider, model := SplitModel(v)
		if provider != "" {
			c.Embedding.Provider = provider
		}
		c.Embedding.Model = model
	}
	if v := os.Getenv(EnvURL); v != "" {
		c.Source.URL = v
	}

	if v := os.Getenv(EnvOpenAIKey); v != "" {
		if c.Chat.APIKey == "" {
			c.Chat.APIKey = v
		}
		if c.Embedding.APIKey == "" {
			c.Embedding.APIKey = v
		}
	}
	if v := os.Getenv(EnvOpenAIBaseURL); v != "" {
		if c.Chat.Provider == "openai" && c.Chat.BaseURL == "" {
			c.Chat.BaseURL = v
		}
		if c.Embedding.Provider == "openai" && c.Embedding.BaseURL == "" {
			c.Embedding.BaseURL = v
		}
	}
	if v := os.Getenv(EnvOllamaHost); v != "" {
		if c.Chat.Provider == "ollama" && c.Chat.BaseURL == "" {
			c.Chat.BaseURL = v
		}
		if c.Embedding.Provider == "ollama" && c.Embedding.BaseURL == "" {
			c.Embedding.BaseURL = v
		}
	}
}

// SplitModel splits "provider:model" when provider is a known backend.
// Any other value, including model tags such as "llama3:8b", is returned
// unchanged as the model with an empty provider.
func SplitModel(s string) (provider, model string) {
	prefix, rest, ok := strings.Cut(s, ":")
	if ok && rest != "" {
		switch prefix {
		case "openai", "ollama":
			return prefix, rest
		}
	}
	return "", s
}
