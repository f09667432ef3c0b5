package ai

import (
	"fmt"

	"github.com/charmbracelet/log"

	"pagechat/internal/config"
)

// NewProvider creates the chat provider selected by cfg.Provider.
func NewProvider(cfg config.ChatConfig, logger *log.Logger) (Provider, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIProvider(cfg, logger)
	case "ollama":
		return NewOllamaProvider(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown chat provider %q", cfg.Provider)
	}
}
