package embedding

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"pagechat/internal/config"
	"pagechat/vecgo/embedder"
	"pagechat/vecgo/storage"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New builds the embedder selected by cfg.Provider. When cfg.CachePath is
// set the embedder is wrapped with a SQLite-backed cache; the returned
// Closer releases it.
func New(cfg config.EmbeddingConfig, logger *log.Logger) (embedder.Embedder, io.Closer, error) {
	if logger == nil {
		logger = log.Default()
	}

	var base embedder.Embedder
	switch cfg.Provider {
	case "openai":
		e, err := NewOpenAIEmbedder(OpenAIConfig{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			MaxRetries: cfg.MaxRetries,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		base = e
	case "ollama":
		e, err := NewOllamaEmbedder(cfg.BaseURL, cfg.Model, cfg.MaxRetries, 0, logger)
		if err != nil {
			return nil, nil, err
		}
		base = e
	case "tfidf":
		dims := cfg.Dimensions
		if dims <= 0 {
			dims = 4096
		}
		base = embedder.NewTFIDF(dims)
	default:
		return nil, nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}

	// TF-IDF vectors depend on the training corpus and are never cached.
	if cfg.CachePath == "" || cfg.Provider == "tfidf" {
		return base, nopCloser{}, nil
	}

	cache, err := storage.NewSQLiteCache(cfg.CachePath)
	if err != nil {
		return nil, nil, fmt.Errorf("open embedding cache: %w", err)
	}
	cached := embedder.NewCached(base, cache)
	cached.OnCacheError = func(err error) {
		logger.Warn("embedding cache unavailable", "path", cfg.CachePath, "err", err)
	}
	logger.Debug("embedding cache enabled", "path", cfg.CachePath)

	return cached, cache, nil
}
