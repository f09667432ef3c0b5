package embedding

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ollama/ollama/api"

	"pagechat/internal/ai"
	"pagechat/vecgo/embedder"
)

// Compile-time interface check.
var _ embedder.Embedder = (*OllamaEmbedder)(nil)

const defaultOllamaModel = "nomic-embed-text"

// OllamaEmbedder implements embedder.Embedder using Ollama's batch embed
// endpoint.
type OllamaEmbedder struct {
	client *api.Client
	model  string
	dims   atomic.Int64 // learned from the first response
	retry  ai.RetryPolicy
	logger *log.Logger
}

// NewOllamaEmbedder creates an embedder for model served at baseURL.
func NewOllamaEmbedder(baseURL, model string, maxRetries int, timeout time.Duration, logger *log.Logger) (*OllamaEmbedder, error) {
	client, err := ai.NewOllamaClient(baseURL, timeout)
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = defaultOllamaModel
	}
	if logger == nil {
		logger = log.Default()
	}
	return &OllamaEmbedder{
		client: client,
		model:  model,
		retry:  ai.DefaultRetryPolicy(maxRetries),
		logger: logger,
	}, nil
}

func (o *OllamaEmbedder) Name() string { return "ollama:" + o.model }

// Dimensions returns the vector size seen so far, or 0 before the first call.
func (o *OllamaEmbedder) Dimensions() int { return int(o.dims.Load()) }

// Embed embeds texts with one /api/embed request.
func (o *OllamaEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var resp *api.EmbedResponse
	err := ai.Retry(ctx, o.retry, func() error {
		var callErr error
		resp, callErr = o.client.Embed(ctx, &api.EmbedRequest{Model: o.model, Input: texts})
		return callErr
	}, func(err error, wait time.Duration) {
		o.logger.Warn("embedding request failed, retrying", "model", o.model, "texts", len(texts), "wait", wait, "err", err)
	})
	if err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}

	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama embed: got %d embeddings for %d texts", len(resp.Embeddings), len(texts))
	}
	if len(resp.Embeddings[0]) > 0 {
		o.dims.Store(int64(len(resp.Embeddings[0])))
	}

	return resp.Embeddings, nil
}
