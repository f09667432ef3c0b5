package embedding

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	openai "github.com/sashabaranov/go-openai"

	"pagechat/internal/ai"
	"pagechat/vecgo/embedder"
)

// Compile-time interface check.
var _ embedder.Embedder = (*OpenAIEmbedder)(nil)

const defaultOpenAIModel = "text-embedding-3-large"

// knownDimensions are the native output sizes of OpenAI embedding models.
var knownDimensions = map[string]int{
	"text-embedding-3-large": 3072,
	"text-embedding-3-small": 1536,
	"text-embedding-ada-002": 1536,
}

// OpenAIConfig configures an OpenAIEmbedder.
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int // 0 keeps the model's native size
	MaxRetries int
	Timeout    time.Duration
}

// OpenAIEmbedder implements embedder.Embedder using the OpenAI embeddings API.
type OpenAIEmbedder struct {
	client     *openai.Client
	model      string
	dimensions int // requested size, 0 for native
	retry      ai.RetryPolicy
	logger     *log.Logger
}

// NewOpenAIEmbedder creates a new OpenAI embedding provider.
func NewOpenAIEmbedder(cfg OpenAIConfig, logger *log.Logger) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" && cfg.BaseURL == "" {
		return nil, fmt.Errorf("API key is required for OpenAI embeddings")
	}
	if cfg.Model == "" {
		cfg.Model = defaultOpenAIModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = log.Default()
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &OpenAIEmbedder{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		retry:      ai.DefaultRetryPolicy(cfg.MaxRetries),
		logger:     logger,
	}, nil
}

// Name identifies the model and, when one was requested, the output size.
// Cached vectors are keyed by it.
func (o *OpenAIEmbedder) Name() string {
	if o.dimensions > 0 {
		return fmt.Sprintf("openai:%s@%d", o.model, o.dimensions)
	}
	return "openai:" + o.model
}

// Dimensions returns the requested size, the model's native size, or 0 when
// neither is known.
func (o *OpenAIEmbedder) Dimensions() int {
	if o.dimensions > 0 {
		return o.dimensions
	}
	return knownDimensions[o.model]
}

// Embed sends texts to the embeddings API in one request. Vectors are
// returned in input order regardless of the order of the response.
func (o *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	req := openai.EmbeddingRequest{
		Input:      texts,
		Model:      openai.EmbeddingModel(o.model),
		Dimensions: o.dimensions,
	}

	var resp openai.EmbeddingResponse
	err := ai.Retry(ctx, o.retry, func() error {
		var callErr error
		resp, callErr = o.client.CreateEmbeddings(ctx, req)
		return callErr
	}, func(err error, wait time.Duration) {
		o.logger.Warn("embedding request failed, retrying", "model", o.model, "texts", len(texts), "wait", wait, "err", err)
	})
	if err != nil {
		return nil, fmt.Errorf("openai embed: %w", err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai embed: got %d embeddings for %d texts", len(resp.Data), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, fmt.Errorf("openai embed: embedding index %d out of range", d.Index)
		}
		vectors[d.Index] = d.Embedding
	}
	for i, v := range vectors {
		if v == nil {
			return nil, fmt.Errorf("openai embed: missing embedding for input %d", i)
		}
	}

	return vectors, nil
}
