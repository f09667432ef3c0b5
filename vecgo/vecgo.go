// Package vecgo is an in-memory semantic index: it splits documents into
// chunks, embeds them and answers nearest neighbor queries by cosine
// similarity.
package vecgo

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"pagechat/vecgo/chunker"
	"pagechat/vecgo/embedder"
	"pagechat/vecgo/index"
	"pagechat/vecgo/storage"
)

// Version of the vecgo library
const Version = "0.2.0"

// DefaultBatchSize is the number of texts sent per embedding call.
const DefaultBatchSize = 64

// Document is a unit of source text.
type Document = chunker.Document

// Result represents a search result.
type Result struct {
	ID       string
	Score    float32
	Content  string
	Metadata map[string]string
}

// Index ties a chunker, an embedder and a flat vector index together.
type Index struct {
	chunker   chunker.Chunker
	embedder  embedder.Embedder
	index     index.Index
	batchSize int

	mu sync.RWMutex
}

// Builder configures an Index.
type Builder struct {
	chunker   chunker.Chunker
	embedder  embedder.Embedder
	batchSize int
}

// NewBuilder creates a new Index builder.
func NewBuilder() *Builder {
	return &Builder{batchSize: DefaultBatchSize}
}

// WithChunker sets the chunker.
func (b *Builder) WithChunker(c chunker.Chunker) *Builder {
	b.chunker = c
	return b
}

// WithEmbedder sets the embedder.
func (b *Builder) WithEmbedder(e embedder.Embedder) *Builder {
	b.embedder = e
	return b
}

// WithBatchSize sets how many texts go into one embedding call.
func (b *Builder) WithBatchSize(n int) *Builder {
	b.batchSize = n
	return b
}

// Build creates the Index.
func (b *Builder) Build() (*Index, error) {
	if b.embedder == nil {
		return nil, ErrNoEmbedder
	}

	idx := &Index{
		chunker:   b.chunker,
		embedder:  b.embedder,
		index:     index.NewFlat(),
		batchSize: b.batchSize,
	}
	if idx.chunker == nil {
		idx.chunker = chunker.NewRecursive(chunker.DefaultChunkSize, chunker.DefaultChunkOverlap)
	}
	if idx.batchSize <= 0 {
		idx.batchSize = DefaultBatchSize
	}

	return idx, nil
}

// Quick creates an Index backed by a local TF-IDF embedder.
func Quick() (*Index, error) {
	return NewBuilder().WithEmbedder(embedder.NewTFIDF(4096)).Build()
}

// AddDocuments splits docs with the configured chunker and adds the chunks.
func (x *Index) AddDocuments(ctx context.Context, docs []Document) error {
	return x.Add(ctx, chunker.Collect(chunker.SplitDocuments(x.chunker, docs)))
}

// Add embeds chunks and appends them to the index in order. Adding the same
// chunks twice stores them twice. On failure nothing is stored.
func (x *Index) Add(ctx context.Context, chunks []chunker.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	if t, ok := x.embedder.(embedder.Trainer); ok && !t.Trained() {
		if err := t.Train(texts); err != nil {
			return WrapError("add", fmt.Errorf("training failed: %w", err))
		}
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += x.batchSize {
		end := min(start+x.batchSize, len(texts))
		batch, err := x.embedder.Embed(ctx, texts[start:end])
		if err != nil {
			return &EmbeddingServiceError{Op: "add", Embedder: x.embedder.Name(), Err: err}
		}
		if len(batch) != end-start {
			return &EmbeddingServiceError{
				Op:       "add",
				Embedder: x.embedder.Name(),
				Err:      fmt.Errorf("got %d vectors for %d texts", len(batch), end-start),
			}
		}
		vectors = append(vectors, batch...)
	}

	entries := make([]storage.Vector, len(chunks))
	for i, c := range chunks {
		entries[i] = storage.Vector{
			ID:        uuid.NewString(),
			Embedding: vectors[i],
			Content:   c.Content,
			Metadata:  c.Metadata,
		}
	}

	return WrapError("add", x.index.Add(entries))
}

// Search returns the min(k, Len()) chunks most similar to query, ordered by
// non-increasing score. Equal scores keep insertion order.
func (x *Index) Search(ctx context.Context, query string, k int) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if k <= 0 {
		return nil, ErrInvalidK
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	if x.index.Len() == 0 {
		return nil, nil
	}

	vectors, err := x.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, &EmbeddingServiceError{Op: "search", Embedder: x.embedder.Name(), Err: err}
	}
	if len(vectors) != 1 {
		return nil, &EmbeddingServiceError{
			Op:       "search",
			Embedder: x.embedder.Name(),
			Err:      fmt.Errorf("got %d vectors for 1 query", len(vectors)),
		}
	}

	hits, err := x.index.Search(vectors[0], k)
	if err != nil {
		return nil, WrapError("search", err)
	}

	out := make([]Result, len(hits))
	for i, h := range hits {
		out[i] = Result{
			ID:       h.ID,
			Score:    h.Score,
			Content:  h.Content,
			Metadata: h.Metadata,
		}
	}
	return out, nil
}

// Len returns the number of indexed chunks.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.index.Len()
}

// Embedder returns the configured embedder.
func (x *Index) Embedder() embedder.Embedder {
	return x.embedder
}
