// Package vecgo connects the page loader to the in-memory semantic index.
package vecgo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"pagechat/internal/loader"
	"pagechat/vecgo"
	"pagechat/vecgo/chunker"
	"pagechat/vecgo/embedder"
)

// Config holds configuration for the ingestion service.
type Config struct {
	ChunkSize    int
	ChunkOverlap int
	BatchSize    int
	Embedder     embedder.Embedder // required
}

// DefaultConfig returns the default splitter and batching settings.
func DefaultConfig() Config {
	return Config{
		ChunkSize:    chunker.DefaultChunkSize,
		ChunkOverlap: chunker.DefaultChunkOverlap,
		BatchSize:    vecgo.DefaultBatchSize,
	}
}

// IngestResult summarises one ingestion.
type IngestResult struct {
	URL       string
	Documents int
	Chunks    int
	Skipped   bool // URL was already ingested
	Duration  time.Duration
}

// Service owns the semantic index and fills it from web pages.
type Service struct {
	index  *vecgo.Index
	loader loader.Loader
	split  chunker.Chunker
	logger *log.Logger

	mu       sync.Mutex
	ingested map[string]bool
}

// NewService creates the index and the service around it.
func NewService(cfg Config, l loader.Loader, logger *log.Logger) (*Service, error) {
	if cfg.Embedder == nil {
		return nil, fmt.Errorf("vecgo: an embedder is required")
	}
	def := DefaultConfig()
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = def.ChunkSize
	}
	if cfg.ChunkOverlap < 0 {
		cfg.ChunkOverlap = def.ChunkOverlap
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if logger == nil {
		logger = log.Default()
	}

	split := chunker.NewRecursive(cfg.ChunkSize, cfg.ChunkOverlap)
	index, err := vecgo.NewBuilder().
		WithChunker(split).
		WithEmbedder(cfg.Embedder).
		WithBatchSize(cfg.BatchSize).
		Build()
	if err != nil {
		return nil, fmt.Errorf("vecgo: build index: %w", err)
	}

	return &Service{
		index:    index,
		loader:   l,
		split:    split,
		logger:   logger,
		ingested: make(map[string]bool),
	}, nil
}

// Ingest loads url, splits it and indexes the chunks. A URL this service
// has already ingested is skipped.
func (s *Service) Ingest(ctx context.Context, url string) (*IngestResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	if s.ingested[url] {
		s.logger.Debug("page already ingested", "url", url)
		return &IngestResult{URL: url, Skipped: true}, nil
	}

	docs, err := s.loader.Load(ctx, url)
	if err != nil {
		return nil, err
	}

	chunks := chunker.Collect(chunker.SplitDocuments(s.split, docs))
	if err := s.index.Add(ctx, chunks); err != nil {
		return nil, fmt.Errorf("vecgo: index %s: %w", url, err)
	}
	s.ingested[url] = true

	res := &IngestResult{
		URL:       url,
		Documents: len(docs),
		Chunks:    len(chunks),
		Duration:  time.Since(start),
	}
	s.logger.Info("page ingested", "url", url, "chunks", res.Chunks, "embedder", s.index.Embedder().Name(), "elapsed", res.Duration)
	return res, nil
}

// Search returns the k chunks most similar to query.
func (s *Service) Search(ctx context.Context, query string, k int) ([]vecgo.Result, error) {
	results, err := s.index.Search(ctx, query, k)
	if err != nil {
		return nil, fmt.Errorf("vecgo: search: %w", err)
	}
	return results, nil
}

// Len returns the number of indexed chunks.
func (s *Service) Len() int {
	return s.index.Len()
}
