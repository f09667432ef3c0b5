package vecgo

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagechat/internal/loader"
	"pagechat/vecgo"
	"pagechat/vecgo/chunker"
	"pagechat/vecgo/embedder"
)

// stubLoader serves fixed documents and counts loads.
type stubLoader struct {
	docs  []chunker.Document
	err   error
	loads int
}

func (s *stubLoader) Load(_ context.Context, url string) ([]chunker.Document, error) {
	s.loads++
	if s.err != nil {
		return nil, s.err
	}
	return s.docs, nil
}

func newTestService(t *testing.T, l loader.Loader) *Service {
	t.Helper()
	cfg := DefaultConfig()
	cfg.ChunkSize = 200
	cfg.ChunkOverlap = 40
	cfg.Embedder = embedder.NewTFIDF(1024)

	svc, err := NewService(cfg, l, log.New(io.Discard))
	require.NoError(t, err)
	return svc
}

func blogDocs() []chunker.Document {
	text := strings.Join([]string{
		"LLM Powered Autonomous Agents",
		"Agent = LLM + Memory + Planning + Tools",
		"Planning: the agent breaks down large tasks into smaller subgoals and reflects on past actions.",
		"Memory: short-term memory is in-context learning while long-term memory uses an external vector store.",
		"Tool use: the agent calls external APIs for extra information missing from the model weights.",
	}, "\n\n")
	return []chunker.Document{{ID: "https://example.com/agents", Content: text, Metadata: map[string]string{"source": "https://example.com/agents"}}}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 1000, cfg.ChunkSize)
	assert.Equal(t, 200, cfg.ChunkOverlap)
	assert.Equal(t, vecgo.DefaultBatchSize, cfg.BatchSize)
	assert.Nil(t, cfg.Embedder)
}

func TestNewService_RequiresEmbedder(t *testing.T) {
	_, err := NewService(DefaultConfig(), &stubLoader{}, nil)
	assert.Error(t, err)
}

func TestIngestAndSearch(t *testing.T) {
	svc := newTestService(t, &stubLoader{docs: blogDocs()})
	ctx := context.Background()

	res, err := svc.Ingest(ctx, "https://example.com/agents")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Documents)
	assert.Greater(t, res.Chunks, 1)
	assert.Equal(t, res.Chunks, svc.Len())

	results, err := svc.Search(ctx, "What is the agent formula with memory planning and tools?", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	found := false
	for _, r := range results {
		if strings.Contains(r.Content, "Agent = LLM + Memory + Planning + Tools") {
			found = true
		}
		assert.Equal(t, "https://example.com/agents", r.Metadata["source"])
	}
	assert.True(t, found, "expected the agent definition among the top 2 results")
}

func TestIngest_SkipsRepeatedURL(t *testing.T) {
	l := &stubLoader{docs: blogDocs()}
	svc := newTestService(t, l)
	ctx := context.Background()

	first, err := svc.Ingest(ctx, "https://example.com/agents")
	require.NoError(t, err)

	second, err := svc.Ingest(ctx, "https://example.com/agents")
	require.NoError(t, err)
	assert.True(t, second.Skipped)
	assert.Equal(t, 1, l.loads)
	assert.Equal(t, first.Chunks, svc.Len())
}

func TestIngest_LoaderError(t *testing.T) {
	fetchErr := &loader.FetchError{URL: "https://example.com", StatusCode: 500, Err: errors.New("down")}
	svc := newTestService(t, &stubLoader{err: fetchErr})

	_, err := svc.Ingest(context.Background(), "https://example.com")

	var target *loader.FetchError
	assert.ErrorAs(t, err, &target)
	assert.Zero(t, svc.Len())
}

func TestSearch_InvalidArguments(t *testing.T) {
	svc := newTestService(t, &stubLoader{docs: blogDocs()})
	ctx := context.Background()

	_, err := svc.Search(ctx, "", 4)
	assert.ErrorIs(t, err, vecgo.ErrEmptyQuery)

	_, err = svc.Search(ctx, "agents", 0)
	assert.ErrorIs(t, err, vecgo.ErrInvalidK)
}
