package vecgo

import (
	"context"
	"errors"
	"sync"
	"testing"

	"pagechat/vecgo/chunker"
	"pagechat/vecgo/embedder"
)

// fakeEmbedder maps each text to a fixed vector and records call sizes.
type fakeEmbedder struct {
	vectors map[string][]float32
	calls   []int
	err     error
	mu      sync.Mutex
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, len(texts))
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, ok := f.vectors[t]
		if !ok {
			v = []float32{0, 0, 1}
		}
		out[i] = v
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int { return 3 }
func (f *fakeEmbedder) Name() string    { return "fake" }

func chunksOf(texts ...string) []chunker.Chunk {
	out := make([]chunker.Chunk, len(texts))
	for i, t := range texts {
		out[i] = chunker.Chunk{ID: t, Content: t, Index: i}
	}
	return out
}

func TestQuick(t *testing.T) {
	idx, err := Quick()
	if err != nil {
		t.Fatalf("Quick() failed: %v", err)
	}

	ctx := context.Background()
	err = idx.AddDocuments(ctx, []Document{
		{ID: "doc1", Content: "The quick brown fox jumps over the lazy dog"},
		{ID: "doc2", Content: "A cooking recipe for pasta with tomato sauce"},
	})
	if err != nil {
		t.Fatalf("AddDocuments failed: %v", err)
	}

	results, err := idx.Search(ctx, "quick fox", 2)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Metadata["doc_id"] != "doc1" {
		t.Errorf("expected doc1 first, got %v", results[0].Metadata)
	}
}

func TestBuild_RequiresEmbedder(t *testing.T) {
	if _, err := NewBuilder().Build(); !errors.Is(err, ErrNoEmbedder) {
		t.Errorf("expected ErrNoEmbedder, got %v", err)
	}
}

func TestIndex_Batching(t *testing.T) {
	emb := &fakeEmbedder{}
	idx, _ := NewBuilder().WithEmbedder(emb).WithBatchSize(2).Build()

	if err := idx.Add(context.Background(), chunksOf("a", "b", "c", "d", "e")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	want := []int{2, 2, 1}
	if len(emb.calls) != len(want) {
		t.Fatalf("expected %d embedding calls, got %v", len(want), emb.calls)
	}
	for i := range want {
		if emb.calls[i] != want[i] {
			t.Errorf("call %d embedded %d texts, want %d", i, emb.calls[i], want[i])
		}
	}
	if idx.Len() != 5 {
		t.Errorf("expected 5 entries, got %d", idx.Len())
	}
}

func TestIndex_SearchRanking(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float32{
		"cats":   {1, 0, 0},
		"dogs":   {0, 1, 0},
		"kitten": {0.9, 0.1, 0},
		"query":  {1, 0, 0},
	}}
	idx, _ := NewBuilder().WithEmbedder(emb).Build()
	ctx := context.Background()
	idx.Add(ctx, chunksOf("dogs", "kitten", "cats"))

	results, err := idx.Search(ctx, "query", 2)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 2 || results[0].Content != "cats" || results[1].Content != "kitten" {
		t.Errorf("unexpected ranking: %+v", results)
	}

	again, _ := idx.Search(ctx, "query", 2)
	for i := range results {
		if results[i].ID != again[i].ID {
			t.Error("repeated search returned a different ranking")
		}
	}
}

func TestIndex_SearchReturnsMinKLen(t *testing.T) {
	idx, _ := NewBuilder().WithEmbedder(&fakeEmbedder{}).Build()
	ctx := context.Background()
	idx.Add(ctx, chunksOf("a", "b"))

	results, err := idx.Search(ctx, "anything", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 results, got %d", len(results))
	}
}

func TestIndex_DuplicatesOnReAdd(t *testing.T) {
	idx, _ := NewBuilder().WithEmbedder(&fakeEmbedder{}).Build()
	ctx := context.Background()
	idx.Add(ctx, chunksOf("same"))
	idx.Add(ctx, chunksOf("same"))

	if idx.Len() != 2 {
		t.Errorf("expected duplicate entries, got %d", idx.Len())
	}
}

func TestIndex_SearchArguments(t *testing.T) {
	idx, _ := NewBuilder().WithEmbedder(&fakeEmbedder{}).Build()
	ctx := context.Background()

	if _, err := idx.Search(ctx, "  ", 3); !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("expected ErrEmptyQuery, got %v", err)
	}
	if _, err := idx.Search(ctx, "q", 0); !errors.Is(err, ErrInvalidK) {
		t.Errorf("expected ErrInvalidK, got %v", err)
	}
}

func TestIndex_EmptySearchSkipsEmbedder(t *testing.T) {
	emb := &fakeEmbedder{}
	idx, _ := NewBuilder().WithEmbedder(emb).Build()

	results, err := idx.Search(context.Background(), "q", 3)
	if err != nil || len(results) != 0 {
		t.Errorf("expected no results, got %v, %v", results, err)
	}
	if len(emb.calls) != 0 {
		t.Errorf("expected no embedding calls, got %d", len(emb.calls))
	}
}

func TestIndex_EmbeddingFailure(t *testing.T) {
	boom := errors.New("boom")
	emb := &fakeEmbedder{err: boom}
	idx, _ := NewBuilder().WithEmbedder(emb).Build()
	ctx := context.Background()

	err := idx.Add(ctx, chunksOf("a", "b"))
	var svcErr *EmbeddingServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("expected EmbeddingServiceError, got %v", err)
	}
	if svcErr.Op != "add" || !errors.Is(err, boom) {
		t.Errorf("unexpected error: %v", err)
	}
	if idx.Len() != 0 {
		t.Errorf("failed add must store nothing, len=%d", idx.Len())
	}
}

func TestIndex_TrainsOnce(t *testing.T) {
	tfidf := embedder.NewTFIDF(100)
	idx, _ := NewBuilder().WithEmbedder(tfidf).Build()
	ctx := context.Background()

	if err := idx.Add(ctx, chunksOf("alpha beta", "gamma delta")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	dims := tfidf.Dimensions()

	if err := idx.Add(ctx, chunksOf("epsilon zeta eta theta")); err != nil {
		t.Fatalf("second Add failed: %v", err)
	}
	if tfidf.Dimensions() != dims {
		t.Errorf("vocabulary changed after first add: %d -> %d", dims, tfidf.Dimensions())
	}
}

func TestIndex_ConcurrentSearch(t *testing.T) {
	idx, _ := Quick()
	ctx := context.Background()
	idx.AddDocuments(ctx, []Document{{ID: "d", Content: "agents use memory and planning"}})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := idx.Search(ctx, "memory", 1); err != nil {
				t.Errorf("Search failed: %v", err)
			}
		}()
	}
	wg.Wait()
}
