package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagechat/internal/config"
	"pagechat/vecgo/embedder"
)

func TestNew_Providers(t *testing.T) {
	e, closer, err := New(config.EmbeddingConfig{Provider: "tfidf"}, nil)
	require.NoError(t, err)
	defer closer.Close()
	assert.IsType(t, &embedder.TFIDF{}, e)

	e, closer, err = New(config.EmbeddingConfig{Provider: "openai", APIKey: "k", Model: "text-embedding-3-large"}, nil)
	require.NoError(t, err)
	defer closer.Close()
	assert.IsType(t, &OpenAIEmbedder{}, e)

	e, closer, err = New(config.EmbeddingConfig{Provider: "ollama", Model: "nomic-embed-text"}, nil)
	require.NoError(t, err)
	defer closer.Close()
	assert.IsType(t, &OllamaEmbedder{}, e)

	_, _, err = New(config.EmbeddingConfig{Provider: "cohere"}, nil)
	assert.Error(t, err)
}

func TestNew_Cache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "embeddings.db")
	e, closer, err := New(config.EmbeddingConfig{Provider: "openai", APIKey: "k", CachePath: path}, nil)
	require.NoError(t, err)
	defer closer.Close()

	assert.IsType(t, &embedder.Cached{}, e)
	assert.FileExists(t, path)
}

func TestNew_CacheKeyedByDimensions(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		data := make([]embedData, len(req.Input))
		for i := range req.Input {
			data[i] = embedData{Embedding: make([]float32, req.Dimensions), Index: i}
			data[i].Embedding[0] = 1
		}
		writeEmbeddings(w, data...)
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "embeddings.db")
	embed := func(dims int) []float32 {
		t.Helper()
		e, closer, err := New(config.EmbeddingConfig{
			Provider:   "openai",
			APIKey:     "k",
			BaseURL:    server.URL + "/v1",
			Model:      "text-embedding-3-small",
			Dimensions: dims,
			CachePath:  path,
		}, nil)
		require.NoError(t, err)
		defer closer.Close()

		vectors, err := e.Embed(context.Background(), []string{"Agent = LLM + Memory + Planning + Tools"})
		require.NoError(t, err)
		require.Len(t, vectors, 1)
		return vectors[0]
	}

	assert.Len(t, embed(2), 2)
	assert.Equal(t, int32(1), requests.Load())

	assert.Len(t, embed(3), 3, "a new size must not be served from vectors of the old size")
	assert.Equal(t, int32(2), requests.Load())

	assert.Len(t, embed(2), 2)
	assert.Equal(t, int32(2), requests.Load(), "the original size is still cached")
}
