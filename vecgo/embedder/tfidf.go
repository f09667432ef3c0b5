package embedder

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"
)

// ErrNotTrained is returned when embedding with an untrained TF-IDF model.
var ErrNotTrained = errors.New("tfidf: embedder not trained")

// TFIDF is a local TF-IDF text embedder. It needs no network access, which
// makes it the offline provider and the one used by tests.
type TFIDF struct {
	vocabulary map[string]int // word -> index
	idf        []float32
	maxDims    int
	trained    bool
	mu         sync.RWMutex
}

// NewTFIDF creates a new TF-IDF embedder with max vocabulary size.
func NewTFIDF(maxDims int) *TFIDF {
	if maxDims <= 0 {
		maxDims = 4096
	}
	return &TFIDF{
		vocabulary: make(map[string]int),
		maxDims:    maxDims,
	}
}

// Train builds the vocabulary from a corpus. The vocabulary keeps the
// maxDims most frequent terms; ties are broken alphabetically so the same
// corpus always yields the same vector layout.
func (t *TFIDF) Train(documents []string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	df := make(map[string]int)
	for _, doc := range documents {
		seen := make(map[string]bool)
		for _, word := range tokenize(doc) {
			if !seen[word] {
				df[word]++
				seen[word] = true
			}
		}
	}

	type wordFreq struct {
		word string
		freq int
	}
	wf := make([]wordFreq, 0, len(df))
	for w, f := range df {
		wf = append(wf, wordFreq{w, f})
	}
	sort.Slice(wf, func(i, j int) bool {
		if wf[i].freq != wf[j].freq {
			return wf[i].freq > wf[j].freq
		}
		return wf[i].word < wf[j].word
	})
	if len(wf) > t.maxDims {
		wf = wf[:t.maxDims]
	}

	t.vocabulary = make(map[string]int, len(wf))
	t.idf = make([]float32, len(wf))
	n := float64(len(documents))

	for i, w := range wf {
		t.vocabulary[w.word] = i
		// Smoothed IDF keeps terms that occur everywhere (or a one-document
		// corpus) from collapsing to zero weight.
		t.idf[i] = float32(math.Log((1+n)/(1+float64(w.freq))) + 1)
	}

	t.trained = true
	return nil
}

// Trained reports whether Train has been called.
func (t *TFIDF) Trained() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.trained
}

// Embed converts texts to L2-normalised TF-IDF vectors.
func (t *TFIDF) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	if !t.trained {
		return nil, ErrNotTrained
	}

	dims := len(t.vocabulary)
	vectors := make([][]float32, len(texts))

	for i, text := range texts {
		vec := make([]float32, dims)
		words := tokenize(text)

		tf := make(map[string]int)
		for _, w := range words {
			tf[w]++
		}

		for word, count := range tf {
			if idx, ok := t.vocabulary[word]; ok {
				tfVal := float32(count) / float32(len(words))
				vec[idx] = tfVal * t.idf[idx]
			}
		}

		var norm float32
		for _, v := range vec {
			norm += v * v
		}
		if norm > 0 {
			norm = float32(math.Sqrt(float64(norm)))
			for j := range vec {
				vec[j] /= norm
			}
		}

		vectors[i] = vec
	}

	return vectors, nil
}

// Dimensions returns the vocabulary size.
func (t *TFIDF) Dimensions() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.vocabulary)
}

// Name returns the embedder name.
func (t *TFIDF) Name() string {
	return "tfidf"
}

// tokenize splits text into lowercase words.
func tokenize(text string) []string {
	var words []string
	var word strings.Builder

	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			word.WriteRune(r)
		} else if word.Len() > 0 {
			words = append(words, word.String())
			word.Reset()
		}
	}
	if word.Len() > 0 {
		words = append(words, word.String())
	}

	return words
}
