package index

import (
	"errors"
	"fmt"
	"sort"

	"pagechat/vecgo/internal/mathutil"
	"pagechat/vecgo/storage"
)

// ErrDimMismatch is returned when a vector's length differs from the index's.
var ErrDimMismatch = errors.New("index: vector dimension mismatch")

// Flat is an exact nearest neighbor index. Every search scores every entry,
// so equal scores are always ordered by insertion.
type Flat struct {
	store *storage.Memory
	dims  int
}

// NewFlat creates an empty flat index over an in-memory store.
func NewFlat() *Flat {
	return &Flat{store: storage.NewMemory()}
}

// Add appends vectors. All vectors in the index must share one dimension.
func (f *Flat) Add(vectors []storage.Vector) error {
	if len(vectors) == 0 {
		return nil
	}

	dims := f.dims
	for _, v := range vectors {
		if dims == 0 {
			dims = len(v.Embedding)
		}
		if len(v.Embedding) != dims || dims == 0 {
			return fmt.Errorf("%w: %s has %d dims, index has %d", ErrDimMismatch, v.ID, len(v.Embedding), dims)
		}
	}
	f.dims = dims

	f.store.Append(vectors)
	return nil
}

// Search returns the min(k, Len()) entries most similar to query.
func (f *Flat) Search(query []float32, k int) ([]SearchResult, error) {
	if k <= 0 || f.store.Len() == 0 {
		return nil, nil
	}
	if len(query) != f.dims {
		return nil, fmt.Errorf("%w: query has %d dims, index has %d", ErrDimMismatch, len(query), f.dims)
	}

	results := make([]SearchResult, 0, f.store.Len())
	f.store.Scan(func(v storage.Vector) bool {
		results = append(results, SearchResult{
			ID:       v.ID,
			Score:    mathutil.CosineSimilarity(query, v.Embedding),
			Seq:      v.Seq,
			Content:  v.Content,
			Metadata: v.Metadata,
		})
		return true
	})

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Len returns the number of entries.
func (f *Flat) Len() int {
	return f.store.Len()
}

// Dimensions returns the vector length of the index, or 0 when empty.
func (f *Flat) Dimensions() int {
	return f.dims
}
