package index

import "pagechat/vecgo/storage"

// SearchResult is a scored index entry.
type SearchResult struct {
	ID       string
	Score    float32 // cosine similarity, higher is closer
	Seq      int
	Content  string
	Metadata map[string]string
}

// Index provides nearest neighbor search.
type Index interface {
	// Add appends vectors to the index.
	Add(vectors []storage.Vector) error

	// Search returns up to k entries ranked by non-increasing score.
	Search(query []float32, k int) ([]SearchResult, error)

	Len() int
}
