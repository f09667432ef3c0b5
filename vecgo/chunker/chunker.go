package chunker

import (
	"fmt"
	"iter"
	"strconv"
)

// Document is a unit of source text handed to a Chunker.
type Document struct {
	ID       string
	Content  string
	Metadata map[string]string
}

// Chunk represents a piece of a document.
type Chunk struct {
	ID       string
	Content  string
	Index    int // ordinal within the parent document
	Start    int // rune offset of Content in the parent document
	End      int // rune offset one past the last rune of Content
	Metadata map[string]string
}

// Chunker splits documents into indexable pieces.
type Chunker interface {
	// Chunks lazily yields the chunks of doc. Ranging over the returned
	// sequence again re-runs the split.
	Chunks(doc Document) iter.Seq[Chunk]
}

// SplitDocuments yields the chunks of every document in order.
func SplitDocuments(c Chunker, docs []Document) iter.Seq[Chunk] {
	return func(yield func(Chunk) bool) {
		for _, doc := range docs {
			for ch := range c.Chunks(doc) {
				if !yield(ch) {
					return
				}
			}
		}
	}
}

// Collect drains a chunk sequence into a slice.
func Collect(seq iter.Seq[Chunk]) []Chunk {
	var out []Chunk
	for ch := range seq {
		out = append(out, ch)
	}
	return out
}

func newChunk(doc Document, index, start, end int, content string) Chunk {
	meta := copyMeta(doc.Metadata)
	if meta == nil {
		meta = make(map[string]string, 2)
	}
	if doc.ID != "" {
		meta["doc_id"] = doc.ID
	}
	meta["chunk_index"] = strconv.Itoa(index)

	return Chunk{
		ID:       fmt.Sprintf("%s#%d", doc.ID, index),
		Content:  content,
		Index:    index,
		Start:    start,
		End:      end,
		Metadata: meta,
	}
}

func copyMeta(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	result := make(map[string]string, len(m))
	for k, v := range m {
		result[k] = v
	}
	return result
}
