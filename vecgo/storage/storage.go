package storage

// Vector is a single index entry: a chunk and its embedding.
type Vector struct {
	ID        string
	Seq       int // insertion sequence, assigned by Memory
	Embedding []float32
	Content   string
	Metadata  map[string]string
}
