package embedder

import "context"

// Embedder converts text to vectors.
type Embedder interface {
	// Embed converts texts to vectors, one per input, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the vector dimensionality (0 if not yet known).
	Dimensions() int

	// Name identifies the embedder and its model.
	Name() string
}

// Trainer is implemented by embedders that must see the corpus before they
// can embed, such as TF-IDF.
type Trainer interface {
	Train(documents []string) error
	Trained() bool
}
