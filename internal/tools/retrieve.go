package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"pagechat/vecgo"
)

// RetrieveToolName is the name the model calls the retrieval tool by.
const RetrieveToolName = "retrieve_context"

// Searcher is the read-only view of the index the retrieval tool needs.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]vecgo.Result, error)
}

// RetrieveTool returns the k indexed chunks most similar to a query. There
// is no relevance threshold: k chunks come back even if none is relevant.
type RetrieveTool struct {
	searcher Searcher
	k        int
}

// NewRetrieveTool creates a retrieval tool returning k chunks per query.
func NewRetrieveTool(searcher Searcher, k int) *RetrieveTool {
	if k <= 0 {
		k = 4
	}
	return &RetrieveTool{searcher: searcher, k: k}
}

func (t *RetrieveTool) Name() string { return RetrieveToolName }

func (t *RetrieveTool) Description() string {
	return "Retrieve passages of the loaded web page that are relevant to a query."
}

func (t *RetrieveTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "What to look for in the page",
			},
		},
		"required": []string{"query"},
	}
}

// K returns the number of chunks returned per query.
func (t *RetrieveTool) K() int { return t.k }

// Execute implements Tool. The Artifact is the []vecgo.Result list.
func (t *RetrieveTool) Execute(ctx context.Context, args map[string]any) (*Result, error) {
	query := strings.TrimSpace(getStringArg(args, "query", ""))
	if query == "" {
		return NewErrorResult("missing_parameter", "query is required"), nil
	}

	text, results, err := t.Retrieve(ctx, query)
	if err != nil {
		return nil, err
	}
	return &Result{Success: true, Content: text, Artifact: results}, nil
}

// Retrieve searches the index and serializes the hits for the model.
func (t *RetrieveTool) Retrieve(ctx context.Context, query string) (string, []vecgo.Result, error) {
	results, err := t.searcher.Search(ctx, query, t.k)
	if err != nil {
		return "", nil, fmt.Errorf("retrieve context: %w", err)
	}
	return FormatResults(results), results, nil
}

// FormatResults renders results as "(Source: {k=v, ...}, Content: text)"
// blocks separated by blank lines.
func FormatResults(results []vecgo.Result) string {
	blocks := make([]string, len(results))
	for i, r := range results {
		blocks[i] = fmt.Sprintf("(Source: %s, Content: %s)", formatMetadata(r.Metadata), r.Content)
	}
	return strings.Join(blocks, "\n\n")
}

func formatMetadata(meta map[string]string) string {
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = k + "=" + meta[k]
	}
	return "{" + strings.Join(pairs, ", ") + "}"
}
