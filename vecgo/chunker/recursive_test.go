package chunker

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"
	"unicode/utf8"
)

func longText(paragraphs int) string {
	var b strings.Builder
	for p := 0; p < paragraphs; p++ {
		if p > 0 {
			b.WriteString("\n\n")
		}
		for s := 0; s < 6; s++ {
			if s > 0 {
				b.WriteString(" ")
			}
			fmt.Fprintf(&b, "Paragraph %d sentence %d talks about agents, memory and planning in some detail.", p, s)
		}
	}
	return b.String()
}

func TestRecursive_ShortDocumentSingleChunk(t *testing.T) {
	r := NewRecursive(1000, 200)
	text := "  Agent = LLM + Memory + Planning + Tools  "

	chunks := Collect(r.Chunks(Document{ID: "d", Content: text}))
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Content != text {
		t.Errorf("expected unchanged text, got %q", chunks[0].Content)
	}
	if chunks[0].Index != 0 || chunks[0].ID != "d#0" {
		t.Errorf("unexpected chunk identity: %+v", chunks[0])
	}
}

func TestRecursive_BlankDocument(t *testing.T) {
	r := NewRecursive(100, 10)
	if chunks := Collect(r.Chunks(Document{Content: " \n\t "})); len(chunks) != 0 {
		t.Errorf("expected no chunks, got %d", len(chunks))
	}
}

func TestRecursive_MaxSize(t *testing.T) {
	r := NewRecursive(300, 60)
	chunks := Collect(r.Chunks(Document{ID: "d", Content: longText(8)}))

	if len(chunks) < 3 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}
	for i, ch := range chunks {
		if n := utf8.RuneCountInString(ch.Content); n > 300 {
			t.Errorf("chunk %d has %d runes, max 300", i, n)
		}
		if ch.Index != i {
			t.Errorf("chunk %d has index %d", i, ch.Index)
		}
	}
}

func TestRecursive_Overlap(t *testing.T) {
	const size, overlap = 300, 60
	r := NewRecursive(size, overlap)
	text := []rune(longText(8))
	chunks := Collect(r.Chunks(Document{ID: "d", Content: string(text)}))

	for i := 0; i+1 < len(chunks); i++ {
		prev, next := chunks[i], chunks[i+1]
		shared := prev.End - next.Start
		if shared < overlap {
			t.Errorf("chunks %d/%d share %d runes, want >= %d", i, i+1, shared, overlap)
			continue
		}
		region := string(text[next.Start:prev.End])
		if !strings.HasSuffix(prev.Content, region) {
			t.Errorf("chunk %d does not end with the shared region %q", i, region)
		}
		if !strings.HasPrefix(next.Content, region) {
			t.Errorf("chunk %d does not start with the shared region %q", i+1, region)
		}
	}
}

func TestRecursive_RoundTrip(t *testing.T) {
	r := NewRecursive(250, 50)
	text := longText(6)
	chunks := Collect(r.Chunks(Document{Content: text}))

	var b strings.Builder
	b.WriteString(chunks[0].Content)
	for i := 1; i < len(chunks); i++ {
		prev, next := chunks[i-1], chunks[i]
		skip := prev.End - next.Start
		b.WriteString(string([]rune(next.Content)[skip:]))
	}

	if got, want := b.String(), strings.TrimSpace(text); got != want {
		t.Errorf("round trip mismatch:\n got: %q\nwant: %q", got, want)
	}
}

// checkProgress asserts that every chunk extends past its predecessor and
// shares at least overlap runes with it.
func checkProgress(t *testing.T, text []rune, chunks []Chunk, size, overlap int) {
	t.Helper()
	for i, ch := range chunks {
		if n := utf8.RuneCountInString(ch.Content); n > size {
			t.Errorf("size=%d overlap=%d: chunk %d has %d runes", size, overlap, i, n)
		}
		if ch.Content != string(text[ch.Start:ch.End]) {
			t.Errorf("size=%d overlap=%d: chunk %d content does not match [%d,%d)", size, overlap, i, ch.Start, ch.End)
		}
		if i == 0 {
			continue
		}
		prev := chunks[i-1]
		if ch.End <= prev.End {
			t.Errorf("size=%d overlap=%d: chunk %d [%d,%d) adds nothing after chunk %d [%d,%d)",
				size, overlap, i, ch.Start, ch.End, i-1, prev.Start, prev.End)
		}
		if shared := prev.End - ch.Start; shared < overlap {
			t.Errorf("size=%d overlap=%d: chunks %d/%d share %d runes", size, overlap, i-1, i, shared)
		}
	}
}

func TestRecursive_ParagraphBreakNearWindowEnd(t *testing.T) {
	first := strings.TrimSpace(strings.Repeat("Agents plan ahead. ", 48))
	var rest strings.Builder
	for s := 0; s < 40; s++ {
		fmt.Fprintf(&rest, "Sentence %d explains how memory and tools work together. ", s)
	}
	text := first + "\n\n" + strings.TrimSpace(rest.String())
	if n := utf8.RuneCountInString(first); n <= 800 || n >= 1000 {
		t.Fatalf("first paragraph has %d runes, want it just inside the window", n)
	}

	r := NewRecursive(1000, 200)
	chunks := Collect(r.Chunks(Document{Content: text}))
	checkProgress(t, []rune(text), chunks, 1000, 200)

	if chunks[0].End != utf8.RuneCountInString(first) {
		t.Errorf("first chunk should end on the paragraph break, ends at %d", chunks[0].End)
	}
}

func TestRecursive_WhitespaceRuns(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	gaps := []string{" ", "  ", "\n", "\n\n", "\n\n\n\n", "          ", " \n \n ", ". ", "? "}
	words := []string{"a", "agent", "memory", "planning", "tools", "reflection", "x"}

	for round := 0; round < 200; round++ {
		var b strings.Builder
		for w := rng.IntN(300) + 10; w > 0; w-- {
			b.WriteString(words[rng.IntN(len(words))])
			b.WriteString(gaps[rng.IntN(len(gaps))])
		}
		text := b.String()
		size := rng.IntN(80) + 8
		overlap := rng.IntN(size / 2)

		chunks := Collect(NewRecursive(size, overlap).Chunks(Document{Content: text}))
		if len(chunks) == 0 {
			t.Fatalf("round %d: no chunks", round)
		}
		checkProgress(t, []rune(text), chunks, size, overlap)

		want := len([]rune(strings.TrimRight(text, " \n")))
		if n := len([]rune(text)); n <= size {
			want = n
		}
		if last := chunks[len(chunks)-1]; last.End != want {
			t.Errorf("round %d: last chunk ends at %d, want %d", round, last.End, want)
		}
	}
}

func TestRecursive_PrefersParagraphBoundaries(t *testing.T) {
	para := strings.Repeat("word ", 30) + "end."
	text := para + "\n\n" + para + "\n\n" + para
	r := NewRecursive(200, 20)

	chunks := Collect(r.Chunks(Document{Content: text}))
	if len(chunks) < 2 {
		t.Fatalf("expected at least 2 chunks, got %d", len(chunks))
	}
	if !strings.HasSuffix(chunks[0].Content, "end.") {
		t.Errorf("first chunk should end on the paragraph boundary, got %q", chunks[0].Content)
	}
}

func TestRecursive_HardCutWithoutBoundaries(t *testing.T) {
	text := strings.Repeat("x", 1000)
	r := NewRecursive(100, 10)

	chunks := Collect(r.Chunks(Document{Content: text}))
	for i, ch := range chunks {
		if n := len(ch.Content); n > 100 {
			t.Errorf("chunk %d has %d runes", i, n)
		}
	}
	if last := chunks[len(chunks)-1]; last.End != 1000 {
		t.Errorf("last chunk should reach the end of the text, ends at %d", last.End)
	}
}

func TestRecursive_Restartable(t *testing.T) {
	r := NewRecursive(200, 40)
	seq := r.Chunks(Document{ID: "d", Content: longText(4)})

	first := Collect(seq)
	second := Collect(seq)
	if len(first) != len(second) {
		t.Fatalf("second pass yielded %d chunks, first %d", len(second), len(first))
	}
	for i := range first {
		if first[i].Content != second[i].Content {
			t.Errorf("chunk %d differs between passes", i)
		}
	}
}

func TestRecursive_EarlyStop(t *testing.T) {
	r := NewRecursive(200, 40)
	count := 0
	for range r.Chunks(Document{Content: longText(6)}) {
		count++
		if count == 2 {
			break
		}
	}
	if count != 2 {
		t.Errorf("expected to stop after 2 chunks, got %d", count)
	}
}

func TestRecursive_Metadata(t *testing.T) {
	r := NewRecursive(200, 40)
	doc := Document{ID: "page", Content: longText(3), Metadata: map[string]string{"source": "https://example.com"}}

	for ch := range r.Chunks(doc) {
		if ch.Metadata["source"] != "https://example.com" {
			t.Errorf("chunk %d lost source metadata", ch.Index)
		}
		if ch.Metadata["doc_id"] != "page" {
			t.Errorf("chunk %d missing doc_id", ch.Index)
		}
		if ch.Metadata["chunk_index"] != fmt.Sprint(ch.Index) {
			t.Errorf("chunk %d has chunk_index %q", ch.Index, ch.Metadata["chunk_index"])
		}
	}
	if _, ok := doc.Metadata["doc_id"]; ok {
		t.Error("document metadata must not be mutated")
	}
}

func TestNewRecursive_Clamps(t *testing.T) {
	r := NewRecursive(0, -5)
	if r.Size() != DefaultChunkSize || r.Overlap() != 0 {
		t.Errorf("unexpected defaults: size=%d overlap=%d", r.Size(), r.Overlap())
	}

	r = NewRecursive(100, 100)
	if r.Overlap() != 25 {
		t.Errorf("overlap >= size should clamp to size/4, got %d", r.Overlap())
	}
}

func TestSplitDocuments(t *testing.T) {
	r := NewRecursive(1000, 200)
	docs := []Document{
		{ID: "a", Content: "first"},
		{ID: "b", Content: "second"},
	}

	chunks := Collect(SplitDocuments(r, docs))
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].ID != "a#0" || chunks[1].ID != "b#0" {
		t.Errorf("unexpected ids %q %q", chunks[0].ID, chunks[1].ID)
	}
}
