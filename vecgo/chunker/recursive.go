package chunker

import (
	"iter"
	"unicode"
)

const (
	// DefaultChunkSize is the default maximum chunk length in runes.
	DefaultChunkSize = 1000

	// DefaultChunkOverlap is the default number of runes shared by adjacent chunks.
	DefaultChunkOverlap = 200
)

// boundary is a split point candidate. A chunk ending at a match of pattern
// ends cut runes into the match, so ". " keeps the period and drops the space.
type boundary struct {
	pattern []rune
	cut     int
}

// boundaryLevels are tried in order; the first level with a usable match wins.
var boundaryLevels = [][]boundary{
	{{pattern: []rune("\n\n")}},
	{{pattern: []rune("\n")}},
	{
		{pattern: []rune(". "), cut: 1},
		{pattern: []rune("! "), cut: 1},
		{pattern: []rune("? "), cut: 1},
	},
	{{pattern: []rune(" ")}},
}

// Recursive splits text into overlapping windows of at most size runes,
// ending each window on the largest structural unit that fits: paragraph,
// then line, then sentence, then word, then a hard character cut.
type Recursive struct {
	size    int
	overlap int
}

// NewRecursive creates a recursive character splitter.
func NewRecursive(size, overlap int) *Recursive {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 4
	}
	return &Recursive{size: size, overlap: overlap}
}

// Size returns the maximum chunk length in runes.
func (r *Recursive) Size() int { return r.size }

// Overlap returns the minimum number of runes shared by adjacent chunks.
func (r *Recursive) Overlap() int { return r.overlap }

// Chunks yields the chunks of doc. A document that already fits yields a
// single chunk holding the full, unmodified text.
func (r *Recursive) Chunks(doc Document) iter.Seq[Chunk] {
	return func(yield func(Chunk) bool) {
		text := []rune(doc.Content)
		if !hasContent(text, 0) {
			return
		}
		if len(text) <= r.size {
			yield(newChunk(doc, 0, 0, len(text), doc.Content))
			return
		}

		start := skipSpace(text, 0)
		last := trimRight(text, start, len(text))
		prevEnd := start
		for index := 0; ; index++ {
			if last-start <= r.size {
				yield(newChunk(doc, index, start, last, string(text[start:last])))
				return
			}

			end := r.cut(text, start, prevEnd)
			if !yield(newChunk(doc, index, start, end, string(text[start:end]))) {
				return
			}
			prevEnd = end
			start = r.nextStart(text, start, end)
		}
	}
}

// cut returns the end offset of the window beginning at start, with
// trailing whitespace trimmed. The trimmed end must lie past both the
// previous chunk's end and start+overlap so that every chunk contributes new
// text and the next window moves forward.
func (r *Recursive) cut(text []rune, start, prevEnd int) int {
	limit := start + r.size
	lo := max(prevEnd, start+r.overlap)

	for _, level := range boundaryLevels {
		for p := limit; p > lo; p-- {
			for _, b := range level {
				if !hasPatternAt(text, p-b.cut, b.pattern) {
					continue
				}
				if end := trimRight(text, start, p); end > lo {
					return end
				}
			}
		}
	}

	// A window whose tail past lo is all whitespace keeps it.
	if end := trimRight(text, start, limit); end > lo {
		return end
	}
	return limit
}

// nextStart places the next window so it re-reads at least overlap runes of
// the chunk that ended at end, preferring to begin on a word.
func (r *Recursive) nextStart(text []rune, start, end int) int {
	if r.overlap == 0 {
		return skipSpace(text, end)
	}
	pos := end - r.overlap
	if pos <= start {
		pos = start + 1
	}
	floor := max(start+1, pos-(r.size-r.overlap)/2)

	for p := pos; p >= floor; p-- {
		if !unicode.IsSpace(text[p]) && unicode.IsSpace(text[p-1]) {
			return p
		}
	}
	for p := pos; p >= floor; p-- {
		if !unicode.IsSpace(text[p]) {
			return p
		}
	}
	return pos
}

func hasPatternAt(text []rune, at int, pattern []rune) bool {
	if at < 0 || at+len(pattern) > len(text) {
		return false
	}
	for i, r := range pattern {
		if text[at+i] != r {
			return false
		}
	}
	return true
}

func hasContent(text []rune, from int) bool {
	for _, r := range text[from:] {
		if !unicode.IsSpace(r) {
			return true
		}
	}
	return false
}

func skipSpace(text []rune, from int) int {
	for from < len(text) && unicode.IsSpace(text[from]) {
		from++
	}
	return from
}

func trimRight(text []rune, start, end int) int {
	for end > start && unicode.IsSpace(text[end-1]) {
		end--
	}
	return end
}
