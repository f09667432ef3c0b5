package loader

import (
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

// Elements whose text is never part of the page content.
var skipTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true,
	"svg": true, "iframe": true, "#comment": true,
}

// Elements that start a new paragraph.
var paragraphTags = map[string]bool{
	"p": true, "div": true, "section": true, "article": true, "header": true,
	"footer": true, "main": true, "aside": true, "blockquote": true,
	"pre": true, "table": true, "ul": true, "ol": true, "dl": true,
	"figure": true, "h1": true, "h2": true, "h3": true, "h4": true,
	"h5": true, "h6": true, "hr": true,
}

// Elements that start a new line.
var lineTags = map[string]bool{
	"li": true, "tr": true, "dt": true, "dd": true, "figcaption": true,
	"caption": true,
}

// textWriter flattens an HTML subtree into plain text. Runs of whitespace
// collapse to one space; block elements become line or paragraph breaks.
type textWriter struct {
	b            strings.Builder
	pendingBreak int
	pendingSpace bool
	pre          int
}

func (w *textWriter) walk(s *goquery.Selection) {
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		name := goquery.NodeName(c)
		switch {
		case name == "#text":
			w.text(c.Text())
		case skipTags[name]:
		case name == "br":
			w.breakLine(1)
		case paragraphTags[name]:
			if name == "pre" {
				w.pre++
			}
			w.breakLine(2)
			w.walk(c)
			w.breakLine(2)
			if name == "pre" {
				w.pre--
			}
		case lineTags[name]:
			w.breakLine(1)
			w.walk(c)
			w.breakLine(1)
		default:
			w.walk(c)
		}
	})
}

func (w *textWriter) text(s string) {
	for _, r := range s {
		if w.pre > 0 && r == '\n' {
			w.breakLine(1)
			continue
		}
		if unicode.IsSpace(r) {
			w.pendingSpace = true
			continue
		}
		w.flush()
		w.b.WriteRune(r)
	}
}

// breakLine requests n newlines before the next written text. Breaks are
// never written at the start of the output.
func (w *textWriter) breakLine(n int) {
	w.pendingBreak = max(w.pendingBreak, n)
}

func (w *textWriter) flush() {
	switch {
	case w.b.Len() == 0:
	case w.pendingBreak > 0:
		w.b.WriteString(strings.Repeat("\n", w.pendingBreak))
	case w.pendingSpace:
		w.b.WriteByte(' ')
	}
	w.pendingBreak = 0
	w.pendingSpace = false
}

func (w *textWriter) String() string {
	return w.b.String()
}
