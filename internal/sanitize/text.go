package sanitize

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// Elements whose content is dropped along with the markup.
var droppedContent = map[string]bool{
	"script":    true,
	"style":     true,
	"noscript":  true,
	"iframe":    true,
	"noembed":   true,
	"noframes":  true,
	"xmp":       true,
	"plaintext": true,
	"template":  true,
}

// Text removes every tag, comment and doctype from s and keeps the text
// verbatim. Entities are not decoded. The result is a fixed point:
// Text(Text(s)) == Text(s).
func Text(s string) string {
	for {
		next := stripMarkup(s)
		if next == s {
			return s
		}
		s = next
	}
}

// Truncate shortens s to at most limit runes.
func Truncate(s string, limit int) string {
	if limit < 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}

// Field strips markup and clamps s to limit runes. A limit of zero or less
// only strips.
func Field(s string, limit int) string {
	if limit <= 0 {
		return Text(s)
	}
	for {
		next := Truncate(Text(s), limit)
		if next == s {
			return s
		}
		s = next
	}
}

// stripMarkup makes one tokenizer pass. The output is a subsequence of the
// input bytes, so repeated passes terminate.
func stripMarkup(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}

	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	b.Grow(len(s))
	depth := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			if depth == 0 {
				b.Write(z.Raw())
			}
		case html.StartTagToken:
			name, _ := z.TagName()
			if droppedContent[string(name)] {
				depth++
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if droppedContent[string(name)] && depth > 0 {
				depth--
			}
		}
	}
}
