// Package normalize holds the pure text transforms shared by the extractor and
// the classifier.
package normalize

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var spaceRun = regexp.MustCompile(`\s+`)

// Folded is an accent- and case-folded copy of a source string that remembers,
// for every byte of Text, the byte offset of the source rune it came from.
type Folded struct {
	Text    string
	offsets []int
}

// Fold decomposes accented characters, drops the combining marks and lower-cases
// the result, so "Dégradation", "DEGRADATION" and "degradation" compare equal.
func Fold(s string) string {
	return FoldWithOffsets(s).Text
}

// FoldWithOffsets folds s rune by rune, keeping the mapping back to s.
func FoldWithOffsets(s string) Folded {
	var b strings.Builder
	b.Grow(len(s))
	offsets := make([]int, 0, len(s)+1)

	for i, r := range s {
		f := foldRune(r)
		for j := 0; j < len(f); j++ {
			offsets = append(offsets, i)
		}
		b.WriteString(f)
	}
	offsets = append(offsets, len(s))

	return Folded{Text: b.String(), offsets: offsets}
}

// SourceOffset maps a byte offset in f.Text (0..len(f.Text)) to the source string.
func (f Folded) SourceOffset(i int) int {
	if i < 0 {
		return 0
	}
	if i >= len(f.offsets) {
		return f.offsets[len(f.offsets)-1]
	}
	return f.offsets[i]
}

func foldRune(r rune) string {
	if r < utf8.RuneSelf {
		return string(unicode.ToLower(r))
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, string(r))
	if err != nil {
		out = string(r)
	}
	return strings.ToLower(out)
}

// CleanText replaces non-breaking spaces, collapses whitespace runs and trims.
func CleanText(text string) string {
	text = strings.ReplaceAll(text, "\u00A0", " ")
	text = spaceRun.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Preview cuts text to at most maxRunes runes on a word boundary, for log lines.
func Preview(text string, maxRunes int) string {
	if maxRunes <= 0 || utf8.RuneCountInString(text) <= maxRunes {
		return text
	}

	truncated := string([]rune(text)[:maxRunes])
	if lastSpace := strings.LastIndex(truncated, " "); lastSpace > 0 {
		return truncated[:lastSpace] + "…"
	}
	return truncated + "…"
}
