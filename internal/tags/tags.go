// Package tags extracts tag payloads from annotated text.
//
// Annotated text marks a tag as an opening marker [NAME*], the tag content,
// and a closing marker [*NAME] carrying the same NAME. NAME is made of
// uppercase Latin or Cyrillic letters, digits and underscores:
//
//	Работа посвящена [TERM*]нейронным сетям[*TERM] и их обучению.
//
// Matching is non-greedy and left to right: an opening marker pairs with the
// first closing marker of the same name after it, and scanning resumes after
// that closing marker. Markers nested inside a matched span stay part of the
// outer span's content and are not reported separately. An opening marker
// without a matching close is skipped.
package tags

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/jackzampolin/doctag/internal/textnorm"
)

// MinLength is the minimum tag length in characters after whitespace collapsing.
const MinLength = 2

var openMarker = regexp.MustCompile(`\[([A-ZА-ЯЁ0-9_]+)\*\]`)

// Span is one matched [NAME*]...[*NAME] pair.
type Span struct {
	Name string
	Text string // raw content between the markers
}

// Spans returns every matched marker pair in document order.
func Spans(text string) []Span {
	var spans []Span
	pos := 0
	for pos < len(text) {
		loc := openMarker.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			break
		}
		openStart, openEnd := pos+loc[0], pos+loc[1]
		name := text[pos+loc[2] : pos+loc[3]]

		closing := "[*" + name + "]"
		idx := strings.Index(text[openEnd:], closing)
		if idx < 0 {
			// '[' is a single byte, so stepping one byte stays on a rune boundary.
			pos = openStart + 1
			continue
		}

		spans = append(spans, Span{Name: name, Text: text[openEnd : openEnd+idx]})
		pos = openEnd + idx + len(closing)
	}
	return spans
}

// Extract returns the sorted, deduplicated set of tags found in text.
// Each tag is whitespace-collapsed; tags shorter than MinLength are dropped.
func Extract(text string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, span := range Spans(text) {
		tag := textnorm.Collapse(span.Text)
		if utf8.RuneCountInString(tag) < MinLength || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// Union merges tag lists into one sorted, deduplicated set.
func Union(lists ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range lists {
		for _, tag := range list {
			if seen[tag] {
				continue
			}
			seen[tag] = true
			out = append(out, tag)
		}
	}
	sort.Strings(out)
	return out
}
