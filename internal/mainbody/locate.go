// Package mainbody finds the main body of a document: the paragraphs from the
// introduction heading through the conclusion heading.
//
// Three independent locators look for the two boundary headings, each from a
// different signal: table of contents links, heading paragraph styles, and
// literal heading text. A Selector asks them in order and turns the first
// useful answer into a paragraph range.
package mainbody

import (
	"regexp"
	"strings"

	"github.com/jackzampolin/doctag/internal/docx"
	"github.com/jackzampolin/doctag/internal/textnorm"
)

// Bounds is a locator's answer. Either boundary may be missing on its own.
type Bounds struct {
	Start *int
	End   *int
}

// Empty reports whether neither boundary was found.
func (b Bounds) Empty() bool {
	return b.Start == nil && b.End == nil
}

// Locator finds main-body boundaries in a document.
type Locator interface {
	Name() string
	Locate(doc *docx.Document) Bounds
}

const startWord = "введение"

var endWords = []string{"заключение", "вывод"}

func isStartHeading(folded string) bool {
	return strings.HasPrefix(folded, startWord)
}

func isEndHeading(folded string) bool {
	for _, w := range endWords {
		if strings.HasPrefix(folded, w) {
			return true
		}
	}
	return false
}

func index(i int) *int { return &i }

// TOCLocator follows internal hyperlinks, normally the table of contents, to
// the bookmarks on the introduction and conclusion headings.
type TOCLocator struct{}

func (TOCLocator) Name() string { return "toc" }

func (TOCLocator) Locate(doc *docx.Document) Bounds {
	var startAnchor, endAnchor string
	for _, link := range doc.Links {
		text := textnorm.Fold(link.Text)
		if text == "" {
			continue
		}
		if startAnchor == "" && isStartHeading(text) {
			startAnchor = link.Anchor
		}
		if endAnchor == "" && isEndHeading(text) {
			endAnchor = link.Anchor
		}
	}
	if startAnchor == "" && endAnchor == "" {
		return Bounds{}
	}

	marks := doc.Bookmarks()
	var b Bounds
	if i, ok := marks[startAnchor]; ok && startAnchor != "" {
		b.Start = index(i)
	}
	if i, ok := marks[endAnchor]; ok && endAnchor != "" {
		b.End = index(i)
	}
	return b
}

// StyleLocator looks at paragraphs whose style name marks them as headings.
type StyleLocator struct{}

func (StyleLocator) Name() string { return "style" }

func (StyleLocator) Locate(doc *docx.Document) Bounds {
	var b Bounds
	if !doc.HasStyles {
		return b
	}
	for i, p := range doc.Paragraphs {
		if !isHeadingStyle(p.Style) {
			continue
		}
		text := textnorm.Fold(p.Text)
		if text == "" {
			continue
		}
		if b.Start == nil && isStartHeading(text) {
			b.Start = index(i)
		}
		if b.End == nil && isEndHeading(text) {
			b.End = index(i)
		}
	}
	return b
}

func isHeadingStyle(style string) bool {
	s := strings.ToLower(style)
	return strings.Contains(s, "heading") || strings.Contains(s, "заголов")
}

var (
	startPattern = regexp.MustCompile(`^(?:\d+\.?\s*)?введение` + textnorm.WordEnd)
	endPattern   = regexp.MustCompile(`^(?:\d+\.?\s*)?(?:заключение|выводы?)` + textnorm.WordEnd)
)

// RegexLocator matches heading text alone, optionally numbered ("1. Введение").
// It needs no style or link metadata.
type RegexLocator struct{}

func (RegexLocator) Name() string { return "regex" }

func (RegexLocator) Locate(doc *docx.Document) Bounds {
	return LocateText(doc.Texts())
}

// LocateText runs the heading-text match over plain paragraphs.
func LocateText(paragraphs []string) Bounds {
	var b Bounds
	for i, p := range paragraphs {
		text := textnorm.Fold(p)
		if b.Start == nil && startPattern.MatchString(text) {
			b.Start = index(i)
		}
		if b.End == nil && endPattern.MatchString(text) {
			b.End = index(i)
		}
		if b.Start != nil && b.End != nil {
			break
		}
	}
	return b
}
