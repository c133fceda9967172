package mainbody

import (
	"log/slog"

	"github.com/jackzampolin/doctag/internal/docx"
)

// StrategyWhole names the fallback when no locator found a boundary.
const StrategyWhole = "whole"

// Range is an inclusive paragraph index range.
type Range struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
}

// Slice returns the paragraphs inside the range.
func (r Range) Slice(paragraphs []string) []string {
	if len(paragraphs) == 0 || r.Start >= len(paragraphs) {
		return nil
	}
	return paragraphs[r.Start:min(r.End+1, len(paragraphs))]
}

// Selection is a chosen range and the locator that produced it.
type Selection struct {
	Range    Range  `json:"range" yaml:"range"`
	Strategy string `json:"strategy" yaml:"strategy"`
}

// Selector applies locators in strict precedence. The first locator that
// finds at least one boundary wins, even if it found only one; later
// locators are not consulted to fill in the other.
type Selector struct {
	Locators []Locator
	Logger   *slog.Logger
}

// DefaultSelector tries table of contents links, then heading styles, then
// heading text.
func DefaultSelector(logger *slog.Logger) *Selector {
	return &Selector{
		Locators: []Locator{TOCLocator{}, StyleLocator{}, RegexLocator{}},
		Logger:   logger,
	}
}

// Select picks the main-body range of doc. It always returns a valid range.
func (s *Selector) Select(doc *docx.Document) Selection {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	n := len(doc.Paragraphs)

	for _, loc := range s.Locators {
		b := loc.Locate(doc)
		if b.Empty() {
			logger.Debug("locator found no boundaries", "locator", loc.Name())
			continue
		}
		r := Resolve(b, n)
		logger.Debug("main body located", "locator", loc.Name(), "start", r.Start, "end", r.End)
		return Selection{Range: r, Strategy: loc.Name()}
	}
	return Selection{Range: Resolve(Bounds{}, n), Strategy: StrategyWhole}
}

// Resolve turns bounds into a range over n paragraphs: a missing start
// becomes 0, a missing end becomes n-1, reversed bounds are swapped, and both
// ends are clamped into [0, n-1]. An empty sequence yields (0, 0).
func Resolve(b Bounds, n int) Range {
	last := max(0, n-1)
	start, end := 0, last
	if b.Start != nil {
		start = *b.Start
	}
	if b.End != nil {
		end = *b.End
	}
	if start > end {
		start, end = end, start
	}
	clamp := func(i int) int { return min(max(i, 0), last) }
	return Range{Start: clamp(start), End: clamp(end)}
}
