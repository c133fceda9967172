// Package docx reads the paragraph structure of OOXML word-processing packages.
//
// Reading is best effort. The primary path parses word/document.xml with a
// strict XML decoder and keeps paragraph styles, bookmarks and internal
// hyperlinks. When that fails the package is re-read through a generic
// document API and scanned leniently for paragraph text only. When both fail
// the document is empty. Callers never see a parse error from Read.
package docx

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
)

// FallbackFirstPageParagraphs is how many paragraphs stand in for the first
// page when page breaks cannot be located.
const FallbackFirstPageParagraphs = 20

var (
	// ErrNoDocument is returned when the package has no word/document.xml part.
	ErrNoDocument = errors.New("word/document.xml not found")
)

// Source records which read attempt produced a Document.
type Source string

const (
	SourceXML      Source = "xml"
	SourceFallback Source = "fallback"
	SourceEmpty    Source = "empty"
)

// Paragraph is one text-bearing paragraph outside of tables.
type Paragraph struct {
	Text      string   `json:"text" yaml:"text"`
	Style     string   `json:"style,omitempty" yaml:"style,omitempty"`
	Bookmarks []string `json:"bookmarks,omitempty" yaml:"bookmarks,omitempty"`
}

// Link is an internal cross-reference, typically a table of contents entry.
type Link struct {
	Anchor string `json:"anchor" yaml:"anchor"`
	Text   string `json:"text" yaml:"text"`
}

// Document is the extracted structure of one package.
// Paragraph indices are the addressing unit for main-body ranges.
type Document struct {
	Paragraphs []Paragraph
	Links      []Link
	FirstPage  string
	Source     Source

	// HasStyles is false when paragraph style names could not be read.
	HasStyles bool
}

// Texts returns the paragraph sequence as plain strings.
func (d *Document) Texts() []string {
	out := make([]string, len(d.Paragraphs))
	for i, p := range d.Paragraphs {
		out[i] = p.Text
	}
	return out
}

// Bookmarks maps every bookmark name to the index of the paragraph it marks.
func (d *Document) Bookmarks() map[string]int {
	out := make(map[string]int)
	for i, p := range d.Paragraphs {
		for _, name := range p.Bookmarks {
			if _, ok := out[name]; !ok {
				out[name] = i
			}
		}
	}
	return out
}

type attempt struct {
	source Source
	parse  func(data []byte) (*Document, error)
}

var attempts = []attempt{
	{SourceXML, parseXML},
	{SourceFallback, parseFallback},
}

// Read loads the package at path. It never fails: unreadable or malformed
// packages yield an empty Document with Source == SourceEmpty.
func Read(path string, logger *slog.Logger) *Document {
	if logger == nil {
		logger = slog.Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("failed to read document", "path", path, "error", err)
		return &Document{Source: SourceEmpty}
	}
	return ReadBytes(data, logger.With("path", path))
}

// ReadBytes is Read over an in-memory package.
func ReadBytes(data []byte, logger *slog.Logger) *Document {
	if logger == nil {
		logger = slog.Default()
	}
	for _, a := range attempts {
		doc, err := a.parse(data)
		if err != nil {
			logger.Debug("document read attempt failed", "source", a.source, "error", err)
			continue
		}
		doc.Source = a.source
		return doc
	}
	logger.Info("no readable markup, using empty document")
	return &Document{Source: SourceEmpty}
}

// Open parses a package through the strict XML path only.
func Open(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	doc, err := parseXML(data)
	if err != nil {
		return nil, err
	}
	doc.Source = SourceXML
	return doc, nil
}
