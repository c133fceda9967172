// Package extract composes the document reader, main-body selector,
// segmenter, annotator and tag parser into per-document results.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackzampolin/doctag/internal/docx"
	"github.com/jackzampolin/doctag/internal/ingest"
	"github.com/jackzampolin/doctag/internal/mainbody"
	"github.com/jackzampolin/doctag/internal/providers"
	"github.com/jackzampolin/doctag/internal/segment"
	"github.com/jackzampolin/doctag/internal/supervisor"
	"github.com/jackzampolin/doctag/internal/tags"
	"github.com/jackzampolin/doctag/internal/textnorm"
)

// Config configures an Extractor.
type Config struct {
	Segment segment.Options

	// Annotator produces annotated chunks. When nil the main text is assumed
	// to carry markup already and is parsed directly.
	Annotator providers.Annotator

	Selector *mainbody.Selector   // Defaults to mainbody.DefaultSelector
	Detector *supervisor.Detector // Defaults to supervisor.Default
	Logger   *slog.Logger
}

// Extractor turns one document into a Result. It holds no per-document
// state and is safe for concurrent use when its Annotator is.
type Extractor struct {
	segment   segment.Options
	annotator providers.Annotator
	selector  *mainbody.Selector
	detector  *supervisor.Detector
	logger    *slog.Logger
}

// New creates an Extractor.
func New(cfg Config) *Extractor {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Selector == nil {
		cfg.Selector = mainbody.DefaultSelector(cfg.Logger)
	}
	if cfg.Detector == nil {
		cfg.Detector = supervisor.Default()
	}
	return &Extractor{
		segment:   cfg.Segment,
		annotator: cfg.Annotator,
		selector:  cfg.Selector,
		detector:  cfg.Detector,
		logger:    cfg.Logger,
	}
}

// Preannotated reports whether tags are parsed straight from the main text.
func (e *Extractor) Preannotated() bool {
	return e.annotator == nil
}

// Analysis is everything derived from a document before annotation.
type Analysis struct {
	Path       string
	Document   *docx.Document
	Selection  mainbody.Selection
	Main       []string // Main-body paragraphs
	MainText   string   // Collapsed main-body text
	FirstPage  string   // Collapsed first-page text
	Supervisor string
	Chunks     []string
}

// Result is the extraction record for one document.
type Result struct {
	Path       string         `json:"path" yaml:"path"`
	Hash       string         `json:"hash" yaml:"hash"`
	Supervisor string         `json:"supervisor" yaml:"supervisor"`
	Tags       []string       `json:"tags" yaml:"tags"`
	Range      mainbody.Range `json:"range" yaml:"range"`
	Strategy   string         `json:"strategy" yaml:"strategy"`
	Source     docx.Source    `json:"source" yaml:"source"`
	Paragraphs int            `json:"paragraphs" yaml:"paragraphs"`
	Chunks     int            `json:"chunks" yaml:"chunks"`
}

// Analyze reads path and derives the main body, supervisor and chunks.
// It never fails; unreadable documents analyze as empty.
func (e *Extractor) Analyze(path string) *Analysis {
	doc := docx.Read(path, e.logger)
	return e.analyzeDocument(path, doc)
}

func (e *Extractor) analyzeDocument(path string, doc *docx.Document) *Analysis {
	sel := e.selector.Select(doc)
	main := sel.Range.Slice(doc.Texts())
	mainText := textnorm.Collapse(strings.Join(main, "\n"))
	firstPage := textnorm.Collapse(doc.FirstPage)

	supervisorText := firstPage
	if supervisorText == "" {
		supervisorText = mainText
	}

	a := &Analysis{
		Path:       path,
		Document:   doc,
		Selection:  sel,
		Main:       main,
		MainText:   mainText,
		FirstPage:  firstPage,
		Supervisor: e.detector.Detect(supervisorText),
	}
	if !e.Preannotated() {
		a.Chunks = segment.Build(e.segment, mainText, main)
	}
	return a
}

// ExtractFile produces the Result for the document at path. The only error
// source is the annotator; document problems degrade to empty results.
func (e *Extractor) ExtractFile(ctx context.Context, path string) (*Result, error) {
	hash := ingest.HashFile(path)
	a := e.Analyze(path)

	var found []string
	if e.Preannotated() {
		found = tags.Extract(a.MainText)
	} else if len(a.Chunks) > 0 {
		outputs, err := e.annotator.Annotate(ctx, a.Chunks)
		if err != nil {
			return nil, fmt.Errorf("annotate %s: %w", path, err)
		}
		lists := make([][]string, 0, len(outputs))
		for _, out := range outputs {
			lists = append(lists, tags.Extract(out))
		}
		found = tags.Union(lists...)
	}
	if found == nil {
		found = []string{}
	}

	r := &Result{
		Path:       path,
		Hash:       hash,
		Supervisor: a.Supervisor,
		Tags:       found,
		Range:      a.Selection.Range,
		Strategy:   a.Selection.Strategy,
		Source:     a.Document.Source,
		Paragraphs: len(a.Document.Paragraphs),
		Chunks:     len(a.Chunks),
	}
	e.logger.Info("extracted document",
		"path", path,
		"supervisor", r.Supervisor,
		"tags", len(r.Tags),
		"strategy", r.Strategy,
		"source", r.Source)
	return r, nil
}
