package extract

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/jackzampolin/doctag/internal/docx"
	"github.com/jackzampolin/doctag/internal/mainbody"
	"github.com/jackzampolin/doctag/internal/providers"
	"github.com/jackzampolin/doctag/internal/segment"
	"github.com/jackzampolin/doctag/internal/supervisor"
	"github.com/jackzampolin/doctag/internal/testutil"
)

// thesisBody is a report with a title page, a table of contents, a main
// body between the introduction and conclusion, and an appendix.
func thesisBody(topic string) string {
	return testutil.P("Министерство образования") +
		testutil.P("Научный руководитель: доц. Захарова А.В.") +
		testutil.PageBreak() +
		testutil.StyledP("a3", "Содержание") +
		testutil.TOCEntry("_Toc10", "Введение") +
		testutil.TOCEntry("_Toc11", "Заключение") +
		testutil.BookmarkedP("1", "_Toc10", "Введение") +
		testutil.P("Работа посвящена [TERM*]"+topic+"[*TERM]. Рассмотрены [TERM*]нейронные  сети[*TERM].") +
		testutil.P("Используется [ORG*]МГУ[*ORG].") +
		testutil.BookmarkedP("1", "_Toc11", "Заключение") +
		testutil.StyledP("1", "Приложение А") +
		testutil.P("[TERM*]не учитывается[*TERM]")
}

func writeThesis(t *testing.T, dir, name, topic string) string {
	t.Helper()
	return testutil.WriteDocx(t, dir, name, thesisBody(topic), testutil.HeadingStyles)
}

func TestExtractFilePreannotated(t *testing.T) {
	path := writeThesis(t, t.TempDir(), "thesis.docx", "машинному обучению")

	e := New(Config{})
	if !e.Preannotated() {
		t.Fatal("extractor without annotator should be pre-annotated")
	}

	r, err := e.ExtractFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ExtractFile failed: %v", err)
	}

	wantTags := []string{"МГУ", "машинному обучению", "нейронные сети"}
	if !reflect.DeepEqual(r.Tags, wantTags) {
		t.Errorf("expected tags %q, got %q", wantTags, r.Tags)
	}
	if r.Supervisor != "захарова" {
		t.Errorf("expected supervisor захарова, got %q", r.Supervisor)
	}
	if r.Range != (mainbody.Range{Start: 5, End: 8}) || r.Strategy != "toc" {
		t.Errorf("unexpected range %+v from %s", r.Range, r.Strategy)
	}
	if r.Source != docx.SourceXML {
		t.Errorf("expected xml source, got %s", r.Source)
	}
	if len(r.Hash) != 64 {
		t.Errorf("expected sha256 hex hash, got %q", r.Hash)
	}
	if r.Chunks != 0 {
		t.Errorf("pre-annotated mode should not build chunks, got %d", r.Chunks)
	}
}

func TestExtractFileIdempotent(t *testing.T) {
	path := writeThesis(t, t.TempDir(), "thesis.docx", "машинному обучению")
	e := New(Config{Annotator: providers.NewMockAnnotator()})

	first, err := e.ExtractFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ExtractFile failed: %v", err)
	}
	second, err := e.ExtractFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ExtractFile failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("expected identical results, got %+v and %+v", first, second)
	}
}

func TestExtractFileWithAnnotator(t *testing.T) {
	path := writeThesis(t, t.TempDir(), "thesis.docx", "машинному обучению")

	tests := []struct {
		name       string
		segment    segment.Options
		wantChunks int
	}{
		{name: "sentences", segment: segment.Options{Mode: segment.ModeSentences, SentencesPerChunk: 4}, wantChunks: 1},
		{name: "sentences small", segment: segment.Options{Mode: segment.ModeSentences, SentencesPerChunk: 1}, wantChunks: 4},
		{name: "paragraphs", segment: segment.Options{Mode: segment.ModeParagraphs, ParagraphsPerChunk: 1}, wantChunks: 4},
		{name: "chars", segment: segment.Options{Mode: segment.ModeCharacters, CharsPerChunk: 5000}, wantChunks: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := providers.NewMockAnnotator()
			e := New(Config{Segment: tt.segment, Annotator: mock})

			r, err := e.ExtractFile(context.Background(), path)
			if err != nil {
				t.Fatalf("ExtractFile failed: %v", err)
			}
			if r.Chunks != tt.wantChunks {
				t.Errorf("expected %d chunks, got %d", tt.wantChunks, r.Chunks)
			}
			if mock.ChunkCount() != int64(tt.wantChunks) {
				t.Errorf("expected %d chunks annotated, got %d", tt.wantChunks, mock.ChunkCount())
			}
			want := []string{"МГУ", "машинному обучению", "нейронные сети"}
			if !reflect.DeepEqual(r.Tags, want) {
				t.Errorf("expected tags %q, got %q", want, r.Tags)
			}
		})
	}
}

func TestExtractFileAnnotatorOutputs(t *testing.T) {
	path := writeThesis(t, t.TempDir(), "thesis.docx", "машинному обучению")

	mock := &providers.MockAnnotator{
		Transform: func(s string) string { return "[A*]x[*A] [B*]общий тег[*B]" },
	}
	e := New(Config{
		Segment:   segment.Options{Mode: segment.ModeParagraphs, ParagraphsPerChunk: 1},
		Annotator: mock,
	})

	r, err := e.ExtractFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ExtractFile failed: %v", err)
	}
	// Tags come only from model outputs; "x" is below the minimum length.
	if !reflect.DeepEqual(r.Tags, []string{"общий тег"}) {
		t.Errorf("expected union of output tags, got %q", r.Tags)
	}
}

func TestExtractFileAnnotatorFailure(t *testing.T) {
	path := writeThesis(t, t.TempDir(), "thesis.docx", "машинному обучению")
	e := New(Config{Annotator: &providers.MockAnnotator{ShouldFail: true}})

	if _, err := e.ExtractFile(context.Background(), path); err == nil {
		t.Fatal("expected annotator failure to surface")
	}
}

func TestExtractFileUnreadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.docx")
	if err := os.WriteFile(path, []byte("not a zip"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	r, err := New(Config{}).ExtractFile(context.Background(), path)
	if err != nil {
		t.Fatalf("unreadable document should not fail: %v", err)
	}
	if r.Source != docx.SourceEmpty || r.Strategy != mainbody.StrategyWhole {
		t.Errorf("unexpected source/strategy: %s/%s", r.Source, r.Strategy)
	}
	if r.Supervisor != supervisor.Unknown {
		t.Errorf("expected unknown supervisor, got %q", r.Supervisor)
	}
	if len(r.Tags) != 0 || r.Tags == nil {
		t.Errorf("expected empty non-nil tags, got %#v", r.Tags)
	}
	if r.Hash == "" {
		t.Error("expected hash of the raw bytes")
	}
}

func TestAnalyzeSupervisorFallsBackToMainText(t *testing.T) {
	body := testutil.PageBreak() +
		testutil.StyledP("1", "Введение") +
		testutil.P("Под руководством Ступникова выполнена работа.") +
		testutil.StyledP("1", "Заключение")
	path := testutil.WriteDocx(t, t.TempDir(), "a.docx", body, testutil.HeadingStyles)

	a := New(Config{}).Analyze(path)
	if a.FirstPage != "" {
		t.Fatalf("expected empty first page, got %q", a.FirstPage)
	}
	if a.Selection.Strategy != "style" {
		t.Errorf("expected style strategy, got %s", a.Selection.Strategy)
	}
	if a.Supervisor != "ступников" {
		t.Errorf("expected ступников, got %q", a.Supervisor)
	}
}
