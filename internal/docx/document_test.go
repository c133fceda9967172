package docx

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/jackzampolin/doctag/internal/testutil"
)

func read(t *testing.T, body, styles string) *Document {
	t.Helper()
	parts := map[string]string{"word/document.xml": testutil.DocumentXML(body)}
	if styles != "" {
		parts["word/styles.xml"] = styles
	}
	return ReadBytes(testutil.DocxBytes(t, parts), nil)
}

func TestReadParagraphs(t *testing.T) {
	t.Run("empty paragraphs dropped", func(t *testing.T) {
		doc := read(t, testutil.P("one")+testutil.EmptyP()+testutil.P("two")+testutil.P("three"), "")

		if doc.Source != SourceXML {
			t.Fatalf("expected source %q, got %q", SourceXML, doc.Source)
		}
		want := []string{"one", "two", "three"}
		if got := doc.Texts(); !reflect.DeepEqual(got, want) {
			t.Errorf("expected %q, got %q", want, got)
		}
	})

	t.Run("runs concatenate without separator", func(t *testing.T) {
		body := `<w:p><w:r><w:t>Вве</w:t></w:r><w:r><w:rPr><w:b/></w:rPr><w:t>дение</w:t></w:r></w:p>`
		doc := read(t, body, "")
		if got := doc.Texts(); !reflect.DeepEqual(got, []string{"Введение"}) {
			t.Errorf("unexpected paragraphs: %q", got)
		}
	})

	t.Run("tables removed", func(t *testing.T) {
		doc := read(t, testutil.P("before")+testutil.Table("cell a", "cell b")+testutil.P("after"), "")
		want := []string{"before", "after"}
		if got := doc.Texts(); !reflect.DeepEqual(got, want) {
			t.Errorf("expected %q, got %q", want, got)
		}
	})

	t.Run("entities decoded", func(t *testing.T) {
		doc := read(t, testutil.P(`Tom & "Jerry" <3`), "")
		if got := doc.Texts(); !reflect.DeepEqual(got, []string{`Tom & "Jerry" <3`}) {
			t.Errorf("unexpected paragraphs: %q", got)
		}
	})
}

func TestReadStyles(t *testing.T) {
	body := testutil.StyledP("1", "Введение") + testutil.P("text") + testutil.StyledP("Heading2", "Глава")

	t.Run("names resolved from styles part", func(t *testing.T) {
		doc := read(t, body, testutil.HeadingStyles)
		if !doc.HasStyles {
			t.Fatal("expected HasStyles")
		}
		styles := []string{doc.Paragraphs[0].Style, doc.Paragraphs[1].Style, doc.Paragraphs[2].Style}
		want := []string{"heading 1", "Normal", "Heading2"}
		if !reflect.DeepEqual(styles, want) {
			t.Errorf("expected %q, got %q", want, styles)
		}
	})

	t.Run("ids kept without styles part", func(t *testing.T) {
		doc := read(t, body, "")
		if doc.Paragraphs[0].Style != "1" {
			t.Errorf("expected style id 1, got %q", doc.Paragraphs[0].Style)
		}
		if doc.Paragraphs[1].Style != "" {
			t.Errorf("expected no style, got %q", doc.Paragraphs[1].Style)
		}
	})
}

func TestReadBookmarksAndLinks(t *testing.T) {
	body := testutil.TOCEntry("_Toc1", "Введение") +
		testutil.TOCEntry("_Toc2", "Заключение") +
		`<w:p><w:bookmarkStart w:id="1" w:name="_Toc1"/><w:bookmarkEnd w:id="1"/></w:p>` +
		testutil.StyledP("1", "Введение") +
		testutil.P("body") +
		`<w:bookmarkStart w:id="2" w:name="_Toc2"/>` +
		testutil.StyledP("1", "Заключение") +
		testutil.BookmarkedP("1", "_Ref3", "Приложение")

	doc := read(t, body, "")

	wantLinks := []Link{{Anchor: "_Toc1", Text: "Введение"}, {Anchor: "_Toc2", Text: "Заключение"}}
	if !reflect.DeepEqual(doc.Links, wantLinks) {
		t.Errorf("expected links %+v, got %+v", wantLinks, doc.Links)
	}

	marks := doc.Bookmarks()
	want := map[string]int{"_Toc1": 2, "_Toc2": 4, "_Ref3": 5}
	if !reflect.DeepEqual(marks, want) {
		t.Errorf("expected bookmarks %v, got %v", want, marks)
	}
}

func TestReadFirstPage(t *testing.T) {
	t.Run("stops at explicit page break", func(t *testing.T) {
		body := testutil.P("University") +
			`<w:p><w:r><w:t>Supervisor</w:t></w:r><w:r><w:br w:type="page"/></w:r></w:p>` +
			testutil.P("Contents")
		doc := read(t, body, "")
		if doc.FirstPage != "University\nSupervisor" {
			t.Errorf("unexpected first page: %q", doc.FirstPage)
		}
	})

	t.Run("stops at last rendered page break", func(t *testing.T) {
		body := testutil.P("Title") +
			`<w:p><w:r><w:lastRenderedPageBreak/><w:t>Page two</w:t></w:r></w:p>`
		doc := read(t, body, "")
		if doc.FirstPage != "Title\nPage two" {
			t.Errorf("unexpected first page: %q", doc.FirstPage)
		}
	})

	t.Run("line breaks do not end the page", func(t *testing.T) {
		body := `<w:p><w:r><w:t>a</w:t><w:br/></w:r></w:p>` + testutil.P("b") + testutil.PageBreak() + testutil.P("c")
		doc := read(t, body, "")
		if doc.FirstPage != "a\nb" {
			t.Errorf("unexpected first page: %q", doc.FirstPage)
		}
	})

	t.Run("tables included", func(t *testing.T) {
		body := testutil.P("Title") + testutil.Table("Руководитель: Захарова") + testutil.PageBreak() + testutil.P("next")
		doc := read(t, body, "")
		if doc.FirstPage != "Title\nРуководитель: Захарова" {
			t.Errorf("unexpected first page: %q", doc.FirstPage)
		}
	})
}

func TestReadFallback(t *testing.T) {
	t.Run("malformed markup uses generic reader", func(t *testing.T) {
		broken := `<?xml version="1.0" encoding="UTF-8"?><w:document xmlns:w="` + testutil.WordNS + `"><w:body>` +
			testutil.P("Alpha") + testutil.Table("hidden") + testutil.EmptyP() + `<w:p><w:r><w:t>Beta &amp; Co</w:t></w:r></w:p>`
		doc := ReadBytes(testutil.DocxBytes(t, map[string]string{"word/document.xml": broken}), nil)

		if doc.Source != SourceFallback {
			t.Fatalf("expected source %q, got %q", SourceFallback, doc.Source)
		}
		want := []string{"Alpha", "Beta & Co"}
		if got := doc.Texts(); !reflect.DeepEqual(got, want) {
			t.Errorf("expected %q, got %q", want, got)
		}
		if doc.FirstPage != "Alpha\nBeta & Co" {
			t.Errorf("unexpected first page: %q", doc.FirstPage)
		}
		if doc.HasStyles {
			t.Error("fallback documents carry no style information")
		}
	})

	t.Run("fallback first page is capped", func(t *testing.T) {
		broken := `<w:document xmlns:w="` + testutil.WordNS + `"><w:body>`
		for i := 0; i < 25; i++ {
			broken += testutil.P("p")
		}
		doc := ReadBytes(testutil.DocxBytes(t, map[string]string{"word/document.xml": broken}), nil)
		if len(doc.Paragraphs) != 25 {
			t.Fatalf("expected 25 paragraphs, got %d", len(doc.Paragraphs))
		}
		lines := 1
		for _, r := range doc.FirstPage {
			if r == '\n' {
				lines++
			}
		}
		if lines != FallbackFirstPageParagraphs {
			t.Errorf("expected %d first-page lines, got %d", FallbackFirstPageParagraphs, lines)
		}
	})

	t.Run("not a package", func(t *testing.T) {
		doc := ReadBytes([]byte("plain text, not a zip"), nil)
		if doc.Source != SourceEmpty || len(doc.Paragraphs) != 0 || doc.FirstPage != "" {
			t.Errorf("expected empty document, got %+v", doc)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		doc := Read(filepath.Join(t.TempDir(), "missing.docx"), nil)
		if doc.Source != SourceEmpty {
			t.Errorf("expected empty source, got %q", doc.Source)
		}
	})
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteDocx(t, dir, "a.docx", testutil.P("x"), "")

	doc, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if doc.Source != SourceXML || len(doc.Paragraphs) != 1 {
		t.Errorf("unexpected document: %+v", doc)
	}

	noDoc := filepath.Join(dir, "b.docx")
	if err := writeFile(noDoc, testutil.DocxBytes(t, map[string]string{"word/other.xml": "<x/>"})); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(noDoc); err != ErrNoDocument {
		t.Errorf("expected ErrNoDocument, got %v", err)
	}
}
