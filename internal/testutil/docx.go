package testutil

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"testing"
)

// WordNS is the WordprocessingML main namespace.
const WordNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// HeadingStyles is a styles part in the shape Word writes for a Russian
// locale: heading ids are bare numbers, names are the built-in English ones.
const HeadingStyles = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:styles xmlns:w="` + WordNS + `">
<w:style w:type="paragraph" w:default="1" w:styleId="a"><w:name w:val="Normal"/></w:style>
<w:style w:type="paragraph" w:styleId="1"><w:name w:val="heading 1"/></w:style>
<w:style w:type="paragraph" w:styleId="2"><w:name w:val="heading 2"/></w:style>
<w:style w:type="paragraph" w:styleId="a3"><w:name w:val="Заголовок оглавления"/></w:style>
</w:styles>`

const documentRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`

// DocumentXML wraps body markup into a complete word/document.xml.
func DocumentXML(body string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="` + WordNS + `"><w:body>` + body + `</w:body></w:document>`
}

// P returns a single-run paragraph.
func P(text string) string {
	return fmt.Sprintf(`<w:p><w:r><w:t xml:space="preserve">%s</w:t></w:r></w:p>`, html.EscapeString(text))
}

// StyledP returns a single-run paragraph with a paragraph style id.
func StyledP(styleID, text string) string {
	return fmt.Sprintf(`<w:p><w:pPr><w:pStyle w:val="%s"/></w:pPr><w:r><w:t>%s</w:t></w:r></w:p>`,
		styleID, html.EscapeString(text))
}

// BookmarkedP returns a heading paragraph carrying a bookmark.
func BookmarkedP(styleID, bookmark, text string) string {
	return fmt.Sprintf(`<w:p><w:pPr><w:pStyle w:val="%s"/></w:pPr>`+
		`<w:bookmarkStart w:id="0" w:name="%s"/><w:r><w:t>%s</w:t></w:r><w:bookmarkEnd w:id="0"/></w:p>`,
		styleID, bookmark, html.EscapeString(text))
}

// TOCEntry returns a table of contents paragraph linking to anchor.
func TOCEntry(anchor, text string) string {
	return fmt.Sprintf(`<w:p><w:hyperlink w:anchor="%s" w:history="1"><w:r><w:t>%s</w:t></w:r></w:hyperlink></w:p>`,
		anchor, html.EscapeString(text))
}

// EmptyP returns a paragraph without text runs.
func EmptyP() string {
	return `<w:p><w:pPr><w:jc w:val="center"/></w:pPr></w:p>`
}

// PageBreak returns a paragraph holding only an explicit page break.
func PageBreak() string {
	return `<w:p><w:r><w:br w:type="page"/></w:r></w:p>`
}

// Table returns a one-cell table whose cell holds the given paragraphs.
func Table(cells ...string) string {
	var b bytes.Buffer
	b.WriteString(`<w:tbl><w:tblPr/><w:tr>`)
	for _, c := range cells {
		b.WriteString(`<w:tc>` + P(c) + `</w:tc>`)
	}
	b.WriteString(`</w:tr></w:tbl>`)
	return b.String()
}

// DocxBytes zips the given parts. word/_rels/document.xml.rels is added when
// absent so generic readers accept the package.
func DocxBytes(t testing.TB, parts map[string]string) []byte {
	t.Helper()

	if _, ok := parts["word/_rels/document.xml.rels"]; !ok {
		withRels := make(map[string]string, len(parts)+1)
		for k, v := range parts {
			withRels[k] = v
		}
		withRels["word/_rels/document.xml.rels"] = documentRels
		parts = withRels
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range parts {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

// WriteDocx writes a package with the given body and styles part (optional)
// to dir/name and returns its path.
func WriteDocx(t testing.TB, dir, name, body, styles string) string {
	t.Helper()

	parts := map[string]string{"word/document.xml": DocumentXML(body)}
	if styles != "" {
		parts["word/styles.xml"] = styles
	}

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, DocxBytes(t, parts), 0o644); err != nil {
		t.Fatalf("write docx: %v", err)
	}
	return path
}
