package docx

import (
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"

	godocx "github.com/nguyenthenguyen/docx"
)

// The fallback path never builds a tree, so it survives markup that the strict
// decoder rejects. Tables are cut out without regard to nesting.
var (
	fallbackTable     = regexp.MustCompile(`(?s)<w:tbl(?:\s[^>]*)?>.*?</w:tbl>`)
	fallbackParagraph = regexp.MustCompile(`(?s)<w:p(?:\s[^>]*[^/])?>(.*?)</w:p>`)
	fallbackRun       = regexp.MustCompile(`<w:t(?:\s[^>]*[^/])?>([^<]*)</w:t>`)
)

func parseFallback(data []byte) (*Document, error) {
	r, err := godocx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("generic docx reader: %w", err)
	}
	defer r.Close()

	content := fallbackTable.ReplaceAllString(r.Editable().GetContent(), "")

	doc := &Document{}
	for _, m := range fallbackParagraph.FindAllStringSubmatch(content, -1) {
		runs := fallbackRun.FindAllStringSubmatch(m[1], -1)
		if len(runs) == 0 {
			continue
		}
		var b strings.Builder
		for _, run := range runs {
			b.WriteString(html.UnescapeString(run[1]))
		}
		doc.Paragraphs = append(doc.Paragraphs, Paragraph{Text: b.String()})
	}

	first := doc.Texts()
	if len(first) > FallbackFirstPageParagraphs {
		first = first[:FallbackFirstPageParagraphs]
	}
	doc.FirstPage = strings.Join(first, "\n")
	return doc, nil
}
