package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const wordNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

var errPartNotFound = errors.New("part not found")

const (
	documentPart = "word/document.xml"
	stylesPart   = "word/styles.xml"
)

// node is a minimal element tree over WordprocessingML. Only w:t elements keep
// their character data.
type node struct {
	name     xml.Name
	attrs    []xml.Attr
	children []*node
	text     string
}

func (n *node) is(local string) bool {
	return n.name.Space == wordNS && n.name.Local == local
}

func (n *node) attr(local string) string {
	for _, a := range n.attrs {
		if a.Name.Space == wordNS && a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

func (n *node) child(local string) *node {
	for _, c := range n.children {
		if c.is(local) {
			return c
		}
	}
	return nil
}

// walk visits n and its descendants in document order until fn returns false.
func (n *node) walk(fn func(*node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, c := range n.children {
		if !c.walk(fn) {
			return false
		}
	}
	return true
}

// runs returns the text of every w:t below n, and whether there was any.
func (n *node) runs() (string, bool) {
	var b strings.Builder
	found := false
	n.walk(func(c *node) bool {
		if c.is("t") {
			found = true
			b.WriteString(c.text)
		}
		return true
	})
	return b.String(), found
}

// without returns a copy of the tree with every element named local removed
// together with its subtree. The receiver is left untouched.
func (n *node) without(local string) *node {
	out := &node{name: n.name, attrs: n.attrs, text: n.text}
	for _, c := range n.children {
		if c.is(local) {
			continue
		}
		out.children = append(out.children, c.without(local))
	}
	return out
}

func decodeTree(r io.Reader) (*node, error) {
	dec := xml.NewDecoder(r)
	root := &node{}
	stack := []*node{root}
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n := &node{name: t.Name, attrs: t.Attr}
			parent := stack[len(stack)-1]
			parent.children = append(parent.children, n)
			stack = append(stack, n)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if top := stack[len(stack)-1]; top.is("t") {
				top.text += string(t)
			}
		}
	}
	if len(root.children) == 0 {
		return nil, fmt.Errorf("no root element")
	}
	return root, nil
}

func readPart(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("%s: %w", name, errPartNotFound)
}

func parseXML(data []byte) (*Document, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}

	raw, err := readPart(zr, documentPart)
	if err != nil {
		if errors.Is(err, errPartNotFound) {
			return nil, ErrNoDocument
		}
		return nil, err
	}
	root, err := decodeTree(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", documentPart, err)
	}

	styles := readStyles(zr)

	doc := &Document{HasStyles: true}
	prose := root.without("tbl")
	doc.Paragraphs = collectParagraphs(prose, styles)
	doc.Links = collectLinks(prose)
	doc.FirstPage = firstPage(root)
	return doc, nil
}

// styleNames maps style ids to display names, with the default paragraph
// style under the empty id.
type styleNames map[string]string

func (s styleNames) name(id string) string {
	if name, ok := s[id]; ok {
		return name
	}
	return id
}

// readStyles is optional: a package without a readable styles part still has
// style ids on its paragraphs.
func readStyles(zr *zip.Reader) styleNames {
	names := styleNames{}
	raw, err := readPart(zr, stylesPart)
	if err != nil {
		return names
	}
	root, err := decodeTree(bytes.NewReader(raw))
	if err != nil {
		return names
	}
	root.walk(func(n *node) bool {
		if !n.is("style") {
			return true
		}
		id := n.attr("styleId")
		name := id
		if nm := n.child("name"); nm != nil && nm.attr("val") != "" {
			name = nm.attr("val")
		}
		names[id] = name
		if n.attr("type") == "paragraph" && (n.attr("default") == "1" || n.attr("default") == "true") {
			names[""] = name
		}
		return true
	})
	return names
}

// collectParagraphs lists every paragraph that has at least one text run.
// Bookmarks on textless paragraphs, or between paragraphs, attach to the next
// paragraph that is kept.
func collectParagraphs(root *node, styles styleNames) []Paragraph {
	var (
		out     []Paragraph
		pending []string
	)

	var visit func(n *node, inParagraph bool)
	visit = func(n *node, inParagraph bool) {
		for _, c := range n.children {
			switch {
			case c.is("p"):
				text, ok := c.runs()
				marks := bookmarksIn(c)
				if ok {
					out = append(out, Paragraph{
						Text:      text,
						Style:     styles.name(paragraphStyle(c)),
						Bookmarks: append(pending, marks...),
					})
					pending = nil
				} else {
					pending = append(pending, marks...)
				}
				visit(c, true)
			case c.is("bookmarkStart") && !inParagraph:
				if name := c.attr("name"); name != "" {
					pending = append(pending, name)
				}
			default:
				visit(c, inParagraph)
			}
		}
	}
	visit(root, false)
	return out
}

func paragraphStyle(p *node) string {
	if ppr := p.child("pPr"); ppr != nil {
		if ps := ppr.child("pStyle"); ps != nil {
			return ps.attr("val")
		}
	}
	return ""
}

func bookmarksIn(p *node) []string {
	var names []string
	p.walk(func(n *node) bool {
		if n.is("bookmarkStart") {
			if name := n.attr("name"); name != "" {
				names = append(names, name)
			}
		}
		return true
	})
	return names
}

func collectLinks(root *node) []Link {
	var links []Link
	root.walk(func(n *node) bool {
		if !n.is("hyperlink") {
			return true
		}
		if anchor := n.attr("anchor"); anchor != "" {
			text, _ := n.runs()
			links = append(links, Link{Anchor: anchor, Text: text})
		}
		return true
	})
	return links
}

// firstPage approximates the title page: paragraph text in document order,
// tables included, up to the first explicit or last-rendered page break.
func firstPage(root *node) string {
	var body *node
	root.walk(func(n *node) bool {
		if n.is("body") {
			body = n
			return false
		}
		return true
	})
	if body == nil {
		return ""
	}

	var lines []string
	body.walk(func(n *node) bool {
		switch {
		case n.is("br") && n.attr("type") == "page":
			return false
		case n.is("lastRenderedPageBreak"):
			return false
		case n.is("p"):
			if text, ok := n.runs(); ok {
				lines = append(lines, text)
			}
		}
		return true
	})
	return strings.Join(lines, "\n")
}
