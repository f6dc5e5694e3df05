// Package pagexml reads text lines from PAGE-XML documents and writes
// aligned text back into them.
//
// PAGE (Page Analysis and Ground-truth Elements) files describe a scanned
// page as regions and TextLine elements. Each recognized line carries its
// text in TextLine/TextEquiv/Unicode. The schema namespace changed with
// every published version, so the namespace is detected per document and
// elements are matched by local name.
//
// Main Functions:
//
// - Parse: Parses a PAGE-XML document and collects its text lines
// - DetectNamespace: Reports the PAGE schema namespace of a document
// - Document.Apply: Replaces line text with aligned text
// - Document.Render: Serializes the document as UTF-8 XML
package pagexml

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/gardar/ocralign/pkg/align"
)

// Namespaces maps published PAGE schema versions to their namespace.
var Namespaces = map[string]string{
	"2009-03-16": "http://schema.primaresearch.org/PAGE/gts/pagecontent/2009-03-16",
	"2010-01-12": "http://schema.primaresearch.org/PAGE/gts/pagecontent/2010-01-12",
	"2010-03-19": "http://schema.primaresearch.org/PAGE/gts/pagecontent/2010-03-19",
	"2013-07-15": "http://schema.primaresearch.org/PAGE/gts/pagecontent/2013-07-15",
	"2014-08-26": "http://schema.primaresearch.org/PAGE/gts/pagecontent/2014-08-26",
	"2016-07-15": "http://schema.primaresearch.org/PAGE/gts/pagecontent/2016-07-15",
	"2017-07-15": "http://schema.primaresearch.org/PAGE/gts/pagecontent/2017-07-15",
	"2018-07-15": "http://schema.primaresearch.org/PAGE/gts/pagecontent/2018-07-15",
	"2019-07-15": "http://schema.primaresearch.org/PAGE/gts/pagecontent/2019-07-15",
}

// DefaultNamespace is assumed when a document declares none.
const DefaultNamespace = "http://schema.primaresearch.org/PAGE/gts/pagecontent/2019-07-15"

// Queries match on local names so every PAGE namespace version works.
var (
	rootExpr       = xpath.MustCompile("/*")
	textLineExpr   = xpath.MustCompile("//*[local-name()='TextLine']")
	textEquivExpr  = xpath.MustCompile("./*[local-name()='TextEquiv']/*[local-name()='Unicode']")
	unicodeExpr    = xpath.MustCompile("./*[local-name()='Unicode']")
	lastChangeExpr = xpath.MustCompile("//*[local-name()='Metadata']/*[local-name()='LastChange']")
)

const xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

// TextLine is one TextLine element that carries text.
type TextLine struct {
	ID   string // Element id, may be empty
	Text string // Trimmed content of the line's Unicode element

	unicode *xmlquery.Node
}

// Document is a parsed PAGE-XML document.
type Document struct {
	Namespace string // Detected schema namespace

	root  *xmlquery.Node
	lines []*TextLine
}

// Parse reads a PAGE-XML document. TextLine elements without text are
// not listed.
func Parse(r io.Reader) (*Document, error) {
	root, err := xmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing PAGE-XML: %w", err)
	}

	doc := &Document{root: root, Namespace: DetectNamespace(root)}
	for _, tl := range xmlquery.QuerySelectorAll(root, textLineExpr) {
		u := lineUnicode(tl)
		if u == nil {
			continue
		}
		text := strings.TrimSpace(u.InnerText())
		if text == "" {
			continue
		}
		doc.lines = append(doc.lines, &TextLine{
			ID:      tl.SelectAttr("id"),
			Text:    text,
			unicode: u,
		})
	}
	return doc, nil
}

// ParseFile reads a PAGE-XML file.
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// DetectNamespace returns the namespace of the document element, falling
// back to the xmlns attribute and then to DefaultNamespace.
func DetectNamespace(root *xmlquery.Node) string {
	el := xmlquery.QuerySelector(root, rootExpr)
	if el == nil {
		return DefaultNamespace
	}
	if el.NamespaceURI != "" {
		return el.NamespaceURI
	}
	if xmlns := el.SelectAttr("xmlns"); xmlns != "" {
		for _, ns := range Namespaces {
			if strings.Contains(xmlns, ns) {
				return ns
			}
		}
		return xmlns
	}
	return DefaultNamespace
}

// Version returns the PAGE schema version of the namespace, or "" when it
// is not a published one.
func (d *Document) Version() string {
	for v, ns := range Namespaces {
		if ns == d.Namespace {
			return v
		}
	}
	return ""
}

// Lines returns the text lines in document order.
func (d *Document) Lines() []*TextLine { return d.lines }

// Texts returns the text of every line in document order.
func (d *Document) Texts() []string {
	out := make([]string, len(d.lines))
	for i, l := range d.lines {
		out[i] = l.Text
	}
	return out
}

// lineUnicode finds TextEquiv/Unicode under a line, or a Unicode element
// directly under it.
func lineUnicode(tl *xmlquery.Node) *xmlquery.Node {
	if u := xmlquery.QuerySelector(tl, textEquivExpr); u != nil {
		return u
	}
	return xmlquery.QuerySelector(tl, unicodeExpr)
}

// Apply writes aligned text into the lines, pairing results with lines by
// index, and returns the number of lines changed. A line is changed only
// when its result asks for a replacement (see align.LineResult.Replacement).
// When any line changed, Metadata/LastChange is set to now.
func (d *Document) Apply(results []align.LineResult, now time.Time, logger io.Writer) int {
	changed := 0
	for i, line := range d.lines {
		if i >= len(results) {
			break
		}
		text, ok := results[i].Replacement()
		if !ok {
			if logger != nil {
				fmt.Fprintf(logger, "Kept line %d: '%s' (score: %.2f)\n", i+1, line.Text, results[i].Score)
			}
			continue
		}
		if logger != nil {
			fmt.Fprintf(logger, "Updated line %d: '%s' -> '%s' (score: %.2f)\n", i+1, line.Text, text, results[i].Score)
		}
		line.SetText(text)
		changed++
	}
	if changed > 0 {
		d.touch(now)
	}
	return changed
}

// SetText replaces the content of the line's Unicode element.
func (l *TextLine) SetText(text string) {
	setText(l.unicode, text)
	l.Text = text
}

func (d *Document) touch(now time.Time) {
	if lc := xmlquery.QuerySelector(d.root, lastChangeExpr); lc != nil {
		setText(lc, now.Format(time.RFC3339))
	}
}

func setText(n *xmlquery.Node, text string) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		xmlquery.RemoveFromTree(c)
		c = next
	}
	xmlquery.AddChild(n, &xmlquery.Node{Type: xmlquery.TextNode, Data: text})
}

// Render writes the document as UTF-8 XML with a standalone declaration.
func (d *Document) Render(w io.Writer) error {
	el := xmlquery.QuerySelector(d.root, rootExpr)
	if el == nil {
		return fmt.Errorf("PAGE-XML document has no root element")
	}
	if _, err := io.WriteString(w, xmlHeader+el.OutputXML(true)+"\n"); err != nil {
		return fmt.Errorf("writing PAGE-XML: %w", err)
	}
	return nil
}

// Bytes renders the document into a byte slice.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
