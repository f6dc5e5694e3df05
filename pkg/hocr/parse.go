package hocr

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
)

// Document is a parsed hOCR document.
type Document struct {
	root  *html.Node
	lines []*Line
}

// Parse converts raw hOCR data into a Document. Data declaring a charset
// other than UTF-8 is decoded first; an unknown charset is treated as
// ISO-8859-1.
func Parse(data []byte) (*Document, error) {
	decoded := data
	if enc := declaredCharset(data); enc != "" && enc != "utf-8" && enc != "utf8" {
		decoder := charmap.ISO8859_1.NewDecoder()
		if e, err := htmlindex.Get(enc); err == nil {
			decoder = e.NewDecoder()
		}
		var err error
		if decoded, err = decoder.Bytes(data); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", enc, err)
		}
	}

	root, err := html.Parse(bytes.NewReader(decoded))
	if err != nil {
		return nil, fmt.Errorf("failed to parse hOCR: %w", err)
	}

	doc := &Document{root: root}
	page := -1
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch {
			case hasClass(n, ClassPage):
				page++
			case hasClass(n, ClassLine):
				if line := processLine(n, page); line.Text != "" {
					doc.lines = append(doc.lines, line)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	if page < 0 {
		return nil, fmt.Errorf("no ocr_page elements found in hOCR data")
	}
	return doc, nil
}

// Lines returns the document's lines in document order. Lines without
// text are not listed.
func (d *Document) Lines() []*Line { return d.lines }

// Texts returns the text of every line in document order.
func (d *Document) Texts() []string {
	out := make([]string, len(d.lines))
	for i, l := range d.lines {
		out[i] = l.Text
	}
	return out
}

// processLine extracts line information and its words
func processLine(n *html.Node, page int) *Line {
	line := &Line{node: n, Page: page, ID: getAttrVal(n, "id")}
	if bbox := ParseBoundingBoxFromTitle(getAttrVal(n, "title")); bbox != nil {
		line.BBox = *bbox
	}

	var findWords func(*html.Node)
	findWords = func(c *html.Node) {
		if c.Type == html.ElementNode && hasClass(c, ClassWord) {
			line.words = append(line.words, c)
			return
		}
		for cc := c.FirstChild; cc != nil; cc = cc.NextSibling {
			findWords(cc)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		findWords(c)
	}

	if len(line.words) == 0 {
		line.Text = strings.Join(strings.Fields(extractTextContent(n)), " ")
		return line
	}

	var texts []string
	var confSum float64
	var confN int
	for _, w := range line.words {
		if t := extractTextContent(w); t != "" {
			texts = append(texts, t)
		}
		if conf, ok := ParseTitle(getAttrVal(w, "title"))["x_wconf"]; ok && len(conf) > 0 {
			if v, err := strconv.ParseFloat(conf[0], 64); err == nil {
				confSum += v
				confN++
			}
		}
	}
	line.Text = strings.Join(texts, " ")
	if confN > 0 {
		line.Confidence = confSum / float64(confN)
	}
	return line
}

// ParseTitle breaks down an hOCR title attribute into its components
// Example input: "bbox 100 200 300 400; x_wconf 95"
func ParseTitle(title string) map[string][]string {
	result := make(map[string][]string)
	for _, part := range strings.Split(title, ";") {
		items := strings.Fields(part)
		if len(items) > 0 {
			result[items[0]] = items[1:]
		}
	}
	return result
}

// ParseBoundingBoxFromTitle extracts a bounding box from a title string
// Returns nil if the title has no complete bbox property
func ParseBoundingBoxFromTitle(title string) *BoundingBox {
	bbox, ok := ParseTitle(title)["bbox"]
	if !ok || len(bbox) < 4 {
		return nil
	}
	var v [4]float64
	for i := range v {
		f, err := strconv.ParseFloat(bbox[i], 64)
		if err != nil {
			return nil
		}
		v[i] = f
	}
	return &BoundingBox{X1: v[0], Y1: v[1], X2: v[2], Y2: v[3]}
}

// declaredCharset finds the charset named in a meta tag, lower-cased.
func declaredCharset(data []byte) string {
	lower := bytes.ToLower(data)
	i := bytes.Index(lower, []byte("charset="))
	if i < 0 {
		return ""
	}
	rest := bytes.TrimLeft(lower[i+len("charset="):], `"' `)
	end := bytes.IndexFunc(rest, func(r rune) bool {
		return r == '"' || r == ';' || r == '\'' || r == '>' || r == ' ' || r == '/'
	})
	if end >= 0 {
		rest = rest[:end]
	}
	return string(rest)
}

// extractTextContent gets all text from a node and its children
func extractTextContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return strings.TrimSpace(n.Data)
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(extractTextContent(c))
	}
	return strings.TrimSpace(sb.String())
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(getAttrVal(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// Get the value of a specific attribute from a node
func getAttrVal(n *html.Node, attrName string) string {
	for _, attr := range n.Attr {
		if attr.Key == attrName {
			return attr.Val
		}
	}
	return ""
}

func setAttrVal(n *html.Node, attrName, val string) {
	for i, attr := range n.Attr {
		if attr.Key == attrName {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: attrName, Val: val})
}
