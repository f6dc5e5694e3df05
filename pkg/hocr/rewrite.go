package hocr

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/gardar/ocralign/pkg/align"
)

// Apply writes aligned text into the document's lines, pairing results
// with lines by index. A line is changed only when its result asks for a
// replacement (see align.LineResult.Replacement). It returns the number of
// lines changed. Progress goes to logger when it is not nil.
func (d *Document) Apply(results []align.LineResult, logger io.Writer) int {
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
	return changed
}

// SetText replaces the line's text. When the new text has as many words as
// the line has word spans, each span gets one word and keeps its box.
// Otherwise the first span receives the whole text with the line's box and
// the other spans are removed.
func (l *Line) SetText(text string) {
	words := strings.Fields(text)
	l.Text = strings.Join(words, " ")

	if len(l.words) == 0 {
		replaceChildren(l.node, l.Text)
		return
	}

	if len(words) == len(l.words) {
		for i, w := range l.words {
			replaceChildren(w, words[i])
		}
		return
	}

	first := l.words[0]
	replaceChildren(first, l.Text)
	if !l.BBox.IsZero() {
		setAttrVal(first, "title", fmt.Sprintf("bbox %d %d %d %d",
			int(l.BBox.X1), int(l.BBox.Y1), int(l.BBox.X2), int(l.BBox.Y2)))
	}
	for _, w := range l.words[1:] {
		if prev := w.PrevSibling; prev != nil && prev.Type == html.TextNode && strings.TrimSpace(prev.Data) == "" {
			w.Parent.RemoveChild(prev)
		}
		w.Parent.RemoveChild(w)
	}
	l.words = l.words[:1]
}

// Render serializes the document as UTF-8 HTML. A declared charset is
// rewritten to utf-8 so it matches the output.
func (d *Document) Render(w io.Writer) error {
	markUTF8(d.root)
	if err := html.Render(w, d.root); err != nil {
		return fmt.Errorf("error rendering hOCR: %w", err)
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

func replaceChildren(n *html.Node, text string) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}

func markUTF8(n *html.Node) {
	if n.Type == html.ElementNode && n.DataAtom == atom.Meta {
		for i, a := range n.Attr {
			switch {
			case a.Key == "charset":
				n.Attr[i].Val = "utf-8"
			case a.Key == "content" && strings.Contains(strings.ToLower(a.Val), "charset="):
				n.Attr[i].Val = "text/html; charset=utf-8"
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		markUTF8(c)
	}
}
