// Package gdocai recognizes text lines with Google Document AI.
//
// A PDF or page image is sent to a Document AI OCR processor and the lines
// it detects are returned in page order, ready to be aligned against a
// reference text.
//
// Main Functions:
//
// - ProcessDocument: Sends a document to Google Document AI for processing
// - LinesFromProto: Reads the recognized lines out of a Document AI response
// - RecognizeLines: Processes a document and returns its lines
//
// Usage Requirements:
//
// - Google Cloud project with Document AI API enabled
// - Document AI processor configured for OCR
// - Authentication via GOOGLE_APPLICATION_CREDENTIALS environment variable or Config.CredentialsFile
package gdocai

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
)

// Line is one line recognized by Document AI.
type Line struct {
	Page       int     // Page number (1-based)
	Text       string  // Line text without its trailing break
	Confidence float64 // Detection confidence (0-1)
}

// LinesFromProto returns the non-blank lines of every page in order.
func LinesFromProto(doc *documentaipb.Document) []Line {
	if doc == nil {
		return nil
	}

	text := []rune(doc.Text)
	var lines []Line
	for i, page := range doc.Pages {
		pageNum := int(page.PageNumber)
		if pageNum == 0 {
			pageNum = i + 1
		}
		for _, l := range page.Lines {
			text := strings.TrimSpace(layoutText(l.Layout, text))
			if text == "" {
				continue
			}
			line := Line{Page: pageNum, Text: text}
			if l.Layout != nil {
				line.Confidence = float64(l.Layout.Confidence)
			}
			lines = append(lines, line)
		}
	}
	return lines
}

// layoutText joins the text segments a layout points at. Segment indexes
// count runes of the document text and are clamped to it.
func layoutText(layout *documentaipb.Document_Page_Layout, text []rune) string {
	if layout == nil || layout.TextAnchor == nil {
		return ""
	}
	var sb strings.Builder
	for _, seg := range layout.TextAnchor.TextSegments {
		end := max(min(int(seg.EndIndex), len(text)), 0)
		start := min(max(int(seg.StartIndex), 0), end)
		sb.WriteString(string(text[start:end]))
	}
	return sb.String()
}

// Texts returns only the text of each line.
func Texts(lines []Line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Text
	}
	return out
}

// RecognizeLines processes a document with Document AI and returns its
// lines along with the raw response.
func RecognizeLines(ctx context.Context, content []byte, cfg *Config) ([]Line, *documentaipb.Document, error) {
	raw, err := ProcessDocument(ctx, content, cfg)
	if err != nil {
		return nil, nil, err
	}
	lines := LinesFromProto(raw)
	if len(lines) == 0 {
		return nil, raw, fmt.Errorf("document AI found no text lines")
	}
	return lines, raw, nil
}
