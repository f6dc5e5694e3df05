package hocr

import "golang.org/x/net/html"

// Class names of the hOCR elements this package reads.
const (
	ClassPage = "ocr_page"
	ClassLine = "ocr_line"
	ClassWord = "ocrx_word"
)

// Line is a line of text
// Corresponds to hOCR element with class: 'ocr_line'
type Line struct {
	ID         string      // Element id, may be empty
	Page       int         // Index of the enclosing ocr_page (0-based)
	Text       string      // Word texts joined by single spaces
	BBox       BoundingBox // Line coordinates
	Confidence float64     // Mean x_wconf of the words (0 when absent)

	node  *html.Node
	words []*html.Node
}

// BoundingBox represents a rectangle in the document
// Used to store hOCR 'bbox' property values
type BoundingBox struct {
	X1 float64 // Left coordinate
	Y1 float64 // Top coordinate
	X2 float64 // Right coordinate
	Y2 float64 // Bottom coordinate
}

// IsZero reports whether no bbox was present.
func (b BoundingBox) IsZero() bool { return b == BoundingBox{} }
