// Package hocr reads recognized text lines out of hOCR documents and writes
// corrected text back into them.
//
// hOCR is the HTML-based format in which OCR engines such as Tesseract
// describe a page: Pages → Areas → Paragraphs → Lines → Words, with a
// bounding box and confidence in each element's title attribute.
//
// Key Types:
//
// - Document: A parsed hOCR document that keeps the full HTML tree
// - Line: One element with class 'ocr_line' and its word spans
// - BoundingBox: A rectangle taken from an hOCR 'bbox' property
//
// Main Functions:
//
// - Parse: Parses hOCR data, converting legacy charsets to UTF-8
// - Document.Lines: Lists the document's lines in reading order
// - Document.Apply: Replaces line text with aligned text
// - Document.Render: Serializes the document as UTF-8 HTML
package hocr
