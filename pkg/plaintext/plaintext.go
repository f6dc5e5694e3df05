// Package plaintext reads OCR lines and reference texts from plain text.
//
// OCR line files hold one recognized line per line of text; blank lines are
// dropped and the rest trimmed. Reference files are read whole and may be in
// UTF-8 or a legacy single-byte encoding such as Windows-1255.
package plaintext

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/gardar/ocralign/pkg/align"
)

var legacyEncodings = map[string]encoding.Encoding{
	"windows-1255": charmap.Windows1255,
	"cp1255":       charmap.Windows1255,
	"iso-8859-8":   charmap.ISO8859_8,
	"iso-8859-8-i": charmap.ISO8859_8I,
	"iso-8859-1":   charmap.ISO8859_1,
}

// ReadLines returns the trimmed non-blank lines of r. Input that is not
// valid UTF-8 is rejected with align.ErrMalformedEncoding.
func ReadLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	n := 0
	for scanner.Scan() {
		n++
		raw := scanner.Bytes()
		if !utf8.Valid(raw) {
			return nil, fmt.Errorf("line %d: %w", n, align.ErrMalformedEncoding)
		}
		line := strings.TrimSpace(string(raw))
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read lines: %w", err)
	}
	return lines, nil
}

// ReadLinesFile reads the OCR lines of a text file.
func ReadLinesFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	lines, err := ReadLines(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return lines, nil
}

// DecodeReference converts reference bytes to a string. An empty or "utf-8"
// encoding requires valid UTF-8 (a leading byte order mark is dropped);
// other names are looked up as legacy or WHATWG encoding labels.
func DecodeReference(data []byte, encodingName string) (string, error) {
	name := strings.ToLower(strings.TrimSpace(encodingName))
	if name == "" || name == "utf-8" || name == "utf8" {
		data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
		if !utf8.Valid(data) {
			return "", fmt.Errorf("reference is not valid UTF-8: %w", align.ErrMalformedEncoding)
		}
		return string(data), nil
	}

	enc, ok := legacyEncodings[name]
	if !ok {
		var err error
		if enc, err = htmlindex.Get(name); err != nil {
			return "", fmt.Errorf("unknown reference encoding %q: %w", encodingName, err)
		}
	}
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("failed to decode %s: %w", name, align.ErrMalformedEncoding)
	}
	return string(decoded), nil
}

// ReadReferenceFile reads and decodes a reference file. A file that cannot
// be read is reported as align.ErrReferenceUnavailable.
func ReadReferenceFile(path, encodingName string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", align.ErrReferenceUnavailable, err)
	}
	text, err := DecodeReference(data, encodingName)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return text, nil
}
