package plaintext

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gardar/ocralign/pkg/align"
)

func TestReadLines(t *testing.T) {
	lines, err := ReadLines(strings.NewReader("  אבג דהו \n\n\t\nזחט\r\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"אבג דהו", "זחט"}, lines)

	lines, err = ReadLines(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestReadLinesRejectsInvalidUTF8(t *testing.T) {
	_, err := ReadLines(strings.NewReader("אבג\n\xff\xfe\n"))
	assert.ErrorIs(t, err, align.ErrMalformedEncoding)
	assert.Contains(t, err.Error(), "line 2")
}

func TestDecodeReference(t *testing.T) {
	text, err := DecodeReference([]byte("\xef\xbb\xbfאבג"), "")
	require.NoError(t, err)
	assert.Equal(t, "אבג", text)

	// Alef, bet, gimel in Windows-1255.
	text, err = DecodeReference([]byte{0xE0, 0xE1, 0xE2}, "windows-1255")
	require.NoError(t, err)
	assert.Equal(t, "אבג", text)

	text, err = DecodeReference([]byte{0xE0, 0x20, 0xE1}, "ISO-8859-8")
	require.NoError(t, err)
	assert.Equal(t, "א ב", text)

	_, err = DecodeReference([]byte{0xE0, 0xE1}, "utf-8")
	assert.ErrorIs(t, err, align.ErrMalformedEncoding)

	_, err = DecodeReference([]byte("abc"), "no-such-encoding")
	assert.Error(t, err)
}

func TestReadReferenceFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ref.txt")
	require.NoError(t, os.WriteFile(path, []byte("אבג דהו"), 0644))

	text, err := ReadReferenceFile(path, "")
	require.NoError(t, err)
	assert.Equal(t, "אבג דהו", text)

	_, err = ReadReferenceFile(filepath.Join(dir, "missing.txt"), "")
	assert.ErrorIs(t, err, align.ErrReferenceUnavailable)
}

func TestReadLinesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ocr.txt")
	require.NoError(t, os.WriteFile(path, []byte("אבג\nדהו\n"), 0644))

	lines, err := ReadLinesFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"אבג", "דהו"}, lines)
}
