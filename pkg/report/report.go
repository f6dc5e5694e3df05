// Package report writes the results of an alignment run: the alignment
// table, the matched text, the confusion table and the run summary.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/gardar/ocralign/pkg/align"
)

// AlignmentHeader is the header row of the alignment table.
var AlignmentHeader = []string{"OCR Line", "Best Match", "Score", "Start Index", "Final Match"}

// ConfusionHeader is the header row of the confusion table.
var ConfusionHeader = []string{"Confused Char", "Confused With", "Count"}

// Paths are the files written for one run.
type Paths struct {
	Alignment  string
	Text       string
	Confusions string
	Summary    string
}

// NewRunID returns a short random identifier for output file names.
func NewRunID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// PathsFor names the output files of run id inside dir.
func PathsFor(dir, id string) Paths {
	return Paths{
		Alignment:  filepath.Join(dir, fmt.Sprintf("alignment_%s.csv", id)),
		Text:       filepath.Join(dir, fmt.Sprintf("alignment_%s.txt", id)),
		Confusions: filepath.Join(dir, fmt.Sprintf("confusions_%s.csv", id)),
		Summary:    filepath.Join(dir, fmt.Sprintf("summary_%s.yml", id)),
	}
}

// FormatScore renders a score in its shortest exact decimal form.
func FormatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}

// WriteAlignment writes the alignment table.
func WriteAlignment(w io.Writer, lines []align.LineResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(AlignmentHeader); err != nil {
		return err
	}
	for _, l := range lines {
		row := []string{l.Raw, l.Match, FormatScore(l.Score), strconv.Itoa(l.Offset), l.Final}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteText writes the final text of every line, one per line, in order.
func WriteText(w io.Writer, lines []align.LineResult) error {
	for _, l := range lines {
		if _, err := io.WriteString(w, l.Final+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// WriteConfusions writes the confusion table by descending count. Absent
// characters are written as empty cells.
func WriteConfusions(w io.Writer, counts *align.ConfusionCount) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ConfusionHeader); err != nil {
		return err
	}
	for _, e := range counts.Ranked() {
		row := []string{e.Pair.SourceString(), e.Pair.TargetString(), strconv.Itoa(e.Count)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSummary writes the run summary as YAML.
func WriteSummary(w io.Writer, s align.Summary) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encoding summary: %w", err)
	}
	return enc.Close()
}

// WriteRun writes all output files of a run into dir, creating it if
// needed, and returns their paths.
func WriteRun(dir, id string, run *align.Run) (Paths, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return Paths{}, fmt.Errorf("failed to create output directory: %w", err)
	}
	paths := PathsFor(dir, id)

	writers := []struct {
		path  string
		write func(io.Writer) error
	}{
		{paths.Alignment, func(w io.Writer) error { return WriteAlignment(w, run.Lines) }},
		{paths.Text, func(w io.Writer) error { return WriteText(w, run.Lines) }},
		{paths.Confusions, func(w io.Writer) error { return WriteConfusions(w, run.Confusions) }},
		{paths.Summary, func(w io.Writer) error { return WriteSummary(w, run.Summary) }},
	}
	for _, out := range writers {
		if err := writeFile(out.path, out.write); err != nil {
			return paths, err
		}
	}
	return paths, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
