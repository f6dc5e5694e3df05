package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/gardar/ocralign/pkg/align"
)

// AbsentMark stands for a missing character in console output.
const AbsentMark = "∅"

// Console prints run summaries for people.
type Console struct {
	out    io.Writer
	title  *color.Color
	good   *color.Color
	warn   *color.Color
	accent *color.Color
}

// NewConsole returns a Console that writes to out. With noColor set no
// escape sequences are written.
func NewConsole(out io.Writer, noColor bool) *Console {
	c := &Console{
		out:    out,
		title:  color.New(color.FgCyan, color.Bold),
		good:   color.New(color.FgGreen),
		warn:   color.New(color.FgYellow),
		accent: color.New(color.FgMagenta),
	}
	if noColor {
		for _, col := range []*color.Color{c.title, c.good, c.warn, c.accent} {
			col.DisableColor()
		}
	}
	return c
}

// Summary prints the summary report and the top confusions.
func (c *Console) Summary(s align.Summary, top []align.ConfusionEntry) {
	c.title.Fprintln(c.out, "\nSummary Report")
	fmt.Fprintf(c.out, "- Lines processed: %d\n", s.LinesProcessed)
	fmt.Fprintf(c.out, "- Average score: %.2f\n", s.AverageScore)

	low := c.good
	if s.LowConfidenceCount > 0 {
		low = c.warn
	}
	low.Fprintf(c.out, "- Low-confidence (<%d): %d lines (%.1f%%)\n",
		s.Threshold, s.LowConfidenceCount, s.LowConfidencePercentage)
	if s.SkippedLines > 0 {
		c.warn.Fprintf(c.out, "- Skipped (no candidates): %d lines\n", s.SkippedLines)
	}

	c.title.Fprintf(c.out, "\nTop %d Confusions:\n", len(top))
	for _, e := range top {
		fmt.Fprintf(c.out, "  %s → %s : %d times\n",
			c.accent.Sprint(mark(e.Pair.SourceString())),
			c.accent.Sprint(mark(e.Pair.TargetString())),
			e.Count)
	}
}

// Outputs prints where the run's files were written.
func (c *Console) Outputs(p Paths) {
	c.good.Fprintln(c.out, "\nAlignment complete!")
	fmt.Fprintf(c.out, "- Alignment CSV: %s\n", p.Alignment)
	fmt.Fprintf(c.out, "- Matched text TXT: %s\n", p.Text)
	fmt.Fprintf(c.out, "- Confusion log CSV: %s\n", p.Confusions)
	fmt.Fprintf(c.out, "- Summary YAML: %s\n", p.Summary)
}

func mark(s string) string {
	if s == "" {
		return AbsentMark
	}
	return s
}
