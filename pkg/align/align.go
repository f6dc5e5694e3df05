// Package align matches noisy OCR lines against a clean reference text in
// the same script.
//
// Each recognized line is normalized and compared with every window of
// reference words whose length is within one word of the line's own word
// count. The best window becomes the line's proposed text, with a
// similarity score in [0,100] and the window's position in the reference.
// The character differences between each line and its match are tallied as
// confusion pairs, which show how the recognizer tends to fail.
//
// Key Features:
//
// - Script filtering of both sides (Hebrew by default, any Unicode script or code point range)
// - Candidate windows of n-1, n and n+1 words with stable deduplication
// - Deterministic best-match selection, ties going to the earliest candidate
// - Substitution, insertion and deletion pairs from a character edit script
// - Optional concurrent evaluation of lines with ordered, reproducible output
//
// Main Functions:
//
// - New: Creates an Aligner from a Config
// - Aligner.Run: Aligns an ordered list of lines against a reference
// - BuildWindows: Builds the word windows of one size
// - SelectBest: Picks the best scoring candidate for a line
// - ExtractConfusions: Lists the character confusions between two strings
package align

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/sync/errgroup"
)

// LineResult is the outcome of aligning one line.
type LineResult struct {
	Index      int     // Position of the line in the input (0-based)
	Raw        string  // Line as recognized
	Normalized string  // Line after normalization
	Match      string  // Best reference window, "" when no window existed
	Score      float64 // Similarity of Match to Normalized (0-100)
	Offset     int     // Rune offset of Match in the normalized reference, -1 when skipped
	Final      string  // Text to use downstream; starts as Match, reviewers may change it
	Skipped    bool    // No candidate window existed for this line
}

// Replacement returns the text a document rewriter should write for the
// line and whether it should be written at all: only when the final text
// differs from the recognized text and the score exceeds ReplacementFloor.
func (r LineResult) Replacement() (string, bool) {
	if r.Final != r.Raw && r.Score > ReplacementFloor {
		return r.Final, true
	}
	return r.Raw, false
}

// Summary holds the aggregate statistics of a run.
type Summary struct {
	LinesProcessed          int     `yaml:"lines_processed" json:"lines_processed"`
	AverageScore            float64 `yaml:"average_score" json:"average_score"`
	LowConfidenceCount      int     `yaml:"low_confidence_count" json:"low_confidence_count"`
	LowConfidencePercentage float64 `yaml:"low_confidence_percentage" json:"low_confidence_percentage"`
	Threshold               int     `yaml:"threshold" json:"threshold"`
	SkippedLines            int     `yaml:"skipped_lines" json:"skipped_lines"`
}

// Run is the complete result of one alignment pass.
type Run struct {
	Lines      []LineResult
	Confusions *ConfusionCount
	Summary    Summary
	Reference  *Reference
}

// Aligner runs alignments with one configuration. It holds no per-run
// state and may be used by several goroutines.
type Aligner struct {
	cfg  Config
	norm *Normalizer
}

// New validates cfg and returns an Aligner.
func New(cfg Config) (*Aligner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid alignment config: %w", err)
	}
	if cfg.Confusions == "" {
		cfg.Confusions = ConfusionsNormalized
	}
	n, err := NewNormalizer(cfg.Script, cfg.NFC)
	if err != nil {
		return nil, err
	}
	return &Aligner{cfg: cfg, norm: n}, nil
}

// Config returns the configuration the Aligner was built with.
func (a *Aligner) Config() Config { return a.cfg }

// Normalize applies the configured script filter.
func (a *Aligner) Normalize(text string) string { return a.norm.Normalize(text) }

// Reference normalizes a raw reference text and splits it into words.
func (a *Aligner) Reference(raw string) *Reference {
	return NewReference(a.norm.Normalize(raw))
}

// Run aligns lines, in order, against the raw reference text.
//
// A reference without any word is not an error: every line then gets a
// skipped zero-score result. Run only fails when ctx is done.
func (a *Aligner) Run(ctx context.Context, lines []string, reference string) (*Run, error) {
	return a.RunReference(ctx, lines, a.Reference(reference))
}

// RunReader reads the reference from r before aligning. A read failure
// aborts with ErrReferenceUnavailable.
func (a *Aligner) RunReader(ctx context.Context, lines []string, r io.Reader) (*Run, error) {
	if r == nil {
		return nil, ErrReferenceUnavailable
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReferenceUnavailable, err)
	}
	return a.Run(ctx, lines, string(data))
}

// RunReference aligns lines against an already built reference, which lets
// a batch of documents share one reference.
func (a *Aligner) RunReference(ctx context.Context, lines []string, ref *Reference) (*Run, error) {
	if ref == nil {
		return nil, ErrReferenceUnavailable
	}

	results := make([]LineResult, len(lines))
	pairs := make([][]ConfusionPair, len(lines))

	if a.cfg.Workers <= 1 {
		for i, line := range lines {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			results[i], pairs[i] = a.AlignLine(ref, i, line)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(a.cfg.Workers)
		for i, line := range lines {
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				results[i], pairs[i] = a.AlignLine(ref, i, line)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	counts := NewConfusionCount()
	for i, p := range pairs {
		counts.Add(p...)
		a.logLine(results[i])
	}

	return &Run{
		Lines:      results,
		Confusions: counts,
		Summary:    Summarize(results, a.cfg.Threshold),
		Reference:  ref,
	}, nil
}

// AlignLine aligns a single line and returns its result and confusions.
// A line for which the reference has no window gets a skipped result with
// an empty match and a zero score.
func (a *Aligner) AlignLine(ref *Reference, index int, raw string) (LineResult, []ConfusionPair) {
	normalized := a.norm.Normalize(raw)
	res := LineResult{
		Index:      index,
		Raw:        raw,
		Normalized: normalized,
		Offset:     -1,
	}

	candidates := ref.Candidates(len(strings.Fields(normalized)))
	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.Text
	}

	match, score, idx, err := SelectBest(normalized, texts)
	if errors.Is(err, ErrNoCandidates) {
		res.Skipped = true
		return res, nil
	}

	res.Match = match
	res.Final = match
	res.Score = score
	res.Offset = candidates[idx].Offset

	source := normalized
	if a.cfg.Confusions == ConfusionsRaw {
		source = raw
	}
	return res, ExtractConfusions(source, match)
}

// TopConfusions returns the configured number of most frequent pairs.
func (a *Aligner) TopConfusions(run *Run) []ConfusionEntry {
	return run.Confusions.Top(a.cfg.TopConfusions)
}

func (a *Aligner) logLine(r LineResult) {
	if a.cfg.Logger == nil {
		return
	}
	if r.Skipped {
		fmt.Fprintf(a.cfg.Logger, "Skipped line %d: %q (no candidate windows)\n", r.Index+1, r.Raw)
		return
	}
	fmt.Fprintf(a.cfg.Logger, "Aligned line %d: %q -> %q (score: %.2f)\n", r.Index+1, r.Raw, r.Match, r.Score)
}

// MergeRuns joins the runs of several documents aligned against the same
// reference, in the given order, and recomputes the summary over all lines.
func MergeRuns(threshold int, runs ...*Run) *Run {
	merged := &Run{Confusions: NewConfusionCount()}
	for _, r := range runs {
		if r == nil {
			continue
		}
		if merged.Reference == nil {
			merged.Reference = r.Reference
		}
		merged.Lines = append(merged.Lines, r.Lines...)
		merged.Confusions.Merge(r.Confusions)
	}
	merged.Summary = Summarize(merged.Lines, threshold)
	return merged
}

// Summarize computes the aggregate statistics of a set of results. Scores
// strictly below threshold count as low confidence.
func Summarize(results []LineResult, threshold int) Summary {
	s := Summary{LinesProcessed: len(results), Threshold: threshold}
	if len(results) == 0 {
		return s
	}

	var total float64
	for _, r := range results {
		total += r.Score
		if r.Score < float64(threshold) {
			s.LowConfidenceCount++
		}
		if r.Skipped {
			s.SkippedLines++
		}
	}
	s.AverageScore = total / float64(len(results))
	s.LowConfidencePercentage = float64(s.LowConfidenceCount) / float64(len(results)) * 100
	return s
}
