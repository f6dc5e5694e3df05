package align

import (
	"fmt"
	"io"
)

// ConfusionSource selects which form of the line confusions are measured against.
type ConfusionSource string

const (
	// ConfusionsNormalized compares the normalized line with its match.
	ConfusionsNormalized ConfusionSource = "normalized"
	// ConfusionsRaw compares the raw line with its match, so every
	// character removed by normalization shows up as a deletion.
	ConfusionsRaw ConfusionSource = "raw"
)

const (
	// DefaultThreshold is the low-confidence cutoff used for reporting.
	DefaultThreshold = 70

	// DefaultTopConfusions is how many pairs the summary lists.
	DefaultTopConfusions = 5

	// ReplacementFloor is the score a match must exceed before a document
	// rewriter puts it in place of the recognized text. It is independent
	// of Threshold.
	ReplacementFloor = 50.0
)

// Config holds the alignment options.
type Config struct {
	Threshold     int             // Scores strictly below this count as low confidence (0-100)
	Script        string          // Script filter, see NewNormalizer
	NFC           bool            // Compose input to NFC before filtering
	Confusions    ConfusionSource // Which form of the line confusions use
	Workers       int             // Lines aligned concurrently (<= 1 means sequential)
	TopConfusions int             // Pairs listed by Aligner.TopConfusions (0 = all)
	Logger        io.Writer       // Per-line progress (nil = silent)
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() Config {
	return Config{
		Threshold:     DefaultThreshold,
		Script:        DefaultScript,
		NFC:           false,
		Confusions:    ConfusionsNormalized,
		Workers:       1,
		TopConfusions: DefaultTopConfusions,
		Logger:        nil,
	}
}

// Validate checks the config values.
func (c Config) Validate() error {
	if c.Threshold < 0 || c.Threshold > 100 {
		return fmt.Errorf("threshold must be between 0 and 100, got %d", c.Threshold)
	}
	switch c.Confusions {
	case "", ConfusionsNormalized, ConfusionsRaw:
	default:
		return fmt.Errorf("unknown confusion source %q (want %q or %q)",
			c.Confusions, ConfusionsNormalized, ConfusionsRaw)
	}
	if c.TopConfusions < 0 {
		return fmt.Errorf("top confusions must not be negative, got %d", c.TopConfusions)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if _, err := ScriptTable(c.Script); err != nil {
		return err
	}
	return nil
}
