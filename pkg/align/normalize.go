package align

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultScript is the script filter used when none is configured.
const DefaultScript = "hebrew"

// HebrewBlock is the whole Unicode Hebrew block (U+0590..U+05FF):
// letters, final forms, points and cantillation marks.
var HebrewBlock = &unicode.RangeTable{
	R16: []unicode.Range16{{Lo: 0x0590, Hi: 0x05FF, Stride: 1}},
}

// Normalizer keeps the runes of one script plus whitespace and trims the result.
// It is safe for concurrent use.
type Normalizer struct {
	valid *unicode.RangeTable
	nfc   bool
}

// NewNormalizer builds a Normalizer for a script filter.
//
// The filter is "hebrew", a Go Unicode script name such as "Latin" or
// "Arabic", or a comma separated list of hexadecimal code point ranges
// ("0590-05FF,FB1D-FB4F"). With nfc set, input is composed to NFC first.
func NewNormalizer(script string, nfc bool) (*Normalizer, error) {
	table, err := ScriptTable(script)
	if err != nil {
		return nil, err
	}
	return &Normalizer{valid: table, nfc: nfc}, nil
}

// Normalize removes every rune outside the script and whitespace, then trims.
func (n *Normalizer) Normalize(text string) string {
	drop := runes.Remove(runes.Predicate(func(r rune) bool {
		return !n.keep(r)
	}))

	var t transform.Transformer = drop
	if n.nfc {
		t = transform.Chain(norm.NFC, drop)
	}

	out, _, err := transform.String(t, text)
	if err != nil {
		out = strings.Map(func(r rune) rune {
			if n.keep(r) {
				return r
			}
			return -1
		}, text)
	}
	return strings.TrimSpace(out)
}

func (n *Normalizer) keep(r rune) bool {
	return unicode.IsSpace(r) || unicode.Is(n.valid, r)
}

// ScriptTable resolves a script filter name to a range table.
func ScriptTable(script string) (*unicode.RangeTable, error) {
	name := strings.TrimSpace(script)
	if name == "" || strings.EqualFold(name, DefaultScript) {
		return HebrewBlock, nil
	}
	if table, ok := unicode.Scripts[name]; ok {
		return table, nil
	}
	for key, table := range unicode.Scripts {
		if strings.EqualFold(key, name) {
			return table, nil
		}
	}
	return parseRanges(name)
}

// parseRanges reads "0590-05FF,FB1D-FB4F" or single code points like "05BE".
func parseRanges(filter string) (*unicode.RangeTable, error) {
	var ranges []unicode.Range32
	for _, part := range strings.Split(filter, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		loText, hiText, isRange := strings.Cut(part, "-")
		lo, err := parseCodePoint(loText)
		if err != nil {
			return nil, fmt.Errorf("unknown script filter %q: %w", filter, err)
		}
		hi := lo
		if isRange {
			if hi, err = parseCodePoint(hiText); err != nil {
				return nil, fmt.Errorf("unknown script filter %q: %w", filter, err)
			}
		}
		if hi < lo {
			return nil, fmt.Errorf("script filter range %q is reversed", part)
		}
		ranges = append(ranges, unicode.Range32{Lo: lo, Hi: hi, Stride: 1})
	}
	if len(ranges) == 0 {
		return nil, fmt.Errorf("script filter %q has no ranges", filter)
	}

	sort.Slice(ranges, func(i, j int) bool { return ranges[i].Lo < ranges[j].Lo })
	merged := ranges[:1]
	for _, r := range ranges[1:] {
		last := &merged[len(merged)-1]
		if r.Lo <= last.Hi+1 {
			if r.Hi > last.Hi {
				last.Hi = r.Hi
			}
			continue
		}
		merged = append(merged, r)
	}
	return &unicode.RangeTable{R32: merged}, nil
}

func parseCodePoint(s string) (uint32, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "U+"), "u+")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, err
	}
	if v > unicode.MaxRune {
		return 0, fmt.Errorf("code point %X out of range", v)
	}
	return uint32(v), nil
}
