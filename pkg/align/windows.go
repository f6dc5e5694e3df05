package align

import (
	"strings"
	"unicode"
)

// Word is one reference word with the rune offset of its first rune in the
// normalized reference text.
type Word struct {
	Text   string
	Offset int
}

// Reference is the normalized reference split into words. It is never
// modified after construction and may be shared between goroutines.
type Reference struct {
	text  string
	words []Word
	texts []string
}

// NewReference splits an already normalized reference into words.
func NewReference(normalized string) *Reference {
	ref := &Reference{text: normalized}

	start := -1
	var word []rune
	pos := 0
	for _, r := range normalized {
		if unicode.IsSpace(r) {
			if start >= 0 {
				ref.words = append(ref.words, Word{Text: string(word), Offset: start})
				start, word = -1, word[:0]
			}
		} else {
			if start < 0 {
				start = pos
			}
			word = append(word, r)
		}
		pos++
	}
	if start >= 0 {
		ref.words = append(ref.words, Word{Text: string(word), Offset: start})
	}

	ref.texts = make([]string, len(ref.words))
	for i, w := range ref.words {
		ref.texts[i] = w.Text
	}
	return ref
}

// Text returns the normalized reference text.
func (r *Reference) Text() string { return r.text }

// Len returns the number of words.
func (r *Reference) Len() int { return len(r.words) }

// Words returns the word texts in order.
func (r *Reference) Words() []string {
	return append([]string(nil), r.texts...)
}

// BuildWindows returns every run of size consecutive words joined by single
// spaces, left to right. It returns nothing when size exceeds len(words) or
// is not positive.
func BuildWindows(words []string, size int) []string {
	if size <= 0 || size > len(words) {
		return nil
	}
	out := make([]string, 0, len(words)-size+1)
	for i := 0; i+size <= len(words); i++ {
		out = append(out, strings.Join(words[i:i+size], " "))
	}
	return out
}

// Candidate is a reference window considered as a match for one line.
type Candidate struct {
	Text   string
	Size   int // words in the window
	Start  int // index of the first word
	Offset int // rune offset of the first word in the normalized reference
}

// WindowSizes returns the window sizes tried for a line of tokens words:
// tokens-1, tokens and tokens+1, keeping positive values only.
func WindowSizes(tokens int) []int {
	var sizes []int
	for _, s := range []int{tokens - 1, tokens, tokens + 1} {
		if s > 0 {
			sizes = append(sizes, s)
		}
	}
	return sizes
}

// Candidates builds the deduplicated candidate set for a line of tokens
// words. Sizes are visited in increasing order and a window whose text was
// already seen is dropped, so every text keeps its first occurrence.
func (r *Reference) Candidates(tokens int) []Candidate {
	seen := make(map[string]struct{})

	var out []Candidate
	for _, size := range WindowSizes(tokens) {
		for i, text := range BuildWindows(r.texts, size) {
			if _, dup := seen[text]; dup {
				continue
			}
			seen[text] = struct{}{}
			out = append(out, Candidate{
				Text:   text,
				Size:   size,
				Start:  i,
				Offset: r.words[i].Offset,
			})
		}
	}
	return out
}
