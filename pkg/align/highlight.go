package align

import (
	"strings"

	"golang.org/x/net/html"
)

const (
	deletedSpan  = `<span class="del" style="color:red;font-weight:bold">`
	insertedSpan = `<span class="ins" style="color:green;font-weight:bold">`
	closeSpan    = `</span>`
)

// Highlight renders the character diff of a against b as HTML. Characters
// only in a are wrapped in red spans, characters only in b in green spans;
// a substitution shows the red character followed by the green one.
func Highlight(a, b string) string {
	var sb strings.Builder
	for _, s := range pairSteps(a, b) {
		switch s.kind {
		case stepEqual:
			sb.WriteString(html.EscapeString(string(s.a)))
		case stepDelete:
			writeSpan(&sb, deletedSpan, s.a)
		case stepInsert:
			writeSpan(&sb, insertedSpan, s.b)
		case stepSubstitute:
			writeSpan(&sb, deletedSpan, s.a)
			writeSpan(&sb, insertedSpan, s.b)
		}
	}
	return sb.String()
}

func writeSpan(sb *strings.Builder, open string, r rune) {
	sb.WriteString(open)
	sb.WriteString(html.EscapeString(string(r)))
	sb.WriteString(closeSpan)
}
