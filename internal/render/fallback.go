package render

import (
	"regexp"
	"strings"

	"github.com/dgallion1/llmdesk/internal/doctree"
)

var (
	blankLineRe = regexp.MustCompile(`\n[ \t]*\n`)
	emphasisRe  = regexp.MustCompile(`(?s)\*\*(.+?)\*\*|\*(.+?)\*`)
)

// Fallback splits text on blank lines, one paragraph per non-empty segment.
// **bold** and *italic* markers become emphasis spans; nothing else is interpreted.
func Fallback(text string) []doctree.Block {
	var blocks []doctree.Block
	for _, para := range blankLineRe.Split(strings.ReplaceAll(text, "\r\n", "\n"), -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		spans := emphasisSpans(para)
		blocks = append(blocks, doctree.Block{
			Kind:  doctree.KindParagraph,
			Text:  doctree.SpansText(spans),
			Spans: spans,
		})
	}
	return blocks
}

func emphasisSpans(s string) []doctree.Span {
	var spans []doctree.Span
	last := 0
	for _, m := range emphasisRe.FindAllStringSubmatchIndex(s, -1) {
		spans = appendSpan(spans, s[last:m[0]], doctree.Span{})
		if m[2] >= 0 {
			spans = appendSpan(spans, s[m[2]:m[3]], doctree.Span{Bold: true})
		} else {
			spans = appendSpan(spans, s[m[4]:m[5]], doctree.Span{Italic: true})
		}
		last = m[1]
	}
	return appendSpan(spans, s[last:], doctree.Span{})
}
