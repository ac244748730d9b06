package render

import (
	"regexp"

	"github.com/dgallion1/llmdesk/internal/doctree"
	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
)

var breakTagRe = regexp.MustCompile(`(?i)^<br\s*/?>$`)

// inlineSpans collects the inline children of a block node into styled spans.
func inlineSpans(n ast.Node, src []byte) []doctree.Span {
	var spans []doctree.Span
	var walk func(parent ast.Node, style doctree.Span)
	walk = func(parent ast.Node, style doctree.Span) {
		for c := parent.FirstChild(); c != nil; c = c.NextSibling() {
			switch node := c.(type) {
			case *ast.Text:
				spans = appendSpan(spans, string(node.Segment.Value(src)), style)
				switch {
				case node.HardLineBreak():
					spans = appendSpan(spans, "\n", style)
				case node.SoftLineBreak():
					spans = appendSpan(spans, " ", style)
				}
			case *ast.String:
				spans = appendSpan(spans, string(node.Value), style)
			case *ast.Emphasis:
				s := style
				if node.Level >= 2 {
					s.Bold = true
				} else {
					s.Italic = true
				}
				walk(node, s)
			case *ast.CodeSpan:
				s := style
				s.Code = true
				walk(node, s)
			case *east.Strikethrough:
				s := style
				s.Strike = true
				walk(node, s)
			case *ast.Link:
				s := style
				s.Link = string(node.Destination)
				walk(node, s)
			case *ast.AutoLink:
				s := style
				s.Link = string(node.URL(src))
				spans = appendSpan(spans, string(node.Label(src)), s)
			case *east.TaskCheckBox:
				box := "[ ] "
				if node.IsChecked {
					box = "[x] "
				}
				spans = appendSpan(spans, box, style)
			case *ast.RawHTML:
				var raw []byte
				for i := 0; i < node.Segments.Len(); i++ {
					seg := node.Segments.At(i)
					raw = append(raw, seg.Value(src)...)
				}
				if breakTagRe.Match(raw) {
					spans = appendSpan(spans, "\n", style)
				}
			default:
				// Images contribute their alt text; unknown inlines their children.
				walk(c, style)
			}
		}
	}
	walk(n, doctree.Span{})
	return spans
}

// appendSpan adds text with the style of tmpl, merging into the last span when styles match.
func appendSpan(spans []doctree.Span, s string, tmpl doctree.Span) []doctree.Span {
	if s == "" {
		return spans
	}
	if n := len(spans); n > 0 && sameStyle(spans[n-1], tmpl) {
		spans[n-1].Text += s
		return spans
	}
	tmpl.Text = s
	return append(spans, tmpl)
}

func sameStyle(a, b doctree.Span) bool {
	return a.Bold == b.Bold && a.Italic == b.Italic && a.Code == b.Code &&
		a.Strike == b.Strike && a.Link == b.Link
}
