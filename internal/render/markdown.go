package render

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/dgallion1/llmdesk/internal/doctree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

const unorderedBullet = "•"

var markdownEngine = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

// parseMarkdown walks the goldmark AST and emits blocks in document order.
func parseMarkdown(src []byte) (blocks []doctree.Block, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			blocks, err = nil, fmt.Errorf("markdown parse panic: %v", rec)
		}
	}()

	doc := markdownEngine.Parser().Parse(text.NewReader(src))
	w := &walker{src: src}
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		w.block(n, 0)
	}
	return w.blocks, nil
}

type walker struct {
	src    []byte
	blocks []doctree.Block
}

func (w *walker) emit(b doctree.Block) {
	w.blocks = append(w.blocks, b)
}

func (w *walker) block(n ast.Node, depth int) {
	switch node := n.(type) {
	case *ast.Heading:
		spans := inlineSpans(node, w.src)
		w.emit(doctree.Block{
			Kind:  doctree.KindHeading,
			Level: min(max(node.Level, 1), 3),
			Text:  strings.TrimSpace(doctree.SpansText(spans)),
			Spans: spans,
		})

	case *ast.Paragraph, *ast.TextBlock:
		spans := inlineSpans(node, w.src)
		if strings.TrimSpace(doctree.SpansText(spans)) == "" {
			return
		}
		w.emit(doctree.Block{
			Kind:  doctree.KindParagraph,
			Text:  doctree.SpansText(spans),
			Spans: spans,
		})

	case *ast.FencedCodeBlock:
		w.emit(doctree.Block{
			Kind:     doctree.KindCode,
			Text:     linesText(node, w.src),
			Language: string(node.Language(w.src)),
		})

	case *ast.CodeBlock:
		w.emit(doctree.Block{
			Kind: doctree.KindCode,
			Text: linesText(node, w.src),
		})

	case *ast.Blockquote:
		spans := w.quoteSpans(node)
		if len(spans) == 0 {
			return
		}
		w.emit(doctree.Block{
			Kind:  doctree.KindQuote,
			Text:  doctree.SpansText(spans),
			Spans: spans,
		})

	case *ast.List:
		w.list(node, depth)

	case *east.Table:
		w.table(node)

	case *ast.HTMLBlock:
		t := htmlText(htmlBlockSource(node, w.src))
		if t == "" {
			return
		}
		w.emit(doctree.Block{
			Kind:  doctree.KindParagraph,
			Text:  t,
			Spans: []doctree.Span{{Text: t}},
		})

	case *ast.ThematicBreak:
		// Nothing to lay out.

	default:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			w.block(c, depth)
		}
	}
}

func (w *walker) list(l *ast.List, depth int) {
	ordinal := l.Start
	for item := l.FirstChild(); item != nil; item = item.NextSibling() {
		bullet := unorderedBullet
		if l.IsOrdered() {
			bullet = strconv.Itoa(ordinal) + string(l.Marker)
			ordinal++
		}

		// Text children form the item itself; nested blocks follow it.
		var spans []doctree.Span
		var nested []ast.Node
		for c := item.FirstChild(); c != nil; c = c.NextSibling() {
			switch c.(type) {
			case *ast.Paragraph, *ast.TextBlock:
				if len(spans) > 0 {
					spans = appendSpan(spans, "\n", doctree.Span{})
				}
				spans = append(spans, inlineSpans(c, w.src)...)
			default:
				nested = append(nested, c)
			}
		}

		w.emit(doctree.Block{
			Kind:   doctree.KindListItem,
			Text:   doctree.SpansText(spans),
			Spans:  spans,
			Bullet: bullet,
			Depth:  depth,
		})
		for _, c := range nested {
			w.block(c, depth+1)
		}
	}
}

func (w *walker) table(t *east.Table) {
	for row := t.FirstChild(); row != nil; row = row.NextSibling() {
		_, header := row.(*east.TableHeader)
		var spans []doctree.Span
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			if len(spans) > 0 {
				spans = appendSpan(spans, " | ", doctree.Span{})
			}
			cellSpans := inlineSpans(cell, w.src)
			if header {
				for i := range cellSpans {
					cellSpans[i].Bold = true
				}
			}
			spans = append(spans, cellSpans...)
		}
		if strings.TrimSpace(doctree.SpansText(spans)) == "" {
			continue
		}
		w.emit(doctree.Block{
			Kind:  doctree.KindParagraph,
			Text:  doctree.SpansText(spans),
			Spans: spans,
		})
	}
}

// quoteSpans flattens a blockquote, nested quotes included, into one run of spans.
func (w *walker) quoteSpans(q ast.Node) []doctree.Span {
	var spans []doctree.Span
	sep := func() {
		if len(spans) > 0 {
			spans = appendSpan(spans, "\n", doctree.Span{})
		}
	}
	for c := q.FirstChild(); c != nil; c = c.NextSibling() {
		switch node := c.(type) {
		case *ast.Paragraph, *ast.TextBlock:
			sep()
			spans = append(spans, inlineSpans(node, w.src)...)
		case *ast.Blockquote:
			if inner := w.quoteSpans(node); len(inner) > 0 {
				sep()
				spans = append(spans, inner...)
			}
		default:
			if t := extractText(node, w.src); t != "" {
				sep()
				spans = appendSpan(spans, t, doctree.Span{})
			}
		}
	}
	return spans
}

// linesText returns the raw source lines of a block, trailing newline trimmed.
func linesText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		buf.Write(line.Value(src))
	}
	return strings.TrimRight(buf.String(), "\n")
}

func htmlBlockSource(n *ast.HTMLBlock, src []byte) string {
	s := linesText(n, src)
	if n.HasClosure() {
		s += "\n" + string(n.ClosureLine.Value(src))
	}
	return s
}

// extractText gets the plain text content of any node.
func extractText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	switch n.(type) {
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		return linesText(n, src)
	case *ast.Paragraph, *ast.TextBlock, *ast.Heading:
		return strings.TrimSpace(doctree.SpansText(inlineSpans(n, src)))
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t := extractText(c, src); t != "" {
			if buf.Len() > 0 {
				buf.WriteByte('\n')
			}
			buf.WriteString(t)
		}
	}
	return strings.TrimSpace(buf.String())
}
