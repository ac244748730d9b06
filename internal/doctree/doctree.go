package doctree

import (
	"strings"
	"time"
)

// Kind tags the variant held by a Block.
type Kind int

const (
	KindHeading Kind = iota + 1
	KindParagraph
	KindCode
	KindQuote
	KindListItem
)

func (k Kind) String() string {
	switch k {
	case KindHeading:
		return "heading"
	case KindParagraph:
		return "paragraph"
	case KindCode:
		return "code"
	case KindQuote:
		return "quote"
	case KindListItem:
		return "list_item"
	}
	return "unknown"
}

// Span is a run of inline text sharing one set of emphasis flags.
type Span struct {
	Text   string
	Bold   bool
	Italic bool
	Code   bool
	Strike bool
	Link   string // Target URL when the span is a link.
}

// Block is one discrete unit of renderable content, in source order.
type Block struct {
	Kind  Kind
	Level int    // Heading level, 1..3.
	Text  string // Plain text; verbatim for code blocks.
	Spans []Span // Inline formatting for paragraphs, quotes, list items and headings.

	Language string // Code block info string, if any.
	Bullet   string // "•" or an ordinal such as "3.".
	Depth    int    // List nesting, 0 for top level.
}

// Metadata describes the export header.
type Metadata struct {
	GeneratedAt time.Time
	ModelName   string
	Question    string

	// Source is the unparsed main text used by fallback layouts.
	// When empty it is rebuilt from the blocks.
	Source string
}

// SpansText concatenates the text of spans.
func SpansText(spans []Span) string {
	var sb strings.Builder
	for _, s := range spans {
		sb.WriteString(s.Text)
	}
	return sb.String()
}

// PlainText flattens blocks back into readable text, one block per paragraph.
func PlainText(blocks []Block) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		switch b.Kind {
		case KindHeading:
			parts = append(parts, strings.Repeat("#", b.Level)+" "+b.Text)
		case KindQuote:
			parts = append(parts, "> "+b.Text)
		case KindListItem:
			parts = append(parts, strings.Repeat("  ", b.Depth)+b.Bullet+" "+b.Text)
		default:
			parts = append(parts, b.Text)
		}
	}
	return strings.Join(parts, "\n\n")
}
