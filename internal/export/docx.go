package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dgallion1/llmdesk/internal/doctree"
	"github.com/fumiama/go-docx"
)

// Run sizes are in half-points.
var docxHeadingSizes = [...]string{"32", "28", "24"}

// DOCX writes blocks as a Word document with the same header as the PDF.
type DOCX struct{}

func (d *DOCX) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
}

func (d *DOCX) Filename(meta doctree.Metadata) string { return timestampedName(meta, "docx") }

func (d *DOCX) Export(blocks []doctree.Block, meta doctree.Metadata) ([]byte, error) {
	doc := docx.New().WithDefaultTheme()

	title := doc.AddParagraph()
	title.AddText(Title).Bold().Size("36")
	title.Justification("center")

	header := [][2]string{
		{"Generated", generatedAt(meta).Format("2006-01-02 15:04:05")},
		{"Model", meta.ModelName},
		{"Question", meta.Question},
	}
	for _, kv := range header {
		p := doc.AddParagraph()
		p.AddText(kv[0] + ": ").Bold().Color("6B7280")
		p.AddText(kv[1]).Color("6B7280")
	}
	doc.AddParagraph()

	for i, b := range blocks {
		if err := writeDOCXBlock(doc, b); err != nil {
			return nil, fmt.Errorf("block %d: %w", i, err)
		}
	}

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write docx: %w", err)
	}
	return buf.Bytes(), nil
}

func writeDOCXBlock(doc *docx.Docx, b doctree.Block) error {
	switch b.Kind {
	case doctree.KindHeading:
		lvl := min(max(b.Level, 1), len(docxHeadingSizes))
		doc.AddParagraph().AddText(b.Text).Bold().Size(docxHeadingSizes[lvl-1])
	case doctree.KindParagraph:
		addDOCXSpans(doc.AddParagraph(), b, false)
	case doctree.KindCode:
		for _, line := range strings.Split(expandTabs(b.Text), "\n") {
			doc.AddParagraph().AddText(line).
				Font("Consolas", "", "", "cs").
				Shade("clear", "auto", "F3F4F6")
		}
	case doctree.KindQuote:
		addDOCXSpans(doc.AddParagraph(), b, true)
	case doctree.KindListItem:
		p := doc.AddParagraph()
		p.AddText(strings.Repeat("    ", b.Depth) + b.Bullet + " ")
		addDOCXSpans(p, b, false)
	default:
		return fmt.Errorf("unsupported block kind %d", int(b.Kind))
	}
	return nil
}

func addDOCXSpans(p *docx.Paragraph, b doctree.Block, quote bool) {
	spans := b.Spans
	if len(spans) == 0 && b.Text != "" {
		spans = []doctree.Span{{Text: b.Text}}
	}
	for _, s := range spans {
		r := p.AddText(s.Text)
		if s.Bold {
			r.Bold()
		}
		if s.Italic || quote {
			r.Italic()
		}
		switch {
		case s.Code:
			r.Font("Consolas", "", "", "cs")
		case s.Link != "":
			r.Color("2563EB")
		case quote:
			r.Color("6B7280")
		}
	}
}
