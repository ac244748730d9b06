package export

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgallion1/llmdesk/internal/doctree"
	"github.com/go-pdf/fpdf"
)

const (
	pageMargin  = 72.0
	bodySize    = 11.0
	bodyLeading = 16.0
	codeSize    = 10.0
	codeLeading = 13.0
	quoteIndent = 20.0
	listIndent  = 18.0
	blockGap    = 6.0
)

type rgb struct{ r, g, b int }

var (
	colorBody       = rgb{0, 0, 0}
	colorMeta       = rgb{107, 114, 128}
	colorQuote      = rgb{107, 114, 128}
	colorQuoteRule  = rgb{156, 163, 175}
	colorCode       = rgb{185, 28, 28}
	colorCodeFill   = rgb{243, 244, 246}
	colorCodeBorder = rgb{209, 213, 219}
	colorLink       = rgb{37, 99, 235}
)

// headingStyles holds size and color for levels 1..3.
var headingStyles = [...]struct {
	size  float64
	color rgb
}{
	{16, rgb{17, 24, 39}},
	{14, rgb{31, 41, 55}},
	{12, rgb{55, 65, 81}},
}

// PDF lays blocks out on A4 pages. When any block cannot be laid out the
// whole structured attempt is dropped and a plain layout of the raw text
// is produced instead.
type PDF struct {
	Logger *slog.Logger
}

func (p *PDF) ContentType() string { return "application/pdf" }

func (p *PDF) Filename(meta doctree.Metadata) string { return timestampedName(meta, "pdf") }

// Export returns a complete PDF. It fails only when the fallback layout
// cannot be written either.
func (p *PDF) Export(blocks []doctree.Block, meta doctree.Metadata) ([]byte, error) {
	out, err := p.structured(blocks, meta)
	if err == nil {
		return out, nil
	}
	if p.Logger != nil {
		p.Logger.Warn("structured pdf layout failed, using fallback", "error", err, "blocks", len(blocks))
	}

	out, ferr := p.fallback(blocks, meta)
	if ferr != nil {
		return nil, fmt.Errorf("pdf fallback (after %v): %w", err, ferr)
	}
	return out, nil
}

func (p *PDF) newDocument() *fpdf.Fpdf {
	doc := fpdf.New("P", "pt", "A4", "")
	doc.SetMargins(pageMargin, pageMargin, pageMargin)
	doc.SetAutoPageBreak(true, pageMargin)
	doc.SetTitle(Title, true)
	doc.SetCreator("llmdesk", true)
	registerFonts(doc)
	doc.AddPage()
	return doc
}

func (p *PDF) output(doc *fpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (p *PDF) structured(blocks []doctree.Block, meta doctree.Metadata) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("layout panic: %v", r)
		}
	}()

	doc := p.newDocument()
	l := &layout{doc: doc}
	l.header(meta)
	for i, b := range blocks {
		if err := l.block(b); err != nil {
			return nil, fmt.Errorf("block %d (%s): %w", i, b.Kind, err)
		}
		if doc.Err() {
			return nil, fmt.Errorf("block %d (%s): %w", i, b.Kind, doc.Error())
		}
	}
	return p.output(doc)
}

func (p *PDF) fallback(blocks []doctree.Block, meta doctree.Metadata) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("fallback panic: %v", r)
		}
	}()

	doc := p.newDocument()

	doc.SetFont(fontBody, "B", 16)
	doc.CellFormat(0, 22, Title, "", 1, "C", false, 0, "")
	doc.Ln(8)

	doc.SetFont(fontBody, "", bodySize)
	doc.MultiCell(0, bodyLeading, "Model: "+meta.ModelName, "", "L", false)
	doc.MultiCell(0, bodyLeading, "Question: "+meta.Question, "", "L", false)
	doc.Ln(8)

	doc.SetFont(fontBody, "B", 13)
	doc.MultiCell(0, 18, "Response:", "", "L", false)
	doc.SetFont(fontBody, "", bodySize)
	doc.MultiCell(0, bodyLeading, expandTabs(source(blocks, meta)), "", "L", false)

	if doc.Err() {
		return nil, doc.Error()
	}
	return p.output(doc)
}

// layout writes blocks into one document.
type layout struct {
	doc *fpdf.Fpdf
}

func (l *layout) color(c rgb) { l.doc.SetTextColor(c.r, c.g, c.b) }

func (l *layout) header(meta doctree.Metadata) {
	d := l.doc
	d.SetFont(fontBody, "B", 18)
	l.color(headingStyles[0].color)
	d.CellFormat(0, 24, Title, "", 1, "C", false, 0, "")
	d.Ln(6)

	d.SetFont(fontBody, "", 10)
	l.color(colorMeta)
	lines := []string{
		"Generated: " + generatedAt(meta).Format("2006-01-02 15:04:05"),
		"Model: " + meta.ModelName,
		"Question: " + meta.Question,
	}
	for _, line := range lines {
		d.MultiCell(0, 14, line, "", "L", false)
	}
	d.Ln(12)
}

func (l *layout) block(b doctree.Block) error {
	switch b.Kind {
	case doctree.KindHeading:
		l.heading(b)
	case doctree.KindParagraph:
		l.paragraph(b)
	case doctree.KindCode:
		l.code(b)
	case doctree.KindQuote:
		l.quote(b)
	case doctree.KindListItem:
		l.listItem(b)
	default:
		return fmt.Errorf("unsupported block kind %d", int(b.Kind))
	}
	return nil
}

func (l *layout) heading(b doctree.Block) {
	lvl := b.Level
	if lvl < 1 {
		lvl = 1
	}
	if lvl > len(headingStyles) {
		lvl = len(headingStyles)
	}
	st := headingStyles[lvl-1]

	l.doc.Ln(blockGap)
	l.doc.SetFont(fontBody, "B", st.size)
	l.color(st.color)
	l.doc.MultiCell(0, st.size*1.4, b.Text, "", "L", false)
	l.doc.Ln(4)
}

func (l *layout) paragraph(b doctree.Block) {
	l.spans(b, "", colorBody)
	l.doc.Ln(bodyLeading)
	l.doc.Ln(blockGap)
}

func (l *layout) code(b doctree.Block) {
	d := l.doc
	d.SetFont(fontMono, "", codeSize)
	l.color(colorCode)
	d.SetFillColor(colorCodeFill.r, colorCodeFill.g, colorCodeFill.b)
	d.SetDrawColor(colorCodeBorder.r, colorCodeBorder.g, colorCodeBorder.b)
	d.SetLineWidth(0.5)
	d.MultiCell(0, codeLeading, expandTabs(b.Text), "1", "L", true)
	d.Ln(blockGap + 2)
}

func (l *layout) quote(b doctree.Block) {
	d := l.doc
	left, top, _, _ := d.GetMargins()
	indent := left + quoteIndent
	startPage, startY := d.PageNo(), d.GetY()

	d.SetLeftMargin(indent)
	d.SetX(indent)
	l.spans(b, "I", colorQuote)
	d.Ln(bodyLeading)
	d.SetLeftMargin(left)

	// Left accent rule; restarts at the top margin after a page break.
	y0, y1 := startY, d.GetY()
	if d.PageNo() != startPage {
		y0 = top
	}
	ruleX := indent - 8
	d.SetDrawColor(colorQuoteRule.r, colorQuoteRule.g, colorQuoteRule.b)
	d.SetLineWidth(2)
	d.Line(ruleX, y0, ruleX, y1)
	d.Ln(blockGap)
}

func (l *layout) listItem(b doctree.Block) {
	d := l.doc
	left, _, _, _ := d.GetMargins()
	indent := left + float64(b.Depth)*listIndent

	d.SetLeftMargin(indent + listIndent)
	d.SetX(indent)
	d.SetFont(fontBody, "", bodySize)
	l.color(colorBody)
	d.Write(bodyLeading, b.Bullet)
	d.SetX(indent + listIndent)
	l.spans(b, "", colorBody)
	d.Ln(bodyLeading)
	d.SetLeftMargin(left)
	d.Ln(2)
}

// spans writes inline runs, wrapping at the current left margin.
func (l *layout) spans(b doctree.Block, baseStyle string, base rgb) {
	spans := b.Spans
	if len(spans) == 0 && b.Text != "" {
		spans = []doctree.Span{{Text: b.Text}}
	}
	d := l.doc
	for _, s := range spans {
		style := baseStyle
		if s.Bold && !strings.Contains(style, "B") {
			style += "B"
		}
		if s.Italic && !strings.Contains(style, "I") {
			style += "I"
		}
		if s.Strike {
			style += "S"
		}

		family, size, c := fontBody, bodySize, base
		if s.Code {
			family, size, c = fontMono, codeSize, colorCode
		}
		text := strings.ReplaceAll(s.Text, "\t", " ")

		if s.Link != "" {
			d.SetFont(family, style+"U", size)
			l.color(colorLink)
			d.WriteLinkString(bodyLeading, text, s.Link)
			continue
		}
		d.SetFont(family, style, size)
		l.color(c)
		d.Write(bodyLeading, text)
	}
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", "    ")
}
