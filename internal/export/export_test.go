package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fumiama/go-docx"
	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/llmdesk/internal/doctree"
)

var testMeta = doctree.Metadata{
	GeneratedAt: time.Date(2025, 3, 9, 14, 5, 7, 0, time.UTC),
	ModelName:   "qwen3:0.6b",
	Question:    "What is a goroutine?",
}

func sampleBlocks() []doctree.Block {
	return []doctree.Block{
		{Kind: doctree.KindHeading, Level: 1, Text: "Goroutines"},
		{Kind: doctree.KindParagraph, Text: "A goroutine is cheap.", Spans: []doctree.Span{
			{Text: "A "}, {Text: "goroutine", Bold: true}, {Text: " is "}, {Text: "cheap", Italic: true}, {Text: "."},
		}},
		{Kind: doctree.KindHeading, Level: 2, Text: "Example"},
		{Kind: doctree.KindCode, Language: "go", Text: "go func() {\n\tfmt.Println(\"hi\")\n}()"},
		{Kind: doctree.KindQuote, Text: "Do not communicate by sharing memory."},
		{Kind: doctree.KindListItem, Bullet: "•", Text: "scheduled by the runtime"},
		{Kind: doctree.KindListItem, Bullet: "1.", Depth: 1, Text: "see go.dev", Spans: []doctree.Span{
			{Text: "see "}, {Text: "go.dev", Link: "https://go.dev"},
		}},
		{Kind: doctree.KindHeading, Level: 3, Text: "Unicode ✓ — done"},
	}
}

func pageCount(t *testing.T, b []byte) int {
	t.Helper()
	r, err := pdf.NewReader(bytes.NewReader(b), int64(len(b)))
	require.NoError(t, err)
	return r.NumPage()
}

// pdfText extracts the text of every page.
func pdfText(t *testing.T, b []byte) string {
	t.Helper()
	r, err := pdf.NewReader(bytes.NewReader(b), int64(len(b)))
	require.NoError(t, err)
	rd, err := r.GetPlainText()
	require.NoError(t, err)
	var buf bytes.Buffer
	_, err = buf.ReadFrom(rd)
	require.NoError(t, err)
	return buf.String()
}

func TestPDF_Signature(t *testing.T) {
	inputs := [][]doctree.Block{
		nil,
		sampleBlocks(),
		{{Kind: doctree.KindParagraph, Text: "(unbalanced parens) \\ and ünïcödé"}},
	}
	for i, blocks := range inputs {
		out, err := (&PDF{}).Export(blocks, testMeta)
		require.NoError(t, err, "input %d", i)
		assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")), "input %d", i)
		assert.Equal(t, 1, pageCount(t, out), "input %d", i)
	}
}

func TestPDF_StructuredLayout(t *testing.T) {
	out, err := (&PDF{}).Export(sampleBlocks(), testMeta)
	require.NoError(t, err)

	s := pdfText(t, out)
	assert.Contains(t, s, Title)
	assert.Contains(t, s, "Model: qwen3:0.6b")
	assert.Contains(t, s, "Generated: 2025-03-09 14:05:07")
	assert.Contains(t, s, "Goroutines")
	assert.NotContains(t, s, "Response:", "structured layout has no fallback heading")
}

func TestPDF_FallbackOnUnknownBlock(t *testing.T) {
	blocks := append(sampleBlocks(), doctree.Block{Kind: doctree.Kind(99), Text: "mystery"})
	meta := testMeta
	meta.Source = "Raw **markdown** stays as is"

	out, err := (&PDF{}).Export(blocks, meta)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, []byte("%PDF-")))

	s := pdfText(t, out)
	assert.Contains(t, s, "Response:")
	assert.Contains(t, s, "Model: qwen3:0.6b")
	assert.Contains(t, s, "Question: What is a goroutine?")
	assert.Contains(t, s, "Raw **markdown** stays as is")
}

func TestPDF_FallbackRebuildsSourceFromBlocks(t *testing.T) {
	blocks := []doctree.Block{
		{Kind: doctree.KindParagraph, Text: "kept paragraph"},
		{Kind: doctree.Kind(0)},
	}
	out, err := (&PDF{}).Export(blocks, testMeta)
	require.NoError(t, err)
	assert.Contains(t, pdfText(t, out), "kept paragraph")
}

func TestPDF_CyrillicText(t *testing.T) {
	meta := testMeta
	meta.Question = "Что такое горутина?"
	paragraph := doctree.Block{Kind: doctree.KindParagraph, Text: "Горутина это лёгкий поток."}

	out, err := (&PDF{}).Export([]doctree.Block{paragraph}, meta)
	require.NoError(t, err)
	s := pdfText(t, out)
	assert.Contains(t, s, "Question: Что такое горутина?")
	assert.Contains(t, s, "Горутина это лёгкий поток.")

	// Same text through the fallback layout.
	meta.Source = "Горутина это лёгкий поток."
	out, err = (&PDF{}).Export([]doctree.Block{paragraph, {Kind: doctree.Kind(99)}}, meta)
	require.NoError(t, err)
	s = pdfText(t, out)
	assert.Contains(t, s, "Response:")
	assert.Contains(t, s, "Question: Что такое горутина?")
	assert.Contains(t, s, "Горутина это лёгкий поток.")
}

func TestPDF_Paginates(t *testing.T) {
	var blocks []doctree.Block
	for range 120 {
		blocks = append(blocks, doctree.Block{
			Kind: doctree.KindParagraph,
			Text: strings.Repeat("Long enough sentence to fill the line. ", 4),
		})
	}
	blocks = append(blocks, doctree.Block{Kind: doctree.KindQuote, Text: strings.Repeat("quoted words ", 200)})

	out, err := (&PDF{}).Export(blocks, testMeta)
	require.NoError(t, err)
	assert.Greater(t, pageCount(t, out), 1)
}

func TestDOCX_RoundTrip(t *testing.T) {
	out, err := (&DOCX{}).Export(sampleBlocks(), testMeta)
	require.NoError(t, err)

	doc, err := docx.Parse(bytes.NewReader(out), int64(len(out)))
	require.NoError(t, err)

	var paras []string
	for _, item := range doc.Document.Body.Items {
		p, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		var sb strings.Builder
		for _, child := range p.Children {
			run, ok := child.(*docx.Run)
			if !ok {
				continue
			}
			for _, rc := range run.Children {
				if txt, ok := rc.(*docx.Text); ok {
					sb.WriteString(txt.Text)
				}
			}
		}
		paras = append(paras, strings.TrimSpace(sb.String()))
	}

	assert.Contains(t, paras, Title)
	assert.Contains(t, paras, "Model: qwen3:0.6b")
	assert.Contains(t, paras, "Goroutines")
	assert.Contains(t, paras, "A goroutine is cheap.")
	assert.Contains(t, paras, "• scheduled by the runtime")
	assert.Contains(t, paras, "1. see go.dev")
}

func TestDOCX_UnknownBlock(t *testing.T) {
	_, err := (&DOCX{}).Export([]doctree.Block{{Kind: doctree.Kind(42)}}, testMeta)
	assert.Error(t, err)
}

func TestText(t *testing.T) {
	meta := testMeta
	meta.Source = "<think>why</think>raw answer"
	out, err := Text{}.Export(sampleBlocks(), meta)
	require.NoError(t, err)
	assert.Equal(t, meta.Source, string(out))

	out, err = Text{}.Export([]doctree.Block{{Kind: doctree.KindParagraph, Text: "only"}}, testMeta)
	require.NoError(t, err)
	assert.Equal(t, "only", string(out))
}

func TestFilenames(t *testing.T) {
	assert.Equal(t, "AI_Response_20250309_140507.pdf", (&PDF{}).Filename(testMeta))
	assert.Equal(t, "AI_Response_20250309_140507.docx", (&DOCX{}).Filename(testMeta))

	tests := []struct {
		model, question, want string
	}{
		{"qwen3:0.6b", "What is a goroutine?", "response_qwen3_0.6b_What_is_a_gorou.txt"},
		{"qwen/qwen3-32b", "hi", "response_qwen_qwen3-32b_hi.txt"},
		{"m", "çava très bien, merci", "response_m_çava_très_bien,.txt"},
	}
	for _, tt := range tests {
		got := Text{}.Filename(doctree.Metadata{ModelName: tt.model, Question: tt.question})
		assert.Equal(t, tt.want, got)
	}
}

func TestNewAndParseFormat(t *testing.T) {
	for _, f := range []Format{FormatPDF, FormatDOCX, FormatText} {
		e, err := New(f)
		require.NoError(t, err)
		assert.NotEmpty(t, e.ContentType())
	}
	_, err := New("odt")
	assert.Error(t, err)

	f, err := ParseFormat("PDF")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)
	_, err = ParseFormat("exe")
	assert.Error(t, err)
}
