package export

import (
	"github.com/go-pdf/fpdf"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
)

// PDF font families. The Go fonts cover Latin, Greek and Cyrillic; runes
// outside them (CJK, most symbols) render as the missing glyph.
const (
	fontBody = "Go"
	fontMono = "GoMono"
)

var pdfFonts = []struct {
	family, style string
	ttf           []byte
}{
	{fontBody, "", goregular.TTF},
	{fontBody, "B", gobold.TTF},
	{fontBody, "I", goitalic.TTF},
	{fontBody, "BI", gobolditalic.TTF},
	{fontMono, "", gomono.TTF},
	{fontMono, "B", gomonobold.TTF},
	{fontMono, "I", gomonoitalic.TTF},
	{fontMono, "BI", gomonobolditalic.TTF},
}

func registerFonts(doc *fpdf.Fpdf) {
	for _, f := range pdfFonts {
		doc.AddUTF8FontFromBytes(f.family, f.style, f.ttf)
	}
}
