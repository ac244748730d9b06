// Package export turns rendered content blocks into downloadable documents.
package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/dgallion1/llmdesk/internal/doctree"
)

// Title heads every exported document.
const Title = "AI Assistant Response"

// Format names an export target.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatText Format = "txt"
)

// Exporter writes blocks and their metadata into one document.
type Exporter interface {
	Export(blocks []doctree.Block, meta doctree.Metadata) ([]byte, error)
	ContentType() string
	Filename(meta doctree.Metadata) string
}

// New returns the exporter for a format.
func New(f Format) (Exporter, error) {
	switch f {
	case FormatPDF:
		return &PDF{}, nil
	case FormatDOCX:
		return &DOCX{}, nil
	case FormatText:
		return &Text{}, nil
	default:
		return nil, fmt.Errorf("unsupported export format: %q", f)
	}
}

// ParseFormat accepts the lowercase extension of a supported format.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimPrefix(s, ".")))
	switch f {
	case FormatPDF, FormatDOCX, FormatText:
		return f, nil
	}
	return "", fmt.Errorf("unsupported export format: %q", s)
}

func generatedAt(meta doctree.Metadata) time.Time {
	if meta.GeneratedAt.IsZero() {
		return time.Now()
	}
	return meta.GeneratedAt
}

// timestampedName builds AI_Response_YYYYMMDD_HHMMSS.<ext>.
func timestampedName(meta doctree.Metadata, ext string) string {
	return "AI_Response_" + generatedAt(meta).Format("20060102_150405") + "." + ext
}

// source is the unparsed text used by plain layouts.
func source(blocks []doctree.Block, meta doctree.Metadata) string {
	if meta.Source != "" {
		return meta.Source
	}
	return doctree.PlainText(blocks)
}

var filenameReplacer = strings.NewReplacer(
	" ", "_", "/", "_", "\\", "_", ":", "_", "*", "_",
	"?", "_", "\"", "_", "<", "_", ">", "_", "|", "_",
)

// sanitizeFilename replaces characters that are unsafe in a download name.
func sanitizeFilename(s string) string {
	s = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
	return filenameReplacer.Replace(s)
}
