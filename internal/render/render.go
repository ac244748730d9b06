// Package render converts answer markdown into ordered content blocks.
package render

import (
	"fmt"
	"strings"

	"github.com/dgallion1/llmdesk/internal/doctree"
)

// Kind selects a renderer implementation.
type Kind string

const KindMarkdown Kind = "markdown"

// Renderer produces content blocks from answer text.
type Renderer interface {
	Render(text string) []doctree.Block
}

// New returns the renderer for kind.
func New(kind Kind) (Renderer, error) {
	switch kind {
	case KindMarkdown, "":
		return MarkdownRenderer{}, nil
	default:
		return nil, fmt.Errorf("unknown renderer kind: %s", kind)
	}
}

// MarkdownRenderer renders CommonMark with GitHub extensions.
type MarkdownRenderer struct{}

func (MarkdownRenderer) Render(text string) []doctree.Block {
	return Render(text)
}

// Render parses text as markdown. If that yields no recognizable blocks
// the text is split into plain paragraphs instead, so non-blank input
// always produces at least one block.
func Render(text string) []doctree.Block {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	blocks, err := parseMarkdown([]byte(text))
	if err != nil || len(blocks) == 0 {
		return Fallback(text)
	}
	return blocks
}
