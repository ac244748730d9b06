package web

import (
	"bytes"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Raw HTML in answers is dropped and dangerous link schemes are filtered;
// goldmark does both unless html.WithUnsafe is set.
var answerMarkdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

func answerHTML(markdown string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := answerMarkdown.Convert([]byte(markdown), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
