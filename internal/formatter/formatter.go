// Package formatter separates model reasoning from the answer text.
package formatter

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Kind selects a formatter implementation.
type Kind string

const KindThinking Kind = "thinking"

// Formatter turns a raw model response into a displayable Response.
type Formatter interface {
	Format(raw string) Response
}

// Response is the read-only view of one raw model response.
type Response struct {
	Thinking []string `json:"thinking"`
	MainText string   `json:"main_text"`
	Stats    Stats    `json:"statistics"`
}

// Stats are computed over the raw response, think tags included.
type Stats struct {
	WordCount       int `json:"word_count"`
	CharCount       int `json:"character_count"`
	EstimatedTokens int `json:"estimated_tokens"`
}

// New returns the formatter for kind.
func New(kind Kind) (Formatter, error) {
	switch kind {
	case KindThinking, "":
		return ThinkingFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown formatter kind: %s", kind)
	}
}

var (
	thinkBlockRe = regexp.MustCompile(`(?s)<think>(.*?)</think>`)
	thinkTagRe   = regexp.MustCompile(`</?think>`)
)

// ThinkingFormatter extracts <think>...</think> fragments.
type ThinkingFormatter struct{}

func (ThinkingFormatter) Format(raw string) Response {
	thinking := []string{}
	for _, m := range thinkBlockRe.FindAllStringSubmatch(raw, -1) {
		thinking = append(thinking, m[1])
	}

	main := thinkBlockRe.ReplaceAllString(raw, "")
	// Removing a tag can join its neighbours into a new one ("<thi<think>nk>").
	for thinkTagRe.MatchString(main) {
		main = thinkTagRe.ReplaceAllString(main, "")
	}

	return Response{
		Thinking: thinking,
		MainText: strings.TrimSpace(main),
		Stats:    ComputeStats(raw),
	}
}

// Format runs the thinking formatter.
func Format(raw string) Response {
	return ThinkingFormatter{}.Format(raw)
}

// ComputeStats counts whitespace-separated words and code points.
func ComputeStats(s string) Stats {
	return Stats{
		WordCount:       len(strings.Fields(s)),
		CharCount:       utf8.RuneCountInString(s),
		EstimatedTokens: EstimateTokens(s),
	}
}
