package formatter

import (
	"math"
	"strings"
)

// tokensPerWord approximates English BPE tokenizers.
const tokensPerWord = 1.33

// EstimateTokens approximates how many tokens a model spent on text.
// Whitespace-only input counts as one token, empty input as zero.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	words := len(strings.Fields(text))
	tokens := int(math.Round(float64(words) * tokensPerWord))
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}
