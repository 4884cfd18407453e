package rag

import (
	"fmt"
	"strings"
)

// DefaultContextBudget caps the formatted context handed to a generation
// backend, preventing prompt overflow.
const DefaultContextBudget = 2000

// FormatContext renders results as numbered source/score/text blocks for
// a generation prompt, stopping once the character budget is exceeded.
// Results arrive best-first, so truncation keeps the strongest evidence.
func FormatContext(results []Result, maxChars int) string {
	if len(results) == 0 {
		return "No retrieved context."
	}
	if maxChars <= 0 {
		maxChars = DefaultContextBudget
	}

	var blocks []string
	total := 0

	for i, r := range results {
		block := fmt.Sprintf("[%d] Source: %s (score=%.3f)\n%s\n", i+1, r.Source, r.Score, r.Text)

		total += len(block)
		if total > maxChars {
			break
		}

		blocks = append(blocks, block)
	}

	return strings.Join(blocks, "\n")
}
