package rag

import (
	"fmt"
	"strings"
)

const (
	// DefaultChunkSize is the window width, in characters, used to
	// partition ingested text.
	DefaultChunkSize = 800

	// DefaultMaxChunks bounds how many chunks a single ingestion call may
	// produce. Text beyond the bound is dropped without error.
	DefaultMaxChunks = 200

	// MaxTextLength is the hard cap on a single ingested text. Larger
	// inputs are rejected outright rather than partially chunked.
	MaxTextLength = 200_000

	// DefaultSource labels chunks whose caller supplied no provenance.
	DefaultSource = "unknown"
)

// Chunk is the atomic retrievable unit: a bounded contiguous slice of
// ingested text tagged with a provenance label. Its position in the
// persisted sequence is the join key to the vector index.
type Chunk struct {
	Source string `json:"source"`
	Text   string `json:"text"`
}

// SizeLimitError reports an ingestion payload over the hard character cap
type SizeLimitError struct {
	Limit  int
	Actual int
}

func (e *SizeLimitError) Error() string {
	return fmt.Sprintf("text too large (%d chars), maximum allowed is %d characters; ingest smaller sections", e.Actual, e.Limit)
}

// ChunkText partitions text into contiguous, non-overlapping windows of
// chunkSize characters; the final window may be shorter. Partitioning
// stops silently once maxChunks windows have been produced. Leading and
// trailing whitespace is trimmed first; empty input yields no chunks.
// Inputs over MaxTextLength characters fail with a *SizeLimitError.
func ChunkText(text, source string, chunkSize, maxChunks int) ([]Chunk, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	if source == "" {
		source = DefaultSource
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if maxChunks <= 0 {
		maxChunks = DefaultMaxChunks
	}

	runes := []rune(text)
	if len(runes) > MaxTextLength {
		return nil, &SizeLimitError{Limit: MaxTextLength, Actual: len(runes)}
	}

	var chunks []Chunk
	for start := 0; start < len(runes) && len(chunks) < maxChunks; start += chunkSize {
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, Chunk{
			Source: source,
			Text:   string(runes[start:end]),
		})
	}

	return chunks, nil
}
