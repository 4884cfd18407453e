package rag

import (
	"errors"
	"strings"
	"testing"
)

func TestChunkTextEmptyInput(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty string", ""},
		{"whitespace only", "   \n\t  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks, err := ChunkText(tt.text, "src", 800, 200)
			if err != nil {
				t.Fatalf("ChunkText() error = %v", err)
			}
			if len(chunks) != 0 {
				t.Errorf("expected 0 chunks, got %d", len(chunks))
			}
		})
	}
}

func TestChunkTextPartitionCoverage(t *testing.T) {
	text := "  " + strings.Repeat("abcdefghij", 95) + "  " // 950 chars after trim

	chunks, err := ChunkText(text, "doc", 800, 200)
	if err != nil {
		t.Fatalf("ChunkText() error = %v", err)
	}

	var joined strings.Builder
	for _, c := range chunks {
		joined.WriteString(c.Text)
	}
	if joined.String() != strings.TrimSpace(text) {
		t.Error("concatenated chunks do not reproduce the trimmed input")
	}

	for i, c := range chunks {
		if len([]rune(c.Text)) > 800 {
			t.Errorf("chunk %d exceeds chunk size: %d", i, len(c.Text))
		}
		if c.Source != "doc" {
			t.Errorf("chunk %d has source %q, want %q", i, c.Source, "doc")
		}
	}
}

func TestChunkTextExactWindows(t *testing.T) {
	// 1,600 chars with chunk size 800 must yield exactly 2 full windows
	text := strings.Repeat("x", 1600)

	chunks, err := ChunkText(text, "doc", 800, 200)
	if err != nil {
		t.Fatalf("ChunkText() error = %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c.Text) != 800 {
			t.Errorf("chunk %d has length %d, want 800", i, len(c.Text))
		}
	}
}

func TestChunkTextTruncationBound(t *testing.T) {
	// 30 windows possible, cap at 10: excess is dropped silently
	text := strings.Repeat("y", 300)

	chunks, err := ChunkText(text, "doc", 10, 10)
	if err != nil {
		t.Fatalf("ChunkText() error = %v", err)
	}
	if len(chunks) != 10 {
		t.Errorf("expected exactly 10 chunks, got %d", len(chunks))
	}
}

func TestChunkTextSizeLimit(t *testing.T) {
	text := strings.Repeat("z", MaxTextLength+1)

	chunks, err := ChunkText(text, "doc", 800, 200)
	if err == nil {
		t.Fatal("expected error for oversize input")
	}
	if chunks != nil {
		t.Error("expected no chunks alongside the error")
	}

	var sizeErr *SizeLimitError
	if !errors.As(err, &sizeErr) {
		t.Fatalf("expected *SizeLimitError, got %T", err)
	}
	if sizeErr.Limit != MaxTextLength {
		t.Errorf("Limit = %d, want %d", sizeErr.Limit, MaxTextLength)
	}
	if sizeErr.Actual != MaxTextLength+1 {
		t.Errorf("Actual = %d, want %d", sizeErr.Actual, MaxTextLength+1)
	}
}

func TestChunkTextDefaultSource(t *testing.T) {
	chunks, err := ChunkText("some text", "", 800, 200)
	if err != nil {
		t.Fatalf("ChunkText() error = %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Source != DefaultSource {
		t.Errorf("source = %q, want %q", chunks[0].Source, DefaultSource)
	}
}

func TestChunkTextSingleSentence(t *testing.T) {
	chunks, err := ChunkText("The mitochondria is the powerhouse of the cell.", "bio101", 800, 200)
	if err != nil {
		t.Fatalf("ChunkText() error = %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != "The mitochondria is the powerhouse of the cell." {
		t.Errorf("unexpected chunk text: %q", chunks[0].Text)
	}
}
