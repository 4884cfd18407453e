package rag

import (
	"strings"
	"testing"
)

func TestFormatContextEmpty(t *testing.T) {
	if got := FormatContext(nil, 2000); got != "No retrieved context." {
		t.Errorf("FormatContext(nil) = %q", got)
	}
}

func TestFormatContextBlocks(t *testing.T) {
	results := []Result{
		{Score: 0.91, Source: "bio101", Text: "The mitochondria is the powerhouse of the cell."},
		{Score: 0.42, Source: "hist201", Text: "The Berlin Wall fell in 1989."},
	}

	got := FormatContext(results, 2000)

	if !strings.Contains(got, "[1] Source: bio101 (score=0.910)") {
		t.Errorf("missing first block header in:\n%s", got)
	}
	if !strings.Contains(got, "[2] Source: hist201") {
		t.Errorf("missing second block header in:\n%s", got)
	}
	if strings.Index(got, "bio101") > strings.Index(got, "hist201") {
		t.Error("blocks are not in result order")
	}
}

func TestFormatContextBudget(t *testing.T) {
	results := []Result{
		{Score: 0.9, Source: "a", Text: strings.Repeat("x", 100)},
		{Score: 0.8, Source: "b", Text: strings.Repeat("y", 100)},
		{Score: 0.7, Source: "c", Text: strings.Repeat("z", 100)},
	}

	got := FormatContext(results, 250)

	if !strings.Contains(got, "xxx") {
		t.Error("strongest result should survive truncation")
	}
	if strings.Contains(got, "zzz") {
		t.Error("weakest result should be dropped by the budget")
	}
}
