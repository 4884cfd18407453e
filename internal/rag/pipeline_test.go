package rag

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/orah4/aipstedu/internal/config"
	"github.com/orah4/aipstedu/internal/embedding"
)

func newTestPipeline(t *testing.T) (*Pipeline, string) {
	t.Helper()
	dir := t.TempDir()

	store := NewChunkStore(filepath.Join(dir, "chunks.jsonl"))
	embedder := embedding.NewService(&config.EmbeddingConfig{
		Provider:   "hashing",
		Dimensions: 256,
		BatchSize:  32,
	})

	return NewPipeline(store, embedder, filepath.Join(dir, "vectors.index"), PipelineOptions{}), dir
}

func TestPipelineIngestAndSearch(t *testing.T) {
	p, _ := newTestPipeline(t)
	ctx := context.Background()

	docs := []struct{ text, source string }{
		{"The mitochondria is the powerhouse of the cell.", "bio101"},
		{"The Berlin Wall fell in November 1989.", "hist201"},
		{"Photosynthesis converts sunlight into chemical energy in plants.", "bio101"},
	}
	for _, d := range docs {
		added, err := p.Ingest(ctx, d.text, d.source)
		if err != nil {
			t.Fatalf("Ingest(%q) error = %v", d.source, err)
		}
		if added != 1 {
			t.Fatalf("Ingest(%q) added %d chunks, want 1", d.source, added)
		}
	}

	results, err := p.Search(ctx, "what is the powerhouse of the cell", 1)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Source != "bio101" || !strings.Contains(results[0].Text, "mitochondria") {
		t.Errorf("top result = %+v, want the mitochondria chunk", results[0])
	}
}

func TestPipelineSearchOrdering(t *testing.T) {
	p, _ := newTestPipeline(t)
	ctx := context.Background()

	if _, err := p.Ingest(ctx, "Go routines communicate through channels.", "go-notes"); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Ingest(ctx, "The French Revolution began in 1789.", "hist101"); err != nil {
		t.Fatal(err)
	}

	results, err := p.Search(ctx, "channels and Go routines", 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected results")
	}
	if results[0].Source != "go-notes" {
		t.Errorf("top result source = %q, want go-notes", results[0].Source)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("results not in descending score order at %d", i)
		}
	}
}

func TestPipelineIndexMatchesStore(t *testing.T) {
	p, dir := newTestPipeline(t)
	ctx := context.Background()

	long := strings.Repeat("lesson plan fractions grade five assessment rubric ", 40)
	if _, err := p.Ingest(ctx, long, "math"); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Ingest(ctx, "Short note.", "misc"); err != nil {
		t.Fatal(err)
	}

	chunks, err := NewChunkStore(filepath.Join(dir, "chunks.jsonl")).Load()
	if err != nil {
		t.Fatal(err)
	}
	ix, err := ReadIndexFile(filepath.Join(dir, "vectors.index"))
	if err != nil {
		t.Fatal(err)
	}
	if ix.Size() != len(chunks) {
		t.Errorf("index has %d rows for %d chunks", ix.Size(), len(chunks))
	}
}

func TestPipelineSearchEmptyCorpus(t *testing.T) {
	p, _ := newTestPipeline(t)

	results, err := p.Search(context.Background(), "anything", 5)
	if err != nil {
		t.Fatalf("Search() on empty corpus error = %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestPipelineIngestEmptyText(t *testing.T) {
	p, dir := newTestPipeline(t)

	added, err := p.Ingest(context.Background(), "   \n  ", "blank")
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if added != 0 {
		t.Errorf("added %d chunks from whitespace, want 0", added)
	}

	// No chunks means no index is built
	if _, err := os.Stat(filepath.Join(dir, "vectors.index")); !os.IsNotExist(err) {
		t.Error("index file should not exist after empty ingest")
	}
}

func TestPipelineIngestOversizeLeavesStateUntouched(t *testing.T) {
	p, dir := newTestPipeline(t)
	ctx := context.Background()

	if _, err := p.Ingest(ctx, "The mitochondria is the powerhouse of the cell.", "bio101"); err != nil {
		t.Fatal(err)
	}

	_, err := p.Ingest(ctx, strings.Repeat("a", MaxTextLength+1), "huge")
	if err == nil {
		t.Fatal("expected error for oversize ingest")
	}

	chunks, err := NewChunkStore(filepath.Join(dir, "chunks.jsonl")).Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 1 {
		t.Errorf("store has %d chunks after failed ingest, want 1", len(chunks))
	}

	results, err := p.Search(ctx, "powerhouse of the cell", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Errorf("search after failed ingest returned %d results, want 1", len(results))
	}
}

func TestPipelineStaleIndexPositionsSkipped(t *testing.T) {
	p, dir := newTestPipeline(t)
	ctx := context.Background()

	// Store holds one chunk but the index claims three rows, as if a
	// rebuild landed against a shorter store.
	store := NewChunkStore(filepath.Join(dir, "chunks.jsonl"))
	if err := store.Save([]Chunk{{Source: "a", Text: "only chunk"}}); err != nil {
		t.Fatal(err)
	}

	ix, err := NewFlatIndex(256)
	if err != nil {
		t.Fatal(err)
	}
	rows := make([][]float32, 3)
	for i := range rows {
		rows[i] = make([]float32, 256)
		rows[i][i] = 1
	}
	if err := ix.Add(rows); err != nil {
		t.Fatal(err)
	}
	if err := WriteIndexFile(filepath.Join(dir, "vectors.index"), ix); err != nil {
		t.Fatal(err)
	}

	results, err := p.Search(ctx, "only chunk", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	for _, r := range results {
		if r.Text != "only chunk" {
			t.Errorf("hydrated an out-of-range position: %+v", r)
		}
	}
	if len(results) > 1 {
		t.Errorf("got %d results from a 1-chunk store", len(results))
	}
}

func TestPipelineCorruptIndexReadsAsEmpty(t *testing.T) {
	p, dir := newTestPipeline(t)
	ctx := context.Background()

	if _, err := p.Ingest(ctx, "Some ingested text.", "doc"); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "vectors.index"), []byte("garbage"), 0644); err != nil {
		t.Fatal(err)
	}

	results, err := p.Search(ctx, "ingested", 5)
	if err != nil {
		t.Fatalf("Search() with corrupt index error = %v", err)
	}
	if len(results) != 0 {
		t.Errorf("corrupt index should read as empty, got %d results", len(results))
	}
}

func TestPipelineStats(t *testing.T) {
	p, _ := newTestPipeline(t)
	ctx := context.Background()

	if _, err := p.Ingest(ctx, "First document text.", "a"); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Ingest(ctx, "Second document text.", "b"); err != nil {
		t.Fatal(err)
	}

	st, err := p.Stats()
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if st.Chunks != 2 || st.IndexRows != 2 {
		t.Errorf("Stats = %+v, want 2 chunks and 2 index rows", st)
	}
	if st.Dimensions != 256 {
		t.Errorf("Dimensions = %d, want 256", st.Dimensions)
	}
	if st.StoreBytes == 0 || st.IndexBytes == 0 {
		t.Error("expected non-zero on-disk sizes")
	}
}
