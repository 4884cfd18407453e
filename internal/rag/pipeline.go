package rag

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/orah4/aipstedu/internal/embedding"
)

// DefaultTopK is the default result count for Search.
const DefaultTopK = 5

// Result is one retrieved chunk with its similarity score
type Result struct {
	Score  float32 `json:"score"`
	Source string  `json:"source"`
	Text   string  `json:"text"`
}

// Pipeline wires the chunker, chunk store, embedder and vector index into
// the two operations the rest of the application relies on: Ingest and
// Search. It holds no locks of its own; readers see a best-effort
// snapshot, and deployments needing strict single-writer semantics must
// serialize Ingest calls externally.
type Pipeline struct {
	store     *ChunkStore
	embedder  *embedding.Service
	indexPath string
	keyword   *KeywordIndex // nil when the keyword index is disabled

	chunkSize int
	maxChunks int
	topK      int
}

// PipelineOptions tunes chunking and search defaults. Zero values fall
// back to the package defaults.
type PipelineOptions struct {
	ChunkSize    int
	MaxChunks    int
	DefaultTopK  int
	KeywordIndex *KeywordIndex
}

// NewPipeline assembles a pipeline over the given store, embedder and
// index file path.
func NewPipeline(store *ChunkStore, embedder *embedding.Service, indexPath string, opts PipelineOptions) *Pipeline {
	p := &Pipeline{
		store:     store,
		embedder:  embedder,
		indexPath: indexPath,
		keyword:   opts.KeywordIndex,
		chunkSize: opts.ChunkSize,
		maxChunks: opts.MaxChunks,
		topK:      opts.DefaultTopK,
	}
	if p.chunkSize <= 0 {
		p.chunkSize = DefaultChunkSize
	}
	if p.maxChunks <= 0 {
		p.maxChunks = DefaultMaxChunks
	}
	if p.topK <= 0 {
		p.topK = DefaultTopK
	}
	return p
}

// Ingest chunks text under the given source label, appends the chunks to
// the persisted store and rebuilds the vector index from the combined
// sequence. It returns the number of chunks added. The call either fully
// commits the rebuilt store and index or fails outright; an oversized
// input fails before anything is persisted.
func (p *Pipeline) Ingest(ctx context.Context, text, source string) (int, error) {
	existing, err := p.store.Load()
	if err != nil {
		return 0, fmt.Errorf("failed to load chunk store: %w", err)
	}

	newChunks, err := ChunkText(text, source, p.chunkSize, p.maxChunks)
	if err != nil {
		return 0, err
	}

	combined := make([]Chunk, 0, len(existing)+len(newChunks))
	combined = append(combined, existing...)
	combined = append(combined, newChunks...)

	if err := p.store.Save(combined); err != nil {
		return 0, fmt.Errorf("failed to save chunk store: %w", err)
	}

	if err := p.rebuildIndex(ctx, combined); err != nil {
		return 0, fmt.Errorf("failed to rebuild index: %w", err)
	}

	return len(newChunks), nil
}

// rebuildIndex embeds every chunk text in order and writes a fresh index.
// An empty sequence is a no-op: a zero-row index is never built, and any
// prior persisted index is left untouched.
func (p *Pipeline) rebuildIndex(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return err
	}

	ix, err := NewFlatIndex(len(vectors[0]))
	if err != nil {
		return err
	}
	if err := ix.Add(vectors); err != nil {
		return err
	}

	// The index row count must match the chunk store or searches would
	// hydrate against the wrong entries.
	if ix.Size() != len(chunks) {
		return fmt.Errorf("index has %d rows for %d chunks", ix.Size(), len(chunks))
	}

	if err := WriteIndexFile(p.indexPath, ix); err != nil {
		return err
	}

	if p.keyword != nil {
		if err := p.keyword.Rebuild(chunks); err != nil {
			return err
		}
	}

	return nil
}

// Search embeds the query and returns up to topK chunks by descending
// cosine similarity. Searching an empty or never-ingested corpus returns
// no results, not an error. topK <= 0 uses the configured default.
func (p *Pipeline) Search(ctx context.Context, query string, topK int) ([]Result, error) {
	if topK <= 0 {
		topK = p.topK
	}

	chunks, err := p.store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load chunk store: %w", err)
	}
	if len(chunks) == 0 {
		return nil, nil
	}

	ix := p.openIndex()
	if ix == nil {
		return nil, nil
	}

	queryVec, err := p.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	hits := ix.Search(queryVec, topK)
	return hydrate(hits, chunks), nil
}

// SearchKeyword runs the optional keyword index instead of the vector
// index, hydrating positions the same way.
func (p *Pipeline) SearchKeyword(query string, topK int) ([]Result, error) {
	if p.keyword == nil {
		return nil, fmt.Errorf("keyword index is disabled")
	}
	if topK <= 0 {
		topK = p.topK
	}

	chunks, err := p.store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load chunk store: %w", err)
	}
	if len(chunks) == 0 {
		return nil, nil
	}

	hits, err := p.keyword.Search(query, topK)
	if err != nil {
		return nil, err
	}

	return hydrate(hits, chunks), nil
}

// openIndex reads the persisted index, treating a missing or unreadable
// file as "no index". Degraded empty retrieval beats a hard failure here.
func (p *Pipeline) openIndex() *FlatIndex {
	ix, err := ReadIndexFile(p.indexPath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("vector index unreadable, treating as absent: %v", err)
		}
		return nil
	}
	return ix
}

// hydrate resolves hit positions against the loaded chunk sequence.
// Positions outside the store's bounds come from an index/store pair
// observed mid-rebuild; they are skipped, never raised.
func hydrate(hits []Hit, chunks []Chunk) []Result {
	results := make([]Result, 0, len(hits))
	for _, h := range hits {
		if h.Position < 0 || h.Position >= len(chunks) {
			continue
		}
		c := chunks[h.Position]
		results = append(results, Result{
			Score:  h.Score,
			Source: c.Source,
			Text:   c.Text,
		})
	}
	return results
}

// Stats describes the persisted state of the knowledge base
type Stats struct {
	Chunks     int
	IndexRows  int
	Dimensions int
	StoreBytes int64
	IndexBytes int64
}

// Stats reports chunk and index row counts plus on-disk sizes
func (p *Pipeline) Stats() (*Stats, error) {
	chunks, err := p.store.Load()
	if err != nil {
		return nil, err
	}

	st := &Stats{Chunks: len(chunks)}

	if info, err := os.Stat(p.store.Path()); err == nil {
		st.StoreBytes = info.Size()
	}

	if ix := p.openIndex(); ix != nil {
		st.IndexRows = ix.Size()
		st.Dimensions = ix.Dimensions()
	}
	if info, err := os.Stat(p.indexPath); err == nil {
		st.IndexBytes = info.Size()
	}

	return st, nil
}
