package rag

import (
	"fmt"
	"os"
	"strconv"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
)

// KeywordIndex maintains an optional bleve full-text index beside the
// vector index. Documents are keyed by chunk position, so keyword hits
// hydrate against the chunk store exactly like vector hits do.
type KeywordIndex struct {
	dir string
}

// keywordDoc is the indexed shape of a chunk
type keywordDoc struct {
	Source string `json:"source"`
	Text   string `json:"text"`
}

// NewKeywordIndex creates a keyword index rooted at dir
func NewKeywordIndex(dir string) *KeywordIndex {
	return &KeywordIndex{dir: dir}
}

// Rebuild replaces the index with one built from the full chunk sequence.
// Like the vector index, an empty sequence is a no-op that leaves any
// prior index untouched.
func (k *KeywordIndex) Rebuild(chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	if err := os.RemoveAll(k.dir); err != nil {
		return fmt.Errorf("reset keyword index dir: %w", err)
	}

	index, err := bleve.New(k.dir, buildKeywordMapping())
	if err != nil {
		return fmt.Errorf("create keyword index: %w", err)
	}
	defer index.Close()

	batch := index.NewBatch()
	for i, c := range chunks {
		if err := batch.Index(strconv.Itoa(i), keywordDoc{Source: c.Source, Text: c.Text}); err != nil {
			return fmt.Errorf("index chunk %d: %w", i, err)
		}
	}
	if err := index.Batch(batch); err != nil {
		return fmt.Errorf("commit keyword batch: %w", err)
	}

	return nil
}

// Search returns up to topK (score, position) hits for a match query.
// A missing or unopenable index reads as empty results, mirroring the
// vector index's absence policy.
func (k *KeywordIndex) Search(query string, topK int) ([]Hit, error) {
	if topK <= 0 {
		return nil, nil
	}

	index, err := bleve.Open(k.dir)
	if err != nil {
		return nil, nil
	}
	defer index.Close()

	q := bleve.NewMatchQuery(query)
	req := bleve.NewSearchRequestOptions(q, topK, 0, false)

	res, err := index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		pos, err := strconv.Atoi(h.ID)
		if err != nil {
			continue
		}
		hits = append(hits, Hit{Score: float32(h.Score), Position: pos})
	}

	return hits, nil
}

func buildKeywordMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = "en"
	indexMapping.DefaultField = "text"

	docMapping := bleve.NewDocumentMapping()

	textField := bleve.NewTextFieldMapping()
	textField.Store = false
	textField.Index = true
	docMapping.AddFieldMappingsAt("text", textField)

	sourceField := bleve.NewTextFieldMapping()
	sourceField.Store = true
	sourceField.Index = true
	sourceField.Analyzer = "keyword"
	docMapping.AddFieldMappingsAt("source", sourceField)

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}
