package internal

import (
	"github.com/orah4/aipstedu/internal/config"
	"github.com/orah4/aipstedu/internal/embedding"
	"github.com/orah4/aipstedu/internal/rag"
)

// LoadConfig reads the YAML config from path, or from the default
// location when path is empty.
func LoadConfig(configPath string) (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}

// BuildPipeline assembles the retrieval pipeline from configuration.
// The embedding model itself is loaded lazily on first use.
func BuildPipeline(cfg *config.Config) *rag.Pipeline {
	store := rag.NewChunkStore(cfg.Storage.ChunksPath())
	embedder := embedding.NewService(&cfg.Embedding)

	var keyword *rag.KeywordIndex
	if cfg.Search.Keyword {
		keyword = rag.NewKeywordIndex(cfg.Storage.KeywordDir())
	}

	return rag.NewPipeline(store, embedder, cfg.Storage.IndexPath(), rag.PipelineOptions{
		DefaultTopK:  cfg.Search.DefaultTopK,
		KeywordIndex: keyword,
	})
}
