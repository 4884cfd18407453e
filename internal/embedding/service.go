package embedding

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/orah4/aipstedu/internal/config"
)

// ErrModelUnavailable wraps any failure to load or reach the embedding
// model. Once the load has failed, every later call reports the same error;
// the service never retries on its own.
var ErrModelUnavailable = errors.New("embedding model unavailable")

// DefaultBatchSize bounds peak memory during batch encoding.
const DefaultBatchSize = 32

// Client is the interface for embedding model backends
type Client interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

// Service provides embedding generation functionality. The underlying
// model is loaded lazily, at most once per process: the first Embed call
// pays the load cost, later calls reuse the same client. Safe for
// concurrent first use.
type Service struct {
	cfg *config.EmbeddingConfig

	mu      sync.Mutex
	loaded  bool
	client  Client
	loadErr error
}

// NewService creates a new embedding service. The model is not loaded here.
func NewService(cfg *config.EmbeddingConfig) *Service {
	return &Service{cfg: cfg}
}

// ensureClient loads the model on first use under the service mutex.
func (s *Service) ensureClient() (Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		client, err := newClient(s.cfg)
		if err != nil {
			s.loadErr = fmt.Errorf("%w: model %q: %v", ErrModelUnavailable, s.cfg.Model, err)
		}
		s.client = client
		s.loaded = true
	}

	return s.client, s.loadErr
}

// newClient constructs the backend selected by the configuration
func newClient(cfg *config.EmbeddingConfig) (Client, error) {
	switch cfg.Provider {
	case "hashing", "":
		return NewHashingClient(cfg)
	case "openai":
		return NewOpenAIClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}

// Embed generates an embedding for a single text
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("expected 1 embedding, got %d", len(vecs))
	}
	return vecs[0], nil
}

// EmbedBatch generates embeddings for multiple texts. Inputs are encoded
// in fixed-size batches so peak memory stays bounded regardless of input
// length; output order matches input order 1:1 and is independent of how
// the inputs fall into batches.
func (s *Service) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	client, err := s.ensureClient()
	if err != nil {
		return nil, err
	}

	batchSize := s.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	results := make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += batchSize {
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}

		vecs, err := client.EmbedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("failed to embed batch %d-%d: %w", start, end, err)
		}
		if len(vecs) != end-start {
			return nil, fmt.Errorf("embed batch %d-%d: expected %d vectors, got %d", start, end, end-start, len(vecs))
		}

		results = append(results, vecs...)
	}

	return results, nil
}

// Dimensions returns the width of the vectors this service produces.
// It loads the model if that has not happened yet.
func (s *Service) Dimensions() (int, error) {
	client, err := s.ensureClient()
	if err != nil {
		return 0, err
	}
	return client.Dimensions(), nil
}

// Similarity computes cosine similarity between two vectors
func Similarity(a, b []float32) float32 {
	if len(a) != len(b) {
		panic(fmt.Sprintf("vector dimension mismatch: %d vs %d", len(a), len(b)))
	}

	var dotProduct float32
	var normA float32
	var normB float32

	for i := 0; i < len(a); i++ {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB))))
}
