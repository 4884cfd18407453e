package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"

	"github.com/orah4/aipstedu/internal/config"
)

// HashingClient is the local embedding backend: a feature-hashing
// bag-of-words model. Each token (and each adjacent token pair, at lower
// weight) is hashed into one of Dimensions buckets. Encoding is a pure
// function of the input text, so it is deterministic, CPU-only and needs
// no network or model download.
type HashingClient struct {
	model string
	dims  int
}

const (
	defaultHashingDims = 256
	bigramWeight       = 0.5
)

// NewHashingClient creates the local hashing embedder
func NewHashingClient(cfg *config.EmbeddingConfig) (*HashingClient, error) {
	dims := cfg.Dimensions
	if dims <= 0 {
		dims = defaultHashingDims
	}
	model := cfg.Model
	if model == "" {
		model = "bow-hash-v1"
	}
	return &HashingClient{model: model, dims: dims}, nil
}

// EmbedBatch encodes each text independently, so batch boundaries cannot
// affect the result for any individual text.
func (c *HashingClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i, text := range texts {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		vecs[i] = c.encode(text)
	}
	return vecs, nil
}

// Dimensions returns the vector width
func (c *HashingClient) Dimensions() int {
	return c.dims
}

// encode produces the raw (un-normalized) feature vector for one text
func (c *HashingClient) encode(text string) []float32 {
	vec := make([]float32, c.dims)
	tokens := tokenize(text)

	for i, tok := range tokens {
		vec[c.bucket(tok)]++
		if i > 0 {
			vec[c.bucket(tokens[i-1]+" "+tok)] += bigramWeight
		}
	}

	return vec
}

// bucket maps a feature string to a vector position
func (c *HashingClient) bucket(feature string) int {
	h := fnv.New32a()
	h.Write([]byte(feature))
	return int(h.Sum32() % uint32(c.dims))
}

// tokenize splits text into lowercase letter/digit runs
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func (c *HashingClient) String() string {
	return fmt.Sprintf("%s/%d", c.model, c.dims)
}
