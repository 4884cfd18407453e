package rag

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
)

// FlatIndex is an exact nearest-neighbor structure over L2-normalized
// vectors keyed by inner product. With unit vectors the inner product
// equals cosine similarity, so scores fall in [-1, 1].
type FlatIndex struct {
	dim  int
	data []float32 // row-major, Size()*dim, rows normalized on insert
}

// Hit is one search result: the row's score and its position, which joins
// back to the chunk store entry at the same position.
type Hit struct {
	Score    float32
	Position int
}

// normEps guards the normalization denominator against a zero vector.
const normEps = 1e-12

// NewFlatIndex creates an empty index for vectors of the given width
func NewFlatIndex(dim int) (*FlatIndex, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("invalid index dimension: %d", dim)
	}
	return &FlatIndex{dim: dim}, nil
}

// Dimensions returns the vector width
func (ix *FlatIndex) Dimensions() int {
	return ix.dim
}

// Size returns the number of indexed rows
func (ix *FlatIndex) Size() int {
	return len(ix.data) / ix.dim
}

// Add appends vectors to the index, normalizing each to unit length.
// Row order follows insertion order.
func (ix *FlatIndex) Add(vectors [][]float32) error {
	for i, v := range vectors {
		if len(v) != ix.dim {
			return fmt.Errorf("vector %d dimension mismatch: expected %d, got %d", i, ix.dim, len(v))
		}
		ix.data = append(ix.data, Normalize(v)...)
	}
	return nil
}

// Search returns up to topK rows by descending inner product against the
// normalized query. Fewer than topK hits are returned when the index
// holds fewer rows.
func (ix *FlatIndex) Search(query []float32, topK int) []Hit {
	n := ix.Size()
	if n == 0 || topK <= 0 {
		return nil
	}
	if len(query) != ix.dim {
		return nil
	}

	q := Normalize(query)

	hits := make([]Hit, n)
	for row := 0; row < n; row++ {
		base := row * ix.dim
		var dot float32
		for i := 0; i < ix.dim; i++ {
			dot += ix.data[base+i] * q[i]
		}
		hits[row] = Hit{Score: dot, Position: row}
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })

	if topK > len(hits) {
		topK = len(hits)
	}
	return hits[:topK]
}

// Normalize returns a unit-length copy of v. The epsilon in the
// denominator keeps a zero vector from dividing by zero.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum) + normEps

	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// Index file layout: magic, version, dimension, row count, then row-major
// little-endian float32 data. Written in one shot, read in one shot.
const (
	indexMagic   = 0x41495658 // "AIVX"
	indexVersion = 1
)

// WriteIndexFile persists the index to path atomically (temp file in the
// same directory, then rename), fully replacing any prior index.
func WriteIndexFile(path string, ix *FlatIndex) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "index-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	w := bufio.NewWriter(tmp)

	header := []uint32{indexMagic, indexVersion, uint32(ix.dim), uint32(ix.Size())}
	for _, h := range header {
		if err := binary.Write(w, binary.LittleEndian, h); err != nil {
			tmp.Close()
			return fmt.Errorf("failed to write index header: %w", err)
		}
	}
	if err := binary.Write(w, binary.LittleEndian, ix.data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write index data: %w", err)
	}

	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to flush index: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close index: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to replace index: %w", err)
	}

	return nil
}

// ReadIndexFile loads a persisted index. A missing file surfaces as an
// os.IsNotExist error; callers treat both missing and malformed files as
// "no index" on the read path.
func ReadIndexFile(path string) (*FlatIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := bufio.NewReader(f)

	var header [4]uint32
	for i := range header {
		if err := binary.Read(r, binary.LittleEndian, &header[i]); err != nil {
			return nil, fmt.Errorf("failed to read index header: %w", err)
		}
	}

	if header[0] != indexMagic {
		return nil, fmt.Errorf("not an index file: bad magic %#x", header[0])
	}
	if header[1] != indexVersion {
		return nil, fmt.Errorf("unsupported index version: %d", header[1])
	}

	dim := int(header[2])
	count := int(header[3])
	if dim <= 0 || count < 0 {
		return nil, fmt.Errorf("corrupt index header: dim=%d count=%d", dim, count)
	}

	ix := &FlatIndex{
		dim:  dim,
		data: make([]float32, dim*count),
	}
	if err := binary.Read(r, binary.LittleEndian, ix.data); err != nil {
		return nil, fmt.Errorf("failed to read index data: %w", err)
	}

	return ix, nil
}
