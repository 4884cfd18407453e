package rag

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ChunkStore persists the append-ordered chunk sequence as a JSONL file:
// one {"source","text"} object per line, UTF-8. It is the ground truth
// for what has been ingested; the vector index is derived from it.
type ChunkStore struct {
	path string
}

// NewChunkStore creates a store backed by the given file path
func NewChunkStore(path string) *ChunkStore {
	return &ChunkStore{path: path}
}

// Path returns the backing file path
func (s *ChunkStore) Path() string {
	return s.path
}

// Load returns the full persisted sequence in append order. A missing
// file is a valid empty store, not an error. A malformed line is a hard
// error: silently treating a corrupt store as empty would silently erase
// previously ingested knowledge.
func (s *ChunkStore) Load() ([]Chunk, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open chunk store: %w", err)
	}
	defer f.Close()

	var chunks []Chunk

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var c Chunk
		if err := json.Unmarshal(line, &c); err != nil {
			return nil, fmt.Errorf("chunk store corrupt at %s line %d: %w", s.path, lineNo, err)
		}
		chunks = append(chunks, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read chunk store: %w", err)
	}

	return chunks, nil
}

// Save replaces the entire persisted sequence. The new content is written
// to a temporary file in the same directory and renamed over the store,
// so a crash mid-write cannot leave a truncated or unreadable store.
func (s *ChunkStore) Save(chunks []Chunk) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "chunks-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	w := bufio.NewWriter(tmp)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	for i, c := range chunks {
		if err := enc.Encode(c); err != nil {
			tmp.Close()
			return fmt.Errorf("failed to encode chunk %d: %w", i, err)
		}
	}

	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to flush chunk store: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync chunk store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close chunk store: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("failed to replace chunk store: %w", err)
	}

	return nil
}
