package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/arqlabs/voice-rag-be/types"
)

const (
	manifestFile = "manifest.json"
	passagesFile = "passages.json"

	// MetricDot marks indexes whose vectors are unit-normalized, where dot
	// product equals cosine similarity.
	MetricDot = "dot"
)

type manifest struct {
	Meta  IndexMeta `json:"meta"`
	Count int       `json:"count"`
}

type storedPassage struct {
	Passage types.Passage `json:"passage"`
	Vector  []float32     `json:"vector"`
}

// LocalStore is a file-backed vector index held fully in memory. The on-disk
// layout is a directory with a manifest and a passage file; the directory is
// self-contained and can be copied between machines.
//
// Build writes into a temp directory and renames it over the live one, so a
// crash mid-build leaves the previous index intact.
type LocalStore struct {
	dir string

	mu      sync.RWMutex
	meta    IndexMeta
	entries []storedPassage
	ready   bool
}

func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{dir: dir}
}

// Build persists the passages and vectors and swaps them in as the live
// index in one rename.
func (s *LocalStore) Build(ctx context.Context, meta IndexMeta, passages []types.Passage, vectors [][]float32) error {
	if len(passages) != len(vectors) {
		return fmt.Errorf("passage/vector count mismatch: %d vs %d", len(passages), len(vectors))
	}

	entries := make([]storedPassage, len(passages))
	for i := range passages {
		if meta.Dimensions > 0 && len(vectors[i]) != meta.Dimensions {
			return fmt.Errorf("vector %d has %d dimensions, index expects %d", i, len(vectors[i]), meta.Dimensions)
		}
		entries[i] = storedPassage{Passage: passages[i], Vector: vectors[i]}
	}

	parent := filepath.Dir(s.dir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("failed to create index parent directory: %w", err)
	}
	tmpDir, err := os.MkdirTemp(parent, ".index-build-*")
	if err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	if err := writeJSON(filepath.Join(tmpDir, manifestFile), manifest{Meta: meta, Count: len(entries)}); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(tmpDir, passagesFile), entries); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Set the live index aside before installing the new one, so a failed
	// install can put it back and the old data is never destroyed first.
	oldDir := s.dir + ".old"
	if err := os.RemoveAll(oldDir); err != nil {
		return fmt.Errorf("failed to clear stale index backup: %w", err)
	}
	hadPrev := false
	if _, err := os.Stat(s.dir); err == nil {
		if err := os.Rename(s.dir, oldDir); err != nil {
			return fmt.Errorf("failed to set aside previous index: %w", err)
		}
		hadPrev = true
	}
	if err := os.Rename(tmpDir, s.dir); err != nil {
		if hadPrev {
			if rerr := os.Rename(oldDir, s.dir); rerr != nil {
				return fmt.Errorf("failed to install index (%v) and to restore previous index: %w", err, rerr)
			}
		}
		return fmt.Errorf("failed to install index: %w", err)
	}
	if hadPrev {
		os.RemoveAll(oldDir)
	}

	s.meta = meta
	s.entries = entries
	s.ready = true
	log.Printf("INDEX: built %d passages (%s, %d dims) at %s", len(entries), meta.Model, meta.Dimensions, s.dir)
	return nil
}

// Load reads a persisted index into memory, verifying it matches the
// expected embedding space.
func (s *LocalStore) Load(ctx context.Context, expect IndexMeta) error {
	data, err := os.ReadFile(filepath.Join(s.dir, manifestFile))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", types.ErrIndexNotFound, s.dir)
		}
		return fmt.Errorf("failed to read index manifest: %w", err)
	}
	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("%w: corrupt manifest: %v", types.ErrIndexNotFound, err)
	}
	if m.Meta.Model != expect.Model || m.Meta.Dimensions != expect.Dimensions {
		return fmt.Errorf("%w: index built with %s/%d, configured %s/%d",
			types.ErrIndexConfigMismatch, m.Meta.Model, m.Meta.Dimensions, expect.Model, expect.Dimensions)
	}
	if expect.Metric != "" && m.Meta.Metric != expect.Metric {
		return fmt.Errorf("%w: index built with metric %q, configured %q",
			types.ErrIndexConfigMismatch, m.Meta.Metric, expect.Metric)
	}

	data, err = os.ReadFile(filepath.Join(s.dir, passagesFile))
	if err != nil {
		return fmt.Errorf("%w: missing passage file: %v", types.ErrIndexNotFound, err)
	}
	var entries []storedPassage
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("%w: corrupt passage file: %v", types.ErrIndexNotFound, err)
	}

	s.mu.Lock()
	s.meta = m.Meta
	s.entries = entries
	s.ready = true
	s.mu.Unlock()

	log.Printf("INDEX: loaded %d passages (%s, %d dims) from %s", len(entries), m.Meta.Model, m.Meta.Dimensions, s.dir)
	return nil
}

// Query scans all stored vectors with a dot product and returns the top k,
// highest score first. Ordering is stable for equal scores.
func (s *LocalStore) Query(ctx context.Context, vector []float32, k int) ([]types.ScoredPassage, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", types.ErrInvalidQuery)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.ready {
		return nil, types.ErrNotReady
	}
	if len(s.entries) == 0 {
		return nil, fmt.Errorf("%w: index is empty", types.ErrInvalidQuery)
	}
	if len(vector) != s.meta.Dimensions {
		return nil, fmt.Errorf("%w: query has %d dimensions, index expects %d",
			types.ErrIndexConfigMismatch, len(vector), s.meta.Dimensions)
	}

	scored := make([]types.ScoredPassage, 0, len(s.entries))
	for _, e := range s.entries {
		scored = append(scored, types.ScoredPassage{
			Passage: e.Passage,
			Score:   dot(vector, e.Vector),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if k <= 0 || k > len(scored) {
		k = len(scored)
	}
	return scored[:k], nil
}

func (s *LocalStore) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

func (s *LocalStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Meta returns the embedding space of the loaded index.
func (s *LocalStore) Meta() IndexMeta {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meta
}

// dot accumulates in float64 so scores are stable across passage order.
func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func writeJSON(path string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}
