// Package evalcache implements the optional on-disk memoization of
// internal/evalgraph's evaluation results, keyed by (target identifier,
// environment digest, generation). The in-process Evaluator cache (spec §8
// referential-transparency property) only survives one run; this package
// persists the same property across runs so an unchanged project re-evaluates
// nothing. Grounded on the teacher's internal/registry/cache.go sidecar
// CacheMetadata pattern (CachedAt/LastAccess/ContentHash) and
// internal/actions/extract.go's github.com/klauspost/compress/zstd usage,
// adapted from per-recipe sidecar files to a single zstd-compressed JSON
// database file since COBBLE_CACHE_DB (internal/cobbleconfig) names one path,
// not a directory.
package evalcache

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/cobbleforge/cobble/internal/model"
)

// Entry is one cached evaluation result: the product records a target
// emitted under a given environment, plus access bookkeeping mirroring the
// teacher's CacheMetadata (LastAccess drives Flush's least-recently-accessed
// eviction against SizeLimit).
type Entry struct {
	Products   []productDTO `json:"products"`
	CachedAt   time.Time    `json:"cached_at"`
	LastAccess time.Time    `json:"last_access"`
}

// fileFormat is the on-disk (pre-compression) shape of the whole cache
// database. Generation invalidates every entry at once when the project's
// own definition files change (spec regeneration-dependency list,
// internal/graphview.SourceFiles) - an evaluation result is only valid for
// the BUILD graph that produced it.
type fileFormat struct {
	Generation string           `json:"generation"`
	Entries    map[string]Entry `json:"entries"`
}

// Store is a process-shared handle onto the on-disk cache database at Path.
// Load reads the whole (decompressed) database into memory; Flush rewrites
// it. Concurrent evaluator goroutines share one Store instance guarded by mu.
type Store struct {
	Path       string
	SizeLimit  int64
	Generation string

	mu     sync.Mutex
	data   fileFormat
	dirty  bool
	loaded bool
}

// Open constructs a Store for path, scoped to generation (typically a
// content digest of internal/graphview.SourceFiles - BUILD.conf plus every
// package's BUILD file) and bounded to sizeLimit bytes on Flush.
func Open(path string, generation string, sizeLimit int64) *Store {
	return &Store{Path: path, Generation: generation, SizeLimit: sizeLimit}
}

// Load reads and decompresses the database file, discarding it if its
// Generation no longer matches (the project's BUILD graph changed since it
// was written) or if the file doesn't exist yet. Safe to call once before
// first use; Get/Put call it lazily if needed.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *Store) loadLocked() error {
	if s.loaded {
		return nil
	}
	s.loaded = true
	s.data = fileFormat{Generation: s.Generation, Entries: map[string]Entry{}}

	f, err := os.Open(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	raw, err := io.ReadAll(dec)
	if err != nil {
		return err
	}

	var parsed fileFormat
	if err := json.Unmarshal(raw, &parsed); err != nil {
		// A corrupt cache is treated as empty rather than a fatal error -
		// it is purely an optimization, never a source of truth.
		return nil
	}
	if parsed.Generation != s.Generation {
		return nil
	}
	s.data = parsed
	return nil
}

// Get returns the cached products for key, and whether they were present
// and fresh. A hit updates LastAccess and marks the store dirty so the next
// Flush persists the bump.
func (s *Store) Get(key string) ([]model.ProductRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		return nil, false, err
	}

	entry, ok := s.data.Entries[key]
	if !ok {
		return nil, false, nil
	}

	records := make([]model.ProductRecord, len(entry.Products))
	for i, dto := range entry.Products {
		rec, err := decodeProduct(dto)
		if err != nil {
			return nil, false, err
		}
		records[i] = rec
	}

	entry.LastAccess = s.now()
	s.data.Entries[key] = entry
	s.dirty = true
	return records, true, nil
}

// Put stores records under key, overwriting any prior entry.
func (s *Store) Put(key string, records []model.ProductRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		return err
	}

	dtos := make([]productDTO, len(records))
	for i, rec := range records {
		dtos[i] = encodeProduct(rec)
	}

	now := s.now()
	s.data.Entries[key] = Entry{Products: dtos, CachedAt: now, LastAccess: now}
	s.dirty = true
	return nil
}

// now is a seam so tests can avoid asserting on wall-clock values; callers
// never override it in production.
var nowFunc = time.Now

func (s *Store) now() time.Time { return nowFunc() }

// Flush compresses and writes the database back to Path if it has changed
// since Load, evicting the least-recently-accessed entries first when the
// encoded size would exceed SizeLimit.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil
	}

	s.evictToFitLocked()

	raw, err := json.Marshal(s.data)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return err
	}

	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	if err != nil {
		return err
	}
	if _, err := enc.Write(raw); err != nil {
		enc.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}

	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		return err
	}

	s.dirty = false
	return nil
}

// evictToFitLocked drops least-recently-accessed entries until the
// marshaled JSON size (a reasonable proxy for the compressed size) is under
// SizeLimit. SizeLimit <= 0 disables eviction.
func (s *Store) evictToFitLocked() {
	if s.SizeLimit <= 0 {
		return
	}
	for {
		raw, err := json.Marshal(s.data)
		if err != nil || int64(len(raw)) <= s.SizeLimit {
			return
		}
		oldestKey := ""
		var oldest time.Time
		for k, e := range s.data.Entries {
			if oldestKey == "" || e.LastAccess.Before(oldest) {
				oldestKey = k
				oldest = e.LastAccess
			}
		}
		if oldestKey == "" {
			return
		}
		delete(s.data.Entries, oldestKey)
	}
}
