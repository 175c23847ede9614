// Package dataset implements SHYBOX's Dataset Handle (spec.md §4.2):
// a uniform key-resolution, read/write, and lifecycle contract over
// gridded, point, and time-series data, backed by one of three
// variants (Local, Memory, OnDemand) dispatched through a Backend
// interface — a tagged-variant dispatch, not a type-switch over
// concrete backend structs (REDESIGN FLAGS, spec.md §9).
package dataset

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/cenkalti/backoff"
)

// Backend is the uniform storage contract a Handle dispatches key-level
// operations through.
type Backend interface {
	Read(ctx context.Context, key string) (io.ReadCloser, error)
	Write(ctx context.Context, key string) (io.WriteCloser, error)
	Check(ctx context.Context, key string) (bool, error)
	Walk(ctx context.Context, prefix string) ([]string, error)
	Remove(ctx context.Context, key string) error
}

// LocalBackend roots every key at a directory on the local filesystem,
// grounded on the teacher's path-building conventions in
// inmaputil/config.go (os.MkdirAll + filepath.Join before any write).
type LocalBackend struct {
	Root string
}

func (b *LocalBackend) abs(key string) string {
	if filepath.IsAbs(key) {
		return key
	}
	return filepath.Join(b.Root, key)
}

// Path exposes the absolute filesystem path a key resolves to, so
// format codecs that require random-access file handles (NetCDF,
// GeoTIFF) can be handed a path directly instead of a stream.
func (b *LocalBackend) Path(key string) string { return b.abs(key) }

func (b *LocalBackend) Read(_ context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(b.abs(key))
	if err != nil {
		return nil, fmt.Errorf("dataset: local read %s: %w", key, err)
	}
	return f, nil
}

func (b *LocalBackend) Write(_ context.Context, key string) (io.WriteCloser, error) {
	path := b.abs(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("dataset: local write %s: %w", key, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: local write %s: %w", key, err)
	}
	return f, nil
}

func (b *LocalBackend) Check(_ context.Context, key string) (bool, error) {
	_, err := os.Stat(b.abs(key))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (b *LocalBackend) Walk(_ context.Context, prefix string) ([]string, error) {
	base := b.abs(prefix)
	dir := base
	if fi, err := os.Stat(base); err != nil || !fi.IsDir() {
		dir = filepath.Dir(base)
	}
	var out []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if strings.HasPrefix(path, base) {
			rel, relErr := filepath.Rel(b.Root, path)
			if relErr != nil {
				rel = path
			}
			out = append(out, rel)
		}
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("dataset: local walk %s: %w", prefix, err)
	}
	sort.Strings(out)
	return out, nil
}

func (b *LocalBackend) Remove(_ context.Context, key string) error {
	if err := os.Remove(b.abs(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("dataset: local remove %s: %w", key, err)
	}
	return nil
}

// MemoryBackend is an in-process key→bytes store guarded by a mutex,
// used for the orchestrator's Mem intermediate-output mode.
// KeepAfterReading controls whether a Read consumes (deletes) its key
// or leaves it in place for a subsequent reader.
type MemoryBackend struct {
	KeepAfterReading bool

	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryBackend(keep bool) *MemoryBackend {
	return &MemoryBackend{KeepAfterReading: keep, data: map[string][]byte{}}
}

func (b *MemoryBackend) Read(_ context.Context, key string) (io.ReadCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	buf, ok := b.data[key]
	if !ok {
		return nil, fmt.Errorf("dataset: memory read %s: %w", key, os.ErrNotExist)
	}
	if !b.KeepAfterReading {
		delete(b.data, key)
	}
	return io.NopCloser(bytes.NewReader(buf)), nil
}

type memWriter struct {
	b    *MemoryBackend
	key  string
	buf  []byte
}

func (w *memWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	return len(p), nil
}

func (w *memWriter) Close() error {
	w.b.mu.Lock()
	defer w.b.mu.Unlock()
	w.b.data[w.key] = w.buf
	return nil
}

func (b *MemoryBackend) Write(_ context.Context, key string) (io.WriteCloser, error) {
	return &memWriter{b: b, key: key}, nil
}

func (b *MemoryBackend) Check(_ context.Context, key string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.data[key]
	return ok, nil
}

func (b *MemoryBackend) Walk(_ context.Context, prefix string) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []string
	for k := range b.data {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (b *MemoryBackend) Remove(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.data, key)
	return nil
}

// SynthesizeFunc produces a dataset's bytes at use-time, e.g. a
// reference raster built from grid-generation parameters (generalized
// from the teacher's popgrid.go/vargrid.go role).
type SynthesizeFunc func(ctx context.Context, key string) ([]byte, error)

// OnDemandBackend wraps a SynthesizeFunc, retrying transient failures
// with github.com/cenkalti/backoff — the same bounded-retry shape the
// teacher's sr/sr.go uses around its own on-demand cloud fetches.
type OnDemandBackend struct {
	Synthesize SynthesizeFunc
	MaxRetries uint64
}

func (b *OnDemandBackend) Read(ctx context.Context, key string) (io.ReadCloser, error) {
	var buf []byte
	op := func() error {
		var err error
		buf, err = b.Synthesize(ctx, key)
		return err
	}
	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), b.retries())
	if err := backoff.Retry(op, backoff.WithContext(policy, ctx)); err != nil {
		return nil, fmt.Errorf("dataset: on-demand synthesize %s: %w", key, err)
	}
	return io.NopCloser(bytes.NewReader(buf)), nil
}

func (b *OnDemandBackend) retries() uint64 {
	if b.MaxRetries == 0 {
		return 3
	}
	return b.MaxRetries
}

func (b *OnDemandBackend) Write(_ context.Context, key string) (io.WriteCloser, error) {
	return nil, fmt.Errorf("dataset: on-demand backend %s is read-only", key)
}

func (b *OnDemandBackend) Check(_ context.Context, _ string) (bool, error) { return true, nil }

func (b *OnDemandBackend) Walk(_ context.Context, _ string) ([]string, error) { return nil, nil }

func (b *OnDemandBackend) Remove(_ context.Context, _ string) error { return nil }
