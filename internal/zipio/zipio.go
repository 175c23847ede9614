// Package zipio makes gzip and bzip2 compression transparent to the
// rest of SHYBOX: Dataset Handles and format codecs open a path
// without caring whether it (or its configured zip extension) is
// plain, gzip, or bzip2.
//
// gzip is read/write via the standard library. bzip2 is read-only:
// compress/bzip2 in the standard library never grew an encoder, and
// nothing in the retrieved pack carries a bzip2 writer either, so
// writing ".bz2" outputs is rejected rather than silently faked.
package zipio

import (
	"compress/bzip2"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Kind identifies a compression scheme.
type Kind int

const (
	None Kind = iota
	Gzip
	Bzip2
)

// ErrBzip2WriteUnsupported is returned by Writer when kind is Bzip2.
var ErrBzip2WriteUnsupported = errors.New("zipio: bzip2 encoding is not supported")

// KindForExt infers a Kind from a file extension (with or without the
// leading dot, case-insensitive).
func KindForExt(ext string) Kind {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "gz", "gzip":
		return Gzip
	case "bz2", "bzip2":
		return Bzip2
	default:
		return None
	}
}

// KindForPath infers a Kind from a path's suffix.
func KindForPath(path string) Kind {
	switch {
	case strings.HasSuffix(strings.ToLower(path), ".gz"):
		return Gzip
	case strings.HasSuffix(strings.ToLower(path), ".bz2"):
		return Bzip2
	default:
		return None
	}
}

// Reader opens path for reading, transparently decompressing gzip or
// bzip2 content according to kind. The caller must Close the returned
// ReadCloser.
func Reader(path string, kind Kind) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("zipio: open %s: %w", path, err)
	}
	switch kind {
	case None:
		return f, nil
	case Gzip:
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("zipio: gzip reader %s: %w", path, err)
		}
		return &readCloser{Reader: gz, closer: func() error { gz.Close(); return f.Close() }}, nil
	case Bzip2:
		return &readCloser{Reader: bzip2.NewReader(f), closer: f.Close}, nil
	default:
		f.Close()
		return nil, fmt.Errorf("zipio: unknown kind %d", kind)
	}
}

// Writer creates path for writing, transparently compressing to gzip
// when kind is Gzip. kind == Bzip2 returns ErrBzip2WriteUnsupported.
func Writer(path string, kind Kind) (io.WriteCloser, error) {
	switch kind {
	case Bzip2:
		return nil, ErrBzip2WriteUnsupported
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("zipio: create %s: %w", path, err)
	}
	if kind == None {
		return f, nil
	}
	gz := gzip.NewWriter(f)
	return &writeCloser{Writer: gz, closer: func() error {
		if err := gz.Close(); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}}, nil
}

type readCloser struct {
	io.Reader
	closer func() error
}

func (r *readCloser) Close() error { return r.closer() }

type writeCloser struct {
	io.Writer
	closer func() error
}

func (w *writeCloser) Close() error { return w.closer() }
