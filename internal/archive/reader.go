// Package archive writes and reads compressed tar bundles of extracted
// payloads. It supports tar.xz and tar.gz.
package archive

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/ulikunitz/xz"

	"github.com/mitsimi/veil/core/errors"
)

// MaxEntrySize caps how much of a single bundle entry is read into memory.
const MaxEntrySize = 64 << 20

// Reader wraps a tar.Reader with automatic decompression handling.
type Reader struct {
	*tar.Reader
	file         *os.File
	decompressor io.Closer
}

// NewReader creates a new archive reader for the given path.
// It automatically detects and handles .tar.gz and .tar.xz compression.
func NewReader(path string) (*Reader, error) {
	c, err := CompressionFor(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}

	var reader io.Reader
	var decompressor io.Closer

	switch c {
	case CompressionXz:
		xzr, err := xz.NewReader(f)
		if err != nil {
			f.Close()
			return nil, &errors.ParseError{Format: "xz", Offset: 0, Err: err}
		}
		reader = xzr
	case CompressionGzip:
		gzr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, &errors.ParseError{Format: "gzip", Offset: 0, Err: err}
		}
		reader = gzr
		decompressor = gzr
	}

	return &Reader{
		Reader:       tar.NewReader(reader),
		file:         f,
		decompressor: decompressor,
	}, nil
}

// Close closes the archive reader and any underlying decompressors.
func (r *Reader) Close() error {
	var errs []error
	if r.decompressor != nil {
		if err := r.decompressor.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := r.file.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// Visitor is a callback function for iterating archive entries.
// Return true to stop iteration, false to continue.
type Visitor func(header *tar.Header, content io.Reader) (stop bool, err error)

// Iterate walks through all entries in the archive, calling the visitor for each.
func (r *Reader) Iterate(visitor Visitor) error {
	for {
		header, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read header: %w", err)
		}

		stop, err := visitor(header, r)
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
}

// IterateBundle opens a bundle and iterates through its entries.
func IterateBundle(path string, visitor Visitor) error {
	r, err := NewReader(path)
	if err != nil {
		return err
	}
	defer r.Close()
	return r.Iterate(visitor)
}

// ReadBundle returns every regular file in the bundle, in archive order,
// with the leading base directory stripped from each name.
func ReadBundle(path string) ([]Entry, error) {
	var entries []Entry
	err := IterateBundle(path, func(header *tar.Header, r io.Reader) (bool, error) {
		if header.Typeflag != tar.TypeReg {
			return false, nil
		}
		data, err := readEntry(header, r)
		if err != nil {
			return true, err
		}
		entries = append(entries, Entry{Name: stripBase(header.Name), Data: data})
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// ReadFile reads a specific file from the bundle.
func ReadFile(bundlePath, filename string) ([]byte, error) {
	var content []byte
	var found bool
	err := IterateBundle(bundlePath, func(header *tar.Header, r io.Reader) (bool, error) {
		if stripBase(header.Name) == filename || header.Name == filename {
			var err error
			content, err = readEntry(header, r)
			found = true
			return true, err
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.NewNotFound("bundle entry", filename)
	}
	return content, nil
}

func readEntry(header *tar.Header, r io.Reader) ([]byte, error) {
	if header.Size > MaxEntrySize {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "entry %s is %d bytes, limit %d", header.Name, header.Size, MaxEntrySize)
	}
	data, err := io.ReadAll(io.LimitReader(r, MaxEntrySize))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", header.Name, err)
	}
	return data, nil
}

// stripBase handles archives with or without a leading directory.
func stripBase(name string) string {
	if idx := strings.Index(name, "/"); idx >= 0 {
		return name[idx+1:]
	}
	return name
}
