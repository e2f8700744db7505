package archive

import (
	"archive/tar"
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/ulikunitz/xz"

	"github.com/mitsimi/veil/core/errors"
	"github.com/mitsimi/veil/internal/fileutil"
)

// Compression selects the outer compression of a bundle.
type Compression int

const (
	// CompressionXz produces .tar.xz bundles.
	CompressionXz Compression = iota
	// CompressionGzip produces .tar.gz bundles.
	CompressionGzip
)

// String returns the bundle suffix for c.
func (c Compression) String() string {
	if c == CompressionGzip {
		return ".tar.gz"
	}
	return ".tar.xz"
}

// CompressionFor picks the compression from a bundle path suffix.
func CompressionFor(bundlePath string) (Compression, error) {
	switch {
	case strings.HasSuffix(bundlePath, ".tar.xz"), strings.HasSuffix(bundlePath, ".txz"):
		return CompressionXz, nil
	case strings.HasSuffix(bundlePath, ".tar.gz"), strings.HasSuffix(bundlePath, ".tgz"):
		return CompressionGzip, nil
	default:
		return 0, errors.NewUnsupported("bundle format", path.Base(bundlePath))
	}
}

// Entry is one regular file inside a bundle.
type Entry struct {
	Name string
	Data []byte
}

// WriteBundle writes entries as a compressed tar stream to w. Entry names are
// placed under baseDir when it is non-empty.
func WriteBundle(w io.Writer, c Compression, baseDir string, entries []Entry) error {
	var (
		cw  io.WriteCloser
		err error
	)
	switch c {
	case CompressionGzip:
		cw = gzip.NewWriter(w)
	default:
		cw, err = xz.NewWriter(w)
		if err != nil {
			return fmt.Errorf("xz writer: %w", err)
		}
	}

	tw := tar.NewWriter(cw)

	// One timestamp for every entry in the bundle.
	now := time.Now().Truncate(time.Second)

	for _, e := range entries {
		name := e.Name
		if baseDir != "" {
			name = baseDir + "/" + name
		}
		if err := tw.WriteHeader(&tar.Header{
			Name:     name,
			Mode:     0644,
			Size:     int64(len(e.Data)),
			ModTime:  now,
			Typeflag: tar.TypeReg,
		}); err != nil {
			return fmt.Errorf("failed to write header for %s: %w", name, err)
		}
		if _, err := tw.Write(e.Data); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("failed to finish tar stream: %w", err)
	}
	if err := cw.Close(); err != nil {
		return fmt.Errorf("failed to finish %s stream: %w", c, err)
	}
	return nil
}

// CreateBundle writes entries to dstPath, choosing compression from its
// suffix. The base directory inside the archive is derived from dstPath.
func CreateBundle(dstPath string, entries []Entry) error {
	c, err := CompressionFor(dstPath)
	if err != nil {
		return err
	}

	baseDir := path.Base(strings.ReplaceAll(dstPath, "\\", "/"))
	for _, suffix := range []string{".tar.xz", ".txz", ".tar.gz", ".tgz"} {
		baseDir = strings.TrimSuffix(baseDir, suffix)
	}

	var buf bytes.Buffer
	if err := WriteBundle(&buf, c, baseDir, entries); err != nil {
		return err
	}
	return fileutil.WriteFileAtomic(dstPath, buf.Bytes(), 0644)
}
