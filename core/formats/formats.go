// Package formats routes a carrier file to the container implementation
// that understands it.
//
// A Format is selected by file extension and confirmed by the file's leading
// magic bytes. Only PNG is registered today; a second container format is
// added by implementing Format and Carrier and calling Register, without
// touching the classifier or the locator.
package formats

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/mitsimi/veil/core/errors"
	"github.com/mitsimi/veil/core/png"
	"github.com/mitsimi/veil/core/stego"
)

// Format is a container format capable of carrying hidden data.
type Format interface {
	// Name is the registry key (e.g. "png").
	Name() string

	// Extensions lists accepted lowercase file extensions, with leading dot.
	Extensions() []string

	// MatchSignature reports whether head starts with the format's magic.
	MatchSignature(head []byte) bool

	// SignatureLen is the number of leading bytes MatchSignature needs.
	SignatureLen() int

	// Open parses a complete file.
	Open(data []byte) (Carrier, error)
}

// Carrier is an opened container file.
type Carrier interface {
	Catalog() []stego.HiddenItem
	ExtractAll() ([]stego.ExtractedItem, error)
	Hide(data []byte, chunkType png.ChunkType)
	Remove(chunkType string) error
	CustomTags() []string
	Bytes() []byte
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Format)
)

// Register adds f to the registry, replacing any format with the same name.
func Register(f Format) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[f.Name()] = f
}

// Lookup returns the format registered under name.
func Lookup(name string) (Format, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[name]
	return f, ok
}

// List returns all registered formats sorted by name.
func List() []Format {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]Format, 0, len(registry))
	for _, f := range registry {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Detect picks the format for path whose extension matches and whose
// signature matches head.
func Detect(path string, head []byte) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	for _, f := range List() {
		if !hasExtension(f, ext) {
			continue
		}
		if !f.MatchSignature(head) {
			return nil, errors.Wrapf(errors.ErrBadSignature, "%s is not a valid %s file", filepath.Base(path), f.Name())
		}
		return f, nil
	}
	if ext == "" {
		ext = "(none)"
	}
	return nil, errors.NewUnsupported("file format", "extension "+ext)
}

func hasExtension(f Format, ext string) bool {
	for _, e := range f.Extensions() {
		if e == ext {
			return true
		}
	}
	return false
}
