// Package sniff classifies opaque byte payloads by their leading magic bytes.
//
// Classify is total: every input maps to exactly one Kind. Signatures are
// tried in a fixed order and the first match wins, so an image whose tail
// happens to be valid UTF-8 is still reported as an image, and JSON is
// reported as JSON rather than as plain text.
package sniff

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"github.com/mitsimi/veil/core/errors"
)

// Kind is the closed set of content categories.
type Kind int

const (
	KindBinary Kind = iota
	KindText
	KindJSON
	KindPNG
	KindJPEG
	KindGIF
	KindBMP
	KindGzip
	KindZlib
)

var kindInfo = map[Kind]struct {
	name string
	ext  string
}{
	KindBinary: {"binary", ".bin"},
	KindText:   {"text", ".txt"},
	KindJSON:   {"json", ".json"},
	KindPNG:    {"png", ".png"},
	KindJPEG:   {"jpeg", ".jpg"},
	KindGIF:    {"gif", ".gif"},
	KindBMP:    {"bmp", ".bmp"},
	KindGzip:   {"gzip", ".gz"},
	KindZlib:   {"zlib", ".zz"},
}

// Kinds lists every kind in classification order.
var Kinds = []Kind{KindPNG, KindJPEG, KindGIF, KindBMP, KindGzip, KindZlib, KindJSON, KindText, KindBinary}

func (k Kind) String() string {
	if info, ok := kindInfo[k]; ok {
		return info.name
	}
	return "unknown"
}

// Extension returns the conventional file extension, with leading dot.
func (k Kind) Extension() string {
	if info, ok := kindInfo[k]; ok {
		return info.ext
	}
	return ".bin"
}

// IsImage reports whether k is one of the raster image kinds.
func (k Kind) IsImage() bool {
	return k == KindPNG || k == KindJPEG || k == KindGIF || k == KindBMP
}

// IsCompressed reports whether k is a compressed stream.
func (k Kind) IsCompressed() bool {
	return k == KindGzip || k == KindZlib
}

// ParseKind returns the kind named s.
func ParseKind(s string) (Kind, bool) {
	for k, info := range kindInfo {
		if info.name == s {
			return k, true
		}
	}
	return KindBinary, false
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *Kind) UnmarshalText(b []byte) error {
	kind, ok := ParseKind(string(b))
	if !ok {
		return fmt.Errorf("%w: unknown content kind %q", errors.ErrInvalidInput, b)
	}
	*k = kind
	return nil
}

// Content is a classified payload. Text is set only for KindText and KindJSON.
type Content struct {
	Kind Kind
	Data []byte
	Text string
}

var (
	magicPNG   = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}
	magicJPEG  = []byte{0xFF, 0xD8, 0xFF}
	magicGIF87 = []byte("GIF87a")
	magicGIF89 = []byte("GIF89a")
	magicBMP   = []byte("BM")
	magicGzip  = []byte{0x1F, 0x8B}
)

// minSniffLen is the shortest buffer any signature can be read from.
const minSniffLen = 2

// Classify inspects data and returns its content kind. It never fails.
func Classify(data []byte) Content {
	c := Content{Kind: KindBinary, Data: data}
	if len(data) < minSniffLen {
		return c
	}

	switch {
	case bytes.HasPrefix(data, magicPNG):
		c.Kind = KindPNG
	case bytes.HasPrefix(data, magicJPEG):
		c.Kind = KindJPEG
	case bytes.HasPrefix(data, magicGIF87), bytes.HasPrefix(data, magicGIF89):
		c.Kind = KindGIF
	case bytes.HasPrefix(data, magicBMP):
		c.Kind = KindBMP
	case bytes.HasPrefix(data, magicGzip):
		c.Kind = KindGzip
	case isZlibHeader(data[0], data[1]):
		c.Kind = KindZlib
	case utf8.Valid(data):
		c.Text = string(data)
		c.Kind = KindText
		if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
			c.Kind = KindJSON
		}
	}
	return c
}

// isZlibHeader checks the RFC 1950 header: deflate method, window size at
// most 32K, and FCHECK making the 16-bit header a multiple of 31.
func isZlibHeader(cmf, flg byte) bool {
	if cmf&0x0F != 8 || cmf>>4 > 7 {
		return false
	}
	return (uint16(cmf)<<8|uint16(flg))%31 == 0
}
