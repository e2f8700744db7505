// Package png reads, validates, edits and writes PNG files at the chunk level.
//
// A file is the 8-byte signature followed by a sequence of chunks. Each chunk
// is independently checksummed; Parse rejects the whole file if any chunk is
// malformed, so a caller never sees a partially decoded PNG. No image data is
// decoded here.
package png

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/mitsimi/veil/core/errors"
)

// Signature is the fixed magic that starts every PNG file.
var Signature = [8]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}

// Structural chunk types defined by the format for header, palette, image
// data and terminator roles.
var (
	TypeIHDR = MustChunkType("IHDR")
	TypePLTE = MustChunkType("PLTE")
	TypeIDAT = MustChunkType("IDAT")
	TypeIEND = MustChunkType("IEND")
)

// IsStructural reports whether t is one of the format's structural types.
func IsStructural(t ChunkType) bool {
	switch t {
	case TypeIHDR, TypePLTE, TypeIDAT, TypeIEND:
		return true
	}
	return false
}

// HasSignature reports whether b starts with the PNG signature.
func HasSignature(b []byte) bool {
	return len(b) >= len(Signature) && bytes.Equal(b[:len(Signature)], Signature[:])
}

// PNG is a parsed PNG file: an ordered list of chunks behind the signature.
type PNG struct {
	chunks []Chunk
}

// FromChunks builds a PNG from an explicit chunk list.
func FromChunks(chunks []Chunk) *PNG {
	owned := make([]Chunk, len(chunks))
	copy(owned, chunks)
	return &PNG{chunks: owned}
}

// Parse decodes a complete PNG file held in buf.
func Parse(buf []byte) (*PNG, error) {
	if len(buf) < len(Signature) {
		return nil, errors.NewTruncated("signature", len(Signature), len(buf))
	}
	if !HasSignature(buf) {
		return nil, errors.Wrapf(errors.ErrBadSignature, "got % x", buf[:len(Signature)])
	}

	var chunks []Chunk
	offset := len(Signature)
	for offset < len(buf) {
		c, err := ParseChunk(buf[offset:])
		if err != nil {
			return nil, &errors.ParseError{Format: "PNG", Offset: offset, Err: err}
		}
		chunks = append(chunks, c)
		offset += c.Size()
	}

	return &PNG{chunks: chunks}, nil
}

// Header returns the file signature.
func (p *PNG) Header() [8]byte {
	return Signature
}

// Chunks returns a copy of the chunk list in file order.
func (p *PNG) Chunks() []Chunk {
	out := make([]Chunk, len(p.chunks))
	copy(out, p.chunks)
	return out
}

// AppendChunk adds a chunk at the end. No placement rules are checked.
func (p *PNG) AppendChunk(c Chunk) {
	p.chunks = append(p.chunks, c)
}

// RemoveFirstChunk removes and returns the first chunk whose type text
// equals chunkType.
func (p *PNG) RemoveFirstChunk(chunkType string) (Chunk, error) {
	for i, c := range p.chunks {
		if c.chunkType.String() == chunkType {
			p.chunks = append(p.chunks[:i:i], p.chunks[i+1:]...)
			return c, nil
		}
	}
	return Chunk{}, errors.NewNotFound("chunk", chunkType)
}

// ChunkByType returns the first chunk whose type text equals chunkType.
func (p *PNG) ChunkByType(chunkType string) (Chunk, bool) {
	for _, c := range p.chunks {
		if c.chunkType.String() == chunkType {
			return c, true
		}
	}
	return Chunk{}, false
}

// NonStructuralChunks returns, in order, every chunk that is not IHDR,
// PLTE, IDAT or IEND. These are the candidates for carrying hidden data.
func (p *PNG) NonStructuralChunks() []Chunk {
	out := []Chunk{}
	for _, c := range p.chunks {
		if !IsStructural(c.chunkType) {
			out = append(out, c)
		}
	}
	return out
}

// IsComplete reports whether the file starts with IHDR and ends with IEND.
// Parse does not require this.
func (p *PNG) IsComplete() bool {
	n := len(p.chunks)
	return n >= 2 && p.chunks[0].chunkType == TypeIHDR && p.chunks[n-1].chunkType == TypeIEND
}

// Bytes serializes the signature followed by every chunk.
func (p *PNG) Bytes() []byte {
	size := len(Signature)
	for _, c := range p.chunks {
		size += c.Size()
	}
	out := make([]byte, 0, size)
	out = append(out, Signature[:]...)
	for _, c := range p.chunks {
		out = append(out, c.Bytes()...)
	}
	return out
}

// Equal reports whether both files hold identical chunk sequences.
func (p *PNG) Equal(other *PNG) bool {
	if len(p.chunks) != len(other.chunks) {
		return false
	}
	for i := range p.chunks {
		if !p.chunks[i].Equal(other.chunks[i]) {
			return false
		}
	}
	return true
}

func (p *PNG) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "PNG {\n  Chunks: %d\n", len(p.chunks))
	for i, c := range p.chunks {
		role := "custom"
		if IsStructural(c.chunkType) {
			role = "structural"
		}
		fmt.Fprintf(&sb, "  %3d  %s  %8d bytes  crc=%08x  %s\n", i, c.chunkType, c.length, c.crc, role)
	}
	sb.WriteString("}")
	return sb.String()
}
