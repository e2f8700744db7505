package png

import (
	"bytes"
	"fmt"

	"github.com/mitsimi/veil/core/errors"
)

// caseBit is bit 5 of an ASCII letter: clear for uppercase, set for lowercase.
const caseBit = 0x20

// ChunkType is the 4-byte type code of a chunk. The case of each byte
// carries one property bit:
//
//	byte 0: uppercase = critical,    lowercase = ancillary
//	byte 1: uppercase = public,      lowercase = private
//	byte 2: uppercase = valid,       lowercase = reserved for future use
//	byte 3: uppercase = unsafe copy, lowercase = safe to copy
type ChunkType struct {
	b [4]byte
}

// NewChunkType builds a ChunkType from raw bytes. Every byte must be an
// ASCII letter; the reserved bit is not checked here (see IsValid).
func NewChunkType(b [4]byte) (ChunkType, error) {
	for i, c := range b {
		if !isASCIILetter(c) {
			return ChunkType{}, &errors.TagError{
				Tag:    string(b[:]),
				Reason: fmt.Sprintf("byte %d (0x%02x) is not an ASCII letter", i, c),
			}
		}
	}
	return ChunkType{b: b}, nil
}

// ParseChunkType builds a ChunkType from its 4-character text form.
func ParseChunkType(s string) (ChunkType, error) {
	if len(s) != 4 {
		return ChunkType{}, &errors.TagError{
			Tag:    s,
			Reason: fmt.Sprintf("must be exactly 4 bytes, got %d", len(s)),
		}
	}
	var b [4]byte
	copy(b[:], s)
	return NewChunkType(b)
}

// MustChunkType is like ParseChunkType but panics on error. It is meant for
// package-level constants.
func MustChunkType(s string) ChunkType {
	t, err := ParseChunkType(s)
	if err != nil {
		panic(err)
	}
	return t
}

// Bytes returns the raw type bytes.
func (t ChunkType) Bytes() [4]byte {
	return t.b
}

// String renders the type as 4 characters, preserving case.
func (t ChunkType) String() string {
	return string(t.b[:])
}

// IsCritical reports whether the chunk is required to display the image.
func (t ChunkType) IsCritical() bool {
	return t.b[0]&caseBit == 0
}

// IsPublic reports whether the type is part of the registered vocabulary.
func (t ChunkType) IsPublic() bool {
	return t.b[1]&caseBit == 0
}

// IsReservedBitValid reports whether byte 2 is uppercase, as the current
// format revision requires.
func (t ChunkType) IsReservedBitValid() bool {
	return t.b[2]&caseBit == 0
}

// IsSafeToCopy reports whether editors that do not recognise the type may
// still copy the chunk unchanged.
func (t ChunkType) IsSafeToCopy() bool {
	return t.b[3]&caseBit != 0
}

// IsValid reports whether all bytes are letters and the reserved bit is valid.
func (t ChunkType) IsValid() bool {
	for _, c := range t.b {
		if !isASCIILetter(c) {
			return false
		}
	}
	return t.IsReservedBitValid()
}

// Compare orders chunk types by their raw bytes.
func (t ChunkType) Compare(other ChunkType) int {
	return bytes.Compare(t.b[:], other.b[:])
}

func isASCIILetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}
