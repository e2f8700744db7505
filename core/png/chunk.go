package png

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"strings"
	"unicode/utf8"

	"github.com/mitsimi/veil/core/errors"
)

// chunkOverhead is the length, type and CRC fields around a chunk's data.
const chunkOverhead = 12

// Chunk is one length/type/data/CRC record.
type Chunk struct {
	length    uint32
	chunkType ChunkType
	data      []byte
	crc       uint32
}

// NewChunk creates a chunk with the given type and data, computing its
// length and CRC. The data slice is copied.
func NewChunk(chunkType ChunkType, data []byte) Chunk {
	owned := make([]byte, len(data))
	copy(owned, data)
	return Chunk{
		length:    uint32(len(owned)),
		chunkType: chunkType,
		data:      owned,
		crc:       checksum(chunkType, owned),
	}
}

// ParseChunk decodes the chunk at the start of buf and verifies its CRC.
// Bytes after the chunk are ignored.
func ParseChunk(buf []byte) (Chunk, error) {
	// Length, type and CRC are always present; the data may be empty.
	if len(buf) < chunkOverhead {
		return Chunk{}, errors.NewTruncated("chunk", chunkOverhead, len(buf))
	}

	length := binary.BigEndian.Uint32(buf[0:4])
	if uint64(length) > uint64(len(buf)-chunkOverhead) {
		return Chunk{}, errors.NewTruncated("chunk", chunkOverhead+int(length), len(buf))
	}

	var raw [4]byte
	copy(raw[:], buf[4:8])
	chunkType, err := NewChunkType(raw)
	if err != nil {
		return Chunk{}, err
	}

	end := 8 + int(length)
	data := make([]byte, length)
	copy(data, buf[8:end])
	stored := binary.BigEndian.Uint32(buf[end : end+4])

	if computed := checksum(chunkType, data); computed != stored {
		return Chunk{}, &errors.ChecksumError{
			Tag:      chunkType.String(),
			Stored:   stored,
			Computed: computed,
		}
	}

	return Chunk{
		length:    length,
		chunkType: chunkType,
		data:      data,
		crc:       stored,
	}, nil
}

// Length returns the length of the chunk data.
func (c Chunk) Length() uint32 {
	return c.length
}

// Type returns the chunk type.
func (c Chunk) Type() ChunkType {
	return c.chunkType
}

// Data returns the chunk data. Callers must not modify it.
func (c Chunk) Data() []byte {
	return c.data
}

// CRC returns the stored checksum.
func (c Chunk) CRC() uint32 {
	return c.crc
}

// Size returns the number of bytes the chunk occupies on the wire.
func (c Chunk) Size() int {
	return chunkOverhead + len(c.data)
}

// DataAsString returns the data as UTF-8 text.
func (c Chunk) DataAsString() (string, error) {
	if !utf8.Valid(c.data) {
		return "", errors.Wrapf(errors.ErrInvalidEncoding, "%s chunk data is not UTF-8", c.chunkType)
	}
	return string(c.data), nil
}

// Bytes serializes the chunk: length, type, data, CRC.
func (c Chunk) Bytes() []byte {
	out := make([]byte, 0, c.Size())
	out = binary.BigEndian.AppendUint32(out, c.length)
	out = append(out, c.chunkType.b[:]...)
	out = append(out, c.data...)
	out = binary.BigEndian.AppendUint32(out, c.crc)
	return out
}

// Equal reports whether two chunks have identical fields.
func (c Chunk) Equal(other Chunk) bool {
	return c.length == other.length &&
		c.chunkType == other.chunkType &&
		c.crc == other.crc &&
		string(c.data) == string(other.data)
}

func (c Chunk) String() string {
	var sb strings.Builder
	sb.WriteString("Chunk {\n")
	fmt.Fprintf(&sb, "  Length: %d\n", c.length)
	fmt.Fprintf(&sb, "  Type: %s\n", c.chunkType)
	fmt.Fprintf(&sb, "  Data: %d bytes\n", len(c.data))
	fmt.Fprintf(&sb, "  Crc: %d\n", c.crc)
	sb.WriteString("}")
	return sb.String()
}

// checksum is the CRC-32 (ISO-HDLC) of the type bytes followed by the data.
func checksum(chunkType ChunkType, data []byte) uint32 {
	h := crc32.NewIEEE()
	h.Write(chunkType.b[:])
	h.Write(data)
	return h.Sum32()
}
