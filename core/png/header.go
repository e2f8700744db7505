package png

import (
	"encoding/binary"
	"fmt"

	"github.com/mitsimi/veil/core/errors"
)

// ihdrLength is the fixed size of IHDR data.
const ihdrLength = 13

// ImageHeader is the decoded IHDR chunk.
type ImageHeader struct {
	Width             uint32
	Height            uint32
	BitDepth          uint8
	ColorType         uint8
	CompressionMethod uint8
	FilterMethod      uint8
	InterlaceMethod   uint8
}

// ColorTypeName returns a readable name for the colour type.
func (h ImageHeader) ColorTypeName() string {
	switch h.ColorType {
	case 0:
		return "greyscale"
	case 2:
		return "truecolour"
	case 3:
		return "indexed"
	case 4:
		return "greyscale+alpha"
	case 6:
		return "truecolour+alpha"
	default:
		return fmt.Sprintf("unknown(%d)", h.ColorType)
	}
}

func (h ImageHeader) String() string {
	return fmt.Sprintf("%dx%d, %d-bit %s, interlace=%d", h.Width, h.Height, h.BitDepth, h.ColorTypeName(), h.InterlaceMethod)
}

// ImageHeader decodes the first IHDR chunk. Field values are reported as
// stored; they are not checked against the allowed depth/colour pairs.
func (p *PNG) ImageHeader() (ImageHeader, error) {
	c, ok := p.ChunkByType(TypeIHDR.String())
	if !ok {
		return ImageHeader{}, errors.NewNotFound("chunk", TypeIHDR.String())
	}
	d := c.Data()
	if len(d) < ihdrLength {
		return ImageHeader{}, errors.NewTruncated("IHDR", ihdrLength, len(d))
	}
	return ImageHeader{
		Width:             binary.BigEndian.Uint32(d[0:4]),
		Height:            binary.BigEndian.Uint32(d[4:8]),
		BitDepth:          d[8],
		ColorType:         d[9],
		CompressionMethod: d[10],
		FilterMethod:      d[11],
		InterlaceMethod:   d[12],
	}, nil
}

// NewImageHeaderChunk encodes h as an IHDR chunk.
func NewImageHeaderChunk(h ImageHeader) Chunk {
	d := make([]byte, 0, ihdrLength)
	d = binary.BigEndian.AppendUint32(d, h.Width)
	d = binary.BigEndian.AppendUint32(d, h.Height)
	d = append(d, h.BitDepth, h.ColorType, h.CompressionMethod, h.FilterMethod, h.InterlaceMethod)
	return NewChunk(TypeIHDR, d)
}
