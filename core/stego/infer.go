package stego

import (
	"github.com/mitsimi/veil/core/png"
	"github.com/mitsimi/veil/core/sniff"
)

// Inferred chunk types are ancillary, private, reserved-valid and
// safe-to-copy, so conforming decoders skip them and editors keep them.
var (
	TypeText       = png.MustChunkType("vtXt")
	TypeJSON       = png.MustChunkType("vjSn")
	TypeImage      = png.MustChunkType("viMg")
	TypeCompressed = png.MustChunkType("vzIp")
	TypeBinary     = png.MustChunkType("vbIn")
)

// InferChunkType picks a chunk type for data from its classified kind.
func InferChunkType(data []byte) png.ChunkType {
	k := sniff.Classify(data).Kind
	switch {
	case k == sniff.KindText:
		return TypeText
	case k == sniff.KindJSON:
		return TypeJSON
	case k.IsImage():
		return TypeImage
	case k.IsCompressed():
		return TypeCompressed
	default:
		return TypeBinary
	}
}
