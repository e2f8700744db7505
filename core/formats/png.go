package formats

import (
	"github.com/mitsimi/veil/core/png"
	"github.com/mitsimi/veil/core/stego"
)

func init() {
	Register(PNGFormat{})
}

// PNGFormat carries hidden data in custom PNG chunks.
type PNGFormat struct{}

func (PNGFormat) Name() string { return "png" }

func (PNGFormat) Extensions() []string { return []string{".png"} }

func (PNGFormat) SignatureLen() int { return len(png.Signature) }

func (PNGFormat) MatchSignature(head []byte) bool { return png.HasSignature(head) }

func (PNGFormat) Open(data []byte) (Carrier, error) {
	p, err := png.Parse(data)
	if err != nil {
		return nil, err
	}
	return &pngCarrier{p: p}, nil
}

type pngCarrier struct {
	p *png.PNG
}

func (c *pngCarrier) Catalog() []stego.HiddenItem { return stego.Catalog(c.p) }

func (c *pngCarrier) ExtractAll() ([]stego.ExtractedItem, error) { return stego.ExtractAll(c.p) }

func (c *pngCarrier) Hide(data []byte, chunkType png.ChunkType) { stego.Hide(c.p, data, chunkType) }

func (c *pngCarrier) Remove(chunkType string) error {
	_, err := c.p.RemoveFirstChunk(chunkType)
	return err
}

func (c *pngCarrier) CustomTags() []string { return stego.CustomTags(c.p) }

func (c *pngCarrier) Bytes() []byte { return c.p.Bytes() }
