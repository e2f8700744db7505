// Package stego hides payloads in custom PNG chunks and finds them again.
//
// Only non-structural chunks (anything other than IHDR, PLTE, IDAT and IEND)
// are treated as payload carriers. Catalog reports an empty result when none
// exist; ExtractAll treats the same situation as ErrNoHiddenData.
package stego

import (
	"github.com/mitsimi/veil/core/cas"
	"github.com/mitsimi/veil/core/errors"
	"github.com/mitsimi/veil/core/png"
	"github.com/mitsimi/veil/core/sniff"
)

// HiddenItem is a catalog entry for one custom chunk.
type HiddenItem struct {
	Tag    string     `json:"tag"`
	Kind   sniff.Kind `json:"kind"`
	Size   int        `json:"size"`
	Digest string     `json:"blake3"`
}

// ExtractedItem is a custom chunk with its classified content.
type ExtractedItem struct {
	Tag     string
	Kind    sniff.Kind
	Content sniff.Content
}

// Catalog classifies every custom chunk's data, in file order.
func Catalog(p *png.PNG) []HiddenItem {
	chunks := p.NonStructuralChunks()
	items := make([]HiddenItem, 0, len(chunks))
	for _, c := range chunks {
		data := c.Data()
		items = append(items, HiddenItem{
			Tag:    c.Type().String(),
			Kind:   sniff.Classify(data).Kind,
			Size:   len(data),
			Digest: Digest(data),
		})
	}
	return items
}

// ExtractAll classifies and returns the content of every custom chunk.
func ExtractAll(p *png.PNG) ([]ExtractedItem, error) {
	chunks := p.NonStructuralChunks()
	if len(chunks) == 0 {
		return nil, errors.ErrNoHiddenData
	}
	items := make([]ExtractedItem, 0, len(chunks))
	for _, c := range chunks {
		content := sniff.Classify(c.Data())
		items = append(items, ExtractedItem{
			Tag:     c.Type().String(),
			Kind:    content.Kind,
			Content: content,
		})
	}
	return items, nil
}

// Hide appends data to p as a new chunk of the given type. Tag validity and
// placement are the caller's concern.
func Hide(p *png.PNG, data []byte, chunkType png.ChunkType) {
	p.AppendChunk(png.NewChunk(chunkType, data))
}

// HasHiddenData reports whether p has at least one custom chunk.
func HasHiddenData(p *png.PNG) bool {
	return len(p.NonStructuralChunks()) > 0
}

// CustomTags returns the type of each custom chunk, in file order.
func CustomTags(p *png.PNG) []string {
	chunks := p.NonStructuralChunks()
	tags := make([]string, 0, len(chunks))
	for _, c := range chunks {
		tags = append(tags, c.Type().String())
	}
	return tags
}

// Digest returns the hex BLAKE3-256 digest of data. It is the key the
// payload gets in a cas.Store.
func Digest(data []byte) string {
	return cas.Hash(data)
}
