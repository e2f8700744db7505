package main

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mitsimi/veil/core/cas"
	"github.com/mitsimi/veil/core/errors"
	"github.com/mitsimi/veil/core/formats"
	"github.com/mitsimi/veil/core/png"
	"github.com/mitsimi/veil/core/sniff"
	"github.com/mitsimi/veil/core/stego"
	"github.com/mitsimi/veil/internal/archive"
	"github.com/mitsimi/veil/internal/fileutil"
	"github.com/mitsimi/veil/internal/logging"
	"github.com/mitsimi/veil/internal/validation"
)

// CheckCmd reports whether a carrier has hidden data.
type CheckCmd struct {
	File string `short:"f" required:"" help:"Carrier file" type:"existingfile"`
}

func (c *CheckCmd) Run(ctx context.Context) error {
	carrier, err := loadCarrier(ctx, c.File)
	if err != nil {
		return err
	}
	if n := len(carrier.CustomTags()); n > 0 {
		fmt.Fprintf(stdout, "✓ Hidden data found in %s (%d chunks)\n", c.File, n)
	} else {
		fmt.Fprintf(stdout, "✗ No hidden data found in %s\n", c.File)
	}
	return nil
}

// HideCmd embeds a payload into a carrier.
type HideCmd struct {
	File    string `short:"f" required:"" help:"Carrier file" type:"existingfile"`
	Message string `short:"m" xor:"payload" required:"" help:"Text message to hide"`
	Data    string `short:"d" xor:"payload" required:"" help:"File whose bytes to hide" type:"existingfile"`
	Type    string `short:"t" name:"type" help:"Chunk type to use (inferred from the payload when empty)"`
	Output  string `short:"o" help:"Output file (default <name>_hidden.<ext> next to the input)"`
}

func (c *HideCmd) Run(ctx context.Context) error {
	carrier, err := loadCarrier(ctx, c.File)
	if err != nil {
		return err
	}

	payload := []byte(c.Message)
	if c.Data != "" {
		payload, err = fileutil.ReadFile(c.Data)
		if err != nil {
			return err
		}
	}

	chunkType := stego.InferChunkType(payload)
	if c.Type != "" {
		chunkType, err = parseHideType(c.Type)
		if err != nil {
			return err
		}
	}

	output := c.Output
	if output == "" {
		output, err = hiddenOutputPath(c.File)
		if err != nil {
			return err
		}
	}

	carrier.Hide(payload, chunkType)
	if err := fileutil.WriteFileAtomic(output, carrier.Bytes(), 0644); err != nil {
		return err
	}
	logging.ChunkHidden(ctx, output, chunkType.String(), len(payload))

	fmt.Fprintf(stdout, "✓ Data hidden successfully in %s\n", output)
	fmt.Fprintf(stdout, "  Hidden %d bytes in a %s chunk\n", len(payload), chunkType)
	return nil
}

// parseHideType accepts only tags a conforming decoder will skip over.
func parseHideType(s string) (png.ChunkType, error) {
	t, err := png.ParseChunkType(s)
	if err != nil {
		return png.ChunkType{}, err
	}
	switch {
	case !t.IsReservedBitValid():
		return png.ChunkType{}, &errors.TagError{Tag: s, Reason: "third letter must be uppercase"}
	case png.IsStructural(t):
		return png.ChunkType{}, &errors.TagError{Tag: s, Reason: "structural chunk types cannot carry data"}
	case t.IsCritical():
		logging.Warn("critical chunk type", "type", s, "hint", "decoders that do not know it will reject the image")
	}
	return t, nil
}

// hiddenOutputPath derives <stem>_hidden<ext> in the input's directory.
func hiddenOutputPath(input string) (string, error) {
	base := filepath.Base(input)
	ext := filepath.Ext(base)
	name, err := validation.SanitizeFilename(strings.TrimSuffix(base, ext) + "_hidden" + ext)
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(input), name), nil
}

// ExtractCmd writes every hidden item to disk.
type ExtractCmd struct {
	File    string `short:"f" required:"" help:"Carrier file" type:"existingfile"`
	Output  string `short:"o" default:"." help:"Output directory" type:"path"`
	Archive string `help:"Also write the items to a .tar.xz or .tar.gz bundle" type:"path"`
	Store   string `help:"Also store the items in a content-addressed store directory" type:"path"`
	Inflate bool   `help:"Decompress gzip and zlib payloads before writing"`
}

func (c *ExtractCmd) Run(ctx context.Context) error {
	carrier, err := loadCarrier(ctx, c.File)
	if err != nil {
		return err
	}
	items, err := carrier.ExtractAll()
	if err != nil {
		return fmt.Errorf("%s: %w", c.File, err)
	}

	if c.Archive != "" {
		if _, err := archive.CompressionFor(c.Archive); err != nil {
			return err
		}
	}

	// Decode everything before the first write so a bad payload leaves no
	// output behind.
	contents := make([]sniff.Content, len(items))
	for i, item := range items {
		content := item.Content
		if c.Inflate && content.Kind.IsCompressed() {
			inflated, err := content.Inflate()
			if err != nil {
				return fmt.Errorf("item %d (%s): %w", i+1, item.Tag, err)
			}
			content = sniff.Classify(inflated)
		}
		if content.Kind == sniff.KindJSON && !content.WellFormedJSON() {
			logging.WarnContext(ctx, "malformed JSON payload", "path", c.File, "type", item.Tag, "item", i+1)
		}
		contents[i] = content
	}

	var store *cas.Store
	if c.Store != "" {
		if store, err = cas.NewStore(c.Store); err != nil {
			return err
		}
	}

	entries := make([]archive.Entry, 0, len(items)+1)
	for i, item := range items {
		content := contents[i]
		name := fmt.Sprintf("item-%d%s", i+1, content.Kind.Extension())
		target := filepath.Join(c.Output, name)
		if err := fileutil.WriteFileAtomic(target, content.Data, 0644); err != nil {
			return err
		}
		entries = append(entries, archive.Entry{Name: name, Data: content.Data})

		fmt.Fprintf(stdout, "✓ Extracted %d bytes from %s chunk to %s\n", len(content.Data), item.Tag, target)
		if content.Kind == sniff.KindText || content.Kind == sniff.KindJSON {
			fmt.Fprintf(stdout, "  Content (as text): %s\n", content.Text)
		} else {
			fmt.Fprintf(stdout, "  Content: %s data\n", content.Kind)
		}

		if store != nil {
			hash, err := store.PutRef(content.Data, cas.Ref{
				Kind:   content.Kind.String(),
				Source: c.File,
				Tag:    item.Tag,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "  Stored as %s\n", hash)
		}
	}
	logging.ItemsExtracted(ctx, c.File, len(items), c.Output)

	if c.Archive != "" {
		manifest, err := json.MarshalIndent(carrier.Catalog(), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode manifest: %w", err)
		}
		entries = append(entries, archive.Entry{Name: "manifest.json", Data: manifest})
		if err := archive.CreateBundle(c.Archive, entries); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "✓ Bundled %d items into %s\n", len(items), c.Archive)
	}
	return nil
}

// ChunksCmd lists custom chunk types.
type ChunksCmd struct {
	File string `short:"f" required:"" help:"Carrier file" type:"existingfile"`
	JSON bool   `help:"Print the catalog as JSON"`
}

func (c *ChunksCmd) Run(ctx context.Context) error {
	carrier, err := loadCarrier(ctx, c.File)
	if err != nil {
		return err
	}
	catalog := carrier.Catalog()
	if c.JSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(catalog)
	}
	if len(catalog) == 0 {
		fmt.Fprintf(stdout, "No custom chunks in %s\n", c.File)
		return nil
	}
	for _, item := range catalog {
		fmt.Fprintf(stdout, "%s  %-6s %8d bytes  %s\n", item.Tag, item.Kind, item.Size, item.Digest)
	}
	return nil
}

// DecodeCmd prints a single chunk's data as text.
type DecodeCmd struct {
	File string `short:"f" required:"" help:"Carrier file" type:"existingfile"`
	Type string `short:"t" name:"type" required:"" help:"Chunk type to decode"`
}

func (c *DecodeCmd) Run(ctx context.Context) error {
	p, err := loadPNG(ctx, c.File)
	if err != nil {
		return err
	}
	chunk, ok := p.ChunkByType(c.Type)
	if !ok {
		return errors.NewNotFound("chunk", c.Type)
	}
	text, err := chunk.DataAsString()
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, text)
	return nil
}

// RemoveCmd deletes the first chunk of a type and saves the result.
type RemoveCmd struct {
	File   string `short:"f" required:"" help:"Carrier file" type:"existingfile"`
	Type   string `short:"t" name:"type" required:"" help:"Chunk type to remove"`
	Output string `short:"o" help:"Output file (default: overwrite the input)"`
}

func (c *RemoveCmd) Run(ctx context.Context) error {
	if _, err := png.ParseChunkType(c.Type); err != nil {
		return err
	}
	carrier, err := loadCarrier(ctx, c.File)
	if err != nil {
		return err
	}
	if err := carrier.Remove(c.Type); err != nil {
		return err
	}
	output := c.Output
	if output == "" {
		output = c.File
	}
	if err := fileutil.WriteFileAtomic(output, carrier.Bytes(), 0644); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "✓ Removed %s chunk, wrote %s\n", c.Type, output)
	return nil
}

// InfoCmd prints the image header and chunk table.
type InfoCmd struct {
	File string `short:"f" required:"" help:"Carrier file" type:"existingfile"`
}

func (c *InfoCmd) Run(ctx context.Context) error {
	p, err := loadPNG(ctx, c.File)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "File: %s\n", c.File)
	if hdr, err := p.ImageHeader(); err == nil {
		fmt.Fprintf(stdout, "Image: %s\n", hdr)
	} else {
		logging.WarnContext(ctx, "image header unavailable", "path", c.File, "error", err.Error())
	}
	fmt.Fprintf(stdout, "IHDR first, IEND last: %t\n", p.IsComplete())
	fmt.Fprint(stdout, p.String())
	return nil
}

// BundleCmd inspects an extraction bundle.
type BundleCmd struct {
	Path string `arg:"" help:"Bundle file (.tar.xz or .tar.gz)" type:"existingfile"`
	Cat  string `help:"Print the named entry instead of listing"`
}

func (c *BundleCmd) Run() error {
	if c.Cat != "" {
		if err := validation.ValidateFilename(c.Cat); err != nil {
			return fmt.Errorf("%w: %w", errors.ErrInvalidInput, err)
		}
		data, err := archive.ReadFile(c.Path, c.Cat)
		if err != nil {
			return err
		}
		_, err = stdout.Write(data)
		return err
	}

	entries, err := archive.ReadBundle(c.Path)
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Fprintf(stdout, "%-16s %-6s %8d bytes\n", e.Name, sniff.Classify(e.Data).Kind, len(e.Data))
	}
	return nil
}

// loadCarrier reads path, selects its format and opens it.
func loadCarrier(ctx context.Context, path string) (formats.Carrier, error) {
	carrier, _, err := openCarrier(ctx, path)
	return carrier, err
}

// openCarrier is loadCarrier that also returns the file size in bytes.
func openCarrier(ctx context.Context, path string) (formats.Carrier, int, error) {
	data, err := fileutil.ReadFile(path)
	if err != nil {
		return nil, 0, err
	}
	f, err := formats.Detect(path, data)
	if err != nil {
		return nil, len(data), err
	}
	carrier, err := f.Open(data)
	if err != nil {
		return nil, len(data), fmt.Errorf("%s: %w", path, err)
	}
	logging.FileLoaded(ctx, path, f.Name(), len(data), len(carrier.CustomTags()))
	return carrier, len(data), nil
}

// loadPNG is loadCarrier for commands that need PNG structure.
func loadPNG(ctx context.Context, path string) (*png.PNG, error) {
	data, err := fileutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := formats.Detect(path, data)
	if err != nil {
		return nil, err
	}
	if f.Name() != "png" {
		return nil, errors.NewUnsupported("chunk inspection", f.Name()+" files")
	}
	p, err := png.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logging.FileLoaded(ctx, path, f.Name(), len(data), len(p.Chunks()))
	return p, nil
}

