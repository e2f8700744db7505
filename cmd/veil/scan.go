package main

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/mitsimi/veil/core/formats"
	"github.com/mitsimi/veil/core/stego"
	"github.com/mitsimi/veil/internal/index"
	"github.com/mitsimi/veil/internal/logging"
)

// ScanCmd walks directories and catalogs every carrier it finds.
type ScanCmd struct {
	Dirs    []string `arg:"" help:"Directories to scan"`
	Index   string   `help:"Record results in this SQLite database" type:"path"`
	Workers int      `default:"4" env:"VEIL_WORKERS" help:"Number of files processed concurrently"`
	All     bool     `help:"Also list files without hidden data"`
}

type scanResult struct {
	path  string
	size  int64
	items []stego.HiddenItem
	err   error
}

func (c *ScanCmd) Run(ctx context.Context) error {
	if c.Workers < 1 {
		c.Workers = 1
	}

	paths, err := collectCarriers(c.Dirs)
	if err != nil {
		return err
	}

	var ix *index.Index
	if c.Index != "" {
		if ix, err = index.Open(ctx, c.Index); err != nil {
			return err
		}
		defer ix.Close()
	}

	results := make([]scanResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.Workers)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := scanFile(gctx, path)
			results[i] = res
			logging.ScanResult(gctx, path, len(res.items), res.err)
			if ix == nil {
				return nil
			}
			return ix.Record(gctx, index.FileRecord{
				Path:  path,
				RunID: logging.GetRunID(gctx),
				Size:  res.size,
			}, res.items, res.err)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var carriers, failed int
	for _, res := range results {
		switch {
		case res.err != nil:
			failed++
			fmt.Fprintf(stdout, "! %s: %v\n", res.path, res.err)
		case len(res.items) > 0:
			carriers++
			tags := make([]string, len(res.items))
			for i, item := range res.items {
				tags[i] = item.Tag + "(" + item.Kind.String() + ")"
			}
			fmt.Fprintf(stdout, "✓ %s: %s\n", res.path, strings.Join(tags, ", "))
		case c.All:
			fmt.Fprintf(stdout, "  %s: none\n", res.path)
		}
	}
	fmt.Fprintf(stdout, "Scanned %d files: %d with hidden data, %d unreadable\n", len(paths), carriers, failed)
	return nil
}

// scanFile never returns a Go error for a bad carrier; the failure is part
// of the result.
func scanFile(ctx context.Context, path string) scanResult {
	carrier, size, err := openCarrier(ctx, path)
	res := scanResult{path: path, size: int64(size), err: err}
	if err != nil {
		return res
	}
	res.items = carrier.Catalog()
	return res
}

// collectCarriers returns files under dirs with a registered extension, in
// walk order.
func collectCarriers(dirs []string) ([]string, error) {
	exts := make(map[string]bool)
	for _, f := range formats.List() {
		for _, e := range f.Extensions() {
			exts[e] = true
		}
	}

	var paths []string
	for _, dir := range dirs {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.Type().IsRegular() && exts[strings.ToLower(filepath.Ext(path))] {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", dir, err)
		}
	}
	return paths, nil
}

// QueryCmd reads back a scan index.
type QueryCmd struct {
	Index  string `arg:"" help:"SQLite database written by scan" type:"existingfile"`
	Digest string `help:"List files carrying a payload with this BLAKE3 digest"`
	Path   string `help:"Show the items recorded for one file"`
}

func (c *QueryCmd) Run(ctx context.Context) error {
	ix, err := index.Open(ctx, c.Index)
	if err != nil {
		return err
	}
	defer ix.Close()

	switch {
	case c.Digest != "":
		paths, err := ix.FilesWithDigest(ctx, c.Digest)
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Fprintln(stdout, p)
		}
	case c.Path != "":
		rec, err := ix.File(ctx, c.Path)
		if err != nil {
			return err
		}
		items, err := ix.Items(ctx, c.Path)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%s  scanned %s  run %s\n", rec.Path, rec.ScannedAt.Format("2006-01-02 15:04:05"), rec.RunID)
		if rec.Error != "" {
			fmt.Fprintf(stdout, "  error: %s\n", rec.Error)
		}
		for _, item := range items {
			fmt.Fprintf(stdout, "  %s  %-6s %8d bytes  %s\n", item.Tag, item.Kind, item.Size, item.Digest)
		}
	default:
		files, err := ix.Files(ctx)
		if err != nil {
			return err
		}
		for _, rec := range files {
			status := fmt.Sprintf("%d items", rec.ItemCount)
			if rec.Error != "" {
				status = "error: " + rec.Error
			}
			fmt.Fprintf(stdout, "%s  %s\n", rec.Path, status)
		}
	}
	return nil
}
