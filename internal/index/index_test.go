package index

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mitsimi/veil/core/errors"
	"github.com/mitsimi/veil/core/sniff"
	"github.com/mitsimi/veil/core/stego"
)

func openTestIndex(t *testing.T) *Index {
	t.Helper()
	ix, err := Open(context.Background(), filepath.Join(t.TempDir(), "scan.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { ix.Close() })
	return ix
}

func sampleItems() []stego.HiddenItem {
	return []stego.HiddenItem{
		{Tag: "vtXt", Kind: sniff.KindText, Size: 6, Digest: stego.Digest([]byte("secret"))},
		{Tag: "vjSn", Kind: sniff.KindJSON, Size: 7, Digest: stego.Digest([]byte(`{"a":1}`))},
	}
}

func TestDriver(t *testing.T) {
	switch DriverType() {
	case "purego":
		if DriverName() != "sqlite" {
			t.Errorf("DriverName() = %s, want sqlite", DriverName())
		}
	case "cgo":
		if DriverName() != "sqlite3" {
			t.Errorf("DriverName() = %s, want sqlite3", DriverName())
		}
	default:
		t.Errorf("DriverType() = %s", DriverType())
	}
}

func TestRecordAndQuery(t *testing.T) {
	ctx := context.Background()
	ix := openTestIndex(t)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := ix.Record(ctx, FileRecord{Path: "a.png", RunID: "run-1", ScannedAt: at, Size: 1234}, sampleItems(), nil); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	rec, err := ix.File(ctx, "a.png")
	if err != nil {
		t.Fatalf("File() error = %v", err)
	}
	want := FileRecord{Path: "a.png", RunID: "run-1", ScannedAt: at, Size: 1234, ItemCount: 2}
	if rec != want {
		t.Errorf("File() = %+v, want %+v", rec, want)
	}

	items, err := ix.Items(ctx, "a.png")
	if err != nil {
		t.Fatalf("Items() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("Items() = %d items, want 2", len(items))
	}
	for i, w := range sampleItems() {
		if items[i] != w {
			t.Errorf("item %d = %+v, want %+v", i, items[i], w)
		}
	}
}

func TestRecordReplaces(t *testing.T) {
	ctx := context.Background()
	ix := openTestIndex(t)

	if err := ix.Record(ctx, FileRecord{Path: "a.png", RunID: "run-1"}, sampleItems(), nil); err != nil {
		t.Fatal(err)
	}
	if err := ix.Record(ctx, FileRecord{Path: "a.png", RunID: "run-2"}, sampleItems()[:1], nil); err != nil {
		t.Fatal(err)
	}

	rec, err := ix.File(ctx, "a.png")
	if err != nil {
		t.Fatal(err)
	}
	if rec.RunID != "run-2" || rec.ItemCount != 1 {
		t.Errorf("File() = %+v, want run-2 with 1 item", rec)
	}
	items, _ := ix.Items(ctx, "a.png")
	if len(items) != 1 || items[0].Tag != "vtXt" {
		t.Errorf("Items() = %+v", items)
	}
}

func TestRecordError(t *testing.T) {
	ctx := context.Background()
	ix := openTestIndex(t)

	if err := ix.Record(ctx, FileRecord{Path: "bad.png", RunID: "r"}, nil, stderrors.New("bad signature")); err != nil {
		t.Fatal(err)
	}
	rec, err := ix.File(ctx, "bad.png")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Error != "bad signature" || rec.ItemCount != 0 {
		t.Errorf("File() = %+v", rec)
	}
	items, err := ix.Items(ctx, "bad.png")
	if err != nil || items == nil || len(items) != 0 {
		t.Errorf("Items() = %v, %v; want empty non-nil", items, err)
	}
}

func TestItemsUnknownKind(t *testing.T) {
	ctx := context.Background()
	ix := openTestIndex(t)

	if err := ix.Record(ctx, FileRecord{Path: "a.png", RunID: "r"}, sampleItems(), nil); err != nil {
		t.Fatal(err)
	}
	if _, err := ix.db.ExecContext(ctx, `UPDATE items SET kind = 'mp3' WHERE seq = 1`); err != nil {
		t.Fatal(err)
	}
	if _, err := ix.Items(ctx, "a.png"); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("Items() error = %v, want ErrInvalidInput", err)
	}
}

func TestFileNotFound(t *testing.T) {
	ix := openTestIndex(t)
	if _, err := ix.File(context.Background(), "missing.png"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("File() error = %v, want ErrNotFound", err)
	}
}

func TestFilesAndDigest(t *testing.T) {
	ctx := context.Background()
	ix := openTestIndex(t)

	items := sampleItems()
	for _, p := range []string{"c.png", "a.png"} {
		if err := ix.Record(ctx, FileRecord{Path: p, RunID: "r"}, items, nil); err != nil {
			t.Fatal(err)
		}
	}
	if err := ix.Record(ctx, FileRecord{Path: "b.png", RunID: "r"}, items[1:], nil); err != nil {
		t.Fatal(err)
	}

	files, err := ix.Files(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 3 || files[0].Path != "a.png" || files[2].Path != "c.png" {
		t.Errorf("Files() = %+v", files)
	}

	paths, err := ix.FilesWithDigest(ctx, items[0].Digest)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 2 || paths[0] != "a.png" || paths[1] != "c.png" {
		t.Errorf("FilesWithDigest() = %v, want [a.png c.png]", paths)
	}
}

func TestConcurrentRecord(t *testing.T) {
	ctx := context.Background()
	ix := openTestIndex(t)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			path := filepath.Join("dir", string(rune('a'+i))+".png")
			errs <- ix.Record(ctx, FileRecord{Path: path, RunID: "r"}, sampleItems(), nil)
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Errorf("Record() error = %v", err)
		}
	}

	files, err := ix.Files(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 20 {
		t.Errorf("Files() = %d records, want 20", len(files))
	}
}
