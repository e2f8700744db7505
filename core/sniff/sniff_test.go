package sniff

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"strings"
	"testing"

	"github.com/mitsimi/veil/core/errors"
)

func TestClassify(t *testing.T) {
	pngSig := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}

	tests := []struct {
		name string
		data []byte
		want Kind
	}{
		{"empty", nil, KindBinary},
		{"one byte", []byte("a"), KindBinary},
		{"one brace", []byte("{"), KindBinary},
		{"png", append(append([]byte(nil), pngSig...), 0, 0, 0, 13), KindPNG},
		{"png with utf8 tail", append(append([]byte(nil), pngSig...), "hello"...), KindPNG},
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00}, KindJPEG},
		{"jpeg missing third byte", []byte{0xFF, 0xD8}, KindBinary},
		{"gif87a", []byte("GIF87a\x01\x00"), KindGIF},
		{"gif89a", []byte("GIF89a\x01\x00"), KindGIF},
		{"gif unknown version", []byte("GIF90a"), KindText},
		{"bmp", []byte("BM\x36\x00\x00\x00"), KindBMP},
		{"gzip", []byte{0x1F, 0x8B, 0x08, 0x00}, KindGzip},
		{"zlib default", []byte{0x78, 0x9C, 0x03, 0x00}, KindZlib},
		{"zlib best", []byte{0x78, 0xDA}, KindZlib},
		{"zlib fast", []byte{0x78, 0x01}, KindZlib},
		{"zlib small window", []byte{0x48, 0x0D}, KindZlib},
		{"zlib bad fcheck", []byte{0x78, 0x9D}, KindBinary},
		{"zlib preset dictionary", []byte{0x78, 0xBB, 1, 2, 3, 4}, KindZlib},
		{"zlib preset dictionary fastest", []byte{0x78, 0xF9}, KindZlib},
		{"json object", []byte(`{"a":1}`), KindJSON},
		{"json array", []byte(`[1, 2, 3]`), KindJSON},
		{"json leading whitespace", []byte("  \n\t{\"k\": \"v\"}"), KindJSON},
		{"malformed json still json", []byte("{not json"), KindJSON},
		{"prose", []byte("The quick brown fox jumps over the lazy dog"), KindText},
		{"secret", []byte("secret"), KindText},
		{"x then space matches zlib header", []byte("x marks the spot"), KindZlib},
		{"unicode text", []byte("héllo wörld ✓"), KindText},
		{"whitespace only", []byte("   "), KindText},
		{"invalid utf8", []byte{0xC3, 0x28, 0xA0, 0xA1}, KindBinary},
		{"nul bytes are utf8", []byte{0x00, 0x00}, KindText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.data)
			if got.Kind != tt.want {
				t.Errorf("Classify(%q).Kind = %v, want %v", tt.data, got.Kind, tt.want)
			}
			if !bytes.Equal(got.Data, tt.data) {
				t.Errorf("Classify().Data does not carry the input bytes")
			}
		})
	}
}

func TestClassify_TextField(t *testing.T) {
	c := Classify([]byte("secret"))
	if c.Text != "secret" {
		t.Errorf("Text = %q, want %q", c.Text, "secret")
	}

	j := Classify([]byte(`{"a":1}`))
	if j.Text != `{"a":1}` {
		t.Errorf("Text = %q, want JSON source", j.Text)
	}

	b := Classify([]byte{0xFF, 0xD8, 0xFF, 'h', 'i'})
	if b.Text != "" {
		t.Errorf("Text should be empty for images, got %q", b.Text)
	}
}

func TestKindNames(t *testing.T) {
	for _, k := range Kinds {
		name := k.String()
		if name == "unknown" {
			t.Errorf("Kind %d has no name", k)
		}
		back, ok := ParseKind(name)
		if !ok || back != k {
			t.Errorf("ParseKind(%q) = %v, %v; want %v", name, back, ok, k)
		}
		if !strings.HasPrefix(k.Extension(), ".") {
			t.Errorf("Extension() for %v = %q", k, k.Extension())
		}
	}
	if _, ok := ParseKind("mp3"); ok {
		t.Errorf("ParseKind(mp3) should fail")
	}
}

func TestKindUnmarshalText(t *testing.T) {
	var k Kind
	if err := k.UnmarshalText([]byte("gzip")); err != nil || k != KindGzip {
		t.Fatalf("UnmarshalText(gzip) = %v, %v; want gzip", k, err)
	}

	k = KindJSON
	err := k.UnmarshalText([]byte("mp3"))
	if !errors.Is(err, errors.ErrInvalidInput) {
		t.Fatalf("UnmarshalText(mp3) error = %v, want ErrInvalidInput", err)
	}
	if k != KindJSON {
		t.Errorf("UnmarshalText(mp3) changed kind to %v", k)
	}
	if Kind(99).String() != "unknown" {
		t.Errorf("out-of-range kind should be unknown")
	}
}

func TestKindPredicates(t *testing.T) {
	if !KindGIF.IsImage() || KindGzip.IsImage() {
		t.Errorf("IsImage() wrong")
	}
	if !KindZlib.IsCompressed() || KindText.IsCompressed() {
		t.Errorf("IsCompressed() wrong")
	}
}

func TestInflate(t *testing.T) {
	want := []byte(strings.Repeat("hidden payload ", 100))

	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	gw.Write(want)
	gw.Close()

	var zl bytes.Buffer
	zw := zlib.NewWriter(&zl)
	zw.Write(want)
	zw.Close()

	for name, data := range map[string][]byte{"gzip": gz.Bytes(), "zlib": zl.Bytes()} {
		t.Run(name, func(t *testing.T) {
			c := Classify(data)
			if c.Kind.String() != name {
				t.Fatalf("Classify().Kind = %v, want %s", c.Kind, name)
			}
			got, err := c.Inflate()
			if err != nil {
				t.Fatalf("Inflate() error = %v", err)
			}
			if !bytes.Equal(got, want) {
				t.Errorf("Inflate() returned %d bytes, want %d", len(got), len(want))
			}
		})
	}
}

func TestInflate_Errors(t *testing.T) {
	if _, err := Classify([]byte("plain text")).Inflate(); !errors.Is(err, errors.ErrUnsupported) {
		t.Errorf("Inflate() on text error = %v, want ErrUnsupported", err)
	}
	corrupt := Classify([]byte{0x1F, 0x8B, 0x00, 0x00})
	if _, err := corrupt.Inflate(); err == nil {
		t.Errorf("Inflate() on corrupt gzip should fail")
	}
}

func TestWellFormedJSON(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{`{"a":1}`, true},
		{`[1,2,{"b":null}]`, true},
		{`{not json`, false},
		{`hello`, false},
	}
	for _, tt := range tests {
		if got := Classify([]byte(tt.in)).WellFormedJSON(); got != tt.want {
			t.Errorf("WellFormedJSON(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
