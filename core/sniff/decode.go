package sniff

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/tidwall/gjson"

	"github.com/mitsimi/veil/core/errors"
)

// MaxInflateSize caps the output of Inflate.
const MaxInflateSize = 64 << 20

// Inflate decompresses Gzip or Zlib content.
func (c Content) Inflate() ([]byte, error) {
	var (
		r   io.ReadCloser
		err error
	)
	switch c.Kind {
	case KindGzip:
		r, err = gzip.NewReader(bytes.NewReader(c.Data))
	case KindZlib:
		r, err = zlib.NewReader(bytes.NewReader(c.Data))
	default:
		return nil, errors.NewUnsupported("inflate", c.Kind.String()+" content is not compressed")
	}
	if err != nil {
		return nil, errors.Wrapf(err, "open %s stream", c.Kind)
	}
	defer r.Close()

	out, err := io.ReadAll(io.LimitReader(r, MaxInflateSize+1))
	if err != nil {
		return nil, errors.Wrapf(err, "inflate %s stream", c.Kind)
	}
	if len(out) > MaxInflateSize {
		return nil, errors.NewUnsupported("inflate", "decompressed size exceeds limit")
	}
	return out, nil
}

// WellFormedJSON reports whether JSON content parses as a complete JSON
// document. Classification only looks at the first character.
func (c Content) WellFormedJSON() bool {
	return c.Kind == KindJSON && gjson.Valid(c.Text)
}
