package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestTagError(t *testing.T) {
	err := &TagError{Tag: "Ru1t", Reason: "byte 2 is not an ASCII letter"}
	wantMsg := `invalid chunk type "Ru1t": byte 2 is not an ASCII letter`
	if got := err.Error(); got != wantMsg {
		t.Errorf("Error() = %q, want %q", got, wantMsg)
	}
	if !errors.Is(err, ErrInvalidTag) {
		t.Errorf("TagError should unwrap to ErrInvalidTag")
	}
}

func TestTruncatedError(t *testing.T) {
	err := NewTruncated("chunk", 12, 5)
	if got, want := err.Error(), "truncated chunk: need 12 bytes, have 5"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrTruncated) {
		t.Errorf("TruncatedError should unwrap to ErrTruncated")
	}
}

func TestChecksumError(t *testing.T) {
	err := &ChecksumError{Tag: "RuSt", Stored: 1, Computed: 0xabcdef01}
	if got, want := err.Error(), "checksum mismatch in RuSt chunk: stored 00000001, computed abcdef01"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("ChecksumError should unwrap to ErrChecksumMismatch")
	}
}

func TestNotFoundError(t *testing.T) {
	tests := []struct {
		name     string
		err      *NotFoundError
		wantMsg  string
		wantBase error
	}{
		{
			name:     "with ID",
			err:      &NotFoundError{Resource: "chunk", ID: "vEiL"},
			wantMsg:  "chunk not found: vEiL",
			wantBase: ErrNotFound,
		},
		{
			name:     "without ID",
			err:      &NotFoundError{Resource: "format"},
			wantMsg:  "format not found",
			wantBase: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if got := tt.err.Unwrap(); !errors.Is(got, tt.wantBase) {
				t.Errorf("Unwrap() = %v, want %v", got, tt.wantBase)
			}
		})
	}

	t.Run("with underlying error", func(t *testing.T) {
		underlyingErr := fmt.Errorf("disk error")
		err := &NotFoundError{Resource: "file", ID: "test.png", Err: underlyingErr}
		if got := err.Unwrap(); got != underlyingErr {
			t.Errorf("Unwrap() = %v, want %v", got, underlyingErr)
		}
	})
}

func TestParseError(t *testing.T) {
	err := &ParseError{Format: "PNG", Offset: 33, Err: NewTruncated("chunk", 12, 4)}
	wantMsg := "failed to parse PNG at offset 33: truncated chunk: need 12 bytes, have 4"
	if got := err.Error(); got != wantMsg {
		t.Errorf("Error() = %q, want %q", got, wantMsg)
	}
	if !errors.Is(err, ErrTruncated) {
		t.Errorf("ParseError should unwrap through to ErrTruncated")
	}
}

func TestIOError(t *testing.T) {
	baseErr := fmt.Errorf("permission denied")
	tests := []struct {
		name    string
		err     *IOError
		wantMsg string
	}{
		{
			name:    "with path",
			err:     &IOError{Operation: "read", Path: "/test/image.png", Err: baseErr},
			wantMsg: "failed to read /test/image.png: permission denied",
		},
		{
			name:    "without path",
			err:     &IOError{Operation: "write", Err: baseErr},
			wantMsg: "failed to write: permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if got := tt.err.Unwrap(); !errors.Is(got, baseErr) {
				t.Errorf("Unwrap() = %v, want %v", got, baseErr)
			}
		})
	}
}

func TestUnsupportedError(t *testing.T) {
	tests := []struct {
		name    string
		err     *UnsupportedError
		wantMsg string
	}{
		{
			name:    "with reason",
			err:     &UnsupportedError{Feature: "file format", Reason: "extension .bmp"},
			wantMsg: "unsupported file format: extension .bmp",
		},
		{
			name:    "without reason",
			err:     &UnsupportedError{Feature: "format"},
			wantMsg: "unsupported format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if !errors.Is(tt.err, ErrUnsupported) {
				t.Errorf("Unwrap() should reach ErrUnsupported")
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindUnknown},
		{"foreign", fmt.Errorf("boom"), KindUnknown},
		{"tag", &TagError{Tag: "ab", Reason: "short"}, KindInvalidTag},
		{"truncated", NewTruncated("signature", 8, 3), KindTruncated},
		{"checksum", &ChecksumError{Tag: "IEND"}, KindChecksumMismatch},
		{"signature", Wrap(ErrBadSignature, "load"), KindBadSignature},
		{"not found", NewNotFound("chunk", "vEiL"), KindNotFound},
		{"no hidden data", ErrNoHiddenData, KindNoHiddenData},
		{"encoding", Wrapf(ErrInvalidEncoding, "chunk %s", "RuSt"), KindInvalidEncoding},
		{"unsupported", NewUnsupported("format", ""), KindUnsupported},
		{"nested parse", &ParseError{Format: "PNG", Err: &ChecksumError{}}, KindChecksumMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKindString(t *testing.T) {
	if got := KindChecksumMismatch.String(); got != "checksum_mismatch" {
		t.Errorf("String() = %q, want %q", got, "checksum_mismatch")
	}
	if got := KindUnknown.String(); got != "unknown" {
		t.Errorf("String() = %q, want %q", got, "unknown")
	}
}

func TestWrap(t *testing.T) {
	t.Run("wraps error", func(t *testing.T) {
		baseErr := fmt.Errorf("base error")
		wrapped := Wrap(baseErr, "context message")
		if wrapped == nil {
			t.Fatal("Wrap() returned nil")
		}
		if !errors.Is(wrapped, baseErr) {
			t.Errorf("Wrap() error does not unwrap to base error")
		}
		wantMsg := "context message: base error"
		if wrapped.Error() != wantMsg {
			t.Errorf("Wrap() = %q, want %q", wrapped.Error(), wantMsg)
		}
	})

	t.Run("nil error returns nil", func(t *testing.T) {
		if got := Wrap(nil, "context"); got != nil {
			t.Errorf("Wrap(nil) = %v, want nil", got)
		}
	})
}

func TestWrapf(t *testing.T) {
	baseErr := fmt.Errorf("base error")
	wrapped := Wrapf(baseErr, "failed to process %s", "image.png")
	if !errors.Is(wrapped, baseErr) {
		t.Errorf("Wrapf() error does not unwrap to base error")
	}
	wantMsg := "failed to process image.png: base error"
	if wrapped.Error() != wantMsg {
		t.Errorf("Wrapf() = %q, want %q", wrapped.Error(), wantMsg)
	}
	if got := Wrapf(nil, "context %s", "test"); got != nil {
		t.Errorf("Wrapf(nil) = %v, want nil", got)
	}
}

func TestAs(t *testing.T) {
	var err error = &ParseError{Format: "PNG", Offset: 8, Err: &ChecksumError{Tag: "IHDR", Stored: 1, Computed: 2}}
	var csErr *ChecksumError
	if !As(err, &csErr) {
		t.Fatal("As() failed to match ChecksumError")
	}
	if csErr.Tag != "IHDR" {
		t.Errorf("As() csErr.Tag = %q, want %q", csErr.Tag, "IHDR")
	}
	if !Is(err, ErrChecksumMismatch) {
		t.Error("Is() failed to match ErrChecksumMismatch")
	}
}
