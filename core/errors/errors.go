// Package errors provides the error taxonomy shared by the veil codec,
// container, locator and format layers.
//
// Every error produced by those layers wraps exactly one of the sentinel
// values below, so callers can branch with errors.Is or with KindOf instead
// of matching on message text.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors, one per failure family.
var (
	// ErrInvalidTag indicates a chunk type that is not four ASCII letters.
	ErrInvalidTag = errors.New("invalid chunk type")
	// ErrTruncated indicates a buffer shorter than the structure it must hold.
	ErrTruncated = errors.New("truncated data")
	// ErrChecksumMismatch indicates a stored CRC that disagrees with the recomputed one.
	ErrChecksumMismatch = errors.New("checksum mismatch")
	// ErrBadSignature indicates a file that does not start with the format magic.
	ErrBadSignature = errors.New("bad signature")
	// ErrNotFound indicates a lookup or removal by chunk type found no match.
	ErrNotFound = errors.New("not found")
	// ErrNoHiddenData indicates extraction was requested on a file without custom chunks.
	ErrNoHiddenData = errors.New("no hidden data")
	// ErrInvalidEncoding indicates bytes that are not valid UTF-8 text.
	ErrInvalidEncoding = errors.New("invalid encoding")
	// ErrUnsupported indicates an unsupported file format or operation.
	ErrUnsupported = errors.New("unsupported")
	// ErrInvalidInput indicates invalid caller input at the I/O boundary.
	ErrInvalidInput = errors.New("invalid input")
)

// Kind is the closed set of error categories.
type Kind int

const (
	// KindUnknown is any error outside the taxonomy (including nil).
	KindUnknown Kind = iota
	KindInvalidTag
	KindTruncated
	KindChecksumMismatch
	KindBadSignature
	KindNotFound
	KindNoHiddenData
	KindInvalidEncoding
	KindUnsupported
	KindInvalidInput
)

var kindSentinels = []struct {
	kind Kind
	err  error
	name string
}{
	{KindInvalidTag, ErrInvalidTag, "invalid_tag"},
	{KindTruncated, ErrTruncated, "truncated"},
	{KindChecksumMismatch, ErrChecksumMismatch, "checksum_mismatch"},
	{KindBadSignature, ErrBadSignature, "bad_signature"},
	{KindNotFound, ErrNotFound, "not_found"},
	{KindNoHiddenData, ErrNoHiddenData, "no_hidden_data"},
	{KindInvalidEncoding, ErrInvalidEncoding, "invalid_encoding"},
	{KindUnsupported, ErrUnsupported, "unsupported"},
	{KindInvalidInput, ErrInvalidInput, "invalid_input"},
}

// String returns the snake_case name of the kind.
func (k Kind) String() string {
	for _, s := range kindSentinels {
		if s.kind == k {
			return s.name
		}
	}
	return "unknown"
}

// KindOf classifies err into one of the taxonomy kinds.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	for _, s := range kindSentinels {
		if errors.Is(err, s.err) {
			return s.kind
		}
	}
	return KindUnknown
}

// TagError reports chunk type bytes that failed validation.
type TagError struct {
	Tag    string // Offending tag, rendered with %q semantics by Error
	Reason string // Why the tag was rejected
}

func (e *TagError) Error() string {
	return fmt.Sprintf("invalid chunk type %q: %s", e.Tag, e.Reason)
}

func (e *TagError) Unwrap() error {
	return ErrInvalidTag
}

// TruncatedError reports a buffer that is too short.
type TruncatedError struct {
	What string // Structure being decoded (e.g., "chunk", "signature")
	Need int    // Bytes required
	Have int    // Bytes available
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("truncated %s: need %d bytes, have %d", e.What, e.Need, e.Have)
}

func (e *TruncatedError) Unwrap() error {
	return ErrTruncated
}

// ChecksumError reports a CRC mismatch on a chunk.
type ChecksumError struct {
	Tag      string
	Stored   uint32
	Computed uint32
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum mismatch in %s chunk: stored %08x, computed %08x", e.Tag, e.Stored, e.Computed)
}

func (e *ChecksumError) Unwrap() error {
	return ErrChecksumMismatch
}

// NotFoundError represents a resource not found error with context
type NotFoundError struct {
	Resource string // Type of resource (e.g., "chunk", "format")
	ID       string // Identifier of the resource
	Err      error  // Underlying error, if any
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrNotFound
}

// ParseError locates a failure inside a larger buffer.
type ParseError struct {
	Format string // Format being parsed (e.g., "PNG")
	Offset int    // Byte offset of the structure that failed
	Err    error  // Underlying taxonomy error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s at offset %d: %v", e.Format, e.Offset, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IOError represents an I/O operation error with context
type IOError struct {
	Operation string // Operation being performed (e.g., "read", "write", "open")
	Path      string // File/resource path involved
	Err       error  // Underlying error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Operation, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// UnsupportedError represents an unsupported feature or format
type UnsupportedError struct {
	Feature string // Feature or format that is unsupported
	Reason  string // Why it's not supported
}

func (e *UnsupportedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unsupported %s: %s", e.Feature, e.Reason)
	}
	return fmt.Sprintf("unsupported %s", e.Feature)
}

func (e *UnsupportedError) Unwrap() error {
	return ErrUnsupported
}

// Helper functions for creating common errors

// NewNotFound creates a NotFoundError
func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		ID:       id,
	}
}

// NewTruncated creates a TruncatedError
func NewTruncated(what string, need, have int) *TruncatedError {
	return &TruncatedError{What: what, Need: need, Have: have}
}

// NewIO creates an IOError
func NewIO(operation, path string, err error) *IOError {
	return &IOError{
		Operation: operation,
		Path:      path,
		Err:       err,
	}
}

// NewUnsupported creates an UnsupportedError
func NewUnsupported(feature, reason string) *UnsupportedError {
	return &UnsupportedError{
		Feature: feature,
		Reason:  reason,
	}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
