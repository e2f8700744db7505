// Package fileutil loads and saves whole files at the CLI boundary.
package fileutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mitsimi/veil/core/errors"
	"github.com/mitsimi/veil/internal/validation"
)

// osRename is a variable to allow testing of rename errors.
var osRename = os.Rename

// tempFileWrite is a function variable for writing to temp files (for testing).
var tempFileWrite = func(f *os.File, data []byte) (int, error) {
	return f.Write(data)
}

// tempFileClose is a function variable for closing temp files (for testing).
var tempFileClose = func(f io.Closer) error {
	return f.Close()
}

// ReadFile loads path into memory after validating it and checking its size
// against validation.MaxFileSize.
func ReadFile(path string) ([]byte, error) {
	if err := validation.ValidatePath(path); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrInvalidInput, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.NewIO("stat", path, err)
	}
	if info.IsDir() {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "%s is a directory", path)
	}
	if err := validation.ValidateFileSize(info.Size()); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrInvalidInput, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewIO("read", path, err)
	}
	return data, nil
}

// WriteFileAtomic writes data to a temporary file in the destination
// directory and renames it over path. Readers never observe a partial file.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	if err := validation.ValidatePath(path); err != nil {
		return fmt.Errorf("%w: %w", errors.ErrInvalidInput, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.NewIO("mkdir", dir, err)
	}

	tempFile, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*")
	if err != nil {
		return errors.NewIO("create temp", dir, err)
	}
	tempPath := tempFile.Name()

	if _, err := tempFileWrite(tempFile, data); err != nil {
		tempFileClose(tempFile)
		os.Remove(tempPath)
		return errors.NewIO("write", path, err)
	}

	if err := tempFileClose(tempFile); err != nil {
		os.Remove(tempPath)
		return errors.NewIO("close", path, err)
	}

	if err := os.Chmod(tempPath, perm); err != nil {
		os.Remove(tempPath)
		return errors.NewIO("chmod", path, err)
	}

	// Rename to final path (atomic on POSIX)
	if err := osRename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return errors.NewIO("rename", path, err)
	}

	return nil
}

// CopyFile copies src to dst, creating parent directories as needed and
// preserving the source permissions.
func CopyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return errors.NewIO("open", src, err)
	}
	defer srcFile.Close()

	info, err := srcFile.Stat()
	if err != nil {
		return errors.NewIO("stat", src, err)
	}
	if !info.Mode().IsRegular() {
		return errors.Wrapf(errors.ErrInvalidInput, "%s is not a regular file", src)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return errors.NewIO("mkdir", filepath.Dir(dst), err)
	}

	dstFile, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return errors.NewIO("create", dst, err)
	}

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		dstFile.Close()
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}
	if err := dstFile.Close(); err != nil {
		return errors.NewIO("close", dst, err)
	}
	return nil
}
