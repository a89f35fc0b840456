// Package files reads and writes the text files a conversation refers to.
package files

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/quocvuong92/omni-cli/internal/apperr"
	"github.com/quocvuong92/omni-cli/internal/constants"
)

// sniffSize is how much of a file IsTextFile inspects.
const sniffSize = 8 * 1024

// blockedPaths are system directories that cannot be modified
var blockedPaths = []string{
	"/etc/", "/usr/", "/bin/", "/sbin/", "/boot/",
	"/sys/", "/proc/", "/dev/", "/lib/",
	"/System/", "/Library/",
}

// Accessor is what the chat engine needs from the filesystem.
type Accessor interface {
	Read(path string) (string, error)
	Write(path, content string) error
	Create(path string) error
	IsTextFile(path string) bool
}

// FS is an Accessor backed by the local filesystem.
type FS struct {
	MaxSize int64
}

// New returns an FS limited to constants.MaxFileSize.
func New() *FS {
	return &FS{MaxSize: constants.MaxFileSize}
}

// IsPathSafe checks if a path is safe for write operations.
// Returns (safe, reason) where reason explains why the path is blocked.
func IsPathSafe(path string) (bool, string) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false, "invalid path"
	}

	// macOS links /etc to /private/etc; resolve before comparing.
	if resolved, err := filepath.EvalSymlinks(absPath); err == nil {
		absPath = resolved
	} else if resolvedDir, err := filepath.EvalSymlinks(filepath.Dir(absPath)); err == nil {
		absPath = filepath.Join(resolvedDir, filepath.Base(absPath))
	}

	for _, blocked := range blockedPaths {
		if strings.HasPrefix(absPath, blocked) || strings.HasPrefix(absPath, "/private"+blocked) {
			return false, fmt.Sprintf("path %s is protected", blocked)
		}
	}

	return true, ""
}

// Read returns the content of a text file.
func (f *FS) Read(path string) (string, error) {
	const op = "read"
	if strings.TrimSpace(path) == "" {
		return "", apperr.Validation(op, "no file path given")
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", classify(op, path, err)
	}
	if info.IsDir() {
		return "", apperr.Validation(op, fmt.Sprintf("%s is a directory, not a file", path))
	}
	if f.MaxSize > 0 && info.Size() > f.MaxSize {
		return "", apperr.Validation(op, fmt.Sprintf("%s is too large (%d bytes, limit %d)", path, info.Size(), f.MaxSize))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", classify(op, path, err)
	}
	if !IsText(data) {
		return "", apperr.Validation(op, fmt.Sprintf("%s is not a text file", path))
	}
	return string(data), nil
}

// Write creates or overwrites path with content, creating parent directories.
func (f *FS) Write(path, content string) error {
	const op = "write"
	if strings.TrimSpace(path) == "" {
		return apperr.Validation(op, "no file path given")
	}
	if safe, reason := IsPathSafe(path); !safe {
		return apperr.Permission(op, reason)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return classify(op, path, err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return classify(op, path, err)
	}
	return nil
}

// Create makes an empty file at path. It fails if the file already exists.
func (f *FS) Create(path string) error {
	const op = "create"
	if strings.TrimSpace(path) == "" {
		return apperr.Validation(op, "no file path given")
	}
	if safe, reason := IsPathSafe(path); !safe {
		return apperr.Permission(op, reason)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return classify(op, path, err)
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return apperr.Validation(op, fmt.Sprintf("%s already exists", path))
		}
		return classify(op, path, err)
	}
	return file.Close()
}

// IsTextFile reports whether the file at path looks like text.
func (f *FS) IsTextFile(path string) bool {
	return IsTextFile(path)
}

// IsTextFile reports whether the first bytes of the file at path are text.
// Unreadable files are not text.
func IsTextFile(path string) bool {
	file, err := os.Open(path)
	if err != nil {
		return false
	}
	defer file.Close()

	buf := make([]byte, sniffSize)
	n, err := file.Read(buf)
	if err != nil && n == 0 {
		// Empty files are text.
		info, statErr := file.Stat()
		return statErr == nil && info.Size() == 0
	}
	return IsText(trimPartialRune(buf[:n]))
}

// IsText reports whether data contains no NUL bytes and is valid UTF-8.
func IsText(data []byte) bool {
	return bytes.IndexByte(data, 0) < 0 && utf8.Valid(data)
}

// trimPartialRune drops a multi-byte sequence cut off by a fixed-size read.
func trimPartialRune(b []byte) []byte {
	for i := 1; i < utf8.UTFMax && i <= len(b); i++ {
		r := b[len(b)-i]
		if r < utf8.RuneSelf {
			return b
		}
		if utf8.RuneStart(r) {
			if !utf8.FullRune(b[len(b)-i:]) {
				return b[:len(b)-i]
			}
			return b
		}
	}
	return b
}

func classify(op, path string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return apperr.NotFound(op, "file not found: "+path)
	case errors.Is(err, fs.ErrPermission):
		return apperr.Permission(op, "permission denied: "+path)
	default:
		return apperr.Wrap(apperr.KindValidation, op, fmt.Errorf("%s: %w", path, err))
	}
}
