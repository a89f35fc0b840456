package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/quocvuong92/omni-cli/internal/apperr"
)

// Save writes the conversation to path as a JSON array of {role, content}
// objects, replacing any existing file.
func Save(path string, c *Conversation) error {
	const op = "save history"

	data, err := json.MarshalIndent(c.Messages(), "", "  ")
	if err != nil {
		return apperr.Wrap(apperr.KindValidation, op, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fileErr(op, path, err)
		}
	}
	// A failed save must not leave a half-written file at path.
	tmp, err := os.CreateTemp(filepath.Dir(path), ".omni-history-*")
	if err != nil {
		return fileErr(op, path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fileErr(op, path, err)
	}
	if err := tmp.Close(); err != nil {
		return fileErr(op, path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fileErr(op, path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fileErr(op, path, err)
	}
	return nil
}

// Load reads a conversation saved by Save. It returns a not_found error for
// a missing file and a parse error for anything that is not a valid
// conversation; callers keep their current history in both cases.
func Load(path string) (*Conversation, error) {
	const op = "load history"

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fileErr(op, path, err)
	}
	return Decode(data)
}

// Decode parses a JSON conversation.
func Decode(data []byte) (*Conversation, error) {
	const op = "load history"

	var msgs []Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, apperr.Parse(op, err)
	}
	c, err := FromMessages(msgs)
	if err != nil {
		return nil, apperr.Parse(op, err)
	}
	return c, nil
}

func fileErr(op, path string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return apperr.NotFound(op, "file not found: "+path)
	case errors.Is(err, fs.ErrPermission):
		return apperr.Permission(op, "permission denied: "+path)
	default:
		return apperr.Wrap(apperr.KindValidation, op, fmt.Errorf("%s: %w", path, err))
	}
}
