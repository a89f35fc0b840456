// Package history holds conversation threads, their on-disk form and the
// session registries of stored images and searches.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/quocvuong92/omni-cli/internal/apperr"
	"github.com/quocvuong92/omni-cli/internal/logging"
)

// Manager stores finished sessions so they can be resumed later.
// This interface enables dependency injection and easier testing.
type Manager interface {
	// AddConversation archives a new session
	AddConversation(id, model, provider string, messages []Message) error

	// UpdateConversation replaces the messages of an archived session
	UpdateConversation(id string, messages []Message) error

	// GetConversation retrieves a session by ID
	GetConversation(id string) (*Entry, error)

	// GetLastConversation returns the most recently updated session
	GetLastConversation() (*Entry, error)

	// GetRecentConversations returns up to n sessions, newest first
	GetRecentConversations(n int) ([]Entry, error)

	// Clear removes every archived session
	Clear() error
}

// Ensure concrete type implements the interface
var _ Manager = (*Archive)(nil)

// Entry is one archived session.
type Entry struct {
	ID        string    `json:"id"`
	Model     string    `json:"model"`
	Provider  string    `json:"provider"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Messages  []Message `json:"messages"`
}

// Preview returns the first user message, shortened to n runes.
func (e Entry) Preview(n int) string {
	for _, m := range e.Messages {
		if m.Role != RoleUser {
			continue
		}
		text := strings.Join(strings.Fields(m.Text()), " ")
		if r := []rune(text); len(r) > n {
			return string(r[:n]) + "..."
		}
		return text
	}
	return "(no user messages)"
}

// Archive is a Manager keeping one JSON file per session under a directory.
type Archive struct {
	dir string
	now func() time.Time
}

// NewArchive returns an archive rooted at dir. The directory is created on
// first write.
func NewArchive(dir string) *Archive {
	return &Archive{dir: dir, now: time.Now}
}

// Dir returns the archive directory.
func (a *Archive) Dir() string { return a.dir }

func (a *Archive) path(id string) string {
	return filepath.Join(a.dir, id+".json")
}

// AddConversation archives a new session.
func (a *Archive) AddConversation(id, model, provider string, messages []Message) error {
	now := a.now()
	return a.write(Entry{
		ID:        id,
		Model:     model,
		Provider:  provider,
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  messages,
	})
}

// UpdateConversation replaces the messages of an archived session.
func (a *Archive) UpdateConversation(id string, messages []Message) error {
	entry, err := a.GetConversation(id)
	if err != nil {
		return err
	}
	entry.Messages = messages
	entry.UpdatedAt = a.now()
	return a.write(*entry)
}

// GetConversation retrieves a session by ID.
func (a *Archive) GetConversation(id string) (*Entry, error) {
	return a.read(a.path(id))
}

// GetLastConversation returns the most recently updated session.
func (a *Archive) GetLastConversation() (*Entry, error) {
	entries, err := a.GetRecentConversations(1)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, apperr.NotFound("archive", "no archived conversations")
	}
	return &entries[0], nil
}

// GetRecentConversations returns up to n sessions, newest first. Files that
// fail to parse are skipped.
func (a *Archive) GetRecentConversations(n int) ([]Entry, error) {
	names, err := filepath.Glob(filepath.Join(a.dir, "*.json"))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, "archive", err)
	}

	var entries []Entry
	for _, name := range names {
		entry, err := a.read(name)
		if err != nil {
			logging.Warn("skipping archived conversation", "file", name, "error", err)
			continue
		}
		entries = append(entries, *entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].UpdatedAt.After(entries[j].UpdatedAt)
	})
	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries, nil
}

// Clear removes every archived session.
func (a *Archive) Clear() error {
	names, err := filepath.Glob(filepath.Join(a.dir, "*.json"))
	if err != nil {
		return apperr.Wrap(apperr.KindValidation, "archive", err)
	}
	for _, name := range names {
		if err := os.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fileErr("archive", name, err)
		}
	}
	return nil
}

func (a *Archive) write(e Entry) error {
	if e.ID == "" {
		return apperr.Validation("archive", "conversation id is empty")
	}
	if err := os.MkdirAll(a.dir, 0o700); err != nil {
		return fileErr("archive", a.dir, err)
	}
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return apperr.Wrap(apperr.KindValidation, "archive", err)
	}
	if err := os.WriteFile(a.path(e.ID), data, 0o600); err != nil {
		return fileErr("archive", a.path(e.ID), err)
	}
	return nil
}

func (a *Archive) read(path string) (*Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fileErr("archive", path, err)
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, apperr.Parse("archive", fmt.Errorf("%s: %w", filepath.Base(path), err))
	}
	if _, err := FromMessages(e.Messages); err != nil {
		return nil, apperr.Parse("archive", fmt.Errorf("%s: %w", filepath.Base(path), err))
	}
	return &e, nil
}
