package config

import (
	"errors"
	"strings"
	"sync"

	"github.com/quocvuong92/omni-cli/internal/apperr"
)

// ErrEmptyModel is returned when a model identifier is blank.
var ErrEmptyModel = errors.New("model name cannot be empty")

// ModelTarget selects which of the two models a change applies to.
type ModelTarget int

const (
	// TargetDefault is the model answering plain chat.
	TargetDefault ModelTarget = iota
	// TargetEditor is the model answering edit requests.
	TargetEditor
)

func (t ModelTarget) String() string {
	if t == TargetEditor {
		return "editor"
	}
	return "default"
}

// ModelSelection holds the chat and editor model identifiers for a session.
// It is created once, shared by the dispatcher and the gateway, and changed
// only through Set.
type ModelSelection struct {
	mu           sync.RWMutex
	defaultModel string
	editorModel  string
}

// NewModelSelection returns a selection with the given models. An empty
// editor model falls back to the default model when read.
func NewModelSelection(defaultModel, editorModel string) *ModelSelection {
	return &ModelSelection{
		defaultModel: strings.TrimSpace(defaultModel),
		editorModel:  strings.TrimSpace(editorModel),
	}
}

// Default returns the model used for plain chat.
func (m *ModelSelection) Default() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultModel
}

// Editor returns the model used for edit sessions.
func (m *ModelSelection) Editor() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.editorModel == "" {
		return m.defaultModel
	}
	return m.editorModel
}

// Get returns the model for target.
func (m *ModelSelection) Get(target ModelTarget) string {
	if target == TargetEditor {
		return m.Editor()
	}
	return m.Default()
}

// Set replaces the model for target. A blank name is rejected and the
// previous value is kept.
func (m *ModelSelection) Set(target ModelTarget, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return apperr.Wrap(apperr.KindConfiguration, "model", ErrEmptyModel)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if target == TargetEditor {
		m.editorModel = name
	} else {
		m.defaultModel = name
	}
	return nil
}
