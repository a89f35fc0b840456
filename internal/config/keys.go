package config

import (
	"os"
	"sync"
)

// RotatableErrorCodes are HTTP statuses that move a KeyRotator to its next key.
var RotatableErrorCodes = []int{401, 403, 429}

// KeyRotator manages a pool of API keys. Rotation only moves forward; once
// the last key fails the pool is exhausted for the session.
type KeyRotator struct {
	mu         sync.Mutex
	keys       []string
	currentIdx int
}

// NewKeyRotator creates a KeyRotator from a comma-separated environment variable.
func NewKeyRotator(envVar string) *KeyRotator {
	return NewKeyRotatorFromKeys(splitList(os.Getenv(envVar)))
}

// NewKeyRotatorFromKeys creates a KeyRotator over an explicit key list.
func NewKeyRotatorFromKeys(keys []string) *KeyRotator {
	var clean []string
	for _, k := range keys {
		clean = append(clean, splitList(k)...)
	}
	return &KeyRotator{keys: clean}
}

// GetCurrentKey returns the active key, or "" when the pool is empty.
func (kr *KeyRotator) GetCurrentKey() string {
	kr.mu.Lock()
	defer kr.mu.Unlock()
	if len(kr.keys) == 0 {
		return ""
	}
	return kr.keys[kr.currentIdx]
}

// GetKeyCount returns the total number of keys
func (kr *KeyRotator) GetKeyCount() int {
	kr.mu.Lock()
	defer kr.mu.Unlock()
	return len(kr.keys)
}

// GetCurrentIndex returns the current key index (0-based)
func (kr *KeyRotator) GetCurrentIndex() int {
	kr.mu.Lock()
	defer kr.mu.Unlock()
	return kr.currentIdx
}

// HasKeys returns true if there are any keys configured
func (kr *KeyRotator) HasKeys() bool {
	return kr != nil && kr.GetKeyCount() > 0
}

// Rotate moves to the next key and returns it.
func (kr *KeyRotator) Rotate() (string, error) {
	kr.mu.Lock()
	defer kr.mu.Unlock()
	if kr.currentIdx+1 >= len(kr.keys) {
		return "", ErrNoAvailableKeys
	}
	kr.currentIdx++
	return kr.keys[kr.currentIdx], nil
}
