package history

import (
	"time"

	"github.com/quocvuong92/omni-cli/internal/images"
	"github.com/quocvuong92/omni-cli/internal/search"
)

// StoredImage is an image attached during the session.
type StoredImage struct {
	Key      string
	Type     string // always "image"
	Source   images.Source
	MIMEType string
	Content  string // base64
}

// StoredImages is an insertion-ordered map of images keyed by path or URL.
// Storing an existing key replaces its value and keeps its position.
type StoredImages struct {
	order []string
	items map[string]StoredImage
}

// NewStoredImages returns an empty registry.
func NewStoredImages() *StoredImages {
	return &StoredImages{items: make(map[string]StoredImage)}
}

// Put stores img under img.Key.
func (s *StoredImages) Put(img images.Image) StoredImage {
	stored := StoredImage{
		Key:      img.Key,
		Type:     "image",
		Source:   img.Source,
		MIMEType: img.MIMEType,
		Content:  img.Data,
	}
	if _, ok := s.items[img.Key]; !ok {
		s.order = append(s.order, img.Key)
	}
	s.items[img.Key] = stored
	return stored
}

// Get returns the image stored under key.
func (s *StoredImages) Get(key string) (StoredImage, bool) {
	img, ok := s.items[key]
	return img, ok
}

// Len returns the number of stored images.
func (s *StoredImages) Len() int { return len(s.order) }

// All returns the stored images in insertion order.
func (s *StoredImages) All() []StoredImage {
	out := make([]StoredImage, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.items[k])
	}
	return out
}

// StoredSearch is one search made during the session.
type StoredSearch struct {
	Index   int // 1-based, in order of execution
	Query   string
	Results []search.Result
	At      time.Time
}

// StoredSearches records every search in order. Repeated queries are kept.
type StoredSearches struct {
	items []StoredSearch
	now   func() time.Time
}

// NewStoredSearches returns an empty registry.
func NewStoredSearches() *StoredSearches {
	return &StoredSearches{now: time.Now}
}

// Add records a search and returns the stored entry.
func (s *StoredSearches) Add(query string, results []search.Result) StoredSearch {
	entry := StoredSearch{
		Index:   len(s.items) + 1,
		Query:   query,
		Results: append([]search.Result(nil), results...),
		At:      s.now(),
	}
	s.items = append(s.items, entry)
	return entry
}

// Len returns the number of recorded searches.
func (s *StoredSearches) Len() int { return len(s.items) }

// All returns the recorded searches in order.
func (s *StoredSearches) All() []StoredSearch {
	return append([]StoredSearch(nil), s.items...)
}
