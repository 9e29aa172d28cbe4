// Package assets stores model scene documents on disk behind an in-memory
// cache.
package assets

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/Faultbox/ccmodels/pkg/encoding"
)

// SceneExt is the file extension of stored scene documents.
const SceneExt = ".bbmodel"

// Asset store errors.
var (
	ErrNotFound    = errors.New("scene document not found")
	ErrInvalidName = errors.New("invalid model name")
)

// AssetStore loads and saves raw scene document JSON by model name.
// Name case is not significant.
type AssetStore interface {
	LoadSceneDocument(name string) ([]byte, error)
	SaveSceneDocument(name string, data []byte) error
	DeleteSceneDocument(name string) error
}

// DirStore keeps one file per model in a directory.
type DirStore struct {
	dir   string
	cache *Cache
	mu    sync.RWMutex
}

// NewDirStore creates a store rooted at dir, creating it if needed.
// Pass cached=false to always read from disk.
func NewDirStore(dir string, cached bool) (*DirStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(err, "creating asset dir %s", dir)
	}
	s := &DirStore{dir: dir}
	if cached {
		s.cache = NewCache()
	}
	return s, nil
}

func (s *DirStore) path(name string) (string, string, error) {
	key := encoding.FoldName(name)
	if !encoding.IsSafeName(key) {
		return "", "", errors.Wrapf(ErrInvalidName, "%q", name)
	}
	return key, filepath.Join(s.dir, key+SceneExt), nil
}

// LoadSceneDocument returns the stored JSON for name.
func (s *DirStore) LoadSceneDocument(name string) ([]byte, error) {
	key, path, err := s.path(name)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if data, ok := s.cache.Get(key); ok {
			return data, nil
		}
	}

	s.mu.RLock()
	data, err := os.ReadFile(path)
	s.mu.RUnlock()
	if os.IsNotExist(err) {
		return nil, errors.Wrapf(ErrNotFound, "%q", name)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}

	if s.cache != nil {
		s.cache.Set(key, data)
	}
	return data, nil
}

// SaveSceneDocument writes data for name, replacing any previous document.
func (s *DirStore) SaveSceneDocument(name string, data []byte) error {
	key, path, err := s.path(name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return errors.Wrapf(err, "writing %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.Wrapf(err, "replacing %s", path)
	}
	if s.cache != nil {
		s.cache.Delete(key)
	}
	return nil
}

// DeleteSceneDocument removes the document for name. Deleting a missing
// document is not an error.
func (s *DirStore) DeleteSceneDocument(name string) error {
	key, path, err := s.path(name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "removing %s", path)
	}
	if s.cache != nil {
		s.cache.Delete(key)
	}
	return nil
}

// CacheStats returns cache hit/miss counts (zero when uncached).
func (s *DirStore) CacheStats() (hits, misses int) {
	if s.cache == nil {
		return 0, 0
	}
	return s.cache.Stats()
}

// Cache is a simple in-memory cache for loaded documents.
type Cache struct {
	data map[string][]byte
	mu   sync.RWMutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string][]byte),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return data, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
}

// Delete evicts one item.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
