package modelconfig

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/ccmodels/pkg/encoding"
)

// ConfigExt is the file extension of stored model configs.
const ConfigExt = ".yaml"

// Config store errors.
var (
	ErrConfigNotFound = errors.New("model config not found")
	ErrInvalidName    = errors.New("invalid model name")
)

// ConfigStore persists model configs by base name (case-insensitive).
type ConfigStore interface {
	Load(name string) (*StoredModelConfig, error)
	Save(cfg *StoredModelConfig) error
	Exists(name string) bool
	Delete(name string) error
	List() ([]string, error)
}

// FileStore keeps one YAML file per model in a directory.
type FileStore struct {
	dir string
	mu  sync.RWMutex
}

// NewFileStore creates a store rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(err, "creating config dir %s", dir)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(name string) (string, error) {
	base := ParseModelName(name).Base
	if !encoding.IsSafeName(base) {
		return "", errors.Wrapf(ErrInvalidName, "%q", name)
	}
	return filepath.Join(s.dir, base+ConfigExt), nil
}

// Load reads the config for the base of name.
func (s *FileStore) Load(name string) (*StoredModelConfig, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	data, err := os.ReadFile(path)
	s.mu.RUnlock()
	if os.IsNotExist(err) {
		return nil, errors.Wrapf(ErrConfigNotFound, "%q", name)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}

	// Unset fields keep their defaults.
	cfg := New(name)
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	cfg.Name = ParseModelName(name)
	cfg.BaseName = cfg.Name.Base
	return cfg, nil
}

// Save writes cfg, replacing any previous file.
func (s *FileStore) Save(cfg *StoredModelConfig) error {
	path, err := s.path(cfg.Name.Base)
	if err != nil {
		return err
	}
	cfg.BaseName = cfg.Name.Base

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrapf(err, "encoding %s", cfg.BaseName)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return errors.Wrapf(err, "writing %s", tmp)
	}
	return errors.Wrapf(os.Rename(tmp, path), "replacing %s", path)
}

// Exists reports whether a config is stored for the base of name.
func (s *FileStore) Exists(name string) bool {
	path, err := s.path(name)
	if err != nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, err = os.Stat(path)
	return err == nil
}

// Delete removes the config. Deleting a missing config is not an error.
func (s *FileStore) Delete(name string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "removing %s", path)
	}
	return nil
}

// List returns the stored base names, sorted.
func (s *FileStore) List() ([]string, error) {
	s.mu.RLock()
	entries, err := os.ReadDir(s.dir)
	s.mu.RUnlock()
	if err != nil {
		return nil, errors.Wrapf(err, "listing %s", s.dir)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ConfigExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ConfigExt))
	}
	sort.Strings(names)
	return names, nil
}
