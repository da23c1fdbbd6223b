package kvstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"taxtally/deductions/internal/fileutils"
)

// FileStore keeps one YAML document per user under a data directory. Values
// are stored as strings keyed by state name.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates a store rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := fileutils.EnsureDirectoryExists(dir); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(userID string) string {
	return filepath.Join(s.dir, userID+".yaml")
}

func (s *FileStore) load(userID string) (map[string]string, error) {
	data, err := os.ReadFile(s.path(userID))
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state for %s: %w", userID, err)
	}
	doc := map[string]string{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse state for %s: %w", userID, err)
	}
	return doc, nil
}

func (s *FileStore) save(userID string, doc map[string]string) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode state for %s: %w", userID, err)
	}
	return fileutils.WriteFileAtomic(s.path(userID), data, 0o600)
}

func (s *FileStore) Get(_ context.Context, userID, key string) ([]byte, bool, error) {
	if err := validate(userID, key); err != nil {
		return nil, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load(userID)
	if err != nil {
		return nil, false, err
	}
	v, ok := doc[key]
	if !ok {
		return nil, false, nil
	}
	return []byte(v), true, nil
}

func (s *FileStore) Set(_ context.Context, userID, key string, value []byte) error {
	if err := validate(userID, key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load(userID)
	if err != nil {
		return err
	}
	doc[key] = string(value)
	return s.save(userID, doc)
}

func (s *FileStore) Remove(_ context.Context, userID, key string) error {
	if err := validate(userID, key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load(userID)
	if err != nil {
		return err
	}
	if _, ok := doc[key]; !ok {
		return nil
	}
	delete(doc, key)
	return s.save(userID, doc)
}
