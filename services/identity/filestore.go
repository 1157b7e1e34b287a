package identity

import (
	"encoding/json"
	"os"
	"path/filepath"

	apperr "quizharvester/pkg/errors"
)

// FileStore keeps counters in a small JSON file, written atomically via a
// temp file rename.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load() (map[string]int, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return make(map[string]int), nil
	}
	if err != nil {
		return nil, apperr.NewPersistence("", "read counter file", err)
	}

	counters := make(map[string]int)
	if err := json.Unmarshal(data, &counters); err != nil {
		return nil, apperr.NewPersistence("", "parse counter file", err)
	}
	return counters, nil
}

func (s *FileStore) Save(counters map[string]int) error {
	data, err := json.MarshalIndent(counters, "", "  ")
	if err != nil {
		return apperr.NewPersistence("", "encode counters", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return apperr.NewPersistence("", "create counter directory", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return apperr.NewPersistence("", "write counter file", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return apperr.NewPersistence("", "replace counter file", err)
	}
	return nil
}
