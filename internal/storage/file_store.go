package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ensigniasec/autorefresh/internal/validate"
)

// Data represents the structure of the store file.
type Data struct {
	Values map[string]string `json:"values"`
}

// FileStore keeps all keys in a single JSON file. The file is re-read on
// every access so that separate processes observe each other's writes.
// Writes hold an advisory lock on Path+".lock" across the read-modify-write
// and replace the file atomically, so readers never see a partial file.
type FileStore struct {
	Path string `validate:"required"`

	mu sync.Mutex
}

// NewFileStore creates a FileStore for path. The file is not touched until
// the first write.
func NewFileStore(path string) (*FileStore, error) {
	expandedPath, err := expandTilde(path)
	if err != nil {
		return nil, err
	}
	s := &FileStore{Path: expandedPath}
	if err := validate.Struct(s); err != nil {
		return nil, err
	}
	return s, nil
}

// NewOrExistingFileStore returns a store for an existing file, or creates the
// file with an empty scaffold otherwise.
func NewOrExistingFileStore(path string) (*FileStore, error) {
	s, err := NewFileStore(path)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(s.Path); err == nil {
		return s, nil
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	unlock, err := s.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()
	// Another process may have created it while we waited for the lock.
	if _, err := os.Stat(s.Path); err == nil {
		return s, nil
	}
	if err := s.save(Data{Values: map[string]string{}}); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) Get(_ context.Context, key, def string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		if !os.IsNotExist(err) {
			logrus.WithField("key", key).Debugf("store read failed: %v", err)
		}
		return def
	}
	v, ok := data.Values[key]
	if !ok {
		return def
	}
	return v
}

func (s *FileStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	unlock, err := s.lock()
	if err != nil {
		return &WriteError{Key: key, Err: err}
	}
	defer unlock()

	data, err := s.load()
	if err != nil && !os.IsNotExist(err) {
		// A corrupt file is replaced rather than blocking every write.
		logrus.WithField("key", key).Warnf("store file corrupt, rewriting: %v", err)
		data = Data{}
	}
	if data.Values == nil {
		data.Values = make(map[string]string)
	}
	data.Values[key] = value
	if err := s.save(data); err != nil {
		return &WriteError{Key: key, Err: err}
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) load() (Data, error) {
	logrus.Debug("Loading store file from: ", s.Path)
	raw, err := os.ReadFile(s.Path)
	if err != nil {
		return Data{}, err
	}
	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return Data{}, err
	}
	return data, nil
}

// save writes data to a temp file next to Path and renames it into place.
func (s *FileStore) save(data Data) error {
	logrus.Debug("Saving store file to: ", s.Path)
	dir := filepath.Dir(s.Path)
	// Ensure parent directory exists.
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.Path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, s.Path); err != nil {
		return fmt.Errorf("replace store file: %w", err)
	}
	return nil
}

// lock takes the cross-process write lock for the store file.
func (s *FileStore) lock() (func(), error) {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(s.Path+".lock", os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open store lock: %w", err)
	}
	if err := lockFile(f); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("lock store: %w", err)
	}
	return func() {
		if err := unlockFile(f); err != nil {
			logrus.Debugf("store unlock failed: %v", err)
		}
		_ = f.Close()
	}, nil
}

// expandTilde expands the tilde in a path to the user's home directory.
func expandTilde(path string) (string, error) {
	if len(path) == 0 || path[0] != '~' {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(home, path[1:]), nil
}
