package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/natefinch/atomic"
)

const filePrefix = "sess_"

var errBadID = errors.New("invalid session id")

// FileStore keeps each session in its own file under dir. Writes go through a
// temp file and rename. Expiry is based on the file's modification time.
type FileStore struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

// NewFileStore creates a FileStore rooted at dir.
func NewFileStore(dir string, ttl time.Duration) *FileStore {
	return &FileStore{dir: dir, ttl: ttl, now: time.Now}
}

func (s *FileStore) path(id string) (string, error) {
	if !ValidID(id) {
		return "", fmt.Errorf("%w: %q", errBadID, id)
	}
	return filepath.Join(s.dir, filePrefix+id+".json"), nil
}

func (s *FileStore) Load(_ context.Context, id string) ([]byte, error) {
	path, err := s.path(id)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("stat session %s: %w", id, err)
	}
	if s.expired(info) {
		return nil, ErrNotFound
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read session %s: %w", id, err)
	}
	return data, nil
}

func (s *FileStore) Save(_ context.Context, id string, data []byte) error {
	path, err := s.path(id)
	if err != nil {
		return err
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write session %s: %w", id, err)
	}
	// atomic.WriteFile doesn't set permissions for new files
	if err := os.Chmod(path, 0o600); err != nil {
		return fmt.Errorf("chmod session %s: %w", id, err)
	}
	return nil
}

func (s *FileStore) Delete(_ context.Context, id string) error {
	path, err := s.path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

func (s *FileStore) GC(_ context.Context) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("read session dir: %w", err)
	}
	n := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), filePrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if !s.expired(info) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err == nil {
			n++
		}
	}
	return n, nil
}

// EnsureTable creates the session directory.
func (s *FileStore) EnsureTable(context.Context) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	return nil
}

func (s *FileStore) expired(info fs.FileInfo) bool {
	return s.now().After(info.ModTime().Add(s.ttl))
}
