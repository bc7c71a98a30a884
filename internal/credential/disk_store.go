package credential

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/aquataze/tool-gateway/internal/api"
)

const (
	// DefaultTokenFile is used when TOKEN_FILE_PATH is not set.
	DefaultTokenFile = "token.json"

	dirPerm  os.FileMode = 0o700
	filePerm os.FileMode = 0o600
)

// DiskStore keeps the latest record as a single JSON file. Writes go to a
// temporary file in the same directory which is then renamed over the target,
// so readers see either the old or the new record, never a partial one.
type DiskStore struct {
	path string
}

var _ Store = (*DiskStore)(nil)

// NewDiskStore creates a store backed by the file at path.
func NewDiskStore(path string) *DiskStore {
	if path == "" {
		path = DefaultTokenFile
	}
	return &DiskStore{path: path}
}

// Path returns the file the store reads and writes.
func (s *DiskStore) Path() string {
	return s.path
}

func (s *DiskStore) Get(_ context.Context) (*Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: read token file %q: %w", api.ErrPersistence, s.path, err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		// An unreadable file is treated as absent so the next refresh replaces it.
		log.Printf("WARNING: ignoring unreadable token file %q: %v", s.path, err)
		return nil, nil
	}
	if rec.Token == "" {
		return nil, nil
	}
	return &rec, nil
}

func (s *DiskStore) Put(_ context.Context, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%w: marshal token: %w", api.ErrPersistence, err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("%w: mkdir %q: %w", api.ErrPersistence, dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".token-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp token file: %w", api.ErrPersistence, err)
	}
	tmpName := tmp.Name()

	if err := writeAndClose(tmp, data); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: write temp token file: %w", api.ErrPersistence, err)
	}
	if err := os.Chmod(tmpName, filePerm); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: chmod temp token file: %w", api.ErrPersistence, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: replace token file %q: %w", api.ErrPersistence, s.path, err)
	}
	return nil
}

func writeAndClose(f *os.File, data []byte) error {
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
