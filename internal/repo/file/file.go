// Package file keeps the alert history as a flat JSON object on disk,
// {"host": "2006-01-02", ...}, rewritten wholesale on every save.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/multierr"

	"github.com/hamed0406/certwatch/internal/repo"
)

type Store struct {
	path string
}

func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string { return s.path }

// Load returns an empty history when the file does not exist. A corrupt file
// yields an empty history together with the decode error.
func (s *Store) Load(ctx context.Context) (repo.AlertHistory, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return repo.AlertHistory{}, nil
	}
	if err != nil {
		return repo.AlertHistory{}, fmt.Errorf("read alert history: %w", err)
	}
	var h repo.AlertHistory
	if err := json.Unmarshal(b, &h); err != nil {
		return repo.AlertHistory{}, fmt.Errorf("decode alert history %s: %w", s.path, err)
	}
	if h == nil {
		h = repo.AlertHistory{}
	}
	return h, nil
}

// Save writes to a temp file in the same directory and renames it over the
// old one, so a crash mid-write leaves the previous history intact.
func (s *Store) Save(ctx context.Context, h repo.AlertHistory) (err error) {
	if h == nil {
		h = repo.AlertHistory{}
	}
	b, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("encode alert history: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".alerts-*.json")
	if err != nil {
		return fmt.Errorf("create temp history: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	_, werr := tmp.Write(b)
	err = multierr.Combine(werr, tmp.Sync(), tmp.Close())
	if err != nil {
		return fmt.Errorf("write alert history: %w", err)
	}
	if err = os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace alert history: %w", err)
	}
	return nil
}
