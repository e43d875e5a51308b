// Package checkpoint persists the resume date between runs. The stored value
// is a single YYYYMMDD line; it is the only state that survives a process.
package checkpoint

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/WakiJi/wmscan/internal/scan"
)

// ErrCorrupt marks a checkpoint file whose contents do not parse as a date.
// A corrupt checkpoint is a configuration error, never silently reset.
var ErrCorrupt = errors.New("corrupt checkpoint")

// Store reads and writes the checkpoint file at a fixed path.
type Store struct {
	path string
}

// NewStore builds a Store for the given path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the checkpoint file location.
func (s *Store) Path() string {
	return s.path
}

// Load returns the stored date. ok is false when no checkpoint exists; a
// malformed file returns an error wrapping ErrCorrupt.
func (s *Store) Load() (time.Time, bool, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("read checkpoint %s: %w", s.path, err)
	}
	text := strings.TrimSpace(string(raw))
	date, err := scan.ParseDate(text)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w in %s: %q", ErrCorrupt, s.path, text)
	}
	return date, true, nil
}

// Save overwrites the checkpoint with the given date.
func (s *Store) Save(date time.Time) error {
	if err := os.WriteFile(s.path, []byte(scan.FormatDate(date)), 0o600); err != nil {
		return fmt.Errorf("write checkpoint %s: %w", s.path, err)
	}
	return nil
}
