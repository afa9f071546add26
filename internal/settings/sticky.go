package settings

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/NinjaCats/deadline-katana/internal/logbook"
)

// StickyStore persists sticky field values between submitter sessions as a
// JSON file under the Deadline user home. Loading and saving never fail the
// session; problems are logged and the form keeps its defaults.
type StickyStore struct {
	path string
	log  *logbook.Logbook
}

// NewStickyStore creates a store backed by path. An empty path disables
// persistence entirely, which is what happens when the repository never
// reported a user home directory.
func NewStickyStore(path string, log *logbook.Logbook) *StickyStore {
	return &StickyStore{path: path, log: log}
}

// Path returns the backing file, or "" when persistence is disabled.
func (s *StickyStore) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Load restores saved values into the form. Missing files are normal on
// first run.
func (s *StickyStore) Load(form *Form) {
	if s == nil || s.path == "" || form == nil {
		return
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.log.Warn("sticky settings: read %s: %v", s.path, err)
		}
		return
	}
	var saved map[string]any
	if err := json.Unmarshal(data, &saved); err != nil {
		s.log.Warn("sticky settings: parse %s: %v", s.path, err)
		return
	}
	form.ApplySticky(saved)
}

// Save writes the form's sticky values back to disk.
func (s *StickyStore) Save(form *Form) {
	if s == nil || s.path == "" || form == nil {
		return
	}
	data, err := json.MarshalIndent(form.StickyValues(), "", "  ")
	if err != nil {
		s.log.Warn("sticky settings: encode: %v", err)
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		s.log.Warn("sticky settings: ensure dir: %v", err)
		return
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		s.log.Warn("sticky settings: write %s: %v", s.path, err)
	}
}
