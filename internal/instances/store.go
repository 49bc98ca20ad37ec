package instances

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Store is the discovery-record store: a tiny key-value surface keyed
// by port. Abstracted so the liveness-and-prune logic is testable
// without a real filesystem or real process IDs (DIP, same shape as the
// change store in earlier projects).
type Store interface {
	Put(rec Record) error
	List() ([]Record, error)
	Delete(port int) error
}

// FileStore implements Store with one JSON file per instance in a
// shared directory. Writers only ever touch their own port's file, so
// no cross-process locking is needed; readers tolerate files appearing
// and disappearing underneath them.
type FileStore struct {
	dir string
}

// NewFileStore creates a file-backed store rooted at dir. An empty dir
// selects the platform default (DefaultDir).
func NewFileStore(dir string) *FileStore {
	if dir == "" {
		dir = DefaultDir()
	}
	return &FileStore{dir: dir}
}

// Dir returns the directory records are stored in.
func (s *FileStore) Dir() string {
	return s.dir
}

// DefaultDir returns the user-scoped directory all bridge and addon
// processes on this machine agree on:
//
//	windows: %LOCALAPPDATA%\HoudiniMCP\instances
//	else:    $XDG_DATA_HOME/houdinimcp/instances
//	         (~/.local/share/houdinimcp/instances when unset)
func DefaultDir() string {
	if runtime.GOOS == "windows" {
		base := os.Getenv("LOCALAPPDATA")
		if base == "" {
			base, _ = os.UserHomeDir()
		}
		return filepath.Join(base, "HoudiniMCP", "instances")
	}
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, "houdinimcp", "instances")
}

// Put writes the record for rec.Port atomically (temp file + rename),
// creating the directory on first use. A reader never observes a
// half-written record.
func (s *FileStore) Put(rec Record) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating instance directory %s: %w", s.dir, err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling instance record: %w", err)
	}

	final := filepath.Join(s.dir, fileName(rec.Port))
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing instance record: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("publishing instance record: %w", err)
	}
	return nil
}

// List reads every record in the directory. Unreadable or unparsable
// entries are skipped, not fatal — a record may be mid-replace or
// belong to a foreign writer. A missing directory means no instances.
func (s *FileStore) List() ([]Record, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading instance directory %s: %w", s.dir, err)
	}

	var records []Record
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "houdini_") || !strings.HasSuffix(name, ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			continue
		}
		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// Delete removes the record for port. Deleting a record that is already
// gone is a no-op: concurrent pruners racing on the same stale record
// is harmless.
func (s *FileStore) Delete(port int) error {
	err := os.Remove(filepath.Join(s.dir, fileName(port)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting instance record for port %d: %w", port, err)
	}
	return nil
}
