package status

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"keepmeprivate/internal/fileutil"
)

// ErrCorrupt reports a status file that exists but does not hold a JSON object.
var ErrCorrupt = errors.New("status file corrupt")

// Store reads and writes the status snapshot file.
type Store struct {
	path string
}

// Open prepares the status file at path, creating its directory and any
// missing sections.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("status file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create status directory: %w", err)
	}
	store := &Store{path: path}
	if err := store.Init(); err != nil {
		return nil, err
	}
	return store, nil
}

// NewReader returns a store for read-only use. It never creates or modifies the file.
func NewReader(path string) *Store {
	return &Store{path: path}
}

// Path returns the canonical status file location.
func (s *Store) Path() string {
	return s.path
}

// Init writes an empty snapshot when the file is missing and adds any missing
// sections to an existing one. A corrupt file is replaced with an empty snapshot.
func (s *Store) Init() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s.write(newSnapshot())
		}
		return fmt.Errorf("read status file: %w", err)
	}
	snap, err := decodeSnapshot(data)
	if err != nil {
		return s.write(newSnapshot())
	}
	if snap.fillMissing() {
		return s.write(snap)
	}
	return nil
}

// Update replaces the section under key with value and leaves the other
// sections as they were on disk. A missing or corrupt file is treated as empty.
func (s *Store) Update(key string, value any) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("status key is required")
	}
	section, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s section: %w", key, err)
	}

	snap, err := s.Read()
	if err != nil {
		if !errors.Is(err, ErrCorrupt) {
			return err
		}
		snap = newSnapshot()
	}
	snap[key] = section
	return s.write(snap)
}

// Read returns the last fully written snapshot with every required key
// present. A missing file yields an empty snapshot.
func (s *Store) Read() (Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return newSnapshot(), nil
		}
		return nil, fmt.Errorf("read status file: %w", err)
	}
	snap, err := decodeSnapshot(data)
	if err != nil {
		return nil, err
	}
	snap.fillMissing()
	return snap, nil
}

func decodeSnapshot(data []byte) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if snap == nil {
		snap = make(Snapshot, len(Keys))
	}
	return snap, nil
}

func (s *Store) write(snap Snapshot) error {
	snap.fillMissing()
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode status snapshot: %w", err)
	}
	data = append(data, '\n')
	if err := fileutil.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("persist status snapshot: %w", err)
	}
	return nil
}
