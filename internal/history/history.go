package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/five82/courier/internal/order"
)

const (
	// MirrorFileName is the local copy of the remote history collection.
	MirrorFileName = "history.json"
	// ExportFileName is the fixed name of exported history files.
	ExportFileName = "delivery_history.json"
)

// Mirror persists the last known history so it can be shown offline.
type Mirror struct {
	path string
}

// NewMirror returns a Mirror stored as history.json inside dataDir.
func NewMirror(dataDir string) *Mirror {
	return &Mirror{path: filepath.Join(dataDir, MirrorFileName)}
}

// Path returns the mirror file location.
func (m *Mirror) Path() string {
	return m.path
}

// Save writes entries as a JSON array, replacing the previous file atomically.
func (m *Mirror) Save(entries []order.HistoryEntry) error {
	return writeJSON(m.path, entries)
}

// Load reads the mirrored history. A missing file yields an empty history.
func (m *Mirror) Load() ([]order.HistoryEntry, error) {
	return ReadFile(m.path)
}

// ReadFile reads a JSON array of history entries. A missing file yields an
// empty history; unreadable or malformed files return an error.
func ReadFile(path string) ([]order.HistoryEntry, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history file: %w", err)
	}
	return Decode(data)
}

// Decode parses a JSON array of history entries. Empty input and null decode
// to an empty history.
func Decode(data []byte) ([]order.HistoryEntry, error) {
	var entries []order.HistoryEntry
	if len(data) == 0 {
		return nil, nil
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse history file: %w", err)
	}
	return entries, nil
}

// Encode renders entries as an indented JSON array. A nil history encodes as [].
func Encode(entries []order.HistoryEntry) ([]byte, error) {
	if entries == nil {
		entries = []order.HistoryEntry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode history: %w", err)
	}
	return append(data, '\n'), nil
}

// Export writes entries to dir/delivery_history.json and returns the path.
func Export(dir string, entries []order.HistoryEntry) (string, error) {
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, ExportFileName)
	if err := writeJSON(path, entries); err != nil {
		return "", err
	}
	return path, nil
}

func writeJSON(path string, entries []order.HistoryEntry) error {
	data, err := Encode(entries)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".history-*.json")
	if err != nil {
		return fmt.Errorf("create temp history file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write history file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close history file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace history file: %w", err)
	}
	return nil
}
