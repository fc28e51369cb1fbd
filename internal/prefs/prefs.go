// Package prefs keeps per-operator board settings in a small TOML file,
// ~/.config/courier/prefs.toml unless a path is given.
//
// A missing or unreadable file is never fatal: Load hands back defaults and
// the board starts anyway.
package prefs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	defaultPath  = "~/.config/courier/prefs.toml"
	defaultTheme = "Nightfox"
)

// Prefs holds operator preferences.
type Prefs struct {
	Theme string `toml:"theme"`
	// Timezone is an IANA zone name used to display times on the board.
	// Empty means the machine's local zone.
	Timezone string `toml:"timezone,omitempty"`
}

// DefaultPath returns the default preferences file path.
func DefaultPath() string { return defaultPath }

// Location resolves Timezone, falling back to time.Local when it is empty
// or unknown.
func (p Prefs) Location() *time.Location {
	name := strings.TrimSpace(p.Timezone)
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.Local
	}
	return loc
}

func (p *Prefs) normalize() {
	p.Theme = strings.TrimSpace(p.Theme)
	if p.Theme == "" {
		p.Theme = defaultTheme
	}
	p.Timezone = strings.TrimSpace(p.Timezone)
}

// Load reads preferences from path. Any failure yields defaults.
func Load(path string) (Prefs, error) {
	p := Prefs{Theme: defaultTheme}

	resolved, err := resolvePath(path)
	if err != nil {
		return p, nil
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return p, nil
	}

	var decoded Prefs
	if err := toml.Unmarshal(data, &decoded); err != nil {
		return p, nil
	}
	decoded.normalize()
	return decoded, nil
}

// Save writes preferences to path, creating parent directories.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	p.normalize()
	data, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}
	if err := os.WriteFile(resolved, data, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

// Update loads the preferences at path, applies fn and saves the result.
func Update(path string, fn func(*Prefs)) error {
	p, _ := Load(path)
	fn(&p)
	return Save(path, p)
}

func resolvePath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = defaultPath
	}
	if rest, ok := strings.CutPrefix(path, "~"); ok {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		path = filepath.Join(home, rest)
	}
	return filepath.Abs(path)
}
