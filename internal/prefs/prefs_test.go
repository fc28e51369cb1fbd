package prefs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePrefs(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestLoadDefaultsWhenMissing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	p, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Prefs{Theme: defaultTheme}, p)
	assert.Equal(t, time.Local, p.Location())
}

func TestLoadFromHomeDefaultPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	writePrefs(t, filepath.Join(home, ".config", "courier", "prefs.toml"), "theme = \"Slate\"\n")

	p, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "Slate", p.Theme)
}

func TestLoadFallsBack(t *testing.T) {
	cases := map[string]string{
		"empty theme":  "theme = \"\"\n",
		"invalid toml": "not valid toml {{{\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "prefs.toml")
			writePrefs(t, path, body)

			p, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, defaultTheme, p.Theme)
		})
	}
}

func TestSaveRoundTripsTimezone(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "prefs.toml")
	require.NoError(t, Save(path, Prefs{Theme: "Dawn", Timezone: "America/Chicago"}))

	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Dawn", p.Theme)
	assert.Equal(t, "America/Chicago", p.Location().String())
}

func TestLocationUnknownZoneUsesLocal(t *testing.T) {
	p := Prefs{Timezone: "Mars/Olympus_Mons"}
	assert.Equal(t, time.Local, p.Location())
}

func TestUpdateKeepsOtherFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.toml")
	writePrefs(t, path, "theme = \"Slate\"\ntimezone = \"UTC\"\n")

	require.NoError(t, Update(path, func(p *Prefs) { p.Theme = "Kanagawa" }))

	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Prefs{Theme: "Kanagawa", Timezone: "UTC"}, p)
}
