package match

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProfile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "match.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadThresholds_Full(t *testing.T) {
	path := writeProfile(t, `
match:
  name_threshold: 0.9
  address_threshold: 0.6
`)
	th, err := LoadThresholds(path)
	require.NoError(t, err)
	assert.Equal(t, 0.9, th.Name)
	assert.Equal(t, 0.6, th.Address)
}

func TestLoadThresholds_DefaultsApplied(t *testing.T) {
	path := writeProfile(t, `
match:
  name_threshold: 0.85
`)
	th, err := LoadThresholds(path)
	require.NoError(t, err)
	assert.Equal(t, 0.85, th.Name)
	assert.Equal(t, DefaultThresholds.Address, th.Address)
}

func TestLoadThresholds_OutOfRange(t *testing.T) {
	path := writeProfile(t, `
match:
  name_threshold: 1.5
`)
	_, err := LoadThresholds(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestLoadThresholds_MissingFile(t *testing.T) {
	_, err := LoadThresholds(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadThresholds_BadYAML(t *testing.T) {
	path := writeProfile(t, "match: [not a map")
	_, err := LoadThresholds(path)
	require.Error(t, err)
}
