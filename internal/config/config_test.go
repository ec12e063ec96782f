package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingPathReturnsZeroValue(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Config{}, c)
}

func TestLoad_NonexistentFileIsNotAnError(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Config{}, c)
}

func TestLoad_ParsesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("threshold: 50000\nwrite_skips: false\n"), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 50000, c.Threshold)
	require.NotNil(t, c.WriteSkips)
	assert.False(t, *c.WriteSkips)
}

func TestDefaulted_FillsZeroValues(t *testing.T) {
	d := Config{}.Defaulted()
	assert.Equal(t, DefaultThreshold, d.Threshold)
	require.NotNil(t, d.WriteSkips)
	assert.True(t, *d.WriteSkips)
}

func TestDefaulted_PreservesExplicitOverrides(t *testing.T) {
	off := false
	d := Config{Threshold: 10, WriteSkips: &off}.Defaulted()
	assert.Equal(t, 10, d.Threshold)
	assert.False(t, *d.WriteSkips)
}
