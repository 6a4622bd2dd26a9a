package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	c := Defaults()
	assert.Equal(t, 2048, c.Bits)
	assert.Equal(t, 32, c.Smoothness)
	assert.Equal(t, 0, c.Verbose)
	assert.Equal(t, 3, c.Retries)
	assert.Equal(t, 1000000, c.ClosingBudget)
	assert.Equal(t, 100000, c.RegenBudget)
	assert.Equal(t, 1, c.Workers)
	assert.Equal(t, "order", c.Rescale)
	assert.Equal(t, 64, c.TableCacheSize)
	assert.Equal(t, int64(1<<22), c.TableLimit)
	assert.NoError(t, c.validate())
}

func TestTemplateRoundTrip(t *testing.T) {
	file := filepath.Join(t.TempDir(), CONFIG_NAME)
	require.NoError(t, CreateConfigTemplate(file))

	c, err := Load(file)
	require.NoError(t, err)
	assert.Equal(t, file, c.File())
	c.file = NULL
	assert.Equal(t, Defaults(), c)
}

func TestLoad_Override(t *testing.T) {
	file := filepath.Join(t.TempDir(), "custom.ini")
	content := "[nobus]\nBits = 512\nSmoothness = 16\nRescale = gcd\nWorkers = 4\n"
	require.NoError(t, os.WriteFile(file, []byte(content), 0644))

	c, err := Load(file)
	require.NoError(t, err)
	assert.Equal(t, 512, c.Bits)
	assert.Equal(t, 16, c.Smoothness)
	assert.Equal(t, "gcd", c.Rescale)
	assert.Equal(t, 4, c.Workers)
	// untouched keys keep their defaults
	assert.Equal(t, 3, c.Retries)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(filepath.Join(dir, "missing.ini"))
	assert.True(t, errors.Is(err, ErrConfig), "got %v", err)

	for _, content := range []string{
		"[nobus]\nSmoothness = 2\n",
		"[nobus]\nBits = 16\n",
		"[nobus]\nRescale = lcm\n",
		"[nobus]\nWorkers = 0\n",
		"[nobus]\nTableLimit = 0\n",
	} {
		file := filepath.Join(dir, "bad.ini")
		require.NoError(t, os.WriteFile(file, []byte(content), 0644))
		_, err = Load(file)
		assert.True(t, errors.Is(err, ErrConfig), "%q: got %v", content, err)
	}
}

func TestSearchPaths(t *testing.T) {
	paths := SearchPaths()
	require.NotEmpty(t, paths)
	assert.Equal(t, CONFIG_NAME, paths[0])
	for _, p := range paths {
		assert.Equal(t, CONFIG_NAME, filepath.Base(p))
	}
}
