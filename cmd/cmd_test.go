package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"snapspot/internal/janitor"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOverrideCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	c := &cobra.Command{Use: "test"}
	c.Flags().Float64("lat", 0, "")
	c.Flags().Float64("lon", 0, "")
	require.NoError(t, c.Flags().Parse(args))
	return c
}

func TestOverrideFromFlags(t *testing.T) {
	loc, err := overrideFromFlags(newOverrideCmd(t))
	require.NoError(t, err)
	assert.Nil(t, loc)

	loc, err = overrideFromFlags(newOverrideCmd(t, "--lat", "51.5", "--lon", "-0.12"))
	require.NoError(t, err)
	require.NotNil(t, loc)
	assert.InDelta(t, 51.5, loc.Latitude, 1e-9)
	assert.InDelta(t, -0.12, loc.Longitude, 1e-9)

	// zero is a valid coordinate once the flag is given
	loc, err = overrideFromFlags(newOverrideCmd(t, "--lat", "0", "--lon", "0"))
	require.NoError(t, err)
	assert.NotNil(t, loc)

	_, err = overrideFromFlags(newOverrideCmd(t, "--lat", "10"))
	assert.Error(t, err)

	_, err = overrideFromFlags(newOverrideCmd(t, "--lat", "95", "--lon", "0"))
	assert.Error(t, err)
}

func TestAdoptTempFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))
	for _, name := range []string{"a.jpg", "nested/b.jpg", "c.jpg.part"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	j := janitor.New()
	assert.Equal(t, 2, adoptTempFiles(dir, j))

	tracked := j.Tracked()
	require.Len(t, tracked, 2)
	assert.Equal(t, filepath.Join(dir, "a.jpg"), tracked[0].Path)
	assert.Equal(t, filepath.Join(dir, "nested", "b.jpg"), tracked[1].Path)

	_, err := os.Stat(filepath.Join(dir, "c.jpg.part"))
	assert.True(t, os.IsNotExist(err))
}

func TestAdoptTempFilesMissingDir(t *testing.T) {
	j := janitor.New()
	assert.Equal(t, 0, adoptTempFiles(filepath.Join(t.TempDir(), "absent"), j))
}

func TestAdoptedFilesAgeOut(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "old.jpg")
	fresh := filepath.Join(dir, "fresh.jpg")
	require.NoError(t, os.WriteFile(old, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(fresh, []byte("x"), 0o644))
	stale := time.Now().Add(-10 * time.Minute)
	require.NoError(t, os.Chtimes(old, stale, stale))

	j := janitor.New()
	adoptTempFiles(dir, j)

	removed, err := j.Sweep(5 * time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	_, err = os.Stat(fresh)
	assert.NoError(t, err)
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	t.Cleanup(func() { versionCmd.SetOut(nil) })

	versionCmd.Run(versionCmd, nil)
	assert.Contains(t, out.String(), "snapspot ")
	assert.Contains(t, out.String(), "Commit:")
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "resolve", "index", "sweep", "version"} {
		assert.True(t, names[want], want)
	}
}
