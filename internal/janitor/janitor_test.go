package janitor

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeAged(t *testing.T, dir, name string, age time.Duration) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	past := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(path, past, past))
	return path
}

func TestSweepRemovesOnlyOldFiles(t *testing.T) {
	dir := t.TempDir()
	j := New()

	old := writeAged(t, dir, "old.jpg", 600000*time.Millisecond)
	fresh := writeAged(t, dir, "fresh.jpg", 60000*time.Millisecond)
	j.Track(old)
	j.Track(fresh)

	removed, err := j.Sweep(300000 * time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.NoFileExists(t, old)
	assert.FileExists(t, fresh)

	removed, err = j.Sweep(300000 * time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)

	tracked := j.Tracked()
	require.Len(t, tracked, 1)
	assert.Equal(t, fresh, tracked[0].Path)
}

func TestSweepKeepsManyRecentFiles(t *testing.T) {
	dir := t.TempDir()
	j := New()
	for i := 0; i < 50; i++ {
		j.Track(writeAged(t, dir, fmt.Sprintf("f%02d.tmp", i), time.Second))
	}

	removed, err := j.Sweep(time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
	assert.Len(t, j.Tracked(), 50)
}

func TestSweepAbsentFileIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	j := New()

	path := writeAged(t, dir, "gone.jpg", time.Hour)
	j.Track(path)
	require.NoError(t, os.Remove(path))

	removed, err := j.Sweep(time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
	assert.Empty(t, j.Tracked())
}

func TestRetrackTouchesFile(t *testing.T) {
	dir := t.TempDir()
	j := New()

	path := writeAged(t, dir, "reused.jpg", time.Hour)
	first := j.Track(path)
	time.Sleep(2 * time.Millisecond)
	second := j.Track(path)

	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.True(t, second.LastTouchedAt.After(first.LastTouchedAt))

	removed, err := j.Sweep(time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 0, removed, "touched file is fresh again")
	assert.FileExists(t, path)
}

func TestSweepSkipsEntryTouchedAfterSnapshot(t *testing.T) {
	dir := t.TempDir()
	j := New()
	path := writeAged(t, dir, "busy.jpg", time.Hour)
	j.Track(path)

	snap := j.Tracked()[0]
	time.Sleep(2 * time.Millisecond)
	j.Track(path)

	ok, err := j.removeIfUntouched(snap)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.FileExists(t, path)
}

func TestSweepUsesInjectedClock(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	j := New(WithClock(func() time.Time { return now }))

	path := writeAged(t, dir, "a.jpg", 0)
	j.Track(path)

	removed, err := j.Sweep(time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)

	now = now.Add(2 * time.Minute)
	removed, err = j.Sweep(time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}

func TestUntrack(t *testing.T) {
	dir := t.TempDir()
	j := New()
	path := writeAged(t, dir, "keep.jpg", time.Hour)
	j.Track(path)
	j.Untrack(path)

	removed, err := j.Sweep(time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
	assert.FileExists(t, path, "untracked files are left alone")
}

func TestStartStop(t *testing.T) {
	dir := t.TempDir()
	j := New(WithMaxAge(time.Minute))
	require.NoError(t, j.Start(time.Hour))
	assert.Error(t, j.Start(time.Hour))

	path := writeAged(t, dir, "old.jpg", time.Hour)
	j.Track(path)

	removed, err := j.Stop()
	require.NoError(t, err)
	assert.Equal(t, 1, removed, "final sweep at teardown")
	assert.NoFileExists(t, path)

	removed, err = j.Stop()
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}

func TestStopWithoutStartSweeps(t *testing.T) {
	dir := t.TempDir()
	j := New(WithMaxAge(time.Minute))

	old := writeAged(t, dir, "old.jpg", time.Hour)
	fresh := writeAged(t, dir, "fresh.jpg", time.Second)
	j.Track(old)
	j.Track(fresh)

	removed, err := j.Stop()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.NoFileExists(t, old)
	assert.FileExists(t, fresh)
}

func TestWithMaxAgeIgnoresNonPositive(t *testing.T) {
	dir := t.TempDir()
	j := New(WithMaxAge(0))

	path := writeAged(t, dir, "recent.jpg", time.Minute)
	j.Track(path)

	removed, err := j.Stop()
	require.NoError(t, err)
	assert.Equal(t, 0, removed, "DefaultMaxAge keeps a one minute old file")
	assert.FileExists(t, path)
}

func TestScheduledSweepRuns(t *testing.T) {
	dir := t.TempDir()
	j := New()
	path := writeAged(t, dir, "old.jpg", time.Hour)
	j.Track(path)

	require.NoError(t, j.Start(time.Second))
	defer func() { _, _ = j.Stop() }()

	assert.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return os.IsNotExist(err)
	}, 3*time.Second, 20*time.Millisecond)
}
