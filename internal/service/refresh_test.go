package service

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScript drops an executable shell script into dir and returns its name.
func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not runnable on windows")
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return name
}

func TestNewRefreshService_RequiresScripts(t *testing.T) {
	_, err := NewRefreshService(RefreshServiceOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one refresh script")
}

func TestRefreshService_Categories(t *testing.T) {
	svc, err := NewRefreshService(RefreshServiceOptions{
		Scripts: map[string]string{"news": "n.sh", "market": "m.sh"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"market", "news"}, svc.Categories())
}

func TestRefreshService_Refresh_SingleCategory(t *testing.T) {
	dir := t.TempDir()
	ok := writeScript(t, dir, "ok.sh", "exit 0")

	svc, err := NewRefreshService(RefreshServiceOptions{
		Scripts:    map[string]string{"market": ok},
		ScriptsDir: dir,
		Timeout:    10 * time.Second,
	})
	require.NoError(t, err)

	results, err := svc.Refresh(context.Background(), "market")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "market", results[0].Category)
	assert.True(t, results[0].OK)
	assert.Empty(t, results[0].Error)
}

func TestRefreshService_Refresh_AllCategories(t *testing.T) {
	dir := t.TempDir()
	ok := writeScript(t, dir, "ok.sh", "exit 0")
	fail := writeScript(t, dir, "fail.sh", "echo secret-internals >&2; exit 3")

	svc, err := NewRefreshService(RefreshServiceOptions{
		Scripts:    map[string]string{"market": ok, "news": fail},
		ScriptsDir: dir,
		Timeout:    10 * time.Second,
	})
	require.NoError(t, err)

	results, err := svc.Refresh(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Sorted by category: market then news.
	assert.True(t, results[0].OK)
	assert.False(t, results[1].OK)
	assert.Equal(t, "exited with status 3", results[1].Error)
	assert.NotContains(t, results[1].Error, "secret-internals", "stderr must not leak to callers")
}

func TestRefreshService_Refresh_UnknownCategory(t *testing.T) {
	svc, err := NewRefreshService(RefreshServiceOptions{
		Scripts: map[string]string{"market": "m.sh"},
	})
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), "weather")
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestRefreshService_Refresh_Timeout(t *testing.T) {
	dir := t.TempDir()
	slow := writeScript(t, dir, "slow.sh", "sleep 5")

	svc, err := NewRefreshService(RefreshServiceOptions{
		Scripts:    map[string]string{"market": slow},
		ScriptsDir: dir,
		Timeout:    100 * time.Millisecond,
	})
	require.NoError(t, err)

	results, err := svc.Refresh(context.Background(), "market")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].OK)
	assert.Equal(t, "timed out", results[0].Error)
}

func TestRefreshService_Refresh_MissingScript(t *testing.T) {
	svc, err := NewRefreshService(RefreshServiceOptions{
		Scripts:    map[string]string{"market": "does-not-exist.sh"},
		ScriptsDir: t.TempDir(),
		Timeout:    time.Second,
	})
	require.NoError(t, err)

	results, err := svc.Refresh(context.Background(), "market")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].OK)
	assert.Equal(t, "failed to start", results[0].Error)
}
