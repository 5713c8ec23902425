package daemon

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/dura/pkg/config"
)

func TestSingleton_AcquireWhenUnclaimed(t *testing.T) {
	dir := t.TempDir()
	s := New(config.NewAt(dir), dir)

	require.NoError(t, s.Acquire())

	doc, err := config.NewAt(dir).Load()
	require.NoError(t, err)
	require.NotNil(t, doc.PID)
	assert.Equal(t, os.Getpid(), *doc.PID)
}

func TestSingleton_AcquireRefusesLiveOwner(t *testing.T) {
	dir := t.TempDir()
	store := config.NewAt(dir)
	s := New(store, dir)

	require.NoError(t, s.Acquire())

	// a second singleton over the same store sees the first's live pid.
	other := New(store, dir)
	err := other.Acquire()
	assert.ErrorIs(t, err, ErrAlreadyRunning)
}

func TestSingleton_AcquireReclaimsStalePID(t *testing.T) {
	dir := t.TempDir()
	store := config.NewAt(dir)

	// a pid astronomically unlikely to be a live process.
	stale := 1 << 30
	require.NoError(t, store.SetPID(&stale))

	s := New(store, dir)
	require.NoError(t, s.Acquire())

	doc, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), *doc.PID)
}

func TestSingleton_Release(t *testing.T) {
	dir := t.TempDir()
	store := config.NewAt(dir)
	s := New(store, dir)

	require.NoError(t, s.Acquire())
	require.NoError(t, s.Release())

	doc, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, doc.PID)
}

func TestShutdownRequestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := New(config.NewAt(dir), dir)

	requested, err := s.ShutdownRequested()
	require.NoError(t, err)
	assert.False(t, requested)

	require.NoError(t, RequestShutdown(dir))

	requested, err = s.ShutdownRequested()
	require.NoError(t, err)
	assert.True(t, requested)

	// consumed: asking again finds nothing.
	requested, err = s.ShutdownRequested()
	require.NoError(t, err)
	assert.False(t, requested)

	_, err = os.Stat(filepath.Join(dir, shutdownFileName))
	assert.True(t, os.IsNotExist(err))
}
