package server

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countingReload(n *int32) ReloadFunc {
	return func(ctx context.Context) error {
		atomic.AddInt32(n, 1)
		return nil
	}
}

func TestRefresherReloadsOnFileChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "programme.csv")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0644))

	var calls int32
	r := NewRefresher(countingReload(&calls), WithWatch(path), WithDebounce(20*time.Millisecond))
	require.NoError(t, r.Start(context.Background()))
	defer r.Stop()

	// Writes to other files in the directory are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.csv"), []byte("x"), 0644))
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))

	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte("v2"), 0644))
	}
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) >= 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRefresherRunsJobs(t *testing.T) {
	var ticks int32
	r := NewRefresher(countingReload(new(int32)),
		WithJob("@every 1s", func() { atomic.AddInt32(&ticks, 1) }))
	require.NoError(t, r.Start(context.Background()))
	defer r.Stop()

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&ticks) >= 1
	}, 3*time.Second, 20*time.Millisecond)
}

func TestRefresherRejectsBadSchedule(t *testing.T) {
	r := NewRefresher(countingReload(new(int32)), WithSchedule("every tuesday", nil))
	err := r.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid refresh schedule")
	r.Stop()
}

func TestRefresherStopsOnContextCancel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "programme.csv")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	r := NewRefresher(countingReload(new(int32)), WithWatch(path))
	require.NoError(t, r.Start(ctx))
	require.NoError(t, r.Start(ctx), "second start is a no-op")

	cancel()
	r.Stop()
	r.Stop()
}

func TestRefresherStartFailsForMissingDirectory(t *testing.T) {
	r := NewRefresher(countingReload(new(int32)), WithWatch("/nonexistent/dir/programme.csv"))
	assert.Error(t, r.Start(context.Background()))
}
