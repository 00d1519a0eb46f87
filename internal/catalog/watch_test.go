package catalog

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// writeAtomic replaces path in one step so the watcher never sees a truncated file.
func writeAtomic(t *testing.T, path, content string) {
	t.Helper()
	tmp := path + ".tmp"
	require.NoError(t, os.WriteFile(tmp, []byte(content), 0644))
	require.NoError(t, os.Rename(tmp, path))
}

func TestWatcher_ReloadsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("providers:\n  - id: a\n"), 0644))

	c, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())

	w, err := NewWatcher(c, path, zap.NewNop())
	require.NoError(t, err)

	var reloads atomic.Int32
	w.OnReload(func(err error) {
		if err == nil {
			reloads.Add(1)
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	writeAtomic(t, path, "providers:\n  - id: a\n  - id: b\n")

	require.Eventually(t, func() bool {
		return reloads.Load() > 0 && c.Len() == 2
	}, 5*time.Second, 20*time.Millisecond)
}

func TestWatcher_KeepsTableOnBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("providers:\n  - id: a\n"), 0644))

	c, err := Load(path)
	require.NoError(t, err)

	w, err := NewWatcher(c, path, nil)
	require.NoError(t, err)

	failures := make(chan error, 8)
	w.OnReload(func(err error) {
		if err != nil {
			failures <- err
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	writeAtomic(t, path, "providers:\n  - id: a\n  - id: a\n")

	select {
	case err := <-failures:
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload attempt observed")
	}
	assert.Equal(t, 1, c.Len())
}
