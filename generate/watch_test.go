package generate

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

	testutil "github.com/nodetool-ai/nodetool-sdk/internal/testing"
)

// startWatcher runs a watcher over root and counts onChange calls
func startWatcher(t *testing.T, root string, extraFiles ...string) *atomic.Int32 {
	t.Helper()
	w, err := NewWatcher(50*time.Millisecond, zap.NewNop().Sugar())
	require.NoError(t, err)
	require.NoError(t, w.AddTree(root))
	for _, f := range extraFiles {
		require.NoError(t, w.AddFile(f))
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	var calls atomic.Int32
	go func() {
		defer close(done)
		_ = w.Run(ctx, func(context.Context) { calls.Add(1) })
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		w.Close()
	})
	return &calls
}

func TestWatcherCoalescesManifestChanges(t *testing.T) {
	root := testutil.WriteTree(t, `
-- src/nodetool/nodes/audio.typegen.toml --
classes = []
`)
	calls := startWatcher(t, root)

	path := filepath.Join(root, "src", "nodetool", "nodes", "audio.typegen.toml")
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("classes = []\n"), 0644))
	}

	assert.Eventually(t, func() bool { return calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load(), "a burst of writes regenerates once")
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	root := testutil.WriteTree(t, `
-- src/nodetool/nodes/audio.py --
`)
	calls := startWatcher(t, root)

	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "nodetool", "nodes", "audio.py"), []byte("x = 1\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte("readme\n"), 0644))

	time.Sleep(250 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
}

func TestWatcherWatchesExplicitFiles(t *testing.T) {
	root := testutil.WriteTree(t, `
-- pkg/src/.keep --
-- typegen.toml --
namespace = "Nodetool"
`)
	configPath := filepath.Join(root, "typegen.toml")
	calls := startWatcher(t, filepath.Join(root, "pkg"), configPath)

	require.NoError(t, os.WriteFile(configPath, []byte("namespace = \"Acme\"\n"), 0644))
	assert.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestSkipDir(t *testing.T) {
	assert.True(t, skipDir("__pycache__"))
	assert.True(t, skipDir(".git"))
	assert.False(t, skipDir("nodetool"))
}
