package vsource_test

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentuity/go-recoverable/logger"
	"github.com/agentuity/go-recoverable/storage"
	"github.com/agentuity/go-recoverable/taskqueue"
	"github.com/agentuity/go-recoverable/vsource"
)

// Full lifecycle against real storage backends: produce, save, evict via the
// garbage collector, recover.
func TestSourceLifecycleWithRealStorage(t *testing.T) {
	store, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	backends := map[string]vsource.Storage[parseTree]{
		"file":   storage.NewFile[parseTree](storage.WithDir(t.TempDir())),
		"sqlite": storage.NewSQLiteSlot[parseTree](store, "tree-1"),
		"memory": storage.NewMemory[parseTree](),
	}

	for name, backend := range backends {
		t.Run(name, func(t *testing.T) {
			q := taskqueue.New(context.Background(), logger.NewTestLogger())
			src := vsource.New(&parseTree{Root: "func main() {}"}, backend, q)

			got, err := src.Get(context.Background())
			require.NoError(t, err)
			assert.Equal(t, "func main() {}", got.Root)
			got = nil
			_ = got

			require.NoError(t, q.Wait(context.Background()))
			require.Eventually(t, func() bool {
				runtime.GC()
				_, ok := src.TryGet()
				return !ok
			}, 10*time.Second, 10*time.Millisecond, "value was never collected")

			back, err := src.Get(context.Background())
			require.NoError(t, err)
			assert.Equal(t, "func main() {}", back.Root)
		})
	}
}
