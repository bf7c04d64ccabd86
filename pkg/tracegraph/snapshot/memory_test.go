package snapshot_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/randalmurphal/tracegraph/pkg/tracegraph/snapshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Len(t *testing.T) {
	store := snapshot.NewMemoryStore()
	assert.Equal(t, 0, store.Len())

	require.NoError(t, store.Save("run-1", "Meta", []byte("a")))
	require.NoError(t, store.Save("run-1", "Samples", []byte("b")))
	require.NoError(t, store.Save("run-2", "Meta", []byte("c")))
	assert.Equal(t, 3, store.Len())

	require.NoError(t, store.Delete("run-1", "Meta"))
	assert.Equal(t, 2, store.Len())

	require.NoError(t, store.Close())
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStore_DeleteLastDropsRun(t *testing.T) {
	store := snapshot.NewMemoryStore()
	require.NoError(t, store.Save("run-1", "Meta", []byte("a")))
	require.NoError(t, store.Delete("run-1", "Meta"))

	runs, err := store.Runs()
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestMemoryStore_Concurrent(t *testing.T) {
	store := snapshot.NewMemoryStore()
	defer store.Close()

	const workers = 20
	const ops = 50

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(id int) {
			defer wg.Done()
			runID := fmt.Sprintf("run-%d", id%5)
			for j := 0; j < ops; j++ {
				handler := fmt.Sprintf("h-%d", j%10)
				switch j % 4 {
				case 0, 1:
					_ = store.Save(runID, handler, []byte("data"))
				case 2:
					_, _ = store.Load(runID, handler)
				case 3:
					_, _ = store.List(runID)
				}
			}
		}(i)
	}
	wg.Wait()

	runs, err := store.Runs()
	require.NoError(t, err)
	assert.Len(t, runs, 5)
}
