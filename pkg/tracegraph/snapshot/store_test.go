package snapshot_test

import (
	"testing"
	"time"

	"github.com/randalmurphal/tracegraph/pkg/tracegraph/snapshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storeFactory func(t *testing.T) snapshot.Store

// storeContractTest runs contract tests against any Store implementation.
func storeContractTest(t *testing.T, name string, factory storeFactory) {
	t.Run(name+"/Save_and_Load", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		data := []byte(`{"key": "value"}`)
		require.NoError(t, store.Save("run-1", "Meta", data))

		loaded, err := store.Load("run-1", "Meta")
		require.NoError(t, err)
		assert.Equal(t, data, loaded)
	})

	t.Run(name+"/Load_NotFound", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		_, err := store.Load("run-nonexistent", "Meta")
		assert.ErrorIs(t, err, snapshot.ErrNotFound)
	})

	t.Run(name+"/Save_Overwrite", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		require.NoError(t, store.Save("run-1", "Meta", []byte("first")))
		require.NoError(t, store.Save("run-1", "Meta", []byte("second")))

		loaded, err := store.Load("run-1", "Meta")
		require.NoError(t, err)
		assert.Equal(t, []byte("second"), loaded)
	})

	t.Run(name+"/List_Empty", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		infos, err := store.List("run-nonexistent")
		require.NoError(t, err)
		assert.Empty(t, infos)
	})

	t.Run(name+"/List_Ordered", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		require.NoError(t, store.Save("run-1", "Meta", []byte("a")))
		require.NoError(t, store.Save("run-1", "Samples", []byte("bb")))
		require.NoError(t, store.Save("run-1", "Renderer", []byte("ccc")))

		infos, err := store.List("run-1")
		require.NoError(t, err)
		require.Len(t, infos, 3)

		assert.Equal(t, []int{1, 2, 3}, []int{infos[0].Sequence, infos[1].Sequence, infos[2].Sequence})
		assert.Equal(t, []string{"Meta", "Samples", "Renderer"}, []string{infos[0].Handler, infos[1].Handler, infos[2].Handler})
		assert.Equal(t, []int64{1, 2, 3}, []int64{infos[0].Size, infos[1].Size, infos[2].Size})
		assert.Equal(t, "run-1", infos[0].RunID)
		assert.False(t, infos[0].Timestamp.IsZero())
	})

	t.Run(name+"/Runs", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		runs, err := store.Runs()
		require.NoError(t, err)
		assert.Empty(t, runs)

		require.NoError(t, store.Save("run-a", "Meta", []byte("1")))
		time.Sleep(2 * time.Millisecond)
		require.NoError(t, store.Save("run-b", "Meta", []byte("2")))
		require.NoError(t, store.Save("run-a", "Samples", []byte("3")))

		runs, err = store.Runs()
		require.NoError(t, err)
		assert.Equal(t, []string{"run-a", "run-b"}, runs)
	})

	t.Run(name+"/Delete", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		require.NoError(t, store.Save("run-1", "Meta", []byte("data")))
		require.NoError(t, store.Delete("run-1", "Meta"))

		_, err := store.Load("run-1", "Meta")
		assert.ErrorIs(t, err, snapshot.ErrNotFound)

		assert.NoError(t, store.Delete("run-nonexistent", "Meta"))
	})

	t.Run(name+"/DeleteRun", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		require.NoError(t, store.Save("run-1", "Meta", []byte("a")))
		require.NoError(t, store.Save("run-1", "Samples", []byte("b")))
		require.NoError(t, store.Save("run-2", "Meta", []byte("other")))

		require.NoError(t, store.DeleteRun("run-1"))

		infos, err := store.List("run-1")
		require.NoError(t, err)
		assert.Empty(t, infos)

		infos, err = store.List("run-2")
		require.NoError(t, err)
		assert.Len(t, infos, 1)

		runs, err := store.Runs()
		require.NoError(t, err)
		assert.Equal(t, []string{"run-2"}, runs)

		assert.NoError(t, store.DeleteRun("run-nonexistent"))
	})

	t.Run(name+"/DataCopy", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		original := []byte("original data")
		require.NoError(t, store.Save("run-1", "Meta", original))
		original[0] = 'X'

		loaded, err := store.Load("run-1", "Meta")
		require.NoError(t, err)
		assert.Equal(t, []byte("original data"), loaded)
	})

	t.Run(name+"/Close_ThenError", func(t *testing.T) {
		store := factory(t)
		require.NoError(t, store.Close())

		assert.ErrorIs(t, store.Save("run-1", "Meta", []byte("data")), snapshot.ErrStoreClosed)

		_, err := store.Load("run-1", "Meta")
		assert.ErrorIs(t, err, snapshot.ErrStoreClosed)

		_, err = store.List("run-1")
		assert.ErrorIs(t, err, snapshot.ErrStoreClosed)

		_, err = store.Runs()
		assert.ErrorIs(t, err, snapshot.ErrStoreClosed)
	})

	t.Run(name+"/RecordRoundTrip", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		type metaResult struct {
			Events int `json:"events"`
		}

		_, err := snapshot.Save(store, "run-1", "Meta", 0, metaResult{Events: 7})
		require.NoError(t, err)
		_, err = snapshot.Save(store, "run-1", "Animation", 1, []string{"fade"})
		require.NoError(t, err)

		records, err := snapshot.Load(store, "run-1")
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "Meta", records[0].Handler)
		assert.Equal(t, "Animation", records[1].Handler)

		var got metaResult
		require.NoError(t, records[0].Decode(&got))
		assert.Equal(t, 7, got.Events)
	})
}

func TestMemoryStore(t *testing.T) {
	storeContractTest(t, "MemoryStore", func(t *testing.T) snapshot.Store {
		return snapshot.NewMemoryStore()
	})
}

func TestSQLiteStore(t *testing.T) {
	storeContractTest(t, "SQLiteStore", func(t *testing.T) snapshot.Store {
		store, err := snapshot.NewSQLiteStore(":memory:")
		require.NoError(t, err)
		return store
	})
}
