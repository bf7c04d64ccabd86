package registry

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	r := New[string, int]()
	assert.NotNil(t, r)
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.Keys())
}

func TestRegisterAndGet(t *testing.T) {
	r := New[string, int]()

	r.Register("one", 1)
	r.Register("two", 2)

	v, ok := r.Get("one")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	v, ok = r.Get("three")
	assert.False(t, ok)
	assert.Equal(t, 0, v)
}

func TestKeys_RegistrationOrder(t *testing.T) {
	r := New[string, int]()
	for i, k := range []string{"Meta", "GPU", "LayoutShifts", "Animation", "Samples"} {
		r.Register(k, i)
	}

	assert.Equal(t, []string{"Meta", "GPU", "LayoutShifts", "Animation", "Samples"}, r.Keys())
}

func TestRegisterOverwrite_KeepsPosition(t *testing.T) {
	r := New[string, string]()

	r.Register("a", "old")
	r.Register("b", "b")
	r.Register("a", "new")

	v, ok := r.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "new", v)
	assert.Equal(t, []string{"a", "b"}, r.Keys())
}

func TestMustGet(t *testing.T) {
	r := New[string, int]()
	r.Register("key", 42)

	assert.Equal(t, 42, r.MustGet("key"))
	assert.PanicsWithValue(t, "registry: key not found", func() {
		r.MustGet("nonexistent")
	})
}

func TestDelete_RemovesFromOrder(t *testing.T) {
	r := New[string, int]()
	r.Register("a", 1)
	r.Register("b", 2)
	r.Register("c", 3)

	r.Delete("b")
	r.Delete("nonexistent")

	assert.False(t, r.Has("b"))
	assert.Equal(t, []string{"a", "c"}, r.Keys())

	r.Register("b", 4)
	assert.Equal(t, []string{"a", "c", "b"}, r.Keys())
}

func TestKeys_ReturnsCopy(t *testing.T) {
	r := New[string, int]()
	r.Register("a", 1)

	keys := r.Keys()
	keys[0] = "mutated"

	assert.Equal(t, []string{"a"}, r.Keys())
}

func TestSubset(t *testing.T) {
	r := New[string, int]()
	r.Register("Meta", 0)
	r.Register("Samples", 1)
	r.Register("Renderer", 2)

	sub, missing := r.Subset("Renderer", "Unknown", "Meta")

	require.NotNil(t, sub)
	assert.Equal(t, []string{"Renderer", "Meta"}, sub.Keys())
	assert.Equal(t, []string{"Unknown"}, missing)
	assert.Equal(t, 3, r.Len(), "source registry is untouched")
}

func TestSubset_IndependentOfSource(t *testing.T) {
	r := New[string, int]()
	r.Register("Meta", 0)
	r.Register("Renderer", 2)

	sub, missing := r.Subset("Meta", "Renderer")
	require.Empty(t, missing)

	r.Register("Renderer", 20)
	r.Delete("Meta")
	r.Register("Extra", 9)

	assert.Equal(t, []string{"Meta", "Renderer"}, sub.Keys())
	assert.Equal(t, 0, sub.MustGet("Meta"))
	assert.Equal(t, 2, sub.MustGet("Renderer"))
}

func TestNilValue(t *testing.T) {
	r := New[string, *int]()
	r.Register("nil", nil)

	v, ok := r.Get("nil")
	assert.True(t, ok)
	assert.Nil(t, v)
}

func TestConcurrentRegister(t *testing.T) {
	r := New[int, int]()
	var wg sync.WaitGroup
	n := 1000

	for i := range n {
		wg.Add(1)
		go func(val int) {
			defer wg.Done()
			r.Register(val, val*2)
		}(i)
	}

	wg.Wait()

	assert.Equal(t, n, r.Len())
	assert.Len(t, r.Keys(), n)
	for i := range n {
		v, ok := r.Get(i)
		assert.True(t, ok)
		assert.Equal(t, i*2, v)
	}
}

func TestConcurrentDelete(t *testing.T) {
	r := New[int, int]()
	for i := range 100 {
		r.Register(i, i)
	}

	var wg sync.WaitGroup
	for i := range 100 {
		wg.Add(1)
		go func(key int) {
			defer wg.Done()
			r.Delete(key)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.Keys())
}

func BenchmarkGet(b *testing.B) {
	r := New[int, int]()
	for i := range 1000 {
		r.Register(i, i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.Get(i % 1000)
	}
}

func BenchmarkKeys(b *testing.B) {
	r := New[int, int]()
	for i := range 32 {
		r.Register(i, i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.Keys()
	}
}
