package tracegraph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortHandlers_DependenciesFirst(t *testing.T) {
	c := NewCatalog()
	c.Register("Meta", depsOnly())
	c.Register("GPU", depsOnly("Meta"))
	c.Register("LayoutShifts", depsOnly("GPU"))
	c.Register("NetworkRequests", depsOnly("LayoutShifts"))
	c.Register("PageLoadMetrics", depsOnly("Renderer", "GPU"))
	c.Register("Renderer", depsOnly("Screenshots"))
	c.Register("Screenshots", depsOnly("NetworkRequests", "LayoutShifts"))

	order, err := SortHandlers(c)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Meta", "GPU", "LayoutShifts", "NetworkRequests",
		"Screenshots", "Renderer", "PageLoadMetrics",
	}, order)
}

func TestSortHandlers_ChainedDependencies(t *testing.T) {
	c := NewCatalog()
	c.Register("GPU", depsOnly("LayoutShifts", "NetworkRequests"))
	c.Register("LayoutShifts", depsOnly("NetworkRequests"))
	c.Register("NetworkRequests", depsOnly())

	order, err := SortHandlers(c)
	require.NoError(t, err)
	assert.Equal(t, []string{"NetworkRequests", "LayoutShifts", "GPU"}, order)
}

func TestSortHandlers_Cycle(t *testing.T) {
	c := NewCatalog()
	c.Register("Meta", depsOnly())
	c.Register("GPU", depsOnly("Meta"))
	c.Register("LayoutShifts", depsOnly("GPU", "Renderer"))
	c.Register("NetworkRequests", depsOnly("LayoutShifts"))
	c.Register("Renderer", depsOnly("NetworkRequests"))

	_, err := SortHandlers(c)
	require.Error(t, err)

	var cycle *CycleError
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, []string{"LayoutShifts", "Renderer", "NetworkRequests", "LayoutShifts"}, cycle.Path)
	assert.Equal(t,
		"found dependency cycle in trace event handlers: LayoutShifts->Renderer->NetworkRequests->LayoutShifts",
		err.Error())
}

func TestResolve_ThreeNodeCycle(t *testing.T) {
	c := NewCatalog()
	c.Register("A", depsOnly("B"))
	c.Register("B", depsOnly("C"))
	c.Register("C", depsOnly("A"))

	_, err := Resolve([]string{"A"}, c.Get)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "A->B->C->A")
}

func TestResolve_SelfDependency(t *testing.T) {
	c := NewCatalog()
	c.Register("Loop", depsOnly("Loop"))

	_, err := Resolve([]string{"Loop"}, c.Get)
	var cycle *CycleError
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, []string{"Loop", "Loop"}, cycle.Path)
}

func TestResolve_MissingDependency(t *testing.T) {
	c := NewCatalog()
	c.Register("Meta", depsOnly())
	c.Register("Renderer", depsOnly("Samples", "Meta"))

	_, err := Resolve([]string{"Meta", "Renderer"}, c.Get)
	require.Error(t, err)

	var missing *MissingDependencyError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "Samples", missing.Name)
	assert.Equal(t, "Renderer", missing.RequiredBy)
	assert.Contains(t, err.Error(), "required handler Samples not provided")
}

func TestResolve_AddsKnownDependencies(t *testing.T) {
	c := NewCatalog()
	c.Register("Meta", depsOnly())
	c.Register("Samples", depsOnly("Meta"))
	c.Register("Renderer", depsOnly("Samples"))
	c.Register("Animation", depsOnly("Meta"))

	order, err := Resolve([]string{"Renderer"}, c.Get)
	require.NoError(t, err)
	assert.Equal(t, []string{"Meta", "Samples", "Renderer"}, order)
}

func TestResolve_Deterministic(t *testing.T) {
	c := NewCatalog()
	c.Register("Meta", depsOnly())
	c.Register("B", depsOnly("Meta"))
	c.Register("A", depsOnly("Meta"))
	c.Register("C", depsOnly("A", "B"))

	first, err := SortHandlers(c)
	require.NoError(t, err)
	for range 10 {
		again, err := SortHandlers(c)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, []string{"Meta", "B", "A", "C"}, first)
}

func TestResolve_Empty(t *testing.T) {
	order, err := Resolve(nil, NewCatalog().Get)
	require.NoError(t, err)
	assert.Empty(t, order)
}

func TestResolve_DuplicateRoots(t *testing.T) {
	c := NewCatalog()
	c.Register("Meta", depsOnly())
	c.Register("A", depsOnly("Meta"))

	order, err := Resolve([]string{"A", "Meta", "A"}, c.Get)
	require.NoError(t, err)
	assert.Equal(t, []string{"Meta", "A"}, order)
}
