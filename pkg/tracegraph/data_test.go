package tracegraph

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestData_OrderAndLookup(t *testing.T) {
	values := map[string]any{"Meta": 1, "Samples": "s", "Unlisted": true}
	d := newData([]string{"Meta", "Samples"}, values)

	assert.Equal(t, []string{"Meta", "Samples"}, d.Handlers())
	assert.Equal(t, 2, d.Len())

	v, ok := d.Get("Samples")
	assert.True(t, ok)
	assert.Equal(t, "s", v)

	_, ok = d.Get("Unlisted")
	assert.False(t, ok)

	var visited []string
	d.Range(func(name string, _ any) bool {
		visited = append(visited, name)
		return name != "Meta"
	})
	assert.Equal(t, []string{"Meta"}, visited)
}

func TestData_IsolatedFromInputs(t *testing.T) {
	names := []string{"Meta"}
	values := map[string]any{"Meta": 1}
	d := newData(names, values)

	names[0] = "Other"
	values["Meta"] = 2
	d.Handlers()[0] = "Mutated"

	v, _ := d.Get("Meta")
	assert.Equal(t, 1, v)
	assert.Equal(t, []string{"Meta"}, d.Handlers())
}

func TestData_Nil(t *testing.T) {
	var d *Data

	_, ok := d.Get("Meta")
	assert.False(t, ok)
	assert.Nil(t, d.Handlers())
	assert.Zero(t, d.Len())
	d.Range(func(string, any) bool {
		t.Fatal("range over nil data")
		return false
	})

	raw, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, "null", string(raw))
}

func TestData_MarshalJSONKeepsOrder(t *testing.T) {
	d := newData([]string{"Zeta", "Alpha"}, map[string]any{
		"Zeta":  map[string]int{"n": 1},
		"Alpha": []string{"x"},
	})

	raw, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `{"Zeta":{"n":1},"Alpha":["x"]}`, string(raw))
}

func TestData_MarshalJSONError(t *testing.T) {
	d := newData([]string{"Bad"}, map[string]any{"Bad": make(chan int)})

	_, err := json.Marshal(d)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "encode Bad result")
}

func TestResultOf(t *testing.T) {
	d := newData([]string{"Meta"}, map[string]any{"Meta": 7})

	n, ok := ResultOf[int](d, "Meta")
	assert.True(t, ok)
	assert.Equal(t, 7, n)

	_, ok = ResultOf[string](d, "Meta")
	assert.False(t, ok, "wrong type")

	_, ok = ResultOf[int](d, "Missing")
	assert.False(t, ok)

	_, ok = ResultOf[int](nil, "Meta")
	assert.False(t, ok)
}

func TestStatus(t *testing.T) {
	assert.Equal(t, "IDLE", StatusIdle.String())
	assert.Equal(t, "PARSING", StatusParsing.String())
	assert.Equal(t, "FINISHED_PARSING", StatusFinishedParsing.String())

	assert.True(t, StatusIdle.canParse())
	assert.False(t, StatusParsing.canParse())
	assert.False(t, StatusFinishedParsing.canParse())

	assert.True(t, StatusIdle.canReset())
	assert.False(t, StatusParsing.canReset())
	assert.True(t, StatusFinishedParsing.canReset())
}
