package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/randalmurphal/tracegraph/pkg/tracegraph/snapshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tracePath = filepath.Join("..", "..", "pkg", "tracegraph", "handlers", "testdata", "trace.json")

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func lines(s string) []string {
	return strings.Split(strings.TrimSpace(s), "\n")
}

func TestOrder_AllHandlers(t *testing.T) {
	out, err := run(t, "order")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"1\tMeta",
		"2\tSamples",
		"3\tRenderer",
		"4\tScreenshots",
		"5\tAnimation",
	}, lines(out))
}

func TestOrder_Subset(t *testing.T) {
	out, err := run(t, "order", "--handlers", "Renderer")
	require.NoError(t, err)
	assert.Equal(t, []string{"1\tMeta", "2\tSamples", "3\tRenderer"}, lines(out))
}

func TestOrder_UnknownHandler(t *testing.T) {
	_, err := run(t, "order", "--handlers", "Bogus")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Bogus")
}

func TestOrder_FromEnvironment(t *testing.T) {
	t.Setenv("TRACEGRAPH_HANDLERS", "Animation")

	out, err := run(t, "order")
	require.NoError(t, err)
	assert.Equal(t, []string{"1\tMeta", "2\tAnimation"}, lines(out))
}

func TestOrder_FromSettingsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("handlers: [Screenshots]\n"), 0o600))

	out, err := run(t, "order", "--config", path)
	require.NoError(t, err)
	assert.Equal(t, []string{"1\tMeta", "2\tScreenshots"}, lines(out))
}

func TestParse_InvalidSettings(t *testing.T) {
	_, err := run(t, "parse", "--check-interval", "0", tracePath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "check_interval")
}

func TestParse_TextReport(t *testing.T) {
	out, err := run(t, "parse", tracePath)
	require.NoError(t, err)

	assert.Contains(t, out, "15 events")
	assert.Contains(t, out, "window     1000..1850 us (850 us)")
	assert.Contains(t, out, "profiles   1 (5 samples)")
	assert.Contains(t, out, "thread     CrRendererMain: 3 events, 180 us busy")
	assert.Contains(t, out, "frames     1")
	assert.Contains(t, out, "animations 1 (0 unfinished)")
}

func TestParse_JSONReport(t *testing.T) {
	out, err := run(t, "parse", "--json", "--concurrency", "2", tracePath, tracePath)
	require.NoError(t, err)

	var reports []struct {
		Path     string                     `json:"path"`
		RunID    string                     `json:"run_id"`
		Events   int                        `json:"events"`
		Handlers []string                   `json:"handlers"`
		Data     map[string]json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &reports))
	require.Len(t, reports, 2)
	assert.NotEqual(t, reports[0].RunID, reports[1].RunID)
	for _, r := range reports {
		assert.Equal(t, 15, r.Events)
		assert.Equal(t, []string{"Meta", "Samples", "Renderer", "Screenshots", "Animation"}, r.Handlers)
		assert.Len(t, r.Data, 5)
	}
}

func TestParse_MissingFile(t *testing.T) {
	_, err := run(t, "parse", filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSnapshot_RoundTrip(t *testing.T) {
	db := filepath.Join(t.TempDir(), "snapshots.db")

	out, err := run(t, "parse", "--json", "--snapshot-db", db, tracePath)
	require.NoError(t, err)
	var reports []struct {
		RunID string `json:"run_id"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &reports))
	require.Len(t, reports, 1)
	runID := reports[0].RunID

	out, err = run(t, "snapshot", "list", "--snapshot-db", db)
	require.NoError(t, err)
	assert.Equal(t, []string{runID}, lines(out))

	out, err = run(t, "snapshot", "list", "--snapshot-db", db, runID)
	require.NoError(t, err)
	listed := lines(out)
	require.Len(t, listed, 6)
	assert.Contains(t, listed[1], "Meta")
	assert.Contains(t, listed[5], "Animation")

	out, err = run(t, "snapshot", "show", "--snapshot-db", db, runID)
	require.NoError(t, err)
	var records []snapshot.Record
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 5)
	assert.Equal(t, "Meta", records[0].Handler)
}

func TestSnapshot_UnknownRun(t *testing.T) {
	db := filepath.Join(t.TempDir(), "snapshots.db")
	_, err := run(t, "snapshot", "show", "--snapshot-db", db, "nope")
	assert.ErrorIs(t, err, snapshot.ErrNotFound)
}

func TestSnapshot_NoDatabase(t *testing.T) {
	_, err := run(t, "snapshot", "list")
	assert.ErrorIs(t, err, errNoSnapshotDB)
}

func TestSplitNames(t *testing.T) {
	assert.Equal(t, []string{"A", "B", "C"}, splitNames([]string{"A,B", " C "}))
	assert.Nil(t, splitNames(nil))
}
