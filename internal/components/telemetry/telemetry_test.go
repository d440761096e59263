package telemetry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScopedAPI(t *testing.T) {
	inner := NewTestAPI()
	scoped := NewScopedAPI("store", inner)

	scoped.ReportBroken("file.commit", errors.New("disk full"))
	scoped.ReportWarning("file.load-snapshot", "corrupt")
	scoped.ReportDebug("loaded")
	scoped.ReportCount("file.entries", 12)

	broken := inner.Reports("broken", "file.commit")
	require.Len(t, broken, 1)
	require.Equal(t, "store: file.commit", broken[0].ID)
	require.Len(t, inner.Reports("warning", "file.load-snapshot"), 1)
	require.Len(t, inner.Reports("debug", "store: loaded"), 1)

	count, ok := inner.Count("file.entries")
	require.True(t, ok)
	require.Equal(t, int64(12), count)
}

func TestSlogAPIFormatParams(t *testing.T) {
	var out []any
	SlogAPI{}.formatParams(&out, []any{KV{Key: "cycle_id", Value: "abc"}, errors.New("boom"), 3})
	require.Equal(t, []any{"cycle_id", "abc", "params.1", "boom", "params.2", 3}, out)
}
