package events

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careertrojan/ops-core/internal/model"
	"github.com/careertrojan/ops-core/internal/testutil"
)

func writeEvents(t *testing.T, lg *Log, actions ...string) []model.InteractionEvent {
	t.Helper()
	var out []model.InteractionEvent
	for _, action := range actions {
		out = append(out, lg.Log(model.EventParams{ActionType: action}))
	}
	return out
}

func TestReader_MissingLogYieldsEmptyBatch(t *testing.T) {
	r := NewReader(filepath.Join(t.TempDir(), "absent.jsonl"), testutil.MakeNoopLogger())

	batch, err := r.Next(10)
	require.NoError(t, err)
	assert.Empty(t, batch)
}

func TestReader_ReadsInAppendOrder(t *testing.T) {
	lg := NewLog(t.TempDir(), "interactions.jsonl", testutil.MakeNoopLogger())
	written := writeEvents(t, lg, "a", "b", "c")

	r := NewReader(lg.Path(), testutil.MakeNoopLogger())
	batch, err := r.Next(10)
	require.NoError(t, err)
	require.Len(t, batch, 3)
	for i, event := range batch {
		assert.Equal(t, written[i].EventID, event.EventID)
	}
}

func TestReader_CommitPersistsOffset(t *testing.T) {
	lg := NewLog(t.TempDir(), "interactions.jsonl", testutil.MakeNoopLogger())
	writeEvents(t, lg, "a", "b")

	r := NewReader(lg.Path(), testutil.MakeNoopLogger())
	batch, err := r.Next(10)
	require.NoError(t, err)
	require.Len(t, batch, 2)
	require.NoError(t, r.Commit())

	// Later events are picked up by a fresh reader from the checkpoint.
	written := writeEvents(t, lg, "c")

	r2 := NewReader(lg.Path(), testutil.MakeNoopLogger())
	assert.Equal(t, r.Offset(), r2.Offset())

	batch, err = r2.Next(10)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, written[0].EventID, batch[0].EventID)
}

func TestReader_UncommittedBatchRedelivered(t *testing.T) {
	lg := NewLog(t.TempDir(), "interactions.jsonl", testutil.MakeNoopLogger())
	writeEvents(t, lg, "a", "b")

	r := NewReader(lg.Path(), testutil.MakeNoopLogger())
	first, err := r.Next(10)
	require.NoError(t, err)
	require.Len(t, first, 2)
	// No commit: a restarted reader replays the same events.

	r2 := NewReader(lg.Path(), testutil.MakeNoopLogger())
	second, err := r2.Next(10)
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.Equal(t, first[0].EventID, second[0].EventID)
}

func TestReader_SkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	lg := NewLog(dir, "interactions.jsonl", testutil.MakeNoopLogger())
	writeEvents(t, lg, "a")

	f, err := os.OpenFile(lg.Path(), os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("{not json\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	writeEvents(t, lg, "b")

	r := NewReader(lg.Path(), testutil.MakeNoopLogger())
	batch, err := r.Next(10)
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, "a", batch[0].ActionType)
	assert.Equal(t, "b", batch[1].ActionType)
}

func TestReader_LeavesPartialTrailingLine(t *testing.T) {
	dir := t.TempDir()
	lg := NewLog(dir, "interactions.jsonl", testutil.MakeNoopLogger())
	writeEvents(t, lg, "a")

	// Simulate an in-flight append with no trailing newline yet.
	f, err := os.OpenFile(lg.Path(), os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(`{"event_id":"partial`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	r := NewReader(lg.Path(), testutil.MakeNoopLogger())
	batch, err := r.Next(10)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	require.NoError(t, r.Commit())

	// Complete the line; only the now-complete event is delivered next.
	f, err = os.OpenFile(lg.Path(), os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("\"}\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	batch, err = r.Next(10)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, "partial", batch[0].EventID)
}

func TestReader_CorruptOffsetStartsFromZero(t *testing.T) {
	lg := NewLog(t.TempDir(), "interactions.jsonl", testutil.MakeNoopLogger())
	writeEvents(t, lg, "a")

	require.NoError(t, os.WriteFile(lg.Path()+".offset", []byte("garbage"), 0o644))

	r := NewReader(lg.Path(), testutil.MakeNoopLogger())
	assert.Equal(t, int64(0), r.Offset())

	batch, err := r.Next(10)
	require.NoError(t, err)
	assert.Len(t, batch, 1)
}
