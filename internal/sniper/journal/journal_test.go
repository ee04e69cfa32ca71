package journal

import (
	"errors"
	"testing"

	"github.com/go-arcade/sniper/internal/sniper/model"
	"github.com/go-arcade/sniper/internal/sniper/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newJournal(t *testing.T) (*Journal, *store.Store) {
	t.Helper()
	st, err := store.New(t.TempDir())
	require.NoError(t, err)
	return New(st), st
}

func savedEntries(t *testing.T, st *store.Store) []model.LogEntry {
	t.Helper()
	var out []model.LogEntry
	if err := st.Load(store.FileLogs, &out); err != nil && !errors.Is(err, store.ErrNotExist) {
		require.NoError(t, err)
	}
	return out
}

func TestJournal_Cap(t *testing.T) {
	j, _ := newJournal(t)
	for i := 0; i < maxEntries+5; i++ {
		j.Add("INFO", "tick", "queue")
	}
	entries := j.Entries()
	assert.Len(t, entries, maxEntries)
}

func TestJournal_SaveCadence(t *testing.T) {
	j, st := newJournal(t)

	for i := 0; i < saveEvery-1; i++ {
		j.Add("INFO", "x", "queue")
	}
	assert.Empty(t, savedEntries(t, st))

	j.Add("INFO", "x", "queue")
	assert.Len(t, savedEntries(t, st), saveEvery)

	j.Add("ERROR", "boom", "purchase")
	assert.Len(t, savedEntries(t, st), saveEvery+1, "errors are saved immediately")
}

func TestJournal_Clear(t *testing.T) {
	j, st := newJournal(t)
	j.Add("INFO", "a", "system")
	j.Clear()

	entries := j.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "Logs cleared", entries[0].Message)
	assert.Len(t, savedEntries(t, st), 1)
}

func TestJournal_CoreCapturesSourcedEntries(t *testing.T) {
	j, _ := newJournal(t)
	logger := zap.New(j.Core())

	logger.Info("ignored, no source")
	logger.Debug("below level", zap.String(SourceField, "queue"))
	logger.Warn("option skipped", zap.String(SourceField, "purchase"), zap.String("option", "windows-server-2022"))
	logger.With(zap.String(SourceField, "monitor")).Info("cycle done", zap.Int("subscriptions", 2))

	entries := j.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "WARNING", entries[0].Level)
	assert.Equal(t, "purchase", entries[0].Source)
	assert.Equal(t, "option skipped (option=windows-server-2022)", entries[0].Message)
	assert.Equal(t, "monitor", entries[1].Source)
	assert.Equal(t, "cycle done (subscriptions=2)", entries[1].Message)
}

func TestJournal_LoadTrims(t *testing.T) {
	j, st := newJournal(t)
	entries := make([]model.LogEntry, maxEntries+3)
	for i := range entries {
		entries[i] = model.LogEntry{ID: string(rune('a' + i%26)), Level: "INFO"}
	}
	require.NoError(t, st.Save(store.FileLogs, entries))

	j.Load()
	assert.Len(t, j.Entries(), maxEntries)
}
