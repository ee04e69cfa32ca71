package purchase

import (
	"sync"

	"github.com/go-arcade/sniper/internal/sniper/model"
	"github.com/go-arcade/sniper/internal/sniper/store"
	"github.com/go-arcade/sniper/pkg/id"
	"github.com/go-arcade/sniper/pkg/log"
)

// History keeps at most one entry per queue task; later attempts overwrite it.
type History struct {
	store *store.Store

	mu      sync.RWMutex
	entries []model.HistoryEntry
}

func NewHistory(st *store.Store) *History {
	return &History{store: st, entries: []model.HistoryEntry{}}
}

func (h *History) Load() {
	if h.store == nil {
		return
	}
	loaded := store.LoadOrDefault(h.store, store.FileHistory, []model.HistoryEntry{})
	h.mu.Lock()
	h.entries = loaded
	h.mu.Unlock()
}

// Upsert 按 taskId 覆盖已有记录，沿用原 id
func (h *History) Upsert(entry model.HistoryEntry) model.HistoryEntry {
	entry = entry.Clone()
	if entry.Options == nil {
		entry.Options = []string{}
	}

	h.mu.Lock()
	replaced := false
	for i := range h.entries {
		if h.entries[i].TaskID == entry.TaskID {
			entry.ID = h.entries[i].ID
			h.entries[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		if entry.ID == "" {
			entry.ID = id.GetUUID()
		}
		h.entries = append(h.entries, entry)
	}
	h.mu.Unlock()

	h.persist()
	return entry
}

func (h *History) List() []model.HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]model.HistoryEntry, 0, len(h.entries))
	for _, e := range h.entries {
		out = append(out, e.Clone())
	}
	return out
}

func (h *History) Clear() int {
	h.mu.Lock()
	n := len(h.entries)
	h.entries = []model.HistoryEntry{}
	h.mu.Unlock()

	h.persist()
	log.Infow("purchase history cleared", "source", "system", "count", n)
	return n
}

func (h *History) persist() {
	if h.store == nil {
		return
	}
	if err := h.store.Save(store.FileHistory, h.List()); err != nil {
		log.Errorw("save purchase history failed", "source", logSource, "error", err)
	}
}
