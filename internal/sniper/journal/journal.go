package journal

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-arcade/sniper/internal/sniper/model"
	"github.com/go-arcade/sniper/internal/sniper/store"
	"github.com/go-arcade/sniper/pkg/id"
	"github.com/go-arcade/sniper/pkg/log"
	"github.com/google/wire"
	"go.uber.org/zap/zapcore"
)

const (
	maxEntries = 1000
	saveEvery  = 10

	// SourceField 携带该字段的日志才进入运维日志
	SourceField = "source"
)

var ProviderSet = wire.NewSet(ProvideJournal, ProvideTees)

func ProvideJournal(st *store.Store) *Journal {
	j := New(st)
	j.Load()
	return j
}

// ProvideTees 把运维日志挂到 zap 上
func ProvideTees(j *Journal) []zapcore.Core {
	return []zapcore.Core{j.Core()}
}

// Journal 供 /api/logs 展示的运维日志，保留最近 1000 条
type Journal struct {
	store *store.Store
	now   func() time.Time

	mu      sync.Mutex
	entries []model.LogEntry
	unsaved int
}

func New(st *store.Store) *Journal {
	return &Journal{store: st, now: time.Now}
}

func (j *Journal) Load() {
	if j.store == nil {
		return
	}
	entries := store.LoadOrDefault(j.store, store.FileLogs, []model.LogEntry{})
	if len(entries) > maxEntries {
		entries = entries[len(entries)-maxEntries:]
	}
	j.mu.Lock()
	j.entries = entries
	j.mu.Unlock()
}

// Add 每 10 条或遇到 ERROR 落盘一次
func (j *Journal) Add(level, message, source string) {
	if source == "" {
		source = "system"
	}
	entry := model.LogEntry{
		ID:        id.GetUlid(),
		Timestamp: j.now(),
		Level:     level,
		Message:   message,
		Source:    source,
	}

	j.mu.Lock()
	j.entries = append(j.entries, entry)
	if over := len(j.entries) - maxEntries; over > 0 {
		j.entries = slices.Delete(j.entries, 0, over)
	}
	j.unsaved++
	flush := j.unsaved >= saveEvery || level == "ERROR"
	j.mu.Unlock()

	if flush {
		_ = j.Flush()
	}
}

// Entries returns a copy, oldest first.
func (j *Journal) Entries() []model.LogEntry {
	j.mu.Lock()
	defer j.mu.Unlock()
	return slices.Clone(j.entries)
}

func (j *Journal) Flush() error {
	j.mu.Lock()
	snapshot := slices.Clone(j.entries)
	j.unsaved = 0
	j.mu.Unlock()

	if j.store == nil {
		return nil
	}
	if snapshot == nil {
		snapshot = []model.LogEntry{}
	}
	if err := j.store.Save(store.FileLogs, snapshot); err != nil {
		// 不带 source，避免回写到自身
		log.Warnw("failed to save journal", "error", err)
		return err
	}
	return nil
}

func (j *Journal) Clear() {
	j.mu.Lock()
	j.entries = nil
	j.unsaved = 0
	j.mu.Unlock()

	j.Add("INFO", "Logs cleared", "system")
	_ = j.Flush()
}

func (j *Journal) Core() zapcore.Core {
	return &core{journal: j, level: zapcore.InfoLevel}
}

type core struct {
	journal *Journal
	level   zapcore.Level
	fields  []zapcore.Field
}

func (c *core) Enabled(l zapcore.Level) bool { return l >= c.level }

func (c *core) With(fields []zapcore.Field) zapcore.Core {
	return &core{
		journal: c.journal,
		level:   c.level,
		fields:  append(slices.Clone(c.fields), fields...),
	}
}

func (c *core) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *core) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	all := append(slices.Clone(c.fields), fields...)

	var source string
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range all {
		if f.Key == SourceField && f.Type == zapcore.StringType {
			source = f.String
			continue
		}
		f.AddTo(enc)
	}
	if source == "" {
		return nil
	}

	c.journal.Add(levelName(ent.Level), render(ent.Message, enc.Fields), source)
	return nil
}

func (c *core) Sync() error { return nil }

func levelName(l zapcore.Level) string {
	if l == zapcore.WarnLevel {
		return "WARNING"
	}
	return l.CapitalString()
}

func render(msg string, fields map[string]any) string {
	if len(fields) == 0 {
		return msg
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, fields[k]))
	}
	return msg + " (" + strings.Join(parts, ", ") + ")"
}
