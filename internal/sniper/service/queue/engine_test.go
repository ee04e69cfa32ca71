package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-arcade/sniper/internal/sniper/model"
	"github.com/go-arcade/sniper/internal/sniper/store"
	"github.com/go-arcade/sniper/pkg/log"
	"github.com/go-arcade/sniper/pkg/statemachine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type purchaseFunc func(ctx context.Context, task model.QueueTask) bool

func (f purchaseFunc) Purchase(ctx context.Context, task model.QueueTask) bool { return f(ctx, task) }

type recorder struct {
	mu      sync.Mutex
	calls   []model.QueueTask
	succeed bool
	hook    func(task model.QueueTask)
}

func (r *recorder) Purchase(_ context.Context, task model.QueueTask) bool {
	r.mu.Lock()
	r.calls = append(r.calls, task)
	hook, ok := r.hook, r.succeed
	r.mu.Unlock()
	if hook != nil {
		hook(task)
	}
	return ok
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newEngine(t *testing.T, p Purchaser) (*Engine, *clock, *store.Store) {
	t.Helper()
	st, err := store.New(t.TempDir())
	require.NoError(t, err)
	c := &clock{now: time.Unix(1700000000, 0)}
	return NewEngine(Conf{}, p, st, WithClock(c.Now)), c, st
}

func TestEngine_FirstAttemptAndRetryInterval(t *testing.T) {
	rec := &recorder{}
	e, c, _ := newEngine(t, rec)
	ctx := context.Background()

	task, err := e.Add(Request{PlanCode: "24rise01", Datacenter: "gra", RetryInterval: 30})
	require.NoError(t, err)
	assert.Equal(t, model.TaskRunning, task.Status)
	assert.Zero(t, task.LastCheckTime)

	e.Tick(ctx)
	require.Equal(t, 1, rec.count())
	got, _ := e.Get(task.ID)
	assert.Equal(t, 1, got.RetryCount)
	assert.Equal(t, c.Now().Unix(), got.LastCheckTime)
	assert.Equal(t, model.TaskRunning, got.Status)

	// 同一时刻再次 tick 不会重复评估
	e.Tick(ctx)
	assert.Equal(t, 1, rec.count())

	c.Advance(29 * time.Second)
	e.Tick(ctx)
	assert.Equal(t, 1, rec.count())

	c.Advance(time.Second)
	e.Tick(ctx)
	assert.Equal(t, 2, rec.count())
	got, _ = e.Get(task.ID)
	assert.Equal(t, 2, got.RetryCount)
	assert.Equal(t, 2, rec.calls[1].RetryCount, "purchaser sees the incremented count")
}

func TestEngine_SuccessCompletes(t *testing.T) {
	rec := &recorder{succeed: true}
	e, c, _ := newEngine(t, rec)

	task, err := e.Add(Request{PlanCode: "24rise01", Datacenter: "gra"})
	require.NoError(t, err)
	e.Tick(context.Background())

	got, _ := e.Get(task.ID)
	assert.Equal(t, model.TaskCompleted, got.Status)

	c.Advance(time.Hour)
	e.Tick(context.Background())
	assert.Equal(t, 1, rec.count())
}

func TestEngine_PausedInFlightSuccessCompletes(t *testing.T) {
	var e *Engine
	e, c, st := newEngine(t, purchaseFunc(func(_ context.Context, task model.QueueTask) bool {
		_, err := e.SetStatus(task.ID, model.TaskPaused)
		require.NoError(t, err)
		return true
	}))

	task, err := e.Add(Request{PlanCode: "24rise01", Datacenter: "gra"})
	require.NoError(t, err)
	e.Tick(context.Background())

	got, _ := e.Get(task.ID)
	assert.Equal(t, model.TaskCompleted, got.Status)

	var persisted []model.QueueTask
	require.NoError(t, st.Load(store.FileQueue, &persisted))
	require.Len(t, persisted, 1)
	assert.Equal(t, model.TaskCompleted, persisted[0].Status)

	// 已完成的任务不能恢复运行
	c.Advance(time.Hour)
	_, err = e.SetStatus(task.ID, model.TaskRunning)
	assert.Error(t, err)
}

func TestEngine_DeleteDuringTick(t *testing.T) {
	rec := &recorder{}
	e, _, _ := newEngine(t, rec)

	first, err := e.Add(Request{PlanCode: "a", Datacenter: "gra"})
	require.NoError(t, err)
	second, err := e.Add(Request{PlanCode: "b", Datacenter: "gra"})
	require.NoError(t, err)

	rec.hook = func(task model.QueueTask) {
		if task.ID == first.ID {
			require.NoError(t, e.Delete(second.ID))
		}
	}
	e.Tick(context.Background())

	require.Equal(t, 1, rec.count())
	assert.Equal(t, first.ID, rec.calls[0].ID)
	_, ok := e.Get(second.ID)
	assert.False(t, ok)
	assert.ErrorIs(t, e.Delete(second.ID), ErrTaskNotFound)
}

func TestEngine_DeleteInFlightNeverCompletes(t *testing.T) {
	var e *Engine
	e, _, st := newEngine(t, purchaseFunc(func(_ context.Context, task model.QueueTask) bool {
		_ = e.Delete(task.ID)
		return true
	}))

	_, err := e.Add(Request{PlanCode: "a", Datacenter: "gra"})
	require.NoError(t, err)
	e.Tick(context.Background())

	assert.Empty(t, e.List())
	var persisted []model.QueueTask
	require.NoError(t, st.Load(store.FileQueue, &persisted))
	assert.Empty(t, persisted)
}

func TestEngine_ClearDuringTick(t *testing.T) {
	rec := &recorder{}
	e, _, _ := newEngine(t, rec)
	for _, dc := range []string{"gra", "sbg", "rbx"} {
		_, err := e.Add(Request{PlanCode: "a", Datacenter: dc})
		require.NoError(t, err)
	}
	rec.hook = func(model.QueueTask) { e.Clear() }

	e.Tick(context.Background())
	assert.Equal(t, 1, rec.count())
	assert.Empty(t, e.List())
}

func TestEngine_SetStatus(t *testing.T) {
	rec := &recorder{}
	e, c, _ := newEngine(t, rec)
	task, err := e.Add(Request{PlanCode: "a", Datacenter: "gra"})
	require.NoError(t, err)

	_, err = e.SetStatus(task.ID, "bogus")
	assert.ErrorIs(t, err, ErrInvalidStatus)
	_, err = e.SetStatus("missing", model.TaskPaused)
	assert.ErrorIs(t, err, ErrTaskNotFound)

	paused, err := e.SetStatus(task.ID, model.TaskPaused)
	require.NoError(t, err)
	assert.Equal(t, model.TaskPaused, paused.Status)

	e.Tick(context.Background())
	assert.Zero(t, rec.count(), "paused tasks are not evaluated")

	_, err = e.SetStatus(task.ID, model.TaskCompleted)
	assert.ErrorIs(t, err, statemachine.ErrInvalidTransition)

	_, err = e.SetStatus(task.ID, model.TaskRunning)
	require.NoError(t, err)
	_, err = e.SetStatus(task.ID, model.TaskCompleted)
	require.NoError(t, err)
	_, err = e.SetStatus(task.ID, model.TaskRunning)
	assert.ErrorIs(t, err, statemachine.ErrInvalidTransition)

	c.Advance(time.Minute)
	e.Tick(context.Background())
	assert.Zero(t, rec.count())
}

func TestEngine_EnqueueSniperTaskDedup(t *testing.T) {
	e, _, _ := newEngine(t, &recorder{})
	req := Request{PlanCode: "25rise01", Datacenter: "gra", ConfigSniperTaskID: "s1", RetryInterval: 30}

	first, created := e.EnqueueSniperTask(req)
	assert.True(t, created)
	again, created := e.EnqueueSniperTask(req)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)

	req.Datacenter = "sbg"
	_, created = e.EnqueueSniperTask(req)
	assert.True(t, created)
	assert.Len(t, e.List(), 2)
}

func TestEngine_PanicIsRecovered(t *testing.T) {
	e, _, _ := newEngine(t, purchaseFunc(func(context.Context, model.QueueTask) bool {
		panic("boom")
	}))
	task, err := e.Add(Request{PlanCode: "a", Datacenter: "gra"})
	require.NoError(t, err)

	assert.NotPanics(t, func() { e.Tick(context.Background()) })
	got, _ := e.Get(task.ID)
	assert.Equal(t, model.TaskRunning, got.Status)
	assert.Equal(t, 1, got.RetryCount)
}

func TestEngine_AddValidationAndLoad(t *testing.T) {
	e, _, st := newEngine(t, &recorder{})
	_, err := e.Add(Request{PlanCode: "a"})
	assert.ErrorIs(t, err, ErrInvalidTask)

	task, err := e.Add(Request{PlanCode: "a", Datacenter: "gra", Options: []string{"ram-64g"}})
	require.NoError(t, err)
	assert.Equal(t, 30, task.RetryInterval)

	reloaded := NewEngine(Conf{}, nil, st)
	reloaded.Load()
	got, ok := reloaded.Get(task.ID)
	require.True(t, ok)
	assert.Equal(t, []string{"ram-64g"}, got.Options)
	assert.Equal(t, model.TaskRunning, got.Status)
}

func TestEngine_StartStop(t *testing.T) {
	rec := &recorder{}
	e := NewEngine(Conf{}, rec, nil)
	_, err := e.Add(Request{PlanCode: "a", Datacenter: "gra"})
	require.NoError(t, err)

	e.Start(context.Background())
	assert.True(t, e.Running())
	assert.Eventually(t, func() bool { return rec.count() == 1 }, 3*time.Second, 10*time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		e.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("engine did not stop")
	}
	assert.False(t, e.Running())
}

func TestEngine_OperatorActionsLogQueueSource(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	_, err := log.NewLog(log.SetDefaults(), core)
	require.NoError(t, err)

	e, _, _ := newEngine(t, &recorder{})
	a, err := e.Add(Request{PlanCode: "24rise01", Datacenter: "gra"})
	require.NoError(t, err)
	b, err := e.Add(Request{PlanCode: "24rise02", Datacenter: "rbx"})
	require.NoError(t, err)

	_, err = e.SetStatus(a.ID, model.TaskPaused)
	require.NoError(t, err)
	require.NoError(t, e.Delete(b.ID))
	e.Clear()

	for _, msg := range []string{"queue task status updated", "queue task removed", "queue cleared"} {
		entries := logs.FilterMessage(msg).All()
		require.NotEmpty(t, entries, msg)
		assert.Equal(t, logSource, entries[0].ContextMap()["source"], msg)
	}
}
