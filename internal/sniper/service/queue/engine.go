// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package queue

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-arcade/sniper/internal/sniper/model"
	"github.com/go-arcade/sniper/internal/sniper/store"
	"github.com/go-arcade/sniper/pkg/id"
	"github.com/go-arcade/sniper/pkg/log"
	"github.com/go-arcade/sniper/pkg/loop"
	"github.com/go-arcade/sniper/pkg/metrics"
	"github.com/go-arcade/sniper/pkg/safe"
	"github.com/go-arcade/sniper/pkg/statemachine"
)

const logSource = "queue"

var (
	ErrTaskNotFound  = errors.New("queue task not found")
	ErrInvalidTask   = errors.New("planCode and datacenter are required")
	ErrInvalidStatus = errors.New("invalid queue task status")
)

type Conf struct {
	// TickInterval 单位秒
	TickInterval         int
	DefaultRetryInterval int
}

func (c *Conf) SetDefaults() {
	if c.TickInterval <= 0 {
		c.TickInterval = 1
	}
	if c.DefaultRetryInterval <= 0 {
		c.DefaultRetryInterval = 30
	}
}

// Purchaser runs one purchase attempt and reports whether an order was placed.
type Purchaser interface {
	Purchase(ctx context.Context, task model.QueueTask) bool
}

// Request describes a task to enqueue.
type Request struct {
	PlanCode           string   `json:"planCode"`
	Datacenter         string   `json:"datacenter"`
	Options            []string `json:"options"`
	RetryInterval      int      `json:"retryInterval"`
	ConfigSniperTaskID string   `json:"configSniperTaskId,omitempty"`
	QuickOrder         bool     `json:"quickOrder,omitempty"`
}

// Engine owns the purchase queue. A background tick evaluates due running
// tasks; deletions are recorded as tombstones so an in-flight tick never acts
// on a task that was removed after its snapshot was taken.
type Engine struct {
	conf      Conf
	purchaser Purchaser
	store     *store.Store
	now       func() time.Time
	rules     *statemachine.Rules[model.TaskStatus]

	mu         sync.Mutex
	tasks      []*model.QueueTask
	index      map[string]*model.QueueTask
	tombstones map[string]struct{}

	tickMu    sync.Mutex
	persistMu sync.Mutex

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(conf Conf, purchaser Purchaser, st *store.Store, opts ...Option) *Engine {
	conf.SetDefaults()
	e := &Engine{
		conf:       conf,
		purchaser:  purchaser,
		store:      st,
		now:        time.Now,
		rules:      NewStatusRules(),
		index:      make(map[string]*model.QueueTask),
		tombstones: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewStatusRules 手动状态流转表，completed 为终态
func NewStatusRules() *statemachine.Rules[model.TaskStatus] {
	return statemachine.NewRules[model.TaskStatus]().
		Allow(model.TaskPending, model.TaskRunning, model.TaskPaused).
		Allow(model.TaskRunning, model.TaskPaused, model.TaskCompleted, model.TaskFailed).
		Allow(model.TaskPaused, model.TaskRunning, model.TaskPending).
		Allow(model.TaskFailed, model.TaskRunning)
}

// Load replaces the in-memory queue with queue.json.
func (e *Engine) Load() {
	if e.store == nil {
		return
	}
	loaded := store.LoadOrDefault(e.store, store.FileQueue, []model.QueueTask{})

	e.mu.Lock()
	defer e.mu.Unlock()
	e.tasks = e.tasks[:0]
	e.index = make(map[string]*model.QueueTask, len(loaded))
	for i := range loaded {
		t := loaded[i].Clone()
		if t.ID == "" || e.index[t.ID] != nil {
			continue
		}
		if !t.Status.Valid() {
			t.Status = model.TaskPending
		}
		if t.RetryInterval <= 0 {
			t.RetryInterval = e.conf.DefaultRetryInterval
		}
		e.tasks = append(e.tasks, &t)
		e.index[t.ID] = &t
	}
	log.Infow("queue loaded", "source", logSource, "tasks", len(e.tasks))
}

// Add creates a running task with lastCheckTime=0 so the next tick attempts it.
func (e *Engine) Add(req Request) (model.QueueTask, error) {
	req.PlanCode = strings.TrimSpace(req.PlanCode)
	req.Datacenter = strings.TrimSpace(req.Datacenter)
	if req.PlanCode == "" || req.Datacenter == "" {
		return model.QueueTask{}, ErrInvalidTask
	}

	e.mu.Lock()
	t := e.insertLocked(req)
	e.mu.Unlock()

	e.persist()
	log.Infow("queue task added", "source", logSource,
		"id", t.ID, "planCode", t.PlanCode, "datacenter", t.Datacenter, "status", t.Status)
	return t, nil
}

func (e *Engine) insertLocked(req Request) model.QueueTask {
	now := e.now()
	if req.RetryInterval <= 0 {
		req.RetryInterval = e.conf.DefaultRetryInterval
	}
	t := &model.QueueTask{
		ID:                 id.GetUUID(),
		PlanCode:           req.PlanCode,
		Datacenter:         req.Datacenter,
		Options:            append([]string{}, req.Options...),
		Status:             model.TaskRunning,
		CreatedAt:          now,
		UpdatedAt:          now,
		RetryInterval:      req.RetryInterval,
		ConfigSniperTaskID: req.ConfigSniperTaskID,
		QuickOrder:         req.QuickOrder,
	}
	e.tasks = append(e.tasks, t)
	e.index[t.ID] = t
	return t.Clone()
}

// EnqueueSniperTask inserts a task unless one already exists for the same
// plan, datacenter and sniper task. It reports whether a task was created.
func (e *Engine) EnqueueSniperTask(req Request) (model.QueueTask, bool) {
	e.mu.Lock()
	for _, t := range e.tasks {
		if t.PlanCode == req.PlanCode && t.Datacenter == req.Datacenter && t.ConfigSniperTaskID == req.ConfigSniperTaskID {
			existing := t.Clone()
			e.mu.Unlock()
			log.Debugw("sniper task already queued", "planCode", req.PlanCode, "datacenter", req.Datacenter)
			return existing, false
		}
	}
	t := e.insertLocked(req)
	e.mu.Unlock()

	e.persist()
	log.Infow("queue task added by config sniper", "source", logSource,
		"id", t.ID, "planCode", t.PlanCode, "datacenter", t.Datacenter, "sniperTask", t.ConfigSniperTaskID)
	return t, true
}

func (e *Engine) List() []model.QueueTask {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]model.QueueTask, 0, len(e.tasks))
	for _, t := range e.tasks {
		out = append(out, t.Clone())
	}
	return out
}

func (e *Engine) Get(taskID string) (model.QueueTask, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.index[taskID]
	if !ok {
		return model.QueueTask{}, false
	}
	return t.Clone(), true
}

// Delete tombstones the id and removes the task in one step.
func (e *Engine) Delete(taskID string) error {
	e.mu.Lock()
	t, ok := e.index[taskID]
	if !ok {
		e.mu.Unlock()
		return ErrTaskNotFound
	}
	e.tombstones[taskID] = struct{}{}
	delete(e.index, taskID)
	for i, cur := range e.tasks {
		if cur.ID == taskID {
			e.tasks = append(e.tasks[:i], e.tasks[i+1:]...)
			break
		}
	}
	e.mu.Unlock()

	e.persist()
	log.Infow("queue task removed", "source", logSource, "id", taskID, "planCode", t.PlanCode)
	return nil
}

// Clear tombstones every id before truncating the queue.
func (e *Engine) Clear() int {
	e.mu.Lock()
	n := len(e.tasks)
	for _, t := range e.tasks {
		e.tombstones[t.ID] = struct{}{}
	}
	e.tasks = nil
	e.index = make(map[string]*model.QueueTask)
	e.mu.Unlock()

	e.persist()
	log.Infow("queue cleared", "source", logSource, "count", n)
	return n
}

// SetStatus applies a manual status change if the transition table allows it.
func (e *Engine) SetStatus(taskID string, status model.TaskStatus) (model.QueueTask, error) {
	if !status.Valid() {
		return model.QueueTask{}, ErrInvalidStatus
	}

	e.mu.Lock()
	t, ok := e.index[taskID]
	if !ok {
		e.mu.Unlock()
		return model.QueueTask{}, ErrTaskNotFound
	}
	if err := e.rules.Transition(t.Status, status); err != nil {
		e.mu.Unlock()
		return model.QueueTask{}, err
	}
	t.Status = status
	t.UpdatedAt = e.now()
	out := t.Clone()
	e.mu.Unlock()

	e.persist()
	log.Infow("queue task status updated", "source", logSource, "id", taskID, "planCode", out.PlanCode, "status", status)
	return out, nil
}

// Tick evaluates every due running task of a point-in-time snapshot once.
func (e *Engine) Tick(ctx context.Context) {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()
	defer metrics.MeasureSince([]string{"queue", "tick"}, time.Now())

	changed := false
	for _, taskID := range e.snapshotIDs() {
		if ctx.Err() != nil {
			break
		}
		if e.tombstoned(taskID) {
			continue
		}
		task, ok := e.claimDue(taskID)
		if !ok {
			continue
		}
		changed = true

		if !e.stillWanted(taskID) {
			log.Infow("queue task removed before purchase", "source", logSource, "id", taskID)
			continue
		}

		if task.RetryCount == 1 {
			log.Infow("first purchase attempt", "source", logSource,
				"id", task.ID, "planCode", task.PlanCode, "datacenter", task.Datacenter)
		} else {
			log.Infow("retrying purchase", "source", logSource,
				"id", task.ID, "planCode", task.PlanCode, "datacenter", task.Datacenter, "attempt", task.RetryCount)
		}

		e.finish(taskID, e.attempt(ctx, task))
	}

	if changed {
		e.persist()
	}
	e.pruneTombstones()
	e.reportGauge()
}

func (e *Engine) snapshotIDs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := make([]string, 0, len(e.tasks))
	for _, t := range e.tasks {
		ids = append(ids, t.ID)
	}
	return ids
}

func (e *Engine) tombstoned(taskID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, dead := e.tombstones[taskID]
	return dead
}

func (e *Engine) stillWanted(taskID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, dead := e.tombstones[taskID]; dead {
		return false
	}
	_, live := e.index[taskID]
	return live
}

// claimDue 在锁内完成到期判断与计数，保证每次评估只计一次
func (e *Engine) claimDue(taskID string) (model.QueueTask, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, dead := e.tombstones[taskID]; dead {
		return model.QueueTask{}, false
	}
	t, ok := e.index[taskID]
	if !ok {
		return model.QueueTask{}, false
	}
	now := e.now()
	if !t.Due(now.Unix()) {
		return model.QueueTask{}, false
	}
	t.LastCheckTime = now.Unix()
	t.RetryCount++
	t.UpdatedAt = now
	return t.Clone(), true
}

func (e *Engine) attempt(ctx context.Context, task model.QueueTask) bool {
	p := e.purchaser
	if p == nil {
		return false
	}

	success := false
	if err := safe.Call(func() error {
		success = p.Purchase(ctx, task)
		return nil
	}); err != nil {
		log.Errorw("purchase attempt panicked", "source", logSource, "id", task.ID, "error", err)
		return false
	}
	return success
}

// finish 任务在评估期间被删除时不回写；失败只保留计数，成功总是置为完成
func (e *Engine) finish(taskID string, success bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, dead := e.tombstones[taskID]; dead {
		return
	}
	t, ok := e.index[taskID]
	if !ok {
		return
	}
	if !success {
		log.Infow("purchase failed or out of stock, will retry", "source", logSource,
			"id", t.ID, "planCode", t.PlanCode, "datacenter", t.Datacenter,
			"attempt", t.RetryCount, "retryInterval", t.RetryInterval)
		return
	}
	// 订单已下，评估期间被暂停的任务同样置为完成，避免恢复后重复购买
	if t.Status != model.TaskRunning {
		log.Warnw("purchase succeeded after manual status change, marking completed", "source", logSource,
			"id", t.ID, "status", t.Status)
	}
	t.Status = model.TaskCompleted
	t.UpdatedAt = e.now()
	log.Infow("purchase succeeded", "source", logSource,
		"id", t.ID, "planCode", t.PlanCode, "datacenter", t.Datacenter, "attempt", t.RetryCount)
}

// pruneTombstones 删除与快照都在同一把锁内，此时墓碑对应的任务已不在队列中，
// 下一轮快照不会再包含它们
func (e *Engine) pruneTombstones() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.tombstones) > 0 {
		e.tombstones = make(map[string]struct{})
	}
}

func (e *Engine) persist() {
	if e.store == nil {
		return
	}
	e.persistMu.Lock()
	defer e.persistMu.Unlock()

	tasks := e.List()
	if err := e.store.Save(store.FileQueue, tasks); err != nil {
		log.Errorw("save queue failed", "source", logSource, "error", err)
	}
}

func (e *Engine) reportGauge() {
	counts := make(map[string]int)
	for _, t := range e.List() {
		counts[string(t.Status)]++
	}
	statuses := make([]string, 0, len(model.TaskStatuses))
	for _, s := range model.TaskStatuses {
		statuses = append(statuses, string(s))
	}
	metrics.SetQueueTasks(statuses, counts)
}

// Start runs the tick loop until ctx is cancelled or Stop is called.
func (e *Engine) Start(ctx context.Context) {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	if e.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.done = make(chan struct{})
	done := e.done

	interval := time.Duration(e.conf.TickInterval) * time.Second
	go func() {
		defer close(done)
		l := loop.New(loop.WithContext(ctx), loop.WithInterval(interval))
		_ = l.Do(func() (bool, error) {
			safe.Do(func() { e.Tick(ctx) })
			return false, nil
		})
	}()
	log.Infow("queue processor started", "source", logSource, "interval", interval.String())
}

func (e *Engine) Stop() {
	e.runMu.Lock()
	cancel, done := e.cancel, e.done
	e.cancel, e.done = nil, nil
	e.runMu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	log.Infow("queue processor stopped", "source", logSource)
}

func (e *Engine) Running() bool {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	return e.cancel != nil
}
