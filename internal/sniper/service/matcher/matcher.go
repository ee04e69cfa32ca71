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

package matcher

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-arcade/sniper/internal/pkg/ovh"
	"github.com/go-arcade/sniper/internal/sniper/model"
	"github.com/go-arcade/sniper/internal/sniper/service/queue"
	"github.com/go-arcade/sniper/internal/sniper/store"
	"github.com/go-arcade/sniper/pkg/id"
	"github.com/go-arcade/sniper/pkg/log"
	"github.com/go-arcade/sniper/pkg/loop"
	"github.com/go-arcade/sniper/pkg/metrics"
	"github.com/go-arcade/sniper/pkg/safe"
)

const (
	logSource           = "config_sniper"
	catalogBackoffLimit = 10 * time.Minute
)

var (
	ErrTaskNotFound  = errors.New("config sniper task not found")
	ErrInvalidTask   = errors.New("legacyPlanCode, boundConfig.memory and boundConfig.storage are required")
	ErrInvalidMode   = errors.New("mode must be matched or pending_match")
	ErrPlanNotFound  = errors.New("plan has no availability data")
	ErrInvalidTarget = errors.New("planCode and datacenter are required")
)

type Conf struct {
	// PollInterval 单位秒
	PollInterval int
}

func (c *Conf) SetDefaults() {
	if c.PollInterval <= 0 {
		c.PollInterval = 60
	}
}

// Catalog is the part of the catalog service the matcher reads.
type Catalog interface {
	Catalog(ctx context.Context) (ovh.Catalog, error)
	Availability(ctx context.Context, planCode string, addonFamilies ...string) (map[string]string, error)
	Offers(ctx context.Context, planCode string) ([]ovh.Availability, error)
}

// Enqueuer inserts purchase tasks.
type Enqueuer interface {
	Add(req queue.Request) (model.QueueTask, error)
	EnqueueSniperTask(req queue.Request) (model.QueueTask, bool)
}

type Notifier interface {
	Send(ctx context.Context, text string) bool
}

type CreateRequest struct {
	LegacyPlanCode string            `json:"legacyPlanCode"`
	BoundConfig    model.BoundConfig `json:"boundConfig"`
	Mode           model.MatchStatus `json:"mode"`
}

// Result 描述一次对账的结果
type Result struct {
	NewCodes []string          `json:"newCodes"`
	Queued   []model.QueueTask `json:"queued"`
}

// Matcher owns the config sniper tasks and reconciles them against the
// current catalog.
type Matcher struct {
	conf     Conf
	catalog  Catalog
	queue    Enqueuer
	notifier Notifier
	store    *store.Store
	now      func() time.Time

	mu    sync.Mutex
	tasks []*model.SniperTask

	persistMu sync.Mutex

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

type Option func(*Matcher)

func WithClock(now func() time.Time) Option {
	return func(m *Matcher) { m.now = now }
}

func New(conf Conf, cat Catalog, q Enqueuer, notifier Notifier, st *store.Store, opts ...Option) *Matcher {
	conf.SetDefaults()
	m := &Matcher{
		conf:     conf,
		catalog:  cat,
		queue:    q,
		notifier: notifier,
		store:    st,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Matcher) Load() {
	if m.store == nil {
		return
	}
	loaded := store.LoadOrDefault(m.store, store.FileSniperTasks, []model.SniperTask{})

	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = m.tasks[:0]
	seen := make(map[string]struct{}, len(loaded))
	for i := range loaded {
		t := loaded[i].Clone()
		if t.ID == "" {
			continue
		}
		if _, dup := seen[t.ID]; dup {
			continue
		}
		seen[t.ID] = struct{}{}
		if t.MatchStatus != model.MatchMatched {
			t.MatchStatus = model.MatchPending
		}
		m.tasks = append(m.tasks, &t)
	}
	log.Infow("config sniper tasks loaded", "source", logSource, "tasks", len(m.tasks))
}

func (m *Matcher) persist() {
	if m.store == nil {
		return
	}
	m.persistMu.Lock()
	defer m.persistMu.Unlock()

	tasks := m.List()
	if err := m.store.Save(store.FileSniperTasks, tasks); err != nil {
		log.Errorw("save config sniper tasks failed", "source", logSource, "error", err)
	}
}

func (m *Matcher) List() []model.SniperTask {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.SniperTask, 0, len(m.tasks))
	for _, t := range m.tasks {
		out = append(out, t.Clone())
	}
	return out
}

func (m *Matcher) Get(taskID string) (model.SniperTask, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t := m.findLocked(taskID); t != nil {
		return t.Clone(), true
	}
	return model.SniperTask{}, false
}

func (m *Matcher) findLocked(taskID string) *model.SniperTask {
	for _, t := range m.tasks {
		if t.ID == taskID {
			return t
		}
	}
	return nil
}

// Create binds a legacy plan's hardware configuration. In pending_match mode
// the codes matching today are remembered and never acted on; in matched mode
// they are reconciled immediately.
func (m *Matcher) Create(ctx context.Context, req CreateRequest) (model.SniperTask, string, error) {
	req.LegacyPlanCode = strings.TrimSpace(req.LegacyPlanCode)
	if req.LegacyPlanCode == "" || req.BoundConfig.Memory == "" || req.BoundConfig.Storage == "" {
		return model.SniperTask{}, "", ErrInvalidTask
	}
	if req.Mode == "" {
		req.Mode = model.MatchMatched
	}
	if req.Mode != model.MatchMatched && req.Mode != model.MatchPending {
		return model.SniperTask{}, "", ErrInvalidMode
	}

	cat, err := m.catalog.Catalog(ctx)
	if err != nil {
		return model.SniperTask{}, "", err
	}
	fp := NewFingerprint(req.BoundConfig.Memory, req.BoundConfig.Storage)
	current := FindMatchingCatalogPlans(cat, fp)

	task := &model.SniperTask{
		ID:                  id.GetUUID(),
		LegacyPlanCode:      req.LegacyPlanCode,
		BoundConfig:         req.BoundConfig,
		MatchStatus:         model.MatchPending,
		MatchedCatalogCodes: []string{},
		Enabled:             true,
		CreatedAt:           m.now(),
	}
	if req.Mode == model.MatchPending {
		task.KnownCatalogCodes = current
	}

	m.mu.Lock()
	m.tasks = append(m.tasks, task)
	m.mu.Unlock()
	m.persist()

	var message string
	switch {
	case req.Mode == model.MatchPending:
		message = fmt.Sprintf("⏳ 已创建待匹配任务（已排除 %d 个已知型号，等待新增型号）", len(current))
	case len(current) > 0:
		message = fmt.Sprintf("✅ 已创建监控任务（监控 %d 个型号）", len(current))
		if _, err := m.reconcile(ctx, task.ID, cat); err != nil {
			log.Warnw("initial reconcile failed", "source", logSource, "task", task.ID, "error", err)
		}
	default:
		message = "⏳ 未找到匹配，已创建待匹配任务"
	}
	log.Infow(fmt.Sprintf("创建配置绑定任务: %s - %s", task.LegacyPlanCode, message), "source", logSource)

	out, _ := m.Get(task.ID)
	return out, message, nil
}

func (m *Matcher) Delete(taskID string) error {
	m.mu.Lock()
	idx := slices.IndexFunc(m.tasks, func(t *model.SniperTask) bool { return t.ID == taskID })
	if idx < 0 {
		m.mu.Unlock()
		return ErrTaskNotFound
	}
	legacy := m.tasks[idx].LegacyPlanCode
	m.tasks = slices.Delete(m.tasks, idx, idx+1)
	m.mu.Unlock()

	m.persist()
	log.Infow(fmt.Sprintf("删除配置绑定任务: %s", legacy), "source", logSource)
	return nil
}

// Toggle flips enabled and returns the new value.
func (m *Matcher) Toggle(taskID string) (bool, error) {
	m.mu.Lock()
	t := m.findLocked(taskID)
	if t == nil {
		m.mu.Unlock()
		return false, ErrTaskNotFound
	}
	t.Enabled = !t.Enabled
	enabled, legacy := t.Enabled, t.LegacyPlanCode
	m.mu.Unlock()

	m.persist()
	verb := "禁用"
	if enabled {
		verb = "启用"
	}
	log.Infow(fmt.Sprintf("%s配置绑定任务: %s", verb, legacy), "source", logSource)
	return enabled, nil
}

// Check reconciles one task now, regardless of enabled.
func (m *Matcher) Check(ctx context.Context, taskID string) (model.SniperTask, Result, error) {
	if _, ok := m.Get(taskID); !ok {
		return model.SniperTask{}, Result{}, ErrTaskNotFound
	}
	cat, err := m.catalog.Catalog(ctx)
	if err != nil {
		return model.SniperTask{}, Result{}, err
	}
	res, err := m.reconcile(ctx, taskID, cat)
	if err != nil {
		return model.SniperTask{}, res, err
	}
	m.touch(taskID)
	m.persist()
	task, _ := m.Get(taskID)
	return task, res, nil
}

// RunCycle reconciles every enabled task of a snapshot against one catalog
// fetch. Only a failed catalog fetch is returned; per-task failures are logged.
func (m *Matcher) RunCycle(ctx context.Context) error {
	defer metrics.MeasureSince([]string{"sniper", "cycle"}, time.Now())

	snapshot := m.List()
	if len(snapshot) == 0 {
		return nil
	}
	cat, err := m.catalog.Catalog(ctx)
	if err != nil {
		if errors.Is(err, ovh.ErrNotConfigured) {
			log.Debugw("config sniper skipped: ovh not configured")
			return nil
		}
		log.Warnw("config sniper catalog fetch failed", "source", logSource, "error", err)
		return err
	}

	for _, t := range snapshot {
		if ctx.Err() != nil {
			return nil
		}
		current, ok := m.Get(t.ID)
		if !ok || !current.Enabled {
			continue
		}
		err := safe.Call(func() error {
			_, err := m.reconcile(ctx, t.ID, cat)
			return err
		})
		if err != nil && !errors.Is(err, ErrTaskNotFound) {
			log.Errorw("config sniper reconcile failed", "source", logSource, "task", t.ID, "error", err)
		}
		m.touch(t.ID)
	}
	m.persist()
	return nil
}

func (m *Matcher) touch(taskID string) {
	now := m.now()
	m.mu.Lock()
	if t := m.findLocked(taskID); t != nil {
		t.LastCheck = &now
	}
	m.mu.Unlock()
}

// reconcile recomputes the match set and acts on codes the task has not seen.
func (m *Matcher) reconcile(ctx context.Context, taskID string, cat ovh.Catalog) (Result, error) {
	task, ok := m.Get(taskID)
	if !ok {
		return Result{}, ErrTaskNotFound
	}
	fp := NewFingerprint(task.BoundConfig.Memory, task.BoundConfig.Storage)
	current := FindMatchingCatalogPlans(cat, fp)

	var fresh []string
	for _, code := range current {
		if !task.Seen(code) {
			fresh = append(fresh, code)
		}
	}
	if len(fresh) == 0 {
		log.Debugw("no new catalog codes", "legacyPlanCode", task.LegacyPlanCode, "matched", len(current))
		return Result{NewCodes: []string{}, Queued: []model.QueueTask{}}, nil
	}

	m.mu.Lock()
	live := m.findLocked(taskID)
	if live == nil {
		m.mu.Unlock()
		return Result{}, ErrTaskNotFound
	}
	// 并发对账时只有先到者认领新增代号
	claimed := fresh[:0:0]
	for _, code := range fresh {
		if !live.Seen(code) {
			claimed = append(claimed, code)
		}
	}
	if len(claimed) == 0 {
		m.mu.Unlock()
		return Result{NewCodes: []string{}, Queued: []model.QueueTask{}}, nil
	}
	fresh = claimed
	live.MatchedCatalogCodes = append(live.MatchedCatalogCodes, fresh...)
	if live.MatchStatus == model.MatchPending {
		live.MatchStatus = model.MatchMatched
	}
	total := len(live.MatchedCatalogCodes)
	m.mu.Unlock()
	m.persist()

	metrics.RecordSniperMatches(len(fresh))
	display := FormatMemoryDisplay(task.BoundConfig.Memory) + " + " + FormatStorageDisplay(task.BoundConfig.Storage)
	log.Infow(fmt.Sprintf("✅ 发现新增 planCode！%s 新增 %d 个：%s", task.LegacyPlanCode, len(fresh), strings.Join(fresh, ", ")),
		"source", logSource)
	m.notify(ctx, fmt.Sprintf("✅ 发现新增配置！\n型号: %s\n配置: %s\n新增 planCode: %s\n总计: %d 个",
		task.LegacyPlanCode, display, strings.Join(fresh, ", "), total))

	res := Result{NewCodes: fresh, Queued: []model.QueueTask{}}
	for _, code := range fresh {
		queued, err := m.enqueueAvailable(ctx, task, code, fp, cat, display)
		if err != nil {
			log.Warnw(fmt.Sprintf("检查新增 %s 可用性失败", code), "source", logSource, "error", err)
			continue
		}
		res.Queued = append(res.Queued, queued...)
	}
	return res, nil
}

func (m *Matcher) enqueueAvailable(ctx context.Context, task model.SniperTask, code string, fp Fingerprint,
	cat ovh.Catalog, display string) ([]model.QueueTask, error) {
	avail, err := m.catalog.Availability(ctx, code)
	if err != nil {
		return nil, err
	}
	dcs := make([]string, 0, len(avail))
	for dc := range avail {
		dcs = append(dcs, dc)
	}
	sort.Strings(dcs)

	options := HardwareOptions(cat, code, fp)
	var queued []model.QueueTask
	for _, dc := range dcs {
		status := avail[dc]
		if status == ovh.StatusUnavailable {
			continue
		}
		// 任务在处理中被删除则不再入队
		if _, ok := m.Get(task.ID); !ok {
			return queued, nil
		}
		qt, created := m.queue.EnqueueSniperTask(queue.Request{
			PlanCode:           code,
			Datacenter:         dc,
			Options:            options,
			ConfigSniperTaskID: task.ID,
		})
		if !created {
			continue
		}
		queued = append(queued, qt)
		log.Infow(fmt.Sprintf("🚀 已添加 %s (%s) 到购买队列", code, dc), "source", logSource)
		m.notify(ctx, fmt.Sprintf("🎯 配置狙击触发！\n源型号: %s\n绑定配置: %s\n下单代号: %s\n机房: %s (%s)\n已加入购买队列...",
			task.LegacyPlanCode, display, code, dc, status))
	}
	return queued, nil
}

func (m *Matcher) notify(ctx context.Context, text string) {
	if m.notifier == nil {
		return
	}
	if !m.notifier.Send(ctx, text) {
		log.Warnw("config sniper notification not delivered", "source", logSource)
	}
}

// QuickOrder queues planCode@datacenter directly without an availability check.
func (m *Matcher) QuickOrder(planCode, datacenter string) (model.QueueTask, error) {
	planCode, datacenter = strings.TrimSpace(planCode), strings.TrimSpace(datacenter)
	if planCode == "" || datacenter == "" {
		return model.QueueTask{}, ErrInvalidTarget
	}
	t, err := m.queue.Add(queue.Request{PlanCode: planCode, Datacenter: datacenter, QuickOrder: true})
	if err != nil {
		return model.QueueTask{}, err
	}
	log.Infow(fmt.Sprintf("快速下单: %s (%s) 已加入队列", planCode, datacenter), "source", logSource)
	return t, nil
}

// Start runs RunCycle every PollInterval until Stop.
func (m *Matcher) Start(ctx context.Context) {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	if m.cancel != nil {
		log.Warnw("配置绑定狙击监控已在运行，跳过重复启动", "source", logSource)
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})
	done := m.done

	interval := time.Duration(m.conf.PollInterval) * time.Second
	go func() {
		defer close(done)
		// 目录拉取失败时逐轮翻倍间隔，成功后恢复
		l := loop.New(loop.WithContext(ctx), loop.WithInterval(interval),
			loop.WithDeclineRatio(2), loop.WithDeclineLimit(max(interval, catalogBackoffLimit)))
		_ = l.Do(func() (bool, error) {
			return false, safe.Call(func() error { return m.RunCycle(ctx) })
		})
	}()
	log.Infow(fmt.Sprintf("配置绑定狙击监控已启动（%d秒轮询）", m.conf.PollInterval), "source", logSource)
}

func (m *Matcher) Stop() {
	m.runMu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.runMu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	log.Infow("config sniper stopped", "source", logSource)
}

func (m *Matcher) Running() bool {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	return m.cancel != nil
}
