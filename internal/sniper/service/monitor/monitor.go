package monitor

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
	"github.com/go-arcade/sniper/internal/sniper/store"
	"github.com/go-arcade/sniper/pkg/log"
	"github.com/go-arcade/sniper/pkg/loop"
	"github.com/go-arcade/sniper/pkg/metrics"
	"github.com/go-arcade/sniper/pkg/safe"
)

const (
	logSource   = "monitor"
	MinInterval = 60
	timeLayout  = "2006-01-02 15:04:05"
)

var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrIntervalTooShort     = fmt.Errorf("check interval must be at least %d seconds", MinInterval)
	ErrEmptyPlanCode        = errors.New("planCode is required")
)

type Conf struct {
	// CheckInterval 单位秒，最小 60
	CheckInterval int
	AutoStart     bool
	// SubscriptionDelay 两个订阅检查之间的间隔（毫秒）
	SubscriptionDelay int
}

func (c *Conf) SetDefaults() {
	if c.CheckInterval < MinInterval {
		c.CheckInterval = MinInterval
	}
	if c.SubscriptionDelay <= 0 {
		c.SubscriptionDelay = 1000
	}
}

// AvailabilitySource returns datacenter -> status for a plan.
type AvailabilitySource interface {
	Availability(ctx context.Context, planCode string, addonFamilies ...string) (map[string]string, error)
}

type Notifier interface {
	Send(ctx context.Context, text string) bool
}

type SubscribeRequest struct {
	PlanCode          string   `json:"planCode"`
	ServerName        string   `json:"serverName,omitempty"`
	Datacenters       []string `json:"datacenters"`
	NotifyAvailable   *bool    `json:"notifyAvailable"`
	NotifyUnavailable *bool    `json:"notifyUnavailable"`
}

type Status struct {
	Running            bool                 `json:"running"`
	SubscriptionsCount int                  `json:"subscriptions_count"`
	KnownServersCount  int                  `json:"known_servers_count"`
	CheckInterval      int                  `json:"check_interval"`
	Subscriptions      []model.Subscription `json:"subscriptions"`
}

// document 是 subscriptions.json 的结构
type document struct {
	Subscriptions []model.Subscription `json:"subscriptions"`
	KnownServers  []string             `json:"known_servers"`
	CheckInterval int                  `json:"check_interval"`
}

// Monitor polls subscribed plans and notifies on availability edges.
type Monitor struct {
	conf     Conf
	source   AvailabilitySource
	notifier Notifier
	store    *store.Store
	now      func() time.Time

	mu       sync.Mutex
	subs     []*model.Subscription
	known    map[string]struct{}
	interval int

	persistMu sync.Mutex

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

type Option func(*Monitor)

func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

func New(conf Conf, source AvailabilitySource, notifier Notifier, st *store.Store, opts ...Option) *Monitor {
	conf.SetDefaults()
	m := &Monitor{
		conf:     conf,
		source:   source,
		notifier: notifier,
		store:    st,
		now:      time.Now,
		known:    make(map[string]struct{}),
		interval: conf.CheckInterval,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Monitor) Load() {
	if m.store == nil {
		return
	}
	doc := store.LoadOrDefault(m.store, store.FileSubscriptions, document{})

	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = m.subs[:0]
	for i := range doc.Subscriptions {
		s := doc.Subscriptions[i].Clone()
		if s.PlanCode == "" {
			continue
		}
		if s.LastStatus == nil {
			s.LastStatus = map[string]string{}
		}
		if s.History == nil {
			s.History = []model.StatusEvent{}
		}
		m.subs = append(m.subs, &s)
	}
	m.known = make(map[string]struct{}, len(doc.KnownServers))
	for _, code := range doc.KnownServers {
		m.known[code] = struct{}{}
	}
	if doc.CheckInterval >= MinInterval {
		m.interval = doc.CheckInterval
	}
	log.Infow("subscriptions loaded", "source", logSource, "subscriptions", len(m.subs), "knownServers", len(m.known))
}

func (m *Monitor) persist() {
	if m.store == nil {
		return
	}
	m.persistMu.Lock()
	defer m.persistMu.Unlock()

	m.mu.Lock()
	doc := document{
		Subscriptions: m.cloneSubsLocked(),
		KnownServers:  make([]string, 0, len(m.known)),
		CheckInterval: m.interval,
	}
	for code := range m.known {
		doc.KnownServers = append(doc.KnownServers, code)
	}
	m.mu.Unlock()
	sort.Strings(doc.KnownServers)

	if err := m.store.Save(store.FileSubscriptions, doc); err != nil {
		log.Errorw("save subscriptions failed", "source", logSource, "error", err)
	}
}

func (m *Monitor) cloneSubsLocked() []model.Subscription {
	out := make([]model.Subscription, 0, len(m.subs))
	for _, s := range m.subs {
		out = append(out, s.Clone())
	}
	return out
}

func (m *Monitor) findLocked(planCode string) *model.Subscription {
	for _, s := range m.subs {
		if s.PlanCode == planCode {
			return s
		}
	}
	return nil
}

// Subscribe adds a subscription or updates the datacenters and notify flags of
// an existing one. It reports whether a new subscription was created.
func (m *Monitor) Subscribe(req SubscribeRequest) (model.Subscription, bool, error) {
	req.PlanCode = strings.TrimSpace(req.PlanCode)
	if req.PlanCode == "" {
		return model.Subscription{}, false, ErrEmptyPlanCode
	}
	notifyAvailable, notifyUnavailable := true, false
	if req.NotifyAvailable != nil {
		notifyAvailable = *req.NotifyAvailable
	}
	if req.NotifyUnavailable != nil {
		notifyUnavailable = *req.NotifyUnavailable
	}
	datacenters := slices.Clone(req.Datacenters)
	if datacenters == nil {
		datacenters = []string{}
	}

	m.mu.Lock()
	sub := m.findLocked(req.PlanCode)
	created := sub == nil
	if created {
		sub = &model.Subscription{
			PlanCode:   req.PlanCode,
			ServerName: req.ServerName,
			LastStatus: map[string]string{},
			History:    []model.StatusEvent{},
			CreatedAt:  m.now(),
		}
		m.subs = append(m.subs, sub)
	}
	sub.Datacenters = datacenters
	sub.NotifyAvailable = notifyAvailable
	sub.NotifyUnavailable = notifyUnavailable
	if req.ServerName != "" {
		sub.ServerName = req.ServerName
	}
	out := sub.Clone()
	m.mu.Unlock()

	m.persist()
	if created {
		log.Infow("subscription added", "source", logSource, "planCode", out.PlanCode, "datacenters", out.Datacenters)
	} else {
		log.Warnw("subscription exists, updated", "source", logSource, "planCode", out.PlanCode)
	}
	return out, created, nil
}

func (m *Monitor) Unsubscribe(planCode string) error {
	m.mu.Lock()
	idx := slices.IndexFunc(m.subs, func(s *model.Subscription) bool { return s.PlanCode == planCode })
	if idx < 0 {
		m.mu.Unlock()
		return ErrSubscriptionNotFound
	}
	m.subs = slices.Delete(m.subs, idx, idx+1)
	m.mu.Unlock()

	m.persist()
	log.Infow("subscription removed", "source", logSource, "planCode", planCode)
	return nil
}

func (m *Monitor) ClearSubscriptions() int {
	m.mu.Lock()
	n := len(m.subs)
	m.subs = nil
	m.mu.Unlock()

	m.persist()
	log.Infow("subscriptions cleared", "source", logSource, "count", n)
	return n
}

func (m *Monitor) Subscriptions() []model.Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cloneSubsLocked()
}

// History returns the subscription's events, newest first.
func (m *Monitor) History(planCode string) ([]model.StatusEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub := m.findLocked(planCode)
	if sub == nil {
		return nil, ErrSubscriptionNotFound
	}
	out := slices.Clone(sub.History)
	slices.Reverse(out)
	if out == nil {
		out = []model.StatusEvent{}
	}
	return out, nil
}

// CheckSubscription polls one plan, applies edge detection against the stored
// lastStatus and sends a notification per event. A failed or empty fetch
// leaves the subscription untouched.
func (m *Monitor) CheckSubscription(ctx context.Context, planCode string) ([]model.StatusEvent, error) {
	m.mu.Lock()
	exists := m.findLocked(planCode) != nil
	m.mu.Unlock()
	if !exists {
		return nil, ErrSubscriptionNotFound
	}

	current, err := m.source.Availability(ctx, planCode)
	if err != nil {
		log.Warnw(fmt.Sprintf("无法获取 %s 的可用性信息", planCode), "source", logSource, "error", err)
		return nil, err
	}
	if len(current) == 0 {
		log.Warnw(fmt.Sprintf("无法获取 %s 的可用性信息", planCode), "source", logSource)
		return nil, nil
	}

	m.mu.Lock()
	sub := m.findLocked(planCode)
	if sub == nil {
		m.mu.Unlock()
		return nil, nil
	}
	events := detectEdges(sub, current, m.now())
	sub.History = append(sub.History, events...)
	if over := len(sub.History) - model.SubscriptionHistoryLimit; over > 0 {
		sub.History = slices.Clone(sub.History[over:])
	}
	sub.LastStatus = make(map[string]string, len(current))
	for dc, status := range current {
		sub.LastStatus[dc] = status
	}
	m.mu.Unlock()

	for _, ev := range events {
		metrics.RecordMonitorEvent(string(ev.ChangeType))
		log.Infow(fmt.Sprintf("%s@%s %s", planCode, ev.Datacenter, ev.ChangeType), "source", logSource,
			"status", ev.Status, "oldStatus", ev.OldStatus)
		if m.notifier != nil && !m.notifier.Send(ctx, alertMessage(planCode, ev)) {
			log.Warnw(fmt.Sprintf("Telegram通知发送失败: %s@%s", planCode, ev.Datacenter), "source", logSource)
		}
	}
	m.persist()
	return events, nil
}

// detectEdges 只在首次有货、无货转有货、有货转无货时产生事件
func detectEdges(sub *model.Subscription, current map[string]string, now time.Time) []model.StatusEvent {
	dcs := make([]string, 0, len(current))
	for dc := range current {
		dcs = append(dcs, dc)
	}
	sort.Strings(dcs)

	var events []model.StatusEvent
	for _, dc := range dcs {
		if !sub.Watches(dc) {
			continue
		}
		status := current[dc]
		old, seen := sub.LastStatus[dc]

		var change model.ChangeType
		switch {
		case !seen && status != ovh.StatusUnavailable:
			if sub.NotifyAvailable {
				change = model.ChangeAvailable
			}
		case seen && old == ovh.StatusUnavailable && status != ovh.StatusUnavailable:
			if sub.NotifyAvailable {
				change = model.ChangeAvailable
			}
		case seen && old != ovh.StatusUnavailable && status == ovh.StatusUnavailable:
			if sub.NotifyUnavailable {
				change = model.ChangeUnavailable
			}
		}
		if change == "" {
			continue
		}
		events = append(events, model.StatusEvent{
			Timestamp:  now,
			Datacenter: dc,
			Status:     status,
			ChangeType: change,
			OldStatus:  old,
		})
	}
	return events
}

func alertMessage(planCode string, ev model.StatusEvent) string {
	ts := ev.Timestamp.Format(timeLayout)
	if ev.ChangeType == model.ChangeAvailable {
		return fmt.Sprintf("🎉 服务器上架通知！\n\n型号: %s\n数据中心: %s\n状态: %s\n时间: %s\n\n💡 快去抢购吧！",
			planCode, ev.Datacenter, ev.Status, ts)
	}
	return fmt.Sprintf("📦 服务器下架通知\n\n型号: %s\n数据中心: %s\n状态: 已无货\n时间: %s",
		planCode, ev.Datacenter, ts)
}

// RunCycle checks every subscription of a snapshot once, sequentially.
func (m *Monitor) RunCycle(ctx context.Context) {
	defer metrics.MeasureSince([]string{"monitor", "cycle"}, time.Now())

	m.mu.Lock()
	plans := make([]string, 0, len(m.subs))
	for _, s := range m.subs {
		plans = append(plans, s.PlanCode)
	}
	m.mu.Unlock()

	if len(plans) == 0 {
		log.Debugw("no subscriptions, skip check")
		return
	}
	log.Infow(fmt.Sprintf("开始检查 %d 个订阅...", len(plans)), "source", logSource)

	delay := time.Duration(m.conf.SubscriptionDelay) * time.Millisecond
	for i, plan := range plans {
		if ctx.Err() != nil {
			return
		}
		err := safe.Call(func() error {
			_, err := m.CheckSubscription(ctx, plan)
			return err
		})
		if err != nil && !errors.Is(err, ErrSubscriptionNotFound) {
			log.Errorw("check subscription failed", "source", logSource, "planCode", plan, "error", err)
		}
		if i < len(plans)-1 && !sleep(ctx, delay) {
			return
		}
	}
}

// CheckNewServers diffs the server list against the known plan codes. The
// first call with nothing known only seeds the set.
func (m *Monitor) CheckNewServers(ctx context.Context, servers []model.ServerPlan) []model.ServerPlan {
	current := make(map[string]struct{}, len(servers))
	for _, s := range servers {
		if s.PlanCode != "" {
			current[s.PlanCode] = struct{}{}
		}
	}

	m.mu.Lock()
	if len(m.known) == 0 {
		m.known = current
		m.mu.Unlock()
		m.persist()
		log.Infow(fmt.Sprintf("初始化已知服务器列表: %d 台", len(current)), "source", logSource)
		return nil
	}
	var fresh []model.ServerPlan
	seen := make(map[string]struct{})
	for _, s := range servers {
		if _, ok := m.known[s.PlanCode]; ok || s.PlanCode == "" {
			continue
		}
		if _, dup := seen[s.PlanCode]; dup {
			continue
		}
		seen[s.PlanCode] = struct{}{}
		fresh = append(fresh, s)
	}
	if len(fresh) > 0 {
		m.known = current
	}
	m.mu.Unlock()

	if len(fresh) == 0 {
		return nil
	}
	for _, s := range fresh {
		if m.notifier != nil {
			m.notifier.Send(ctx, newServerMessage(s, m.now()))
		}
	}
	m.persist()
	log.Infow(fmt.Sprintf("检测到 %d 台新服务器上架", len(fresh)), "source", logSource)
	return fresh
}

func newServerMessage(s model.ServerPlan, now time.Time) string {
	orNA := func(v string) string {
		if v == "" {
			return "N/A"
		}
		return v
	}
	return fmt.Sprintf("🆕 新服务器上架通知！\n\n型号: %s\n名称: %s\nCPU: %s\n内存: %s\n存储: %s\n带宽: %s\n时间: %s\n\n💡 快去查看详情！",
		s.PlanCode, orNA(s.Name), orNA(s.CPU), orNA(s.Memory), orNA(s.Storage), orNA(s.Bandwidth), now.Format(timeLayout))
}

// TestNotification sends a fixed message through the notifier.
func (m *Monitor) TestNotification(ctx context.Context) bool {
	if m.notifier == nil {
		return false
	}
	msg := fmt.Sprintf("🔔 服务器监控测试通知\n\n时间: %s\n\n✅ Telegram通知配置正常！", m.now().Format(timeLayout))
	ok := m.notifier.Send(ctx, msg)
	if ok {
		log.Infow("Telegram测试通知发送成功", "source", logSource)
	} else {
		log.Warnw("Telegram测试通知发送失败", "source", logSource)
	}
	return ok
}

func (m *Monitor) SetCheckInterval(seconds int) error {
	if seconds < MinInterval {
		log.Warnw("检查间隔不能小于60秒", "source", logSource, "interval", seconds)
		return ErrIntervalTooShort
	}
	m.mu.Lock()
	m.interval = seconds
	m.mu.Unlock()
	m.persist()
	log.Infow(fmt.Sprintf("检查间隔已设置为 %d 秒", seconds), "source", logSource)
	return nil
}

func (m *Monitor) CheckInterval() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.interval
}

func (m *Monitor) Status() Status {
	m.mu.Lock()
	st := Status{
		SubscriptionsCount: len(m.subs),
		KnownServersCount:  len(m.known),
		CheckInterval:      m.interval,
		Subscriptions:      m.cloneSubsLocked(),
	}
	m.mu.Unlock()
	st.Running = m.Running()
	return st
}

// Start launches the polling loop; it returns false if already running.
func (m *Monitor) Start() bool {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	if m.cancel != nil {
		log.Warnw("monitor already running", "source", logSource)
		return false
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})
	done := m.done

	go func() {
		defer close(done)
		// 间隔在每轮结束后重新读取，SetCheckInterval 无需重启
		l := loop.New(loop.WithContext(ctx), loop.WithIntervalFunc(func() time.Duration {
			return time.Duration(m.CheckInterval()) * time.Second
		}))
		_ = l.Do(func() (bool, error) {
			safe.Do(func() { m.RunCycle(ctx) })
			return false, nil
		})
	}()
	log.Infow(fmt.Sprintf("服务器监控已启动 (检查间隔: %d秒)", m.CheckInterval()), "source", logSource)
	return true
}

// Stop cancels the loop and waits for the in-flight check to return.
func (m *Monitor) Stop() bool {
	m.runMu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.runMu.Unlock()
	if cancel == nil {
		return false
	}
	cancel()
	<-done
	log.Infow("服务器监控已停止", "source", logSource)
	return true
}

func (m *Monitor) Running() bool {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	return m.cancel != nil
}

// AutoStart reports whether the loop should start with the process.
func (m *Monitor) AutoStart() bool {
	if !m.conf.AutoStart {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs) > 0
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
