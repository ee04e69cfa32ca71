// Package vpsmonitor watches VPS datacenter stock per plan and subsidiary.
// It follows the availability monitor's edge rules, but a VPS datacenter is
// out of stock only when the order rule says so, and each check sends one
// summary message per change direction instead of one message per datacenter.
package vpsmonitor

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-arcade/sniper/internal/pkg/ovh"
	"github.com/go-arcade/sniper/internal/sniper/model"
	"github.com/go-arcade/sniper/internal/sniper/service/monitor"
	"github.com/go-arcade/sniper/internal/sniper/store"
	"github.com/go-arcade/sniper/pkg/id"
	"github.com/go-arcade/sniper/pkg/log"
	"github.com/go-arcade/sniper/pkg/loop"
	"github.com/go-arcade/sniper/pkg/metrics"
	"github.com/go-arcade/sniper/pkg/safe"
)

const (
	logSource  = "vps_monitor"
	timeLayout = "2006-01-02 15:04:05"
)

var (
	ErrSubscriptionNotFound = errors.New("vps subscription not found")
	ErrDuplicate            = errors.New("vps plan already subscribed for this subsidiary")
)

type Conf struct {
	// CheckInterval 单位秒，最小 60
	CheckInterval int
	AutoStart     bool
	// SubscriptionDelay 两个订阅之间的间隔（毫秒）
	SubscriptionDelay int
}

func (c *Conf) SetDefaults() {
	if c.CheckInterval < monitor.MinInterval {
		c.CheckInterval = monitor.MinInterval
	}
	if c.SubscriptionDelay <= 0 {
		c.SubscriptionDelay = 1000
	}
}

// Source reads the public VPS datacenter order rule.
type Source interface {
	VPSDatacenters(ctx context.Context, planCode, subsidiary string) (*ovh.VPSDatacenterRule, error)
}

type SubscribeRequest struct {
	PlanCode          string   `json:"planCode"`
	OvhSubsidiary     string   `json:"ovhSubsidiary"`
	Datacenters       []string `json:"datacenters"`
	MonitorLinux      *bool    `json:"monitorLinux"`
	MonitorWindows    *bool    `json:"monitorWindows"`
	NotifyAvailable   *bool    `json:"notifyAvailable"`
	NotifyUnavailable *bool    `json:"notifyUnavailable"`
}

type Status struct {
	Running            bool `json:"running"`
	SubscriptionsCount int  `json:"subscriptions_count"`
	CheckInterval      int  `json:"check_interval"`
}

// Change 一次检查中某个方向上变化的机房
type Change struct {
	Name   string `json:"name"`
	Code   string `json:"code"`
	Status string `json:"status"`
	Days   int    `json:"days"`
}

// Result 描述一次订阅检查
type Result struct {
	Initial     []Change `json:"initial"`
	Available   []Change `json:"available"`
	Unavailable []Change `json:"unavailable"`
}

type document struct {
	Subscriptions []model.VPSSubscription `json:"subscriptions"`
	CheckInterval int                     `json:"check_interval"`
}

type Monitor struct {
	conf     Conf
	source   Source
	notifier monitor.Notifier
	store    *store.Store
	now      func() time.Time

	mu       sync.Mutex
	subs     []*model.VPSSubscription
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

func New(conf Conf, source Source, notifier monitor.Notifier, st *store.Store, opts ...Option) *Monitor {
	conf.SetDefaults()
	m := &Monitor{
		conf:     conf,
		source:   source,
		notifier: notifier,
		store:    st,
		now:      time.Now,
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
	doc := store.LoadOrDefault(m.store, store.FileVPSSubscriptions, document{})

	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = m.subs[:0]
	for i := range doc.Subscriptions {
		s := doc.Subscriptions[i].Clone()
		if s.ID == "" || s.PlanCode == "" {
			continue
		}
		if s.LastStatus == nil {
			s.LastStatus = map[string]string{}
		}
		m.subs = append(m.subs, &s)
	}
	if doc.CheckInterval >= monitor.MinInterval {
		m.interval = doc.CheckInterval
	}
	log.Infow("vps subscriptions loaded", "source", logSource, "subscriptions", len(m.subs))
}

func (m *Monitor) persist() {
	if m.store == nil {
		return
	}
	m.persistMu.Lock()
	defer m.persistMu.Unlock()

	m.mu.Lock()
	doc := document{Subscriptions: m.cloneSubsLocked(), CheckInterval: m.interval}
	m.mu.Unlock()

	if err := m.store.Save(store.FileVPSSubscriptions, doc); err != nil {
		log.Errorw("save vps subscriptions failed", "source", logSource, "error", err)
	}
}

func (m *Monitor) cloneSubsLocked() []model.VPSSubscription {
	out := make([]model.VPSSubscription, 0, len(m.subs))
	for _, s := range m.subs {
		out = append(out, s.Clone())
	}
	return out
}

func (m *Monitor) findLocked(subID string) *model.VPSSubscription {
	for _, s := range m.subs {
		if s.ID == subID {
			return s
		}
	}
	return nil
}

func flag(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

// Subscribe adds a subscription and starts the loop if it is not running.
func (m *Monitor) Subscribe(req SubscribeRequest) (model.VPSSubscription, error) {
	req.PlanCode = strings.TrimSpace(req.PlanCode)
	if req.PlanCode == "" {
		return model.VPSSubscription{}, monitor.ErrEmptyPlanCode
	}
	subsidiary := strings.TrimSpace(req.OvhSubsidiary)
	if subsidiary == "" {
		subsidiary = ovh.DefaultVPSSubsidiary
	}
	datacenters := slices.Clone(req.Datacenters)
	if datacenters == nil {
		datacenters = []string{}
	}

	m.mu.Lock()
	for _, s := range m.subs {
		if s.PlanCode == req.PlanCode && s.OvhSubsidiary == subsidiary {
			m.mu.Unlock()
			return model.VPSSubscription{}, ErrDuplicate
		}
	}
	sub := &model.VPSSubscription{
		ID:                id.GetXid(),
		PlanCode:          req.PlanCode,
		OvhSubsidiary:     subsidiary,
		Datacenters:       datacenters,
		MonitorLinux:      flag(req.MonitorLinux, true),
		MonitorWindows:    flag(req.MonitorWindows, false),
		NotifyAvailable:   flag(req.NotifyAvailable, true),
		NotifyUnavailable: flag(req.NotifyUnavailable, false),
		LastStatus:        map[string]string{},
		History:           []model.VPSStatusEvent{},
		CreatedAt:         m.now(),
	}
	m.subs = append(m.subs, sub)
	out := sub.Clone()
	m.mu.Unlock()

	m.persist()
	log.Infow(fmt.Sprintf("添加VPS订阅: %s (subsidiary: %s)", out.PlanCode, subsidiary), "source", logSource)
	if m.Start() {
		log.Infow(fmt.Sprintf("自动启动VPS监控 (检查间隔: %d秒)", m.CheckInterval()), "source", logSource)
	}
	return out, nil
}

// Unsubscribe removes one subscription; the loop stops with the last one.
func (m *Monitor) Unsubscribe(subID string) error {
	m.mu.Lock()
	idx := slices.IndexFunc(m.subs, func(s *model.VPSSubscription) bool { return s.ID == subID })
	if idx < 0 {
		m.mu.Unlock()
		return ErrSubscriptionNotFound
	}
	m.subs = slices.Delete(m.subs, idx, idx+1)
	empty := len(m.subs) == 0
	m.mu.Unlock()

	m.persist()
	log.Infow(fmt.Sprintf("删除VPS订阅: %s", subID), "source", logSource)
	if empty && m.Stop() {
		log.Infow("所有订阅已删除，自动停止VPS监控", "source", logSource)
	}
	return nil
}

func (m *Monitor) Clear() int {
	m.mu.Lock()
	n := len(m.subs)
	m.subs = nil
	m.mu.Unlock()

	m.persist()
	log.Infow(fmt.Sprintf("清空所有VPS订阅 (%d 项)", n), "source", logSource)
	if m.Stop() {
		log.Infow("所有订阅已清空，自动停止VPS监控", "source", logSource)
	}
	return n
}

func (m *Monitor) Subscriptions() []model.VPSSubscription {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cloneSubsLocked()
}

// History returns the plan code and its events, newest first.
func (m *Monitor) History(subID string) (string, []model.VPSStatusEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub := m.findLocked(subID)
	if sub == nil {
		return "", nil, ErrSubscriptionNotFound
	}
	out := slices.Clone(sub.History)
	slices.Reverse(out)
	if out == nil {
		out = []model.VPSStatusEvent{}
	}
	return sub.PlanCode, out, nil
}

// Check fetches the order rule without touching any subscription.
func (m *Monitor) Check(ctx context.Context, planCode, subsidiary string) (*ovh.VPSDatacenterRule, error) {
	rule, err := m.source.VPSDatacenters(ctx, planCode, subsidiary)
	if err != nil {
		log.Errorw(fmt.Sprintf("获取VPS数据中心信息失败: %v", err), "source", logSource, "planCode", planCode)
		return nil, err
	}
	return rule, nil
}

// CheckSubscription polls one subscription and sends the summary messages.
// A failed fetch leaves the subscription untouched.
func (m *Monitor) CheckSubscription(ctx context.Context, subID string) (Result, error) {
	m.mu.Lock()
	sub := m.findLocked(subID)
	if sub == nil {
		m.mu.Unlock()
		return Result{}, ErrSubscriptionNotFound
	}
	planCode, subsidiary := sub.PlanCode, sub.OvhSubsidiary
	m.mu.Unlock()

	rule, err := m.source.VPSDatacenters(ctx, planCode, subsidiary)
	if err != nil {
		log.Warnw(fmt.Sprintf("无法获取VPS %s 的数据中心信息", planCode), "source", logSource, "error", err)
		return Result{}, err
	}

	m.mu.Lock()
	sub = m.findLocked(subID)
	if sub == nil {
		m.mu.Unlock()
		return Result{}, nil
	}
	firstOverall := len(sub.LastStatus) == 0
	res := detect(sub, rule.Datacenters, m.now())
	if over := len(sub.History) - model.SubscriptionHistoryLimit; over > 0 {
		sub.History = slices.Clone(sub.History[over:])
	}
	notifyAvailable, notifyUnavailable := sub.NotifyAvailable, sub.NotifyUnavailable
	m.mu.Unlock()

	if firstOverall {
		if len(res.Initial) > 0 && notifyAvailable {
			log.Infow(fmt.Sprintf("VPS %s 初始状态检查完成，%d个数据中心", planCode, len(res.Initial)), "source", logSource)
			m.summary(ctx, planCode, res.Initial, model.VPSChangeInitial)
		}
	} else {
		if len(res.Available) > 0 && notifyAvailable {
			log.Infow(fmt.Sprintf("VPS %s 补货：%d个数据中心", planCode, len(res.Available)), "source", logSource)
			m.summary(ctx, planCode, res.Available, model.ChangeAvailable)
		}
		if len(res.Unavailable) > 0 && notifyUnavailable {
			log.Infow(fmt.Sprintf("VPS %s 下架：%d个数据中心", planCode, len(res.Unavailable)), "source", logSource)
			m.summary(ctx, planCode, res.Unavailable, model.ChangeUnavailable)
		}
	}
	m.persist()
	return res, nil
}

// detect 更新 lastStatus 并记录历史；首次出现的机房只在有货时写历史
func detect(sub *model.VPSSubscription, dcs []ovh.VPSDatacenter, now time.Time) Result {
	res := Result{Initial: []Change{}, Available: []Change{}, Unavailable: []Change{}}
	record := func(dc ovh.VPSDatacenter, change model.ChangeType, old string) {
		sub.History = append(sub.History, model.VPSStatusEvent{
			Timestamp:      now,
			Datacenter:     dc.Datacenter,
			DatacenterCode: dc.Code,
			Status:         dc.Status,
			ChangeType:     change,
			OldStatus:      old,
		})
		metrics.RecordMonitorEvent("vps_" + string(change))
	}

	for _, dc := range dcs {
		if dc.Code == "" || !sub.Watches(dc.Code) {
			continue
		}
		c := Change{Name: dc.Datacenter, Code: dc.Code, Status: dc.Status, Days: dc.DaysBeforeDelivery}
		old, seen := sub.LastStatus[dc.Code]
		switch {
		case !seen:
			res.Initial = append(res.Initial, c)
			if ovh.VPSInStock(dc.Status) {
				record(dc, model.ChangeAvailable, "")
			}
		case !ovh.VPSInStock(old) && ovh.VPSInStock(dc.Status):
			res.Available = append(res.Available, c)
			record(dc, model.ChangeAvailable, old)
		case ovh.VPSInStock(old) && !ovh.VPSInStock(dc.Status):
			res.Unavailable = append(res.Unavailable, c)
			record(dc, model.ChangeUnavailable, old)
		}
		sub.LastStatus[dc.Code] = dc.Status
	}
	return res
}

var statusNames = map[string]string{
	"available":               "现货",
	ovh.VPSOutOfStock:         "无货",
	ovh.VPSOutOfStockPreorder: "缺货（可预订）",
	ovh.StatusUnavailable:     "不可用",
	ovh.StatusUnknown:         "未知",
}

// DisplayName vps-2025-model3 显示为 VPS-3
func DisplayName(planCode string) string {
	if n, ok := strings.CutPrefix(planCode, "vps-2025-model"); ok && n != "" {
		return "VPS-" + n
	}
	return planCode
}

func summaryMessage(planCode string, changes []Change, kind model.ChangeType, now time.Time) string {
	var emoji, title string
	switch kind {
	case model.VPSChangeInitial:
		emoji, title = "📊", "VPS初始状态"
	case model.ChangeAvailable:
		emoji, title = "🎉", "VPS补货通知"
	default:
		emoji, title = "📦", "VPS下架通知"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n\n套餐: %s\n时间: %s\n\n", emoji, title, DisplayName(planCode), now.Format(timeLayout))
	for i, c := range changes {
		status := c.Status
		if name, ok := statusNames[status]; ok {
			status = name
		}
		fmt.Fprintf(&b, "%d. %s (%s)\n   状态: %s", i+1, c.Name, c.Code, status)
		if c.Days > 0 {
			fmt.Fprintf(&b, " | 预计交付: %d天", c.Days)
		}
		b.WriteString("\n")
	}
	if kind == model.ChangeAvailable {
		b.WriteString("\n💡 快去抢购吧！")
	}
	return b.String()
}

func (m *Monitor) summary(ctx context.Context, planCode string, changes []Change, kind model.ChangeType) {
	if m.notifier == nil {
		return
	}
	if m.notifier.Send(ctx, summaryMessage(planCode, changes, kind, m.now())) {
		log.Infow(fmt.Sprintf("✅ VPS汇总通知发送成功: %s (%d个机房)", planCode, len(changes)), "source", logSource)
	} else {
		log.Warnw(fmt.Sprintf("⚠️ VPS汇总通知发送失败: %s", planCode), "source", logSource)
	}
}

// RunCycle checks every subscription of a snapshot once, sequentially.
func (m *Monitor) RunCycle(ctx context.Context) {
	defer metrics.MeasureSince([]string{"vps_monitor", "cycle"}, time.Now())

	m.mu.Lock()
	ids := make([]string, 0, len(m.subs))
	for _, s := range m.subs {
		ids = append(ids, s.ID)
	}
	m.mu.Unlock()

	if len(ids) == 0 {
		log.Debugw("no vps subscriptions, skip check")
		return
	}
	log.Infow(fmt.Sprintf("开始检查 %d 个VPS订阅...", len(ids)), "source", logSource)

	delay := time.Duration(m.conf.SubscriptionDelay) * time.Millisecond
	for i, subID := range ids {
		if ctx.Err() != nil {
			return
		}
		err := safe.Call(func() error {
			_, err := m.CheckSubscription(ctx, subID)
			return err
		})
		if err != nil && !errors.Is(err, ErrSubscriptionNotFound) {
			log.Errorw("check vps subscription failed", "source", logSource, "id", subID, "error", err)
		}
		if i < len(ids)-1 && !sleep(ctx, delay) {
			return
		}
	}
}

func (m *Monitor) SetCheckInterval(seconds int) error {
	if seconds < monitor.MinInterval {
		return monitor.ErrIntervalTooShort
	}
	m.mu.Lock()
	m.interval = seconds
	m.mu.Unlock()
	m.persist()
	log.Infow(fmt.Sprintf("VPS检查间隔已设置为 %d 秒", seconds), "source", logSource)
	return nil
}

func (m *Monitor) CheckInterval() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.interval
}

func (m *Monitor) Status() Status {
	m.mu.Lock()
	st := Status{SubscriptionsCount: len(m.subs), CheckInterval: m.interval}
	m.mu.Unlock()
	st.Running = m.Running()
	return st
}

// Start launches the polling loop; it returns false if already running.
func (m *Monitor) Start() bool {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	if m.cancel != nil {
		return false
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})
	done := m.done

	go func() {
		defer close(done)
		l := loop.New(loop.WithContext(ctx), loop.WithIntervalFunc(func() time.Duration {
			return time.Duration(m.CheckInterval()) * time.Second
		}))
		_ = l.Do(func() (bool, error) {
			safe.Do(func() { m.RunCycle(ctx) })
			return false, nil
		})
	}()
	log.Infow(fmt.Sprintf("VPS监控已启动 (检查间隔: %d秒)", m.CheckInterval()), "source", logSource)
	return true
}

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
	log.Infow("VPS监控循环已停止", "source", logSource)
	return true
}

func (m *Monitor) Running() bool {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	return m.cancel != nil
}

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
