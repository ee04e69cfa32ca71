package catalog

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/go-arcade/sniper/internal/pkg/ovh"
	"github.com/go-arcade/sniper/internal/sniper/model"
	"github.com/go-arcade/sniper/internal/sniper/store"
	"github.com/go-arcade/sniper/pkg/cache"
	"github.com/go-arcade/sniper/pkg/log"
	"github.com/go-arcade/sniper/pkg/metrics"
)

const logSource = "catalog"

// ClearType selects what ClearCache removes.
type ClearType string

const (
	ClearAll    ClearType = "all"
	ClearMemory ClearType = "memory"
	ClearFiles  ClearType = "files"
)

var ErrInvalidClearType = errors.New("invalid cache clear type")

type Conf struct {
	// CacheDuration 服务器列表缓存时长（秒）
	CacheDuration int
	// CatalogTTL eco 目录在 cache 中的存活时间（秒）
	CatalogTTL  int
	RefreshSpec string
}

func (c *Conf) SetDefaults() {
	if c.CacheDuration <= 0 {
		c.CacheDuration = 7200
	}
	if c.CatalogTTL <= 0 {
		c.CatalogTTL = 600
	}
	if c.RefreshSpec == "" {
		c.RefreshSpec = "@every 2h"
	}
}

// Vendor is the part of the OVH client the catalog needs.
type Vendor interface {
	Configured() bool
	EcoCatalog(ctx context.Context, subsidiary string) (*ovh.Catalog, error)
	Availabilities(ctx context.Context, planCode string, addonFamilies ...string) ([]ovh.Availability, error)
}

// ZoneSource 提供当前 ovhSubsidiary
type ZoneSource interface {
	Zone() string
}

type ListOptions struct {
	ForceRefresh   bool
	ShowAPIServers bool
}

type ListCacheInfo struct {
	Cached        bool   `json:"cached"`
	Timestamp     *int64 `json:"timestamp"`
	CacheAge      *int64 `json:"cacheAge"`
	CacheDuration int    `json:"cacheDuration"`
}

type ServerList struct {
	Servers   []model.ServerPlan `json:"servers"`
	CacheInfo ListCacheInfo      `json:"cacheInfo"`
}

type BackendCacheInfo struct {
	HasCachedData bool   `json:"hasCachedData"`
	Timestamp     *int64 `json:"timestamp"`
	CacheAge      *int64 `json:"cacheAge"`
	CacheDuration int    `json:"cacheDuration"`
	ServerCount   int    `json:"serverCount"`
	CacheValid    bool   `json:"cacheValid"`
}

type StorageCacheInfo struct {
	DataDir string          `json:"dataDir"`
	Files   map[string]bool `json:"files"`
}

type CacheInfo struct {
	Backend BackendCacheInfo `json:"backend"`
	Storage StorageCacheInfo `json:"storage"`
}

// RefreshListener 在服务器列表刷新成功后被调用
type RefreshListener func(ctx context.Context, servers []model.ServerPlan)

// Service keeps the server list built from the eco catalog plus live
// availability, cached in memory and in servers.json.
type Service struct {
	conf    Conf
	vendor  Vendor
	store   *store.Store
	zone    ZoneSource
	catalog *cache.CachedQuery[ovh.Catalog]
	now     func() time.Time

	mu        sync.RWMutex
	servers   []model.ServerPlan
	timestamp int64
	listeners []RefreshListener

	refreshMu sync.Mutex
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(conf Conf, vendor Vendor, st *store.Store, zone ZoneSource, c cache.ICache, opts ...Option) *Service {
	conf.SetDefaults()
	s := &Service{
		conf:    conf,
		vendor:  vendor,
		store:   st,
		zone:    zone,
		now:     time.Now,
		servers: []model.ServerPlan{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.catalog = cache.NewCachedQuery[ovh.Catalog](c,
		func(params ...any) string { return "sniper:catalog:eco:" + params[0].(string) },
		func(ctx context.Context, params ...any) (ovh.Catalog, error) {
			cat, err := s.vendor.EcoCatalog(ctx, params[0].(string))
			if err != nil {
				return ovh.Catalog{}, err
			}
			return *cat, nil
		},
		cache.WithTTL[ovh.Catalog](time.Duration(conf.CatalogTTL)*time.Second),
		cache.WithLogPrefix[ovh.Catalog]("[Catalog]"),
	)
	return s
}

func (s *Service) Conf() Conf { return s.conf }

func (s *Service) currentZone() string {
	if s.zone == nil {
		return "IE"
	}
	if z := s.zone.Zone(); z != "" {
		return z
	}
	return "IE"
}

// OnRefresh registers a listener for successful refreshes.
func (s *Service) OnRefresh(l RefreshListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Load 从 servers.json 恢复上次的列表（保留原时间戳）
func (s *Service) Load() {
	if s.store == nil {
		return
	}
	cached := store.LoadOrDefault(s.store, store.FileServers, model.ServerCache{})
	s.mu.Lock()
	defer s.mu.Unlock()
	if cached.Servers != nil {
		s.servers = cached.Servers
	}
	s.timestamp = cached.Timestamp
	log.Infow("server list loaded", "source", logSource, "servers", len(s.servers))
}

// Catalog returns the raw eco catalog for the current zone, memoised for CatalogTTL.
func (s *Service) Catalog(ctx context.Context) (ovh.Catalog, error) {
	if !s.vendor.Configured() {
		return ovh.Catalog{}, ovh.ErrNotConfigured
	}
	return s.catalog.Get(ctx, s.currentZone())
}

// Availability 查询单个型号各机房状态，可附带 addonFamily 过滤
func (s *Service) Availability(ctx context.Context, planCode string, addonFamilies ...string) (map[string]string, error) {
	items, err := s.vendor.Availabilities(ctx, planCode, addonFamilies...)
	if err != nil {
		log.Errorw("availability check failed", "source", logSource, "planCode", planCode, "error", err)
		return nil, err
	}
	result := ovh.FlattenAvailability(items)
	log.Debugw("availability checked", "planCode", planCode, "datacenters", len(result))
	return result, nil
}

// Offers returns the raw availability rows of a plan, one per
// memory/storage combination.
func (s *Service) Offers(ctx context.Context, planCode string) ([]ovh.Availability, error) {
	if !s.vendor.Configured() {
		return nil, ovh.ErrNotConfigured
	}
	return s.vendor.Availabilities(ctx, planCode)
}

func (s *Service) cacheValidLocked() bool {
	if s.timestamp == 0 {
		return false
	}
	return s.now().Unix()-s.timestamp < int64(s.conf.CacheDuration)
}

// Servers returns the server list. A valid cache is served unless ForceRefresh;
// otherwise the list is reloaded from the API when ShowAPIServers is set and
// credentials exist, falling back to whatever is cached.
func (s *Service) Servers(ctx context.Context, opts ListOptions) ServerList {
	s.mu.RLock()
	valid := s.cacheValidLocked()
	s.mu.RUnlock()

	switch {
	case valid && !opts.ForceRefresh:
	case opts.ShowAPIServers && s.vendor.Configured():
		if _, err := s.Refresh(ctx); err != nil {
			log.Warnw("reload server list failed", "source", logSource, "error", err)
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.ServerPlan, len(s.servers))
	copy(out, s.servers)
	return ServerList{Servers: out, CacheInfo: s.listInfoLocked(valid)}
}

// Snapshot returns the in-memory list without touching the API.
func (s *Service) Snapshot() []model.ServerPlan {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.servers)
}

func (s *Service) listInfoLocked(valid bool) ListCacheInfo {
	info := ListCacheInfo{Cached: valid, CacheDuration: s.conf.CacheDuration}
	if s.timestamp > 0 {
		ts := s.timestamp
		age := s.now().Unix() - ts
		info.Timestamp, info.CacheAge = &ts, &age
	}
	return info
}

// Refresh rebuilds the list from the catalog and the availability feed,
// persists it and notifies listeners.
func (s *Service) Refresh(ctx context.Context) ([]model.ServerPlan, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()
	defer metrics.MeasureSince([]string{"catalog", "refresh"}, time.Now())

	if !s.vendor.Configured() {
		return nil, ovh.ErrNotConfigured
	}
	if err := s.catalog.Invalidate(ctx, s.currentZone()); err != nil {
		log.Warnw("invalidate catalog cache failed", "error", err)
	}
	cat, err := s.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	avail, err := s.vendor.Availabilities(ctx, "")
	if err != nil {
		return nil, err
	}

	servers := BuildServerPlans(cat, avail)
	ts := s.now().Unix()

	s.mu.Lock()
	s.servers = servers
	s.timestamp = ts
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.Save(store.FileServers, model.ServerCache{Timestamp: ts, Servers: servers}); err != nil {
			log.Errorw("save server list failed", "source", logSource, "error", err)
		}
	}
	log.Infow("server list refreshed", "source", logSource, "servers", len(servers))

	for _, l := range listeners {
		l(ctx, servers)
	}
	return slices.Clone(servers), nil
}

// BuildServerPlans joins the catalog plans with the per-datacenter availability.
func BuildServerPlans(cat ovh.Catalog, avail []ovh.Availability) []model.ServerPlan {
	byPlan := make(map[string]map[string]string)
	for _, item := range avail {
		m, ok := byPlan[item.PlanCode]
		if !ok {
			m = make(map[string]string)
			byPlan[item.PlanCode] = m
		}
		for _, dc := range item.Datacenters {
			if dc.Datacenter == "" {
				continue
			}
			status := ovh.NormalizeStatus(dc.Availability)
			// 同一型号多条配置时，任一有货即视为有货
			if prev, seen := m[dc.Datacenter]; seen && ovh.IsAvailable(prev) {
				continue
			}
			m[dc.Datacenter] = status
		}
	}

	servers := make([]model.ServerPlan, 0, len(cat.Plans))
	for _, plan := range cat.Plans {
		if plan.PlanCode == "" {
			continue
		}
		hw := ExtractHardwareAttributes(plan)
		defaults, available := planOptions(plan)
		name := plan.InvoiceName
		if name == "" {
			name = plan.DisplayName
		}
		servers = append(servers, model.ServerPlan{
			PlanCode:         plan.PlanCode,
			Name:             name,
			Description:      plan.Description,
			CPU:              hw.CPU,
			Memory:           hw.Memory,
			Storage:          hw.Storage,
			Bandwidth:        hw.Bandwidth,
			VrackBandwidth:   hw.VrackBandwidth,
			DefaultOptions:   defaults,
			AvailableOptions: available,
			Datacenters:      datacenterList(byPlan[plan.PlanCode]),
		})
	}
	return servers
}

func datacenterList(status map[string]string) []model.ServerDatacenter {
	codes := make([]string, 0, len(status))
	for dc := range status {
		codes = append(codes, dc)
	}
	sort.Strings(codes)

	out := make([]model.ServerDatacenter, 0, len(codes))
	for _, dc := range codes {
		name, region := DatacenterName(dc)
		out = append(out, model.ServerDatacenter{
			Datacenter:   dc,
			Availability: status[dc],
			DCName:       name,
			Region:       region,
		})
	}
	return out
}

func (s *Service) CacheInfo() CacheInfo {
	s.mu.RLock()
	list := s.listInfoLocked(s.cacheValidLocked())
	count := len(s.servers)
	s.mu.RUnlock()

	info := CacheInfo{
		Backend: BackendCacheInfo{
			HasCachedData: count > 0,
			Timestamp:     list.Timestamp,
			CacheAge:      list.CacheAge,
			CacheDuration: list.CacheDuration,
			ServerCount:   count,
			CacheValid:    list.Cached,
		},
		Storage: StorageCacheInfo{Files: map[string]bool{}},
	}
	if s.store != nil {
		info.Storage.DataDir = s.store.Dir()
		for key, file := range map[string]string{
			"config":  store.FileSettings,
			"servers": store.FileServers,
			"logs":    store.FileLogs,
			"queue":   store.FileQueue,
			"history": store.FileHistory,
		} {
			_, ok := s.store.ModTime(file)
			info.Storage.Files[key] = ok
		}
	}
	return info
}

// ClearCache drops the in-memory list (and memoised catalog), the servers.json
// file, or both.
func (s *Service) ClearCache(ctx context.Context, typ ClearType) ([]string, error) {
	if typ == "" {
		typ = ClearAll
	}
	if typ != ClearAll && typ != ClearMemory && typ != ClearFiles {
		return nil, ErrInvalidClearType
	}

	cleared := []string{}
	if typ == ClearAll || typ == ClearMemory {
		s.mu.Lock()
		s.servers = []model.ServerPlan{}
		s.timestamp = 0
		s.mu.Unlock()
		if err := s.catalog.Invalidate(ctx, s.currentZone()); err != nil {
			log.Warnw("invalidate catalog cache failed", "error", err)
		}
		cleared = append(cleared, "memory")
		log.Infow("memory cache cleared", "source", logSource)
	}
	if (typ == ClearAll || typ == ClearFiles) && s.store != nil {
		if _, ok := s.store.ModTime(store.FileServers); ok {
			if err := s.store.Remove(store.FileServers); err != nil {
				log.Errorw("remove cache file failed", "source", logSource, "error", err)
				return cleared, err
			}
			cleared = append(cleared, "servers_file")
		}
		log.Infow("cache files cleared", "source", logSource, "cleared", cleared)
	}
	return cleared, nil
}
