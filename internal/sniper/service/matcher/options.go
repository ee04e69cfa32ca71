package matcher

import (
	"context"
	"sort"

	"github.com/go-arcade/sniper/pkg/log"
)

type CodeDisplay struct {
	Code    string `json:"code"`
	Display string `json:"display"`
}

type MatchedPlan struct {
	PlanCode    string   `json:"planCode"`
	Datacenters []string `json:"datacenters"`
}

type ConfigOption struct {
	Memory       CodeDisplay   `json:"memory"`
	Storage      CodeDisplay   `json:"storage"`
	Fingerprint  Fingerprint   `json:"fingerprint"`
	MatchedPlans []MatchedPlan `json:"matchedPlans"`
	MatchCount   int           `json:"match_count"`
}

type ConfigOptions struct {
	PlanCode string         `json:"planCode"`
	Configs  []ConfigOption `json:"configs"`
	Total    int            `json:"total"`
}

// ConfigOptions lists the distinct memory/storage pairs a legacy plan is
// sold with, each with the current catalog codes sharing its fingerprint.
// Matched codes without any datacenter are left out.
func (m *Matcher) ConfigOptions(ctx context.Context, planCode string) (ConfigOptions, error) {
	offers, err := m.catalog.Offers(ctx, planCode)
	if err != nil {
		return ConfigOptions{}, err
	}
	if len(offers) == 0 {
		return ConfigOptions{}, ErrPlanNotFound
	}
	cat, err := m.catalog.Catalog(ctx)
	if err != nil {
		return ConfigOptions{}, err
	}

	out := ConfigOptions{PlanCode: planCode, Configs: []ConfigOption{}}
	seen := make(map[[2]string]struct{})
	datacenters := make(map[string][]string)
	for _, offer := range offers {
		if offer.Memory == "" || offer.Storage == "" {
			continue
		}
		key := [2]string{offer.Memory, offer.Storage}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		fp := NewFingerprint(offer.Memory, offer.Storage)
		log.Debugw("legacy configuration", "memory", offer.Memory, "storage", offer.Storage, "fingerprint", fp.String())

		opt := ConfigOption{
			Memory:       CodeDisplay{Code: offer.Memory, Display: FormatMemoryDisplay(offer.Memory)},
			Storage:      CodeDisplay{Code: offer.Storage, Display: FormatStorageDisplay(offer.Storage)},
			Fingerprint:  fp,
			MatchedPlans: []MatchedPlan{},
		}
		for _, code := range FindMatchingCatalogPlans(cat, fp) {
			dcs, ok := datacenters[code]
			if !ok {
				dcs = m.planDatacenters(ctx, code)
				datacenters[code] = dcs
			}
			if len(dcs) == 0 {
				continue
			}
			opt.MatchedPlans = append(opt.MatchedPlans, MatchedPlan{PlanCode: code, Datacenters: dcs})
		}
		opt.MatchCount = len(opt.MatchedPlans)
		out.Configs = append(out.Configs, opt)
	}
	out.Total = len(out.Configs)
	return out, nil
}

// planDatacenters 查询失败时视为没有机房
func (m *Matcher) planDatacenters(ctx context.Context, planCode string) []string {
	offers, err := m.catalog.Offers(ctx, planCode)
	if err != nil {
		log.Debugw("datacenter lookup failed", "planCode", planCode, "error", err)
		return nil
	}
	set := make(map[string]struct{})
	for _, o := range offers {
		for _, dc := range o.Datacenters {
			if dc.Datacenter != "" {
				set[dc.Datacenter] = struct{}{}
			}
		}
	}
	dcs := make([]string, 0, len(set))
	for dc := range set {
		dcs = append(dcs, dc)
	}
	sort.Strings(dcs)
	return dcs
}
