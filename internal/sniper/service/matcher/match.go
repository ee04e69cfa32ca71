package matcher

import (
	"strings"

	"github.com/go-arcade/sniper/internal/pkg/ovh"
)

const (
	familyMemory  = "memory"
	familyStorage = "storage"
)

// FindMatchingCatalogPlans scans the whole catalog and returns, in catalog
// order, every plan code whose memory and storage selections normalise to fp.
func FindMatchingCatalogPlans(cat ovh.Catalog, fp Fingerprint) []string {
	matched := []string{}
	if fp.Memory == "" || fp.Storage == "" {
		return matched
	}
	seen := make(map[string]struct{})
	for _, plan := range cat.Plans {
		if plan.PlanCode == "" {
			continue
		}
		if _, dup := seen[plan.PlanCode]; dup {
			continue
		}
		if !PlanMatches(plan, fp) {
			continue
		}
		seen[plan.PlanCode] = struct{}{}
		matched = append(matched, plan.PlanCode)
	}
	return matched
}

// PlanMatches compares the plan's memory and storage selections with fp. A
// family with a default compares only the default.
func PlanMatches(plan ovh.CatalogPlan, fp Fingerprint) bool {
	return matchAddon(plan, familyMemory, fp.Memory) != "" &&
		matchAddon(plan, familyStorage, fp.Storage) != ""
}

// matchAddon returns the addon code of family whose standardized form is want.
func matchAddon(plan ovh.CatalogPlan, family, want string) string {
	for _, f := range plan.AddonFamilies {
		if !strings.EqualFold(f.Name, family) {
			continue
		}
		candidates := f.Addons
		if f.Default != "" {
			candidates = []string{f.Default}
		}
		for _, addon := range candidates {
			if StandardizeConfig(addon) == want {
				return addon
			}
		}
	}
	return ""
}

// HardwareOptions 返回下单时携带的内存和存储 addon
func HardwareOptions(cat ovh.Catalog, planCode string, fp Fingerprint) []string {
	for _, plan := range cat.Plans {
		if plan.PlanCode != planCode {
			continue
		}
		var opts []string
		if m := matchAddon(plan, familyMemory, fp.Memory); m != "" {
			opts = append(opts, m)
		}
		if s := matchAddon(plan, familyStorage, fp.Storage); s != "" {
			opts = append(opts, s)
		}
		return opts
	}
	return nil
}
