package model

import (
	"slices"
	"time"
)

type MatchStatus string

const (
	MatchPending MatchStatus = "pending_match"
	MatchMatched MatchStatus = "matched"
)

type BoundConfig struct {
	Memory  string `json:"memory"`
	Storage string `json:"storage"`
}

// SniperTask 绑定旧型号的硬件配置，追踪新目录中出现的同配置型号。
// MatchedCatalogCodes 只增不减。
type SniperTask struct {
	ID                  string      `json:"id"`
	LegacyPlanCode      string      `json:"legacyPlanCode"`
	BoundConfig         BoundConfig `json:"boundConfig"`
	MatchStatus         MatchStatus `json:"matchStatus"`
	MatchedCatalogCodes []string    `json:"matchedCatalogCodes"`
	KnownCatalogCodes   []string    `json:"knownCatalogCodes,omitempty"`
	Enabled             bool        `json:"enabled"`
	LastCheck           *time.Time  `json:"lastCheck"`
	CreatedAt           time.Time   `json:"createdAt"`
}

func (t SniperTask) Clone() SniperTask {
	t.MatchedCatalogCodes = slices.Clone(t.MatchedCatalogCodes)
	if t.MatchedCatalogCodes == nil {
		t.MatchedCatalogCodes = []string{}
	}
	t.KnownCatalogCodes = slices.Clone(t.KnownCatalogCodes)
	if t.LastCheck != nil {
		lc := *t.LastCheck
		t.LastCheck = &lc
	}
	return t
}

// Seen 已匹配或创建时已知的代码都不再视为新增
func (t SniperTask) Seen(code string) bool {
	return slices.Contains(t.MatchedCatalogCodes, code) || slices.Contains(t.KnownCatalogCodes, code)
}
