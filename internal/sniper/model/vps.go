package model

import (
	"maps"
	"slices"
	"time"
)

// VPSChangeInitial 首次检查的汇总通知类型，不写入历史
const VPSChangeInitial ChangeType = "initial"

type VPSStatusEvent struct {
	Timestamp      time.Time  `json:"timestamp"`
	Datacenter     string     `json:"datacenter"`
	DatacenterCode string     `json:"datacenterCode"`
	Status         string     `json:"status"`
	ChangeType     ChangeType `json:"changeType"`
	OldStatus      string     `json:"oldStatus,omitempty"`
}

// VPSSubscription (PlanCode, OvhSubsidiary) 唯一；LastStatus 以机房代码为键
type VPSSubscription struct {
	ID                string            `json:"id"`
	PlanCode          string            `json:"planCode"`
	OvhSubsidiary     string            `json:"ovhSubsidiary"`
	Datacenters       []string          `json:"datacenters"`
	MonitorLinux      bool              `json:"monitorLinux"`
	MonitorWindows    bool              `json:"monitorWindows"`
	NotifyAvailable   bool              `json:"notifyAvailable"`
	NotifyUnavailable bool              `json:"notifyUnavailable"`
	LastStatus        map[string]string `json:"lastStatus"`
	History           []VPSStatusEvent  `json:"history"`
	CreatedAt         time.Time         `json:"createdAt"`
}

func (s VPSSubscription) Clone() VPSSubscription {
	s.Datacenters = slices.Clone(s.Datacenters)
	s.LastStatus = maps.Clone(s.LastStatus)
	s.History = slices.Clone(s.History)
	return s
}

func (s VPSSubscription) Watches(code string) bool {
	return len(s.Datacenters) == 0 || slices.Contains(s.Datacenters, code)
}
