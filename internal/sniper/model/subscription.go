package model

import (
	"maps"
	"slices"
	"time"
)

const SubscriptionHistoryLimit = 100

type ChangeType string

const (
	ChangeAvailable   ChangeType = "available"
	ChangeUnavailable ChangeType = "unavailable"
)

type StatusEvent struct {
	Timestamp  time.Time  `json:"timestamp"`
	Datacenter string     `json:"datacenter"`
	Status     string     `json:"status"`
	ChangeType ChangeType `json:"changeType"`
	OldStatus  string     `json:"oldStatus,omitempty"`
}

// Subscription planCode 唯一；Datacenters 为空表示关注全部机房
type Subscription struct {
	PlanCode          string            `json:"planCode"`
	ServerName        string            `json:"serverName,omitempty"`
	Datacenters       []string          `json:"datacenters"`
	NotifyAvailable   bool              `json:"notifyAvailable"`
	NotifyUnavailable bool              `json:"notifyUnavailable"`
	LastStatus        map[string]string `json:"lastStatus"`
	History           []StatusEvent     `json:"history"`
	CreatedAt         time.Time         `json:"createdAt"`
}

func (s Subscription) Clone() Subscription {
	s.Datacenters = slices.Clone(s.Datacenters)
	s.LastStatus = maps.Clone(s.LastStatus)
	s.History = slices.Clone(s.History)
	return s
}

// Watches reports whether dc is in scope for this subscription.
func (s Subscription) Watches(dc string) bool {
	return len(s.Datacenters) == 0 || slices.Contains(s.Datacenters, dc)
}
