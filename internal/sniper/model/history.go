package model

import (
	"slices"
	"time"
)

type HistoryStatus string

const (
	HistorySuccess HistoryStatus = "success"
	HistoryFailed  HistoryStatus = "failed"
)

// HistoryEntry 每个 taskId 至多一条，后续尝试覆盖
type HistoryEntry struct {
	ID           string        `json:"id"`
	TaskID       string        `json:"taskId"`
	PlanCode     string        `json:"planCode"`
	Datacenter   string        `json:"datacenter"`
	Options      []string      `json:"options"`
	Status       HistoryStatus `json:"status"`
	OrderID      string        `json:"orderId,omitempty"`
	OrderURL     string        `json:"orderUrl,omitempty"`
	ErrorMessage string        `json:"errorMessage,omitempty"`
	PurchaseTime time.Time     `json:"purchaseTime"`
	AttemptCount int           `json:"attemptCount"`
}

func (h HistoryEntry) Clone() HistoryEntry {
	h.Options = slices.Clone(h.Options)
	return h
}
