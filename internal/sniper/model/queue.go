package model

import (
	"slices"
	"time"
)

type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskRunning   TaskStatus = "running"
	TaskPaused    TaskStatus = "paused"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
)

// TaskStatuses 按展示顺序列出全部状态
var TaskStatuses = []TaskStatus{TaskPending, TaskRunning, TaskPaused, TaskCompleted, TaskFailed}

func (s TaskStatus) Valid() bool {
	return slices.Contains(TaskStatuses, s)
}

// Active 计入 activeQueues 的状态
func (s TaskStatus) Active() bool {
	return s == TaskPending || s == TaskRunning || s == TaskPaused
}

// QueueTask 一次抢购请求，重试直到成功或被删除。
// LastCheckTime 为 unix 秒，0 表示从未尝试。
type QueueTask struct {
	ID                 string     `json:"id"`
	PlanCode           string     `json:"planCode"`
	Datacenter         string     `json:"datacenter"`
	Options            []string   `json:"options"`
	Status             TaskStatus `json:"status"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
	RetryInterval      int        `json:"retryInterval"`
	RetryCount         int        `json:"retryCount"`
	LastCheckTime      int64      `json:"lastCheckTime"`
	ConfigSniperTaskID string     `json:"configSniperTaskId,omitempty"`
	QuickOrder         bool       `json:"quickOrder,omitempty"`
}

func (t QueueTask) Clone() QueueTask {
	t.Options = slices.Clone(t.Options)
	if t.Options == nil {
		t.Options = []string{}
	}
	return t
}

// Due reports whether a running task should be attempted at now.
func (t QueueTask) Due(now int64) bool {
	if t.Status != TaskRunning {
		return false
	}
	return t.LastCheckTime == 0 || now-t.LastCheckTime >= int64(t.RetryInterval)
}
