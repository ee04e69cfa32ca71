package stats

import (
	"testing"

	"github.com/go-arcade/sniper/internal/sniper/model"
	"github.com/stretchr/testify/assert"
)

func TestCompute(t *testing.T) {
	tasks := []model.QueueTask{
		{Status: model.TaskRunning},
		{Status: model.TaskPending},
		{Status: model.TaskPaused},
		{Status: model.TaskCompleted},
		{Status: model.TaskFailed},
	}
	history := []model.HistoryEntry{
		{Status: model.HistorySuccess},
		{Status: model.HistoryFailed},
		{Status: model.HistoryFailed},
	}
	servers := []model.ServerPlan{
		{PlanCode: "a", Datacenters: []model.ServerDatacenter{{Availability: "unavailable"}, {Availability: "1H-low"}}},
		{PlanCode: "b", Datacenters: []model.ServerDatacenter{{Availability: "unknown"}}},
		{PlanCode: "c"},
	}

	assert.Equal(t, model.Stats{
		ActiveQueues:     3,
		TotalServers:     3,
		AvailableServers: 1,
		PurchaseSuccess:  1,
		PurchaseFailed:   2,
	}, Compute(tasks, history, servers))

	assert.Equal(t, model.Stats{}, Compute(nil, nil, nil))
}
