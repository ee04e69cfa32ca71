package stats

import "github.com/go-arcade/sniper/internal/sniper/model"

// Compute derives the dashboard counters. A server counts as available when
// any of its datacenters has stock.
func Compute(tasks []model.QueueTask, history []model.HistoryEntry, servers []model.ServerPlan) model.Stats {
	var s model.Stats
	for _, t := range tasks {
		if t.Status.Active() {
			s.ActiveQueues++
		}
	}
	s.TotalServers = len(servers)
	for _, p := range servers {
		if p.HasStock() {
			s.AvailableServers++
		}
	}
	for _, h := range history {
		switch h.Status {
		case model.HistorySuccess:
			s.PurchaseSuccess++
		case model.HistoryFailed:
			s.PurchaseFailed++
		}
	}
	return s
}
