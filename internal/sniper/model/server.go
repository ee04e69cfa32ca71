package model

type ServerOption struct {
	Label     string `json:"label"`
	Value     string `json:"value"`
	Family    string `json:"family,omitempty"`
	IsDefault bool   `json:"isDefault,omitempty"`
}

type ServerDatacenter struct {
	Datacenter   string `json:"datacenter"`
	Availability string `json:"availability"`
	DCName       string `json:"dcName"`
	Region       string `json:"region"`
}

// ServerPlan 服务器列表中的一项，硬件字段取不到时为 N/A
type ServerPlan struct {
	PlanCode         string             `json:"planCode"`
	Name             string             `json:"name"`
	Description      string             `json:"description"`
	CPU              string             `json:"cpu"`
	Memory           string             `json:"memory"`
	Storage          string             `json:"storage"`
	Bandwidth        string             `json:"bandwidth"`
	VrackBandwidth   string             `json:"vrackBandwidth"`
	DefaultOptions   []ServerOption     `json:"defaultOptions"`
	AvailableOptions []ServerOption     `json:"availableOptions"`
	Datacenters      []ServerDatacenter `json:"datacenters"`
}

// HasStock 任一机房不是 unavailable/unknown
func (p ServerPlan) HasStock() bool {
	for _, dc := range p.Datacenters {
		if dc.Availability != "" && dc.Availability != "unavailable" && dc.Availability != "unknown" {
			return true
		}
	}
	return false
}

// ServerCache 是 servers.json 的内容
type ServerCache struct {
	Timestamp int64        `json:"timestamp"`
	Servers   []ServerPlan `json:"servers"`
}
