package ovh

import (
	"context"
	"fmt"
	"net/url"
)

// DedicatedServer 是 /dedicated/server/{serviceName} 的子集
type DedicatedServer struct {
	Name            string `json:"name"`
	CommercialRange string `json:"commercialRange"`
	Datacenter      string `json:"datacenter"`
	State           string `json:"state"`
	Monitoring      bool   `json:"monitoring"`
	Reverse         string `json:"reverse"`
	IP              string `json:"ip"`
	OS              string `json:"os"`
	BootID          *int64 `json:"bootId"`
	ProfessionalUse bool   `json:"professionalUse"`
}

type ServiceInfos struct {
	Status     string `json:"status"`
	Expiration string `json:"expiration"`
	Creation   string `json:"creation"`
	Renew      struct {
		Automatic bool `json:"automatic"`
		Period    int  `json:"period"`
	} `json:"renew"`
}

// ServerTask 重启、重装等异步操作返回的任务
type ServerTask struct {
	TaskID    int64  `json:"taskId"`
	Function  string `json:"function"`
	Status    string `json:"status"`
	Comment   string `json:"comment"`
	StartDate string `json:"startDate"`
	DoneDate  string `json:"doneDate"`
}

type CompatibleTemplates struct {
	OVH      []string `json:"ovh"`
	Personal []string `json:"personal"`
}

type InstallationTemplate struct {
	TemplateName string `json:"templateName"`
	Distribution string `json:"distribution"`
	Family       string `json:"family"`
	Description  string `json:"description"`
	BitFormat    int    `json:"bitFormat"`
}

type InstallRequest struct {
	TemplateName        string `json:"templateName"`
	CustomHostname      string `json:"customHostname,omitempty"`
	PartitionSchemeName string `json:"partitionSchemeName,omitempty"`
}

type Boot struct {
	BootID      int64  `json:"bootId"`
	BootType    string `json:"bootType"`
	Description string `json:"description"`
	Kernel      string `json:"kernel"`
}

type SizeUnit struct {
	Unit  string  `json:"unit"`
	Value float64 `json:"value"`
}

type HardwareSpec struct {
	DiskGroups              []map[string]any `json:"diskGroups"`
	MemorySize              SizeUnit         `json:"memorySize"`
	ProcessorName           string           `json:"processorName"`
	ProcessorArchitecture   string           `json:"processorArchitecture"`
	ProcessorCores          int              `json:"processorCores"`
	ProcessorThreads        int              `json:"processorThreads"`
	DefaultHardwareRaidSize SizeUnit         `json:"defaultHardwareRaidSize"`
	DefaultHardwareRaidType string           `json:"defaultHardwareRaidType"`
}

type IPDetail struct {
	IP          string `json:"ip"`
	Type        string `json:"type"`
	Description string `json:"description"`
	RoutedTo    struct {
		ServiceName string `json:"serviceName"`
	} `json:"routedTo"`
}

type ReverseDNS struct {
	IPReverse string `json:"ipReverse"`
	Reverse   string `json:"reverse"`
}

type PartitionScheme struct {
	Name     string `json:"name"`
	Priority int    `json:"priority"`
}

type Partition struct {
	Mountpoint string `json:"mountpoint"`
	Filesystem string `json:"filesystem"`
	Size       any    `json:"size"`
	Order      int    `json:"order"`
	Raid       any    `json:"raid"`
	Type       string `json:"type"`
}

func serverPath(serviceName string, parts ...string) string {
	p := "/dedicated/server/" + url.PathEscape(serviceName)
	for _, part := range parts {
		p += "/" + part
	}
	return p
}

func (c *Client) ListServers(ctx context.Context) ([]string, error) {
	var names []string
	if err := c.Get(ctx, "server.list", "/dedicated/server", nil, &names); err != nil {
		return nil, err
	}
	return names, nil
}

func (c *Client) Server(ctx context.Context, serviceName string) (*DedicatedServer, error) {
	var s DedicatedServer
	if err := c.Get(ctx, "server.get", serverPath(serviceName), nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// UpdateServer 局部更新，如 bootId、monitoring
func (c *Client) UpdateServer(ctx context.Context, serviceName string, fields map[string]any) error {
	return c.Put(ctx, "server.update", serverPath(serviceName), fields, nil)
}

func (c *Client) ServiceInfos(ctx context.Context, serviceName string) (*ServiceInfos, error) {
	var info ServiceInfos
	if err := c.Get(ctx, "server.serviceInfos", serverPath(serviceName, "serviceInfos"), nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) Reboot(ctx context.Context, serviceName string) (*ServerTask, error) {
	var task ServerTask
	if err := c.Post(ctx, "server.reboot", serverPath(serviceName, "reboot"), nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) CompatibleTemplates(ctx context.Context, serviceName string) (*CompatibleTemplates, error) {
	var t CompatibleTemplates
	path := serverPath(serviceName, "install", "compatibleTemplates")
	if err := c.Get(ctx, "server.compatibleTemplates", path, nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) InstallationTemplate(ctx context.Context, name string) (*InstallationTemplate, error) {
	var t InstallationTemplate
	path := "/dedicated/installationTemplate/" + url.PathEscape(name)
	if err := c.Get(ctx, "template.get", path, nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) StartInstall(ctx context.Context, serviceName string, req InstallRequest) (*ServerTask, error) {
	var task ServerTask
	if err := c.Post(ctx, "server.install", serverPath(serviceName, "install", "start"), req, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) TaskIDs(ctx context.Context, serviceName string) ([]int64, error) {
	var ids []int64
	if err := c.Get(ctx, "server.tasks", serverPath(serviceName, "task"), nil, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (c *Client) Task(ctx context.Context, serviceName string, taskID int64) (*ServerTask, error) {
	var task ServerTask
	path := serverPath(serviceName, "task", fmt.Sprint(taskID))
	if err := c.Get(ctx, "server.task", path, nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) BootIDs(ctx context.Context, serviceName string) ([]int64, error) {
	var ids []int64
	if err := c.Get(ctx, "server.boots", serverPath(serviceName, "boot"), nil, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (c *Client) Boot(ctx context.Context, serviceName string, bootID int64) (*Boot, error) {
	var b Boot
	path := serverPath(serviceName, "boot", fmt.Sprint(bootID))
	if err := c.Get(ctx, "server.boot", path, nil, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *Client) Hardware(ctx context.Context, serviceName string) (*HardwareSpec, error) {
	var h HardwareSpec
	path := serverPath(serviceName, "specifications", "hardware")
	if err := c.Get(ctx, "server.hardware", path, nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

func (c *Client) ServerIPs(ctx context.Context, serviceName string) ([]string, error) {
	var ips []string
	if err := c.Get(ctx, "server.ips", serverPath(serviceName, "ips"), nil, &ips); err != nil {
		return nil, err
	}
	return ips, nil
}

// IP 的 CIDR 中的 / 需要转义
func (c *Client) IP(ctx context.Context, ip string) (*IPDetail, error) {
	var d IPDetail
	if err := c.Get(ctx, "ip.get", "/ip/"+url.PathEscape(ip), nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) ReverseIPs(ctx context.Context, serviceName string) ([]string, error) {
	var ips []string
	if err := c.Get(ctx, "server.reverses", serverPath(serviceName, "reverse"), nil, &ips); err != nil {
		return nil, err
	}
	return ips, nil
}

func (c *Client) Reverse(ctx context.Context, serviceName, ip string) (*ReverseDNS, error) {
	var r ReverseDNS
	path := serverPath(serviceName, "reverse", url.PathEscape(ip))
	if err := c.Get(ctx, "server.reverse", path, nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *Client) SetReverse(ctx context.Context, serviceName, ip, reverse string) error {
	body := map[string]any{"ipReverse": ip, "reverse": reverse}
	return c.Post(ctx, "server.setReverse", serverPath(serviceName, "reverse"), body, nil)
}

func templatePath(template string, parts ...string) string {
	p := "/dedicated/installationTemplate/" + url.PathEscape(template) + "/partitionScheme"
	for _, part := range parts {
		p += "/" + url.PathEscape(part)
	}
	return p
}

func (c *Client) PartitionSchemeNames(ctx context.Context, template string) ([]string, error) {
	var names []string
	if err := c.Get(ctx, "template.schemes", templatePath(template), nil, &names); err != nil {
		return nil, err
	}
	return names, nil
}

func (c *Client) PartitionScheme(ctx context.Context, template, scheme string) (*PartitionScheme, error) {
	var s PartitionScheme
	if err := c.Get(ctx, "template.scheme", templatePath(template, scheme), nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) PartitionNames(ctx context.Context, template, scheme string) ([]string, error) {
	var names []string
	path := templatePath(template, scheme) + "/partition"
	if err := c.Get(ctx, "template.partitions", path, nil, &names); err != nil {
		return nil, err
	}
	return names, nil
}

func (c *Client) Partition(ctx context.Context, template, scheme, mountpoint string) (*Partition, error) {
	var p Partition
	path := templatePath(template, scheme) + "/partition/" + url.PathEscape(mountpoint)
	if err := c.Get(ctx, "template.partition", path, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
