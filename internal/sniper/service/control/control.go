// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package control manages dedicated servers already owned by the account.
package control

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-arcade/sniper/internal/pkg/ovh"
	"github.com/go-arcade/sniper/pkg/log"
)

const (
	logSource = "server_control"
	// 模板与任务详情逐个请求，数量需要限制
	templateLimit = 20
	taskLimit     = 10
)

var (
	ErrTemplateRequired = errors.New("templateName is required")
	ErrReverseRequired  = errors.New("ip and reverse are required")
)

// Vendor is the part of the OVH client used for server control.
type Vendor interface {
	ListServers(ctx context.Context) ([]string, error)
	Server(ctx context.Context, serviceName string) (*ovh.DedicatedServer, error)
	UpdateServer(ctx context.Context, serviceName string, fields map[string]any) error
	ServiceInfos(ctx context.Context, serviceName string) (*ovh.ServiceInfos, error)
	Reboot(ctx context.Context, serviceName string) (*ovh.ServerTask, error)
	CompatibleTemplates(ctx context.Context, serviceName string) (*ovh.CompatibleTemplates, error)
	InstallationTemplate(ctx context.Context, name string) (*ovh.InstallationTemplate, error)
	StartInstall(ctx context.Context, serviceName string, req ovh.InstallRequest) (*ovh.ServerTask, error)
	TaskIDs(ctx context.Context, serviceName string) ([]int64, error)
	Task(ctx context.Context, serviceName string, taskID int64) (*ovh.ServerTask, error)
	BootIDs(ctx context.Context, serviceName string) ([]int64, error)
	Boot(ctx context.Context, serviceName string, bootID int64) (*ovh.Boot, error)
	Hardware(ctx context.Context, serviceName string) (*ovh.HardwareSpec, error)
	ServerIPs(ctx context.Context, serviceName string) ([]string, error)
	IP(ctx context.Context, ip string) (*ovh.IPDetail, error)
	ReverseIPs(ctx context.Context, serviceName string) ([]string, error)
	Reverse(ctx context.Context, serviceName, ip string) (*ovh.ReverseDNS, error)
	SetReverse(ctx context.Context, serviceName, ip, reverse string) error
	PartitionSchemeNames(ctx context.Context, template string) ([]string, error)
	PartitionScheme(ctx context.Context, template, scheme string) (*ovh.PartitionScheme, error)
	PartitionNames(ctx context.Context, template, scheme string) ([]string, error)
	Partition(ctx context.Context, template, scheme, mountpoint string) (*ovh.Partition, error)
}

type Server struct {
	ServiceName     string `json:"serviceName"`
	Name            string `json:"name"`
	CommercialRange string `json:"commercialRange,omitempty"`
	Datacenter      string `json:"datacenter,omitempty"`
	State           string `json:"state,omitempty"`
	Monitoring      bool   `json:"monitoring"`
	Reverse         string `json:"reverse,omitempty"`
	IP              string `json:"ip,omitempty"`
	OS              string `json:"os,omitempty"`
	BootID          *int64 `json:"bootId"`
	ProfessionalUse bool   `json:"professionalUse"`
	Status          string `json:"status,omitempty"`
	RenewalType     bool   `json:"renewalType"`
	Error           string `json:"error,omitempty"`
}

type BootOption struct {
	ID          int64  `json:"id"`
	BootType    string `json:"bootType"`
	Description string `json:"description"`
	Kernel      string `json:"kernel"`
	IsCurrent   bool   `json:"isCurrent"`
}

type BootConfig struct {
	CurrentBootID *int64       `json:"currentBootId"`
	Boots         []BootOption `json:"boots"`
}

type IP struct {
	IP          string `json:"ip"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	RoutedTo    string `json:"routedTo,omitempty"`
}

type ServiceInfo struct {
	Status        string `json:"status"`
	Expiration    string `json:"expiration"`
	Creation      string `json:"creation"`
	RenewalType   bool   `json:"renewalType"`
	RenewalPeriod int    `json:"renewalPeriod"`
}

type Scheme struct {
	Name       string          `json:"name"`
	Priority   int             `json:"priority"`
	Partitions []ovh.Partition `json:"partitions"`
}

type Service struct {
	vendor Vendor
}

func NewService(vendor Vendor) *Service {
	return &Service{vendor: vendor}
}

// List 单台服务器详情失败时仍返回其名称与错误
func (s *Service) List(ctx context.Context) ([]Server, error) {
	names, err := s.vendor.ListServers(ctx)
	if err != nil {
		log.Errorw(fmt.Sprintf("获取服务器列表失败: %v", err), "source", logSource)
		return nil, err
	}
	log.Infow(fmt.Sprintf("获取服务器列表成功，共 %d 台", len(names)), "source", logSource)

	servers := make([]Server, 0, len(names))
	for _, name := range names {
		srv, err := s.describe(ctx, name)
		if err != nil {
			log.Errorw(fmt.Sprintf("获取服务器 %s 详情失败: %v", name, err), "source", logSource)
			servers = append(servers, Server{ServiceName: name, Name: name, Error: err.Error()})
			continue
		}
		servers = append(servers, srv)
	}
	return servers, nil
}

func (s *Service) describe(ctx context.Context, name string) (Server, error) {
	info, err := s.vendor.Server(ctx, name)
	if err != nil {
		return Server{}, err
	}
	svc, err := s.vendor.ServiceInfos(ctx, name)
	if err != nil {
		return Server{}, err
	}
	out := Server{
		ServiceName:     name,
		Name:            info.Name,
		CommercialRange: info.CommercialRange,
		Datacenter:      info.Datacenter,
		State:           info.State,
		Monitoring:      info.Monitoring,
		Reverse:         info.Reverse,
		IP:              info.IP,
		OS:              info.OS,
		BootID:          info.BootID,
		ProfessionalUse: info.ProfessionalUse,
		Status:          svc.Status,
		RenewalType:     svc.Renew.Automatic,
	}
	if out.Name == "" {
		out.Name = name
	}
	return out, nil
}

func (s *Service) Reboot(ctx context.Context, serviceName string) (*ovh.ServerTask, error) {
	task, err := s.vendor.Reboot(ctx, serviceName)
	if err != nil {
		log.Errorw(fmt.Sprintf("重启服务器 %s 失败: %v", serviceName, err), "source", logSource)
		return nil, err
	}
	log.Infow(fmt.Sprintf("服务器 %s 重启请求已发送", serviceName), "source", logSource, "taskId", task.TaskID)
	return task, nil
}

// Templates 只取官方模板的前 20 个；单个模板详情失败时退化为名称
func (s *Service) Templates(ctx context.Context, serviceName string) ([]ovh.InstallationTemplate, error) {
	compat, err := s.vendor.CompatibleTemplates(ctx, serviceName)
	if err != nil {
		log.Errorw(fmt.Sprintf("获取服务器 %s 系统模板失败: %v", serviceName, err), "source", logSource)
		return nil, err
	}
	names := compat.OVH
	if len(names) > templateLimit {
		names = names[:templateLimit]
	}
	out := make([]ovh.InstallationTemplate, 0, len(names))
	for _, name := range names {
		detail, err := s.vendor.InstallationTemplate(ctx, name)
		if err != nil {
			out = append(out, ovh.InstallationTemplate{TemplateName: name, Distribution: name, Family: "unknown"})
			continue
		}
		detail.TemplateName = name
		out = append(out, *detail)
	}
	return out, nil
}

func (s *Service) Install(ctx context.Context, serviceName string, req ovh.InstallRequest) (*ovh.ServerTask, error) {
	req.TemplateName = strings.TrimSpace(req.TemplateName)
	if req.TemplateName == "" {
		return nil, ErrTemplateRequired
	}
	if req.PartitionSchemeName != "" {
		log.Infow(fmt.Sprintf("使用自定义分区方案: %s", req.PartitionSchemeName), "source", logSource)
	}
	task, err := s.vendor.StartInstall(ctx, serviceName, req)
	if err != nil {
		log.Errorw(fmt.Sprintf("重装服务器 %s 系统失败: %v", serviceName, err), "source", logSource)
		return nil, err
	}
	log.Infow(fmt.Sprintf("服务器 %s 系统重装请求已发送，模板: %s", serviceName, req.TemplateName), "source", logSource)
	return task, nil
}

// Tasks 返回最近 10 个任务，详情失败的跳过
func (s *Service) Tasks(ctx context.Context, serviceName string) ([]ovh.ServerTask, error) {
	ids, err := s.vendor.TaskIDs(ctx, serviceName)
	if err != nil {
		log.Errorw(fmt.Sprintf("获取服务器 %s 任务列表失败: %v", serviceName, err), "source", logSource)
		return nil, err
	}
	if len(ids) > taskLimit {
		ids = ids[len(ids)-taskLimit:]
	}
	out := make([]ovh.ServerTask, 0, len(ids))
	for _, id := range ids {
		task, err := s.vendor.Task(ctx, serviceName, id)
		if err != nil {
			continue
		}
		task.TaskID = id
		out = append(out, *task)
	}
	return out, nil
}

func (s *Service) BootConfig(ctx context.Context, serviceName string) (BootConfig, error) {
	info, err := s.vendor.Server(ctx, serviceName)
	if err != nil {
		return BootConfig{}, err
	}
	ids, err := s.vendor.BootIDs(ctx, serviceName)
	if err != nil {
		return BootConfig{}, err
	}
	cfg := BootConfig{CurrentBootID: info.BootID, Boots: make([]BootOption, 0, len(ids))}
	for _, id := range ids {
		b, err := s.vendor.Boot(ctx, serviceName, id)
		if err != nil {
			continue
		}
		cfg.Boots = append(cfg.Boots, BootOption{
			ID:          id,
			BootType:    b.BootType,
			Description: b.Description,
			Kernel:      b.Kernel,
			IsCurrent:   info.BootID != nil && *info.BootID == id,
		})
	}
	return cfg, nil
}

// SetBoot 新的启动模式在下次重启后生效
func (s *Service) SetBoot(ctx context.Context, serviceName string, bootID int64) error {
	if err := s.vendor.UpdateServer(ctx, serviceName, map[string]any{"bootId": bootID}); err != nil {
		log.Errorw(fmt.Sprintf("设置服务器 %s 启动模式失败: %v", serviceName, err), "source", logSource)
		return err
	}
	log.Infow(fmt.Sprintf("服务器 %s 启动模式已设置为 %d", serviceName, bootID), "source", logSource)
	return nil
}

func (s *Service) Monitoring(ctx context.Context, serviceName string) (bool, error) {
	info, err := s.vendor.Server(ctx, serviceName)
	if err != nil {
		return false, err
	}
	return info.Monitoring, nil
}

func (s *Service) SetMonitoring(ctx context.Context, serviceName string, enabled bool) error {
	if err := s.vendor.UpdateServer(ctx, serviceName, map[string]any{"monitoring": enabled}); err != nil {
		log.Errorw(fmt.Sprintf("设置服务器 %s 监控状态失败: %v", serviceName, err), "source", logSource)
		return err
	}
	state := "关闭"
	if enabled {
		state = "开启"
	}
	log.Infow(fmt.Sprintf("服务器 %s 监控已%s", serviceName, state), "source", logSource)
	return nil
}

func (s *Service) Hardware(ctx context.Context, serviceName string) (*ovh.HardwareSpec, error) {
	return s.vendor.Hardware(ctx, serviceName)
}

func (s *Service) IPs(ctx context.Context, serviceName string) ([]IP, error) {
	list, err := s.vendor.ServerIPs(ctx, serviceName)
	if err != nil {
		return nil, err
	}
	out := make([]IP, 0, len(list))
	for _, addr := range list {
		d, err := s.vendor.IP(ctx, addr)
		if err != nil {
			out = append(out, IP{IP: addr, Type: "unknown"})
			continue
		}
		out = append(out, IP{IP: addr, Type: d.Type, Description: d.Description, RoutedTo: d.RoutedTo.ServiceName})
	}
	return out, nil
}

// Reverses 服务器没有主 IP 时返回空列表
func (s *Service) Reverses(ctx context.Context, serviceName string) ([]ovh.ReverseDNS, error) {
	info, err := s.vendor.Server(ctx, serviceName)
	if err != nil {
		return nil, err
	}
	out := []ovh.ReverseDNS{}
	if info.IP == "" {
		return out, nil
	}
	ips, err := s.vendor.ReverseIPs(ctx, serviceName)
	if err != nil {
		log.Warnw("list reverse dns failed", "source", logSource, "server", serviceName, "error", err)
		return out, nil
	}
	for _, ip := range ips {
		r, err := s.vendor.Reverse(ctx, serviceName, ip)
		if err != nil {
			continue
		}
		out = append(out, ovh.ReverseDNS{IPReverse: ip, Reverse: r.Reverse})
	}
	return out, nil
}

func (s *Service) SetReverse(ctx context.Context, serviceName, ip, reverse string) error {
	ip, reverse = strings.TrimSpace(ip), strings.TrimSpace(reverse)
	if ip == "" || reverse == "" {
		return ErrReverseRequired
	}
	if err := s.vendor.SetReverse(ctx, serviceName, ip, reverse); err != nil {
		log.Errorw(fmt.Sprintf("设置服务器 %s 反向DNS失败: %v", serviceName, err), "source", logSource)
		return err
	}
	log.Infow(fmt.Sprintf("服务器 %s IP %s 反向DNS已设置为 %s", serviceName, ip, reverse), "source", logSource)
	return nil
}

func (s *Service) ServiceInfo(ctx context.Context, serviceName string) (ServiceInfo, error) {
	info, err := s.vendor.ServiceInfos(ctx, serviceName)
	if err != nil {
		return ServiceInfo{}, err
	}
	return ServiceInfo{
		Status:        info.Status,
		Expiration:    info.Expiration,
		Creation:      info.Creation,
		RenewalType:   info.Renew.Automatic,
		RenewalPeriod: info.Renew.Period,
	}, nil
}

// PartitionSchemes 分区按 order 升序；读取失败的方案整体跳过
func (s *Service) PartitionSchemes(ctx context.Context, template string) ([]Scheme, error) {
	template = strings.TrimSpace(template)
	if template == "" {
		return nil, ErrTemplateRequired
	}
	names, err := s.vendor.PartitionSchemeNames(ctx, template)
	if err != nil {
		log.Errorw(fmt.Sprintf("获取分区方案失败: %v", err), "source", logSource)
		return nil, err
	}
	out := make([]Scheme, 0, len(names))
	for _, name := range names {
		scheme, err := s.scheme(ctx, template, name)
		if err != nil {
			continue
		}
		out = append(out, scheme)
	}
	return out, nil
}

func (s *Service) scheme(ctx context.Context, template, name string) (Scheme, error) {
	info, err := s.vendor.PartitionScheme(ctx, template, name)
	if err != nil {
		return Scheme{}, err
	}
	mounts, err := s.vendor.PartitionNames(ctx, template, name)
	if err != nil {
		return Scheme{}, err
	}
	parts := make([]ovh.Partition, 0, len(mounts))
	for _, mount := range mounts {
		p, err := s.vendor.Partition(ctx, template, name, mount)
		if err != nil {
			return Scheme{}, err
		}
		p.Mountpoint = mount
		if p.Type == "" {
			p.Type = "primary"
		}
		parts = append(parts, *p)
	}
	sort.SliceStable(parts, func(i, j int) bool { return parts[i].Order < parts[j].Order })
	return Scheme{Name: name, Priority: info.Priority, Partitions: parts}, nil
}
