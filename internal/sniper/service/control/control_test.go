package control

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/go-arcade/sniper/internal/pkg/ovh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errMissing = errors.New("404 not found")

type fakeVendor struct {
	servers   map[string]*ovh.DedicatedServer
	infos     map[string]*ovh.ServiceInfos
	templates []string
	tasks     []int64
	boots     map[int64]*ovh.Boot
	ips       map[string]*ovh.IPDetail
	reverses  map[string]string
	schemes   map[string]map[string]*ovh.Partition

	updates  []map[string]any
	installs []ovh.InstallRequest
}

func (f *fakeVendor) ListServers(context.Context) ([]string, error) {
	names := []string{"ns1", "ns-broken"}
	return names, nil
}

func (f *fakeVendor) Server(_ context.Context, name string) (*ovh.DedicatedServer, error) {
	s, ok := f.servers[name]
	if !ok {
		return nil, errMissing
	}
	cp := *s
	return &cp, nil
}

func (f *fakeVendor) UpdateServer(_ context.Context, _ string, fields map[string]any) error {
	f.updates = append(f.updates, fields)
	return nil
}

func (f *fakeVendor) ServiceInfos(_ context.Context, name string) (*ovh.ServiceInfos, error) {
	i, ok := f.infos[name]
	if !ok {
		return nil, errMissing
	}
	return i, nil
}

func (f *fakeVendor) Reboot(context.Context, string) (*ovh.ServerTask, error) {
	return &ovh.ServerTask{TaskID: 9, Function: "hardReboot"}, nil
}

func (f *fakeVendor) CompatibleTemplates(context.Context, string) (*ovh.CompatibleTemplates, error) {
	return &ovh.CompatibleTemplates{OVH: f.templates}, nil
}

func (f *fakeVendor) InstallationTemplate(_ context.Context, name string) (*ovh.InstallationTemplate, error) {
	if name == "broken" {
		return nil, errMissing
	}
	return &ovh.InstallationTemplate{Distribution: "debian", Family: "linux", BitFormat: 64}, nil
}

func (f *fakeVendor) StartInstall(_ context.Context, _ string, req ovh.InstallRequest) (*ovh.ServerTask, error) {
	f.installs = append(f.installs, req)
	return &ovh.ServerTask{TaskID: 10}, nil
}

func (f *fakeVendor) TaskIDs(context.Context, string) ([]int64, error) { return f.tasks, nil }

func (f *fakeVendor) Task(_ context.Context, _ string, id int64) (*ovh.ServerTask, error) {
	return &ovh.ServerTask{Function: fmt.Sprintf("task-%d", id), Status: "done"}, nil
}

func (f *fakeVendor) BootIDs(context.Context, string) ([]int64, error) {
	ids := make([]int64, 0, len(f.boots))
	for _, id := range []int64{1, 2, 3} {
		if _, ok := f.boots[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (f *fakeVendor) Boot(_ context.Context, _ string, id int64) (*ovh.Boot, error) {
	return f.boots[id], nil
}

func (f *fakeVendor) Hardware(context.Context, string) (*ovh.HardwareSpec, error) {
	return &ovh.HardwareSpec{ProcessorName: "Xeon"}, nil
}

func (f *fakeVendor) ServerIPs(context.Context, string) ([]string, error) {
	return []string{"1.2.3.4/32", "5.6.7.0/29"}, nil
}

func (f *fakeVendor) IP(_ context.Context, ip string) (*ovh.IPDetail, error) {
	d, ok := f.ips[ip]
	if !ok {
		return nil, errMissing
	}
	return d, nil
}

func (f *fakeVendor) ReverseIPs(context.Context, string) ([]string, error) {
	out := make([]string, 0, len(f.reverses))
	for ip := range f.reverses {
		out = append(out, ip)
	}
	return out, nil
}

func (f *fakeVendor) Reverse(_ context.Context, _ string, ip string) (*ovh.ReverseDNS, error) {
	return &ovh.ReverseDNS{IPReverse: ip, Reverse: f.reverses[ip]}, nil
}

func (f *fakeVendor) SetReverse(_ context.Context, _ string, ip, reverse string) error {
	f.reverses[ip] = reverse
	return nil
}

func (f *fakeVendor) PartitionSchemeNames(context.Context, string) ([]string, error) {
	return []string{"default", "broken"}, nil
}

func (f *fakeVendor) PartitionScheme(_ context.Context, _ string, scheme string) (*ovh.PartitionScheme, error) {
	return &ovh.PartitionScheme{Name: scheme, Priority: 1}, nil
}

func (f *fakeVendor) PartitionNames(_ context.Context, _ string, scheme string) ([]string, error) {
	parts, ok := f.schemes[scheme]
	if !ok {
		return nil, errMissing
	}
	names := make([]string, 0, len(parts))
	for name := range parts {
		names = append(names, name)
	}
	return names, nil
}

func (f *fakeVendor) Partition(_ context.Context, _ string, scheme, mount string) (*ovh.Partition, error) {
	cp := *f.schemes[scheme][mount]
	return &cp, nil
}

func newFakeVendor() *fakeVendor {
	bootID := int64(1)
	return &fakeVendor{
		servers: map[string]*ovh.DedicatedServer{
			"ns1": {Name: "ns1", Datacenter: "gra3", State: "ok", IP: "1.2.3.4", BootID: &bootID, Monitoring: true},
		},
		infos: map[string]*ovh.ServiceInfos{"ns1": {Status: "ok", Expiration: "2026-01-01"}},
		boots: map[int64]*ovh.Boot{
			1: {BootType: "harddisk", Description: "Boot from disk"},
			2: {BootType: "rescue", Description: "Rescue"},
		},
		ips:      map[string]*ovh.IPDetail{"1.2.3.4/32": {Type: "dedicated"}},
		reverses: map[string]string{"1.2.3.4": "ns1.example.com."},
		schemes: map[string]map[string]*ovh.Partition{
			"default": {
				"/":     {Filesystem: "ext4", Order: 2},
				"/boot": {Filesystem: "ext4", Order: 1},
				"swap":  {Filesystem: "swap", Order: 3, Type: "logical"},
			},
		},
	}
}

func TestService_ListKeepsFailedServers(t *testing.T) {
	s := NewService(newFakeVendor())
	servers, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, servers, 2)

	assert.Equal(t, "gra3", servers[0].Datacenter)
	assert.Equal(t, "ok", servers[0].Status)
	assert.Empty(t, servers[0].Error)

	assert.Equal(t, "ns-broken", servers[1].Name)
	assert.NotEmpty(t, servers[1].Error)
}

func TestService_TemplatesAndInstall(t *testing.T) {
	v := newFakeVendor()
	for i := 0; i < 25; i++ {
		v.templates = append(v.templates, fmt.Sprintf("debian%d_64", i))
	}
	v.templates[1] = "broken"
	s := NewService(v)
	ctx := context.Background()

	tpls, err := s.Templates(ctx, "ns1")
	require.NoError(t, err)
	require.Len(t, tpls, templateLimit)
	assert.Equal(t, "debian", tpls[0].Distribution)
	assert.Equal(t, "debian0_64", tpls[0].TemplateName)
	assert.Equal(t, "unknown", tpls[1].Family)

	_, err = s.Install(ctx, "ns1", ovh.InstallRequest{})
	assert.ErrorIs(t, err, ErrTemplateRequired)

	task, err := s.Install(ctx, "ns1", ovh.InstallRequest{TemplateName: "debian12_64", PartitionSchemeName: "default"})
	require.NoError(t, err)
	assert.Equal(t, int64(10), task.TaskID)
	require.Len(t, v.installs, 1)
	assert.Equal(t, "default", v.installs[0].PartitionSchemeName)
}

func TestService_TasksKeepsLatestTen(t *testing.T) {
	v := newFakeVendor()
	for i := int64(1); i <= 15; i++ {
		v.tasks = append(v.tasks, i)
	}
	tasks, err := NewService(v).Tasks(context.Background(), "ns1")
	require.NoError(t, err)
	require.Len(t, tasks, taskLimit)
	assert.Equal(t, int64(6), tasks[0].TaskID)
	assert.Equal(t, "task-15", tasks[9].Function)
}

func TestService_BootAndMonitoring(t *testing.T) {
	v := newFakeVendor()
	s := NewService(v)
	ctx := context.Background()

	cfg, err := s.BootConfig(ctx, "ns1")
	require.NoError(t, err)
	require.Len(t, cfg.Boots, 2)
	assert.True(t, cfg.Boots[0].IsCurrent)
	assert.False(t, cfg.Boots[1].IsCurrent)

	require.NoError(t, s.SetBoot(ctx, "ns1", 2))
	require.NoError(t, s.SetMonitoring(ctx, "ns1", false))
	assert.Equal(t, []map[string]any{{"bootId": int64(2)}, {"monitoring": false}}, v.updates)

	on, err := s.Monitoring(ctx, "ns1")
	require.NoError(t, err)
	assert.True(t, on)
}

func TestService_IPsAndReverse(t *testing.T) {
	v := newFakeVendor()
	s := NewService(v)
	ctx := context.Background()

	ips, err := s.IPs(ctx, "ns1")
	require.NoError(t, err)
	assert.Equal(t, []IP{{IP: "1.2.3.4/32", Type: "dedicated"}, {IP: "5.6.7.0/29", Type: "unknown"}}, ips)

	assert.ErrorIs(t, s.SetReverse(ctx, "ns1", "1.2.3.4", " "), ErrReverseRequired)
	require.NoError(t, s.SetReverse(ctx, "ns1", "1.2.3.4", "mail.example.com."))

	revs, err := s.Reverses(ctx, "ns1")
	require.NoError(t, err)
	assert.Equal(t, []ovh.ReverseDNS{{IPReverse: "1.2.3.4", Reverse: "mail.example.com."}}, revs)

	v.servers["ns1"].IP = ""
	revs, err = s.Reverses(ctx, "ns1")
	require.NoError(t, err)
	assert.Empty(t, revs)
}

func TestService_PartitionSchemesSorted(t *testing.T) {
	s := NewService(newFakeVendor())
	ctx := context.Background()

	_, err := s.PartitionSchemes(ctx, "")
	assert.ErrorIs(t, err, ErrTemplateRequired)

	schemes, err := s.PartitionSchemes(ctx, "debian12_64")
	require.NoError(t, err)
	require.Len(t, schemes, 1, "schemes failing to load are skipped")
	parts := schemes[0].Partitions
	require.Len(t, parts, 3)
	assert.Equal(t, []string{"/boot", "/", "swap"}, []string{parts[0].Mountpoint, parts[1].Mountpoint, parts[2].Mountpoint})
	assert.Equal(t, "primary", parts[0].Type)
	assert.Equal(t, "logical", parts[2].Type)
}

func TestService_ServiceInfo(t *testing.T) {
	info, err := NewService(newFakeVendor()).ServiceInfo(context.Background(), "ns1")
	require.NoError(t, err)
	assert.Equal(t, "2026-01-01", info.Expiration)

	_, err = NewService(newFakeVendor()).ServiceInfo(context.Background(), "nope")
	assert.ErrorIs(t, err, errMissing)
}
