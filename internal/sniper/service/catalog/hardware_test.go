package catalog

import (
	"testing"

	"github.com/go-arcade/sniper/internal/pkg/ovh"
	"github.com/stretchr/testify/assert"
)

func TestExtractHardwareAttributes(t *testing.T) {
	tests := []struct {
		name string
		plan ovh.CatalogPlan
		want Hardware
	}{
		{
			name: "addon defaults",
			plan: ovh.CatalogPlan{
				PlanCode:    "24rise01",
				InvoiceName: "RISE-1 | Intel Xeon-E 2386G",
				AddonFamilies: []ovh.AddonFamily{
					{Name: "memory", Default: "ram-32g-ecc-3200-24rise01", Addons: []string{"ram-32g-ecc-3200-24rise01"}},
					{Name: "storage", Default: "softraid-2x512nvme-24rise01", Addons: []string{"softraid-2x512nvme-24rise01"}},
					{Name: "bandwidth", Default: "bandwidth-1000-24rise", Addons: []string{"bandwidth-1000-24rise"}},
					{Name: "vrack", Default: "vrack-bandwidth-25000-24rise", Addons: []string{"vrack-bandwidth-25000-24rise"}},
				},
			},
			want: Hardware{
				CPU:            "Intel Xeon-E 2386G",
				Memory:         "32 GB",
				Storage:        "SOFTRAID 2x 512GB NVME",
				Bandwidth:      "1 Gbps",
				VrackBandwidth: "25 Gbps",
			},
		},
		{
			name: "hybrid raid and traffic",
			plan: ovh.CatalogPlan{
				PlanCode:    "24sk30",
				InvoiceName: "KS-3",
				AddonFamilies: []ovh.AddonFamily{
					{Name: "storage", Default: "hybridsoftraid-2x4000sa-2x480nvme-24sk30"},
					{Name: "bandwidth", Default: "traffic-5tb-100-24sk-apac"},
				},
			},
			want: Hardware{
				CPU:            "专用服务器CPU",
				Memory:         notAvailable,
				Storage:        "混合RAID 2x 4000GB SA + 2x 480GB NVME",
				Bandwidth:      "100 Mbps / 5 TB流量",
				VrackBandwidth: notAvailable,
			},
		},
		{
			name: "text fallback",
			plan: ovh.CatalogPlan{
				PlanCode:    "25sysle011",
				DisplayName: "SYS-LE-1",
				Description: "64GB RAM 2x 2000GB HDD",
			},
			want: Hardware{
				CPU:            "SYSLE系列专用CPU",
				Memory:         "64 GB",
				Storage:        "2x 2000GB HDD",
				Bandwidth:      notAvailable,
				VrackBandwidth: notAvailable,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractHardwareAttributes(tt.plan))
		})
	}
}

func TestIsExcludedOption(t *testing.T) {
	for _, code := range []string{"windows-server-2022-standard", "cpanel-license-x", "os-linux", "plesk-web", "license-foo"} {
		assert.True(t, IsExcludedOption(code), code)
	}
	for _, code := range []string{"ram-64g-ecc-2133", "softraid-2x480ssd", "bandwidth-1000"} {
		assert.False(t, IsExcludedOption(code), code)
	}
}

func TestDatacenterName(t *testing.T) {
	name, region := DatacenterName("gra")
	assert.Equal(t, "格拉夫尼茨", name)
	assert.Equal(t, "法国", region)

	name, region = DatacenterName("BHS5")
	assert.Equal(t, "博阿尔诺", name)
	assert.Equal(t, "加拿大", region)

	name, region = DatacenterName("ynm")
	assert.Equal(t, "ynm", name)
	assert.Equal(t, "未知", region)
}
