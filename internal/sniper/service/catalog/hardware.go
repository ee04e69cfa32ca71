package catalog

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-arcade/sniper/internal/pkg/ovh"
	"github.com/go-arcade/sniper/internal/sniper/model"
)

const notAvailable = "N/A"

// Hardware 是从目录条目推导出的展示信息
type Hardware struct {
	CPU            string
	Memory         string
	Storage        string
	Bandwidth      string
	VrackBandwidth string
}

// 下单与展示都会跳过的附加项（系统、授权、面板类）
var excludedOptionTerms = []string{
	"windows-server", "sql-server", "cpanel-license", "plesk-", "-license-",
	"os-", "control-panel", "panel", "license", "security",
}

// IsExcludedOption reports whether an add-on code must never be ordered.
func IsExcludedOption(code string) bool {
	lower := strings.ToLower(code)
	for _, term := range excludedOptionTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

var (
	cpuKeywords = []string{"i7-", "i9-", "i5-", "xeon", "epyc", "ryzen"}

	reRAM       = regexp.MustCompile(`(?i)ram-(\d+)g`)
	reHybrid    = regexp.MustCompile(`(?i)hybridsoftraid-(\d+)x(\d+)(sa|ssd|hdd)-(\d+)x(\d+)(nvme|ssd|hdd)`)
	reRaid      = regexp.MustCompile(`(?i)(raid|softraid)-(\d+)x(\d+)(ssd|hdd|nvme|sa)`)
	reTrafficBW = regexp.MustCompile(`(?i)traffic-(\d+)(tb|gb|mb)-(\d+)`)
	reTraffic   = regexp.MustCompile(`(?i)traffic-(\d+)(tb|gb|mb)$`)
	reBandwidth = regexp.MustCompile(`(?i)bandwidth-(\d+)`)
	reVrackBW   = regexp.MustCompile(`(?i)vrack-bandwidth-(\d+)`)
	reDigits    = regexp.MustCompile(`(\d+)`)

	memTextPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(\d+)\s*GB\s*RAM`),
		regexp.MustCompile(`(?i)RAM\s*(\d+)\s*GB`),
		regexp.MustCompile(`(?i)(\d+)\s*G\s*RAM`),
		regexp.MustCompile(`(?i)RAM\s*(\d+)\s*G`),
		regexp.MustCompile(`(?i)(\d+)\s*GB`),
	}
	reDiskCount = regexp.MustCompile(`(?i)(\d+)\s*[xX]\s*(\d+)\s*GB\s*(SSD|HDD|NVMe)`)
	reDiskTB    = regexp.MustCompile(`(?i)(\d+)\s*TB\s*(SSD|HDD|NVMe)`)
	reDiskPlain = regexp.MustCompile(`(?i)(\d+)\s*(SSD|HDD|NVMe)`)
)

// ExtractHardwareAttributes derives CPU, memory, storage and bandwidth labels
// from the plan's names and default add-on selections. Unknown values are "N/A".
func ExtractHardwareAttributes(plan ovh.CatalogPlan) Hardware {
	hw := Hardware{
		CPU:            extractCPU(plan),
		Memory:         notAvailable,
		Storage:        notAvailable,
		Bandwidth:      notAvailable,
		VrackBandwidth: notAvailable,
	}

	for _, family := range plan.AddonFamilies {
		name := strings.ToLower(family.Name)
		value := family.Default
		if value == "" {
			continue
		}
		switch {
		case containsAny(name, "memory", "ram"):
			if hw.Memory == notAvailable {
				hw.Memory = memoryLabel(value)
			}
		case containsAny(name, "storage", "disk", "drive", "ssd", "hdd"):
			if hw.Storage == notAvailable {
				hw.Storage = storageLabel(value)
			}
		case containsAny(name, "bandwidth", "traffic", "network"), strings.Contains(name, "vrack"):
			if strings.Contains(strings.ToLower(value), "vrack") {
				if hw.VrackBandwidth == notAvailable {
					hw.VrackBandwidth = vrackLabel(value)
				}
				continue
			}
			if hw.Bandwidth == notAvailable {
				hw.Bandwidth = bandwidthLabel(value)
			}
		}
	}

	text := plan.DisplayName + " " + plan.InvoiceName + " " + plan.Description
	if hw.Memory == notAvailable {
		for _, re := range memTextPatterns {
			if m := re.FindStringSubmatch(text); m != nil {
				hw.Memory = m[1] + " GB"
				break
			}
		}
	}
	if hw.Storage == notAvailable {
		hw.Storage = storageFromText(text)
	}
	return hw
}

func extractCPU(plan ovh.CatalogPlan) string {
	for _, name := range []string{plan.DisplayName, plan.InvoiceName} {
		// 形如 "KS-A | Intel i7-6700k"
		if _, after, ok := strings.Cut(name, "|"); ok {
			if cpu := strings.TrimSpace(after); cpu != "" {
				return cpu
			}
		}
	}
	for _, name := range []string{plan.DisplayName, plan.InvoiceName, plan.Description} {
		lower := strings.ToLower(name)
		for _, kw := range cpuKeywords {
			if strings.Contains(lower, kw) {
				return strings.TrimSpace(name)
			}
		}
	}

	code := strings.ToLower(plan.PlanCode)
	switch {
	case strings.Contains(code, "sysle"):
		return "SYSLE系列专用CPU"
	case strings.Contains(code, "rise"):
		return "RISE系列专用CPU"
	case strings.Contains(code, "game"):
		return "GAME系列专用CPU"
	case code != "":
		return "专用服务器CPU"
	}
	return notAvailable
}

func memoryLabel(value string) string {
	if m := reRAM.FindStringSubmatch(value); m != nil {
		return m[1] + " GB"
	}
	return value
}

func storageLabel(value string) string {
	if m := reHybrid.FindStringSubmatch(value); m != nil {
		return fmt.Sprintf("混合RAID %sx %sGB %s + %sx %sGB %s",
			m[1], m[2], strings.ToUpper(m[3]), m[4], m[5], strings.ToUpper(m[6]))
	}
	if m := reRaid.FindStringSubmatch(value); m != nil {
		return fmt.Sprintf("%s %sx %sGB %s", strings.ToUpper(m[1]), m[2], m[3], strings.ToUpper(m[4]))
	}
	return value
}

func storageFromText(text string) string {
	if m := reDiskCount.FindStringSubmatch(text); m != nil {
		return fmt.Sprintf("%sx %sGB %s", m[1], m[2], strings.ToUpper(m[3]))
	}
	if m := reDiskTB.FindStringSubmatch(text); m != nil {
		return fmt.Sprintf("%s TB %s", m[1], strings.ToUpper(m[2]))
	}
	if m := reDiskPlain.FindStringSubmatch(text); m != nil {
		return fmt.Sprintf("%s %s", m[1], strings.ToUpper(m[2]))
	}
	return notAvailable
}

func bandwidthLabel(value string) string {
	lower := strings.ToLower(value)
	if m := reTrafficBW.FindStringSubmatch(value); m != nil {
		return fmt.Sprintf("%s Mbps / %s %s流量", m[3], m[1], strings.ToUpper(m[2]))
	}
	if m := reTraffic.FindStringSubmatch(value); m != nil {
		return fmt.Sprintf("%s %s流量", m[1], strings.ToUpper(m[2]))
	}
	if m := reBandwidth.FindStringSubmatch(value); m != nil {
		return speedLabel(m[1])
	}
	if strings.Contains(lower, "unlimited") {
		if m := reDigits.FindStringSubmatch(value); m != nil {
			return m[1] + " Mbps / 无限流量"
		}
		return "无限流量"
	}
	if strings.Contains(lower, "guarantee") {
		if m := reDigits.FindStringSubmatch(value); m != nil {
			return m[1] + " Mbps (保证带宽)"
		}
		return "保证带宽"
	}
	return value
}

func vrackLabel(value string) string {
	if m := reVrackBW.FindStringSubmatch(value); m != nil {
		return speedLabel(m[1])
	}
	return value
}

// speedLabel 1000 以上换算为 Gbps
func speedLabel(mbps string) string {
	n, err := strconv.Atoi(mbps)
	if err != nil {
		return mbps + " Mbps"
	}
	if n >= 1000 {
		return strings.Replace(fmt.Sprintf("%.1f Gbps", float64(n)/1000), ".0 ", " ", 1)
	}
	return fmt.Sprintf("%d Mbps", n)
}

func containsAny(s string, terms ...string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

// planOptions 拆出默认选项与全部可选项，过滤掉不可下单的附加项
func planOptions(plan ovh.CatalogPlan) (defaults, available []model.ServerOption) {
	defaults = []model.ServerOption{}
	available = []model.ServerOption{}
	for _, family := range plan.AddonFamilies {
		for _, addon := range family.Addons {
			if IsExcludedOption(addon) {
				continue
			}
			opt := model.ServerOption{
				Label:     addon,
				Value:     addon,
				Family:    family.Name,
				IsDefault: addon == family.Default,
			}
			available = append(available, opt)
			if opt.IsDefault {
				defaults = append(defaults, opt)
			}
		}
	}
	return defaults, available
}
