package catalog

import "strings"

type dcInfo struct {
	name   string
	region string
}

var datacenterNames = map[string]dcInfo{
	"gra": {"格拉夫尼茨", "法国"},
	"sbg": {"斯特拉斯堡", "法国"},
	"rbx": {"鲁贝", "法国"},
	"bhs": {"博阿尔诺", "加拿大"},
	"hil": {"希尔斯伯勒", "美国"},
	"vin": {"维也纳", "美国"},
	"lim": {"利马索尔", "塞浦路斯"},
	"sgp": {"新加坡", "新加坡"},
	"syd": {"悉尼", "澳大利亚"},
	"waw": {"华沙", "波兰"},
	"fra": {"法兰克福", "德国"},
	"lon": {"伦敦", "英国"},
	"eri": {"厄斯沃尔", "英国"},
}

// DatacenterName returns the display name and country for a datacenter code.
// Codes such as "gra3" resolve through their three letter prefix.
func DatacenterName(dc string) (name, region string) {
	code := strings.ToLower(dc)
	if len(code) > 3 {
		code = code[:3]
	}
	if info, ok := datacenterNames[code]; ok {
		return info.name, info.region
	}
	return dc, "未知"
}
