package purchase

import "strings"

var regionPrefixes = []struct {
	region   string
	prefixes []string
}{
	{"europe", []string{"gra", "rbx", "sbg", "eri", "lim", "waw", "par", "fra", "lon"}},
	{"canada", []string{"bhs"}},
	{"usa", []string{"vin", "hil"}},
	{"apac", []string{"syd", "sgp"}},
}

// ResolveRegion maps a datacenter code to the cart "region" configuration value.
func ResolveRegion(datacenter string) (string, bool) {
	dc := strings.ToLower(datacenter)
	for _, r := range regionPrefixes {
		for _, p := range r.prefixes {
			if strings.HasPrefix(dc, p) {
				return r.region, true
			}
		}
	}
	return "", false
}
