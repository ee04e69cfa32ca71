package ovh

import "strings"

// Endpoints 与官方 SDK 的别名保持一致
var Endpoints = map[string]string{
	"ovh-eu":        "https://eu.api.ovh.com/1.0",
	"ovh-ca":        "https://ca.api.ovh.com/1.0",
	"ovh-us":        "https://api.us.ovhcloud.com/1.0",
	"kimsufi-eu":    "https://eu.api.kimsufi.com/1.0",
	"kimsufi-ca":    "https://ca.api.kimsufi.com/1.0",
	"soyoustart-eu": "https://eu.api.soyoustart.com/1.0",
	"soyoustart-ca": "https://ca.api.soyoustart.com/1.0",
}

const DefaultEndpoint = "ovh-eu"

// ResolveEndpoint maps an alias to its base URL. A value that already looks
// like a URL is returned without its trailing slash.
func ResolveEndpoint(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultEndpoint
	}
	if u, ok := Endpoints[strings.ToLower(name)]; ok {
		return u, true
	}
	if strings.HasPrefix(name, "http://") || strings.HasPrefix(name, "https://") {
		return strings.TrimRight(name, "/"), true
	}
	return "", false
}
