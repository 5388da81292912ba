package model

import (
	"net/url"
	"path"
	"strings"
)

// Auth modes accepted by the router client.
const (
	AuthBasic  = "basic"
	AuthDigest = "digest"
	AuthAuto   = "auto"
)

// RouterConfig describes how to reach the router status page.
type RouterConfig struct {
	URL        string `json:"router_url"`
	DevicePath string `json:"device_path"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	AuthMode   string `json:"auth_mode"`
	VerifyTLS  bool   `json:"verify_tls"`
}

// PageURL resolves the connected-clients page. When the configured URL
// already names a file the URL is used as-is; otherwise DevicePath is joined
// onto it.
func (c RouterConfig) PageURL() string {
	raw := strings.TrimSpace(c.URL)
	if raw == "" {
		return ""
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if path.Ext(parsed.Path) != "" {
		return raw
	}
	device := strings.TrimPrefix(strings.TrimSpace(c.DevicePath), "/")
	if device == "" {
		return raw
	}
	parsed.Path = strings.TrimSuffix(parsed.Path, "/") + "/" + device
	return parsed.String()
}

// Mode returns the configured auth mode, defaulting to auto.
func (c RouterConfig) Mode() string {
	switch strings.ToLower(strings.TrimSpace(c.AuthMode)) {
	case AuthBasic:
		return AuthBasic
	case AuthDigest:
		return AuthDigest
	default:
		return AuthAuto
	}
}
