package config

import (
	"errors"
	"os"
	"strings"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"

	"github.com/clubhub/wifimon/internal/model"
)

// Config holds every runtime setting. Values resolve in aconfig order:
// defaults, then config file, then WIFIMON_* environment, then flags.
type Config struct {
	RouterURL       string `json:"router_url" yaml:"router_url" default:"" usage:"Base URL of the router web UI, e.g. http://192.168.0.1"`
	DevicePath      string `json:"device_path" yaml:"device_path" default:"DEV_device.htm" usage:"Path of the connected-clients page relative to the router URL"`
	Username        string `json:"username" yaml:"username" default:"" usage:"Router admin username"`
	Password        string `json:"password" yaml:"password" default:"" usage:"Router admin password"`
	AuthMode        string `json:"auth_mode" yaml:"auth_mode" default:"auto" usage:"Router auth scheme: basic, digest or auto"`
	VerifyTLS       bool   `json:"verify_tls" yaml:"verify_tls" default:"false" usage:"Verify the router TLS certificate"`
	IntervalMinutes int    `json:"interval_minutes" yaml:"interval_minutes" default:"15" usage:"Polling interval in minutes, aligned to the top of the hour"`
	MembersPath     string `json:"members_path" yaml:"members_path" default:"data/members.json" usage:"Path to the member registry JSON"`
	LogDir          string `json:"log_dir" yaml:"log_dir" default:"data/logs" usage:"Directory for per-day connection CSV logs"`
	UnknownLog      string `json:"unknown_log" yaml:"unknown_log" default:"data/unknown.csv" usage:"CSV log of devices with no roster entry"`
	WirelessLog     string `json:"wireless_log" yaml:"wireless_log" default:"data/wireless.csv" usage:"CSV log of the raw per-cycle client snapshot"`
	HTTPAddr        string `json:"http_addr" yaml:"http_addr" default:":8099" usage:"Listen address of the admin API"`
	LogLevel        string `json:"log_level" yaml:"log_level" default:"info" usage:"Log level: debug, info, warn, error"`
	Once            bool   `json:"once" yaml:"once" default:"false" usage:"Run a single snapshot and exit"`
	HTMLFile        string `json:"html_file" yaml:"html_file" default:"" usage:"Replay a saved HTML page instead of fetching the router"`
}

// Load reads the configuration. The -config flag points at an extra config
// file on top of the well-known locations.
func Load() (*Config, error) {
	// aconfig chokes on go test's -test.* flags when flag parsing is on.
	args := []string{}
	for _, a := range os.Args {
		if !strings.HasPrefix(a, "-test.") {
			args = append(args, a)
		}
	}

	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		AllowUnknownFields: true,
		AllowUnknownFlags:  true,
		EnvPrefix:          "WIFIMON",
		FileFlag:           "config",
		Files: []string{
			"./config.json",
			"./config.yaml",
			"/etc/wifimon/config.yaml",
		},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
		Args: args[1:],
	})
	if err := loader.Load(); err != nil {
		return nil, err
	}
	if cfg.IntervalMinutes <= 0 {
		return nil, errors.New("interval_minutes must be positive")
	}
	return &cfg, nil
}

// Router assembles the router-client settings.
func (c *Config) Router() model.RouterConfig {
	return model.RouterConfig{
		URL:        c.RouterURL,
		DevicePath: c.DevicePath,
		Username:   c.Username,
		Password:   c.Password,
		AuthMode:   c.AuthMode,
		VerifyTLS:  c.VerifyTLS,
	}
}

// Replay reports whether the monitor should read a saved page instead of
// the live router.
func (c *Config) Replay() bool {
	return strings.TrimSpace(c.HTMLFile) != ""
}
