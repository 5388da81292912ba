package model

import "testing"

func TestRouterConfigPageURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  RouterConfig
		want string
	}{
		{
			name: "bare host joins device path",
			cfg:  RouterConfig{URL: "http://192.168.0.1", DevicePath: "DEV_device.htm"},
			want: "http://192.168.0.1/DEV_device.htm",
		},
		{
			name: "trailing slash does not double up",
			cfg:  RouterConfig{URL: "http://192.168.0.1/", DevicePath: "DEV_device.htm"},
			want: "http://192.168.0.1/DEV_device.htm",
		},
		{
			name: "url naming a file is used as-is",
			cfg:  RouterConfig{URL: "http://192.168.0.1/custom/status.htm", DevicePath: "DEV_device.htm"},
			want: "http://192.168.0.1/custom/status.htm",
		},
		{
			name: "device path with leading slash",
			cfg:  RouterConfig{URL: "https://router.local/admin", DevicePath: "/DEV_device.htm"},
			want: "https://router.local/admin/DEV_device.htm",
		},
		{
			name: "empty url stays empty",
			cfg:  RouterConfig{URL: "", DevicePath: "DEV_device.htm"},
			want: "",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got := tt.cfg.PageURL()
			if got != tt.want {
				t.Fatalf("PageURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRouterConfigMode(t *testing.T) {
	if got := (RouterConfig{AuthMode: "Basic"}).Mode(); got != AuthBasic {
		t.Fatalf("Mode() = %q, want %q", got, AuthBasic)
	}
	if got := (RouterConfig{AuthMode: "digest"}).Mode(); got != AuthDigest {
		t.Fatalf("Mode() = %q, want %q", got, AuthDigest)
	}
	if got := (RouterConfig{}).Mode(); got != AuthAuto {
		t.Fatalf("Mode() = %q, want %q", got, AuthAuto)
	}
}
