package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/clubhub/wifimon/internal/model"
)

const digestChallengeHeader = `Digest realm="router", nonce="abc123def", qop="auth", algorithm=MD5`

func testConfig(url, mode string) model.RouterConfig {
	return model.RouterConfig{
		URL:      url,
		Username: "admin",
		Password: "secret",
		AuthMode: mode,
	}
}

func TestFetchBasicSuccess(t *testing.T) {
	var attempts int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&attempts, 1)
		user, pass, ok := r.BasicAuth()
		if !ok || user != "admin" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte("<html>clients</html>"))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL+"/DEV_device.htm", model.AuthBasic), nil)
	body, err := client.FetchTable(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(body, "clients") {
		t.Fatalf("unexpected body %q", body)
	}
	if got := atomic.LoadInt64(&attempts); got != 1 {
		t.Fatalf("expected 1 attempt, got %d", got)
	}
}

func TestFetchAutoNegotiatesDigestInTwoAttempts(t *testing.T) {
	var attempts int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&attempts, 1)
		auth := r.Header.Get("Authorization")
		if strings.HasPrefix(auth, "Digest ") && strings.Contains(auth, `username="admin"`) {
			_, _ = w.Write([]byte("<html>table</html>"))
			return
		}
		w.Header().Set("WWW-Authenticate", digestChallengeHeader)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL+"/DEV_device.htm", model.AuthAuto), nil)
	body, err := client.FetchTable(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(body, "table") {
		t.Fatalf("unexpected body %q", body)
	}
	if got := atomic.LoadInt64(&attempts); got != 2 {
		t.Fatalf("expected exactly 2 attempts, got %d", got)
	}
}

func TestFetchAutoBothSchemesRejected(t *testing.T) {
	var attempts int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt64(&attempts, 1)
		w.Header().Set("WWW-Authenticate", digestChallengeHeader)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL+"/DEV_device.htm", model.AuthAuto), nil)
	_, err := client.FetchTable(context.Background())
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	if got := atomic.LoadInt64(&attempts); got != 2 {
		t.Fatalf("negotiation must stop after 2 attempts, got %d", got)
	}
}

func TestFetchBasicModeDoesNotNegotiate(t *testing.T) {
	var attempts int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt64(&attempts, 1)
		w.Header().Set("WWW-Authenticate", digestChallengeHeader)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL+"/DEV_device.htm", model.AuthBasic), nil)
	_, err := client.FetchTable(context.Background())
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	if got := atomic.LoadInt64(&attempts); got != 1 {
		t.Fatalf("basic mode must not retry, got %d attempts", got)
	}
}

func TestFetchNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClient(testConfig(url+"/DEV_device.htm", model.AuthBasic), nil)
	_, err := client.FetchTable(context.Background())
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
}

func TestFetchUnconfiguredURL(t *testing.T) {
	client := NewClient(testConfig("", model.AuthBasic), nil)
	if _, err := client.FetchTable(context.Background()); err == nil {
		t.Fatalf("expected error for empty router url")
	}
}

func TestInjectedHTTPClientIsNotMutated(t *testing.T) {
	injected := &http.Client{}

	client := NewClientWithHTTPClient(testConfig("http://192.168.0.1", model.AuthBasic), injected, nil)
	if injected.Timeout != 0 {
		t.Fatalf("caller's client timeout changed to %v", injected.Timeout)
	}
	if injected.Transport != nil {
		t.Fatalf("caller's client transport replaced with %T", injected.Transport)
	}
	if client.httpClient == injected {
		t.Fatalf("client must work on its own copy")
	}
	if client.httpClient.Timeout == 0 || client.httpClient.Transport == nil {
		t.Fatalf("copy must still get timeout and tls config, got %+v", client.httpClient)
	}
}

func TestFileSourceReplaysSavedPage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.html")
	content := append([]byte{0xEF, 0xBB, 0xBF}, []byte("<html>saved table</html>")...)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	source := FileSource{Path: path}
	body, err := source.FetchTable(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body != "<html>saved table</html>" {
		t.Fatalf("bom not stripped or content mangled: %q", body)
	}
}

func TestFileSourceMissingFile(t *testing.T) {
	source := FileSource{Path: filepath.Join(t.TempDir(), "nope.html")}
	if _, err := source.FetchTable(context.Background()); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
