package router

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/icholy/digest"

	"github.com/clubhub/wifimon/internal/model"
)

const defaultTimeout = 15 * time.Second

// Client fetches the router status page over HTTP with Basic, Digest or
// auto-negotiated authentication.
type Client struct {
	cfg        model.RouterConfig
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(cfg model.RouterConfig, logger *slog.Logger) *Client {
	return NewClientWithHTTPClient(cfg, nil, logger)
}

// NewClientWithHTTPClient copies the supplied client before configuring
// timeout and TLS, so the caller's client is never mutated.
func NewClientWithHTTPClient(cfg model.RouterConfig, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	} else {
		clone := *httpClient
		httpClient = &clone
	}
	if httpClient.Timeout == 0 {
		httpClient.Timeout = defaultTimeout
	}
	if !cfg.VerifyTLS {
		var transport *http.Transport
		if existing, ok := httpClient.Transport.(*http.Transport); ok {
			transport = existing.Clone()
		} else if defaultTransport, ok := http.DefaultTransport.(*http.Transport); ok {
			transport = defaultTransport.Clone()
		} else {
			transport = &http.Transport{}
		}
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
		httpClient.Transport = transport
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{cfg: cfg, httpClient: httpClient, logger: logger}
}

// FetchTable retrieves the connected-clients page. Under auto mode the
// client first submits Basic credentials; a 401 carrying a Digest challenge
// triggers exactly one retry with a computed Digest response. The
// negotiation never loops.
func (c *Client) FetchTable(ctx context.Context) (string, error) {
	pageURL := c.cfg.PageURL()
	if pageURL == "" {
		return "", errors.New("router url is not configured")
	}

	switch c.cfg.Mode() {
	case model.AuthDigest:
		return c.fetchDigest(ctx, pageURL)
	case model.AuthBasic:
		return c.fetchBasic(ctx, pageURL, false)
	default:
		return c.fetchBasic(ctx, pageURL, true)
	}
}

func (c *Client) fetchBasic(ctx context.Context, pageURL string, negotiate bool) (string, error) {
	resp, err := c.do(ctx, pageURL, func(req *http.Request) {
		req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
	})
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return readBody(resp, model.AuthBasic)
	}

	challenge := digestChallenge(resp.Header)
	drain(resp)
	if !negotiate || challenge == nil {
		return "", &AuthError{Mode: model.AuthBasic, Status: http.StatusUnauthorized}
	}

	c.logger.Debug("router requires digest auth, retrying", "url", pageURL)
	return c.fetchWithChallenge(ctx, pageURL, challenge)
}

// fetchWithChallenge answers a parsed Digest challenge in a single follow-up
// request, so auto mode costs at most two round-trips.
func (c *Client) fetchWithChallenge(ctx context.Context, pageURL string, challenge *digest.Challenge) (string, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("parse router url: %w", err)
	}
	creds, err := digest.Digest(challenge, digest.Options{
		Method:   http.MethodGet,
		URI:      parsed.RequestURI(),
		Username: c.cfg.Username,
		Password: c.cfg.Password,
	})
	if err != nil {
		return "", fmt.Errorf("compute digest response: %w", err)
	}

	resp, err := c.do(ctx, pageURL, func(req *http.Request) {
		req.Header.Set("Authorization", creds.String())
	})
	if err != nil {
		return "", err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		drain(resp)
		return "", &AuthError{Mode: model.AuthAuto, Status: http.StatusUnauthorized}
	}
	return readBody(resp, model.AuthAuto)
}

func (c *Client) fetchDigest(ctx context.Context, pageURL string) (string, error) {
	client := *c.httpClient
	client.Transport = &digest.Transport{
		Username:  c.cfg.Username,
		Password:  c.cfg.Password,
		Transport: c.httpClient.Transport,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", &NetworkError{URL: pageURL, Err: err}
	}
	if resp.StatusCode == http.StatusUnauthorized {
		drain(resp)
		return "", &AuthError{Mode: model.AuthDigest, Status: http.StatusUnauthorized}
	}
	return readBody(resp, model.AuthDigest)
}

func (c *Client) do(ctx context.Context, pageURL string, decorate func(*http.Request)) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	decorate(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: pageURL, Err: err}
	}
	return resp, nil
}

func readBody(resp *http.Response, mode string) (string, error) {
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusForbidden {
		return "", &AuthError{Mode: mode, Status: resp.StatusCode}
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return "", fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &NetworkError{URL: resp.Request.URL.String(), Err: err}
	}
	return string(body), nil
}

func digestChallenge(h http.Header) *digest.Challenge {
	for _, value := range h.Values("WWW-Authenticate") {
		if !strings.HasPrefix(strings.TrimSpace(value), "Digest") {
			continue
		}
		challenge, err := digest.ParseChallenge(value)
		if err == nil {
			return challenge
		}
	}
	return nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close()
}
