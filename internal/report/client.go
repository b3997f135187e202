package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Submitter posts issues. It is implemented by *Client and can be faked in
// tests.
type Submitter interface {
	Submit(ctx context.Context, issue Issue) (Created, error)
}

// Ensure Client implements Submitter at compile time.
var _ Submitter = (*Client)(nil)

// Auth holds reporting credentials. A token takes precedence over a
// username and password.
type Auth struct {
	Token    string
	Username string
	Password string
}

// Created is what the endpoint reports back about a new issue. Fields are
// zero when the endpoint does not return them.
type Created struct {
	Number int    `json:"number"`
	URL    string `json:"html_url"`
}

// Client posts issues to one endpoint. It does not retry.
type Client struct {
	endpoint  *url.URL
	auth      Auth
	http      *http.Client
	userAgent string
}

const (
	defaultUserAgent = "blackbox/0.1"
	requestTimeout   = 15 * time.Second
	maxResponseBytes = 1 << 20
)

// NewClient builds a Client for the issues endpoint at rawURL.
func NewClient(rawURL string, auth Auth) (*Client, error) {
	endpoint, err := parseEndpoint(rawURL)
	if err != nil {
		return nil, err
	}
	return &Client{
		endpoint: endpoint,
		auth:     auth,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
	}, nil
}

// Submit posts issue as JSON. Any non-2xx status is an error.
func (c *Client) Submit(ctx context.Context, issue Issue) (Created, error) {
	if c == nil {
		return Created{}, fmt.Errorf("client is nil")
	}
	payload, err := json.Marshal(issue)
	if err != nil {
		return Created{}, fmt.Errorf("encode issue: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint.String(), bytes.NewReader(payload))
	if err != nil {
		return Created{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if header := c.auth.header(); header != "" {
		req.Header.Set("Authorization", header)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Created{}, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Created{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Created{}, fmt.Errorf("report endpoint returned status %d", resp.StatusCode)
	}
	var created Created
	if len(bytes.TrimSpace(body)) == 0 {
		return created, nil
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return Created{}, fmt.Errorf("decode response: %w", err)
	}
	return created, nil
}

func (a Auth) header() string {
	if token := strings.TrimSpace(a.Token); token != "" {
		return "token " + token
	}
	if a.Username != "" && a.Password != "" {
		req := http.Request{Header: http.Header{}}
		req.SetBasicAuth(a.Username, a.Password)
		return req.Header.Get("Authorization")
	}
	return ""
}

func parseEndpoint(rawURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return nil, fmt.Errorf("report url is empty")
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse report url %q: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("report url %q: scheme must be http or https", rawURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("report url %q: missing host", rawURL)
	}
	u.Fragment = ""
	return u, nil
}
