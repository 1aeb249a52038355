package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/frictionalfables/fable/faults"
)

const defaultTimeout = 10 * time.Second

type RateLimit struct {
	Limit float64 // requests per second; 0 disables limiting
	Burst int
}

type Config struct {
	BaseURL      string
	SessionToken string // optional; anonymous callers read public content
	SkipVerify   bool
	Timeout      time.Duration
	RateLimit    RateLimit
	Logger       *slog.Logger
}

type ErrorResponse struct {
	ErrorType string `json:"error_type"`
	Message   string `json:"message"`
}

// Client is the remote resource gateway: the only thing allowed to talk to
// the backend. It holds no cache and no business rules; it reports its own
// readiness and propagates remote failures verbatim for classification
// upstream.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger

	mu           sync.RWMutex
	sessionToken string

	ready atomic.Bool
}

func NewClient(cfg *Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("baseURL cannot be empty")
	}

	baseURL, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL '%s': %w", cfg.BaseURL, err)
	}
	if baseURL.Scheme != "https" && baseURL.Scheme != "http" {
		return nil, fmt.Errorf("unsupported scheme '%s' in base URL", baseURL.Scheme)
	}

	clientLogger := cfg.Logger.WithGroup("fable_client")

	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.SkipVerify,
		},
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}

	var limiter *rate.Limiter
	if cfg.RateLimit.Limit > 0 {
		burst := cfg.RateLimit.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit.Limit), burst)
	}

	clientLogger.Info("Fable client initialized", "base_url", baseURL.String(), "tls_skip_verify", cfg.SkipVerify)

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		limiter:      limiter,
		logger:       clientLogger,
		sessionToken: cfg.SessionToken,
	}, nil
}

// Connect establishes the gateway: one successful ping flips it ready.
// Until then every call fails fast with faults.ErrGatewayUnavailable, which
// is a gating condition for dependent queries, not a user-facing error.
func (c *Client) Connect(ctx context.Context) error {
	if err := c.do(ctx, http.MethodGet, "api/v1/ping", nil, nil, nil); err != nil {
		return fmt.Errorf("gateway ping failed: %w", err)
	}
	c.ready.Store(true)
	c.logger.Info("gateway ready")
	return nil
}

func (c *Client) Ready() bool {
	return c.ready.Load()
}

// SetSession installs the identity token obtained from the external login
// flow. Identity-scoped reads must be re-fetched afterwards; the portal
// enforces this with a cache reset.
func (c *Client) SetSession(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionToken = token
}

// ClearSession drops the identity token; subsequent calls are anonymous.
func (c *Client) ClearSession() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionToken = ""
}

func (c *Client) token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionToken
}

// call is the gate for all operations: readiness first, then the request.
func (c *Client) call(ctx context.Context, method, path string, query map[string]string, body any, target any) error {
	if !c.ready.Load() {
		return faults.ErrGatewayUnavailable
	}
	return c.do(ctx, method, path, query, body, target)
}

func (c *Client) do(ctx context.Context, method, path string, query map[string]string, body any, target any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter wait: %w", err)
		}
	}

	reqURL := c.baseURL.ResolveReference(&url.URL{Path: path})
	if len(query) > 0 {
		q := reqURL.Query()
		for k, v := range query {
			q.Set(k, v)
		}
		reqURL.RawQuery = q.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body for %s %s: %w", method, path, err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request %s %s: %w", method, reqURL.String(), err)
	}
	req.Header.Set("Content-Type", "application/json")
	if tok := c.token(); tok != "" {
		req.Header.Set("Authorization", tok)
	}

	c.logger.Debug("Sending request", "method", method, "url", reqURL.String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request %s %s failed: %w", method, reqURL.String(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("Received non-2xx status code", "method", method, "url", reqURL.String(), "status_code", resp.StatusCode)

		raw, readErr := io.ReadAll(resp.Body)
		if readErr == nil {
			var errorResp ErrorResponse
			if jsonErr := json.Unmarshal(raw, &errorResp); jsonErr == nil && errorResp.Message != "" {
				// The message is surfaced verbatim; classification happens
				// once, upstream, never here.
				return errors.New(errorResp.Message)
			}
		}
		return fmt.Errorf("server returned status %d for %s %s", resp.StatusCode, method, reqURL.String())
	}

	if target != nil {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return fmt.Errorf("failed to decode response body for %s %s: %w", method, reqURL.String(), err)
		}
	}
	return nil
}

// Ping checks the backend without requiring readiness.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "api/v1/ping", nil, nil, nil)
}
