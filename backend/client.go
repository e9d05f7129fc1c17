package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonwraymond/vendora/observe"
	"github.com/jonwraymond/vendora/resilience"
)

const (
	// DefaultTimeout bounds a single HTTP request.
	DefaultTimeout = 10 * time.Second

	// maxBodyBytes caps how much of a response body is read.
	maxBodyBytes = 8 << 20

	clientInfo = "vendora-go"
)

// Config configures a Client.
type Config struct {
	// URL is the project base URL, e.g. https://xyz.supabase.co.
	URL string

	// AnonKey is the public API key sent with every request.
	AnonKey string

	// HTTPClient defaults to a client with Timeout.
	HTTPClient *http.Client

	// Timeout applies when HTTPClient is nil. Default: DefaultTimeout
	Timeout time.Duration

	// Middleware observes every request. Default: observe.NopMiddleware()
	Middleware *observe.Middleware

	// Breaker, when set, guards every request.
	Breaker *resilience.CircuitBreaker

	// Now is the time source. Default: time.Now
	Now func() time.Time
}

// TokenSource supplies the bearer token for table requests.
type TokenSource interface {
	// AccessToken returns the current user's access token, if any.
	// It must not perform I/O.
	AccessToken() (string, bool)
}

// Client talks to the backend over HTTP.
type Client struct {
	base    *url.URL
	anonKey string
	http    *http.Client
	mw      *observe.Middleware
	breaker *resilience.CircuitBreaker
	now     func() time.Time

	mu     sync.RWMutex
	tokens TokenSource
}

// NewClient validates cfg and creates a Client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, ErrMissingURL
	}
	if cfg.AnonKey == "" {
		return nil, ErrMissingAnonKey
	}
	base, err := url.Parse(strings.TrimRight(cfg.URL, "/"))
	if err != nil {
		return nil, fmt.Errorf("backend: parse URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("backend: unsupported URL scheme %q", base.Scheme)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.Middleware == nil {
		cfg.Middleware = observe.NopMiddleware()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Client{
		base:    base,
		anonKey: cfg.AnonKey,
		http:    cfg.HTTPClient,
		mw:      cfg.Middleware,
		breaker: cfg.Breaker,
		now:     cfg.Now,
	}, nil
}

// URL returns the base URL.
func (c *Client) URL() string {
	return c.base.String()
}

func (c *Client) setTokenSource(ts TokenSource) {
	c.mu.Lock()
	c.tokens = ts
	c.mu.Unlock()
}

func (c *Client) userToken() (string, bool) {
	c.mu.RLock()
	ts := c.tokens
	c.mu.RUnlock()
	if ts == nil {
		return "", false
	}
	return ts.AccessToken()
}

// request describes one HTTP call.
type request struct {
	op     string
	method string
	path   string
	query  url.Values
	body   any
	header http.Header

	// token overrides the bearer token. Empty uses the anon key, or the
	// user token when useSession is set.
	token      string
	useSession bool

	// fallback is the error message used when the body carries none.
	fallback string
}

// do executes r and decodes a successful JSON body into out (if non-nil).
func (c *Client) do(ctx context.Context, r request, out any) error {
	return c.mw.Run(ctx, observe.Op{Component: "backend", Name: r.op}, func(ctx context.Context) error {
		if c.breaker == nil {
			return c.send(ctx, r, out)
		}
		return c.breaker.Execute(ctx, func(ctx context.Context) error {
			return c.send(ctx, r, out)
		})
	})
}

func (c *Client) send(ctx context.Context, r request, out any) error {
	u := *c.base
	u.Path = c.base.Path + r.path
	if len(r.query) > 0 {
		u.RawQuery = r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		raw, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("backend: encode %s body: %w", r.op, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u.String(), body)
	if err != nil {
		return fmt.Errorf("backend: build %s request: %w", r.op, err)
	}
	for k, vs := range r.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+c.bearer(r))
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Client-Info", clientInfo)
	req.Header.Set("X-Request-Id", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("backend: %s: %w", r.op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("backend: read %s response: %w", r.op, err)
	}

	if resp.StatusCode >= 400 {
		return decodeAPIError(resp.StatusCode, raw, r.fallback)
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("backend: decode %s response: %w", r.op, err)
	}
	return nil
}

func (c *Client) bearer(r request) string {
	if r.token != "" {
		return r.token
	}
	if r.useSession {
		if tok, ok := c.userToken(); ok {
			return tok
		}
	}
	return c.anonKey
}
