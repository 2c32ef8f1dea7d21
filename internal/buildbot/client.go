package buildbot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultMaxAttempts = 2
	defaultRetryDelay  = time.Second
	defaultUserAgent   = "tower/0.1"

	forceReason = "launched externally"
)

// TransportFactory builds the round tripper used for one connection to an
// endpoint. It is called once per Establish.
type TransportFactory func(Endpoint) http.RoundTripper

// Option customizes a Client.
type Option func(*Client)

// WithMaxAttempts sets the total number of tries per request. Values below
// one are treated as one.
func WithMaxAttempts(n int) Option {
	return func(c *Client) { c.maxAttempts = n }
}

// WithRetryDelay sets the fixed pause between a failed try and the next one.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) { c.retryDelay = d }
}

// WithSleeper replaces time.Sleep for the pause between tries.
func WithSleeper(sleep func(time.Duration)) Option {
	return func(c *Client) { c.sleep = sleep }
}

// WithTransportFactory replaces the default transport constructor.
func WithTransportFactory(f TransportFactory) Option {
	return func(c *Client) { c.newTransport = f }
}

// WithLogger sets the logger used for retry diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.header.Set("User-Agent", ua) }
}

// WithTimeout bounds each HTTP exchange. Zero leaves the transport defaults.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// Client talks to the Buildbot JSON status API over one lazily established
// connection. A Client is not safe for concurrent use; callers sharing one
// must serialize access.
type Client struct {
	url      string
	endpoint Endpoint
	http     *http.Client
	header   http.Header

	user     string
	password string

	maxAttempts  int
	retryDelay   time.Duration
	timeout      time.Duration
	sleep        func(time.Duration)
	newTransport TransportFactory
	logger       *slog.Logger
}

// NewClient creates a Client. When baseURL is non-empty the endpoint is
// configured immediately.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	c := &Client{
		header:       make(http.Header),
		maxAttempts:  defaultMaxAttempts,
		retryDelay:   defaultRetryDelay,
		sleep:        time.Sleep,
		newTransport: defaultTransport,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	c.header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	c.header.Set("User-Agent", defaultUserAgent)
	for _, opt := range opts {
		opt(c)
	}
	if baseURL != "" {
		if err := c.SetEndpoint(baseURL); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// SetEndpoint points the client at rawURL, rebuilding the transport when the
// URL changed. Setting the current URL again is a no-op.
func (c *Client) SetEndpoint(rawURL string) error {
	if c.http != nil && c.url == rawURL {
		return nil
	}
	ep, err := ParseEndpoint(rawURL)
	if err != nil {
		return err
	}
	c.url = rawURL
	c.endpoint = ep
	c.Establish()
	return nil
}

// Establish (re)creates the transport for the configured endpoint. Without an
// endpoint it does nothing and requests keep failing with ErrNotConnected.
func (c *Client) Establish() {
	if c.endpoint.Host == "" {
		return
	}
	if c.http != nil {
		c.http.CloseIdleConnections()
	}
	c.http = &http.Client{
		Transport: c.newTransport(c.endpoint),
		Timeout:   c.timeout,
		// A 3xx is a successful answer here; the caller inspects it.
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// Endpoint returns the configured endpoint and whether one is set.
func (c *Client) Endpoint() (Endpoint, bool) {
	return c.endpoint, c.endpoint.Host != ""
}

// Header returns a copy of the headers attached to every request.
func (c *Client) Header() http.Header {
	return c.header.Clone()
}

// User returns the user name of the last successful login.
func (c *Client) User() string {
	return c.user
}

// Request performs method on path with bounded retries. A try fails on a
// transport error or a status outside [200, 400); failed tries are followed
// by a fixed pause and a fresh transport. On success the response is
// returned unread and the caller must close its body.
func (c *Client) Request(ctx context.Context, method, path string, form url.Values) (*http.Response, error) {
	if c.http == nil {
		return nil, ErrNotConnected
	}

	escaped := quotePath(path)
	var body string
	if len(form) > 0 {
		body = form.Encode()
	}

	attempts := max(c.maxAttempts, 1)
	for attempt := 1; ; attempt++ {
		resp, err := c.do(ctx, method, path, escaped, body)
		var failure *RequestFailedError
		switch {
		case err != nil:
			failure = &RequestFailedError{Method: method, Path: escaped, Err: err}
		case resp.StatusCode < 200 || resp.StatusCode >= 400:
			drain(resp)
			failure = &RequestFailedError{
				Method: method,
				Path:   escaped,
				Status: resp.StatusCode,
				Reason: statusReason(resp),
			}
		default:
			return resp, nil
		}

		if attempt >= attempts || ctx.Err() != nil {
			return nil, failure
		}
		c.logger.Warn("request failed, reconnecting",
			"method", method,
			"path", escaped,
			"attempt", attempt,
			"error", failure,
		)
		c.sleep(c.retryDelay)
		c.Establish()
	}
}

func (c *Client) do(ctx context.Context, method, path, escaped, body string) (*http.Response, error) {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.URL = &url.URL{
		Scheme:  c.endpoint.Scheme,
		Host:    c.endpoint.Host,
		Path:    path,
		RawPath: escaped,
	}
	req.Header = c.header.Clone()
	return c.http.Do(req)
}

// ListBuilders returns the builder names known to the server, in the order
// the server lists them.
func (c *Client) ListBuilders(ctx context.Context) ([]string, error) {
	resp, err := c.Request(ctx, http.MethodGet, "/json/builders", nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	names, err := objectKeys(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode builders: %w", err)
	}
	return names, nil
}

// Login posts credentials and keeps the returned session cookie for later
// requests. A response without a cookie means the credentials were refused
// and yields false without an error.
func (c *Client) Login(ctx context.Context, user, password string) (bool, error) {
	form := url.Values{}
	form.Set("username", user)
	form.Set("passwd", password)
	resp, err := c.Request(ctx, http.MethodPost, "/login", form)
	if err != nil {
		return false, err
	}
	drain(resp)

	cookie := strings.Join(resp.Header.Values("Set-Cookie"), ", ")
	if cookie == "" {
		return false, nil
	}
	c.header.Set("Cookie", cookie)
	c.user = user
	c.password = password
	return true, nil
}

// TriggerBuild asks the force scheduler to start builder.
func (c *Client) TriggerBuild(ctx context.Context, builder string) error {
	form := url.Values{}
	form.Set("reason", forceReason)
	form.Set("forcescheduler", "force")
	resp, err := c.Request(ctx, http.MethodPost, fmt.Sprintf("/builders/%s/force", builder), form)
	if err != nil {
		return err
	}
	drain(resp)
	return nil
}

// GetBuild fetches and parses build number of builder. Negative numbers count
// back from the newest build.
func (c *Client) GetBuild(ctx context.Context, builder string, number int) (BuildRecord, error) {
	resp, err := c.Request(ctx, http.MethodGet, fmt.Sprintf("/json/builders/%s/builds/%d", builder, number), nil)
	if err != nil {
		return BuildRecord{}, err
	}
	defer func() { _ = resp.Body.Close() }()
	return ParseBuild(resp.Body)
}

// LastBuild fetches the newest build of builder.
func (c *Client) LastBuild(ctx context.Context, builder string) (BuildRecord, error) {
	return c.GetBuild(ctx, builder, -1)
}

func objectKeys(r io.Reader) ([]string, error) {
	dec := json.NewDecoder(r)
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.New("expected a JSON object")
	}
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func statusReason(resp *http.Response) string {
	if reason, ok := strings.CutPrefix(resp.Status, strconv.Itoa(resp.StatusCode)+" "); ok && reason != "" {
		return reason
	}
	return http.StatusText(resp.StatusCode)
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

func defaultTransport(Endpoint) http.RoundTripper {
	return http.DefaultTransport.(*http.Transport).Clone()
}
