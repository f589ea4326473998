package mediawiki

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/cenkalti/backoff.v1"

	"github.com/ppiankov/wikitrust/internal/cache"
	"github.com/ppiankov/wikitrust/internal/metrics"
	"github.com/ppiankov/wikitrust/internal/worker"
)

const maxBodyBytes = 8 << 20

// Options configures a Client
type Options struct {
	BaseURL   string // Wiki origin, e.g. https://en.wikipedia.org
	UserAgent string
	Timeout   time.Duration

	Cache    cache.Cache // nil disables caching
	CacheTTL time.Duration
	Limiter  *worker.Limiter // nil disables rate limiting

	MaxAttempts  int
	InitialDelay time.Duration
	Multiplier   float64

	HTTPProxy  string
	HTTPSProxy string

	Logger zerolog.Logger
}

// Client talks to the MediaWiki Action API and the REST history endpoints
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	cache      cache.Cache
	cacheTTL   time.Duration
	limiter    *worker.Limiter

	maxAttempts  int
	initialDelay time.Duration
	multiplier   float64
	sleep        func(ctx context.Context, d time.Duration) error

	logger zerolog.Logger
}

// NewClient creates a new API client
func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.InitialDelay <= 0 {
		opts.InitialDelay = 350 * time.Millisecond
	}
	if opts.Multiplier <= 0 {
		opts.Multiplier = 2
	}

	return &Client{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		userAgent: opts.UserAgent,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				Proxy: proxyFunc(opts.HTTPProxy, opts.HTTPSProxy),
			},
		},
		cache:        opts.Cache,
		cacheTTL:     opts.CacheTTL,
		limiter:      opts.Limiter,
		maxAttempts:  opts.MaxAttempts,
		initialDelay: opts.InitialDelay,
		multiplier:   opts.Multiplier,
		sleep:        sleepContext,
		logger:       opts.Logger.With().Str("component", "mediawiki").Logger(),
	}
}

// WithSleep replaces the delay function used between retries
func (c *Client) WithSleep(sleep func(ctx context.Context, d time.Duration) error) *Client {
	c.sleep = sleep
	return c
}

// BaseURL returns the wiki origin the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// proxyFunc uses the configured proxies, or the environment when none is set
func proxyFunc(httpProxy, httpsProxy string) func(*http.Request) (*url.URL, error) {
	if httpProxy == "" && httpsProxy == "" {
		return http.ProxyFromEnvironment
	}

	return func(req *http.Request) (*url.URL, error) {
		if req.URL.Scheme == "https" && httpsProxy != "" {
			return url.Parse(httpsProxy)
		}
		if httpProxy != "" {
			return url.Parse(httpProxy)
		}
		return http.ProxyFromEnvironment(req)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// schedule returns the retry delays: initial, then multiplied each attempt
func (c *Client) schedule() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initialDelay
	b.Multiplier = c.multiplier
	b.RandomizationFactor = 0
	b.MaxInterval = time.Hour
	b.MaxElapsedTime = 24 * time.Hour
	b.Reset()
	return b
}

// withRetry runs attempt until it succeeds, fails definitively, or the
// attempt budget runs out
func (c *Client) withRetry(ctx context.Context, endpoint string, attempt func(ctx context.Context) *APIError) error {
	delays := c.schedule()

	var last *APIError
	for n := 1; n <= c.maxAttempts; n++ {
		last = attempt(ctx)
		if last == nil {
			metrics.APIRequestsTotal.WithLabelValues(endpoint, "ok").Inc()
			return nil
		}
		last.Endpoint = endpoint
		last.Attempts = n

		if err := ctx.Err(); err != nil {
			metrics.APIRequestsTotal.WithLabelValues(endpoint, "failed").Inc()
			return fmt.Errorf("%s: %w", endpoint, err)
		}
		if !last.Retriable() {
			break
		}
		if n == c.maxAttempts {
			last.Exhausted = true
			break
		}

		delay := delays.NextBackOff()
		metrics.APIRetriesTotal.WithLabelValues(endpoint).Inc()
		c.logger.Debug().
			Str("endpoint", endpoint).
			Int("status", last.Status).
			Str("code", last.Code).
			Int("attempt", n).
			Dur("next_delay", delay).
			Msg("Retrying after transient failure")

		if err := c.sleep(ctx, delay); err != nil {
			metrics.APIRequestsTotal.WithLabelValues(endpoint, "failed").Inc()
			return fmt.Errorf("%s: %w", endpoint, err)
		}
	}

	outcome := "failed"
	if last.Exhausted {
		outcome = "exhausted"
	}
	metrics.APIRequestsTotal.WithLabelValues(endpoint, outcome).Inc()
	return last
}

// get performs one GET request and returns the status and body
func (c *Client) get(ctx context.Context, rawURL string) (int, []byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, rawURL); err != nil {
			return 0, nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read body: %w", err)
	}
	return resp.StatusCode, body, nil
}

// apiErrorEnvelope is the error member of an Action API payload
type apiErrorEnvelope struct {
	Error *struct {
		Code string `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
}

// call issues one Action API request and decodes the payload into out. A
// body that is not valid JSON decodes as no data.
func (c *Client) call(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	params.Set("format", "json")
	params.Set("formatversion", "2")
	params.Set("maxlag", "5")
	apiURL := c.baseURL + "/w/api.php?" + params.Encode()

	return c.withRetry(ctx, endpoint, func(ctx context.Context) *APIError {
		status, body, err := c.get(ctx, apiURL)
		if err != nil {
			return &APIError{Status: status, Err: err}
		}

		var envelope apiErrorEnvelope
		if err := json.Unmarshal(body, &envelope); err != nil {
			c.logger.Debug().Err(err).Str("endpoint", endpoint).Msg("Ignoring malformed response body")
		}
		if envelope.Error != nil && envelope.Error.Code != "" {
			return &APIError{Status: status, Code: envelope.Error.Code, Info: envelope.Error.Info}
		}
		if status < 200 || status >= 300 {
			return &APIError{Status: status}
		}

		if err := json.Unmarshal(body, out); err != nil {
			c.logger.Debug().Err(err).Str("endpoint", endpoint).Msg("Response is not JSON, treating as empty")
		}
		return nil
	})
}

// cached decodes a cached value into out. It reports false on a miss.
func (c *Client) cached(kind, key string, out interface{}) bool {
	if c.cache == nil {
		return false
	}
	data, ok := c.cache.Get(key)
	if !ok {
		metrics.CacheLookupsTotal.WithLabelValues(kind, "miss").Inc()
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		metrics.CacheLookupsTotal.WithLabelValues(kind, "miss").Inc()
		return false
	}
	metrics.CacheLookupsTotal.WithLabelValues(kind, "hit").Inc()
	return true
}

func (c *Client) store(key string, value interface{}) {
	if c.cache == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Failed to encode cache entry")
		return
	}
	if err := c.cache.Set(key, data, c.cacheTTL); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to store cache entry")
	}
}
