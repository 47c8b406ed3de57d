package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/MrSnakeDoc/komiku/internal/cache"
	"github.com/MrSnakeDoc/komiku/internal/logger"
	"github.com/MrSnakeDoc/komiku/internal/utils"
	"github.com/MrSnakeDoc/komiku/internal/version"
)

// RetcodeDegraded marks a response produced after every attempt failed.
const RetcodeDegraded = -1

const (
	DefaultRetries        = 2
	DefaultRetryBase      = time.Second
	DefaultRetryMaxWait   = 10 * time.Second
	DefaultAttemptTimeout = 10 * time.Second

	maxBodySize = 8 << 20
)

var (
	// ErrRateLimited is returned by an attempt answered with HTTP 429.
	ErrRateLimited = errors.New("upstream rate limited")
	// ErrStatus is wrapped with the status code of any other non-2xx answer.
	ErrStatus = errors.New("upstream error status")

	errDegraded = errors.New("upstream degraded")
)

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

type Options struct {
	BaseURL    string
	HTTPClient *http.Client

	// Cache may be nil, in which case every call goes upstream.
	Cache      cache.Cache
	Policy     cache.Policy
	StaleGrace time.Duration

	Retries        int
	RetryBase      time.Duration
	RetryMaxWait   time.Duration
	AttemptTimeout time.Duration

	// Limiter paces outbound attempts. Nil means unlimited.
	Limiter *rate.Limiter

	Sleep Sleeper
	Now   func() time.Time
}

// Client fetches JSON documents from the content API.
//
// Every call is bound to a cache tier and a set of tags. Fresh cached bodies
// are served without a round trip; expired ones are revalidated, and kept as
// a fallback while within StaleGrace if revalidation fails. Failed attempts
// are retried: HTTP 429 backs off exponentially (RetryBase·2^attempt capped
// at RetryMaxWait), other failures linearly (RetryBase·(attempt+1)). Once
// the budget is spent the call degrades instead of failing.
type Client struct {
	baseURL        string
	http           *http.Client
	cache          cache.Cache
	policy         cache.Policy
	staleGrace     time.Duration
	retries        int
	retryBase      time.Duration
	retryMaxWait   time.Duration
	attemptTimeout time.Duration
	limiter        *rate.Limiter
	sleep          Sleeper
	now            func() time.Time
	logger         logger.Logger

	group singleflight.Group
}

func New(opts Options, log logger.Logger) *Client {
	c := &Client{
		baseURL:        opts.BaseURL,
		http:           opts.HTTPClient,
		cache:          opts.Cache,
		policy:         opts.Policy,
		staleGrace:     opts.StaleGrace,
		retries:        opts.Retries,
		retryBase:      opts.RetryBase,
		retryMaxWait:   opts.RetryMaxWait,
		attemptTimeout: opts.AttemptTimeout,
		limiter:        opts.Limiter,
		sleep:          opts.Sleep,
		now:            opts.Now,
		logger:         log,
	}

	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.policy == (cache.Policy{}) {
		c.policy = cache.DefaultPolicy()
	}
	if c.retries < 0 {
		c.retries = 0
	}
	if c.retryBase <= 0 {
		c.retryBase = DefaultRetryBase
	}
	if c.retryMaxWait <= 0 {
		c.retryMaxWait = DefaultRetryMaxWait
	}
	if c.attemptTimeout <= 0 {
		c.attemptTimeout = DefaultAttemptTimeout
	}
	if c.sleep == nil {
		c.sleep = sleepContext
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Request describes one upstream call.
type Request struct {
	Path   string
	Query  url.Values
	Tier   cache.Tier
	Tags   []string
	Header http.Header

	retries *int
}

// WithRetries overrides the client's retry budget for this request.
func (r Request) WithRetries(n int) Request {
	if n < 0 {
		n = 0
	}
	r.retries = &n
	return r
}

// Response is the body of a call. A degraded response has no body and
// Retcode RetcodeDegraded.
type Response struct {
	Body      []byte
	Retcode   int
	FromCache bool
	Stale     bool
}

func (r Response) Degraded() bool { return r.Retcode == RetcodeDegraded }

// JSON parses the body. A degraded response parses as an empty document.
func (r Response) JSON() gjson.Result {
	return gjson.ParseBytes(r.Body)
}

// Err returns a non-nil error for a degraded response.
func (r Response) Err() error {
	if r.Degraded() {
		return errDegraded
	}
	return nil
}

// URL returns the cache key of the request: the absolute URL with its query
// parameters in a stable order.
func (c *Client) URL(req Request) string {
	u := c.baseURL + req.Path
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}
	return u
}

// Fetch runs req through the cache and the retry loop. It never fails: the
// worst outcome is a degraded Response.
func (c *Client) Fetch(ctx context.Context, req Request) Response {
	key := c.URL(req)
	ttl := c.policy.Duration(req.Tier)
	cacheable := ttl > 0 && c.cache != nil

	var (
		cached    cache.Entry
		hasCached bool
	)
	if cacheable {
		entry, ok, err := c.cache.Get(ctx, key)
		if err != nil {
			c.logger.Warn("cache read failed", logger.String("url", key), logger.Error(err))
		}
		if ok {
			if entry.Fresh(c.now()) {
				return Response{Body: entry.Payload, FromCache: true}
			}
			cached, hasCached = entry, true
		}
	}

	retries := c.retries
	if req.retries != nil {
		retries = *req.retries
	}

	// Concurrent callers for the same URL share one upstream round trip. The
	// shared work is detached from the caller that happened to start it.
	v, _, _ := c.group.Do(key, func() (any, error) {
		body, err := c.fetchWithRetry(context.WithoutCancel(ctx), key, req.Header, retries)
		if err != nil {
			return nil, err
		}
		if cacheable {
			c.store(ctx, key, req, ttl, body)
		}
		return body, nil
	})

	if body, ok := v.([]byte); ok {
		return Response{Body: body}
	}

	if hasCached && cached.Usable(c.now(), c.staleGrace) {
		c.logger.Info("serving stale response after failed revalidation",
			logger.String("url", key),
			logger.Duration("age", c.now().Sub(cached.StoredAt)))
		return Response{Body: cached.Payload, FromCache: true, Stale: true}
	}

	return Response{Retcode: RetcodeDegraded}
}

// Invalidate drops every cached response registered under any of tags.
func (c *Client) Invalidate(ctx context.Context, tags ...string) (int, error) {
	if c.cache == nil || len(tags) == 0 {
		return 0, nil
	}

	n, err := c.cache.InvalidateTags(ctx, tags...)
	if err != nil {
		return n, fmt.Errorf("failed to invalidate tags %v: %w", tags, err)
	}

	c.logger.Info("cache invalidated", logger.Strings("tags", tags), logger.Int("entries", n))
	return n, nil
}

func (c *Client) store(ctx context.Context, key string, req Request, ttl time.Duration, body []byte) {
	entry := cache.Entry{
		Payload:  body,
		Tags:     req.Tags,
		StoredAt: c.now(),
		TTL:      ttl,
	}
	if err := c.cache.Set(context.WithoutCancel(ctx), key, entry); err != nil {
		c.logger.Warn("cache write failed", logger.String("url", key), logger.Error(err))
	}
}

func (c *Client) fetchWithRetry(ctx context.Context, u string, header http.Header, retries int) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= retries; attempt++ {
		body, err := c.do(ctx, u, header)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if errors.Is(err, ErrRateLimited) {
			if attempt == retries {
				c.logger.Warn("upstream still rate limited, giving up",
					logger.String("url", u),
					logger.Int("attempts", attempt+1))
				return nil, err
			}
			wait := c.backoff(attempt)
			c.logger.Info("upstream rate limited, backing off",
				logger.String("url", u),
				logger.Int("attempt", attempt+1),
				logger.Duration("wait", wait))
			if err := c.sleep(ctx, wait); err != nil {
				return nil, err
			}
			continue
		}

		if attempt == retries {
			c.logger.Error("upstream fetch failed",
				logger.String("url", u),
				logger.Int("attempts", attempt+1),
				logger.Error(err))
			return nil, err
		}

		wait := c.retryBase * time.Duration(attempt+1)
		c.logger.Debug("upstream fetch failed, retrying",
			logger.String("url", u),
			logger.Int("attempt", attempt+1),
			logger.Duration("wait", wait),
			logger.Error(err))
		if err := c.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}

	return nil, lastErr
}

// backoff is the wait after a 429 on the given zero-based attempt.
func (c *Client) backoff(attempt int) time.Duration {
	if attempt >= 30 {
		return c.retryMaxWait
	}
	wait := c.retryBase << attempt
	if wait <= 0 || wait > c.retryMaxWait {
		return c.retryMaxWait
	}
	return wait
}

// do performs a single attempt bounded by the attempt timeout.
func (c *Client) do(ctx context.Context, u string, header http.Header) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.attemptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "komiku/"+version.Version)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer utils.DrainClose(resp.Body)

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("invalid json body (%d bytes)", len(body))
	}

	return body, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
