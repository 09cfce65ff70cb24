package httputil

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/depforge/depforge/pkg/cache"
	"github.com/depforge/depforge/pkg/ferrors"
	"github.com/depforge/depforge/pkg/observability"
)

// Client is a cache-aware, retrying HTTP client for talking to a single
// registry (a module proxy, an archive host, etc). Namespace identifies the
// registry for cache key derivation and hook reporting.
type Client struct {
	http      *http.Client
	cache     cache.Cache
	keyer     cache.Keyer
	namespace string
	ttl       time.Duration
	headers   map[string]string
}

// NewClient builds a Client. If c is nil, caching is disabled (NullCache).
func NewClient(c cache.Cache, keyer cache.Keyer, namespace string, ttl time.Duration, headers map[string]string) *Client {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	return &Client{
		http:      &http.Client{Timeout: 10 * time.Second},
		cache:     c,
		keyer:     keyer,
		namespace: namespace,
		ttl:       ttl,
		headers:   headers,
	}
}

// GetJSON fetches url, using the cache unless refresh is true, and decodes
// the (possibly cached) body into v.
func (c *Client) GetJSON(ctx context.Context, url string, refresh bool, v any) error {
	key := c.keyer.HTTPKey(c.namespace, url)

	if !refresh {
		if data, hit, err := c.cache.Get(ctx, key); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, c.namespace)
			return json.Unmarshal(data, v)
		}
	}
	observability.Cache().OnCacheMiss(ctx, c.namespace)

	var body []byte
	err := Retry(ctx, 3, time.Second, func() error {
		data, ferr := c.fetch(ctx, url)
		if ferr != nil {
			return ferr
		}
		body = data
		return nil
	})
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, v); err != nil {
		return ferrors.Wrap(ferrors.ErrCodeNetwork, err, "decode response from %s", url)
	}

	if e := c.cache.Set(ctx, key, body, c.ttl); e == nil {
		observability.Cache().OnCacheSet(ctx, c.namespace, len(body))
	}
	return nil
}

// GetBytes fetches raw bytes from url with caching and retry, without
// assuming a JSON body (used to download archives).
func (c *Client) GetBytes(ctx context.Context, url string, refresh bool) ([]byte, error) {
	key := c.keyer.HTTPKey(c.namespace, url)

	if !refresh {
		if data, hit, err := c.cache.Get(ctx, key); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, c.namespace)
			return data, nil
		}
	}
	observability.Cache().OnCacheMiss(ctx, c.namespace)

	var body []byte
	err := Retry(ctx, 3, time.Second, func() error {
		data, ferr := c.fetch(ctx, url)
		if ferr != nil {
			return ferr
		}
		body = data
		return nil
	})
	if err != nil {
		return nil, err
	}

	if e := c.cache.Set(ctx, key, body, c.ttl); e == nil {
		observability.Cache().OnCacheSet(ctx, c.namespace, len(body))
	}
	return body, nil
}

func (c *Client) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	observability.HTTP().OnRequest(ctx, http.MethodGet, req.Host, req.URL.Path)
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		observability.HTTP().OnError(ctx, http.MethodGet, req.Host, req.URL.Path, err)
		return nil, Retryable(ferrors.Wrap(ferrors.ErrCodeNetwork, err, "request %s", url))
	}
	defer resp.Body.Close()
	observability.HTTP().OnResponse(ctx, http.MethodGet, req.Host, req.URL.Path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp.StatusCode); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, Retryable(ferrors.Wrap(ferrors.ErrCodeNetwork, err, "read body from %s", url))
	}
	return body, nil
}

// checkStatus maps an HTTP status code to a driver-shaped error.
func checkStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return ferrors.New(ferrors.ErrCodeNotFound, "resource not found")
	case code == http.StatusTooManyRequests:
		return &RateLimitedError{}
	case code >= 500:
		return Retryable(ferrors.New(ferrors.ErrCodeNetwork, "server error: %d", code))
	default:
		return ferrors.New(ferrors.ErrCodeNetwork, "unexpected status: %d", code)
	}
}

// RateLimitedError signals a 429 response from a registry.
type RateLimitedError struct{ RetryAfter int }

func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited: retry after %d seconds", e.RetryAfter)
	}
	return "rate limited"
}
