package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	v1 "github.com/roam-social/roam-feed/internal/api/v1"
)

// HTTPClientConfig carries the provider API settings.
type HTTPClientConfig struct {
	BaseURL    string
	APIKey     string
	PageSize   int
	Timeout    time.Duration
	DailyQuota int           // provider calls per identity per UTC day
	CacheTTL   time.Duration // freshness window for CachedEvents
}

func (c HTTPClientConfig) normalized() HTTPClientConfig {
	if c.PageSize <= 0 {
		c.PageSize = 50
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.DailyQuota <= 0 {
		c.DailyQuota = 200
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = 15 * time.Minute
	}
	return c
}

// HTTPClient implements Client against a Discovery-style events API.
//
// Outbound calls are paced with a token-bucket limiter so a burst of feed
// reloads cannot trip the provider's per-second cap; identical in-flight
// queries are collapsed through singleflight so concurrent engines asking for
// the same (location, radius) cost one upstream call.
type HTTPClient struct {
	cfg     HTTPClientConfig
	http    *http.Client
	limiter *rate.Limiter
	group   singleflight.Group

	mu    sync.Mutex
	cache map[string]cacheEntry
	quota map[string]*quotaWindow

	nowFn func() time.Time
}

type cacheEntry struct {
	events   []RawEvent
	storedAt time.Time
}

// quotaWindow counts one identity's provider calls for one UTC day.
type quotaWindow struct {
	day  string
	used int
}

// NewHTTPClient creates a provider client. Pacing is fixed at 5 requests per
// second with burst 1, matching the provider's published per-key cap.
func NewHTTPClient(cfg HTTPClientConfig) *HTTPClient {
	cfg = cfg.normalized()
	return &HTTPClient{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Every(200*time.Millisecond), 1),
		cache:   make(map[string]cacheEntry),
		quota:   make(map[string]*quotaWindow),
		nowFn:   func() time.Time { return time.Now().UTC() },
	}
}

// CheckCanCall reports whether userID has daily quota left. Pure read: it
// never consumes quota.
func (c *HTTPClient) CheckCanCall(_ context.Context, userID string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remainingLocked(userID) > 0, nil
}

// CachedEvents serves the freshest cached page for the query, if any.
func (c *HTTPClient) CachedEvents(location v1.GeoPoint, radiusMiles float64) ([]RawEvent, bool) {
	key := cacheKey(location, radiusMiles)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.cache[key]
	if !ok || c.nowFn().Sub(entry.storedAt) > c.cfg.CacheTTL {
		return nil, false
	}
	return entry.events, true
}

// FetchEvents performs the provider query, serving fresh cache hits without
// spending quota unless forceRefresh is set.
func (c *HTTPClient) FetchEvents(ctx context.Context, userID string, location v1.GeoPoint, radiusMiles float64, forceRefresh bool) ([]RawEvent, error) {
	key := cacheKey(location, radiusMiles)

	if !forceRefresh {
		if events, ok := c.CachedEvents(location, radiusMiles); ok {
			slog.Debug("[Provider] Cache hit", "key", key, "events", len(events))
			return events, nil
		}
	}

	if err := c.consumeQuota(userID); err != nil {
		return nil, err
	}

	result, err, shared := c.group.Do(key, func() (interface{}, error) {
		return c.fetch(ctx, location, radiusMiles)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		slog.Debug("[Provider] Collapsed concurrent fetch", "key", key)
	}

	events := result.([]RawEvent)

	c.mu.Lock()
	c.cache[key] = cacheEntry{events: events, storedAt: c.nowFn()}
	c.mu.Unlock()

	return events, nil
}

func (c *HTTPClient) consumeQuota(userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.remainingLocked(userID) <= 0 {
		slog.Warn("[Provider] Daily quota exhausted", "user_id", userID)
		return ErrRateLimitExceeded
	}
	c.quota[userID].used++
	return nil
}

// remainingLocked returns the identity's remaining calls for the current UTC
// day, rolling the window when the day changes. Caller holds c.mu.
func (c *HTTPClient) remainingLocked(userID string) int {
	day := c.nowFn().Format("2006-01-02")
	w, ok := c.quota[userID]
	if !ok || w.day != day {
		w = &quotaWindow{day: day}
		c.quota[userID] = w
	}
	return c.cfg.DailyQuota - w.used
}

func (c *HTTPClient) fetch(ctx context.Context, location v1.GeoPoint, radiusMiles float64) ([]RawEvent, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("apikey", c.cfg.APIKey)
	q.Set("latlong", fmt.Sprintf("%.4f,%.4f", location.Lat, location.Lon))
	q.Set("radius", strconv.Itoa(int(radiusMiles)))
	q.Set("unit", "miles")
	q.Set("size", strconv.Itoa(c.cfg.PageSize))
	q.Set("sort", "date,asc")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/events.json?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", ErrFetch, err)
	}
	req.Header.Set("User-Agent", "roam-feed/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimitExceeded
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: HTTP %d: %s", ErrFetch, resp.StatusCode, body)
	}

	var page discoveryPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrFetch, err)
	}

	events := page.rawEvents()
	slog.Info("[Provider] Fetched events",
		"count", len(events),
		"lat", location.Lat,
		"lon", location.Lon,
		"radius_miles", radiusMiles,
	)
	return events, nil
}

// cacheKey buckets coordinates to ~11m so jittery device locations share a
// cache entry.
func cacheKey(location v1.GeoPoint, radiusMiles float64) string {
	return fmt.Sprintf("%.4f:%.4f:%.0f", location.Lat, location.Lon, radiusMiles)
}
