package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	v1 "github.com/roam-social/roam-feed/internal/api/v1"
)

const discoveryBody = `{
	"_embedded": {
		"events": [
			{
				"id": "tm-1",
				"name": "NBA Playoffs",
				"classifications": [{"segment": {"name": "Sports"}, "genre": {"name": "Basketball"}}],
				"dates": {"start": {"dateTime": "2030-06-01T19:00:00Z"}},
				"images": [{"url": "https://img.example/1.jpg"}],
				"_embedded": {
					"venues": [{
						"name": "The Garden",
						"city": {"name": "New York"},
						"location": {"latitude": "40.7505", "longitude": "-73.9934"}
					}]
				}
			},
			{
				"id": "tm-2",
				"name": "No Venue Gig",
				"dates": {"start": {"dateTime": "2030-06-02T19:00:00Z"}}
			}
		]
	}
}`

var testLocation = v1.GeoPoint{Lat: 40.7580, Lon: -73.9855}

func newTestClient(t *testing.T, handler http.HandlerFunc, cfg HTTPClientConfig) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg.BaseURL = srv.URL
	if cfg.APIKey == "" {
		cfg.APIKey = "test-key"
	}
	return NewHTTPClient(cfg)
}

func TestFetchEvents_ParsesDiscoveryPayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "test-key", r.URL.Query().Get("apikey"))
		require.Equal(t, "miles", r.URL.Query().Get("unit"))
		w.Write([]byte(discoveryBody))
	}, HTTPClientConfig{})

	events, err := c.FetchEvents(context.Background(), "user-1", testLocation, 25, false)
	require.NoError(t, err)
	require.Len(t, events, 2)

	first := events[0]
	require.Equal(t, "tm-1", first.ID)
	require.Equal(t, "NBA Playoffs", first.Name)
	require.Equal(t, "Sports", first.Category)
	require.Equal(t, "Basketball", first.Genre)
	require.Equal(t, "The Garden", first.Venue)
	require.Equal(t, "New York", first.City)
	require.NotNil(t, first.Location)
	require.InDelta(t, 40.7505, first.Location.Lat, 0.0001)

	// Venue-less events come through with nil location; normalization drops them.
	require.Nil(t, events[1].Location)
}

func TestFetchEvents_CacheAvoidsSecondCall(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(discoveryBody))
	}, HTTPClientConfig{})

	_, err := c.FetchEvents(context.Background(), "user-1", testLocation, 25, false)
	require.NoError(t, err)
	_, err = c.FetchEvents(context.Background(), "user-1", testLocation, 25, false)
	require.NoError(t, err)
	require.Equal(t, int32(1), calls.Load())

	// Force refresh bypasses the cache.
	_, err = c.FetchEvents(context.Background(), "user-1", testLocation, 25, true)
	require.NoError(t, err)
	require.Equal(t, int32(2), calls.Load())
}

func TestFetchEvents_429MapsToRateLimit(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}, HTTPClientConfig{})

	_, err := c.FetchEvents(context.Background(), "user-1", testLocation, 25, false)
	require.ErrorIs(t, err, ErrRateLimitExceeded)
}

func TestQuota_ExhaustionBlocksAndCheckCanCallReads(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(discoveryBody))
	}, HTTPClientConfig{DailyQuota: 2})

	ctx := context.Background()

	ok, err := c.CheckCanCall(ctx, "user-1")
	require.NoError(t, err)
	require.True(t, ok)

	// Spend the quota with forced refreshes so the cache cannot absorb them.
	_, err = c.FetchEvents(ctx, "user-1", testLocation, 25, true)
	require.NoError(t, err)
	_, err = c.FetchEvents(ctx, "user-1", testLocation, 25, true)
	require.NoError(t, err)

	ok, err = c.CheckCanCall(ctx, "user-1")
	require.NoError(t, err)
	require.False(t, ok)

	_, err = c.FetchEvents(ctx, "user-1", testLocation, 25, true)
	require.ErrorIs(t, err, ErrRateLimitExceeded)

	// Quota is per identity.
	ok, err = c.CheckCanCall(ctx, "user-2")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestQuota_ResetsNextDay(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(discoveryBody))
	}, HTTPClientConfig{DailyQuota: 1})

	day := time.Date(2026, 8, 31, 23, 0, 0, 0, time.UTC)
	c.nowFn = func() time.Time { return day }

	ctx := context.Background()
	_, err := c.FetchEvents(ctx, "user-1", testLocation, 25, true)
	require.NoError(t, err)

	ok, _ := c.CheckCanCall(ctx, "user-1")
	require.False(t, ok)

	c.nowFn = func() time.Time { return day.Add(2 * time.Hour) } // past UTC midnight
	ok, _ = c.CheckCanCall(ctx, "user-1")
	require.True(t, ok)
}

func TestCachedEvents_TTLExpiry(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(discoveryBody))
	}, HTTPClientConfig{CacheTTL: 10 * time.Minute})

	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	c.nowFn = func() time.Time { return now }

	_, err := c.FetchEvents(context.Background(), "user-1", testLocation, 25, false)
	require.NoError(t, err)

	cached, ok := c.CachedEvents(testLocation, 25)
	require.True(t, ok)
	require.Len(t, cached, 2)

	c.nowFn = func() time.Time { return now.Add(11 * time.Minute) }
	_, ok = c.CachedEvents(testLocation, 25)
	require.False(t, ok)
}
