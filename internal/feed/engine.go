// Package feed owns the event aggregation engine: it coordinates the
// concurrent provider/community fetches, gates provider calls behind the
// rate-limit state, merges both sources into one canonical ordered list, and
// publishes FeedState transitions to subscribers.
package feed

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	v1 "github.com/roam-social/roam-feed/internal/api/v1"
	"github.com/roam-social/roam-feed/internal/core/geo"
	"github.com/roam-social/roam-feed/internal/normalize"
	"github.com/roam-social/roam-feed/internal/provider"
)

// IdentityProvider resolves the current user. Absence of an identity is a
// defined empty state for the feed, not an error.
type IdentityProvider interface {
	CurrentUserID(ctx context.Context) (string, bool)
}

// CommunityClient fetches community events near a location. A failure here is
// non-fatal: the engine degrades the community source to an empty result.
type CommunityClient interface {
	FetchNearby(ctx context.Context, location v1.GeoPoint, radiusMiles float64) ([]*v1.CommunityEvent, error)
}

// Deps are the engine's constructor-injected collaborators.
type Deps struct {
	Identity   IdentityProvider
	Provider   provider.Client
	Community  CommunityClient
	Normalizer *normalize.Normalizer
}

// Config carries the engine's tunables.
type Config struct {
	// DebounceInterval is how long radius changes must settle before a
	// reload fires. Defaults to 500ms.
	DebounceInterval time.Duration

	// DefaultRadiusMiles is the search radius before the user picks one.
	// Defaults to 25.
	DefaultRadiusMiles float64

	// LoadTimeout bounds a debounce-triggered background reload.
	// Defaults to 30s.
	LoadTimeout time.Duration
}

func (c Config) normalized() Config {
	if c.DebounceInterval <= 0 {
		c.DebounceInterval = 500 * time.Millisecond
	}
	if c.DefaultRadiusMiles <= 0 {
		c.DefaultRadiusMiles = 25
	}
	if c.LoadTimeout <= 0 {
		c.LoadTimeout = 30 * time.Second
	}
	return c
}

// Engine aggregates the two event sources into one published feed.
//
// FeedState is single-owner: every mutation happens under mu and consumers
// only ever see snapshot copies. Loads are serialized by sequence number so a
// slow early fetch can never overwrite the results of a later one.
type Engine struct {
	deps Deps
	cfg  Config
	gate *RateLimitGate

	debounce *debouncer
	nowFn    func() time.Time

	mu          sync.Mutex
	state       FeedState
	location    *v1.GeoPoint
	radiusMiles float64
	typeFilter  *v1.ActivityType
	loadSeq     uint64
	appliedSeq  uint64

	subsMu      sync.Mutex
	subscribers []func(FeedState)
}

// NewEngine creates an engine with an empty feed.
func NewEngine(deps Deps, cfg Config) *Engine {
	if deps.Identity == nil {
		panic("feed: identity provider must not be nil")
	}
	if deps.Provider == nil {
		panic("feed: provider client must not be nil")
	}
	if deps.Community == nil {
		panic("feed: community client must not be nil")
	}
	if deps.Normalizer == nil {
		panic("feed: normalizer must not be nil")
	}

	cfg = cfg.normalized()
	return &Engine{
		deps:        deps,
		cfg:         cfg,
		gate:        NewRateLimitGate(deps.Provider),
		debounce:    newDebouncer(cfg.DebounceInterval),
		nowFn:       func() time.Time { return time.Now().UTC() },
		radiusMiles: cfg.DefaultRadiusMiles,
		state: FeedState{
			Events:         []v1.CanonicalEvent{},
			FilteredEvents: []v1.CanonicalEvent{},
		},
	}
}

// Subscribe registers a callback observing FeedState transitions. Callbacks
// receive snapshot copies and run outside the engine's lock.
func (e *Engine) Subscribe(fn func(FeedState)) {
	e.subsMu.Lock()
	e.subscribers = append(e.subscribers, fn)
	e.subsMu.Unlock()
}

// State returns a snapshot of the current feed state.
func (e *Engine) State() FeedState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.snapshot()
}

// SetLocation replaces the reference location. It does not trigger a fetch by
// itself; callers decide when to Load.
func (e *Engine) SetLocation(p v1.GeoPoint) {
	e.mu.Lock()
	e.location = &p
	e.mu.Unlock()
}

// SetRadius updates the search radius and schedules a debounced reload.
// Rapid successive changes reset the timer; only the last radius of a burst
// is loaded. Returns geo.ErrNegativeRadius for a negative radius.
func (e *Engine) SetRadius(radiusMiles float64) error {
	if radiusMiles < 0 {
		return geo.ErrNegativeRadius
	}

	e.mu.Lock()
	e.radiusMiles = radiusMiles
	e.mu.Unlock()

	e.debounce.Trigger(func() {
		ctx, cancel := context.WithTimeout(context.Background(), e.cfg.LoadTimeout)
		defer cancel()
		if err := e.Load(ctx); err != nil {
			slog.Error("[Engine] Debounced reload failed", "error", err)
		}
	})
	return nil
}

// SetActivityTypeFilter applies immediately and re-runs only the filter
// stage; no network fetch. A nil filter shows all types.
func (e *Engine) SetActivityTypeFilter(t *v1.ActivityType) {
	e.mu.Lock()
	e.typeFilter = t
	e.refilterLocked()
	snapshot := e.state.snapshot()
	e.mu.Unlock()

	e.notify(snapshot)
}

// refilterLocked recomputes FilteredEvents from Events under the current
// predicates. Caller holds e.mu.
func (e *Engine) refilterLocked() {
	if e.location == nil {
		e.state.FilteredEvents = filterByType(append([]v1.CanonicalEvent(nil), e.state.Events...), e.typeFilter)
		return
	}
	filtered, err := applyFilters(e.state.Events, *e.location, e.radiusMiles, e.typeFilter)
	if err != nil {
		// Radius is validated at SetRadius; reaching this is a programmer error.
		slog.Error("[Engine] Filter stage failed", "error", err)
		return
	}
	e.state.FilteredEvents = filtered
}

// Load runs a full fetch-merge-publish cycle. Without an identity the feed is
// cleared to empty; without a location the call is an explicit no-op. Both
// sources are fetched concurrently and each degrades independently.
func (e *Engine) Load(ctx context.Context) error {
	return e.load(ctx, false)
}

// Refresh re-runs the provider path bypassing the rate-limit pre-check.
// Community events are always fetched live, so force only affects the
// provider's cache behavior.
func (e *Engine) Refresh(ctx context.Context, force bool) error {
	return e.load(ctx, force)
}

func (e *Engine) load(ctx context.Context, forceRefresh bool) error {
	userID, ok := e.deps.Identity.CurrentUserID(ctx)
	if !ok {
		e.clearFeed()
		return nil
	}

	e.mu.Lock()
	if e.location == nil {
		e.mu.Unlock()
		return nil
	}
	location := *e.location
	radius := e.radiusMiles

	e.loadSeq++
	seq := e.loadSeq
	e.state.IsLoading = true
	loading := e.state.snapshot()
	e.mu.Unlock()

	e.notify(loading)

	var (
		providerEvents []provider.RawEvent
		providerResult sourceResult

		communityEvents []*v1.CommunityEvent
		communityErr    error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		providerEvents, providerResult = e.fetchProvider(gctx, userID, location, radius, forceRefresh)
		return nil
	})
	g.Go(func() error {
		communityEvents, communityErr = e.deps.Community.FetchNearby(gctx, location, radius)
		if communityErr != nil {
			slog.Warn("[Engine] Community fetch failed", "error", communityErr)
			communityEvents = nil
		}
		return nil
	})
	// Goroutines capture their errors; Wait only joins.
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		e.abort(seq)
		return err
	}

	e.apply(seq, location, radius, providerEvents, providerResult, communityEvents, communityErr)
	return nil
}

// abort ends a load cycle that produced no result (canceled or timed-out
// context). Status-only mutation: the loading flag clears unless a newer load
// is still in flight, events are left untouched.
func (e *Engine) abort(seq uint64) {
	e.mu.Lock()
	e.state.IsLoading = e.loadSeq > seq && e.loadSeq > e.appliedSeq
	snapshot := e.state.snapshot()
	e.mu.Unlock()

	e.notify(snapshot)
}

// sourceResult summarizes how the provider path ended.
type sourceResult struct {
	rateLimited bool
	servedCache bool
	err         error
}

// fetchProvider runs the gated provider path. Never returns an error to the
// caller: failures are folded into the sourceResult and the events degrade to
// nil (or cached data for rate limiting).
func (e *Engine) fetchProvider(ctx context.Context, userID string, location v1.GeoPoint, radius float64, forceRefresh bool) ([]provider.RawEvent, sourceResult) {
	if !forceRefresh {
		allowed, err := e.gate.CheckCanCall(ctx, userID)
		if err != nil {
			slog.Warn("[Engine] Quota check failed", "error", err)
			return nil, sourceResult{err: err}
		}
		if !allowed {
			cached, ok := e.deps.Provider.CachedEvents(location, radius)
			return cached, sourceResult{rateLimited: true, servedCache: ok}
		}
	}

	events, err := e.deps.Provider.FetchEvents(ctx, userID, location, radius, forceRefresh)
	if err == nil {
		return events, sourceResult{}
	}

	if errors.Is(err, provider.ErrRateLimitExceeded) {
		// The call itself reported exhaustion (forced refresh bypassed the
		// pre-check, or the quota drained between check and call).
		e.gate.Block()
		cached, ok := e.deps.Provider.CachedEvents(location, radius)
		return cached, sourceResult{rateLimited: true, servedCache: ok}
	}

	slog.Warn("[Engine] Provider fetch failed", "error", err)
	return nil, sourceResult{err: err}
}

// apply publishes one load cycle's outcome. Stale cycles (a newer one already
// applied) only clear the loading flag; they never overwrite newer results.
func (e *Engine) apply(seq uint64, location v1.GeoPoint, radius float64, providerEvents []provider.RawEvent, providerResult sourceResult, communityEvents []*v1.CommunityEvent, communityErr error) {
	e.mu.Lock()

	if seq <= e.appliedSeq {
		e.state.IsLoading = e.loadSeq > e.appliedSeq
		snapshot := e.state.snapshot()
		e.mu.Unlock()
		e.notify(snapshot)
		return
	}
	e.appliedSeq = seq

	e.state.IsLoading = false
	e.state.RateLimited = providerResult.rateLimited
	e.state.LastError = nil
	e.state.StatusMessage = ""
	e.state.ShowAlert = false

	bothFailed := providerResult.err != nil && communityErr != nil
	rateLimitedNoFallback := providerResult.rateLimited && !providerResult.servedCache && len(providerEvents) == 0

	switch {
	case bothFailed:
		// Status-only mutation: never flash an empty feed over a failure.
		kind := ErrorAllSources
		e.state.LastError = &kind
		e.state.StatusMessage = msgAllFailed
		e.state.ShowAlert = true

	case rateLimitedNoFallback:
		// No cache collaborator data to serve; leave the previous events
		// exactly as they were and surface the banner.
		e.state.StatusMessage = msgRateLimited

	default:
		now := e.nowFn()
		merged := mergeSources(e.deps.Normalizer, providerEvents, communityEvents, now)

		filtered, err := applyFilters(merged, location, radius, e.typeFilter)
		if err != nil {
			// Radius was validated on the way in; treat as a failed cycle.
			slog.Error("[Engine] Filter stage failed", "error", err)
			kind := ErrorAllSources
			e.state.LastError = &kind
			e.state.StatusMessage = msgAllFailed
			e.state.ShowAlert = true
			break
		}

		e.state.Events = merged
		e.state.FilteredEvents = filtered
		e.state.LastFetch = &now

		switch {
		case providerResult.rateLimited:
			e.state.StatusMessage = msgRateLimited
		case providerResult.err != nil:
			kind := ErrorProviderFetch
			e.state.LastError = &kind
			e.state.StatusMessage = msgProviderFailed
			e.state.ShowAlert = true
		case communityErr != nil:
			kind := ErrorCommunityFetch
			e.state.LastError = &kind
			e.state.StatusMessage = msgCommunityFailed
			e.state.ShowAlert = true
		}
	}

	snapshot := e.state.snapshot()
	e.mu.Unlock()

	e.notify(snapshot)
}

// clearFeed resets to the defined empty state (no identity).
func (e *Engine) clearFeed() {
	e.mu.Lock()
	e.state.Events = []v1.CanonicalEvent{}
	e.state.FilteredEvents = []v1.CanonicalEvent{}
	e.state.IsLoading = false
	e.state.RateLimited = false
	e.state.LastError = nil
	e.state.StatusMessage = ""
	e.state.ShowAlert = false
	snapshot := e.state.snapshot()
	e.mu.Unlock()

	e.notify(snapshot)
}

// Close stops the debounce timer. The engine is not usable afterwards.
func (e *Engine) Close() {
	e.debounce.Stop()
}

// EventByID finds an event in the current merged feed. Used by the join path
// to resolve a canonical event back to its source identity.
func (e *Engine) EventByID(id string) (v1.CanonicalEvent, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, evt := range e.state.Events {
		if evt.ID == id {
			return evt, true
		}
	}
	return v1.CanonicalEvent{}, false
}

func (e *Engine) notify(state FeedState) {
	e.subsMu.Lock()
	subs := append([]func(FeedState){}, e.subscribers...)
	e.subsMu.Unlock()

	for _, fn := range subs {
		fn(state)
	}
}
