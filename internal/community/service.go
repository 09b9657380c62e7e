package community

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	v1 "github.com/roam-social/roam-feed/internal/api/v1"
	"github.com/roam-social/roam-feed/internal/core/storage"
)

// Service is the intake API for user-submitted events. Events land in the
// community store and surface in feeds through the aggregation engine's
// community source.
type Service struct {
	store            storage.CommunityEventStore
	maxBodySizeBytes int
	nowFn            func() time.Time
}

func NewService(store storage.CommunityEventStore, maxBodySizeMB int) *Service {
	if store == nil {
		panic("community: store must not be nil")
	}
	if maxBodySizeMB <= 0 {
		maxBodySizeMB = 1 // default to 1MB
	}
	return &Service{
		store:            store,
		maxBodySizeBytes: maxBodySizeMB * 1024 * 1024,
		nowFn:            time.Now,
	}
}

// RegisterRoutes registers the community intake routes.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.POST("/v1/community/events", s.CreateHandler)
	r.GET("/v1/community/events/:event_id", s.GetHandler)
	r.GET("/v1/community/events", s.NearbyHandler)
}

// StoreClient exposes the community store as the feed engine's community
// source.
type StoreClient struct {
	store storage.CommunityEventStore
}

func NewStoreClient(store storage.CommunityEventStore) *StoreClient {
	if store == nil {
		panic("community: store must not be nil")
	}
	return &StoreClient{store: store}
}

func (c *StoreClient) FetchNearby(ctx context.Context, location v1.GeoPoint, radiusMiles float64) ([]*v1.CommunityEvent, error) {
	return c.store.FetchNearby(ctx, location, radiusMiles)
}
