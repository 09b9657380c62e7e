package feed

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	v1 "github.com/roam-social/roam-feed/internal/api/v1"
	httperr "github.com/roam-social/roam-feed/internal/core/errors"
	"github.com/roam-social/roam-feed/internal/core/geo"
	"github.com/roam-social/roam-feed/internal/core/storage"
	"github.com/roam-social/roam-feed/internal/core/taxonomy"
	"github.com/roam-social/roam-feed/internal/identity"
)

// RegisterRoutes registers the feed API routes.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.GET("/v1/feed", s.HandleGetFeed)
	r.GET("/v1/feed/activity-types", s.HandleActivityTypes)
	r.POST("/v1/feed/load", s.HandleLoad)
	r.POST("/v1/feed/refresh", s.HandleRefresh)
	r.PUT("/v1/feed/location", s.HandleSetLocation)
	r.PUT("/v1/feed/radius", s.HandleSetRadius)
	r.PUT("/v1/feed/filter", s.HandleSetFilter)
	r.POST("/v1/feed/events/:event_id/join", s.HandleJoinEvent)
}

// HandleGetFeed returns the identity's current feed state. Without an
// identity the response is the defined empty state, not an error.
func (s *Service) HandleGetFeed(c *gin.Context) {
	userID, ok := identity.FromRequest(c.Request)
	if !ok {
		c.JSON(http.StatusOK, FeedState{
			Events:         []v1.CanonicalEvent{},
			FilteredEvents: []v1.CanonicalEvent{},
		})
		return
	}
	c.JSON(http.StatusOK, s.EngineFor(userID).State())
}

// HandleActivityTypes enumerates the displayable taxonomy for filter pickers.
func (s *Service) HandleActivityTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"activity_types": taxonomy.Known()})
}

// HandleLoad runs a full fetch-merge cycle and returns the resulting state.
func (s *Service) HandleLoad(c *gin.Context) {
	userID, ok := s.requireIdentity(c)
	if !ok {
		return
	}

	eng := s.EngineFor(userID)
	if err := eng.Load(c.Request.Context()); err != nil {
		writeInternal(c, "Failed to load feed", err)
		return
	}
	c.JSON(http.StatusOK, eng.State())
}

// HandleRefresh re-runs the provider path. ?force=true bypasses the
// rate-limit pre-check (the underlying call may still report exhaustion,
// which shows up as rate_limited in the returned state).
func (s *Service) HandleRefresh(c *gin.Context) {
	userID, ok := s.requireIdentity(c)
	if !ok {
		return
	}

	force := c.Query("force") == "true"
	eng := s.EngineFor(userID)
	if err := eng.Refresh(c.Request.Context(), force); err != nil {
		writeInternal(c, "Failed to refresh feed", err)
		return
	}
	c.JSON(http.StatusOK, eng.State())
}

// HandleSetLocation replaces the reference location. Does not trigger a
// fetch; clients follow up with /v1/feed/load.
func (s *Service) HandleSetLocation(c *gin.Context) {
	userID, ok := s.requireIdentity(c)
	if !ok {
		return
	}

	var body struct {
		Lat  *float64 `json:"lat" binding:"required"`
		Lon  *float64 `json:"lon" binding:"required"`
		Name string   `json:"name"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		writeBadRequest(c, "Invalid location body", err)
		return
	}
	if *body.Lat < -90 || *body.Lat > 90 || *body.Lon < -180 || *body.Lon > 180 {
		writeBadRequest(c, "Coordinates out of range", nil)
		return
	}

	s.EngineFor(userID).SetLocation(v1.GeoPoint{Lat: *body.Lat, Lon: *body.Lon, Name: body.Name})
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// HandleSetRadius updates the search radius. The reload it schedules is
// debounced, so the response reflects the pre-reload state.
func (s *Service) HandleSetRadius(c *gin.Context) {
	userID, ok := s.requireIdentity(c)
	if !ok {
		return
	}

	var body struct {
		RadiusMiles *float64 `json:"radius_miles" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		writeBadRequest(c, "Invalid radius body", err)
		return
	}

	if err := s.EngineFor(userID).SetRadius(*body.RadiusMiles); err != nil {
		if errors.Is(err, geo.ErrNegativeRadius) {
			writeBadRequest(c, "Radius must not be negative", err)
			return
		}
		writeInternal(c, "Failed to set radius", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "scheduled"})
}

// HandleSetFilter sets or clears the activity-type filter. Applies
// immediately; no network fetch.
func (s *Service) HandleSetFilter(c *gin.Context) {
	userID, ok := s.requireIdentity(c)
	if !ok {
		return
	}

	var body struct {
		ActivityTypeID *int `json:"activity_type_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		writeBadRequest(c, "Invalid filter body", err)
		return
	}

	eng := s.EngineFor(userID)
	if body.ActivityTypeID == nil {
		eng.SetActivityTypeFilter(nil)
		c.JSON(http.StatusOK, eng.State())
		return
	}

	activityType, ok := taxonomy.ByID(*body.ActivityTypeID)
	if !ok {
		writeBadRequest(c, "Unknown activity type id", nil)
		return
	}
	eng.SetActivityTypeFilter(&activityType)
	c.JSON(http.StatusOK, eng.State())
}

// HandleJoinEvent records attendance for an event in the identity's current
// feed. The stable source id preserved by normalization is the join key;
// events whose source carried no id cannot be joined.
func (s *Service) HandleJoinEvent(c *gin.Context) {
	userID, ok := s.requireIdentity(c)
	if !ok {
		return
	}

	eventID := c.Param("event_id")
	evt, found := s.EngineFor(userID).EventByID(eventID)
	if !found {
		c.JSON(http.StatusNotFound, httperr.ErrorResponse{
			ErrorType: httperr.HttpNotFoundError,
			Message:   "Event is not in the current feed",
		})
		return
	}
	if evt.SourceID == "" {
		c.JSON(http.StatusNotFound, httperr.ErrorResponse{
			ErrorType: httperr.HttpNotFoundError,
			Message:   "Event has no stable source identity to join",
		})
		return
	}

	if err := s.attendance.MarkAttended(c.Request.Context(), userID, evt.SourceID); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			c.JSON(http.StatusConflict, httperr.ErrorResponse{
				ErrorType: httperr.HttpDuplicateError,
				Message:   "Already joined",
			})
			return
		}
		writeInternal(c, "Failed to record attendance", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "joined"})
}

func (s *Service) requireIdentity(c *gin.Context) (string, bool) {
	userID, ok := identity.FromRequest(c.Request)
	if !ok {
		c.JSON(http.StatusUnauthorized, httperr.ErrorResponse{
			ErrorType: httperr.HttpNoIdentityError,
			Message:   "No identity on request",
		})
		return "", false
	}
	return userID, true
}

func writeBadRequest(c *gin.Context, msg string, err error) {
	resp := httperr.ErrorResponse{
		ErrorType: httperr.HttpInvalidJsonError,
		Message:   msg,
	}
	if err != nil {
		resp.Details = err.Error()
	}
	c.JSON(http.StatusBadRequest, resp)
}

func writeInternal(c *gin.Context, msg string, err error) {
	c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
		ErrorType: httperr.HttpInternalError,
		Message:   msg,
		Details:   err.Error(),
	})
}
