package community

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	v1 "github.com/roam-social/roam-feed/internal/api/v1"
	httperr "github.com/roam-social/roam-feed/internal/core/errors"
	"github.com/roam-social/roam-feed/internal/core/storage"
	"github.com/roam-social/roam-feed/internal/identity"
)

const (
	msgReadBodyFailed = "Failed to read request body"
	msgInvalidJSON    = "Invalid JSON body"
	msgPersistFailed  = "Failed to persist event"
	msgDuplicateEvent = "Event already exists"
	msgNotFound       = "Event not found"
)

// intakeError carries the structured HTTP error shape from a helper back to the orchestrator.
// Helpers return this instead of writing to gin.Context directly, keeping them decoupled from HTTP.
type intakeError struct {
	statusCode int
	errorType  string
	message    string
	details    interface{}
}

func (e *intakeError) Error() string {
	return e.message
}

// CreateHandler handles HTTP POST requests for community event intake.
func (s *Service) CreateHandler(c *gin.Context) {
	organizerID, ok := identity.FromRequest(c.Request)
	if !ok {
		c.JSON(http.StatusUnauthorized, httperr.ErrorResponse{
			ErrorType: httperr.HttpNoIdentityError,
			Message:   "No identity on request",
		})
		return
	}

	evt, payloadSize, err := s.parseEvent(c, organizerID)
	if err != nil {
		writeError(c, err)
		return
	}

	slog.Info("Received community event",
		"event_id", evt.ID,
		"organizer_id", evt.OrganizerID,
		"activity_type_id", evt.ActivityTypeID,
		"payload_size", payloadSize)

	if err := s.persistEvent(c.Request.Context(), evt); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, evt)
}

// GetHandler fetches a single community event by id.
func (s *Service) GetHandler(c *gin.Context) {
	evt, err := s.store.GetEvent(c.Request.Context(), c.Param("event_id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, httperr.ErrorResponse{
				ErrorType: httperr.HttpNotFoundError,
				Message:   msgNotFound,
			})
			return
		}
		slog.Error("Failed to fetch community event", "error", err, "event_id", c.Param("event_id"))
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Failed to fetch event",
		})
		return
	}
	c.JSON(http.StatusOK, evt)
}

// NearbyHandler lists upcoming community events around a point. The same
// query the feed engine runs, exposed for organizer tooling.
func (s *Service) NearbyHandler(c *gin.Context) {
	location, radiusMiles, err := parseNearbyQuery(c)
	if err != nil {
		writeError(c, err)
		return
	}

	events, fetchErr := s.store.FetchNearby(c.Request.Context(), location, radiusMiles)
	if fetchErr != nil {
		slog.Error("Failed to fetch nearby community events", "error", fetchErr)
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Failed to fetch events",
		})
		return
	}
	if events == nil {
		events = []*v1.CommunityEvent{}
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// parseEvent reads the raw request body and binds it into a CommunityEvent.
// Returns the parsed event and the raw payload size (used for structured logging upstream).
func (s *Service) parseEvent(c *gin.Context, organizerID string) (*v1.CommunityEvent, int, *intakeError) {
	// Enforce maximum body size to prevent OOM attacks
	maxBytes := int64(s.maxBodySizeBytes)
	limitedBody := io.LimitReader(c.Request.Body, maxBytes+1) // +1 to detect oversized requests

	bodyBytes, err := io.ReadAll(limitedBody)
	if err != nil {
		slog.Error("Failed to read request body", "error", err)
		return nil, 0, &intakeError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgReadBodyFailed,
		}
	}

	if int64(len(bodyBytes)) > maxBytes {
		slog.Warn("Request body exceeds maximum size", "size", len(bodyBytes), "max", maxBytes)
		return nil, len(bodyBytes), &intakeError{
			statusCode: http.StatusRequestEntityTooLarge,
			errorType:  httperr.HttpInvalidJsonError,
			message:    "Request body exceeds maximum allowed size",
			details: map[string]interface{}{
				"max_size_mb": maxBytes / (1024 * 1024),
			},
		}
	}

	c.Request.Body = io.NopCloser(bytes.NewReader(bodyBytes))

	var evt v1.CommunityEvent
	if err := c.ShouldBindJSON(&evt); err != nil {
		slog.Warn("Invalid JSON body received", "error", err, "payload_size", len(bodyBytes))
		return nil, len(bodyBytes), &intakeError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidJsonError,
			message:    msgInvalidJSON,
		}
	}

	// The authenticated identity is the organizer, whatever the body says.
	evt.OrganizerID = organizerID
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	evt.CreatedAt = s.nowFn().UTC()
	evt.AttendeeCount = 0

	if err := evt.Validate(); err != nil {
		slog.Warn("Event validation failed", "error", err, "event_id", evt.ID)
		return nil, len(bodyBytes), &intakeError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidJsonError,
			message:    err.Error(),
		}
	}

	return &evt, len(bodyBytes), nil
}

// persistEvent saves the event to the backing store.
func (s *Service) persistEvent(ctx context.Context, evt *v1.CommunityEvent) *intakeError {
	if err := s.store.SaveEvent(ctx, evt); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			slog.Info("Duplicate community event rejected", "event_id", evt.ID, "organizer_id", evt.OrganizerID)
			return &intakeError{
				statusCode: http.StatusConflict,
				errorType:  httperr.HttpDuplicateError,
				message:    msgDuplicateEvent,
			}
		}

		slog.Error("Failed to persist community event", "error", err, "event_id", evt.ID)
		return &intakeError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgPersistFailed,
		}
	}

	return nil
}

func parseNearbyQuery(c *gin.Context) (v1.GeoPoint, float64, *intakeError) {
	badQuery := func(msg string) *intakeError {
		return &intakeError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidQueryError,
			message:    msg,
		}
	}

	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil || lat < -90 || lat > 90 {
		return v1.GeoPoint{}, 0, badQuery("lat must be a number in [-90, 90]")
	}
	lon, err := strconv.ParseFloat(c.Query("lon"), 64)
	if err != nil || lon < -180 || lon > 180 {
		return v1.GeoPoint{}, 0, badQuery("lon must be a number in [-180, 180]")
	}

	radiusMiles := 25.0
	if raw := c.Query("radius_miles"); raw != "" {
		radiusMiles, err = strconv.ParseFloat(raw, 64)
		if err != nil || radiusMiles < 0 {
			return v1.GeoPoint{}, 0, badQuery("radius_miles must be a non-negative number")
		}
	}

	return v1.GeoPoint{Lat: lat, Lon: lon}, radiusMiles, nil
}

// writeError serializes an intakeError as the JSON HTTP response.
func writeError(c *gin.Context, err *intakeError) {
	c.JSON(err.statusCode, httperr.ErrorResponse{
		ErrorType: err.errorType,
		Message:   err.message,
		Details:   err.details,
	})
}
