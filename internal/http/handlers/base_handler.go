// README: Base handler utilities (response envelope, error mapping).
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"wayfarer/internal/http/middleware"
	"wayfarer/internal/modules/aiusage"
	"wayfarer/internal/modules/booking"
	"wayfarer/internal/modules/budget"
	"wayfarer/internal/modules/session"
	"wayfarer/internal/modules/traveler"
	"wayfarer/internal/modules/user"
)

// envelope is the wire shape every endpoint returns: the payload under "data"
// on success, a message under "error" otherwise, always with request metadata.
type envelope struct {
	Success  bool     `json:"success"`
	Data     any      `json:"data,omitempty"`
	Error    string   `json:"error,omitempty"`
	Metadata metadata `json:"metadata"`
}

type metadata struct {
	RequestID string `json:"request_id,omitempty"`
	Timestamp string `json:"timestamp"`
}

func respond(c *gin.Context, status int, data any) {
	c.JSON(status, envelope{
		Success:  status < http.StatusBadRequest,
		Data:     data,
		Metadata: newMetadata(c),
	})
}

func respondError(c *gin.Context, status int, msg string) {
	c.JSON(status, envelope{
		Success:  false,
		Error:    msg,
		Metadata: newMetadata(c),
	})
}

func newMetadata(c *gin.Context) metadata {
	return metadata{
		RequestID: middleware.GetRequestID(c),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

func writeSessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrBadRequest):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, session.ErrNotFound):
		respondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, session.ErrNoPlan), errors.Is(err, session.ErrInvalidState), errors.Is(err, session.ErrConflict):
		respondError(c, http.StatusConflict, err.Error())
	case errors.Is(err, aiusage.ErrInsufficientTokens):
		respondError(c, http.StatusTooManyRequests, err.Error())
	default:
		respondError(c, http.StatusInternalServerError, "internal error")
	}
}

// writeBookingError also covers session errors: booking creation resolves the
// trip plan through the session manager and propagates its failures.
func writeBookingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, booking.ErrBadRequest):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, booking.ErrNotFound), errors.Is(err, session.ErrNotFound):
		respondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, booking.ErrForbidden):
		respondError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, booking.ErrInvalidState), errors.Is(err, booking.ErrConflict),
		errors.Is(err, booking.ErrActiveBooking), errors.Is(err, session.ErrNoPlan):
		respondError(c, http.StatusConflict, err.Error())
	default:
		respondError(c, http.StatusInternalServerError, "internal error")
	}
}

func writeUserError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, user.ErrBadRequest), errors.Is(err, user.ErrBadCurrency):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, user.ErrNotFound):
		respondError(c, http.StatusNotFound, err.Error())
	default:
		respondError(c, http.StatusInternalServerError, "internal error")
	}
}

func writeTravelerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, traveler.ErrBadRequest):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, traveler.ErrNotFound):
		respondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, traveler.ErrForbidden):
		respondError(c, http.StatusForbidden, err.Error())
	default:
		respondError(c, http.StatusInternalServerError, "internal error")
	}
}

func writeBudgetError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, budget.ErrBadRequest):
		respondError(c, http.StatusBadRequest, err.Error())
	default:
		respondError(c, http.StatusInternalServerError, "internal error")
	}
}
