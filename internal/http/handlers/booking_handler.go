// README: Booking handlers (create, list, get, confirm, cancel).
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"wayfarer/internal/http/middleware"
	"wayfarer/internal/modules/booking"
	"wayfarer/internal/types"
)

type BookingHandler struct {
	bookings *booking.Service
}

func NewBookingHandler(bookings *booking.Service) *BookingHandler {
	return &BookingHandler{bookings: bookings}
}

// bookingView is the wire shape for a booking.
type bookingView struct {
	ID              types.ID       `json:"id"`
	SessionID       *types.ID      `json:"session_id,omitempty"`
	Destination     string         `json:"destination"`
	StartDate       string         `json:"start_date,omitempty"`
	EndDate         string         `json:"end_date,omitempty"`
	Travelers       int            `json:"travelers"`
	Status          booking.Status `json:"status"`
	EstimatedAmount types.Money    `json:"estimated_amount"`
	ConfirmedAmount *types.Money   `json:"confirmed_amount,omitempty"`
	CancelReason    *string        `json:"cancel_reason,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	ConfirmedAt     *time.Time     `json:"confirmed_at,omitempty"`
	CompletedAt     *time.Time     `json:"completed_at,omitempty"`
	CancelledAt     *time.Time     `json:"cancelled_at,omitempty"`
}

func newBookingView(b *booking.Booking) bookingView {
	return bookingView{
		ID:              b.ID,
		SessionID:       b.SessionID,
		Destination:     b.Destination,
		StartDate:       b.StartDate,
		EndDate:         b.EndDate,
		Travelers:       b.Travelers,
		Status:          b.Status,
		EstimatedAmount: b.EstimatedAmount,
		ConfirmedAmount: b.ConfirmedAmount,
		CancelReason:    b.CancelReason,
		CreatedAt:       b.CreatedAt,
		ConfirmedAt:     b.ConfirmedAt,
		CompletedAt:     b.CompletedAt,
		CancelledAt:     b.CancelledAt,
	}
}

type createBookingReq struct {
	SessionID   string `json:"session_id"`
	Destination string `json:"destination"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Travelers   int    `json:"travelers"`
}

// Create handles POST /api/bookings. Either session_id (booking the session's
// trip plan) or destination must be present.
func (h *BookingHandler) Create(c *gin.Context) {
	var req createBookingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid json")
		return
	}
	b, err := h.bookings.Create(c.Request.Context(), booking.CreateCommand{
		UserUID:     middleware.CallerUID(c),
		SessionID:   types.ID(req.SessionID),
		Destination: req.Destination,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Travelers:   req.Travelers,
	})
	if err != nil {
		writeBookingError(c, err)
		return
	}
	respond(c, http.StatusCreated, newBookingView(b))
}

// List handles GET /api/bookings.
func (h *BookingHandler) List(c *gin.Context) {
	list, err := h.bookings.List(c.Request.Context(), middleware.CallerUID(c))
	if err != nil {
		writeBookingError(c, err)
		return
	}
	views := make([]bookingView, 0, len(list))
	for _, b := range list {
		views = append(views, newBookingView(b))
	}
	respond(c, http.StatusOK, views)
}

// Get handles GET /api/bookings/:id.
func (h *BookingHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		respondError(c, http.StatusBadRequest, "missing booking id")
		return
	}
	b, err := h.bookings.Get(c.Request.Context(), types.ID(id), middleware.CallerUID(c))
	if err != nil {
		writeBookingError(c, err)
		return
	}
	respond(c, http.StatusOK, newBookingView(b))
}

// Confirm handles POST /api/bookings/:id/confirm.
func (h *BookingHandler) Confirm(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		respondError(c, http.StatusBadRequest, "missing booking id")
		return
	}
	err := h.bookings.Confirm(c.Request.Context(), booking.ConfirmCommand{
		BookingID: types.ID(id),
		CallerUID: middleware.CallerUID(c),
	})
	if err != nil {
		writeBookingError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"status": booking.StatusConfirmed})
}

type cancelBookingReq struct {
	Reason string `json:"reason"`
}

// Cancel handles POST /api/bookings/:id/cancel.
func (h *BookingHandler) Cancel(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		respondError(c, http.StatusBadRequest, "missing booking id")
		return
	}
	var req cancelBookingReq
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid json")
			return
		}
	}
	err := h.bookings.Cancel(c.Request.Context(), booking.CancelCommand{
		BookingID: types.ID(id),
		CallerUID: middleware.CallerUID(c),
		Reason:    req.Reason,
	})
	if err != nil {
		writeBookingError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"status": booking.StatusCancelled})
}
