// README: Traveler (trip companion) CRUD handlers.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wayfarer/internal/http/middleware"
	"wayfarer/internal/modules/traveler"
	"wayfarer/internal/types"
)

type TravelerHandler struct {
	travelers *traveler.Service
}

func NewTravelerHandler(travelers *traveler.Service) *TravelerHandler {
	return &TravelerHandler{travelers: travelers}
}

type travelerReq struct {
	FullName        string `json:"full_name"`
	Age             int    `json:"age"`
	PassportCountry string `json:"passport_country"`
	Notes           string `json:"notes"`
}

// Create handles POST /api/travelers.
func (h *TravelerHandler) Create(c *gin.Context) {
	var req travelerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid json")
		return
	}
	tr, err := h.travelers.Create(c.Request.Context(), traveler.CreateCommand{
		OwnerUID:        middleware.CallerUID(c),
		FullName:        req.FullName,
		Age:             req.Age,
		PassportCountry: req.PassportCountry,
		Notes:           req.Notes,
	})
	if err != nil {
		writeTravelerError(c, err)
		return
	}
	respond(c, http.StatusCreated, tr)
}

// List handles GET /api/travelers.
func (h *TravelerHandler) List(c *gin.Context) {
	list, err := h.travelers.List(c.Request.Context(), middleware.CallerUID(c))
	if err != nil {
		writeTravelerError(c, err)
		return
	}
	if list == nil {
		list = []*traveler.Traveler{}
	}
	respond(c, http.StatusOK, list)
}

// Update handles PUT /api/travelers/:id.
func (h *TravelerHandler) Update(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		respondError(c, http.StatusBadRequest, "missing traveler id")
		return
	}
	var req travelerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid json")
		return
	}
	tr, err := h.travelers.Update(c.Request.Context(), traveler.UpdateCommand{
		TravelerID:      types.ID(id),
		CallerUID:       middleware.CallerUID(c),
		FullName:        req.FullName,
		Age:             req.Age,
		PassportCountry: req.PassportCountry,
		Notes:           req.Notes,
	})
	if err != nil {
		writeTravelerError(c, err)
		return
	}
	respond(c, http.StatusOK, tr)
}

// Delete handles DELETE /api/travelers/:id.
func (h *TravelerHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		respondError(c, http.StatusBadRequest, "missing traveler id")
		return
	}
	if err := h.travelers.Delete(c.Request.Context(), types.ID(id), middleware.CallerUID(c)); err != nil {
		writeTravelerError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"deleted": true})
}
