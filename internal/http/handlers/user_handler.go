// README: User profile handlers (register, me, update).
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wayfarer/internal/http/middleware"
	"wayfarer/internal/modules/user"
)

type UserHandler struct {
	users *user.Service
}

func NewUserHandler(users *user.Service) *UserHandler {
	return &UserHandler{users: users}
}

type registerReq struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// Register handles POST /api/users/register. Idempotent: an existing profile
// is refreshed, not duplicated.
func (h *UserHandler) Register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid json")
		return
	}
	u, err := h.users.Ensure(c.Request.Context(), middleware.CallerUID(c), req.Email, req.DisplayName)
	if err != nil {
		writeUserError(c, err)
		return
	}
	respond(c, http.StatusOK, u)
}

// Me handles GET /api/users/me.
func (h *UserHandler) Me(c *gin.Context) {
	u, err := h.users.Get(c.Request.Context(), middleware.CallerUID(c))
	if err != nil {
		writeUserError(c, err)
		return
	}
	respond(c, http.StatusOK, u)
}

type updateProfileReq struct {
	DisplayName       string `json:"display_name"`
	HomeCity          string `json:"home_city"`
	PreferredCurrency string `json:"preferred_currency"`
}

// Update handles PUT /api/users/me. Empty fields keep their stored values.
func (h *UserHandler) Update(c *gin.Context) {
	var req updateProfileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid json")
		return
	}
	u, err := h.users.UpdateProfile(c.Request.Context(), middleware.CallerUID(c), user.ProfileUpdate{
		DisplayName:       req.DisplayName,
		HomeCity:          req.HomeCity,
		PreferredCurrency: req.PreferredCurrency,
	})
	if err != nil {
		writeUserError(c, err)
		return
	}
	respond(c, http.StatusOK, u)
}
