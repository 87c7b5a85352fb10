// README: Budget estimate handler.
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"wayfarer/internal/modules/budget"
)

type BudgetHandler struct {
	budget *budget.Service
}

func NewBudgetHandler(svc *budget.Service) *BudgetHandler {
	return &BudgetHandler{budget: svc}
}

// Estimate handles GET /api/budget/estimate. Everything but destination is
// optional; month is 1-12 and 0 skips the season surcharge.
func (h *BudgetHandler) Estimate(c *gin.Context) {
	req := budget.EstimateRequest{
		Destination: c.Query("destination"),
		Nights:      queryInt(c, "nights"),
		Adults:      queryInt(c, "adults"),
		Children:    queryInt(c, "children"),
		Style:       c.Query("style"),
	}
	if m := queryInt(c, "month"); m >= 1 && m <= 12 {
		req.Month = time.Month(m)
	}
	res, err := h.budget.Estimate(c.Request.Context(), req)
	if err != nil {
		writeBudgetError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{
		"total_amount": res.TotalAmount,
		"currency":     res.Currency,
		"breakdown":    res.Breakdown,
	})
}

func queryInt(c *gin.Context, key string) int {
	v := c.Query(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
