// README: End-to-end tests for the budget estimate handler.
package handlers_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"wayfarer/internal/http/handlers"
	"wayfarer/internal/modules/budget"
)

// buildBudgetRouter wires the public estimate route. A nil store makes the
// service use its built-in tier rates, so no database is needed.
func buildBudgetRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := handlers.NewBudgetHandler(budget.NewService(nil))
	r.GET("/api/budget/estimate", h.Estimate)
	return r
}

type estimateEnvelope struct {
	Success bool `json:"success"`
	Data    struct {
		TotalAmount int64            `json:"total_amount"`
		Currency    string           `json:"currency"`
		Breakdown   map[string]int64 `json:"breakdown"`
	} `json:"data"`
	Error string `json:"error"`
}

// TestBudgetEstimate_OK prices a real trip through the HTTP surface.
func TestBudgetEstimate_OK(t *testing.T) {
	r := buildBudgetRouter()
	w := doRequest(r, http.MethodGet, "/api/budget/estimate?destination=paris&nights=4&adults=2&month=7", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var env estimateEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if !env.Success {
		t.Errorf("expected success=true, got error %q", env.Error)
	}
	if env.Data.TotalAmount <= 0 {
		t.Errorf("expected positive total, got %d", env.Data.TotalAmount)
	}
	if env.Data.Currency != "USD" {
		t.Errorf("expected USD, got %q", env.Data.Currency)
	}
	if env.Data.Breakdown["lodging"] <= 0 || env.Data.Breakdown["flights"] <= 0 {
		t.Errorf("expected lodging and flights line items, got %v", env.Data.Breakdown)
	}
	// July is high season, so the surcharge line must be present.
	if env.Data.Breakdown["season_surcharge"] <= 0 {
		t.Errorf("expected season surcharge in July, got %v", env.Data.Breakdown)
	}
}

// TestBudgetEstimate_Deterministic verifies that the same query prices the same.
func TestBudgetEstimate_Deterministic(t *testing.T) {
	r := buildBudgetRouter()
	first := doRequest(r, http.MethodGet, "/api/budget/estimate?destination=tokyo&nights=7&adults=2&children=1&style=luxury", nil, "")
	second := doRequest(r, http.MethodGet, "/api/budget/estimate?destination=tokyo&nights=7&adults=2&children=1&style=luxury", nil, "")
	if first.Code != http.StatusOK || second.Code != http.StatusOK {
		t.Fatalf("expected 200s, got %d and %d", first.Code, second.Code)
	}
	if first.Body.String() != second.Body.String() {
		// Metadata timestamps differ; compare the data payloads instead.
		var a, b estimateEnvelope
		if err := json.Unmarshal(first.Body.Bytes(), &a); err != nil {
			t.Fatalf("decode first: %v", err)
		}
		if err := json.Unmarshal(second.Body.Bytes(), &b); err != nil {
			t.Fatalf("decode second: %v", err)
		}
		if a.Data.TotalAmount != b.Data.TotalAmount {
			t.Errorf("totals differ: %d vs %d", a.Data.TotalAmount, b.Data.TotalAmount)
		}
	}
}

// TestBudgetEstimate_MissingDestination verifies the one required parameter.
func TestBudgetEstimate_MissingDestination(t *testing.T) {
	r := buildBudgetRouter()
	w := doRequest(r, http.MethodGet, "/api/budget/estimate?nights=3", nil, "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}
