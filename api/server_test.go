package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestServer() *Server {
	return NewServer(nil, nil)
}

func postSearch(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/search", strings.NewReader(body))
	w := httptest.NewRecorder()
	s.handleSearch(w, req)
	return w
}

func TestHandleSearchFindsCheapestRestaurant(t *testing.T) {
	body := `{
		"restaurants": [
			{"name": "teahouse", "lines": [{"price": "5.0", "items": ["tea"]}]},
			{"name": "diner", "lines": [
				{"price": "5.0", "items": ["coffee"]},
				{"price": "3.0", "items": ["bagel"]},
				{"price": "7.0", "items": ["coffee", "bagel"]}
			]}
		],
		"items": ["coffee", "bagel"]
	}`

	w := postSearch(t, newTestServer(), body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp SearchResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Feasible {
		t.Fatalf("expected a feasible result")
	}
	if resp.Restaurant != "diner" {
		t.Errorf("expected diner, got %s", resp.Restaurant)
	}
	if resp.Price != "7.0" {
		t.Errorf("expected price 7.0, got %s", resp.Price)
	}
	if resp.RestaurantsInfeasible != 1 {
		t.Errorf("expected 1 infeasible restaurant, got %d", resp.RestaurantsInfeasible)
	}
	if resp.SearchID == "" || resp.SearchedAt == "" {
		t.Errorf("expected search audit fields to be set")
	}
}

func TestHandleSearchInfeasible(t *testing.T) {
	body := `{
		"restaurants": [{"name": "teahouse", "lines": [{"price": "5.0", "items": ["tea"]}]}],
		"items": ["coffee"]
	}`

	w := postSearch(t, newTestServer(), body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp SearchResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Feasible {
		t.Errorf("expected an infeasible result")
	}
	if resp.Restaurant != "" {
		t.Errorf("infeasible result should not name a restaurant")
	}
}

func TestHandleSearchAppliesPriceLimit(t *testing.T) {
	body := `{
		"restaurants": [{"name": "diner", "lines": [{"price": "9.0", "items": ["coffee"]}]}],
		"items": ["coffee"],
		"max_price": 5.0
	}`

	w := postSearch(t, newTestServer(), body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp SearchResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.PolicyResult != "deny" {
		t.Errorf("expected policy deny, got %q", resp.PolicyResult)
	}
	if len(resp.Violations) != 1 {
		t.Errorf("expected 1 violation, got %d", len(resp.Violations))
	}
}

func TestHandleSearchBadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{`},
		{"no items", `{"restaurants": [{"name": "diner", "lines": [{"price": "1", "items": ["x"]}]}], "items": []}`},
		{"no restaurants", `{"restaurants": [], "items": ["coffee"]}`},
		{"negative price", `{"restaurants": [{"name": "diner", "lines": [{"price": "-1", "items": ["coffee"]}]}], "items": ["coffee"]}`},
	}
	s := newTestServer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postSearch(t, s, tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", w.Code)
			}
		})
	}
}

func TestHandleSearchRejectsGet(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/search", nil)
	w := httptest.NewRecorder()
	newTestServer().handleSearch(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", w.Code)
	}
}

func TestHandleHistoryWithoutStore(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/history", nil)
	w := httptest.NewRecorder()
	newTestServer().handleHistory(w, req)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without a history store, got %d", w.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	newTestServer().handleHealth(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestHandleReadyWithoutStore(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	w := httptest.NewRecorder()
	newTestServer().handleReady(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 when no store is configured, got %d", w.Code)
	}
}
