// Package api provides the HTTP API server for menucost
// Exposes the cheapest-combo search over in-memory menus plus search history
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"menucost/db/clickhouse"
	"menucost/decision/menu"
	"menucost/decision/policy"
	"menucost/decision/search"
)

// Server is the HTTP API server
type Server struct {
	httpServer   *http.Server
	historyStore *clickhouse.Store
	config       *Config
}

// Config holds server configuration
type Config struct {
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxRequestSize int64
	CORSOrigins    []string
}

// DefaultConfig returns default server configuration
func DefaultConfig() *Config {
	return &Config{
		Port:           8080,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   60 * time.Second,
		MaxRequestSize: 10 * 1024 * 1024, // 10MB
		CORSOrigins:    []string{"*"},
	}
}

// NewServer creates a new API server. The history store is optional; when
// nil, searches are not recorded and the history endpoint returns 503.
func NewServer(store *clickhouse.Store, config *Config) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	return &Server{
		historyStore: store,
		config:       config,
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	mux := http.NewServeMux()

	// Register routes
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)
	mux.HandleFunc("/api/v1/search", s.handleSearch)
	mux.HandleFunc("/api/v1/history", s.handleHistory)

	// Wrap with middleware
	handler := s.corsMiddleware(s.loggingMiddleware(mux))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      handler,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	fmt.Printf("🚀 menucost API server starting on port %d\n", s.config.Port)
	return s.httpServer.ListenAndServe()
}

// StartWithGracefulShutdown starts server with graceful shutdown handling
func (s *Server) StartWithGracefulShutdown() error {
	errChan := make(chan error, 1)
	go func() {
		if err := s.Start(); err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case <-quit:
		fmt.Println("\n📴 Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(ctx)
	}
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		fmt.Printf("%s %s %s %s\n", r.Method, r.URL.Path, r.RemoteAddr, time.Since(start))
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		allowed := false
		for _, o := range s.config.CORSOrigins {
			if o == "*" || o == origin {
				allowed = true
				break
			}
		}

		if allowed {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", "86400")
		}

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// HEALTH ENDPOINTS
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "1.0.0",
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.historyStore != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := s.historyStore.Ping(ctx); err != nil {
			s.jsonError(w, http.StatusServiceUnavailable, "history store not ready")
			return
		}
	}

	s.jsonResponse(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}

// =============================================================================
// SEARCH ENDPOINT
// =============================================================================

// SearchRequest is the API request for a cheapest-combo search
type SearchRequest struct {
	Restaurants []RestaurantRequest `json:"restaurants"`
	Items       []string            `json:"items"`
	MaxPrice    *float64            `json:"max_price,omitempty"`
}

// RestaurantRequest is one restaurant menu in a search request
type RestaurantRequest struct {
	Name  string        `json:"name"`
	Lines []LineRequest `json:"lines"`
}

// LineRequest is one priced combo line in a search request
type LineRequest struct {
	Price decimal.Decimal `json:"price"`
	Items []string        `json:"items"`
}

// SearchResponse is the API response for a cheapest-combo search
type SearchResponse struct {
	Feasible   bool   `json:"feasible"`
	Restaurant string `json:"restaurant,omitempty"`
	Price      string `json:"price,omitempty"`

	// Statistics
	RestaurantsEvaluated  int `json:"restaurants_evaluated"`
	RestaurantsInfeasible int `json:"restaurants_infeasible"`

	// Policy
	PolicyResult string             `json:"policy_result,omitempty"`
	Violations   []policy.Violation `json:"violations,omitempty"`

	// Audit
	SearchID   string `json:"search_id"`
	SearchedAt string `json:"searched_at"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.jsonError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxRequestSize)

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}
	if len(req.Items) == 0 {
		s.jsonError(w, http.StatusBadRequest, "no items requested")
		return
	}
	if len(req.Restaurants) == 0 {
		s.jsonError(w, http.StatusBadRequest, "no restaurants provided")
		return
	}

	restaurants := make([]menu.Restaurant, 0, len(req.Restaurants))
	for _, rr := range req.Restaurants {
		lines := make(menu.Menu, 0, len(rr.Lines))
		for _, l := range rr.Lines {
			if l.Price.IsNegative() {
				s.jsonError(w, http.StatusBadRequest,
					fmt.Sprintf("negative price for restaurant %s", rr.Name))
				return
			}
			lines = append(lines, menu.Line{Price: l.Price, Items: l.Items})
		}
		restaurants = append(restaurants, menu.Restaurant{Name: rr.Name, Menu: lines})
	}

	searchID := uuid.New()
	searchedAt := time.Now().UTC()
	resp := SearchResponse{
		SearchID:   searchID.String(),
		SearchedAt: searchedAt.Format(time.RFC3339),
	}

	result, err := search.Cheapest(restaurants, req.Items)
	switch {
	case errors.Is(err, search.ErrNotFound):
		resp.Feasible = false
		resp.RestaurantsEvaluated = len(restaurants)
		resp.RestaurantsInfeasible = len(restaurants)
	case err != nil:
		s.jsonError(w, http.StatusInternalServerError, fmt.Sprintf("search failed: %v", err))
		return
	default:
		resp.Feasible = true
		resp.Restaurant = result.Restaurant
		resp.Price = result.Price.String()
		resp.RestaurantsEvaluated = result.RestaurantsEvaluated
		resp.RestaurantsInfeasible = result.RestaurantsInfeasible

		if req.MaxPrice != nil {
			engine := policy.NewEngine()
			engine.AddPolicy(policy.Policy{
				ID:        "api-price-limit",
				Name:      "Price Limit",
				Type:      policy.PolicyTypePriceLimit,
				Severity:  policy.SeverityError,
				Threshold: decimal.NewFromFloat(*req.MaxPrice),
				Enabled:   true,
			})
			polResult := engine.Evaluate(result)
			resp.PolicyResult = string(polResult.Decision)
			resp.Violations = polResult.Violations
		}
	}

	s.recordSearch(r.Context(), searchID, searchedAt, req.Items, &resp)
	s.jsonResponse(w, http.StatusOK, resp)
}

// recordSearch writes the search to the history store when one is configured.
// Recording failures are non-fatal; the search result is still returned.
func (s *Server) recordSearch(ctx context.Context, id uuid.UUID, at time.Time, items []string, resp *SearchResponse) {
	if s.historyStore == nil {
		return
	}

	rec := &clickhouse.SearchRecord{
		ID:             id,
		RequestedItems: items,
		Restaurant:     resp.Restaurant,
		Feasible:       resp.Feasible,
		Source:         "api",
		SearchedAt:     at,
	}
	if resp.Feasible {
		price, err := decimal.NewFromString(resp.Price)
		if err == nil {
			rec.Price = price
		}
	}

	if err := s.historyStore.InsertSearch(ctx, rec); err != nil {
		fmt.Fprintf(os.Stderr, "⚠️  failed to record search %s: %v\n", id, err)
	}
}

// =============================================================================
// HISTORY ENDPOINT
// =============================================================================

// HistoryEntry is one past search in the history response
type HistoryEntry struct {
	ID             string   `json:"id"`
	RequestedItems []string `json:"requested_items"`
	Restaurant     string   `json:"restaurant,omitempty"`
	Price          string   `json:"price,omitempty"`
	Feasible       bool     `json:"feasible"`
	Source         string   `json:"source"`
	SearchedAt     string   `json:"searched_at"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.jsonError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.historyStore == nil {
		s.jsonError(w, http.StatusServiceUnavailable, "no history store configured")
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.jsonError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	records, err := s.historyStore.RecentSearches(r.Context(), limit)
	if err != nil {
		s.jsonError(w, http.StatusInternalServerError, fmt.Sprintf("failed to load history: %v", err))
		return
	}

	entries := make([]HistoryEntry, 0, len(records))
	for _, rec := range records {
		entry := HistoryEntry{
			ID:             rec.ID.String(),
			RequestedItems: rec.RequestedItems,
			Feasible:       rec.Feasible,
			Source:         rec.Source,
			SearchedAt:     rec.SearchedAt.Format(time.RFC3339),
		}
		if rec.Feasible {
			entry.Restaurant = rec.Restaurant
			entry.Price = rec.Price.String()
		}
		entries = append(entries, entry)
	}

	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"searches": entries,
		"count":    len(entries),
	})
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func (s *Server) jsonResponse(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode response: %v\n", err)
	}
}

func (s *Server) jsonError(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}
