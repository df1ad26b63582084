package radar

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// orgHeader identifies the calling organization for quota accounting.
// Requests without it are treated as anonymous demo traffic and unmetered.
const orgHeader = "X-Org-ID"

// NewRouter wires the HTTP surface around a Service.
func NewRouter(svc *Service, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", orgHeader},
	}))

	r.Get("/health", handleHealth)
	r.Get("/search", svc.handleSearch)
	r.Get("/place-details", svc.handlePlaceDetails)
	r.Get("/street-view", svc.handleStreetView)

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Service) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	// Malformed numbers parse to zero and get normalized downstream; input
	// problems never surface as client errors.
	lat, _ := strconv.ParseFloat(q.Get("lat"), 64)
	lng, _ := strconv.ParseFloat(q.Get("lng"), 64)
	radius, _ := strconv.ParseFloat(q.Get("radius"), 64)

	params := Params{
		Lat:         lat,
		Lng:         lng,
		RadiusMiles: radius,
		Industry:    q.Get("industry"),
		Trade:       q.Get("trade"),
		FiltersJSON: q.Get("filters"),
		NoCache:     q.Get("nocache") == "1",
		OrgID:       r.Header.Get(orgHeader),
	}

	resp, err := s.Search(r.Context(), params)
	if err != nil {
		var quota *QuotaError
		if errors.As(err, &quota) {
			writeJSON(w, http.StatusTooManyRequests, map[string]any{
				"error":     "rate_limit_exceeded",
				"message":   quota.Error(),
				"remaining": quota.Remaining,
				"limit":     quota.Limit,
				"resetAt":   quota.ResetAt.Format(time.RFC3339),
			})
			return
		}
		zap.L().Error("search failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal_error"})
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Service) handlePlaceDetails(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("place_id")
	if id == "" {
		id = r.URL.Query().Get("id")
	}
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "id is required"})
		return
	}

	place, err := s.PlaceDetails(r.Context(), id)
	if err != nil {
		zap.L().Error("place details failed", zap.String("id", id), zap.Error(err))
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "place_details_unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, place)
}

func (s *Service) handleStreetView(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, _ := strconv.ParseFloat(q.Get("lat"), 64)
	lng, _ := strconv.ParseFloat(q.Get("lng"), 64)

	available, err := s.StreetViewAvailable(r.Context(), lat, lng)
	if err != nil {
		zap.L().Warn("street view lookup failed", zap.Error(err))
		available = false
	}
	writeJSON(w, http.StatusOK, map[string]bool{"available": available})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("response encode failed", zap.Error(err))
	}
}
