package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/debot-app/debot-backend/internal/flight"
	"github.com/debot-app/debot-backend/internal/model"
	"github.com/debot-app/debot-backend/pkg/logger"
)

// FlightHandler handles flight lookup endpoints.
type FlightHandler struct {
	flights *flight.Service
	logger  *logger.Logger
}

// NewFlightHandler creates a new flight handler.
func NewFlightHandler(flights *flight.Service, log *logger.Logger) *FlightHandler {
	return &FlightHandler{
		flights: flights,
		logger:  log,
	}
}

func (h *FlightHandler) writeFlightError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, flight.ErrNoData):
		writeError(w, http.StatusNotFound, "no flights found")
	case errors.Is(err, flight.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "flight lookups not configured")
	default:
		h.logger.Error("flight lookup failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "flight lookup failed")
	}
}

// Random handles GET /api/v1/flights/random
func (h *FlightHandler) Random(w http.ResponseWriter, r *http.Request) {
	f, err := h.flights.Random(r.Context())
	if err != nil {
		h.writeFlightError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, f)
}

// Search handles GET /api/v1/flights/search
// Accepts ?flight=UA123 or ?dep=SFO&arr=LIS.
func (h *FlightHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := flight.Query{
		FlightIATA:    r.URL.Query().Get("flight"),
		DepartureIATA: r.URL.Query().Get("dep"),
		ArrivalIATA:   r.URL.Query().Get("arr"),
	}
	if q.IsZero() {
		writeError(w, http.StatusBadRequest, "flight or dep/arr query required")
		return
	}

	flights, cached, err := h.flights.Search(r.Context(), q)
	if err != nil {
		h.writeFlightError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, &model.FlightSearchResponse{
		Flights: flights,
		Cached:  cached,
	})
}

// Recent handles GET /api/v1/flights/recent
func (h *FlightHandler) Recent(w http.ResponseWriter, r *http.Request) {
	flights := h.flights.Recent()
	if flights == nil {
		flights = []model.Flight{}
	}

	writeJSON(w, http.StatusOK, &model.RecentFlightsResponse{Flights: flights})
}

// ClearCache handles DELETE /api/v1/flights/cache
func (h *FlightHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	h.flights.ClearCache()
	w.WriteHeader(http.StatusNoContent)
}
