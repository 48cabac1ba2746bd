package handlers

import (
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/brewmap/backend/internal/models"
	"github.com/brewmap/backend/internal/services"
)

type PlacesHandler struct {
	places *services.PlacesClient
}

func NewPlacesHandler(places *services.PlacesClient) *PlacesHandler {
	return &PlacesHandler{places: places}
}

// Nearby proxies the Places nearby search. pagetoken passes the upstream
// token through unchanged; clients are responsible for the warm-up delay
// before a fresh token works.
func (h *PlacesHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	lat, err1 := strconv.ParseFloat(q.Get("lat"), 64)
	lng, err2 := strconv.ParseFloat(q.Get("lng"), 64)
	if err1 != nil || err2 != nil || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid lat/lng"))
		return
	}

	radius := 1500
	if v := q.Get("radius"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 50000 {
			radius = n
		}
	}
	placeType := q.Get("type")
	if placeType == "" {
		placeType = "cafe"
	}

	ctx, cancel := contextWithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	page, err := h.places.NearbySearch(ctx, lat, lng, radius, placeType, q.Get("pagetoken"))
	if err != nil {
		log.Printf("[Nearby] lat=%f lng=%f error=%v", lat, lng, err)
		writeJSON(w, http.StatusBadGateway, models.NewErrorResponse("Failed to fetch nearby cafes"))
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(page))
}

func (h *PlacesHandler) Details(w http.ResponseWriter, r *http.Request) {
	placeID := chi.URLParam(r, "placeId")
	if placeID == "" {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Missing placeId"))
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	cafe, err := h.places.Details(ctx, placeID)
	if err != nil {
		log.Printf("[Details] place=%s error=%v", placeID, err)
		writeJSON(w, http.StatusBadGateway, models.NewErrorResponse("Failed to fetch cafe details"))
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(cafe))
}

// Photo streams place photo bytes so the Places API key never reaches the
// client.
func (h *PlacesHandler) Photo(w http.ResponseWriter, r *http.Request) {
	ref := r.URL.Query().Get("ref")
	if ref == "" {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Missing ref"))
		return
	}
	maxWidth := 400
	if v := r.URL.Query().Get("maxwidth"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1600 {
			maxWidth = n
		}
	}

	ctx, cancel := contextWithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	body, contentType, err := h.places.FetchPhoto(ctx, ref, maxWidth)
	if err != nil {
		log.Printf("[Photo] ref=%s error=%v", ref, err)
		writeJSON(w, http.StatusBadGateway, models.NewErrorResponse("Failed to fetch photo"))
		return
	}
	defer body.Close()

	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, body)
}
