package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/brewmap/backend/internal/middleware"
	"github.com/brewmap/backend/internal/models"
	"github.com/brewmap/backend/internal/services"
)

type ReviewsHandler struct {
	reviews services.ReviewService
	flags   services.FlagService
}

func NewReviewsHandler(reviews services.ReviewService, flags services.FlagService) *ReviewsHandler {
	return &ReviewsHandler{reviews: reviews, flags: flags}
}

// reviewPage is what clients render for a place's review section.
type reviewPage struct {
	Reviews       []*models.Review `json:"reviews"`
	AverageRating float64          `json:"average_rating"`
	Count         int              `json:"count"`
}

func (h *ReviewsHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	placeID := chi.URLParam(r, "placeId")
	if placeID == "" {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Missing placeId"))
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	revs, err := h.reviews.ListByPlace(ctx, placeID)
	if err != nil {
		log.Printf("[ListReviews] place=%s error=%v", placeID, err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to load reviews"))
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(reviewPage{
		Reviews:       revs,
		AverageRating: models.AverageRating(revs),
		Count:         len(revs),
	}))
}

func (h *ReviewsHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}
	placeID := chi.URLParam(r, "placeId")
	if placeID == "" {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Missing placeId"))
		return
	}

	var req models.SubmitReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errs))
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	rev, err := h.reviews.Add(ctx, placeID, userID, req.Rating, strings.TrimSpace(req.Comment))
	if err != nil {
		if err == services.ErrReviewBadInput {
			writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid review"))
			return
		}
		log.Printf("[SubmitReview] user=%s place=%s error=%v", userID, placeID, err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to submit review"))
		return
	}
	writeJSON(w, http.StatusCreated, models.NewSuccessResponse(rev))
}

// StreamReviews pushes the full review page over server-sent events on
// every change, which is the full-resync contract clients expect.
func (h *ReviewsHandler) StreamReviews(w http.ResponseWriter, r *http.Request) {
	placeID := chi.URLParam(r, "placeId")
	if placeID == "" {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Missing placeId"))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Streaming unsupported"))
		return
	}

	ch, err := h.reviews.Watch(r.Context(), placeID)
	if err != nil {
		log.Printf("[StreamReviews] place=%s error=%v", placeID, err)
		writeJSON(w, http.StatusServiceUnavailable, models.NewErrorResponse("Live updates unavailable"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for revs := range ch {
		payload, err := json.Marshal(reviewPage{
			Reviews:       revs,
			AverageRating: models.AverageRating(revs),
			Count:         len(revs),
		})
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
	}
}

type flagReviewBody struct {
	Reason string `json:"reason"`
}

func (h *ReviewsHandler) FlagReview(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}
	placeID := chi.URLParam(r, "placeId")
	reviewID := chi.URLParam(r, "reviewId")
	if placeID == "" || reviewID == "" {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Missing placeId or reviewId"))
		return
	}

	var req flagReviewBody
	// Reason is optional; an empty body is fine.
	_ = json.NewDecoder(r.Body).Decode(&req)

	ctx, cancel := contextWithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	flag, err := h.flags.FlagReview(ctx, userID, placeID, reviewID, strings.TrimSpace(req.Reason))
	if err != nil {
		if err == services.ErrAlreadyFlagged {
			writeJSON(w, http.StatusConflict, models.NewErrorResponse("Review already flagged"))
			return
		}
		log.Printf("[FlagReview] user=%s review=%s error=%v", userID, reviewID, err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to flag review"))
		return
	}
	writeJSON(w, http.StatusCreated, models.NewSuccessResponse(flag))
}
