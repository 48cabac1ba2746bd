package handlers

import (
	"log"
	"net/http"
	"time"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/go-chi/chi/v5"

	"github.com/brewmap/backend/internal/middleware"
	"github.com/brewmap/backend/internal/models"
	"github.com/brewmap/backend/internal/services"
)

type ProfileHandler struct {
	profiles   services.ProfileService
	authClient *fbauth.Client
}

func NewProfileHandler(profiles services.ProfileService, authClient *fbauth.Client) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, authClient: authClient}
}

// GetProfile returns the caller's own profile, creating it on first touch.
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}
	email := middleware.GetUserEmail(r.Context())
	name := middleware.GetUserName(r.Context())

	ctx, cancel := contextWithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	prof, err := h.profiles.GetOrCreate(ctx, userID, email, name)
	if err != nil {
		log.Printf("[GetProfile] user=%s error=%v", userID, err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to load profile"))
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(prof))
}

// GetPublicProfile returns a public-safe profile for the requested userId.
func (h *ProfileHandler) GetPublicProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}

	targetID := chi.URLParam(r, "userId")
	if targetID == "" {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Missing userId"))
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	prof, err := h.profiles.GetByID(ctx, targetID)
	if err != nil {
		// Fallback: the auth account may exist before its first profile
		// write lands.
		if h.authClient == nil {
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Profile not found"))
			return
		}
		u, err2 := h.authClient.GetUser(ctx, targetID)
		if err2 != nil {
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Profile not found"))
			return
		}
		writeJSON(w, http.StatusOK, models.NewSuccessResponse(models.PublicProfile{
			ID:    targetID,
			Name:  u.DisplayName,
			Email: u.Email,
		}))
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(prof.Public()))
}
