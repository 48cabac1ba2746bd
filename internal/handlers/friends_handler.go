package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/brewmap/backend/internal/middleware"
	"github.com/brewmap/backend/internal/models"
	"github.com/brewmap/backend/internal/services"
)

type FriendsHandler struct {
	social   services.SocialService
	profiles services.ProfileService
	mailer   *services.SendGridMailer
}

func NewFriendsHandler(social services.SocialService, profiles services.ProfileService, mailer *services.SendGridMailer) *FriendsHandler {
	return &FriendsHandler{social: social, profiles: profiles, mailer: mailer}
}

// friendsOverview is the display-ready view of the caller's social graph.
type friendsOverview struct {
	Friends      []models.PublicProfile `json:"friends"`
	Requests     []models.PublicProfile `json:"requests"`
	SentRequests []string               `json:"sent_requests"`
}

// GetFriends materializes the caller's friends and incoming requests into
// display records. Ids that no longer resolve are dropped (lossy lookup).
func (h *FriendsHandler) GetFriends(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	prof, err := h.profiles.GetOrCreate(ctx, userID, middleware.GetUserEmail(r.Context()), middleware.GetUserName(r.Context()))
	if err != nil {
		log.Printf("[GetFriends] user=%s error=%v", userID, err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to load friends"))
		return
	}

	friends, err := h.profiles.ResolveMany(ctx, prof.Friends)
	if err != nil {
		log.Printf("[GetFriends] user=%s resolve friends error=%v", userID, err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to load friends"))
		return
	}
	requests, err := h.profiles.ResolveMany(ctx, prof.FriendRequests)
	if err != nil {
		log.Printf("[GetFriends] user=%s resolve requests error=%v", userID, err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to load friends"))
		return
	}

	out := friendsOverview{
		Friends:      publicAll(friends),
		Requests:     publicAll(requests),
		SentRequests: prof.SentRequests,
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(out))
}

// SearchUsers finds users by exact email match, classified relative to the
// caller. The caller never appears in results.
func (h *FriendsHandler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}

	email := r.URL.Query().Get("email")
	if email == "" {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Missing email query"))
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	results, err := h.social.SearchByEmail(ctx, userID, email)
	if err != nil {
		log.Printf("[SearchUsers] user=%s error=%v", userID, err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Search failed"))
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(results))
}

type sendRequestBody struct {
	TargetID string `json:"target_id"`
}

func (h *FriendsHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}

	var req sendRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TargetID == "" {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := h.social.SendRequest(ctx, userID, req.TargetID); err != nil {
		status, msg := socialStatus(err)
		if status == http.StatusInternalServerError {
			log.Printf("[SendRequest] user=%s target=%s error=%v", userID, req.TargetID, err)
		}
		writeJSON(w, status, models.NewErrorResponse(msg))
		return
	}

	h.notifyTarget(userID, req.TargetID)
	writeJSON(w, http.StatusCreated, models.NewSuccessResponse(map[string]string{"message": "Friend request sent"}))
}

func (h *FriendsHandler) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "AcceptRequest", h.social.AcceptRequest)
}

func (h *FriendsHandler) DeclineRequest(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "DeclineRequest", h.social.DeclineRequest)
}

func (h *FriendsHandler) RemoveFriend(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "RemoveFriend", h.social.RemoveFriend)
}

// transition runs one of the pairwise operations keyed by the {userId} URL
// param as the other side of the pair.
func (h *FriendsHandler) transition(w http.ResponseWriter, r *http.Request, tag string, op func(context.Context, string, string) error) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}
	otherID := chi.URLParam(r, "userId")
	if otherID == "" {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Missing userId"))
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := op(ctx, userID, otherID); err != nil {
		status, msg := socialStatus(err)
		if status == http.StatusInternalServerError {
			log.Printf("[%s] user=%s other=%s error=%v", tag, userID, otherID, err)
		}
		writeJSON(w, status, models.NewErrorResponse(msg))
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]string{"message": "OK"}))
}

// notifyTarget emails the request target. Best effort: failures are logged
// and never affect the transition that already committed.
func (h *FriendsHandler) notifyTarget(callerID, targetID string) {
	if h.mailer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	profs, err := h.profiles.ResolveMany(ctx, []string{callerID, targetID})
	if err != nil || len(profs) != 2 {
		return
	}
	caller, target := profs[0], profs[1]
	if err := h.mailer.SendFriendRequestNotice(ctx, target.Email, caller.Name); err != nil {
		log.Printf("[SendRequest] notification mail failed target=%s: %v", targetID, err)
	}
}

func socialStatus(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrProfileNotFound):
		return http.StatusNotFound, "User not found"
	case errors.Is(err, services.ErrSelfRelation):
		return http.StatusBadRequest, "Cannot friend yourself"
	case errors.Is(err, services.ErrAlreadyFriends):
		return http.StatusConflict, "Already friends"
	case errors.Is(err, services.ErrRequestPending):
		return http.StatusConflict, "A request is already pending"
	case errors.Is(err, services.ErrNoPendingRequest):
		return http.StatusNotFound, "No pending request from that user"
	case errors.Is(err, services.ErrNotFriends):
		return http.StatusNotFound, "Not friends with that user"
	case errors.Is(err, services.ErrGraphConflict):
		return http.StatusConflict, "Conflicting update, please retry"
	default:
		return http.StatusInternalServerError, "Operation failed"
	}
}

func publicAll(profs []*models.UserProfile) []models.PublicProfile {
	out := make([]models.PublicProfile, 0, len(profs))
	for _, p := range profs {
		out = append(out, p.Public())
	}
	return out
}
