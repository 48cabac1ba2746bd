package handlers

import (
	"log"
	"net/http"

	"github.com/brewmap/backend/internal/middleware"
	"github.com/brewmap/backend/internal/models"
	"github.com/brewmap/backend/internal/services"
)

type AccountHandler struct {
	accounts *services.MongoAccountService
}

func NewAccountHandler(accounts *services.MongoAccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// DeleteAccount removes the caller's profile, reviews, flags, and every
// reference to them in other users' relationship lists.
func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}
	if h.accounts == nil {
		writeJSON(w, http.StatusServiceUnavailable, models.NewErrorResponse("Account deletion unavailable"))
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), services.DefaultAccountTimeout())
	defer cancel()

	res, err := h.accounts.DeleteAccount(ctx, userID)
	if err != nil {
		log.Printf("[DeleteAccount] user=%s error=%v", userID, err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to delete account"))
		return
	}

	log.Printf("[DeleteAccount] user=%s profiles_updated=%d reviews_deleted=%d",
		userID, res.ProfilesUpdated, res.ReviewsDeleted)
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(res))
}
