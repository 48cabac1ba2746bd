package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/brewmap/backend/internal/middleware"
	"github.com/brewmap/backend/internal/services"
)

// asUser injects an authenticated identity the way the auth middleware does.
func asUser(userID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), middleware.UserIDKey, userID)
			ctx = context.WithValue(ctx, middleware.UserEmailKey, userID+"@example.com")
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func newFriendsRouter(t *testing.T, callerID string, ids ...string) (*chi.Mux, *services.MemProfileService) {
	t.Helper()
	profiles := services.NewMemProfileService()
	for _, id := range ids {
		if _, err := profiles.GetOrCreate(context.Background(), id, id+"@example.com", "User "+id); err != nil {
			t.Fatalf("GetOrCreate(%s): %v", id, err)
		}
	}
	social := services.NewMemSocialService(profiles)
	h := NewFriendsHandler(social, profiles, nil)

	r := chi.NewRouter()
	r.Use(asUser(callerID))
	r.Get("/friends", h.GetFriends)
	r.Get("/friends/search", h.SearchUsers)
	r.Post("/friends/requests", h.SendRequest)
	r.Post("/friends/requests/{userId}/accept", h.AcceptRequest)
	r.Post("/friends/requests/{userId}/decline", h.DeclineRequest)
	r.Delete("/friends/{userId}", h.RemoveFriend)
	return r, profiles
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestSendRequestEndpoint(t *testing.T) {
	router, profiles := newFriendsRouter(t, "alice", "alice", "bob")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/friends/requests", strings.NewReader(`{"target_id":"bob"}`))
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	bob, err := profiles.GetByID(context.Background(), "bob")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(bob.FriendRequests) != 1 || bob.FriendRequests[0] != "alice" {
		t.Errorf("bob.friend_requests = %v", bob.FriendRequests)
	}
}

func TestSendRequestEndpoint_Self(t *testing.T) {
	router, _ := newFriendsRouter(t, "alice", "alice")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/friends/requests", strings.NewReader(`{"target_id":"alice"}`))
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestSendRequestEndpoint_Duplicate(t *testing.T) {
	router, _ := newFriendsRouter(t, "alice", "alice", "bob")

	for i, want := range []int{http.StatusCreated, http.StatusConflict} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/friends/requests", strings.NewReader(`{"target_id":"bob"}`))
		router.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Errorf("send %d: status = %d, want %d", i+1, rec.Code, want)
		}
	}
}

func TestAcceptDeclineEndpoints(t *testing.T) {
	// bob receives a request from alice and accepts it.
	aliceRouter, profiles := newFriendsRouter(t, "alice", "alice", "bob")

	rec := httptest.NewRecorder()
	aliceRouter.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/friends/requests", strings.NewReader(`{"target_id":"bob"}`)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("send status = %d", rec.Code)
	}

	social := services.NewMemSocialService(profiles)
	bobHandler := NewFriendsHandler(social, profiles, nil)
	bobRouter := chi.NewRouter()
	bobRouter.Use(asUser("bob"))
	bobRouter.Post("/friends/requests/{userId}/accept", bobHandler.AcceptRequest)
	bobRouter.Post("/friends/requests/{userId}/decline", bobHandler.DeclineRequest)

	rec = httptest.NewRecorder()
	bobRouter.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/friends/requests/alice/accept", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("accept status = %d, body = %s", rec.Code, rec.Body.String())
	}

	bob, _ := profiles.GetByID(context.Background(), "bob")
	if len(bob.Friends) != 1 || bob.Friends[0] != "alice" {
		t.Errorf("bob.friends = %v", bob.Friends)
	}

	// A second accept finds nothing pending.
	rec = httptest.NewRecorder()
	bobRouter.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/friends/requests/alice/accept", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("repeat accept status = %d, want 404", rec.Code)
	}
}

func TestGetFriendsEndpoint(t *testing.T) {
	router, profiles := newFriendsRouter(t, "alice", "alice", "bob", "carol")
	social := services.NewMemSocialService(profiles)
	ctx := context.Background()
	if err := social.SendRequest(ctx, "alice", "bob"); err != nil {
		t.Fatalf("SendRequest: %v", err)
	}
	if err := social.AcceptRequest(ctx, "bob", "alice"); err != nil {
		t.Fatalf("AcceptRequest: %v", err)
	}
	if err := social.SendRequest(ctx, "carol", "alice"); err != nil {
		t.Fatalf("SendRequest: %v", err)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/friends", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	body := decodeResponse(t, rec)
	data, ok := body["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("data missing in %v", body)
	}
	friends, _ := data["friends"].([]interface{})
	requests, _ := data["requests"].([]interface{})
	if len(friends) != 1 {
		t.Errorf("friends = %v, want bob only", friends)
	}
	if len(requests) != 1 {
		t.Errorf("requests = %v, want carol only", requests)
	}
}

func TestSearchUsersEndpoint(t *testing.T) {
	router, _ := newFriendsRouter(t, "alice", "alice", "bob")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/friends/search?email=bob%40example.com", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeResponse(t, rec)
	results, _ := body["data"].([]interface{})
	if len(results) != 1 {
		t.Fatalf("results = %v, want 1", results)
	}
	first, _ := results[0].(map[string]interface{})
	if first["id"] != "bob" || first["status"] != "can_request" {
		t.Errorf("result = %v", first)
	}

	// Missing query is a client error.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/friends/search", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing email status = %d, want 400", rec.Code)
	}
}

func TestRemoveFriendEndpoint_NotFriends(t *testing.T) {
	router, _ := newFriendsRouter(t, "alice", "alice", "bob")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/friends/bob", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
