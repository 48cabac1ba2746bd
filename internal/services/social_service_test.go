package services

import (
	"context"
	"errors"
	"testing"

	"github.com/brewmap/backend/internal/models"
)

func newGraph(t *testing.T, ids ...string) (*MemProfileService, *MemSocialService) {
	t.Helper()
	profiles := NewMemProfileService()
	for _, id := range ids {
		if _, err := profiles.GetOrCreate(context.Background(), id, id+"@example.com", "User "+id); err != nil {
			t.Fatalf("GetOrCreate(%s): %v", id, err)
		}
	}
	return profiles, NewMemSocialService(profiles)
}

func mustProfile(t *testing.T, profiles *MemProfileService, id string) *models.UserProfile {
	t.Helper()
	prof, err := profiles.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetByID(%s): %v", id, err)
	}
	return prof
}

func TestSendRequest(t *testing.T) {
	ctx := context.Background()
	profiles, social := newGraph(t, "alice", "bob")

	if err := social.SendRequest(ctx, "alice", "bob"); err != nil {
		t.Fatalf("SendRequest: %v", err)
	}

	alice := mustProfile(t, profiles, "alice")
	bob := mustProfile(t, profiles, "bob")
	if !models.ContainsID(alice.SentRequests, "bob") {
		t.Error("alice.sent_requests missing bob")
	}
	if !models.ContainsID(bob.FriendRequests, "alice") {
		t.Error("bob.friend_requests missing alice")
	}
	if len(alice.Friends) != 0 || len(bob.Friends) != 0 {
		t.Error("send must not create a friendship")
	}
}

func TestSendRequest_DuplicateDoesNotStack(t *testing.T) {
	ctx := context.Background()
	profiles, social := newGraph(t, "alice", "bob")

	if err := social.SendRequest(ctx, "alice", "bob"); err != nil {
		t.Fatalf("first SendRequest: %v", err)
	}
	if err := social.SendRequest(ctx, "alice", "bob"); !errors.Is(err, ErrRequestPending) {
		t.Fatalf("second SendRequest err = %v, want ErrRequestPending", err)
	}

	alice := mustProfile(t, profiles, "alice")
	bob := mustProfile(t, profiles, "bob")
	if len(alice.SentRequests) != 1 {
		t.Errorf("alice.sent_requests = %v, want exactly one entry", alice.SentRequests)
	}
	if len(bob.FriendRequests) != 1 {
		t.Errorf("bob.friend_requests = %v, want exactly one entry", bob.FriendRequests)
	}
}

func TestSendRequest_ReversePending(t *testing.T) {
	ctx := context.Background()
	_, social := newGraph(t, "alice", "bob")

	if err := social.SendRequest(ctx, "bob", "alice"); err != nil {
		t.Fatalf("SendRequest: %v", err)
	}
	// Alice already has a request from Bob waiting; she should accept it,
	// not open a second pending edge.
	if err := social.SendRequest(ctx, "alice", "bob"); !errors.Is(err, ErrRequestPending) {
		t.Errorf("reverse SendRequest err = %v, want ErrRequestPending", err)
	}
}

func TestSendRequest_Self(t *testing.T) {
	_, social := newGraph(t, "alice")
	if err := social.SendRequest(context.Background(), "alice", "alice"); !errors.Is(err, ErrSelfRelation) {
		t.Errorf("err = %v, want ErrSelfRelation", err)
	}
}

func TestSendRequest_UnknownTarget(t *testing.T) {
	_, social := newGraph(t, "alice")
	if err := social.SendRequest(context.Background(), "alice", "ghost"); !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("err = %v, want ErrProfileNotFound", err)
	}
}

func TestSendRequest_AlreadyFriends(t *testing.T) {
	ctx := context.Background()
	_, social := newGraph(t, "alice", "bob")
	if err := social.SendRequest(ctx, "alice", "bob"); err != nil {
		t.Fatalf("SendRequest: %v", err)
	}
	if err := social.AcceptRequest(ctx, "bob", "alice"); err != nil {
		t.Fatalf("AcceptRequest: %v", err)
	}
	if err := social.SendRequest(ctx, "alice", "bob"); !errors.Is(err, ErrAlreadyFriends) {
		t.Errorf("err = %v, want ErrAlreadyFriends", err)
	}
}

func TestAcceptRequest(t *testing.T) {
	ctx := context.Background()
	profiles, social := newGraph(t, "alice", "bob")

	if err := social.SendRequest(ctx, "alice", "bob"); err != nil {
		t.Fatalf("SendRequest: %v", err)
	}
	if err := social.AcceptRequest(ctx, "bob", "alice"); err != nil {
		t.Fatalf("AcceptRequest: %v", err)
	}

	alice := mustProfile(t, profiles, "alice")
	bob := mustProfile(t, profiles, "bob")
	if !models.ContainsID(alice.Friends, "bob") || !models.ContainsID(bob.Friends, "alice") {
		t.Error("friendship must be recorded on both profiles")
	}
	if len(alice.SentRequests) != 0 {
		t.Errorf("alice.sent_requests = %v, want empty", alice.SentRequests)
	}
	if len(bob.FriendRequests) != 0 {
		t.Errorf("bob.friend_requests = %v, want empty", bob.FriendRequests)
	}
}

func TestAcceptRequest_NoPending(t *testing.T) {
	_, social := newGraph(t, "alice", "bob")
	if err := social.AcceptRequest(context.Background(), "bob", "alice"); !errors.Is(err, ErrNoPendingRequest) {
		t.Errorf("err = %v, want ErrNoPendingRequest", err)
	}
}

func TestDeclineRequest_LeavesSenderEntry(t *testing.T) {
	ctx := context.Background()
	profiles, social := newGraph(t, "alice", "bob")

	if err := social.SendRequest(ctx, "alice", "bob"); err != nil {
		t.Fatalf("SendRequest: %v", err)
	}
	if err := social.DeclineRequest(ctx, "bob", "alice"); err != nil {
		t.Fatalf("DeclineRequest: %v", err)
	}

	bob := mustProfile(t, profiles, "bob")
	if models.ContainsID(bob.FriendRequests, "alice") {
		t.Error("decline must clear the incoming request")
	}

	// Decline only touches the recipient's side. The sender's sent_requests
	// entry stays behind; the graph-audit worker reports these.
	alice := mustProfile(t, profiles, "alice")
	if !models.ContainsID(alice.SentRequests, "bob") {
		t.Error("sender's sent_requests entry should remain after a decline")
	}
}

func TestSendRequest_BlockedAfterDecline(t *testing.T) {
	ctx := context.Background()
	profiles, social := newGraph(t, "alice", "bob")

	if err := social.SendRequest(ctx, "alice", "bob"); err != nil {
		t.Fatalf("SendRequest: %v", err)
	}
	if err := social.DeclineRequest(ctx, "bob", "alice"); err != nil {
		t.Fatalf("DeclineRequest: %v", err)
	}

	// The retained sent_requests entry keeps the pair in pending state from
	// alice's side, so she cannot re-send. Current behavior; the pair only
	// unblocks if bob sends the next request.
	if err := social.SendRequest(ctx, "alice", "bob"); !errors.Is(err, ErrRequestPending) {
		t.Fatalf("re-send after decline err = %v, want ErrRequestPending", err)
	}

	// The reverse direction still works and resolves into friendship, but
	// alice's stale entry survives the accept and shows up in the audit.
	if err := social.SendRequest(ctx, "bob", "alice"); err != nil {
		t.Fatalf("reverse SendRequest: %v", err)
	}
	if err := social.AcceptRequest(ctx, "alice", "bob"); err != nil {
		t.Fatalf("AcceptRequest: %v", err)
	}

	alice := mustProfile(t, profiles, "alice")
	if !models.ContainsID(alice.Friends, "bob") {
		t.Error("reverse request should still produce a friendship")
	}
	if !models.ContainsID(alice.SentRequests, "bob") {
		t.Error("stale sent_requests entry should survive the accept")
	}

	counts := make(map[string]int)
	for _, issue := range AuditProfiles([]*models.UserProfile{alice, mustProfile(t, profiles, "bob")}) {
		counts[issue.Kind]++
	}
	if counts[AuditFriendAndPending] == 0 {
		t.Error("audit should report the stale entry as friend_and_pending")
	}
}

func TestDeclineRequest_NoPending(t *testing.T) {
	_, social := newGraph(t, "alice", "bob")
	if err := social.DeclineRequest(context.Background(), "bob", "alice"); !errors.Is(err, ErrNoPendingRequest) {
		t.Errorf("err = %v, want ErrNoPendingRequest", err)
	}
}

func TestRemoveFriend(t *testing.T) {
	ctx := context.Background()
	profiles, social := newGraph(t, "alice", "bob")

	if err := social.SendRequest(ctx, "alice", "bob"); err != nil {
		t.Fatalf("SendRequest: %v", err)
	}
	if err := social.AcceptRequest(ctx, "bob", "alice"); err != nil {
		t.Fatalf("AcceptRequest: %v", err)
	}
	if err := social.RemoveFriend(ctx, "alice", "bob"); err != nil {
		t.Fatalf("RemoveFriend: %v", err)
	}

	alice := mustProfile(t, profiles, "alice")
	bob := mustProfile(t, profiles, "bob")
	if len(alice.Friends) != 0 || len(bob.Friends) != 0 {
		t.Error("removal must clear the friendship on both profiles")
	}
}

func TestRemoveFriend_NotFriends(t *testing.T) {
	_, social := newGraph(t, "alice", "bob")
	if err := social.RemoveFriend(context.Background(), "alice", "bob"); !errors.Is(err, ErrNotFriends) {
		t.Errorf("err = %v, want ErrNotFriends", err)
	}
}

func TestSearchByEmail(t *testing.T) {
	ctx := context.Background()
	_, social := newGraph(t, "alice", "bob", "carol")

	results, err := social.SearchByEmail(ctx, "alice", "bob@example.com")
	if err != nil {
		t.Fatalf("SearchByEmail: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].ID != "bob" {
		t.Errorf("result id = %q, want bob", results[0].ID)
	}
	if results[0].Status != models.StatusCanRequest {
		t.Errorf("status = %q, want %q", results[0].Status, models.StatusCanRequest)
	}
}

func TestSearchByEmail_ExcludesCaller(t *testing.T) {
	ctx := context.Background()
	_, social := newGraph(t, "alice")

	results, err := social.SearchByEmail(ctx, "alice", "alice@example.com")
	if err != nil {
		t.Fatalf("SearchByEmail: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("self search returned %v, want empty", results)
	}
}

func TestSearchByEmail_Statuses(t *testing.T) {
	ctx := context.Background()
	_, social := newGraph(t, "alice", "bob", "carol")

	// bob becomes a friend, carol has a pending request from alice.
	if err := social.SendRequest(ctx, "alice", "bob"); err != nil {
		t.Fatalf("SendRequest: %v", err)
	}
	if err := social.AcceptRequest(ctx, "bob", "alice"); err != nil {
		t.Fatalf("AcceptRequest: %v", err)
	}
	if err := social.SendRequest(ctx, "alice", "carol"); err != nil {
		t.Fatalf("SendRequest: %v", err)
	}

	results, err := social.SearchByEmail(ctx, "alice", "bob@example.com")
	if err != nil {
		t.Fatalf("SearchByEmail: %v", err)
	}
	if len(results) != 1 || results[0].Status != models.StatusFriend {
		t.Errorf("friend search = %+v, want status %q", results, models.StatusFriend)
	}

	results, err = social.SearchByEmail(ctx, "alice", "carol@example.com")
	if err != nil {
		t.Fatalf("SearchByEmail: %v", err)
	}
	if len(results) != 1 || results[0].Status != models.StatusPendingFromCaller {
		t.Errorf("pending search = %+v, want status %q", results, models.StatusPendingFromCaller)
	}
}
