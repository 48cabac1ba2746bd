package services

import (
	"context"
	"errors"

	"github.com/brewmap/backend/internal/models"
)

var (
	ErrSelfRelation     = errors.New("cannot send a friend request to yourself")
	ErrAlreadyFriends   = errors.New("users are already friends")
	ErrRequestPending   = errors.New("a friend request is already pending")
	ErrNoPendingRequest = errors.New("no pending friend request from that user")
	ErrNotFriends       = errors.New("users are not friends")

	// ErrGraphConflict means a transition lost a race with a concurrent
	// writer on the same pair. Safe to retry.
	ErrGraphConflict = errors.New("social graph transition aborted, retry")
)

// SocialService performs the four relationship transitions between a pair
// of users plus friend discovery. Caller identity is always explicit; there
// is no ambient session. Each transition either applies to both profiles or
// to neither.
type SocialService interface {
	// SendRequest moves (caller, target) from unrelated to pending: target
	// joins caller's sent_requests, caller joins target's friend_requests.
	// Rejects self-requests, existing friendship, and a pending request in
	// either direction, so repeated sends cannot stack duplicates.
	SendRequest(ctx context.Context, callerID, targetID string) error

	// AcceptRequest resolves a pending request from fromID to the caller:
	// both pending entries are cleared and each id joins the other's
	// friends list.
	AcceptRequest(ctx context.Context, callerID, fromID string) error

	// DeclineRequest removes fromID from the caller's friend_requests only.
	// The requester's sent_requests entry is left in place on purpose; see
	// the graph-audit worker for how the leftover is surfaced.
	DeclineRequest(ctx context.Context, callerID, fromID string) error

	// RemoveFriend deletes the friendship from both profiles.
	RemoveFriend(ctx context.Context, callerID, friendID string) error

	// SearchByEmail finds profiles whose email matches text exactly, never
	// including the caller, each classified relative to the caller.
	SearchByEmail(ctx context.Context, callerID, text string) ([]models.SearchResult, error)
}

// MemSocialService runs transitions against a MemProfileService under its
// lock, which gives the all-or-nothing behavior the Mongo implementation
// gets from transactions.
type MemSocialService struct {
	profiles *MemProfileService
}

func NewMemSocialService(profiles *MemProfileService) *MemSocialService {
	return &MemSocialService{profiles: profiles}
}

func (s *MemSocialService) SendRequest(ctx context.Context, callerID, targetID string) error {
	if callerID == targetID {
		return ErrSelfRelation
	}

	s.profiles.mu.Lock()
	defer s.profiles.mu.Unlock()

	caller, ok := s.profiles.locked(callerID)
	if !ok {
		return ErrProfileNotFound
	}
	target, ok := s.profiles.locked(targetID)
	if !ok {
		return ErrProfileNotFound
	}

	if err := checkUnrelated(caller, targetID); err != nil {
		return err
	}

	caller.SentRequests = addToSet(caller.SentRequests, targetID)
	target.FriendRequests = addToSet(target.FriendRequests, callerID)
	return nil
}

func (s *MemSocialService) AcceptRequest(ctx context.Context, callerID, fromID string) error {
	if callerID == fromID {
		return ErrSelfRelation
	}

	s.profiles.mu.Lock()
	defer s.profiles.mu.Unlock()

	caller, ok := s.profiles.locked(callerID)
	if !ok {
		return ErrProfileNotFound
	}
	from, ok := s.profiles.locked(fromID)
	if !ok {
		return ErrProfileNotFound
	}

	if !models.ContainsID(caller.FriendRequests, fromID) {
		return ErrNoPendingRequest
	}

	caller.FriendRequests = models.WithoutID(caller.FriendRequests, fromID)
	caller.Friends = addToSet(caller.Friends, fromID)
	from.SentRequests = models.WithoutID(from.SentRequests, callerID)
	from.Friends = addToSet(from.Friends, callerID)
	return nil
}

func (s *MemSocialService) DeclineRequest(ctx context.Context, callerID, fromID string) error {
	s.profiles.mu.Lock()
	defer s.profiles.mu.Unlock()

	caller, ok := s.profiles.locked(callerID)
	if !ok {
		return ErrProfileNotFound
	}
	if !models.ContainsID(caller.FriendRequests, fromID) {
		return ErrNoPendingRequest
	}

	// The requester's sent_requests entry stays behind.
	caller.FriendRequests = models.WithoutID(caller.FriendRequests, fromID)
	return nil
}

func (s *MemSocialService) RemoveFriend(ctx context.Context, callerID, friendID string) error {
	s.profiles.mu.Lock()
	defer s.profiles.mu.Unlock()

	caller, ok := s.profiles.locked(callerID)
	if !ok {
		return ErrProfileNotFound
	}
	friend, ok := s.profiles.locked(friendID)
	if !ok {
		return ErrProfileNotFound
	}
	if !models.ContainsID(caller.Friends, friendID) {
		return ErrNotFriends
	}

	caller.Friends = models.WithoutID(caller.Friends, friendID)
	friend.Friends = models.WithoutID(friend.Friends, callerID)
	return nil
}

func (s *MemSocialService) SearchByEmail(ctx context.Context, callerID, text string) ([]models.SearchResult, error) {
	caller, err := s.profiles.GetByID(ctx, callerID)
	if err != nil {
		return nil, err
	}
	matches, err := s.profiles.FindByEmail(ctx, text, callerID)
	if err != nil {
		return nil, err
	}
	return classifyAll(caller, matches), nil
}

// checkUnrelated verifies the send-request precondition from the caller's
// view of the pair.
func checkUnrelated(caller *models.UserProfile, targetID string) error {
	if models.ContainsID(caller.Friends, targetID) {
		return ErrAlreadyFriends
	}
	if models.ContainsID(caller.SentRequests, targetID) {
		return ErrRequestPending
	}
	// A reverse pending request should be accepted, not re-sent.
	if models.ContainsID(caller.FriendRequests, targetID) {
		return ErrRequestPending
	}
	return nil
}

func classifyAll(caller *models.UserProfile, matches []*models.UserProfile) []models.SearchResult {
	out := make([]models.SearchResult, 0, len(matches))
	for _, m := range matches {
		out = append(out, models.SearchResult{
			PublicProfile: m.Public(),
			Status:        caller.Classify(m.ID),
		})
	}
	return out
}

func addToSet(ids []string, id string) []string {
	if models.ContainsID(ids, id) {
		return ids
	}
	return append(ids, id)
}
