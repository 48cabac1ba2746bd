package models

import "time"

// UserProfile is the per-account document in the users collection, keyed by
// the auth UID. The relationship arrays hold other users' ids and are
// maintained with set semantics, so a pair can never appear twice.
type UserProfile struct {
	ID             string    `json:"id" bson:"_id"`
	Name           string    `json:"name" bson:"name,omitempty"`
	Email          string    `json:"email" bson:"email,omitempty"`
	Friends        []string  `json:"friends" bson:"friends"`
	FriendRequests []string  `json:"friend_requests" bson:"friend_requests"`
	SentRequests   []string  `json:"sent_requests" bson:"sent_requests"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
}

// PublicProfile is safe to share with other authenticated users.
type PublicProfile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (p *UserProfile) Public() PublicProfile {
	return PublicProfile{
		ID:    p.ID,
		Name:  p.Name,
		Email: p.Email,
	}
}

// RelationshipStatus classifies another user relative to the caller.
type RelationshipStatus string

const (
	StatusFriend            RelationshipStatus = "friend"
	StatusPendingFromCaller RelationshipStatus = "pending"
	StatusCanRequest        RelationshipStatus = "can_request"
)

// Classify returns how targetID relates to this profile. Friendship wins
// over a pending outgoing request; anything else is requestable.
func (p *UserProfile) Classify(targetID string) RelationshipStatus {
	if ContainsID(p.Friends, targetID) {
		return StatusFriend
	}
	if ContainsID(p.SentRequests, targetID) {
		return StatusPendingFromCaller
	}
	return StatusCanRequest
}

// SearchResult pairs a public profile with its relationship to the caller.
type SearchResult struct {
	PublicProfile
	Status RelationshipStatus `json:"status"`
}

func ContainsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// WithoutID returns ids minus every occurrence of id.
func WithoutID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
