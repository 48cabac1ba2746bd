package services

import "github.com/brewmap/backend/internal/models"

// Inconsistency kinds reported by AuditProfiles.
const (
	AuditSelfReference    = "self_reference"
	AuditOneSidedFriend   = "one_sided_friendship"
	AuditDanglingSent     = "dangling_sent_request" // expected after declines
	AuditDanglingIncoming = "dangling_incoming_request"
	AuditFriendAndPending = "friend_and_pending"
	AuditUnknownUser      = "unknown_user"
)

// GraphInconsistency is one symmetry violation between a pair of profiles.
type GraphInconsistency struct {
	Kind    string `json:"kind"`
	UserID  string `json:"user_id"`
	OtherID string `json:"other_id"`
	Field   string `json:"field"`
}

// AuditProfiles checks the intended social-graph invariants across a full
// profile snapshot and reports every violation. It never mutates anything:
// dangling sent_requests entries in particular are a documented consequence
// of declines and must not be silently repaired.
func AuditProfiles(profiles []*models.UserProfile) []GraphInconsistency {
	byID := make(map[string]*models.UserProfile, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
	}

	var out []GraphInconsistency
	report := func(kind, userID, otherID, field string) {
		out = append(out, GraphInconsistency{Kind: kind, UserID: userID, OtherID: otherID, Field: field})
	}

	for _, p := range profiles {
		for field, ids := range map[string][]string{
			"friends":         p.Friends,
			"friend_requests": p.FriendRequests,
			"sent_requests":   p.SentRequests,
		} {
			for _, other := range ids {
				if other == p.ID {
					report(AuditSelfReference, p.ID, other, field)
					continue
				}
				if _, known := byID[other]; !known {
					report(AuditUnknownUser, p.ID, other, field)
				}
			}
		}

		for _, other := range p.Friends {
			o, known := byID[other]
			if !known || other == p.ID {
				continue
			}
			if !models.ContainsID(o.Friends, p.ID) {
				report(AuditOneSidedFriend, p.ID, other, "friends")
			}
			if models.ContainsID(p.SentRequests, other) || models.ContainsID(p.FriendRequests, other) {
				report(AuditFriendAndPending, p.ID, other, "friends")
			}
		}

		for _, other := range p.SentRequests {
			o, known := byID[other]
			if !known || other == p.ID {
				continue
			}
			if !models.ContainsID(o.FriendRequests, p.ID) && !models.ContainsID(o.Friends, p.ID) {
				report(AuditDanglingSent, p.ID, other, "sent_requests")
			}
		}

		for _, other := range p.FriendRequests {
			o, known := byID[other]
			if !known || other == p.ID {
				continue
			}
			if !models.ContainsID(o.SentRequests, p.ID) {
				report(AuditDanglingIncoming, p.ID, other, "friend_requests")
			}
		}
	}
	return out
}
