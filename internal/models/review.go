package models

import (
	"math"
	"strings"
	"time"
)

// Review is one rating+comment for a cafe, keyed by a generated id and
// grouped by the Places place_id. Append-only from the client's perspective.
type Review struct {
	ID        string    `json:"id" bson:"_id"`
	PlaceID   string    `json:"place_id" bson:"place_id"`
	UserID    string    `json:"user_id" bson:"user_id"`
	Rating    int       `json:"rating" bson:"rating"`
	Comment   string    `json:"comment" bson:"comment"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

type SubmitReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (r *SubmitReviewRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Rating < 1 || r.Rating > 5 {
		errors["rating"] = "Rating must be between 1 and 5"
	}
	if strings.TrimSpace(r.Comment) == "" {
		errors["comment"] = "Comment is required"
	}

	return errors
}

// AverageRating is the display average, rounded to one decimal place.
// An empty list averages to 0.
func AverageRating(reviews []*Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	sum := 0
	for _, rev := range reviews {
		sum += rev.Rating
	}
	avg := float64(sum) / float64(len(reviews))
	return math.Round(avg*10) / 10
}

// ReviewFlag records one user reporting a review. At most one flag per
// (user, review) pair.
type ReviewFlag struct {
	ID        string    `json:"id" bson:"_id"`
	ReviewID  string    `json:"review_id" bson:"review_id"`
	PlaceID   string    `json:"place_id" bson:"place_id"`
	UserID    string    `json:"user_id" bson:"user_id"`
	Reason    string    `json:"reason" bson:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}
