package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/brewmap/backend/internal/models"
)

var (
	ErrFlagBadInput   = errors.New("invalid flag input")
	ErrAlreadyFlagged = errors.New("review already flagged by this user")
)

// FlagService records user reports of reviews, at most one per
// (user, review) pair.
type FlagService interface {
	FlagReview(ctx context.Context, userID, placeID, reviewID, reason string) (*models.ReviewFlag, error)
}

type MemFlagService struct {
	mu    sync.Mutex
	flags map[string]*models.ReviewFlag // userID+"/"+reviewID
}

func NewMemFlagService() *MemFlagService {
	return &MemFlagService{flags: make(map[string]*models.ReviewFlag)}
}

func (s *MemFlagService) FlagReview(ctx context.Context, userID, placeID, reviewID, reason string) (*models.ReviewFlag, error) {
	if userID == "" || reviewID == "" {
		return nil, ErrFlagBadInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := userID + "/" + reviewID
	if _, exists := s.flags[key]; exists {
		return nil, ErrAlreadyFlagged
	}

	flag := &models.ReviewFlag{
		ID:        uuid.New().String(),
		ReviewID:  reviewID,
		PlaceID:   placeID,
		UserID:    userID,
		Reason:    reason,
		CreatedAt: time.Now(),
	}
	s.flags[key] = flag
	return flag, nil
}
