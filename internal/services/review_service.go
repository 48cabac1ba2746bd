package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/brewmap/backend/internal/models"
)

var (
	ErrReviewBadInput = errors.New("invalid review input")
	ErrReviewNotFound = errors.New("review not found")
)

// ReviewService is the append-only review channel for a place. Watch
// delivers the full re-read ordered list on every change (full resync, not
// a delta), matching what the clients render.
type ReviewService interface {
	Add(ctx context.Context, placeID, userID string, rating int, comment string) (*models.Review, error)

	// ListByPlace returns all reviews for the place, newest first.
	ListByPlace(ctx context.Context, placeID string) ([]*models.Review, error)

	// Watch emits the current full list immediately and again after every
	// change until ctx is cancelled. The channel is closed on cancellation.
	Watch(ctx context.Context, placeID string) (<-chan []*models.Review, error)
}

type MemReviewService struct {
	mu      sync.RWMutex
	byPlace map[string][]*models.Review
	watches map[string][]chan []*models.Review
}

func NewMemReviewService() *MemReviewService {
	return &MemReviewService{
		byPlace: make(map[string][]*models.Review),
		watches: make(map[string][]chan []*models.Review),
	}
}

func (s *MemReviewService) Add(ctx context.Context, placeID, userID string, rating int, comment string) (*models.Review, error) {
	comment = strings.TrimSpace(comment)
	if placeID == "" || rating < 1 || rating > 5 || comment == "" {
		return nil, ErrReviewBadInput
	}

	rev := &models.Review{
		ID:        uuid.New().String(),
		PlaceID:   placeID,
		UserID:    userID,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	s.byPlace[placeID] = append(s.byPlace[placeID], rev)
	snapshot := s.sortedLocked(placeID)
	// Sends happen under the lock: Watch closes channels under the same
	// lock, so a close can never interleave with a send here.
	for _, ch := range s.watches[placeID] {
		select {
		case ch <- snapshot:
		default:
			// Watcher hasn't drained the previous snapshot. Replace it
			// with the newest so a slow watcher never ends up stale.
			select {
			case <-ch:
			default:
			}
			ch <- snapshot
		}
	}
	s.mu.Unlock()
	return rev, nil
}

func (s *MemReviewService) ListByPlace(ctx context.Context, placeID string) ([]*models.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedLocked(placeID), nil
}

func (s *MemReviewService) Watch(ctx context.Context, placeID string) (<-chan []*models.Review, error) {
	ch := make(chan []*models.Review, 1)

	s.mu.Lock()
	s.watches[placeID] = append(s.watches[placeID], ch)
	ch <- s.sortedLocked(placeID)
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		subs := s.watches[placeID]
		for i, sub := range subs {
			if sub == ch {
				s.watches[placeID] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		// Close while still holding the lock; Add only sends under it.
		close(ch)
		s.mu.Unlock()
	}()
	return ch, nil
}

// sortedLocked returns a copy of the place's reviews ordered by creation
// time descending. Callers must hold mu.
func (s *MemReviewService) sortedLocked(placeID string) []*models.Review {
	revs := s.byPlace[placeID]
	out := make([]*models.Review, len(revs))
	copy(out, revs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
