package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/brewmap/backend/internal/models"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrProfileBadInput = errors.New("invalid profile input")
)

// ProfileService is the profile store accessor: point reads and writes on
// the users collection plus the exact-match email lookup.
type ProfileService interface {
	// GetByID fetches one profile. Returns ErrProfileNotFound on a miss.
	GetByID(ctx context.Context, id string) (*models.UserProfile, error)

	// GetOrCreate returns the profile for id, creating it with empty
	// relationship lists on first touch. Email and name backfill blank
	// fields on existing profiles (kept in sync with the auth record).
	GetOrCreate(ctx context.Context, id, email, name string) (*models.UserProfile, error)

	// ResolveMany maps ids to profiles. Lossy by contract: ids that fail to
	// resolve are dropped, and the order of resolvable inputs is preserved.
	ResolveMany(ctx context.Context, ids []string) ([]*models.UserProfile, error)

	// FindByEmail returns profiles whose email matches text exactly
	// (case-sensitive, no normalization), excluding excludeID.
	FindByEmail(ctx context.Context, text, excludeID string) ([]*models.UserProfile, error)
}

// MemProfileService is the in-memory ProfileService used by tests and by
// the server when no Mongo URI is configured.
type MemProfileService struct {
	mu       sync.RWMutex
	profiles map[string]*models.UserProfile
	byEmail  map[string]string // email -> profile id
}

func NewMemProfileService() *MemProfileService {
	return &MemProfileService{
		profiles: make(map[string]*models.UserProfile),
		byEmail:  make(map[string]string),
	}
}

func (s *MemProfileService) GetByID(ctx context.Context, id string) (*models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prof, exists := s.profiles[id]
	if !exists {
		return nil, ErrProfileNotFound
	}
	return cloneProfile(prof), nil
}

func (s *MemProfileService) GetOrCreate(ctx context.Context, id, email, name string) (*models.UserProfile, error) {
	if id == "" {
		return nil, ErrProfileBadInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prof, exists := s.profiles[id]; exists {
		if prof.Email == "" && email != "" {
			prof.Email = email
			s.byEmail[email] = id
		}
		if prof.Name == "" && name != "" {
			prof.Name = name
		}
		return cloneProfile(prof), nil
	}

	prof := &models.UserProfile{
		ID:             id,
		Name:           name,
		Email:          email,
		Friends:        []string{},
		FriendRequests: []string{},
		SentRequests:   []string{},
		CreatedAt:      time.Now(),
	}
	s.profiles[id] = prof
	if email != "" {
		s.byEmail[email] = id
	}
	return cloneProfile(prof), nil
}

func (s *MemProfileService) ResolveMany(ctx context.Context, ids []string) ([]*models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.UserProfile, 0, len(ids))
	for _, id := range ids {
		prof, exists := s.profiles[id]
		if !exists {
			// Missing profiles are dropped, not errored.
			continue
		}
		out = append(out, cloneProfile(prof))
	}
	return out, nil
}

func (s *MemProfileService) FindByEmail(ctx context.Context, text, excludeID string) ([]*models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.UserProfile, 0, 1)
	id, exists := s.byEmail[text]
	if !exists || id == excludeID {
		return out, nil
	}
	out = append(out, cloneProfile(s.profiles[id]))
	return out, nil
}

// locked returns the live profile for id. Callers must hold mu.
func (s *MemProfileService) locked(id string) (*models.UserProfile, bool) {
	prof, exists := s.profiles[id]
	return prof, exists
}

func cloneProfile(p *models.UserProfile) *models.UserProfile {
	cp := *p
	cp.Friends = append([]string{}, p.Friends...)
	cp.FriendRequests = append([]string{}, p.FriendRequests...)
	cp.SentRequests = append([]string{}, p.SentRequests...)
	return &cp
}
