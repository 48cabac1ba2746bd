package services

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/brewmap/backend/internal/models"
)

var (
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// AuthService is the local-development substitute for Firebase Auth:
// bcrypt credentials held in memory, profiles created through the regular
// profile store so the rest of the stack behaves identically.
type AuthService struct {
	mu       sync.RWMutex
	creds    map[string]credential // email -> credential
	profiles ProfileService
}

type credential struct {
	userID       string
	passwordHash []byte
}

func NewAuthService(profiles ProfileService) *AuthService {
	return &AuthService{
		creds:    make(map[string]credential),
		profiles: profiles,
	}
}

func (s *AuthService) Register(ctx context.Context, req *models.RegisterRequest) (*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.creds[req.Email]; exists {
		return nil, ErrEmailExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	userID := uuid.New().String()
	prof, err := s.profiles.GetOrCreate(ctx, userID, req.Email, req.Name)
	if err != nil {
		return nil, err
	}

	s.creds[req.Email] = credential{userID: userID, passwordHash: hash}
	return prof, nil
}

func (s *AuthService) Login(ctx context.Context, req *models.LoginRequest) (*models.UserProfile, error) {
	s.mu.RLock()
	cred, exists := s.creds[req.Email]
	s.mu.RUnlock()

	if !exists {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(cred.passwordHash, []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.profiles.GetByID(ctx, cred.userID)
}
