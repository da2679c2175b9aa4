package customer

import (
	"context"
	"errors"

	"github.com/dilshand3/SubsFlow/internal/auth"
	"github.com/dilshand3/SubsFlow/internal/cache"
	"github.com/dilshand3/SubsFlow/internal/logger"
)

var (
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type Service interface {
	Register(ctx context.Context, req RegisterRequest, role string) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	GetByID(ctx context.Context, id string) (*Customer, error)
}

type service struct {
	repo      Repository
	cache     *cache.Cache
	jwtSecret string
}

func NewService(repo Repository, c *cache.Cache, jwtSecret string) Service {
	return &service{repo: repo, cache: c, jwtSecret: jwtSecret}
}

func (s *service) Register(ctx context.Context, req RegisterRequest, role string) (*AuthResponse, error) {
	exists, err := s.repo.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailExists
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	customer, err := s.repo.Create(ctx, req.Name, req.Email, passwordHash, role)
	if err != nil {
		return nil, err
	}

	accessToken, refreshToken, err := auth.GenerateTokens(
		customer.ID, customer.Email, customer.Role, s.jwtSecret, s.jwtSecret,
	)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetJSON(ctx, cache.UserKey(customer.ID), customer, cache.UserTTL); err != nil {
		logger.Errorf("Failed to cache customer %s: %v", customer.ID, err)
	}

	return &AuthResponse{Customer: customer, AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	customer, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if !auth.CheckPassword(customer.PasswordHash, req.Password) {
		return nil, ErrInvalidCredentials
	}

	accessToken, refreshToken, err := auth.GenerateTokens(
		customer.ID, customer.Email, customer.Role, s.jwtSecret, s.jwtSecret,
	)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetJSON(ctx, cache.UserKey(customer.ID), customer, cache.UserTTL); err != nil {
		logger.Errorf("Failed to cache customer %s: %v", customer.ID, err)
	}

	return &AuthResponse{Customer: customer, AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Customer, error) {
	var cached Customer
	if hit, err := s.cache.GetJSON(ctx, cache.UserKey(id), &cached); err == nil && hit {
		return &cached, nil
	}

	customer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetJSON(ctx, cache.UserKey(id), customer, cache.UserTTL); err != nil {
		logger.Errorf("Failed to cache customer %s: %v", id, err)
	}

	return customer, nil
}
