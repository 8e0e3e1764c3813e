package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bookworld/internal/platform/crypto"
)

type Service struct {
	repo     Repository
	secret   string
	tokenTTL time.Duration
}

func NewService(repo Repository, secret string, tokenTTL time.Duration) *Service {
	return &Service{repo: repo, secret: secret, tokenTTL: tokenTTL}
}

func (s *Service) Register(ctx context.Context, name, email, password string) (Identity, error) {
	if err := crypto.ValidatePasswordStrength(password); err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrWeakPassword, err)
	}
	hash, err := crypto.HashPassword(password)
	if err != nil {
		return Identity{}, fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		Name:         strings.TrimSpace(name),
		Email:        normalizeEmail(email),
		PasswordHash: hash,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return Identity{}, err
	}
	return s.issue(*u)
}

func (s *Service) Login(ctx context.Context, email, password string) (Identity, error) {
	u, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Identity{}, ErrUnauthorized
		}
		return Identity{}, err
	}
	if !crypto.VerifyPassword(u.PasswordHash, password) {
		return Identity{}, ErrUnauthorized
	}
	return s.issue(u)
}

// Me returns the account behind an already verified token subject.
func (s *Service) Me(ctx context.Context, userID string) (User, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return User{}, ErrUnauthorized
	}
	return u, err
}

func (s *Service) issue(u User) (Identity, error) {
	token, err := crypto.GenerateToken(s.secret, u.ID, s.tokenTTL)
	if err != nil {
		return Identity{}, fmt.Errorf("generate token: %w", err)
	}
	return Identity{ID: u.ID, Name: u.Name, Email: u.Email, Token: token}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
