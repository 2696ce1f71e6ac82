package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"lexio/internal/logger"
	"lexio/internal/repository"
)

// Auth setting keys
const (
	keyAdminUsername     = "admin.username"
	keyAdminPasswordHash = "admin.password_hash"
	keyAdminJWTSecret    = "admin.jwt_secret"
)

const tokenTTL = 24 * time.Hour

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrAuthNotConfigured  = errors.New("auth not configured")
)

// AuthService guards mutating endpoints with a single admin credential
// bootstrapped from the environment. Read paths stay open.
type AuthService interface {
	// Bootstrap stores the admin credential on first start. Later starts
	// with a credential already present leave it untouched.
	Bootstrap(ctx context.Context, username, password string) error
	// Login verifies the credential and issues a JWT.
	Login(ctx context.Context, username, password string) (string, error)
	// ValidateToken reports whether the token was issued by this instance
	// and has not expired.
	ValidateToken(ctx context.Context, token string) (bool, error)
}

type authService struct {
	settings repository.SettingsRepository
}

func NewAuthService(settings repository.SettingsRepository) AuthService {
	return &authService{settings: settings}
}

func (s *authService) Bootstrap(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return nil
	}

	existing, err := s.settings.Get(ctx, keyAdminUsername)
	if err != nil {
		return fmt.Errorf("check admin credential: %w", err)
	}
	if existing != nil {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	if err := s.settings.Set(ctx, keyAdminUsername, username); err != nil {
		return err
	}
	if err := s.settings.Set(ctx, keyAdminPasswordHash, string(hash)); err != nil {
		return err
	}
	if err := s.settings.Set(ctx, keyAdminJWTSecret, uuid.NewString()); err != nil {
		return err
	}

	logger.Info("admin credential bootstrapped",
		"module", "auth", "action", "bootstrap", "resource", "settings", "result", "ok",
		"username", username)
	return nil
}

func (s *authService) Login(ctx context.Context, username, password string) (string, error) {
	storedUser, err := s.settings.Get(ctx, keyAdminUsername)
	if err != nil {
		return "", err
	}
	storedHash, err := s.settings.Get(ctx, keyAdminPasswordHash)
	if err != nil {
		return "", err
	}
	if storedUser == nil || storedHash == nil {
		return "", ErrAuthNotConfigured
	}

	if username != storedUser.Value {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(storedHash.Value), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	secret, err := s.jwtSecret(ctx)
	if err != nil {
		return "", err
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

func (s *authService) ValidateToken(ctx context.Context, token string) (bool, error) {
	secret, err := s.jwtSecret(ctx)
	if err != nil {
		return false, err
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		return false, nil
	}
	return true, nil
}

func (s *authService) jwtSecret(ctx context.Context) (string, error) {
	secret, err := s.settings.Get(ctx, keyAdminJWTSecret)
	if err != nil {
		return "", err
	}
	if secret == nil {
		return "", ErrAuthNotConfigured
	}
	return secret.Value, nil
}
