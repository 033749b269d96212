package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/gypsum_shop/internal/models"
	"github.com/Skotchmaster/gypsum_shop/internal/repo"
	"github.com/Skotchmaster/gypsum_shop/pkg/hash"
	"github.com/Skotchmaster/gypsum_shop/pkg/logging"
	"github.com/Skotchmaster/gypsum_shop/pkg/tokens"
)

const minPasswordLen = 8

type AuthService struct {
	Repo      *repo.GormRepo
	JWTSecret []byte
	AccessTTL time.Duration
}

type LoginResult struct {
	AccessToken string
	AccessExp   time.Time
	IsAdmin     bool
}

func (s *AuthService) Register(ctx context.Context, username, password, confirm string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	username = strings.TrimSpace(username)
	switch {
	case username == "":
		return nil, fmt.Errorf("%w: username required", ErrValidation)
	case len(password) < minPasswordLen:
		return nil, fmt.Errorf("%w: password shorter than %d", ErrValidation, minPasswordLen)
	case password != confirm:
		return nil, fmt.Errorf("%w: passwords do not match", ErrValidation)
	}

	if _, err := s.Repo.GetUserByUsername(ctx, username); err == nil {
		return nil, fmt.Errorf("%w: user already exists", ErrConflict)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		l.Error("register_error", "reason", "cannot hash the password", "error", err)
		return nil, err
	}
	user := &models.User{Username: username, PasswordHash: pwHash, Role: models.RoleUser}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		if s.duplicateUser(ctx, username, err) {
			l.Warn("register_failed", "reason", "username taken concurrently")
			return nil, fmt.Errorf("%w: user already exists", ErrConflict)
		}
		return nil, err
	}
	l.Info("user_registered", "user_id", user.ID)
	return user, nil
}

// duplicateUser tells a lost registration race from other insert errors.
// Drivers without error translation are covered by looking the name up again.
func (s *AuthService) duplicateUser(ctx context.Context, username string, err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	_, lookupErr := s.Repo.GetUserByUsername(ctx, username)
	return lookupErr == nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login", "username", username)

	user, err := s.Repo.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("login_failed", "reason", "unknown user")
			return nil, fmt.Errorf("%w: invalid username or password", ErrUnauthorized)
		}
		return nil, err
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "reason", "wrong password")
		return nil, fmt.Errorf("%w: invalid username or password", ErrUnauthorized)
	}

	accessExp := time.Now().Add(s.AccessTTL)
	accessToken, err := tokens.SignAccessToken(fmt.Sprint(user.ID), user.Role, accessExp, s.JWTSecret)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken: accessToken,
		AccessExp:   accessExp,
		IsAdmin:     user.Role == models.RoleAdmin,
	}, nil
}

// EnsureAdmin creates the admin account, or promotes and resets an
// existing user with that name.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return fmt.Errorf("%w: admin credentials required", ErrValidation)
	}
	pwHash, err := hash.HashPassword(password)
	if err != nil {
		return err
	}

	user, err := s.Repo.GetUserByUsername(ctx, username)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return s.Repo.CreateUser(ctx, &models.User{Username: username, PasswordHash: pwHash, Role: models.RoleAdmin})
	case err != nil:
		return err
	}

	user.PasswordHash = pwHash
	user.Role = models.RoleAdmin
	return s.Repo.SaveUser(ctx, user)
}
