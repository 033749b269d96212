package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/gypsum_shop/internal/models"
	"github.com/Skotchmaster/gypsum_shop/internal/repo"
	"github.com/Skotchmaster/gypsum_shop/internal/testdb"
	"github.com/Skotchmaster/gypsum_shop/pkg/tokens"
)

var testSecret = []byte("test-secret")

func newAuth(t *testing.T) *AuthService {
	t.Helper()
	return &AuthService{Repo: &repo.GormRepo{DB: testdb.Open(t)}, JWTSecret: testSecret, AccessTTL: time.Hour}
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newAuth(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "aigerim", "password123", "password123")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.NotEqual(t, "password123", user.PasswordHash)

	res, err := svc.Login(ctx, "aigerim", "password123")
	require.NoError(t, err)
	assert.False(t, res.IsAdmin)

	claims, err := tokens.AccessClaimsFromToken(res.AccessToken, testSecret)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, claims.Role)
}

func TestRegister_Errors(t *testing.T) {
	svc := newAuth(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "aigerim", "password123", "password124")
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Register(ctx, "aigerim", "short", "short")
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Register(ctx, "aigerim", "password123", "password123")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "aigerim", "password123", "password123")
	require.ErrorIs(t, err, ErrConflict)
}

func TestLogin_BadCredentials(t *testing.T) {
	svc := newAuth(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "aigerim", "password123", "password123")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "aigerim", "wrong-password")
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.Login(ctx, "nobody", "password123")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestEnsureAdmin(t *testing.T) {
	svc := newAuth(t)
	ctx := context.Background()

	require.NoError(t, svc.EnsureAdmin(ctx, "admin", "s3cret-pass"))
	res, err := svc.Login(ctx, "admin", "s3cret-pass")
	require.NoError(t, err)
	assert.True(t, res.IsAdmin)

	require.NoError(t, svc.EnsureAdmin(ctx, "admin", "rotated-pass"))
	_, err = svc.Login(ctx, "admin", "rotated-pass")
	require.NoError(t, err)
	_, err = svc.Login(ctx, "admin", "s3cret-pass")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestRegister_ConcurrentDuplicate(t *testing.T) {
	db := testdb.Open(t)
	svc := &AuthService{Repo: &repo.GormRepo{DB: db}, JWTSecret: testSecret, AccessTTL: time.Hour}

	// another request inserts the same username between the lookup and the insert
	raced := false
	err := db.Callback().Create().Before("gorm:begin_transaction").Register("test:race_register", func(tx *gorm.DB) {
		if raced || tx.Statement.Table != "users" {
			return
		}
		raced = true
		if err := db.Exec("INSERT INTO users (username, password_hash, role) VALUES (?, ?, ?)", "aigerim", "x", models.RoleUser).Error; err != nil {
			t.Errorf("insert racing user: %v", err)
		}
	})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "aigerim", "password123", "password123")
	require.True(t, raced)
	require.ErrorIs(t, err, ErrConflict)
}
