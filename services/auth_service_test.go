package services

import (
	"context"
	"testing"

	"github.com/Dosada05/prediction-pool/models"
	"github.com/Dosada05/prediction-pool/repositories"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeUserRepo struct {
	users map[string]*models.User
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u, ok := f.users[email]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func TestLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)

	userRepo := &fakeUserRepo{users: map[string]*models.User{
		"admin@example.com": {
			ID:           1,
			Email:        "admin@example.com",
			PasswordHash: string(hash),
			Role:         models.RoleAdmin,
		},
	}}
	svc := NewAuthService(userRepo)

	t.Run("valid credentials", func(t *testing.T) {
		user, err := svc.Login(context.Background(), LoginInput{Email: "admin@example.com", Password: "secret"})
		require.NoError(t, err)
		require.Equal(t, 1, user.ID)
		require.Empty(t, user.PasswordHash)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(context.Background(), LoginInput{Email: "admin@example.com", Password: "nope"})
		require.ErrorIs(t, err, ErrAuthInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(context.Background(), LoginInput{Email: "ghost@example.com", Password: "secret"})
		require.ErrorIs(t, err, ErrAuthInvalidCredentials)
	})
}

func TestGetUser(t *testing.T) {
	userRepo := &fakeUserRepo{users: map[string]*models.User{
		"admin@example.com": {
			ID:           1,
			Email:        "admin@example.com",
			PasswordHash: "stored-hash",
			Role:         models.RoleAdmin,
		},
	}}
	svc := NewAuthService(userRepo)

	t.Run("known user", func(t *testing.T) {
		user, err := svc.GetUser(context.Background(), 1)
		require.NoError(t, err)
		require.Equal(t, "admin@example.com", user.Email)
		require.Empty(t, user.PasswordHash)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.GetUser(context.Background(), 99)
		require.ErrorIs(t, err, ErrNotFound)
	})
}
