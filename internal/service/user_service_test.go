package service

import (
	"context"
	"testing"

	"github.com/miro-4231/BackendSN/internal/models"
	"github.com/miro-4231/BackendSN/internal/repository"

	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	svc := NewUserService(repository.NewUserRepository(db))
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "alice@example.com", "Password123")
	require.NoError(t, err)
	require.Equal(t, models.DefaultSuperVoteBalance, user.SuperVoteBalance)
	require.NotEqual(t, "Password123", user.Password)

	got, err := svc.Login(ctx, "alice@example.com", "Password123")
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)
}

func TestLoginFailuresAreOpaque(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	svc := NewUserService(repository.NewUserRepository(db))
	ctx := context.Background()

	_, err := svc.Register(ctx, "bob", "bob@example.com", "Password123")
	require.NoError(t, err)

	_, wrongPassword := svc.Login(ctx, "bob@example.com", "Password456")
	requireAppError(t, wrongPassword, models.CodeInvalidCredentials)

	_, unknownEmail := svc.Login(ctx, "nobody@example.com", "Password123")
	requireAppError(t, unknownEmail, models.CodeInvalidCredentials)
}

func TestRegisterDuplicate(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	svc := NewUserService(repository.NewUserRepository(db))
	ctx := context.Background()

	_, err := svc.Register(ctx, "carol", "carol@example.com", "Password123")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "carol", "other@example.com", "Password123")
	requireAppError(t, err, models.CodeConflict)

	_, err = svc.Register(ctx, "other", "carol@example.com", "Password123")
	requireAppError(t, err, models.CodeConflict)
}

func TestRegisterValidation(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	svc := NewUserService(repository.NewUserRepository(db))
	ctx := context.Background()

	_, err := svc.Register(ctx, "x", "dave@example.com", "Password123")
	requireAppError(t, err, models.CodeValidation)

	_, err = svc.Register(ctx, "dave", "not-an-email", "Password123")
	requireAppError(t, err, models.CodeValidation)

	_, err = svc.Register(ctx, "dave", "dave@example.com", "weak")
	requireAppError(t, err, models.CodeValidation)
}
