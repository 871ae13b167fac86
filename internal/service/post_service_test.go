package service

import (
	"context"
	"testing"

	"github.com/miro-4231/BackendSN/internal/embedding"
	"github.com/miro-4231/BackendSN/internal/models"
	"github.com/miro-4231/BackendSN/internal/repository"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newPostService(db *gorm.DB) *PostService {
	return NewPostService(repository.NewPostRepository(db), embedding.NewClient(""))
}

func TestCreateAndGetPost(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	svc := newPostService(db)
	user := createTestUser(t, db, "alice")
	ctx := context.Background()

	post, err := svc.Create(ctx, user.ID, "  Hello Gophers  ", "some content")
	require.NoError(t, err)
	require.Equal(t, "Hello Gophers", post.Title)
	require.True(t, post.Published)

	got, err := svc.GetByID(ctx, post.ID)
	require.NoError(t, err)
	require.Equal(t, post.ID, got.ID)
	require.Equal(t, user.ID, got.User.ID)

	_, err = svc.GetByID(ctx, post.ID+999)
	requireAppError(t, err, models.CodeNotFound)
}

func TestCreatePostValidation(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	svc := newPostService(db)
	user := createTestUser(t, db, "bob")
	ctx := context.Background()

	_, err := svc.Create(ctx, user.ID, "", "content")
	requireAppError(t, err, models.CodeValidation)

	_, err = svc.Create(ctx, user.ID, "title", "   ")
	requireAppError(t, err, models.CodeValidation)
}

func TestUpdateAndDeletePostOwnerOnly(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	svc := newPostService(db)
	author := createTestUser(t, db, "carol")
	intruder := createTestUser(t, db, "mallory")
	ctx := context.Background()

	post, err := svc.Create(ctx, author.ID, "title", "content")
	require.NoError(t, err)

	_, err = svc.Update(ctx, intruder.ID, post.ID, "new title", "new content")
	requireAppError(t, err, models.CodeUnauthorized)

	updated, err := svc.Update(ctx, author.ID, post.ID, "new title", "new content")
	require.NoError(t, err)
	require.Equal(t, "new title", updated.Title)

	requireAppError(t, svc.Delete(ctx, intruder.ID, post.ID), models.CodeUnauthorized)
	require.NoError(t, svc.Delete(ctx, author.ID, post.ID))

	_, err = svc.GetByID(ctx, post.ID)
	requireAppError(t, err, models.CodeNotFound)
}

func TestListAndLatest(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	svc := newPostService(db)
	user := createTestUser(t, db, "dave")
	ctx := context.Background()

	for _, title := range []string{"one", "two", "three"} {
		_, err := svc.Create(ctx, user.ID, title, "content")
		require.NoError(t, err)
	}

	posts, err := svc.List(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, posts, 2)

	latest, err := svc.Latest(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
}
