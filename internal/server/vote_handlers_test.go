package server

import (
	"context"
	"net/http"
	"strconv"
	"testing"

	"github.com/miro-4231/BackendSN/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func seedVoter(t *testing.T, srv *Server, db *gorm.DB) (string, *models.Post) {
	t.Helper()

	user := &models.User{
		Username:         "frank",
		Email:            "frank@example.com",
		Password:         "irrelevant-hash",
		SuperVoteBalance: 2,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}

	post := &models.Post{
		Title:     "A post to vote on",
		Content:   "Voting target content.",
		Published: true,
		UserID:    user.ID,
	}
	if err := db.Create(post).Error; err != nil {
		t.Fatalf("create post: %v", err)
	}

	pair, err := srv.tokenService.Issue(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("issue tokens: %v", err)
	}
	return pair.AccessToken, post
}

func TestCastVoteHandler(t *testing.T) {
	t.Parallel()
	srv, app, db := newTestServer(t)
	access, post := seedVoter(t, srv, db)
	path := "/api/votes/post/" + itoa(post.ID)

	resp := doJSON(t, app, http.MethodPost, path, access, fiber.Map{
		"direction": 1,
		"super":     true,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("cast: expected 201, got %d", resp.StatusCode)
	}
	var vote models.Vote
	decodeBody(t, resp, &vote)
	if !vote.IsSuper || vote.Direction != 1 {
		t.Fatalf("cast: unexpected vote %+v", vote)
	}

	var reloaded models.Post
	if err := db.First(&reloaded, post.ID).Error; err != nil {
		t.Fatalf("reload post: %v", err)
	}
	if reloaded.Score != models.SuperVoteMultiplier {
		t.Fatalf("expected score %d, got %d", models.SuperVoteMultiplier, reloaded.Score)
	}

	// Double vote on the same target.
	resp = doJSON(t, app, http.MethodPost, path, access, fiber.Map{"direction": 1})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate cast: expected 409, got %d", resp.StatusCode)
	}
	var body models.ErrorResponse
	decodeBody(t, resp, &body)
	if body.Code != models.CodeConflict {
		t.Fatalf("duplicate cast: expected %s, got %s", models.CodeConflict, body.Code)
	}

	// Retract restores score and the super-vote balance.
	resp = doJSON(t, app, http.MethodDelete, path, access, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("retract: expected 204, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()

	if err := db.First(&reloaded, post.ID).Error; err != nil {
		t.Fatalf("reload post: %v", err)
	}
	if reloaded.Score != 0 {
		t.Fatalf("expected score 0 after retract, got %d", reloaded.Score)
	}
	var voter models.User
	if err := db.First(&voter, vote.UserID).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if voter.SuperVoteBalance != 2 {
		t.Fatalf("expected balance refunded to 2, got %d", voter.SuperVoteBalance)
	}
}

func TestCastVoteHandlerRejections(t *testing.T) {
	t.Parallel()
	srv, app, db := newTestServer(t)
	access, post := seedVoter(t, srv, db)

	// Unauthenticated.
	resp := doJSON(t, app, http.MethodPost, "/api/votes/post/"+itoa(post.ID), "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unauthenticated: expected 401, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()

	// Unknown target kind.
	resp = doJSON(t, app, http.MethodPost, "/api/votes/reaction/"+itoa(post.ID), access, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad kind: expected 400, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()

	// Missing target.
	resp = doJSON(t, app, http.MethodPost, "/api/votes/post/99999", access, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing target: expected 404, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()

	// Non-numeric target ID.
	resp = doJSON(t, app, http.MethodDelete, "/api/votes/post/abc", access, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad id: expected 400, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()
}
