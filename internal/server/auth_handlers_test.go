package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/miro-4231/BackendSN/internal/config"
	"github.com/miro-4231/BackendSN/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupHandlerTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.Comment{},
		&models.Vote{},
		&models.RefreshToken{},
	); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return db
}

func newTestServer(t *testing.T) (*Server, *fiber.App, *gorm.DB) {
	t.Helper()
	db := setupHandlerTestDB(t)

	cfg := &config.Config{
		JWTSecret:            "handler-test-secret-0123456789abcdef",
		AccessTokenTTLMin:    30,
		RefreshTokenTTLDays:  30,
		TokenSweepIntervalHr: 24,
		Port:                 "8310",
		Env:                  "test",
	}

	srv, err := NewServerWithDeps(cfg, db, nil)
	if err != nil {
		t.Fatalf("NewServerWithDeps: %v", err)
	}

	app := fiber.New()
	srv.SetupRoutes(app)
	return srv, app, db
}

type tokenPairBody struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

type authBody struct {
	User   models.User   `json:"user"`
	Tokens tokenPairBody `json:"tokens"`
}

func doJSON(t *testing.T, app *fiber.App, method, path, bearer string, body interface{}) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dest interface{}) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestAuthFlow(t *testing.T) {
	t.Parallel()
	_, app, _ := newTestServer(t)

	// Register.
	resp := doJSON(t, app, http.MethodPost, "/api/auth/register", "", fiber.Map{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "Password123",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", resp.StatusCode)
	}
	var registered authBody
	decodeBody(t, resp, &registered)
	if registered.Tokens.AccessToken == "" || registered.Tokens.RefreshToken == "" {
		t.Fatal("register: expected a full token pair")
	}
	if registered.User.SuperVoteBalance != models.DefaultSuperVoteBalance {
		t.Fatalf("register: expected default balance, got %d", registered.User.SuperVoteBalance)
	}

	// Login.
	resp = doJSON(t, app, http.MethodPost, "/api/auth/login", "", fiber.Map{
		"email":    "alice@example.com",
		"password": "Password123",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", resp.StatusCode)
	}
	var loggedIn authBody
	decodeBody(t, resp, &loggedIn)

	// Me.
	resp = doJSON(t, app, http.MethodGet, "/api/auth/me", loggedIn.Tokens.AccessToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me: expected 200, got %d", resp.StatusCode)
	}
	var me models.User
	decodeBody(t, resp, &me)
	if me.Username != "alice" {
		t.Fatalf("me: expected alice, got %q", me.Username)
	}

	// Me without a token.
	resp = doJSON(t, app, http.MethodGet, "/api/auth/me", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("me unauthenticated: expected 401, got %d", resp.StatusCode)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	t.Parallel()
	_, app, _ := newTestServer(t)

	resp := doJSON(t, app, http.MethodPost, "/api/auth/register", "", fiber.Map{
		"username": "bob",
		"email":    "bob@example.com",
		"password": "Password123",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()

	resp = doJSON(t, app, http.MethodPost, "/api/auth/login", "", fiber.Map{
		"email":    "bob@example.com",
		"password": "Password456",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("login: expected 401, got %d", resp.StatusCode)
	}

	var body models.ErrorResponse
	decodeBody(t, resp, &body)
	if body.Code != models.CodeInvalidCredentials {
		t.Fatalf("login: expected %s, got %s", models.CodeInvalidCredentials, body.Code)
	}
}

func TestRefreshRotationAndReuse(t *testing.T) {
	t.Parallel()
	_, app, db := newTestServer(t)

	resp := doJSON(t, app, http.MethodPost, "/api/auth/register", "", fiber.Map{
		"username": "carol",
		"email":    "carol@example.com",
		"password": "Password123",
	})
	var registered authBody
	decodeBody(t, resp, &registered)

	// Rotate once.
	resp = doJSON(t, app, http.MethodPost, "/api/auth/refresh", "", fiber.Map{
		"refresh_token": registered.Tokens.RefreshToken,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("refresh: expected 200, got %d", resp.StatusCode)
	}
	var rotated tokenPairBody
	decodeBody(t, resp, &rotated)
	if rotated.RefreshToken == registered.Tokens.RefreshToken {
		t.Fatal("refresh: expected a new refresh token")
	}

	// Replay the old refresh token: 401, and the body never admits the
	// reuse was detected.
	resp = doJSON(t, app, http.MethodPost, "/api/auth/refresh", "", fiber.Map{
		"refresh_token": registered.Tokens.RefreshToken,
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("replay: expected 401, got %d", resp.StatusCode)
	}
	var body models.ErrorResponse
	decodeBody(t, resp, &body)
	if body.Code != models.CodeInvalidCredentials {
		t.Fatalf("replay: expected %s in body, got %s", models.CodeInvalidCredentials, body.Code)
	}

	// The rotated pair died with the rest of the sessions.
	resp = doJSON(t, app, http.MethodPost, "/api/auth/refresh", "", fiber.Map{
		"refresh_token": rotated.RefreshToken,
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("sibling after replay: expected 401, got %d", resp.StatusCode)
	}

	var live int64
	if err := db.Model(&models.RefreshToken{}).Where("revoked = ?", false).Count(&live).Error; err != nil {
		t.Fatalf("count live tokens: %v", err)
	}
	if live != 0 {
		t.Fatalf("expected zero live refresh tokens, got %d", live)
	}
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	t.Parallel()
	_, app, _ := newTestServer(t)

	resp := doJSON(t, app, http.MethodPost, "/api/auth/register", "", fiber.Map{
		"username": "dave",
		"email":    "dave@example.com",
		"password": "Password123",
	})
	var registered authBody
	decodeBody(t, resp, &registered)

	resp = doJSON(t, app, http.MethodPost, "/api/auth/logout", "", fiber.Map{
		"refresh_token": registered.Tokens.RefreshToken,
	})
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("logout: expected 204, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()

	// A logged-out token cannot rotate.
	resp = doJSON(t, app, http.MethodPost, "/api/auth/refresh", "", fiber.Map{
		"refresh_token": registered.Tokens.RefreshToken,
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("refresh after logout: expected 401, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()
}

func TestRegisterDuplicateEmailConflict(t *testing.T) {
	t.Parallel()
	_, app, _ := newTestServer(t)

	for i, want := range []int{http.StatusCreated, http.StatusConflict} {
		resp := doJSON(t, app, http.MethodPost, "/api/auth/register", "", fiber.Map{
			"username": fmt.Sprintf("erin%d", i),
			"email":    "erin@example.com",
			"password": "Password123",
		})
		if resp.StatusCode != want {
			t.Fatalf("register #%d: expected %d, got %d", i, want, resp.StatusCode)
		}
		_ = resp.Body.Close()
	}
}
