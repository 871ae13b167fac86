// Package service implements the application's core business logic.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/miro-4231/BackendSN/internal/middleware"
	"github.com/miro-4231/BackendSN/internal/models"
	"github.com/miro-4231/BackendSN/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// TokenPair is the result of issuing or rotating a session.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// TokenConfig carries the signing secret and lifetimes for both token kinds.
type TokenConfig struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// TokenService owns the session-token lifecycle: issuance, validation,
// rotation with reuse detection, revocation, and the periodic sweep.
type TokenService struct {
	tokens repository.TokenRepository
	users  repository.UserRepository
	cfg    TokenConfig
}

// NewTokenService creates a new TokenService.
func NewTokenService(tokens repository.TokenRepository, users repository.UserRepository, cfg TokenConfig) *TokenService {
	return &TokenService{tokens: tokens, users: users, cfg: cfg}
}

// Issue signs a fresh access/refresh pair for the user and persists the
// refresh record. Only a digest of the refresh token is stored.
func (s *TokenService) Issue(ctx context.Context, userID uint) (*TokenPair, error) {
	pair, record, err := s.mint(userID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := s.tokens.Create(ctx, record); err != nil {
		return nil, models.NewInternalError(err)
	}
	return pair, nil
}

// Authenticate resolves an access token to its user. Signature failures,
// wrong token types, expiry, and unknown subjects all collapse into the same
// opaque credential error.
func (s *TokenService) Authenticate(ctx context.Context, accessToken string) (*models.User, error) {
	claims, err := s.parse(accessToken)
	if err != nil {
		return nil, models.NewInvalidCredentialsError()
	}
	if claims["typ"] != tokenTypeAccess {
		return nil, models.NewInvalidCredentialsError()
	}
	userID, err := subjectID(claims)
	if err != nil {
		return nil, models.NewInvalidCredentialsError()
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if user == nil {
		return nil, models.NewInvalidCredentialsError()
	}
	return user, nil
}

// Rotate exchanges a refresh token for a new pair, invalidating the one
// presented. Presenting an already-revoked token is treated as theft: every
// outstanding session for the subject is revoked before failing.
func (s *TokenService) Rotate(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.parse(refreshToken)
	if err != nil {
		return nil, models.NewInvalidCredentialsError()
	}
	if claims["typ"] != tokenTypeRefresh {
		return nil, models.NewInvalidCredentialsError()
	}
	jti, _ := claims["jti"].(string)
	if jti == "" {
		return nil, models.NewInvalidCredentialsError()
	}
	userID, err := subjectID(claims)
	if err != nil {
		return nil, models.NewInvalidCredentialsError()
	}

	record, err := s.tokens.GetByJTI(ctx, jti)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	// Missing record and digest mismatch look identical to the caller;
	// revealing which would be an oracle.
	if record == nil || record.UserID != userID || record.TokenHash != hashToken(refreshToken) {
		return nil, models.NewInvalidCredentialsError()
	}
	if record.Revoked {
		return nil, s.compromised(ctx, userID, jti)
	}

	pair, next, err := s.mint(userID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := s.tokens.Rotate(ctx, jti, next); err != nil {
		if errors.Is(err, repository.ErrTokenReused) {
			// A concurrent rotation of the same token got there first.
			return nil, s.compromised(ctx, userID, jti)
		}
		return nil, models.NewInternalError(err)
	}
	return pair, nil
}

// Revoke handles logout. Unknown or already-revoked tokens are a no-op.
func (s *TokenService) Revoke(ctx context.Context, refreshToken string) error {
	claims, err := s.parse(refreshToken)
	if err != nil {
		return models.NewInvalidCredentialsError()
	}
	if claims["typ"] != tokenTypeRefresh {
		return models.NewInvalidCredentialsError()
	}
	jti, _ := claims["jti"].(string)
	if jti == "" {
		return models.NewInvalidCredentialsError()
	}

	if _, err := s.tokens.RevokeByJTI(ctx, jti); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Sweep deletes every revoked or expired refresh record. It is safe to run
// concurrently with active rotations: the predicate is evaluated by the
// store at execution time.
func (s *TokenService) Sweep(ctx context.Context) (int64, error) {
	count, err := s.tokens.DeleteExpired(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	middleware.TokensSwept.Add(float64(count))
	return count, nil
}

// compromised revokes every outstanding session for the user and returns the
// session-compromised error. Logged distinctly; surfaced opaquely.
func (s *TokenService) compromised(ctx context.Context, userID uint, jti string) error {
	middleware.Logger.WarnContext(ctx, "refresh token reuse detected, revoking all sessions",
		slog.Uint64("user_id", uint64(userID)),
		slog.String("jti", jti),
	)
	middleware.SessionsCompromised.Inc()
	if err := s.tokens.RevokeAllForUser(ctx, userID); err != nil {
		return models.NewInternalError(err)
	}
	return models.NewSessionCompromisedError()
}

// mint signs a new access/refresh pair and builds the refresh record.
func (s *TokenService) mint(userID uint) (*TokenPair, *models.RefreshToken, error) {
	now := time.Now()
	sub := strconv.FormatUint(uint64(userID), 10)

	access := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"typ": tokenTypeAccess,
		"iat": now.Unix(),
		"exp": now.Add(s.cfg.AccessTTL).Unix(),
	})
	accessStr, err := access.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return nil, nil, err
	}

	jti := uuid.NewString()
	expiresAt := now.Add(s.cfg.RefreshTTL)
	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"typ": tokenTypeRefresh,
		"jti": jti,
		"iat": now.Unix(),
		"exp": expiresAt.Unix(),
	})
	refreshStr, err := refresh.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return nil, nil, err
	}

	record := &models.RefreshToken{
		JTI:       jti,
		UserID:    userID,
		TokenHash: hashToken(refreshStr),
		ExpiresAt: expiresAt,
	}
	pair := &TokenPair{
		AccessToken:  accessStr,
		RefreshToken: refreshStr,
		TokenType:    "bearer",
	}
	return pair, record, nil
}

// parse verifies the signature, HMAC signing method, and expiry.
func (s *TokenService) parse(tokenStr string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}
	return claims, nil
}

// subjectID extracts the user ID from the sub claim.
func subjectID(claims jwt.MapClaims) (uint, error) {
	sub, ok := claims["sub"].(string)
	if !ok {
		return 0, errors.New("missing sub")
	}
	id, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || id == 0 {
		return 0, errors.New("invalid sub")
	}
	return uint(id), nil
}

// hashToken is the stored digest of a refresh token. SHA-256 rather than
// bcrypt: the input is a signed JWT, far past bcrypt's 72-byte limit, and
// already carries the signing secret's entropy.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
