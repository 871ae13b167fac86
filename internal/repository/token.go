package repository

import (
	"context"
	"errors"
	"time"

	"github.com/miro-4231/BackendSN/internal/models"

	"gorm.io/gorm"
)

// ErrTokenReused is returned by Rotate when the presented record was already
// revoked by the time the conditional update ran. Either the token was
// rotated or logged out earlier, or a concurrent rotation of the same token
// won the race; both are reuse from the lifecycle's point of view.
var ErrTokenReused = errors.New("refresh token already revoked")

// TokenRepository owns the refresh-token table.
type TokenRepository interface {
	Create(ctx context.Context, record *models.RefreshToken) error
	GetByJTI(ctx context.Context, jti string) (*models.RefreshToken, error)
	RevokeByJTI(ctx context.Context, jti string) (int64, error)
	RevokeAllForUser(ctx context.Context, userID uint) error
	Rotate(ctx context.Context, oldJTI string, next *models.RefreshToken) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type tokenRepository struct {
	db *gorm.DB
}

// NewTokenRepository creates a new TokenRepository
func NewTokenRepository(db *gorm.DB) TokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) Create(ctx context.Context, record *models.RefreshToken) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *tokenRepository) GetByJTI(ctx context.Context, jti string) (*models.RefreshToken, error) {
	var record models.RefreshToken
	err := r.db.WithContext(ctx).Where("jti = ?", jti).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// RevokeByJTI flips revoked on a live record and reports how many rows
// matched. Zero rows means the record was absent or already revoked.
func (r *tokenRepository) RevokeByJTI(ctx context.Context, jti string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.RefreshToken{}).
		Where("jti = ? AND revoked = ?", jti, false).
		UpdateColumn("revoked", true)
	return res.RowsAffected, res.Error
}

func (r *tokenRepository) RevokeAllForUser(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).
		Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked = ?", userID, false).
		UpdateColumn("revoked", true).Error
}

// Rotate revokes the presented record and persists its replacement as one
// unit. The revoke is conditional on revoked = false, so two concurrent
// rotations of the same token serialize: the loser observes zero affected
// rows and gets ErrTokenReused instead of a second fresh pair.
func (r *tokenRepository) Rotate(ctx context.Context, oldJTI string, next *models.RefreshToken) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.RefreshToken{}).
			Where("jti = ? AND revoked = ?", oldJTI, false).
			UpdateColumn("revoked", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrTokenReused
		}
		return tx.Create(next).Error
	})
}

// DeleteExpired removes revoked or expired records. The predicate is part of
// the single DELETE statement, so a record that a concurrent rotation keeps
// live is preserved by the store's own isolation.
func (r *tokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("revoked = ? OR expires_at < ?", true, now).
		Delete(&models.RefreshToken{})
	return res.RowsAffected, res.Error
}
