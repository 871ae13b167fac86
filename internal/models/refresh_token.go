package models

import "time"

// RefreshToken is the persisted record behind a refresh JWT, keyed by the
// token's jti claim. Only a SHA-256 digest of the signed token is stored,
// never the token itself.
//
// Lifecycle: created on login or rotation, mutated only to flip Revoked, and
// deleted only by the periodic sweep once revoked or expired. Revoked rows are
// kept around until then on purpose: presenting an already-revoked token is
// the replay signal that triggers full session revocation.
type RefreshToken struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	JTI       string    `gorm:"size:36;uniqueIndex;not null" json:"jti"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	TokenHash string    `gorm:"size:64;not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
	Revoked   bool      `gorm:"not null;default:false" json:"revoked"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the record's validity window has passed.
func (t *RefreshToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
