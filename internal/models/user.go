// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

// DefaultSuperVoteBalance is the premium-vote currency a fresh account starts with.
const DefaultSuperVoteBalance = 5

// EmbeddingDim is the dimensionality of all interest and content vectors.
const EmbeddingDim = 384

// User represents an authenticated account.
//
// SuperVoteBalance is only ever mutated through conditional updates
// (spend requires balance >= 1), so it can never go negative under
// concurrent requests.
type User struct {
	ID               uint             `gorm:"primaryKey" json:"id"`
	Username         string           `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email            string           `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Password         string           `gorm:"not null" json:"-"`
	SuperVoteBalance int              `gorm:"not null;default:5" json:"super_vote_balance"`
	Interests        *pgvector.Vector `gorm:"type:vector(384)" json:"-"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}
