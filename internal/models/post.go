package models

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

// Post is a top-level piece of content.
//
// Score is the denormalized sum of weighted votes on this post; it is only
// mutated with `score = score + ?` updates inside the voting ledger's
// transaction, never read-modify-written in application code.
type Post struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Title     string `gorm:"not null" json:"title"`
	Content   string `gorm:"type:text;not null" json:"content"`
	Published bool   `gorm:"not null;default:true" json:"published"`
	UserID    uint   `gorm:"not null;index" json:"user_id"`
	User      User   `gorm:"foreignKey:UserID" json:"user"`
	Score     int    `gorm:"not null;default:0" json:"score"`
	// CommentsCount is denormalized alongside Score and maintained the same way.
	CommentsCount int              `gorm:"not null;default:0" json:"comments_count"`
	Embedding     *pgvector.Vector `gorm:"type:vector(384)" json:"-"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}
