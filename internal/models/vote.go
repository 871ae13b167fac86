package models

import "time"

// TargetKind identifies which table a vote points at.
type TargetKind string

const (
	TargetPost    TargetKind = "post"
	TargetComment TargetKind = "comment"
)

// Valid reports whether k is a known target kind.
func (k TargetKind) Valid() bool {
	return k == TargetPost || k == TargetComment
}

// SuperVoteMultiplier is the weight multiplier for premium votes.
const SuperVoteMultiplier = 10

// Vote records one user's vote on one target. The composite unique index over
// (user_id, target_kind, target_id) is the duplicate-vote check: concurrent
// identical casts race on the constraint, not on a read.
type Vote struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"not null;uniqueIndex:idx_votes_user_target" json:"user_id"`
	TargetKind TargetKind `gorm:"size:10;not null;uniqueIndex:idx_votes_user_target" json:"target_kind"`
	TargetID   uint       `gorm:"not null;uniqueIndex:idx_votes_user_target" json:"target_id"`
	Direction  int        `gorm:"not null" json:"direction"` // +1 or -1
	IsSuper    bool       `gorm:"not null;default:false" json:"is_super"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Weight is the signed score contribution of this vote.
func (v *Vote) Weight() int {
	if v.IsSuper {
		return v.Direction * SuperVoteMultiplier
	}
	return v.Direction
}
