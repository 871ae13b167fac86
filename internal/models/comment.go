package models

import "time"

// DeletedCommentBody replaces the content of a tombstoned comment.
const DeletedCommentBody = "[deleted]"

// Comment is a reply on a post. Comments form a tree through ParentID; a
// parent must already exist before a child can reference it, so cycles are
// structurally impossible.
//
// Comments are never physically deleted. Deleting one tombstones it instead
// (content replaced, owner cleared, IsDeleted set) so that child replies keep
// their place in the tree.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	UserID    *uint     `gorm:"index" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	PostID    uint      `gorm:"not null;index" json:"post_id"`
	ParentID  *uint     `gorm:"index" json:"parent_id"`
	Score     int       `gorm:"not null;default:0" json:"score"`
	IsDeleted bool      `gorm:"not null;default:false" json:"is_deleted"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
