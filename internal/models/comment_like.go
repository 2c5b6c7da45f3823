package models

import (
	"time"
)

// CommentLike 记录"某个匿名访客赞过某条评论"。
// 唯一键: comment_id + visitor_id，该集合是"已赞"状态的唯一事实来源。
type CommentLike struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CommentID uint      `gorm:"not null;uniqueIndex:uk_comment_visitor,priority:1" json:"comment_id"`
	Comment   Comment   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"comment"`
	VisitorID string    `gorm:"size:36;not null;uniqueIndex:uk_comment_visitor,priority:2" json:"visitor_id"`
	CreatedAt time.Time `json:"created_at"`
	// 只有创建和删除，从不原地更新。
}
