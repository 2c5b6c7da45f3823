package models

import (
	"time"
)

type Comment struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	PostID       uint      `gorm:"not null;index" json:"post_id"`
	Post         Post      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"post"`
	ParentID     *uint     `gorm:"index" json:"parent_id"` // Nullable for top-level comments
	Parent       *Comment  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"parent"`
	AuthorName   string    `gorm:"size:100;not null" json:"author_name"`
	AuthorEmail  string    `gorm:"size:255;not null" json:"-"` // 仅后台可见，公开评论树不展示
	Content      string    `gorm:"size:2000;not null" json:"content"`
	IsAdminReply bool      `gorm:"default:false" json:"is_admin_reply"`
	LikesCount   int       `gorm:"default:0" json:"likes_count"` // 反范式计数，以 CommentLike 集合为准
	CreatedAt    time.Time `json:"created_at"`
	// 评论只按 CreatedAt 排序，不需要 UpdatedAt。删除时数据库级联清掉整棵回复子树。
}
