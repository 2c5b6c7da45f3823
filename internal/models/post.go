package models

import (
	"time"
)

type Post struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Slug         string     `gorm:"uniqueIndex;size:200;not null" json:"slug"`
	Title        string     `gorm:"not null" json:"title"`
	Excerpt      string     `gorm:"size:500" json:"excerpt"`
	Content      string     `gorm:"type:text" json:"content"` // Markdown 原文，渲染在展示层处理
	ThumbnailURL string     `json:"thumbnail_url"`
	Published    bool       `gorm:"default:false;index" json:"published"`
	Views        int        `gorm:"default:0" json:"views"` // 浏览量
	Categories   []Category `gorm:"many2many:post_categories;" json:"categories"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	// 非数据库字段，列表页查询时填充
	CommentCount int `gorm:"-" json:"comment_count"`
}
