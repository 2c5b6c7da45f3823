package models

import (
	"time"
)

// ShortenedLink 短链接记录，驱动文章页内嵌的跳转门（link-gate）。
// Token 为系统生成，Alias 为人工指定，访问时两者任意一个都可以命中。
type ShortenedLink struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	LinkName    string    `gorm:"not null" json:"link_name"`
	OriginalURL string    `gorm:"type:text;not null" json:"original_url"`
	Token       string    `gorm:"index;size:16" json:"token"` // 仅在未指定 Alias 时必填
	Alias       string    `gorm:"index;size:100" json:"alias"`
	Password    *string   `gorm:"size:100" json:"-"` // null 表示无密码；明文比对，仅是阻拦手段而非安全边界
	PostSlug    string    `gorm:"index;size:200" json:"post_slug"`
	Clicks      int       `gorm:"default:0" json:"clicks"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
