package models

import (
	"time"
)

// Setting 站点设置，key/value 存储。
type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"uniqueIndex;size:100;not null" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// 预设的设置键
const (
	SettingSiteTitle       = "site_title"
	SettingSiteDescription = "site_description"
	SettingSiteLogoURL     = "site_logo_url"
	SettingSiteFaviconURL  = "site_favicon_url"
	SettingSocialLinks     = "social_links"
	SettingNotifyEmail     = "notify_email" // 新评论通知邮箱
)
