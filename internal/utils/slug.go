package utils

import (
	"math/rand"
	"regexp"
	"strings"
)

// NormalizeSlug 规范化 URL 里的文章标识。
// 历史原因，老站的文章链接带 .html 后缀，查找前先剥掉，
// "hello-world.html" 和 "hello-world" 必须命中同一篇文章。
func NormalizeSlug(raw string) string {
	slug := strings.ToLower(strings.TrimSpace(raw))
	return strings.TrimSuffix(slug, ".html")
}

var slugInvalid = regexp.MustCompile(`[^a-z0-9\-]+`)
var slugDashes = regexp.MustCompile(`\-+`)

// Slugify 由标题生成 slug（后台新建文章时的默认值）
func Slugify(title string) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	slug = strings.ReplaceAll(slug, " ", "-")
	slug = slugInvalid.ReplaceAllString(slug, "")
	slug = slugDashes.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

const tokenLetters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// RandToken 生成短链接 token 等用的随机串
func RandToken(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = tokenLetters[rand.Intn(len(tokenLetters))]
	}
	return string(b)
}
