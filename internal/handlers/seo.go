package handlers

import (
	"fmt"
	"html"
	"net/http"
	"time"

	"inkwell/internal/db"
	"inkwell/internal/models"
	"inkwell/internal/services"
	"inkwell/internal/utils"

	"github.com/gin-gonic/gin"
)

type SEOHandler struct{}

func NewSEOHandler() *SEOHandler {
	return &SEOHandler{}
}

// RobotsTxt 返回robots.txt内容
func (h *SEOHandler) RobotsTxt(c *gin.Context) {
	content := fmt.Sprintf(`User-agent: *
Allow: /

# 禁止爬取管理后台
Disallow: /admin/

# 禁止爬取交互端点和跳转门
Disallow: /comments/
Disallow: /events/
Disallow: /go/

# Sitemap位置
Sitemap: %s/sitemap.xml

Crawl-delay: 1
`, getSiteURL())

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.String(http.StatusOK, content)
}

// SitemapXML 动态生成sitemap.xml
func (h *SEOHandler) SitemapXML(c *gin.Context) {
	siteURL := getSiteURL()
	now := time.Now().Format("2006-01-02")

	xml := `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
`

	// 首页，最高优先级
	xml += fmt.Sprintf(`  <url>
    <loc>%s/</loc>
    <lastmod>%s</lastmod>
    <changefreq>daily</changefreq>
    <priority>1.0</priority>
  </url>
`, siteURL, now)

	// 分类列表页
	var categories []models.Category
	db.DB.Find(&categories)
	for _, category := range categories {
		xml += fmt.Sprintf(`  <url>
    <loc>%s/category/%s</loc>
    <lastmod>%s</lastmod>
    <changefreq>daily</changefreq>
    <priority>0.7</priority>
  </url>
`, siteURL, category.Slug, now)
	}

	// 静态页面
	var pages []models.Page
	db.DB.Where("published = ?", true).Find(&pages)
	for _, page := range pages {
		xml += fmt.Sprintf(`  <url>
    <loc>%s/pages/%s</loc>
    <lastmod>%s</lastmod>
    <changefreq>monthly</changefreq>
    <priority>0.5</priority>
  </url>
`, siteURL, page.Slug, page.UpdatedAt.Format("2006-01-02"))
	}

	// 最近的文章详情页(限制500篇,避免sitemap过大)
	var posts []models.Post
	db.DB.Where("published = ?", true).Order("created_at DESC").Limit(500).Find(&posts)
	for _, post := range posts {
		lastmod := post.UpdatedAt.Format("2006-01-02")
		// 根据文章新旧程度调整优先级
		daysSinceCreated := time.Since(post.CreatedAt).Hours() / 24
		priority := 0.6
		changefreq := "weekly"

		if daysSinceCreated < 7 {
			priority = 0.8
			changefreq = "daily"
		} else if daysSinceCreated < 30 {
			priority = 0.7
		}

		xml += fmt.Sprintf(`  <url>
    <loc>%s/posts/%s</loc>
    <lastmod>%s</lastmod>
    <changefreq>%s</changefreq>
    <priority>%.1f</priority>
  </url>
`, siteURL, post.Slug, lastmod, changefreq, priority)
	}

	xml += `</urlset>`

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.String(http.StatusOK, xml)
}

// RSSFeed 生成RSS 2.0 feed
func (h *SEOHandler) RSSFeed(c *gin.Context) {
	siteURL := getSiteURL()
	now := time.Now()
	st := services.GetSettingsService()

	var posts []models.Post
	db.DB.Preload("Categories").
		Where("published = ?", true).
		Order("created_at DESC").
		Limit(20).
		Find(&posts)

	rss := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">
  <channel>
    <title>` + escapeXML(st.Get(models.SettingSiteTitle)) + `</title>
    <link>` + siteURL + `</link>
    <description>` + escapeXML(st.Get(models.SettingSiteDescription)) + `</description>
    <lastBuildDate>` + now.Format(time.RFC1123Z) + `</lastBuildDate>
    <atom:link href="` + siteURL + `/feed.xml" rel="self" type="application/rss+xml"/>
`

	for _, post := range posts {
		link := fmt.Sprintf("%s/posts/%s", siteURL, post.Slug)

		// 摘要缺省时截取正文纯文本
		description := post.Excerpt
		if description == "" {
			description = utils.StripHTMLTags(string(utils.RenderMarkdown(post.Content)))
			if runes := []rune(description); len(runes) > 300 {
				description = string(runes[:300]) + "..."
			}
		}

		category := ""
		if len(post.Categories) > 0 {
			category = "      <category>" + escapeXML(post.Categories[0].Name) + "</category>\n"
		}

		rss += `    <item>
      <title>` + escapeXML(post.Title) + `</title>
      <link>` + link + `</link>
      <description><![CDATA[` + description + `]]></description>
` + category + `      <pubDate>` + post.CreatedAt.Format(time.RFC1123Z) + `</pubDate>
      <guid isPermaLink="true">` + link + `</guid>
    </item>
`
	}

	rss += `  </channel>
</rss>`

	c.Header("Content-Type", "application/rss+xml; charset=utf-8")
	c.String(http.StatusOK, rss)
}

// escapeXML 转义XML特殊字符
func escapeXML(s string) string {
	return html.EscapeString(s)
}
