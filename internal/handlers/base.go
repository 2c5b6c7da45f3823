package handlers

import (
	"fmt"
	"strings"

	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/services"

	"github.com/gin-gonic/gin"
)

// siteURL 由 main 在启动时注入，用于拼接 SEO 的绝对地址
var siteURL = "http://localhost:8080"

func SetSiteURL(u string) {
	if u != "" {
		siteURL = strings.TrimSuffix(u, "/")
	}
}

func getSiteURL() string {
	return siteURL
}

// Render helper to inject common variables like 'current user' and site settings
func Render(c *gin.Context, code int, name string, obj gin.H) {
	if obj == nil {
		obj = gin.H{}
	}

	// Inject Current User
	if user, exists := c.Get(middleware.CheckUserKey); exists {
		obj["CurrentUser"] = user
	}

	// 站点设置（标题、描述、logo 等），惰性加载带缓存
	st := services.GetSettingsService()
	if _, ok := obj["SiteTitle"]; !ok {
		obj["SiteTitle"] = st.Get(models.SettingSiteTitle)
	}
	obj["SiteDescription"] = st.Get(models.SettingSiteDescription)
	obj["SiteLogo"] = st.Get(models.SettingSiteLogoURL)
	obj["SiteFavicon"] = st.Get(models.SettingSiteFaviconURL)
	obj["SocialLinks"] = st.Get(models.SettingSocialLinks)

	obj["CurrentPath"] = c.Request.URL.Path

	c.HTML(code, name, obj)
}

// cloneData 浅拷贝渲染数据。缓存里的 gin.H 被所有命中请求共享，
// 注入访客私有字段（LikedSet、Captcha 等）前必须先复制，直接写会并发冲突。
func cloneData(src gin.H) gin.H {
	dst := make(gin.H, len(src)+8)
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// Error helper
func RenderError(c *gin.Context, code int, message string) {
	Render(c, code, "error.html", gin.H{"Error": message})
}

// currentUser 取当前登录的管理员，受保护路由内必然存在
func currentUser(c *gin.Context) *models.User {
	return c.MustGet(middleware.CheckUserKey).(*models.User)
}

// fullURL 拼接页面的规范地址
func fullURL(path string, page int) string {
	u := getSiteURL() + path
	if page > 1 {
		u = fmt.Sprintf("%s?page=%d", u, page)
	}
	return u
}
