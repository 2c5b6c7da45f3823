package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const VisitorKey = "visitor_id"

// visitorCookieMaxAge 访客标识 cookie 有效期一年
const visitorCookieMaxAge = 365 * 24 * 3600

// VisitorID assigns an anonymous visitor identifier on first visit.
// 点赞去重依赖此标识，同一浏览器保持稳定
func VisitorID() gin.HandlerFunc {
	return func(c *gin.Context) {
		vid, err := c.Cookie(VisitorKey)
		if err != nil || vid == "" {
			vid = uuid.NewString()
			c.SetCookie(VisitorKey, vid, visitorCookieMaxAge, "/", "", false, true)
		}
		c.Set(VisitorKey, vid)
		c.Next()
	}
}

// GetVisitorID returns the visitor uuid bound to this request
func GetVisitorID(c *gin.Context) string {
	if v, ok := c.Get(VisitorKey); ok {
		return v.(string)
	}
	return ""
}
