package handlers

import (
	"net/http"
	"time"

	"inkwell/internal/db"
	"inkwell/internal/linkgate"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/services"

	"github.com/gin-gonic/gin"
)

// GateHandler 跳转门页面。每个访客对每条链接各有一个独立的门，
// 倒计时和密码状态互不影响，门的生命周期由注册表的闲置回收管理。
type GateHandler struct {
	registry *linkgate.Registry
}

func NewGateHandler(registry *linkgate.Registry) *GateHandler {
	return &GateHandler{registry: registry}
}

// gateKey 门的注册键：链接标识 + 访客标识
func gateKey(key, visitorID string) string {
	return key + ":" + visitorID
}

// findLink 按别名或系统 token 命中链接，别名优先
func findLink(key string) *models.ShortenedLink {
	var link models.ShortenedLink
	if err := db.DB.Where("alias = ?", key).First(&link).Error; err == nil {
		return &link
	}
	if err := db.DB.Where("token = ?", key).First(&link).Error; err == nil {
		return &link
	}
	return nil
}

// resolve 取出当前访客的门，没有就建一个并启动倒计时。
// 链接不存在时门处于 absent 状态，页面照常渲染但所有操作都是空转。
func (h *GateHandler) resolve(c *gin.Context) (string, *linkgate.Gate) {
	key := c.Param("key")
	visitorID := middleware.GetVisitorID(c)
	rk := gateKey(key, visitorID)

	if g := h.registry.Get(rk); g != nil {
		return rk, g
	}

	link := findLink(key)
	g := linkgate.New(link, func(linkID uint) {
		// 点击计数是尽力而为的旁路统计，门的流转不等它
		services.GetClickService().Increment(linkID)
	})
	g.Start(time.Second)
	h.registry.Put(rk, g)
	return rk, g
}

// Show 门页面，按当前阶段渲染倒计时、继续按钮、密码表单或目标链接
func (h *GateHandler) Show(c *gin.Context) {
	_, g := h.resolve(c)

	data := gin.H{
		"Key":       c.Param("key"),
		"Phase":     g.Phase().String(),
		"Remaining": g.Remaining(),
	}

	if link := g.Link(); link != nil {
		data["LinkName"] = link.LinkName
		data["Title"] = link.LinkName
	}
	if g.Phase() == linkgate.PhasePassword {
		data["PasswordError"] = g.PasswordError()
	}
	if dest, ok := g.Destination(); ok {
		data["Destination"] = dest
	}

	Render(c, http.StatusOK, "gate.html", data)
}

// State 轮询接口，前端用它驱动倒计时数字
func (h *GateHandler) State(c *gin.Context) {
	_, g := h.resolve(c)
	c.JSON(http.StatusOK, gin.H{
		"phase":     g.Phase().String(),
		"remaining": g.Remaining(),
	})
}

// Continue 倒计时结束后的继续动作，触发点击计数并进入密码或放行阶段
func (h *GateHandler) Continue(c *gin.Context) {
	_, g := h.resolve(c)
	g.Continue()
	c.Redirect(http.StatusFound, "/go/"+c.Param("key"))
}

// Password 提交访问密码
func (h *GateHandler) Password(c *gin.Context) {
	_, g := h.resolve(c)
	g.SubmitPassword(c.PostForm("password"))
	c.Redirect(http.StatusFound, "/go/"+c.Param("key"))
}
