package handlers

import (
	"net/http"

	"inkwell/internal/db"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/services"
	"inkwell/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	captchaService *services.CaptchaService
}

func NewAuthHandler() *AuthHandler {
	return &AuthHandler{
		captchaService: services.NewCaptchaService(),
	}
}

func (h *AuthHandler) ShowLogin(c *gin.Context) {
	// 已登录直接进后台
	session := sessions.Default(c)
	if session.Get("user_id") != nil {
		c.Redirect(http.StatusFound, "/admin")
		return
	}

	question, answer := h.captchaService.GenerateMathProblem()
	session.Set("login_captcha", answer)
	session.Save()
	Render(c, http.StatusOK, "admin/login.html", gin.H{"Captcha": question})
}

func (h *AuthHandler) Login(c *gin.Context) {
	email := c.PostForm("email")
	password := c.PostForm("password")
	captchaInput := c.PostForm("captcha")

	// Validate Captcha
	session := sessions.Default(c)
	expectedAnswer, ok := session.Get("login_captcha").(int)
	if !ok || utils.StringToInt(captchaInput) != expectedAnswer {
		question, answer := h.captchaService.GenerateMathProblem()
		session.Set("login_captcha", answer)
		session.Save()
		Render(c, http.StatusBadRequest, "admin/login.html", gin.H{"Error": "验证码错误", "Captcha": question})
		return
	}
	session.Delete("login_captcha")
	session.Save()

	var user models.User
	if err := db.DB.Where("email = ?", email).First(&user).Error; err != nil {
		h.loginFailed(c)
		return
	}

	if !utils.CheckPasswordHash(password, user.Password) {
		h.loginFailed(c)
		return
	}

	session.Set("user_id", user.ID)
	session.Save()

	c.Redirect(http.StatusFound, "/admin")
}

// loginFailed 统一的失败响应，不区分账号不存在和密码错误
func (h *AuthHandler) loginFailed(c *gin.Context) {
	question, answer := h.captchaService.GenerateMathProblem()
	session := sessions.Default(c)
	session.Set("login_captcha", answer)
	session.Save()
	Render(c, http.StatusUnauthorized, "admin/login.html", gin.H{"Error": "邮箱或密码错误", "Captcha": question})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Save()
	c.Redirect(http.StatusFound, "/")
}

func (h *AuthHandler) ShowCredentials(c *gin.Context) {
	Render(c, http.StatusOK, "admin/credentials.html", gin.H{"Title": "账号设置"})
}

// UpdateCredentials 管理员修改自己的邮箱或密码，需要验证当前密码
func (h *AuthHandler) UpdateCredentials(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	current := c.PostForm("current_password")
	if !utils.CheckPasswordHash(current, user.Password) {
		Render(c, http.StatusForbidden, "admin/credentials.html", gin.H{"Error": "当前密码错误"})
		return
	}

	if email := c.PostForm("email"); email != "" {
		user.Email = email
	}

	if newPassword := c.PostForm("new_password"); newPassword != "" {
		if len(newPassword) < 8 {
			Render(c, http.StatusBadRequest, "admin/credentials.html", gin.H{"Error": "新密码至少8位"})
			return
		}
		hash, err := utils.HashPassword(newPassword)
		if err != nil {
			Render(c, http.StatusInternalServerError, "admin/credentials.html", gin.H{"Error": "保存失败"})
			return
		}
		user.Password = hash
	}

	if err := db.DB.Save(user).Error; err != nil {
		Render(c, http.StatusConflict, "admin/credentials.html", gin.H{"Error": "邮箱已被占用"})
		return
	}

	Render(c, http.StatusOK, "admin/credentials.html", gin.H{"Success": "保存成功"})
}
