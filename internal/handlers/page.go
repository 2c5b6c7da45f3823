package handlers

import (
	"net/http"

	"inkwell/internal/db"
	"inkwell/internal/models"
	"inkwell/internal/utils"

	"github.com/gin-gonic/gin"
)

type PageHandler struct{}

func NewPageHandler() *PageHandler {
	return &PageHandler{}
}

// Show 静态页面（关于、联系等）
func (h *PageHandler) Show(c *gin.Context) {
	slug := utils.NormalizeSlug(c.Param("slug"))

	var page models.Page
	if err := db.DB.Where("slug = ? AND published = ?", slug, true).First(&page).Error; err != nil {
		RenderError(c, http.StatusNotFound, "页面不存在")
		return
	}

	Render(c, http.StatusOK, "page.html", gin.H{
		"Page":        page,
		"PageContent": utils.RenderMarkdown(page.Content),
		"Title":       page.Title,
		"FullURL":     getSiteURL() + "/pages/" + page.Slug,
	})
}
