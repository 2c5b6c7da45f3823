package router

import (
	"inkwell/internal/handlers"
	"inkwell/internal/linkgate"
	"inkwell/internal/middleware"
	"inkwell/internal/services"

	"github.com/gin-gonic/gin"
)

// Deps 路由需要的共享组件，由 main 组装
type Deps struct {
	Notifier *services.Notifier
	Mailer   *services.Mailer
	Uploads  *services.UploadService
	Gates    *linkgate.Registry
}

func RegisterRoutes(r *gin.Engine, deps Deps) {
	// Handlers
	postHandler := handlers.NewPostHandler()
	pageHandler := handlers.NewPageHandler()
	commentHandler := handlers.NewCommentHandler(deps.Notifier, deps.Mailer)
	gateHandler := handlers.NewGateHandler(deps.Gates)
	authHandler := handlers.NewAuthHandler()
	adminHandler := handlers.NewAdminHandler(deps.Notifier, deps.Uploads)
	seoHandler := handlers.NewSEOHandler()

	// 公共路由 (Public Routes)
	r.GET("/", postHandler.List)                       // 首页 - 文章列表
	r.GET("/posts/:slug", postHandler.Detail)          // 文章详情页（兼容 .html 后缀）
	r.GET("/category/:slug", postHandler.ListByCategory) // 分类下的文章列表
	r.GET("/pages/:slug", pageHandler.Show)            // 静态页面
	r.GET("/search", postHandler.Search)               // 搜索页面

	// 评论交互
	r.GET("/comments/:slug", commentHandler.Fragment)     // 评论树片段（局部刷新）
	r.POST("/comments/:slug", commentHandler.Create)      // 发表评论
	r.POST("/comments/like/:id", commentHandler.Like)     // 点赞/取消点赞
	r.GET("/events/comments/:slug", commentHandler.Events) // SSE 实时推送

	// 跳转门
	r.GET("/go/:key", gateHandler.Show)
	r.GET("/go/:key/state", gateHandler.State)
	r.POST("/go/:key/continue", gateHandler.Continue)
	r.POST("/go/:key/password", gateHandler.Password)

	// SEO
	r.GET("/robots.txt", seoHandler.RobotsTxt)
	r.GET("/sitemap.xml", seoHandler.SitemapXML)
	r.GET("/feed.xml", seoHandler.RSSFeed)

	// 后台登录
	r.GET("/admin/login", authHandler.ShowLogin)
	r.POST("/admin/login", authHandler.Login)
	r.GET("/admin/logout", authHandler.Logout)

	// 后台管理 (Admin Routes)
	admin := r.Group("/admin")
	admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
	{
		admin.GET("", adminHandler.Dashboard) // 仪表盘概览

		admin.GET("/posts", adminHandler.ListPosts)
		admin.GET("/posts/new", adminHandler.ShowCreatePost)
		admin.POST("/posts/new", adminHandler.CreatePost)
		admin.GET("/posts/:id/edit", adminHandler.ShowEditPost)
		admin.POST("/posts/:id/edit", adminHandler.UpdatePost)
		admin.POST("/posts/:id/publish", adminHandler.TogglePublish)
		admin.DELETE("/posts/:id", adminHandler.DeletePost)
		admin.GET("/posts/:id/comments", adminHandler.PostComments) // 单篇评论树

		admin.POST("/upload/thumbnail", adminHandler.UploadThumbnail)
		admin.POST("/upload/branding", adminHandler.UploadBranding)

		admin.GET("/categories", adminHandler.ListCategories)
		admin.POST("/categories", adminHandler.CreateCategory)
		admin.POST("/categories/:id", adminHandler.UpdateCategory)
		admin.DELETE("/categories/:id", adminHandler.DeleteCategory)

		admin.GET("/comments", adminHandler.ListComments)
		admin.POST("/comments/:id/reply", adminHandler.ReplyComment)
		admin.DELETE("/comments/:id", adminHandler.DeleteComment)

		admin.GET("/links", adminHandler.ListLinks)
		admin.POST("/links", adminHandler.CreateLink)
		admin.POST("/links/:id", adminHandler.UpdateLink)
		admin.DELETE("/links/:id", adminHandler.DeleteLink)

		admin.GET("/settings", adminHandler.ShowSettings)
		admin.POST("/settings", adminHandler.SaveSettings)

		admin.GET("/account", authHandler.ShowCredentials)
		admin.POST("/account", authHandler.UpdateCredentials)
	}
}
