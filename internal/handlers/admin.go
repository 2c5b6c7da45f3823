package handlers

import (
	"fmt"
	"math"
	"net/http"
	"strings"

	"inkwell/internal/comments"
	"inkwell/internal/db"
	"inkwell/internal/models"
	"inkwell/internal/services"
	"inkwell/internal/utils"

	"github.com/gin-gonic/gin"
)

// AdminHandler 后台管理。所有路由都挂在 AuthRequired + AdminRequired 之后。
type AdminHandler struct {
	comments *comments.Service
	notifier *services.Notifier
	uploads  *services.UploadService
}

func NewAdminHandler(notifier *services.Notifier, uploads *services.UploadService) *AdminHandler {
	return &AdminHandler{
		comments: comments.NewService(comments.NewGormStore(db.DB)),
		notifier: notifier,
		uploads:  uploads,
	}
}

// invalidatePost 失效文章相关的页面缓存
func invalidatePost(slug string) {
	utils.GetCache().Delete(fmt.Sprintf("post:detail:shared:%s", slug))
	utils.GetCache().Delete("post:list:page:1")
}

// Dashboard 概览页：文章、评论、点赞、浏览量、短链点击的汇总
func (h *AdminHandler) Dashboard(c *gin.Context) {
	var postTotal, published, commentTotal, likeTotal int64
	db.DB.Model(&models.Post{}).Count(&postTotal)
	db.DB.Model(&models.Post{}).Where("published = ?", true).Count(&published)
	db.DB.Model(&models.Comment{}).Count(&commentTotal)
	db.DB.Model(&models.CommentLike{}).Count(&likeTotal)

	type sumResult struct{ Total int64 }
	var views, clicks sumResult
	db.DB.Model(&models.Post{}).Select("COALESCE(SUM(views), 0) as total").Scan(&views)
	db.DB.Model(&models.ShortenedLink{}).Select("COALESCE(SUM(clicks), 0) as total").Scan(&clicks)

	// 最近评论，带邮箱的后台视图
	var recent []models.Comment
	db.DB.Preload("Post").Order("created_at DESC").Limit(10).Find(&recent)

	// 点击量最高的短链
	var topLinks []models.ShortenedLink
	db.DB.Order("clicks DESC").Limit(5).Find(&topLinks)

	Render(c, http.StatusOK, "admin/dashboard.html", gin.H{
		"Title":          "仪表盘",
		"PostTotal":      postTotal,
		"PublishedTotal": published,
		"DraftTotal":     postTotal - published,
		"CommentTotal":   commentTotal,
		"LikeTotal":      likeTotal,
		"ViewTotal":      views.Total,
		"ClickTotal":     clicks.Total,
		"RecentComments": recent,
		"TopLinks":       topLinks,
	})
}

// ---- 文章管理 ----

func (h *AdminHandler) ListPosts(c *gin.Context) {
	page := pageParam(c)
	perPage := 20
	offset := (page - 1) * perPage

	var total int64
	db.DB.Model(&models.Post{}).Count(&total)
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	if totalPages == 0 {
		totalPages = 1
	}

	var posts []models.Post
	db.DB.Preload("Categories").
		Order("created_at DESC").
		Limit(perPage).
		Offset(offset).
		Find(&posts)

	fillCommentCounts(posts)

	Render(c, http.StatusOK, "admin/post_list.html", gin.H{
		"Title":       "文章管理",
		"Posts":       posts,
		"CurrentPage": page,
		"TotalPages":  totalPages,
	})
}

func (h *AdminHandler) ShowCreatePost(c *gin.Context) {
	var categories []models.Category
	db.DB.Order("name ASC").Find(&categories)

	Render(c, http.StatusOK, "admin/post_form.html", gin.H{
		"Title":      "新建文章",
		"Categories": categories,
	})
}

// postForm 从表单取文章字段，slug 留空时由标题生成
func postForm(c *gin.Context, post *models.Post) {
	post.Title = strings.TrimSpace(c.PostForm("title"))
	post.Excerpt = strings.TrimSpace(c.PostForm("excerpt"))
	post.Content = c.PostForm("content")
	post.ThumbnailURL = strings.TrimSpace(c.PostForm("thumbnail_url"))
	post.Published = c.PostForm("published") == "on"

	slug := utils.NormalizeSlug(c.PostForm("slug"))
	if slug == "" {
		slug = utils.Slugify(post.Title)
	}
	if slug == "" {
		slug = utils.RandToken(8)
	}
	post.Slug = slug
}

// formCategories 解析多选的分类 ID
func formCategories(c *gin.Context) []models.Category {
	ids := c.PostFormArray("category_ids")
	cats := make([]models.Category, 0, len(ids))
	for _, raw := range ids {
		if id := utils.StringToUint(raw); id > 0 {
			cats = append(cats, models.Category{ID: id})
		}
	}
	return cats
}

func (h *AdminHandler) CreatePost(c *gin.Context) {
	var post models.Post
	postForm(c, &post)

	if post.Title == "" {
		var categories []models.Category
		db.DB.Order("name ASC").Find(&categories)
		Render(c, http.StatusBadRequest, "admin/post_form.html", gin.H{
			"Error":      "标题不能为空",
			"Post":       post,
			"Categories": categories,
		})
		return
	}

	post.Categories = formCategories(c)

	if err := db.DB.Create(&post).Error; err != nil {
		var categories []models.Category
		db.DB.Order("name ASC").Find(&categories)
		Render(c, http.StatusConflict, "admin/post_form.html", gin.H{
			"Error":      "保存失败，slug 可能已被占用",
			"Post":       post,
			"Categories": categories,
		})
		return
	}

	invalidatePost(post.Slug)
	c.Redirect(http.StatusFound, "/admin/posts")
}

func (h *AdminHandler) ShowEditPost(c *gin.Context) {
	var post models.Post
	if err := db.DB.Preload("Categories").First(&post, utils.StringToUint(c.Param("id"))).Error; err != nil {
		RenderError(c, http.StatusNotFound, "文章不存在")
		return
	}

	var categories []models.Category
	db.DB.Order("name ASC").Find(&categories)

	Render(c, http.StatusOK, "admin/post_form.html", gin.H{
		"Title":      "编辑文章",
		"Post":       post,
		"Categories": categories,
	})
}

func (h *AdminHandler) UpdatePost(c *gin.Context) {
	var post models.Post
	if err := db.DB.First(&post, utils.StringToUint(c.Param("id"))).Error; err != nil {
		RenderError(c, http.StatusNotFound, "文章不存在")
		return
	}

	oldSlug := post.Slug
	postForm(c, &post)

	if post.Title == "" {
		var categories []models.Category
		db.DB.Order("name ASC").Find(&categories)
		Render(c, http.StatusBadRequest, "admin/post_form.html", gin.H{
			"Error":      "标题不能为空",
			"Post":       post,
			"Categories": categories,
		})
		return
	}

	if err := db.DB.Save(&post).Error; err != nil {
		var categories []models.Category
		db.DB.Order("name ASC").Find(&categories)
		Render(c, http.StatusConflict, "admin/post_form.html", gin.H{
			"Error":      "保存失败，slug 可能已被占用",
			"Post":       post,
			"Categories": categories,
		})
		return
	}

	// 分类全量替换
	db.DB.Model(&post).Association("Categories").Replace(formCategories(c))

	invalidatePost(oldSlug)
	invalidatePost(post.Slug)
	c.Redirect(http.StatusFound, "/admin/posts")
}

func (h *AdminHandler) DeletePost(c *gin.Context) {
	var post models.Post
	if err := db.DB.First(&post, utils.StringToUint(c.Param("id"))).Error; err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	// 评论由数据库级联清理
	db.DB.Model(&post).Association("Categories").Clear()
	db.DB.Unscoped().Delete(&post)

	invalidatePost(post.Slug)
	c.Status(http.StatusOK)
}

// TogglePublish 发布/撤回
func (h *AdminHandler) TogglePublish(c *gin.Context) {
	var post models.Post
	if err := db.DB.First(&post, utils.StringToUint(c.Param("id"))).Error; err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	db.DB.Model(&post).Update("published", !post.Published)
	invalidatePost(post.Slug)
	c.Redirect(http.StatusFound, "/admin/posts")
}

// UploadThumbnail 文章缩略图上传 (POST /admin/upload/thumbnail)
func (h *AdminHandler) UploadThumbnail(c *gin.Context) {
	h.upload(c, services.KindThumbnail)
}

// UploadBranding 站点 logo / favicon 上传 (POST /admin/upload/branding)
func (h *AdminHandler) UploadBranding(c *gin.Context) {
	h.upload(c, services.KindBranding)
}

func (h *AdminHandler) upload(c *gin.Context, kind services.UploadKind) {
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "请选择要上传的图片"})
		return
	}
	defer file.Close()

	// 先做本地校验，不合格的文件不走网络
	if err := services.ValidateUpload(header, kind); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	if h.uploads == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "对象存储未配置"})
		return
	}

	url, err := h.uploads.Upload(c.Request.Context(), file, header, kind)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": fmt.Sprintf("上传失败: %v", err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "url": url})
}

// ---- 分类管理 ----

func (h *AdminHandler) ListCategories(c *gin.Context) {
	var categories []models.Category
	db.DB.Order("name ASC").Find(&categories)

	Render(c, http.StatusOK, "admin/category_list.html", gin.H{
		"Title":      "分类管理",
		"Categories": categories,
	})
}

func (h *AdminHandler) CreateCategory(c *gin.Context) {
	name := strings.TrimSpace(c.PostForm("name"))
	if name == "" {
		c.Redirect(http.StatusFound, "/admin/categories")
		return
	}

	slug := utils.NormalizeSlug(c.PostForm("slug"))
	if slug == "" {
		slug = utils.Slugify(name)
	}

	category := models.Category{
		Name:        name,
		Slug:        slug,
		Description: strings.TrimSpace(c.PostForm("description")),
	}
	db.DB.Create(&category)

	c.Redirect(http.StatusFound, "/admin/categories")
}

func (h *AdminHandler) UpdateCategory(c *gin.Context) {
	var category models.Category
	if err := db.DB.First(&category, utils.StringToUint(c.Param("id"))).Error; err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	if name := strings.TrimSpace(c.PostForm("name")); name != "" {
		category.Name = name
	}
	if slug := utils.NormalizeSlug(c.PostForm("slug")); slug != "" {
		category.Slug = slug
	}
	category.Description = strings.TrimSpace(c.PostForm("description"))
	db.DB.Save(&category)

	c.Redirect(http.StatusFound, "/admin/categories")
}

func (h *AdminHandler) DeleteCategory(c *gin.Context) {
	var category models.Category
	if err := db.DB.First(&category, utils.StringToUint(c.Param("id"))).Error; err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	// 先解除与文章的关联，文章本身不动
	db.DB.Exec("DELETE FROM post_categories WHERE category_id = ?", category.ID)
	db.DB.Unscoped().Delete(&category)

	c.Status(http.StatusOK)
}

// ---- 评论审核 ----

// ListComments 全站评论的扁平列表，带邮箱（仅后台可见）
func (h *AdminHandler) ListComments(c *gin.Context) {
	page := pageParam(c)
	perPage := 30
	offset := (page - 1) * perPage

	var total int64
	db.DB.Model(&models.Comment{}).Count(&total)
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	if totalPages == 0 {
		totalPages = 1
	}

	var list []models.Comment
	db.DB.Preload("Post").
		Order("created_at DESC").
		Limit(perPage).
		Offset(offset).
		Find(&list)

	Render(c, http.StatusOK, "admin/comment_list.html", gin.H{
		"Title":       "评论管理",
		"Comments":    list,
		"CurrentPage": page,
		"TotalPages":  totalPages,
	})
}

// PostComments 单篇文章的评论树，后台全量视图
func (h *AdminHandler) PostComments(c *gin.Context) {
	var post models.Post
	if err := db.DB.First(&post, utils.StringToUint(c.Param("id"))).Error; err != nil {
		RenderError(c, http.StatusNotFound, "文章不存在")
		return
	}

	roots, err := h.comments.Fetch(post.ID)
	if err != nil {
		RenderError(c, http.StatusInternalServerError, "加载失败")
		return
	}

	Render(c, http.StatusOK, "admin/comment_tree.html", gin.H{
		"Title":        post.Title + " 的评论",
		"Post":         post,
		"Comments":     comments.NewCards(roots, comments.VariantAdminFull),
		"CommentTotal": comments.Count(roots),
	})
}

// DeleteComment 删除评论，整棵回复子树由数据库级联清掉
func (h *AdminHandler) DeleteComment(c *gin.Context) {
	id := utils.StringToUint(c.Param("id"))

	var comment models.Comment
	if err := db.DB.First(&comment, id).Error; err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	var post models.Post
	db.DB.Select("id, slug").First(&post, comment.PostID)

	if err := h.comments.Delete(id); err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}

	invalidatePost(post.Slug)
	h.notifier.Publish(c.Request.Context(), services.Event{
		Collection: services.CollectionComments,
		PostID:     comment.PostID,
		Action:     "deleted",
	})

	c.Status(http.StatusOK)
}

// ReplyComment 以站长身份回复，走和公开提交同一套校验
func (h *AdminHandler) ReplyComment(c *gin.Context) {
	parentID := utils.StringToUint(c.Param("id"))

	var parent models.Comment
	if err := db.DB.First(&parent, parentID).Error; err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	var post models.Post
	if err := db.DB.Select("id, slug").First(&post, parent.PostID).Error; err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	user := currentUser(c)
	_, err := h.comments.Submit(comments.SubmitInput{
		PostID:       parent.PostID,
		ParentID:     &parentID,
		AuthorName:   "站长",
		AuthorEmail:  user.Email,
		Content:      c.PostForm("content"),
		IsAdminReply: true,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": submitError(err)})
		return
	}

	invalidatePost(post.Slug)
	h.notifier.Publish(c.Request.Context(), services.Event{
		Collection: services.CollectionComments,
		PostID:     parent.PostID,
		Action:     "created",
	})

	c.Redirect(http.StatusFound, fmt.Sprintf("/admin/posts/%d/comments", post.ID))
}

// ---- 短链管理 ----

func (h *AdminHandler) ListLinks(c *gin.Context) {
	var links []models.ShortenedLink
	db.DB.Order("created_at DESC").Find(&links)

	Render(c, http.StatusOK, "admin/link_list.html", gin.H{
		"Title": "短链管理",
		"Links": links,
	})
}

// linkForm 从表单取短链字段。密码留空表示无密码。
func linkForm(c *gin.Context, link *models.ShortenedLink) {
	link.LinkName = strings.TrimSpace(c.PostForm("link_name"))
	link.OriginalURL = strings.TrimSpace(c.PostForm("original_url"))
	link.Alias = strings.TrimSpace(c.PostForm("alias"))
	link.PostSlug = utils.NormalizeSlug(c.PostForm("post_slug"))

	if pwd := c.PostForm("password"); pwd != "" {
		link.Password = &pwd
	} else {
		link.Password = nil
	}

	// 未指定别名时生成系统 token；有别名时 token 可以为空
	if link.Alias == "" && link.Token == "" {
		link.Token = utils.RandToken(8)
	}
}

func (h *AdminHandler) CreateLink(c *gin.Context) {
	var link models.ShortenedLink
	linkForm(c, &link)

	if link.LinkName == "" || link.OriginalURL == "" {
		var links []models.ShortenedLink
		db.DB.Order("created_at DESC").Find(&links)
		Render(c, http.StatusBadRequest, "admin/link_list.html", gin.H{
			"Error": "名称和目标地址不能为空",
			"Links": links,
		})
		return
	}

	db.DB.Create(&link)
	c.Redirect(http.StatusFound, "/admin/links")
}

func (h *AdminHandler) UpdateLink(c *gin.Context) {
	var link models.ShortenedLink
	if err := db.DB.First(&link, utils.StringToUint(c.Param("id"))).Error; err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	linkForm(c, &link)
	db.DB.Save(&link)

	c.Redirect(http.StatusFound, "/admin/links")
}

func (h *AdminHandler) DeleteLink(c *gin.Context) {
	db.DB.Unscoped().Delete(&models.ShortenedLink{}, utils.StringToUint(c.Param("id")))
	c.Status(http.StatusOK)
}

// ---- 站点设置 ----

func (h *AdminHandler) ShowSettings(c *gin.Context) {
	Render(c, http.StatusOK, "admin/settings.html", gin.H{
		"Title":    "站点设置",
		"Settings": services.GetSettingsService().All(),
	})
}

// SaveSettings 只写白名单内的设置键，保存后失效缓存
func (h *AdminHandler) SaveSettings(c *gin.Context) {
	keys := []string{
		models.SettingSiteTitle,
		models.SettingSiteDescription,
		models.SettingSiteLogoURL,
		models.SettingSiteFaviconURL,
		models.SettingSocialLinks,
		models.SettingNotifyEmail,
	}

	st := services.GetSettingsService()
	for _, key := range keys {
		if value, ok := c.GetPostForm(key); ok {
			if err := st.Save(key, value); err != nil {
				Render(c, http.StatusInternalServerError, "admin/settings.html", gin.H{
					"Error":    "保存失败",
					"Settings": st.All(),
				})
				return
			}
		}
	}

	Render(c, http.StatusOK, "admin/settings.html", gin.H{
		"Success":  "保存成功",
		"Settings": st.All(),
	})
}
