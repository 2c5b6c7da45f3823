package handlers

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"inkwell/internal/comments"
	"inkwell/internal/db"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/services"
	"inkwell/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type PostHandler struct {
	comments *comments.Service
	captcha  *services.CaptchaService
}

func NewPostHandler() *PostHandler {
	return &PostHandler{
		comments: comments.NewService(comments.NewGormStore(db.DB)),
		captcha:  services.NewCaptchaService(),
	}
}

// fillCommentCounts 批量填充文章的评论数量
func fillCommentCounts(posts []models.Post) {
	if len(posts) == 0 {
		return
	}

	postIDs := make([]uint, len(posts))
	for i, p := range posts {
		postIDs[i] = p.ID
	}

	// 批量查询评论数量
	type CountResult struct {
		PostID uint
		Count  int
	}
	var results []CountResult
	db.DB.Model(&models.Comment{}).
		Select("post_id, COUNT(*) as count").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&results)

	countMap := make(map[uint]int)
	for _, r := range results {
		countMap[r.PostID] = r.Count
	}

	for i := range posts {
		posts[i].CommentCount = countMap[posts[i].ID]
	}
}

func pageParam(c *gin.Context) int {
	page := 1
	if p := c.Query("page"); p != "" {
		if pageNum, err := strconv.Atoi(p); err == nil && pageNum > 0 {
			page = pageNum
		}
	}
	return page
}

// List 首页文章列表，只展示已发布的文章
func (h *PostHandler) List(c *gin.Context) {
	page := pageParam(c)

	cacheKey := fmt.Sprintf("post:list:page:%d", page)
	if cachedData := utils.GetCache().Get(cacheKey); cachedData != nil {
		if hData, ok := cachedData.(gin.H); ok {
			Render(c, http.StatusOK, "post/list.html", cloneData(hData))
			return
		}
	}

	perPage := 10
	offset := (page - 1) * perPage

	var total int64
	db.DB.Model(&models.Post{}).Where("published = ?", true).Count(&total)

	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	if totalPages == 0 {
		totalPages = 1
	}

	var posts []models.Post
	db.DB.Preload("Categories").
		Where("published = ?", true).
		Order("created_at DESC").
		Limit(perPage).
		Offset(offset).
		Find(&posts)

	fillCommentCounts(posts)

	// 分类列表（侧边栏导航）
	var categories []models.Category
	db.DB.Order("name ASC").Find(&categories)

	renderData := gin.H{
		"Posts":       posts,
		"Categories":  categories,
		"Active":      "home",
		"CurrentPage": page,
		"TotalPages":  totalPages,
		"FullURL":     fullURL("/", page),
	}

	// 写入缓存，有效期 1 分钟。Render 还会往 map 里补公共字段，传副本进去
	utils.GetCache().Set(cacheKey, renderData, 1*time.Minute)

	Render(c, http.StatusOK, "post/list.html", cloneData(renderData))
}

// ListByCategory 分类下的文章列表
func (h *PostHandler) ListByCategory(c *gin.Context) {
	catSlug := c.Param("slug")

	var category models.Category
	if err := db.DB.Where("slug = ?", catSlug).First(&category).Error; err != nil {
		RenderError(c, http.StatusNotFound, "分类不存在")
		return
	}

	page := pageParam(c)
	perPage := 10
	offset := (page - 1) * perPage

	// 通过连接表筛选该分类下的已发布文章
	var total int64
	db.DB.Model(&models.Post{}).
		Joins("JOIN post_categories pc ON pc.post_id = posts.id").
		Where("pc.category_id = ? AND posts.published = ?", category.ID, true).
		Count(&total)

	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	if totalPages == 0 {
		totalPages = 1
	}

	var posts []models.Post
	db.DB.Preload("Categories").
		Joins("JOIN post_categories pc ON pc.post_id = posts.id").
		Where("pc.category_id = ? AND posts.published = ?", category.ID, true).
		Order("posts.created_at DESC").
		Limit(perPage).
		Offset(offset).
		Find(&posts)

	fillCommentCounts(posts)

	var categories []models.Category
	db.DB.Order("name ASC").Find(&categories)

	Render(c, http.StatusOK, "post/list.html", gin.H{
		"Posts":       posts,
		"Categories":  categories,
		"Category":    category,
		"Active":      "category",
		"Title":       category.Name,
		"Description": category.Description,
		"CurrentPage": page,
		"TotalPages":  totalPages,
		"FullURL":     fullURL("/category/"+category.Slug, page),
	})
}

// Search 标题和正文的模糊搜索，只匹配已发布文章
func (h *PostHandler) Search(c *gin.Context) {
	query := c.Query("q")

	var posts []models.Post
	if query != "" {
		searchPattern := "%" + query + "%"
		db.DB.Preload("Categories").
			Where("published = ? AND (title ILIKE ? OR content ILIKE ?)", true, searchPattern, searchPattern).
			Order("created_at DESC").
			Limit(50).
			Find(&posts)
	}

	fillCommentCounts(posts)

	Render(c, http.StatusOK, "search.html", gin.H{
		"Posts":   posts,
		"Query":   query,
		"Active":  "search",
		"Title":   "搜索 - " + query,
		"FullURL": getSiteURL() + "/search?q=" + query,
	})
}

// Detail 文章详情页。slug 兼容旧的 .html 后缀链接。
func (h *PostHandler) Detail(c *gin.Context) {
	slug := utils.NormalizeSlug(c.Param("slug"))
	visitorID := middleware.GetVisitorID(c)
	showAll := c.Query("comments") == "all"

	// 共享缓存只存随访客不变的部分，点赞状态每次实时查。
	// 缓存的 map 被并发请求共享，先 cloneData 再注入私有状态。
	cacheKey := fmt.Sprintf("post:detail:shared:%s", slug)
	if cachedData := utils.GetCache().Get(cacheKey); cachedData != nil {
		if hData, ok := cachedData.(gin.H); ok && !showAll {
			// 即使是缓存，也要增加浏览量
			if postData, ok := hData["Post"].(models.Post); ok {
				db.DB.Model(&models.Post{}).Where("id = ?", postData.ID).UpdateColumn("views", gorm.Expr("views + 1"))
			}
			data := cloneData(hData)
			h.injectVisitorState(c, data, visitorID)
			Render(c, http.StatusOK, "post/detail.html", data)
			return
		}
	}

	var post models.Post
	if err := db.DB.Preload("Categories").Where("slug = ? AND published = ?", slug, true).First(&post).Error; err != nil {
		RenderError(c, http.StatusNotFound, "文章不存在")
		return
	}

	// 增加浏览量
	db.DB.Model(&post).UpdateColumn("views", gorm.Expr("views + 1"))
	post.Views++

	renderData, err := h.buildDetailData(post, showAll)
	if err != nil {
		RenderError(c, http.StatusInternalServerError, "加载失败")
		return
	}

	// 展开全部评论的视图不进缓存，命中率太低
	if !showAll {
		utils.GetCache().Set(cacheKey, renderData, 5*time.Minute)
		// 入缓存之后这个 map 就是共享的了，后续注入写到副本上
		renderData = cloneData(renderData)
	}

	h.injectVisitorState(c, renderData, visitorID)
	Render(c, http.StatusOK, "post/detail.html", renderData)
}

// buildDetailData 组装详情页的共享渲染数据（不含访客私有状态）
func (h *PostHandler) buildDetailData(post models.Post, showAll bool) (gin.H, error) {
	roots, err := h.comments.Fetch(post.ID)
	if err != nil {
		return nil, err
	}

	visible := comments.VisibleRoots(roots, comments.DefaultRootWindow, showAll)
	cards := comments.NewCards(visible, comments.VariantPublicFull)

	contentHTML := utils.RenderMarkdown(post.Content)

	// 内嵌在文章底部的跳转门链接
	var links []models.ShortenedLink
	db.DB.Where("post_slug = ?", post.Slug).Order("id ASC").Find(&links)

	// SEO 描述缺省时从正文截取
	description := post.Excerpt
	if description == "" {
		description = utils.StripHTMLTags(string(utils.RenderMarkdown(post.Content)))
		runes := []rune(description)
		if len(runes) > 150 {
			description = string(runes[:150]) + "..."
		}
		description = strings.TrimSpace(description)
	}

	var prevPost models.Post
	hasPrev := db.DB.Select("slug, title").
		Where("published = ? AND created_at < ?", true, post.CreatedAt).
		Order("created_at DESC").
		First(&prevPost).Error == nil

	var nextPost models.Post
	hasNext := db.DB.Select("slug, title").
		Where("published = ? AND created_at > ?", true, post.CreatedAt).
		Order("created_at ASC").
		First(&nextPost).Error == nil

	imageURL := post.ThumbnailURL
	if imageURL != "" && !strings.HasPrefix(imageURL, "http://") && !strings.HasPrefix(imageURL, "https://") {
		if !strings.HasPrefix(imageURL, "/") {
			imageURL = "/" + imageURL
		}
		imageURL = getSiteURL() + imageURL
	}

	return gin.H{
		"Post":          post,
		"PostContent":   contentHTML,
		"Comments":      cards,
		"CommentTotal":  comments.Count(roots),
		"HiddenRoots":   len(roots) - len(visible),
		"ShowAll":       showAll,
		"GateLinks":     links,
		"Title":         post.Title,
		"Description":   description,
		"FullURL":       fmt.Sprintf("%s/posts/%s", getSiteURL(), post.Slug),
		"ImageURL":      imageURL,
		"PublishedTime": post.CreatedAt.Format(time.RFC3339),
		"ModifiedTime":  post.UpdatedAt.Format(time.RFC3339),
		"HasPrev":       hasPrev,
		"PrevPost":      prevPost,
		"HasNext":       hasNext,
		"NextPost":      nextPost,
	}, nil
}

// injectVisitorState 为当前请求补充随访客变化的数据：点赞状态和验证码。
// 注意不能改动缓存里的卡片树，点赞集合以独立的 map 注入，模板里按 ID 查。
func (h *PostHandler) injectVisitorState(c *gin.Context, data gin.H, visitorID string) {
	liked := map[uint]bool{}
	if cards, ok := data["Comments"].([]comments.Card); ok && visitorID != "" {
		liked = likedSet(visitorID, cards)
	}
	data["LikedSet"] = liked

	session := sessions.Default(c)

	// 上一次提交失败的提示和草稿，回显一次后清掉
	consumeCommentDraft(session, data)

	// 评论表单的算术验证码，答案存 session
	question, answer := h.captcha.GenerateMathProblem()
	session.Set("comment_captcha", answer)
	session.Save()
	data["Captcha"] = question
}

// consumeCommentDraft 取走 stashCommentDraft 存的提示和草稿，由调用方 Save
func consumeCommentDraft(session sessions.Session, data gin.H) {
	msg, ok := session.Get("comment_error").(string)
	if !ok || msg == "" {
		return
	}
	data["CommentError"] = msg
	if v, ok := session.Get("comment_draft_name").(string); ok {
		data["DraftName"] = v
	}
	if v, ok := session.Get("comment_draft_email").(string); ok {
		data["DraftEmail"] = v
	}
	if v, ok := session.Get("comment_draft_content").(string); ok {
		data["DraftContent"] = v
	}
	if v, ok := session.Get("comment_draft_parent").(string); ok {
		data["DraftParent"] = v
	}
	for _, key := range []string{"comment_error", "comment_draft_name", "comment_draft_email", "comment_draft_content", "comment_draft_parent"} {
		session.Delete(key)
	}
}

// likedSet 一次性查出该访客在本页点过赞的评论 ID
func likedSet(visitorID string, cards []comments.Card) map[uint]bool {
	ids := make([]uint, 0, 16)
	var collect func(card comments.Card)
	collect = func(card comments.Card) {
		ids = append(ids, card.ID)
		for _, child := range card.Children {
			collect(child)
		}
	}
	for _, card := range cards {
		collect(card)
	}

	set := make(map[uint]bool, 8)
	if len(ids) == 0 {
		return set
	}

	var likes []models.CommentLike
	db.DB.Where("comment_id IN ? AND visitor_id = ?", ids, visitorID).Find(&likes)
	for _, l := range likes {
		set[l.CommentID] = true
	}
	return set
}
