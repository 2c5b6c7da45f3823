package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"inkwell/internal/comments"
	"inkwell/internal/db"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/services"
	"inkwell/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	comments *comments.Service
	notifier *services.Notifier
	mailer   *services.Mailer
	captcha  *services.CaptchaService
}

func NewCommentHandler(notifier *services.Notifier, mailer *services.Mailer) *CommentHandler {
	return &CommentHandler{
		comments: comments.NewService(comments.NewGormStore(db.DB)),
		notifier: notifier,
		mailer:   mailer,
		captcha:  services.NewCaptchaService(),
	}
}

// submitError 把校验错误翻译成表单提示
func submitError(err error) string {
	switch {
	case errors.Is(err, comments.ErrNameRequired):
		return "请填写昵称"
	case errors.Is(err, comments.ErrNameTooLong):
		return "昵称过长"
	case errors.Is(err, comments.ErrEmailInvalid):
		return "邮箱格式不正确"
	case errors.Is(err, comments.ErrContentEmpty):
		return "评论内容不能为空"
	case errors.Is(err, comments.ErrContentLong):
		return "评论内容过长"
	case errors.Is(err, comments.ErrParentInvalid):
		return "回复的评论不存在"
	case errors.Is(err, comments.ErrTooDeep):
		return "回复层级过深，请直接回复上一级"
	default:
		return "发表失败，请稍后重试"
	}
}

// stashCommentDraft 提交失败时把原因和表单草稿存进 session，
// 详情页回显一次后清掉，访客不用重新打字
func stashCommentDraft(c *gin.Context, msg string) {
	session := sessions.Default(c)
	session.Set("comment_error", msg)
	session.Set("comment_draft_name", c.PostForm("author_name"))
	session.Set("comment_draft_email", c.PostForm("author_email"))
	session.Set("comment_draft_content", c.PostForm("content"))
	session.Set("comment_draft_parent", c.PostForm("parent_id"))
	session.Save()
}

// Fragment 重新拉取评论树片段（用于前端局部刷新）
func (h *CommentHandler) Fragment(c *gin.Context) {
	slug := utils.NormalizeSlug(c.Param("slug"))
	showAll := c.Query("comments") == "all"

	var post models.Post
	if err := db.DB.Select("id, slug").Where("slug = ? AND published = ?", slug, true).First(&post).Error; err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	roots, err := h.comments.Fetch(post.ID)
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}

	visible := comments.VisibleRoots(roots, comments.DefaultRootWindow, showAll)
	cards := comments.NewCards(visible, comments.VariantPublicFull)

	liked := map[uint]bool{}
	if vid := middleware.GetVisitorID(c); vid != "" {
		liked = likedSet(vid, cards)
	}

	Render(c, http.StatusOK, "post/_comments.html", gin.H{
		"Post":         post,
		"Comments":     cards,
		"CommentTotal": comments.Count(roots),
		"HiddenRoots":  len(roots) - len(visible),
		"ShowAll":      showAll,
		"LikedSet":     liked,
	})
}

// Create 发表评论或回复
func (h *CommentHandler) Create(c *gin.Context) {
	slug := utils.NormalizeSlug(c.Param("slug"))

	var post models.Post
	if err := db.DB.Where("slug = ? AND published = ?", slug, true).First(&post).Error; err != nil {
		c.Redirect(http.StatusFound, "/")
		return
	}

	// Validate Captcha
	session := sessions.Default(c)
	expectedAnswer, ok := session.Get("comment_captcha").(int)
	if !ok || utils.StringToInt(c.PostForm("captcha")) != expectedAnswer {
		stashCommentDraft(c, "验证码不正确，请重试")
		c.Redirect(http.StatusFound, fmt.Sprintf("/posts/%s#comments", post.Slug))
		return
	}
	session.Delete("comment_captcha")
	session.Save()

	var parentID *uint
	if pid := utils.StringToUint(c.PostForm("parent_id")); pid > 0 {
		parentID = &pid
	}

	comment, err := h.comments.Submit(comments.SubmitInput{
		PostID:      post.ID,
		ParentID:    parentID,
		AuthorName:  c.PostForm("author_name"),
		AuthorEmail: c.PostForm("author_email"),
		Content:     c.PostForm("content"),
	})
	if err != nil {
		stashCommentDraft(c, submitError(err))
		c.Redirect(http.StatusFound, fmt.Sprintf("/posts/%s#comments", post.Slug))
		return
	}

	// 主动失效详情页缓存
	utils.GetCache().Delete(fmt.Sprintf("post:detail:shared:%s", post.Slug))

	// 广播评论变更，在线读者的评论区自动刷新
	h.notifier.Publish(c.Request.Context(), services.Event{
		Collection: services.CollectionComments,
		PostID:     post.ID,
		Action:     "created",
	})

	// 异步通知站长有新评论
	go func(commentID uint) {
		to := services.GetSettingsService().Get(models.SettingNotifyEmail)
		if to == "" {
			return
		}
		excerpt := comment.Content
		if runes := []rune(excerpt); len(runes) > 100 {
			excerpt = string(runes[:100]) + "..."
		}
		link := fmt.Sprintf("%s/posts/%s#comment-%d", getSiteURL(), post.Slug, commentID)
		h.mailer.NotifyNewComment(to, post.Title, comment.AuthorName, excerpt, link)
	}(comment.ID)

	c.Redirect(http.StatusFound, fmt.Sprintf("/posts/%s#comment-%d", post.Slug, comment.ID))
}

// Like 点赞（再次点击取消）。响应 JSON，前端乐观更新后校正。
func (h *CommentHandler) Like(c *gin.Context) {
	commentID := utils.StringToUint(c.Param("id"))
	visitorID := middleware.GetVisitorID(c)
	if commentID == 0 || visitorID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	var comment models.Comment
	if err := db.DB.Select("id, post_id").First(&comment, commentID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "comment not found"})
		return
	}

	count, liked, err := h.comments.ToggleLike(commentID, visitorID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "like failed"})
		return
	}

	// 点赞不失效详情页缓存，数量靠广播和下次刷新收敛
	h.notifier.Publish(c.Request.Context(), services.Event{
		Collection: services.CollectionLikes,
		PostID:     comment.PostID,
		Action:     "toggled",
	})

	c.JSON(http.StatusOK, gin.H{"count": count, "liked": liked})
}

// Events SSE 端点，推送该文章下的评论和点赞变更事件。
// 客户端收到事件后自行拉取 Fragment 刷新评论区。
func (h *CommentHandler) Events(c *gin.Context) {
	if h.notifier == nil {
		c.Status(http.StatusNotFound)
		return
	}

	slug := utils.NormalizeSlug(c.Param("slug"))
	var post models.Post
	if err := db.DB.Select("id").Where("slug = ? AND published = ?", slug, true).First(&post).Error; err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	events, cancel := h.notifier.Subscribe(c.Request.Context(), "", post.ID)
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	// 订阅通道和连接断开都要能结束循环，不然断开的客户端会留到下一个事件
	done := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent(ev.Collection, gin.H{"post_id": ev.PostID, "action": ev.Action})
			return true
		case <-done:
			return false
		}
	})
}
