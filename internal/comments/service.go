package comments

import (
	"errors"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"inkwell/internal/logging"
	"inkwell/internal/models"
)

const (
	maxAuthorNameLen = 100
	maxEmailLen      = 255
	maxContentLen    = 2000
)

// 标准的 local@domain.tld 形式校验，任何网络调用之前执行
var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// 校验错误在进任何存储调用之前返回，调用方原样展示并保留草稿
var (
	ErrNameRequired  = errors.New("author name is required")
	ErrNameTooLong   = errors.New("author name is too long")
	ErrEmailInvalid  = errors.New("email address is invalid")
	ErrContentEmpty  = errors.New("comment body is required")
	ErrContentLong   = errors.New("comment body is too long")
	ErrParentInvalid = errors.New("parent comment does not belong to this post")
	ErrTooDeep       = errors.New("reply depth limit reached")
)

// Store 评论持久化的窄接口，gorm 实现见 store.go，测试用内存假实现。
type Store interface {
	ListByPost(postID uint) ([]models.Comment, error)
	Get(id uint) (*models.Comment, error)
	Create(c *models.Comment) error
	Delete(id uint) error

	FindLike(commentID uint, visitorID string) (*models.CommentLike, error)
	CreateLike(l *models.CommentLike) error
	DeleteLike(id uint) error
	CountLikes(commentID uint) (int64, error)
	UpdateLikesCount(commentID uint, count int) error
}

// Service 评论读写与点赞切换的业务入口
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Fetch 拉取一篇文章的全部评论并组装森林。每次都全量重建，不做增量合并。
func (s *Service) Fetch(postID uint) ([]*Node, error) {
	list, err := s.store.ListByPost(postID)
	if err != nil {
		return nil, err
	}
	return BuildForest(list), nil
}

// SubmitInput 评论提交参数
type SubmitInput struct {
	PostID       uint
	ParentID     *uint
	AuthorName   string
	AuthorEmail  string
	Content      string
	IsAdminReply bool
}

// ValidateEmail 报告邮箱是否为合法的 local@domain.tld 形式
func ValidateEmail(email string) bool {
	return len(email) <= maxEmailLen && emailPattern.MatchString(email)
}

// Submit 校验并持久化一条新评论。校验失败不产生任何写入。
// 回复必须挂在同一篇文章下，且父节点层级未达到回复上限。
func (s *Service) Submit(in SubmitInput) (*models.Comment, error) {
	name := strings.TrimSpace(in.AuthorName)
	content := strings.TrimSpace(in.Content)
	email := strings.TrimSpace(in.AuthorEmail)

	switch {
	case name == "":
		return nil, ErrNameRequired
	case len(name) > maxAuthorNameLen:
		return nil, ErrNameTooLong
	case !ValidateEmail(email):
		return nil, ErrEmailInvalid
	case content == "":
		return nil, ErrContentEmpty
	case len(content) > maxContentLen:
		return nil, ErrContentLong
	}

	if in.ParentID != nil {
		depth, err := s.parentDepth(*in.ParentID, in.PostID)
		if err != nil {
			return nil, err
		}
		if !CanReply(depth) {
			return nil, ErrTooDeep
		}
	}

	comment := &models.Comment{
		PostID:       in.PostID,
		ParentID:     in.ParentID,
		AuthorName:   name,
		AuthorEmail:  email,
		Content:      content,
		IsAdminReply: in.IsAdminReply,
	}
	if err := s.store.Create(comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// parentDepth 沿 ParentID 链向上数到根，返回父节点的层级。
// 链条异常（父评论属于别的文章）返回 ErrParentInvalid。
func (s *Service) parentDepth(parentID uint, postID uint) (int, error) {
	depth := 0
	id := parentID
	for {
		parent, err := s.store.Get(id)
		if err != nil {
			return 0, err
		}
		if parent == nil || parent.PostID != postID {
			return 0, ErrParentInvalid
		}
		if parent.ParentID == nil {
			return depth, nil
		}
		id = *parent.ParentID
		depth++
		if depth > MaxReplyDepth {
			// 链条比回复上限还深，直接判定超限，不再继续爬
			return depth, nil
		}
	}
}

// ToggleLike 按 (comment, visitor) 切换点赞状态。
// 两步写入：先增删 join 记录，再尽力同步评论上的反范式计数。
// 两步之间没有事务——计数只是缓存，join 集合才是事实来源，
// 漂移会在下一次全量拉取时被重新计算覆盖。计数写失败只记日志。
func (s *Service) ToggleLike(commentID uint, visitorID string) (count int, liked bool, err error) {
	existing, err := s.store.FindLike(commentID, visitorID)
	if err != nil {
		return 0, false, err
	}

	if existing != nil {
		if err := s.store.DeleteLike(existing.ID); err != nil {
			return 0, false, err
		}
		liked = false
	} else {
		like := &models.CommentLike{CommentID: commentID, VisitorID: visitorID}
		if err := s.store.CreateLike(like); err != nil {
			return 0, false, err
		}
		liked = true
	}

	total, err := s.store.CountLikes(commentID)
	if err != nil {
		return 0, liked, err
	}

	// best-effort 同步计数，失败不回滚也不上抛
	if err := s.store.UpdateLikesCount(commentID, int(total)); err != nil {
		logging.WithComponent("comments").Warn("likes_count sync failed",
			zap.Uint("comment_id", commentID), zap.Error(err))
	}

	return int(total), liked, nil
}

// IsLiked 查询某访客对某评论的点赞状态，以 join 集合为准
func (s *Service) IsLiked(commentID uint, visitorID string) (bool, error) {
	existing, err := s.store.FindLike(commentID, visitorID)
	if err != nil {
		return false, err
	}
	return existing != nil, nil
}

// Delete 删除评论；数据库外键级联会清掉整棵回复子树
func (s *Service) Delete(id uint) error {
	return s.store.Delete(id)
}
