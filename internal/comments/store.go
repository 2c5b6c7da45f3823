package comments

import (
	"errors"

	"gorm.io/gorm"

	"inkwell/internal/models"
)

// GormStore Store 的 PostgreSQL 实现
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// ListByPost 按 created_at 升序返回文章的全部评论。
// 不指定次级排序键，时间相同的按到达顺序返回。
func (s *GormStore) ListByPost(postID uint) ([]models.Comment, error) {
	var list []models.Comment
	err := s.db.Where("post_id = ?", postID).Order("created_at ASC").Find(&list).Error
	return list, err
}

func (s *GormStore) Get(id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := s.db.First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &comment, nil
}

func (s *GormStore) Create(c *models.Comment) error {
	return s.db.Create(c).Error
}

func (s *GormStore) Delete(id uint) error {
	// 外键 OnDelete:CASCADE 负责清理整棵回复子树和点赞记录
	return s.db.Unscoped().Delete(&models.Comment{}, id).Error
}

func (s *GormStore) FindLike(commentID uint, visitorID string) (*models.CommentLike, error) {
	var like models.CommentLike
	err := s.db.Where("comment_id = ? AND visitor_id = ?", commentID, visitorID).First(&like).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &like, nil
}

func (s *GormStore) CreateLike(l *models.CommentLike) error {
	return s.db.Create(l).Error
}

func (s *GormStore) DeleteLike(id uint) error {
	return s.db.Unscoped().Delete(&models.CommentLike{}, id).Error
}

func (s *GormStore) CountLikes(commentID uint) (int64, error) {
	var count int64
	err := s.db.Model(&models.CommentLike{}).Where("comment_id = ?", commentID).Count(&count).Error
	return count, err
}

func (s *GormStore) UpdateLikesCount(commentID uint, count int) error {
	return s.db.Model(&models.Comment{}).Where("id = ?", commentID).
		UpdateColumn("likes_count", count).Error
}
