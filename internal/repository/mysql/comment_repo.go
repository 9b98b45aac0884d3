package mysql

import (
	"yatube/internal/model"

	"gorm.io/gorm"
)

type CommentRepository struct {
	DB *gorm.DB
}

func (r *CommentRepository) Create(comment *model.Comment) error {
	return r.DB.Create(comment).Error
}

// ListByPost 帖子页的评论区，按时间正序
func (r *CommentRepository) ListByPost(postID uint64) ([]model.Comment, error) {
	var list []model.Comment
	err := r.DB.
		Where("post_id = ?", postID).
		Preload("Author").
		Order("created ASC, id ASC").
		Find(&list).Error
	return list, err
}

func (r *CommentRepository) CountByPost(postID uint64) (int64, error) {
	var n int64
	err := r.DB.Model(&model.Comment{}).Where("post_id = ?", postID).Count(&n).Error
	return n, err
}
