package mysql

import (
	"yatube/internal/model"

	"gorm.io/gorm"
)

type PostRepository struct {
	DB *gorm.DB
}

func (r *PostRepository) Create(post *model.Post) error {
	return r.DB.Create(post).Error
}

func (r *PostRepository) FindByID(id uint64) (*model.Post, error) {
	var post model.Post
	err := r.DB.Preload("Author").Preload("Group").First(&post, id).Error
	return &post, err
}

// FindByAuthorAndID 按作者用户名 + 帖子 id 查询，路径 /:username/:post_id 的语义
func (r *PostRepository) FindByAuthorAndID(username string, id uint64) (*model.Post, error) {
	var post model.Post
	err := r.DB.
		Joins("JOIN users ON users.id = posts.author_id AND users.username = ?", username).
		Preload("Author").Preload("Group").
		First(&post, "posts.id = ?", id).Error
	return &post, err
}

func (r *PostRepository) CountAll() (int64, error) {
	var n int64
	err := r.DB.Model(&model.Post{}).Count(&n).Error
	return n, err
}

// ListAll 全站列表，固定按发布时间倒序（同刻按 id 倒序打破并列）
func (r *PostRepository) ListAll(offset, limit int) ([]model.Post, error) {
	var list []model.Post
	err := r.DB.
		Preload("Author").Preload("Group").
		Order("pub_date DESC, id DESC").
		Offset(offset).Limit(limit).
		Find(&list).Error
	return list, err
}

func (r *PostRepository) CountByGroup(groupID uint64) (int64, error) {
	var n int64
	err := r.DB.Model(&model.Post{}).Where("group_id = ?", groupID).Count(&n).Error
	return n, err
}

func (r *PostRepository) ListByGroup(groupID uint64, offset, limit int) ([]model.Post, error) {
	var list []model.Post
	err := r.DB.
		Where("group_id = ?", groupID).
		Preload("Author").Preload("Group").
		Order("pub_date DESC, id DESC").
		Offset(offset).Limit(limit).
		Find(&list).Error
	return list, err
}

func (r *PostRepository) CountByAuthor(authorID uint64) (int64, error) {
	var n int64
	err := r.DB.Model(&model.Post{}).Where("author_id = ?", authorID).Count(&n).Error
	return n, err
}

func (r *PostRepository) ListByAuthor(authorID uint64, offset, limit int) ([]model.Post, error) {
	var list []model.Post
	err := r.DB.
		Where("author_id = ?", authorID).
		Preload("Author").Preload("Group").
		Order("pub_date DESC, id DESC").
		Offset(offset).Limit(limit).
		Find(&list).Error
	return list, err
}

// CountFeed / ListFeed 关注流：当前用户关注的作者们的全部帖子
func (r *PostRepository) CountFeed(userID uint64) (int64, error) {
	var n int64
	err := r.DB.Model(&model.Post{}).
		Joins("JOIN follow ON follow.author_id = posts.author_id AND follow.user_id = ?", userID).
		Count(&n).Error
	return n, err
}

func (r *PostRepository) ListFeed(userID uint64, offset, limit int) ([]model.Post, error) {
	var list []model.Post
	err := r.DB.
		Joins("JOIN follow ON follow.author_id = posts.author_id AND follow.user_id = ?", userID).
		Preload("Author").Preload("Group").
		Order("posts.pub_date DESC, posts.id DESC").
		Offset(offset).Limit(limit).
		Find(&list).Error
	return list, err
}

// UpdateContent 原地编辑：只动 text/group_id/image，pub_date 与主键不变
func (r *PostRepository) UpdateContent(id uint64, text string, groupID *uint64, image string) error {
	updates := map[string]any{
		"text":     text,
		"group_id": groupID,
	}
	if image != "" {
		updates["image"] = image
	}
	return r.DB.Model(&model.Post{}).Where("id = ?", id).Updates(updates).Error
}
