package mysql

import (
	"yatube/internal/model"

	"gorm.io/gorm"
)

type GroupRepository struct {
	DB *gorm.DB
}

func (r *GroupRepository) Create(g *model.Group) error {
	return r.DB.Create(g).Error
}

func (r *GroupRepository) FindBySlug(slug string) (*model.Group, error) {
	var group model.Group
	err := r.DB.Where("slug = ?", slug).First(&group).Error
	return &group, err
}

func (r *GroupRepository) FindByID(id uint64) (*model.Group, error) {
	var group model.Group
	err := r.DB.First(&group, id).Error
	return &group, err
}

// ExistsByID 表单校验 group 引用时使用
func (r *GroupRepository) ExistsByID(id uint64) (bool, error) {
	var n int64
	err := r.DB.Model(&model.Group{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

// ExistsByTitle 标题查重（slug 唯一索引之外的业务规则）
func (r *GroupRepository) ExistsByTitle(title string) (bool, error) {
	var n int64
	err := r.DB.Model(&model.Group{}).Where("title = ?", title).Count(&n).Error
	return n > 0, err
}

func (r *GroupRepository) Count() (int64, error) {
	var n int64
	err := r.DB.Model(&model.Group{}).Count(&n).Error
	return n, err
}

func (r *GroupRepository) List(offset, limit int) ([]model.Group, error) {
	var list []model.Group
	err := r.DB.Order("id desc").Offset(offset).Limit(limit).Find(&list).Error
	return list, err
}
