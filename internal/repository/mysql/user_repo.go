package mysql

import (
	"yatube/internal/model"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func (r *UserRepository) Create(user *model.User) error {
	return r.DB.Create(user).Error
}

func (r *UserRepository) FindByUsername(username string) (*model.User, error) {
	var user model.User
	err := r.DB.Where("username = ?", username).First(&user).Error
	return &user, err
}

// FindByLogin 登录时用户名和邮箱均可
func (r *UserRepository) FindByLogin(login string) (*model.User, error) {
	var user model.User
	err := r.DB.Where("username = ? OR email = ?", login, login).First(&user).Error
	return &user, err
}

func (r *UserRepository) FindByID(id uint64) (*model.User, error) {
	var user model.User
	err := r.DB.First(&user, id).Error
	return &user, err
}

func (r *UserRepository) UpdatePassword(id uint64, hash string) error {
	return r.DB.Model(&model.User{}).Where("id = ?", id).
		Update("password", hash).Error
}
