package model

import "time"

// Group 帖子的主题分组，由管理员或登录用户创建，不会被自动删除
type Group struct {
	ID          uint64 `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"size:200;not null" json:"title"`
	Slug        string `gorm:"uniqueIndex;size:10;not null" json:"slug"`
	Description string `gorm:"size:200" json:"description"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}
