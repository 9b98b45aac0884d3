package model

import "time"

// Comment 帖子评论，创建后不可修改；随帖子或作者级联删除
type Comment struct {
	ID       uint64    `gorm:"primaryKey" json:"id"`
	PostID   uint64    `gorm:"not null;index" json:"post_id"`
	Post     *Post     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	AuthorID uint64    `gorm:"not null;index" json:"author_id"`
	Author   *User     `gorm:"constraint:OnDelete:CASCADE" json:"author,omitempty"`
	Text     string    `gorm:"type:text;not null" json:"text"`
	Created  time.Time `gorm:"autoCreateTime" json:"created"`
}
