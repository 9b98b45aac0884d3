package model

import "time"

// Post 用户发布的帖子。删除作者时级联删除其帖子；删除分组时仅置空 group_id
type Post struct {
	ID       uint64    `gorm:"primaryKey;index:idx_author_pub,priority:2,sort:desc" json:"id"`
	Text     string    `gorm:"type:text;not null" json:"text"`
	PubDate  time.Time `gorm:"autoCreateTime;index:idx_pub,sort:desc" json:"pub_date"`
	AuthorID uint64    `gorm:"not null;index:idx_author_pub,priority:1" json:"author_id"`
	Author   *User     `gorm:"constraint:OnDelete:CASCADE" json:"author,omitempty"`
	GroupID  *uint64   `gorm:"index" json:"group_id"`
	Group    *Group    `gorm:"constraint:OnDelete:SET NULL" json:"group,omitempty"`
	// Image 相对媒体目录的路径，形如 posts/small.gif；为空表示无配图
	Image string `gorm:"size:255" json:"image,omitempty"`
}
