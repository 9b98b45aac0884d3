package model

import "time"

// Follow 关注关系：UserID 关注 AuthorID。(user_id, author_id) 全库唯一
type Follow struct {
	ID        uint64 `gorm:"primaryKey"`
	UserID    uint64 `gorm:"not null;index;uniqueIndex:uk_user_author"`
	AuthorID  uint64 `gorm:"not null;index;uniqueIndex:uk_user_author"`
	CreatedAt time.Time
}

// TableName sets table name for Follow
func (Follow) TableName() string {
	return "follow"
}

// SocialOutbox 关注事件投递表
type SocialOutbox struct {
	ID        uint64 `gorm:"primaryKey"`
	EventType string `gorm:"size:16;not null"` // follow / unfollow
	Follower  uint64 `gorm:"not null"`
	Followee  uint64 `gorm:"not null"`
	Payload   string `gorm:"type:json;not null"`
	Status    int8   `gorm:"not null;default:0;comment:'0=pending,1=sent,2=failed'"`
	Retry     int    `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (SocialOutbox) TableName() string { return "social_outbox" }
