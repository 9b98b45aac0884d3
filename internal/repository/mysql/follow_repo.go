package mysql

import (
	"context"
	"encoding/json"
	"time"

	"yatube/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FollowRepository struct {
	DB *gorm.DB
}

// Pair 对账消息结构体
type Pair struct {
	ID             uint64
	FollowingCount int64
	FollowerCount  int64
}

// Follow 建立关注边（幂等）。唯一索引冲突时 DoNothing，
// 只有真正新建时返回 changed=true 并调整计数、写 outbox
func (r *FollowRepository) Follow(ctx context.Context, userID, authorID uint64) (bool, error) {
	var changed bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rel := model.Follow{UserID: userID, AuthorID: authorID}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "author_id"}},
			DoNothing: true,
		}).Create(&rel)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// 重复请求，边已存在
			changed = false
			return nil
		}
		changed = true
		if err := r.adjustCounts(tx, userID, authorID, +1); err != nil {
			return err
		}
		return r.insertOutbox(tx, "follow", userID, authorID)
	})
	return changed, err
}

// Unfollow 删除关注边。边不存在时返回 gorm.ErrRecordNotFound
func (r *FollowRepository) Unfollow(ctx context.Context, userID, authorID uint64) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND author_id = ?", userID, authorID).
			Delete(&model.Follow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := r.adjustCounts(tx, userID, authorID, -1); err != nil {
			return err
		}
		return r.insertOutbox(tx, "unfollow", userID, authorID)
	})
}

// IsFollowing 判断是否关注
func (r *FollowRepository) IsFollowing(ctx context.Context, userID, authorID uint64) (bool, error) {
	var n int64
	if err := r.DB.WithContext(ctx).
		Model(&model.Follow{}).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *FollowRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Follow{}).Count(&n).Error
	return n, err
}

// adjustCounts 同事务内调整双方冗余计数，下限钳到 0
func (r *FollowRepository) adjustCounts(tx *gorm.DB, userID, authorID uint64, delta int64) error {
	if err := tx.Model(&model.User{}).
		Where("id = ?", userID).
		UpdateColumn("following_count",
			gorm.Expr("CASE WHEN following_count + ? < 0 THEN 0 ELSE following_count + ? END", delta, delta)).Error; err != nil {
		return err
	}
	if err := tx.Model(&model.User{}).
		Where("id = ?", authorID).
		UpdateColumn("follower_count",
			gorm.Expr("CASE WHEN follower_count + ? < 0 THEN 0 ELSE follower_count + ? END", delta, delta)).Error; err != nil {
		return err
	}
	return nil
}

// 同事务写 outbox 事件表
func (r *FollowRepository) insertOutbox(tx *gorm.DB, event string, userID, authorID uint64) error {
	payload, _ := json.Marshal(map[string]any{
		"event_time": time.Now().UTC().Format(time.RFC3339Nano),
		"follower":   userID,
		"followee":   authorID,
	})
	ob := &model.SocialOutbox{
		EventType: event,
		Follower:  userID,
		Followee:  authorID,
		Payload:   string(payload),
		Status:    0,
	}
	return tx.Create(ob).Error
}

// FollowCountReconcilerRepo 计数对账的数据访问
type FollowCountReconcilerRepo struct {
	DB *gorm.DB
}

// ReconcileList 按批次取用户冗余计数；返回下一批的起始 id
func (r *FollowCountReconcilerRepo) ReconcileList(ctx context.Context, batchSize int, lastID uint64) ([]Pair, uint64, error) {
	var list []Pair
	if err := r.DB.WithContext(ctx).Model(&model.User{}).
		Select("id", "following_count", "follower_count").
		Where("id > ?", lastID).
		Order("id ASC").
		Limit(batchSize).
		Find(&list).Error; err != nil {
		return nil, lastID, err
	}
	if len(list) == 0 {
		return nil, lastID, nil
	}
	return list, list[len(list)-1].ID, nil
}

// RealFollowings 该用户实际关注的人数
func (r *FollowCountReconcilerRepo) RealFollowings(ctx context.Context, userID uint64) (int64, error) {
	var n int64
	if err := r.DB.WithContext(ctx).Model(&model.Follow{}).
		Where("user_id = ?", userID).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// RealFollowers 该用户实际的粉丝数
func (r *FollowCountReconcilerRepo) RealFollowers(ctx context.Context, userID uint64) (int64, error) {
	var n int64
	if err := r.DB.WithContext(ctx).Model(&model.Follow{}).
		Where("author_id = ?", userID).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *FollowCountReconcilerRepo) ReconcileFollowings(ctx context.Context, userID uint64, real int64) error {
	return r.DB.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).
		UpdateColumn("following_count", real).Error
}

func (r *FollowCountReconcilerRepo) ReconcileFollowers(ctx context.Context, userID uint64, real int64) error {
	return r.DB.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).
		UpdateColumn("follower_count", real).Error
}
