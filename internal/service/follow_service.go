package service

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"yatube/internal/model"
	"yatube/internal/pkg"
	"yatube/internal/repository/mysql"
)

var ErrSelfFollow = errors.New("cannot follow self")

type FollowService struct {
	repo *mysql.FollowRepository
}

func NewFollowService(db *gorm.DB) *FollowService {
	return &FollowService{
		repo: &mysql.FollowRepository{DB: db},
	}
}

// Follow get-or-create 语义，重复调用不产生新边
func (s *FollowService) Follow(ctx context.Context, userID, authorID uint64) (bool, error) {
	if userID == 0 || authorID == 0 {
		return false, errors.New("invalid user id")
	}
	if userID == authorID {
		return false, ErrSelfFollow
	}
	return s.repo.Follow(ctx, userID, authorID)
}

// Unfollow 边不存在时透传 gorm.ErrRecordNotFound
func (s *FollowService) Unfollow(ctx context.Context, userID, authorID uint64) error {
	if userID == 0 || authorID == 0 {
		return errors.New("invalid user id")
	}
	if userID == authorID {
		return ErrSelfFollow
	}
	return s.repo.Unfollow(ctx, userID, authorID)
}

func (s *FollowService) IsFollowing(ctx context.Context, userID, authorID uint64) (bool, error) {
	if userID == 0 || authorID == 0 {
		return false, nil
	}
	return s.repo.IsFollowing(ctx, userID, authorID)
}

type Sender func(ctx context.Context, ob *model.SocialOutbox) error

// OutboxRelayer 定时把待投递的关注事件批量交给 sender
type OutboxRelayer struct {
	repo      *mysql.OutboxRepository
	batchSize int
	interval  time.Duration
	sender    Sender
}

func NewOutboxRelayer(db *gorm.DB, sender Sender) *OutboxRelayer {
	return &OutboxRelayer{
		repo:      &mysql.OutboxRepository{DB: db},
		batchSize: 200,
		interval:  time.Second,
		sender:    sender,
	}
}

// Run outbox 启动器
func (r *OutboxRelayer) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.drainOnce(ctx)
		}
	}
}

func (r *OutboxRelayer) drainOnce(ctx context.Context) {
	rows, err := r.repo.List(ctx, r.batchSize)
	if err != nil {
		log.WithError(err).Error("outbox query failed")
		return
	}
	for i := range rows {
		ob := rows[i]
		if err = r.sender(ctx, &ob); err != nil {
			log.WithError(err).WithField("outbox_id", ob.ID).Warn("outbox send failed")
			_ = r.repo.RetryUpdate(ctx, ob.ID)
			continue
		}
		_ = r.repo.SuccessUpdate(ctx, ob.ID)
	}
}

// KafkaSender 把事件投到 kafka，key 为关注者 id
func KafkaSender(producer *pkg.KafkaProducer) Sender {
	return func(ctx context.Context, ob *model.SocialOutbox) error {
		return producer.Send(ctx, pkg.FollowEventKey(ob.Follower), []byte(ob.Payload))
	}
}

// LogSender 本地调试用 sender
func LogSender(ctx context.Context, ob *model.SocialOutbox) error {
	log.WithFields(log.Fields{
		"type":     ob.EventType,
		"follower": ob.Follower,
		"followee": ob.Followee,
	}).Info("outbox send")
	return nil
}

// FollowCountReconciler 周期性用 follow 表的真实值修正用户的冗余计数
type FollowCountReconciler struct {
	repo      *mysql.FollowCountReconcilerRepo
	batchSize int
	interval  time.Duration
}

func NewFollowCountReconciler(db *gorm.DB) *FollowCountReconciler {
	return &FollowCountReconciler{
		repo:      &mysql.FollowCountReconcilerRepo{DB: db},
		batchSize: 500,
		interval:  5 * time.Minute,
	}
}

func (r *FollowCountReconciler) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.reconcileOnce(ctx)
		}
	}
}

func (r *FollowCountReconciler) reconcileOnce(ctx context.Context) {
	var lastID uint64
	for {
		users, nextID, err := r.repo.ReconcileList(ctx, r.batchSize, lastID)
		if err != nil {
			log.WithError(err).Error("reconcile list failed")
			return
		}
		if len(users) == 0 {
			return
		}
		lastID = nextID

		for _, u := range users {
			realFollowing, err := r.repo.RealFollowings(ctx, u.ID)
			if err != nil {
				continue
			}
			realFollower, err := r.repo.RealFollowers(ctx, u.ID)
			if err != nil {
				continue
			}
			if realFollowing != u.FollowingCount {
				_ = r.repo.ReconcileFollowings(ctx, u.ID, realFollowing)
			}
			if realFollower != u.FollowerCount {
				_ = r.repo.ReconcileFollowers(ctx, u.ID, realFollower)
			}
		}
	}
}
