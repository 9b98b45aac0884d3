package service

import (
	"errors"
	"strings"

	"yatube/internal/model"
	"yatube/internal/repository/mysql"

	"gorm.io/gorm"
)

type CommentService struct {
	repo     *mysql.CommentRepository
	posts    *mysql.PostRepository
	notifier *CommentNotifier
}

// NewCommentService notifier 可为 nil，此时不发通知
func NewCommentService(db *gorm.DB, notifier *CommentNotifier) *CommentService {
	return &CommentService{
		repo:     &mysql.CommentRepository{DB: db},
		posts:    &mysql.PostRepository{DB: db},
		notifier: notifier,
	}
}

// AddComment 给帖子插入一条评论；帖子不存在时透传 gorm.ErrRecordNotFound
func (s *CommentService) AddComment(userID, postID uint64, text string) (*model.Comment, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("text required")
	}

	post, err := s.posts.FindByID(postID)
	if err != nil {
		return nil, err
	}

	comment := &model.Comment{
		PostID:   postID,
		AuthorID: userID,
		Text:     text,
	}
	if err := s.repo.Create(comment); err != nil {
		return nil, err
	}

	// 通知异步发出，失败不影响评论本身
	if s.notifier != nil {
		s.notifier.NotifyAsync(post, comment)
	}
	return comment, nil
}

func (s *CommentService) ListByPost(postID uint64) ([]model.Comment, error) {
	return s.repo.ListByPost(postID)
}

func (s *CommentService) CountByPost(postID uint64) (int64, error) {
	return s.repo.CountByPost(postID)
}
