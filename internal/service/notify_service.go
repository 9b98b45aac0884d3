package service

import (
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"yatube/internal/model"
	"yatube/internal/pkg"
	"yatube/internal/repository/mysql"
)

// CommentNotifier 帖子被评论后给作者发邮件提醒。
// SMTP 未配置时只记日志
type CommentNotifier struct {
	cfg   pkg.SMTPConfig
	users *mysql.UserRepository
}

func NewCommentNotifier(db *gorm.DB, cfg pkg.SMTPConfig) *CommentNotifier {
	return &CommentNotifier{
		cfg:   cfg,
		users: &mysql.UserRepository{DB: db},
	}
}

// NotifyAsync 尽力而为，不阻塞请求
func (n *CommentNotifier) NotifyAsync(post *model.Post, comment *model.Comment) {
	go n.notify(post, comment)
}

func (n *CommentNotifier) notify(post *model.Post, comment *model.Comment) {
	if comment.AuthorID == post.AuthorID {
		// 自己评论自己不提醒
		return
	}

	commenter, err := n.users.FindByID(comment.AuthorID)
	if err != nil {
		log.WithError(err).Warn("comment notify: load commenter failed")
		return
	}
	author, err := n.users.FindByID(post.AuthorID)
	if err != nil {
		log.WithError(err).Warn("comment notify: load author failed")
		return
	}

	if !n.cfg.Enabled() {
		log.WithFields(log.Fields{
			"post_id":   post.ID,
			"commenter": commenter.Username,
			"to":        author.Email,
		}).Info("comment notify (smtp disabled)")
		return
	}

	html := pkg.CommentNotifyHTML(commenter.Username, post.ID, comment.Text)
	if err := pkg.SendEmail(n.cfg, author.Email, "新的评论提醒", html); err != nil {
		log.WithError(err).WithField("post_id", post.ID).Warn("comment notify: send failed")
	}
}
