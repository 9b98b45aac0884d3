package pkg

import (
	"crypto/tls"
	"fmt"

	"gopkg.in/gomail.v2"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string // 发件人邮箱
	Password string // 授权码/密码
	From     string // 显示的发件人，可与 Username 相同
}

// Enabled SMTP 未配置时通知走日志降级
func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && c.From != ""
}

func SendEmail(cfg SMTPConfig, to, subject, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.TLSConfig = &tls.Config{InsecureSkipVerify: false}
	return d.DialAndSend(m)
}

// CommentNotifyHTML 评论通知邮件正文
func CommentNotifyHTML(commenter string, postID uint64, text string) string {
	return fmt.Sprintf(`<p>您好，</p><p>用户 <b>%s</b> 评论了您的帖子（ID %d）：</p><blockquote>%s</blockquote>`, commenter, postID, text)
}
