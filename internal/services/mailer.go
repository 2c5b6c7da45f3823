package services

import (
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"inkwell/internal/config"
	"inkwell/internal/logging"
)

// Mailer 站点通知邮件（新评论提醒管理员）。
// 未配置 SMTP 时静默禁用，所有发送都是异步 best-effort。
type Mailer struct {
	host     string
	port     string
	username string
	password string
	from     string
	enabled  bool
	log      *zap.Logger
}

func NewMailer(cfg *config.SMTPConfig) *Mailer {
	if !cfg.Enabled {
		logging.WithComponent("mailer").Warn("Mailer disabled: missing SMTP configuration")
	}
	return &Mailer{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.Username,
		password: cfg.Password,
		from:     cfg.From,
		enabled:  cfg.Enabled,
		log:      logging.WithComponent("mailer"),
	}
}

func (m *Mailer) sendAsync(to []string, subject, body string) {
	if !m.enabled || len(to) == 0 {
		return
	}

	go func() {
		auth := smtp.PlainAuth("", m.username, m.password, m.host)
		addr := fmt.Sprintf("%s:%s", m.host, m.port)

		mime := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n\n"
		msg := []byte(fmt.Sprintf("To: %s\r\n"+
			"From: Inkwell <%s>\r\n"+
			"Subject: %s\r\n"+
			"%s\r\n%s", strings.Join(to, ","), m.from, subject, mime, body))

		if err := smtp.SendMail(addr, auth, m.from, to, msg); err != nil {
			m.log.Warn("send mail failed", zap.String("subject", subject), zap.Error(err))
		}
	}()
}

// NotifyNewComment 新的公开评论提醒站点管理员
func (m *Mailer) NotifyNewComment(to, postTitle, authorName, excerpt, link string) {
	if to == "" {
		return
	}
	subject := fmt.Sprintf("New comment on \"%s\"", postTitle)
	body := fmt.Sprintf(`<p><strong>%s</strong> commented on <strong>%s</strong>:</p>
<blockquote>%s</blockquote>
<p><a href="%s">Open in the moderation console</a></p>`, authorName, postTitle, excerpt, link)
	m.sendAsync([]string{to}, subject, body)
}
