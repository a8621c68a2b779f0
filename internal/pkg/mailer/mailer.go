package mailer

import (
	"bytes"
	"fmt"
	"net/smtp"

	"storefront_api/internal/pkg/config"
)

// Sender 邮件发送接口，便于在测试中替换
type Sender interface {
	Send(to, subject, tmplName string, data interface{}) error
}

// SMTPSender 基于 net/smtp 的发送实现
// 凭证通过配置显式注入，不在发送时读环境变量
type SMTPSender struct {
	cfg config.SMTPConfig
}

func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) Send(to, subject, tmplName string, data interface{}) error {
	tmpl, ok := templates[tmplName]
	if !ok {
		return fmt.Errorf("unknown mail template: %s", tmplName)
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("template execution error: %w", err)
	}

	message := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-version: 1.0;\r\nContent-Type: text/html; charset=\"UTF-8\";\r\n\r\n%s",
		s.cfg.From, to, subject, body.String(),
	)

	auth := smtp.PlainAuth("", s.cfg.From, s.cfg.Password, s.cfg.Host)
	addr := s.cfg.Host + ":" + s.cfg.Port

	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{to}, []byte(message)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}
