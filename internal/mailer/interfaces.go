package mailer

import "github.com/prodlast/cospace-backend/pkg/config"

type Service interface {
	Send(toEmail, toName, subject, text, html string) (string, error)
}

// New picks the mailer implementation from config: dev mode logs instead
// of sending, a MailerSend key wins over plain SMTP.
func New(cfg config.EmailConfig) Service {
	if cfg.DevMode {
		return NewDevMailer()
	}
	if cfg.MailerSendKey != "" {
		return NewMailerSend(cfg.MailerSendKey, cfg.FromName, cfg.FromEmail)
	}
	return NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPUseTLS)
}
