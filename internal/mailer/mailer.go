// Package mailer sends transactional emails over SMTP. The defaults target
// Mailtrap (smtp.mailtrap.io), which is convenient for development inboxes;
// point Host and Port at a real relay in production.
package mailer

import (
	"fmt"
	"net/smtp"

	"go.uber.org/zap"
)

// Config holds the SMTP relay settings.
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	// Sender is the From address, e.g. "noreply@example.com".
	Sender string
}

// SMTPMailer sends share-invite emails through a plain-auth SMTP relay.
type SMTPMailer struct {
	cfg    Config
	logger *zap.Logger
}

// NewSMTPMailer validates the relay settings and returns a mailer.
func NewSMTPMailer(cfg Config, logger *zap.Logger) (*SMTPMailer, error) {
	if cfg.Host == "" || cfg.Port == "" {
		return nil, fmt.Errorf("mailer: SMTP host and port must be provided")
	}
	if cfg.Username == "" || cfg.Password == "" {
		return nil, fmt.Errorf("mailer: SMTP username and password must be provided")
	}
	if cfg.Sender == "" {
		return nil, fmt.Errorf("mailer: sender address must be provided")
	}
	return &SMTPMailer{cfg: cfg, logger: logger}, nil
}

// SendShareInvite emails recipientEmail that senderName shared a note with
// them.
func (m *SMTPMailer) SendShareInvite(recipientEmail, senderName, noteTitle string) error {
	if recipientEmail == "" {
		return fmt.Errorf("mailer: recipient email address cannot be empty")
	}
	if senderName == "" {
		senderName = "Someone"
	}

	subject := fmt.Sprintf("%s shared a note with you", senderName)
	body := fmt.Sprintf(
		"<html><body><p><b>%s</b> shared the note <b>%q</b> with you.</p>"+
			"<p>Open the app to start collaborating.</p></body></html>",
		senderName, noteTitle)

	message := []byte(fmt.Sprintf("To: %s\r\n"+
		"From: %s\r\n"+
		"Subject: %s\r\n"+
		"Content-Type: text/html; charset=UTF-8\r\n"+
		"\r\n"+
		"%s\r\n", recipientEmail, m.cfg.Sender, subject, body))

	addr := m.cfg.Host + ":" + m.cfg.Port
	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	if err := smtp.SendMail(addr, auth, m.cfg.Sender, []string{recipientEmail}, message); err != nil {
		return fmt.Errorf("mailer: failed to send share invite: %w", err)
	}

	m.logger.Debug("share invite sent", zap.String("recipient", recipientEmail))
	return nil
}
