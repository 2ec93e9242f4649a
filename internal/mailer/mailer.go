// Package mailer delivers the daily HTML report over SMTP with STARTTLS.
package mailer

import (
	"crypto/tls"
	"errors"
	"fmt"
	"log"
	"mime"
	"net"
	"net/smtp"
	"strings"
	"time"

	"jobradar-engine/internal/secrets"
)

// Config mirrors the email block of the config file.
type Config struct {
	EnableSend  bool     `yaml:"enable_send"`
	SkipIfEmpty bool     `yaml:"skip_if_empty"`
	Sender      string   `yaml:"sender"`
	Recipients  []string `yaml:"recipients"`
	SMTPHost    string   `yaml:"smtp_host"`
	SMTPPort    int      `yaml:"smtp_port"`
}

const dialTimeout = 20 * time.Second

// Host returns the configured SMTP host or the gmail default.
func (c Config) Host() string {
	if c.SMTPHost == "" {
		return "smtp.gmail.com"
	}
	return c.SMTPHost
}

// Send mails the HTML report. A disabled config is a dry run, not an error:
// the report was still written to disk. Empty reports are the caller's
// problem; Send always sends what it is given.
func Send(cfg Config, subject, html string) (sent bool, err error) {
	if !cfg.EnableSend {
		log.Printf("[mailer] dry-run mode, email skipped")
		return false, nil
	}
	if cfg.Sender == "" || len(cfg.Recipients) == 0 {
		return false, errors.New("email sender or recipients missing")
	}

	host := cfg.Host()
	port := cfg.SMTPPort
	if port == 0 {
		port = 587
	}

	password, err := secrets.GetSMTPPassword(secrets.SMTPAccount(cfg.Sender, host))
	if err != nil {
		return false, err
	}

	msg := buildMessage(cfg.Sender, cfg.Recipients, subject, html)
	addr := net.JoinHostPort(host, fmt.Sprintf("%d", port))
	if err := sendSTARTTLS(addr, host, cfg.Sender, password, cfg.Recipients, msg); err != nil {
		return false, fmt.Errorf("send email: %w", err)
	}
	log.Printf("[mailer] email sent recipients=%d", len(cfg.Recipients))
	return true, nil
}

func sendSTARTTLS(addr, host, sender, password string, recipients []string, msg []byte) error {
	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return err
	}
	c, err := smtp.NewClient(conn, host)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: host}); err != nil {
			return err
		}
	}
	if err := c.Auth(smtp.PlainAuth("", sender, password, host)); err != nil {
		return err
	}
	if err := c.Mail(sender); err != nil {
		return err
	}
	for _, rcpt := range recipients {
		if err := c.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

func buildMessage(sender string, recipients []string, subject, html string) []byte {
	var b strings.Builder
	b.WriteString("From: " + sender + "\r\n")
	b.WriteString("To: " + strings.Join(recipients, ", ") + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(html)
	return []byte(b.String())
}
