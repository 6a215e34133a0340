package publish

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/thisisntnathan/arXivCurator/pkg/config"
	"github.com/thisisntnathan/arXivCurator/pkg/domain"
)

// EmailSink sends digest bodies to the configured recipient over SMTP
// with STARTTLS. Fire-and-forget: no read-back, no delivery tracking.
type EmailSink struct {
	cfg config.EmailConfig
}

// NewEmailSink creates an email sink from the configuration
func NewEmailSink(cfg config.EmailConfig) *EmailSink {
	return &EmailSink{cfg: cfg}
}

// Send delivers the digest body. Failures wrap
// domain.ErrEmailUnavailable and never affect the destination
// document.
func (e *EmailSink) Send(ctx context.Context, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", e.cfg.SMTPHost, e.cfg.SMTPPort)

	dialer := &net.Dialer{Timeout: e.cfg.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("%w: dial %s: %w", domain.ErrEmailUnavailable, addr, err)
	}

	// the deadline covers the whole SMTP conversation, not just the
	// dial, so a server that stalls after accepting cannot hang Send
	if e.cfg.Timeout > 0 {
		deadline := time.Now().Add(e.cfg.Timeout)
		if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
			deadline = d
		}
		_ = conn.SetDeadline(deadline)
	} else if d, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(d)
	}

	// ctx cancellation fails in-flight reads and writes immediately
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.SetDeadline(time.Now())
		case <-done:
		}
	}()

	client, err := smtp.NewClient(conn, e.cfg.SMTPHost)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("%w: smtp handshake: %w", domain.ErrEmailUnavailable, err)
	}
	defer client.Close()

	if err := client.StartTLS(&tls.Config{ServerName: e.cfg.SMTPHost, MinVersion: tls.VersionTLS12}); err != nil {
		return fmt.Errorf("%w: starttls: %w", domain.ErrEmailUnavailable, err)
	}

	auth := smtp.PlainAuth("", e.cfg.From, e.cfg.Password, e.cfg.SMTPHost)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("%w: auth: %w", domain.ErrEmailUnavailable, err)
	}

	if err := client.Mail(e.cfg.From); err != nil {
		return fmt.Errorf("%w: mail from: %w", domain.ErrEmailUnavailable, err)
	}
	if err := client.Rcpt(e.cfg.Recipient); err != nil {
		return fmt.Errorf("%w: rcpt to: %w", domain.ErrEmailUnavailable, err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("%w: data: %w", domain.ErrEmailUnavailable, err)
	}
	if _, err := w.Write([]byte(e.buildMessage(subject, body))); err != nil {
		return fmt.Errorf("%w: write message: %w", domain.ErrEmailUnavailable, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("%w: close message: %w", domain.ErrEmailUnavailable, err)
	}

	if err := client.Quit(); err != nil {
		lgr.Printf("[WARN] smtp quit failed: %v", err)
	}

	lgr.Printf("[INFO] email digest sent to %s", e.cfg.Recipient)
	return nil
}

// buildMessage assembles an RFC 5322 message with CRLF line endings
func (e *EmailSink) buildMessage(subject, body string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("From: arXivCurator <%s>\r\n", e.cfg.From))
	sb.WriteString(fmt.Sprintf("To: %s\r\n", e.cfg.Recipient))
	sb.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	sb.WriteString("\r\n")
	return sb.String()
}
