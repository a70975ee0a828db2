package smtp

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"mail-routing-engine/internal/config"
	"mail-routing-engine/internal/engine"
)

// Dialer abstracts net.Dialer to simplify testing.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Relay sends forwarded events through a configured SMTP relay. It
// implements engine.Sender.
type Relay struct {
	host    string
	port    int
	user    string
	pass    string
	sender  string
	timeout time.Duration
	dialer  Dialer
}

// NewRelay creates an SMTP relay from config.
func NewRelay(cfg config.SMTPConfig) *Relay {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Relay{
		host:    cfg.Host,
		port:    cfg.Port,
		user:    cfg.User,
		pass:    cfg.Password,
		sender:  cfg.Sender,
		timeout: timeout,
		dialer:  &net.Dialer{Timeout: timeout},
	}
}

// Send delivers one forwarded copy of the event to target. The connection
// carries both the context deadline and the relay's own timeout, so a
// stalled relay cannot hang a route.
func (r *Relay) Send(ctx context.Context, event *engine.InboundEvent, target string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	addr := fmt.Sprintf("%s:%d", r.host, r.port)
	conn, err := r.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP relay %s: %w", addr, err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			conn.Close()
			return fmt.Errorf("failed to set connection deadline: %w", err)
		}
	}

	client, err := smtp.NewClient(conn, r.host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(nil); err != nil {
			return fmt.Errorf("STARTTLS failed: %w", err)
		}
	}

	if r.user != "" {
		auth := smtp.PlainAuth("", r.user, r.pass, r.host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP auth failed: %w", err)
		}
	}

	if err := client.Mail(r.sender); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}
	if err := client.Rcpt(target); err != nil {
		return fmt.Errorf("RCPT TO failed: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("DATA failed: %w", err)
	}
	if _, err := w.Write(r.buildMessage(event, target)); err != nil {
		w.Close()
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finish message: %w", err)
	}

	if err := client.Quit(); err != nil {
		logrus.Debugf("SMTP QUIT failed: %v", err)
	}

	logrus.WithFields(logrus.Fields{
		"message_id": event.MessageID,
		"target":     target,
	}).Info("Forwarded event via SMTP relay")
	return nil
}

// buildMessage assembles the forwarded RFC 822 message.
func (r *Relay) buildMessage(event *engine.InboundEvent, target string) []byte {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("From: %s\r\n", r.sender))
	b.WriteString(fmt.Sprintf("To: %s\r\n", target))
	b.WriteString(fmt.Sprintf("Subject: Fwd: %s\r\n", event.Subject))
	b.WriteString(fmt.Sprintf("Date: %s\r\n", time.Now().Format(time.RFC1123Z)))
	b.WriteString(fmt.Sprintf("X-Forwarded-For: %s\r\n", event.To))
	b.WriteString(fmt.Sprintf("X-Original-Message-ID: %s\r\n", event.MessageID))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 7bit\r\n")
	b.WriteString("\r\n")

	b.WriteString("---------- Forwarded message ----------\r\n")
	b.WriteString(fmt.Sprintf("From: %s\r\n", event.From))
	b.WriteString(fmt.Sprintf("To: %s\r\n", event.To))
	b.WriteString(fmt.Sprintf("Subject: %s\r\n", event.Subject))
	b.WriteString(fmt.Sprintf("Date: %s\r\n", event.ReceivedAt.Format(time.RFC1123Z)))
	b.WriteString("\r\n")
	b.WriteString(event.Body)
	b.WriteString("\r\n")

	return []byte(b.String())
}
