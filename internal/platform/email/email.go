package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"

	"ptoinfo/internal/domain/notifications"
	"ptoinfo/internal/platform/config"
)

const dialTimeout = 10 * time.Second

type discard struct{}

func (discard) Send(context.Context, string, string, string, string) error { return nil }

type smtpMailer struct {
	host     string
	addr     string
	user     string
	password string
	startTLS bool
}

// New returns a mailer that drops toast mail unless SMTP is configured.
func New(cfg config.Config) notifications.Mailer {
	if !cfg.EmailEnabled || cfg.SMTPHost == "" {
		return discard{}
	}
	return &smtpMailer{
		host:     cfg.SMTPHost,
		addr:     net.JoinHostPort(cfg.SMTPHost, strconv.Itoa(cfg.SMTPPort)),
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		startTLS: cfg.SMTPUseTLS,
	}
}

func (m *smtpMailer) Send(ctx context.Context, from, to, subject, body string) error {
	if strings.TrimSpace(to) == "" {
		return nil
	}

	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", m.addr)
	if err != nil {
		return goerr.Wrap(err, "failed to reach smtp server", goerr.V("addr", m.addr))
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, m.host)
	if err != nil {
		return goerr.Wrap(err, "smtp handshake failed", goerr.V("addr", m.addr))
	}
	defer client.Close()

	if err := m.deliver(client, from, to, buildMessage(from, to, subject, body, time.Now())); err != nil {
		return goerr.Wrap(err, "failed to send mail", goerr.V("to", to))
	}
	return client.Quit()
}

func (m *smtpMailer) deliver(client *smtp.Client, from, to string, msg []byte) error {
	if m.startTLS {
		if err := client.StartTLS(&tls.Config{ServerName: m.host}); err != nil {
			return err
		}
	}
	if m.user != "" {
		if err := client.Auth(smtp.PlainAuth("", m.user, m.password, m.host)); err != nil {
			return err
		}
	}
	if err := client.Mail(from); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

// buildMessage renders a plain text message with CRLF framing.
func buildMessage(from, to, subject, body string, now time.Time) []byte {
	domain := "localhost"
	if at := strings.LastIndexByte(from, '@'); at >= 0 && at < len(from)-1 {
		domain = from[at+1:]
	}
	flatten := strings.NewReplacer("\r", " ", "\n", " ")

	var buf bytes.Buffer
	header := func(name, value string) {
		fmt.Fprintf(&buf, "%s: %s\r\n", name, value)
	}
	header("From", from)
	header("To", to)
	header("Subject", flatten.Replace(subject))
	header("Date", now.Format(time.RFC1123Z))
	header("Message-ID", "<"+uuid.NewString()+"@"+domain+">")
	header("MIME-Version", "1.0")
	header("Content-Type", `text/plain; charset="UTF-8"`)
	buf.WriteString("\r\n")
	buf.WriteString(body)
	return buf.Bytes()
}
