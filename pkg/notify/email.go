package notify

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"
)

// EmailConfig holds SMTP settings.
type EmailConfig struct {
	SMTPHost string `yaml:"smtp_host" env:"SMTP_HOST"` // e.g. "smtp.gmail.com"
	SMTPPort string `yaml:"smtp_port" env:"SMTP_PORT"` // "465" (implicit TLS) or "587" (STARTTLS)
	From     string `yaml:"from" env:"EMAIL_USER"`
	FromName string `yaml:"from_name" env:"EMAIL_FROM_NAME"`
	Password string `yaml:"password" env:"EMAIL_PASS"`
	To       string `yaml:"to" env:"EMAIL_TO"` // comma-separated
}

// Enabled reports whether enough is configured to attempt delivery.
func (c EmailConfig) Enabled() bool {
	return c.SMTPHost != "" && c.From != "" && c.To != ""
}

type emailNotifier struct {
	cfg     EmailConfig
	timeout time.Duration
}

// NewEmailNotifier creates an SMTP notifier.
func NewEmailNotifier(cfg EmailConfig) Notifier {
	if cfg.SMTPPort == "" {
		cfg.SMTPPort = "587"
	}
	return &emailNotifier{cfg: cfg, timeout: 10 * time.Second}
}

func (e *emailNotifier) Channel() Channel { return ChannelEmail }

func (e *emailNotifier) Send(ctx context.Context, msg Message) error {
	recipients := splitRecipients(e.cfg.To)
	if len(recipients) == 0 {
		return fmt.Errorf("no email recipients configured")
	}

	addr := net.JoinHostPort(e.cfg.SMTPHost, e.cfg.SMTPPort)
	var client *smtp.Client
	var err error
	if e.cfg.SMTPPort == "465" {
		client, err = e.dialTLS(ctx, addr)
	} else {
		client, err = e.dialSTARTTLS(ctx, addr)
	}
	if err != nil {
		return fmt.Errorf("SMTP connect: %w", err)
	}
	defer client.Close()

	if e.cfg.Password != "" {
		auth := smtp.PlainAuth("", e.cfg.From, e.cfg.Password, e.cfg.SMTPHost)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP auth: %w", err)
		}
	}
	if err := client.Mail(e.cfg.From); err != nil {
		return fmt.Errorf("SMTP MAIL FROM: %w", err)
	}
	for _, to := range recipients {
		if err := client.Rcpt(to); err != nil {
			return fmt.Errorf("SMTP RCPT TO %s: %w", to, err)
		}
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("SMTP DATA: %w", err)
	}
	if _, err := w.Write([]byte(buildEmailBody(e.cfg.FromName, e.cfg.From, recipients, msg))); err != nil {
		return fmt.Errorf("SMTP write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("SMTP close data: %w", err)
	}
	return client.Quit()
}

func (e *emailNotifier) dialTLS(ctx context.Context, addr string) (*smtp.Client, error) {
	d := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: e.timeout},
		Config:    &tls.Config{ServerName: e.cfg.SMTPHost},
	}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("TLS dial %s: %w", addr, err)
	}
	client, err := smtp.NewClient(conn, e.cfg.SMTPHost)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("SMTP client: %w", err)
	}
	return client, nil
}

func (e *emailNotifier) dialSTARTTLS(ctx context.Context, addr string) (*smtp.Client, error) {
	d := &net.Dialer{Timeout: e.timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	client, err := smtp.NewClient(conn, e.cfg.SMTPHost)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("SMTP client: %w", err)
	}
	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: e.cfg.SMTPHost}); err != nil {
			client.Close()
			return nil, fmt.Errorf("STARTTLS: %w", err)
		}
	}
	return client, nil
}

func splitRecipients(to string) []string {
	var out []string
	for _, r := range strings.Split(to, ",") {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}

// encodeRFC2047 encodes a UTF-8 string for email headers.
func encodeRFC2047(s string) string {
	return "=?UTF-8?B?" + base64.StdEncoding.EncodeToString([]byte(s)) + "?="
}

func buildEmailBody(fromName, from string, to []string, msg Message) string {
	var sb strings.Builder

	if fromName != "" {
		fmt.Fprintf(&sb, "From: %s <%s>\r\n", encodeRFC2047(fromName), from)
	} else {
		fmt.Fprintf(&sb, "From: %s\r\n", from)
	}
	fmt.Fprintf(&sb, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&sb, "Subject: %s\r\n", encodeRFC2047(msg.Title))
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	sb.WriteString("Content-Transfer-Encoding: base64\r\n")
	sb.WriteString("\r\n")

	htmlContent := msg.HTMLBody
	if htmlContent == "" {
		htmlContent = "<pre>" + msg.Body + "</pre>"
	}
	encoded := base64.StdEncoding.EncodeToString([]byte(htmlContent))
	for len(encoded) > 76 {
		sb.WriteString(encoded[:76])
		sb.WriteString("\r\n")
		encoded = encoded[76:]
	}
	sb.WriteString(encoded)

	return sb.String()
}
