package notification

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/smtp"

	"uptimeguard/config"
)

// EmailConfig is the decoded channel config for an email channel.
// SMTP fields fall back to the operator's global defaults when unset,
// so a channel only has to carry the recipient in the common case.
type EmailConfig struct {
	Email        string `json:"email"`
	SMTPServer   string `json:"smtpServer"`
	SMTPPort     int    `json:"smtpPort"`
	SMTPUsername string `json:"username"`
	SMTPPassword string `json:"password"`
}

type EmailDispatcher struct{}

func (EmailDispatcher) Dispatch(ctx context.Context, rawConfig string, data Data) error {
	var cfg EmailConfig
	if err := json.Unmarshal([]byte(rawConfig), &cfg); err != nil {
		return fmt.Errorf("invalid email channel config: %w", err)
	}
	if cfg.Email == "" {
		return fmt.Errorf("email channel missing recipient")
	}

	server := cfg.SMTPServer
	if server == "" {
		server = config.GlobalConfig.Notification.SMTPServer
	}
	port := cfg.SMTPPort
	if port == 0 {
		port = config.GlobalConfig.Notification.SMTPPort
	}
	user := cfg.SMTPUsername
	if user == "" {
		user = config.GlobalConfig.Notification.SMTPUsername
	}
	pass := cfg.SMTPPassword
	if pass == "" {
		pass = config.GlobalConfig.Notification.SMTPPassword
	}
	if server == "" {
		return fmt.Errorf("no SMTP server configured")
	}

	html, err := RenderStatusChangeEmail(StatusChangeData{
		Name:       data.MonitorName,
		Address:    data.Address,
		StatusText: data.StatusText,
		Message:    data.Message,
		Color:      colorFor(data.Status),
		DateTime:   data.Time.Format("2006-01-02 15:04:05"),
	})
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("Monitor - %s 状态%s", data.MonitorName, data.StatusText)
	from := config.GlobalConfig.Notification.FromEmail
	if from == "" {
		from = user
	}

	msg := buildMIMEMessage(from, cfg.Email, subject, html)
	addr := fmt.Sprintf("%s:%d", server, port)

	var auth smtp.Auth
	if user != "" && pass != "" {
		auth = smtp.PlainAuth("", user, pass, server)
	}

	if port == 465 {
		return sendImplicitTLS(addr, server, auth, from, cfg.Email, msg)
	}
	return sendSTARTTLSOrPlain(addr, server, auth, from, cfg.Email, msg)
}

func buildMIMEMessage(from, to, subject, htmlBody string) []byte {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("From: %s\r\n", from))
	buf.WriteString(fmt.Sprintf("To: %s\r\n", to))
	buf.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(htmlBody)
	return buf.Bytes()
}

func sendImplicitTLS(addr, host string, auth smtp.Auth, from, to string, msg []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12})
	if err != nil {
		return fmt.Errorf("smtp ssl dial: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	defer client.Close()

	return sendOverClient(client, auth, from, to, msg)
}

func sendSTARTTLSOrPlain(addr, host string, auth smtp.Auth, from, to string, msg []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: host, MinVersion: tls.VersionTLS12}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}

	return sendOverClient(client, auth, from, to, msg)
}

func sendOverClient(client *smtp.Client, auth smtp.Auth, from, to string, msg []byte) error {
	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := client.Mail(from); err != nil {
		return fmt.Errorf("MAIL FROM: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("RCPT TO: %w", err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("DATA: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

func colorFor(status int) string {
	if status == statusUp {
		return "#2ecc71"
	}
	return "#e74c3c"
}
