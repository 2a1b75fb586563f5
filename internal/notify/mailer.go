package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	texttemplate "text/template"
	"time"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	Timeout  time.Duration
}

// SMTPMailer sends multipart (text + HTML) emails over STARTTLS when the
// server offers it.
type SMTPMailer struct {
	cfg     SMTPConfig
	htmlTpl *template.Template
	textTpl *texttemplate.Template
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &SMTPMailer{
		cfg:     cfg,
		htmlTpl: template.Must(template.New("html").Parse(htmlTemplate)),
		textTpl: texttemplate.Must(texttemplate.New("text").Parse(textTemplate)),
	}
}

type emailData struct {
	Title    string
	Body     string
	LinkText string
	LinkURL  string
	AppName  string
	Year     int
}

const htmlTemplate = `<!doctype html>
<html>
<head><meta charset="UTF-8"><title>{{.Title}}</title></head>
<body style="font-family:Helvetica,Arial,sans-serif;color:#1f2937;background:#f8fafc;padding:32px">
  <div style="max-width:560px;margin:0 auto;background:#fff;border-radius:12px;padding:32px">
    <h1 style="font-size:22px;margin:0 0 16px">{{.Title}}</h1>
    <p style="line-height:1.6;white-space:pre-line">{{.Body}}</p>
    {{if .LinkURL}}
    <p style="margin:28px 0"><a href="{{.LinkURL}}" style="background:#0f766e;color:#fff;padding:12px 24px;border-radius:8px;text-decoration:none">{{.LinkText}}</a></p>
    <p style="font-size:12px;color:#64748b">{{.LinkURL}}</p>
    {{end}}
  </div>
  <p style="text-align:center;font-size:12px;color:#94a3b8">{{.AppName}} &copy; {{.Year}}</p>
</body>
</html>`

const textTemplate = `{{.Title}}

{{.Body}}
{{if .LinkURL}}
{{.LinkText}}:
{{.LinkURL}}
{{end}}
{{.AppName}} (c) {{.Year}}
`

func (m *SMTPMailer) render(msg Message) (string, string, error) {
	data := emailData{
		Title:    msg.Subject,
		Body:     msg.Body,
		LinkText: msg.LinkText,
		LinkURL:  msg.LinkURL,
		AppName:  m.cfg.FromName,
		Year:     time.Now().Year(),
	}
	if data.LinkText == "" {
		data.LinkText = "Open link"
	}

	var hb, tb bytes.Buffer
	if err := m.htmlTpl.Execute(&hb, data); err != nil {
		return "", "", err
	}
	if err := m.textTpl.Execute(&tb, data); err != nil {
		return "", "", err
	}
	return hb.String(), tb.String(), nil
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	htmlBody, textBody, err := m.render(msg)
	if err != nil {
		return fmt.Errorf("render email: %w", err)
	}

	from := (&mail.Address{Name: m.cfg.FromName, Address: m.cfg.From}).String()
	boundary := fmt.Sprintf("alt_%d", time.Now().UnixNano())

	var buf bytes.Buffer
	write := func(format string, a ...any) { _, _ = fmt.Fprintf(&buf, format, a...) }

	write("From: %s\r\n", from)
	write("To: %s\r\n", msg.To)
	write("Subject: %s\r\n", mimeHeader(msg.Subject))
	write("Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	write("MIME-Version: 1.0\r\n")
	write("Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)

	write("--%s\r\n", boundary)
	write("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	write("%s\r\n\r\n", textBody)

	write("--%s\r\n", boundary)
	write("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	write("%s\r\n\r\n", htmlBody)
	write("--%s--\r\n", boundary)

	return m.deliver(ctx, msg.To, buf.Bytes())
}

func (m *SMTPMailer) deliver(ctx context.Context, to string, body []byte) error {
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))

	dialer := &net.Dialer{Timeout: m.cfg.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial smtp: %w", err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(m.cfg.Timeout))

	c, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		return err
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: m.cfg.Host, MinVersion: tls.VersionTLS12}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}
	if m.cfg.Username != "" {
		if err := c.Auth(smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := c.Mail(m.cfg.From); err != nil {
		return err
	}
	if err := c.Rcpt(to); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(body); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

func mimeHeader(s string) string {
	for _, r := range s {
		if r > 127 {
			return mime.QEncoding.Encode("utf-8", s)
		}
	}
	return s
}
