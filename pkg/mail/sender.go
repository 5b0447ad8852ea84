package mail

import (
	"bytes"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/wonny/instock/pkg/config"
)

// SendFunc matches smtp.SendMail so tests can replace the transport
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Sender delivers plain-text notifications over SMTP.
// smtp.SendMail upgrades the connection with STARTTLS when the server offers it.
type Sender struct {
	cfg  config.MailConfig
	send SendFunc
}

// DefaultSubject is used when Send is called with an empty subject
const DefaultSubject = "instock 운행 알림"

// NewSender creates a new SMTP sender
func NewSender(cfg config.MailConfig) *Sender {
	return &Sender{cfg: cfg, send: smtp.SendMail}
}

// WithSendFunc replaces the SMTP transport
func (s *Sender) WithSendFunc(fn SendFunc) *Sender {
	s.send = fn
	return s
}

// Send delivers body to the configured recipient
func (s *Sender) Send(subject, body string) error {
	if !s.cfg.Enabled() {
		return fmt.Errorf("mail is not configured")
	}
	if subject == "" {
		subject = DefaultSubject
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	auth := smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)
	msg := buildMessage(s.cfg.User, s.cfg.To, subject, body, time.Now())

	if err := s.send(addr, auth, s.cfg.User, []string{s.cfg.To}, msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", s.cfg.To, err)
	}
	return nil
}

func buildMessage(from, to, subject, body string, now time.Time) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", now.Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	buf.WriteString("Content-Transfer-Encoding: 8bit\r\n\r\n")
	buf.WriteString(body)
	return buf.Bytes()
}
