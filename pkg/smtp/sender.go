package smtp

import (
	"crypto/tls"
	"fmt"
	"mime"
	"net/smtp"
	"strings"
	"time"
)

// Sender sends mail over SMTP. It is a stateless pass-through: each Send
// dials, authenticates, delivers and disconnects.
type Sender struct {
	host     string
	port     int
	username string
	password string
	startTLS bool
}

// NewSender creates a new SMTP sender. With startTLS false the
// connection uses implicit TLS (port 465 style).
func NewSender(host string, port int, username, password string, startTLS bool) *Sender {
	return &Sender{
		host:     host,
		port:     port,
		username: username,
		password: password,
		startTLS: startTLS,
	}
}

// Send delivers one message. The body is sent as text/plain or text/html
// depending on html.
func (s *Sender) Send(to []string, subject, body string, html bool) error {
	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	auth := smtp.PlainAuth("", s.username, s.password, s.host)

	contentType := "text/plain"
	if html {
		contentType = "text/html"
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", s.username)
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&msg, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&msg, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	fmt.Fprintf(&msg, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: %s; charset=utf-8\r\n", contentType)
	fmt.Fprintf(&msg, "\r\n%s\r\n", body)

	if s.startTLS {
		return smtp.SendMail(addr, auth, s.username, to, []byte(msg.String()))
	}
	return s.sendImplicitTLS(addr, auth, to, []byte(msg.String()))
}

// sendImplicitTLS handles servers that expect TLS from the first byte,
// which net/smtp's SendMail (STARTTLS-only) cannot.
func (s *Sender) sendImplicitTLS(addr string, auth smtp.Auth, to []string, msg []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: s.host})
	if err != nil {
		return fmt.Errorf("dialing SMTP %s: %w", addr, err)
	}

	c, err := smtp.NewClient(conn, s.host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("SMTP handshake: %w", err)
	}
	defer c.Quit()

	if err := c.Auth(auth); err != nil {
		return fmt.Errorf("SMTP auth: %w", err)
	}
	if err := c.Mail(s.username); err != nil {
		return err
	}
	for _, rcpt := range to {
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
	return w.Close()
}
