package imap

import (
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	goimap "github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"

	"mail-assistant-backend/internal/email/domain"
)

func init() {
	// Decode non-UTF8 headers and bodies (GBK etc.) from the usual
	// CJK mail servers.
	goimap.CharsetReader = charset.Reader
}

// Message is one raw mail message fetched from the server, with headers
// decoded and the body reduced to plain text.
type Message struct {
	UID       uint32
	Subject   string
	Sender    string
	Recipient string
	Date      time.Time
	Body      string
	Folder    string
}

// Client wraps an IMAP connection for incremental fetching.
type Client struct {
	host     string
	port     int
	username string
	password string
	c        *client.Client
}

// NewClient creates a new IMAP client configuration.
func NewClient(host string, port int, username, password string) *Client {
	return &Client{
		host:     host,
		port:     port,
		username: username,
		password: password,
	}
}

// Connect dials the server over TLS and authenticates.
func (c *Client) Connect() error {
	addr := fmt.Sprintf("%s:%d", c.host, c.port)
	conn, err := client.DialTLS(addr, nil)
	if err != nil {
		return fmt.Errorf("%w: dialing IMAP %s: %v", domain.ErrNotConnected, addr, err)
	}
	if err := conn.Login(c.username, c.password); err != nil {
		_ = conn.Logout()
		return fmt.Errorf("%w: IMAP login for %s: %v", domain.ErrNotConnected, c.username, err)
	}
	c.c = conn
	return nil
}

// Disconnect logs out and drops the connection.
func (c *Client) Disconnect() {
	if c.c != nil {
		_ = c.c.Logout()
		c.c = nil
	}
}

// Fetch selects folder, searches for messages received within the
// trailing lookback window, drops UIDs at or below sinceUID, and calls
// handle for each successfully parsed message in UID order. A message
// that fails to parse, or whose handler returns an error, is counted and
// skipped; the fetch continues. Returns the number of failed messages.
func (c *Client) Fetch(folder string, lookbackDays int, sinceUID uint32, handle func(*Message) error) (int, error) {
	if c.c == nil {
		return 0, fmt.Errorf("%w: IMAP client", domain.ErrNotConnected)
	}

	if _, err := c.c.Select(folder, true); err != nil {
		return 0, fmt.Errorf("selecting %s: %w", folder, err)
	}

	criteria := goimap.NewSearchCriteria()
	criteria.Since = time.Now().AddDate(0, 0, -lookbackDays)
	uids, err := c.c.UidSearch(criteria)
	if err != nil {
		return 0, fmt.Errorf("searching %s: %w", folder, err)
	}

	var newUIDs []uint32
	for _, uid := range uids {
		if uid > sinceUID {
			newUIDs = append(newUIDs, uid)
		}
	}
	if len(newUIDs) == 0 {
		return 0, nil
	}

	seqset := new(goimap.SeqSet)
	seqset.AddNum(newUIDs...)

	section := &goimap.BodySectionName{Peek: true}
	items := []goimap.FetchItem{goimap.FetchUid, section.FetchItem()}

	messages := make(chan *goimap.Message, 10)
	done := make(chan error, 1)
	go func() {
		done <- c.c.UidFetch(seqset, items, messages)
	}()

	failed := 0
	for msg := range messages {
		parsed, err := parseMessage(msg, section, folder)
		if err != nil {
			log.Warn("failed to parse message", "uid", msg.Uid, "err", err)
			failed++
			continue
		}
		if parsed == nil {
			// Empty body, excluded upstream of all processing.
			continue
		}
		if err := handle(parsed); err != nil {
			log.Warn("failed to process message", "uid", parsed.UID, "err", err)
			failed++
		}
	}

	if err := <-done; err != nil {
		return failed, fmt.Errorf("fetching from %s: %w", folder, err)
	}
	return failed, nil
}

// parseMessage decodes headers and extracts a plain-text body, falling
// back to stripped HTML. Returns (nil, nil) for an empty body.
func parseMessage(msg *goimap.Message, section *goimap.BodySectionName, folder string) (*Message, error) {
	r := msg.GetBody(section)
	if r == nil {
		return nil, fmt.Errorf("server returned no body section")
	}

	mr, err := mail.CreateReader(r)
	if err != nil {
		return nil, fmt.Errorf("creating mail reader: %w", err)
	}

	header := mr.Header
	subject, _ := header.Subject()
	date, _ := header.Date()
	sender := addressHeader(&header, "From")
	recipient := addressHeader(&header, "To")

	var textBody, htmlBody string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading part: %w", err)
		}

		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, _ := h.ContentType()
		body, err := io.ReadAll(part.Body)
		if err != nil {
			continue
		}
		switch contentType {
		case "text/plain":
			if textBody == "" {
				textBody = string(body)
			}
		case "text/html":
			if htmlBody == "" {
				htmlBody = string(body)
			}
		}
	}

	content := strings.TrimSpace(textBody)
	if content == "" {
		content = strings.TrimSpace(stripHTML(htmlBody))
	}
	if content == "" {
		return nil, nil
	}

	return &Message{
		UID:       msg.Uid,
		Subject:   subject,
		Sender:    sender,
		Recipient: recipient,
		Date:      date,
		Body:      content,
		Folder:    folder,
	}, nil
}

func addressHeader(h *mail.Header, key string) string {
	addrs, err := h.AddressList(key)
	if err != nil || len(addrs) == 0 {
		return h.Get(key)
	}
	parts := make([]string, 0, len(addrs))
	for _, a := range addrs {
		parts = append(parts, a.String())
	}
	return strings.Join(parts, ", ")
}

var (
	htmlTagRe    = regexp.MustCompile(`(?s)<(script|style).*?</(script|style)>|<[^>]*>`)
	blankLinesRe = regexp.MustCompile(`\n{3,}`)
)

// stripHTML is a minimal HTML-to-text reduction, enough for mail bodies
// without a text/plain alternative.
func stripHTML(s string) string {
	if s == "" {
		return ""
	}
	text := htmlTagRe.ReplaceAllString(s, "\n")
	text = html.UnescapeString(text)

	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			kept = append(kept, trimmed)
		}
	}
	return blankLinesRe.ReplaceAllString(strings.Join(kept, "\n"), "\n\n")
}
