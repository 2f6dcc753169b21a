package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	emaildomain "mail-assistant-backend/internal/email/domain"
	"mail-assistant-backend/internal/email/repository"
	"mail-assistant-backend/pkg/imap"
)

// MailTransport is the fetch-side boundary of the mail server.
type MailTransport interface {
	Connect() error
	Disconnect()
	Fetch(folder string, lookbackDays int, sinceUID uint32, handle func(*imap.Message) error) (int, error)
}

// MailSender is the send-side boundary; stateless pass-through.
type MailSender interface {
	Send(to []string, subject, body string, html bool) error
}

// RefreshProgress is one progress event emitted while a refresh runs.
type RefreshProgress struct {
	Processed int    `json:"processed"`
	Failed    int    `json:"failed"`
	Subject   string `json:"subject,omitempty"`
}

// EmailUsecase defines the interface for email use cases
type EmailUsecase interface {
	// Refresh incrementally ingests new mail for folder: everything
	// above the sync cursor within the trailing lookback window. Each
	// new message is stored (idempotent upsert) and indexed; per-message
	// failures are counted and skipped. onProgress, if non-nil, is
	// called after every message. Refreshes are serialized: a concurrent
	// call waits for the in-flight one to release the transport.
	Refresh(ctx context.Context, folder string, lookbackDays int, onProgress func(RefreshProgress)) (processed, failed int, err error)

	ListEmails(folder string, limit, offset int) ([]*emaildomain.Email, error)
	SendEmail(to []string, subject, body string, html bool) error
}

// emailUsecase implements EmailUsecase
type emailUsecase struct {
	emailRepo repository.EmailRepository
	transport MailTransport
	sender    MailSender
	indexer   IndexerUsecase
	attribute AttributeUsecase

	// The transport holds one live session; Connect and Disconnect from
	// overlapping refreshes would race on it, so refreshes run one at a
	// time.
	refreshMu sync.Mutex
}

// NewEmailUsecase creates a new email usecase
func NewEmailUsecase(
	emailRepo repository.EmailRepository,
	transport MailTransport,
	sender MailSender,
	indexer IndexerUsecase,
	attribute AttributeUsecase,
) EmailUsecase {
	return &emailUsecase{
		emailRepo: emailRepo,
		transport: transport,
		sender:    sender,
		indexer:   indexer,
		attribute: attribute,
	}
}

func (u *emailUsecase) Refresh(ctx context.Context, folder string, lookbackDays int, onProgress func(RefreshProgress)) (int, int, error) {
	u.refreshMu.Lock()
	defer u.refreshMu.Unlock()

	if folder == "" {
		folder = "INBOX"
	}
	if lookbackDays <= 0 {
		lookbackDays = 1
	}

	cursor, err := u.emailRepo.MaxUID(folder)
	if err != nil {
		return 0, 0, fmt.Errorf("reading sync cursor: %w", err)
	}

	if err := u.transport.Connect(); err != nil {
		return 0, 0, err
	}
	defer u.transport.Disconnect()

	log.Info("refreshing mail", "folder", folder, "lookback_days", lookbackDays, "since_uid", cursor)

	processed := 0
	parseFailed, err := u.transport.Fetch(folder, lookbackDays, cursor, func(msg *imap.Message) error {
		if err := u.ingest(ctx, msg); err != nil {
			return err
		}
		processed++
		if onProgress != nil {
			onProgress(RefreshProgress{Processed: processed, Subject: msg.Subject})
		}
		return nil
	})
	if err != nil {
		return processed, parseFailed, err
	}

	// Backfill attributes for whatever the fetch brought in (and any
	// older records still missing them).
	stored, extractFailed, err := u.attribute.ExtractMissing(ctx, processed+50)
	if err != nil {
		log.Warn("attribute backfill incomplete", "stored", stored, "failed", extractFailed, "err", err)
	}

	failed := parseFailed + extractFailed
	if onProgress != nil {
		onProgress(RefreshProgress{Processed: processed, Failed: failed})
	}
	log.Info("refresh finished", "folder", folder, "processed", processed, "failed", failed, "attributes_stored", stored)
	return processed, failed, nil
}

// ingest stores one fetched message and indexes its chunks. Store and
// index succeed or fail together from the caller's point of view.
func (u *emailUsecase) ingest(ctx context.Context, msg *imap.Message) error {
	email := &emaildomain.Email{
		UID:       msg.UID,
		Folder:    msg.Folder,
		Subject:   msg.Subject,
		Sender:    msg.Sender,
		Recipient: msg.Recipient,
		Date:      msg.Date,
		Content:   msg.Body,
	}
	if err := u.emailRepo.Upsert(email); err != nil {
		return fmt.Errorf("storing uid %d: %w", msg.UID, err)
	}
	return u.indexer.Index(ctx, email)
}

func (u *emailUsecase) ListEmails(folder string, limit, offset int) ([]*emaildomain.Email, error) {
	if limit <= 0 {
		limit = 10
	}
	return u.emailRepo.List(folder, limit, offset)
}

func (u *emailUsecase) SendEmail(to []string, subject, body string, html bool) error {
	return u.sender.Send(to, subject, body, html)
}
