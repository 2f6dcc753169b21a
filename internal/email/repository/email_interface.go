package repository

import (
	"time"

	emaildomain "mail-assistant-backend/internal/email/domain"
)

// EmailRepository defines persistence for mail records. Writes are
// idempotent upserts keyed by (folder, uid); last write wins.
type EmailRepository interface {
	Upsert(email *emaildomain.Email) error
	GetByUID(folder string, uid uint32) (*emaildomain.Email, error)
	List(folder string, limit, offset int) ([]*emaildomain.Email, error)

	// MaxUID is the sync cursor: the highest UID persisted for a folder,
	// 0 if none ingested yet.
	MaxUID(folder string) (uint32, error)

	// ListWithoutAttributes feeds the attribute backfill.
	ListWithoutAttributes(limit int) ([]*emaildomain.Email, error)

	// ListAttributedByDate returns the joined email+attribute rows for
	// [date, date+1d) ordered by UID ascending. This is the only read
	// surface of the daily summary engine.
	ListAttributedByDate(date time.Time) ([]*emaildomain.AttributedEmail, error)
	CountAttributedByDate(date time.Time) (int64, error)
}
