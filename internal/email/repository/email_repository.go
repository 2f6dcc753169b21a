package repository

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	emaildomain "mail-assistant-backend/internal/email/domain"
)

// emailRepository implements EmailRepository interface
type emailRepository struct {
	db *gorm.DB
}

// NewEmailRepository creates a new instance of emailRepository
func NewEmailRepository(db *gorm.DB) EmailRepository {
	return &emailRepository{
		db: db,
	}
}

// Upsert inserts the record or fully replaces an existing one with the
// same (folder, uid).
func (r *emailRepository) Upsert(email *emaildomain.Email) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "folder"}, {Name: "uid"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"subject", "sender", "recipient", "date", "content",
		}),
	}).Create(email).Error
}

// GetByUID looks up a record by UID; an empty folder matches any folder.
func (r *emailRepository) GetByUID(folder string, uid uint32) (*emaildomain.Email, error) {
	q := r.db.Where("uid = ?", uid)
	if folder != "" {
		q = q.Where("folder = ?", folder)
	}
	var email emaildomain.Email
	err := q.First(&email).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &email, nil
}

func (r *emailRepository) List(folder string, limit, offset int) ([]*emaildomain.Email, error) {
	var emails []*emaildomain.Email
	q := r.db.Order("date DESC").Limit(limit).Offset(offset)
	if folder != "" {
		q = q.Where("folder = ?", folder)
	}
	if err := q.Find(&emails).Error; err != nil {
		return nil, err
	}
	return emails, nil
}

func (r *emailRepository) MaxUID(folder string) (uint32, error) {
	var maxUID uint32
	err := r.db.Model(&emaildomain.Email{}).
		Where("folder = ?", folder).
		Select("COALESCE(MAX(uid), 0)").
		Scan(&maxUID).Error
	if err != nil {
		return 0, err
	}
	return maxUID, nil
}

func (r *emailRepository) ListWithoutAttributes(limit int) ([]*emaildomain.Email, error) {
	var emails []*emaildomain.Email
	err := r.db.
		Where("uid NOT IN (?)", r.db.Model(&emaildomain.EmailAttribute{}).Select("uid")).
		Order("uid ASC").
		Limit(limit).
		Find(&emails).Error
	if err != nil {
		return nil, err
	}
	return emails, nil
}

// Ascending UID is the chronological proxy and deterministic tie-break
// the summary engine depends on.
func (r *emailRepository) ListAttributedByDate(date time.Time) ([]*emaildomain.AttributedEmail, error) {
	start, end := dayBounds(date)
	var rows []*emaildomain.AttributedEmail
	err := r.db.
		Table("emails").
		Select("emails.uid, email_attributes.recipient, email_attributes.attention_datetime, email_attributes.gist").
		Joins("JOIN email_attributes ON email_attributes.uid = emails.uid").
		Where("emails.date >= ? AND emails.date < ?", start, end).
		Order("emails.uid ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *emailRepository) CountAttributedByDate(date time.Time) (int64, error) {
	start, end := dayBounds(date)
	var count int64
	err := r.db.
		Table("emails").
		Joins("JOIN email_attributes ON email_attributes.uid = emails.uid").
		Where("emails.date >= ? AND emails.date < ?", start, end).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// dayBounds gives the inclusive start and exclusive next-day start of
// the calendar day containing date, in date's location.
func dayBounds(date time.Time) (time.Time, time.Time) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	return start, start.AddDate(0, 0, 1)
}
