package domain

import "time"

// Email is a single ingested mail message, keyed by the server-assigned
// IMAP UID within its folder. Re-ingesting the same UID replaces the row.
type Email struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	UID       uint32    `json:"uid" gorm:"uniqueIndex:idx_folder_uid;not null"`
	Folder    string    `json:"folder" gorm:"uniqueIndex:idx_folder_uid;not null"`
	Subject   string    `json:"subject"`
	Sender    string    `json:"sender"`
	Recipient string    `json:"recipient"`
	Date      time.Time `json:"date" gorm:"index"`
	Content   string    `json:"content" gorm:"type:text"`
}

// TableName specifies the table name for GORM
func (Email) TableName() string {
	return "emails"
}

// EmailAttribute holds the structured fields extracted from one email:
// who the mail is really addressed to, the date/time worth attention
// (free text, may be "-" for none or an open range), and a short gist.
// At most one attribute row exists per mail UID.
type EmailAttribute struct {
	ID                uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	UID               uint32 `json:"uid" gorm:"uniqueIndex;not null"`
	Recipient         string `json:"recipient"`
	AttentionDatetime string `json:"attention_datetime"`
	Gist              string `json:"gist" gorm:"type:text"`
}

// TableName specifies the table name for GORM
func (EmailAttribute) TableName() string {
	return "email_attributes"
}

// AttributedEmail joins an email with its extracted attribute. It is the
// only read surface of the daily summary engine.
type AttributedEmail struct {
	UID               uint32 `json:"uid"`
	Recipient         string `json:"recipient"`
	AttentionDatetime string `json:"attention_datetime"`
	Gist              string `json:"gist"`
}
