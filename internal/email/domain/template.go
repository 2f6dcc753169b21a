package domain

// Template is a reusable mail template with {placeholder} substitution
// in both subject and content.
type Template struct {
	ID      uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	Name    string `json:"name" gorm:"uniqueIndex;not null"`
	Subject string `json:"subject"`
	Content string `json:"content" gorm:"type:text"`
}

// TableName specifies the table name for GORM
func (Template) TableName() string {
	return "templates"
}
