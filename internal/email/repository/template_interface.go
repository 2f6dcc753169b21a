package repository

import (
	emaildomain "mail-assistant-backend/internal/email/domain"
)

// TemplateRepository defines persistence for mail templates.
type TemplateRepository interface {
	List() ([]*emaildomain.Template, error)
	GetByName(name string) (*emaildomain.Template, error)
	Create(template *emaildomain.Template) error
	Update(template *emaildomain.Template) error
	Delete(id uint) error

	// SeedDefaults inserts the built-in templates when the table is empty.
	SeedDefaults() error
}
