package usecase

import (
	"fmt"
	"strings"

	emaildomain "mail-assistant-backend/internal/email/domain"
	"mail-assistant-backend/internal/email/repository"
)

// TemplateUsecase manages mail templates and renders them with
// {placeholder} substitution.
type TemplateUsecase interface {
	List() ([]*emaildomain.Template, error)
	Create(template *emaildomain.Template) error
	Update(template *emaildomain.Template) error
	Delete(id uint) error
	Render(name string, vars map[string]string) (subject, content string, err error)
}

// templateUsecase implements TemplateUsecase
type templateUsecase struct {
	templateRepo repository.TemplateRepository
}

// NewTemplateUsecase creates a new template usecase
func NewTemplateUsecase(templateRepo repository.TemplateRepository) TemplateUsecase {
	return &templateUsecase{
		templateRepo: templateRepo,
	}
}

func (u *templateUsecase) List() ([]*emaildomain.Template, error) {
	return u.templateRepo.List()
}

func (u *templateUsecase) Create(template *emaildomain.Template) error {
	return u.templateRepo.Create(template)
}

func (u *templateUsecase) Update(template *emaildomain.Template) error {
	return u.templateRepo.Update(template)
}

func (u *templateUsecase) Delete(id uint) error {
	return u.templateRepo.Delete(id)
}

func (u *templateUsecase) Render(name string, vars map[string]string) (string, string, error) {
	template, err := u.templateRepo.GetByName(name)
	if err != nil {
		return "", "", err
	}
	if template == nil {
		return "", "", fmt.Errorf("%w: %s", emaildomain.ErrTemplateNotFound, name)
	}

	subject := template.Subject
	content := template.Content
	for key, value := range vars {
		placeholder := "{" + key + "}"
		subject = strings.ReplaceAll(subject, placeholder, value)
		content = strings.ReplaceAll(content, placeholder, value)
	}
	return subject, content, nil
}
