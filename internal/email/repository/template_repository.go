package repository

import (
	"gorm.io/gorm"

	emaildomain "mail-assistant-backend/internal/email/domain"
)

// templateRepository implements TemplateRepository interface
type templateRepository struct {
	db *gorm.DB
}

// NewTemplateRepository creates a new instance of templateRepository
func NewTemplateRepository(db *gorm.DB) TemplateRepository {
	return &templateRepository{
		db: db,
	}
}

func (r *templateRepository) List() ([]*emaildomain.Template, error) {
	var templates []*emaildomain.Template
	if err := r.db.Find(&templates).Error; err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *templateRepository) GetByName(name string) (*emaildomain.Template, error) {
	var template emaildomain.Template
	err := r.db.Where("name = ?", name).First(&template).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &template, nil
}

func (r *templateRepository) Create(template *emaildomain.Template) error {
	return r.db.Create(template).Error
}

func (r *templateRepository) Update(template *emaildomain.Template) error {
	return r.db.Save(template).Error
}

func (r *templateRepository) Delete(id uint) error {
	return r.db.Delete(&emaildomain.Template{}, id).Error
}

func (r *templateRepository) SeedDefaults() error {
	var count int64
	if err := r.db.Model(&emaildomain.Template{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	defaults := []*emaildomain.Template{
		{
			Name:    "工作汇报",
			Subject: "【工作汇报】{date}工作情况",
			Content: "领导好：\n\n{date}工作情况如下：\n1. {task1}\n2. {task2}\n3. {task3}\n\n明日计划：\n1. {plan1}\n2. {plan2}\n\n谢谢！",
		},
		{
			Name:    "会议邀请",
			Subject: "【会议邀请】{topic}讨论会",
			Content: "各位同事：\n\n您好！\n\n我们计划于{time}召开{topic}讨论会，诚邀您参加。\n\n会议议题：\n1. {topic1}\n2. {topic2}\n\n会议地点：{location}\n\n请提前安排好工作，准时参加。\n\n谢谢！",
		},
	}

	for _, t := range defaults {
		if err := r.db.Create(t).Error; err != nil {
			return err
		}
	}
	return nil
}
