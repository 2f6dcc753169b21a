package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	emaildomain "mail-assistant-backend/internal/email/domain"
)

// attributeRepository implements AttributeRepository interface
type attributeRepository struct {
	db *gorm.DB
}

// NewAttributeRepository creates a new instance of attributeRepository
func NewAttributeRepository(db *gorm.DB) AttributeRepository {
	return &attributeRepository{
		db: db,
	}
}

func (r *attributeRepository) Upsert(attr *emaildomain.EmailAttribute) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "uid"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"recipient", "attention_datetime", "gist",
		}),
	}).Create(attr).Error
}

func (r *attributeRepository) GetByUID(uid uint32) (*emaildomain.EmailAttribute, error) {
	var attr emaildomain.EmailAttribute
	err := r.db.Where("uid = ?", uid).First(&attr).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &attr, nil
}

func (r *attributeRepository) GetByUIDs(uids []uint32) (map[uint32]*emaildomain.EmailAttribute, error) {
	if len(uids) == 0 {
		return map[uint32]*emaildomain.EmailAttribute{}, nil
	}
	var attrs []*emaildomain.EmailAttribute
	if err := r.db.Where("uid IN ?", uids).Find(&attrs).Error; err != nil {
		return nil, err
	}
	result := make(map[uint32]*emaildomain.EmailAttribute, len(attrs))
	for _, a := range attrs {
		result[a.UID] = a
	}
	return result, nil
}
