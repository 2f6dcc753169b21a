package repository

import (
	emaildomain "mail-assistant-backend/internal/email/domain"
)

// AttributeRepository defines persistence for extracted mail attributes.
// At most one attribute row exists per mail UID; upsert replaces.
type AttributeRepository interface {
	Upsert(attr *emaildomain.EmailAttribute) error
	GetByUID(uid uint32) (*emaildomain.EmailAttribute, error)
	GetByUIDs(uids []uint32) (map[uint32]*emaildomain.EmailAttribute, error)
}
