package repository

import (
	"context"

	"gorm.io/gorm"

	"procurement-service/internal/model"
)

// AuditRepository appends to the immutable audit trail.
type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Append(ctx context.Context, entry model.AuditEntry) error {
	return r.db.WithContext(ctx).Create(&entry).Error
}

// ForEntity lists the audit history of one entity, oldest first.
func (r *AuditRepository) ForEntity(ctx context.Context, entityType string, entityID uint) ([]model.AuditEntry, error) {
	var entries []model.AuditEntry
	if err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("id").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
