package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"procurement-service/internal/ledger"
	"procurement-service/internal/model"
)

// CapabilityStore is the database-backed ledger.Store. Updates carry the
// optimistic version check: the UPDATE only lands when the row still has the
// version the caller read, and bumps it by one.
type CapabilityStore struct {
	db *gorm.DB
}

func NewCapabilityStore(db *gorm.DB) *CapabilityStore {
	return &CapabilityStore{db: db}
}

func (s *CapabilityStore) Get(ctx context.Context, supplierID uint, productType model.ProductType) (*model.SupplierCapability, error) {
	var capability model.SupplierCapability
	err := s.db.WithContext(ctx).
		Where("supplier_id = ? AND product_type = ?", supplierID, productType).
		First(&capability).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &ledger.NotFoundError{SupplierID: supplierID, ProductType: productType}
	}
	if err != nil {
		return nil, err
	}
	return &capability, nil
}

func (s *CapabilityStore) Update(ctx context.Context, capability *model.SupplierCapability) error {
	res := s.db.WithContext(ctx).
		Model(&model.SupplierCapability{}).
		Where("supplier_id = ? AND product_type = ? AND version = ?",
			capability.SupplierID, capability.ProductType, capability.Version).
		Updates(map[string]interface{}{
			"current_commitments": capability.CurrentCommitments,
			"version":             capability.Version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ledger.ErrVersionConflict
	}
	capability.Version++
	return nil
}
