package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"procurement-service/internal/model"
	"procurement-service/internal/planning"
)

// SupplierRepository reads and writes suppliers, their per-product
// capabilities and their performance metrics. It doubles as the
// planning.SupplierDirectory.
type SupplierRepository struct {
	db *gorm.DB
}

func NewSupplierRepository(db *gorm.DB) *SupplierRepository {
	return &SupplierRepository{db: db}
}

// ActiveSuppliers returns every active supplier with an active capability for
// the product type, with metrics attached where a row exists.
func (r *SupplierRepository) ActiveSuppliers(ctx context.Context, productType model.ProductType) ([]planning.SupplierRecord, error) {
	var capabilities []model.SupplierCapability
	if err := r.db.WithContext(ctx).
		Where("product_type = ? AND is_active = ?", productType, true).
		Find(&capabilities).Error; err != nil {
		return nil, err
	}
	if len(capabilities) == 0 {
		return nil, nil
	}

	ids := make([]uint, 0, len(capabilities))
	for _, c := range capabilities {
		ids = append(ids, c.SupplierID)
	}

	var suppliers []model.Supplier
	if err := r.db.WithContext(ctx).
		Where("id IN ? AND is_active = ?", ids, true).
		Find(&suppliers).Error; err != nil {
		return nil, err
	}
	var metrics []model.SupplierPerformanceMetrics
	if err := r.db.WithContext(ctx).
		Where("supplier_id IN ?", ids).
		Find(&metrics).Error; err != nil {
		return nil, err
	}

	metricsBySupplier := make(map[uint]*model.SupplierPerformanceMetrics, len(metrics))
	for i := range metrics {
		metricsBySupplier[metrics[i].SupplierID] = &metrics[i]
	}
	capabilityBySupplier := make(map[uint]model.SupplierCapability, len(capabilities))
	for _, c := range capabilities {
		capabilityBySupplier[c.SupplierID] = c
	}

	records := make([]planning.SupplierRecord, 0, len(suppliers))
	for _, s := range suppliers {
		records = append(records, planning.SupplierRecord{
			Supplier:   s,
			Capability: capabilityBySupplier[s.ID],
			Metrics:    metricsBySupplier[s.ID],
		})
	}
	return records, nil
}

func (r *SupplierRepository) List(ctx context.Context, activeOnly bool) ([]model.Supplier, error) {
	var suppliers []model.Supplier
	q := r.db.WithContext(ctx).Order("code")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Find(&suppliers).Error; err != nil {
		return nil, err
	}
	return suppliers, nil
}

func (r *SupplierRepository) ByID(ctx context.Context, id uint) (*model.Supplier, error) {
	var supplier model.Supplier
	if err := r.db.WithContext(ctx).First(&supplier, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &planning.NotFoundError{Entity: "supplier", ID: id}
		}
		return nil, err
	}
	return &supplier, nil
}

func (r *SupplierRepository) Create(ctx context.Context, supplier *model.Supplier) error {
	return r.db.WithContext(ctx).Create(supplier).Error
}

func (r *SupplierRepository) Update(ctx context.Context, supplier *model.Supplier) error {
	return r.db.WithContext(ctx).Save(supplier).Error
}

// Capabilities returns every capability row for one supplier.
func (r *SupplierRepository) Capabilities(ctx context.Context, supplierID uint) ([]model.SupplierCapability, error) {
	var capabilities []model.SupplierCapability
	if err := r.db.WithContext(ctx).
		Where("supplier_id = ?", supplierID).
		Order("product_type").
		Find(&capabilities).Error; err != nil {
		return nil, err
	}
	return capabilities, nil
}

// SaveCapability creates or updates the capability for one supplier and
// product type. Commitments and the ledger version are owned by the ledger
// and left untouched on update.
func (r *SupplierRepository) SaveCapability(ctx context.Context, capability *model.SupplierCapability) error {
	var existing model.SupplierCapability
	err := r.db.WithContext(ctx).
		Where("supplier_id = ? AND product_type = ?", capability.SupplierID, capability.ProductType).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.WithContext(ctx).Create(capability).Error
	}
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(&existing).Updates(map[string]interface{}{
		"max_monthly_capacity": capability.MaxMonthlyCapacity,
		"quality_rating":       capability.QualityRating,
		"is_active":            capability.IsActive,
	}).Error
}

// SaveMetrics upserts the performance metrics row for a supplier.
func (r *SupplierRepository) SaveMetrics(ctx context.Context, metrics *model.SupplierPerformanceMetrics) error {
	var existing model.SupplierPerformanceMetrics
	err := r.db.WithContext(ctx).
		Where("supplier_id = ?", metrics.SupplierID).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.WithContext(ctx).Create(metrics).Error
	}
	if err != nil {
		return err
	}
	metrics.ID = existing.ID
	return r.db.WithContext(ctx).Save(metrics).Error
}

// CapabilitiesForProduct returns every capability row for one product type,
// active or not. The capacity report reads from here.
func (r *SupplierRepository) CapabilitiesForProduct(ctx context.Context, productType model.ProductType) ([]model.SupplierCapability, error) {
	var capabilities []model.SupplierCapability
	if err := r.db.WithContext(ctx).
		Where("product_type = ?", productType).
		Order("supplier_id").
		Find(&capabilities).Error; err != nil {
		return nil, err
	}
	return capabilities, nil
}
