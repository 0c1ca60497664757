package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"procurement-service/internal/model"
)

// SequenceRepository hands out per-supplier per-day purchase-order sequence
// numbers. The increment runs under a row lock so two committers on the same
// supplier and day can never draw the same number.
type SequenceRepository struct {
	db *gorm.DB
}

func NewSequenceRepository(db *gorm.DB) *SequenceRepository {
	return &SequenceRepository{db: db}
}

func (r *SequenceRepository) Next(ctx context.Context, supplierCode string, day time.Time) (int, error) {
	dayKey := day.Format("20060102")
	var value int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var seq model.PONumberSequence
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("supplier_code = ? AND day = ?", supplierCode, dayKey).
			First(&seq).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			seq = model.PONumberSequence{SupplierCode: supplierCode, Day: dayKey, NextValue: 2}
			if err := tx.Create(&seq).Error; err != nil {
				return err
			}
			value = 1
			return nil
		}
		if err != nil {
			return err
		}
		value = seq.NextValue
		return tx.Model(&seq).Update("next_value", seq.NextValue+1).Error
	})
	if err != nil {
		return 0, err
	}
	return value, nil
}
