package model

import "time"

// AuditEntry is an immutable, append-only record of one action against an
// order-family entity, with before/after snapshots serialized as JSON.
type AuditEntry struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	EntityType  string    `json:"entity_type" gorm:"type:varchar(30);index:idx_audit_entity;not null"`
	EntityID    uint      `json:"entity_id" gorm:"index:idx_audit_entity;not null"`
	Action      string    `json:"action" gorm:"type:varchar(50);not null"`
	ActorID     uint      `json:"actor_id" gorm:"index"`
	BeforeState string    `json:"before_state,omitempty" gorm:"type:jsonb"`
	AfterState  string    `json:"after_state,omitempty" gorm:"type:jsonb"`
	CreatedAt   time.Time `json:"created_at"`
}

// PONumberSequence backs the per-supplier per-day purchase-order numbering.
// NextValue only grows; uniqueness of generated numbers follows from the
// (supplier_code, day) unique index and the row-locked increment.
type PONumberSequence struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	SupplierCode string    `json:"supplier_code" gorm:"type:varchar(50);uniqueIndex:idx_sequence_day;not null"`
	Day          string    `json:"day" gorm:"type:varchar(8);uniqueIndex:idx_sequence_day;not null"`
	NextValue    int       `json:"next_value" gorm:"not null;default:1"`
	UpdatedAt    time.Time `json:"updated_at"`
}
