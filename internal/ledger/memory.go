package ledger

import (
	"context"
	"sync"

	"procurement-service/internal/model"
)

// MemoryStore is an in-process Store used by tests and local development.
// It honors the same version-check contract as the database-backed store.
type MemoryStore struct {
	mu   sync.Mutex
	rows map[key]*model.SupplierCapability
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[key]*model.SupplierCapability)}
}

// Put seeds a capability row, overwriting any existing one for the key.
func (s *MemoryStore) Put(capability model.SupplierCapability) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := capability
	s.rows[key{capability.SupplierID, capability.ProductType}] = &row
}

// Get returns a detached copy of the row.
func (s *MemoryStore) Get(ctx context.Context, supplierID uint, productType model.ProductType) (*model.SupplierCapability, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[key{supplierID, productType}]
	if !ok {
		return nil, &NotFoundError{SupplierID: supplierID, ProductType: productType}
	}
	copied := *row
	return &copied, nil
}

// Update applies the row if its version still matches, bumping the version.
func (s *MemoryStore) Update(ctx context.Context, capability *model.SupplierCapability) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key{capability.SupplierID, capability.ProductType}
	row, ok := s.rows[k]
	if !ok {
		return &NotFoundError{SupplierID: capability.SupplierID, ProductType: capability.ProductType}
	}
	if row.Version != capability.Version {
		return ErrVersionConflict
	}
	copied := *capability
	copied.Version++
	s.rows[k] = &copied
	return nil
}
