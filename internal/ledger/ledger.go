// Package ledger guards the shared supplier-capacity record. All commitment
// changes go through Reserve and Release; nothing else may touch
// CurrentCommitments. Reserve is check-and-act atomic per (supplier,
// product type) key via a per-key mutex, with a bounded retry around the
// store's optimistic version check for writers outside this process.
package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"procurement-service/internal/model"
)

// ErrVersionConflict is returned by Store.Update when the row changed since
// it was read. The ledger retries on it; other errors surface as-is.
var ErrVersionConflict = fmt.Errorf("ledger: capability row version conflict")

// CapacityExceededError reports a reservation larger than the available
// capacity, with the shortfall spelled out.
type CapacityExceededError struct {
	SupplierID  uint
	ProductType model.ProductType
	Requested   int64
	Available   int64
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("supplier %d has %d %s capacity available, %d requested (short %d)",
		e.SupplierID, e.Available, e.ProductType, e.Requested, e.Shortfall())
}

func (e *CapacityExceededError) Shortfall() int64 {
	return e.Requested - e.Available
}

// ConcurrencyConflictError is surfaced after the bounded retry is exhausted.
type ConcurrencyConflictError struct {
	SupplierID  uint
	ProductType model.ProductType
	Attempts    int
}

func (e *ConcurrencyConflictError) Error() string {
	return fmt.Sprintf("capacity reservation for supplier %d (%s) conflicted %d times, giving up",
		e.SupplierID, e.ProductType, e.Attempts)
}

// NotFoundError reports a missing capability row.
type NotFoundError struct {
	SupplierID  uint
	ProductType model.ProductType
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no %s capability for supplier %d", e.ProductType, e.SupplierID)
}

// Store is the persistence collaborator behind the ledger. Get returns a
// detached copy; Update must fail with ErrVersionConflict when the stored
// version differs from the one on the passed row.
type Store interface {
	Get(ctx context.Context, supplierID uint, productType model.ProductType) (*model.SupplierCapability, error)
	Update(ctx context.Context, capability *model.SupplierCapability) error
}

// maxAttempts bounds the optimistic retry before surfacing a conflict.
const maxAttempts = 3

// Ledger serializes commitment changes per capability key.
type Ledger struct {
	store Store

	mu    sync.Mutex
	locks map[key]*sync.Mutex
}

type key struct {
	supplierID  uint
	productType model.ProductType
}

// New returns a Ledger over the given store.
func New(store Store) *Ledger {
	return &Ledger{
		store: store,
		locks: make(map[key]*sync.Mutex),
	}
}

func (l *Ledger) lockFor(supplierID uint, productType model.ProductType) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	k := key{supplierID, productType}
	if m, ok := l.locks[k]; ok {
		return m
	}
	m := &sync.Mutex{}
	l.locks[k] = m
	return m
}

// Entry returns the live capability row for one key.
func (l *Ledger) Entry(ctx context.Context, supplierID uint, productType model.ProductType) (*model.SupplierCapability, error) {
	return l.store.Get(ctx, supplierID, productType)
}

// Reserve commits quantity against the supplier's capacity. It fails with
// *CapacityExceededError when the available capacity is short, and with
// *ConcurrencyConflictError when the store keeps reporting version
// conflicts. A failed Reserve changes nothing.
func (l *Ledger) Reserve(ctx context.Context, supplierID uint, productType model.ProductType, quantity int64) error {
	if quantity <= 0 {
		return fmt.Errorf("reserve quantity must be positive, got %d", quantity)
	}
	return l.adjust(ctx, supplierID, productType, quantity)
}

// Release returns quantity to the supplier's available capacity. Commitments
// clamp at zero, so releasing capacity that was already released (cancel
// after reject, for example) is a no-op rather than an error.
func (l *Ledger) Release(ctx context.Context, supplierID uint, productType model.ProductType, quantity int64) error {
	if quantity <= 0 {
		return fmt.Errorf("release quantity must be positive, got %d", quantity)
	}
	return l.adjust(ctx, supplierID, productType, -quantity)
}

func (l *Ledger) adjust(ctx context.Context, supplierID uint, productType model.ProductType, delta int64) error {
	lock := l.lockFor(supplierID, productType)
	lock.Lock()
	defer lock.Unlock()

	for attempt := 0; attempt < maxAttempts; attempt++ {
		capability, err := l.store.Get(ctx, supplierID, productType)
		if err != nil {
			return err
		}

		if delta > 0 {
			if !capability.IsActive {
				return fmt.Errorf("capability for supplier %d (%s) is inactive", supplierID, productType)
			}
			if capability.AvailableCapacity() < delta {
				return &CapacityExceededError{
					SupplierID:  supplierID,
					ProductType: productType,
					Requested:   delta,
					Available:   capability.AvailableCapacity(),
				}
			}
		}

		capability.CurrentCommitments += delta
		if capability.CurrentCommitments < 0 {
			capability.CurrentCommitments = 0
		}

		err = l.store.Update(ctx, capability)
		if err == nil {
			return nil
		}
		if err != ErrVersionConflict {
			return err
		}
	}
	return &ConcurrencyConflictError{SupplierID: supplierID, ProductType: productType, Attempts: maxAttempts}
}

// ReserveAll reserves every allocation or none. Reservations are taken in
// ascending supplier order; on any failure the ones already taken in this
// call are released before the error is returned, so readers never observe a
// partially reserved plan.
func (l *Ledger) ReserveAll(ctx context.Context, productType model.ProductType, allocations map[uint]int64) error {
	ids := make([]uint, 0, len(allocations))
	for id := range allocations {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	reserved := make([]uint, 0, len(ids))
	for _, id := range ids {
		if err := l.Reserve(ctx, id, productType, allocations[id]); err != nil {
			for _, done := range reserved {
				// Rollback of our own reservation; clamping makes this safe
				// even if someone released concurrently.
				_ = l.Release(ctx, done, productType, allocations[done])
			}
			return err
		}
		reserved = append(reserved, id)
	}
	return nil
}
