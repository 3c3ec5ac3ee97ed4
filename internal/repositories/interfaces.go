package repositories

import (
	"context"
	"errors"

	domain "github.com/kirana-pos/api/internal/domain"
)

// Registry exposes typed repository accessors and lifecycle hooks for dependency injection.
type Registry interface {
	Close(ctx context.Context) error

	Products() ProductRepository
	Stores() StoreRepository
	Bills() BillRepository
	Counters() CounterRepository
	Health() HealthRepository
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// ProductRepository reads the inventory catalog and writes identifier fields back.
// The snapshot returned by List is the uniqueness scope for code operations;
// UpdateCodes is an independent partial update with no cross-product transaction.
type ProductRepository interface {
	List(ctx context.Context) ([]domain.Product, error)
	ListPage(ctx context.Context, query ProductListQuery) (domain.CursorPage[domain.Product], error)
	FindByID(ctx context.Context, productID string) (domain.Product, error)
	// FindByAnyCode matches a scanned value against code, barcode, and qrcode.
	FindByAnyCode(ctx context.Context, value string) (domain.Product, error)
	UpdateCodes(ctx context.Context, productID string, fields domain.CodeFields) error
}

// ProductListQuery filters and pages catalog listings.
type ProductListQuery struct {
	StoreID   string
	PageSize  int
	PageToken string
}

// ErrStoreNotFound reports a missing store document.
var ErrStoreNotFound = errors.New("repositories: store not found")

// ErrBillNotFound reports a missing bill document.
var ErrBillNotFound = errors.New("repositories: bill not found")

// StoreRepository reads retail location records.
type StoreRepository interface {
	List(ctx context.Context) ([]domain.Store, error)
	FindByID(ctx context.Context, storeID string) (domain.Store, error)
}

// BillRepository persists point-of-sale bills.
type BillRepository interface {
	Insert(ctx context.Context, bill domain.Bill) error
	FindByID(ctx context.Context, billID string) (domain.Bill, error)
}

// CounterRepository provides transaction-safe sequence numbers.
type CounterRepository interface {
	Next(ctx context.Context, counterID string, step int64) (int64, error)
	Configure(ctx context.Context, counterID string, config CounterConfig) error
}

// CounterConfig customises increment behaviour and bounds for a counter.
type CounterConfig struct {
	Step         int64
	MaxValue     *int64
	InitialValue *int64
}

// HealthRepository exposes status of downstream dependencies for readiness probes.
type HealthRepository interface {
	Collect(ctx context.Context) (domain.HealthReport, error)
}
