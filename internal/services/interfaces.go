package services

import (
	"context"
	"time"

	domain "github.com/kirana-pos/api/internal/domain"
	"github.com/kirana-pos/api/internal/productcode"
	"github.com/kirana-pos/api/internal/repositories"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	Pagination   = domain.Pagination
	Product      = domain.Product
	CodeFields   = domain.CodeFields
	Store        = domain.Store
	Bill         = domain.Bill
	BillItem     = domain.BillItem
	HealthReport = domain.HealthReport
	CodeStatus   = productcode.Status
)

// GenerateCodeCommand requests a fresh identifier for a product name.
type GenerateCodeCommand struct {
	Name string
	// ProductID scopes uniqueness checks so a product never collides with itself.
	ProductID string
	// StoreID feeds the store segment when the legacy scheme is requested.
	StoreID string
	// Legacy switches synthesis to the store-scoped identifier format.
	Legacy bool
}

// CodeAssignment is the outcome of a single identifier generation.
type CodeAssignment struct {
	Code     string
	Unique   bool
	Attempts int
	Legacy   bool
}

// ProductSyncResult reports the outcome of aligning one product's identifier fields.
type ProductSyncResult struct {
	ProductID string
	Fields    CodeFields
	// Changed is false when barcode and QR payload already matched the code.
	Changed bool
}

// BulkOptions tunes catalog-wide identifier operations.
type BulkOptions struct {
	// DryRun computes the plan without writing any documents.
	DryRun bool
}

// SyncSummary aggregates a catalog-wide synchronization pass.
type SyncSummary struct {
	Total   int
	Updated int
	Skipped int
	Failed  []string
	DryRun  bool
}

// GenerateSummary aggregates a catalog-wide generation pass over code-less products.
type GenerateSummary struct {
	Total     int
	Generated int
	Failed    []string
	// Exhausted lists products whose category prefix had no free sequence left.
	Exhausted []string
	DryRun    bool
}

// CodeService owns identifier synthesis, uniqueness resolution, and catalog synchronization.
type CodeService interface {
	GenerateCode(ctx context.Context, cmd GenerateCodeCommand) (CodeAssignment, error)
	SyncProduct(ctx context.Context, productID string) (ProductSyncResult, error)
	SyncAll(ctx context.Context, opts BulkOptions) (SyncSummary, error)
	GenerateMissing(ctx context.Context, opts BulkOptions) (GenerateSummary, error)
	Status(ctx context.Context) (CodeStatus, error)
	Lookup(ctx context.Context, scanned string) (Product, error)
}

// ProductListQuery filters catalog listings.
type ProductListQuery struct {
	StoreID    string
	Pagination Pagination
}

// CatalogService exposes read access to the product catalog and stores.
type CatalogService interface {
	ListProducts(ctx context.Context, query ProductListQuery) (domain.CursorPage[Product], error)
	GetProduct(ctx context.Context, productID string) (Product, error)
	ListStores(ctx context.Context) ([]Store, error)
}

// CreateBillCommand captures a new point-of-sale bill.
type CreateBillCommand struct {
	StoreID   string
	CashierID string
	Items     []BillItem
}

// BillingService issues sequential bill numbers and persists bills.
type BillingService interface {
	NextBillNumber(ctx context.Context, storeID string) (string, error)
	CreateBill(ctx context.Context, cmd CreateBillCommand) (Bill, error)
	GetBill(ctx context.Context, billID string) (Bill, error)
}

// SystemService surfaces operational health for probes.
type SystemService interface {
	HealthReport(ctx context.Context) (HealthReport, error)
}

// CodeEventMessage is the payload published whenever identifier fields change.
type CodeEventMessage struct {
	EventID    string    `json:"eventId"`
	Type       string    `json:"type"`
	ProductID  string    `json:"productId"`
	Code       string    `json:"code"`
	Barcode    string    `json:"barcode"`
	QRCode     string    `json:"qrcode"`
	OccurredAt time.Time `json:"occurredAt"`
}

// CodeEventPublisher pushes identifier change events to the job stream.
type CodeEventPublisher interface {
	PublishCodeEvent(ctx context.Context, message CodeEventMessage) (string, error)
}

// shared repository aliases keep service constructors terse.
type (
	ProductRepository = repositories.ProductRepository
	StoreRepository   = repositories.StoreRepository
	BillRepository    = repositories.BillRepository
	CounterRepository = repositories.CounterRepository
	HealthRepository  = repositories.HealthRepository
)
