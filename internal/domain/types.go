package domain

import (
	"time"
)

// Pagination defines standard cursor-based paging inputs for list operations.
type Pagination struct {
	PageSize  int
	PageToken string
}

// CursorPage wraps a page of results together with the continuation token.
type CursorPage[T any] struct {
	Items         []T
	NextPageToken string
}

// Product is an inventory item owned by the remote store. The identifier fields
// (Code, Barcode, QRCode) are derived by this service; everything else is
// maintained by the storefront.
type Product struct {
	ID       string
	Name     string
	Code     string
	Barcode  string
	QRCode   string
	StoreID  string
	Category string
	Price    int64
	Quantity int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasCode reports whether the product carries a canonical product code.
func (p Product) HasCode() bool {
	return p.Code != ""
}

// Synced reports whether barcode and QR payload both match the canonical code.
// A product without a code is never considered synced.
func (p Product) Synced() bool {
	return p.Code != "" && p.Barcode == p.Code && p.QRCode == p.Code
}

// CodeFields carries the identifier triple written back to a product document.
type CodeFields struct {
	Code    string
	Barcode string
	QRCode  string
}

// Store describes a retail location. Store ids feed the legacy identifier
// scheme and scope bill number counters.
type Store struct {
	ID        string
	Name      string
	Address   string
	Phone     string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Bill is a point-of-sale receipt created by a cashier.
type Bill struct {
	ID        string
	Number    string
	StoreID   string
	CashierID string
	Items     []BillItem
	Total     int64
	CreatedAt time.Time
}

// BillItem is a single line on a bill.
type BillItem struct {
	ProductID string
	Code      string
	Name      string
	Quantity  int64
	UnitPrice int64
}

const (
	// HealthStatusOK indicates all dependencies are healthy.
	HealthStatusOK = "ok"
	// HealthStatusDegraded indicates at least one dependency is degraded but service remains running.
	HealthStatusDegraded = "degraded"
	// HealthStatusError indicates the service or a critical dependency is unavailable.
	HealthStatusError = "error"
)

// HealthCheck describes the outcome of an individual dependency probe.
type HealthCheck struct {
	Status    string
	Detail    string
	Latency   time.Duration
	CheckedAt time.Time
}

// HealthReport aggregates dependency status for health endpoints.
type HealthReport struct {
	Status      string
	Checks      map[string]HealthCheck
	Version     string
	Environment string
	Uptime      time.Duration
	CheckedAt   time.Time
}
