package productcode

import (
	"errors"

	"github.com/kirana-pos/api/internal/domain"
)

// generateBudget caps the sequence search during bulk generation at the 3-digit
// sequence space. A category with 999 live codes cannot take another product.
const generateBudget = 999

// ErrMissingCode indicates synchronization was requested for a product that has
// no canonical code to synchronize from.
var ErrMissingCode = errors.New("productcode: product has no canonical code")

// Update pairs a product with the identifier fields to persist. Writes derived
// from a plan are independent; there is no cross-product atomicity.
type Update struct {
	ProductID string
	Fields    domain.CodeFields
}

// SyncFields returns the writes that align a product's barcode and QR payload
// with its canonical code. Callers must generate a code first for products that
// have none.
func SyncFields(p domain.Product) (domain.CodeFields, error) {
	if !p.HasCode() {
		return domain.CodeFields{}, ErrMissingCode
	}
	return domain.CodeFields{Code: p.Code, Barcode: p.Code, QRCode: p.Code}, nil
}

// SyncPlan describes the writes needed to restore code == barcode == qrcode
// across a catalog snapshot.
type SyncPlan struct {
	Updates       []Update
	AlreadySynced int
	// MissingCode lists products skipped because they need generation, not
	// synchronization.
	MissingCode []string
}

// Updated returns the number of products the plan will rewrite.
func (p SyncPlan) Updated() int { return len(p.Updates) }

// Skipped returns the number of products left untouched, whether already
// synced or lacking a code.
func (p SyncPlan) Skipped() int { return p.AlreadySynced + len(p.MissingCode) }

// PlanSync computes the bulk synchronization pass over a catalog snapshot.
func PlanSync(catalog []domain.Product) SyncPlan {
	var plan SyncPlan
	for _, p := range catalog {
		switch {
		case !p.HasCode():
			plan.MissingCode = append(plan.MissingCode, p.ID)
		case p.Synced():
			plan.AlreadySynced++
		default:
			plan.Updates = append(plan.Updates, Update{
				ProductID: p.ID,
				Fields:    domain.CodeFields{Code: p.Code, Barcode: p.Code, QRCode: p.Code},
			})
		}
	}
	return plan
}

// GeneratePlan describes the writes that assign codes to products lacking one.
type GeneratePlan struct {
	Updates []Update
	// Exhausted lists products whose category sequence space had no free slot.
	Exhausted []string
}

// Generated returns the number of products receiving a new code.
func (p GeneratePlan) Generated() int { return len(p.Updates) }

// PlanGenerateMissing assigns a catalog-unique code to every product without
// one. Candidates are uniqued against the snapshot's existing codes plus an
// accumulating set of codes assigned earlier in the same pass, which prevents
// intra-batch collisions between similarly named products.
func PlanGenerateMissing(catalog []domain.Product) GeneratePlan {
	seen := make(map[string]struct{}, len(catalog))
	for _, p := range catalog {
		if p.HasCode() {
			seen[p.Code] = struct{}{}
		}
	}

	var plan GeneratePlan
	for _, p := range catalog {
		if p.HasCode() {
			continue
		}

		res := resolveSequence(Classify(p.Name), func(candidate string) bool {
			_, taken := seen[candidate]
			return taken
		}, generateBudget)
		if !res.Unique {
			plan.Exhausted = append(plan.Exhausted, p.ID)
			continue
		}

		seen[res.Value] = struct{}{}
		plan.Updates = append(plan.Updates, Update{
			ProductID: p.ID,
			Fields:    domain.CodeFields{Code: res.Value, Barcode: res.Value, QRCode: res.Value},
		})
	}
	return plan
}

// Status summarises identifier coverage across a catalog snapshot.
type Status struct {
	Total          int
	WithCode       int
	WithoutCode    int
	WithBarcode    int
	WithoutBarcode int
	WithQRCode     int
	WithoutQRCode  int
	FullySynced    int
}

// Summarise counts identifier coverage for reporting.
func Summarise(catalog []domain.Product) Status {
	status := Status{Total: len(catalog)}
	for _, p := range catalog {
		if p.HasCode() {
			status.WithCode++
		} else {
			status.WithoutCode++
		}
		if p.Barcode != "" {
			status.WithBarcode++
		} else {
			status.WithoutBarcode++
		}
		if p.QRCode != "" {
			status.WithQRCode++
		} else {
			status.WithoutQRCode++
		}
		if p.Synced() {
			status.FullySynced++
		}
	}
	return status
}
