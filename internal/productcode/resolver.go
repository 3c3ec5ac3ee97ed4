package productcode

import (
	"math/rand/v2"

	"github.com/kirana-pos/api/internal/domain"
)

// MaxAttempts bounds the perturbation loop when resolving a candidate against
// the catalog. Exhaustion is reported explicitly rather than silently returning
// a colliding value.
const MaxAttempts = 100

// Field selects which identifier field of a product a candidate is checked against.
type Field int

const (
	// FieldCode checks candidates against the canonical product code.
	FieldCode Field = iota
	// FieldBarcode checks candidates against the barcode value.
	FieldBarcode
	// FieldQRCode checks candidates against the QR payload.
	FieldQRCode
)

func (f Field) of(p domain.Product) string {
	switch f {
	case FieldBarcode:
		return p.Barcode
	case FieldQRCode:
		return p.QRCode
	default:
		return p.Code
	}
}

// Resolution reports the outcome of uniqueness resolution. When the attempt
// budget runs out, Unique is false and Value carries the last candidate
// produced so the caller can decide whether to fail or use it anyway.
type Resolution struct {
	Value    string
	Unique   bool
	Attempts int
}

// Taken reports whether value occupies field on any catalog product other than
// excludeID. An empty catalog never takes a value.
func Taken(catalog []domain.Product, field Field, value, excludeID string) bool {
	if value == "" {
		return false
	}
	for _, p := range catalog {
		if p.ID == excludeID {
			continue
		}
		if field.of(p) == value {
			return true
		}
	}
	return false
}

// ResolveSimple finds a catalog-unique current-format code for the given
// prefix. The sequence starts at 1 and increments per collision, so the first
// product of a category receives prefix+"001" and later ones the next free slot.
//
// Uniqueness is checked against the whole catalog snapshot passed in, not a
// store-filtered slice: codes are catalog-wide identifiers.
func ResolveSimple(prefix string, catalog []domain.Product, field Field, excludeID string) Resolution {
	return resolveSequence(prefix, func(candidate string) bool {
		return Taken(catalog, field, candidate, excludeID)
	}, MaxAttempts)
}

// resolveSequence walks the prefix's sequence space until taken rejects a
// candidate or the budget runs out.
func resolveSequence(prefix string, taken func(string) bool, budget int) Resolution {
	var candidate string
	for n := 1; n <= budget; n++ {
		candidate = SimpleCode{Prefix: prefix, Sequence: n}.String()
		if !taken(candidate) {
			return Resolution{Value: candidate, Unique: true, Attempts: n}
		}
	}
	return Resolution{Value: candidate, Unique: false, Attempts: budget}
}

// ResolveLegacy finds a catalog-unique legacy identifier, perturbing the
// id-derived sequence with random 3-digit suffixes on collision. Only used when
// re-materialising historical QR payloads.
func ResolveLegacy(name, id, storeID string, catalog []domain.Product, excludeID string, intn func(int) int) Resolution {
	if intn == nil {
		intn = rand.IntN
	}

	store := padStoreID(storeID)
	category := ClassifyLegacy(name)

	candidate := LegacyCandidate(name, id, storeID, intn)
	if !Taken(catalog, FieldQRCode, candidate, excludeID) {
		return Resolution{Value: candidate, Unique: true, Attempts: 1}
	}

	for n := 2; n <= MaxAttempts; n++ {
		candidate = LegacyCode{
			StoreID:  store,
			Category: category,
			Sequence: legacyPerturbedSequence(id, intn),
		}.String()
		if !Taken(catalog, FieldQRCode, candidate, excludeID) {
			return Resolution{Value: candidate, Unique: true, Attempts: n}
		}
	}
	return Resolution{Value: candidate, Unique: false, Attempts: MaxAttempts}
}
