package productcode

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
)

// Scheme tags the identifier format a stored code value belongs to.
type Scheme int

const (
	// SchemeUnknown marks values matching neither supported format.
	SchemeUnknown Scheme = iota
	// SchemeSimple is the current format: category prefix plus 3-digit sequence.
	SchemeSimple
	// SchemeLegacy is the retired structured format ST###_CATEGORY_######.
	// It is parsed for backward compatibility but never generated.
	SchemeLegacy
)

const (
	simpleSequenceDigits = 3
	legacySequenceDigits = 6

	// legacy sequences occupy the full 6-digit space; the perturbation loop
	// mixes a 3-digit random suffix into the product id.
	legacySuffixSpace = 1000
)

var (
	simplePattern = regexp.MustCompile(`^[A-Z]{3,10}[0-9]{3}$`)
	legacyPattern = regexp.MustCompile(`^ST([0-9]{3})_([A-Z]+)_([0-9]{6})$`)
)

// ErrMalformedCode indicates a value that does not parse under the requested scheme.
var ErrMalformedCode = errors.New("productcode: malformed code")

// DetectScheme reports which identifier format the value belongs to.
func DetectScheme(value string) Scheme {
	switch {
	case IsValid(value):
		return SchemeSimple
	case legacyPattern.MatchString(value):
		return SchemeLegacy
	default:
		return SchemeUnknown
	}
}

// IsValid reports whether the value is a well-formed current-format identifier.
func IsValid(value string) bool {
	return simplePattern.MatchString(value)
}

// SimpleCode is a decomposed current-format identifier such as RICE001.
type SimpleCode struct {
	Prefix   string
	Sequence int
}

// String renders the canonical form: prefix followed by the zero-padded sequence.
func (c SimpleCode) String() string {
	return fmt.Sprintf("%s%0*d", c.Prefix, simpleSequenceDigits, c.Sequence)
}

// ParseSimple decomposes a current-format identifier.
func ParseSimple(value string) (SimpleCode, error) {
	if !simplePattern.MatchString(value) {
		return SimpleCode{}, fmt.Errorf("%w: %q is not a simple code", ErrMalformedCode, value)
	}
	split := len(value) - simpleSequenceDigits
	seq, err := strconv.Atoi(value[split:])
	if err != nil {
		return SimpleCode{}, fmt.Errorf("%w: %q: %v", ErrMalformedCode, value, err)
	}
	return SimpleCode{Prefix: value[:split], Sequence: seq}, nil
}

// LegacyCode is a decomposed legacy structured identifier such as ST001_GRAIN_000123.
type LegacyCode struct {
	StoreID  string
	Category string
	Sequence string
}

// String renders the legacy wire form.
func (c LegacyCode) String() string {
	return fmt.Sprintf("ST%s_%s_%s", c.StoreID, c.Category, c.Sequence)
}

// ParseLegacy decomposes a legacy structured identifier.
func ParseLegacy(value string) (LegacyCode, error) {
	parts := legacyPattern.FindStringSubmatch(value)
	if parts == nil {
		return LegacyCode{}, fmt.Errorf("%w: %q is not a legacy code", ErrMalformedCode, value)
	}
	return LegacyCode{StoreID: parts[1], Category: parts[2], Sequence: parts[3]}, nil
}

// Synthesize produces the candidate code for a product under the current
// scheme. A product that already carries a canonical code keeps it unchanged
// regardless of any other input, which makes the synthesizer idempotent.
func Synthesize(name, existing string) string {
	if trimmed := strings.TrimSpace(existing); trimmed != "" {
		return trimmed
	}
	return SimpleCode{Prefix: Classify(name), Sequence: 1}.String()
}

// LegacyCandidate builds a structured legacy identifier from product metadata.
// Retained so historical records can be regenerated bit-for-bit in migrations;
// new codes always come from Synthesize. The intn source is injectable because
// the no-id branch falls back to a random sequence.
func LegacyCandidate(name, id, storeID string, intn func(int) int) string {
	if intn == nil {
		intn = rand.IntN
	}
	return LegacyCode{
		StoreID:  padStoreID(storeID),
		Category: ClassifyLegacy(name),
		Sequence: legacySequence(id, intn),
	}.String()
}

// legacySequence derives the deterministic 6-digit sequence from a product id
// using the historical rolling hash (h = h*31 + charCode, wrapped to 32-bit
// signed range, absolute value, last 6 digits). Absent an id, the sequence is
// random and the determinism guarantee is forfeited.
func legacySequence(id string, intn func(int) int) string {
	if id == "" {
		return fmt.Sprintf("%0*d", legacySequenceDigits, intn(1000000))
	}

	var h int32
	for _, r := range id {
		h = h*31 + int32(r)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return lastNPadded(strconv.FormatInt(v, 10), legacySequenceDigits)
}

// legacyPerturbedSequence mixes a random 3-digit suffix into the id-derived
// sequence, keeping the result within the digit-only sequence alphabet.
func legacyPerturbedSequence(id string, intn func(int) int) string {
	suffix := fmt.Sprintf("%03d", intn(legacySuffixSpace))
	return lastNPadded(legacySequence(id, intn)+suffix, legacySequenceDigits)
}

func padStoreID(storeID string) string {
	trimmed := strings.TrimSpace(storeID)
	if len(trimmed) > 3 {
		trimmed = trimmed[len(trimmed)-3:]
	}
	for len(trimmed) < 3 {
		trimmed = "0" + trimmed
	}
	return trimmed
}

func lastNPadded(value string, n int) string {
	if len(value) > n {
		value = value[len(value)-n:]
	}
	for len(value) < n {
		value = "0" + value
	}
	return value
}
