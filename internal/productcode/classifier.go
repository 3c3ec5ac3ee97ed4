package productcode

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

const fallbackTokenLength = 4

// rule pairs a lowercase keyword with the token emitted when the keyword occurs
// anywhere in a product name. Rules are evaluated in order and the first match
// wins, so an earlier rule shadows later ones for overlapping keywords.
type rule struct {
	keyword string
	token   string
}

// prefixRules map product names onto the short category prefixes used by the
// current identifier scheme. Ordering is part of the contract: "buttermilk"
// classifies as BUTTER, not MILK.
var prefixRules = []rule{
	{"rice", "RICE"},
	{"wheat", "WHEAT"},
	{"flour", "FLOUR"},
	{"oil", "OIL"},
	{"ghee", "GHEE"},
	{"butter", "BUTTER"},
	{"sugar", "SUGAR"},
	{"salt", "SALT"},
	{"milk", "MILK"},
	{"bread", "BREAD"},
	{"biscuit", "BISCUIT"},
	{"tea", "TEA"},
	{"coffee", "COFFEE"},
	{"juice", "JUICE"},
	{"egg", "EGGS"},
	{"soap", "SOAP"},
	{"shampoo", "SHAMPOO"},
	{"toothpaste", "PASTE"},
	{"detergent", "DETERGENT"},
	{"cleaner", "CLEANER"},
}

// legacyRules produce the long category names embedded in structured legacy
// identifiers. Historical records still carry these categories, so the table
// must keep matching them even though new codes never use it.
var legacyRules = []rule{
	{"rice", "GRAIN"},
	{"wheat", "GRAIN"},
	{"flour", "GRAIN"},
	{"oil", "DAIRY"},
	{"ghee", "DAIRY"},
	{"butter", "DAIRY"},
	{"sugar", "SPICE"},
	{"salt", "SPICE"},
	{"spice", "SPICE"},
	{"milk", "DAIRY"},
	{"yogurt", "DAIRY"},
	{"cheese", "DAIRY"},
	{"bread", "BAKERY"},
	{"biscuit", "BAKERY"},
	{"cake", "BAKERY"},
	{"tea", "BEVERAGE"},
	{"coffee", "BEVERAGE"},
	{"juice", "BEVERAGE"},
	{"apple", "FRUIT"},
	{"banana", "FRUIT"},
	{"orange", "FRUIT"},
	{"tomato", "VEGETABLE"},
	{"onion", "VEGETABLE"},
	{"potato", "VEGETABLE"},
	{"soap", "PERSONAL"},
	{"shampoo", "PERSONAL"},
	{"toothpaste", "PERSONAL"},
	{"detergent", "HOUSEHOLD"},
	{"cleaner", "HOUSEHOLD"},
	{"brush", "HOUSEHOLD"},
	{"chicken", "MEAT"},
	{"beef", "MEAT"},
	{"pork", "MEAT"},
}

// legacyDefaultCategory is emitted when no legacy rule matches.
const legacyDefaultCategory = "GENERAL"

// Classify maps a free-text product name to the short category prefix used by
// the current identifier scheme. It never fails: names matching no keyword fall
// back to a token derived from the first characters of the name.
func Classify(name string) string {
	lowered := strings.ToLower(normalise(name))
	for _, r := range prefixRules {
		if strings.Contains(lowered, r.keyword) {
			return r.token
		}
	}
	return fallbackToken(name)
}

// ClassifyLegacy maps a product name to the long category used by the legacy
// structured identifier scheme.
func ClassifyLegacy(name string) string {
	lowered := strings.ToLower(normalise(name))
	for _, r := range legacyRules {
		if strings.Contains(lowered, r.keyword) {
			return r.token
		}
	}
	return legacyDefaultCategory
}

// fallbackToken derives a prefix from the leading characters of the name:
// upper-cased, with every non A-Z character replaced by X, padded with X so the
// token always satisfies the code format's minimum prefix length.
func fallbackToken(name string) string {
	runes := []rune(strings.TrimSpace(normalise(name)))
	if len(runes) > fallbackTokenLength {
		runes = runes[:fallbackTokenLength]
	}

	token := make([]byte, 0, fallbackTokenLength)
	for _, r := range runes {
		switch {
		case r >= 'A' && r <= 'Z':
			token = append(token, byte(r))
		case r >= 'a' && r <= 'z':
			token = append(token, byte(r-'a'+'A'))
		default:
			token = append(token, 'X')
		}
	}
	for len(token) < fallbackTokenLength {
		token = append(token, 'X')
	}
	return string(token)
}

// normalise folds compatibility variants (full-width characters, ligatures)
// before keyword matching so scanner input and keyboard input classify alike.
func normalise(name string) string {
	return norm.NFKC.String(name)
}
