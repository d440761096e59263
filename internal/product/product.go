package product

import (
	"fmt"
	"strings"

	"pricewatch/internal/price"
	"pricewatch/pkg/htmlutil"

	"github.com/shopspring/decimal"
)

// Category is a configured category label and the page listing its products.
type Category struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Record is one observed listing, it is never mutated after extraction.
type Record struct {
	Name     htmlutil.Escaped
	Price    decimal.Decimal
	Unit     price.Unit
	Category string
}

func (r Record) Key() Key {
	return Key{Category: r.Category, Name: r.Name}
}

// KeySeparator joins category and name in the persisted form of a Key.
const KeySeparator = "_"

// Key is the identity of a product across runs.
type Key struct {
	Category string
	Name     htmlutil.Escaped
}

// String returns the persisted form `<category>_<name>`.
func (k Key) String() string {
	return k.Category + KeySeparator + k.Name.String()
}

// ParseKey parses the persisted form of a key. Category labels never contain
// the separator so the first occurrence splits the key, the name may contain it.
func ParseKey(s string) (Key, error) {
	category, name, found := strings.Cut(s, KeySeparator)
	if !found || category == "" || name == "" {
		return Key{}, fmt.Errorf("invalid product key %q", s)
	}
	return Key{Category: category, Name: htmlutil.Canonical(name)}, nil
}

// ValidateLabel checks that a category label can be used in a persisted key.
func ValidateLabel(label string) error {
	if label == "" {
		return fmt.Errorf("category label is empty")
	}
	if strings.Contains(label, KeySeparator) {
		return fmt.Errorf("category label %q must not contain %q", label, KeySeparator)
	}
	return nil
}
