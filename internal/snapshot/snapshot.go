// Package snapshot holds the last known price of every tracked product and
// computes the changes between a fresh extraction and that state.
package snapshot

import (
	"slices"
	"strings"

	"pricewatch/internal/product"

	"github.com/shopspring/decimal"
)

// Snapshot maps a product key to its last known price. Entries are upserted,
// never deleted.
type Snapshot struct {
	prices map[product.Key]decimal.Decimal
}

func New() *Snapshot {
	return &Snapshot{prices: map[product.Key]decimal.Decimal{}}
}

// FromMap copies the given entries into a new snapshot.
func FromMap(prices map[product.Key]decimal.Decimal) *Snapshot {
	s := New()
	for k, v := range prices {
		s.prices[k] = v
	}
	return s
}

func (s *Snapshot) Get(key product.Key) (decimal.Decimal, bool) {
	price, ok := s.prices[key]
	return price, ok
}

// Upsert sets the price of a key.
func (s *Snapshot) Upsert(key product.Key, price decimal.Decimal) {
	if s.prices == nil {
		s.prices = map[product.Key]decimal.Decimal{}
	}
	s.prices[key] = price
}

func (s *Snapshot) Len() int {
	return len(s.prices)
}

func (s *Snapshot) Clone() *Snapshot {
	return FromMap(s.prices)
}

// Entries returns a copy of every entry.
func (s *Snapshot) Entries() map[product.Key]decimal.Decimal {
	out := make(map[product.Key]decimal.Decimal, len(s.prices))
	for k, v := range s.prices {
		out[k] = v
	}
	return out
}

// Keys returns every key sorted by category then name.
func (s *Snapshot) Keys() []product.Key {
	keys := make([]product.Key, 0, len(s.prices))
	for k := range s.prices {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b product.Key) int {
		if c := strings.Compare(a.Category, b.Category); c != 0 {
			return c
		}
		return strings.Compare(a.Name.String(), b.Name.String())
	})
	return keys
}

// ProductNames returns the distinct product names across all categories, sorted.
func (s *Snapshot) ProductNames() []string {
	seen := map[string]struct{}{}
	var names []string
	for k := range s.prices {
		name := k.Name.String()
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
