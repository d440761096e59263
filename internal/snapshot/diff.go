package snapshot

import (
	"errors"
	"fmt"

	"pricewatch/internal/price"
	"pricewatch/internal/product"
	"pricewatch/pkg/htmlutil"

	"github.com/shopspring/decimal"
)

// ErrNonPositivePrevious means a stored price of zero or less was about to
// be used as the divisor of a percent change. Prices are positive by
// construction so this is a defect, the cycle that hits it is aborted.
var ErrNonPositivePrevious = errors.New("previous price is not positive")

type Direction int

const (
	Increase Direction = iota
	Decrease
)

func (d Direction) String() string {
	if d == Decrease {
		return "decrease"
	}
	return "increase"
}

// ChangeEvent is a price change of one product between two observations,
// Delta is never zero.
type ChangeEvent struct {
	Name      htmlutil.Escaped
	Category  string
	Unit      price.Unit
	Previous  decimal.Decimal
	Current   decimal.Decimal
	Delta     decimal.Decimal
	Percent   decimal.Decimal
	Direction Direction
}

var hundred = decimal.NewFromInt(100)

func newChangeEvent(key product.Key, unit price.Unit, previous, current decimal.Decimal) (ChangeEvent, error) {
	if !previous.IsPositive() {
		return ChangeEvent{}, fmt.Errorf("%w: %s = %s", ErrNonPositivePrevious, key.String(), previous.String())
	}

	delta := current.Sub(previous)
	direction := Increase
	if delta.IsNegative() {
		direction = Decrease
	}

	return ChangeEvent{
		Name:      key.Name,
		Category:  key.Category,
		Unit:      unit,
		Previous:  previous,
		Current:   current,
		Delta:     delta,
		Percent:   delta.Div(previous).Mul(hundred).Round(price.Precision),
		Direction: direction,
	}, nil
}

// Diff compares freshly extracted records of a category against the snapshot,
// commits every observed price into it and returns the changes in extraction
// order. New products and unchanged prices produce no event.
//
// Diff mutates the snapshot in place so consecutive calls within a cycle see
// each other's updates. On error the snapshot may be partially updated and
// should be discarded.
func Diff(snap *Snapshot, category string, records []product.Record) ([]ChangeEvent, error) {
	var events []ChangeEvent
	for _, record := range records {
		key := product.Key{Category: category, Name: record.Name}

		previous, found := snap.Get(key)
		if found && !previous.Equal(record.Price) {
			event, err := newChangeEvent(key, record.Unit, previous, record.Price)
			if err != nil {
				return nil, err
			}
			events = append(events, event)
		}

		snap.Upsert(key, record.Price)
	}
	return events, nil
}
