// Package price turns the vendor's price text fragments into fixed-point
// amounts and renders amounts back into the vendor's regional format.
package price

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// Unit is the quantity a listed price refers to.
type Unit int

const (
	PerUnit Unit = iota
	PerKilogram
	Per15kgCase
)

// String returns the label shown to subscribers.
func (u Unit) String() string {
	switch u {
	case PerKilogram:
		return "kg"
	case Per15kgCase:
		return "cajón 15kg"
	default:
		return "unidad"
	}
}

// Key returns the stable identifier of the unit.
func (u Unit) Key() string {
	switch u {
	case PerKilogram:
		return "per-kilogram"
	case Per15kgCase:
		return "per-15kg-case"
	default:
		return "per-unit"
	}
}

var (
	// ErrNoAmount means the text did not contain a `$D.DDD,DD` amount.
	ErrNoAmount = errors.New("no price amount found")
	// ErrNonPositive means the amount was parsed but is not a positive
	// listing price, callers building records reject it.
	ErrNonPositive = errors.New("price amount is not positive")
)

const Precision = 2

var whitespace = regexp.MustCompile(`\s+`)

// $ followed by digits with optional thousands periods, a decimal comma and
// exactly two decimal digits.
var amountPattern = regexp.MustCompile(`\$([0-9][0-9.]*,[0-9]{2})(?:[^0-9]|$)`)

// ParseAmount extracts the first amount in the text. Any amount matching the
// pattern is accepted, including $0,00.
func ParseAmount(text string) (decimal.Decimal, error) {
	text = whitespace.ReplaceAllString(text, " ")

	groups := amountPattern.FindStringSubmatch(text)
	if len(groups) < 2 {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrNoAmount, text)
	}

	normalized := strings.ReplaceAll(groups[1], ".", "")
	normalized = strings.Replace(normalized, ",", ".", 1)

	amount, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q: %s", ErrNoAmount, text, err.Error())
	}
	return amount.Round(Precision), nil
}

// ParseUnit infers the unit from the text, independently of the amount.
func ParseUnit(text string) Unit {
	// "15kg" contains "kg" so it must be checked first.
	if strings.Contains(text, "15kg") {
		return Per15kgCase
	}
	if strings.Contains(text, "kg") {
		return PerKilogram
	}
	return PerUnit
}

// Parse parses a raw price-and-unit fragment like "$10.450,00 / kg".
func Parse(text string) (decimal.Decimal, Unit, error) {
	amount, err := ParseAmount(text)
	if err != nil {
		return decimal.Decimal{}, PerUnit, err
	}
	return amount, ParseUnit(text), nil
}

const localeFormat = "#.###,##"

// Format renders an amount with the regional grouping, ex. 10450.5 -> "10.450,50".
func Format(amount decimal.Decimal) string {
	return humanize.FormatFloat(localeFormat, amount.Round(Precision).InexactFloat64())
}

// FormatText renders an amount the way the vendor publishes it, ex. "$10.450,50".
func FormatText(amount decimal.Decimal) string {
	return "$" + Format(amount)
}
