package price

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	table := []struct {
		text   string
		amount string
		unit   Unit
	}{
		{text: "$10.450,00 / kg", amount: "10450", unit: PerKilogram},
		{text: "$9.500,00", amount: "9500", unit: PerUnit},
		{text: "  $  precio \n $1.234.567,89\tx 15kg", amount: "1234567.89", unit: Per15kgCase},
		{text: "Precio: $850,50 c/u", amount: "850.5", unit: PerUnit},
		{text: "$2.100,00kg", amount: "2100", unit: PerKilogram},
		{text: "Antes $12.000,00 ahora $10.000,00 x kg", amount: "12000", unit: PerKilogram},
	}

	for _, row := range table {
		amount, unit, err := Parse(row.text)
		require.NoError(t, err, row.text)
		require.True(t, decimal.RequireFromString(row.amount).Equal(amount), "%s: got %s", row.text, amount)
		require.Equal(t, row.unit, unit, row.text)
	}
}

func TestParseFailure(t *testing.T) {
	table := []string{
		"Consultar precio",
		"",
		"$10.450",
		"$10.450,0",
		"$10.450,000",
		"10.450,00",
	}

	for _, text := range table {
		_, _, err := Parse(text)
		require.ErrorIs(t, err, ErrNoAmount, text)
	}
}

func TestParseZero(t *testing.T) {
	amount, unit, err := Parse("$0,00 / kg")
	require.NoError(t, err)
	require.True(t, amount.IsZero())
	require.Equal(t, PerKilogram, unit)
	require.Equal(t, "$0,00", FormatText(amount))
}

func TestParseUnitIndependentOfAmount(t *testing.T) {
	require.Equal(t, Per15kgCase, ParseUnit("cajón 15kg sin precio"))
	require.Equal(t, PerKilogram, ParseUnit("por kg"))
	require.Equal(t, PerUnit, ParseUnit("unidad"))
}

func TestFormat(t *testing.T) {
	table := []struct {
		amount   string
		expected string
	}{
		{amount: "10450", expected: "10.450,00"},
		{amount: "950", expected: "950,00"},
		{amount: "0.5", expected: "0,50"},
		{amount: "1234567.89", expected: "1.234.567,89"},
	}

	for _, row := range table {
		require.Equal(t, row.expected, Format(decimal.RequireFromString(row.amount)))
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	amounts := []string{"0.01", "1", "99.99", "1000", "10450", "12345.67", "9999999.99"}
	for _, a := range amounts {
		amount := decimal.RequireFromString(a)
		parsed, err := ParseAmount(FormatText(amount))
		require.NoError(t, err)
		require.True(t, amount.Equal(parsed), "%s != %s", amount, parsed)
	}
}

func TestUnitLabels(t *testing.T) {
	require.Equal(t, "per-kilogram", PerKilogram.Key())
	require.Equal(t, "per-15kg-case", Per15kgCase.Key())
	require.Equal(t, "per-unit", PerUnit.Key())
	require.Equal(t, "kg", PerKilogram.String())
}
