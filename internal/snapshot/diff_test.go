package snapshot

import (
	"testing"

	"pricewatch/internal/price"
	"pricewatch/internal/product"
	"pricewatch/pkg/htmlutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func record(category, name, amount string, unit price.Unit) product.Record {
	return product.Record{
		Name:     htmlutil.Escape(name),
		Price:    decimal.RequireFromString(amount),
		Unit:     unit,
		Category: category,
	}
}

func key(category, name string) product.Key {
	return product.Key{Category: category, Name: htmlutil.Escape(name)}
}

func requireDecimal(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	require.True(t, decimal.RequireFromString(expected).Equal(actual), "expected %s, got %s", expected, actual)
}

func TestDiffIncrease(t *testing.T) {
	snap := FromMap(map[product.Key]decimal.Decimal{
		key("cerdo", "Bife Angosto"): decimal.RequireFromString("9500.00"),
	})

	events, err := Diff(snap, "cerdo", []product.Record{
		record("cerdo", "Bife Angosto", "10450.00", price.PerKilogram),
	})
	require.NoError(t, err)
	require.Len(t, events, 1)

	event := events[0]
	require.Equal(t, Increase, event.Direction)
	require.Equal(t, "Bife Angosto", event.Name.String())
	require.Equal(t, "cerdo", event.Category)
	require.Equal(t, price.PerKilogram, event.Unit)
	requireDecimal(t, "9500", event.Previous)
	requireDecimal(t, "10450", event.Current)
	requireDecimal(t, "950", event.Delta)
	requireDecimal(t, "10", event.Percent)

	updated, ok := snap.Get(key("cerdo", "Bife Angosto"))
	require.True(t, ok)
	requireDecimal(t, "10450", updated)
}

func TestDiffDecrease(t *testing.T) {
	snap := FromMap(map[product.Key]decimal.Decimal{
		key("pollo", "Pechuga"): decimal.RequireFromString("3000"),
	})

	events, err := Diff(snap, "pollo", []product.Record{
		record("pollo", "Pechuga", "2900", price.PerKilogram),
	})
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, Decrease, events[0].Direction)
	requireDecimal(t, "-100", events[0].Delta)
	requireDecimal(t, "-3.33", events[0].Percent)
}

func TestDiffTinyDecrease(t *testing.T) {
	snap := FromMap(map[product.Key]decimal.Decimal{
		key("cerdo", "Media Res"): decimal.RequireFromString("100000.00"),
	})

	events, err := Diff(snap, "cerdo", []product.Record{
		record("cerdo", "Media Res", "99999.99", price.PerKilogram),
	})
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, Decrease, events[0].Direction)
	requireDecimal(t, "-0.01", events[0].Delta)
	requireDecimal(t, "0", events[0].Percent)
}

func TestDiffFirstObservation(t *testing.T) {
	snap := New()

	events, err := Diff(snap, "cerdo", []product.Record{
		record("cerdo", "Bondiola", "8000", price.PerKilogram),
		record("cerdo", "Matambre", "9000", price.PerKilogram),
	})
	require.NoError(t, err)
	require.Empty(t, events)
	require.Equal(t, 2, snap.Len())

	stored, ok := snap.Get(key("cerdo", "Matambre"))
	require.True(t, ok)
	requireDecimal(t, "9000", stored)
}

func TestDiffUnchanged(t *testing.T) {
	snap := FromMap(map[product.Key]decimal.Decimal{
		key("cerdo", "Bondiola"): decimal.RequireFromString("8000.00"),
	})

	events, err := Diff(snap, "cerdo", []product.Record{
		record("cerdo", "Bondiola", "8000", price.PerKilogram),
	})
	require.NoError(t, err)
	require.Empty(t, events)
	require.Equal(t, 1, snap.Len())
}

func TestDiffIdempotent(t *testing.T) {
	start := FromMap(map[product.Key]decimal.Decimal{
		key("cerdo", "Bife Angosto"): decimal.RequireFromString("9500"),
		key("cerdo", "Costilla"):     decimal.RequireFromString("7000"),
	})
	records := []product.Record{
		record("cerdo", "Bife Angosto", "10450", price.PerKilogram),
		record("cerdo", "Costilla", "6500", price.PerKilogram),
		record("cerdo", "Chorizo", "3200", price.PerUnit),
	}

	first := start.Clone()
	events, err := Diff(first, "cerdo", records)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, "Bife Angosto", events[0].Name.String())
	require.Equal(t, "Costilla", events[1].Name.String())

	second := start.Clone()
	_, err = Diff(second, "cerdo", records)
	require.NoError(t, err)
	require.Equal(t, first.Entries(), second.Entries())

	events, err = Diff(second, "cerdo", records)
	require.NoError(t, err)
	require.Empty(t, events)
	require.Equal(t, first.Entries(), second.Entries())

	// the starting snapshot is untouched by diffs against its clones
	require.Equal(t, 2, start.Len())
}

func TestDiffPercentSignMatchesDirection(t *testing.T) {
	table := []struct {
		previous string
		current  string
		percent  string
	}{
		{previous: "100", current: "150", percent: "50"},
		{previous: "300", current: "200", percent: "-33.33"},
		{previous: "3", current: "2", percent: "-33.33"},
		{previous: "7", current: "8", percent: "14.29"},
		{previous: "1234.56", current: "1234.57", percent: "0"},
	}

	for _, row := range table {
		snap := FromMap(map[product.Key]decimal.Decimal{
			key("cerdo", "x"): decimal.RequireFromString(row.previous),
		})
		events, err := Diff(snap, "cerdo", []product.Record{record("cerdo", "x", row.current, price.PerUnit)})
		require.NoError(t, err)
		require.Len(t, events, 1)

		event := events[0]
		requireDecimal(t, row.percent, event.Percent)
		if event.Delta.IsPositive() {
			require.Equal(t, Increase, event.Direction)
			require.False(t, event.Percent.IsNegative())
		} else {
			require.Equal(t, Decrease, event.Direction)
			require.False(t, event.Percent.IsPositive())
		}
	}
}

func TestDiffSequentialCategories(t *testing.T) {
	snap := New()

	_, err := Diff(snap, "cerdo", []product.Record{record("cerdo", "Chorizo", "3000", price.PerUnit)})
	require.NoError(t, err)

	events, err := Diff(snap, "pollo", []product.Record{record("pollo", "Chorizo", "2500", price.PerUnit)})
	require.NoError(t, err)
	require.Empty(t, events, "same name in another category is a different product")
	require.Equal(t, 2, snap.Len())
}

func TestDiffNonPositivePrevious(t *testing.T) {
	snap := FromMap(map[product.Key]decimal.Decimal{
		key("cerdo", "Bondiola"): decimal.Zero,
	})

	_, err := Diff(snap, "cerdo", []product.Record{record("cerdo", "Bondiola", "8000", price.PerKilogram)})
	require.ErrorIs(t, err, ErrNonPositivePrevious)
}

func TestProductNames(t *testing.T) {
	snap := FromMap(map[product.Key]decimal.Decimal{
		key("cerdo", "Chorizo"):  decimal.NewFromInt(1),
		key("pollo", "Chorizo"):  decimal.NewFromInt(1),
		key("pollo", "Alitas"):   decimal.NewFromInt(1),
		key("cerdo", "Bondiola"): decimal.NewFromInt(1),
	})
	require.Equal(t, []string{"Alitas", "Bondiola", "Chorizo"}, snap.ProductNames())

	keys := snap.Keys()
	require.Len(t, keys, 4)
	require.Equal(t, key("cerdo", "Bondiola"), keys[0])
	require.Equal(t, key("pollo", "Chorizo"), keys[3])
}
