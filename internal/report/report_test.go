package report

import (
	"errors"
	"testing"
	"time"

	"pricewatch/internal/components/chrono"
	"pricewatch/internal/price"
	"pricewatch/internal/product"
	"pricewatch/internal/snapshot"
	"pricewatch/pkg/htmlutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func testFormatter(t *testing.T) Formatter {
	location, err := time.LoadLocation(chrono.DefaultTimezone)
	require.NoError(t, err)
	// 12:00 UTC is 09:00 in Buenos Aires
	instant := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	return NewFormatter(chrono.FixedTime{Instant: instant.In(location)})
}

func TestFormatChangesEmpty(t *testing.T) {
	text, ok := testFormatter(t).FormatChanges(nil)
	require.False(t, ok)
	require.Empty(t, text)

	_, ok = testFormatter(t).FormatChanges([]snapshot.ChangeEvent{})
	require.False(t, ok)
}

func TestFormatChanges(t *testing.T) {
	events := []snapshot.ChangeEvent{
		{
			Name:      htmlutil.Escape("Bife Angosto"),
			Category:  "cerdo",
			Unit:      price.PerKilogram,
			Previous:  decimal.RequireFromString("9500"),
			Current:   decimal.RequireFromString("10450"),
			Delta:     decimal.RequireFromString("950"),
			Percent:   decimal.RequireFromString("10"),
			Direction: snapshot.Increase,
		},
		{
			Name:      htmlutil.Escape("Pata & Muslo"),
			Category:  "pollo",
			Unit:      price.PerUnit,
			Previous:  decimal.RequireFromString("3000"),
			Current:   decimal.RequireFromString("2900"),
			Delta:     decimal.RequireFromString("-100"),
			Percent:   decimal.RequireFromString("-3.33"),
			Direction: snapshot.Decrease,
		},
	}

	text, ok := testFormatter(t).FormatChanges(events)
	require.True(t, ok)

	expected := "🔔 <b>CAMBIOS DE PRECIOS DETECTADOS</b>\n\n" +
		"📈 <b>Bife Angosto</b> (CERDO)\n" +
		"💰 Antes: $9.500,00 (kg)\n" +
		"💰 Ahora: $10.450,00\n" +
		"📊 Cambio: +$950,00 (+10,00%)\n\n" +
		"📉 <b>Pata &amp; Muslo</b> (POLLO)\n" +
		"💰 Antes: $3.000,00 (unidad)\n" +
		"💰 Ahora: $2.900,00\n" +
		"📊 Cambio: -$100,00 (-3,33%)\n\n" +
		"⏰ 17/10/2026, 09:00:00"
	require.Equal(t, expected, text)
}

func TestFormatChangesTinyDecrease(t *testing.T) {
	snap := snapshot.FromMap(map[product.Key]decimal.Decimal{
		{Category: "cerdo", Name: htmlutil.Escape("Media Res")}: decimal.RequireFromString("100000.00"),
	})
	events, err := snapshot.Diff(snap, "cerdo", []product.Record{{
		Name:     htmlutil.Escape("Media Res"),
		Price:    decimal.RequireFromString("99999.99"),
		Unit:     price.PerKilogram,
		Category: "cerdo",
	}})
	require.NoError(t, err)
	require.Len(t, events, 1)

	text, ok := testFormatter(t).FormatChanges(events)
	require.True(t, ok)
	require.Contains(t, text, "📉 <b>Media Res</b> (CERDO)\n")
	require.Contains(t, text, "📊 Cambio: -$0,01 (-0,00%)\n")
}

func TestFormatListing(t *testing.T) {
	listings := []Listing{
		{
			Category: "cerdo",
			Records: []product.Record{
				{Name: htmlutil.Escape("Bondiola"), Price: decimal.RequireFromString("8500.5"), Unit: price.PerKilogram, Category: "cerdo"},
				{Name: htmlutil.Escape("Costillar"), Price: decimal.RequireFromString("120000"), Unit: price.Per15kgCase, Category: "cerdo"},
			},
		},
		{Category: "pollo", Err: errors.New("fetch category pollo: <timeout>")},
		{Category: "vacuna"},
	}

	text := testFormatter(t).FormatListing(listings)

	expected := "📋 <b>PRECIOS ACTUALES</b>\n\n" +
		"<b>CERDO:</b>\n" +
		"• Bondiola: $8.500,50 (kg)\n" +
		"• Costillar: $120.000,00 (cajón 15kg)\n\n" +
		"<b>POLLO:</b>\n" +
		"❌ Error: fetch category pollo: &lt;timeout&gt;\n\n" +
		"<b>VACUNA:</b>\n" +
		"<i>sin productos</i>\n\n" +
		"⏰ 17/10/2026, 09:00:00"
	require.Equal(t, expected, text)
}
