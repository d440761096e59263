package woocommerce

import (
	"context"
	"strings"
	"testing"

	"pricewatch/internal/components/telemetry"
	"pricewatch/internal/price"
	"pricewatch/internal/product"
	"pricewatch/pkg/htmlutil"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func listing(title, priceHtml string) string {
	return `<li class="product">
	<a href="#" class="woocommerce-LoopProduct-link woocommerce-loop-product__link">
		<img src="x.jpg">
		<h2 class="woocommerce-loop-product__title">` + title + `</h2>
		<span class="price">` + priceHtml + `</span>
	</a>
</li>`
}

func page(listings ...string) string {
	return `<html><body><ul class="products">` + strings.Join(listings, "\n") + `</ul></body></html>`
}

func recordComparer() cmp.Option {
	return cmp.Options{
		cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) }),
		cmp.Comparer(func(a, b htmlutil.Escaped) bool { return a == b }),
	}
}

func TestExtract(t *testing.T) {
	tel := telemetry.NewTestAPI()
	extractor := NewExtractor(tel)

	markup := page(
		listing("Bife Angosto", `<span class="woocommerce-Price-amount amount"><bdi><span class="woocommerce-Price-currencySymbol">$</span>10.450,00</bdi></span> / kg`),
		listing("  Pechito   de cerdo\n", `<bdi><span>$</span>7.900,50</bdi> x kg`),
		listing("Bondiola", `Consultar precio`),
		listing("", `$1.000,00`),
		listing(`Milanesa "Especial" & Cía`, `$25.000,00 cajón 15kg`),
		listing("Chorizo", `$3.200,00`),
	)

	records, err := extractor.Extract(context.Background(), strings.NewReader(markup), "cerdo")
	require.NoError(t, err)

	expected := []product.Record{
		{Name: htmlutil.Escape("Bife Angosto"), Price: decimal.RequireFromString("10450"), Unit: price.PerKilogram, Category: "cerdo"},
		{Name: htmlutil.Escape("Pechito de cerdo"), Price: decimal.RequireFromString("7900.50"), Unit: price.PerKilogram, Category: "cerdo"},
		{Name: htmlutil.Escape(`Milanesa "Especial" & Cía`), Price: decimal.RequireFromString("25000"), Unit: price.Per15kgCase, Category: "cerdo"},
		{Name: htmlutil.Escape("Chorizo"), Price: decimal.RequireFromString("3200"), Unit: price.PerUnit, Category: "cerdo"},
	}
	if diff := cmp.Diff(expected, records, recordComparer()); diff != "" {
		t.Fatal(diff)
	}

	require.Equal(t, "Milanesa &#34;Especial&#34; &amp; Cía", records[2].Name.String())
	require.Len(t, tel.Reports("warning", report_extractor_skip), 2)

	count, ok := tel.Count(report_extractor_count + ".cerdo")
	require.True(t, ok)
	require.Equal(t, int64(4), count)
}

func TestExtractMalformedPriceDropsOneRecord(t *testing.T) {
	extractor := NewExtractor(telemetry.NewTestAPI())

	markup := page(
		listing("Bife Angosto", `$10.450,00 / kg`),
		listing("Matambre", `Consultar precio`),
	)

	records, err := extractor.Extract(context.Background(), strings.NewReader(markup), "cerdo")
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "Bife Angosto", records[0].Name.String())
}

func TestExtractSkipsZeroPrice(t *testing.T) {
	tel := telemetry.NewTestAPI()
	extractor := NewExtractor(tel)

	markup := page(
		listing("Osobuco", `$0,00 / kg`),
		listing("Chorizo", `$3.200,00`),
	)

	records, err := extractor.Extract(context.Background(), strings.NewReader(markup), "cerdo")
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "Chorizo", records[0].Name.String())
	require.Len(t, tel.Reports("warning", report_extractor_skip), 1)
}

func TestExtractEmptyPage(t *testing.T) {
	extractor := NewExtractor(telemetry.NewTestAPI())

	records, err := extractor.Extract(context.Background(), strings.NewReader("<html></html>"), "pollo")
	require.NoError(t, err)
	require.Empty(t, records)
}
