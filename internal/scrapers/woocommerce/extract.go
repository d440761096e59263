package woocommerce

import (
	"context"
	"fmt"
	"io"

	"pricewatch/internal/components/assert"
	"pricewatch/internal/components/telemetry"
	"pricewatch/internal/price"
	"pricewatch/internal/product"
	"pricewatch/pkg/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

const (
	report_extractor_parse = "extractor.parse"
	report_extractor_skip  = "extractor.skip"
	report_extractor_count = "extractor.count"
)

// selectors of the default woocommerce product loop
const (
	selectorProductLink = ".woocommerce-loop-product__link"
	selectorTitle       = ".woocommerce-loop-product__title"
	selectorPrice       = ".price"
)

// Extractor turns a category page into product records, it does no network access.
type Extractor struct {
	tel telemetry.API
}

func NewExtractor(tel telemetry.API) Extractor {
	assert.NotNil(tel)
	return Extractor{tel: telemetry.NewScopedAPI("woocommerce", tel)}
}

// Extract returns the products of a page in document order. Listings without
// a title or with an unparsable price are skipped and reported, they never
// fail the page.
func (e Extractor) Extract(ctx context.Context, markup io.Reader, category string) ([]product.Record, error) {
	_, span := tracer.Start(ctx, "Extract")
	defer span.End()

	doc, err := goquery.NewDocumentFromReader(markup)
	if err != nil {
		e.tel.ReportBroken(report_extractor_parse, fmt.Errorf("parse html: %w", err), category)
		return nil, err
	}

	var records []product.Record
	doc.Find(selectorProductLink).Each(func(i int, link *goquery.Selection) {
		title := htmlutil.SelectionText(link.Find(selectorTitle))
		if title == "" {
			e.tel.ReportWarning(report_extractor_skip, fmt.Errorf("missing title"), category, i)
			return
		}

		priceText := htmlutil.SelectionText(link.Find(selectorPrice))
		amount, unit, err := price.Parse(priceText)
		if err != nil {
			e.tel.ReportWarning(report_extractor_skip, err, category, title)
			return
		}
		if !amount.IsPositive() {
			e.tel.ReportWarning(report_extractor_skip, fmt.Errorf("%w: %q", price.ErrNonPositive, priceText), category, title)
			return
		}

		records = append(records, product.Record{
			Name:     htmlutil.Escape(title),
			Price:    amount,
			Unit:     unit,
			Category: category,
		})
	})

	e.tel.ReportCount(fmt.Sprintf("%s.%s", report_extractor_count, category), int64(len(records)))
	return records, nil
}
