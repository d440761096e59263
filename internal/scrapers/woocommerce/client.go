package woocommerce

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"pricewatch/internal/components/assert"
	"pricewatch/internal/components/telemetry"
	"pricewatch/internal/product"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

const (
	report_client_fetch_category = "client.fetch-category"
)

const DefaultUserAgent = "Mozilla/5.0"

var tracer = telemetry.Tracer("pricewatch.scrapers.woocommerce")

// FetchError is returned when a category page could not be retrieved.
type FetchError struct {
	Category string
	Err      error
}

func (e FetchError) Error() string {
	return fmt.Sprintf("fetch category %s: %s", e.Category, e.Err.Error())
}

func (e FetchError) Unwrap() error {
	return e.Err
}

var ErrUnexpectedStatus = errors.New("unexpected http status")

type ClientOptions struct {
	UserAgent string
	// Timeout bounds a single page fetch, defaults to 30 seconds.
	Timeout time.Duration
	// RatePerSecond limits outgoing requests, 0 means unlimited.
	RatePerSecond float64
	// BypassCloudflare wraps the transport with cloudflare-bp-go.
	BypassCloudflare bool
	// Output, when set, receives every fetched page as `<category>.html`.
	Output Output
}

type Output interface {
	Write(id string, contents []byte)
}

// Client fetches category pages.
type Client struct {
	http   *resty.Client
	output Output
	tel    telemetry.API
}

func NewClient(options ClientOptions, tel telemetry.API) Client {
	assert.NotNil(tel)
	tel = telemetry.NewScopedAPI("woocommerce", tel)

	if options.UserAgent == "" {
		options.UserAgent = DefaultUserAgent
	}
	if options.Timeout <= 0 {
		options.Timeout = time.Second * 30
	}

	httpClient := resty.New()
	if options.BypassCloudflare {
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}
	httpClient.SetHeader("User-Agent", options.UserAgent)
	httpClient.SetTimeout(options.Timeout)

	if options.RatePerSecond > 0 {
		rateLimiter := rate.NewLimiter(rate.Limit(options.RatePerSecond), 1)
		httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return rateLimiter.Wait(req.Context())
		})
	}

	telemetry.InstrumentResty(httpClient, tel)

	return Client{
		http:   httpClient,
		output: options.Output,
		tel:    tel,
	}
}

// FetchCategory returns the markup of a category page.
func (c Client) FetchCategory(ctx context.Context, category product.Category) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "FetchCategory")
	defer span.End()
	span.SetAttributes(
		attribute.String("category", category.Label),
		attribute.String("url", category.URL),
	)

	res, err := c.http.R().
		SetContext(ctx).
		Get(category.URL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		c.tel.ReportBroken(report_client_fetch_category, fmt.Errorf("fetch: %w", err), category.Label)
		return nil, FetchError{Category: category.Label, Err: err}
	}
	if res.IsError() {
		err := fmt.Errorf("%w: %s", ErrUnexpectedStatus, res.Status())
		span.SetStatus(codes.Error, "unexpected status")
		c.tel.ReportBroken(report_client_fetch_category, err, category.Label)
		return nil, FetchError{Category: category.Label, Err: err}
	}

	if c.output != nil {
		c.output.Write(category.Label+".html", res.Body())
	}
	return res.Body(), nil
}

// Scraper fetches and extracts the products of a category.
type Scraper struct {
	client    Client
	extractor Extractor
}

func NewScraper(client Client, extractor Extractor) Scraper {
	return Scraper{client: client, extractor: extractor}
}

func (s Scraper) Products(ctx context.Context, category product.Category) ([]product.Record, error) {
	markup, err := s.client.FetchCategory(ctx, category)
	if err != nil {
		return nil, err
	}
	records, err := s.extractor.Extract(ctx, bytes.NewReader(markup), category.Label)
	if err != nil {
		return nil, FetchError{Category: category.Label, Err: err}
	}
	return records, nil
}
