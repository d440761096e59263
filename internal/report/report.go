// Package report renders change events and price listings into the html
// subset understood by the notification transport.
package report

import (
	"fmt"
	"strings"

	"pricewatch/internal/components/assert"
	"pricewatch/internal/components/chrono"
	"pricewatch/internal/price"
	"pricewatch/internal/product"
	"pricewatch/internal/snapshot"
	"pricewatch/pkg/htmlutil"
)

const timestampLayout = "02/01/2006, 15:04:05"

// Listing is the current extraction of one category, Err is set when the
// category could not be fetched.
type Listing struct {
	Category string
	Records  []product.Record
	Err      error
}

type Formatter struct {
	time chrono.TimeAPI
}

func NewFormatter(time chrono.TimeAPI) Formatter {
	assert.NotNil(time)
	return Formatter{time: time}
}

func (f Formatter) timestamp() string {
	now := f.time.Now().In(f.time.Location())
	return fmt.Sprintf("⏰ %s", now.Format(timestampLayout))
}

func categoryTitle(category string) string {
	return htmlutil.Escape(strings.ToUpper(category)).String()
}

// sign follows the direction, a percent rounded to zero keeps the sign of
// the change.
func sign(direction snapshot.Direction) string {
	if direction == snapshot.Decrease {
		return "-"
	}
	return "+"
}

func glyph(direction snapshot.Direction) string {
	if direction == snapshot.Decrease {
		return "📉"
	}
	return "📈"
}

// FormatChanges renders the change report, ok is false when there are no
// events and nothing should be sent.
func (f Formatter) FormatChanges(events []snapshot.ChangeEvent) (text string, ok bool) {
	if len(events) == 0 {
		return "", false
	}

	var b strings.Builder
	b.WriteString("🔔 <b>CAMBIOS DE PRECIOS DETECTADOS</b>\n\n")
	for _, e := range events {
		fmt.Fprintf(&b, "%s <b>%s</b> (%s)\n", glyph(e.Direction), e.Name.String(), categoryTitle(e.Category))
		fmt.Fprintf(&b, "💰 Antes: %s (%s)\n", price.FormatText(e.Previous), e.Unit.String())
		fmt.Fprintf(&b, "💰 Ahora: %s\n", price.FormatText(e.Current))
		fmt.Fprintf(
			&b, "📊 Cambio: %s%s (%s%s%%)\n\n",
			sign(e.Direction), price.FormatText(e.Delta.Abs()),
			sign(e.Direction), price.Format(e.Percent.Abs()),
		)
	}
	b.WriteString(f.timestamp())
	return b.String(), true
}

// FormatListing renders every record of every category, regardless of the
// snapshot.
func (f Formatter) FormatListing(listings []Listing) string {
	var b strings.Builder
	b.WriteString("📋 <b>PRECIOS ACTUALES</b>\n\n")
	for _, l := range listings {
		fmt.Fprintf(&b, "<b>%s:</b>\n", categoryTitle(l.Category))
		switch {
		case l.Err != nil:
			fmt.Fprintf(&b, "❌ Error: %s\n", htmlutil.Escape(l.Err.Error()).String())
		case len(l.Records) == 0:
			b.WriteString("<i>sin productos</i>\n")
		}
		for _, r := range l.Records {
			fmt.Fprintf(&b, "• %s: %s (%s)\n", r.Name.String(), price.FormatText(r.Price), r.Unit.String())
		}
		b.WriteString("\n")
	}
	b.WriteString(f.timestamp())
	return b.String()
}
