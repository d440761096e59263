package commands

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"pricewatch/internal/components/assert"
	"pricewatch/internal/components/chrono"
	"pricewatch/internal/components/telemetry"
	"pricewatch/internal/monitor"
	"pricewatch/internal/price"
	"pricewatch/internal/product"
	"pricewatch/internal/report"
	"pricewatch/internal/snapshot"
	"pricewatch/pkg/htmlutil"
	"pricewatch/pkg/textutil"

	"github.com/antzucaro/matchr"
)

const (
	report_bot_cycle    = "bot.cycle"
	report_bot_last_run = "bot.last-run"
)

const timestampLayout = "02/01/2006, 15:04:05"

// similarityThreshold is the minimum Jaro-Winkler similarity for a product
// name to match a search query.
const similarityThreshold = 0.8

// State is the read side of the monitor used by the commands.
type State interface {
	Listings(ctx context.Context) []report.Listing
	Snapshot() *snapshot.Snapshot
	LastRun(ctx context.Context) (time.Time, bool, error)
	Categories() []product.Category
}

// Runner forces a monitoring cycle.
type Runner interface {
	TryRun(ctx context.Context) (monitor.Result, error)
}

// Bot holds the handlers of every command.
type Bot struct {
	state     State
	runner    Runner
	formatter report.Formatter
	time      chrono.TimeAPI
	schedule  string
	tel       telemetry.API
}

func NewBot(
	state State,
	runner Runner,
	formatter report.Formatter,
	time chrono.TimeAPI,
	schedule string,
	tel telemetry.API,
) Bot {
	assert.NotNil(state)
	assert.NotNil(runner)
	assert.NotNil(time)
	assert.NotNil(tel)
	return Bot{
		state:     state,
		runner:    runner,
		formatter: formatter,
		time:      time,
		schedule:  schedule,
		tel:       telemetry.NewScopedAPI("commands", tel),
	}
}

// NewRegistry returns a registry with every command of the bot registered.
func (b Bot) NewRegistry() *Registry {
	registry := NewRegistry()
	registry.Register(Command{Name: "precios", Description: "precios actuales", Handler: b.Prices})
	registry.Register(Command{Name: "monitorear", Description: "forzar un monitoreo ahora", Handler: b.Monitor})
	registry.Register(Command{Name: "ultimo", Description: "fecha del último monitoreo", Handler: b.LastRun})
	registry.Register(Command{Name: "productos", Description: "productos registrados", Handler: b.Products})
	registry.Register(Command{Name: "buscar", Usage: "<texto>", Description: "buscar un producto registrado", Handler: b.Search})
	registry.Register(Command{Name: "categorias", Description: "categorías monitoreadas", Handler: b.Categories})
	registry.Register(Command{Name: "estado", Description: "estado del monitor", Handler: b.Status})

	help := Help(registry)
	registry.Register(Command{Name: "help", Description: "esta ayuda", Handler: help})
	registry.Register(Command{Name: "start", Description: "esta ayuda", Handler: help})
	return registry
}

func (b Bot) Prices(ctx context.Context, req Request) (Response, error) {
	listings := b.state.Listings(ctx)
	return Response{Text: b.formatter.FormatListing(listings)}, nil
}

func (b Bot) Monitor(ctx context.Context, req Request) (Response, error) {
	result, err := b.runner.TryRun(ctx)
	if errors.Is(err, monitor.ErrCycleRunning) {
		return Response{Text: "⏳ Ya hay un monitoreo en curso, intentá de nuevo en unos minutos."}, nil
	}
	if err != nil && result.Text == "" {
		b.tel.ReportBroken(report_bot_cycle, err)
		return Response{}, err
	}
	if result.Changes == 0 {
		return Response{Text: "✅ Sin cambios de precios."}, nil
	}
	// a failed notification still leaves the report for the requester
	return Response{Text: result.Text}, nil
}

func (b Bot) formatTime(t time.Time) string {
	return t.In(b.time.Location()).Format(timestampLayout)
}

func (b Bot) LastRun(ctx context.Context, req Request) (Response, error) {
	lastRun, ok, err := b.state.LastRun(ctx)
	if err != nil {
		b.tel.ReportBroken(report_bot_last_run, err)
		return Response{}, err
	}
	if !ok {
		return Response{Text: "Todavía no se completó ningún monitoreo."}, nil
	}
	return Response{Text: fmt.Sprintf("🕒 Último monitoreo: %s", b.formatTime(lastRun))}, nil
}

func (b Bot) Products(ctx context.Context, req Request) (Response, error) {
	names := b.state.Snapshot().ProductNames()
	if len(names) == 0 {
		return Response{Text: "No hay productos registrados todavía."}, nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📦 <b>PRODUCTOS REGISTRADOS</b> (%d)\n\n", len(names))
	for _, name := range names {
		fmt.Fprintf(&sb, "• %s\n", name)
	}
	return Response{Text: strings.TrimRight(sb.String(), "\n")}, nil
}

func matches(query, name string) bool {
	if textutil.MatchName(name, query) {
		return true
	}
	return matchr.JaroWinkler(textutil.FoldName(query), textutil.FoldName(name), false) >= similarityThreshold
}

func (b Bot) Search(ctx context.Context, req Request) (Response, error) {
	query := strings.TrimSpace(req.Args)
	if textutil.NormalizeName(query) == "" {
		return Response{Text: "Uso: /buscar &lt;texto&gt;"}, nil
	}

	snap := b.state.Snapshot()
	var found []product.Key
	for _, key := range snap.Keys() {
		if matches(query, key.Name.Raw()) {
			found = append(found, key)
		}
	}
	if len(found) == 0 {
		return Response{Text: fmt.Sprintf("No se encontraron productos para \"%s\".", htmlutil.Escape(req.Args).String())}, nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🔎 <b>RESULTADOS</b> (%d)\n\n", len(found))
	for _, key := range found {
		amount, _ := snap.Get(key)
		fmt.Fprintf(
			&sb, "• %s (%s): %s\n",
			key.Name.String(),
			htmlutil.Escape(strings.ToUpper(key.Category)).String(),
			price.FormatText(amount),
		)
	}
	return Response{Text: strings.TrimRight(sb.String(), "\n")}, nil
}

func (b Bot) Categories(ctx context.Context, req Request) (Response, error) {
	var sb strings.Builder
	sb.WriteString("🗂 <b>CATEGORÍAS</b>\n\n")
	for _, category := range b.state.Categories() {
		fmt.Fprintf(&sb, "• %s\n", htmlutil.Escape(category.Label).String())
	}
	return Response{Text: strings.TrimRight(sb.String(), "\n")}, nil
}

func (b Bot) Status(ctx context.Context, req Request) (Response, error) {
	snap := b.state.Snapshot()

	var sb strings.Builder
	sb.WriteString("📊 <b>ESTADO DEL MONITOR</b>\n\n")
	fmt.Fprintf(&sb, "📦 Productos registrados: %d\n", snap.Len())
	fmt.Fprintf(&sb, "🗂 Categorías: %d\n", len(b.state.Categories()))
	fmt.Fprintf(&sb, "⏰ Programación: %s (%s)\n", htmlutil.Escape(b.schedule).String(), b.time.Location().String())

	lastRun, ok, err := b.state.LastRun(ctx)
	switch {
	case err != nil:
		b.tel.ReportWarning(report_bot_last_run, err)
		sb.WriteString("🕒 Último monitoreo: desconocido")
	case !ok:
		sb.WriteString("🕒 Último monitoreo: nunca")
	default:
		fmt.Fprintf(&sb, "🕒 Último monitoreo: %s", b.formatTime(lastRun))
	}
	return Response{Text: sb.String()}, nil
}

// Help returns a handler listing every command of the registry, including
// the ones registered after it.
func Help(registry *Registry) Handler {
	return func(ctx context.Context, req Request) (Response, error) {
		commands := registry.Commands()
		commands = slices.DeleteFunc(commands, func(c Command) bool {
			return c.Name == "start"
		})

		var sb strings.Builder
		sb.WriteString("🤖 <b>Monitor de Precios</b>\n\nComandos disponibles:\n")
		for _, c := range commands {
			usage := "/" + c.Name
			if c.Usage != "" {
				usage += " " + c.Usage
			}
			fmt.Fprintf(&sb, "%s - %s\n", htmlutil.Escape(usage).String(), htmlutil.Escape(c.Description).String())
		}
		return Response{Text: strings.TrimRight(sb.String(), "\n")}, nil
	}
}

// UnknownResponse is the reply to a command that is not registered.
func UnknownResponse(name string) Response {
	return Response{Text: fmt.Sprintf("❓ Comando desconocido: /%s. Usá /help para ver los comandos disponibles.", htmlutil.Escape(name).String())}
}
