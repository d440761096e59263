package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"pricewatch/internal/components/assert"
	"pricewatch/internal/components/chrono"
	"pricewatch/internal/components/telemetry"
	"pricewatch/internal/product"
	"pricewatch/internal/report"
	"pricewatch/internal/snapshot"
	"pricewatch/internal/store"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	report_monitor_fetch  = "monitor.fetch"
	report_monitor_diff   = "monitor.diff"
	report_monitor_commit = "monitor.commit"
	report_monitor_events = "monitor.events"
)

var tracer = telemetry.Tracer("pricewatch.monitor")

// ErrCycleRunning is returned by TryRunCycle when another cycle holds the run lock.
var ErrCycleRunning = errors.New("a monitoring cycle is already running")

// Source produces the current products of a category.
//
// note: fault injection point
type Source interface {
	Products(ctx context.Context, category product.Category) ([]product.Record, error)
}

// Cycle runs one pass over every category against a copy of `snap`. A
// category whose fetch fails contributes no records, the other categories
// are unaffected. The returned snapshot holds every committed price.
func Cycle(
	ctx context.Context,
	categories []product.Category,
	source Source,
	snap *snapshot.Snapshot,
	tel telemetry.API,
) ([]snapshot.ChangeEvent, *snapshot.Snapshot, error) {
	next := snap.Clone()

	var events []snapshot.ChangeEvent
	for _, category := range categories {
		records, err := source.Products(ctx, category)
		if err != nil {
			tel.ReportBroken(report_monitor_fetch, err, category.Label)
			records = nil
		}

		categoryEvents, err := snapshot.Diff(next, category.Label, records)
		if err != nil {
			tel.ReportBroken(report_monitor_diff, err, category.Label)
			return nil, nil, fmt.Errorf("diff %s: %w", category.Label, err)
		}
		events = append(events, categoryEvents...)
	}

	return events, next, nil
}

// Monitor owns the live snapshot and serializes cycles against it.
type Monitor struct {
	categories []product.Category
	source     Source
	store      store.Store
	time       chrono.TimeAPI
	tel        telemetry.API

	// held for the whole duration of a cycle
	runLock sync.Mutex

	stateLock sync.RWMutex
	snap      *snapshot.Snapshot
}

// New loads the persisted snapshot once and returns a monitor owning it.
func New(
	ctx context.Context,
	categories []product.Category,
	source Source,
	store store.Store,
	time chrono.TimeAPI,
	tel telemetry.API,
) (*Monitor, error) {
	assert.NotNil(source)
	assert.NotNil(store)
	assert.NotNil(time)
	assert.NotNil(tel)

	snap, err := store.LoadSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	return &Monitor{
		categories: categories,
		source:     source,
		store:      store,
		time:       time,
		tel:        telemetry.NewScopedAPI("monitor", tel),
		snap:       snap,
	}, nil
}

// RunCycle waits for any running cycle to finish and then runs one.
func (m *Monitor) RunCycle(ctx context.Context) ([]snapshot.ChangeEvent, error) {
	m.runLock.Lock()
	defer m.runLock.Unlock()
	return m.runCycleLocked(ctx)
}

// TryRunCycle runs a cycle unless one is already running.
func (m *Monitor) TryRunCycle(ctx context.Context) ([]snapshot.ChangeEvent, error) {
	if !m.runLock.TryLock() {
		return nil, ErrCycleRunning
	}
	defer m.runLock.Unlock()
	return m.runCycleLocked(ctx)
}

func (m *Monitor) runCycleLocked(ctx context.Context) ([]snapshot.ChangeEvent, error) {
	cycleId := uuid.NewString()
	ctx, span := tracer.Start(ctx, "RunCycle")
	defer span.End()
	span.SetAttributes(attribute.String("cycle_id", cycleId))

	m.tel.ReportDebug("start cycle", telemetry.KV{Key: "cycle_id", Value: cycleId})

	m.stateLock.RLock()
	current := m.snap
	m.stateLock.RUnlock()

	events, next, err := Cycle(ctx, m.categories, m.source, current, m.tel)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "cycle aborted")
		return nil, err
	}

	err = m.store.Commit(ctx, next, m.time.Now())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "commit failed")
		m.tel.ReportBroken(report_monitor_commit, err, telemetry.KV{Key: "cycle_id", Value: cycleId})
		return nil, fmt.Errorf("persist cycle: %w", err)
	}

	m.stateLock.Lock()
	m.snap = next
	m.stateLock.Unlock()

	m.tel.ReportCount(report_monitor_events, int64(len(events)))
	span.SetAttributes(attribute.Int("events", len(events)))
	return events, nil
}

// Listings extracts every category without touching the snapshot.
func (m *Monitor) Listings(ctx context.Context) []report.Listing {
	listings := make([]report.Listing, 0, len(m.categories))
	for _, category := range m.categories {
		records, err := m.source.Products(ctx, category)
		if err != nil {
			m.tel.ReportWarning(report_monitor_fetch, err, category.Label)
		}
		listings = append(listings, report.Listing{
			Category: category.Label,
			Records:  records,
			Err:      err,
		})
	}
	return listings
}

func (m *Monitor) Categories() []product.Category {
	return m.categories
}

// Snapshot returns a copy of the live snapshot.
func (m *Monitor) Snapshot() *snapshot.Snapshot {
	m.stateLock.RLock()
	defer m.stateLock.RUnlock()
	return m.snap.Clone()
}

func (m *Monitor) LastRun(ctx context.Context) (time.Time, bool, error) {
	return m.store.LastRun(ctx)
}
