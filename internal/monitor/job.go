package monitor

import (
	"context"
	"errors"

	"pricewatch/internal/components/assert"
	"pricewatch/internal/components/telemetry"
	"pricewatch/internal/notify"
	"pricewatch/internal/report"
	"pricewatch/internal/snapshot"
)

const (
	report_job_run    = "job.run"
	report_job_notify = "job.notify"
)

// Job is a cycle followed by the notification of its changes, it is what
// both the scheduler and the force command trigger.
type Job struct {
	monitor   *Monitor
	formatter report.Formatter
	notifier  notify.Notifier
	tel       telemetry.API
}

func NewJob(monitor *Monitor, formatter report.Formatter, notifier notify.Notifier, tel telemetry.API) Job {
	assert.NotNil(monitor)
	assert.NotNil(notifier)
	assert.NotNil(tel)
	return Job{
		monitor:   monitor,
		formatter: formatter,
		notifier:  notifier,
		tel:       telemetry.NewScopedAPI("monitor", tel),
	}
}

// Result describes what a job run produced.
type Result struct {
	Changes  int
	Text     string
	Notified bool
}

// Run waits for the run lock, runs a cycle and notifies when prices changed.
func (j Job) Run(ctx context.Context) (Result, error) {
	return j.run(ctx, j.monitor.RunCycle)
}

// TryRun is Run but fails with ErrCycleRunning instead of waiting.
func (j Job) TryRun(ctx context.Context) (Result, error) {
	return j.run(ctx, j.monitor.TryRunCycle)
}

func (j Job) run(ctx context.Context, cycle func(context.Context) ([]snapshot.ChangeEvent, error)) (Result, error) {
	events, err := cycle(ctx)
	if errors.Is(err, ErrCycleRunning) {
		j.tel.ReportDebug("skipped, cycle already running")
		return Result{}, err
	}
	if err != nil {
		j.tel.ReportBroken(report_job_run, err)
		return Result{}, err
	}

	text, ok := j.formatter.FormatChanges(events)
	if !ok {
		j.tel.ReportDebug("no changes")
		return Result{}, nil
	}

	result := Result{Changes: len(events), Text: text}
	err = j.notifier.Notify(ctx, text)
	if err != nil {
		j.tel.ReportBroken(report_job_notify, err)
		return result, err
	}
	result.Notified = true
	return result, nil
}
