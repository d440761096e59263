package chrono

import (
	"context"
	"fmt"
	"time"

	"pricewatch/internal/components/telemetry"

	"github.com/robfig/cron/v3"
)

// CronAPI is the interface that anything depending on things to happen on a cron job should use.
type CronAPI interface {
	Cron(spec string, callback func()) error
}

// StandardCron is the standard implementation of CronAPI using `github.com/robfig/cron/v3`
type StandardCron struct {
	cron *cron.Cron
}

// NewStandardCron is the constructor of StandardCron, specs are evaluated in `location`.
func NewStandardCron(location *time.Location, tel telemetry.API) StandardCron {
	cronner := cron.New(
		cron.WithLogger(cronLogger{tel: tel}),
		cron.WithLocation(location),
	)
	cronner.Start()

	return StandardCron{
		cron: cronner,
	}
}

func (s StandardCron) Cron(spec string, callback func()) error {
	_, err := s.cron.AddFunc(spec, callback)
	return err
}

// Stop prevents new jobs from starting, the returned context is done once
// running jobs have completed.
func (s StandardCron) Stop() context.Context {
	return s.cron.Stop()
}

// ValidateSpec reports whether a standard 5 field cron spec can be parsed.
func ValidateSpec(spec string) error {
	_, err := cron.ParseStandard(spec)
	return err
}

type cronLogger struct {
	tel telemetry.API
}

func (l cronLogger) formatParams(keysAndValues []any) []any {
	params := []any{}
	for i := 0; i < len(keysAndValues)/2; i++ {
		idx := i * 2
		params = append(params, telemetry.KV{
			Key:   fmt.Sprint(keysAndValues[idx]),
			Value: keysAndValues[idx+1],
		})
	}
	return params
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.tel.ReportDebug(
		fmt.Sprintf("cron: %s", msg),
		l.formatParams(keysAndValues)...,
	)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	params := append([]any{fmt.Errorf("%s: %w", msg, err)}, l.formatParams(keysAndValues)...)
	l.tel.ReportBroken("cron", params...)
}
