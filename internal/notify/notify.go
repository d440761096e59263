// Package notify delivers formatted reports to subscribers.
package notify

import (
	"context"
	"errors"
)

// Notifier sends one formatted report, text uses the html subset of the
// report package.
//
// note: fault injection point
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Multi sends to every notifier, a failing notifier does not stop the rest.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, text string) error {
	var errs []error
	for _, n := range m {
		err := n.Notify(ctx, text)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Func adapts a function to Notifier.
type Func func(ctx context.Context, text string) error

func (f Func) Notify(ctx context.Context, text string) error {
	return f(ctx, text)
}
