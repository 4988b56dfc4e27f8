package application

import (
	"context"
	"errors"
)

// Notifier tells the user that a background job finished or failed.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

type NoopNotifier struct{}

func (NoopNotifier) Notify(context.Context, string) error { return nil }

// Notifiers delivers every message to all of its backends and joins their errors.
type Notifiers []Notifier

func (ns Notifiers) Notify(ctx context.Context, message string) error {
	var errs []error
	for _, n := range ns {
		if err := n.Notify(ctx, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
