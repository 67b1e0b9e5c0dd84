package activity

import (
	"context"

	"go.uber.org/multierr"
)

// Hook receives normalized activity events.
type Hook interface {
	Notify(ctx context.Context, evt Event) error
}

// HookFunc adapts a function into a Hook.
type HookFunc func(ctx context.Context, evt Event) error

// Notify calls f(ctx, evt).
func (f HookFunc) Notify(ctx context.Context, evt Event) error {
	return f(ctx, evt)
}

// Hooks fans an event out to several hooks.
type Hooks []Hook

// Notify normalizes evt and delivers it to every hook. Invalid events are
// dropped; hook errors are combined.
func (h Hooks) Notify(ctx context.Context, evt Event) error {
	evt = NormalizeEvent(evt)
	if !evt.Valid() {
		return nil
	}
	var err error
	for _, hook := range h {
		if hook == nil {
			continue
		}
		err = multierr.Append(err, hook.Notify(ctx, evt))
	}
	return err
}
