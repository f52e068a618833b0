// Package lifecycle exposes device notifications as a lifecycle.Source so
// supervisors and the CLI can react to state changes.
package lifecycle

import (
	"context"
	"slices"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/inkwell/pkg/core"
)

type deviceSource struct {
	events <-chan core.Event
	types  []core.EventType
	out    chan lifecycle.Event
}

// NewSource forwards device events, typically the power manager
// notifications. When types are given only those are forwarded.
func NewSource(events <-chan core.Event, types ...core.EventType) lifecycle.Source {
	return &deviceSource{
		events: events,
		types:  types,
		out:    make(chan lifecycle.Event),
	}
}

func (s *deviceSource) Events() <-chan lifecycle.Event {
	return s.out
}

func (s *deviceSource) wants(e core.Event) bool {
	return len(s.types) == 0 || slices.Contains(s.types, e.Type)
}

// Start bridges until ctx is done or the input closes; the output is closed then.
func (s *deviceSource) Start(ctx context.Context) error {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		for {
			var e core.Event
			select {
			case <-ctx.Done():
				return nil
			case ev, ok := <-s.events:
				if !ok {
					return nil
				}
				e = ev
			}
			if !s.wants(e) {
				continue
			}
			select {
			case s.out <- e:
			case <-ctx.Done():
				return nil
			}
		}
	})
	return nil
}
