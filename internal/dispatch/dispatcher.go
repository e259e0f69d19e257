// Package dispatch drains the database event buffer and fans the fetched
// blips out to registered handlers.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"ps2map-controller/internal/domain"

	log "github.com/sirupsen/logrus"
)

// Source is the event buffer collaborator. PopBlips must be atomic:
// returned blips are removed from the buffer in the same operation.
type Source interface {
	PopBlips(ctx context.Context, olderThan time.Time) ([]domain.Blip, error)
}

// Handler consumes dispatched blip batches. A handler is invoked once per
// (kind, server) group per poll cycle and receives every group, including
// kinds it does not care about; it must recognize or ignore each batch on
// its own and must not assume any prior call history.
type Handler interface {
	Handle(batch domain.Batch)
}

// Dispatcher polls the event buffer on a fixed interval and dispatches
// fetched blips to all registered handlers, grouped by blip kind and
// origin server.
type Dispatcher struct {
	source   Source
	handlers []Handler
	interval time.Duration
	minAge   time.Duration
}

// New returns a dispatcher polling source every interval for blips at
// least minAge old. The minimum age keeps causally related rows that were
// committed together from being split across poll cycles.
func New(source Source, interval, minAge time.Duration) *Dispatcher {
	return &Dispatcher{source: source, interval: interval, minAge: minAge}
}

// AddHandler registers a handler. Handlers are invoked in registration
// order; no deduplication is performed.
func (d *Dispatcher) AddHandler(h Handler) {
	d.handlers = append(d.handlers, h)
}

// Run polls the buffer until the context is cancelled or a fetch fails.
// A fetch failure is fatal and propagates to the caller: a broken buffer
// read points at a broader store problem, and retrying it silently
// forever would hide that.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d.interval):
		}
		blips, err := d.source.PopBlips(ctx, time.Now().Add(-d.minAge))
		if err != nil {
			return fmt.Errorf("failed to fetch events from buffer: %w", err)
		}
		if len(blips) > 0 {
			log.WithField("count", len(blips)).Debug("Fetched blips from database")
			d.dispatch(blips)
		}
	}
}

// dispatch groups blips by kind, then by origin server, and invokes every
// registered handler once per (kind, server) group, preserving fetch
// order within each group.
func (d *Dispatcher) dispatch(blips []domain.Blip) {
	var kinds []domain.Kind
	byKind := make(map[domain.Kind][]domain.Blip)
	for _, blip := range blips {
		kind := blip.Kind()
		if _, seen := byKind[kind]; !seen {
			kinds = append(kinds, kind)
		}
		byKind[kind] = append(byKind[kind], blip)
	}

	for _, kind := range kinds {
		ofKind := byKind[kind]
		log.WithFields(log.Fields{
			"kind":  kind,
			"count": len(ofKind),
		}).Debug("Dispatching blips")

		var servers []int
		byServer := make(map[int][]domain.Blip)
		for _, blip := range ofKind {
			serverID := blip.Meta().ServerID
			if _, seen := byServer[serverID]; !seen {
				servers = append(servers, serverID)
			}
			byServer[serverID] = append(byServer[serverID], blip)
		}

		for _, serverID := range servers {
			batch := domain.Batch{
				Kind:     kind,
				ServerID: serverID,
				Blips:    byServer[serverID],
			}
			for _, handler := range d.handlers {
				handler.Handle(batch)
			}
		}
	}
}
