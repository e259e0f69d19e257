// Package controller implements the base ownership controller, the sole
// arbiter of which faction holds which facility on every tracked server.
package controller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ps2map-controller/internal/census"
	"ps2map-controller/internal/domain"
	"ps2map-controller/internal/repository"

	log "github.com/sirupsen/logrus"
)

// SnapshotClient provides the point-in-time ownership snapshot used
// during bootstrap.
type SnapshotClient interface {
	MapState(ctx context.Context, serverID int, continentIDs []int) ([]census.RegionOwnership, error)
}

// Notifier receives reconciled ownership changes for downstream
// consumers. A nil Notifier is valid and disables notification.
type Notifier interface {
	NotifyControl(ctx context.Context, change domain.BaseControl) error
}

// Ownership reconciles two sources of truth into one per-server ownership
// map: a full snapshot loaded from the census API at bootstrap, and the
// incremental BaseControl delta stream dispatched from the event buffer.
//
// Construct with New, then call Bootstrap before relying on the state.
// All methods are safe for concurrent use. A Reinitialize running
// concurrently with delta application is resolved last-writer-wins at the
// per-server map level; deltas are not buffered for replay.
type Ownership struct {
	snapshots SnapshotClient
	meta      repository.Metadata
	notifier  Notifier

	mu            sync.Mutex
	ownership     map[int]map[int]domain.OwnershipRecord
	bootstrapping bool

	now func() time.Time
}

// New returns an ownership controller in the bootstrapping state. The
// controller holds no state until Bootstrap has completed; notifier may
// be nil.
func New(snapshots SnapshotClient, meta repository.Metadata, notifier Notifier) *Ownership {
	return &Ownership{
		snapshots:     snapshots,
		meta:          meta,
		notifier:      notifier,
		ownership:     make(map[int]map[int]domain.OwnershipRecord),
		bootstrapping: true,
		now:           time.Now,
	}
}

// Bootstrap builds the ownership map from scratch: it loads the tracked
// servers and continents from metadata, discards all current state, and
// overwrites each server's map with a fresh census snapshot. Snapshot
// records carry the fetch time, as the map endpoint provides no
// historical timestamps.
//
// A snapshot failure for one server is logged and leaves that server's
// map empty; the remaining servers still bootstrap. Only an error loading
// the metadata itself aborts the call.
func (o *Ownership) Bootstrap(ctx context.Context) error {
	servers, err := o.meta.TrackedServers(ctx)
	if err != nil {
		return fmt.Errorf("failed to load tracked servers: %w", err)
	}
	continents, err := o.meta.Continents(ctx)
	if err != nil {
		return fmt.Errorf("failed to load continents: %w", err)
	}
	continentIDs := make([]int, len(continents))
	for i, c := range continents {
		continentIDs[i] = c.ID
	}

	log.WithFields(log.Fields{
		"servers":    len(servers),
		"continents": len(continents),
	}).Info("Initializing ownership controller")

	o.mu.Lock()
	o.bootstrapping = true
	o.ownership = make(map[int]map[int]domain.OwnershipRecord, len(servers))
	for _, server := range servers {
		o.ownership[server.ID] = make(map[int]domain.OwnershipRecord)
	}
	o.mu.Unlock()

	// The map endpoint cannot batch servers, so they load one at a time.
	// Bootstrap latency is therefore bounded by one round-trip per server.
	for _, server := range servers {
		log.WithField("server_id", server.ID).Info("Loading base ownership snapshot")
		regions, err := o.snapshots.MapState(ctx, server.ID, continentIDs)
		if err != nil {
			log.WithError(err).WithField("server_id", server.ID).
				Error("Failed to load base ownership snapshot")
			continue
		}
		fetchedAt := o.now()
		owners := make(map[int]domain.OwnershipRecord, len(regions))
		for _, region := range regions {
			owners[region.RegionID] = domain.OwnershipRecord{
				FactionID: region.FactionID,
				ChangedAt: fetchedAt,
			}
		}
		o.mu.Lock()
		o.ownership[server.ID] = owners
		o.mu.Unlock()
	}

	o.mu.Lock()
	o.bootstrapping = false
	o.mu.Unlock()
	log.Info("Ownership controller initialization complete")
	return nil
}

// Reinitialize discards all ownership state and synchronizes against the
// census map endpoint again.
func (o *Ownership) Reinitialize(ctx context.Context) error {
	return o.Bootstrap(ctx)
}

// Handle is the dispatcher entry point. Only BaseControl batches mutate
// state; every other blip kind is ignored.
func (o *Ownership) Handle(batch domain.Batch) {
	switch batch.Kind {
	case domain.KindBaseControl:
		o.applyControls(batch.ServerID, batch.Blips)
	case domain.KindPlayer, domain.KindRelativePlayer, domain.KindOutfit:
		// Not this controller's concern.
	default:
		log.WithField("kind", batch.Kind).Warn("Received batch of unknown blip kind")
	}
}

func (o *Ownership) applyControls(serverID int, blips []domain.Blip) {
	var applied []domain.BaseControl

	o.mu.Lock()
	owners, ok := o.ownership[serverID]
	if !ok {
		o.mu.Unlock()
		log.WithField("server_id", serverID).
			Warn("Received BaseControl blip for unknown server")
		return
	}

	for _, blip := range blips {
		control, ok := blip.(domain.BaseControl)
		if !ok {
			log.WithField("kind", blip.Kind()).
				Warn("Non-BaseControl blip in base_control batch")
			continue
		}
		record, known := owners[control.BaseID]
		if known && record.FactionID == control.NewFactionID {
			log.WithFields(log.Fields{
				"server_id":  serverID,
				"base_id":    control.BaseID,
				"faction_id": record.FactionID,
			}).Debug("Ignoring redundant ownership update")
			continue
		}
		// A delayed delta must not revert ownership to a stale faction.
		if known && control.Timestamp.Before(record.ChangedAt) {
			log.WithFields(log.Fields{
				"server_id": serverID,
				"base_id":   control.BaseID,
				"stale_by":  record.ChangedAt.Sub(control.Timestamp),
			}).Warn("Dropping out-of-order ownership update")
			continue
		}
		if !known {
			log.WithFields(log.Fields{
				"server_id": serverID,
				"base_id":   control.BaseID,
			}).Debug("Inserting ownership record for previously unseen base")
		}
		owners[control.BaseID] = domain.OwnershipRecord{
			FactionID: control.NewFactionID,
			ChangedAt: control.Timestamp,
		}
		applied = append(applied, control)
	}
	o.mu.Unlock()

	// Publishing happens outside the lock; the broker round-trip must not
	// stall concurrent readers or a running bootstrap.
	for _, control := range applied {
		o.notify(control)
	}
}

func (o *Ownership) notify(control domain.BaseControl) {
	if o.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := o.notifier.NotifyControl(ctx, control); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"server_id": control.ServerID,
			"base_id":   control.BaseID,
		}).Error("Failed to publish ownership change")
	}
}

// Ownership returns a copy of one server's ownership map. The second
// return value reports whether the server is known to the controller.
func (o *Ownership) Ownership(serverID int) (map[int]domain.OwnershipRecord, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	owners, ok := o.ownership[serverID]
	if !ok {
		return nil, false
	}
	copied := make(map[int]domain.OwnershipRecord, len(owners))
	for baseID, record := range owners {
		copied[baseID] = record
	}
	return copied, true
}

// Servers returns the IDs of all servers the controller tracks.
func (o *Ownership) Servers() []int {
	o.mu.Lock()
	defer o.mu.Unlock()
	ids := make([]int, 0, len(o.ownership))
	for id := range o.ownership {
		ids = append(ids, id)
	}
	return ids
}

// Bootstrapping reports whether a bootstrap is currently in flight.
func (o *Ownership) Bootstrapping() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.bootstrapping
}
