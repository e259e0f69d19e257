package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ps2map-controller/internal/domain"

	log "github.com/sirupsen/logrus"
)

// Buffer rows are popped with DELETE ... RETURNING so that a fetched row
// can never be delivered twice, even across controller restarts.
const (
	popBaseControlQuery = `
		DELETE FROM blip_base_control
		WHERE timestamp <= $1
		RETURNING timestamp, server_id, continent_id,
			base_id, old_faction_id, new_faction_id
	`
	popPlayerBlipQuery = `
		DELETE FROM blip_player
		WHERE timestamp <= $1
		RETURNING timestamp, server_id, continent_id, player_id, base_id
	`
	popOutfitBlipQuery = `
		DELETE FROM blip_outfit
		WHERE timestamp <= $1
		RETURNING timestamp, server_id, continent_id, outfit_id, base_id
	`
)

type postgresBlipRepository struct {
	db *sql.DB
}

func NewPostgresBlipRepository(db *sql.DB) *postgresBlipRepository {
	return &postgresBlipRepository{db: db}
}

// PopBlips atomically fetches and removes all buffered blips older than
// the given cutoff. Rows that fail to decode are skipped and reported as
// a single warning per batch; they never halt the poll loop.
func (r *postgresBlipRepository) PopBlips(ctx context.Context, olderThan time.Time) ([]domain.Blip, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var blips []domain.Blip
	for _, pop := range []struct {
		kind   domain.Kind
		query  string
		decode func(*sql.Rows) (domain.Blip, error)
	}{
		{domain.KindBaseControl, popBaseControlQuery, scanBaseControl},
		{domain.KindPlayer, popPlayerBlipQuery, scanPlayerBlip},
		{domain.KindOutfit, popOutfitBlipQuery, scanOutfitBlip},
	} {
		fetched, err := r.popTable(ctx, pop.kind, pop.query, olderThan, pop.decode)
		if err != nil {
			return nil, err
		}
		blips = append(blips, fetched...)
	}
	return blips, nil
}

func (r *postgresBlipRepository) popTable(ctx context.Context, kind domain.Kind,
	query string, olderThan time.Time,
	decode func(*sql.Rows) (domain.Blip, error)) ([]domain.Blip, error) {

	rows, err := r.db.QueryContext(ctx, query, olderThan)
	if err != nil {
		return nil, fmt.Errorf("failed to pop %s blips: %w", kind, err)
	}
	defer rows.Close()

	var blips []domain.Blip
	var failed int
	var firstErr error
	for rows.Next() {
		blip, err := decode(rows)
		if err != nil {
			failed++
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		blips = append(blips, blip)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over %s rows: %w", kind, err)
	}
	if failed > 0 {
		log.WithFields(log.Fields{
			"kind":    kind,
			"skipped": failed,
		}).WithError(firstErr).Warn("Skipped invalid buffer rows")
	}
	return blips, nil
}

func scanBaseControl(rows *sql.Rows) (domain.Blip, error) {
	var b domain.BaseControl
	err := rows.Scan(&b.Timestamp, &b.ServerID, &b.ContinentID,
		&b.BaseID, &b.OldFactionID, &b.NewFactionID)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func scanPlayerBlip(rows *sql.Rows) (domain.Blip, error) {
	var b domain.PlayerBlip
	err := rows.Scan(&b.Timestamp, &b.ServerID, &b.ContinentID,
		&b.PlayerID, &b.BaseID)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func scanOutfitBlip(rows *sql.Rows) (domain.Blip, error) {
	var b domain.OutfitBlip
	err := rows.Scan(&b.Timestamp, &b.ServerID, &b.ContinentID,
		&b.OutfitID, &b.BaseID)
	if err != nil {
		return nil, err
	}
	return b, nil
}
