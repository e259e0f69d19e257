package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ps2map-controller/internal/cache"
	"ps2map-controller/internal/domain"

	log "github.com/sirupsen/logrus"
)

type postgresMetadataRepository struct {
	db *sql.DB

	// Metadata changes on the timescale of game patches, so every
	// accessor is fronted by its own TTL cache.
	servers    *cache.Cache[bool, []domain.GameServer]
	continents *cache.Cache[struct{}, []domain.Continent]
	bases      *cache.Cache[int, domain.Base]
}

func NewPostgresMetadataRepository(db *sql.DB) *postgresMetadataRepository {
	r := &postgresMetadataRepository{db: db}
	r.servers = cache.New(20, time.Hour, r.fetchServers)
	r.continents = cache.New(10, time.Hour, r.fetchContinents)
	r.bases = cache.New(100, time.Minute, r.fetchBase)
	return r
}

// TrackedServers returns the servers whose ownership state is maintained.
func (r *postgresMetadataRepository) TrackedServers(ctx context.Context) ([]domain.GameServer, error) {
	return r.servers.Get(ctx, true)
}

// Servers returns all known servers, tracked or not.
func (r *postgresMetadataRepository) Servers(ctx context.Context) ([]domain.GameServer, error) {
	return r.servers.Get(ctx, false)
}

// Continents returns the list of tracked continents.
func (r *postgresMetadataRepository) Continents(ctx context.Context) ([]domain.Continent, error) {
	return r.continents.Get(ctx, struct{}{})
}

// BaseByID returns the static metadata for a single facility.
func (r *postgresMetadataRepository) BaseByID(ctx context.Context, baseID int) (domain.Base, error) {
	return r.bases.Get(ctx, baseID)
}

func (r *postgresMetadataRepository) fetchServers(ctx context.Context, trackedOnly bool) ([]domain.GameServer, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `SELECT id, name, region, tracked FROM server ORDER BY id`
	if trackedOnly {
		query = `SELECT id, name, region, tracked FROM server WHERE tracked ORDER BY id`
	}

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list servers: %w", err)
	}
	defer rows.Close()

	var servers []domain.GameServer
	for rows.Next() {
		var s domain.GameServer
		if err := rows.Scan(&s.ID, &s.Name, &s.Region, &s.Tracked); err != nil {
			log.WithError(err).Error("Failed to scan server row")
			return nil, fmt.Errorf("failed to scan server row: %w", err)
		}
		servers = append(servers, s)
	}
	return servers, rows.Err()
}

func (r *postgresMetadataRepository) fetchContinents(ctx context.Context, _ struct{}) ([]domain.Continent, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name FROM continent ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list continents: %w", err)
	}
	defer rows.Close()

	var continents []domain.Continent
	for rows.Next() {
		var c domain.Continent
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			log.WithError(err).Error("Failed to scan continent row")
			return nil, fmt.Errorf("failed to scan continent row: %w", err)
		}
		continents = append(continents, c)
	}
	return continents, rows.Err()
}

func (r *postgresMetadataRepository) fetchBase(ctx context.Context, baseID int) (domain.Base, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var b domain.Base
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, continent_id, type_name, pos_x, pos_y
		 FROM base WHERE id = $1`, baseID).
		Scan(&b.ID, &b.Name, &b.ContinentID, &b.TypeName, &b.PosX, &b.PosY)
	if err == sql.ErrNoRows {
		return domain.Base{}, domain.ErrBaseNotFound
	}
	if err != nil {
		log.WithError(err).WithField("base_id", baseID).Error("Failed to get base by ID")
		return domain.Base{}, fmt.Errorf("failed to get base by ID: %w", err)
	}
	log.WithField("base_id", baseID).Debug("Cache miss: fetched base from database")
	return b, nil
}
