// Package repository translates between the domain types and their
// PostgreSQL representations. No SQL lives outside this package.
package repository

import (
	"context"
	"time"

	"ps2map-controller/internal/domain"
)

// BlipSource drains the event buffer tables. Popped rows are removed in
// the same statement that returns them and are never re-delivered.
type BlipSource interface {
	PopBlips(ctx context.Context, olderThan time.Time) ([]domain.Blip, error)
}

// Metadata provides the read-mostly map metadata. Implementations are
// expected to memoize; callers may invoke these repeatedly.
type Metadata interface {
	TrackedServers(ctx context.Context) ([]domain.GameServer, error)
	Servers(ctx context.Context) ([]domain.GameServer, error)
	Continents(ctx context.Context) ([]domain.Continent, error)
	BaseByID(ctx context.Context, baseID int) (domain.Base, error)
}
