// Package server exposes the reconciled map state over HTTP.
package server

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"ps2map-controller/internal/census"
	"ps2map-controller/internal/controller"
	"ps2map-controller/internal/domain"
	"ps2map-controller/internal/hexgen"
	"ps2map-controller/internal/repository"

	log "github.com/sirupsen/logrus"

	"github.com/labstack/echo/v4"
)

// HexSource fetches a facility's hex tiles for the outline endpoint.
type HexSource interface {
	MapHexes(ctx context.Context, baseID int) ([]census.MapHex, error)
}

type Server struct {
	ownership *controller.Ownership
	meta      repository.Metadata
	hexes     HexSource
	db        *sql.DB
}

func NewServer(ownership *controller.Ownership, meta repository.Metadata, hexes HexSource, db *sql.DB) *Server {
	return &Server{
		ownership: ownership,
		meta:      meta,
		hexes:     hexes,
		db:        db,
	}
}

func (s *Server) HealthCheck(c echo.Context) error {
	if err := s.db.Ping(); err != nil {
		log.WithField("error", err).Error("Health check failed: database is down")
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  "database connection error",
		})
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

func (s *Server) ListServers(c echo.Context) error {
	servers, err := s.meta.Servers(c.Request().Context())
	if err != nil {
		log.WithError(err).Error("Failed to list servers")
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "internal server error",
		})
	}
	return c.JSON(http.StatusOK, servers)
}

func (s *Server) ListContinents(c echo.Context) error {
	continents, err := s.meta.Continents(c.Request().Context())
	if err != nil {
		log.WithError(err).Error("Failed to list continents")
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "internal server error",
		})
	}
	return c.JSON(http.StatusOK, continents)
}

// ServerMap returns the current ownership view for one server as a
// base-ID-keyed object.
func (s *Server) ServerMap(c echo.Context) error {
	serverID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "server ID must be an integer",
		})
	}

	owners, ok := s.ownership.Ownership(serverID)
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{
			"error": "server not tracked",
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"server_id":     serverID,
		"bootstrapping": s.ownership.Bootstrapping(),
		"bases":         owners,
	})
}

func (s *Server) GetBase(c echo.Context) error {
	baseID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "base ID must be an integer",
		})
	}

	base, err := s.meta.BaseByID(c.Request().Context(), baseID)
	if err != nil {
		if errors.Is(err, domain.ErrBaseNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{
				"error": "base not found",
			})
		}
		log.WithError(err).WithField("base_id", baseID).Error("Failed to get base")
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "internal server error",
		})
	}
	return c.JSON(http.StatusOK, base)
}

// BaseOutline merges a facility's hex tiles into a single exterior
// outline and returns it as edge coordinates plus an SVG path.
func (s *Server) BaseOutline(c echo.Context) error {
	baseID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "base ID must be an integer",
		})
	}
	radius := 57.5 // map hex radius used by the in-game map
	if raw := c.QueryParam("radius"); raw != "" {
		radius, err = strconv.ParseFloat(raw, 64)
		if err != nil || radius <= 0 {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": "radius must be a positive number",
			})
		}
	}

	hexes, err := s.hexes.MapHexes(c.Request().Context(), baseID)
	if err != nil {
		log.WithError(err).WithField("base_id", baseID).Error("Failed to fetch map hexes")
		return c.JSON(http.StatusBadGateway, map[string]string{
			"error": "failed to fetch map hexes",
		})
	}
	if len(hexes) == 0 {
		return c.JSON(http.StatusNotFound, map[string]string{
			"error": "no hexes found for base",
		})
	}

	tiles := make([]hexgen.Tile, len(hexes))
	for i, h := range hexes {
		tiles[i] = hexgen.Tile{U: h.X, V: h.Y}
	}
	edges, err := hexgen.Outline(tiles, radius)
	if err != nil {
		log.WithError(err).WithField("base_id", baseID).Error("Failed to build outline")
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "internal server error",
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"base_id":  baseID,
		"radius":   radius,
		"edges":    edges,
		"svg_path": hexgen.SVGPath(edges),
	})
}

// Reinitialize triggers a full resynchronization against the census map
// endpoint.
func (s *Server) Reinitialize(c echo.Context) error {
	if err := s.ownership.Reinitialize(c.Request().Context()); err != nil {
		log.WithError(err).Error("Reinitialization failed")
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "reinitialization failed",
		})
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status": "reinitialized",
	})
}
