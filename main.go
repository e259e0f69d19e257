package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ps2map-controller/internal/census"
	"ps2map-controller/internal/config"
	"ps2map-controller/internal/controller"
	"ps2map-controller/internal/dispatch"
	"ps2map-controller/internal/publisher"
	"ps2map-controller/internal/repository"
	"ps2map-controller/internal/server"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	log "github.com/sirupsen/logrus"

	"github.com/labstack/echo/v4"
)

func main() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})

	log.SetOutput(os.Stdout)
	log.SetLevel(log.DebugLevel)

	if err := godotenv.Load(); err != nil {
		log.Warn("Could not load .env file.")
	}

	cfg, err := config.Load()
	if err != nil {
		log.WithField("error", err).Fatal("Could not load configuration")
	}

	log.Info("Starting database migration...")
	m, err := migrate.New("file://db/migrations", cfg.DB.URL)
	if err != nil {
		log.WithField("error", err).Fatal("Could not create migrate instance")
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		log.WithField("error", err).Fatal("Could not apply migration")
	}
	log.Info("Database migration finished successfully.")

	db, err := sql.Open("postgres", cfg.DB.URL)
	if err != nil {
		log.WithField("error", err).Fatal("Could not connect to the database")
	}
	defer db.Close()

	db.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	db.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.DB.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.DB.ConnMaxIdleTime)

	if err := db.Ping(); err != nil {
		log.WithField("error", err).Fatal("Could not ping the database")
	}
	log.Info("Successfully connected to the PostgreSQL database.")

	// Create repositories
	blipRepository := repository.NewPostgresBlipRepository(db)
	metadataRepository := repository.NewPostgresMetadataRepository(db)

	// Census API client used for the bootstrap snapshot and map geometry
	censusClient := census.NewClient(cfg.Census.ServiceID, cfg.Census.BaseURL)

	// Optional Kafka notifications for downstream consumers
	var notifier controller.Notifier
	if cfg.Kafka.BootstrapServers != "" {
		controlPublisher, err := publisher.NewControlPublisher(
			cfg.Kafka.BootstrapServers, cfg.Kafka.Topic)
		if err != nil {
			log.WithField("error", err).Fatal("Could not create Kafka publisher")
		}
		defer controlPublisher.Close()
		notifier = controlPublisher
	} else {
		log.Info("KAFKA_BOOTSTRAP_SERVERS not set, change notifications disabled")
	}

	// Ownership controller: construct, then bootstrap before serving
	ownership := controller.New(censusClient, metadataRepository, notifier)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("Bootstrapping base ownership from census...")
	if err := ownership.Bootstrap(ctx); err != nil {
		log.WithField("error", err).Fatal("Could not bootstrap ownership state")
	}

	// Event dispatcher draining the database blip buffer
	dispatcher := dispatch.New(blipRepository, cfg.Dispatch.PollInterval, cfg.Dispatch.MinBlipAge)
	dispatcher.AddHandler(ownership)

	dispatcherErr := make(chan error, 1)
	go func() {
		dispatcherErr <- dispatcher.Run(ctx)
	}()

	// Create server
	srv := server.NewServer(ownership, metadataRepository, censusClient, db)

	// Setup Echo
	e := echo.New()

	// Health check
	e.GET("/health", srv.HealthCheck)

	// Map state endpoints
	api := e.Group("/api")
	api.GET("/servers", srv.ListServers)
	api.GET("/continents", srv.ListContinents)
	api.GET("/servers/:id/map", srv.ServerMap)
	api.GET("/bases/:id", srv.GetBase)
	api.GET("/bases/:id/outline", srv.BaseOutline)
	api.POST("/reinitialize", srv.Reinitialize)

	go func() {
		log.WithField("port", cfg.Port).Info("Map controller is starting with Echo")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.WithField("error", err).Fatal("Echo server failed to start")
		}
	}()

	select {
	case err := <-dispatcherErr:
		// A broken buffer read is fatal by design; the process owner
		// decides on restart and backoff.
		if err != nil && ctx.Err() == nil {
			log.WithField("error", err).Fatal("Event dispatcher stopped")
		}
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithField("error", err).Error("Echo server shutdown failed")
	}
	log.Info("Closing database connection...")
}
