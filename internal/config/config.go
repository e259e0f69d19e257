package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type DB struct {
	URL             string        `env:"DATABASE_URL,required"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"16"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"8"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"1h"`
	ConnMaxIdleTime time.Duration `env:"DB_CONN_MAX_IDLE_TIME" envDefault:"15m"`
}

type Census struct {
	ServiceID string `env:"CENSUS_SERVICE_ID" envDefault:"s:example"`
	BaseURL   string `env:"CENSUS_BASE_URL"`
}

type Dispatch struct {
	// PollInterval is the pause between event buffer polls.
	PollInterval time.Duration `env:"POLL_INTERVAL" envDefault:"1s"`
	// MinBlipAge keeps rows committed together from being split across
	// poll cycles.
	MinBlipAge time.Duration `env:"MIN_BLIP_AGE" envDefault:"1s"`
}

type Kafka struct {
	// BootstrapServers left empty disables change notifications.
	BootstrapServers string `env:"KAFKA_BOOTSTRAP_SERVERS"`
	Topic            string `env:"KAFKA_CONTROL_TOPIC" envDefault:"base-control"`
}

type Config struct {
	DB       DB
	Census   Census
	Dispatch Dispatch
	Kafka    Kafka
	Port     string `env:"PORT" envDefault:"8080"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
