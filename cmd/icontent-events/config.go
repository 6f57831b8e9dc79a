package main

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Store drivers.
const (
	DriverMemory    = "memory"
	DriverPostgres  = "postgres"
	DriverFirestore = "firestore"
)

type Config struct {
	Server struct {
		Address         string        `default:":8080" required:"true"`
		ReadTimeout     time.Duration `default:"10s" required:"true"`
		WriteTimeout    time.Duration `default:"10s" required:"true"`
		ShutdownTimeout time.Duration `default:"5s" required:"true"`
	}

	Store struct {
		Driver string `default:"memory" required:"true"`
	}

	Postgres struct {
		DSN string
	}

	Firestore struct {
		ProjectID string
		Prefix    string
	}

	// Telemetry exports traces and metrics over OTLP/HTTP when
	// Endpoint is set.
	Telemetry struct {
		Endpoint       string
		ServiceName    string        `default:"icontent-events"`
		ExportInterval time.Duration `default:"30s"`
	}

	Log struct {
		Level       string `default:"info"`
		Development bool
	}

	// DirectoryFile is a YAML file listing the course modules and pages
	// served by the API.
	DirectoryFile string
}

func ParseConfig() (*Config, error) {
	var config Config

	if err := envconfig.Process("icontent", &config); err != nil {
		return nil, fmt.Errorf("config: failed to parse from env, %v", err)
	}

	switch config.Store.Driver {
	case DriverMemory:
	case DriverPostgres:
		if config.Postgres.DSN == "" {
			return nil, fmt.Errorf("config: ICONTENT_POSTGRES_DSN is required by the %s driver", DriverPostgres)
		}
	case DriverFirestore:
		if config.Firestore.ProjectID == "" {
			return nil, fmt.Errorf("config: ICONTENT_FIRESTORE_PROJECTID is required by the %s driver", DriverFirestore)
		}
	default:
		return nil, fmt.Errorf("config: unsupported store driver %q", config.Store.Driver)
	}

	return &config, nil
}
