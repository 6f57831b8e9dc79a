package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig(t *testing.T) {
	t.Run("defaults to the in-memory store", func(t *testing.T) {
		config, err := ParseConfig()
		require.NoError(t, err)

		assert.Equal(t, DriverMemory, config.Store.Driver)
		assert.Equal(t, ":8080", config.Server.Address)
		assert.Equal(t, 5*time.Second, config.Server.ShutdownTimeout)
		assert.Equal(t, "info", config.Log.Level)
	})

	t.Run("postgres driver requires a dsn", func(t *testing.T) {
		t.Setenv("ICONTENT_STORE_DRIVER", DriverPostgres)

		_, err := ParseConfig()
		assert.Error(t, err)

		t.Setenv("ICONTENT_POSTGRES_DSN", "postgres://localhost:5432/moodle")

		config, err := ParseConfig()
		require.NoError(t, err)
		assert.Equal(t, "postgres://localhost:5432/moodle", config.Postgres.DSN)
	})

	t.Run("firestore driver requires a project id", func(t *testing.T) {
		t.Setenv("ICONTENT_STORE_DRIVER", DriverFirestore)

		_, err := ParseConfig()
		assert.Error(t, err)

		t.Setenv("ICONTENT_FIRESTORE_PROJECTID", "icontent")

		_, err = ParseConfig()
		assert.NoError(t, err)
	})

	t.Run("unknown driver", func(t *testing.T) {
		t.Setenv("ICONTENT_STORE_DRIVER", "mongodb")

		_, err := ParseConfig()
		assert.Error(t, err)
	})
}
