package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := FromEnv()
		require.NoError(t, err)
		assert.Equal(t, 8080, cfg.HTTPPort)
		assert.Equal(t, DriverSQLite, cfg.DBDriver)
		assert.Equal(t, "pos.db", cfg.DBDSN)
		assert.Equal(t, []string{"http://localhost:5173"}, cfg.AllowedOrigins)
		assert.Equal(t, int64(5<<20), cfg.MaxImageBytes)
		assert.Equal(t, 800, cfg.ImageMaxDimension)
		assert.Equal(t, 70, cfg.ImageQuality)
		assert.Equal(t, 50, cfg.NotificationLimit)
		assert.True(t, cfg.SeedDefaults)
		assert.Equal(t, time.Local, cfg.Location())
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("HTTP_PORT", "9090")
		t.Setenv("DB_DRIVER", "mysql")
		t.Setenv("ALLOWED_ORIGINS", "http://a,http://b")
		cfg, err := FromEnv()
		require.NoError(t, err)
		assert.Equal(t, 9090, cfg.HTTPPort)
		assert.Equal(t, DriverMySQL, cfg.DBDriver)
		assert.Equal(t, []string{"http://a", "http://b"}, cfg.AllowedOrigins)
	})

	t.Run("invalid", func(t *testing.T) {
		tests := map[string]map[string]string{
			"port not a number": {"HTTP_PORT": "eighty"},
			"unknown driver":    {"DB_DRIVER": "postgres"},
			"quality too high":  {"IMAGE_QUALITY": "101"},
			"unknown time zone": {"TIME_ZONE": "Mars/Olympus"},
		}
		for name, env := range tests {
			t.Run(name, func(t *testing.T) {
				for k, v := range env {
					t.Setenv(k, v)
				}
				_, err := FromEnv()
				assert.Error(t, err)
			})
		}
	})
}
