package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("JWT_SECRET_KEY", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreDriverMemory, cfg.Database.Driver)
	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, slog.LevelInfo, cfg.App.LogLevel)
	assert.Equal(t, time.Hour, cfg.JWT.AccessExpiration)
	assert.Equal(t, 10.0, cfg.Attendance.GeofenceRadiusMeters)
	assert.Equal(t, 9.0, cfg.Attendance.RegularizationDefaultHours)
	assert.False(t, cfg.Attendance.AutoCloseEnabled)
	assert.Empty(t, cfg.Redis.Addr)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DB_PASSWORD", "p@ss word")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("JWT_SECRET_KEY", "secret")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ATTENDANCE_GEOFENCE_RADIUS_METERS", "25.5")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("HOLIDAY_CACHE_TTL", "30m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, slog.LevelDebug, cfg.App.LogLevel)
	assert.Equal(t, 25.5, cfg.Attendance.GeofenceRadiusMeters)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.App.AllowedOrigins)
	assert.Equal(t, 30*time.Minute, cfg.Redis.HolidayTTL)
	assert.Equal(t, "postgres://postgres:p%40ss%20word@db:6543/attendance_engine?sslmode=disable", cfg.DatabaseURL())
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"missing secret":      {"STORE_DRIVER": "memory"},
		"missing db password": {"STORE_DRIVER": "postgres", "JWT_SECRET_KEY": "s"},
		"unknown driver":      {"STORE_DRIVER": "mongo", "JWT_SECRET_KEY": "s"},
		"bad port":            {"STORE_DRIVER": "memory", "JWT_SECRET_KEY": "s", "APP_PORT": "eighty"},
		"bad radius":          {"STORE_DRIVER": "memory", "JWT_SECRET_KEY": "s", "ATTENDANCE_GEOFENCE_RADIUS_METERS": "-1"},
		"bad default hours":   {"STORE_DRIVER": "memory", "JWT_SECRET_KEY": "s", "REGULARIZATION_DEFAULT_HOURS": "30"},
		"bad auto close flag": {"STORE_DRIVER": "memory", "JWT_SECRET_KEY": "s", "ATTENDANCE_AUTO_CLOSE_ENABLED": "maybe"},
		"bad access duration": {"STORE_DRIVER": "memory", "JWT_SECRET_KEY": "s", "JWT_ACCESS_EXPIRATION_TIME": "soon"},
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("JWT_SECRET_KEY", "")
			t.Setenv("DB_PASSWORD", "")
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
