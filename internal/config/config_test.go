package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := Default()
	cfg.Database.DSN = "gym:gym@tcp(127.0.0.1:3306)/gym?parseTime=true"
	cfg.Auth.JWTSecret = "s3cret"
	return cfg
}

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, 5*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, 72*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 100.0, cfg.Gym.GeofenceRadius)
	assert.False(t, cfg.Gym.GeofenceEnforce)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{name: "valid", modify: func(*Config) {}},
		{name: "missing dsn", modify: func(c *Config) { c.Database.DSN = "" }, wantErr: true},
		{name: "missing secret", modify: func(c *Config) { c.Auth.JWTSecret = "" }, wantErr: true},
		{name: "zero ttl", modify: func(c *Config) { c.Auth.TokenTTL = 0 }, wantErr: true},
		{name: "zero radius", modify: func(c *Config) { c.Gym.GeofenceRadius = 0 }, wantErr: true},
		{name: "latitude out of range", modify: func(c *Config) { c.Gym.Latitude = 91 }, wantErr: true},
		{name: "unknown timezone", modify: func(c *Config) { c.Gym.Timezone = "Mars/Olympus" }, wantErr: true},
		{name: "utc", modify: func(c *Config) { c.Gym.Timezone = "UTC" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.applyEnv(envMap(map[string]string{
		"DB_DSN_PRIMARY":         "dsn",
		"JWT_SECRET":             "secret",
		"SERVER_ADDR":            ":9090",
		"GYM_LATITUDE":           "19.4326",
		"GYM_LONGITUDE":          "-99.1332",
		"GEOFENCE_RADIUS_METERS": "250",
		"GEOFENCE_ENFORCE":       "true",
		"TOKEN_TTL":              "24h",
		"GYM_TIMEZONE":           "",
	}))
	require.NoError(t, err)
	assert.Equal(t, "dsn", cfg.Database.DSN)
	assert.Equal(t, "secret", cfg.Auth.JWTSecret)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.InDelta(t, 19.4326, cfg.Gym.Latitude, 1e-9)
	assert.InDelta(t, -99.1332, cfg.Gym.Longitude, 1e-9)
	assert.Equal(t, 250.0, cfg.Gym.GeofenceRadius)
	assert.True(t, cfg.Gym.GeofenceEnforce)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "America/Mexico_City", cfg.Gym.Timezone, "empty values do not override")

	for key, bad := range map[string]string{
		"GYM_LATITUDE":     "north",
		"GEOFENCE_ENFORCE": "maybe",
		"TOKEN_TTL":        "3 days",
	} {
		err := Default().applyEnv(envMap(map[string]string{key: bad}))
		assert.Error(t, err, key)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gym.yaml")
	content := `
server:
  addr: ":7070"
database:
  dsn: "from-file"
  conn_max_lifetime: 2m
auth:
  jwt_secret: "file-secret"
  token_ttl: 12h
gym:
  timezone: UTC
  geofence_radius_meters: 50
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("SERVER_ADDR", ":6060")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":6060", cfg.Server.Addr)
	assert.Equal(t, 2*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, 12*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 50.0, cfg.Gym.GeofenceRadius)
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestLoad_MissingFileAndSecrets(t *testing.T) {
	t.Setenv("DB_DSN_PRIMARY", "")
	t.Setenv("JWT_SECRET", "")
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorContains(t, err, "dsn")
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gym.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o600))
	_, err := Load(path)
	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestLogLevel(t *testing.T) {
	cfg := Default()
	cfg.Server.LogLevel = "debug"
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel())
	cfg.Server.LogLevel = "loud"
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel())
}
