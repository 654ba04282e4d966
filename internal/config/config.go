// Package config loads the server configuration: defaults, then an optional
// YAML file, then the environment (a .env file is read first when present).
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Gym      GymConfig      `yaml:"gym"`
}

type ServerConfig struct {
	Addr       string `yaml:"addr"`
	CORSOrigin string `yaml:"cors_origin"`
	LogLevel   string `yaml:"log_level"`
}

type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// GymConfig locates the gym: its timezone decides calendar days and months,
// its coordinates anchor the shift geofence.
type GymConfig struct {
	Timezone        string  `yaml:"timezone"`
	Latitude        float64 `yaml:"latitude"`
	Longitude       float64 `yaml:"longitude"`
	GeofenceRadius  float64 `yaml:"geofence_radius_meters"`
	GeofenceEnforce bool    `yaml:"geofence_enforce"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:       ":8080",
			CORSOrigin: "http://localhost:5173",
			LogLevel:   "info",
		},
		Database: DatabaseConfig{
			MaxOpenConns:    25,
			MaxIdleConns:    25,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Auth: AuthConfig{TokenTTL: 72 * time.Hour},
		Gym: GymConfig{
			Timezone:       "America/Mexico_City",
			GeofenceRadius: 100,
		},
	}
}

// Load builds the configuration. path may be empty or point to a missing
// file; both fall back to defaults plus environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to read .env file", slog.String("error", err.Error()))
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Debug("config file not found, using defaults", slog.String("path", path))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides fields from the environment. lookup is os.LookupEnv
// outside of tests.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("DB_DSN_PRIMARY", &c.Database.DSN)
	str("JWT_SECRET", &c.Auth.JWTSecret)
	str("SERVER_ADDR", &c.Server.Addr)
	str("CORS_ORIGIN", &c.Server.CORSOrigin)
	str("LOG_LEVEL", &c.Server.LogLevel)
	str("GYM_TIMEZONE", &c.Gym.Timezone)

	floats := map[string]*float64{
		"GYM_LATITUDE":           &c.Gym.Latitude,
		"GYM_LONGITUDE":          &c.Gym.Longitude,
		"GEOFENCE_RADIUS_METERS": &c.Gym.GeofenceRadius,
	}
	for key, dst := range floats {
		v, ok := lookup(key)
		if !ok || v == "" {
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = f
	}

	if v, ok := lookup("GEOFENCE_ENFORCE"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid GEOFENCE_ENFORCE: %w", err)
		}
		c.Gym.GeofenceEnforce = b
	}
	if v, ok := lookup("TOKEN_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid TOKEN_TTL: %w", err)
		}
		c.Auth.TokenTTL = d
	}
	return nil
}

// Validate reports the first setting the server cannot start with.
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return errors.New("database dsn is required (DB_DSN_PRIMARY)")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("jwt secret is required (JWT_SECRET)")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("token ttl must be positive")
	}
	if c.Gym.GeofenceRadius <= 0 {
		return errors.New("geofence radius must be positive")
	}
	if c.Gym.Latitude < -90 || c.Gym.Latitude > 90 || c.Gym.Longitude < -180 || c.Gym.Longitude > 180 {
		return errors.New("gym coordinates out of range")
	}
	if _, err := time.LoadLocation(c.Gym.Timezone); err != nil {
		return fmt.Errorf("invalid gym timezone %q: %w", c.Gym.Timezone, err)
	}
	return nil
}

// Location is the gym timezone. Call after Validate.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Gym.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LogLevel maps Server.LogLevel onto slog levels; unknown values mean info.
func (c *Config) LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Server.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
