package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

type Config struct {
	DatabaseURL    string
	HTTPListenAddr string
	LogLevel       string
	ServiceName    string
	// SSHKeygenBin is the key generation tool invoked for new keypairs.
	SSHKeygenBin string
	// ShredBin is the secure deletion tool tried before the in-process
	// overwrite fallback. Empty disables the external tool.
	ShredBin string
	// KeygenDir is where transient key files live between generation and
	// destruction. Empty means the OS temp dir.
	KeygenDir string
	// AuthzConfigPath optionally points at a YAML file overriding the
	// built-in authorization kind table.
	AuthzConfigPath string
	// ReservationSweepInterval is how often expired reservations are purged.
	// Zero disables the sweeper.
	ReservationSweepInterval time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		HTTPListenAddr:  getEnv("HTTP_LISTEN_ADDR", ":8090"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		ServiceName:     getEnv("SERVICE_NAME", "broker-api"),
		SSHKeygenBin:    getEnv("SSH_KEYGEN_BIN", "ssh-keygen"),
		ShredBin:        getEnv("SHRED_BIN", "shred"),
		KeygenDir:       getEnv("KEYGEN_DIR", ""),
		AuthzConfigPath: getEnv("AUTHZ_CONFIG_PATH", ""),
	}

	sweep, err := getEnvDuration("RESERVATION_SWEEP_INTERVAL", time.Minute)
	if err != nil {
		return nil, err
	}
	cfg.ReservationSweepInterval = sweep

	return cfg, nil
}

// Validate checks that everything the broker needs to start is present.
func (c *Config) Validate() error {
	var missing []string

	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.HTTPListenAddr == "" {
		missing = append(missing, "HTTP_LISTEN_ADDR")
	}
	if c.SSHKeygenBin == "" {
		missing = append(missing, "SSH_KEYGEN_BIN")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}
