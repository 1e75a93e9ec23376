// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath            string
	KeyringFile       string
	Keys              string // Compact form: "1:<base64>,2:<base64>". Alternative to KeyringFile.
	CurrentKeyVersion int    // Required with Keys; ignored with KeyringFile.
	DefaultAlgorithm  string
	StoreTimeout      time.Duration
	StoreRetries      uint64
	ExpiryScanSpec    string // Cron expression for the expiry scan.
	ExpiryWarnDays    int
}

// Load reads configuration from environment variables and returns a validated
// Config. Key material is required: either CREDVAULT_KEYRING_FILE (YAML
// keyring) or CREDVAULT_KEYS together with CREDVAULT_CURRENT_KEY_VERSION.
// Optional variables with defaults: CREDVAULT_DB_PATH (credvault.db),
// CREDVAULT_DEFAULT_ALGORITHM (aes-256-gcm), CREDVAULT_STORE_TIMEOUT (5s),
// CREDVAULT_STORE_RETRIES (3), CREDVAULT_EXPIRY_SCAN_SCHEDULE (hourly),
// CREDVAULT_EXPIRY_WARN_DAYS (7).
func Load() (*Config, error) {
	cfg := &Config{
		DBPath:           "credvault.db",
		DefaultAlgorithm: "aes-256-gcm",
		StoreTimeout:     5 * time.Second,
		StoreRetries:     3,
		ExpiryScanSpec:   "0 * * * *",
		ExpiryWarnDays:   7,
	}

	if v, ok := os.LookupEnv("CREDVAULT_DB_PATH"); ok {
		cfg.DBPath = v
	}
	if v, ok := os.LookupEnv("CREDVAULT_DEFAULT_ALGORITHM"); ok {
		cfg.DefaultAlgorithm = v
	}

	cfg.KeyringFile = os.Getenv("CREDVAULT_KEYRING_FILE")
	cfg.Keys = os.Getenv("CREDVAULT_KEYS")
	switch {
	case cfg.KeyringFile == "" && cfg.Keys == "":
		return nil, fmt.Errorf("key material not configured: set CREDVAULT_KEYRING_FILE or CREDVAULT_KEYS")
	case cfg.KeyringFile != "" && cfg.Keys != "":
		return nil, fmt.Errorf("CREDVAULT_KEYRING_FILE and CREDVAULT_KEYS are mutually exclusive")
	case cfg.Keys != "":
		v, ok := os.LookupEnv("CREDVAULT_CURRENT_KEY_VERSION")
		if !ok {
			return nil, fmt.Errorf("CREDVAULT_CURRENT_KEY_VERSION is required with CREDVAULT_KEYS")
		}
		current, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("CREDVAULT_CURRENT_KEY_VERSION has invalid value %q: %w", v, err)
		}
		cfg.CurrentKeyVersion = current
	}

	if v, ok := os.LookupEnv("CREDVAULT_STORE_TIMEOUT"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("CREDVAULT_STORE_TIMEOUT has invalid duration %q: %w", v, err)
		}
		cfg.StoreTimeout = parsed
	}
	if v, ok := os.LookupEnv("CREDVAULT_STORE_RETRIES"); ok {
		parsed, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("CREDVAULT_STORE_RETRIES has invalid value %q: %w", v, err)
		}
		cfg.StoreRetries = parsed
	}
	if v, ok := os.LookupEnv("CREDVAULT_EXPIRY_SCAN_SCHEDULE"); ok {
		cfg.ExpiryScanSpec = v
	}
	if v, ok := os.LookupEnv("CREDVAULT_EXPIRY_WARN_DAYS"); ok {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			return nil, fmt.Errorf("CREDVAULT_EXPIRY_WARN_DAYS has invalid value %q", v)
		}
		cfg.ExpiryWarnDays = parsed
	}

	return cfg, nil
}
