package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds the application configuration
type Config struct {
	// Storage settings
	StorePath string `json:"store_path"` // Path to the user credential file

	// Lockout settings
	AccountMaxAttempts int `json:"account_max_attempts"` // Failures before an account locks
	AccountLockSeconds int `json:"account_lock_seconds"` // Account lock duration in seconds
	AddressMaxAttempts int `json:"address_max_attempts"` // Failures before an address locks
	AddressLockSeconds int `json:"address_lock_seconds"` // Address lock duration in seconds
	UnlockPollSeconds  int `json:"unlock_poll_seconds"`  // How often the unlock wait rechecks

	// SourceAddress identifies the local session in lockout state and
	// audit records
	SourceAddress string `json:"source_address,omitempty"`

	// Password policy settings
	MinPasswordLength int      `json:"min_password_length,omitempty"`
	PasswordBlocklist []string `json:"password_blocklist,omitempty"`

	// Logging settings
	AuditLogPath    string `json:"audit_log_path"`               // Path to the security audit log
	AuditLogMaxSize int64  `json:"audit_log_max_size,omitempty"` // Rotate the audit log past this size (bytes)
	AppLogPath      string `json:"app_log_path,omitempty"`       // Optional: path to application log file
	Debug           bool   `json:"debug,omitempty"`              // Enable debug logging
}

// DefaultConfig returns the configuration used when no config file is given
func DefaultConfig() *Config {
	config := &Config{}
	config.applyDefaults()
	return config
}

// LoadConfig loads configuration from a JSON file
func LoadConfig(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := json.Unmarshal(data, config); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	// Convert relative paths to absolute paths based on config file location
	configDir := filepath.Dir(path)
	if config.StorePath != "" && !filepath.IsAbs(config.StorePath) {
		config.StorePath = filepath.Join(configDir, config.StorePath)
	}
	if config.AuditLogPath != "" && !filepath.IsAbs(config.AuditLogPath) {
		config.AuditLogPath = filepath.Join(configDir, config.AuditLogPath)
	}
	if config.AppLogPath != "" && !filepath.IsAbs(config.AppLogPath) {
		config.AppLogPath = filepath.Join(configDir, config.AppLogPath)
	}

	config.applyDefaults()
	return nil
}

func (c *Config) applyDefaults() {
	if c.StorePath == "" {
		c.StorePath = "users.dat"
	}
	if c.AuditLogPath == "" {
		c.AuditLogPath = "security.log"
	}
	if c.AccountMaxAttempts == 0 {
		c.AccountMaxAttempts = 3
	}
	if c.AccountLockSeconds == 0 {
		c.AccountLockSeconds = 30
	}
	if c.AddressMaxAttempts == 0 {
		c.AddressMaxAttempts = 10
	}
	if c.AddressLockSeconds == 0 {
		c.AddressLockSeconds = 60
	}
	if c.UnlockPollSeconds == 0 {
		c.UnlockPollSeconds = 10
	}
	if c.SourceAddress == "" {
		c.SourceAddress = "127.0.0.1"
	}
}
