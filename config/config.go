package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port int `json:"port"`

	// TLS settings
	TLSCertFile string `json:"tls_cert_file"`
	TLSKeyFile  string `json:"tls_key_file"`

	// Relay message log
	DBPath string `json:"db_path"`

	// Encryption key store
	KeyStorePath string `json:"keystore_path"`

	// Local dev signer seed file
	SignerPath string `json:"signer_path"`

	// Client settings
	ServerURL string `json:"server_url"`
	Username  string `json:"username"`

	// Window manager performance mode: low, medium, high, dynamic
	PerformanceMode string `json:"performance_mode"`

	// Logging
	LogLevel string `json:"log_level"`

	// Config directory
	ConfigDir string `json:"config_dir"`
}

var validPerfModes = map[string]bool{
	"low":     true,
	"medium":  true,
	"high":    true,
	"dynamic": true,
}

// LoadConfig loads configuration from environment variables and .env files
func LoadConfig(configDir string) (*Config, error) {
	cfg := &Config{}

	// Config directory: environment variable first, then parameter, then default
	if envConfigDir := os.Getenv("CIPHERDESK_CONFIG_DIR"); envConfigDir != "" {
		cfg.ConfigDir = envConfigDir
	} else if configDir != "" {
		cfg.ConfigDir = configDir
	} else {
		cfg.ConfigDir = getDefaultConfigDir()
	}

	if err := os.MkdirAll(cfg.ConfigDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	envPath := filepath.Join(cfg.ConfigDir, ".env")
	if err := loadEnvFile(envPath); err != nil {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	if err := cfg.loadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromEnv loads configuration from environment variables
func (c *Config) loadFromEnv() error {
	if portStr := os.Getenv("CIPHERDESK_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid CIPHERDESK_PORT: %s", portStr)
		}
		c.Port = port
	} else {
		c.Port = 9090
	}

	if dbPath := os.Getenv("CIPHERDESK_DB_PATH"); dbPath != "" {
		c.DBPath = dbPath
	} else {
		c.DBPath = filepath.Join(c.ConfigDir, "cipherdesk.db")
	}

	if keyStorePath := os.Getenv("CIPHERDESK_KEYSTORE_PATH"); keyStorePath != "" {
		c.KeyStorePath = keyStorePath
	} else {
		c.KeyStorePath = filepath.Join(c.ConfigDir, "keys.db")
	}

	if signerPath := os.Getenv("CIPHERDESK_SIGNER_PATH"); signerPath != "" {
		c.SignerPath = signerPath
	} else {
		c.SignerPath = filepath.Join(c.ConfigDir, "signer.key")
	}

	if serverURL := os.Getenv("CIPHERDESK_SERVER_URL"); serverURL != "" {
		c.ServerURL = serverURL
	} else {
		c.ServerURL = "http://localhost:9090"
	}

	c.Username = os.Getenv("CIPHERDESK_USERNAME")

	if mode := os.Getenv("CIPHERDESK_PERF_MODE"); mode != "" {
		c.PerformanceMode = mode
	} else {
		c.PerformanceMode = "dynamic"
	}

	if logLevel := os.Getenv("CIPHERDESK_LOG_LEVEL"); logLevel != "" {
		c.LogLevel = logLevel
	} else {
		c.LogLevel = "info"
	}

	c.TLSCertFile = os.Getenv("CIPHERDESK_TLS_CERT_FILE")
	c.TLSKeyFile = os.Getenv("CIPHERDESK_TLS_KEY_FILE")

	return nil
}

// Validate ensures all required configuration is present
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if !validPerfModes[c.PerformanceMode] {
		return fmt.Errorf("performance mode must be low, medium, high, or dynamic, got %q", c.PerformanceMode)
	}
	return nil
}

// getDefaultConfigDir returns the default configuration directory
func getDefaultConfigDir() string {
	// Development mode: running from project root
	if _, err := os.Stat("go.mod"); err == nil {
		return "./config"
	}

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "cipherdesk")
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./config"
	}
	return filepath.Join(homeDir, ".config", "cipherdesk")
}

// loadEnvFile loads environment variables from a .env file if it exists
func loadEnvFile(envPath string) error {
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(envPath); err != nil {
		return fmt.Errorf("failed to load .env file %s: %w", envPath, err)
	}
	return nil
}

// IsTLSEnabled returns true if both TLS certificate and key files are configured
func (c *Config) IsTLSEnabled() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}

// GetWebSocketScheme returns the appropriate WebSocket scheme based on TLS configuration
func (c *Config) GetWebSocketScheme() string {
	if c.IsTLSEnabled() {
		return "wss"
	}
	return "ws"
}
