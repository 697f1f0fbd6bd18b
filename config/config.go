package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"fhelotto/database"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"
	log "github.com/sirupsen/logrus"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL  string `toml:"database_url"`
	DatabaseName string `toml:"database_name"`

	// NATS configuration
	NATSServers string `toml:"nats_servers"` // comma-separated

	// Lottery configuration
	OwnerAddress         string        `toml:"owner_address"` // hex address allowed to draw and open rounds
	TicketFee            int64         `toml:"ticket_fee"`    // base units per ticket
	WinnerShareNumerator int64         `toml:"winner_share_numerator"`
	ShareDenominator     int64         `toml:"share_denominator"`
	RoundDuration        time.Duration `toml:"round_duration"`
	AutoStartNewRound    bool          `toml:"auto_start_new_round"`
	RevealVaultPath      string        `toml:"reveal_vault_path"`
	Ephemeral            bool          `toml:"ephemeral"` // in-memory journal and vault, no database

	// Logging
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"` // "text" or "json"

	// OpenTelemetry
	OTelEnabled              bool   `toml:"otel_enabled"`
	OTelServiceName          string `toml:"otel_service_name"`
	OTelExporterType         string `toml:"otel_exporter_type"` // "console", "otlp" or "none"
	OTelOTLPEndpoint         string `toml:"otel_otlp_endpoint"`
	OTelExportIntervalMillis int    `toml:"otel_export_interval_millis"`

	// Environment
	Environment string `toml:"environment"` // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = Load()
		if err != nil {
			if os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// Owner returns the owner address
func (c *Config) Owner() common.Address {
	return common.HexToAddress(c.OwnerAddress)
}

func defaults() *Config {
	return &Config{
		NATSServers:              "nats://nats:4222",
		TicketFee:                10000,
		WinnerShareNumerator:     80,
		ShareDenominator:         100,
		RoundDuration:            24 * time.Hour,
		AutoStartNewRound:        true,
		RevealVaultPath:          "reveals.db",
		LogLevel:                 "info",
		LogFormat:                "text",
		OTelServiceName:          "fhelotto",
		OTelExporterType:         "console",
		OTelOTLPEndpoint:         "otel-collector:4317",
		OTelExportIntervalMillis: 30000,
		Environment:              "development",
	}
}

// Load reads and validates the configuration
func Load() (*Config, error) {
	config, err := Read()
	if err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Read builds the configuration from defaults, the optional TOML file named
// by LOTTERY_CONFIG, then environment variables, in increasing precedence
func Read() (*Config, error) {
	config := defaults()

	if path := os.Getenv("LOTTERY_CONFIG"); path != "" {
		if _, err := toml.DecodeFile(path, config); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	if err := applyEnv(config); err != nil {
		return nil, err
	}
	return config, nil
}

func applyEnv(config *Config) error {
	setString(&config.DatabaseURL, "DATABASE_URL")
	setString(&config.DatabaseName, "DATABASE_NAME")
	setString(&config.NATSServers, "NATS_SERVERS")
	setString(&config.OwnerAddress, "OWNER_ADDRESS")
	setString(&config.RevealVaultPath, "REVEAL_VAULT_PATH")
	setString(&config.LogLevel, "LOG_LEVEL")
	setString(&config.LogFormat, "LOG_FORMAT")
	setString(&config.OTelServiceName, "OTEL_SERVICE_NAME")
	setString(&config.OTelExporterType, "OTEL_EXPORTER_TYPE")
	setString(&config.OTelOTLPEndpoint, "OTEL_OTLP_ENDPOINT")
	setString(&config.Environment, "ENVIRONMENT")

	for key, target := range map[string]*int64{
		"TICKET_FEE":             &config.TicketFee,
		"WINNER_SHARE_NUMERATOR": &config.WinnerShareNumerator,
		"SHARE_DENOMINATOR":      &config.ShareDenominator,
	} {
		if v := os.Getenv(key); v != "" {
			parsed, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid %s %q: %w", key, v, err)
			}
			*target = parsed
		}
	}

	if v := os.Getenv("OTEL_EXPORT_INTERVAL_MILLIS"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid OTEL_EXPORT_INTERVAL_MILLIS %q: %w", v, err)
		}
		config.OTelExportIntervalMillis = parsed
	}

	if v := os.Getenv("ROUND_DURATION"); v != "" {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid ROUND_DURATION %q: %w", v, err)
		}
		config.RoundDuration = parsed
	}

	for key, target := range map[string]*bool{
		"AUTO_START_NEW_ROUND": &config.AutoStartNewRound,
		"OTEL_ENABLED":         &config.OTelEnabled,
		"EPHEMERAL":            &config.Ephemeral,
	} {
		if v := os.Getenv(key); v != "" {
			parsed, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid %s %q: %w", key, v, err)
			}
			*target = parsed
		}
	}
	return nil
}

// Validate checks required settings. Test environments skip the connection checks.
func (c *Config) Validate() error {
	if c.TicketFee <= 0 {
		return fmt.Errorf("TICKET_FEE must be positive")
	}
	if c.ShareDenominator <= 0 || c.WinnerShareNumerator < 0 || c.WinnerShareNumerator > c.ShareDenominator {
		return fmt.Errorf("winner share %d/%d is not a fraction in [0, 1]", c.WinnerShareNumerator, c.ShareDenominator)
	}
	if c.RoundDuration <= 0 {
		return fmt.Errorf("ROUND_DURATION must be positive")
	}
	if c.Environment == "test" {
		return nil
	}

	if !common.IsHexAddress(c.OwnerAddress) {
		return fmt.Errorf("OWNER_ADDRESS must be a hex address, got %q", c.OwnerAddress)
	}
	if c.Ephemeral {
		return nil
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.DatabaseName != "" && strings.TrimSpace(c.DatabaseName) == "" {
		return fmt.Errorf("DATABASE_NAME cannot be empty when provided")
	}
	return nil
}

// ConfigureLogging applies the log level and formatter to the standard logrus logger
func (c *Config) ConfigureLogging() error {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	log.SetLevel(level)

	switch c.LogFormat {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	case "", "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("unknown LOG_FORMAT %q", c.LogFormat)
	}
	return nil
}

func setString(target *string, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	config := defaults()
	config.Environment = "test"
	config.OwnerAddress = "0x00000000000000000000000000000000000000aa"
	config.AutoStartNewRound = false
	config.OTelExporterType = "none"
	return config
}
