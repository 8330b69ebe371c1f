package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	Redis        RedisConfig        `yaml:"redis"`
	Log          LogConfig          `yaml:"log"`
	Availability AvailabilityConfig `yaml:"availability"`
	Pricing      PricingConfig      `yaml:"pricing"`
	RateLimit    RateLimitConfig    `yaml:"rate_limit"`
	Scheduler    SchedulerConfig    `yaml:"scheduler"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	Database     string `yaml:"database"`
	SSLMode      string `yaml:"ssl_mode"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	AutoMigrate  bool   `yaml:"auto_migrate"`
}

// RedisConfig contains the verdict cache connection. Empty Addr disables the cache.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level      string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format     string `yaml:"format"` // "json" or "text"
	File       string `yaml:"file"`   // optional rotated log file
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// AvailabilityConfig drives the resolver. Buffers have no built-in default:
// turnaround time is an operations decision and must be configured.
type AvailabilityConfig struct {
	BufferBefore         time.Duration `yaml:"buffer_before"`
	BufferAfter          time.Duration `yaml:"buffer_after"`
	StoreTimeout         time.Duration `yaml:"store_timeout"`
	NextAvailableHorizon time.Duration `yaml:"next_available_horizon"`
	MaxRentalDays        int           `yaml:"max_rental_days"`
	StrictBlockOverlap   bool          `yaml:"strict_block_overlap"`
	CacheTTL             time.Duration `yaml:"cache_ttl"`
	MaxAlternatives      int           `yaml:"max_alternatives"`
}

// PricingConfig holds fee and tax tables. Amounts are in cents.
type PricingConfig struct {
	DefaultTaxRate      float64            `yaml:"default_tax_rate"`
	TaxRates            map[string]float64 `yaml:"tax_rates"`
	DeliveryFees        map[string]int64   `yaml:"delivery_fees"`
	DefaultDeliveryFee  int64              `yaml:"default_delivery_fee"`
	FloatFee            int64              `yaml:"float_fee"`
	MinimumDepositCents int64              `yaml:"minimum_deposit_cents"`
	DepositRate         float64            `yaml:"deposit_rate"`
}

// RateLimitConfig uses the limiter formatted rate syntax, e.g. "10-M".
type RateLimitConfig struct {
	Bookings string `yaml:"bookings"`
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	PurgeEndedBlocks    string        `yaml:"purge_ended_blocks"`
	ReleaseStalePending string        `yaml:"release_stale_pending"`
	BlockRetention      time.Duration `yaml:"block_retention"`
	PendingTTL          time.Duration `yaml:"pending_ttl"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	// .env next to the config file, then in the working directory
	if err := loadDotEnv(filepath.Join(filepath.Dir(configPath), ".env"), ".env"); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadDotEnv never overrides variables that are already set.
func loadDotEnv(paths ...string) error {
	for _, p := range paths {
		err := godotenv.Load(p)
		if err == nil || errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return fmt.Errorf("failed to load %s: %w", p, err)
	}
	return nil
}

func envInt(key string, dst *int) {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*dst = n
		}
	}
}

func envDuration(key string, dst *time.Duration) {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	envInt("DB_PORT", &c.Database.Port)
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}
	if val := os.Getenv("DB_AUTO_MIGRATE"); val != "" {
		c.Database.AutoMigrate = strings.EqualFold(val, "true") || val == "1"
	}

	// Redis
	if val := os.Getenv("REDIS_ADDR"); val != "" {
		c.Redis.Addr = val
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		c.Redis.Password = val
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	envInt("SERVER_PORT", &c.Server.Port)

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}
	if val := os.Getenv("LOG_FILE"); val != "" {
		c.Log.File = val
	}

	// Availability
	envDuration("AVAILABILITY_BUFFER_BEFORE", &c.Availability.BufferBefore)
	envDuration("AVAILABILITY_BUFFER_AFTER", &c.Availability.BufferAfter)
	envDuration("AVAILABILITY_STORE_TIMEOUT", &c.Availability.StoreTimeout)

	// Pricing
	if val := os.Getenv("PRICING_DEFAULT_TAX_RATE"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			c.Pricing.DefaultTaxRate = f
		}
	}

	// Set defaults for log if not configured
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid and fills defaults
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 15 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}

	// Database validation
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}

	// Availability
	if c.Availability.BufferBefore < 0 || c.Availability.BufferAfter < 0 {
		return fmt.Errorf("availability buffers must not be negative")
	}
	if c.Availability.StoreTimeout == 0 {
		c.Availability.StoreTimeout = 5 * time.Second
	}
	if c.Availability.NextAvailableHorizon == 0 {
		c.Availability.NextAvailableHorizon = 365 * 24 * time.Hour
	}
	if c.Availability.MaxRentalDays == 0 {
		c.Availability.MaxRentalDays = 365
	}
	if c.Availability.CacheTTL == 0 {
		c.Availability.CacheTTL = 5 * time.Minute
	}
	if c.Availability.MaxAlternatives == 0 {
		c.Availability.MaxAlternatives = 5
	}

	// Pricing defaults
	if c.Pricing.DefaultTaxRate < 0 || c.Pricing.DefaultTaxRate >= 1 {
		return fmt.Errorf("invalid default tax rate: %v", c.Pricing.DefaultTaxRate)
	}
	if c.Pricing.DefaultTaxRate == 0 {
		c.Pricing.DefaultTaxRate = 0.15 // HST
	}
	if len(c.Pricing.DeliveryFees) == 0 {
		c.Pricing.DeliveryFees = map[string]int64{
			"Saint John":          30000,
			"Rothesay":            32000,
			"Quispamsis":          35000,
			"Grand Bay-Westfield": 35000,
			"Hampton":             38000,
			"Other":               40000,
		}
	}
	if c.Pricing.DefaultDeliveryFee == 0 {
		c.Pricing.DefaultDeliveryFee = 15000
	}
	if c.Pricing.MinimumDepositCents == 0 {
		c.Pricing.MinimumDepositCents = 50000
	}

	// Rate limit defaults
	if c.RateLimit.Bookings == "" {
		c.RateLimit.Bookings = "10-M"
	}

	// Scheduler defaults
	if c.Scheduler.PurgeEndedBlocks == "" {
		c.Scheduler.PurgeEndedBlocks = "0 15 3 * * *" // 3:15 AM UTC
	}
	if c.Scheduler.ReleaseStalePending == "" {
		c.Scheduler.ReleaseStalePending = "0 */30 * * * *" // every 30 minutes
	}
	if c.Scheduler.BlockRetention == 0 {
		c.Scheduler.BlockRetention = 30 * 24 * time.Hour
	}
	if c.Scheduler.PendingTTL == 0 {
		c.Scheduler.PendingTTL = 48 * time.Hour
	}

	return nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP listen address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
