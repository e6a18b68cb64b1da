package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Billing  BillingConfig  `mapstructure:"billing"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds the generation ledger configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// BillingConfig locates templates, generated bills and the cell schema.
// TemplatesDir and OutputDir are relative to RootDir unless absolute.
type BillingConfig struct {
	RootDir      string `mapstructure:"root_dir"`
	TemplatesDir string `mapstructure:"templates_dir"`
	OutputDir    string `mapstructure:"output_dir"`
	SchemaPath   string `mapstructure:"schema_path"` // empty uses the built-in layout
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load reads configuration from configPath and the environment.
// A missing file is not an error; defaults and environment still apply.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Billing.RootDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve working directory: %w", err)
		}
		cfg.Billing.RootDir = wd
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	// Database defaults
	v.SetDefault("database.path", "data/billing.db")
	v.SetDefault("database.max_open_conns", 1)
	v.SetDefault("database.max_idle_conns", 1)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	// Billing defaults
	v.SetDefault("billing.root_dir", "")
	v.SetDefault("billing.templates_dir", "Templates")
	v.SetDefault("billing.output_dir", "GeneratedBills")
	v.SetDefault("billing.schema_path", "")

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")
}

func bindEnvVars(v *viper.Viper) {
	v.BindEnv("billing.root_dir", "BILLING_ROOT_DIR")
	v.BindEnv("billing.templates_dir", "BILLING_TEMPLATES_DIR")
	v.BindEnv("billing.output_dir", "BILLING_OUTPUT_DIR")
	v.BindEnv("billing.schema_path", "BILLING_SCHEMA_PATH")
	v.BindEnv("database.path", "BILLING_DATABASE_PATH")
	v.BindEnv("server.port", "BILLING_PORT")
	v.BindEnv("logger.level", "BILLING_LOG_LEVEL")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Billing.TemplatesDir == "" {
		return fmt.Errorf("billing.templates_dir is required")
	}
	if c.Billing.OutputDir == "" {
		return fmt.Errorf("billing.output_dir is required")
	}
	if c.Billing.TemplatesDir == c.Billing.OutputDir {
		return fmt.Errorf("billing.templates_dir and billing.output_dir must differ")
	}

	switch c.Logger.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logger.format must be json or console, got %q", c.Logger.Format)
	}

	return nil
}

// TemplatesPath returns the absolute templates folder
func (c *Config) TemplatesPath() string {
	return c.resolve(c.Billing.TemplatesDir)
}

// OutputPath returns the absolute folder generated bills are written to
func (c *Config) OutputPath() string {
	return c.resolve(c.Billing.OutputDir)
}

// DatabasePath returns the ledger file location
func (c *Config) DatabasePath() string {
	return c.resolve(c.Database.Path)
}

// SchemaFile returns the cell schema location, or "" for the built-in layout
func (c *Config) SchemaFile() string {
	if c.Billing.SchemaPath == "" {
		return ""
	}
	return c.resolve(c.Billing.SchemaPath)
}

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Billing.RootDir, p)
}
