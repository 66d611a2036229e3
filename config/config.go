package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

type Config struct {
	DatabaseDriver string        `envconfig:"DATABASE_DRIVER" default:"sqlite"`
	DatabaseURL    string        `envconfig:"DATABASE_URL"    default:"bamazon.db"`
	HTTPPort       string        `envconfig:"HTTP_PORT"       default:":8081"`
	GrpcPort       string        `envconfig:"GRPC_PORT"       default:":50051"`
	LogLevel       string        `envconfig:"LOG_LEVEL"       default:"info"`
	StoreTimeout   time.Duration `envconfig:"STORE_TIMEOUT"   default:"10s"`
	SeedFile       string        `envconfig:"SEED_FILE"`
}

var (
	config Config
	once   sync.Once
)

// Process reads the environment into a fresh Config and validates it.
func Process() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process configuration from environment variables: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case DriverPostgres, DriverSQLite:
		if c.DatabaseURL == "" {
			return fmt.Errorf("configuration error: DATABASE_URL is required for driver %s", c.DatabaseDriver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("configuration error: unknown DATABASE_DRIVER %q", c.DatabaseDriver)
	}
	if c.StoreTimeout <= 0 {
		return fmt.Errorf("configuration error: STORE_TIMEOUT must be positive, got %s", c.StoreTimeout)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	return nil
}

// LoadConfig loads .env once and exits the process on invalid configuration.
func LoadConfig(logger *logrus.Logger) *Config {
	once.Do(func() {
		err := godotenv.Load()
		if err != nil && !os.IsNotExist(err) {
			logger.Warnf("Error loading .env file (but continuing): %v", err)
		} else if err == nil {
			logger.Info("Loaded configuration from .env file")
		}

		cfg, err := Process()
		if err != nil {
			logger.Fatal(err)
		}
		config = *cfg

		logger.Infof("Configuration loaded: Driver=%s, HTTP Port=%s, GRPC Port=%s, LogLevel=%s",
			config.DatabaseDriver, config.HTTPPort, config.GrpcPort, config.LogLevel)
		if config.SeedFile != "" {
			logger.Infof("Configuration loaded: SeedFile=%s", config.SeedFile)
		}
	})
	return &config
}

// NewLogger builds the JSON logger every binary shares.
func NewLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&logrus.JSONFormatter{})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logger.Warnf("Invalid log level '%s', using default 'info'", level)
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}
