package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig indicates a configuration value that cannot be used.
var ErrInvalidConfig = errors.New("invalid config")

// Storage drivers.
const (
	DriverSQLite = "sqlite"
	DriverNATS   = "nats"
)

// Transport modes.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Config defines application configuration.
type Config struct {
	Storage   StorageConfig   `yaml:"storage" toml:"storage"`
	DB        DBConfig        `yaml:"db" toml:"db"`
	NATS      NATSConfig      `yaml:"nats" toml:"nats"`
	Server    ServerConfig    `yaml:"server" toml:"server"`
	Transport TransportConfig `yaml:"transport" toml:"transport"`
	Log       LogConfig       `yaml:"log" toml:"log"`
}

// StorageConfig selects where the task list is persisted.
type StorageConfig struct {
	Driver string `yaml:"driver" toml:"driver"`
	Key    string `yaml:"key" toml:"key"`
}

type DBConfig struct {
	Path string `yaml:"path" toml:"path"`
}

type NATSConfig struct {
	URL    string `yaml:"url" toml:"url"`
	Bucket string `yaml:"bucket" toml:"bucket"`
}

type ServerConfig struct {
	Host string `yaml:"host" toml:"host"`
	Port int    `yaml:"port" toml:"port"`
}

type TransportConfig struct {
	Mode string `yaml:"mode" toml:"mode"`
}

type LogConfig struct {
	Level string `yaml:"level" toml:"level"`
	Path  string `yaml:"path" toml:"path"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Storage: StorageConfig{
			Driver: DriverSQLite,
			Key:    "todos",
		},
		DB: DBConfig{
			Path: "todoflow.db",
		},
		NATS: NATSConfig{
			URL:    "nats://127.0.0.1:4222",
			Bucket: "todoflow",
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Transport: TransportConfig{
			Mode: TransportStdio,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from an optional YAML or TOML file and environment variables.
func Load() (Config, error) {
	return LoadFile(os.Getenv("TODOFLOW_CONFIG_PATH"))
}

// LoadFile is Load with an explicit config file path. An empty path skips the file.
func LoadFile(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks values that would otherwise fail later at startup.
func (c Config) Validate() error {
	switch c.Storage.Driver {
	case DriverSQLite, DriverNATS:
	default:
		return fmt.Errorf("%w: unknown storage driver %q", ErrInvalidConfig, c.Storage.Driver)
	}
	if strings.TrimSpace(c.Storage.Key) == "" {
		return fmt.Errorf("%w: storage key is empty", ErrInvalidConfig)
	}
	switch c.Transport.Mode {
	case TransportStdio, TransportHTTP:
	default:
		return fmt.Errorf("%w: unknown transport %q", ErrInvalidConfig, c.Transport.Mode)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if driver := os.Getenv("TODOFLOW_STORAGE_DRIVER"); driver != "" {
		cfg.Storage.Driver = driver
	}
	if key := os.Getenv("TODOFLOW_STORAGE_KEY"); key != "" {
		cfg.Storage.Key = key
	}
	if dbPath := os.Getenv("TODOFLOW_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if url := os.Getenv("TODOFLOW_NATS_URL"); url != "" {
		cfg.NATS.URL = url
	}
	if bucket := os.Getenv("TODOFLOW_NATS_BUCKET"); bucket != "" {
		cfg.NATS.Bucket = bucket
	}
	if host := os.Getenv("TODOFLOW_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("TODOFLOW_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid TODOFLOW_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if mode := os.Getenv("TODOFLOW_TRANSPORT"); mode != "" {
		cfg.Transport.Mode = mode
	}
	if level := os.Getenv("TODOFLOW_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if logPath := os.Getenv("TODOFLOW_LOG_PATH"); logPath != "" {
		cfg.Log.Path = logPath
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse config file: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse config file: %w", err)
		}
	}
	return nil
}
