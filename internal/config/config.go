// Package config handles loading and parsing application configuration.
// It supports three sources (in priority order):
//  1. An environment variable:  CONFIG_PATH=/path/to/config.yaml
//  2. A command-line flag:      --config=/path/to/config.yaml
//  3. The environment alone, when neither of the above names a file.
//
// Environment variables always override values from the file.
// The configuration is read once at startup and never changes afterwards.
package config

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the root configuration structure.
// Every field maps to a key in the YAML file AND can be overridden
// by the corresponding environment variable (env:"...").
type Config struct {
	// Env controls log format and verbosity.
	// Valid values: "dev", "staging", "prod"
	Env string `yaml:"env" env:"ENV" env-default:"dev"`

	Storage    Storage `yaml:"storage"`
	HTTPServer `yaml:"http_server"`
}

// Storage selects and configures the database.
type Storage struct {
	// URI is the database connection string. "mongodb://" and
	// "postgres://" URIs select those backends; anything else is taken
	// as a SQLite path.
	URI string `yaml:"uri" env:"MONGODB_URI" env-required:"true"`

	// Database is the MongoDB database name; ignored by SQL backends.
	Database string `yaml:"database" env:"MONGODB_DATABASE" env-default:"students"`

	// Timeout bounds the initial connection attempt.
	Timeout time.Duration `yaml:"timeout" env:"STORAGE_TIMEOUT" env-default:"10s"`
}

// HTTPServer holds settings specific to the HTTP server.
// Nested under http_server: in the YAML file.
type HTTPServer struct {
	// Addr is the TCP address the server listens on, e.g. "localhost:5000".
	Addr string `yaml:"address" env:"HTTP_SERVER_ADDR" env-default:":5000"`

	// Port, when set, replaces the port part of Addr.
	Port string `yaml:"port" env:"PORT"`

	ReadTimeout     time.Duration `yaml:"read_timeout" env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env-default:"10s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"5s"`

	// MaxBodyBytes caps request bodies; larger ones get 413.
	MaxBodyBytes int64 `yaml:"max_body_bytes" env:"MAX_BODY_BYTES" env-default:"1048576"`

	// AllowedOrigins lists origins allowed by CORS; "*" allows any.
	AllowedOrigins []string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-default:"*"`
}

// Load reads the configuration, taking the file path from CONFIG_PATH or
// the --config flag in args (os.Args[1:] in production).
func Load(args []string) (*Config, error) {
	configPath := os.Getenv("CONFIG_PATH")

	if configPath == "" {
		fs := flag.NewFlagSet("students-api", flag.ContinueOnError)
		flagPath := fs.String("config", "", "Path to the configuration YAML file")
		if err := fs.Parse(args); err != nil {
			return nil, fmt.Errorf("parse flags: %w", err)
		}
		configPath = *flagPath
	}

	var cfg Config
	if configPath == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("cannot read config from environment: %w", err)
		}
	} else {
		// Verify the file exists before trying to read it, for a clearer
		// message than the one cleanenv would produce.
		if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config file does not exist: %s", configPath)
		}
		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			return nil, fmt.Errorf("cannot read config: %w", err)
		}
	}

	if cfg.Port != "" {
		host, _, err := net.SplitHostPort(cfg.Addr)
		if err != nil {
			host = ""
		}
		cfg.Addr = net.JoinHostPort(host, cfg.Port)
	}

	return &cfg, nil
}

// MustLoad reads, validates, and returns the application config.
//
// Functions prefixed with "Must" are allowed to exit on failure: if this
// function returns, the config is valid.
func MustLoad() *Config {
	cfg, err := Load(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
	return cfg
}
