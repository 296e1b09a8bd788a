// Package config provides functionality for managing configuration options
// for the FlightDesk server using command-line flags, an optional JSON config
// file, a .env file and environment variables.
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Options holds the configuration values for the server.
type Options struct {
	// Addr defines the server's listening address (ip:port).
	Addr string `json:"address"`

	// BackendURL is the base URL of the booking backend.
	BackendURL string `json:"backend_url"`

	// Registry is the path to a YAML page registry. Empty means the
	// built-in registry.
	Registry string `json:"registry_file"`

	// LogLevel is the zap level name.
	LogLevel string `json:"log_level"`

	// RedisAddr enables the response cache when set.
	RedisAddr string `json:"redis_addr"`

	// RedisPassword authenticates to Redis.
	RedisPassword string `json:"redis_password"`

	// CacheTTL is how long cached backend responses stay valid.
	CacheTTL Duration `json:"cache_ttl"`

	// Production marks cookies Secure.
	Production bool `json:"production"`

	// TLSCert and TLSKey serve HTTPS when both are set.
	TLSCert string `json:"tls_cert"`
	TLSKey  string `json:"tls_key"`

	// Config is the path to the Config file.
	Config string `json:"-"`
}

// Duration is a time.Duration that reads from JSON as "10m" or as a number
// of seconds.
type Duration struct {
	time.Duration
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch v := v.(type) {
	case float64:
		d.Duration = time.Duration(v * float64(time.Second))
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		d.Duration = parsed
	default:
		return fmt.Errorf("invalid duration %s", b)
	}
	return nil
}

// options holds the current configuration values.
var options = &Options{}

// init initializes command-line flags and sets default values.
func init() {
	registerFlags(flag.CommandLine, options)
}

func registerFlags(fs *flag.FlagSet, o *Options) {
	fs.StringVar(&o.Addr, "a", "localhost:8080", "run on ip:port server")
	fs.StringVar(&o.BackendURL, "b", "http://localhost:8000", "booking backend base URL")
	fs.StringVar(&o.Registry, "r", "", "path to page registry YAML (built-in when empty)")
	fs.StringVar(&o.LogLevel, "l", "info", "log level")
	fs.DurationVar(&o.CacheTTL.Duration, "ttl", 10*time.Minute, "cache TTL for backend responses")
	fs.StringVar(&o.TLSCert, "tls-cert", "", "TLS certificate file (HTTPS when set with -tls-key)")
	fs.StringVar(&o.TLSKey, "tls-key", "", "TLS private key file")
	fs.StringVar(&o.Config, "config", "config.json", "path to config file")
	fs.StringVar(&o.Config, "c", "config.json", "path to config file (shorthand)")
}

// Parse parses the command-line flags and environment variables to set
// configuration values. It returns a pointer to the Options struct containing
// the parsed configuration values.
func Parse() *Options {
	flag.Parse()

	// A missing .env file is fine.
	_ = godotenv.Load()

	if err := load(options, os.Getenv); err != nil {
		log.Fatalf("config: %v", err)
	}
	return options
}

// load applies the config file and then the environment on top of the flag
// values already in o.
func load(o *Options, getenv func(string) string) error {
	if configPath := getenv("CONFIG"); configPath != "" {
		o.Config = configPath
	}

	if o.Config != "" {
		if _, err := os.Stat(o.Config); err == nil {
			data, err := os.ReadFile(o.Config)
			if err != nil {
				return fmt.Errorf("error while reading config file: %w", err)
			}
			if err := json.Unmarshal(data, o); err != nil {
				return fmt.Errorf("error while parsing config file: %w", err)
			}
		}
	}

	if v := getenv("SERVER_ADDRESS"); v != "" {
		o.Addr = v
	}
	if v := getenv("BACKEND_URL"); v != "" {
		o.BackendURL = v
	}
	if v := getenv("REGISTRY_FILE"); v != "" {
		o.Registry = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		o.LogLevel = v
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		o.RedisAddr = v
	}
	if v := getenv("REDIS_PASSWORD"); v != "" {
		o.RedisPassword = v
	}
	if v := getenv("TLS_CERT_FILE"); v != "" {
		o.TLSCert = v
	}
	if v := getenv("TLS_KEY_FILE"); v != "" {
		o.TLSKey = v
	}
	if (o.TLSCert == "") != (o.TLSKey == "") {
		return fmt.Errorf("tls: both a certificate and a key are required")
	}
	if v := getenv("CACHE_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid CACHE_TTL %q: %w", v, err)
		}
		o.CacheTTL.Duration = ttl
	}
	if v := getenv("PRODUCTION"); v != "" {
		prod, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid PRODUCTION %q: %w", v, err)
		}
		o.Production = prod
	}
	return nil
}
