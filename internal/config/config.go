package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable read by Load
const EnvPrefix = "TOPOVIZ"

// DefaultJWTSecret is used when no secret is configured; serve warns about it
const DefaultJWTSecret = "topoviz-change-me-in-production"

// Config holds all application configuration
type Config struct {
	Port      string // Panel HTTP port
	DataDir   string // Data directory root
	DBPath    string // SQLite database path
	JWTSecret string // JWT signing secret
	StaticDir string // Built visualization frontend
	LogLevel  string // debug, info, warn, error
	LogFormat string // text or json
	GinMode   string // debug, release, test
}

// New returns a viper instance with defaults and environment binding applied.
// Callers may bind cobra flags onto it before passing it to Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault("port", "8080")
	v.SetDefault("data_dir", "./data")
	v.SetDefault("db_path", "")
	v.SetDefault("jwt_secret", DefaultJWTSecret)
	v.SetDefault("static_dir", "web/dist")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("gin_mode", "release")
	return v
}

// Load reads the optional config file and resolves the final configuration.
// An explicit configFile that cannot be read is an error; a missing implicit
// config.yaml in the working or data directory is not.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile == "" {
		configFile = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(v.GetString("data_dir"))
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	dataDir := v.GetString("data_dir")
	cfg := &Config{
		Port:      v.GetString("port"),
		DataDir:   dataDir,
		DBPath:    v.GetString("db_path"),
		JWTSecret: v.GetString("jwt_secret"),
		StaticDir: v.GetString("static_dir"),
		LogLevel:  strings.ToLower(v.GetString("log_level")),
		LogFormat: strings.ToLower(v.GetString("log_format")),
		GinMode:   v.GetString("gin_mode"),
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(dataDir, "topoviz.db")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return cfg, nil
}

// Validate rejects configurations that would start an insecure or broken server
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q (expected debug, info, warn, or error)", c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q (expected text or json)", c.LogFormat)
	}
	if c.JWTSecret == "" {
		return errors.New("jwt_secret must not be empty")
	}
	if c.GinMode == "release" && c.InsecureSecret() {
		return errors.New("jwt_secret is the built-in default; set TOPOVIZ_JWT_SECRET or use gin_mode debug")
	}
	return nil
}

// InsecureSecret reports whether the JWT secret was left at its built-in default
func (c *Config) InsecureSecret() bool {
	return c.JWTSecret == DefaultJWTSecret
}
