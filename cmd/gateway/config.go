// In file: cmd/gateway/config.go
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/aquataze/tool-gateway/internal/batch"
	"github.com/aquataze/tool-gateway/internal/credential"
	"github.com/aquataze/tool-gateway/internal/dbconn"
	"github.com/aquataze/tool-gateway/internal/geoip"
	"github.com/aquataze/tool-gateway/internal/tools"
	"github.com/aquataze/tool-gateway/internal/upload"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Endpoint is an outbound service address with its client timeout.
type Endpoint struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// FileConfig is the non-secret part of the configuration, read from config.yaml.
type FileConfig struct {
	Issuer  Endpoint `yaml:"issuer"`
	Upload  Endpoint `yaml:"upload"`
	GeoIP   Endpoint `yaml:"geoip"`
	Render  Endpoint `yaml:"render"`
	Weather Endpoint `yaml:"weather"`

	Batch struct {
		MaxItems int `yaml:"max_items"`
	} `yaml:"batch"`

	Token struct {
		Backend       string        `yaml:"backend"`
		RefreshBuffer time.Duration `yaml:"refresh_buffer"`
	} `yaml:"token"`

	Database struct {
		MaxAttempts int           `yaml:"max_attempts"`
		RetryStep   time.Duration `yaml:"retry_step"`
	} `yaml:"database"`
}

// AppConfig holds all configuration for the gateway, loaded from the environment and config.yaml.
type AppConfig struct {
	Port          string
	GinMode       string
	RedisAddr     string
	DatabaseDSN   string
	AutoMigrate   bool
	APIKey1       string
	APIKey2       string
	TokenFilePath string
	TokenBackend  credential.Backend
	File          FileConfig
}

func defaultFileConfig() FileConfig {
	var fc FileConfig
	fc.Issuer = Endpoint{URL: credential.DefaultIssuerURL}
	fc.Upload = Endpoint{URL: upload.DefaultURL, Timeout: 60 * time.Second}
	fc.GeoIP = Endpoint{URL: geoip.DefaultBaseURL, Timeout: 15 * time.Second}
	fc.Render = Endpoint{Timeout: 90 * time.Second}
	fc.Weather = Endpoint{URL: tools.DefaultWeatherURL, Timeout: 15 * time.Second}
	fc.Batch.MaxItems = batch.MaxItems
	fc.Token.Backend = credential.Memory.String()
	fc.Token.RefreshBuffer = credential.DefaultRefreshBuffer
	fc.Database.MaxAttempts = dbconn.DefaultMaxAttempts
	fc.Database.RetryStep = dbconn.DefaultRetryStep
	return fc
}

// LoadConfig loads configuration from a .env file, environment variables, and the YAML file at path.
func LoadConfig(path string) (*AppConfig, error) {
	// In Docker (GIN_MODE=release) the environment is provided directly.
	if os.Getenv("GIN_MODE") != "release" {
		if err := godotenv.Load(); err != nil {
			log.Println("WARNING: No .env file found for local development.")
		}
	}

	fc := defaultFileConfig()
	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Printf("WARNING: %s not found, using built-in defaults.", path)
	case err != nil:
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(raw, &fc); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	cfg := &AppConfig{
		Port:          envOr("PORT", "8080"),
		GinMode:       os.Getenv("GIN_MODE"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		DatabaseDSN:   os.Getenv("DATABASE_DSN"),
		APIKey1:       os.Getenv("TRUSTED_API_KEY_1"),
		APIKey2:       os.Getenv("TRUSTED_API_KEY_2"),
		TokenFilePath: envOr("TOKEN_FILE_PATH", credential.DefaultTokenFile),
		File:          fc,
	}

	if cfg.DatabaseDSN == "" {
		return nil, fmt.Errorf("DATABASE_DSN environment variable is not set")
	}
	if cfg.APIKey1 == "" || cfg.APIKey2 == "" {
		log.Println("WARNING: TRUSTED_API_KEY_1/TRUSTED_API_KEY_2 not set, token refresh will be rejected by the issuer.")
	}

	if v := os.Getenv("AUTO_MIGRATE"); v != "" {
		if cfg.AutoMigrate, err = strconv.ParseBool(v); err != nil {
			return nil, fmt.Errorf("invalid AUTO_MIGRATE value %q: %w", v, err)
		}
	}

	backend := envOr("TOKEN_BACKEND", fc.Token.Backend)
	if cfg.TokenBackend, err = credential.ParseBackend(backend); err != nil {
		return nil, err
	}
	if cfg.TokenBackend == credential.Redis && cfg.RedisAddr == "" {
		return nil, fmt.Errorf("TOKEN_BACKEND is REDIS but REDIS_ADDR is not set")
	}

	if cfg.File.Batch.MaxItems <= 0 || cfg.File.Batch.MaxItems > batch.MaxItems {
		return nil, fmt.Errorf("batch.max_items must be between 1 and %d, got %d", batch.MaxItems, cfg.File.Batch.MaxItems)
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
