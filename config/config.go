package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage backends selectable with STORAGE.
const (
	StorageMongoDB = "mongodb"
	StorageMemory  = "memory"
)

// ServerConfig holds all configuration for the server and the admin CLI.
// Tags use mapstructure for Viper unmarshalling.
type ServerConfig struct {
	HTTPPort string `mapstructure:"HTTP_PORT"`
	Storage  string `mapstructure:"STORAGE"`

	MongoURI    string `mapstructure:"MONGO_URI"`
	MongoDBName string `mapstructure:"MONGO_DB_NAME"`

	// RedisAddr enables the Redis authorization code store when set.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`
	RedisPrefix   string `mapstructure:"REDIS_PREFIX"`

	LogLevel        string `mapstructure:"LOG_LEVEL"`
	LogPretty       bool   `mapstructure:"LOG_PRETTY"`
	OtelServiceName string `mapstructure:"OTEL_SERVICE_NAME"`

	AccessTokenTTL  time.Duration `mapstructure:"ACCESS_TOKEN_TTL"`
	RefreshTokenTTL time.Duration `mapstructure:"REFRESH_TOKEN_TTL"`
	AuthCodeTTL     time.Duration `mapstructure:"AUTH_CODE_TTL"`
	ScopeCacheTTL   time.Duration `mapstructure:"SCOPE_CACHE_TTL"`

	// TokenRateLimit is requests per second per client IP on the token
	// endpoint. Zero disables limiting.
	TokenRateLimit float64 `mapstructure:"TOKEN_RATE_LIMIT"`
	TokenRateBurst int     `mapstructure:"TOKEN_RATE_BURST"`

	BcryptCost      int           `mapstructure:"BCRYPT_COST"`
	CleanupInterval time.Duration `mapstructure:"CLEANUP_INTERVAL"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("STORAGE", StorageMongoDB)
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017/shadow_oauth_dev")
	v.SetDefault("MONGO_DB_NAME", "shadow_oauth_dev")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_PREFIX", "shadow-oauth")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", true)
	v.SetDefault("OTEL_SERVICE_NAME", "shadow-oauth-server")
	v.SetDefault("ACCESS_TOKEN_TTL", time.Hour)
	v.SetDefault("REFRESH_TOKEN_TTL", 720*time.Hour)
	v.SetDefault("AUTH_CODE_TTL", 10*time.Minute)
	v.SetDefault("SCOPE_CACHE_TTL", 5*time.Minute)
	v.SetDefault("TOKEN_RATE_LIMIT", 10.0)
	v.SetDefault("TOKEN_RATE_BURST", 20)
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("CLEANUP_INTERVAL", 15*time.Minute)
}

// Load reads configuration from file, environment variables, and defaults.
// A missing config file is not an error.
func Load() (*ServerConfig, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/shadow-oauth/")
	v.AddConfigPath("$HOME/.shadow-oauth")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg ServerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects configurations the server cannot start with.
func (c *ServerConfig) Validate() error {
	switch c.Storage {
	case StorageMongoDB:
		if c.MongoURI == "" || c.MongoDBName == "" {
			return errors.New("MONGO_URI and MONGO_DB_NAME are required for mongodb storage")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("unknown STORAGE %q", c.Storage)
	}

	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 || c.AuthCodeTTL <= 0 {
		return errors.New("token lifetimes must be positive")
	}
	if c.TokenRateLimit < 0 {
		return errors.New("TOKEN_RATE_LIMIT cannot be negative")
	}

	return nil
}
