// Package config loads the service configuration from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config groups every setting the server needs at startup.
type Config struct {
	App     AppConfig
	HTTP    HTTPConfig
	DB      DBConfig
	JWT     JWTConfig
	Redis   RedisConfig
	Storage StorageConfig
	Access  AccessConfig
}

// AppConfig holds process-wide settings.
type AppConfig struct {
	Env      string // development | production
	LogLevel string
	LogPath  string // empty disables the rotating log file
}

// HTTPConfig holds listener settings.
type HTTPConfig struct {
	Port int
}

// Addr returns the listen address for gin.
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// DBConfig holds PostgreSQL connection settings.
// DatabaseURL, when set, takes precedence over the discrete fields.
type DBConfig struct {
	DatabaseURL   string
	Host          string
	Port          int
	User          string
	Password      string
	Name          string
	SSLMode       string
	RunMigrations bool
	ConnTimeout   time.Duration
}

// JWTConfig holds session credential settings.
type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	CookieName string
}

// RedisConfig holds cache settings. An empty Host disables Redis.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	BookTTL  time.Duration
}

// Addr returns host:port.
func (c RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// StorageConfig holds object-store settings for signed URL issuance.
type StorageConfig struct {
	Bucket          string
	CredentialsFile string
	SignerEmail     string
}

// AccessConfig holds the gate's tunables.
type AccessConfig struct {
	DeviceLimit   int
	RatePerMinute int
	RateBurst     int
}

// Load reads configuration. Environment variables override values from .env.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	cfg := &Config{
		App: AppConfig{
			Env:      v.GetString("APP_ENV"),
			LogLevel: v.GetString("LOG_LEVEL"),
			LogPath:  v.GetString("LOG_PATH"),
		},
		HTTP: HTTPConfig{
			Port: v.GetInt("HTTP_PORT"),
		},
		DB: DBConfig{
			DatabaseURL:   v.GetString("DATABASE_URL"),
			Host:          v.GetString("DB_HOST"),
			Port:          v.GetInt("DB_PORT"),
			User:          v.GetString("DB_USER"),
			Password:      v.GetString("DB_PASSWORD"),
			Name:          v.GetString("DB_NAME"),
			SSLMode:       v.GetString("DB_SSLMODE"),
			RunMigrations: v.GetBool("RUN_MIGRATIONS"),
			ConnTimeout:   time.Duration(v.GetInt("DB_CONNECT_TIMEOUT_SECONDS")) * time.Second,
		},
		JWT: JWTConfig{
			Secret:     v.GetString("JWT_SECRET"),
			Expiration: time.Duration(v.GetInt("JWT_EXPIRATION_HOURS")) * time.Hour,
			CookieName: v.GetString("AUTH_COOKIE_NAME"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			BookTTL:  time.Duration(v.GetInt("BOOK_CACHE_TTL_MINUTES")) * time.Minute,
		},
		Storage: StorageConfig{
			Bucket:          v.GetString("STORAGE_BUCKET"),
			CredentialsFile: v.GetString("STORAGE_CREDENTIALS_FILE"),
			SignerEmail:     v.GetString("STORAGE_SIGNER_EMAIL"),
		},
		Access: AccessConfig{
			DeviceLimit:   v.GetInt("DEVICE_LIMIT"),
			RatePerMinute: v.GetInt("ACCESS_RATE_PER_MINUTE"),
			RateBurst:     v.GetInt("ACCESS_RATE_BURST"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("HTTP_PORT", 8080)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_NAME", "bookstore")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_CONNECT_TIMEOUT_SECONDS", 60)
	v.SetDefault("JWT_EXPIRATION_HOURS", 24*7)
	v.SetDefault("AUTH_COOKIE_NAME", "token")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("BOOK_CACHE_TTL_MINUTES", 1)
	v.SetDefault("DEVICE_LIMIT", 3)
	v.SetDefault("ACCESS_RATE_PER_MINUTE", 30)
	v.SetDefault("ACCESS_RATE_BURST", 10)
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("config: JWT_SECRET is required")
	}
	if c.Storage.Bucket == "" {
		return errors.New("config: STORAGE_BUCKET is required")
	}
	if c.Access.DeviceLimit <= 0 {
		return fmt.Errorf("config: DEVICE_LIMIT must be positive, got %d", c.Access.DeviceLimit)
	}
	return nil
}

// IsProduction reports whether the service runs with production defaults.
func (c AppConfig) IsProduction() bool {
	return c.Env == "production"
}
