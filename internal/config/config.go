package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	State    StateConfig    `mapstructure:"state"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Preload  PreloadConfig  `mapstructure:"preload"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Site     SiteConfig     `mapstructure:"site"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Admin    AdminConfig    `mapstructure:"admin"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Host                    string          `mapstructure:"host"`
	Port                    int             `mapstructure:"port"`
	Mode                    string          `mapstructure:"mode"`
	ReadTimeout             time.Duration   `mapstructure:"read_timeout"`
	WriteTimeout            time.Duration   `mapstructure:"write_timeout"`
	GracefulShutdownTimeout time.Duration   `mapstructure:"graceful_shutdown_timeout"`
	RateLimit               RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig throttles the visitor write endpoints per client IP.
// A zero PerSecond disables the limiter.
type RateLimitConfig struct {
	PerSecond float64 `mapstructure:"per_second"`
	Burst     int     `mapstructure:"burst"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	DB              string        `mapstructure:"db"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// Enabled reports whether a Postgres host has been configured.
func (c PostgresConfig) Enabled() bool {
	return strings.TrimSpace(c.Host) != ""
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type StateConfig struct {
	Backend     string        `mapstructure:"backend"` // "memory" | "redis" | "postgres"
	SessionIdle time.Duration `mapstructure:"session_idle"`
}

// CacheConfig holds read-time TTLs for each cache namespace.
// Retention is handed to the backend so durable stores do not grow forever.
type CacheConfig struct {
	ContactTTL     time.Duration `mapstructure:"contact_ttl"`
	BannerTTL      time.Duration `mapstructure:"banner_ttl"`
	BannerStatsTTL time.Duration `mapstructure:"banner_stats_ttl"`
	BlogTTL        time.Duration `mapstructure:"blog_ttl"`
	Retention      time.Duration `mapstructure:"retention"`
	SweepInterval  time.Duration `mapstructure:"sweep_interval"`
}

type PreloadConfig struct {
	Concurrency int           `mapstructure:"concurrency"`
	Radius      int           `mapstructure:"radius"`
	SweepDelay  time.Duration `mapstructure:"sweep_delay"`
	SweepRate   float64       `mapstructure:"sweep_rate"` // loads per second during the background sweep
	Timeout     time.Duration `mapstructure:"timeout"`
	// AllowedHosts limits which image hosts the server will fetch from.
	AllowedHosts []string `mapstructure:"allowed_hosts"`
}

type UpstreamConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// SiteConfig describes the public site, used for links in the blog feed.
type SiteConfig struct {
	BaseURL     string `mapstructure:"base_url"`
	Title       string `mapstructure:"title"`
	Description string `mapstructure:"description"`
}

type JWTConfig struct {
	SigningKey     string        `mapstructure:"signing_key"`
	Issuer         string        `mapstructure:"issuer"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
}

type AdminConfig struct {
	UserIDs []string `mapstructure:"user_ids"`
}

type CORSConfig struct {
	AllowedOrigins   []string      `mapstructure:"allowed_origins"`
	AllowedMethods   []string      `mapstructure:"allowed_methods"`
	AllowedHeaders   []string      `mapstructure:"allowed_headers"`
	AllowCredentials bool          `mapstructure:"allow_credentials"`
	MaxAge           time.Duration `mapstructure:"max_age"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", time.Duration(0)) // SSE streams stay open
	v.SetDefault("server.graceful_shutdown_timeout", 10*time.Second)
	v.SetDefault("server.rate_limit.per_second", 2.0)
	v.SetDefault("server.rate_limit.burst", 10)

	v.SetDefault("database.postgres.host", "")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.db", "estatehub")
	v.SetDefault("database.postgres.user", "postgres")
	v.SetDefault("database.postgres.password", "")
	v.SetDefault("database.postgres.sslmode", "disable")
	v.SetDefault("database.postgres.max_idle_conns", 5)
	v.SetDefault("database.postgres.max_open_conns", 20)
	v.SetDefault("database.postgres.conn_max_lifetime", time.Hour)
	v.SetDefault("database.postgres.auto_migrate", true)

	v.SetDefault("database.redis.host", "localhost")
	v.SetDefault("database.redis.port", 6379)
	v.SetDefault("database.redis.password", "")
	v.SetDefault("database.redis.db", 0)
	v.SetDefault("database.redis.pool_size", 10)

	v.SetDefault("state.backend", "memory")
	v.SetDefault("state.session_idle", 2*time.Hour)

	v.SetDefault("cache.contact_ttl", 14*24*time.Hour)
	v.SetDefault("cache.banner_ttl", 10*time.Minute)
	v.SetDefault("cache.banner_stats_ttl", 24*time.Hour)
	v.SetDefault("cache.blog_ttl", 30*time.Minute)
	v.SetDefault("cache.retention", 30*24*time.Hour)
	v.SetDefault("cache.sweep_interval", 15*time.Minute)

	v.SetDefault("preload.concurrency", 6)
	v.SetDefault("preload.radius", 2)
	v.SetDefault("preload.sweep_delay", 1500*time.Millisecond)
	v.SetDefault("preload.sweep_rate", 4.0)
	v.SetDefault("preload.timeout", 20*time.Second)
	v.SetDefault("preload.allowed_hosts", []string{})

	v.SetDefault("upstream.base_url", "http://localhost:9000/api")
	v.SetDefault("upstream.api_key", "")
	v.SetDefault("upstream.timeout", 10*time.Second)

	v.SetDefault("site.base_url", "http://localhost:3000")
	v.SetDefault("site.title", "EstateHub")
	v.SetDefault("site.description", "Property news and buying guides")

	v.SetDefault("jwt.signing_key", "")
	v.SetDefault("jwt.issuer", "estatehub-bff")
	v.SetDefault("jwt.access_token_ttl", time.Hour)

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Origin", "Content-Type", "Authorization"})
	v.SetDefault("cors.allow_credentials", false)
	v.SetDefault("cors.max_age", 12*time.Hour)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Load reads config.yaml (if present), overlays environment variables, and returns Config.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")

	// Environment variable override: DATABASE_REDIS_HOST -> database.redis.host
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, err
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
