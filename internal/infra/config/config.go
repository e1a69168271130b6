package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const minSecretLen = 32

type Config struct {
	DatabaseURL string
	AutoMigrate bool

	CacheDriver       string
	RedisAddress      string
	RedisUsername     string
	RedisPassword     string
	RedisDB           int
	RedisTLS          bool
	UserCacheTTL      time.Duration
	CacheWriteTimeout time.Duration

	JWTSecret string
	JWTTTL    time.Duration
	Issuer    string
	Audience  string

	PasswordHasher  string
	BcryptCost      int
	PasswordPepper  string
	HashConcurrency int

	HTTPAddress      string
	GRPCAddress      string
	HTTPSCertFile    string
	HTTPSKeyFile     string
	AllowedOrigins   []string
	AllowCredentials bool
	RateLimitRPS     float64
	RateLimitBurst   int

	LogLevel            string
	HealthProbeInterval time.Duration
}

var defaults = map[string]any{
	"CACHE_DRIVER":          "redis",
	"REDIS_DB":              0,
	"USER_CACHE_TTL":        "300s",
	"CACHE_WRITE_TIMEOUT":   "2s",
	"JWT_TTL":               "24h",
	"PASSWORD_HASHER":       "bcrypt",
	"BCRYPT_COST":           10,
	"HASH_CONCURRENCY":      0,
	"HTTP_ADDRESS":          ":3000",
	"GRPC_ADDRESS":          ":50051",
	"RATE_LIMIT_RPS":        50,
	"RATE_LIMIT_BURST":      100,
	"LOG_LEVEL":             "info",
	"AUTO_MIGRATE":          false,
	"ALLOW_CREDENTIALS":     false,
	"HEALTH_PROBE_INTERVAL": "10s",
}

// Load reads configuration from the environment, an optional .env file and
// an optional config.json in the working directory. Environment wins.
func Load() (*Config, error) {
	return LoadFrom(".")
}

func LoadFrom(dir string) (*Config, error) {
	v, err := newViper(dir)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DatabaseURL: v.GetString("DATABASE_URL"),
		AutoMigrate: v.GetBool("AUTO_MIGRATE"),

		CacheDriver:       strings.ToLower(v.GetString("CACHE_DRIVER")),
		RedisAddress:      v.GetString("REDIS_ADDRESS"),
		RedisUsername:     v.GetString("REDIS_USERNAME"),
		RedisPassword:     v.GetString("REDIS_PASSWORD"),
		RedisDB:           v.GetInt("REDIS_DB"),
		UserCacheTTL:      v.GetDuration("USER_CACHE_TTL"),
		CacheWriteTimeout: v.GetDuration("CACHE_WRITE_TIMEOUT"),

		JWTSecret: v.GetString("JWT_SECRET"),
		JWTTTL:    v.GetDuration("JWT_TTL"),
		Issuer:    v.GetString("JWT_ISSUER"),
		Audience:  v.GetString("JWT_AUDIENCE"),

		PasswordHasher:  strings.ToLower(v.GetString("PASSWORD_HASHER")),
		BcryptCost:      v.GetInt("BCRYPT_COST"),
		PasswordPepper:  v.GetString("PASSWORD_PEPPER"),
		HashConcurrency: v.GetInt("HASH_CONCURRENCY"),

		HTTPAddress:      v.GetString("HTTP_ADDRESS"),
		GRPCAddress:      v.GetString("GRPC_ADDRESS"),
		HTTPSCertFile:    v.GetString("HTTPS_CERT_FILE"),
		HTTPSKeyFile:     v.GetString("HTTPS_KEY_FILE"),
		AllowCredentials: v.GetBool("ALLOW_CREDENTIALS"),
		RateLimitRPS:     v.GetFloat64("RATE_LIMIT_RPS"),
		RateLimitBurst:   v.GetInt("RATE_LIMIT_BURST"),

		LogLevel:            v.GetString("LOG_LEVEL"),
		HealthProbeInterval: v.GetDuration("HEALTH_PROBE_INTERVAL"),
	}

	// Port 6380 is the conventional TLS port for managed redis.
	if raw := v.GetString("REDIS_TLS"); raw != "" {
		cfg.RedisTLS = v.GetBool("REDIS_TLS")
	} else {
		cfg.RedisTLS = strings.HasSuffix(cfg.RedisAddress, ":6380")
	}

	origins, err := parseList(v.GetString("ALLOWED_ORIGINS"))
	if err != nil {
		return nil, fmt.Errorf("ALLOWED_ORIGINS: %w", err)
	}
	cfg.AllowedOrigins = origins

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDatabaseURL reads only DATABASE_URL, for commands that need nothing
// else.
func LoadDatabaseURL(dir string) (string, error) {
	v, err := newViper(dir)
	if err != nil {
		return "", err
	}
	dsn := v.GetString("DATABASE_URL")
	if dsn == "" {
		return "", errors.New("DATABASE_URL is required")
	}
	return dsn, nil
}

func newViper(dir string) (*viper.Viper, error) {
	envFile := filepath.Join(dir, ".env")
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(dir)
	v.AutomaticEnv()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}
	return v, nil
}

// TLSEnabled reports whether both certificate files are configured.
func (c *Config) TLSEnabled() bool {
	return c.HTTPSCertFile != "" && c.HTTPSKeyFile != ""
}

func (c *Config) validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if len(c.JWTSecret) < minSecretLen {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes", minSecretLen))
	}
	switch c.CacheDriver {
	case "redis":
		if c.RedisAddress == "" {
			errs = append(errs, errors.New("REDIS_ADDRESS is required for CACHE_DRIVER=redis"))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("CACHE_DRIVER %q: want redis or memory", c.CacheDriver))
	}
	switch c.PasswordHasher {
	case "bcrypt", "argon2id":
	default:
		errs = append(errs, fmt.Errorf("PASSWORD_HASHER %q: want bcrypt or argon2id", c.PasswordHasher))
	}
	if c.UserCacheTTL <= 0 {
		errs = append(errs, errors.New("USER_CACHE_TTL must be positive"))
	}
	if c.JWTTTL < 0 {
		errs = append(errs, errors.New("JWT_TTL must not be negative"))
	}
	if (c.HTTPSCertFile == "") != (c.HTTPSKeyFile == "") {
		errs = append(errs, errors.New("HTTPS_CERT_FILE and HTTPS_KEY_FILE must be set together"))
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive"))
	}
	return errors.Join(errs...)
}

// parseList accepts a JSON array or a comma separated list.
func parseList(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if strings.HasPrefix(raw, "[") {
		var out []string
		if err := json.Unmarshal([]byte(raw), &out); err != nil {
			return nil, err
		}
		return out, nil
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out, nil
}
