package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Kilat-Pet-Delivery/service-promotion/internal/pkg/database"
	pkgredis "github.com/Kilat-Pet-Delivery/service-promotion/internal/pkg/redis"
)

const defaultJWTSecret = "change-me"

// JWTConfig holds token signing settings. Access and refresh tokens use separate secrets.
type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// KafkaConfig holds broker settings.
type KafkaConfig struct {
	Brokers     []string
	GroupPrefix string
}

// RateLimitConfig bounds the unauthenticated auth endpoints.
type RateLimitConfig struct {
	Limit  int
	Window time.Duration
}

// ServiceConfig holds all configuration for the promotion service.
type ServiceConfig struct {
	Port           string
	AppEnv         string
	DBConfig       database.PostgresConfig
	RedisConfig    pkgredis.Config
	JWTConfig      JWTConfig
	KafkaConfig    KafkaConfig
	LoginRateLimit RateLimitConfig
	JaegerEndpoint string
}

// Load reads configuration from the environment and an optional config.yaml.
func Load() (*ServiceConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVICE_PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "promotion_db")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("JWT_ACCESS_SECRET", defaultJWTSecret)
	v.SetDefault("JWT_REFRESH_SECRET", defaultJWTSecret+"-refresh")
	v.SetDefault("JWT_ACCESS_TTL", "168h")
	v.SetDefault("JWT_REFRESH_TTL", "720h")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_GROUP_PREFIX", "")
	v.SetDefault("LOGIN_RATE_LIMIT", 10)
	v.SetDefault("LOGIN_RATE_WINDOW", "1m")
}

func fromViper(v *viper.Viper) (*ServiceConfig, error) {
	cfg := &ServiceConfig{
		Port:   servicePort(v.GetString("SERVICE_PORT")),
		AppEnv: v.GetString("APP_ENV"),
		DBConfig: database.PostgresConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		RedisConfig: pkgredis.Config{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		JWTConfig: JWTConfig{
			AccessSecret:  v.GetString("JWT_ACCESS_SECRET"),
			RefreshSecret: v.GetString("JWT_REFRESH_SECRET"),
			AccessTTL:     v.GetDuration("JWT_ACCESS_TTL"),
			RefreshTTL:    v.GetDuration("JWT_REFRESH_TTL"),
		},
		KafkaConfig: KafkaConfig{
			Brokers:     splitList(v.GetString("KAFKA_BROKERS")),
			GroupPrefix: v.GetString("KAFKA_GROUP_PREFIX"),
		},
		LoginRateLimit: RateLimitConfig{
			Limit:  v.GetInt("LOGIN_RATE_LIMIT"),
			Window: v.GetDuration("LOGIN_RATE_WINDOW"),
		},
		JaegerEndpoint: v.GetString("JAEGER_ENDPOINT"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *ServiceConfig) validate() error {
	if c.JWTConfig.AccessSecret == "" || c.JWTConfig.RefreshSecret == "" {
		return errors.New("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET are required")
	}
	if c.JWTConfig.AccessSecret == c.JWTConfig.RefreshSecret {
		return errors.New("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ")
	}
	if c.JWTConfig.AccessTTL <= 0 || c.JWTConfig.RefreshTTL <= 0 {
		return errors.New("JWT token lifetimes must be positive")
	}
	if c.IsProduction() && (strings.HasPrefix(c.JWTConfig.AccessSecret, defaultJWTSecret) ||
		strings.HasPrefix(c.JWTConfig.RefreshSecret, defaultJWTSecret)) {
		return errors.New("refusing default JWT secrets in production")
	}
	if c.LoginRateLimit.Limit <= 0 {
		c.LoginRateLimit.Limit = 10
	}
	if c.LoginRateLimit.Window <= 0 {
		c.LoginRateLimit.Window = time.Minute
	}
	return nil
}

// IsProduction reports whether APP_ENV is production.
func (c *ServiceConfig) IsProduction() bool {
	return c.AppEnv == "production"
}

func servicePort(port string) string {
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
