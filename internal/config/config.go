package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

const (
	StorageMemory   = "memory"
	StorageMongo    = "mongo"
	StoragePostgres = "postgres"
)

type Config struct {
	Host     string
	Port     string
	LogLevel string

	Storage     string
	Mongo       MongoConfig
	PostgresDSN string
	RedisURL    string
	NATSURL     string

	JWTSecret string
	JWTTTL    time.Duration

	AutoProvision bool
	CORSOrigins   []string

	OwnerEmail    string
	OwnerPassword string
	OwnerName     string
}

// LoadConfig reads the environment. Flags registered with AddFlags
// override it after parsing.
func LoadConfig() *Config {
	return &Config{
		Host:     getEnv("HOST", "0.0.0.0"),
		Port:     getEnv("PORT", "8000"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		Storage:     strings.ToLower(getEnv("STORAGE", StorageMemory)),
		Mongo:       *NewMongoConfig(),
		PostgresDSN: getEnv("POSTGRES_DSN", ""),
		RedisURL:    getEnv("REDIS_URL", ""),
		NATSURL:     getEnv("NATS_URL", ""),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTTTL:    getDuration("JWT_TTL", 24*time.Hour),

		AutoProvision: getBool("AUTO_PROVISION", false),
		CORSOrigins:   splitList(getEnv("CORS_ORIGINS", "")),

		OwnerEmail:    getEnv("OWNER_EMAIL", ""),
		OwnerPassword: getEnv("OWNER_PASSWORD", ""),
		OwnerName:     getEnv("OWNER_NAME", "Owner"),
	}
}

func (c *Config) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.Host, "host", c.Host, "interface to listen on")
	fs.StringVar(&c.Port, "port", c.Port, "HTTP port")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "debug, info, warn or error")
	fs.StringVar(&c.Storage, "storage", c.Storage, "storage backend: memory, mongo or postgres")
	fs.StringVar(&c.Mongo.URI, "mongodb-uri", c.Mongo.URI, "MongoDB connection URI")
	fs.StringVar(&c.Mongo.Database, "mongodb-db", c.Mongo.Database, "MongoDB database name")
	fs.StringVar(&c.PostgresDSN, "postgres-dsn", c.PostgresDSN, "Postgres connection string")
	fs.StringVar(&c.RedisURL, "redis-url", c.RedisURL, "Redis URL for the membership cache (empty disables it)")
	fs.StringVar(&c.NATSURL, "nats-url", c.NATSURL, "NATS URL for notification intents (empty logs them)")
	fs.DurationVar(&c.JWTTTL, "jwt-ttl", c.JWTTTL, "access token lifetime")
	fs.BoolVar(&c.AutoProvision, "auto-provision", c.AutoProvision, "create a personal organization for approved self-registrations")
	fs.StringSliceVar(&c.CORSOrigins, "cors-origins", c.CORSOrigins, "allowed CORS origins")
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	switch c.Storage {
	case StorageMemory:
	case StorageMongo:
		if c.Mongo.URI == "" {
			return fmt.Errorf("MONGODB_URI is required for mongo storage")
		}
	case StoragePostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required for postgres storage")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("jwt ttl must be positive, got %s", c.JWTTTL)
	}
	return nil
}

func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return strings.TrimSpace(value)
}

func getBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
