package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	Env      string
	LogLevel string

	StorageBackend string
	PostgresConn   string
	MongoURI       string
	MongoDatabase  string

	IdentityProvider        string
	Auth0Domain             string
	FirebaseCredentialsPath string
	FirebaseProjectID       string
	UserInfoTimeout         time.Duration
	UserInfoRatePerSec      float64
	UserInfoBurst           int

	TokenCacheBackend string
	TokenCacheTTL     time.Duration
	TokenCacheSize    int
	MemcachedURL      string
	RedisURL          string

	NatsURL     string
	MetricsPort string
	AdminEmails []string
}

// Load reads the configuration from the environment, after loading a .env
// file when one is present
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		StorageBackend: getEnv("STORAGE_BACKEND", "postgres"),
		PostgresConn:   getEnv("POSTGRES_CONN_STR", ""),
		MongoURI:       getEnv("MONGO_URI", ""),
		MongoDatabase:  getEnv("MONGO_DATABASE", "dispatch"),

		IdentityProvider:        getEnv("IDENTITY_PROVIDER", "auth0"),
		Auth0Domain:             getEnv("AUTH0_DOMAIN", ""),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		FirebaseProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
		UserInfoTimeout:         getEnvDuration("USERINFO_TIMEOUT", 5*time.Second),
		UserInfoRatePerSec:      getEnvFloat("USERINFO_RATE_PER_SEC", 0),
		UserInfoBurst:           getEnvInt("USERINFO_BURST", 10),

		TokenCacheBackend: getEnv("TOKEN_CACHE_BACKEND", "memory"),
		TokenCacheTTL:     getEnvDuration("TOKEN_CACHE_TTL", 30*time.Minute),
		TokenCacheSize:    getEnvInt("TOKEN_CACHE_SIZE", 10000),
		MemcachedURL:      getEnv("MEMCACHED_URL", "localhost:11211"),
		RedisURL:          getEnv("REDIS_URL", "redis://localhost:6379/0"),

		NatsURL:     getEnv("NATS_URL", ""),
		MetricsPort: getEnv("METRICS_PORT", "9090"),
		AdminEmails: splitList(getEnv("ADMIN_EMAILS", "")),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return f
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("30m") or a bare number of seconds
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
