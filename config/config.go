package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config stores the application configuration.
type Config struct {
	ServerAddr string

	// MinIO object store
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioRegion    string
	MinioUseSSL    bool

	// Redis manifest cache
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// MySQL lecture catalog
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Streaming and manifest policy
	MaxChunkSize          int64         // max bytes served per range response
	SignedURLTTL          time.Duration // lifetime of presigned track URLs
	CacheTTL              time.Duration // manifest cache TTL, must stay below SignedURLTTL
	CacheSafetyMargin     time.Duration // minimum remaining lifetime for a cache hit
	MaxConcurrentSignings int

	// Auth
	JWTSecret      string
	AdminTokenHash string // bcrypt hash guarding the invalidation endpoint

	// Logging
	LogLevel  string
	LogOutput string
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvInt64 gets an environment variable as int64 or returns a default value.
func getEnvInt64(key string, fallback int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool gets an environment variable as bool or returns a default value.
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

// getEnvDuration gets an environment variable as time.Duration or returns a default value.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// Attempt to load .env file. godotenv.Load() will not override existing env vars.
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found or error loading .env, relying on existing environment variables and defaults.")
	}

	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8080"),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "127.0.0.1:9000"),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getEnv("MINIO_BUCKET", "elmify-audio"),
		MinioRegion:    getEnv("MINIO_REGION", "us-east-1"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),

		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getEnv("DB_NAME", "elmify"),

		// 10 MiB per response; smaller values trade extra round trips for
		// resilience on poor mobile networks.
		MaxChunkSize:          getEnvInt64("MAX_CHUNK_SIZE", 10*1024*1024),
		SignedURLTTL:          getEnvDuration("SIGNED_URL_TTL", 4*time.Hour),
		CacheTTL:              getEnvDuration("MANIFEST_CACHE_TTL", 3*time.Hour+30*time.Minute),
		CacheSafetyMargin:     getEnvDuration("MANIFEST_CACHE_SAFETY_MARGIN", 5*time.Minute),
		MaxConcurrentSignings: getEnvInt("MAX_CONCURRENT_SIGNINGS", 64),

		JWTSecret:      getEnv("JWT_SECRET", "elmify-dev-secret"),
		AdminTokenHash: os.Getenv("ADMIN_TOKEN_HASH"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogOutput: getEnv("LOG_OUTPUT", ""),
	}
}
