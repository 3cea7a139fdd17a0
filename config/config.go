package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort string
	AppMode string
	LogMode string

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	DBSSLMode  string

	JWTSecret string
	JWTIssuer string

	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	CORSOrigins []string

	RateLimitMessages  int
	RateLimitRequests  int
	RateLimitWebSocket int

	S3Region        string
	S3Bucket        string
	S3AccessKey     string
	S3SecretKey     string
	S3Endpoint      string
	S3PresignTTLMin int

	OutboxIntervalMS int
	OutboxBatch      int
	OutboxMaxRetries int
	MatchCacheTTLMin int
}

func LoadConfig() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		AppPort: getEnv("APP_PORT", "5000"),
		AppMode: getEnv("APP_MODE", "debug"),
		LogMode: getEnv("LOG_MODE", "development"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "helpbridge"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret: getEnv("JWT_SECRET", "change-me"),
		JWTIssuer: getEnv("JWT_ISSUER", ""),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		CORSOrigins: getEnvAsList("CORS_ORIGINS", []string{"http://localhost:5173"}),

		RateLimitMessages:  getEnvAsInt("RATE_LIMIT_MESSAGES", 60),
		RateLimitRequests:  getEnvAsInt("RATE_LIMIT_REQUESTS", 10),
		RateLimitWebSocket: getEnvAsInt("RATE_LIMIT_WEBSOCKET", 20),

		S3Region:        getEnv("S3_REGION", ""),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3AccessKey:     getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:     getEnv("S3_SECRET_KEY", ""),
		S3Endpoint:      getEnv("S3_ENDPOINT", ""),
		S3PresignTTLMin: getEnvAsInt("S3_PRESIGN_TTL_MIN", 60),

		OutboxIntervalMS: getEnvAsInt("OUTBOX_INTERVAL_MS", 1000),
		OutboxBatch:      getEnvAsInt("OUTBOX_BATCH", 100),
		OutboxMaxRetries: getEnvAsInt("OUTBOX_MAX_RETRIES", 5),
		MatchCacheTTLMin: getEnvAsInt("MATCH_CACHE_TTL_MIN", 5),
	}
}

// S3Enabled reports whether profile image keys can be presigned.
func (c *Config) S3Enabled() bool {
	return c.S3Region != "" && c.S3Bucket != ""
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsList(key string, fallback []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
