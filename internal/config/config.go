package config

import (
	"log"
	"os"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	ServerPort string
	JWTSecret  string

	// Rate limiting configuration
	RateLimit  int           // requests per window per client IP
	RateWindow time.Duration // time window

	// Redis Cache configuration
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	CacheEnabled  bool
	CacheTTL      time.Duration
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	rateLimit, _ := strconv.Atoi(getEnv("RATE_LIMIT", "100"))
	rateWindowMinutes, _ := strconv.Atoi(getEnv("RATE_WINDOW_MINUTES", "1"))

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	cacheEnabled, _ := strconv.ParseBool(getEnv("CACHE_ENABLED", "true"))
	cacheTTLMinutes, _ := strconv.Atoi(getEnv("CACHE_TTL_MINUTES", "30"))

	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "keep_notes"),
		ServerPort: getEnv("SERVER_PORT", "8080"),
		JWTSecret:  getEnv("JWT_SECRET", "default-secret-change-this"),

		RateLimit:  rateLimit,
		RateWindow: time.Duration(rateWindowMinutes) * time.Minute,

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       redisDB,
		CacheEnabled:  cacheEnabled,
		CacheTTL:      time.Duration(cacheTTLMinutes) * time.Minute,
	}
}

// Validate checks that the configuration is usable before wiring starts.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.DBHost, validation.Required),
		validation.Field(&c.DBPort, validation.Required),
		validation.Field(&c.DBUser, validation.Required),
		validation.Field(&c.DBName, validation.Required),
		validation.Field(&c.ServerPort, validation.Required),
		validation.Field(&c.JWTSecret, validation.Required),
		validation.Field(&c.RateLimit, validation.Required, validation.Min(1)),
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
