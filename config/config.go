package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort          string
	AppMode          string
	ChunkSizeBytes   int
	SessionTTL       time.Duration
	SweepInterval    time.Duration
	RateLimitEnabled bool
	RedisHost        string
	RedisPort        string
	RedisPassword    string
	CreateLimit      int
	PollLimit        int
}

func LoadConfig() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		AppPort:          getEnv("APP_PORT", "8080"),
		AppMode:          getEnv("APP_MODE", "debug"),
		ChunkSizeBytes:   getEnvAsInt("CHUNK_SIZE_BYTES", 6000),
		SessionTTL:       time.Duration(getEnvAsInt("SESSION_TTL_MIN", 30)) * time.Minute,
		SweepInterval:    time.Duration(getEnvAsInt("SWEEP_INTERVAL_SEC", 60)) * time.Second,
		RateLimitEnabled: getEnvAsBool("RATE_LIMIT_ENABLED", false),
		RedisHost:        getEnv("REDIS_HOST", "localhost"),
		RedisPort:        getEnv("REDIS_PORT", "6379"),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		CreateLimit:      getEnvAsInt("CREATE_LIMIT_PER_MIN", 10),
		PollLimit:        getEnvAsInt("POLL_LIMIT_PER_MIN", 120),
	}
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

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}
