package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort string
	AppMode string

	DBDriver   string // postgres or sqlite
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	DBPath     string // sqlite file or DSN

	JWTSecret string

	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	CacheBackend     string // memory or redis
	RateLimitBackend string // memory or redis
	LiveBackend      string // memory (single instance) or redis (fan out across instances)
	SweepInterval    time.Duration

	PollListTTL time.Duration
	PollTTL     time.Duration
	VoteTTL     time.Duration
	ProfileTTL  time.Duration

	CreatePollLimit     int
	CreatePollWindow    time.Duration
	VoteLimit           int
	VoteWindow          time.Duration
	UpdateProfileLimit  int
	UpdateProfileWindow time.Duration
	DeleteAccountLimit  int
	DeleteAccountWindow time.Duration
	LiveConnectLimit    int
	LiveConnectWindow   time.Duration
}

func LoadConfig() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		AppPort: getEnv("APP_PORT", "8080"),
		AppMode: getEnv("APP_MODE", "debug"),

		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "pollbox"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBPath:     getEnv("DB_PATH", "pollbox.db"),

		JWTSecret: getEnv("JWT_SECRET", "change-me"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		CacheBackend:     getEnv("CACHE_BACKEND", "memory"),
		RateLimitBackend: getEnv("RATE_LIMIT_BACKEND", "memory"),
		LiveBackend:      getEnv("LIVE_BACKEND", "memory"),
		SweepInterval:    getEnvAsDuration("SWEEP_INTERVAL", 5*time.Minute),

		PollListTTL: getEnvAsDuration("CACHE_POLLS_TTL", 5*time.Minute),
		PollTTL:     getEnvAsDuration("CACHE_POLL_TTL", time.Minute),
		VoteTTL:     getEnvAsDuration("CACHE_VOTE_TTL", time.Minute),
		ProfileTTL:  getEnvAsDuration("CACHE_PROFILE_TTL", 5*time.Minute),

		CreatePollLimit:     getEnvAsInt("RATE_CREATE_POLL_LIMIT", 5),
		CreatePollWindow:    getEnvAsDuration("RATE_CREATE_POLL_WINDOW", 5*time.Minute),
		VoteLimit:           getEnvAsInt("RATE_VOTE_LIMIT", 100),
		VoteWindow:          getEnvAsDuration("RATE_VOTE_WINDOW", time.Minute),
		UpdateProfileLimit:  getEnvAsInt("RATE_UPDATE_PROFILE_LIMIT", 10),
		UpdateProfileWindow: getEnvAsDuration("RATE_UPDATE_PROFILE_WINDOW", time.Minute),
		DeleteAccountLimit:  getEnvAsInt("RATE_DELETE_ACCOUNT_LIMIT", 1),
		DeleteAccountWindow: getEnvAsDuration("RATE_DELETE_ACCOUNT_WINDOW", 5*time.Minute),
		LiveConnectLimit:    getEnvAsInt("RATE_LIVE_CONNECT_LIMIT", 30),
		LiveConnectWindow:   getEnvAsDuration("RATE_LIVE_CONNECT_WINDOW", time.Minute),
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

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return fallback
}
