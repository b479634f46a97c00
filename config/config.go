package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Finnhub
	FinnhubToken string

	// Storage
	SQLitePath    string
	ModelPath     string
	ModelStore    string // "file" or "redis"
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	ModelKey      string

	// Service
	HTTPAddr string
	LogLevel string

	// Training
	CVFolds      int
	FoldPolicy   string // "average" or "best-fold"
	BuildWorkers int
	Learners     string // comma-separated learner names, empty for all
}

// Load reads configuration from a .env file (if present) and the environment.
// Real environment variables take precedence over .env entries.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[config] .env ignored: %v", err)
	}
	return fromEnv()
}

func fromEnv() *Config {
	return &Config{
		FinnhubToken: getEnv("FINNHUB_TOKEN", ""),

		SQLitePath:    getEnv("SQLITE_PATH", "data/mltrainingdata.db"),
		ModelPath:     getEnv("MODEL_PATH", "data/model.json"),
		ModelStore:    strings.ToLower(getEnv("MODEL_STORE", "file")),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		ModelKey:      getEnv("MODEL_KEY", "model:forecast:current"),

		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		CVFolds:      getEnvInt("CV_FOLDS", 10),
		FoldPolicy:   getEnv("FOLD_POLICY", "average"),
		BuildWorkers: getEnvInt("BUILD_WORKERS", 0),
		Learners:     getEnv("LEARNERS", ""),
	}
}

// RequireFinnhub returns the Finnhub token, exiting when it is unset.
// Only commands that talk to Finnhub call it.
func (c *Config) RequireFinnhub() string {
	if c.FinnhubToken == "" {
		c.FinnhubToken = mustEnv("FINNHUB_TOKEN")
	}
	return c.FinnhubToken
}

// UseRedis reports whether model artifacts live in Redis.
func (c *Config) UseRedis() bool { return c.ModelStore == "redis" }

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("[config] required env var %s not set", key)
	}
	return v
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}
