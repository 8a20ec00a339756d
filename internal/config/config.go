package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Addr      string
	RedisURL  string
	DBPath    string
	JWTSecret string
	LogLevel  string
	// Categorizer (OpenAI-compatible chat completions)
	CategorizerURL     string
	CategorizerAPIKey  string
	CategorizerModel   string
	CategorizerTimeout time.Duration
	// Web Push - empty by default, push disabled if not configured
	VAPIDPublicKey  string
	VAPIDPrivateKey string
}

func Load() Config {
	return Config{
		Addr:               getenv("LADLE_ADDR", ":8080"),
		RedisURL:           getenv("LADLE_REDIS_URL", "redis://localhost:6379/0"),
		DBPath:             getenv("LADLE_DB_PATH", "./data/ladle.db"),
		JWTSecret:          getenv("LADLE_JWT_SECRET", "ladle-dev-secret"),
		LogLevel:           getenv("LADLE_LOG_LEVEL", "info"),
		CategorizerURL:     getenv("LADLE_CATEGORIZER_URL", "https://api.openai.com/v1"),
		CategorizerAPIKey:  getenv("OPENAI_API_KEY", ""),
		CategorizerModel:   getenv("LADLE_CATEGORIZER_MODEL", "gpt-4o-mini"),
		CategorizerTimeout: time.Duration(getenvInt("LADLE_CATEGORIZER_TIMEOUT_SECONDS", 30)) * time.Second,
		VAPIDPublicKey:     getenv("LADLE_VAPID_PUBLIC_KEY", ""),
		VAPIDPrivateKey:    getenv("LADLE_VAPID_PRIVATE_KEY", ""),
	}
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
